package command

import "strings"

// Target is the selector variable.
type Target int

const (
	NearestPlayer Target = iota // @p
	RandomPlayer                // @r
	EveryPlayer                 // @a
	AllEntities                 // @e
	ExecutingEntity             // @s
)

func (t Target) String() string {
	switch t {
	case NearestPlayer:
		return "@p"
	case RandomPlayer:
		return "@r"
	case EveryPlayer:
		return "@a"
	case AllEntities:
		return "@e"
	case ExecutingEntity:
		return "@s"
	default:
		return "@?"
	}
}

// SelectorValue is the right-hand side of a selector argument.
// Implementations: Range, ScoreConditions, AdvancementConditions, Object,
// RawValue.
type SelectorValue interface {
	String() string
	selectorValue()
}

// RawValue is emitted verbatim, e.g. a tag name.
type RawValue string

func (v RawValue) selectorValue() {}
func (v RawValue) String() string { return string(v) }

// SelectorArgument renders `name=value` or `name=!value`.
type SelectorArgument struct {
	Name     string
	Inverted bool
	Value    SelectorValue
}

// Arg builds a non-inverted selector argument.
func Arg(name string, value SelectorValue) SelectorArgument {
	return SelectorArgument{Name: name, Value: value}
}

func (a SelectorArgument) String() string {
	if a.Inverted {
		return a.Name + "=!" + a.Value.String()
	}
	return a.Name + "=" + a.Value.String()
}

// Selector queries zero or more entities when a command runs.
type Selector struct {
	Target Target
	Args   []SelectorArgument
}

// NewSelector creates a Selector.
func NewSelector(target Target, args ...SelectorArgument) Selector {
	return Selector{Target: target, Args: args}
}

func (s Selector) argument() {}

func (s Selector) String() string {
	if len(s.Args) == 0 {
		return s.Target.String()
	}
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return s.Target.String() + "[" + strings.Join(parts, ",") + "]"
}

// Extend returns a new selector with args appended. s is left untouched.
func (s Selector) Extend(args ...SelectorArgument) Selector {
	merged := make([]SelectorArgument, 0, len(s.Args)+len(args))
	merged = append(merged, s.Args...)
	merged = append(merged, args...)
	return Selector{Target: s.Target, Args: merged}
}

// ScoreCondition constrains one objective.
type ScoreCondition struct {
	Objective string
	Range     Range
}

// ScoreConditions renders `{obj=range,...}`.
type ScoreConditions []ScoreCondition

func (c ScoreConditions) selectorValue() {}

func (c ScoreConditions) String() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.Objective + "=" + s.Range.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Criterion is a single advancement criterion check.
type Criterion struct {
	Name string
	Done bool
}

// Advancement checks either the whole advancement or one criterion of it.
type Advancement struct {
	Name      string
	Done      bool
	Criterion *Criterion
}

func (a Advancement) String() string {
	if a.Criterion != nil {
		return a.Name + "={" + a.Criterion.Name + "=" + Bool(a.Criterion.Done).String() + "}"
	}
	return a.Name + "=" + Bool(a.Done).String()
}

// AdvancementConditions renders `{adv=true,adv2={criterion=false}}`.
type AdvancementConditions []Advancement

func (c AdvancementConditions) selectorValue() {}

func (c AdvancementConditions) String() string {
	parts := make([]string, len(c))
	for i, a := range c {
		parts[i] = a.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
