package command

import (
	"encoding/json"
	"fmt"
)

// The pregen document is a type-tagged JSON rendering of a Pregen, so a
// compiled namespace can be dumped and loaded again without recompiling.
//
//	{"functions":[{"id":"ns:f","lines":[{"type":"command","name":"kill",...}]}]}

type pregenDoc struct {
	Functions []functionDoc `json:"functions"`
}

type functionDoc struct {
	ID    string `json:"id"`
	Lines []node `json:"lines"`
}

type node struct {
	Type string `json:"type"`

	Name      string `json:"name,omitempty"`
	Text      string `json:"text,omitempty"`
	Arguments []node `json:"arguments,omitempty"`

	X *partDoc `json:"x,omitempty"`
	Y *partDoc `json:"y,omitempty"`
	Z *partDoc `json:"z,omitempty"`

	Target  string        `json:"target,omitempty"`
	Filters []selectorArg `json:"filters,omitempty"`

	Namespace string        `json:"namespace,omitempty"`
	Tag       bool          `json:"tag,omitempty"`
	State     []selectorArg `json:"state,omitempty"`
	Data      *node         `json:"data,omitempty"`

	Entries  []entryDoc      `json:"entries,omitempty"`
	Children []node          `json:"children,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	Quote    bool            `json:"quote,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
}

type partDoc struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

type entryDoc struct {
	Key   string `json:"key"`
	Value node   `json:"value"`
}

type selectorArg struct {
	Name     string          `json:"name"`
	Inverted bool            `json:"inverted,omitempty"`
	Value    json.RawMessage `json:"value"`
}

type valueDoc struct {
	Type         string        `json:"type"`
	Min          *float64      `json:"min,omitempty"`
	Max          *float64      `json:"max,omitempty"`
	Scores       []scoreDoc    `json:"scores,omitempty"`
	Advancements []Advancement `json:"advancements,omitempty"`
	Object       *node         `json:"object,omitempty"`
}

type scoreDoc struct {
	Objective string   `json:"objective"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

var coordinateKinds = map[CoordinateKind]string{
	Absolute: "absolute",
	Relative: "relative",
	Local:    "local",
}

var numberKinds = map[NumberKind]string{
	Int:    "int",
	Byte:   "byte",
	Short:  "short",
	Long:   "long",
	Float:  "float",
	Double: "double",
}

var targets = map[Target]string{
	NearestPlayer:   "@p",
	RandomPlayer:    "@r",
	EveryPlayer:     "@a",
	AllEntities:     "@e",
	ExecutingEntity: "@s",
}

// MarshalJSON encodes the pregen document.
func (p Pregen) MarshalJSON() ([]byte, error) {
	doc := pregenDoc{Functions: make([]functionDoc, len(p.Functions))}
	for i, f := range p.Functions {
		lines := make([]node, len(f.Lines))
		for j, l := range f.Lines {
			n, err := encodeArgument(l)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", f.ID, j+1, err)
			}
			lines[j] = n
		}
		doc.Functions[i] = functionDoc{ID: f.ID, Lines: lines}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a pregen document. Unknown type tags are errors.
func (p *Pregen) UnmarshalJSON(data []byte) error {
	var doc pregenDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	functions := make([]Function, len(doc.Functions))
	for i, f := range doc.Functions {
		lines := make([]Line, len(f.Lines))
		for j, n := range f.Lines {
			a, err := decodeArgument(n)
			if err != nil {
				return fmt.Errorf("%s line %d: %w", f.ID, j+1, err)
			}
			l, ok := a.(Line)
			if !ok {
				return fmt.Errorf("%s line %d: %q is not a command or comment", f.ID, j+1, n.Type)
			}
			lines[j] = l
		}
		functions[i] = Function{ID: f.ID, Lines: lines}
	}
	p.Functions = functions
	return nil
}

func encodeArgument(a Argument) (node, error) {
	switch v := a.(type) {
	case Command:
		args, err := encodeArguments(v.Args)
		if err != nil {
			return node{}, err
		}
		return node{Type: "command", Name: v.Name, Arguments: args}, nil
	case Comment:
		return node{Type: "comment", Text: v.Text}, nil
	case Coordinate:
		return node{
			Type: "coordinate",
			X:    &partDoc{Kind: coordinateKinds[v.X.Kind], Value: v.X.Value},
			Y:    &partDoc{Kind: coordinateKinds[v.Y.Kind], Value: v.Y.Value},
			Z:    &partDoc{Kind: coordinateKinds[v.Z.Kind], Value: v.Z.Value},
		}, nil
	case Selector:
		filters, err := encodeSelectorArgs(v.Args)
		if err != nil {
			return node{}, err
		}
		return node{Type: "selector", Target: targets[v.Target], Filters: filters}, nil
	case Item:
		state, err := encodeSelectorArgs(v.State)
		if err != nil {
			return node{}, err
		}
		n := node{Type: "item", Namespace: v.Namespace, Name: v.Name, Tag: v.Tag, State: state}
		if v.Data != nil {
			data, err := encodeArgument(v.Data)
			if err != nil {
				return node{}, err
			}
			n.Data = &data
		}
		return n, nil
	case Object:
		entries := make([]entryDoc, len(v))
		for i, e := range v {
			val, err := encodeArgument(e.Value)
			if err != nil {
				return node{}, err
			}
			entries[i] = entryDoc{Key: e.Key, Value: val}
		}
		return node{Type: "nbt.object", Entries: entries}, nil
	case Array:
		children := make([]node, len(v))
		for i, c := range v {
			n, err := encodeArgument(c)
			if err != nil {
				return node{}, err
			}
			children[i] = n
		}
		return node{Type: "nbt.array", Children: children}, nil
	case String:
		raw, err := json.Marshal(v.Value)
		if err != nil {
			return node{}, err
		}
		return node{Type: "nbt.string", Value: raw, Quote: v.Quote}, nil
	case Number:
		raw, err := json.Marshal(v.Value)
		if err != nil {
			return node{}, err
		}
		return node{Type: "nbt.number", Kind: numberKinds[v.Kind], Value: raw}, nil
	case Bool:
		raw, _ := json.Marshal(bool(v))
		return node{Type: "nbt.bool", Value: raw}, nil
	default:
		return node{}, fmt.Errorf("cannot encode argument %T", a)
	}
}

func encodeArguments(args []Argument) ([]node, error) {
	out := make([]node, len(args))
	for i, a := range args {
		n, err := encodeArgument(a)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func encodeSelectorArgs(args []SelectorArgument) ([]selectorArg, error) {
	out := make([]selectorArg, len(args))
	for i, a := range args {
		raw, err := encodeSelectorValue(a.Value)
		if err != nil {
			return nil, err
		}
		out[i] = selectorArg{Name: a.Name, Inverted: a.Inverted, Value: raw}
	}
	return out, nil
}

func encodeSelectorValue(v SelectorValue) (json.RawMessage, error) {
	switch sv := v.(type) {
	case RawValue:
		return json.Marshal(string(sv))
	case Range:
		return json.Marshal(valueDoc{Type: "range", Min: sv.Min, Max: sv.Max})
	case ScoreConditions:
		scores := make([]scoreDoc, len(sv))
		for i, s := range sv {
			scores[i] = scoreDoc{Objective: s.Objective, Min: s.Range.Min, Max: s.Range.Max}
		}
		return json.Marshal(valueDoc{Type: "scoreboard", Scores: scores})
	case AdvancementConditions:
		return json.Marshal(valueDoc{Type: "advancements", Advancements: sv})
	case Object:
		n, err := encodeArgument(sv)
		if err != nil {
			return nil, err
		}
		return json.Marshal(valueDoc{Type: "nbt.object", Object: &n})
	default:
		return nil, fmt.Errorf("cannot encode selector value %T", v)
	}
}

func decodeArgument(n node) (Argument, error) {
	switch n.Type {
	case "command":
		args := make([]Argument, len(n.Arguments))
		for i, c := range n.Arguments {
			a, err := decodeArgument(c)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return Command{Name: n.Name, Args: args}, nil
	case "comment":
		return Comment{Text: n.Text}, nil
	case "coordinate":
		if n.X == nil || n.Y == nil || n.Z == nil {
			return nil, fmt.Errorf("coordinate needs x, y and z")
		}
		x, err := decodePart(n.X)
		if err != nil {
			return nil, err
		}
		y, err := decodePart(n.Y)
		if err != nil {
			return nil, err
		}
		z, err := decodePart(n.Z)
		if err != nil {
			return nil, err
		}
		return Coordinate{X: x, Y: y, Z: z}, nil
	case "selector":
		target, ok := lookup(targets, n.Target)
		if !ok {
			return nil, fmt.Errorf("invalid selector target %q", n.Target)
		}
		args, err := decodeSelectorArgs(n.Filters)
		if err != nil {
			return nil, err
		}
		return Selector{Target: target, Args: args}, nil
	case "item":
		state, err := decodeSelectorArgs(n.State)
		if err != nil {
			return nil, err
		}
		item := Item{Namespace: n.Namespace, Name: n.Name, Tag: n.Tag, State: state}
		if n.Data != nil {
			data, err := decodeArgument(*n.Data)
			if err != nil {
				return nil, err
			}
			obj, ok := data.(Object)
			if !ok {
				return nil, fmt.Errorf("item data must be an nbt.object")
			}
			item.Data = obj
		}
		return item, nil
	case "nbt.object":
		obj := make(Object, len(n.Entries))
		for i, e := range n.Entries {
			v, err := decodeNBT(e.Value)
			if err != nil {
				return nil, err
			}
			obj[i] = Entry{Key: e.Key, Value: v}
		}
		return obj, nil
	case "nbt.array":
		arr := make(Array, len(n.Children))
		for i, c := range n.Children {
			v, err := decodeNBT(c)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case "nbt.string":
		var s string
		if err := json.Unmarshal(n.Value, &s); err != nil {
			return nil, fmt.Errorf("nbt.string: %w", err)
		}
		return String{Value: s, Quote: n.Quote}, nil
	case "nbt.number":
		kind, ok := lookup(numberKinds, n.Kind)
		if !ok {
			return nil, fmt.Errorf("invalid number kind %q", n.Kind)
		}
		var f float64
		if err := json.Unmarshal(n.Value, &f); err != nil {
			return nil, fmt.Errorf("nbt.number: %w", err)
		}
		return Number{Kind: kind, Value: f}, nil
	case "nbt.bool":
		var b bool
		if err := json.Unmarshal(n.Value, &b); err != nil {
			return nil, fmt.Errorf("nbt.bool: %w", err)
		}
		return Bool(b), nil
	default:
		return nil, fmt.Errorf("invalid argument type %q", n.Type)
	}
}

func decodeNBT(n node) (NBT, error) {
	a, err := decodeArgument(n)
	if err != nil {
		return nil, err
	}
	v, ok := a.(NBT)
	if !ok {
		return nil, fmt.Errorf("%q is not an nbt value", n.Type)
	}
	return v, nil
}

func decodePart(p *partDoc) (CoordinatePart, error) {
	kind, ok := lookup(coordinateKinds, p.Kind)
	if !ok {
		return CoordinatePart{}, fmt.Errorf("invalid coordinate kind %q", p.Kind)
	}
	return CoordinatePart{Kind: kind, Value: p.Value}, nil
}

func decodeSelectorArgs(args []selectorArg) ([]SelectorArgument, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]SelectorArgument, len(args))
	for i, a := range args {
		v, err := decodeSelectorValue(a.Value)
		if err != nil {
			return nil, fmt.Errorf("selector argument %s: %w", a.Name, err)
		}
		out[i] = SelectorArgument{Name: a.Name, Inverted: a.Inverted, Value: v}
	}
	return out, nil
}

func decodeSelectorValue(raw json.RawMessage) (SelectorValue, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return RawValue(s), nil
	}
	var doc valueDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	switch doc.Type {
	case "range":
		return NewRange(doc.Min, doc.Max)
	case "scoreboard":
		scores := make(ScoreConditions, len(doc.Scores))
		for i, s := range doc.Scores {
			r, err := NewRange(s.Min, s.Max)
			if err != nil {
				return nil, err
			}
			scores[i] = ScoreCondition{Objective: s.Objective, Range: r}
		}
		return scores, nil
	case "advancements":
		return AdvancementConditions(doc.Advancements), nil
	case "nbt.object":
		if doc.Object == nil {
			return nil, fmt.Errorf("nbt.object value is missing")
		}
		a, err := decodeArgument(*doc.Object)
		if err != nil {
			return nil, err
		}
		obj, ok := a.(Object)
		if !ok {
			return nil, fmt.Errorf("expected nbt.object, got %q", doc.Object.Type)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("invalid selector value type %q", doc.Type)
	}
}

func lookup[K comparable](m map[K]string, name string) (K, bool) {
	for k, v := range m {
		if v == name {
			return k, true
		}
	}
	var zero K
	return zero, false
}
