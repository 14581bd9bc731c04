package registry

import "github.com/zurustar/elli/pkg/command"

// Flags describe how a variable's backing entity is managed.
type Flags struct {
	// UserCreated marks an entity the program created in the world
	// (summon). It survives scope cleanup and non-forced deletion.
	UserCreated bool

	// Named marks a variable declared in source. It is never an
	// expression temporary but is still killed when its scope ends.
	Named bool

	// Persistent marks a built-in pseudo-variable that is never killed.
	Persistent bool
}

// Variable is the compiler's view of a source or synthesized variable.
// Implementations: *IntVariable, *EntityVariable.
type Variable interface {
	SourceName() string
	Selector() command.Selector
	Flagged() Flags
	variable()
}

// IntVariable is stored as the `value` score of a marker entity whose tag
// is Holder.
type IntVariable struct {
	Name   string
	Holder string
	Flags
}

func (v *IntVariable) variable()          {}
func (v *IntVariable) SourceName() string { return v.Name }
func (v *IntVariable) Flagged() Flags     { return v.Flags }

// Selector addresses the backing marker, `@e[tag=<holder>,limit=1]`.
func (v *IntVariable) Selector() command.Selector {
	return TagSelector(v.Holder)
}

// EntityVariable refers to one entity by tag, or to a fixed selector when
// Override is set.
type EntityVariable struct {
	Name     string
	Tag      string
	Override *command.Selector
	Flags
}

func (v *EntityVariable) variable()          {}
func (v *EntityVariable) SourceName() string { return v.Name }
func (v *EntityVariable) Flagged() Flags     { return v.Flags }

// Selector returns the override when present, else `@e[tag=<tag>,limit=1]`.
func (v *EntityVariable) Selector() command.Selector {
	if v.Override != nil {
		return *v.Override
	}
	return TagSelector(v.Tag)
}

// TagSelector is `@e[tag=<tag>,limit=1]`.
func TagSelector(tag string) command.Selector {
	return command.NewSelector(command.AllEntities,
		command.Arg("tag", command.RawValue(tag)),
		command.Arg("limit", command.Exactly(1)),
	)
}

// Cleanable reports whether scope exit kills v.
func Cleanable(v Variable) bool {
	f := v.Flagged()
	return !f.UserCreated && !f.Persistent
}

// Temporary reports whether v is a compiler scratch value that may be
// deleted as soon as it has been consumed.
func Temporary(v Variable) bool {
	f := v.Flagged()
	return !f.UserCreated && !f.Named && !f.Persistent
}
