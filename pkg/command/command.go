// Package command defines the target command model that the elli compiler
// emits. This package is the leaf both the code generator and the datapack
// writer depend on: the generator builds typed commands, and every type
// serializes to the exact text the substrate executes.
//
// Serialization is pure. Values are never mutated after construction;
// operations such as Selector.Extend return new values.
package command

import "strings"

// Argument is anything that can appear as a command argument.
// The set of implementations is closed: Command, Comment, Coordinate,
// Selector, Item and the NBT values.
type Argument interface {
	String() string
	argument()
}

// Line is an element of a function body: a Command or a Comment.
type Line interface {
	Argument
	line()
}

// Command is a single substrate command.
// Commands nest as arguments, e.g. `execute ... run function ns:f`.
type Command struct {
	Name string
	Args []Argument
}

// New creates a Command.
func New(name string, args ...Argument) Command {
	return Command{Name: name, Args: args}
}

func (c Command) argument() {}
func (c Command) line()     {}

// String renders "name arg1 arg2 ...".
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " ")
}

// Comment is opaque text with no runtime effect.
type Comment struct {
	Text string
}

func (c Comment) argument() {}
func (c Comment) line()     {}

// String renders "# text".
func (c Comment) String() string {
	return "# " + c.Text
}

// IsCommand reports whether l has a runtime effect.
func IsCommand(l Line) bool {
	_, ok := l.(Command)
	return ok
}

// Words turns each value into a bare NBT string argument.
// It is the usual way to spell keywords such as "players" or "run".
func Words(values ...string) []Argument {
	args := make([]Argument, len(values))
	for i, v := range values {
		args[i] = Word(v)
	}
	return args
}

// Call builds `function <id>`.
func Call(id string) Command {
	return New("function", Word(id))
}
