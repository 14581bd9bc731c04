// Package errs defines the error kinds reported while compiling elli sources.
// Every failure aborts the compilation of the whole namespace; there is no
// recovery and no partial output.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a compile error.
type Kind string

const (
	// NameError: duplicate declaration, undefined variable, function or call.
	NameError Kind = "NameError"

	// TypeError: cross-kind assignment, non-int comparison operands,
	// bad standard-call arity or argument kind, unknown declared type.
	TypeError Kind = "TypeError"

	// ProtocolError: unmatched scope/function end, a range with neither bound.
	ProtocolError Kind = "ProtocolError"
)

// Error is a compile error of a given kind.
// Name carries the offending identifier or description when there is one.
// Line and Column are 1-indexed and zero when the location is unknown.
type Error struct {
	Kind    Kind
	Name    string
	Message string
	Line    int
	Column  int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d, column %d: %s", e.Kind, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New creates an error of the given kind without location information.
func New(kind Kind, name string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
	}
}

// Name creates a NameError for name.
func Name(name string, format string, args ...any) *Error {
	return New(NameError, name, format, args...)
}

// Type creates a TypeError for name.
func Type(name string, format string, args ...any) *Error {
	return New(TypeError, name, format, args...)
}

// Protocol creates a ProtocolError for name.
func Protocol(name string, format string, args ...any) *Error {
	return New(ProtocolError, name, format, args...)
}

// At returns a copy of e located at line and column.
// A location that is already set is kept.
func (e *Error) At(line, column int) *Error {
	if e.Line > 0 {
		return e
	}
	c := *e
	c.Line = line
	c.Column = column
	return &c
}

// Is reports whether err, or any error it wraps, is an *Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Locate attaches a location to err when it is an *Error without one.
// Other errors are returned unchanged.
func Locate(err error, line, column int) error {
	var e *Error
	if errors.As(err, &e) && e.Line == 0 {
		return e.At(line, column)
	}
	return err
}
