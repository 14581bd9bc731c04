package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/elli/pkg/compiler/parser"
	"github.com/zurustar/elli/pkg/errs"
)

// CompileError is a compilation failure located in a source file.
// It carries a rendering of the surrounding lines and unwraps to the
// underlying *parser.ParserError or *errs.Error.
type CompileError struct {
	// Phase is "parser" or "processor".
	Phase string

	// File is the script the error was found in, empty for a bare source
	// string.
	File string

	Message string

	// Line and Column are 1-indexed; zero when unknown.
	Line   int
	Column int

	// Context holds two lines on each side of Line with a caret under
	// Column.
	Context string

	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "%s error at line %d, column %d: %s", e.Phase, e.Line, e.Column, e.Message)
	} else {
		fmt.Fprintf(&b, "%s error: %s", e.Phase, e.Message)
	}
	if e.Context != "" {
		b.WriteString("\n")
		b.WriteString(e.Context)
	}
	return b.String()
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// newCompileError converts err into a CompileError against source.
// Errors that carry no location are returned unchanged.
func newCompileError(err error, file, source string) error {
	var pe *parser.ParserError
	if errors.As(err, &pe) {
		return &CompileError{
			Phase:   "parser",
			File:    file,
			Message: pe.Message,
			Line:    pe.Line,
			Column:  pe.Column,
			Context: GenerateErrorContext(source, pe.Line, pe.Column),
			Err:     err,
		}
	}

	var ee *errs.Error
	if errors.As(err, &ee) {
		return &CompileError{
			Phase:   "processor",
			File:    file,
			Message: fmt.Sprintf("%s: %s", ee.Kind, ee.Message),
			Line:    ee.Line,
			Column:  ee.Column,
			Context: GenerateErrorContext(source, ee.Line, ee.Column),
			Err:     err,
		}
	}
	return err
}

// GenerateErrorContext renders the lines around an error location with
// line numbers and a caret under the column.
//
// Example output:
//
//	  2 | int x = 5;
//	  3 | int y = 10;
//	> 4 | int z = ;
//	    |         ^
//	  5 | int w = 20;
//	  6 | int v = 30;
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}

	start := max(line-3, 0)
	end := min(line+2, len(lines))
	width := len(fmt.Sprintf("%d", end))

	var buf strings.Builder
	for i := start; i < end; i++ {
		n := i + 1
		if n != line {
			fmt.Fprintf(&buf, "  %*d | %s\n", width, n, lines[i])
			continue
		}
		fmt.Fprintf(&buf, "> %*d | %s\n", width, n, lines[i])
		buf.WriteString("  " + strings.Repeat(" ", width) + " | " + strings.Repeat(" ", max(column-1, 0)) + "^\n")
	}
	return buf.String()
}
