// Package compiler provides the compilation pipeline for elli sources.
// It turns source text into a command.Pregen in four phases:
//  1. Lexer: tokenization
//  2. Parser: AST generation
//  3. Processor: function generation
//  4. Optimiser: optional call-chain collapsing
//
// All scripts of a project compile into one namespace. They share a single
// root function, contributed in path order, so a function declared in one
// file is callable from any file after it.
package compiler

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/zurustar/elli/pkg/command"
	"github.com/zurustar/elli/pkg/compiler/lexer"
	"github.com/zurustar/elli/pkg/compiler/names"
	"github.com/zurustar/elli/pkg/compiler/parser"
	"github.com/zurustar/elli/pkg/compiler/processor"
	"github.com/zurustar/elli/pkg/script"
)

// Options configures a compilation.
type Options struct {
	// Optimise runs the optimiser over the generated functions.
	Optimise bool

	// Entropy feeds the name generator. Nil means crypto/rand; tests pass
	// a seeded source to get reproducible names.
	Entropy io.Reader
}

// Compile compiles a single source string into namespace.
func Compile(source, namespace string, opts Options) (*command.Pregen, error) {
	return CompileScripts([]script.Script{{Content: source}}, namespace, opts)
}

// CompileScripts compiles every script into one namespace.
//
// Each script is parsed on its own first so that syntax errors point into
// the right file. Processing then runs over the concatenation, and errors
// are mapped back to the file and line they came from.
func CompileScripts(scripts []script.Script, namespace string, opts Options) (*command.Pregen, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}

	for _, s := range scripts {
		_, parseErrs := parser.New(lexer.New(s.Content)).ParseProgram()
		if len(parseErrs) > 0 {
			all := make([]error, len(parseErrs))
			for i, err := range parseErrs {
				all[i] = newCompileError(err, s.FileName, s.Content)
			}
			return nil, errors.Join(all...)
		}
	}

	src := join(scripts)
	root, parseErrs := parser.New(lexer.New(src.text)).ParseProgram()
	if len(parseErrs) > 0 {
		return nil, src.locate(parseErrs[0])
	}

	p := processor.New(root, namespace,
		processor.WithNames(names.New(opts.Entropy)),
		processor.WithOptimise(opts.Optimise),
	)
	pregen, err := p.Process()
	if err != nil {
		return nil, src.locate(err)
	}
	return pregen, nil
}

// joined is the concatenation of several scripts. starts[i] is the number
// of lines before scripts[i].
type joined struct {
	text    string
	scripts []script.Script
	starts  []int
}

func join(scripts []script.Script) *joined {
	j := &joined{scripts: scripts, starts: make([]int, len(scripts))}
	var b strings.Builder
	line := 0
	for i, s := range scripts {
		j.starts[i] = line
		b.WriteString(s.Content)
		b.WriteString("\n")
		line += strings.Count(s.Content, "\n") + 1
	}
	j.text = b.String()
	return j
}

// locate rewrites err against the script containing its line.
func (j *joined) locate(err error) error {
	ce, ok := newCompileError(err, "", j.text).(*CompileError)
	if !ok || ce.Line <= 0 || len(j.scripts) == 0 {
		return err
	}

	// The last script starting before the error line holds it.
	i := sort.Search(len(j.starts), func(i int) bool { return j.starts[i] >= ce.Line }) - 1
	if i < 0 {
		i = 0
	}
	s := j.scripts[i]
	ce.File = s.FileName
	ce.Line -= j.starts[i]
	ce.Context = GenerateErrorContext(s.Content, ce.Line, ce.Column)
	return ce
}
