// Package names generates the random identifiers used for function names
// and entity tags.
//
// Each character carries 5 bits of entropy drawn from a 32-letter alphabet,
// so a 32-character name holds 160 random bits. A Generator also remembers
// every name it has handed out or reserved and reports a repeat as a
// NameError rather than returning it.
package names

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"

	"github.com/zurustar/elli/pkg/errs"
)

// Alphabet holds the 32 characters names are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvywxz234567"

const bitsPerCharacter = 5

// Length is the size of the random suffix used for functions and variables.
const Length = 32

var unsafeRun = regexp.MustCompile(`[^a-zA-Z0-9\-_]+`)

// Sanitize replaces every run of characters outside [a-zA-Z0-9-_] with "_".
func Sanitize(description string) string {
	return unsafeRun.ReplaceAllString(description, "_")
}

// Generator produces unique random names.
type Generator struct {
	entropy io.Reader
	seen    map[string]struct{}
}

// New creates a Generator reading from entropy. A nil reader means
// crypto/rand.
func New(entropy io.Reader) *Generator {
	if entropy == nil {
		entropy = rand.Reader
	}
	return &Generator{
		entropy: entropy,
		seen:    make(map[string]struct{}),
	}
}

// Random returns n random characters of Alphabet without recording them.
// Bytes are consumed five at a time, each group yielding eight characters
// read least significant bit first.
func (g *Generator) Random(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	groups := (n + 7) / 8
	buf := make([]byte, groups*bitsPerCharacter)
	if _, err := io.ReadFull(g.entropy, buf); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}

	out := make([]byte, 0, groups*8)
	for i := 0; i < groups; i++ {
		var bits uint64
		for j := 0; j < bitsPerCharacter; j++ {
			bits |= uint64(buf[i*bitsPerCharacter+j]) << (8 * j)
		}
		for c := 0; c < 8; c++ {
			out = append(out, Alphabet[(bits>>(bitsPerCharacter*c))&0x1f])
		}
	}
	return string(out[:n]), nil
}

// Unique returns prefix + "_" + Length random characters, sanitized, and
// records it.
func (g *Generator) Unique(prefix string) (string, error) {
	suffix, err := g.Random(Length)
	if err != nil {
		return "", err
	}
	name := Sanitize(prefix + "_" + suffix)
	if err := g.Reserve(name); err != nil {
		return "", err
	}
	return name, nil
}

// Reserve records name, failing with a NameError when it was already
// generated or reserved.
func (g *Generator) Reserve(name string) error {
	if _, ok := g.seen[name]; ok {
		return errs.Name(name, "name %s is already in use", name)
	}
	g.seen[name] = struct{}{}
	return nil
}

// Seen reports whether name has been generated or reserved.
func (g *Generator) Seen(name string) bool {
	_, ok := g.seen[name]
	return ok
}
