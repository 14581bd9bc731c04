package command

import (
	"fmt"
	"strings"
)

// Function is a named, ordered command list.
// ID has the form "<namespace>:<name>".
type Function struct {
	ID    string
	Lines []Line
}

// Pregen is the compiler's output before it is written to disk: every
// generated function, in registration order.
type Pregen struct {
	Functions []Function
}

// Lookup returns the lines of the function with the given ID.
func (p *Pregen) Lookup(id string) ([]Line, bool) {
	for _, f := range p.Functions {
		if f.ID == id {
			return f.Lines, true
		}
	}
	return nil, false
}

// IDs lists the function IDs in order.
func (p *Pregen) IDs() []string {
	ids := make([]string, len(p.Functions))
	for i, f := range p.Functions {
		ids[i] = f.ID
	}
	return ids
}

// Serialize renders every function to its text lines.
func (p *Pregen) Serialize() map[string][]string {
	out := make(map[string][]string, len(p.Functions))
	for _, f := range p.Functions {
		out[f.ID] = SerializeLines(f.Lines)
	}
	return out
}

// SerializeLines renders each line.
func SerializeLines(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

// SplitID splits "<namespace>:<name>".
func SplitID(id string) (namespace, name string, err error) {
	namespace, name, ok := strings.Cut(id, ":")
	if !ok || namespace == "" || name == "" {
		return "", "", fmt.Errorf("invalid function id %q", id)
	}
	return namespace, name, nil
}

// Path maps a function ID to `<namespace>/functions/<name>.mcfunction`.
func Path(id string) (string, error) {
	namespace, name, err := SplitID(id)
	if err != nil {
		return "", err
	}
	return namespace + "/functions/" + name + ".mcfunction", nil
}
