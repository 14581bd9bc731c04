package registry

import "github.com/zurustar/elli/pkg/command"

// Lifecycle functions. The datapack tags and the setup chain call them by
// name, so the optimiser never removes them.
const (
	RootFunction    = "__root"
	SetupFunction   = "__setup"
	TickFunction    = "__tick"
	CleanupFunction = "__cleanup"
)

var lifecycle = map[string]bool{
	RootFunction:    true,
	SetupFunction:   true,
	TickFunction:    true,
	CleanupFunction: true,
}

type disposition int

const (
	keep disposition = iota
	removed
	inlined
)

// Optimise returns a copy of r with trivial call chains collapsed. For each
// function, in registration order, whose only command is `function
// <ns>:<callee>`, where the callee has exactly one reference in the whole
// namespace and is not pinned:
//
//   - a callee with no commands is removed and the call dropped;
//   - a callee with exactly one command is removed and the call replaced
//     by that command;
//   - any other callee is left alone.
//
// Lifecycle functions and explicitly named functions are pinned. A
// callee's disposition is decided the first time it is reached and reused
// for the rest of the pass. The receiver is not modified.
func (r *Registry) Optimise() *Registry {
	out := r.clone()
	refs := out.references()
	decided := make(map[string]disposition)

	for _, name := range append([]string(nil), out.order...) {
		fn, ok := out.functions[name]
		if !ok {
			continue
		}

		idx, callee, ok := out.soleCall(fn)
		if !ok || callee == name || out.pinned(callee) || refs[callee] != 1 {
			continue
		}
		target, ok := out.functions[callee]
		if !ok {
			continue
		}

		d, seen := decided[callee]
		if !seen {
			switch len(realCommands(target.lines)) {
			case 0:
				d = removed
			case 1:
				d = inlined
			default:
				d = keep
			}
			decided[callee] = d
		}

		switch d {
		case removed:
			fn.lines = append(fn.lines[:idx:idx], fn.lines[idx+1:]...)
			refs[callee]--
			out.drop(callee)
		case inlined:
			fn.lines[idx] = realCommands(target.lines)[0]
			refs[callee]--
			out.drop(callee)
		}
	}
	return out
}

func (r *Registry) clone() *Registry {
	c := &Registry{
		namespace:     r.namespace,
		names:         r.names,
		functions:     make(map[string]*function, len(r.functions)),
		order:         append([]string(nil), r.order...),
		byDescription: make(map[string]string, len(r.byDescription)),
		global:        r.global,
		cur:           r.cur,
		stack:         append([]frame(nil), r.stack...),
	}
	for name, fn := range r.functions {
		copied := *fn
		copied.lines = append([]command.Line(nil), fn.lines...)
		c.functions[name] = &copied
	}
	for desc, name := range r.byDescription {
		c.byDescription[desc] = name
	}
	return c
}

// pinned functions are never removed: lifecycle functions and names the
// source asked for explicitly.
func (r *Registry) pinned(name string) bool {
	if lifecycle[name] {
		return true
	}
	fn, ok := r.functions[name]
	return ok && fn.explicit
}

// soleCall reports the index and callee of fn's only command when that
// command is a plain call into this namespace.
func (r *Registry) soleCall(fn *function) (int, string, bool) {
	idx := -1
	for i, l := range fn.lines {
		if !command.IsCommand(l) {
			continue
		}
		if idx >= 0 {
			return 0, "", false
		}
		idx = i
	}
	if idx < 0 {
		return 0, "", false
	}
	callee, ok := r.callee(fn.lines[idx].(command.Command))
	return idx, callee, ok
}

// callee returns the function name c calls when c is `function <ns>:<name>`.
func (r *Registry) callee(c command.Command) (string, bool) {
	if c.Name != "function" || len(c.Args) != 1 {
		return "", false
	}
	ns, name, err := command.SplitID(c.Args[0].String())
	if err != nil || ns != r.namespace {
		return "", false
	}
	return name, true
}

// references counts every call of each function, including calls nested
// in other commands such as `execute ... run function ns:f`.
func (r *Registry) references() map[string]int {
	refs := make(map[string]int)
	var visit func(c command.Command)
	visit = func(c command.Command) {
		if name, ok := r.callee(c); ok {
			refs[name]++
		}
		for _, a := range c.Args {
			if nested, ok := a.(command.Command); ok {
				visit(nested)
			}
		}
	}
	for _, fn := range r.functions {
		for _, l := range fn.lines {
			if c, ok := l.(command.Command); ok {
				visit(c)
			}
		}
	}
	return refs
}

func (r *Registry) drop(name string) {
	fn, ok := r.functions[name]
	if !ok {
		return
	}
	delete(r.functions, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.byDescription[fn.description] == name {
		delete(r.byDescription, fn.description)
	}
}

func realCommands(lines []command.Line) []command.Line {
	var out []command.Line
	for _, l := range lines {
		if command.IsCommand(l) {
			out = append(out, l)
		}
	}
	return out
}
