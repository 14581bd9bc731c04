// Package registry tracks generated functions and variable scopes for one
// compilation.
//
// A Registry is a single-writer context owned by the code generator. It is
// the only place functions are created: Begin opens a function and its
// scope, End closes them, and every opened function is reachable from the
// first one through the lineage comment Begin records.
package registry

import (
	"github.com/zurustar/elli/pkg/command"
	"github.com/zurustar/elli/pkg/compiler/names"
	"github.com/zurustar/elli/pkg/errs"
)

// RootDescription is how the lineage comment refers to the outermost
// caller.
const RootDescription = "the root function"

type function struct {
	name        string
	description string
	lines       []command.Line
	result      Variable
	explicit    bool
}

// frame is the state saved while a nested function is open.
type frame struct {
	fn        *function
	scope     *Scope
	useParent bool
	outer     bool
	operands  int
}

// Registry owns the generated functions and the scope stack.
type Registry struct {
	namespace string
	names     *names.Generator

	functions     map[string]*function
	order         []string
	byDescription map[string]string

	global *Scope
	cur    frame
	stack  []frame
}

// New creates a Registry for namespace. Generated names come from gen.
func New(namespace string, gen *names.Generator) *Registry {
	if gen == nil {
		gen = names.New(nil)
	}
	return &Registry{
		namespace:     namespace,
		names:         gen,
		functions:     make(map[string]*function),
		byDescription: make(map[string]string),
		global:        NewScope(),
	}
}

// Namespace returns the namespace function IDs are qualified with.
func (r *Registry) Namespace() string {
	return r.namespace
}

// ID qualifies a function name, "<namespace>:<name>".
func (r *Registry) ID(name string) string {
	return r.namespace + ":" + name
}

// Names returns the generator used for function names, shared with
// variable tags so that every generated identifier is unique.
func (r *Registry) Names() *names.Generator {
	return r.names
}

// Begin opens a function described by description. The function is called
// name when name is non-empty, otherwise the sanitized description plus a
// random suffix. A name that already exists is a NameError.
func (r *Registry) Begin(description, name string) (string, error) {
	return r.begin(description, name, false)
}

// BeginChild opens a function with a generated name whose scope is inline:
// lookups fall through to the scope that is current now.
func (r *Registry) BeginChild(description string) (string, error) {
	return r.begin(description, "", true)
}

func (r *Registry) begin(description, name string, inline bool) (string, error) {
	explicit := name != ""
	if explicit {
		if _, ok := r.functions[name]; ok {
			return "", errs.Name(name, "function %s already exists", name)
		}
	} else {
		generated, err := r.names.Unique(description)
		if err != nil {
			return "", err
		}
		if _, ok := r.functions[generated]; ok {
			return "", errs.Name(generated, "function %s already exists", generated)
		}
		name = generated
	}

	fn := &function{
		name:        name,
		description: description,
		explicit:    explicit,
		lines: []command.Line{
			command.Comment{Text: "Begin function " + description + ", child of " + r.parentDescription()},
		},
	}
	r.functions[name] = fn
	r.order = append(r.order, name)
	if description != "" {
		r.byDescription[description] = name
	}

	var scope *Scope
	switch {
	case r.cur.fn == nil:
		scope = r.global
	case inline:
		scope = &Scope{parent: r.cur.scope, inline: true}
	default:
		scope = NewScope()
	}

	r.stack = append(r.stack, r.cur)
	r.cur = frame{fn: fn, scope: scope}
	return name, nil
}

func (r *Registry) parentDescription() string {
	if r.cur.fn == nil {
		return RootDescription
	}
	if r.cur.fn.description != "" {
		return r.cur.fn.description
	}
	return r.cur.fn.name
}

// End closes the current function. With nothing open it is a
// ProtocolError.
func (r *Registry) End() error {
	if r.cur.fn == nil || len(r.stack) == 0 {
		return errs.Protocol("end", "no function is open")
	}
	r.cur = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// Current returns the name of the open function, or "" when none is.
func (r *Registry) Current() string {
	if r.cur.fn == nil {
		return ""
	}
	return r.cur.fn.name
}

// CurrentDescription returns the description of the open function.
func (r *Registry) CurrentDescription() string {
	if r.cur.fn == nil {
		return RootDescription
	}
	return r.cur.fn.description
}

// Push appends lines to the open function.
func (r *Registry) Push(lines ...command.Line) error {
	if r.cur.fn == nil {
		return errs.Protocol("push", "no function is open")
	}
	r.cur.fn.lines = append(r.cur.fn.lines, lines...)
	return nil
}

// Lines returns a copy of the body of the named function.
func (r *Registry) Lines(name string) ([]command.Line, bool) {
	fn, ok := r.functions[name]
	if !ok {
		return nil, false
	}
	out := make([]command.Line, len(fn.lines))
	copy(out, fn.lines)
	return out, true
}

// HasFunction reports whether a function with this description exists.
func (r *Registry) HasFunction(description string) bool {
	_, ok := r.byDescription[description]
	return ok
}

// FunctionName maps a description to its function name.
func (r *Registry) FunctionName(description string) (string, error) {
	name, ok := r.byDescription[description]
	if !ok {
		return "", errs.Name(description, "function %s does not exist", description)
	}
	return name, nil
}

// SetFunctionVariable records the variable a call to name evaluates to.
func (r *Registry) SetFunctionVariable(name string, v Variable) error {
	fn, ok := r.functions[name]
	if !ok {
		return errs.Name(name, "function %s does not exist", name)
	}
	fn.result = v
	return nil
}

// FunctionVariable returns the recorded result of name, if any.
func (r *Registry) FunctionVariable(name string) (Variable, bool) {
	fn, ok := r.functions[name]
	if !ok || fn.result == nil {
		return nil, false
	}
	return fn.result, true
}

// Functions returns every function in registration order.
func (r *Registry) Functions() []command.Function {
	out := make([]command.Function, 0, len(r.order))
	for _, name := range r.order {
		fn := r.functions[name]
		lines := make([]command.Line, len(fn.lines))
		copy(lines, fn.lines)
		out = append(out, command.Function{ID: r.ID(name), Lines: lines})
	}
	return out
}

// Pregen packages every function as compiler output.
func (r *Registry) Pregen() *command.Pregen {
	return &command.Pregen{Functions: r.Functions()}
}

// GlobalScope is the scope of the first function; it is never popped.
func (r *Registry) GlobalScope() *Scope {
	return r.global
}

// CurrentScope is the scope of the open function, or the global scope when
// none is open.
func (r *Registry) CurrentScope() *Scope {
	if r.cur.scope == nil {
		return r.global
	}
	return r.cur.scope
}

// ParentScope is the scope that was current when the open function began.
func (r *Registry) ParentScope() *Scope {
	if len(r.stack) == 0 || r.stack[len(r.stack)-1].scope == nil {
		return r.global
	}
	return r.stack[len(r.stack)-1].scope
}

// UseParentScope redirects later declarations of the open function to its
// parent scope, so that they outlive its cleanup. Lookups are unaffected.
func (r *Registry) UseParentScope(enabled bool) {
	r.cur.useParent = enabled
}

// EnableOuterOperands arms the operand override for the open function.
// While armed, declarations made between BeginOperands and EndOperands
// stay in the function's own scope even when UseParentScope is on, so only
// a composite expression's result escapes.
func (r *Registry) EnableOuterOperands(enabled bool) {
	r.cur.outer = enabled
}

// BeginOperands starts an operand phase.
func (r *Registry) BeginOperands() {
	r.cur.operands++
}

// EndOperands ends the innermost operand phase.
func (r *Registry) EndOperands() error {
	if r.cur.operands == 0 {
		return errs.Protocol("operands", "no operand phase is open")
	}
	r.cur.operands--
	return nil
}

// DeclarationScope is where Declare places new unnamed variables. Named
// variables always go to CurrentScope.
func (r *Registry) DeclarationScope() *Scope {
	if r.cur.scope == nil {
		return r.global
	}
	if r.cur.useParent && !(r.cur.outer && r.cur.operands > 0) {
		return r.ParentScope()
	}
	return r.cur.scope
}

// GetVariable resolves name: the current scope, then enclosing inline
// scopes, then the global scope. An unknown name is a NameError.
func (r *Registry) GetVariable(name string) (Variable, error) {
	if v, ok := r.lookup(name); ok {
		return v, nil
	}
	return nil, errs.Name(name, "variable %s does not exist", name)
}

// HasVariable reports whether GetVariable would succeed.
func (r *Registry) HasVariable(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

func (r *Registry) lookup(name string) (Variable, bool) {
	for s := r.cur.scope; s != nil; s = s.parent {
		if v, ok := s.Lookup(name); ok {
			return v, true
		}
		if !s.inline {
			break
		}
	}
	return r.global.Lookup(name)
}

// Declare adds v to the declaration scope, or to the current scope when v
// is Named. A visible variable with the same source name is a NameError.
func (r *Registry) Declare(v Variable) error {
	if r.HasVariable(v.SourceName()) {
		return errs.Name(v.SourceName(), "variable %s already exists", v.SourceName())
	}
	if v.Flagged().Named {
		r.CurrentScope().add(v)
		return nil
	}
	r.DeclarationScope().add(v)
	return nil
}

// Remove drops v from whichever open scope owns it.
func (r *Registry) Remove(v Variable) bool {
	for _, s := range r.openScopes() {
		if s.remove(v) {
			return true
		}
	}
	return false
}

// Promote hands ownership of v from the current scope to the parent
// scope. The parent kills v on cleanup, but v is not visible there by name.
func (r *Registry) Promote(v Variable) bool {
	scope, parent := r.CurrentScope(), r.ParentScope()
	if scope == parent || !scope.Owns(v) {
		return false
	}
	scope.remove(v)
	parent.addPromoted(v)
	return true
}

// openScopes lists the current scope, its inline parents, every scope on
// the stack, and the global scope, innermost first.
func (r *Registry) openScopes() []*Scope {
	var out []*Scope
	seen := make(map[*Scope]bool)
	add := func(s *Scope) {
		if s != nil && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for s := r.cur.scope; s != nil; s = s.parent {
		add(s)
	}
	for i := len(r.stack) - 1; i >= 0; i-- {
		add(r.stack[i].scope)
	}
	add(r.global)
	return out
}
