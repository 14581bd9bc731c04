// Package processor lowers a parsed elli program into command functions.
//
// Every variable is backed by an entity in the world: an int is the `value`
// score of an armor stand marker, an entity is whatever carries the
// variable's tag. The processor allocates those entities as it goes and
// kills them again when their block ends, so that the datapack leaves
// nothing behind once `__cleanup` has run.
package processor

import (
	"fmt"
	"strconv"

	"github.com/zurustar/elli/pkg/command"
	"github.com/zurustar/elli/pkg/compiler/ast"
	"github.com/zurustar/elli/pkg/compiler/names"
	"github.com/zurustar/elli/pkg/compiler/registry"
	"github.com/zurustar/elli/pkg/errs"
)

const (
	// Objective is the scoreboard objective holding every int variable.
	Objective = "value"

	// RunningTag marks the entity that keeps `__tick` running.
	RunningTag = "__is_running"

	RootFunction    = registry.RootFunction
	SetupFunction   = registry.SetupFunction
	TickFunction    = registry.TickFunction
	CleanupFunction = registry.CleanupFunction
)

// Processor generates the functions of one namespace from one AST.
// It is not safe for concurrent use; independent Processors are.
type Processor struct {
	root      *ast.Block
	namespace string
	reg       *registry.Registry
	optimise  bool
	done      bool

	setup   []string
	tick    []string
	cleanup []string

	// offset spreads markers along x so they don't stack.
	offset int
	// counter numbers synthesized variable names.
	counter int
}

// Option configures a Processor.
type Option func(*Processor)

// WithNames makes generated names come from gen, typically one seeded for
// reproducible output.
func WithNames(gen *names.Generator) Option {
	return func(p *Processor) {
		p.reg = registry.New(p.namespace, gen)
	}
}

// WithOptimise runs Registry.Optimise before the result is returned.
func WithOptimise(enabled bool) Option {
	return func(p *Processor) {
		p.optimise = enabled
	}
}

// New creates a Processor for root in namespace.
func New(root *ast.Block, namespace string, opts ...Option) *Processor {
	p := &Processor{
		root:      root,
		namespace: namespace,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.reg == nil {
		p.reg = registry.New(namespace, nil)
	}
	return p
}

// Registry exposes the function registry, for inspection after Process.
func (p *Processor) Registry() *registry.Registry {
	return p.reg
}

// Process lowers the program and synthesizes the lifecycle functions.
// The first error aborts the whole namespace.
func (p *Processor) Process() (*command.Pregen, error) {
	if p.done {
		return nil, errs.Protocol("process", "program already processed")
	}
	p.done = true
	if p.root == nil {
		return nil, errs.Protocol("process", "no program to process")
	}

	if err := p.seedStdVars(); err != nil {
		return nil, err
	}

	// The root block owns the globals; they are killed by __cleanup.
	if _, _, err := p.processBlock(RootFunction, RootFunction, p.root, false, false); err != nil {
		return nil, err
	}

	if err := p.synthesizeSetup(); err != nil {
		return nil, err
	}
	if err := p.synthesizeTick(); err != nil {
		return nil, err
	}
	if err := p.synthesizeCleanup(); err != nil {
		return nil, err
	}

	reg := p.reg
	if p.optimise {
		reg = reg.Optimise()
	}
	return reg.Pregen(), nil
}

func (p *Processor) synthesizeSetup() error {
	if _, err := p.reg.Begin(SetupFunction, SetupFunction); err != nil {
		return err
	}
	if err := p.reg.Push(command.New("scoreboard", command.Words("objectives", "add", Objective, "dummy")...)); err != nil {
		return err
	}
	if err := p.createMarker(RunningTag); err != nil {
		return err
	}
	for _, fn := range p.setup {
		p.reg.Push(command.Call(p.reg.ID(fn)))
	}
	p.reg.Push(command.Call(p.reg.ID(RootFunction)))
	return p.reg.End()
}

func (p *Processor) synthesizeTick() error {
	if _, err := p.reg.Begin(TickFunction, TickFunction); err != nil {
		return err
	}
	for _, fn := range p.tick {
		p.reg.Push(command.New("execute",
			command.Word("as"),
			runningSelector(),
			command.Word("run"),
			command.Call(p.reg.ID(fn)),
		))
	}
	return p.reg.End()
}

func (p *Processor) synthesizeCleanup() error {
	if _, err := p.reg.Begin(CleanupFunction, CleanupFunction); err != nil {
		return err
	}
	p.reg.Push(command.Comment{Text: "This function is run when the datapack is unloaded, and cleans up any global variables (and runs cleanup hooks)"})
	for _, fn := range p.cleanup {
		p.reg.Push(command.Call(p.reg.ID(fn)))
	}
	if err := p.cleanupScope(p.reg.GlobalScope()); err != nil {
		return err
	}
	p.reg.Push(command.New("scoreboard", command.Words("objectives", "remove", Objective)...))
	p.reg.Push(command.New("kill", runningSelector()))
	return p.reg.End()
}

func runningSelector() command.Selector {
	return command.NewSelector(command.AllEntities, command.Arg("tag", command.RawValue(RunningTag)))
}

// stdVars are the selectors @stdvar can bind an entity declaration to.
var stdVars = map[string]command.Target{
	"PLAYERS":        command.EveryPlayer,
	"RANDOM_PLAYER":  command.RandomPlayer,
	"NEAREST_PLAYER": command.NearestPlayer,
	"ENTITIES":       command.AllEntities,
	"SELF":           command.ExecutingEntity,
}

func stdVar(name string, target command.Target) *registry.EntityVariable {
	sel := command.NewSelector(target)
	return &registry.EntityVariable{
		Name:     name,
		Override: &sel,
		Flags:    registry.Flags{Persistent: true},
	}
}

// seedStdVars declares the globals every program can use without
// declaring them.
func (p *Processor) seedStdVars() error {
	for _, name := range []string{"PLAYERS", "RANDOM_PLAYER"} {
		if err := p.reg.Declare(stdVar(name, stdVars[name])); err != nil {
			return err
		}
	}
	return nil
}

// processBlock emits block as a function of its own and returns the
// function name and the value of the block's last statement.
//
// The last statement runs with declarations redirected to the parent
// scope, so that its temporaries survive this block's cleanup; a result
// still owned by the block is promoted for the same reason.
func (p *Processor) processBlock(description, name string, block *ast.Block, cleanup, inline bool) (string, registry.Variable, error) {
	var fnName string
	var err error
	if inline {
		fnName, err = p.reg.BeginChild(description)
	} else {
		fnName, err = p.reg.Begin(description, name)
	}
	if err != nil {
		line, col := block.Pos()
		return "", nil, errs.Locate(err, line, col)
	}
	scope := p.reg.CurrentScope()

	var result registry.Variable
	for i, stmt := range block.Statements {
		last := i == len(block.Statements)-1
		if last {
			p.reg.UseParentScope(true)
			p.reg.EnableOuterOperands(true)
		}
		v, err := p.processStatement(stmt)
		if err != nil {
			return "", nil, err
		}
		if last {
			p.reg.UseParentScope(false)
			p.reg.EnableOuterOperands(false)
			result = v
		}
	}

	if result != nil && scope.Owns(result) {
		p.reg.Promote(result)
	}
	if cleanup {
		if err := p.cleanupScope(scope); err != nil {
			return "", nil, err
		}
	}
	if err := p.reg.End(); err != nil {
		return "", nil, err
	}
	return fnName, result, nil
}

// cleanupScope kills every cleanable variable scope still owns.
func (p *Processor) cleanupScope(scope *registry.Scope) error {
	if err := p.reg.Push(command.Comment{Text: "Variable cleanup"}); err != nil {
		return err
	}
	killed := 0
	for _, v := range scope.Variables() {
		if !registry.Cleanable(v) {
			continue
		}
		p.reg.Push(command.New("kill", v.Selector()))
		killed++
	}
	if killed == 0 {
		p.reg.Push(command.Comment{Text: "(No variables to clean up)"})
	}
	return nil
}

func (p *Processor) processStatement(stmt ast.Statement) (registry.Variable, error) {
	var v registry.Variable
	var err error

	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		v, err = p.processVariableDeclaration(s)
	case *ast.VariableInit:
		v, err = p.processVariableInit(s)
	case *ast.Assignment:
		v, err = p.processAssignment(s)
	case *ast.FunctionDeclaration:
		err = p.processFunctionDeclaration(s)
	case *ast.FunctionCall:
		v, err = p.processFunctionCall(s)
	case *ast.ExpressionStatement:
		if s.Expression != nil {
			v, err = p.processExpression(s.Expression)
		}
	default:
		err = errs.Type(fmt.Sprintf("%T", stmt), "unknown statement type: %T", stmt)
	}

	if err != nil {
		line, col := stmt.Pos()
		return nil, errs.Locate(err, line, col)
	}
	return v, nil
}

func (p *Processor) processVariableDeclaration(s *ast.VariableDeclaration) (registry.Variable, error) {
	name := s.Name.Value
	if p.reg.HasVariable(name) {
		return nil, errs.Name(name, "variable %s already exists", name)
	}
	exposed := s.Decorators.Has("expose")

	switch s.Type.Value {
	case "int":
		if s.Decorators.Has("stdvar") {
			return nil, errs.Type(name, "@stdvar only applies to entity variables")
		}
		holder := ""
		if exposed {
			holder = name
		}
		return p.createInt(name, holder, registry.Flags{Named: true})

	case "entity":
		if d, ok := s.Decorators.Find("stdvar"); ok {
			return p.bindStdVar(name, d)
		}
		var tag string
		var err error
		if exposed {
			tag, err = name, p.reg.Names().Reserve(name)
		} else {
			tag, err = p.reg.Names().Unique(name)
		}
		if err != nil {
			return nil, err
		}
		// Nothing is spawned: the tag is handed to an entity on assignment.
		v := &registry.EntityVariable{Name: name, Tag: tag, Flags: registry.Flags{Named: true}}
		if err := p.reg.Declare(v); err != nil {
			return nil, err
		}
		return v, nil

	default:
		return nil, errs.Type(s.Type.Value, "invalid variable type %s, expected int or entity", s.Type.Value)
	}
}

func (p *Processor) bindStdVar(name string, d *ast.Decorator) (registry.Variable, error) {
	arg, ok := d.Args.At(0)
	if !ok || d.Args.Len() != 1 {
		return nil, errs.Type(name, "@stdvar expects one selector name")
	}
	var selector string
	switch a := arg.(type) {
	case *ast.Identifier:
		selector = a.Value
	case *ast.StringLiteral:
		selector = a.Value
	default:
		return nil, errs.Type(name, "@stdvar expects a selector name, got %s", arg.String())
	}
	target, ok := stdVars[selector]
	if !ok {
		return nil, errs.Name(selector, "unknown standard variable %s", selector)
	}
	v := stdVar(name, target)
	v.Named = true
	if err := p.reg.Declare(v); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *Processor) processVariableInit(s *ast.VariableInit) (registry.Variable, error) {
	v, err := p.processVariableDeclaration(s.Declaration)
	if err != nil {
		return nil, err
	}
	if err := p.assign(v, s.Value); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *Processor) processAssignment(s *ast.Assignment) (registry.Variable, error) {
	target, err := p.reg.GetVariable(s.Name.Value)
	if err != nil {
		return nil, err
	}
	if err := p.assign(target, s.Value); err != nil {
		return nil, err
	}
	return target, nil
}

// assign stores value into target. An int takes a copy of the value; an
// entity takes over the tagged entity, which leaves the source's scope.
func (p *Processor) assign(target registry.Variable, value ast.Value) error {
	// A value known at compile time is set directly, without a temporary.
	if t, ok := target.(*registry.IntVariable); ok {
		if expr, ok := value.(ast.Expression); ok && isFoldable(expr) {
			n, folded, err := static(expr)
			if err != nil {
				return err
			}
			if folded {
				return p.reg.Push(setter(t, n))
			}
		}
	}

	source, err := p.evaluate(value)
	if err != nil {
		return err
	}
	if source == nil {
		return errs.Type(value.String(), "%s does not produce a value", value.String())
	}

	switch t := target.(type) {
	case *registry.IntVariable:
		s, ok := source.(*registry.IntVariable)
		if !ok {
			return errs.Type(t.Name, "cannot assign entity into int %s", t.Name)
		}
		if s == t {
			return nil
		}
		if err := p.reg.Push(operation(t, "=", s)); err != nil {
			return err
		}
		return p.deleteVariable(s, false)

	case *registry.EntityVariable:
		s, ok := source.(*registry.EntityVariable)
		if !ok {
			return errs.Type(t.Name, "cannot assign int into entity %s", t.Name)
		}
		if s == t {
			return nil
		}
		if t.Override != nil {
			return errs.Type(t.Name, "cannot assign into built-in %s", t.Name)
		}
		if s.Override != nil {
			return errs.Type(s.Name, "cannot move built-in %s into %s", s.Name, t.Name)
		}
		p.reg.Push(command.New("kill", t.Selector()))
		p.reg.Push(command.New("tag", s.Selector(), command.Word("add"), command.Word(t.Tag)))
		p.reg.Push(command.New("tag", registry.TagSelector(t.Tag), command.Word("remove"), command.Word(s.Tag)))
		p.reg.Remove(s)
		return nil
	}
	return errs.Type(target.SourceName(), "cannot assign into %s", target.SourceName())
}

func isFoldable(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.IntegerLiteral, *ast.Maths:
		return true
	}
	return false
}

// evaluate lowers the right-hand side of an assignment.
func (p *Processor) evaluate(value ast.Value) (registry.Variable, error) {
	switch v := value.(type) {
	case *ast.FunctionCall:
		return p.processFunctionCall(v)
	case ast.Expression:
		return p.processExpression(v)
	}
	return nil, errs.Type(value.String(), "unsupported value %s", value.String())
}

func (p *Processor) processFunctionDeclaration(s *ast.FunctionDeclaration) error {
	desc := s.Name.Value
	if p.reg.HasFunction(desc) {
		return errs.Name(desc, "function %s already exists", desc)
	}
	name := ""
	if s.Decorators.Has("expose") {
		name = desc
	}

	fnName, result, err := p.processBlock(desc, name, s.Body, true, false)
	if err != nil {
		return err
	}
	if result != nil {
		if err := p.reg.SetFunctionVariable(fnName, result); err != nil {
			return err
		}
	}

	if s.Decorators.Has("tick") {
		p.tick = append(p.tick, fnName)
	}
	if s.Decorators.Has("setup") {
		p.setup = append(p.setup, fnName)
	}
	if s.Decorators.Has("cleanup") {
		p.cleanup = append(p.cleanup, fnName)
	}
	return nil
}

// processFunctionCall dispatches to the standard library first, so that
// standard names shadow user functions.
func (p *Processor) processFunctionCall(s *ast.FunctionCall) (registry.Variable, error) {
	if fn, ok := stdlib[s.Name.Value]; ok {
		v, err := fn(p, s.Args)
		if err != nil {
			line, col := s.Pos()
			return nil, errs.Locate(err, line, col)
		}
		return v, nil
	}

	name, err := p.reg.FunctionName(s.Name.Value)
	if err != nil {
		return nil, err
	}
	if s.Args.Len() > 0 || (s.Args != nil && len(s.Args.Named) > 0) {
		return nil, errs.Type(s.Name.Value, "function %s takes no arguments", s.Name.Value)
	}
	if err := p.reg.Push(command.Call(p.reg.ID(name))); err != nil {
		return nil, err
	}
	v, _ := p.reg.FunctionVariable(name)
	return v, nil
}

// autoName names a synthesized variable after the function creating it.
func (p *Processor) autoName(base string) string {
	name := fmt.Sprintf("%s_%d__%s", p.reg.CurrentDescription(), p.counter, base)
	p.counter++
	return name
}

// createMarker spawns the armor stand backing a variable called name.
func (p *Processor) createMarker(name string) error {
	x := p.offset
	p.offset++
	pos := command.Coordinate{
		X: command.CoordinatePart{Kind: command.Relative, Value: float64(x)},
		Y: command.CoordinatePart{Kind: command.Relative, Value: 3},
		Z: command.CoordinatePart{Kind: command.Relative, Value: float64(p.offset)},
	}
	customName := command.Object{{Key: "text", Value: command.Quoted(name)}}
	return p.reg.Push(command.New("summon",
		command.Word("armor_stand"),
		pos,
		command.Object{
			{Key: "CustomName", Value: command.Word(customName.String())},
			{Key: "CustomNameVisible", Value: command.Number{Kind: command.Byte, Value: 1}},
			{Key: "Tags", Value: command.Array{command.Word(name)}},
		},
	))
}

// createInt declares an int variable and spawns its marker. The holder
// tag is generated from desc unless one is given.
func (p *Processor) createInt(desc, holder string, flags registry.Flags) (*registry.IntVariable, error) {
	var err error
	if holder == "" {
		holder, err = p.reg.Names().Unique(desc)
	} else {
		err = p.reg.Names().Reserve(holder)
	}
	if err != nil {
		return nil, err
	}

	v := &registry.IntVariable{Name: desc, Holder: holder, Flags: flags}
	if err := p.reg.Declare(v); err != nil {
		return nil, err
	}
	if err := p.createMarker(holder); err != nil {
		return nil, err
	}
	return v, nil
}

// temporary creates an unnamed int holding n.
func (p *Processor) temporary(base string, n int32) (*registry.IntVariable, error) {
	v, err := p.createInt(p.autoName(base), "", registry.Flags{})
	if err != nil {
		return nil, err
	}
	if err := p.reg.Push(setter(v, n)); err != nil {
		return nil, err
	}
	return v, nil
}

// deleteVariable kills v's backing entity and forgets it. Unless forced,
// only temporaries are deleted. Built-ins can never be deleted.
func (p *Processor) deleteVariable(v registry.Variable, force bool) error {
	f := v.Flagged()
	if f.Persistent {
		if force {
			return errs.Type(v.SourceName(), "cannot delete built-in %s", v.SourceName())
		}
		return nil
	}
	if !force && !registry.Temporary(v) {
		return nil
	}
	if err := p.reg.Push(command.New("kill", v.Selector())); err != nil {
		return err
	}
	p.reg.Remove(v)
	return nil
}

// setter is `scoreboard players set <v> value <n>`.
func setter(v *registry.IntVariable, n int32) command.Command {
	return command.New("scoreboard",
		command.Word("players"),
		command.Word("set"),
		v.Selector(),
		command.Word(Objective),
		command.Word(strconv.FormatInt(int64(n), 10)),
	)
}

// operation is `scoreboard players operation <target> value <op> <source> value`.
func operation(target *registry.IntVariable, op string, source *registry.IntVariable) command.Command {
	return command.New("scoreboard",
		command.Word("players"),
		command.Word("operation"),
		target.Selector(),
		command.Word(Objective),
		command.Word(op),
		source.Selector(),
		command.Word(Objective),
	)
}

func coordinate(c *ast.Coordinate) command.Coordinate {
	return command.Coordinate{X: coordinatePart(c.X), Y: coordinatePart(c.Y), Z: coordinatePart(c.Z)}
}

func coordinatePart(p ast.CoordinatePart) command.CoordinatePart {
	kind := command.Absolute
	switch p.Kind {
	case ast.Relative:
		kind = command.Relative
	case ast.Local:
		kind = command.Local
	}
	return command.CoordinatePart{Kind: kind, Value: p.Value}
}
