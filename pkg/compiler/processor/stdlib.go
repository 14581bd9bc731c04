package processor

import (
	"strings"

	"github.com/zurustar/elli/pkg/command"
	"github.com/zurustar/elli/pkg/compiler/ast"
	"github.com/zurustar/elli/pkg/compiler/registry"
	"github.com/zurustar/elli/pkg/errs"
)

// stdFunc implements a standard library call. It returns the call's value,
// or nil when the call has none.
type stdFunc func(p *Processor, args *ast.ArgumentList) (registry.Variable, error)

var stdlib map[string]stdFunc

func init() {
	stdlib = map[string]stdFunc{
		"execute":  (*Processor).stdExecute,
		"kill":     (*Processor).stdKill,
		"delete":   (*Processor).stdDelete,
		"say":      (*Processor).stdSay,
		"if":       (*Processor).stdIf,
		"summon":   (*Processor).stdSummon,
		"teleport": (*Processor).stdTeleport,
		"tp":       (*Processor).stdTeleport,
		"is_dead":  (*Processor).stdIsDead,
	}
}

// allowNamed rejects named arguments other than the given ones.
func allowNamed(fn string, args *ast.ArgumentList, names ...string) error {
	if args == nil {
		return nil
	}
	for _, n := range args.Named {
		ok := false
		for _, allowed := range names {
			if n.Name == allowed {
				ok = true
				break
			}
		}
		if !ok {
			return errs.Type(fn, "%s does not take argument %s", fn, n.Name)
		}
	}
	return nil
}

// entityArg resolves arg to an entity variable.
func (p *Processor) entityArg(fn, param string, arg ast.Argument) (*registry.EntityVariable, error) {
	id, ok := arg.(*ast.Identifier)
	if !ok {
		return nil, errs.Type(fn, "%s(%s) must be an entity", fn, param)
	}
	v, err := p.reg.GetVariable(id.Value)
	if err != nil {
		return nil, err
	}
	entity, ok := v.(*registry.EntityVariable)
	if !ok {
		return nil, errs.Type(id.Value, "%s(%s) must be an entity, %s is an int", fn, param, id.Value)
	}
	return entity, nil
}

func blockArg(fn, param string, arg ast.Argument) (*ast.Block, error) {
	block, ok := arg.(*ast.Block)
	if !ok {
		return nil, errs.Type(fn, "%s(%s) must be a block", fn, param)
	}
	return block, nil
}

// execute(block, as=entity, at=entity) runs block as an inline function
// through `execute [as <sel>] [at <sel>] run function`.
func (p *Processor) stdExecute(args *ast.ArgumentList) (registry.Variable, error) {
	if args.Len() != 1 {
		return nil, errs.Type("execute", "execute expects one positional argument")
	}
	if err := allowNamed("execute", args, "as", "at"); err != nil {
		return nil, err
	}
	block, err := blockArg("execute", "block", args.Positional[0])
	if err != nil {
		return nil, err
	}

	var parts []command.Argument
	for _, modifier := range []string{"as", "at"} {
		arg, ok := args.Get(modifier)
		if !ok {
			continue
		}
		entity, err := p.entityArg("execute", modifier, arg)
		if err != nil {
			return nil, err
		}
		parts = append(parts, command.Word(modifier), entity.Selector())
	}

	name, result, err := p.processBlock(p.autoName("command_execute"), "", block, true, true)
	if err != nil {
		return nil, err
	}
	parts = append(parts, command.Word("run"), command.Call(p.reg.ID(name)))
	if err := p.reg.Push(command.New("execute", parts...)); err != nil {
		return nil, err
	}
	return result, nil
}

// kill(entity)
func (p *Processor) stdKill(args *ast.ArgumentList) (registry.Variable, error) {
	if args.Len() != 1 {
		return nil, errs.Type("kill", "kill expects one positional argument")
	}
	if err := allowNamed("kill", args); err != nil {
		return nil, err
	}
	entity, err := p.entityArg("kill", "entity", args.Positional[0])
	if err != nil {
		return nil, err
	}
	return nil, p.reg.Push(command.New("kill", entity.Selector()))
}

// delete(identifier) kills the backing entity even when the variable
// would otherwise survive.
func (p *Processor) stdDelete(args *ast.ArgumentList) (registry.Variable, error) {
	if args.Len() != 1 {
		return nil, errs.Type("delete", "delete expects (identifier)")
	}
	if err := allowNamed("delete", args); err != nil {
		return nil, err
	}
	id, ok := args.Positional[0].(*ast.Identifier)
	if !ok {
		return nil, errs.Type("delete", "delete(identifier) must be an identifier")
	}
	v, err := p.reg.GetVariable(id.Value)
	if err != nil {
		return nil, err
	}
	if v.Flagged().Persistent {
		return nil, errs.Type(id.Value, "cannot delete built-in %s", id.Value)
	}
	if err := p.reg.Push(command.Comment{Text: "delete(" + id.Value + ")"}); err != nil {
		return nil, err
	}
	return nil, p.deleteVariable(v, true)
}

// say(to=entity, parts...) sends a tellraw message built from string,
// int and entity parts.
func (p *Processor) stdSay(args *ast.ArgumentList) (registry.Variable, error) {
	if err := allowNamed("say", args, "to"); err != nil {
		return nil, err
	}
	to, ok := args.Get("to")
	if !ok {
		return nil, errs.Type("say", "say requires argument `to`")
	}
	target, err := p.entityArg("say", "to", to)
	if err != nil {
		return nil, err
	}

	var consumed []registry.Variable
	components := command.Array{command.Quoted("")}
	for _, arg := range args.Positional {
		var v registry.Variable
		switch a := arg.(type) {
		case *ast.StringLiteral:
			components = append(components, command.Object{{Key: "text", Value: command.Quoted(a.Value)}})
			continue
		case *ast.Maths, *ast.Comparison:
			v, err = p.processExpression(a.(ast.Expression))
		case *ast.Identifier:
			v, err = p.reg.GetVariable(a.Value)
		default:
			return nil, errs.Type("say", "say arguments must be strings or variables, got %s", arg.String())
		}
		if err != nil {
			return nil, err
		}
		consumed = append(consumed, v)

		sel := command.Quoted(v.Selector().String())
		switch v.(type) {
		case *registry.IntVariable:
			components = append(components, command.Object{{Key: "score", Value: command.Object{
				{Key: "name", Value: sel},
				{Key: "objective", Value: command.Quoted(Objective)},
			}}})
		default:
			components = append(components, command.Object{{Key: "selector", Value: sel}})
		}
	}

	if err := p.reg.Push(command.New("tellraw", target.Selector(), components)); err != nil {
		return nil, err
	}
	for _, v := range consumed {
		if err := p.deleteVariable(v, false); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// if(condition, block, else block) runs each branch as an inline function
// keyed on whether the condition's score is 1.
func (p *Processor) stdIf(args *ast.ArgumentList) (registry.Variable, error) {
	if n := args.Len(); n != 2 && n != 3 {
		return nil, errs.Type("if", "if expects (condition, if block, else block?)")
	}
	if err := allowNamed("if", args); err != nil {
		return nil, err
	}
	ifBlock, err := blockArg("if", "if block", args.Positional[1])
	if err != nil {
		return nil, err
	}
	var elseBlock *ast.Block
	if args.Len() == 3 {
		if elseBlock, err = blockArg("if", "else block", args.Positional[2]); err != nil {
			return nil, err
		}
	}

	flag, err := p.condition(args.Positional[0], elseBlock != nil)
	if err != nil {
		return nil, err
	}

	desc := p.reg.CurrentDescription()
	ifName, _, err := p.processBlock(desc+"__if_handler", "", ifBlock, true, true)
	if err != nil {
		return nil, err
	}
	var elseName string
	if elseBlock != nil {
		if elseName, _, err = p.processBlock(desc+"__else_handler", "", elseBlock, true, true); err != nil {
			return nil, err
		}
	}

	p.reg.Push(branch("if", flag, p.reg.ID(ifName)))
	if elseBlock != nil {
		p.reg.Push(branch("unless", flag, p.reg.ID(elseName)))
	}
	return nil, p.deleteVariable(flag, false)
}

// condition lowers the first argument of if. A plain int variable is
// tested directly, unless an else branch could observe the if branch
// changing it; then its value is copied first.
func (p *Processor) condition(arg ast.Argument, hasElse bool) (*registry.IntVariable, error) {
	switch c := arg.(type) {
	case *ast.Comparison:
		return p.processComparison(c)
	case *ast.Identifier:
		v, err := p.reg.GetVariable(c.Value)
		if err != nil {
			return nil, err
		}
		iv, ok := v.(*registry.IntVariable)
		if !ok {
			return nil, errs.Type(c.Value, "if(condition) must be an int, %s is an entity", c.Value)
		}
		if !hasElse || registry.Temporary(iv) {
			return iv, nil
		}
		flag, err := p.createInt(p.autoName("condition"), "", registry.Flags{})
		if err != nil {
			return nil, err
		}
		return flag, p.reg.Push(operation(flag, "=", iv))
	}
	return nil, errs.Type("if", "if(condition) must be a comparison or an int variable")
}

// branch is `execute if|unless score <flag> value matches 1 run function <id>`.
func branch(keyword string, flag *registry.IntVariable, id string) command.Command {
	return command.New("execute",
		command.Word(keyword),
		command.Word("score"),
		flag.Selector(),
		command.Word(Objective),
		command.Word("matches"),
		command.Word(command.Exactly(1).String()),
		command.Word("run"),
		command.Call(id),
	)
}

// summon(type, pos, marker=1) spawns a tagged entity owned by the program.
func (p *Processor) stdSummon(args *ast.ArgumentList) (registry.Variable, error) {
	if n := args.Len(); n < 1 || n > 2 {
		return nil, errs.Type("summon", "summon expects (type, pos?)")
	}
	if err := allowNamed("summon", args, "marker"); err != nil {
		return nil, err
	}
	typ, ok := args.Positional[0].(*ast.StringLiteral)
	if !ok {
		return nil, errs.Type("summon", "summon(type) must be a string")
	}
	pos := command.Here()
	if args.Len() == 2 {
		c, ok := args.Positional[1].(*ast.Coordinate)
		if !ok {
			return nil, errs.Type("summon", "summon(pos) must be a coordinate")
		}
		pos = coordinate(c)
	}

	name := p.autoName("summon_" + typ.Value)
	tag, err := p.reg.Names().Unique(name)
	if err != nil {
		return nil, err
	}
	v := &registry.EntityVariable{Name: name, Tag: tag, Flags: registry.Flags{UserCreated: true}}
	if err := p.reg.Declare(v); err != nil {
		return nil, err
	}

	nbt := command.Object{{Key: "Tags", Value: command.Array{command.Quoted(tag)}}}
	if isArmorStand(typ.Value) {
		if m, ok := args.Get("marker"); ok {
			if lit, ok := m.(*ast.IntegerLiteral); ok && lit.Value == 1 {
				nbt = append(nbt,
					command.Entry{Key: "CustomNameVisible", Value: command.Number{Kind: command.Byte, Value: 1}},
					command.Entry{Key: "CustomName", Value: command.Word(`{"text":"marker"}`)},
				)
			}
		}
	}

	if err := p.reg.Push(command.New("summon", command.Word(typ.Value), pos, nbt)); err != nil {
		return nil, err
	}
	return v, nil
}

func isArmorStand(typ string) bool {
	return strings.TrimPrefix(typ, "minecraft:") == "armor_stand"
}

// teleport(entity, coordinate|entity), also spelled tp.
func (p *Processor) stdTeleport(args *ast.ArgumentList) (registry.Variable, error) {
	if args.Len() != 2 {
		return nil, errs.Type("teleport", "teleport expects (entity, target)")
	}
	if err := allowNamed("teleport", args); err != nil {
		return nil, err
	}
	entity, err := p.entityArg("teleport", "entity", args.Positional[0])
	if err != nil {
		return nil, err
	}

	var destination command.Argument
	switch t := args.Positional[1].(type) {
	case *ast.Coordinate:
		destination = coordinate(t)
	case *ast.Identifier:
		target, err := p.entityArg("teleport", "target", t)
		if err != nil {
			return nil, err
		}
		destination = target.Selector()
	default:
		return nil, errs.Type("teleport", "teleport(target) must be a coordinate or an entity")
	}
	return nil, p.reg.Push(command.New("tp", entity.Selector(), destination))
}

// is_dead(entity) is 1 when no entity carries the variable's tag.
func (p *Processor) stdIsDead(args *ast.ArgumentList) (registry.Variable, error) {
	if args.Len() != 1 {
		return nil, errs.Type("is_dead", "is_dead expects (entity)")
	}
	if err := allowNamed("is_dead", args); err != nil {
		return nil, err
	}
	entity, err := p.entityArg("is_dead", "entity", args.Positional[0])
	if err != nil {
		return nil, err
	}

	result, err := p.temporary("is_dead_"+entity.Name, 0)
	if err != nil {
		return nil, err
	}
	err = p.reg.Push(command.New("execute",
		command.Word("unless"),
		command.Word("entity"),
		entity.Selector(),
		command.Word("run"),
		setter(result, 1),
	))
	return result, err
}
