package processor

import (
	"github.com/zurustar/elli/pkg/command"
	"github.com/zurustar/elli/pkg/compiler/ast"
	"github.com/zurustar/elli/pkg/compiler/registry"
	"github.com/zurustar/elli/pkg/errs"
)

// comparisonOperators are the scoreboard spellings. NotEqual shares `=`
// with Equal and is emitted with `unless`.
var comparisonOperators = map[ast.ComparisonOperator]string{
	ast.Equal:              "=",
	ast.NotEqual:           "=",
	ast.GreaterThan:        ">",
	ast.GreaterThanOrEqual: ">=",
	ast.LessThan:           "<",
	ast.LessThanOrEqual:    "<=",
}

var mathsOperators = map[ast.MathsOperator]string{
	ast.Add:       "+=",
	ast.Subtract:  "-=",
	ast.Multiply:  "*=",
	ast.Divide:    "/=",
	ast.Remainder: "%=",
}

// processExpression lowers expr to the variable holding its value.
func (p *Processor) processExpression(expr ast.Expression) (registry.Variable, error) {
	var v registry.Variable
	var err error

	switch e := expr.(type) {
	case *ast.Identifier:
		v, err = p.reg.GetVariable(e.Value)
	case *ast.IntegerLiteral:
		n, convErr := literal(e)
		if convErr != nil {
			return nil, convErr
		}
		v, err = p.temporary("constant_int", n)
	case *ast.StringLiteral:
		err = errs.Type(e.String(), "strings are not supported here")
	case *ast.Coordinate:
		err = errs.Type(e.String(), "coordinates are only supported as command arguments")
	case *ast.Comparison:
		v, err = p.processComparison(e)
	case *ast.Maths:
		v, err = p.processMaths(e)
	default:
		err = errs.Type(expr.String(), "unsupported expression %s", expr.String())
	}

	if err != nil {
		line, col := expr.Pos()
		return nil, errs.Locate(err, line, col)
	}
	return v, nil
}

func literal(e *ast.IntegerLiteral) (int32, error) {
	if int64(int32(e.Value)) != e.Value {
		line, col := e.Pos()
		return 0, errs.Type(e.String(), "integer %d does not fit in 32 bits", e.Value).At(line, col)
	}
	return int32(e.Value), nil
}

// intOperand lowers an operand of a comparison or an operation. Literals
// become temporaries named after base.
func (p *Processor) intOperand(expr ast.Expression, base string) (*registry.IntVariable, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		n, err := literal(e)
		if err != nil {
			return nil, err
		}
		return p.temporary(base, n)
	case *ast.Identifier:
		v, err := p.reg.GetVariable(e.Value)
		if err != nil {
			return nil, err
		}
		iv, ok := v.(*registry.IntVariable)
		if !ok {
			return nil, errs.Type(e.Value, "expected an int, %s is an entity", e.Value)
		}
		return iv, nil
	case *ast.Maths:
		return p.processMaths(e)
	}
	line, col := expr.Pos()
	return nil, errs.Type(expr.String(), "expected an int value, got %s", expr.String()).At(line, col)
}

// checkIntOperand rejects operands that can never be int-valued before
// anything is emitted.
func (p *Processor) checkIntOperand(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntegerLiteral, *ast.Maths:
		return nil
	case *ast.Identifier:
		v, err := p.reg.GetVariable(e.Value)
		if err != nil {
			return err
		}
		if _, ok := v.(*registry.IntVariable); !ok {
			return errs.Type(e.Value, "cannot compare entities (%s)", e.Value)
		}
		return nil
	}
	return errs.Type(expr.String(), "comparison values must be ints, got %s", expr.String())
}

// processComparison evaluates to a fresh boolean: 1 when the comparison
// holds, 0 otherwise.
func (p *Processor) processComparison(c *ast.Comparison) (*registry.IntVariable, error) {
	if err := p.checkIntOperand(c.Left); err != nil {
		return nil, err
	}
	if err := p.checkIntOperand(c.Right); err != nil {
		return nil, err
	}
	op, ok := comparisonOperators[c.Operator]
	if !ok {
		return nil, errs.Type(c.String(), "unknown comparison operator")
	}

	if err := p.reg.Push(command.Comment{Text: "Comparison between " + c.Left.String() + " and " + c.Right.String()}); err != nil {
		return nil, err
	}

	p.reg.BeginOperands()
	left, err := p.intOperand(c.Left, "comparison_left")
	if err != nil {
		return nil, err
	}
	right, err := p.intOperand(c.Right, "comparison_right")
	if err != nil {
		return nil, err
	}
	if err := p.reg.EndOperands(); err != nil {
		return nil, err
	}

	result, err := p.temporary("comparison", 0)
	if err != nil {
		return nil, err
	}

	keyword := "if"
	if c.Operator == ast.NotEqual {
		keyword = "unless"
	}
	p.reg.Push(command.New("execute",
		command.Word(keyword),
		command.Word("score"),
		left.Selector(),
		command.Word(Objective),
		command.Word(op),
		right.Selector(),
		command.Word(Objective),
		command.Word("run"),
		setter(result, 1),
	))

	if err := p.deleteVariable(left, false); err != nil {
		return nil, err
	}
	if left != right {
		if err := p.deleteVariable(right, false); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// processMaths folds the operation when every leaf is a literal and
// otherwise copies the left operand into the output and applies the
// operator in place.
func (p *Processor) processMaths(m *ast.Maths) (*registry.IntVariable, error) {
	op, ok := mathsOperators[m.Operator]
	if !ok {
		return nil, errs.Type(m.String(), "unknown operator")
	}

	output, err := p.createInt(p.autoName("maths_output"), "", registry.Flags{})
	if err != nil {
		return nil, err
	}

	n, folded, err := static(m)
	if err != nil {
		return nil, err
	}
	if folded {
		if err := p.reg.Push(setter(output, n)); err != nil {
			return nil, err
		}
		return output, nil
	}

	p.reg.BeginOperands()
	left, err := p.intOperand(m.Left, "constant_int")
	if err != nil {
		return nil, err
	}
	right, err := p.intOperand(m.Right, "constant_int")
	if err != nil {
		return nil, err
	}
	if err := p.reg.EndOperands(); err != nil {
		return nil, err
	}

	p.reg.Push(operation(output, "=", left))
	p.reg.Push(operation(output, op, right))

	if err := p.deleteVariable(left, false); err != nil {
		return nil, err
	}
	if left != right {
		if err := p.deleteVariable(right, false); err != nil {
			return nil, err
		}
	}
	return output, nil
}
