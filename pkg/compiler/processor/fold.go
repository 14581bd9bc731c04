package processor

import (
	"github.com/zurustar/elli/pkg/compiler/ast"
	"github.com/zurustar/elli/pkg/errs"
)

// static evaluates expr at compile time. ok is false as soon as an
// identifier is reached, or when the result is undefined (division by
// zero), in which case the expression is lowered to scoreboard operations.
func static(expr ast.Expression) (int32, bool, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		n, err := literal(e)
		return n, err == nil, err
	case *ast.Identifier:
		return 0, false, nil
	case *ast.Maths:
		left, ok, err := static(e.Left)
		if err != nil || !ok {
			return 0, false, err
		}
		right, ok, err := static(e.Right)
		if err != nil || !ok {
			return 0, false, err
		}
		value, ok := fold(e.Operator, left, right)
		return value, ok, nil
	default:
		line, col := expr.Pos()
		return 0, false, errs.Type(expr.String(), "expected int, operation, or identifier in operation, got %s", expr.String()).At(line, col)
	}
}

// fold applies op the way the scoreboard does: 32-bit wrap-around, and
// division and remainder rounding towards negative infinity.
func fold(op ast.MathsOperator, left, right int32) (int32, bool) {
	switch op {
	case ast.Add:
		return left + right, true
	case ast.Subtract:
		return left - right, true
	case ast.Multiply:
		return left * right, true
	case ast.Divide:
		if right == 0 {
			return 0, false
		}
		return floorDiv(left, right), true
	case ast.Remainder:
		if right == 0 {
			return 0, false
		}
		return floorMod(left, right), true
	}
	return 0, false
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int32) int32 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
