// Package ast defines the syntax tree the elli code generator consumes.
//
// Every variant set is sealed with an unexported marker method so that
// type switches over Statement, Expression, Argument and Value can be
// checked for exhaustiveness.
package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/zurustar/elli/pkg/compiler/token"
)

type Node interface {
	TokenLiteral() string
	String() string
	Pos() (line, column int)
}

// Statement: VariableDeclaration, VariableInit, Assignment,
// FunctionDeclaration, FunctionCall, ExpressionStatement.
type Statement interface {
	Node
	statementNode()
}

// Expression: Identifier, IntegerLiteral, StringLiteral, Coordinate,
// Comparison, Maths. Every expression is also an Argument and a Value.
type Expression interface {
	Node
	expressionNode()
	argumentNode()
	valueNode()
}

// Argument is a call argument: an Expression or a *Block.
type Argument interface {
	Node
	argumentNode()
}

// Value is the right-hand side of an assignment: an Expression or a
// *FunctionCall.
type Value interface {
	Node
	valueNode()
}

// Block is an ordered statement list.
type Block struct {
	Token      token.Token // '{', or the first token of a file
	Statements []Statement
}

func (b *Block) argumentNode() {}
func (b *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range b.Statements {
		out.WriteString(s.String())
		out.WriteString("; ")
	}
	out.WriteString("}")
	return out.String()
}

// Decorator: @name or @name(args)
type Decorator struct {
	Token token.Token   // '@'
	Name  string
	Args  *ArgumentList // nil when written without parentheses
}

func (d *Decorator) String() string {
	if d.Args == nil {
		return "@" + d.Name
	}
	return "@" + d.Name + "(" + d.Args.String() + ")"
}

// Decorators is the decorator list of a declaration.
type Decorators []*Decorator

// Find returns the first decorator called name.
func (ds Decorators) Find(name string) (*Decorator, bool) {
	for _, d := range ds {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Has reports whether a decorator called name is present.
func (ds Decorators) Has(name string) bool {
	_, ok := ds.Find(name)
	return ok
}

func (ds Decorators) String() string {
	var out bytes.Buffer
	for _, d := range ds {
		out.WriteString(d.String())
		out.WriteString(" ")
	}
	return out.String()
}

// VariableDeclaration: int x
type VariableDeclaration struct {
	Token      token.Token
	Decorators Decorators
	Type       *Identifier
	Name       *Identifier
}

func (vd *VariableDeclaration) statementNode() {}
func (vd *VariableDeclaration) String() string {
	return vd.Decorators.String() + vd.Type.String() + " " + vd.Name.String()
}

// VariableInit: int x = value
type VariableInit struct {
	Token       token.Token
	Declaration *VariableDeclaration
	Value       Value
}

func (vi *VariableInit) statementNode() {}
func (vi *VariableInit) String() string {
	return vi.Declaration.String() + " = " + vi.Value.String()
}

// Assignment: x = value
type Assignment struct {
	Token token.Token
	Name  *Identifier
	Value Value
}

func (a *Assignment) statementNode() {}
func (a *Assignment) String() string {
	return a.Name.String() + " = " + a.Value.String()
}

// FunctionDeclaration: fn name() { ... }
type FunctionDeclaration struct {
	Token      token.Token
	Decorators Decorators
	Name       *Identifier
	Body       *Block
}

func (fd *FunctionDeclaration) statementNode() {}
func (fd *FunctionDeclaration) String() string {
	return fd.Decorators.String() + "fn " + fd.Name.String() + "() " + fd.Body.String()
}

// FunctionCall: name(args) with an optional trailing block and else block
// already folded into Args.
type FunctionCall struct {
	Token token.Token
	Name  *Identifier
	Args  *ArgumentList
}

func (fc *FunctionCall) statementNode() {}
func (fc *FunctionCall) valueNode()     {}
func (fc *FunctionCall) String() string {
	return fc.Name.String() + "(" + fc.Args.String() + ")"
}

// ExpressionStatement is a bare expression, usually a block's result.
type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (es *ExpressionStatement) statementNode() {}
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

// NamedArgument: name=value
type NamedArgument struct {
	Token token.Token
	Name  string
	Value Argument
}

// ArgumentList holds positional arguments and named arguments, both in
// source order.
type ArgumentList struct {
	Positional []Argument
	Named      []*NamedArgument
}

// Get returns the named argument called name.
func (al *ArgumentList) Get(name string) (Argument, bool) {
	if al == nil {
		return nil, false
	}
	for _, n := range al.Named {
		if n.Name == name {
			return n.Value, true
		}
	}
	return nil, false
}

// Len is the number of positional arguments.
func (al *ArgumentList) Len() int {
	if al == nil {
		return 0
	}
	return len(al.Positional)
}

// At returns the i-th positional argument.
func (al *ArgumentList) At(i int) (Argument, bool) {
	if al == nil || i < 0 || i >= len(al.Positional) {
		return nil, false
	}
	return al.Positional[i], true
}

func (al *ArgumentList) String() string {
	if al == nil {
		return ""
	}
	args := []string{}
	for _, a := range al.Positional {
		args = append(args, a.String())
	}
	for _, n := range al.Named {
		args = append(args, n.Name+"="+n.Value.String())
	}
	return strings.Join(args, ", ")
}

// Identifier
type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) String() string { return i.Value }

// IntegerLiteral
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) String() string { return strconv.FormatInt(il.Value, 10) }

// StringLiteral
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) String() string { return strconv.Quote(sl.Value) }

// CoordinateKind tags how an axis value is interpreted.
type CoordinateKind int

const (
	Absolute CoordinateKind = iota
	Relative                // ~
	Local                   // ^
)

// CoordinatePart is one axis of a Coordinate.
type CoordinatePart struct {
	Kind  CoordinateKind
	Value float64
}

func (cp CoordinatePart) String() string {
	v := strconv.FormatFloat(cp.Value, 'f', -1, 64)
	switch cp.Kind {
	case Relative:
		return "~" + v
	case Local:
		return "^" + v
	default:
		return v
	}
}

// Coordinate: three juxtaposed parts, e.g. ~ ~1 ~
type Coordinate struct {
	Token   token.Token
	X, Y, Z CoordinatePart
}

func (c *Coordinate) String() string {
	return c.X.String() + " " + c.Y.String() + " " + c.Z.String()
}

// ComparisonOperator
type ComparisonOperator int

const (
	Equal ComparisonOperator = iota
	NotEqual
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
)

var comparisonOperators = map[ComparisonOperator]string{
	Equal:              "==",
	NotEqual:           "!=",
	GreaterThan:        ">",
	GreaterThanOrEqual: ">=",
	LessThan:           "<",
	LessThanOrEqual:    "<=",
}

func (op ComparisonOperator) String() string { return comparisonOperators[op] }

// Comparison: left op right, with op one of == != > >= < <=
type Comparison struct {
	Token    token.Token
	Left     Expression
	Operator ComparisonOperator
	Right    Expression
}

func (c *Comparison) String() string {
	return "(" + c.Left.String() + " " + c.Operator.String() + " " + c.Right.String() + ")"
}

// MathsOperator
type MathsOperator int

const (
	Add MathsOperator = iota
	Subtract
	Multiply
	Divide
	Remainder
)

var mathsOperators = map[MathsOperator]string{
	Add:       "+",
	Subtract:  "-",
	Multiply:  "*",
	Divide:    "/",
	Remainder: "%",
}

func (op MathsOperator) String() string { return mathsOperators[op] }

// Maths: left op right, with op one of + - * / %
type Maths struct {
	Token    token.Token
	Left     Expression
	Operator MathsOperator
	Right    Expression
}

func (m *Maths) String() string {
	return "(" + m.Left.String() + " " + m.Operator.String() + " " + m.Right.String() + ")"
}

func (b *Block) TokenLiteral() string                   { return b.Token.Literal }
func (b *Block) Pos() (line, column int)                { return b.Token.Line, b.Token.Column }
func (d *Decorator) TokenLiteral() string               { return d.Token.Literal }
func (d *Decorator) Pos() (line, column int)            { return d.Token.Line, d.Token.Column }
func (vd *VariableDeclaration) TokenLiteral() string    { return vd.Token.Literal }
func (vd *VariableDeclaration) Pos() (line, column int) { return vd.Token.Line, vd.Token.Column }
func (vi *VariableInit) TokenLiteral() string           { return vi.Token.Literal }
func (vi *VariableInit) Pos() (line, column int)        { return vi.Token.Line, vi.Token.Column }
func (a *Assignment) TokenLiteral() string              { return a.Token.Literal }
func (a *Assignment) Pos() (line, column int)           { return a.Token.Line, a.Token.Column }
func (fd *FunctionDeclaration) TokenLiteral() string    { return fd.Token.Literal }
func (fd *FunctionDeclaration) Pos() (line, column int) { return fd.Token.Line, fd.Token.Column }
func (fc *FunctionCall) TokenLiteral() string           { return fc.Token.Literal }
func (fc *FunctionCall) Pos() (line, column int)        { return fc.Token.Line, fc.Token.Column }
func (es *ExpressionStatement) TokenLiteral() string    { return es.Token.Literal }
func (es *ExpressionStatement) Pos() (line, column int) { return es.Token.Line, es.Token.Column }

func (i *Identifier) expressionNode()         {}
func (i *Identifier) argumentNode()           {}
func (i *Identifier) valueNode()              {}
func (i *Identifier) TokenLiteral() string    { return i.Token.Literal }
func (i *Identifier) Pos() (line, column int) { return i.Token.Line, i.Token.Column }

func (il *IntegerLiteral) expressionNode()         {}
func (il *IntegerLiteral) argumentNode()           {}
func (il *IntegerLiteral) valueNode()              {}
func (il *IntegerLiteral) TokenLiteral() string    { return il.Token.Literal }
func (il *IntegerLiteral) Pos() (line, column int) { return il.Token.Line, il.Token.Column }

func (sl *StringLiteral) expressionNode()         {}
func (sl *StringLiteral) argumentNode()           {}
func (sl *StringLiteral) valueNode()              {}
func (sl *StringLiteral) TokenLiteral() string    { return sl.Token.Literal }
func (sl *StringLiteral) Pos() (line, column int) { return sl.Token.Line, sl.Token.Column }

func (c *Coordinate) expressionNode()         {}
func (c *Coordinate) argumentNode()           {}
func (c *Coordinate) valueNode()              {}
func (c *Coordinate) TokenLiteral() string    { return c.Token.Literal }
func (c *Coordinate) Pos() (line, column int) { return c.Token.Line, c.Token.Column }

func (c *Comparison) expressionNode()         {}
func (c *Comparison) argumentNode()           {}
func (c *Comparison) valueNode()              {}
func (c *Comparison) TokenLiteral() string    { return c.Token.Literal }
func (c *Comparison) Pos() (line, column int) { return c.Token.Line, c.Token.Column }

func (m *Maths) expressionNode()         {}
func (m *Maths) argumentNode()           {}
func (m *Maths) valueNode()              {}
func (m *Maths) TokenLiteral() string    { return m.Token.Literal }
func (m *Maths) Pos() (line, column int) { return m.Token.Line, m.Token.Column }
