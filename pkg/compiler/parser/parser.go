// Package parser turns elli tokens into an *ast.Block.
package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/zurustar/elli/pkg/compiler/ast"
	"github.com/zurustar/elli/pkg/compiler/lexer"
	"github.com/zurustar/elli/pkg/compiler/token"
)

// Precedence levels for operators.
const (
	_ int = iota
	LOWEST
	COMPARE // == != < > <= >=
	SUM     // + -
	PRODUCT // * / %
	PREFIX  // -X
)

var precedences = map[token.TokenType]int{
	token.EQ:       COMPARE,
	token.NEQ:      COMPARE,
	token.LT:       COMPARE,
	token.LTE:      COMPARE,
	token.GT:       COMPARE,
	token.GTE:      COMPARE,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
}

var comparisonOperators = map[token.TokenType]ast.ComparisonOperator{
	token.EQ:  ast.Equal,
	token.NEQ: ast.NotEqual,
	token.GT:  ast.GreaterThan,
	token.GTE: ast.GreaterThanOrEqual,
	token.LT:  ast.LessThan,
	token.LTE: ast.LessThanOrEqual,
}

var mathsOperators = map[token.TokenType]ast.MathsOperator{
	token.PLUS:     ast.Add,
	token.MINUS:    ast.Subtract,
	token.ASTERISK: ast.Multiply,
	token.SLASH:    ast.Divide,
	token.PERCENT:  ast.Remainder,
}

// ParserError is a syntax error at a source position.
type ParserError struct {
	Message string
	Line    int
	Column  int
}

// Error implements the error interface.
func (e *ParserError) Error() string {
	return fmt.Sprintf("parser error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Parser parses elli source code into an AST.
type Parser struct {
	tokens []token.Token
	pos    int
	errors []error

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New creates a new Parser.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		tokens: l.Tokenize(),
		pos:    -2,
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseNumeric)
	p.registerPrefix(token.FLOAT, p.parseNumeric)
	p.registerPrefix(token.MINUS, p.parseNumeric)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.TILDE, p.parseCoordinate)
	p.registerPrefix(token.CARET, p.parseCoordinate)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for t := range comparisonOperators {
		p.registerInfix(t, p.parseComparison)
	}
	for t := range mathsOperators {
		p.registerInfix(t, p.parseMaths)
	}

	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// Errors returns the parser errors.
func (p *Parser) Errors() []error {
	return p.errors
}

// ParseProgram parses the whole input as the root block.
func (p *Parser) ParseProgram() (*ast.Block, []error) {
	program := &ast.Block{Token: p.curToken}
	program.Statements = p.parseStatements(token.EOF)
	return program, p.errors
}

// parseStatements parses statements until end, leaving curToken on end.
func (p *Parser) parseStatements(end token.TokenType) []ast.Statement {
	statements := []ast.Statement{}
	for !p.curTokenIs(end) {
		if p.curTokenIs(token.EOF) {
			p.addError(p.curToken, "unexpected end of input, expected %s", end)
			return statements
		}
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}

		errCount := len(p.errors)
		stmt := p.parseStatement()
		if stmt != nil {
			statements = append(statements, stmt)
		}
		if len(p.errors) > errCount {
			p.synchronize(end)
			continue
		}
		p.nextToken()
	}
	return statements
}

// synchronize skips to the next statement boundary after an error.
func (p *Parser) synchronize(end token.TokenType) {
	for !p.curTokenIs(token.EOF) && !p.curTokenIs(end) {
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			return
		}
		p.nextToken()
	}
}

func (p *Parser) parseStatement() ast.Statement {
	var decorators ast.Decorators
	for p.curTokenIs(token.AT) {
		d := p.parseDecorator()
		if d == nil {
			return nil
		}
		decorators = append(decorators, d)
		p.nextToken()
	}

	switch {
	case p.curTokenIs(token.FN):
		return p.parseFunctionDeclaration(decorators)
	case p.curTokenIs(token.IDENT) && p.peekTokenIs(token.IDENT):
		return p.parseVariableDeclaration(decorators)
	}

	if len(decorators) > 0 {
		p.addError(decorators[0].Token, "decorators must precede a declaration")
		return nil
	}

	switch {
	case p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN):
		return p.parseAssignment()
	case p.curTokenIs(token.IDENT) && p.peekTokenIs(token.LPAREN):
		call := p.parseFunctionCall()
		if call == nil {
			return nil
		}
		return call
	default:
		return p.parseExpressionStatement()
	}
}

// parseDecorator parses @name or @name(args); curToken ends on the name
// or the closing parenthesis.
func (p *Parser) parseDecorator() *ast.Decorator {
	d := &ast.Decorator{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	d.Name = p.curToken.Literal
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		d.Args = p.parseArgumentList()
		if d.Args == nil {
			return nil
		}
	}
	return d
}

func (p *Parser) parseFunctionDeclaration(decorators ast.Decorators) ast.Statement {
	stmt := &ast.FunctionDeclaration{Token: p.curToken, Decorators: decorators}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.expectPeek(token.LPAREN) || !p.expectPeek(token.RPAREN) || !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseVariableDeclaration(decorators ast.Decorators) ast.Statement {
	decl := &ast.VariableDeclaration{
		Token:      p.curToken,
		Decorators: decorators,
		Type:       &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}
	p.nextToken()
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.peekTokenIs(token.ASSIGN) {
		return decl
	}
	p.nextToken()
	init := &ast.VariableInit{Token: decl.Token, Declaration: decl}
	p.nextToken()
	init.Value = p.parseValue()
	if init.Value == nil {
		return nil
	}
	return init
}

func (p *Parser) parseAssignment() ast.Statement {
	stmt := &ast.Assignment{
		Token: p.curToken,
		Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}
	p.nextToken() // =
	p.nextToken()
	stmt.Value = p.parseValue()
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

// parseValue parses an assignment right-hand side.
func (p *Parser) parseValue() ast.Value {
	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.LPAREN) {
		call := p.parseFunctionCall()
		if call == nil {
			return nil
		}
		return call
	}
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	return expr
}

// parseFunctionCall parses name(args) [block [else block]].
func (p *Parser) parseFunctionCall() *ast.FunctionCall {
	call := &ast.FunctionCall{
		Token: p.curToken,
		Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}
	p.nextToken()
	call.Args = p.parseArgumentList()
	if call.Args == nil {
		return nil
	}

	if !p.peekTokenIs(token.LBRACE) {
		return call
	}
	p.nextToken()
	block := p.parseBlock()
	if block == nil {
		return nil
	}
	call.Args.Positional = append(call.Args.Positional, block)

	if !p.peekTokenIs(token.ELSE) {
		return call
	}
	p.nextToken()
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	elseBlock := p.parseBlock()
	if elseBlock == nil {
		return nil
	}
	call.Args.Positional = append(call.Args.Positional, elseBlock)
	return call
}

// parseArgumentList parses "(" [argument {"," argument}] ")" with curToken
// on the opening parenthesis. It ends on the closing parenthesis.
func (p *Parser) parseArgumentList() *ast.ArgumentList {
	list := &ast.ArgumentList{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return list
	}

	for {
		p.nextToken()
		if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
			named := &ast.NamedArgument{Token: p.curToken, Name: p.curToken.Literal}
			p.nextToken() // =
			p.nextToken()
			named.Value = p.parseArgument()
			if named.Value == nil {
				return nil
			}
			for _, existing := range list.Named {
				if existing.Name == named.Name {
					p.addError(named.Token, "duplicate named argument %q", named.Name)
					return nil
				}
			}
			list.Named = append(list.Named, named)
		} else {
			arg := p.parseArgument()
			if arg == nil {
				return nil
			}
			list.Positional = append(list.Positional, arg)
		}

		if p.peekTokenIs(token.RPAREN) {
			p.nextToken()
			return list
		}
		if !p.expectPeek(token.COMMA) {
			return nil
		}
	}
}

func (p *Parser) parseArgument() ast.Argument {
	if p.curTokenIs(token.LBRACE) {
		block := p.parseBlock()
		if block == nil {
			return nil
		}
		return block
	}
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	return expr
}

// parseBlock parses "{" statements "}" with curToken on the opening brace.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Token: p.curToken}
	p.nextToken()
	errCount := len(p.errors)
	block.Statements = p.parseStatements(token.RBRACE)
	if len(p.errors) > errCount {
		return nil
	}
	return block
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !p.peekTokenIs(token.EOF) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

// parseNumeric handles integers, negation and absolute coordinates, which
// all start with a number or a minus sign.
func (p *Parser) parseNumeric() ast.Expression {
	tok := p.curToken

	if p.curTokenIs(token.MINUS) && !(p.peekIsNumber() && adjacent(p.curToken, p.peekToken)) {
		p.nextToken()
		operand := p.parseExpression(PREFIX)
		if operand == nil {
			return nil
		}
		return &ast.Maths{
			Token:    tok,
			Left:     &ast.IntegerLiteral{Token: tok, Value: 0},
			Operator: ast.Subtract,
			Right:    operand,
		}
	}

	first := 1
	if p.curTokenIs(token.MINUS) {
		first = 2
	}
	if p.startsCoordinatePartAt(first, false) {
		return p.parseCoordinate()
	}

	negative := p.curTokenIs(token.MINUS)
	if negative {
		p.nextToken()
	}
	if p.curTokenIs(token.FLOAT) {
		p.addError(p.curToken, "decimal %s is only allowed in a coordinate", p.curToken.Literal)
		return nil
	}

	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if negative {
		value = -value
	}
	if err != nil || value > math.MaxInt32 || value < math.MinInt32 {
		p.addError(tok, "integer %s is out of range", p.curToken.Literal)
		return nil
	}
	return &ast.IntegerLiteral{Token: tok, Value: value}
}

// parseCoordinate parses three juxtaposed parts starting at curToken and
// ends on the last token of the third part.
func (p *Parser) parseCoordinate() ast.Expression {
	coord := &ast.Coordinate{Token: p.curToken}
	parts := [3]*ast.CoordinatePart{&coord.X, &coord.Y, &coord.Z}
	for i, part := range parts {
		if i > 0 {
			if !p.startsCoordinatePartAt(1, true) {
				p.addError(p.peekToken, "expected coordinate part, got %s", p.peekToken.Type)
				return nil
			}
			p.nextToken()
		}
		if !p.parseCoordinatePart(part) {
			return nil
		}
	}
	return coord
}

func (p *Parser) parseCoordinatePart(part *ast.CoordinatePart) bool {
	switch p.curToken.Type {
	case token.TILDE, token.CARET:
		part.Kind = ast.Relative
		if p.curTokenIs(token.CARET) {
			part.Kind = ast.Local
		}
		if !p.numberFollowsAt(1) {
			return true
		}
		p.nextToken()
	}

	sign := 1.0
	if p.curTokenIs(token.MINUS) {
		sign = -1
		p.nextToken()
	}
	if !p.curTokenIs(token.INT) && !p.curTokenIs(token.FLOAT) {
		p.addError(p.curToken, "expected number in coordinate, got %s", p.curToken.Type)
		return false
	}
	v, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError(p.curToken, "could not parse %q as number", p.curToken.Literal)
		return false
	}
	part.Value = sign * v
	return true
}

// startsCoordinatePartAt reports whether the token at offset n from
// curToken begins a coordinate part on the same line: a number, ~, ^, or,
// when allowMinus is set, a minus sign attached to a number.
func (p *Parser) startsCoordinatePartAt(n int, allowMinus bool) bool {
	t := p.tokenAt(n)
	if t.Line != p.tokenAt(n-1).Line {
		return false
	}
	switch t.Type {
	case token.INT, token.FLOAT, token.TILDE, token.CARET:
		return true
	case token.MINUS:
		next := p.tokenAt(n + 1)
		return allowMinus && (next.Type == token.INT || next.Type == token.FLOAT) && adjacent(t, next)
	}
	return false
}

// numberFollowsAt reports whether a number, optionally with a minus sign,
// is attached to the token at offset n-1.
func (p *Parser) numberFollowsAt(n int) bool {
	prev, t := p.tokenAt(n-1), p.tokenAt(n)
	if t.Type == token.MINUS && adjacent(prev, t) {
		prev, t = t, p.tokenAt(n+1)
	}
	return (t.Type == token.INT || t.Type == token.FLOAT) && adjacent(prev, t)
}

func (p *Parser) parseComparison(left ast.Expression) ast.Expression {
	expression := &ast.Comparison{
		Token:    p.curToken,
		Operator: comparisonOperators[p.curToken.Type],
		Left:     left,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseMaths(left ast.Expression) ast.Expression {
	expression := &ast.Maths{
		Token:    p.curToken,
		Operator: mathsOperators[p.curToken.Type],
		Left:     left,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) nextToken() {
	p.pos++
	p.curToken = p.tokenAt(0)
	p.peekToken = p.tokenAt(1)
}

// tokenAt returns the token n positions after curToken, or EOF.
func (p *Parser) tokenAt(n int) token.Token {
	i := p.pos + n
	if i < 0 {
		return token.Token{Type: token.ILLEGAL}
	}
	if i >= len(p.tokens) {
		if len(p.tokens) == 0 {
			return token.Token{Type: token.EOF}
		}
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) peekIsNumber() bool {
	return p.peekTokenIs(token.INT) || p.peekTokenIs(token.FLOAT)
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) addError(tok token.Token, format string, args ...any) {
	p.errors = append(p.errors, &ParserError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
	})
}

func (p *Parser) peekError(t token.TokenType) {
	p.addError(p.peekToken, "expected next token to be %s, got %s instead", t, describe(p.peekToken))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	p.addError(tok, "unexpected %s", describe(tok))
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.IDENT, token.INT, token.FLOAT, token.STRING, token.ILLEGAL:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	}
	return tok.Type.String()
}

// adjacent reports whether b starts right where a ends on the same line.
func adjacent(a, b token.Token) bool {
	return a.Line == b.Line && b.Column == a.Column+len(a.Literal)
}
