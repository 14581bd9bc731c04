// Package token defines the lexical tokens of elli sources.
package token

// TokenType represents the type of a token.
type TokenType int

// Token types
const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF
	COMMENT

	// Literals
	IDENT  // identifier
	INT    // integer literal
	FLOAT  // floating point literal
	STRING // string literal

	// Operators
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	PERCENT  // %
	ASSIGN   // =
	EQ       // ==
	NEQ      // !=
	LT       // <
	GT       // >
	LTE      // <=
	GTE      // >=
	TILDE    // ~
	CARET    // ^
	AT       // @

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	SEMICOLON // ;

	// Keywords
	FN   // fn
	ELSE // else
)

// Token represents a lexical token.
// Line and Column are 1-indexed.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

var typeNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",
	COMMENT: "COMMENT",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",

	PLUS:     "+",
	MINUS:    "-",
	ASTERISK: "*",
	SLASH:    "/",
	PERCENT:  "%",
	ASSIGN:   "=",
	EQ:       "==",
	NEQ:      "!=",
	LT:       "<",
	GT:       ">",
	LTE:      "<=",
	GTE:      ">=",
	TILDE:    "~",
	CARET:    "^",
	AT:       "@",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	SEMICOLON: ";",

	FN:   "fn",
	ELSE: "else",
}

// String returns a string representation of the token type.
func (t TokenType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsKeyword returns true if the token type is a keyword.
func (t TokenType) IsKeyword() bool {
	return t == FN || t == ELSE
}

// IsComparison returns true for == != < > <= >=.
func (t TokenType) IsComparison() bool {
	return t >= EQ && t <= GTE
}

var keywords = map[string]TokenType{
	"fn":   FN,
	"else": ELSE,
}

// LookupIdent checks if the given identifier is a keyword.
// Keywords are case-sensitive; type names such as int and entity are
// plain identifiers resolved by the code generator.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
