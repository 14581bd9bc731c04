package lexer

import (
	"testing"

	"github.com/zurustar/elli/pkg/compiler/token"
)

func TestNextToken(t *testing.T) {
	input := `
	@stdvar(PLAYERS) entity everyone;
	int x = 2 + 3;
	@expose fn main() {
		if (x == 1) { say(to=PLAYERS, "hi"); } else { x = x % 2; }
		teleport(me, ~ ~1.5 ^-2)
	}
	`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.AT, "@"},
		{token.IDENT, "stdvar"},
		{token.LPAREN, "("},
		{token.IDENT, "PLAYERS"},
		{token.RPAREN, ")"},
		{token.IDENT, "entity"},
		{token.IDENT, "everyone"},
		{token.SEMICOLON, ";"},

		{token.IDENT, "int"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "2"},
		{token.PLUS, "+"},
		{token.INT, "3"},
		{token.SEMICOLON, ";"},

		{token.AT, "@"},
		{token.IDENT, "expose"},
		{token.FN, "fn"},
		{token.IDENT, "main"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},

		{token.IDENT, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.EQ, "=="},
		{token.INT, "1"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "say"},
		{token.LPAREN, "("},
		{token.IDENT, "to"},
		{token.ASSIGN, "="},
		{token.IDENT, "PLAYERS"},
		{token.COMMA, ","},
		{token.STRING, "hi"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.ELSE, "else"},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.IDENT, "x"},
		{token.PERCENT, "%"},
		{token.INT, "2"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},

		{token.IDENT, "teleport"},
		{token.LPAREN, "("},
		{token.IDENT, "me"},
		{token.COMMA, ","},
		{token.TILDE, "~"},
		{token.TILDE, "~"},
		{token.FLOAT, "1.5"},
		{token.CARET, "^"},
		{token.MINUS, "-"},
		{token.INT, "2"},
		{token.RPAREN, ")"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	tests := []struct {
		input    string
		expected []token.TokenType
	}{
		{"== != < > <= >=", []token.TokenType{token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE}},
		{"+ - * / %", []token.TokenType{token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT}},
		{"a=b", []token.TokenType{token.IDENT, token.ASSIGN, token.IDENT}},
		{"!", []token.TokenType{token.ILLEGAL}},
		{"#", []token.TokenType{token.ILLEGAL}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)
			for i, want := range tt.expected {
				tok := l.NextToken()
				if tok.Type != want {
					t.Fatalf("token %d: expected %s, got %s (%q)", i, want, tok.Type, tok.Literal)
				}
			}
			if tok := l.NextToken(); tok.Type != token.EOF {
				t.Errorf("expected EOF, got %s", tok.Type)
			}
		})
	}
}

func TestComments(t *testing.T) {
	input := "x // trailing\n/* block\ncomment */ y"

	tokens := New(input).Tokenize()

	want := []string{"x", "y", ""}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i, lit := range want {
		if tokens[i].Literal != lit {
			t.Errorf("token %d: expected %q, got %q", i, lit, tokens[i].Literal)
		}
	}
	if tokens[1].Line != 3 {
		t.Errorf("expected y on line 3, got %d", tokens[1].Line)
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		tokType  token.TokenType
	}{
		{`"hello world"`, "hello world", token.STRING},
		{`"say \"hi\""`, `say "hi"`, token.STRING},
		{`"back\\slash"`, `back\slash`, token.STRING},
		{`"a\nb"`, `a\nb`, token.STRING},
		{`"open`, "unterminated string", token.ILLEGAL},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.tokType {
				t.Fatalf("expected %s, got %s", tt.tokType, tok.Type)
			}
			if tok.Literal != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tok.Literal)
			}
		})
	}
}

func TestPositions(t *testing.T) {
	input := "int x\n  x = 1"

	tests := []struct {
		literal string
		line    int
		column  int
	}{
		{"int", 1, 1},
		{"x", 1, 5},
		{"x", 2, 3},
		{"=", 2, 5},
		{"1", 2, 7},
	}

	l := New(input)
	for _, tt := range tests {
		tok := l.NextToken()
		if tok.Literal != tt.literal {
			t.Fatalf("expected %q, got %q", tt.literal, tok.Literal)
		}
		if tok.Line != tt.line || tok.Column != tt.column {
			t.Errorf("%q: expected %d:%d, got %d:%d", tt.literal, tt.line, tt.column, tok.Line, tok.Column)
		}
	}
}

func TestTokenTypeString(t *testing.T) {
	tests := []struct {
		tokenType token.TokenType
		expected  string
	}{
		{token.ILLEGAL, "ILLEGAL"},
		{token.EOF, "EOF"},
		{token.IDENT, "IDENT"},
		{token.FLOAT, "FLOAT"},
		{token.TILDE, "~"},
		{token.CARET, "^"},
		{token.AT, "@"},
		{token.FN, "fn"},
		{token.ELSE, "else"},
		{token.TokenType(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.tokenType.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		ident    string
		expected token.TokenType
	}{
		{"fn", token.FN},
		{"else", token.ELSE},
		{"FN", token.IDENT},
		{"int", token.IDENT},
		{"entity", token.IDENT},
		{"if", token.IDENT},
	}

	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			if got := token.LookupIdent(tt.ident); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
