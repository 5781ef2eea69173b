package lexer

import (
	"testing"

	"github.com/xirelogy/go-ember/internal/token"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `var a = 1;
if (a >= 1 and a != 2) {
  print "hi";
}
`
	tests := []token.Token{
		{Type: token.Var, Lexeme: "var"},
		{Type: token.Identifier, Lexeme: "a"},
		{Type: token.Equal, Lexeme: "="},
		{Type: token.Number, Lexeme: "1"},
		{Type: token.Semicolon, Lexeme: ";"},
		{Type: token.If, Lexeme: "if"},
		{Type: token.LeftParen, Lexeme: "("},
		{Type: token.Identifier, Lexeme: "a"},
		{Type: token.GreaterEqual, Lexeme: ">="},
		{Type: token.Number, Lexeme: "1"},
		{Type: token.And, Lexeme: "and"},
		{Type: token.Identifier, Lexeme: "a"},
		{Type: token.BangEqual, Lexeme: "!="},
		{Type: token.Number, Lexeme: "2"},
		{Type: token.RightParen, Lexeme: ")"},
		{Type: token.LeftBrace, Lexeme: "{"},
		{Type: token.Print, Lexeme: "print"},
		{Type: token.String, Lexeme: `"hi"`},
		{Type: token.Semicolon, Lexeme: ";"},
		{Type: token.RightBrace, Lexeme: "}"},
		{Type: token.EOF},
	}

	l := New(input)
	for i, want := range tests {
		got := l.NextToken()
		if got.Type != want.Type || got.Lexeme != want.Lexeme {
			t.Fatalf("token %d: want %v %q, got %v %q", i, want.Type, want.Lexeme, got.Type, got.Lexeme)
		}
	}
}

func TestLexerClassKeywordIsFixed(t *testing.T) {
	l := New("class")
	tok := l.NextToken()
	if tok.Type != token.Class {
		t.Fatalf("want Class, got %v", tok.Type)
	}
}

func TestLexerNumberWithFraction(t *testing.T) {
	l := New("3.14")
	tok := l.NextToken()
	if tok.Type != token.Number || tok.Lexeme != "3.14" {
		t.Fatalf("want Number 3.14, got %v %q", tok.Type, tok.Lexeme)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := New(`"abc`)
	tok := l.NextToken()
	if tok.Type != token.Error {
		t.Fatalf("want Error, got %v", tok.Type)
	}
}

func TestLexerLineComment(t *testing.T) {
	l := New("// comment\nvar")
	tok := l.NextToken()
	if tok.Type != token.Var || tok.Line != 2 {
		t.Fatalf("want Var on line 2, got %v on line %d", tok.Type, tok.Line)
	}
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	l := New("@")
	tok := l.NextToken()
	if tok.Type != token.Error || tok.Lexeme != "Unexpected character." {
		t.Fatalf("want 'Unexpected character.' error, got %v %q", tok.Type, tok.Lexeme)
	}
}
