// Package lexer turns source text into a pull-based stream of tokens.
package lexer

import (
	"github.com/xirelogy/go-ember/internal/token"
)

// Lexer scans one borrowed source string. It never fails to produce a
// token: lexical errors surface as token.Error with a human-readable
// message, and once the source is exhausted it yields token.EOF forever.
type Lexer struct {
	source  string
	start   int
	current int
	line    int
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{source: src, line: 1}
}

// NextToken returns the next token in the stream.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()
	l.start = l.current

	if l.isAtEnd() {
		return l.make(token.EOF)
	}

	c := l.advance()

	if isDigit(c) {
		return l.number()
	}
	if isAlpha(c) {
		return l.identifier()
	}

	switch c {
	case '(':
		return l.make(token.LeftParen)
	case ')':
		return l.make(token.RightParen)
	case '{':
		return l.make(token.LeftBrace)
	case '}':
		return l.make(token.RightBrace)
	case ';':
		return l.make(token.Semicolon)
	case ',':
		return l.make(token.Comma)
	case '.':
		return l.make(token.Dot)
	case '-':
		return l.make(token.Minus)
	case '+':
		return l.make(token.Plus)
	case '/':
		return l.make(token.Slash)
	case '*':
		return l.make(token.Star)
	case '!':
		return l.make(l.twoChar('=', token.BangEqual, token.Bang))
	case '=':
		return l.make(l.twoChar('=', token.EqualEqual, token.Equal))
	case '<':
		return l.make(l.twoChar('=', token.LessEqual, token.Less))
	case '>':
		return l.make(l.twoChar('=', token.GreaterEqual, token.Greater))
	case '"':
		return l.string()
	}

	return l.errorToken("Unexpected character.")
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() byte {
	c := l.source[l.current]
	l.current++
	return c
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.current++
	return true
}

func (l *Lexer) twoChar(second byte, ifMatch, otherwise token.Type) token.Type {
	if l.match(second) {
		return ifMatch
	}
	return otherwise
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.peek() {
		case ' ', '\r', '\t':
			l.advance()
		case '\n':
			l.line++
			l.advance()
		case '/':
			if l.peekNext() == '/' {
				for l.peek() != '\n' && !l.isAtEnd() {
					l.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) string() token.Token {
	for l.peek() != '"' && !l.isAtEnd() {
		if l.peek() == '\n' {
			l.line++
		}
		l.advance()
	}
	if l.isAtEnd() {
		return l.errorToken("Unterminated string.")
	}
	l.advance() // closing quote
	return l.make(token.String)
}

func (l *Lexer) number() token.Token {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.make(token.Number)
}

func (l *Lexer) identifier() token.Token {
	for isAlphaNumeric(l.peek()) {
		l.advance()
	}
	return l.make(l.identifierType())
}

// identifierType classifies the lexeme just consumed as a keyword or plain
// identifier, via a map lookup rather than a hand-rolled character trie.
func (l *Lexer) identifierType() token.Type {
	lexeme := l.source[l.start:l.current]
	if t, ok := token.Keywords[lexeme]; ok {
		return t
	}
	return token.Identifier
}

func (l *Lexer) make(t token.Type) token.Token {
	return token.Token{Type: t, Lexeme: l.source[l.start:l.current], Line: l.line}
}

func (l *Lexer) errorToken(msg string) token.Token {
	return token.Token{Type: token.Error, Lexeme: msg, Line: l.line}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}
