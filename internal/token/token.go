// Package token defines the lexical tokens produced by the scanner and
// consumed by the compiler.
package token

// Type identifies a token kind.
type Type int

const (
	Error Type = iota
	EOF

	Identifier
	String
	Number

	// single-char punctuation
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// one- or two-char operators
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// keywords
	And
	Class
	Else
	False
	For
	Fun
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While
)

var names = map[Type]string{
	Error: "Error", EOF: "Eof",
	Identifier: "Identifier", String: "String", Number: "Number",
	LeftParen: "LeftParen", RightParen: "RightParen",
	LeftBrace: "LeftBrace", RightBrace: "RightBrace",
	Comma: "Comma", Dot: "Dot", Minus: "Minus", Plus: "Plus",
	Semicolon: "Semicolon", Slash: "Slash", Star: "Star",
	Bang: "Bang", BangEqual: "BangEqual",
	Equal: "Equal", EqualEqual: "EqualEqual",
	Greater: "Greater", GreaterEqual: "GreaterEqual",
	Less: "Less", LessEqual: "LessEqual",
	And: "And", Class: "Class", Else: "Else", False: "False",
	For: "For", Fun: "Fun", If: "If", Nil: "Nil", Or: "Or",
	Print: "Print", Return: "Return", Super: "Super", This: "This",
	True: "True", Var: "Var", While: "While",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "Unknown"
}

// Keywords maps reserved lexemes to their token type. The scanner looks each
// identifier lexeme up in this map directly (see lexer.identifierType), so it
// is the single source of truth for what counts as reserved.
var Keywords = map[string]Type{
	"and": And, "class": Class, "else": Else, "false": False,
	"for": For, "fun": Fun, "if": If, "nil": Nil, "or": Or,
	"print": Print, "return": Return, "super": Super, "this": This,
	"true": True, "var": Var, "while": While,
}

// Token is a classified lexeme with its source position.
type Token struct {
	Type   Type
	Lexeme string
	Line   int
}
