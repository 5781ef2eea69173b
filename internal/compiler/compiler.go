// Package compiler implements a single left-to-right pass over tokens that
// emits bytecode directly, with no intermediate syntax tree. Parsing and
// codegen are the same pass: every grammar production that the parser
// recognizes immediately writes bytes into the chunk under construction.
package compiler

import (
	"fmt"
	"strconv"

	"github.com/xirelogy/go-ember/internal/bytecode"
	"github.com/xirelogy/go-ember/internal/lexer"
	"github.com/xirelogy/go-ember/internal/token"
)

const maxLocals = 256

type funcType int

const (
	typeFunction funcType = iota
	typeScript
)

type local struct {
	name  string
	depth int
}

// funcState is the per-function compilation record: the FunctionObject
// under construction, the local-variable array, and the current scope
// depth. Function nesting forms an implicit stack through enclosing.
type funcState struct {
	enclosing  *funcState
	fn         *bytecode.FunctionObject
	fnType     funcType
	locals     [maxLocals]local
	localCount int
	scopeDepth int
}

// Compiler drives one compilation pass: shared parser state (current token,
// lexer, error flags) plus the function-compiler stack.
type Compiler struct {
	lex     *lexer.Lexer
	current token.Token
	prev    token.Token

	hadError  bool
	panicMode bool
	errors    []string

	fs *funcState
}

// Compile compiles source into the top-level script function. On any
// compile error it returns a nil function and the accumulated, formatted
// error messages; hadError is a sticky latch, so compilation never produces
// a runnable function once any error has been reported.
func Compile(source string) (*bytecode.FunctionObject, []string) {
	c := &Compiler{lex: lexer.New(source)}
	c.pushFunc(typeScript, "")
	c.advance()

	for !c.check(token.EOF) {
		c.declaration()
	}

	fn := c.endFunc()
	if c.hadError {
		return nil, c.errors
	}
	return fn, nil
}

func (c *Compiler) pushFunc(t funcType, name string) {
	fs := &funcState{enclosing: c.fs, fnType: t, fn: &bytecode.FunctionObject{Name: name}}
	// Slot 0 is reserved for the callee itself.
	fs.locals[0] = local{name: "", depth: 0}
	fs.localCount = 1
	c.fs = fs
}

func (c *Compiler) endFunc() *bytecode.FunctionObject {
	c.emitReturn()
	fn := c.fs.fn
	c.fs = c.fs.enclosing
	return fn
}

func (c *Compiler) chunk() *bytecode.Chunk {
	return &c.fs.fn.Chunk
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.prev = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Type != token.Error {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t token.Type) bool {
	return c.current.Type == t
}

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) {
	c.errorAt(c.current, msg)
}

func (c *Compiler) error(msg string) {
	c.errorAt(c.prev, msg)
}

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Type == token.EOF {
		where = " at end"
	} else if tok.Type == token.Error {
		where = ""
	}
	c.errors = append(c.errors, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, msg))
	c.hadError = true
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != token.EOF {
		if c.prev.Type == token.Semicolon {
			return
		}
		switch c.current.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// --- byte emission ------------------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.chunk().Write(b, c.prev.Line)
}

func (c *Compiler) emitOp(op bytecode.Op) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitOpByte(op bytecode.Op, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	c.emitOp(bytecode.OpNil)
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) makeConstant(v bytecode.Value) byte {
	idx, err := c.chunk().AddConstant(v)
	if err != nil {
		c.error(err.Error())
		return 0
	}
	return idx
}

func (c *Compiler) emitConstant(v bytecode.Value) {
	c.emitOpByte(bytecode.OpConstant, c.makeConstant(v))
}

// emitJump writes op plus two placeholder bytes and returns the offset of
// the first placeholder, to be filled in later by patchJump.
func (c *Compiler) emitJump(op bytecode.Op) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.chunk().Count() - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := c.chunk().Count() - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
		return
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	offset := c.chunk().Count() - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

// --- scopes and locals --------------------------------------------------

func (c *Compiler) beginScope() {
	c.fs.scopeDepth++
}

func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	for c.fs.localCount > 0 && c.fs.locals[c.fs.localCount-1].depth > c.fs.scopeDepth {
		c.emitOp(bytecode.OpPop)
		c.fs.localCount--
	}
}

func (c *Compiler) addLocal(name string) {
	if c.fs.localCount == maxLocals {
		c.error("Too many local variables declared in function.")
		return
	}
	c.fs.locals[c.fs.localCount] = local{name: name, depth: -1}
	c.fs.localCount++
}

func (c *Compiler) declareVariable(name string) {
	if c.fs.scopeDepth == 0 {
		return
	}
	for i := c.fs.localCount - 1; i >= 0; i-- {
		l := c.fs.locals[i]
		if l.depth != -1 && l.depth < c.fs.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Re-definition of an existing variable in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) markInitialized() {
	if c.fs.scopeDepth == 0 {
		return
	}
	c.fs.locals[c.fs.localCount-1].depth = c.fs.scopeDepth
}

func (c *Compiler) resolveLocal(name string) int {
	for i := c.fs.localCount - 1; i >= 0; i-- {
		l := c.fs.locals[i]
		if l.name == name {
			if l.depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(bytecode.String(name))
}

func (c *Compiler) parseVariable(msg string) byte {
	c.consume(token.Identifier, msg)
	name := c.prev.Lexeme
	c.declareVariable(name)
	if c.fs.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) defineVariable(global byte) {
	if c.fs.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(bytecode.OpDefineGlobal, global)
}

// --- declarations and statements ---------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.Fun):
		c.funDeclaration()
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(token.Semicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(c.prev.Lexeme)
	c.defineVariable(global)
}

func (c *Compiler) function(name string) {
	c.pushFunc(typeFunction, name)
	c.beginScope()

	c.consume(token.LeftParen, "Expect '(' after function name.")
	if !c.check(token.RightParen) {
		for {
			c.fs.fn.Arity++
			if c.fs.fn.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConst := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConst)
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "Expect ')' after parameters.")
	c.consume(token.LeftBrace, "Expect '{' before function body.")
	c.block()

	fn := c.endFunc()
	c.emitOpByte(bytecode.OpClosure, c.makeConstant(bytecode.Function(fn)))
}

func (c *Compiler) block() {
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RightBrace, "Expect '}' after block.")
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.For):
		c.forStatement()
	case c.match(token.Return):
		c.returnStatement()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after value.")
	c.emitOp(bytecode.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after expression.")
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) returnStatement() {
	if c.fs.fnType == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.Semicolon) {
		c.emitReturn()
		return
	}
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after return value.")
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk().Count()
	c.consume(token.LeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LeftParen, "Expect '(' after 'for'.")

	switch {
	case c.match(token.Semicolon):
		// no initializer
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.chunk().Count()
	exitJump := -1
	if !c.check(token.Semicolon) {
		c.expression()
		c.consume(token.Semicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	} else {
		c.advance() // consume the ';'
	}

	if !c.check(token.RightParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrementStart := c.chunk().Count()
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(token.RightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.advance() // consume the ')'
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}
	c.endScope()
}

// --- expressions (Pratt) ------------------------------------------------

type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LeftParen:    {prefix: grouping, infix: call, precedence: precCall},
		token.Minus:        {prefix: unary, infix: binary, precedence: precTerm},
		token.Plus:         {infix: binary, precedence: precTerm},
		token.Slash:        {infix: binary, precedence: precFactor},
		token.Star:         {infix: binary, precedence: precFactor},
		token.Bang:         {prefix: unary},
		token.BangEqual:    {infix: binary, precedence: precEquality},
		token.EqualEqual:   {infix: binary, precedence: precEquality},
		token.Greater:      {infix: binary, precedence: precComparison},
		token.GreaterEqual: {infix: binary, precedence: precComparison},
		token.Less:         {infix: binary, precedence: precComparison},
		token.LessEqual:    {infix: binary, precedence: precComparison},
		token.Identifier:   {prefix: variable},
		token.String:       {prefix: stringLit},
		token.Number:       {prefix: number},
		token.And:          {infix: and_, precedence: precAnd},
		token.Or:           {infix: or_, precedence: precOr},
		token.False:        {prefix: literal},
		token.Nil:          {prefix: literal},
		token.True:         {prefix: literal},
	}
}

func getRule(t token.Type) parseRule {
	return rules[t]
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(p precedence) {
	c.advance()
	prefix := getRule(c.prev.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := p <= precAssignment
	prefix(c, canAssign)

	for p <= getRule(c.current.Type).precedence {
		c.advance()
		infix := getRule(c.prev.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.error("Invalid assignment target.")
	}
}

func number(c *Compiler, _ bool) {
	n, _ := strconv.ParseFloat(c.prev.Lexeme, 64)
	c.emitConstant(bytecode.Number(n))
}

func stringLit(c *Compiler, _ bool) {
	lex := c.prev.Lexeme
	c.emitConstant(bytecode.String(lex[1 : len(lex)-1]))
}

func literal(c *Compiler, _ bool) {
	switch c.prev.Type {
	case token.False:
		c.emitOp(bytecode.OpFalse)
	case token.Nil:
		c.emitOp(bytecode.OpNil)
	case token.True:
		c.emitOp(bytecode.OpTrue)
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RightParen, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	opType := c.prev.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case token.Minus:
		c.emitOp(bytecode.OpNegate)
	case token.Bang:
		c.emitOp(bytecode.OpNot)
	}
}

// binary emits the matching opcode for a two-operand expression. The opcode
// table has no dedicated slots for !=, <= and >=; those are synthesized as
// EQUAL+NOT, GREATER+NOT and LESS+NOT respectively.
func binary(c *Compiler, _ bool) {
	opType := c.prev.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.BangEqual:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case token.EqualEqual:
		c.emitOp(bytecode.OpEqual)
	case token.Greater:
		c.emitOp(bytecode.OpGreater)
	case token.GreaterEqual:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case token.Less:
		c.emitOp(bytecode.OpLess)
	case token.LessEqual:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	case token.Plus:
		c.emitOp(bytecode.OpAdd)
	case token.Minus:
		c.emitOp(bytecode.OpSubtract)
	case token.Star:
		c.emitOp(bytecode.OpMultiply)
	case token.Slash:
		c.emitOp(bytecode.OpDivide)
	}
}

func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)

	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.prev.Lexeme, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp bytecode.Op
	slot := c.resolveLocal(name)
	if slot != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else {
		slot = int(c.identifierConstant(name))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitOpByte(setOp, byte(slot))
	} else {
		c.emitOpByte(getOp, byte(slot))
	}
}

func call(c *Compiler, _ bool) {
	argc := c.argumentList()
	c.emitOpByte(bytecode.OpCall, argc)
}

func (c *Compiler) argumentList() byte {
	var argc int
	if !c.check(token.RightParen) {
		for {
			c.expression()
			if argc == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "Expect ')' after arguments.")
	return byte(argc)
}
