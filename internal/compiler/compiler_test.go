package compiler

import (
	"strconv"
	"strings"
	"testing"

	"github.com/xirelogy/go-ember/internal/bytecode"
)

func TestCompileArithmeticPrecedence(t *testing.T) {
	fn, errs := Compile("print 1 + 2 * 3;")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []byte{
		byte(bytecode.OpConstant), 0,
		byte(bytecode.OpConstant), 1,
		byte(bytecode.OpConstant), 2,
		byte(bytecode.OpMultiply),
		byte(bytecode.OpAdd),
		byte(bytecode.OpPrint),
		byte(bytecode.OpNil),
		byte(bytecode.OpReturn),
	}
	if string(fn.Chunk.Code) != string(want) {
		t.Fatalf("code = %v, want %v", fn.Chunk.Code, want)
	}
}

func TestCompileLocalsInBlock(t *testing.T) {
	fn, errs := Compile("{ var a = 1; var b = 2; }")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []byte{
		byte(bytecode.OpConstant), 0,
		byte(bytecode.OpConstant), 1,
		byte(bytecode.OpPop),
		byte(bytecode.OpPop),
		byte(bytecode.OpNil),
		byte(bytecode.OpReturn),
	}
	if string(fn.Chunk.Code) != string(want) {
		t.Fatalf("code = %v, want %v", fn.Chunk.Code, want)
	}
}

func TestCompileFunctionRecursion(t *testing.T) {
	_, errs := Compile(`fun fib(n){ if (n < 2) return n; return fib(n-1)+fib(n-2);} print fib(8);`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestCompileErrorSynchronizes(t *testing.T) {
	_, errs := Compile("var ; var a = 1; print a;")
	if len(errs) != 1 {
		t.Fatalf("want exactly one error, got %v", errs)
	}
	want := "[line 1] Error at ';': Expect variable name."
	if errs[0] != want {
		t.Fatalf("error = %q, want %q", errs[0], want)
	}
}

func TestCompileTooManyLocals(t *testing.T) {
	var b strings.Builder
	b.WriteString("{\n")
	for i := 0; i < 257; i++ {
		b.WriteString("var v" + strconv.Itoa(i) + " = 0;\n")
	}
	b.WriteString("}\n")

	_, errs := Compile(b.String())
	if len(errs) == 0 {
		t.Fatalf("want an error for >256 locals")
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e, "Too many local variables declared in function.") {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors = %v, want local-count overflow message", errs)
	}
}

func TestCompileReturnOutsideFunction(t *testing.T) {
	_, errs := Compile("return 1;")
	if len(errs) == 0 {
		t.Fatalf("want an error for top-level return")
	}
}
