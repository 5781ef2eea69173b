package vm

import (
	"bytes"
	"strings"
	"testing"
)

func runCapture(t *testing.T, source string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	vm := New(WithOutput(&buf))
	err := vm.Interpret(source)
	return buf.String(), err
}

func TestArithmetic(t *testing.T) {
	out, err := runCapture(t, "print 1 + 2 * 3;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "7\n" {
		t.Fatalf("stdout = %q, want %q", out, "7\n")
	}
}

func TestGlobalsAndAssignment(t *testing.T) {
	out, err := runCapture(t, "var a = 1; a = a + 2; print a;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "3\n" {
		t.Fatalf("stdout = %q, want %q", out, "3\n")
	}
}

func TestControlFlow(t *testing.T) {
	out, err := runCapture(t, "var x = 0; for (var i = 0; i < 3; i = i + 1) { x = x + i; } print x;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "3\n" {
		t.Fatalf("stdout = %q, want %q", out, "3\n")
	}
}

func TestFunctionsAndRecursion(t *testing.T) {
	out, err := runCapture(t, "fun fib(n){ if (n < 2) return n; return fib(n-1)+fib(n-2);} print fib(8);")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "21\n" {
		t.Fatalf("stdout = %q, want %q", out, "21\n")
	}
}

func TestStringConcatenation(t *testing.T) {
	out, err := runCapture(t, `print "foo" + "bar";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "foobar\n" {
		t.Fatalf("stdout = %q, want %q", out, "foobar\n")
	}
}

func TestRuntimeTypeError(t *testing.T) {
	_, err := runCapture(t, "print 1 + true;")
	if err == nil {
		t.Fatalf("want a runtime error")
	}
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("want *RuntimeError, got %T", err)
	}
	if !strings.Contains(re.Message, "Operands must be two numbers or two strings.") {
		t.Fatalf("message = %q", re.Message)
	}
	if len(re.Frames) != 1 || re.Frames[0].FunctionName != "<script>" {
		t.Fatalf("frames = %v", re.Frames)
	}
}

func TestUndefinedGlobal(t *testing.T) {
	_, err := runCapture(t, "print x;")
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("want *RuntimeError, got %T", err)
	}
	if !strings.Contains(re.Message, "Undefined variable 'x'.") {
		t.Fatalf("message = %q", re.Message)
	}
}

func TestCompileErrorResult(t *testing.T) {
	_, err := runCapture(t, "var ; var a = 1; print a;")
	if _, ok := err.(*CompileErrors); !ok {
		t.Fatalf("want *CompileErrors, got %T", err)
	}
}

func TestReplGlobalsPersistAcrossInterpretCalls(t *testing.T) {
	var buf bytes.Buffer
	vm := New(WithOutput(&buf))
	if err := vm.Interpret("var a = 1;"); err != nil {
		t.Fatalf("first interpret: %v", err)
	}
	if err := vm.Interpret("print a;"); err != nil {
		t.Fatalf("second interpret: %v", err)
	}
	if buf.String() != "1\n" {
		t.Fatalf("stdout = %q, want %q", buf.String(), "1\n")
	}
}

func TestArityMismatch(t *testing.T) {
	_, err := runCapture(t, "fun f(a, b) { return a + b; } f(1);")
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("want *RuntimeError, got %T", err)
	}
	if !strings.Contains(re.Message, "Expected 2 arguments but got 1.") {
		t.Fatalf("message = %q", re.Message)
	}
}

func TestCallingNonCallable(t *testing.T) {
	_, err := runCapture(t, "var a = 1; a();")
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("want *RuntimeError, got %T", err)
	}
	if !strings.Contains(re.Message, "Can only call functions and classes.") {
		t.Fatalf("message = %q", re.Message)
	}
}

func TestStackOverflowOnDeepRecursion(t *testing.T) {
	_, err := runCapture(t, "fun rec(n) { return rec(n+1); } rec(0);")
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("want *RuntimeError, got %T", err)
	}
	if !strings.Contains(re.Message, "Stack overflow.") {
		t.Fatalf("message = %q", re.Message)
	}
}

func TestForLoopWithAllClausesEmpty(t *testing.T) {
	out, err := runCapture(t, `
fun countTo3() {
  var n = 0;
  for (;;) {
    n = n + 1;
    if (n == 3) return n;
  }
}
print countTo3();
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "3\n" {
		t.Fatalf("stdout = %q, want %q", out, "3\n")
	}
}

func TestAndOrShortCircuit(t *testing.T) {
	out, err := runCapture(t, `
fun sideEffect() { print "called"; return true; }
print false and sideEffect();
print true or sideEffect();
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "false\ntrue\n"
	if out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestNativeClockReturnsNumber(t *testing.T) {
	out, err := runCapture(t, "print clock() >= 0;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "true\n" {
		t.Fatalf("stdout = %q, want %q", out, "true\n")
	}
}
