package ember

import (
	"bytes"
	"testing"
)

func TestInterpretOK(t *testing.T) {
	var buf bytes.Buffer
	vm := NewVM(WithOutput(&buf))
	result, err := vm.Interpret("print 1 + 1;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != ResultOK {
		t.Fatalf("result = %v, want OK", result)
	}
	if buf.String() != "2\n" {
		t.Fatalf("stdout = %q", buf.String())
	}
}

func TestInterpretCompileError(t *testing.T) {
	result, err := Interpret("var ;")
	if result != ResultCompileError {
		t.Fatalf("result = %v, want CompileError", result)
	}
	if err == nil {
		t.Fatalf("want a non-nil error")
	}
	if _, ok := err.(*CompileErrors); !ok {
		t.Fatalf("want *CompileErrors, got %T", err)
	}
}

func TestInterpretRuntimeError(t *testing.T) {
	result, err := Interpret("print x;")
	if result != ResultRuntimeError {
		t.Fatalf("result = %v, want RuntimeError", result)
	}
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("want *RuntimeError, got %T", err)
	}
}

func TestVMPersistsGlobalsAcrossCalls(t *testing.T) {
	var buf bytes.Buffer
	vm := NewVM(WithOutput(&buf))
	if _, err := vm.Interpret("var a = 1;"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := vm.Interpret("print a;"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "1\n" {
		t.Fatalf("stdout = %q", buf.String())
	}
}
