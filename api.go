// Package ember is the embeddable core of a small Lox-family scripting
// language: a scanner, a single-pass Pratt compiler, and a stack-based
// bytecode VM. The package never touches a filesystem, a terminal, or
// os.Exit — that is cmd/ember's job.
package ember

import (
	"errors"
	"io"

	"github.com/xirelogy/go-ember/internal/vm"
)

// Result is the three-valued outcome of compiling and running a program.
type Result int

const (
	ResultOK Result = iota
	ResultCompileError
	ResultRuntimeError
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultCompileError:
		return "CompileError"
	case ResultRuntimeError:
		return "RuntimeError"
	default:
		return "Unknown"
	}
}

// RuntimeError is a type alias so callers can errors.As into the concrete
// error without reaching into the internal package.
type RuntimeError = vm.RuntimeError

// FrameTrace is a type alias for one entry of a RuntimeError's stack trace.
type FrameTrace = vm.FrameTrace

// CompileErrors aggregates every message reported by one compile pass.
type CompileErrors = vm.CompileErrors

// Option configures a VM.
type Option = vm.Option

// WithTrace enables per-instruction execution tracing.
func WithTrace(enabled bool) Option { return vm.WithTrace(enabled) }

// WithDisassemble enables chunk disassembly after a successful compile.
func WithDisassemble(enabled bool) Option { return vm.WithDisassemble(enabled) }

// WithOutput redirects print and debug output.
func WithOutput(w io.Writer) Option {
	return vm.WithOutput(w)
}

// VM is a reusable interpreter instance. Globals persist across calls to
// Interpret, which is what lets a REPL build on prior definitions.
type VM struct {
	inner *vm.VM
}

// NewVM constructs a VM with every built-in native installed.
func NewVM(opts ...Option) *VM {
	return &VM{inner: vm.New(opts...)}
}

// Interpret compiles and runs source against this VM's persistent state.
func (v *VM) Interpret(source string) (Result, error) {
	err := v.inner.Interpret(source)
	return classify(err)
}

// Interpret is the single-shot convenience form: a fresh VM per call.
func Interpret(source string) (Result, error) {
	return NewVM().Interpret(source)
}

func classify(err error) (Result, error) {
	if err == nil {
		return ResultOK, nil
	}
	var ce *CompileErrors
	if errors.As(err, &ce) {
		return ResultCompileError, err
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return ResultRuntimeError, err
	}
	return ResultRuntimeError, err
}
