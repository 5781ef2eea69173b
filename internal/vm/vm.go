// Package vm implements the stack-based virtual machine: call-frame
// discipline, global/local resolution, and the runtime value model's
// operators.
package vm

import (
	"fmt"
	"io"

	"github.com/xirelogy/go-ember/internal/bytecode"
	"github.com/xirelogy/go-ember/internal/compiler"
	"github.com/xirelogy/go-ember/internal/runtime"

	_ "github.com/xirelogy/go-ember/internal/natives/clock"
	_ "github.com/xirelogy/go-ember/internal/natives/input"
)

// FramesMax bounds recursion depth; StackMax bounds the value stack.
const (
	FramesMax = 64
	StackMax  = FramesMax * 256
)

type frame struct {
	fn          *bytecode.FunctionObject
	ip          int
	valueOffset int
}

// VM owns the value stack, the call-frame stack, and the global
// environment. Globals persist across successive Interpret calls on the
// same VM so a REPL can build on prior definitions.
type VM struct {
	stack   []bytecode.Value
	frames  []frame
	globals map[string]bytecode.Value

	trace       bool
	disassemble bool
	out         io.Writer
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithTrace enables per-instruction tracing (stack contents + decoded
// instruction) during execution.
func WithTrace(enabled bool) Option {
	return func(vm *VM) { vm.trace = enabled }
}

// WithDisassemble enables chunk disassembly after every successful compile.
func WithDisassemble(enabled bool) Option {
	return func(vm *VM) { vm.disassemble = enabled }
}

// WithOutput sends print/debug output to w. Without it, that output is
// discarded.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// New builds a fresh VM with every registered native installed into
// globals.
func New(opts ...Option) *VM {
	vm := &VM{
		globals: make(map[string]bytecode.Value),
		out:     io.Discard,
	}
	for _, spec := range runtime.All() {
		vm.globals[spec.Name] = bytecode.Native(&bytecode.NativeFunctionObject{Name: spec.Name, Fn: spec.Handler})
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Interpret compiles and runs source against this VM. Returning nil means
// the program ran to completion; a *compiler-reported error set is
// returned as *CompileErrors, and an aborted run as *RuntimeError.
func (vm *VM) Interpret(source string) error {
	fn, errs := compiler.Compile(source)
	if fn == nil {
		return &CompileErrors{Messages: errs}
	}

	if vm.disassemble {
		bytecode.Disassemble(vm.out, &fn.Chunk, fn.Name)
	}

	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.push(bytecode.Function(fn))
	if err := vm.call(bytecode.Function(fn), 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) push(v bytecode.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() bytecode.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) bytecode.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) currentFrame() *frame {
	return &vm.frames[len(vm.frames)-1]
}

func (vm *VM) readByte(fr *frame) byte {
	b := fr.fn.Chunk.Code[fr.ip]
	fr.ip++
	return b
}

func (vm *VM) readShort(fr *frame) int {
	hi := fr.fn.Chunk.Code[fr.ip]
	lo := fr.fn.Chunk.Code[fr.ip+1]
	fr.ip += 2
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readConstant(fr *frame) bytecode.Value {
	return fr.fn.Chunk.Constants[vm.readByte(fr)]
}

// run is the dispatch loop: fetch one opcode byte from the current frame
// and execute it, until the top-level frame returns or a runtime error
// aborts the run.
func (vm *VM) run() error {
	for {
		fr := vm.currentFrame()

		if len(vm.stack) > StackMax {
			return vm.runtimeError("Stack overflow.")
		}

		if vm.trace {
			fmt.Fprint(vm.out, "          ")
			for _, v := range vm.stack {
				fmt.Fprintf(vm.out, "[ %s ]", v)
			}
			fmt.Fprintln(vm.out)
			bytecode.DisassembleInstruction(vm.out, &fr.fn.Chunk, fr.ip)
		}

		op := bytecode.Op(vm.readByte(fr))
		switch op {
		case bytecode.OpConstant:
			vm.push(vm.readConstant(fr))

		case bytecode.OpNil:
			vm.push(bytecode.Nil)
		case bytecode.OpTrue:
			vm.push(bytecode.Bool(true))
		case bytecode.OpFalse:
			vm.push(bytecode.Bool(false))
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpDefineGlobal:
			name := vm.readConstant(fr).Str
			vm.globals[name] = vm.pop()

		case bytecode.OpGetGlobal:
			name := vm.readConstant(fr).Str
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError(fmt.Sprintf("Undefined variable '%s'.", name))
			}
			vm.push(v)

		case bytecode.OpSetGlobal:
			name := vm.readConstant(fr).Str
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError(fmt.Sprintf("Undefined variable '%s'.", name))
			}
			vm.globals[name] = vm.peek(0)

		case bytecode.OpGetLocal:
			slot := vm.readByte(fr)
			vm.push(vm.stack[fr.valueOffset+int(slot)])

		case bytecode.OpSetLocal:
			slot := vm.readByte(fr)
			vm.stack[fr.valueOffset+int(slot)] = vm.peek(0)

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(bytecode.Bool(a.Equal(b)))

		case bytecode.OpGreater:
			if err := vm.binaryNumeric(func(a, b float64) bytecode.Value { return bytecode.Bool(a > b) }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := vm.binaryNumeric(func(a, b float64) bytecode.Value { return bytecode.Bool(a < b) }); err != nil {
				return err
			}

		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.binaryNumeric(func(a, b float64) bytecode.Value { return bytecode.Number(a - b) }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.binaryNumeric(func(a, b float64) bytecode.Value { return bytecode.Number(a * b) }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.binaryNumeric(func(a, b float64) bytecode.Value { return bytecode.Number(a / b) }); err != nil {
				return err
			}

		case bytecode.OpNegate:
			if vm.peek(0).Kind != bytecode.KindNumber {
				return vm.runtimeError("Operand must be a number.")
			}
			v := vm.pop()
			vm.push(bytecode.Number(-v.Num))

		case bytecode.OpNot:
			vm.push(bytecode.Bool(vm.pop().IsFalsy()))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.out, vm.pop().String())

		case bytecode.OpJump:
			offset := vm.readShort(fr)
			fr.ip += offset
		case bytecode.OpJumpIfFalse:
			offset := vm.readShort(fr)
			if vm.peek(0).IsFalsy() {
				fr.ip += offset
			}
		case bytecode.OpLoop:
			offset := vm.readShort(fr)
			fr.ip -= offset

		case bytecode.OpCall:
			argc := int(vm.readByte(fr))
			callee := vm.peek(argc)
			if err := vm.call(callee, argc); err != nil {
				return err
			}

		case bytecode.OpClosure:
			vm.push(vm.readConstant(fr))

		case bytecode.OpReturn:
			result := vm.pop()
			departed := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				vm.pop()
				return nil
			}
			vm.stack = vm.stack[:departed.valueOffset]
			vm.push(result)

		default:
			return vm.runtimeError(fmt.Sprintf("Unknown opcode 0x%02X.", byte(op)))
		}
	}
}

func (vm *VM) binaryNumeric(f func(a, b float64) bytecode.Value) error {
	b := vm.pop()
	a := vm.pop()
	if a.Kind != bytecode.KindNumber || b.Kind != bytecode.KindNumber {
		return vm.runtimeError("Operands must be numbers.")
	}
	vm.push(f(a.Num, b.Num))
	return nil
}

// add implements the ADD opcode's overload set: number+number, string+
// string, and the pragmatic number<->string coercion extension.
func (vm *VM) add() error {
	b := vm.pop()
	a := vm.pop()
	switch {
	case a.Kind == bytecode.KindNumber && b.Kind == bytecode.KindNumber:
		vm.push(bytecode.Number(a.Num + b.Num))
	case a.Kind == bytecode.KindString && b.Kind == bytecode.KindString:
		vm.push(bytecode.String(a.Str + b.Str))
	case a.Kind == bytecode.KindNumber && b.Kind == bytecode.KindString:
		vm.push(bytecode.String(a.String() + b.Str))
	case a.Kind == bytecode.KindString && b.Kind == bytecode.KindNumber:
		vm.push(bytecode.String(a.Str + b.String()))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

func (vm *VM) call(callee bytecode.Value, argc int) error {
	switch callee.Kind {
	case bytecode.KindFunction:
		fn := callee.Fn
		if argc != fn.Arity {
			return vm.runtimeError(fmt.Sprintf("Expected %d arguments but got %d.", fn.Arity, argc))
		}
		if len(vm.frames) == FramesMax {
			return vm.runtimeError("Stack overflow.")
		}
		vm.frames = append(vm.frames, frame{fn: fn, valueOffset: len(vm.stack) - argc - 1})
		return nil

	case bytecode.KindNativeFunction:
		args := vm.stack[len(vm.stack)-argc:]
		result, err := callee.Native.Fn(argc, args)
		if err != nil {
			return vm.runtimeError(err.Error())
		}
		vm.stack = vm.stack[:len(vm.stack)-argc-1]
		vm.push(result)
		return nil

	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

// runtimeError builds a *RuntimeError carrying the current frame stack
// (newest first) and resets VM state, matching the contract that the first
// runtime error terminates the run.
func (vm *VM) runtimeError(message string) error {
	frames := make([]FrameTrace, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := vm.frames[i]
		line := 0
		if fr.ip-1 >= 0 && fr.ip-1 < len(fr.fn.Chunk.Lines) {
			line = fr.fn.Chunk.Lines[fr.ip-1]
		}
		frames = append(frames, FrameTrace{FunctionName: fr.fn.String(), Line: line})
	}
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	return &RuntimeError{Message: message, Frames: frames}
}
