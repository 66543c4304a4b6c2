// Package vm implements the fetch-decode-dispatch loop that executes
// a compiled chunk: a bounded operand stack, a global table, and one
// case per opcode.
package vm

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wisplang/wisp/internal/chunk"
	"github.com/wisplang/wisp/internal/compiler"
	"github.com/wisplang/wisp/internal/diag"
	"github.com/wisplang/wisp/internal/value"
)

// StackMax is the fixed operand-stack capacity; OpGetLocal/OpSetLocal
// address slots within it by a single byte, so it can never need to
// grow past what a byte operand can reach.
const StackMax = 256

// VM executes one chunk at a time. Globals persist across Interpret
// calls on the same VM, matching a REPL session's expectations.
type VM struct {
	chunk    *chunk.Chunk
	ip       int
	stack    [StackMax]value.Value
	stackTop int

	globals map[string]value.Value
}

// New returns a VM with an empty global table.
func New() *VM {
	return &VM{globals: make(map[string]value.Value)}
}

// Interpret compiles and runs src. A compile error is returned as-is
// (already a *multierror.Error of *diag.CompileError); a runtime
// error is a *diag.RuntimeError, and the stack is reset before it is
// returned so a REPL can keep going.
func (vm *VM) Interpret(src string) error {
	c, err := compiler.Compile(src)
	if err != nil {
		return err
	}
	return vm.Run(c)
}

// Run executes an already-compiled chunk, for callers (the cache-aware
// CLI driver) that compiled once and want to avoid compiling twice.
func (vm *VM) Run(c *chunk.Chunk) error {
	vm.chunk = c
	vm.ip = 0
	vm.stackTop = 0
	return vm.run()
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
}

func (vm *VM) run() error {
	readByte := func() byte {
		b := vm.chunk.Code[vm.ip]
		vm.ip++
		return b
	}
	readConstant := func() value.Value {
		return vm.chunk.ReadConstant(readByte())
	}

	for {
		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logrus.Debugln(vm.stackTrace())
			_, dump := vm.chunk.DisassembleInstruction(vm.ip)
			logrus.Debugln(dump)
		}

		switch op := chunk.OpCode(readByte()); op {
		case chunk.OpConstant:
			vm.push(readConstant())

		case chunk.OpNil:
			vm.push(value.NewNil())
		case chunk.OpTrue:
			vm.push(value.NewBool(true))
		case chunk.OpFalse:
			vm.push(value.NewBool(false))
		case chunk.OpPop:
			vm.pop()

		case chunk.OpGetLocal:
			slot := readByte()
			vm.push(vm.stack[slot])
		case chunk.OpSetLocal:
			slot := readByte()
			vm.stack[slot] = vm.peek(0)

		case chunk.OpGetGlobal:
			name := vm.chunk.ReadConstant(readByte()).Str
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError("Undefined variable %s.", name)
			}
			vm.push(v)
		case chunk.OpDefineGlobal:
			name := vm.chunk.ReadConstant(readByte()).Str
			vm.globals[name] = vm.peek(0)
			vm.pop()
		case chunk.OpSetGlobal:
			name := vm.chunk.ReadConstant(readByte()).Str
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError("Undefined variable %s.", name)
			}
			// Assignment is an expression: the value stays on the stack.
			vm.globals[name] = vm.peek(0)

		case chunk.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.NewBool(a.Equal(b)))
		case chunk.OpGreater:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.NewBool(a > b) }); err != nil {
				return err
			}
		case chunk.OpLess:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.NewBool(a < b) }); err != nil {
				return err
			}

		case chunk.OpAdd:
			b, a := vm.peek(0), vm.peek(1)
			switch {
			case a.Type == value.Number && b.Type == value.Number:
				vm.pop()
				vm.pop()
				vm.push(value.NewNumber(a.Num + b.Num))
			case a.Type == value.Str && b.Type == value.Str:
				vm.pop()
				vm.pop()
				vm.push(value.NewString(a.Str + b.Str))
			default:
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}
		case chunk.OpSubtract:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.NewNumber(a - b) }); err != nil {
				return err
			}
		case chunk.OpMultiply:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.NewNumber(a * b) }); err != nil {
				return err
			}
		case chunk.OpDivide:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.NewNumber(a / b) }); err != nil {
				return err
			}

		case chunk.OpNot:
			vm.push(value.NewBool(vm.pop().IsFalsey()))
		case chunk.OpNegate:
			if vm.peek(0).Type != value.Number {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(value.NewNumber(-vm.pop().Num))

		case chunk.OpPrint:
			fmt.Println(vm.pop())

		case chunk.OpReturn:
			return nil

		default:
			return vm.runtimeError("Unknown opcode '%d'.", op)
		}
	}
}

func (vm *VM) binaryNumberOp(f func(a, b float64) value.Value) error {
	if vm.peek(0).Type != value.Number || vm.peek(1).Type != value.Number {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop()
	a := vm.pop()
	vm.push(f(a.Num, b.Num))
	return nil
}

func (vm *VM) runtimeError(format string, args ...any) error {
	line := vm.chunk.GetLine(vm.ip - 1)
	err := &diag.RuntimeError{Line: line, Msg: fmt.Sprintf(format, args...)}
	vm.resetStack()
	return err
}

func (vm *VM) stackTrace() string {
	var b strings.Builder
	b.WriteString("          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(&b, "[ %s ]", vm.stack[i])
	}
	return b.String()
}
