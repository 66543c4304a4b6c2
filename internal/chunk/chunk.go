// Package chunk holds a compiled unit: a byte-coded instruction stream,
// a parallel line-number table for diagnostics, and a constant pool.
package chunk

import (
	"fmt"
	"strings"

	"github.com/wisplang/wisp/internal/value"
)

type OpCode byte

const (
	OpConstant OpCode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpReturn
)

var opNames = map[OpCode]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpReturn:       "OP_RETURN",
}

func (op OpCode) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return fmt.Sprintf("OP_%d", byte(op))
}

// MaxConstants is the largest constant-pool index a one-byte operand
// can address; the compiler must reject additions beyond this.
const MaxConstants = 255

// Chunk is mutated only by its owning compiler and is read-only
// thereafter. code, lines, and constants are separate parallel arrays;
// len(Code) always equals len(Lines).
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

func New() *Chunk {
	return &Chunk{}
}

// Write appends one instruction byte, recording the source line that
// produced it.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index.
// The caller is responsible for rejecting indices beyond MaxConstants.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

func (c *Chunk) ReadConstant(index byte) value.Value {
	return c.Constants[index]
}

// GetLine returns the source line that produced the byte at offset.
func (c *Chunk) GetLine(offset int) int {
	return c.Lines[offset]
}

// Disassemble renders every instruction in the chunk as human-readable
// text, in the clox disassembler's column layout.
func (c *Chunk) Disassemble(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		next, line := c.disassembleInstruction(&b, offset)
		_ = line
		offset = next
	}
	return b.String()
}

// DisassembleInstruction renders the single instruction at offset and
// returns the offset of the instruction that follows it.
func (c *Chunk) DisassembleInstruction(offset int) (int, string) {
	var b strings.Builder
	next, _ := c.disassembleInstruction(&b, offset)
	return next, strings.TrimSuffix(b.String(), "\n")
}

func (c *Chunk) disassembleInstruction(b *strings.Builder, offset int) (int, int) {
	fmt.Fprintf(b, "%04d ", offset)
	line := c.Lines[offset]
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(b, "   | ")
	} else {
		fmt.Fprintf(b, "%4d ", line)
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal:
		return c.constantInstruction(b, op, offset), line
	case OpGetLocal, OpSetLocal:
		return c.byteInstruction(b, op, offset), line
	default:
		fmt.Fprintf(b, "%s\n", op)
		return offset + 1, line
	}
}

func (c *Chunk) constantInstruction(b *strings.Builder, op OpCode, offset int) int {
	index := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'\n", op, index, c.Constants[index])
	return offset + 2
}

func (c *Chunk) byteInstruction(b *strings.Builder, op OpCode, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d\n", op, slot)
	return offset + 2
}
