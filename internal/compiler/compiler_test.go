package compiler

import (
	"strings"
	"testing"

	"github.com/wisplang/wisp/internal/chunk"
)

func compile(t *testing.T, src string) *chunk.Chunk {
	t.Helper()
	c, err := Compile(src)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	return c
}

func TestCompileArithmeticExpression(t *testing.T) {
	c := compile(t, "1 + 2 * 3;")
	want := []chunk.OpCode{
		chunk.OpConstant, // 1
		chunk.OpConstant, // 2
		chunk.OpConstant, // 3
		chunk.OpMultiply,
		chunk.OpAdd,
		chunk.OpPop,
		chunk.OpReturn,
	}
	assertOps(t, c, want)
}

func TestCompileComparisonComposites(t *testing.T) {
	cases := map[string][]chunk.OpCode{
		"1 != 2;": {chunk.OpConstant, chunk.OpConstant, chunk.OpEqual, chunk.OpNot, chunk.OpPop, chunk.OpReturn},
		"1 >= 2;": {chunk.OpConstant, chunk.OpConstant, chunk.OpLess, chunk.OpNot, chunk.OpPop, chunk.OpReturn},
		"1 <= 2;": {chunk.OpConstant, chunk.OpConstant, chunk.OpGreater, chunk.OpNot, chunk.OpPop, chunk.OpReturn},
	}
	for src, want := range cases {
		c := compile(t, src)
		assertOps(t, c, want)
	}
}

func TestCompileGlobalVarDeclarationAndAssignment(t *testing.T) {
	c := compile(t, `var a = 1; a = 2; print a;`)
	want := []chunk.OpCode{
		chunk.OpConstant, chunk.OpDefineGlobal,
		chunk.OpConstant, chunk.OpSetGlobal, chunk.OpPop,
		chunk.OpGetGlobal, chunk.OpPrint,
		chunk.OpReturn,
	}
	assertOps(t, c, want)
}

func TestCompileLocalScope(t *testing.T) {
	c := compile(t, `{ var a = 1; print a; }`)
	want := []chunk.OpCode{
		chunk.OpConstant,  // a's initializer
		chunk.OpGetLocal,  // print a
		chunk.OpPrint,
		chunk.OpPop, // endScope pops the local
		chunk.OpReturn,
	}
	assertOps(t, c, want)
}

func TestCompileErrorsOnSelfReferentialLocalInitializer(t *testing.T) {
	_, err := Compile(`{ var a = a; }`)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if !strings.Contains(err.Error(), "own initializer") {
		t.Fatalf("expected own-initializer error, got: %v", err)
	}
}

func TestCompileErrorsOnDuplicateLocalName(t *testing.T) {
	_, err := Compile(`{ var a = 1; var a = 2; }`)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if !strings.Contains(err.Error(), "Already a variable") {
		t.Fatalf("expected duplicate-name error, got: %v", err)
	}
}

func TestCompileErrorsOnInvalidAssignmentTarget(t *testing.T) {
	_, err := Compile(`1 + 2 = 3;`)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if !strings.Contains(err.Error(), "Invalid assignment target") {
		t.Fatalf("expected invalid-assignment-target error, got: %v", err)
	}
}

func TestCompileReportsMultipleErrors(t *testing.T) {
	_, err := Compile(`var ; var ;`)
	if err == nil {
		t.Fatal("expected compile errors")
	}
	if !strings.Contains(err.Error(), "2 errors occurred") {
		t.Fatalf("expected both errors aggregated, got: %v", err)
	}
}

func assertOps(t *testing.T, c *chunk.Chunk, want []chunk.OpCode) {
	t.Helper()
	var got []chunk.OpCode
	for offset := 0; offset < len(c.Code); {
		op := chunk.OpCode(c.Code[offset])
		got = append(got, op)
		switch op {
		case chunk.OpConstant, chunk.OpGetGlobal, chunk.OpDefineGlobal, chunk.OpSetGlobal,
			chunk.OpGetLocal, chunk.OpSetLocal:
			offset += 2
		default:
			offset++
		}
	}
	if len(got) != len(want) {
		t.Fatalf("opcode count mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("opcode[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}
