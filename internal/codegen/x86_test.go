// SPDX-License-Identifier: Apache-2.0
package codegen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyrite/internal/ast"
	"pyrite/internal/ir"
	"pyrite/internal/regalloc"
)

func allocate(t *testing.T, name string, insts []ir.Instr) *regalloc.Allocation {
	t.Helper()
	alloc, err := regalloc.Allocate(name, insts, ast.NewNameGen(), nil)
	require.NoError(t, err)
	return alloc
}

func TestEmptyFunctionHasEmptyFrame(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(0), ir.Reg(ir.EAX))
	alloc := allocate(t, "f", b.Take())

	text := EmitFunction("f", alloc)

	assert.Contains(t, text, ".globl f\n")
	assert.Contains(t, text, "f:\n")
	assert.Contains(t, text, "subl $0, %esp")
	assert.Contains(t, text, "addl $0, %esp")
	assert.NotContains(t, text, "(%ebp)")

	// prologue saves and epilogue restores the callee-saved registers in
	// mirrored order
	idxProl := strings.Index(text, "pushl %edi\npushl %esi\npushl %ebx")
	idxEpil := strings.Index(text, "popl %ebx\npopl %esi\npopl %edi")
	assert.Greater(t, idxProl, -1)
	assert.Greater(t, idxEpil, idxProl)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "ret"))
}

func TestVariablesSubstitutedByAssignedRegisters(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(5), ir.Var("x")).
		Pushl(ir.Var("x"))
	alloc := allocate(t, "f", b.Take())

	text := EmitFunction("f", alloc)
	reg := "%" + ir.Registers[alloc.Graph.ColorOf("x")]
	assert.Contains(t, text, fmt.Sprintf("movl $5, %s", reg))
	assert.Contains(t, text, fmt.Sprintf("pushl %s", reg))
	assert.NotContains(t, text, " x")
}

func TestCoalescedMoveElided(t *testing.T) {
	// x = 5; y = x; print-like use of y: x and y do not interfere, so they
	// share a home and the copy disappears
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(5), ir.Var("x")).
		Movl(ir.Var("x"), ir.Var("y")).
		Pushl(ir.Var("y"))
	alloc := allocate(t, "f", b.Take())

	require.Equal(t, alloc.Graph.ColorOf("x"), alloc.Graph.ColorOf("y"))
	text := EmitFunction("f", alloc)
	reg := "%" + ir.Registers[alloc.Graph.ColorOf("x")]
	assert.NotContains(t, text, fmt.Sprintf("movl %s, %s", reg, reg))
}

func TestSpilledVariableUsesFrameSlot(t *testing.T) {
	// K+1 simultaneously live variables leave exactly one on the stack
	b := ir.NewBuilder()
	b.Label("f")
	for i := 0; i <= ir.NumRegisters; i++ {
		b.Movl(ir.Imm(int64(i)), ir.Var(fmt.Sprintf("v%d", i)))
	}
	for i := 0; i <= ir.NumRegisters; i++ {
		b.Pushl(ir.Var(fmt.Sprintf("v%d", i)))
	}
	alloc := allocate(t, "f", b.Take())

	assert.Equal(t, 4, FrameSize(alloc.Graph))
	text := EmitFunction("f", alloc)
	assert.Contains(t, text, "-4(%ebp)")
	assert.NotContains(t, text, "-8(%ebp)")
	assert.Contains(t, text, "subl $4, %esp")
}

func TestIndirectCallThroughRegister(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Reg(ir.EAX), ir.Var("fptr")).
		Call(ir.Var("fptr"))
	alloc := allocate(t, "f", b.Take())

	text := EmitFunction("f", alloc)
	assert.Contains(t, text, "call *%")
}

func TestDirectCallKeepsSymbol(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Call(ir.Sym("print_any")).
		Addl(ir.Imm(4), ir.Reg(ir.ESP))
	alloc := allocate(t, "f", b.Take())

	text := EmitFunction("f", alloc)
	assert.Contains(t, text, "call print_any\n")
	assert.NotContains(t, text, "call *")
}

func TestFrameSizeGrowsWithSpills(t *testing.T) {
	g := regalloc.NewGraph()
	g.AddVertex("a")
	g.Vertex("a").Color = ir.NumRegisters + 2
	assert.Equal(t, 12, FrameSize(g))
}

func TestParameterLoadsKeepPositiveOffsets(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("lambda_0").
		Movl(ir.Mem(8), ir.Var("fvs")).
		Pushl(ir.Var("fvs"))
	alloc := allocate(t, "lambda_0", b.Take())

	text := EmitFunction("lambda_0", alloc)
	assert.Contains(t, text, "8(%ebp)")
}
