// SPDX-License-Identifier: Apache-2.0
package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyrite/internal/ir"
)

func runLVN(t *testing.T, insts []ir.Instr) []ir.Instr {
	t.Helper()
	g, err := Build("f", insts)
	require.NoError(t, err)
	out, err := g.RunLVN()
	require.NoError(t, err)
	return out
}

func TestRecurrentAdditionBecomesCopy(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(1), ir.Var("a")).
		Movl(ir.Imm(2), ir.Var("b")).
		Movl(ir.Var("a"), ir.Var("x")).
		Addl(ir.Var("b"), ir.Var("x")).
		Movl(ir.Var("a"), ir.Var("y")).
		Addl(ir.Var("b"), ir.Var("y")).
		Pushl(ir.Var("x")).
		Pushl(ir.Var("y"))
	out := runLVN(t, b.Take())

	assert.Equal(t, "movl x, y", out[6].String(),
		"the second a+b must become a copy of the first result")
}

func TestStaleRepresentativeBlocksRewrite(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(1), ir.Var("a")).
		Movl(ir.Imm(5), ir.Var("x")).
		Movl(ir.Var("x"), ir.Var("y")).
		Addl(ir.Var("a"), ir.Var("x")).
		Movl(ir.Imm(9), ir.Var("x")).
		Addl(ir.Var("a"), ir.Var("y")).
		Pushl(ir.Var("x")).
		Pushl(ir.Var("y"))
	out := runLVN(t, b.Take())

	// x no longer holds a+5 when the second addition runs
	assert.Equal(t, "addl a, y", out[6].String())
}

func TestImmediateAdditionRewrites(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(5), ir.Var("b")).
		Movl(ir.Var("b"), ir.Var("c")).
		Addl(ir.Imm(1), ir.Var("b")).
		Addl(ir.Imm(1), ir.Var("c")).
		Pushl(ir.Var("b")).
		Pushl(ir.Var("c"))
	out := runLVN(t, b.Take())

	// c holds the same value b held, so c+1 is b
	assert.Equal(t, "movl b, c", out[4].String())
}

// Executing the rewritten block must leave every variable with the value the
// original block computes. The immediate-keyed form keys the destination by its
// value number, not its name, so the second b+1 gets a fresh key and stays an
// addition.
func TestOverwrittenDestinationNotRewritten(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(5), ir.Var("b")).
		Addl(ir.Imm(1), ir.Var("b")).
		Addl(ir.Imm(1), ir.Var("b")).
		Pushl(ir.Var("b"))
	out := runLVN(t, b.Take())

	assert.Equal(t, "addl $1, b", out[2].String())
	assert.Equal(t, "addl $1, b", out[3].String())
}

func TestLVNIsBlockLocal(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(5), ir.Var("a")).
		Movl(ir.Var("a"), ir.Var("x")).
		Addl(ir.Imm(1), ir.Var("x")).
		Jmp("next").
		Label("next").
		Movl(ir.Var("a"), ir.Var("y")).
		Addl(ir.Imm(1), ir.Var("y")).
		Pushl(ir.Var("x")).
		Pushl(ir.Var("y"))
	out := runLVN(t, b.Take())

	// the state does not cross the block boundary, so the second block's
	// a+1 is not folded onto x
	assert.Equal(t, "addl $1, y", out[7].String())
}

func TestPassThroughOpcodesInvalidateTheirWrite(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(1), ir.Var("a")).
		Movl(ir.Imm(5), ir.Var("x")).
		Movl(ir.Var("x"), ir.Var("y")).
		Addl(ir.Var("a"), ir.Var("x")).
		Negl(ir.Var("x")).
		Addl(ir.Var("a"), ir.Var("y")).
		Pushl(ir.Var("x")).
		Pushl(ir.Var("y"))
	out := runLVN(t, b.Take())

	// negl gave x a fresh value, so no valid variable represents a+<old x>
	// and the second addition must stay
	assert.Equal(t, "addl a, y", out[6].String())
}

func TestRegisterDestinationsUntouched(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(1), ir.Reg(ir.EAX)).
		Addl(ir.Imm(2), ir.Reg(ir.EAX))
	insts := b.Take()
	out := runLVN(t, insts)
	assert.Equal(t, insts, out)
}
