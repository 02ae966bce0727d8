// SPDX-License-Identifier: Apache-2.0
package regalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyrite/internal/ir"
)

func TestMoveDoesNotLinkSourceAndDestination(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(1), ir.Var("c")).
		Movl(ir.Var("a"), ir.Var("b")).
		Pushl(ir.Var("b")).
		Pushl(ir.Var("c"))
	g, err := BuildInterference("f", b.Take())
	require.NoError(t, err)

	// c is live across the move, so it conflicts with b; the move's own
	// source does not
	assert.True(t, g.Interferes("b", "c"))
	assert.False(t, g.Interferes("a", "b"))
}

func TestCallClobbersCallerSaved(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(1), ir.Var("x")).
		Call(ir.Sym("input")).
		Pushl(ir.Var("x"))
	g, err := BuildInterference("f", b.Take())
	require.NoError(t, err)

	for _, reg := range ir.CallerSaved {
		assert.True(t, g.Interferes(reg, "x"), "%s must conflict with x", reg)
	}
	// callee-saved registers carry no call edges
	assert.False(t, g.Interferes(ir.EBX, "x"))
}

func TestSimultaneouslyLiveVariablesFormClique(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(1), ir.Var("a")).
		Movl(ir.Imm(2), ir.Var("b")).
		Movl(ir.Imm(3), ir.Var("c")).
		Pushl(ir.Var("a")).
		Pushl(ir.Var("b")).
		Pushl(ir.Var("c"))
	g, err := BuildInterference("f", b.Take())
	require.NoError(t, err)

	names := []string{"a", "b", "c"}
	for _, u := range names {
		for _, v := range names {
			if u != v {
				assert.True(t, g.Interferes(u, v), "%s-%s must be an edge", u, v)
			}
		}
	}
}

func TestNoEdgesBetweenIndependentNames(t *testing.T) {
	// x dies before y is written
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(5), ir.Var("x")).
		Movl(ir.Var("x"), ir.Var("y")).
		Pushl(ir.Var("y"))
	g, err := BuildInterference("f", b.Take())
	require.NoError(t, err)

	assert.False(t, g.Interferes("x", "y"))
}

func TestImmediatesAndFrameReferencesExcluded(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Mem(8), ir.Var("p")).
		Addl(ir.Imm(4), ir.Reg(ir.ESP)).
		Pushl(ir.Var("p"))
	g, err := BuildInterference("f", b.Take())
	require.NoError(t, err)

	assert.True(t, g.Has("p"))
	assert.False(t, g.Has(ir.ESP))
	assert.False(t, g.Has(ir.EBP))
}

func TestNoSelfLoops(t *testing.T) {
	b := ir.NewBuilder()
	b.Label("f").
		Movl(ir.Imm(1), ir.Var("a")).
		Addl(ir.Var("a"), ir.Var("a")).
		Pushl(ir.Var("a"))
	g, err := BuildInterference("f", b.Take())
	require.NoError(t, err)

	assert.False(t, g.Interferes("a", "a"))
}
