// SPDX-License-Identifier: Apache-2.0
package regalloc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyrite/internal/ir"
)

func clique(names []string) *Graph {
	g := NewGraph()
	for _, n := range names {
		g.AddVertex(n)
	}
	for i, u := range names {
		for _, v := range names[i+1:] {
			g.AddEdge(u, v)
		}
	}
	return g
}

func assertProperColoring(t *testing.T, g *Graph) {
	t.Helper()
	for i, v := range g.Vertices() {
		require.NotEqual(t, ColorNone, v.Color, "vertex %s must be colored", v.Name)
		g.Neighbors(i, func(n *Vertex) {
			if n.Color != ColorNone {
				assert.NotEqual(t, v.Color, n.Color,
					"adjacent %s and %s share color %d", v.Name, n.Name, v.Color)
			}
		})
	}
}

func TestAdjacentVerticesGetDistinctColors(t *testing.T) {
	g := clique([]string{"a", "b", "c", "d"})
	Color(g)
	assertProperColoring(t, g)
}

func TestRegistersPreColoredAtPaletteIndex(t *testing.T) {
	g := NewGraph()
	g.AddVertex(ir.EAX)
	g.AddVertex(ir.ECX)
	g.AddVertex(ir.EDX)
	g.AddVertex("x")
	g.AddEdge("x", ir.EAX)
	Color(g)

	assert.Equal(t, 0, g.ColorOf(ir.EAX))
	assert.Equal(t, 2, g.ColorOf(ir.ECX))
	assert.Equal(t, 3, g.ColorOf(ir.EDX))
	assert.NotEqual(t, 0, g.ColorOf("x"))
}

func TestPaletteExtendsInsteadOfFailing(t *testing.T) {
	names := make([]string, ir.NumRegisters+1)
	for i := range names {
		names[i] = fmt.Sprintf("v%d", i)
	}
	g := clique(names)
	Color(g)
	assertProperColoring(t, g)

	spills := 0
	for _, v := range g.Vertices() {
		if v.Color >= ir.NumRegisters {
			spills++
		}
	}
	assert.Equal(t, 1, spills, "a K+1 clique needs exactly one stack slot")
}

func TestMinimumCandidateChosen(t *testing.T) {
	g := NewGraph()
	g.AddVertex("lone")
	Color(g)
	assert.Equal(t, 0, g.ColorOf("lone"))
}

func TestUnspillableAvoidsStackSlot(t *testing.T) {
	names := make([]string, ir.NumRegisters+1)
	for i := range names {
		names[i] = fmt.Sprintf("v%d", i)
	}
	g := clique(names)
	g.Vertex("v6").Unspillable = true
	Color(g)

	assert.Less(t, g.ColorOf("v6"), ir.NumRegisters,
		"the unspillable vertex must receive a register")
}

func TestCarriedStackColorsWidenPalette(t *testing.T) {
	g := clique([]string{"a", "b"})
	g.Vertex("a").Color = ir.NumRegisters // carried from a previous round
	Color(g)

	assert.Equal(t, ir.NumRegisters, g.ColorOf("a"))
	assert.Equal(t, 0, g.ColorOf("b"))
}
