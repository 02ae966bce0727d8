// SPDX-License-Identifier: Apache-2.0
package regalloc

import "pyrite/internal/ir"

// Graph coloring. Colors 0..K-1 are the machine registers in palette order;
// colors at and above K are stack slots. Register vertices are pre-colored at
// their palette index. The loop repeatedly picks the most constrained
// uncolored vertex (smallest candidate set, ties broken by the unspillable
// flag and then by degree) and gives it the minimum available color,
// extending the palette by one stack slot when a vertex has no candidate
// left. Running out of colors is therefore never an error.

// Color assigns a color to every vertex in the graph.
func Color(g *Graph) {
	for _, v := range g.verts {
		if v.Kind == KindRegister && v.Color == ColorNone {
			v.Color = paletteIndex(v.Name)
		}
	}

	// the palette covers the registers plus one slot per vertex colored up
	// front: pre-colored registers and stack slots carried over from a
	// previous spill round
	numColors := ir.NumRegisters
	for _, v := range g.verts {
		if v.Color != ColorNone {
			numColors++
		}
	}

	for _, v := range g.verts {
		v.candidates = map[int]bool{}
		for c := 0; c < numColors; c++ {
			v.candidates[c] = true
		}
	}

	for {
		// propagate every assigned color into the neighbors' candidate sets
		for i, v := range g.verts {
			if v.Color == ColorNone {
				continue
			}
			v.candidates = map[int]bool{v.Color: true}
			g.Neighbors(i, func(n *Vertex) {
				delete(n.candidates, v.Color)
			})
		}

		chosen := g.mostConstrained()
		if chosen == nil {
			return
		}

		if len(chosen.candidates) == 0 {
			color := numColors
			numColors++
			for _, v := range g.verts {
				if v.Color == ColorNone {
					v.candidates[color] = true
				}
			}
			chosen.Color = color
			continue
		}
		chosen.Color = minCandidate(chosen.candidates)
	}
}

// mostConstrained picks the uncolored vertex with the fewest candidate
// colors, preferring unspillable vertices and then higher degree on ties.
// Arena order settles anything left, keeping the result deterministic.
func (g *Graph) mostConstrained() *Vertex {
	var best *Vertex
	bestDegree := 0
	for i, v := range g.verts {
		if v.Color != ColorNone {
			continue
		}
		degree := g.Degree(i)
		if best == nil || betterCandidate(v, degree, best, bestDegree) {
			best = v
			bestDegree = degree
		}
	}
	return best
}

func betterCandidate(v *Vertex, degree int, best *Vertex, bestDegree int) bool {
	switch {
	case len(v.candidates) != len(best.candidates):
		return len(v.candidates) < len(best.candidates)
	case v.Unspillable != best.Unspillable:
		return v.Unspillable
	case degree != bestDegree:
		return degree > bestDegree
	}
	return false
}

func minCandidate(set map[int]bool) int {
	min := -1
	for c := range set {
		if min == -1 || c < min {
			min = c
		}
	}
	return min
}

func paletteIndex(reg string) int {
	for i, r := range ir.Registers {
		if r == reg {
			return i
		}
	}
	return ColorNone
}
