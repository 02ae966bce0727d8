// SPDX-License-Identifier: Apache-2.0
package regalloc

import (
	"pyrite/internal/ast"
	"pyrite/internal/ir"
)

// Spill-code emission and the outer allocation loop. A vertex colored at or
// beyond K lives in a stack slot, and x86 mov/alu forms take at most one
// memory operand, so offending instructions are split through a fresh
// temporary. The temporaries are flagged unspillable: the next coloring round
// must give them registers, which it does because selection prefers them and
// their live ranges cover only two or three instructions.

// spilled reports whether the name is assigned a stack slot.
func spilled(g *Graph, name string) bool {
	c := g.ColorOf(name)
	return c >= ir.NumRegisters
}

func spilledVar(g *Graph, op ir.Operand) bool {
	return op.IsVar() && spilled(g, op.Name)
}

// GenerateSpillCode rewrites instructions that would materialize with two
// memory operands. It returns the new instruction list and whether any
// temporary was introduced; new temporaries are added to the graph as
// unspillable vertices so the outer loop can carry them forward.
func GenerateSpillCode(insts []ir.Instr, g *Graph, names *ast.NameGen) ([]ir.Instr, bool) {
	out := make([]ir.Instr, 0, len(insts))
	didSpill := false

	newTemp := func() ir.Operand {
		t := ir.Var(names.Temp())
		g.AddVertex(t.Name)
		g.Vertex(t.Name).Unspillable = true
		return t
	}

	for _, in := range insts {
		switch in.Op {
		case ir.OpMovl:
			memToSpill := in.Src.IsMem() && spilledVar(g, in.Dst)
			spillToSpill := spilledVar(g, in.Src) && spilledVar(g, in.Dst) &&
				g.ColorOf(in.Src.Name) != g.ColorOf(in.Dst.Name)
			if memToSpill || spillToSpill {
				t := newTemp()
				out = append(out,
					ir.Instr{Op: ir.OpMovl, Src: in.Src, Dst: t},
					ir.Instr{Op: ir.OpMovl, Src: t, Dst: in.Dst},
				)
				didSpill = true
				continue
			}
		case ir.OpAddl, ir.OpSubl, ir.OpAndl, ir.OpOrl, ir.OpShl, ir.OpShr:
			if spilledVar(g, in.Dst) {
				t := newTemp()
				out = append(out,
					ir.Instr{Op: ir.OpMovl, Src: in.Dst, Dst: t},
					ir.Instr{Op: in.Op, Src: in.Src, Dst: t},
					ir.Instr{Op: ir.OpMovl, Src: t, Dst: in.Dst},
				)
				didSpill = true
				continue
			}
		case ir.OpCmpl:
			// cmpl cannot take two memory operands either
			if spilledVar(g, in.Src) && spilledVar(g, in.Dst) {
				t := newTemp()
				out = append(out,
					ir.Instr{Op: ir.OpMovl, Src: in.Src, Dst: t},
					ir.Instr{Op: ir.OpCmpl, Src: t, Dst: in.Dst},
				)
				didSpill = true
				continue
			}
		}
		out = append(out, in)
	}
	return out, didSpill
}

// Allocation is the result of register allocation for one function.
type Allocation struct {
	Graph *Graph
	Insts []ir.Instr
}

// Allocate colors a function's IR, emitting and re-coloring spill code until
// a full pass introduces no new temporary. Stack-slot colors and unspillable
// flags survive each rebuild for the vertices still present. The optional
// dump hook observes the IR after each spill round.
func Allocate(fnName string, insts []ir.Instr, names *ast.NameGen, dump func(round int, insts []ir.Instr)) (*Allocation, error) {
	g, err := BuildInterference(fnName, insts)
	if err != nil {
		return nil, err
	}
	Color(g)

	cur, didSpill := GenerateSpillCode(insts, g, names)
	round := 1
	for didSpill {
		if dump != nil {
			dump(round, cur)
		}
		next, err := BuildInterference(fnName, cur)
		if err != nil {
			return nil, err
		}
		for _, v := range g.Vertices() {
			carried := next.Vertex(v.Name)
			if carried == nil {
				continue
			}
			if v.Color >= ir.NumRegisters {
				carried.Color = v.Color
			}
			if v.Unspillable {
				carried.Unspillable = true
			}
		}
		Color(next)
		g = next
		cur, didSpill = GenerateSpillCode(cur, g, names)
		round++
	}
	return &Allocation{Graph: g, Insts: cur}, nil
}
