// SPDX-License-Identifier: Apache-2.0
package regalloc

import (
	"sort"

	"pyrite/internal/cfg"
	"pyrite/internal/ir"
)

// BuildInterference constructs the interference graph for one function's IR:
// a CFG is built, liveness run to its fixed point, and for every instruction
// the written operand conflicts with everything live after it (minus the
// per-opcode save set, which keeps movl from linking its own source and
// destination). A call clobbers the caller-saved registers, so each of them
// conflicts with everything live across the call.
func BuildInterference(fnName string, insts []ir.Instr) (*Graph, error) {
	flow, err := cfg.Build(fnName, insts)
	if err != nil {
		return nil, err
	}
	flow.ComputeLiveness()

	g := NewGraph()
	addAllVertices(g, insts)

	for _, b := range flow.Blocks {
		for i, in := range b.Insts {
			addEdges(g, in, b.Live[i+1])
		}
	}
	return g, nil
}

// addAllVertices registers every register and variable operand up front so
// that isolated names still get colors.
func addAllVertices(g *Graph, insts []ir.Instr) {
	for _, in := range insts {
		switch in.Op {
		case ir.OpNegl, ir.OpNotl, ir.OpPushl, ir.OpPopl:
			addOperand(g, in.Dst)
		case ir.OpMovl, ir.OpAddl, ir.OpSubl, ir.OpAndl, ir.OpOrl, ir.OpShl, ir.OpShr, ir.OpCmpl:
			addOperand(g, in.Src)
			addOperand(g, in.Dst)
		}
	}
}

// vertexable reports whether an operand participates in allocation:
// immediates, frame-base references and the stack registers do not.
func vertexable(op ir.Operand) bool {
	switch op.Kind {
	case ir.OperandVar:
		return true
	case ir.OperandReg:
		return op.Name != ir.EBP && op.Name != ir.ESP
	}
	return false
}

func addOperand(g *Graph, op ir.Operand) {
	if vertexable(op) {
		g.AddVertex(op.Name)
	}
}

// saveSet returns names exempt from interference with the written operand.
func saveSet(in ir.Instr) map[string]bool {
	set := map[string]bool{}
	switch in.Op {
	case ir.OpMovl:
		if vertexable(in.Src) {
			set[in.Src.Name] = true
		}
		if vertexable(in.Dst) {
			set[in.Dst.Name] = true
		}
	case ir.OpAddl, ir.OpSubl, ir.OpAndl, ir.OpOrl, ir.OpShl, ir.OpShr:
		if vertexable(in.Dst) {
			set[in.Dst.Name] = true
		}
	}
	return set
}

// interferers returns the operands that conflict with the live-after set.
func interferers(in ir.Instr) []string {
	switch in.Op {
	case ir.OpMovl, ir.OpAddl, ir.OpSubl, ir.OpAndl, ir.OpOrl, ir.OpShl, ir.OpShr:
		if vertexable(in.Dst) {
			return []string{in.Dst.Name}
		}
	case ir.OpNegl, ir.OpNotl:
		if vertexable(in.Dst) {
			return []string{in.Dst.Name}
		}
	case ir.OpCall:
		return ir.CallerSaved
	}
	return nil
}

func addEdges(g *Graph, in ir.Instr, liveAfter map[string]bool) {
	names := interferers(in)
	if len(names) == 0 {
		return
	}
	// sorted so that on-demand vertex insertion order, and with it the
	// coloring order, is stable across runs
	live := make([]string, 0, len(liveAfter))
	for v := range liveAfter {
		live = append(live, v)
	}
	sort.Strings(live)

	save := saveSet(in)
	for _, d := range names {
		g.AddVertex(d)
		for _, v := range live {
			if v == d || save[v] {
				continue
			}
			g.AddEdge(d, v)
		}
	}
}
