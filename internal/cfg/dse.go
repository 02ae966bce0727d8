// SPDX-License-Identifier: Apache-2.0
package cfg

import "pyrite/internal/ir"

// Dead-store elimination. A store is dead when its destination is a named
// variable that is not live immediately after the instruction. Calls, pushes,
// compares, jumps and labels always stay, and so do writes to machine
// registers, which are ABI-visible. Elimination and liveness iterate together
// until the instruction count stops shrinking.

// dseCandidates are the opcodes whose only effect is their destination write.
var dseCandidates = map[ir.Opcode]bool{
	ir.OpMovl: true,
	ir.OpAddl: true,
	ir.OpSubl: true,
	ir.OpAndl: true,
	ir.OpOrl:  true,
	ir.OpShl:  true,
	ir.OpShr:  true,
	ir.OpNegl: true,
	ir.OpNotl: true,
}

// EliminateDeadStores runs DSE to its fixed point and returns the surviving
// flat instruction list.
func (g *Graph) EliminateDeadStores() []ir.Instr {
	for {
		before := g.InstCount()
		g.dsePass()
		if g.InstCount() == before {
			break
		}
	}
	return g.Instructions()
}

// dsePass recomputes liveness, marks dead stores, then filters them out in a
// second sweep so that positions never shift mid-scan.
func (g *Graph) dsePass() {
	g.ComputeLiveness()
	for _, b := range g.Blocks {
		dead := make([]bool, len(b.Insts))
		for i, in := range b.Insts {
			if !dseCandidates[in.Op] {
				continue
			}
			dst := ir.WriteDst(in)
			if dst.IsVar() && !b.Live[i+1][dst.Name] {
				dead[i] = true
			}
		}

		kept := b.Insts[:0:0]
		for i, in := range b.Insts {
			if !dead[i] {
				kept = append(kept, in)
			}
		}
		b.Insts = kept
		b.Live = nil
	}
}
