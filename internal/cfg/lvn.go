// SPDX-License-Identifier: Apache-2.0
package cfg

import (
	"fmt"

	"pyrite/internal/errors"
	"pyrite/internal/ir"
)

// Local value numbering. Within one basic block, copies propagate value
// numbers and recurrent additions collapse into copies of the earlier result:
// when `addl L, R` recomputes an expression whose representative variable
// still holds that value, the instruction becomes `movl X, R`.
//
// Expression keys use value numbers for variable operands and literal syntax
// for immediates. Only movl and addl are canonicalized; everything else
// passes through, invalidating no state beyond its explicit write.

type lvnState struct {
	varVN  map[string]int
	vnVar  map[int]string
	exprVN map[string]int
	next   int
}

func newLVNState() *lvnState {
	return &lvnState{
		varVN:  map[string]int{},
		vnVar:  map[int]string{},
		exprVN: map[string]int{},
	}
}

func (s *lvnState) fresh() int {
	n := s.next
	s.next++
	return n
}

// number returns the value number of a variable, minting one on first sight.
func (s *lvnState) number(name string) int {
	if vn, ok := s.varVN[name]; ok {
		return vn
	}
	vn := s.fresh()
	s.varVN[name] = vn
	s.vnVar[vn] = name
	return vn
}

// define records dst as the holder of a fresh value.
func (s *lvnState) define(dst string) {
	vn := s.fresh()
	s.varVN[dst] = vn
	s.vnVar[vn] = dst
}

// RunLVN value-numbers every block and returns the rewritten flat IR.
func (g *Graph) RunLVN() ([]ir.Instr, error) {
	for _, b := range g.Blocks {
		if err := lvnBlock(g.FnName, b); err != nil {
			return nil, err
		}
	}
	return g.Instructions(), nil
}

func lvnBlock(fnName string, b *BasicBlock) error {
	s := newLVNState()
	for i, in := range b.Insts {
		switch in.Op {
		case ir.OpMovl:
			if !in.Dst.IsVar() {
				continue
			}
			dst := in.Dst.Name
			switch {
			case in.Src.IsVar():
				vn := s.number(in.Src.Name)
				s.varVN[dst] = vn
				s.vnVar[vn] = dst
			default:
				// immediate, register and frame-base sources all produce
				// a value unknown to the block
				s.define(dst)
			}
		case ir.OpAddl:
			if !in.Dst.IsVar() {
				continue
			}
			dst := in.Dst.Name
			var key string
			switch {
			case in.Src.IsVar():
				lvn, ok := s.varVN[in.Src.Name]
				if !ok {
					return missingNumber(fnName, in.Src.Name, i)
				}
				rvn, ok := s.varVN[dst]
				if !ok {
					return missingNumber(fnName, dst, i)
				}
				key = fmt.Sprintf("%d + %d", lvn, rvn)
			case in.Src.IsImm():
				rvn, ok := s.varVN[dst]
				if !ok {
					return missingNumber(fnName, dst, i)
				}
				key = fmt.Sprintf("$%d + %d", in.Src.Imm, rvn)
			default:
				s.define(dst)
				continue
			}

			if vn, ok := s.exprVN[key]; ok {
				if rep, held := s.vnVar[vn]; held && s.varVN[rep] == vn {
					b.Insts[i] = ir.Instr{Op: ir.OpMovl, Src: ir.Var(rep), Dst: in.Dst}
				}
				s.varVN[dst] = vn
				s.vnVar[vn] = dst
			} else {
				vn := s.fresh()
				s.exprVN[key] = vn
				s.varVN[dst] = vn
				s.vnVar[vn] = dst
			}
		default:
			// pass-through: an explicit variable write invalidates only
			// that variable's number
			dst := ir.WriteDst(in)
			if dst.IsVar() {
				s.define(dst.Name)
			}
		}
	}
	return nil
}

// missingNumber is the fatal diagnostic for an operand the pass expected to
// have numbered already.
func missingNumber(fnName, name string, pos int) error {
	return errors.NewInvariantViolation(errors.ErrorMissingValueNumber, fnName,
		fmt.Sprintf("no value number for %q at instruction %d", name, pos)).Build()
}
