// SPDX-License-Identifier: Apache-2.0
package cfg

import (
	"fmt"

	"pyrite/internal/errors"
	"pyrite/internal/ir"
)

// BranchKind classifies how a basic block ends.
type BranchKind int

const (
	BranchNone BranchKind = iota
	BranchUnconditional
	BranchConditional
)

// BasicBlock is a maximal straight-line run of instructions with one entry
// and one exit. Live holds the live-variable set before each instruction;
// its last element is the block's live-out.
type BasicBlock struct {
	SrcLabel string
	Target   string
	Branch   BranchKind
	Insts    []ir.Instr
	Succs    []*BasicBlock
	Live     []map[string]bool

	eob bool
}

// Graph is the control-flow graph of one function, blocks in original
// textual order.
type Graph struct {
	FnName string
	Blocks []*BasicBlock
}

// Build partitions a function's instruction list into basic blocks and
// resolves jump targets into successor edges. A jump whose target label does
// not resolve is a structural IR error.
func Build(fnName string, insts []ir.Instr) (*Graph, error) {
	g := &Graph{FnName: fnName}
	g.buildBlocks(insts)
	if err := g.connect(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) buildBlocks(insts []ir.Instr) {
	for _, in := range insts {
		if in.IsLabel() || len(g.Blocks) == 0 || g.last().eob {
			// a label reached by straight-line code implicitly ends the
			// previous block with a fall-through to it
			if in.IsLabel() && len(g.Blocks) > 0 && !g.last().eob {
				g.last().eob = true
				g.last().Target = in.TargetLabel()
				g.last().Branch = BranchUnconditional
			}
			g.Blocks = append(g.Blocks, &BasicBlock{})
		}
		if in.Op.IsJump() {
			g.last().eob = true
			g.last().Target = in.TargetLabel()
			if in.Op.IsConditionalJump() {
				g.last().Branch = BranchConditional
			} else {
				g.last().Branch = BranchUnconditional
			}
		}
		b := g.last()
		if len(b.Insts) == 0 && in.IsLabel() {
			b.SrcLabel = in.TargetLabel()
		}
		b.Insts = append(b.Insts, in)
	}
	if len(g.Blocks) > 0 {
		g.last().eob = true
	}
}

func (g *Graph) connect() error {
	for i, b := range g.Blocks {
		switch b.Branch {
		case BranchUnconditional:
			target := g.blockByLabel(b.Target)
			if target == nil {
				return errors.NewStructuralError(errors.ErrorUnresolvedLabel, g.FnName,
					fmt.Sprintf("jump to non-existent label %q", b.Target)).Build()
			}
			b.Succs = []*BasicBlock{target}
		case BranchConditional:
			target := g.blockByLabel(b.Target)
			if target == nil {
				return errors.NewStructuralError(errors.ErrorUnresolvedLabel, g.FnName,
					fmt.Sprintf("conditional jump to non-existent label %q", b.Target)).Build()
			}
			if i+1 >= len(g.Blocks) {
				return errors.NewStructuralError(errors.ErrorMalformedInstruction, g.FnName,
					fmt.Sprintf("conditional jump %q has no fall-through block", b.Target)).Build()
			}
			b.Succs = []*BasicBlock{target, g.Blocks[i+1]}
		case BranchNone:
			if i+1 < len(g.Blocks) {
				b.Succs = []*BasicBlock{g.Blocks[i+1]}
			}
		}
	}
	return nil
}

func (g *Graph) last() *BasicBlock { return g.Blocks[len(g.Blocks)-1] }

func (g *Graph) blockByLabel(label string) *BasicBlock {
	for _, b := range g.Blocks {
		if b.SrcLabel == label {
			return b
		}
	}
	return nil
}

// Instructions flattens the blocks back into one instruction list.
func (g *Graph) Instructions() []ir.Instr {
	var out []ir.Instr
	for _, b := range g.Blocks {
		out = append(out, b.Insts...)
	}
	return out
}

// InstCount is the total instruction count across all blocks.
func (g *Graph) InstCount() int {
	n := 0
	for _, b := range g.Blocks {
		n += len(b.Insts)
	}
	return n
}
