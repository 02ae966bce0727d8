// SPDX-License-Identifier: Apache-2.0
package codegen

import (
	"fmt"
	"strings"

	"pyrite/internal/ir"
	"pyrite/internal/regalloc"
)

// The materializer turns colored IR into x86 text. Every named operand is
// replaced by its assigned register (color < K) or its frame slot
// -4*(color-K+1)(%ebp); the prologue reserves the frame and saves the
// callee-saved registers, the epilogue restores them. Self-moves that appear
// once both sides land in the same home are elided, and a call through a
// register becomes an indirect call.

// FrameSize returns the stack frame bytes needed for the graph's spills.
func FrameSize(g *regalloc.Graph) int {
	maxColor := g.MaxColor()
	if maxColor < 0 {
		maxColor = 0
	}
	size := 4 * (maxColor - ir.NumRegisters + 1)
	if size < 0 {
		size = 0
	}
	return size
}

// EmitFunction renders one allocated function.
func EmitFunction(name string, alloc *regalloc.Allocation) string {
	frame := FrameSize(alloc.Graph)

	var out strings.Builder
	fmt.Fprintf(&out, ".globl %s\n", name)
	fmt.Fprintf(&out, "%s:\n", name)
	out.WriteString("pushl %ebp\n")
	out.WriteString("movl %esp, %ebp\n")
	fmt.Fprintf(&out, "subl $%d, %%esp\n", frame)
	out.WriteString("pushl %edi\n")
	out.WriteString("pushl %esi\n")
	out.WriteString("pushl %ebx\n")
	out.WriteString("\n")

	body := alloc.Insts
	if len(body) > 0 && body[0].IsLabel() {
		// the function's own label is part of the prologue
		body = body[1:]
	}
	for _, in := range body {
		sub := substitute(in, alloc.Graph)
		if elidable(sub) {
			continue
		}
		out.WriteString(sub.String())
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString("popl %ebx\n")
	out.WriteString("popl %esi\n")
	out.WriteString("popl %edi\n")
	fmt.Fprintf(&out, "addl $%d, %%esp\n", frame)
	out.WriteString("leave\n")
	out.WriteString("ret\n")
	out.WriteString("\n")
	return out.String()
}

// substitute replaces variable operands by their assigned homes.
func substitute(in ir.Instr, g *regalloc.Graph) ir.Instr {
	in.Src = home(in.Src, g)
	in.Dst = home(in.Dst, g)
	return in
}

func home(op ir.Operand, g *regalloc.Graph) ir.Operand {
	if !op.IsVar() {
		return op
	}
	color := g.ColorOf(op.Name)
	if color == regalloc.ColorNone {
		return op
	}
	if color < ir.NumRegisters {
		return ir.Reg(ir.Registers[color])
	}
	return ir.Mem(int32(-4 * (color - ir.NumRegisters + 1)))
}

// elidable reports a movl whose source and destination resolved to the same
// home.
func elidable(in ir.Instr) bool {
	if in.Op != ir.OpMovl {
		return false
	}
	switch {
	case in.Src.IsReg() && in.Dst.IsReg():
		return in.Src.Name == in.Dst.Name
	case in.Src.IsMem() && in.Dst.IsMem():
		return in.Src.Off == in.Dst.Off
	}
	return false
}
