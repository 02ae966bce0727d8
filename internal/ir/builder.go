// SPDX-License-Identifier: Apache-2.0
package ir

// Builder accumulates IR instructions for one function. The chaining style
// keeps the lowering sequences in irgen readable next to the assembly they
// produce.
type Builder struct {
	insts []Instr
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Take returns the accumulated instructions and resets the builder.
func (b *Builder) Take() []Instr {
	out := b.insts
	b.insts = nil
	return out
}

func (b *Builder) emit(in Instr) *Builder {
	b.insts = append(b.insts, in)
	return b
}

func (b *Builder) Movl(src, dst Operand) *Builder { return b.emit(Instr{Op: OpMovl, Src: src, Dst: dst}) }
func (b *Builder) Addl(src, dst Operand) *Builder { return b.emit(Instr{Op: OpAddl, Src: src, Dst: dst}) }
func (b *Builder) Subl(src, dst Operand) *Builder { return b.emit(Instr{Op: OpSubl, Src: src, Dst: dst}) }
func (b *Builder) Andl(src, dst Operand) *Builder { return b.emit(Instr{Op: OpAndl, Src: src, Dst: dst}) }
func (b *Builder) Orl(src, dst Operand) *Builder  { return b.emit(Instr{Op: OpOrl, Src: src, Dst: dst}) }
func (b *Builder) Shl(src, dst Operand) *Builder  { return b.emit(Instr{Op: OpShl, Src: src, Dst: dst}) }
func (b *Builder) Shr(src, dst Operand) *Builder  { return b.emit(Instr{Op: OpShr, Src: src, Dst: dst}) }
func (b *Builder) Negl(dst Operand) *Builder      { return b.emit(Instr{Op: OpNegl, Dst: dst}) }
func (b *Builder) Notl(dst Operand) *Builder      { return b.emit(Instr{Op: OpNotl, Dst: dst}) }
func (b *Builder) Pushl(op Operand) *Builder      { return b.emit(Instr{Op: OpPushl, Dst: op}) }
func (b *Builder) Popl(op Operand) *Builder       { return b.emit(Instr{Op: OpPopl, Dst: op}) }
func (b *Builder) Cmpl(a, bop Operand) *Builder   { return b.emit(Instr{Op: OpCmpl, Src: a, Dst: bop}) }
func (b *Builder) Call(target Operand) *Builder   { return b.emit(Instr{Op: OpCall, Dst: target}) }
func (b *Builder) Jmp(label string) *Builder      { return b.emit(Instr{Op: OpJmp, Dst: Sym(label)}) }
func (b *Builder) Jne(label string) *Builder      { return b.emit(Instr{Op: OpJne, Dst: Sym(label)}) }
func (b *Builder) Label(name string) *Builder     { return b.emit(Instr{Op: OpLabel, Dst: Sym(name)}) }

// IfEq opens the then-branch of an equality diamond: compare, jump to the
// else label on mismatch, fall into then_<label>. Every jump is followed by a
// label so the CFG builder always finds a leader.
func (b *Builder) IfEq(lhs, rhs Operand, label string) *Builder {
	return b.Cmpl(lhs, rhs).
		Jne("else_" + label).
		Label("then_" + label)
}

// Else closes the then-branch (jumping past the else part) and opens
// else_<label>. withJmp is false when the then-branch already ends in an
// explicit jump, such as a loop back edge.
func (b *Builder) Else(label string, withJmp bool) *Builder {
	if withJmp {
		b.Jmp("endif_" + label)
	}
	return b.Label("else_" + label)
}

// EndIf closes the diamond with the join label.
func (b *Builder) EndIf(label string) *Builder {
	return b.Jmp("endif_" + label).
		Label("endif_" + label)
}
