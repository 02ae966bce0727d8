// SPDX-License-Identifier: Apache-2.0
package ir

import (
	"fmt"

	"pyrite/internal/ast"
	"pyrite/internal/errors"
)

// Generate lowers a flattened module to per-function IR. Every statement's
// operands are already simple (names or integer literals); lowering follows
// fixed instruction sequences and keeps one invariant the CFG builder relies
// on: every jump is immediately followed by a label.
//
// Calling convention: arguments are pushed right to left, the caller cleans
// the stack, results come back in %eax. Parameters arrive at 8(%ebp) upward.
func Generate(m *ast.Module, names *ast.NameGen) (*Program, error) {
	g := &generator{b: NewBuilder(), names: names}
	prog := &Program{}
	for _, s := range m.Body {
		fn, ok := s.(*ast.FuncDef)
		if !ok {
			return nil, fmt.Errorf("ir: module statement is not a function definition")
		}
		lowered, err := g.function(fn)
		if err != nil {
			return nil, fmt.Errorf("ir: function %s: %w", fn.Name, err)
		}
		prog.Functions = append(prog.Functions, lowered)
	}
	return prog, nil
}

type generator struct {
	b      *Builder
	names  *ast.NameGen
	fnName string   // function being lowered, for diagnostics
	loops  []string // active loop labels, innermost last
}

func (g *generator) function(fn *ast.FuncDef) (*Function, error) {
	g.fnName = fn.Name
	g.b.Label(fn.Name)
	for i, param := range fn.Params {
		g.b.Movl(Mem(int32((i+2)*4)), Var(param))
	}
	if err := g.stmts(fn.Body); err != nil {
		return nil, err
	}
	if fn.Name == "main" {
		g.b.Movl(Imm(0), Reg(EAX))
	}
	return &Function{Name: fn.Name, Insts: g.b.Take()}, nil
}

func (g *generator) stmts(body []ast.Stmt) error {
	for _, s := range body {
		if err := g.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) stmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.Assign:
		return g.assign(n)
	case *ast.Print:
		val, err := g.operand(n.Value)
		if err != nil {
			return err
		}
		g.b.Movl(val, Reg(EAX)).
			Pushl(Reg(EAX)).
			Call(Sym("print_any")).
			Addl(Imm(4), Reg(ESP))
		return nil
	case *ast.Discard:
		// flattened discards are bare names or literals; nothing to emit
		return nil
	case *ast.Return:
		val, err := g.operand(n.Value)
		if err != nil {
			return err
		}
		g.b.Movl(val, Reg(EAX))
		return nil
	case *ast.If:
		return g.ifStmt(n)
	case *ast.While:
		return g.whileStmt(n)
	case *ast.Break:
		// lowered by the enclosing if's else arm
		return nil
	}
	return fmt.Errorf("unexpected statement %T after flattening", s)
}

func (g *generator) assign(n *ast.Assign) error {
	if sub, ok := n.Target.(*ast.Subscript); ok {
		return g.subscriptStore(sub, n.Value)
	}

	name, ok := n.Target.(*ast.Name)
	if !ok {
		return fmt.Errorf("unexpected assignment target %T", n.Target)
	}
	dst := Var(name.Ident)

	switch rhs := n.Value.(type) {
	case *ast.Add:
		// operands are tagged; strip both tags, add untagged
		left, err := g.operand(rhs.Left)
		if err != nil {
			return err
		}
		right, err := g.operand(rhs.Right)
		if err != nil {
			return err
		}
		t1 := Var(g.names.Temp())
		t2 := Var(g.names.Temp())
		g.b.Movl(left, t1).
			Movl(t1, dst).
			Shr(Imm(TagShift), dst).
			Movl(right, t2).
			Shr(Imm(TagShift), t2).
			Addl(t2, dst)
		return nil
	case *ast.UnarySub:
		src, err := g.operand(rhs.Operand)
		if err != nil {
			return err
		}
		t1 := Var(g.names.Temp())
		g.b.Movl(src, t1).
			Movl(t1, dst).
			Shr(Imm(TagShift), dst).
			Negl(dst)
		return nil
	case *ast.Compare:
		if err := g.compare(rhs); err != nil {
			return err
		}
		return g.moveResult(dst)
	case *ast.Call:
		if err := g.call(rhs); err != nil {
			return err
		}
		return g.moveResult(dst)
	case *ast.Subscript:
		if err := g.subscriptLoad(rhs); err != nil {
			return err
		}
		return g.moveResult(dst)
	case *ast.ListLit:
		if err := g.list(rhs); err != nil {
			return err
		}
		return g.moveResult(dst)
	case *ast.DictLit:
		if err := g.dict(rhs); err != nil {
			return err
		}
		return g.moveResult(dst)
	default:
		src, err := g.operand(n.Value)
		if err != nil {
			return err
		}
		t1 := Var(g.names.Temp())
		g.b.Movl(src, t1).
			Movl(t1, dst)
		return nil
	}
}

// moveResult copies %eax into dst through a temporary.
func (g *generator) moveResult(dst Operand) error {
	t1 := Var(g.names.Temp())
	g.b.Movl(Reg(EAX), t1).
		Movl(t1, dst)
	return nil
}

// operand converts a simple flattened expression into an IR operand.
func (g *generator) operand(x ast.Expr) (Operand, error) {
	switch n := x.(type) {
	case *ast.Const:
		return Imm(n.Value), nil
	case *ast.Name:
		return Var(n.Ident), nil
	}
	return None(), errors.NewInvariantViolation(errors.ErrorNotFlat, g.fnName,
		fmt.Sprintf("operand is not flat: %T", x)).Build()
}

func (g *generator) subscriptStore(target *ast.Subscript, value ast.Expr) error {
	list, err := g.operand(target.Target)
	if err != nil {
		return err
	}
	key, err := g.operand(target.Index)
	if err != nil {
		return err
	}
	val, err := g.operand(value)
	if err != nil {
		return err
	}
	keyVar := Var(g.names.Temp())
	g.b.Pushl(val).
		Movl(key, keyVar).
		Pushl(keyVar).
		Pushl(list).
		Call(Sym("set_subscript")).
		Addl(Imm(12), Reg(ESP))
	return nil
}

func (g *generator) subscriptLoad(n *ast.Subscript) error {
	list, err := g.operand(n.Target)
	if err != nil {
		return err
	}
	key, err := g.operand(n.Index)
	if err != nil {
		return err
	}
	g.b.Movl(key, Reg(EAX)).
		Pushl(Reg(EAX)).
		Pushl(list).
		Call(Sym("get_subscript")).
		Addl(Imm(8), Reg(ESP))
	return nil
}

// list builds a runtime list: create it with a tagged length, then store each
// element with a tagged index. The tagged pointer lands in %eax.
func (g *generator) list(n *ast.ListLit) error {
	ptr := Var(g.names.Temp())
	g.b.Movl(Imm(int64(len(n.Elems))), Reg(EAX)).
		Shl(Imm(TagShift), Reg(EAX)).
		Pushl(Reg(EAX)).
		Call(Sym("create_list")).
		Addl(Imm(4), Reg(ESP)).
		Orl(Imm(TagMask), Reg(EAX)).
		Movl(Reg(EAX), ptr)
	for idx, el := range n.Elems {
		val, err := g.operand(el)
		if err != nil {
			return err
		}
		g.b.Pushl(val).
			Movl(Imm(int64(idx)), Reg(EAX)).
			Shl(Imm(TagShift), Reg(EAX)).
			Pushl(Reg(EAX)).
			Pushl(ptr).
			Call(Sym("set_subscript")).
			Addl(Imm(12), Reg(ESP))
	}
	g.b.Movl(ptr, Reg(EAX))
	return nil
}

func (g *generator) dict(n *ast.DictLit) error {
	ptr := Var(g.names.Temp())
	g.b.Call(Sym("create_dict")).
		Orl(Imm(TagMask), Reg(EAX)).
		Movl(Reg(EAX), ptr)
	for i := range n.Keys {
		key, err := g.operand(n.Keys[i])
		if err != nil {
			return err
		}
		val, err := g.operand(n.Values[i])
		if err != nil {
			return err
		}
		g.b.Pushl(val).
			Pushl(key).
			Pushl(ptr).
			Call(Sym("set_subscript")).
			Addl(Imm(12), Reg(ESP))
	}
	g.b.Movl(ptr, Reg(EAX))
	return nil
}

func (g *generator) call(n *ast.Call) error {
	name, ok := n.Fun.(*ast.Name)
	if !ok {
		return errors.NewInvariantViolation(errors.ErrorNotFlat, g.fnName,
			fmt.Sprintf("call target is not flat: %T", n.Fun)).Build()
	}

	args := make([]Operand, len(n.Args))
	for i, a := range n.Args {
		arg, err := g.operand(a)
		if err != nil {
			return err
		}
		// create_closure takes the code address of the lifted function
		if name.Ident == "create_closure" && i == 0 && arg.Kind == OperandVar {
			arg = Sym(arg.Name)
		}
		args[i] = arg
	}
	for i := len(args) - 1; i >= 0; i-- {
		g.b.Pushl(args[i])
	}

	if IsRuntimeSymbol(name.Ident) || isLambdaLabel(name.Ident) {
		g.b.Call(Sym(name.Ident))
	} else {
		g.b.Call(Var(name.Ident))
	}
	if len(args) > 0 {
		g.b.Addl(Imm(int64(4*len(args))), Reg(ESP))
	}
	return nil
}

func isLambdaLabel(name string) bool {
	return len(name) >= 7 && name[:7] == "lambda_"
}

// compare lowers ==, != and is. The operands dispatch on their tag: two big
// values go through the runtime equality after masking their tags off, small
// values compare untagged, and `is` compares raw words. The boolean result is
// tagged at the join point.
func (g *generator) compare(n *ast.Compare) error {
	op1, err := g.operand(n.Left)
	if err != nil {
		return err
	}
	op2, err := g.operand(n.Right)
	if err != nil {
		return err
	}

	lvar := Var(g.names.Temp())
	rvar := Var(g.names.Temp())
	cmpvar := Var(g.names.Temp())
	bigL := g.names.Temp()
	isL := g.names.Temp()
	smallL := g.names.Temp()

	equality := n.Op == "==" || n.Op == "!="

	g.b.Movl(op1, lvar).
		Andl(Imm(TagMask), lvar).
		IfEq(Imm(TagMask), lvar, bigL).
		Movl(op2, rvar).
		Movl(op1, lvar)
	if equality {
		runtimeSym := "equal"
		if n.Op == "!=" {
			runtimeSym = "not_equal"
		}
		g.b.Movl(Imm(TagMask), cmpvar).
			Notl(cmpvar).
			Andl(cmpvar, lvar).
			Andl(cmpvar, rvar).
			Pushl(lvar).
			Pushl(rvar).
			Call(Sym(runtimeSym)).
			Addl(Imm(8), Reg(ESP))
	} else {
		g.b.IfEq(rvar, lvar, isL).
			Movl(Imm(1), Reg(EAX)).
			Else(isL, true).
			Movl(Imm(0), Reg(EAX)).
			EndIf(isL)
	}
	g.b.Else(bigL, true).
		Movl(op1, lvar).
		Movl(op2, rvar)
	if equality {
		g.b.Shr(Imm(TagShift), lvar).
			Shr(Imm(TagShift), rvar)
	}
	onMatch, onMismatch := int64(1), int64(0)
	if n.Op == "!=" {
		onMatch, onMismatch = 0, 1
	}
	g.b.IfEq(rvar, lvar, smallL).
		Movl(Imm(onMatch), Reg(EAX)).
		Else(smallL, true).
		Movl(Imm(onMismatch), Reg(EAX)).
		EndIf(smallL).
		EndIf(bigL).
		Shl(Imm(TagShift), Reg(EAX)).
		Orl(Imm(1), Reg(EAX))
	return nil
}

func (g *generator) ifStmt(n *ast.If) error {
	test, err := g.operand(n.Cond)
	if err != nil {
		return err
	}
	label := g.names.Temp()
	g.b.IfEq(Imm(1), test, label)
	if err := g.stmts(n.Then); err != nil {
		return err
	}
	if len(n.Else) == 1 {
		if _, isBreak := n.Else[0].(*ast.Break); isBreak {
			// loop exit shape: the then-arm jumps back to the header, the
			// else-arm falls out through the join label
			if len(g.loops) == 0 {
				return fmt.Errorf("break outside of a loop")
			}
			g.b.Jmp("while_" + g.loops[len(g.loops)-1])
			g.b.Else(label, false)
			g.b.EndIf(label)
			return nil
		}
	}
	g.b.Else(label, true)
	if err := g.stmts(n.Else); err != nil {
		return err
	}
	g.b.EndIf(label)
	return nil
}

func (g *generator) whileStmt(n *ast.While) error {
	label := g.names.Temp()
	g.b.Label("while_" + label)
	g.loops = append(g.loops, label)
	err := g.stmts(n.Body)
	g.loops = g.loops[:len(g.loops)-1]
	return err
}
