// SPDX-License-Identifier: Apache-2.0
package rewrite

import "pyrite/internal/ast"

// Flatten normalizes the explicated program into three-address form: every
// compound expression is bound to a fresh temporary, so statement right-hand
// sides are at most one operator deep and all operands are names or integer
// literals. Conditional expressions become statement-level ifs assigning a
// result temporary; while loops take the infinite-loop shape the IR generator
// expects (the exit is an if/break inside the body).
func Flatten(m *ast.Module, names *ast.NameGen) *ast.Module {
	f := &flattener{names: names}
	return &ast.Module{Body: f.flattenBody(m.Body)}
}

type flattener struct {
	names *ast.NameGen
	out   []ast.Stmt
}

// emit appends a statement to the current sink.
func (f *flattener) emit(s ast.Stmt) {
	f.out = append(f.out, s)
}

// flattenBody runs a statement list in a fresh sink and returns the result.
func (f *flattener) flattenBody(body []ast.Stmt) []ast.Stmt {
	saved := f.out
	f.out = nil
	for _, s := range body {
		f.stmt(s)
	}
	flat := f.out
	f.out = saved
	return flat
}

func (f *flattener) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Assign:
		if sub, ok := n.Target.(*ast.Subscript); ok {
			value := f.expr(n.Value)
			target := f.expr(sub.Target)
			index := f.expr(sub.Index)
			f.emit(&ast.Assign{
				Target: &ast.Subscript{Target: target, Index: index},
				Value:  value,
			})
			return
		}
		f.emit(&ast.Assign{Target: n.Target, Value: f.expr(n.Value)})
	case *ast.Print:
		f.emit(&ast.Print{Value: f.expr(n.Value)})
	case *ast.Discard:
		f.emit(&ast.Discard{Value: f.expr(n.Value)})
	case *ast.Return:
		f.emit(&ast.Return{Value: f.expr(n.Value)})
	case *ast.If:
		f.flattenIf(n.Cond, n.Then, n.Else)
	case *ast.While:
		// the loop condition was already rewritten into an if/break by the
		// surface-to-core shape below; the loop itself spins on a constant
		guard := f.expr(&ast.InjectFrom{Kind: ast.TagInt, Arg: &ast.Const{Value: 1}})
		body := f.flattenBody([]ast.Stmt{
			&ast.If{Cond: n.Cond, Then: n.Body, Else: []ast.Stmt{&ast.Break{}}},
		})
		f.emit(&ast.While{Cond: guard, Body: body})
	case *ast.Break:
		f.emit(&ast.Break{})
	case *ast.FuncDef:
		f.emit(&ast.FuncDef{Name: n.Name, Params: n.Params, Body: f.flattenBody(n.Body)})
	}
}

// flattenIf lowers a statement-level conditional: the test value runs through
// the runtime truth predicate, each branch flattens into its own sink.
func (f *flattener) flattenIf(cond ast.Expr, then, els []ast.Stmt) {
	test := f.expr(cond)
	test = f.expr(&ast.IsTrue{Arg: test})
	f.emit(&ast.If{
		Cond: test,
		Then: f.flattenBody(then),
		Else: f.flattenBody(els),
	})
}

// expr flattens an expression, emitting temporaries into the current sink,
// and returns the resulting simple operand (a name or an integer literal).
func (f *flattener) expr(x ast.Expr) ast.Expr {
	switch n := x.(type) {
	case *ast.Const:
		return n
	case *ast.Name:
		return n
	case *ast.Add:
		left := f.expr(n.Left)
		right := f.expr(n.Right)
		return f.assignTemp(&ast.Add{Left: left, Right: right})
	case *ast.UnarySub:
		return f.assignTemp(&ast.UnarySub{Operand: f.expr(n.Operand)})
	case *ast.Compare:
		left := f.expr(n.Left)
		right := f.expr(n.Right)
		return f.assignTemp(&ast.Compare{Left: left, Op: n.Op, Right: right})
	case *ast.ListLit:
		elems := make([]ast.Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = f.expr(el)
		}
		return f.assignTemp(&ast.ListLit{Elems: elems})
	case *ast.DictLit:
		keys := make([]ast.Expr, len(n.Keys))
		values := make([]ast.Expr, len(n.Values))
		for i := range n.Keys {
			keys[i] = f.expr(n.Keys[i])
			values[i] = f.expr(n.Values[i])
		}
		return f.assignTemp(&ast.DictLit{Keys: keys, Values: values})
	case *ast.Subscript:
		target := f.expr(n.Target)
		index := f.expr(n.Index)
		return f.assignTemp(&ast.Subscript{Target: target, Index: index})
	case *ast.Call:
		return f.flattenCall(n)
	case *ast.IfExp:
		return f.flattenIfExp(n)
	case *ast.And:
		return f.flattenAnd(n.Operands)
	case *ast.Or:
		return f.flattenOr(n.Operands)
	case *ast.Not:
		op := f.expr(n.Operand)
		return f.flattenIfExp(&ast.IfExp{
			Cond: op,
			Then: &ast.InjectFrom{Kind: ast.TagBool, Arg: &ast.Const{Value: 0}},
			Else: &ast.InjectFrom{Kind: ast.TagBool, Arg: &ast.Const{Value: 1}},
		})
	case *ast.Let:
		f.emit(&ast.Assign{Target: n.Var, Value: f.expr(n.Rhs)})
		return f.expr(n.Body)
	case *ast.InjectFrom:
		return f.runtimeCall("inject_"+string(n.Kind), n.Arg)
	case *ast.ProjectTo:
		return f.runtimeCall("project_"+string(n.Kind), n.Arg)
	case *ast.IsInt:
		return f.runtimeCall("is_int", n.Arg)
	case *ast.IsBool:
		return f.runtimeCall("is_bool", n.Arg)
	case *ast.IsBig:
		return f.runtimeCall("is_big", n.Arg)
	case *ast.IsTrue:
		return f.runtimeCall("is_true", n.Arg)
	case *ast.AddBig:
		return f.flattenCall(&ast.Call{Fun: &ast.Name{Ident: "add"}, Args: []ast.Expr{n.Left, n.Right}})
	case *ast.TypeErr:
		return f.flattenCall(&ast.Call{Fun: &ast.Name{Ident: "error_pyobj"}, Args: []ast.Expr{&ast.Const{Value: 0}}})
	case *ast.GetFunPtr:
		return f.runtimeCall("get_fun_ptr", n.Fun)
	case *ast.GetFreeVars:
		return f.runtimeCall("get_free_vars", n.Fun)
	case *ast.CreateClosure:
		fun := f.expr(n.Fun)
		fvs := f.expr(n.FreeVars)
		return f.assignTemp(&ast.Call{Fun: &ast.Name{Ident: "create_closure"}, Args: []ast.Expr{fun, fvs}})
	}
	return x
}

// assignTemp binds a flattened right-hand side to a fresh temporary.
func (f *flattener) assignTemp(rhs ast.Expr) ast.Expr {
	tmp := &ast.Name{Ident: f.names.Temp()}
	f.emit(&ast.Assign{Target: tmp, Value: rhs})
	return tmp
}

func (f *flattener) runtimeCall(symbol string, arg ast.Expr) ast.Expr {
	return f.flattenCall(&ast.Call{Fun: &ast.Name{Ident: symbol}, Args: []ast.Expr{arg}})
}

func (f *flattener) flattenCall(n *ast.Call) ast.Expr {
	fun := f.expr(n.Fun)
	args := make([]ast.Expr, len(n.Args))
	for i, a := range n.Args {
		args[i] = f.expr(a)
	}
	result := f.assignTemp(&ast.Call{Fun: fun, Args: args})
	if name, ok := fun.(*ast.Name); ok && name.Ident == "input" {
		// raw input is an untagged machine integer
		return f.runtimeCall("inject_int", result)
	}
	return result
}

// flattenIfExp lowers a conditional expression to a statement-level if
// assigning a pre-initialized result temporary.
func (f *flattener) flattenIfExp(n *ast.IfExp) ast.Expr {
	test := f.expr(n.Cond)
	result := f.expr(&ast.InjectFrom{Kind: ast.TagInt, Arg: &ast.Const{Value: 0}})
	test = f.expr(&ast.IsTrue{Arg: test})

	thenStmts := f.branch(result, n.Then)
	elseStmts := f.branch(result, n.Else)

	f.emit(&ast.If{Cond: test, Then: thenStmts, Else: elseStmts})
	return result
}

// branch flattens one arm of a conditional expression, ending with the
// assignment of the arm's value to the result temporary.
func (f *flattener) branch(result ast.Expr, arm ast.Expr) []ast.Stmt {
	saved := f.out
	f.out = nil
	value := f.expr(arm)
	f.emit(&ast.Assign{Target: result, Value: value})
	stmts := f.out
	f.out = saved
	return stmts
}

// flattenAnd mirrors Python's value semantics: a and b yields b when a is
// truthy, else a. Operand computations are hoisted before the select.
func (f *flattener) flattenAnd(ops []ast.Expr) ast.Expr {
	op1 := f.expr(ops[0])
	op2 := f.expr(ops[1])
	res := f.flattenIfExp(&ast.IfExp{Cond: op1, Then: op2, Else: op1})
	if len(ops) > 2 {
		rest := append([]ast.Expr{res}, ops[2:]...)
		return f.flattenAnd(rest)
	}
	return res
}

// flattenOr yields the first truthy operand.
func (f *flattener) flattenOr(ops []ast.Expr) ast.Expr {
	op1 := f.expr(ops[0])
	op2 := f.expr(ops[1])
	res := f.flattenIfExp(&ast.IfExp{Cond: op1, Then: op1, Else: op2})
	if len(ops) > 2 {
		rest := append([]ast.Expr{res}, ops[2:]...)
		return f.flattenOr(rest)
	}
	return res
}
