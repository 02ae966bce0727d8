// SPDX-License-Identifier: Apache-2.0
package rewrite

import "pyrite/internal/ast"

// Explicate makes the dynamic typing explicit: literals are injected into the
// tagged representation, and addition becomes a dispatch tree that picks the
// integer fast path, the runtime big-object path, or the type-error path at
// run time. Operands of the dispatch are bound with lets so they evaluate
// once.
func Explicate(m *ast.Module, names *ast.NameGen) *ast.Module {
	e := &explicator{names: names}
	return &ast.Module{Body: e.stmts(m.Body)}
}

type explicator struct {
	names *ast.NameGen
}

func (e *explicator) stmts(body []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(body))
	for _, s := range body {
		out = append(out, e.stmt(s))
	}
	return out
}

func (e *explicator) stmt(s ast.Stmt) ast.Stmt {
	switch n := s.(type) {
	case *ast.Assign:
		target := n.Target
		if sub, ok := target.(*ast.Subscript); ok {
			target = &ast.Subscript{Target: e.expr(sub.Target), Index: e.expr(sub.Index)}
		}
		return &ast.Assign{Target: target, Value: e.expr(n.Value)}
	case *ast.Print:
		return &ast.Print{Value: e.expr(n.Value)}
	case *ast.Discard:
		return &ast.Discard{Value: e.expr(n.Value)}
	case *ast.If:
		return &ast.If{Cond: e.expr(n.Cond), Then: e.stmts(n.Then), Else: e.stmts(n.Else)}
	case *ast.While:
		return &ast.While{Cond: e.expr(n.Cond), Body: e.stmts(n.Body)}
	case *ast.Return:
		return &ast.Return{Value: e.expr(n.Value)}
	case *ast.FuncDef:
		return &ast.FuncDef{Name: n.Name, Params: n.Params, Body: e.stmts(n.Body)}
	}
	return s
}

func (e *explicator) expr(x ast.Expr) ast.Expr {
	switch n := x.(type) {
	case *ast.Const:
		return &ast.InjectFrom{Kind: ast.TagInt, Arg: n}
	case *ast.BoolLit:
		v := int64(0)
		if n.Value {
			v = 1
		}
		return &ast.InjectFrom{Kind: ast.TagBool, Arg: &ast.Const{Value: v}}
	case *ast.Name:
		return n
	case *ast.Add:
		return e.explicateAdd(n)
	case *ast.UnarySub:
		return &ast.InjectFrom{Kind: ast.TagInt, Arg: &ast.UnarySub{Operand: e.expr(n.Operand)}}
	case *ast.Compare:
		return &ast.Compare{Left: e.expr(n.Left), Op: n.Op, Right: e.expr(n.Right)}
	case *ast.And:
		return &ast.And{Operands: e.exprs(n.Operands)}
	case *ast.Or:
		return &ast.Or{Operands: e.exprs(n.Operands)}
	case *ast.Not:
		return &ast.Not{Operand: e.expr(n.Operand)}
	case *ast.IfExp:
		return &ast.IfExp{Cond: e.expr(n.Cond), Then: e.expr(n.Then), Else: e.expr(n.Else)}
	case *ast.ListLit:
		return &ast.ListLit{Elems: e.exprs(n.Elems)}
	case *ast.DictLit:
		return &ast.DictLit{Keys: e.exprs(n.Keys), Values: e.exprs(n.Values)}
	case *ast.Subscript:
		return &ast.Subscript{Target: e.expr(n.Target), Index: e.expr(n.Index)}
	case *ast.Call:
		return &ast.Call{Fun: e.expr(n.Fun), Args: e.exprs(n.Args)}
	case *ast.Let:
		return &ast.Let{Var: n.Var, Rhs: e.expr(n.Rhs), Body: e.expr(n.Body)}
	case *ast.CreateClosure:
		return &ast.InjectFrom{Kind: ast.TagBig, Arg: &ast.CreateClosure{
			Fun:      n.Fun,
			FreeVars: &ast.ListLit{Elems: e.exprs(n.FreeVars.Elems)},
		}}
	case *ast.GetFunPtr:
		return &ast.GetFunPtr{Fun: e.expr(n.Fun)}
	case *ast.GetFreeVars:
		return &ast.GetFreeVars{Fun: e.expr(n.Fun)}
	}
	return x
}

func (e *explicator) exprs(es []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(es))
	for i, x := range es {
		out[i] = e.expr(x)
	}
	return out
}

// explicateAdd builds the dispatch tree for +. Constant operands (including
// the boolean literals, which count as 0 and 1) fold at compile time.
func (e *explicator) explicateAdd(n *ast.Add) ast.Expr {
	lhs := foldBool(n.Left)
	rhs := foldBool(n.Right)

	if lc, ok := lhs.(*ast.Const); ok {
		if rc, ok := rhs.(*ast.Const); ok {
			return e.expr(&ast.Const{Value: lc.Value + rc.Value})
		}
	}

	ltemp := &ast.Name{Ident: e.names.Temp()}
	rtemp := &ast.Name{Ident: e.names.Temp()}

	smallCheck := &ast.And{Operands: []ast.Expr{
		&ast.Or{Operands: []ast.Expr{
			&ast.InjectFrom{Kind: ast.TagInt, Arg: &ast.IsInt{Arg: ltemp}},
			&ast.InjectFrom{Kind: ast.TagInt, Arg: &ast.IsBool{Arg: ltemp}},
		}},
		&ast.Or{Operands: []ast.Expr{
			&ast.InjectFrom{Kind: ast.TagInt, Arg: &ast.IsInt{Arg: rtemp}},
			&ast.InjectFrom{Kind: ast.TagInt, Arg: &ast.IsBool{Arg: rtemp}},
		}},
	}}
	bigCheck := &ast.And{Operands: []ast.Expr{
		&ast.InjectFrom{Kind: ast.TagInt, Arg: &ast.IsBig{Arg: ltemp}},
		&ast.InjectFrom{Kind: ast.TagInt, Arg: &ast.IsBig{Arg: rtemp}},
	}}

	return &ast.Let{Var: ltemp, Rhs: e.expr(n.Left),
		Body: &ast.Let{Var: rtemp, Rhs: e.expr(n.Right),
			Body: &ast.IfExp{
				Cond: smallCheck,
				Then: &ast.InjectFrom{Kind: ast.TagInt, Arg: &ast.Add{Left: ltemp, Right: rtemp}},
				Else: &ast.IfExp{
					Cond: bigCheck,
					Then: &ast.InjectFrom{Kind: ast.TagBig, Arg: &ast.AddBig{
						Left:  &ast.ProjectTo{Kind: ast.TagBig, Arg: ltemp},
						Right: &ast.ProjectTo{Kind: ast.TagBig, Arg: rtemp},
					}},
					Else: &ast.TypeErr{},
				},
			},
		},
	}
}

func foldBool(x ast.Expr) ast.Expr {
	if b, ok := x.(*ast.BoolLit); ok {
		if b.Value {
			return &ast.Const{Value: 1}
		}
		return &ast.Const{Value: 0}
	}
	return x
}
