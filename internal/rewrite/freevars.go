// SPDX-License-Identifier: Apache-2.0
package rewrite

import "pyrite/internal/ast"

// Free-variable analysis for function and lambda bodies. A name is free when
// it is read somewhere in the body but bound neither by the parameter list
// nor by any assignment or nested definition in the same scope. The result
// preserves first-use order so downstream passes are deterministic.

type freeVarScan struct {
	uses  []string
	seen  map[string]bool
	bound map[string]bool
}

// FreeVars returns the free variables of a function with the given parameters
// and body statements.
func FreeVars(params []string, body []ast.Stmt) []string {
	s := &freeVarScan{seen: map[string]bool{}, bound: map[string]bool{}}
	for _, p := range params {
		s.bound[p] = true
	}
	for _, st := range body {
		s.scanStmt(st)
	}
	free := make([]string, 0, len(s.uses))
	for _, name := range s.uses {
		if !s.bound[name] {
			free = append(free, name)
		}
	}
	return free
}

// FreeVarsExpr returns the free variables of a lambda with the given
// parameters and expression body.
func FreeVarsExpr(params []string, body ast.Expr) []string {
	return FreeVars(params, []ast.Stmt{&ast.Return{Value: body}})
}

func (s *freeVarScan) use(name string) {
	if name == "input" {
		return
	}
	if !s.seen[name] {
		s.seen[name] = true
		s.uses = append(s.uses, name)
	}
}

func (s *freeVarScan) scanStmt(st ast.Stmt) {
	switch n := st.(type) {
	case *ast.Assign:
		s.scanExpr(n.Value)
		if name, ok := n.Target.(*ast.Name); ok {
			s.bound[name.Ident] = true
		} else {
			s.scanExpr(n.Target)
		}
	case *ast.Print:
		s.scanExpr(n.Value)
	case *ast.Discard:
		s.scanExpr(n.Value)
	case *ast.If:
		s.scanExpr(n.Cond)
		for _, c := range n.Then {
			s.scanStmt(c)
		}
		for _, c := range n.Else {
			s.scanStmt(c)
		}
	case *ast.While:
		s.scanExpr(n.Cond)
		for _, c := range n.Body {
			s.scanStmt(c)
		}
	case *ast.Return:
		if n.Value != nil {
			s.scanExpr(n.Value)
		}
	case *ast.FuncDef:
		s.bound[n.Name] = true
		// the nested function's own free names are uses in this scope
		for _, name := range FreeVars(n.Params, n.Body) {
			s.use(name)
		}
	case *ast.Break:
	}
}

func (s *freeVarScan) scanExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Name:
		s.use(n.Ident)
	case *ast.Add:
		s.scanExpr(n.Left)
		s.scanExpr(n.Right)
	case *ast.UnarySub:
		s.scanExpr(n.Operand)
	case *ast.Compare:
		s.scanExpr(n.Left)
		s.scanExpr(n.Right)
	case *ast.And:
		for _, op := range n.Operands {
			s.scanExpr(op)
		}
	case *ast.Or:
		for _, op := range n.Operands {
			s.scanExpr(op)
		}
	case *ast.Not:
		s.scanExpr(n.Operand)
	case *ast.IfExp:
		s.scanExpr(n.Cond)
		s.scanExpr(n.Then)
		s.scanExpr(n.Else)
	case *ast.ListLit:
		for _, el := range n.Elems {
			s.scanExpr(el)
		}
	case *ast.DictLit:
		for i := range n.Keys {
			s.scanExpr(n.Keys[i])
			s.scanExpr(n.Values[i])
		}
	case *ast.Subscript:
		s.scanExpr(n.Target)
		s.scanExpr(n.Index)
	case *ast.Call:
		s.scanExpr(n.Fun)
		for _, a := range n.Args {
			s.scanExpr(a)
		}
	case *ast.Lambda:
		for _, name := range FreeVarsExpr(n.Params, n.Body) {
			s.use(name)
		}
	case *ast.Let:
		s.scanExpr(n.Rhs)
		s.bound[n.Var.Ident] = true
		s.scanExpr(n.Body)
	case *ast.InjectFrom:
		s.scanExpr(n.Arg)
	case *ast.ProjectTo:
		s.scanExpr(n.Arg)
	case *ast.IsInt:
		s.scanExpr(n.Arg)
	case *ast.IsBool:
		s.scanExpr(n.Arg)
	case *ast.IsBig:
		s.scanExpr(n.Arg)
	case *ast.IsTrue:
		s.scanExpr(n.Arg)
	case *ast.AddBig:
		s.scanExpr(n.Left)
		s.scanExpr(n.Right)
	case *ast.GetFunPtr:
		s.scanExpr(n.Fun)
	case *ast.GetFreeVars:
		s.scanExpr(n.Fun)
	case *ast.CreateClosure:
		s.scanExpr(n.Fun)
		s.scanExpr(n.FreeVars)
	case *ast.Const, *ast.BoolLit, *ast.TypeErr:
	}
}
