// SPDX-License-Identifier: Apache-2.0
package rewrite

import (
	"fmt"

	"pyrite/internal/ast"
)

// Uniquify renames every variable to <name>_<scope> so that later passes can
// treat names as globally unique. Scopes are numbered by nesting depth; a
// name resolves to the innermost scope that binds it, falling back to the
// function-name table so that mutually recursive definitions resolve before
// their assignment is seen. `input` and the boolean literals are never
// renamed.
func Uniquify(m *ast.Module) *ast.Module {
	u := &uniquifier{funcTbl: collectFunctions(m)}
	u.push()
	body := u.stmts(m.Body)
	u.pop()
	return &ast.Module{Body: body}
}

// collectFunctions builds the per-depth table of names known to be functions:
// def names and names directly bound to a lambda.
func collectFunctions(m *ast.Module) []map[string]bool {
	c := &funcCollector{}
	c.enter()
	c.stmts(m.Body)
	c.leave()
	return c.tbl
}

type funcCollector struct {
	depth int
	tbl   []map[string]bool
}

func (c *funcCollector) enter() {
	if len(c.tbl) <= c.depth {
		c.tbl = append(c.tbl, map[string]bool{})
	}
	c.depth++
}

func (c *funcCollector) leave() { c.depth-- }

func (c *funcCollector) stmts(body []ast.Stmt) {
	for _, s := range body {
		c.stmt(s)
	}
}

func (c *funcCollector) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Assign:
		if lam, ok := n.Value.(*ast.Lambda); ok {
			if name, ok := n.Target.(*ast.Name); ok {
				c.tbl[c.depth-1][name.Ident] = true
			}
			c.enter()
			c.expr(lam.Body)
			c.leave()
			return
		}
		c.expr(n.Value)
	case *ast.Print:
		c.expr(n.Value)
	case *ast.Discard:
		c.expr(n.Value)
	case *ast.If:
		c.expr(n.Cond)
		c.stmts(n.Then)
		c.stmts(n.Else)
	case *ast.While:
		c.expr(n.Cond)
		c.stmts(n.Body)
	case *ast.Return:
		c.expr(n.Value)
	case *ast.FuncDef:
		c.tbl[c.depth-1][n.Name] = true
		c.enter()
		c.stmts(n.Body)
		c.leave()
	}
}

func (c *funcCollector) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Lambda:
		c.enter()
		c.expr(n.Body)
		c.leave()
	case *ast.Add:
		c.expr(n.Left)
		c.expr(n.Right)
	case *ast.UnarySub:
		c.expr(n.Operand)
	case *ast.Compare:
		c.expr(n.Left)
		c.expr(n.Right)
	case *ast.And:
		for _, op := range n.Operands {
			c.expr(op)
		}
	case *ast.Or:
		for _, op := range n.Operands {
			c.expr(op)
		}
	case *ast.Not:
		c.expr(n.Operand)
	case *ast.IfExp:
		c.expr(n.Cond)
		c.expr(n.Then)
		c.expr(n.Else)
	case *ast.ListLit:
		for _, el := range n.Elems {
			c.expr(el)
		}
	case *ast.DictLit:
		for i := range n.Keys {
			c.expr(n.Keys[i])
			c.expr(n.Values[i])
		}
	case *ast.Subscript:
		c.expr(n.Target)
		c.expr(n.Index)
	case *ast.Call:
		c.expr(n.Fun)
		for _, a := range n.Args {
			c.expr(a)
		}
	}
}

type uniquifier struct {
	scopes  []map[string]bool
	funcTbl []map[string]bool
}

func (u *uniquifier) push() { u.scopes = append(u.scopes, map[string]bool{}) }
func (u *uniquifier) pop()  { u.scopes = u.scopes[:len(u.scopes)-1] }

func (u *uniquifier) depth() int { return len(u.scopes) - 1 }

// resolve renames a read of name, binding it in the current scope when no
// enclosing scope knows it.
func (u *uniquifier) resolve(name string) string {
	if name == "input" {
		return name
	}
	for i := u.depth(); i >= 0; i-- {
		if u.scopes[i][name] {
			return scoped(name, i)
		}
	}
	for i := u.depth(); i >= 0; i-- {
		if i < len(u.funcTbl) && u.funcTbl[i][name] {
			return scoped(name, i)
		}
	}
	u.scopes[u.depth()][name] = true
	return scoped(name, u.depth())
}

// bind renames a write of name, always binding it in the current scope.
func (u *uniquifier) bind(name string) string {
	u.scopes[u.depth()][name] = true
	return scoped(name, u.depth())
}

func scoped(name string, depth int) string {
	return fmt.Sprintf("%s_%d", name, depth)
}

func (u *uniquifier) stmts(body []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(body))
	for _, s := range body {
		out = append(out, u.stmt(s))
	}
	return out
}

func (u *uniquifier) stmt(s ast.Stmt) ast.Stmt {
	switch n := s.(type) {
	case *ast.Assign:
		// the target binds before the value resolves
		var target ast.Expr
		if name, ok := n.Target.(*ast.Name); ok {
			target = &ast.Name{Ident: u.bind(name.Ident)}
		} else {
			target = u.expr(n.Target)
		}
		return &ast.Assign{Target: target, Value: u.expr(n.Value)}
	case *ast.Print:
		return &ast.Print{Value: u.expr(n.Value)}
	case *ast.Discard:
		return &ast.Discard{Value: u.expr(n.Value)}
	case *ast.If:
		return &ast.If{Cond: u.expr(n.Cond), Then: u.stmts(n.Then), Else: u.stmts(n.Else)}
	case *ast.While:
		return &ast.While{Cond: u.expr(n.Cond), Body: u.stmts(n.Body)}
	case *ast.Break:
		return n
	case *ast.Return:
		return &ast.Return{Value: u.expr(n.Value)}
	case *ast.FuncDef:
		name := scoped(n.Name, u.depth())
		u.scopes[u.depth()][n.Name] = true

		u.push()
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = u.bind(p)
		}
		body := u.stmts(n.Body)
		u.pop()

		return &ast.FuncDef{Name: name, Params: params, Body: body}
	}
	return s
}

func (u *uniquifier) expr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.Const, *ast.BoolLit:
		return e
	case *ast.Name:
		return &ast.Name{Ident: u.resolve(n.Ident)}
	case *ast.Add:
		return &ast.Add{Left: u.expr(n.Left), Right: u.expr(n.Right)}
	case *ast.UnarySub:
		return &ast.UnarySub{Operand: u.expr(n.Operand)}
	case *ast.Compare:
		return &ast.Compare{Left: u.expr(n.Left), Op: n.Op, Right: u.expr(n.Right)}
	case *ast.And:
		return &ast.And{Operands: u.exprs(n.Operands)}
	case *ast.Or:
		return &ast.Or{Operands: u.exprs(n.Operands)}
	case *ast.Not:
		return &ast.Not{Operand: u.expr(n.Operand)}
	case *ast.IfExp:
		return &ast.IfExp{Cond: u.expr(n.Cond), Then: u.expr(n.Then), Else: u.expr(n.Else)}
	case *ast.ListLit:
		return &ast.ListLit{Elems: u.exprs(n.Elems)}
	case *ast.DictLit:
		return &ast.DictLit{Keys: u.exprs(n.Keys), Values: u.exprs(n.Values)}
	case *ast.Subscript:
		return &ast.Subscript{Target: u.expr(n.Target), Index: u.expr(n.Index)}
	case *ast.Call:
		return &ast.Call{Fun: u.expr(n.Fun), Args: u.exprs(n.Args)}
	case *ast.Lambda:
		u.push()
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = u.bind(p)
		}
		body := u.expr(n.Body)
		u.pop()
		return &ast.Lambda{Params: params, Body: body}
	}
	return e
}

func (u *uniquifier) exprs(es []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(es))
	for i, e := range es {
		out[i] = u.expr(e)
	}
	return out
}
