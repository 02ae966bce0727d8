// SPDX-License-Identifier: Apache-2.0
package rewrite

import "pyrite/internal/ast"

// Heapify boxes every variable that occurs free in some nested function or
// lambda: the binding becomes a one-element list, reads become v[0] and
// writes become v[0] = x. Boxing keeps captured variables shared by reference
// once closure conversion copies free-variable vectors around.

// HeapVars returns the set of names needing boxing, in first-encounter order.
func HeapVars(m *ast.Module) []string {
	c := &heapVarScan{seen: map[string]bool{}}
	c.stmts(m.Body)
	return c.order
}

type heapVarScan struct {
	order []string
	seen  map[string]bool
}

func (c *heapVarScan) add(names []string) {
	for _, name := range names {
		if !c.seen[name] {
			c.seen[name] = true
			c.order = append(c.order, name)
		}
	}
}

func (c *heapVarScan) stmts(body []ast.Stmt) {
	for _, s := range body {
		c.stmt(s)
	}
}

func (c *heapVarScan) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Assign:
		c.expr(n.Value)
		c.expr(n.Target)
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
		c.add(FreeVars(n.Params, n.Body))
		c.stmts(n.Body)
	}
}

func (c *heapVarScan) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Lambda:
		c.add(FreeVarsExpr(n.Params, n.Body))
		c.expr(n.Body)
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

// Heapify rewrites the module for the given boxed variables. The module body
// gains a `v = [0]` initializer per boxed variable; functions and lambdas
// whose parameters are boxed rebox them on entry.
func Heapify(m *ast.Module, heapVars []string) *ast.Module {
	h := &heapifier{boxed: map[string]bool{}}
	for _, v := range heapVars {
		h.boxed[v] = true
	}

	body := make([]ast.Stmt, 0, len(heapVars)+len(m.Body))
	for _, v := range heapVars {
		body = append(body, &ast.Assign{
			Target: &ast.Name{Ident: v},
			Value:  &ast.ListLit{Elems: []ast.Expr{&ast.Const{Value: 0}}},
		})
	}
	body = append(body, h.stmts(m.Body)...)
	return &ast.Module{Body: body}
}

type heapifier struct {
	boxed map[string]bool
}

func (h *heapifier) stmts(body []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(body))
	for _, s := range body {
		out = append(out, h.stmt(s))
	}
	return out
}

func (h *heapifier) stmt(s ast.Stmt) ast.Stmt {
	switch n := s.(type) {
	case *ast.Assign:
		value := h.expr(n.Value)
		if name, ok := n.Target.(*ast.Name); ok {
			if h.boxed[name.Ident] {
				return &ast.Assign{
					Target: &ast.Subscript{Target: &ast.Name{Ident: name.Ident}, Index: &ast.Const{Value: 0}},
					Value:  value,
				}
			}
			return &ast.Assign{Target: n.Target, Value: value}
		}
		return &ast.Assign{Target: h.expr(n.Target), Value: value}
	case *ast.Print:
		return &ast.Print{Value: h.expr(n.Value)}
	case *ast.Discard:
		return &ast.Discard{Value: h.expr(n.Value)}
	case *ast.If:
		return &ast.If{Cond: h.expr(n.Cond), Then: h.stmts(n.Then), Else: h.stmts(n.Else)}
	case *ast.While:
		return &ast.While{Cond: h.expr(n.Cond), Body: h.stmts(n.Body)}
	case *ast.Return:
		return &ast.Return{Value: h.expr(n.Value)}
	case *ast.FuncDef:
		body := h.stmts(n.Body)
		// boxed parameters are reboxed on entry; the initializer reads the
		// raw incoming value, so its right side is deliberately unrewritten
		for i := len(n.Params) - 1; i >= 0; i-- {
			p := n.Params[i]
			if h.boxed[p] {
				body = append([]ast.Stmt{&ast.Assign{
					Target: &ast.Name{Ident: p},
					Value:  &ast.ListLit{Elems: []ast.Expr{&ast.Name{Ident: p}}},
				}}, body...)
			}
		}
		return &ast.FuncDef{Name: n.Name, Params: n.Params, Body: body}
	}
	return s
}

func (h *heapifier) expr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.Name:
		if h.boxed[n.Ident] {
			return &ast.Subscript{Target: &ast.Name{Ident: n.Ident}, Index: &ast.Const{Value: 0}}
		}
		return n
	case *ast.Add:
		return &ast.Add{Left: h.expr(n.Left), Right: h.expr(n.Right)}
	case *ast.UnarySub:
		return &ast.UnarySub{Operand: h.expr(n.Operand)}
	case *ast.Compare:
		return &ast.Compare{Left: h.expr(n.Left), Op: n.Op, Right: h.expr(n.Right)}
	case *ast.And:
		return &ast.And{Operands: h.exprs(n.Operands)}
	case *ast.Or:
		return &ast.Or{Operands: h.exprs(n.Operands)}
	case *ast.Not:
		return &ast.Not{Operand: h.expr(n.Operand)}
	case *ast.IfExp:
		return &ast.IfExp{Cond: h.expr(n.Cond), Then: h.expr(n.Then), Else: h.expr(n.Else)}
	case *ast.ListLit:
		return &ast.ListLit{Elems: h.exprs(n.Elems)}
	case *ast.DictLit:
		return &ast.DictLit{Keys: h.exprs(n.Keys), Values: h.exprs(n.Values)}
	case *ast.Subscript:
		return &ast.Subscript{Target: h.expr(n.Target), Index: h.expr(n.Index)}
	case *ast.Call:
		return &ast.Call{Fun: h.expr(n.Fun), Args: h.exprs(n.Args)}
	case *ast.Lambda:
		body := h.expr(n.Body)
		// boxed lambda parameters are reboxed with a let around the body
		for i := len(n.Params) - 1; i >= 0; i-- {
			p := n.Params[i]
			if h.boxed[p] {
				body = &ast.Let{
					Var:  &ast.Name{Ident: p},
					Rhs:  &ast.ListLit{Elems: []ast.Expr{&ast.Name{Ident: p}}},
					Body: body,
				}
			}
		}
		return &ast.Lambda{Params: n.Params, Body: body}
	}
	return e
}

func (h *heapifier) exprs(es []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(es))
	for i, e := range es {
		out[i] = h.expr(e)
	}
	return out
}
