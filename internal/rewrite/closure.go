// SPDX-License-Identifier: Apache-2.0
package rewrite

import (
	"strings"

	"pyrite/internal/ast"
)

// ConvertClosures lifts every def and lambda to a top-level lambda_<n>
// function whose first parameter is its free-variable vector, and rewrites
// user call sites into get_fun_ptr/get_free_vars indirect calls. The residual
// module statements are wrapped into a synthesized main, which ends up last
// in the output module.
func ConvertClosures(m *ast.Module, heapVars []string, names *ast.NameGen) *ast.Module {
	c := &converter{names: names, boxed: map[string]bool{}}
	for _, v := range heapVars {
		c.boxed[v] = true
	}

	body := c.stmts(m.Body)

	mainBody := append(c.mainInit, body...)
	c.functions = append(c.functions, &ast.FuncDef{Name: "main", Body: mainBody})

	out := make([]ast.Stmt, len(c.functions))
	for i, fn := range c.functions {
		out[i] = fn
	}
	return &ast.Module{Body: out}
}

type converter struct {
	names     *ast.NameGen
	boxed     map[string]bool
	functions []*ast.FuncDef
	mainInit  []ast.Stmt
}

// lift turns a function body into a top-level definition taking the
// free-variable vector first, with an unpacking prologue.
func (c *converter) lift(globalName, fvsName string, params []string, freeVars []string, prologue []ast.Stmt, body []ast.Stmt) {
	unpack := make([]ast.Stmt, 0, len(freeVars)+len(prologue))
	for i, v := range freeVars {
		unpack = append(unpack, &ast.Assign{
			Target: &ast.Name{Ident: v},
			Value:  &ast.Subscript{Target: &ast.Name{Ident: fvsName}, Index: &ast.Const{Value: int64(i)}},
		})
	}
	unpack = append(unpack, prologue...)

	c.functions = append(c.functions, &ast.FuncDef{
		Name:   globalName,
		Params: append([]string{fvsName}, params...),
		Body:   append(unpack, body...),
	})
}

func freeVarList(freeVars []string) *ast.ListLit {
	elems := make([]ast.Expr, len(freeVars))
	for i, v := range freeVars {
		elems[i] = &ast.Name{Ident: v}
	}
	return &ast.ListLit{Elems: elems}
}

func (c *converter) stmts(body []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(body))
	for _, s := range body {
		out = append(out, c.stmt(s))
	}
	return out
}

func (c *converter) stmt(s ast.Stmt) ast.Stmt {
	switch n := s.(type) {
	case *ast.Assign:
		return &ast.Assign{Target: c.expr(n.Target), Value: c.expr(n.Value)}
	case *ast.Print:
		return &ast.Print{Value: c.expr(n.Value)}
	case *ast.Discard:
		return &ast.Discard{Value: c.expr(n.Value)}
	case *ast.If:
		return &ast.If{Cond: c.expr(n.Cond), Then: c.stmts(n.Then), Else: c.stmts(n.Else)}
	case *ast.While:
		return &ast.While{Cond: c.expr(n.Cond), Body: c.stmts(n.Body)}
	case *ast.Return:
		return &ast.Return{Value: c.expr(n.Value)}
	case *ast.FuncDef:
		return c.convertDef(n)
	}
	return s
}

// convertDef lifts a def. The lifted body re-creates the closure under the
// function's own name so that recursion works; the definition site becomes an
// assignment of the closure to that name.
func (c *converter) convertDef(n *ast.FuncDef) ast.Stmt {
	freeVars := FreeVars(n.Params, n.Body)
	fvsName := c.names.TempPrefix("fvs")
	globalName := c.names.LambdaName(baseName(n.Name))

	body := c.stmts(n.Body)

	closure := &ast.CreateClosure{Fun: &ast.Name{Ident: globalName}, FreeVars: freeVarList(freeVars)}

	var selfBind ast.Stmt
	if c.boxed[n.Name] {
		selfBind = &ast.Assign{
			Target: &ast.Name{Ident: n.Name},
			Value:  &ast.ListLit{Elems: []ast.Expr{closure}},
		}
	} else {
		selfBind = &ast.Assign{Target: &ast.Name{Ident: n.Name}, Value: closure}
	}

	c.lift(globalName, fvsName, n.Params, freeVars, []ast.Stmt{selfBind}, body)

	var target ast.Expr = &ast.Name{Ident: n.Name}
	if c.boxed[n.Name] {
		target = &ast.Subscript{Target: &ast.Name{Ident: n.Name}, Index: &ast.Const{Value: 0}}
	}
	return &ast.Assign{
		Target: target,
		Value:  &ast.CreateClosure{Fun: &ast.Name{Ident: globalName}, FreeVars: freeVarList(freeVars)},
	}
}

func (c *converter) expr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.Lambda:
		return c.convertLambda(n)
	case *ast.Call:
		return c.convertCall(n)
	case *ast.Add:
		return &ast.Add{Left: c.expr(n.Left), Right: c.expr(n.Right)}
	case *ast.UnarySub:
		return &ast.UnarySub{Operand: c.expr(n.Operand)}
	case *ast.Compare:
		return &ast.Compare{Left: c.expr(n.Left), Op: n.Op, Right: c.expr(n.Right)}
	case *ast.And:
		return &ast.And{Operands: c.exprs(n.Operands)}
	case *ast.Or:
		return &ast.Or{Operands: c.exprs(n.Operands)}
	case *ast.Not:
		return &ast.Not{Operand: c.expr(n.Operand)}
	case *ast.IfExp:
		return &ast.IfExp{Cond: c.expr(n.Cond), Then: c.expr(n.Then), Else: c.expr(n.Else)}
	case *ast.ListLit:
		return &ast.ListLit{Elems: c.exprs(n.Elems)}
	case *ast.DictLit:
		return &ast.DictLit{Keys: c.exprs(n.Keys), Values: c.exprs(n.Values)}
	case *ast.Subscript:
		return &ast.Subscript{Target: c.expr(n.Target), Index: c.expr(n.Index)}
	case *ast.Let:
		return &ast.Let{Var: n.Var, Rhs: c.expr(n.Rhs), Body: c.expr(n.Body)}
	}
	return e
}

func (c *converter) exprs(es []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(es))
	for i, e := range es {
		out[i] = c.expr(e)
	}
	return out
}

// convertLambda lifts a lambda and yields the closure-creation expression.
// The closure is also bound to the global name in main so that a lambda used
// as a call target resolves.
func (c *converter) convertLambda(n *ast.Lambda) ast.Expr {
	freeVars := FreeVarsExpr(n.Params, n.Body)
	fvsName := c.names.TempPrefix("fvs")
	globalName := c.names.LambdaName("")

	var prologue []ast.Stmt
	body := n.Body
	for {
		// heapify may have wrapped reboxing lets around the body
		let, ok := body.(*ast.Let)
		if !ok {
			break
		}
		prologue = append(prologue, &ast.Assign{Target: &ast.Name{Ident: let.Var.Ident}, Value: let.Rhs})
		body = let.Body
	}

	c.lift(globalName, fvsName, n.Params, freeVars, prologue, []ast.Stmt{&ast.Return{Value: c.expr(body)}})

	closure := &ast.CreateClosure{Fun: &ast.Name{Ident: globalName}, FreeVars: freeVarList(freeVars)}
	c.mainInit = append(c.mainInit, &ast.Assign{
		Target: &ast.Name{Ident: globalName},
		Value:  &ast.CreateClosure{Fun: &ast.Name{Ident: globalName}, FreeVars: freeVarList(freeVars)},
	})
	return closure
}

// convertCall rewrites a user call into an indirect call through the closure:
// f(a) becomes get_fun_ptr(f)(get_free_vars(f), a). input() stays direct.
func (c *converter) convertCall(n *ast.Call) ast.Expr {
	if name, ok := n.Fun.(*ast.Name); ok && name.Ident == "input" {
		return &ast.Call{Fun: n.Fun, Args: c.exprs(n.Args)}
	}

	fun := c.expr(n.Fun)
	args := c.exprs(n.Args)

	handle := fun
	if closure, ok := fun.(*ast.CreateClosure); ok {
		// an immediately-invoked lambda: call through its lifted name
		handle = closure.Fun
	}

	callArgs := append([]ast.Expr{&ast.GetFreeVars{Fun: handle}}, args...)
	return &ast.Call{Fun: &ast.GetFunPtr{Fun: handle}, Args: callArgs}
}

// baseName strips the scope suffix added by uniquify, keeping lifted names
// readable: div_1 contributes lambda_div_<n>.
func baseName(name string) string {
	if i := strings.LastIndex(name, "_"); i > 0 {
		return name[:i]
	}
	return name
}
