// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"fmt"

	"pyrite/grammar"
	"pyrite/internal/ast"
)

// Lower converts the participle parse tree into the compiler AST. The parse
// tree mirrors the grammar's precedence ladder; lowering collapses it into
// the sum-type nodes the rewrite passes traverse.
func Lower(p *grammar.Program) (*ast.Module, error) {
	body, err := lowerStatements(p.Statements)
	if err != nil {
		return nil, err
	}
	return &ast.Module{Body: body}, nil
}

func lowerStatements(stmts []*grammar.Statement) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		lowered, err := lowerStatement(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered)
	}
	return out, nil
}

func lowerStatement(s *grammar.Statement) (ast.Stmt, error) {
	switch {
	case s.If != nil:
		cond, err := lowerExpr(s.If.Cond)
		if err != nil {
			return nil, err
		}
		then, err := lowerSuite(s.If.Then)
		if err != nil {
			return nil, err
		}
		var els []ast.Stmt
		if s.If.Else != nil {
			if els, err = lowerSuite(s.If.Else); err != nil {
				return nil, err
			}
		}
		return &ast.If{Cond: cond, Then: then, Else: els}, nil
	case s.While != nil:
		cond, err := lowerExpr(s.While.Cond)
		if err != nil {
			return nil, err
		}
		body, err := lowerSuite(s.While.Body)
		if err != nil {
			return nil, err
		}
		return &ast.While{Cond: cond, Body: body}, nil
	case s.Def != nil:
		body, err := lowerSuite(s.Def.Body)
		if err != nil {
			return nil, err
		}
		return &ast.FuncDef{Name: s.Def.Name, Params: s.Def.Params, Body: body}, nil
	case s.Simple != nil:
		return lowerSimple(s.Simple)
	}
	return nil, fmt.Errorf("empty statement")
}

func lowerSuite(s *grammar.Suite) ([]ast.Stmt, error) {
	if s.Simple != nil {
		stmt, err := lowerSimple(s.Simple)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{stmt}, nil
	}
	return lowerStatements(s.Block)
}

func lowerSimple(s *grammar.SimpleStmt) (ast.Stmt, error) {
	switch {
	case s.Print != nil:
		value, err := lowerExpr(s.Print.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Print{Value: value}, nil
	case s.Return != nil:
		value, err := lowerExpr(s.Return.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Value: value}, nil
	case s.Break:
		return &ast.Break{}, nil
	case s.Expr != nil:
		expr, err := lowerExpr(s.Expr.Expr)
		if err != nil {
			return nil, err
		}
		if s.Expr.Value == nil {
			return &ast.Discard{Value: expr}, nil
		}
		value, err := lowerExpr(s.Expr.Value)
		if err != nil {
			return nil, err
		}
		switch expr.(type) {
		case *ast.Name, *ast.Subscript:
			return &ast.Assign{Target: expr, Value: value}, nil
		}
		return nil, fmt.Errorf("cannot assign to %s", ast.ExprString(expr))
	}
	return nil, fmt.Errorf("empty statement")
}

func lowerExpr(e *grammar.Expr) (ast.Expr, error) {
	if e.Lambda != nil {
		body, err := lowerExpr(e.Lambda.Body)
		if err != nil {
			return nil, err
		}
		return &ast.Lambda{Params: e.Lambda.Params, Body: body}, nil
	}
	return lowerTernary(e.Ternary)
}

func lowerTernary(t *grammar.Ternary) (ast.Expr, error) {
	value, err := lowerOr(t.Value)
	if err != nil {
		return nil, err
	}
	if t.Suffix == nil {
		return value, nil
	}
	cond, err := lowerOr(t.Suffix.Cond)
	if err != nil {
		return nil, err
	}
	els, err := lowerExpr(t.Suffix.Else)
	if err != nil {
		return nil, err
	}
	return &ast.IfExp{Cond: cond, Then: value, Else: els}, nil
}

func lowerOr(o *grammar.OrExpr) (ast.Expr, error) {
	first, err := lowerAnd(o.First)
	if err != nil {
		return nil, err
	}
	if len(o.Rest) == 0 {
		return first, nil
	}
	operands := []ast.Expr{first}
	for _, r := range o.Rest {
		next, err := lowerAnd(r)
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	return &ast.Or{Operands: operands}, nil
}

func lowerAnd(a *grammar.AndExpr) (ast.Expr, error) {
	first, err := lowerNot(a.First)
	if err != nil {
		return nil, err
	}
	if len(a.Rest) == 0 {
		return first, nil
	}
	operands := []ast.Expr{first}
	for _, r := range a.Rest {
		next, err := lowerNot(r)
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	return &ast.And{Operands: operands}, nil
}

func lowerNot(n *grammar.NotExpr) (ast.Expr, error) {
	if n.Not != nil {
		inner, err := lowerNot(n.Not)
		if err != nil {
			return nil, err
		}
		return &ast.Not{Operand: inner}, nil
	}
	return lowerCmp(n.Cmp)
}

func lowerCmp(c *grammar.CmpExpr) (ast.Expr, error) {
	left, err := lowerAdd(c.Left)
	if err != nil {
		return nil, err
	}
	// chained comparisons associate left, matching the original pipeline
	for _, op := range c.Ops {
		right, err := lowerAdd(op.Right)
		if err != nil {
			return nil, err
		}
		left = &ast.Compare{Left: left, Op: op.Op, Right: right}
	}
	return left, nil
}

func lowerAdd(a *grammar.AddExpr) (ast.Expr, error) {
	left, err := lowerUnary(a.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range a.Rest {
		right, err := lowerUnary(r)
		if err != nil {
			return nil, err
		}
		left = &ast.Add{Left: left, Right: right}
	}
	return left, nil
}

func lowerUnary(u *grammar.UnaryExpr) (ast.Expr, error) {
	if u.Minus != nil {
		inner, err := lowerUnary(u.Minus)
		if err != nil {
			return nil, err
		}
		return &ast.UnarySub{Operand: inner}, nil
	}
	return lowerPostfix(u.Post)
}

func lowerPostfix(p *grammar.PostfixExpr) (ast.Expr, error) {
	expr, err := lowerPrimary(p.Primary)
	if err != nil {
		return nil, err
	}
	for _, t := range p.Trailers {
		switch {
		case t.Call != nil:
			args := make([]ast.Expr, 0, len(t.Call.Args))
			for _, a := range t.Call.Args {
				arg, err := lowerExpr(a)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
			}
			expr = &ast.Call{Fun: expr, Args: args}
		case t.Index != nil:
			index, err := lowerExpr(t.Index.Index)
			if err != nil {
				return nil, err
			}
			expr = &ast.Subscript{Target: expr, Index: index}
		}
	}
	return expr, nil
}

func lowerPrimary(p *grammar.Primary) (ast.Expr, error) {
	switch {
	case p.Int != nil:
		return &ast.Const{Value: *p.Int}, nil
	case p.True:
		return &ast.BoolLit{Value: true}, nil
	case p.False:
		return &ast.BoolLit{Value: false}, nil
	case p.List != nil:
		elems := make([]ast.Expr, 0, len(p.List.Elems))
		for _, e := range p.List.Elems {
			el, err := lowerExpr(e)
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
		}
		return &ast.ListLit{Elems: elems}, nil
	case p.Dict != nil:
		keys := make([]ast.Expr, 0, len(p.Dict.Items))
		values := make([]ast.Expr, 0, len(p.Dict.Items))
		for _, item := range p.Dict.Items {
			k, err := lowerExpr(item.Key)
			if err != nil {
				return nil, err
			}
			v, err := lowerExpr(item.Value)
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			values = append(values, v)
		}
		return &ast.DictLit{Keys: keys, Values: values}, nil
	case p.Name != nil:
		return &ast.Name{Ident: *p.Name}, nil
	case p.Paren != nil:
		return lowerExpr(p.Paren)
	}
	return nil, fmt.Errorf("empty expression")
}
