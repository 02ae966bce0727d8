// SPDX-License-Identifier: Apache-2.0
package ast

import (
	"fmt"
	"strings"
)

// Print renders a module as Python-ish source. The flattened program dump
// (<base>_flat.py) is produced with this printer.
func Print(m *Module) string {
	var out strings.Builder
	printStmts(&out, m.Body, 0)
	return out.String()
}

func printStmts(out *strings.Builder, stmts []Stmt, indent int) {
	for _, s := range stmts {
		printStmt(out, s, indent)
	}
}

func printStmt(out *strings.Builder, s Stmt, indent int) {
	pad := strings.Repeat(" ", indent)
	switch n := s.(type) {
	case *Assign:
		fmt.Fprintf(out, "%s%s = %s\n", pad, ExprString(n.Target), ExprString(n.Value))
	case *Print:
		fmt.Fprintf(out, "%sprint(%s)\n", pad, ExprString(n.Value))
	case *Discard:
		fmt.Fprintf(out, "%s%s\n", pad, ExprString(n.Value))
	case *If:
		fmt.Fprintf(out, "%sif %s:\n", pad, ExprString(n.Cond))
		printStmts(out, n.Then, indent+4)
		if len(n.Else) > 0 {
			fmt.Fprintf(out, "%selse:\n", pad)
			printStmts(out, n.Else, indent+4)
		}
	case *While:
		fmt.Fprintf(out, "%swhile %s:\n", pad, ExprString(n.Cond))
		printStmts(out, n.Body, indent+4)
	case *Break:
		fmt.Fprintf(out, "%sbreak\n", pad)
	case *Return:
		fmt.Fprintf(out, "%sreturn %s\n", pad, ExprString(n.Value))
	case *FuncDef:
		fmt.Fprintf(out, "%sdef %s(%s):\n", pad, n.Name, strings.Join(n.Params, ", "))
		printStmts(out, n.Body, indent+4)
	}
}

// ExprString renders a single expression.
func ExprString(e Expr) string {
	switch n := e.(type) {
	case *Const:
		return fmt.Sprintf("%d", n.Value)
	case *BoolLit:
		if n.Value {
			return "True"
		}
		return "False"
	case *Name:
		return n.Ident
	case *Add:
		return ExprString(n.Left) + " + " + ExprString(n.Right)
	case *UnarySub:
		return "-" + ExprString(n.Operand)
	case *Compare:
		return ExprString(n.Left) + " " + n.Op + " " + ExprString(n.Right)
	case *And:
		return joinOperands(n.Operands, " and ")
	case *Or:
		return joinOperands(n.Operands, " or ")
	case *Not:
		return "not " + ExprString(n.Operand)
	case *IfExp:
		return ExprString(n.Then) + " if " + ExprString(n.Cond) + " else " + ExprString(n.Else)
	case *ListLit:
		elems := make([]string, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = ExprString(el)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case *DictLit:
		pairs := make([]string, len(n.Keys))
		for i := range n.Keys {
			pairs[i] = ExprString(n.Keys[i]) + ": " + ExprString(n.Values[i])
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	case *Subscript:
		return ExprString(n.Target) + "[" + ExprString(n.Index) + "]"
	case *Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = ExprString(a)
		}
		return ExprString(n.Fun) + "(" + strings.Join(args, ", ") + ")"
	case *Lambda:
		return "lambda " + strings.Join(n.Params, ", ") + ": " + ExprString(n.Body)
	case *InjectFrom:
		return fmt.Sprintf("inject_%s(%s)", n.Kind, ExprString(n.Arg))
	case *ProjectTo:
		return fmt.Sprintf("project_%s(%s)", n.Kind, ExprString(n.Arg))
	case *Let:
		return fmt.Sprintf("let %s = %s in %s", n.Var.Ident, ExprString(n.Rhs), ExprString(n.Body))
	case *IsInt:
		return "is_int(" + ExprString(n.Arg) + ")"
	case *IsBool:
		return "is_bool(" + ExprString(n.Arg) + ")"
	case *IsBig:
		return "is_big(" + ExprString(n.Arg) + ")"
	case *IsTrue:
		return "is_true(" + ExprString(n.Arg) + ")"
	case *AddBig:
		return "add(" + ExprString(n.Left) + ", " + ExprString(n.Right) + ")"
	case *TypeErr:
		return "error_pyobj(0)"
	case *GetFunPtr:
		return "get_fun_ptr(" + ExprString(n.Fun) + ")"
	case *GetFreeVars:
		return "get_free_vars(" + ExprString(n.Fun) + ")"
	case *CreateClosure:
		return "create_closure(" + ExprString(n.Fun) + ", " + ExprString(n.FreeVars) + ")"
	}
	return ""
}

func joinOperands(ops []Expr, sep string) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = ExprString(op)
	}
	return strings.Join(parts, sep)
}
