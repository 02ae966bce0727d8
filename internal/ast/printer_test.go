// SPDX-License-Identifier: Apache-2.0
package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintStatements(t *testing.T) {
	m := &Module{Body: []Stmt{
		&Assign{Target: &Name{Ident: "x_0"}, Value: &Const{Value: 5}},
		&Print{Value: &Name{Ident: "x_0"}},
		&If{
			Cond: &Name{Ident: "t_1"},
			Then: []Stmt{&Assign{Target: &Name{Ident: "y_0"}, Value: &Const{Value: 1}}},
			Else: []Stmt{&Break{}},
		},
	}}

	out := Print(m)
	assert.Equal(t, "x_0 = 5\nprint(x_0)\nif t_1:\n    y_0 = 1\nelse:\n    break\n", out)
}

func TestPrintFunctionDef(t *testing.T) {
	m := &Module{Body: []Stmt{
		&FuncDef{Name: "lambda_0", Params: []string{"fvs_1", "n_1"}, Body: []Stmt{
			&Return{Value: &Name{Ident: "n_1"}},
		}},
	}}
	assert.Equal(t, "def lambda_0(fvs_1, n_1):\n    return n_1\n", Print(m))
}

func TestExprStrings(t *testing.T) {
	assert.Equal(t, "a + b", ExprString(&Add{Left: &Name{Ident: "a"}, Right: &Name{Ident: "b"}}))
	assert.Equal(t, "-x", ExprString(&UnarySub{Operand: &Name{Ident: "x"}}))
	assert.Equal(t, "a == b", ExprString(&Compare{Left: &Name{Ident: "a"}, Op: "==", Right: &Name{Ident: "b"}}))
	assert.Equal(t, "[1, 2]", ExprString(&ListLit{Elems: []Expr{&Const{Value: 1}, &Const{Value: 2}}}))
	assert.Equal(t, "{1: 2}", ExprString(&DictLit{Keys: []Expr{&Const{Value: 1}}, Values: []Expr{&Const{Value: 2}}}))
	assert.Equal(t, "l[0]", ExprString(&Subscript{Target: &Name{Ident: "l"}, Index: &Const{Value: 0}}))
	assert.Equal(t, "f(1)", ExprString(&Call{Fun: &Name{Ident: "f"}, Args: []Expr{&Const{Value: 1}}}))
	assert.Equal(t, "inject_int(3)", ExprString(&InjectFrom{Kind: TagInt, Arg: &Const{Value: 3}}))
	assert.Equal(t, "is_true(x)", ExprString(&IsTrue{Arg: &Name{Ident: "x"}}))
	assert.Equal(t, "x if c else y", ExprString(&IfExp{
		Cond: &Name{Ident: "c"}, Then: &Name{Ident: "x"}, Else: &Name{Ident: "y"},
	}))
}

func TestNameGenDeterministic(t *testing.T) {
	g := NewNameGen()
	assert.Equal(t, "tmp_1", g.Temp())
	assert.Equal(t, "tmp_2", g.Temp())
	assert.Equal(t, "fvs_3", g.TempPrefix("fvs"))
	assert.Equal(t, "lambda_0", g.LambdaName(""))
	assert.Equal(t, "lambda_div_1", g.LambdaName("div"))

	fresh := NewNameGen()
	assert.Equal(t, "tmp_1", fresh.Temp())
}
