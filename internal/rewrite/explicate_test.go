// SPDX-License-Identifier: Apache-2.0
package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyrite/internal/ast"
)

func explicateExpr(x ast.Expr) ast.Expr {
	e := &explicator{names: ast.NewNameGen()}
	return e.expr(x)
}

func TestConstantsInjected(t *testing.T) {
	out := explicateExpr(&ast.Const{Value: 7})
	inj, ok := out.(*ast.InjectFrom)
	require.True(t, ok)
	assert.Equal(t, ast.TagInt, inj.Kind)
}

func TestBooleansInjectedAsBits(t *testing.T) {
	out := explicateExpr(&ast.BoolLit{Value: true})
	inj := out.(*ast.InjectFrom)
	assert.Equal(t, ast.TagBool, inj.Kind)
	assert.Equal(t, int64(1), inj.Arg.(*ast.Const).Value)

	out = explicateExpr(&ast.BoolLit{Value: false})
	assert.Equal(t, int64(0), out.(*ast.InjectFrom).Arg.(*ast.Const).Value)
}

func TestConstantAdditionFolds(t *testing.T) {
	out := explicateExpr(&ast.Add{Left: &ast.Const{Value: 1}, Right: &ast.Const{Value: 2}})
	inj := out.(*ast.InjectFrom)
	assert.Equal(t, int64(3), inj.Arg.(*ast.Const).Value)
}

func TestBooleanLiteralCountsAsConstInAddition(t *testing.T) {
	out := explicateExpr(&ast.Add{Left: &ast.BoolLit{Value: true}, Right: &ast.Const{Value: 2}})
	inj := out.(*ast.InjectFrom)
	assert.Equal(t, int64(3), inj.Arg.(*ast.Const).Value)
}

func TestDynamicAdditionBuildsDispatch(t *testing.T) {
	out := explicateExpr(&ast.Add{Left: &ast.Name{Ident: "a"}, Right: &ast.Name{Ident: "b"}})

	let, ok := out.(*ast.Let)
	require.True(t, ok)
	inner, ok := let.Body.(*ast.Let)
	require.True(t, ok)
	dispatch, ok := inner.Body.(*ast.IfExp)
	require.True(t, ok)

	// fast path adds the raw integers
	fast := dispatch.Then.(*ast.InjectFrom)
	assert.Equal(t, ast.TagInt, fast.Kind)
	_, ok = fast.Arg.(*ast.Add)
	assert.True(t, ok)

	// slow path goes through the runtime, fallback raises the type error
	slow, ok := dispatch.Else.(*ast.IfExp)
	require.True(t, ok)
	big := slow.Then.(*ast.InjectFrom)
	assert.Equal(t, ast.TagBig, big.Kind)
	_, ok = big.Arg.(*ast.AddBig)
	assert.True(t, ok)
	_, ok = slow.Else.(*ast.TypeErr)
	assert.True(t, ok)
}

func TestUnarySubInjected(t *testing.T) {
	out := explicateExpr(&ast.UnarySub{Operand: &ast.Name{Ident: "x"}})
	inj := out.(*ast.InjectFrom)
	assert.Equal(t, ast.TagInt, inj.Kind)
	_, ok := inj.Arg.(*ast.UnarySub)
	assert.True(t, ok)
}

func TestCreateClosureInjectedAsBig(t *testing.T) {
	out := explicateExpr(&ast.CreateClosure{
		Fun:      &ast.Name{Ident: "lambda_0"},
		FreeVars: &ast.ListLit{Elems: []ast.Expr{&ast.Name{Ident: "x_0"}}},
	})
	inj := out.(*ast.InjectFrom)
	assert.Equal(t, ast.TagBig, inj.Kind)
	_, ok := inj.Arg.(*ast.CreateClosure)
	assert.True(t, ok)
}

func TestStatementsRecurse(t *testing.T) {
	m := &ast.Module{Body: []ast.Stmt{
		&ast.FuncDef{Name: "main", Body: []ast.Stmt{
			&ast.Print{Value: &ast.Const{Value: 1}},
		}},
	}}
	out := Explicate(m, ast.NewNameGen())

	print := out.Body[0].(*ast.FuncDef).Body[0].(*ast.Print)
	_, ok := print.Value.(*ast.InjectFrom)
	assert.True(t, ok)
}
