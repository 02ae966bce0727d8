// SPDX-License-Identifier: Apache-2.0
package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyrite/internal/ast"
)

func TestFreeVarsOrderAndBinding(t *testing.T) {
	body := []ast.Stmt{
		&ast.Assign{Target: &ast.Name{Ident: "local"}, Value: &ast.Name{Ident: "outer1"}},
		&ast.Return{Value: &ast.Add{Left: &ast.Name{Ident: "outer2"}, Right: &ast.Name{Ident: "local"}}},
	}
	free := FreeVars([]string{"p"}, body)
	assert.Equal(t, []string{"outer1", "outer2"}, free)
}

func TestFreeVarsNestedFunctionPropagates(t *testing.T) {
	body := []ast.Stmt{
		&ast.FuncDef{Name: "inner", Params: nil, Body: []ast.Stmt{
			&ast.Return{Value: &ast.Name{Ident: "captured"}},
		}},
		&ast.Return{Value: &ast.Name{Ident: "inner"}},
	}
	free := FreeVars(nil, body)
	assert.Equal(t, []string{"captured"}, free)
}

func TestFreeVarsLambda(t *testing.T) {
	free := FreeVarsExpr([]string{"n"}, &ast.Add{
		Left:  &ast.Name{Ident: "n"},
		Right: &ast.Name{Ident: "outer"},
	})
	assert.Equal(t, []string{"outer"}, free)
}

func TestHeapVarsCollectsCapturedNames(t *testing.T) {
	m := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Target: &ast.Name{Ident: "x_0"}, Value: &ast.Const{Value: 1}},
		&ast.Assign{Target: &ast.Name{Ident: "f_0"}, Value: &ast.Lambda{
			Params: []string{"n_1"},
			Body:   &ast.Add{Left: &ast.Name{Ident: "n_1"}, Right: &ast.Name{Ident: "x_0"}},
		}},
	}}
	assert.Equal(t, []string{"x_0"}, HeapVars(m))
}

func TestHeapifyRewritesReadsAndWrites(t *testing.T) {
	m := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Target: &ast.Name{Ident: "x_0"}, Value: &ast.Const{Value: 1}},
		&ast.Print{Value: &ast.Name{Ident: "x_0"}},
	}}
	out := Heapify(m, []string{"x_0"})

	// initializer first: x_0 = [0]
	init := out.Body[0].(*ast.Assign)
	assert.Equal(t, "x_0", init.Target.(*ast.Name).Ident)
	list, ok := init.Value.(*ast.ListLit)
	require.True(t, ok)
	require.Len(t, list.Elems, 1)

	// the write becomes x_0[0] = 1
	write := out.Body[1].(*ast.Assign)
	sub, ok := write.Target.(*ast.Subscript)
	require.True(t, ok)
	assert.Equal(t, "x_0", sub.Target.(*ast.Name).Ident)

	// the read becomes x_0[0]
	read, ok := out.Body[2].(*ast.Print).Value.(*ast.Subscript)
	require.True(t, ok)
	assert.Equal(t, "x_0", read.Target.(*ast.Name).Ident)
}

func TestHeapifyReboxesFunctionParam(t *testing.T) {
	m := &ast.Module{Body: []ast.Stmt{
		&ast.FuncDef{Name: "f_0", Params: []string{"n_1"}, Body: []ast.Stmt{
			&ast.Return{Value: &ast.Name{Ident: "n_1"}},
		}},
	}}
	out := Heapify(m, []string{"n_1"})

	def := out.Body[1].(*ast.FuncDef)
	rebox := def.Body[0].(*ast.Assign)
	assert.Equal(t, "n_1", rebox.Target.(*ast.Name).Ident)
	boxed, ok := rebox.Value.(*ast.ListLit)
	require.True(t, ok)
	// the initializer reads the raw incoming parameter
	assert.Equal(t, "n_1", boxed.Elems[0].(*ast.Name).Ident)

	// the body read goes through the box
	_, ok = def.Body[1].(*ast.Return).Value.(*ast.Subscript)
	assert.True(t, ok)
}

func TestHeapifyReboxesLambdaParamWithLet(t *testing.T) {
	m := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Target: &ast.Name{Ident: "f_0"}, Value: &ast.Lambda{
			Params: []string{"n_1"},
			Body:   &ast.Name{Ident: "n_1"},
		}},
	}}
	out := Heapify(m, []string{"n_1"})

	lam := out.Body[1].(*ast.Assign).Value.(*ast.Lambda)
	let, ok := lam.Body.(*ast.Let)
	require.True(t, ok)
	assert.Equal(t, "n_1", let.Var.Ident)
	_, ok = let.Body.(*ast.Subscript)
	assert.True(t, ok)
}
