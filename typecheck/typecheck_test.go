package typecheck

import (
	"errors"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/types"
)

func name(id string) *ast.Name { return &ast.Name{ID: id} }

func intLit(v int64) *ast.Int { return &ast.Int{Value: v} }

func strLit(v string) *ast.Str { return &ast.Str{Value: v} }

func inferExpr(t *testing.T, env *Env, expr ast.Expr) types.Type {
	t.Helper()
	typ, err := Infer(env, expr)
	assert.NoError(t, err)
	return typ
}

func TestLiteralInference(t *testing.T) {
	env := NewEnv()
	tests := []struct {
		expr ast.Expr
		want types.Type
	}{
		{intLit(42), types.Int},
		{&ast.Float{Value: 3.14}, types.Float},
		{strLit("hi"), types.Str},
		{&ast.Bool{Value: true}, types.Bool},
		{&ast.NoneLiteral{}, types.None},
		{&ast.List{Elts: []ast.Expr{intLit(1), intLit(2)}}, types.NewList(types.Int)},
		{&ast.List{}, types.NewList(types.Any)},
		{&ast.Tuple{Elts: []ast.Expr{intLit(1), strLit("a")}}, types.NewTuple(types.Int, types.Str)},
		{
			&ast.Dict{Keys: []ast.Expr{strLit("k")}, Values: []ast.Expr{intLit(1)}},
			types.NewDict(types.Str, types.Int),
		},
	}
	for _, tt := range tests {
		got := inferExpr(t, env, tt.expr)
		assert.True(t, types.Equal(got, tt.want), "%s: got %s, want %s", tt.expr, got, tt.want)
	}
}

func TestHeterogeneousListFallsBackToAny(t *testing.T) {
	env := NewEnv()
	got := inferExpr(t, env, &ast.List{Elts: []ast.Expr{
		intLit(1), &ast.NoneLiteral{},
	}})
	// Int and None have no common supertype, so the element degrades.
	assert.True(t, types.Equal(got, types.NewList(types.Any)), "got %s", got)
}

func TestBinOpInference(t *testing.T) {
	env := NewEnv()
	env.DefineVariable("f", types.Float)
	env.DefineVariable("xs", types.NewList(types.Int))
	tests := []struct {
		left  ast.Expr
		op    string
		right ast.Expr
		want  types.Type
	}{
		{intLit(1), "+", intLit(2), types.Int},
		{intLit(1), "+", name("f"), types.Float},
		{intLit(7), "/", intLit(2), types.Float},
		{intLit(7), "//", intLit(2), types.Int},
		{strLit("a"), "+", strLit("b"), types.Str},
		{strLit("ab"), "*", intLit(3), types.Str},
		{intLit(3), "*", strLit("ab"), types.Str},
		{name("xs"), "+", &ast.List{Elts: []ast.Expr{intLit(1)}}, types.NewList(types.Int)},
		{intLit(6), "&", intLit(3), types.Int},
		{intLit(1), "<<", intLit(4), types.Int},
	}
	for _, tt := range tests {
		got := inferExpr(t, env, &ast.BinOp{Left: tt.left, Op: tt.op, Right: tt.right})
		assert.True(t, types.Equal(got, tt.want),
			"%s %s %s: got %s, want %s", tt.left, tt.op, tt.right, got, tt.want)
	}
}

func TestBinOpRejectsMismatches(t *testing.T) {
	env := NewEnv()
	cases := []*ast.BinOp{
		{Left: strLit("a"), Op: "-", Right: intLit(1)},
		{Left: strLit("a"), Op: "&", Right: strLit("b")},
		{Left: intLit(1), Op: "@", Right: intLit(2)},
	}
	for _, expr := range cases {
		_, err := Infer(env, expr)
		var opErr *types.InvalidOperatorError
		assert.True(t, errors.As(err, &opErr), "%s should be rejected", expr)
	}
}

func TestAnyOperandSuppressesOperatorErrors(t *testing.T) {
	env := NewEnv()
	env.DefineVariable("x", types.Any)
	got := inferExpr(t, env, &ast.BinOp{Left: name("x"), Op: "-", Right: strLit("s")})
	assert.True(t, types.Equal(got, types.Any))
}

func TestCompareInference(t *testing.T) {
	env := NewEnv()
	env.DefineVariable("xs", types.NewList(types.Int))
	got := inferExpr(t, env, &ast.Compare{
		Left:        intLit(1),
		Ops:         []string{"<"},
		Comparators: []ast.Expr{intLit(2)},
	})
	assert.True(t, types.Equal(got, types.Bool))

	got = inferExpr(t, env, &ast.Compare{
		Left:        intLit(1),
		Ops:         []string{"in"},
		Comparators: []ast.Expr{name("xs")},
	})
	assert.True(t, types.Equal(got, types.Bool))

	_, err := Infer(env, &ast.Compare{
		Left:        strLit("a"),
		Ops:         []string{"<"},
		Comparators: []ast.Expr{intLit(1)},
	})
	assert.Error(t, err)
}

func TestUndefinedVariable(t *testing.T) {
	env := NewEnv()
	_, err := Infer(env, name("missing"))
	var undefErr *types.UndefinedVariableError
	assert.True(t, errors.As(err, &undefErr))
	assert.Equal(t, undefErr.Name, "missing")
}

func TestSubscriptInference(t *testing.T) {
	env := NewEnv()
	env.DefineVariable("xs", types.NewList(types.Str))
	env.DefineVariable("d", types.NewDict(types.Str, types.Int))

	got := inferExpr(t, env, &ast.Subscript{Value: name("xs"), Index: intLit(0)})
	assert.True(t, types.Equal(got, types.Str))

	got = inferExpr(t, env, &ast.Subscript{Value: name("d"), Index: strLit("k")})
	assert.True(t, types.Equal(got, types.Int))

	// Slicing preserves the container type.
	got = inferExpr(t, env, &ast.Subscript{
		Value: name("xs"),
		Index: &ast.SliceExpr{Lower: intLit(1)},
	})
	assert.True(t, types.Equal(got, types.NewList(types.Str)))
}

func TestBuiltinCalls(t *testing.T) {
	env := NewEnv()
	env.DefineVariable("xs", types.NewList(types.Str))
	tests := []struct {
		fn   string
		args []ast.Expr
		want types.Type
	}{
		{"len", []ast.Expr{name("xs")}, types.Int},
		{"str", []ast.Expr{intLit(1)}, types.Str},
		{"range", []ast.Expr{intLit(10)}, types.RangeIter},
		{"print", []ast.Expr{strLit("hi")}, types.None},
		{"list", []ast.Expr{name("xs")}, types.NewList(types.Str)},
		{"set", []ast.Expr{name("xs")}, types.NewSet(types.Str)},
	}
	for _, tt := range tests {
		got := inferExpr(t, env, &ast.Call{Func: name(tt.fn), Args: tt.args})
		assert.True(t, types.Equal(got, tt.want), "%s: got %s, want %s", tt.fn, got, tt.want)
	}
}

func TestRangeRejectsNonIntArgs(t *testing.T) {
	env := NewEnv()
	_, err := Infer(env, &ast.Call{Func: name("range"), Args: []ast.Expr{
		&ast.Float{Value: 1.5},
	}})
	var argErr *types.InvalidArgumentError
	assert.True(t, errors.As(err, &argErr))
}

func TestCallRefinesParameterTypes(t *testing.T) {
	env := NewEnv()
	fn := types.NewFunction(
		[]types.Type{types.Any},
		[]string{"x"},
		types.Int,
	)
	env.DefineFunction("double", fn)

	got := inferExpr(t, env, &ast.Call{Func: name("double"), Args: []ast.Expr{intLit(2)}})
	assert.True(t, types.Equal(got, types.Int))

	refined, ok := env.LookupFunction("double")
	assert.True(t, ok)
	refinedFn := refined.(*types.FunctionType)
	assert.True(t, types.Equal(refinedFn.ParamTypes[0], types.Int),
		"parameter should be refined to int, got %s", refinedFn.ParamTypes[0])
}

func TestCallArityErrors(t *testing.T) {
	env := NewEnv()
	fn := types.NewFunction([]types.Type{types.Int, types.Int}, []string{"a", "b"}, types.Int)
	fn.SetDefault(1)
	env.DefineFunction("f", fn)

	// One required plus one defaulted parameter: 1 and 2 args are fine.
	for _, n := range []int{1, 2} {
		args := make([]ast.Expr, n)
		for i := range args {
			args[i] = intLit(int64(i))
		}
		_, err := Infer(env, &ast.Call{Func: name("f"), Args: args})
		assert.NoError(t, err, "%d args", n)
	}

	_, err := Infer(env, &ast.Call{Func: name("f"), Args: nil})
	var countErr *types.WrongArgumentCountError
	assert.True(t, errors.As(err, &countErr))

	_, err = Infer(env, &ast.Call{Func: name("f"), Args: []ast.Expr{
		intLit(1), intLit(2), intLit(3),
	}})
	assert.True(t, errors.As(err, &countErr))
}

func TestDictMethodInference(t *testing.T) {
	env := NewEnv()
	env.DefineVariable("d", types.NewDict(types.Str, types.Int))

	call := func(method string) ast.Expr {
		return &ast.Call{Func: &ast.Attribute{Value: name("d"), Attr: method}}
	}
	assert.True(t, types.Equal(inferExpr(t, env, call("keys")), types.NewList(types.Str)))
	assert.True(t, types.Equal(inferExpr(t, env, call("values")), types.NewList(types.Int)))
	assert.True(t, types.Equal(inferExpr(t, env, call("items")),
		types.NewList(types.NewTuple(types.Str, types.Int))))
}

func TestIfExpUnifiesBranches(t *testing.T) {
	env := NewEnv()
	got := inferExpr(t, env, &ast.IfExp{
		Test:   &ast.Bool{Value: true},
		Body:   intLit(1),
		OrElse: &ast.Float{Value: 2.0},
	})
	assert.True(t, types.Equal(got, types.Float), "got %s", got)
}

func TestListCompInference(t *testing.T) {
	env := NewEnv()
	got := inferExpr(t, env, &ast.ListComp{
		Elt: &ast.BinOp{Left: name("i"), Op: "*", Right: intLit(2)},
		Generators: []*ast.Comprehension{{
			Target: name("i"),
			Iter:   &ast.Call{Func: name("range"), Args: []ast.Expr{intLit(10)}},
		}},
	})
	assert.True(t, types.Equal(got, types.NewList(types.Int)), "got %s", got)

	// The loop variable must not leak out of the comprehension.
	_, err := Infer(env, name("i"))
	assert.Error(t, err)
}

func checkModule(stmts ...ast.Stmt) (*Env, error) {
	return Check(&ast.Module{Stmts: stmts})
}

func TestCheckAssignTracksTypes(t *testing.T) {
	env, err := checkModule(
		&ast.Assign{Targets: []ast.Expr{name("x")}, Value: intLit(1)},
		&ast.Assign{Targets: []ast.Expr{name("y")}, Value: &ast.BinOp{
			Left: name("x"), Op: "+", Right: &ast.Float{Value: 0.5},
		}},
	)
	assert.NoError(t, err)
	x, _ := env.LookupVariable("x")
	y, _ := env.LookupVariable("y")
	assert.True(t, types.Equal(x, types.Int))
	assert.True(t, types.Equal(y, types.Float))
}

func TestCheckReassignmentWidens(t *testing.T) {
	env, err := checkModule(
		&ast.Assign{Targets: []ast.Expr{name("x")}, Value: intLit(1)},
		&ast.Assign{Targets: []ast.Expr{name("x")}, Value: &ast.Float{Value: 2.5}},
	)
	assert.NoError(t, err)
	x, _ := env.LookupVariable("x")
	assert.True(t, types.Equal(x, types.Float), "got %s", x)
}

func TestCheckTupleDestructuring(t *testing.T) {
	env, err := checkModule(
		&ast.Assign{
			Targets: []ast.Expr{&ast.Tuple{Elts: []ast.Expr{name("a"), name("b")}}},
			Value:   &ast.Tuple{Elts: []ast.Expr{intLit(1), strLit("s")}},
		},
	)
	assert.NoError(t, err)
	a, _ := env.LookupVariable("a")
	b, _ := env.LookupVariable("b")
	assert.True(t, types.Equal(a, types.Int))
	assert.True(t, types.Equal(b, types.Str))
}

func TestCheckAnnAssign(t *testing.T) {
	_, err := checkModule(&ast.AnnAssign{
		Target:     name("x"),
		Annotation: name("int"),
		Value:      strLit("not an int"),
	})
	assert.Error(t, err)

	env, err := checkModule(&ast.AnnAssign{
		Target: name("xs"),
		Annotation: &ast.Subscript{
			Value: name("list"),
			Index: name("int"),
		},
	})
	assert.NoError(t, err)
	xs, _ := env.LookupVariable("xs")
	assert.True(t, types.Equal(xs, types.NewList(types.Int)), "got %s", xs)
}

func TestCheckForLoopBindsElementType(t *testing.T) {
	env, err := checkModule(
		&ast.Assign{
			Targets: []ast.Expr{name("xs")},
			Value:   &ast.List{Elts: []ast.Expr{strLit("a"), strLit("b")}},
		},
		&ast.For{
			Target: name("s"),
			Iter:   name("xs"),
			Body: []ast.Stmt{
				&ast.Assign{Targets: []ast.Expr{name("last")}, Value: name("s")},
			},
		},
	)
	assert.NoError(t, err)
	last, _ := env.LookupVariable("last")
	assert.True(t, types.Equal(last, types.Str), "got %s", last)
}

func TestCheckFunctionDef(t *testing.T) {
	env, err := checkModule(&ast.FunctionDef{
		Name: "add",
		Params: []*ast.Param{
			{Name: "a", Annotation: name("int")},
			{Name: "b", Annotation: name("int")},
		},
		Returns: name("int"),
		Body: []ast.Stmt{
			&ast.Return{Value: &ast.BinOp{Left: name("a"), Op: "+", Right: name("b")}},
		},
	})
	assert.NoError(t, err)
	fnType, ok := env.LookupFunction("add")
	assert.True(t, ok)
	fn := fnType.(*types.FunctionType)
	assert.Len(t, fn.ParamTypes, 2)
	assert.True(t, types.Equal(fn.Return, types.Int))
}

func TestCheckReturnTypeMismatch(t *testing.T) {
	_, err := checkModule(&ast.FunctionDef{
		Name:    "bad",
		Returns: name("int"),
		Body: []ast.Stmt{
			&ast.Return{Value: &ast.List{}},
		},
	})
	assert.Error(t, err)
	var incompat *types.IncompatibleTypesError
	assert.True(t, errors.As(err, &incompat))
}

func TestCheckHoistsMutualRecursion(t *testing.T) {
	_, err := checkModule(
		&ast.FunctionDef{
			Name:   "even",
			Params: []*ast.Param{{Name: "n", Annotation: name("int")}},
			Body: []ast.Stmt{
				&ast.Return{Value: &ast.Call{Func: name("odd"), Args: []ast.Expr{name("n")}}},
			},
		},
		&ast.FunctionDef{
			Name:   "odd",
			Params: []*ast.Param{{Name: "n", Annotation: name("int")}},
			Body: []ast.Stmt{
				&ast.Return{Value: &ast.Call{Func: name("even"), Args: []ast.Expr{name("n")}}},
			},
		},
	)
	assert.NoError(t, err)
}

func TestCheckClassDef(t *testing.T) {
	env, err := checkModule(&ast.ClassDef{
		Name: "Point",
		Body: []ast.Stmt{
			&ast.AnnAssign{Target: name("x"), Annotation: name("float")},
			&ast.AnnAssign{Target: name("y"), Annotation: name("float")},
			&ast.FunctionDef{
				Name:    "norm",
				Params:  []*ast.Param{{Name: "self"}},
				Returns: name("float"),
				Body: []ast.Stmt{
					&ast.Return{Value: &ast.Attribute{Value: name("self"), Attr: "x"}},
				},
			},
		},
	})
	assert.NoError(t, err)
	clsType, ok := env.LookupClass("Point")
	assert.True(t, ok)
	cls := clsType.(*types.ClassType)
	x, ok := cls.Field("x")
	assert.True(t, ok)
	assert.True(t, types.Equal(x, types.Float))
	_, ok = cls.Method("norm")
	assert.True(t, ok)
}

func TestCheckAccumulatesMultipleErrors(t *testing.T) {
	_, err := checkModule(
		&ast.ExprStmt{Value: name("undefined_one")},
		&ast.ExprStmt{Value: name("undefined_two")},
	)
	assert.Error(t, err)
	var undef *types.UndefinedVariableError
	assert.True(t, errors.As(err, &undef))

	var diag *Diagnostic
	assert.True(t, errors.As(err, &diag))
}

func TestUndefinedVariableSuggestsNearMiss(t *testing.T) {
	_, err := checkModule(
		&ast.Assign{Targets: []ast.Expr{name("total")}, Value: intLit(0)},
		&ast.ExprStmt{Value: name("totl")},
	)
	assert.Error(t, err)
	var undef *types.UndefinedVariableError
	assert.True(t, errors.As(err, &undef))
	assert.Equal(t, undef.Name, "totl")
	assert.Contains(t, err.Error(), "Did you mean 'total'?")
}

func TestUndefinedVariableWithoutNearMissHasNoHint(t *testing.T) {
	_, err := checkModule(&ast.ExprStmt{Value: name("qqqq")})
	assert.Error(t, err)
	var undef *types.UndefinedVariableError
	assert.True(t, errors.As(err, &undef))
	assert.Equal(t, undef.Hint, "")
}

func TestCheckAugAssign(t *testing.T) {
	env, err := checkModule(
		&ast.Assign{Targets: []ast.Expr{name("x")}, Value: intLit(1)},
		&ast.AugAssign{Target: name("x"), Op: "/", Value: intLit(2)},
	)
	assert.NoError(t, err)
	x, _ := env.LookupVariable("x")
	assert.True(t, types.Equal(x, types.Float), "got %s", x)
}

func TestCheckNonlocalUndeclared(t *testing.T) {
	_, err := checkModule(&ast.FunctionDef{
		Name: "f",
		Body: []ast.Stmt{
			&ast.Nonlocal{Names: []string{"ghost"}},
		},
	})
	assert.Error(t, err)
}
