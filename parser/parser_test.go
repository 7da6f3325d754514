package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"

	"github.com/cheetah-lang/cheetah/ast"
)

func parse(t *testing.T, input string) *ast.Module {
	t.Helper()
	module, err := Parse(context.Background(), input)
	assert.NoError(t, err)
	if module == nil {
		t.Fatal("expected a module")
	}
	return module
}

func parseFail(t *testing.T, input string) error {
	t.Helper()
	_, err := Parse(context.Background(), input)
	assert.Error(t, err)
	return err
}

// firstExpr parses a single expression statement and returns its value.
func firstExpr(t *testing.T, input string) ast.Expr {
	t.Helper()
	module := parse(t, input)
	assert.Len(t, module.Stmts, 1)
	stmt, ok := module.Stmts[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected expression statement, got %T", module.Stmts[0])
	}
	return stmt.Value
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"1 + 2 - 3", "((1 + 2) - 3)"},
		{"10 / 2 // 3 % 2", "(((10 / 2) // 3) % 2)"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"-2 ** 2", "(-(2 ** 2))"},
		{"-a + b", "((-a) + b)"},
		{"~a & b", "((~a) & b)"},
		{"a | b ^ c & d", "(a | (b ^ (c & d)))"},
		{"a << 2 + 1", "(a << (2 + 1))"},
		{"not a == b", "(not (a == b))"},
		{"not a and not b", "((not a) and (not b))"},
		{"a or b and c", "(a or (b and c))"},
		{"a + b < c * d", "((a + b) < (c * d))"},
	}
	for _, tc := range tests {
		expr := firstExpr(t, tc.input)
		assert.Equal(t, tc.want, expr.String(), "input: %s", tc.input)
	}
}

func TestBoolOpFolding(t *testing.T) {
	expr := firstExpr(t, "a or b or c")
	boolOp, ok := expr.(*ast.BoolOp)
	if !ok {
		t.Fatalf("expected bool op, got %T", expr)
	}
	assert.Equal(t, "or", boolOp.Op)
	assert.Len(t, boolOp.Values, 3)
}

func TestChainedComparison(t *testing.T) {
	expr := firstExpr(t, "1 < x <= 10")
	cmp, ok := expr.(*ast.Compare)
	if !ok {
		t.Fatalf("expected comparison, got %T", expr)
	}
	assert.Equal(t, []string{"<", "<="}, cmp.Ops)
	assert.Len(t, cmp.Comparators, 2)
	assert.Equal(t, "1", cmp.Left.String())
}

func TestMembershipAndIdentity(t *testing.T) {
	tests := []struct {
		input string
		op    string
	}{
		{"a in b", "in"},
		{"a not in b", "not in"},
		{"a is b", "is"},
		{"a is not b", "is not"},
	}
	for _, tc := range tests {
		expr := firstExpr(t, tc.input)
		cmp, ok := expr.(*ast.Compare)
		if !ok {
			t.Fatalf("expected comparison for %q, got %T", tc.input, expr)
		}
		assert.Equal(t, []string{tc.op}, cmp.Ops)
	}
}

func TestConditionalExpression(t *testing.T) {
	expr := firstExpr(t, `"big" if n > 10 else "small"`)
	cond, ok := expr.(*ast.IfExp)
	if !ok {
		t.Fatalf("expected conditional expression, got %T", expr)
	}
	assert.Equal(t, `"big"`, cond.Body.String())
	assert.Equal(t, "(n > 10)", cond.Test.String())
	assert.Equal(t, `"small"`, cond.OrElse.String())
}

func TestWalrusExpression(t *testing.T) {
	expr := firstExpr(t, "(n := 10)")
	named, ok := expr.(*ast.NamedExpr)
	if !ok {
		t.Fatalf("expected named expression, got %T", expr)
	}
	assert.Equal(t, "n", named.Target.ID)
	assert.Equal(t, "10", named.Value.String())
}

func TestCallArguments(t *testing.T) {
	expr := firstExpr(t, "f(1, x + 2, key=3, *rest, **extra)")
	call, ok := expr.(*ast.Call)
	if !ok {
		t.Fatalf("expected call, got %T", expr)
	}
	assert.Equal(t, "f", call.Func.String())
	assert.Len(t, call.Args, 3)
	_, isStarred := call.Args[2].(*ast.Starred)
	assert.True(t, isStarred)
	assert.Len(t, call.Keywords, 2)
	assert.Equal(t, "key", call.Keywords[0].Arg)
	assert.Equal(t, "", call.Keywords[1].Arg)
}

func TestPositionalAfterKeywordFails(t *testing.T) {
	err := parseFail(t, "f(a=1, 2)")
	assert.Contains(t, err.Error(), "positional argument")
}

func TestNestedCalls(t *testing.T) {
	expr := firstExpr(t, "outer(inner(1), 2)(3)")
	call, ok := expr.(*ast.Call)
	if !ok {
		t.Fatalf("expected call, got %T", expr)
	}
	assert.Len(t, call.Args, 1)
	inner, ok := call.Func.(*ast.Call)
	if !ok {
		t.Fatalf("expected call as callee, got %T", call.Func)
	}
	assert.Equal(t, "outer", inner.Func.String())
}

func TestAttributeAccess(t *testing.T) {
	expr := firstExpr(t, "obj.field.method(1)")
	call, ok := expr.(*ast.Call)
	if !ok {
		t.Fatalf("expected call, got %T", expr)
	}
	attr, ok := call.Func.(*ast.Attribute)
	if !ok {
		t.Fatalf("expected attribute, got %T", call.Func)
	}
	assert.Equal(t, "method", attr.Attr)
	assert.Equal(t, "obj.field", attr.Value.String())
}

func TestSubscripts(t *testing.T) {
	expr := firstExpr(t, "a[i + 1]")
	sub, ok := expr.(*ast.Subscript)
	if !ok {
		t.Fatalf("expected subscript, got %T", expr)
	}
	assert.Equal(t, "(i + 1)", sub.Index.String())

	expr = firstExpr(t, "a[1:10:2]")
	sub = expr.(*ast.Subscript)
	slice, ok := sub.Index.(*ast.SliceExpr)
	if !ok {
		t.Fatalf("expected slice, got %T", sub.Index)
	}
	assert.Equal(t, "1", slice.Lower.String())
	assert.Equal(t, "10", slice.Upper.String())
	assert.Equal(t, "2", slice.Step.String())

	expr = firstExpr(t, "a[:n]")
	slice = expr.(*ast.Subscript).Index.(*ast.SliceExpr)
	assert.Nil(t, slice.Lower)
	assert.Equal(t, "n", slice.Upper.String())
	assert.Nil(t, slice.Step)
}

func TestTupleIndex(t *testing.T) {
	expr := firstExpr(t, "grid[x, y]")
	sub := expr.(*ast.Subscript)
	tuple, ok := sub.Index.(*ast.Tuple)
	if !ok {
		t.Fatalf("expected tuple index, got %T", sub.Index)
	}
	assert.Len(t, tuple.Elts, 2)
}

func TestLambda(t *testing.T) {
	expr := firstExpr(t, "lambda x, y=1: x + y")
	lam, ok := expr.(*ast.Lambda)
	if !ok {
		t.Fatalf("expected lambda, got %T", expr)
	}
	assert.Len(t, lam.Params, 2)
	assert.Equal(t, "x", lam.Params[0].Name)
	assert.NotNil(t, lam.Params[1].Default)
	assert.Equal(t, "(x + y)", lam.Body.String())
}

func TestGroupingAndTuples(t *testing.T) {
	expr := firstExpr(t, "(1 + 2)")
	_, ok := expr.(*ast.BinOp)
	assert.True(t, ok)

	expr = firstExpr(t, "()")
	tuple, ok := expr.(*ast.Tuple)
	assert.True(t, ok)
	assert.Empty(t, tuple.Elts)

	expr = firstExpr(t, "(1, 2, 3)")
	tuple = expr.(*ast.Tuple)
	assert.Len(t, tuple.Elts, 3)

	expr = firstExpr(t, "(1,)")
	tuple = expr.(*ast.Tuple)
	assert.Len(t, tuple.Elts, 1)
}

func TestListLiterals(t *testing.T) {
	expr := firstExpr(t, "[]")
	list, ok := expr.(*ast.List)
	assert.True(t, ok)
	assert.Empty(t, list.Elts)

	expr = firstExpr(t, "[1, 2 + 3, x]")
	list = expr.(*ast.List)
	assert.Len(t, list.Elts, 3)

	expr = firstExpr(t, "[1, 2,]")
	list = expr.(*ast.List)
	assert.Len(t, list.Elts, 2)
}

func TestDictAndSetLiterals(t *testing.T) {
	expr := firstExpr(t, "{}")
	dict, ok := expr.(*ast.Dict)
	assert.True(t, ok)
	assert.Empty(t, dict.Keys)

	expr = firstExpr(t, `{"a": 1, "b": 2}`)
	dict = expr.(*ast.Dict)
	assert.Len(t, dict.Keys, 2)
	assert.Len(t, dict.Values, 2)

	expr = firstExpr(t, "{1, 2, 3}")
	set, ok := expr.(*ast.Set)
	if !ok {
		t.Fatalf("expected set, got %T", expr)
	}
	assert.Len(t, set.Elts, 3)
}

func TestComprehensions(t *testing.T) {
	expr := firstExpr(t, "[x * x for x in data if x > 0]")
	lc, ok := expr.(*ast.ListComp)
	if !ok {
		t.Fatalf("expected list comprehension, got %T", expr)
	}
	assert.Equal(t, "(x * x)", lc.Elt.String())
	assert.Len(t, lc.Generators, 1)
	assert.Len(t, lc.Generators[0].Ifs, 1)

	expr = firstExpr(t, "{k: v for k, v in pairs}")
	dc, ok := expr.(*ast.DictComp)
	if !ok {
		t.Fatalf("expected dict comprehension, got %T", expr)
	}
	target, ok := dc.Generators[0].Target.(*ast.Tuple)
	assert.True(t, ok)
	assert.Len(t, target.Elts, 2)

	expr = firstExpr(t, "{x for x in xs}")
	_, ok = expr.(*ast.SetComp)
	assert.True(t, ok)

	expr = firstExpr(t, "(x for x in xs)")
	_, ok = expr.(*ast.GeneratorExp)
	assert.True(t, ok)
}

func TestGeneratorArgument(t *testing.T) {
	expr := firstExpr(t, "sum(x * x for x in data)")
	call := expr.(*ast.Call)
	assert.Len(t, call.Args, 1)
	_, ok := call.Args[0].(*ast.GeneratorExp)
	assert.True(t, ok)
}

func TestNestedComprehension(t *testing.T) {
	expr := firstExpr(t, "[a + b for a in xs for b in ys]")
	lc := expr.(*ast.ListComp)
	assert.Len(t, lc.Generators, 2)
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"255", 255},
		{"0xff", 255},
		{"0o17", 15},
		{"0b101", 5},
		{"1_000_000", 1000000},
	}
	for _, tc := range tests {
		expr := firstExpr(t, tc.input)
		n, ok := expr.(*ast.Int)
		if !ok {
			t.Fatalf("expected int for %q, got %T", tc.input, expr)
		}
		assert.Equal(t, tc.want, n.Value)
	}
	expr := firstExpr(t, "2.5e-2")
	f, ok := expr.(*ast.Float)
	assert.True(t, ok)
	assert.Equal(t, 0.025, f.Value)
}

func TestStringLiterals(t *testing.T) {
	expr := firstExpr(t, `"hello"`)
	s, ok := expr.(*ast.Str)
	assert.True(t, ok)
	assert.Equal(t, "hello", s.Value)

	// Adjacent literals concatenate
	expr = firstExpr(t, `"ab" "cd"`)
	s = expr.(*ast.Str)
	assert.Equal(t, "abcd", s.Value)

	expr = firstExpr(t, `b"raw"`)
	b, ok := expr.(*ast.Bytes)
	assert.True(t, ok)
	assert.Equal(t, []byte("raw"), b.Value)
}

func TestKeywordLiterals(t *testing.T) {
	assert.Equal(t, true, firstExpr(t, "True").(*ast.Bool).Value)
	assert.Equal(t, false, firstExpr(t, "False").(*ast.Bool).Value)
	_, ok := firstExpr(t, "None").(*ast.NoneLiteral)
	assert.True(t, ok)
}

func TestFString(t *testing.T) {
	expr := firstExpr(t, `f"x={x + 1}!"`)
	joined, ok := expr.(*ast.JoinedStr)
	if !ok {
		t.Fatalf("expected f-string, got %T", expr)
	}
	assert.Len(t, joined.Values, 3)
	assert.Equal(t, "x=", joined.Values[0].(*ast.Str).Value)
	fv, ok := joined.Values[1].(*ast.FormattedValue)
	assert.True(t, ok)
	assert.Equal(t, "(x + 1)", fv.Value.String())
	assert.Equal(t, "!", joined.Values[2].(*ast.Str).Value)
}

func TestFStringEscapedBraces(t *testing.T) {
	expr := firstExpr(t, `f"{{literal}}"`)
	joined := expr.(*ast.JoinedStr)
	assert.Len(t, joined.Values, 1)
	assert.Equal(t, "{literal}", joined.Values[0].(*ast.Str).Value)
}

func TestFStringFormatSpecDiscarded(t *testing.T) {
	expr := firstExpr(t, `f"{total:>8}"`)
	joined := expr.(*ast.JoinedStr)
	assert.Len(t, joined.Values, 1)
	fv := joined.Values[0].(*ast.FormattedValue)
	assert.Equal(t, "total", fv.Value.String())
}

func TestFStringComparisonOperator(t *testing.T) {
	// "!=" must not be mistaken for a conversion marker
	expr := firstExpr(t, `f"{a != b}"`)
	joined := expr.(*ast.JoinedStr)
	fv := joined.Values[0].(*ast.FormattedValue)
	assert.Equal(t, "(a != b)", fv.Value.String())
}

func TestFStringUnbalancedBrace(t *testing.T) {
	err := parseFail(t, `f"{x"`)
	assert.Contains(t, err.Error(), "f-string")
}

func TestMaxDepthExceeded(t *testing.T) {
	input := strings.Repeat("(", 20) + "1" + strings.Repeat(")", 20)
	_, err := Parse(context.Background(), input, WithMaxDepth(10))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nesting depth")
}

func TestUnexpectedTokenError(t *testing.T) {
	err := parseFail(t, "x = = 1")
	assert.Contains(t, err.Error(), "invalid syntax")
}

func TestErrorsArePositioned(t *testing.T) {
	_, err := Parse(context.Background(), "a = 1\nb = = 2\n", WithFilename("test.ch"))
	assert.Error(t, err)
	errs, ok := err.(*Errors)
	if !ok {
		t.Fatalf("expected *Errors, got %T", err)
	}
	first := errs.First()
	assert.NotNil(t, first)
	assert.Equal(t, 2, first.StartPosition().LineNumber())
	assert.Equal(t, "test.ch", first.File())
	assert.Equal(t, "b = = 2", first.SourceCode())
}

func TestErrorRecoveryKeepsGoodStatements(t *testing.T) {
	module, err := Parse(context.Background(), "x = 1\ny = = 2\nz = 3\n")
	assert.Error(t, err)
	if module == nil {
		t.Fatal("expected a partial module")
	}
	assert.Len(t, module.Stmts, 2)
}

func TestMultipleErrorsCollected(t *testing.T) {
	_, err := Parse(context.Background(), "a = = 1\nb = = 2\n")
	assert.Error(t, err)
	errs, ok := err.(*Errors)
	if !ok {
		t.Fatalf("expected *Errors, got %T", err)
	}
	assert.Equal(t, 2, errs.Count())
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, "x = 1\n")
	assert.Error(t, err)
}
