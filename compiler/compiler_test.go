package compiler

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
	"github.com/rs/zerolog"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/errors"
	"github.com/cheetah-lang/cheetah/ir"
	"github.com/cheetah-lang/cheetah/ir/interp"
	"github.com/cheetah-lang/cheetah/runtime"
	"github.com/cheetah-lang/cheetah/typecheck"
)

func name(id string) *ast.Name { return &ast.Name{ID: id} }

func intLit(v int64) *ast.Int { return &ast.Int{Value: v} }

func strLit(v string) *ast.Str { return &ast.Str{Value: v} }

func callExpr(fn string, args ...ast.Expr) *ast.Call {
	return &ast.Call{Func: name(fn), Args: args}
}

func printStmt(args ...ast.Expr) ast.Stmt {
	return &ast.ExprStmt{Value: callExpr("print", args...)}
}

func assignStmt(target string, v ast.Expr) ast.Stmt {
	return &ast.Assign{Targets: []ast.Expr{name(target)}, Value: v}
}

func binOp(l ast.Expr, op string, r ast.Expr) *ast.BinOp {
	return &ast.BinOp{Left: l, Op: op, Right: r}
}

func cmp(l ast.Expr, op string, r ast.Expr) *ast.Compare {
	return &ast.Compare{Left: l, Ops: []string{op}, Comparators: []ast.Expr{r}}
}

func rangeFor(target string, n int64, body ...ast.Stmt) *ast.For {
	return &ast.For{Target: name(target), Iter: callExpr("range", intLit(n)), Body: body}
}

func module(stmts ...ast.Stmt) *ast.Module {
	return &ast.Module{Filename: "test.ch", Stmts: stmts}
}

func compileModule(t *testing.T, mod *ast.Module, opts Options) *ir.Module {
	t.Helper()
	opts.Logger = zerolog.Nop()
	env, err := typecheck.Check(mod)
	assert.NoError(t, err)
	irm, err := Compile(mod, env, opts)
	assert.NoError(t, err)
	return irm
}

// runIR executes a compiled module on the IR interpreter with the full
// runtime symbol table and returns everything it printed.
func runIR(t *testing.T, irm *ir.Module) string {
	t.Helper()
	var buf bytes.Buffer
	runtime.SetOutput(&buf)
	defer runtime.SetOutput(os.Stdout)
	eng := interp.New(irm, zerolog.Nop())
	eng.RegisterAll(runtime.Symbols())
	_, err := eng.Run(context.Background(), "main")
	assert.NoError(t, err)
	runtime.Flush()
	return buf.String()
}

func runProgram(t *testing.T, mod *ast.Module, opts Options) string {
	t.Helper()
	return runIR(t, compileModule(t, mod, opts))
}

func TestArithmeticAssignPrint(t *testing.T) {
	mod := module(
		assignStmt("x", binOp(intLit(1), "+", intLit(2))),
		printStmt(name("x")),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "3\n")
}

func TestFloatDivision(t *testing.T) {
	mod := module(printStmt(binOp(intLit(7), "/", intLit(2))))
	assert.Equal(t, runProgram(t, mod, Options{}), "3.5\n")
}

func TestFloorDivAndMod(t *testing.T) {
	mod := module(
		printStmt(binOp(intLit(7), "//", intLit(2))),
		printStmt(binOp(&ast.UnaryOp{Op: "-", Operand: intLit(7)}, "//", intLit(2))),
		printStmt(binOp(&ast.UnaryOp{Op: "-", Operand: intLit(7)}, "%", intLit(2))),
	)
	// Floor semantics: -7 // 2 == -4 and -7 % 2 == 1.
	assert.Equal(t, runProgram(t, mod, Options{}), "3\n-4\n1\n")
}

func TestStringConcat(t *testing.T) {
	mod := module(
		assignStmt("s", binOp(strLit("hello "), "+", strLit("world"))),
		printStmt(name("s")),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "hello world\n")
}

func TestRangeLoop(t *testing.T) {
	mod := module(rangeFor("i", 3, printStmt(name("i"))))
	assert.Equal(t, runProgram(t, mod, Options{}), "0\n1\n2\n")
}

func TestWhileLoop(t *testing.T) {
	mod := module(
		assignStmt("i", intLit(0)),
		&ast.While{
			Test: cmp(name("i"), "<", intLit(3)),
			Body: []ast.Stmt{
				printStmt(name("i")),
				assignStmt("i", binOp(name("i"), "+", intLit(1))),
			},
		},
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "0\n1\n2\n")
}

func TestWhileBreak(t *testing.T) {
	mod := module(
		assignStmt("i", intLit(0)),
		&ast.While{
			Test: &ast.Bool{Value: true},
			Body: []ast.Stmt{
				&ast.If{
					Test: cmp(name("i"), "==", intLit(3)),
					Body: []ast.Stmt{&ast.Break{}},
				},
				assignStmt("i", binOp(name("i"), "+", intLit(1))),
			},
		},
		printStmt(name("i")),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "3\n")
}

func TestLoopElseRunsOnNormalExit(t *testing.T) {
	mod := module(
		&ast.For{
			Target: name("i"),
			Iter:   callExpr("range", intLit(2)),
			Body:   []ast.Stmt{printStmt(name("i"))},
			OrElse: []ast.Stmt{printStmt(strLit("else"))},
		},
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "0\n1\nelse\n")
}

func TestIfElse(t *testing.T) {
	mod := module(
		assignStmt("x", intLit(10)),
		&ast.If{
			Test:   cmp(name("x"), ">", intLit(5)),
			Body:   []ast.Stmt{printStmt(strLit("big"))},
			OrElse: []ast.Stmt{printStmt(strLit("small"))},
		},
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "big\n")
}

func TestConditionalExpression(t *testing.T) {
	mod := module(
		assignStmt("x", &ast.IfExp{
			Test: &ast.Bool{Value: true}, Body: intLit(1), OrElse: intLit(2),
		}),
		printStmt(name("x")),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "1\n")
}

func TestChainedComparison(t *testing.T) {
	mod := module(
		printStmt(&ast.Compare{
			Left:        intLit(1),
			Ops:         []string{"<", "<"},
			Comparators: []ast.Expr{intLit(2), intLit(3)},
		}),
		printStmt(&ast.Compare{
			Left:        intLit(1),
			Ops:         []string{"<", "<"},
			Comparators: []ast.Expr{intLit(5), intLit(3)},
		}),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "True\nFalse\n")
}

func TestBoolOpShortCircuit(t *testing.T) {
	mod := module(
		printStmt(&ast.BoolOp{Op: "and", Values: []ast.Expr{
			&ast.Bool{Value: true}, &ast.Bool{Value: false},
		}}),
		printStmt(&ast.BoolOp{Op: "or", Values: []ast.Expr{
			&ast.Bool{Value: false}, &ast.Bool{Value: true},
		}}),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "False\nTrue\n")
}

func TestFunctionWithDefaultParameter(t *testing.T) {
	mod := module(
		&ast.FunctionDef{
			Name: "add",
			Params: []*ast.Param{
				{Name: "a"},
				{Name: "b", Default: intLit(1)},
			},
			Body: []ast.Stmt{
				&ast.Return{Value: binOp(name("a"), "+", name("b"))},
			},
		},
		printStmt(callExpr("add", intLit(3))),
		printStmt(callExpr("add", intLit(3), intLit(4))),
		printStmt(&ast.Call{
			Func:     name("add"),
			Args:     []ast.Expr{intLit(3)},
			Keywords: []*ast.Keyword{{Arg: "b", Value: intLit(5)}},
		}),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "4\n7\n8\n")
}

func TestGlobalStatement(t *testing.T) {
	mod := module(
		assignStmt("counter", intLit(0)),
		&ast.FunctionDef{
			Name: "bump",
			Body: []ast.Stmt{
				&ast.Global{Names: []string{"counter"}},
				assignStmt("counter", binOp(name("counter"), "+", intLit(1))),
			},
		},
		&ast.ExprStmt{Value: callExpr("bump")},
		&ast.ExprStmt{Value: callExpr("bump")},
		printStmt(name("counter")),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "2\n")
}

func TestNonlocalCounter(t *testing.T) {
	mod := module(
		&ast.FunctionDef{
			Name: "outer",
			Body: []ast.Stmt{
				assignStmt("count", intLit(0)),
				&ast.FunctionDef{
					Name: "inc",
					Body: []ast.Stmt{
						&ast.Nonlocal{Names: []string{"count"}},
						assignStmt("count", binOp(name("count"), "+", intLit(1))),
					},
				},
				&ast.ExprStmt{Value: callExpr("inc")},
				&ast.ExprStmt{Value: callExpr("inc")},
				&ast.Return{Value: name("count")},
			},
		},
		printStmt(callExpr("outer")),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "2\n")
}

func TestTryRaiseExceptFinally(t *testing.T) {
	mod := module(
		&ast.Try{
			Body: []ast.Stmt{
				&ast.Raise{Exc: strLit("boom")},
				printStmt(strLit("unreachable")),
			},
			Handlers: []*ast.ExceptHandler{
				{Body: []ast.Stmt{printStmt(strLit("caught"))}},
			},
			FinalBody: []ast.Stmt{printStmt(strLit("done"))},
		},
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "caught\ndone\n")
}

func TestTryElseRunsWithoutException(t *testing.T) {
	mod := module(
		&ast.Try{
			Body: []ast.Stmt{printStmt(strLit("body"))},
			Handlers: []*ast.ExceptHandler{
				{Body: []ast.Stmt{printStmt(strLit("caught"))}},
			},
			OrElse:    []ast.Stmt{printStmt(strLit("else"))},
			FinalBody: []ast.Stmt{printStmt(strLit("finally"))},
		},
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "body\nelse\nfinally\n")
}

func multiHandlerTry() *ast.Module {
	return module(
		&ast.ClassDef{Name: "ValueError", Body: []ast.Stmt{&ast.Pass{}}},
		&ast.ClassDef{Name: "TypeError", Body: []ast.Stmt{&ast.Pass{}}},
		&ast.Try{
			Body: []ast.Stmt{
				&ast.Raise{Exc: strLit("boom")},
			},
			Handlers: []*ast.ExceptHandler{
				{Type: name("ValueError"), Body: []ast.Stmt{printStmt(strLit("first"))}},
				{Type: name("TypeError"), Body: []ast.Stmt{printStmt(strLit("second"))}},
				{Body: []ast.Stmt{printStmt(strLit("third"))}},
			},
			FinalBody: []ast.Stmt{printStmt(strLit("done"))},
		},
	)
}

func TestMultipleExceptHandlersFirstWins(t *testing.T) {
	// Raised values carry no class tag, so the first handler's match is
	// constant true and catches everything.
	assert.Equal(t, runProgram(t, multiHandlerTry(), Options{}), "first\ndone\n")
}

func TestMultipleExceptHandlersEmitMatchChain(t *testing.T) {
	irm := compileModule(t, multiHandlerTry(), Options{})
	main, ok := irm.Func("main")
	assert.True(t, ok)
	var matches, excepts int
	for _, b := range main.Blocks {
		if strings.HasPrefix(b.Name, "try.match") {
			matches++
		}
		if strings.HasPrefix(b.Name, "try.except") {
			excepts++
		}
	}
	assert.Equal(t, matches, 3)
	assert.Equal(t, excepts, 3)
}

func TestMultipleExceptHandlersAgreeAcrossFrontends(t *testing.T) {
	a := compileModule(t, multiHandlerTry(), Options{})
	b := compileModule(t, multiHandlerTry(), Options{Recursive: true})
	assert.Equal(t, a.String(), b.String())
}

func TestLaterHandlerBodiesAreChecked(t *testing.T) {
	// A lowering failure in a handler past the first must still surface.
	mod := module(
		&ast.Try{
			Body: []ast.Stmt{&ast.Pass{}},
			Handlers: []*ast.ExceptHandler{
				{Body: []ast.Stmt{&ast.Pass{}}},
				{Body: []ast.Stmt{&ast.ExprStmt{Value: &ast.Yield{}}}},
			},
		},
	)
	env, err := typecheck.Check(mod)
	assert.NoError(t, err)
	for _, recursive := range []bool{false, true} {
		_, err = Compile(mod, env, Options{Logger: zerolog.Nop(), Recursive: recursive})
		assert.Error(t, err, "recursive=%v", recursive)
	}
}

func TestDictInsertionOrder(t *testing.T) {
	mod := module(
		assignStmt("d", &ast.Dict{
			Keys:   []ast.Expr{strLit("b"), strLit("a"), strLit("c")},
			Values: []ast.Expr{intLit(1), intLit(2), intLit(3)},
		}),
		&ast.For{
			Target: name("k"),
			Iter:   name("d"),
			Body:   []ast.Stmt{printStmt(name("k"))},
		},
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "b\na\nc\n")
}

func TestListIndexAndLen(t *testing.T) {
	mod := module(
		assignStmt("xs", &ast.List{Elts: []ast.Expr{intLit(1), intLit(2), intLit(3)}}),
		printStmt(callExpr("len", name("xs"))),
		printStmt(&ast.Subscript{Value: name("xs"), Index: intLit(1)}),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "3\n2\n")
}

func TestTupleDestructure(t *testing.T) {
	mod := module(
		&ast.Assign{
			Targets: []ast.Expr{&ast.Tuple{Elts: []ast.Expr{name("a"), name("b")}}},
			Value:   &ast.Tuple{Elts: []ast.Expr{intLit(1), intLit(2)}},
		},
		printStmt(name("a")),
		printStmt(name("b")),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "1\n2\n")
}

func TestAugmentedAssign(t *testing.T) {
	mod := module(
		assignStmt("x", intLit(10)),
		&ast.AugAssign{Target: name("x"), Op: "-", Value: intLit(4)},
		printStmt(name("x")),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "6\n")
}

func TestPrintMultipleArguments(t *testing.T) {
	mod := module(printStmt(intLit(1), strLit("two"), intLit(3)))
	assert.Equal(t, runProgram(t, mod, Options{}), "1 two 3\n")
}

// Every emitted block must end in exactly one terminator, with no
// terminator anywhere before the last instruction.
func TestBlocksHaveSingleTerminator(t *testing.T) {
	mod := module(
		assignStmt("total", intLit(0)),
		&ast.FunctionDef{
			Name:   "f",
			Params: []*ast.Param{{Name: "n"}},
			Body: []ast.Stmt{
				&ast.If{
					Test:   cmp(name("n"), ">", intLit(0)),
					Body:   []ast.Stmt{&ast.Return{Value: name("n")}},
					OrElse: []ast.Stmt{&ast.Return{Value: intLit(0)}},
				},
			},
		},
		rangeFor("i", 3,
			&ast.AugAssign{Target: name("total"), Op: "+", Value: name("i")},
		),
		&ast.While{
			Test: cmp(name("total"), ">", intLit(0)),
			Body: []ast.Stmt{
				&ast.AugAssign{Target: name("total"), Op: "-", Value: intLit(1)},
			},
		},
		&ast.Try{
			Body:      []ast.Stmt{printStmt(callExpr("f", name("total")))},
			Handlers:  []*ast.ExceptHandler{{Body: []ast.Stmt{&ast.Pass{}}}},
			FinalBody: []ast.Stmt{printStmt(name("total"))},
		},
	)
	for _, recursive := range []bool{false, true} {
		irm := compileModule(t, mod, Options{Recursive: recursive})
		for _, fn := range irm.Funcs {
			if fn.Extern {
				continue
			}
			for _, b := range fn.Blocks {
				assert.True(t, b.Terminated(), "%s/%s is unterminated", fn.Name, b.Name)
				for i, in := range b.Instrs {
					if i < len(b.Instrs)-1 {
						assert.False(t, in.IsTerminator(),
							"%s/%s has a terminator mid-block", fn.Name, b.Name)
					}
				}
			}
		}
	}
}

// Captured variables are prepended to the parameter list in a fixed,
// deterministic order. Compiling the same module twice must produce the
// same signatures.
func TestCaptureOrderIsStable(t *testing.T) {
	mod := func() *ast.Module {
		return module(
			&ast.FunctionDef{
				Name: "outer",
				Body: []ast.Stmt{
					assignStmt("a", intLit(1)),
					assignStmt("b", intLit(2)),
					assignStmt("c", intLit(3)),
					&ast.FunctionDef{
						Name: "inner",
						Body: []ast.Stmt{
							&ast.Return{Value: binOp(binOp(name("a"), "+", name("b")), "+", name("c"))},
						},
					},
					&ast.Return{Value: callExpr("inner")},
				},
			},
			printStmt(callExpr("outer")),
		)
	}

	sigOf := func(irm *ir.Module) []string {
		fn, ok := irm.Func("outer.inner")
		assert.True(t, ok, "outer.inner not found")
		names := make([]string, 0, len(fn.Params))
		for _, p := range fn.Params {
			names = append(names, p.Name)
		}
		return names
	}

	first := sigOf(compileModule(t, mod(), Options{}))
	for i := 0; i < 5; i++ {
		assert.Equal(t, sigOf(compileModule(t, mod(), Options{})), first)
	}
	assert.Equal(t, runProgram(t, mod(), Options{}), "6\n")
}

// A mangled extern reference such as range_1.3 must re-resolve to its
// base symbol when executed.
func TestDuplicateRangeCallsResolve(t *testing.T) {
	mod := module(
		rangeFor("i", 2, printStmt(name("i"))),
		rangeFor("j", 2, printStmt(name("j"))),
	)
	assert.Equal(t, runProgram(t, mod, Options{}), "0\n1\n0\n1\n")
}

func TestCompileErrorsAreCollected(t *testing.T) {
	mod := module(
		printStmt(name("missing")),
		assignStmt("x", intLit(1)),
		printStmt(name("x")),
	)
	env, err := typecheck.Check(mod)
	_ = err // the checker may flag the unknown name as well
	irm, err := Compile(mod, env, Options{Logger: zerolog.Nop()})
	assert.Error(t, err)
	assert.NotNil(t, irm)
	// Lowering continued past the failed statement.
	_, ok := irm.Func("main")
	assert.True(t, ok)
}

func TestUndefinedNameDiagnosticSuggestsNearMiss(t *testing.T) {
	mod := module(
		assignStmt("total", intLit(0)),
		printStmt(name("totl")),
	)
	env, err := typecheck.Check(mod)
	_ = err // the checker flags the unknown name as well
	_, err = Compile(mod, env, Options{Logger: zerolog.Nop()})
	assert.Error(t, err)
	var ce *errors.CompileError
	assert.True(t, stderrors.As(err, &ce))
	assert.True(t, len(ce.Suggestions) > 0)
	assert.Equal(t, ce.Suggestions[0].Value, "total")
	assert.Contains(t, ce.FriendlyErrorMessage(), "hint: Did you mean 'total'?")
}
