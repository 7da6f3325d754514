package compiler

import (
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"

	"github.com/cheetah-lang/cheetah/ast"
)

func mixedModule() *ast.Module {
	return module(
		assignStmt("total", intLit(0)),
		&ast.FunctionDef{
			Name:   "double",
			Params: []*ast.Param{{Name: "n"}},
			Body: []ast.Stmt{
				&ast.Return{Value: binOp(name("n"), "*", intLit(2))},
			},
		},
		rangeFor("i", 4,
			&ast.If{
				Test:   cmp(name("i"), "==", intLit(2)),
				Body:   []ast.Stmt{&ast.Continue{}},
				OrElse: []ast.Stmt{&ast.AugAssign{Target: name("total"), Op: "+", Value: name("i")}},
			},
		),
		&ast.While{
			Test: cmp(name("total"), ">", intLit(3)),
			Body: []ast.Stmt{
				&ast.AugAssign{Target: name("total"), Op: "-", Value: intLit(1)},
			},
		},
		&ast.Try{
			Body: []ast.Stmt{
				&ast.Raise{Exc: strLit("oops")},
			},
			Handlers: []*ast.ExceptHandler{
				{Body: []ast.Stmt{printStmt(strLit("caught"))}},
			},
			FinalBody: []ast.Stmt{printStmt(callExpr("double", name("total")))},
		},
		printStmt(name("total")),
	)
}

// The work-stack frontend and the recursive frontend must emit the same
// IR, instruction for instruction.
func TestFrontendsEmitIdenticalIR(t *testing.T) {
	workStack := compileModule(t, mixedModule(), Options{})
	recursive := compileModule(t, mixedModule(), Options{Recursive: true})
	assert.Equal(t, workStack.String(), recursive.String())
}

func TestFrontendsAgreeOnOutput(t *testing.T) {
	a := runProgram(t, mixedModule(), Options{})
	b := runProgram(t, mixedModule(), Options{Recursive: true})
	assert.Equal(t, a, b)
	assert.Equal(t, a, "caught\n6\n3\n")
}

func TestFrontendsAgreeUnderOptimization(t *testing.T) {
	for _, level := range []int{OptNone, OptUnroll, OptChunk} {
		a := compileModule(t, mixedModule(), Options{OptLevel: level})
		b := compileModule(t, mixedModule(), Options{OptLevel: level, Recursive: true})
		assert.Equal(t, a.String(), b.String(), "opt level %d", level)
	}
}

// Deep statement nesting must not exhaust the Go stack: the work-stack
// frontend drives lowering iteratively.
func TestDeeplyNestedStatements(t *testing.T) {
	inner := ast.Stmt(printStmt(strLit("deep")))
	for i := 0; i < 2000; i++ {
		inner = &ast.If{Test: &ast.Bool{Value: true}, Body: []ast.Stmt{inner}}
	}
	assert.Equal(t, runProgram(t, module(inner), Options{}), "deep\n")
}

func TestUnreachableStatementsSkipped(t *testing.T) {
	mod := func() *ast.Module {
		return module(
			&ast.FunctionDef{
				Name: "f",
				Body: []ast.Stmt{
					&ast.Return{Value: intLit(1)},
					printStmt(strLit("dead")),
				},
			},
			printStmt(callExpr("f")),
		)
	}
	assert.Equal(t, runProgram(t, mod(), Options{}), "1\n")
	assert.Equal(t, runProgram(t, mod(), Options{Recursive: true}), "1\n")
}
