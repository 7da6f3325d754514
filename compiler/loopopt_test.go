package compiler

import (
	"strconv"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/ir"
)

func TestIterCount(t *testing.T) {
	tests := []struct {
		start, stop, step int64
		want              int64
	}{
		{0, 10, 1, 10},
		{0, 10, 3, 4},
		{0, 10, -1, 0},
		{10, 0, -2, 5},
		{5, 5, 1, 0},
		{5, 6, 1, 1},
		{0, 0, 0, 0},
		{-3, 3, 2, 3},
	}
	for _, tt := range tests {
		got := iterCount(tt.start, tt.stop, tt.step)
		assert.Equal(t, got, tt.want, "iterCount(%d, %d, %d)", tt.start, tt.stop, tt.step)
	}
}

func TestPrevPow2(t *testing.T) {
	tests := []struct{ n, want int64 }{
		{1, 1}, {2, 2}, {3, 2}, {1023, 512}, {1024, 1024}, {500_000, 262_144},
	}
	for _, tt := range tests {
		assert.Equal(t, prevPow2(tt.n), tt.want, "prevPow2(%d)", tt.n)
	}
}

func TestBaseChunkSizeTiers(t *testing.T) {
	tests := []struct{ n, want int64 }{
		{100, minChunk},
		{minChunk, minChunk},
		{6_000, 6_000},
		{maxChunk, maxChunk},
		{250_000, 131_072},      // previous power of two
		{1_000_000, maxChunk},   // pow2 clamped to the ceiling
		{2_500_000, maxChunk},   // sqrt-scaled default, clamped
		{100_000_000, maxChunk}, // beyond the very-large tier
	}
	for _, tt := range tests {
		assert.Equal(t, baseChunkSize(tt.n), tt.want, "baseChunkSize(%d)", tt.n)
	}
}

// The final chunk size must stay within bounds whatever the current
// memory pressure reading: at least the floor after the 0.8 adjustment,
// at most the ceiling after it, and always a multiple of the unroll
// factor.
func TestChunkSizeBounds(t *testing.T) {
	for _, n := range []int64{100, 6_000, 50_000, 250_000, 1_000_000, 10_000_000, 100_000_000} {
		size := chunkSize(n)
		assert.True(t, size%partialUnrollFactor == 0, "chunkSize(%d) = %d not a multiple of %d",
			n, size, partialUnrollFactor)
		assert.True(t, size >= minChunk*8/10, "chunkSize(%d) = %d below floor", n, size)
		assert.True(t, size <= maxChunk*8/10, "chunkSize(%d) = %d above ceiling", n, size)
	}
}

func hasBlock(fn *ir.Function, prefix string) bool {
	for _, b := range fn.Blocks {
		if strings.HasPrefix(b.Name, prefix) {
			return true
		}
	}
	return false
}

func mainFn(t *testing.T, irm *ir.Module) *ir.Function {
	t.Helper()
	fn, ok := irm.Func("main")
	assert.True(t, ok)
	return fn
}

func TestFullUnrollEliminatesLoop(t *testing.T) {
	mod := module(rangeFor("i", 4, printStmt(name("i"))))
	irm := compileModule(t, mod, Options{OptLevel: OptUnroll})
	fn := mainFn(t, irm)
	assert.False(t, hasBlock(fn, "for.cond"), "unrolled loop still has a header")
	assert.True(t, hasBlock(fn, "unroll.cont"))
	assert.Equal(t, runIR(t, irm), "0\n1\n2\n3\n")
}

func TestFullUnrollNegativeStep(t *testing.T) {
	mod := module(&ast.For{
		Target: name("i"),
		Iter: callExpr("range", intLit(5), intLit(0),
			&ast.UnaryOp{Op: "-", Operand: intLit(1)}),
		Body: []ast.Stmt{printStmt(name("i"))},
	})
	out := runProgram(t, mod, Options{OptLevel: OptUnroll})
	assert.Equal(t, out, "5\n4\n3\n2\n1\n")
}

func TestPartialUnrollKeepsSemantics(t *testing.T) {
	mod := module(rangeFor("i", 20, printStmt(name("i"))))
	irm := compileModule(t, mod, Options{OptLevel: OptUnroll})
	// 20 iterations exceed the full-unroll threshold but divide evenly by
	// the factor, so the loop advances four at a time.
	assert.True(t, hasBlock(mainFn(t, irm), "for.cond"))
	var want strings.Builder
	for i := 0; i < 20; i++ {
		want.WriteString(strconv.Itoa(i) + "\n")
	}
	assert.Equal(t, runIR(t, irm), want.String())
}

func TestBreakDisablesUnrolling(t *testing.T) {
	mod := module(rangeFor("i", 8,
		&ast.If{
			Test: cmp(name("i"), "==", intLit(2)),
			Body: []ast.Stmt{&ast.Break{}},
		},
		printStmt(name("i")),
	))
	irm := compileModule(t, mod, Options{OptLevel: OptUnroll})
	assert.True(t, hasBlock(mainFn(t, irm), "for.cond"))
	assert.False(t, hasBlock(mainFn(t, irm), "unroll.cont"))
	assert.Equal(t, runIR(t, irm), "0\n1\n")
}

func TestZeroIterationRangeRunsElseOnly(t *testing.T) {
	mod := module(&ast.For{
		Target: name("i"),
		Iter:   callExpr("range", intLit(0)),
		Body:   []ast.Stmt{printStmt(name("i"))},
		OrElse: []ast.Stmt{printStmt(strLit("else"))},
	})
	irm := compileModule(t, mod, Options{OptLevel: OptUnroll})
	assert.False(t, hasBlock(mainFn(t, irm), "for.cond"))
	assert.Equal(t, runIR(t, irm), "else\n")
}

func TestChunkedLoopSums(t *testing.T) {
	mod := module(
		assignStmt("total", intLit(0)),
		rangeFor("i", 6_000,
			&ast.AugAssign{Target: name("total"), Op: "+", Value: intLit(1)},
		),
		printStmt(name("total")),
	)
	irm := compileModule(t, mod, Options{OptLevel: OptChunk})
	assert.True(t, hasBlock(mainFn(t, irm), "chunk.cond"), "loop was not chunked")
	assert.Equal(t, runIR(t, irm), "6000\n")
}

func TestChunkedLoopWithStep(t *testing.T) {
	mod := module(
		assignStmt("total", intLit(0)),
		&ast.For{
			Target: name("i"),
			Iter:   callExpr("range", intLit(0), intLit(18_000), intLit(3)),
			Body: []ast.Stmt{
				&ast.AugAssign{Target: name("total"), Op: "+", Value: name("i")},
			},
		},
		printStmt(name("total")),
	)
	// sum of 0, 3, ..., 17997 over 6000 iterations
	assert.Equal(t, runProgram(t, mod, Options{OptLevel: OptChunk}), "53991000\n")
}

func TestDynamicRangeChunks(t *testing.T) {
	mod := module(
		assignStmt("n", binOp(intLit(3_000), "+", intLit(3_000))),
		assignStmt("total", intLit(0)),
		&ast.For{
			Target: name("i"),
			Iter:   callExpr("range", name("n")),
			Body: []ast.Stmt{
				&ast.AugAssign{Target: name("total"), Op: "+", Value: intLit(1)},
			},
		},
		printStmt(name("total")),
	)
	irm := compileModule(t, mod, Options{OptLevel: OptChunk})
	assert.True(t, hasBlock(mainFn(t, irm), "chunk.cond"))
	assert.Equal(t, runIR(t, irm), "6000\n")
}

func TestFlattenNestedRanges(t *testing.T) {
	mod := module(
		&ast.For{
			Target: name("i"),
			Iter:   callExpr("range", intLit(3)),
			Body: []ast.Stmt{
				&ast.For{
					Target: name("j"),
					Iter:   callExpr("range", intLit(2)),
					Body: []ast.Stmt{
						printStmt(binOp(binOp(name("i"), "*", intLit(10)), "+", name("j"))),
					},
				},
			},
		},
	)
	irm := compileModule(t, mod, Options{OptLevel: OptChunk})
	fn := mainFn(t, irm)
	assert.True(t, hasBlock(fn, "flat.cond"), "nest was not flattened")
	assert.Equal(t, runIR(t, irm), "0\n1\n10\n11\n20\n21\n")
}

func TestParallelLoopStructure(t *testing.T) {
	mod := module(
		rangeFor("i", 2_000,
			assignStmt("x", binOp(name("i"), "*", intLit(2))),
		),
	)
	irm := compileModule(t, mod, Options{OptLevel: OptParallel})
	body, ok := irm.Func("parallel_body_0")
	assert.True(t, ok, "no parallel body function was synthesized")
	assert.Equal(t, len(body.Params), 1)
	assert.Equal(t, body.Params[0].Name, "i")

	dispatch, ok := irm.Func("parallel_range_for_each")
	assert.True(t, ok)
	assert.True(t, dispatch.Extern)

	found := false
	for _, b := range mainFn(t, irm).Blocks {
		for _, in := range b.Instrs {
			if in.Op == ir.OpCall && in.Callee == dispatch {
				found = true
			}
		}
	}
	assert.True(t, found, "main does not dispatch to the worker pool")
}

func TestReturnInBodyDisablesParallel(t *testing.T) {
	// A return cannot cross the body-function boundary, so the loop stays
	// serial even at the highest level.
	mod := module(
		&ast.FunctionDef{
			Name: "f",
			Body: []ast.Stmt{
				rangeFor("i", 2_000, &ast.Return{Value: name("i")}),
				&ast.Return{Value: intLit(-1)},
			},
		},
		printStmt(callExpr("f")),
	)
	irm := compileModule(t, mod, Options{OptLevel: OptParallel})
	_, ok := irm.Func("parallel_body_0")
	assert.False(t, ok)
	assert.Equal(t, runIR(t, irm), "0\n")
}

func TestHugeConstantRangeCompiles(t *testing.T) {
	mod := module(
		assignStmt("x", intLit(0)),
		rangeFor("i", 10_000_000, assignStmt("x", name("i"))),
	)
	irm := compileModule(t, mod, Options{})
	// The canonical lowering is a fixed-size block graph no matter how
	// large the range is.
	assert.True(t, len(mainFn(t, irm).Blocks) < 16)
}
