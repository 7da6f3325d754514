package cheetah

import (
	"bytes"
	"context"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"

	"github.com/cheetah-lang/cheetah/compiler"
)

// evalSource runs source through the full pipeline and returns what it
// printed.
func evalSource(t *testing.T, source string, opts ...Option) string {
	t.Helper()
	var buf bytes.Buffer
	opts = append(opts, WithStdout(&buf))
	code, err := Eval(context.Background(), source, opts...)
	assert.NoError(t, err)
	assert.Equal(t, code, int64(0))
	return buf.String()
}

func TestEvalArithmetic(t *testing.T) {
	assert.Equal(t, evalSource(t, "x = 1 + 2\nprint(x)\n"), "3\n")
}

func TestEvalRangeLoop(t *testing.T) {
	source := "for i in range(3):\n    print(i)\n"
	assert.Equal(t, evalSource(t, source), "0\n1\n2\n")
}

func TestDefaultParameter(t *testing.T) {
	source := "def add(a, b=1):\n    return a + b\nprint(add(41))\n"
	assert.Equal(t, evalSource(t, source), "42\n")
}

func TestNonlocalCounter(t *testing.T) {
	source := `def outer():
    count = 0
    def inc():
        nonlocal count
        count = count + 1
    inc()
    inc()
    return count
print(outer())
`
	assert.Equal(t, evalSource(t, source), "2\n")
}

func TestDictKeysInsertionOrder(t *testing.T) {
	source := "d = {\"a\": 1, \"b\": 2}\nfor k in d.keys():\n    print(k)\n"
	assert.Equal(t, evalSource(t, source), "a\nb\n")
}

func TestRaiseAndCatchClassException(t *testing.T) {
	source := `class E:
    pass

try:
    raise E()
except E:
    print("caught")
finally:
    print("done")
`
	assert.Equal(t, evalSource(t, source), "caught\ndone\n")
}

func TestVeryLargeRangeCompiles(t *testing.T) {
	source := "total = 0\nfor i in range(10_000_000):\n    total += 1\n"
	for level := compiler.OptNone; level <= compiler.OptParallel; level++ {
		mod, err := Compile(context.Background(), source, WithOptLevel(level))
		assert.NoError(t, err)
		assert.NotNil(t, mod)
	}
}

func TestLoopSumMatchesAcrossOptLevels(t *testing.T) {
	source := `total = 0
for i in range(23):
    if i % 2 == 0:
        total += i
print(total)
`
	want := evalSource(t, source, WithOptLevel(compiler.OptNone))
	for level := compiler.OptUnroll; level <= compiler.OptParallel; level++ {
		assert.Equal(t, evalSource(t, source, WithOptLevel(level)), want)
	}
}

func TestFrontendsObserveSameEffects(t *testing.T) {
	source := `def classify(n):
    if n < 0:
        return "neg"
    elif n == 0:
        return "zero"
    return "pos"

for x in range(4):
    print(classify(x - 1))
try:
    raise "boom"
except:
    print("caught")
`
	workStack := evalSource(t, source)
	recursive := evalSource(t, source, WithRecursiveFrontend())
	assert.Equal(t, recursive, workStack)
}

func TestCheckAcceptsValidProgram(t *testing.T) {
	env, err := Check(context.Background(), "x = 1\ny = x + 2\n")
	assert.NoError(t, err)
	assert.NotNil(t, env)
}

func TestParseErrorSurfacesFromEval(t *testing.T) {
	code, err := Eval(context.Background(), "x = = 1\n", WithFilename("bad.ch"))
	assert.Error(t, err)
	assert.Equal(t, code, int64(1))
}

func TestCompiledModulePrints(t *testing.T) {
	mod, err := Compile(context.Background(), "print(1)\n", WithFilename("p.ch"))
	assert.NoError(t, err)
	assert.Contains(t, mod.String(), "main")
}

func TestWithExternOverridesSymbol(t *testing.T) {
	var buf bytes.Buffer
	mod, err := Compile(context.Background(), "print(\"hi\")\n")
	assert.NoError(t, err)
	called := false
	_, err = Run(context.Background(), mod,
		WithStdout(&buf),
		WithExtern("print_value", func(args []any) any {
			called = true
			return nil
		}))
	assert.NoError(t, err)
	assert.True(t, called)
}
