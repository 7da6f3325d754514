package parser

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"

	"github.com/cheetah-lang/cheetah/ast"
)

func TestSimpleAssignment(t *testing.T) {
	module := parse(t, "x = 1 + 2\n")
	assert.Len(t, module.Stmts, 1)
	assign, ok := module.Stmts[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected assignment, got %T", module.Stmts[0])
	}
	assert.Len(t, assign.Targets, 1)
	assert.Equal(t, "x", assign.Targets[0].String())
	assert.Equal(t, "(1 + 2)", assign.Value.String())
}

func TestChainedAssignment(t *testing.T) {
	module := parse(t, "a = b = 1\n")
	assign := module.Stmts[0].(*ast.Assign)
	assert.Len(t, assign.Targets, 2)
	assert.Equal(t, "1", assign.Value.String())
}

func TestTupleAssignment(t *testing.T) {
	module := parse(t, "a, b = b, a\n")
	assign := module.Stmts[0].(*ast.Assign)
	assert.Len(t, assign.Targets, 1)
	target, ok := assign.Targets[0].(*ast.Tuple)
	assert.True(t, ok)
	assert.Len(t, target.Elts, 2)
	value, ok := assign.Value.(*ast.Tuple)
	assert.True(t, ok)
	assert.Len(t, value.Elts, 2)
}

func TestStarredAssignmentTarget(t *testing.T) {
	module := parse(t, "first, *rest = items\n")
	assign := module.Stmts[0].(*ast.Assign)
	target := assign.Targets[0].(*ast.Tuple)
	assert.Len(t, target.Elts, 2)
	_, ok := target.Elts[1].(*ast.Starred)
	assert.True(t, ok)
}

func TestAugmentedAssignments(t *testing.T) {
	tests := []struct {
		input string
		op    string
	}{
		{"x += 1\n", "+"},
		{"x -= 1\n", "-"},
		{"x *= 2\n", "*"},
		{"x /= 2\n", "/"},
		{"x //= 2\n", "//"},
		{"x %= 2\n", "%"},
		{"x **= 2\n", "**"},
		{"x &= 1\n", "&"},
		{"x |= 1\n", "|"},
		{"x ^= 1\n", "^"},
		{"x <<= 1\n", "<<"},
		{"x >>= 1\n", ">>"},
	}
	for _, tc := range tests {
		module := parse(t, tc.input)
		aug, ok := module.Stmts[0].(*ast.AugAssign)
		if !ok {
			t.Fatalf("expected augmented assignment for %q, got %T", tc.input, module.Stmts[0])
		}
		assert.Equal(t, tc.op, aug.Op)
	}
}

func TestAnnotatedAssignment(t *testing.T) {
	module := parse(t, "count: int = 0\n")
	ann, ok := module.Stmts[0].(*ast.AnnAssign)
	if !ok {
		t.Fatalf("expected annotated assignment, got %T", module.Stmts[0])
	}
	assert.Equal(t, "count", ann.Target.String())
	assert.Equal(t, "int", ann.Annotation.String())
	assert.Equal(t, "0", ann.Value.String())

	module = parse(t, "name: str\n")
	ann = module.Stmts[0].(*ast.AnnAssign)
	assert.Nil(t, ann.Value)
}

func TestSemicolonSeparatedStatements(t *testing.T) {
	module := parse(t, "a = 1; b = 2; c = 3\n")
	assert.Len(t, module.Stmts, 3)
}

func TestIfElifElse(t *testing.T) {
	module := parse(t, `
if a:
    x = 1
elif b:
    x = 2
else:
    x = 3
`)
	stmt, ok := module.Stmts[0].(*ast.If)
	if !ok {
		t.Fatalf("expected if statement, got %T", module.Stmts[0])
	}
	assert.Equal(t, "a", stmt.Test.String())
	assert.Len(t, stmt.Body, 1)
	assert.Len(t, stmt.OrElse, 1)
	elif, ok := stmt.OrElse[0].(*ast.If)
	if !ok {
		t.Fatalf("expected nested if for elif, got %T", stmt.OrElse[0])
	}
	assert.Equal(t, "b", elif.Test.String())
	assert.Len(t, elif.OrElse, 1)
}

func TestInlineSuite(t *testing.T) {
	module := parse(t, "if ready: a = 1; b = 2\n")
	stmt := module.Stmts[0].(*ast.If)
	assert.Len(t, stmt.Body, 2)
}

func TestWhileWithElse(t *testing.T) {
	module := parse(t, `
while n > 0:
    n -= 1
else:
    done = True
`)
	stmt := module.Stmts[0].(*ast.While)
	assert.Equal(t, "(n > 0)", stmt.Test.String())
	assert.Len(t, stmt.Body, 1)
	assert.Len(t, stmt.OrElse, 1)
}

func TestForLoop(t *testing.T) {
	module := parse(t, `
for i in range(10):
    total += i
else:
    print(total)
`)
	stmt := module.Stmts[0].(*ast.For)
	assert.Equal(t, "i", stmt.Target.String())
	assert.Equal(t, "range(10)", stmt.Iter.String())
	assert.Len(t, stmt.Body, 1)
	assert.Len(t, stmt.OrElse, 1)
}

func TestForLoopTupleTarget(t *testing.T) {
	module := parse(t, "for k, v in items:\n    print(k, v)\n")
	stmt := module.Stmts[0].(*ast.For)
	target, ok := stmt.Target.(*ast.Tuple)
	assert.True(t, ok)
	assert.Len(t, target.Elts, 2)
}

func TestNestedLoops(t *testing.T) {
	module := parse(t, `
for i in range(3):
    for j in range(4):
        total += i * j
`)
	outer := module.Stmts[0].(*ast.For)
	assert.Len(t, outer.Body, 1)
	inner, ok := outer.Body[0].(*ast.For)
	assert.True(t, ok)
	assert.Len(t, inner.Body, 1)
}

func TestBreakContinuePass(t *testing.T) {
	module := parse(t, `
while True:
    if a:
        break
    if b:
        continue
    pass
`)
	loop := module.Stmts[0].(*ast.While)
	assert.Len(t, loop.Body, 3)
	first := loop.Body[0].(*ast.If)
	_, ok := first.Body[0].(*ast.Break)
	assert.True(t, ok)
	second := loop.Body[1].(*ast.If)
	_, ok = second.Body[0].(*ast.Continue)
	assert.True(t, ok)
	_, ok = loop.Body[2].(*ast.Pass)
	assert.True(t, ok)
}

func TestFunctionDef(t *testing.T) {
	module := parse(t, `
def add(a, b=2, *rest, **extra) -> int:
    return a + b
`)
	fn, ok := module.Stmts[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected function definition, got %T", module.Stmts[0])
	}
	assert.Equal(t, "add", fn.Name)
	assert.Len(t, fn.Params, 2)
	assert.Nil(t, fn.Params[0].Default)
	assert.Equal(t, "2", fn.Params[1].Default.String())
	assert.Equal(t, "rest", fn.VarArg)
	assert.Equal(t, "extra", fn.KwArg)
	assert.Equal(t, "int", fn.Returns.String())
	ret, ok := fn.Body[0].(*ast.Return)
	assert.True(t, ok)
	assert.Equal(t, "(a + b)", ret.Value.String())
}

func TestFunctionParamAnnotations(t *testing.T) {
	module := parse(t, "def f(x: int, y: float = 1.5):\n    return x\n")
	fn := module.Stmts[0].(*ast.FunctionDef)
	assert.Equal(t, "int", fn.Params[0].Annotation.String())
	assert.Equal(t, "float", fn.Params[1].Annotation.String())
	assert.Equal(t, "1.5", fn.Params[1].Default.String())
}

func TestBareReturn(t *testing.T) {
	module := parse(t, "def f():\n    return\n")
	fn := module.Stmts[0].(*ast.FunctionDef)
	ret := fn.Body[0].(*ast.Return)
	assert.Nil(t, ret.Value)
}

func TestNestedFunctionDef(t *testing.T) {
	module := parse(t, `
def outer():
    def inner():
        return 1
    return inner
`)
	outer := module.Stmts[0].(*ast.FunctionDef)
	assert.Len(t, outer.Body, 2)
	inner, ok := outer.Body[0].(*ast.FunctionDef)
	assert.True(t, ok)
	assert.Equal(t, "inner", inner.Name)
}

func TestDecorators(t *testing.T) {
	module := parse(t, `
@trace
@registry.add("name")
def f():
    pass
`)
	fn := module.Stmts[0].(*ast.FunctionDef)
	assert.Len(t, fn.Decorators, 2)
	assert.Equal(t, "trace", fn.Decorators[0].String())
	_, ok := fn.Decorators[1].(*ast.Call)
	assert.True(t, ok)
}

func TestAsyncDef(t *testing.T) {
	module := parse(t, "async def fetch():\n    pass\n")
	fn := module.Stmts[0].(*ast.FunctionDef)
	assert.True(t, fn.IsAsync)
	assert.Equal(t, "fetch", fn.Name)
}

func TestClassDef(t *testing.T) {
	module := parse(t, `
class Point(Base):
    def __init__(self, x, y):
        self.x = x
        self.y = y

    def norm(self):
        return self.x ** 2 + self.y ** 2
`)
	cls, ok := module.Stmts[0].(*ast.ClassDef)
	if !ok {
		t.Fatalf("expected class definition, got %T", module.Stmts[0])
	}
	assert.Equal(t, "Point", cls.Name)
	assert.Len(t, cls.Bases, 1)
	assert.Equal(t, "Base", cls.Bases[0].String())
	assert.Len(t, cls.Body, 2)
}

func TestTryExceptElseFinally(t *testing.T) {
	module := parse(t, `
try:
    risky()
except ValueError as e:
    handle(e)
except:
    fallback()
else:
    ok()
finally:
    cleanup()
`)
	stmt, ok := module.Stmts[0].(*ast.Try)
	if !ok {
		t.Fatalf("expected try statement, got %T", module.Stmts[0])
	}
	assert.Len(t, stmt.Handlers, 2)
	assert.Equal(t, "ValueError", stmt.Handlers[0].Type.String())
	assert.Equal(t, "e", stmt.Handlers[0].Name)
	assert.Nil(t, stmt.Handlers[1].Type)
	assert.Len(t, stmt.OrElse, 1)
	assert.Len(t, stmt.FinalBody, 1)
}

func TestTryWithoutHandlersFails(t *testing.T) {
	err := parseFail(t, "try:\n    x = 1\n")
	assert.Contains(t, err.Error(), "except or finally")
}

func TestRaise(t *testing.T) {
	module := parse(t, `raise ValueError("bad")`+"\n")
	stmt := module.Stmts[0].(*ast.Raise)
	assert.NotNil(t, stmt.Exc)
	assert.Nil(t, stmt.Cause)

	module = parse(t, "raise Wrapped(e) from e\n")
	stmt = module.Stmts[0].(*ast.Raise)
	assert.Equal(t, "e", stmt.Cause.String())

	module = parse(t, "try:\n    x()\nexcept:\n    raise\n")
	try := module.Stmts[0].(*ast.Try)
	bare := try.Handlers[0].Body[0].(*ast.Raise)
	assert.Nil(t, bare.Exc)
}

func TestWithStatement(t *testing.T) {
	module := parse(t, `
with open(path) as f, lock:
    data = f.read()
`)
	stmt, ok := module.Stmts[0].(*ast.With)
	if !ok {
		t.Fatalf("expected with statement, got %T", module.Stmts[0])
	}
	assert.Len(t, stmt.Items, 2)
	assert.Equal(t, "open(path)", stmt.Items[0].ContextExpr.String())
	assert.Equal(t, "f", stmt.Items[0].Optional.String())
	assert.Nil(t, stmt.Items[1].Optional)
}

func TestGlobalAndNonlocal(t *testing.T) {
	module := parse(t, "def f():\n    global a, b\n    nonlocal c\n")
	fn := module.Stmts[0].(*ast.FunctionDef)
	g := fn.Body[0].(*ast.Global)
	assert.Equal(t, []string{"a", "b"}, g.Names)
	n := fn.Body[1].(*ast.Nonlocal)
	assert.Equal(t, []string{"c"}, n.Names)
}

func TestImports(t *testing.T) {
	module := parse(t, "import os.path as p, sys\n")
	imp := module.Stmts[0].(*ast.Import)
	assert.Len(t, imp.Names, 2)
	assert.Equal(t, "os.path", imp.Names[0].Name)
	assert.Equal(t, "p", imp.Names[0].AsName)
	assert.Equal(t, "sys", imp.Names[1].Name)
}

func TestImportFrom(t *testing.T) {
	module := parse(t, "from os.path import join as j, split\n")
	imp := module.Stmts[0].(*ast.ImportFrom)
	assert.Equal(t, "os.path", imp.Module)
	assert.Equal(t, 0, imp.Level)
	assert.Len(t, imp.Names, 2)
	assert.Equal(t, "j", imp.Names[0].AsName)

	module = parse(t, "from . import util\n")
	imp = module.Stmts[0].(*ast.ImportFrom)
	assert.Equal(t, 1, imp.Level)
	assert.Equal(t, "", imp.Module)

	module = parse(t, "from pkg import *\n")
	imp = module.Stmts[0].(*ast.ImportFrom)
	assert.Equal(t, "*", imp.Names[0].Name)

	module = parse(t, "from pkg import (a, b,)\n")
	imp = module.Stmts[0].(*ast.ImportFrom)
	assert.Len(t, imp.Names, 2)
}

func TestDelete(t *testing.T) {
	module := parse(t, "del cache[key], temp\n")
	stmt := module.Stmts[0].(*ast.Delete)
	assert.Len(t, stmt.Targets, 2)
	_, ok := stmt.Targets[0].(*ast.Subscript)
	assert.True(t, ok)
}

func TestAssert(t *testing.T) {
	module := parse(t, "assert n > 0\n")
	stmt := module.Stmts[0].(*ast.Assert)
	assert.Equal(t, "(n > 0)", stmt.Test.String())
	assert.Nil(t, stmt.Msg)

	module = parse(t, `assert n > 0, "must be positive"`+"\n")
	stmt = module.Stmts[0].(*ast.Assert)
	assert.NotNil(t, stmt.Msg)
}

func TestMatchStatement(t *testing.T) {
	module := parse(t, `
match command:
    case "start" if ready:
        begin()
    case "stop":
        halt()
    case _:
        ignore()
`)
	stmt, ok := module.Stmts[0].(*ast.Match)
	if !ok {
		t.Fatalf("expected match statement, got %T", module.Stmts[0])
	}
	assert.Equal(t, "command", stmt.Subject.String())
	assert.Len(t, stmt.Cases, 3)
	assert.NotNil(t, stmt.Cases[0].Guard)
	assert.Nil(t, stmt.Cases[1].Guard)
	assert.Equal(t, "_", stmt.Cases[2].Pattern.String())
}

func TestYieldStatement(t *testing.T) {
	module := parse(t, "def gen():\n    yield 1\n    yield from other\n")
	fn := module.Stmts[0].(*ast.FunctionDef)
	y, ok := fn.Body[0].(*ast.ExprStmt).Value.(*ast.Yield)
	assert.True(t, ok)
	assert.Equal(t, "1", y.Value.String())
	_, ok = fn.Body[1].(*ast.ExprStmt).Value.(*ast.YieldFrom)
	assert.True(t, ok)
}

func TestBlankLinesAndComments(t *testing.T) {
	module := parse(t, `
# setup
x = 1

# work
y = x + 1  # inline comment
`)
	assert.Len(t, module.Stmts, 2)
}

func TestMultilineExpressionsInBrackets(t *testing.T) {
	module := parse(t, `
values = [
    1,
    2,
    3,
]
total = (1 +
         2)
`)
	assert.Len(t, module.Stmts, 2)
	list := module.Stmts[0].(*ast.Assign).Value.(*ast.List)
	assert.Len(t, list.Elts, 3)
}

func TestDeeplyNestedBlocks(t *testing.T) {
	module := parse(t, `
if a:
    if b:
        if c:
            if d:
                x = 1
`)
	stmt := module.Stmts[0].(*ast.If)
	depth := 1
	for {
		inner, ok := stmt.Body[0].(*ast.If)
		if !ok {
			break
		}
		stmt = inner
		depth++
	}
	assert.Equal(t, 4, depth)
}

func TestModuleFilename(t *testing.T) {
	module, err := Parse(context.Background(), "x = 1\n", WithFilename("app.ch"))
	assert.NoError(t, err)
	assert.Equal(t, "app.ch", module.Filename)
}
