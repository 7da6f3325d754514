package ir

import (
	"strings"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
)

func TestBuildSimpleFunction(t *testing.T) {
	mod := NewModule("test")
	fn := mod.NewFunction("answer", NewSignature(I64))
	b := NewBuilder(mod)
	b.SetInsertPoint(fn.NewBlock("entry"))
	sum := b.Add(ConstInt(I64, 40), ConstInt(I64, 2))
	b.Ret(sum)

	assert.Len(t, fn.Blocks, 1)
	assert.NotNil(t, fn.Entry().Terminator())
	text := mod.String()
	assert.Contains(t, text, "define i64 @answer()")
	assert.Contains(t, text, "add i64 40, 2")
	assert.Contains(t, text, "ret i64")
}

func TestBuilderDropsCodeAfterTerminator(t *testing.T) {
	mod := NewModule("test")
	fn := mod.NewFunction("f", NewSignature(Void))
	b := NewBuilder(mod)
	b.SetInsertPoint(fn.NewBlock("entry"))
	b.RetVoid()
	b.Add(ConstInt(I64, 1), ConstInt(I64, 2))
	b.RetVoid()

	// The block keeps exactly one terminator and nothing after it.
	assert.Len(t, fn.Entry().Instrs, 1)
	assert.True(t, fn.Entry().Terminated())
}

func TestAllocaInEntryHoistsCell(t *testing.T) {
	mod := NewModule("test")
	fn := mod.NewFunction("f", NewSignature(Void))
	b := NewBuilder(mod)
	entry := fn.NewBlock("entry")
	body := fn.NewBlock("body")
	b.SetInsertPoint(entry)
	b.Br(body)
	b.SetInsertPoint(body)

	cell := b.AllocaInEntry(I64, "x")
	assert.Equal(t, cell.Parent(), entry)
	// The entry terminator stays last.
	assert.True(t, entry.Instrs[len(entry.Instrs)-1].IsTerminator())

	b.Store(ConstInt(I64, 7), cell)
	loaded := b.Load(I64, cell)
	b.RetVoid()
	assert.Equal(t, loaded.Parent(), body)
}

func TestBlockNamesAreUnique(t *testing.T) {
	mod := NewModule("test")
	fn := mod.NewFunction("f", NewSignature(Void))
	a := fn.NewBlock("loop")
	b := fn.NewBlock("loop")
	assert.True(t, a.Name != b.Name, "expected distinct names, got %q and %q", a.Name, b.Name)
}

func TestDeclareIsIdempotent(t *testing.T) {
	mod := NewModule("test")
	sig := NewSignature(Void, I64)
	a := mod.Declare("print_int", sig)
	c := mod.Declare("print_int", sig)
	assert.Equal(t, a, c)
	assert.True(t, a.Extern)
}

func TestGlobalPrinting(t *testing.T) {
	mod := NewModule("test")
	g := mod.NewGlobal("counter", I64)
	assert.Equal(t, g.Ident(), "@counter")
	assert.True(t, strings.Contains(mod.String(), "@counter = global i64 zeroinitializer"))
}

func TestCondBrAndPhiPrinting(t *testing.T) {
	mod := NewModule("test")
	fn := mod.NewFunction("pick", NewSignature(I64, I1), "flag")
	b := NewBuilder(mod)
	entry := fn.NewBlock("entry")
	then := fn.NewBlock("then")
	els := fn.NewBlock("else")
	merge := fn.NewBlock("merge")

	b.SetInsertPoint(entry)
	b.CondBr(fn.Params[0], then, els)
	b.SetInsertPoint(then)
	b.Br(merge)
	b.SetInsertPoint(els)
	b.Br(merge)
	b.SetInsertPoint(merge)
	result := b.Phi(I64,
		Incoming{Value: ConstInt(I64, 1), Block: then},
		Incoming{Value: ConstInt(I64, 2), Block: els},
	)
	b.Ret(result)

	text := mod.String()
	assert.Contains(t, text, "br i1 %flag, label %then, label %else")
	assert.Contains(t, text, "phi i64 [ 1, %then ], [ 2, %else ]")
}
