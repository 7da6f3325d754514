package ir

import "fmt"

// Builder emits instructions at an insertion cursor. It hands out unique
// SSA names within the current function and refuses to emit past a
// terminator, which keeps every block single-terminated by construction.
type Builder struct {
	mod *Module
	cur *Block
}

func NewBuilder(mod *Module) *Builder {
	return &Builder{mod: mod}
}

// Module is the module being built.
func (b *Builder) Module() *Module { return b.mod }

// SetInsertPoint positions the cursor at the end of block.
func (b *Builder) SetInsertPoint(block *Block) { b.cur = block }

// InsertBlock is the block the cursor is currently positioned at.
func (b *Builder) InsertBlock() *Block { return b.cur }

func (b *Builder) nextName() string {
	return fmt.Sprintf("t%d", b.cur.fn.nextID())
}

// insert appends the instruction unless the current block already has a
// terminator, in which case the instruction is dropped. Dropping is safe:
// code after a terminator is unreachable by definition.
func (b *Builder) insert(in *Instr) *Instr {
	if b.cur == nil {
		panic("ir: builder has no insertion block")
	}
	if b.cur.Terminated() {
		return in
	}
	in.parent = b.cur
	b.cur.Instrs = append(b.cur.Instrs, in)
	return in
}

func (b *Builder) binary(op Op, x, y Value) *Instr {
	return b.insert(&Instr{Op: op, Name: b.nextName(), Typ: x.Type(), Args: []Value{x, y}})
}

func (b *Builder) Add(x, y Value) *Instr  { return b.binary(OpAdd, x, y) }
func (b *Builder) Sub(x, y Value) *Instr  { return b.binary(OpSub, x, y) }
func (b *Builder) Mul(x, y Value) *Instr  { return b.binary(OpMul, x, y) }
func (b *Builder) SDiv(x, y Value) *Instr { return b.binary(OpSDiv, x, y) }
func (b *Builder) SRem(x, y Value) *Instr { return b.binary(OpSRem, x, y) }
func (b *Builder) FAdd(x, y Value) *Instr { return b.binary(OpFAdd, x, y) }
func (b *Builder) FSub(x, y Value) *Instr { return b.binary(OpFSub, x, y) }
func (b *Builder) FMul(x, y Value) *Instr { return b.binary(OpFMul, x, y) }
func (b *Builder) FDiv(x, y Value) *Instr { return b.binary(OpFDiv, x, y) }
func (b *Builder) FRem(x, y Value) *Instr { return b.binary(OpFRem, x, y) }
func (b *Builder) And(x, y Value) *Instr  { return b.binary(OpAnd, x, y) }
func (b *Builder) Or(x, y Value) *Instr   { return b.binary(OpOr, x, y) }
func (b *Builder) Xor(x, y Value) *Instr  { return b.binary(OpXor, x, y) }
func (b *Builder) Shl(x, y Value) *Instr  { return b.binary(OpShl, x, y) }
func (b *Builder) AShr(x, y Value) *Instr { return b.binary(OpAShr, x, y) }

// ICmp compares two integer values, producing an i1.
func (b *Builder) ICmp(pred Pred, x, y Value) *Instr {
	return b.insert(&Instr{Op: OpICmp, Name: b.nextName(), Typ: I1, Pred: pred, Args: []Value{x, y}})
}

// FCmp compares two floating-point values, producing an i1.
func (b *Builder) FCmp(pred Pred, x, y Value) *Instr {
	return b.insert(&Instr{Op: OpFCmp, Name: b.nextName(), Typ: I1, Pred: pred, Args: []Value{x, y}})
}

// Alloca reserves a stack cell for one value of typ and yields its address.
func (b *Builder) Alloca(typ *Type, name string) *Instr {
	if name == "" {
		name = b.nextName()
	} else {
		name = fmt.Sprintf("%s.%d", name, b.cur.fn.nextID())
	}
	return b.insert(&Instr{Op: OpAlloca, Name: name, Typ: PointerTo(typ)})
}

// AllocaInEntry reserves the cell in the function's entry block regardless
// of the cursor, preserving dominance for cells created mid-body.
func (b *Builder) AllocaInEntry(typ *Type, name string) *Instr {
	entry := b.cur.fn.Entry()
	if entry == b.cur {
		return b.Alloca(typ, name)
	}
	saved := b.cur
	b.cur = entry
	// Insert before the entry terminator if one exists.
	if entry.Terminated() {
		term := entry.Instrs[len(entry.Instrs)-1]
		entry.Instrs = entry.Instrs[:len(entry.Instrs)-1]
		cell := b.Alloca(typ, name)
		entry.Instrs = append(entry.Instrs, term)
		b.cur = saved
		return cell
	}
	cell := b.Alloca(typ, name)
	b.cur = saved
	return cell
}

// Load reads the value stored at ptr.
func (b *Builder) Load(typ *Type, ptr Value) *Instr {
	return b.insert(&Instr{Op: OpLoad, Name: b.nextName(), Typ: typ, Args: []Value{ptr}})
}

// Store writes val to ptr.
func (b *Builder) Store(val, ptr Value) *Instr {
	return b.insert(&Instr{Op: OpStore, Typ: Void, Args: []Value{val, ptr}})
}

// GEP computes the address of element idx within the array at ptr.
func (b *Builder) GEP(elem *Type, ptr, idx Value) *Instr {
	return b.insert(&Instr{Op: OpGEP, Name: b.nextName(), Typ: PointerTo(elem), Args: []Value{ptr, idx}})
}

func (b *Builder) convert(op Op, v Value, to *Type) *Instr {
	return b.insert(&Instr{Op: op, Name: b.nextName(), Typ: to, Args: []Value{v}})
}

func (b *Builder) Bitcast(v Value, to *Type) *Instr { return b.convert(OpBitcast, v, to) }
func (b *Builder) PtrToInt(v Value) *Instr          { return b.convert(OpPtrToInt, v, I64) }
func (b *Builder) IntToPtr(v Value) *Instr          { return b.convert(OpIntToPtr, v, Ptr) }
func (b *Builder) SIToFP(v Value) *Instr            { return b.convert(OpSIToFP, v, F64) }
func (b *Builder) FPToSI(v Value) *Instr            { return b.convert(OpFPToSI, v, I64) }
func (b *Builder) ZExt(v Value, to *Type) *Instr    { return b.convert(OpZExt, v, to) }
func (b *Builder) Trunc(v Value, to *Type) *Instr   { return b.convert(OpTrunc, v, to) }

// Select picks between two values on an i1 condition.
func (b *Builder) Select(cond, then, els Value) *Instr {
	return b.insert(&Instr{Op: OpSelect, Name: b.nextName(), Typ: then.Type(), Args: []Value{cond, then, els}})
}

// Call invokes fn with args. Void calls produce no usable value.
func (b *Builder) Call(fn *Function, args ...Value) *Instr {
	in := &Instr{Op: OpCall, Typ: fn.Sig.Return, Callee: fn, Args: args}
	if fn.Sig.Return.Kind != KindVoid {
		in.Name = b.nextName()
	}
	return b.insert(in)
}

// Phi merges values from predecessor blocks.
func (b *Builder) Phi(typ *Type, incoming ...Incoming) *Instr {
	return b.insert(&Instr{Op: OpPhi, Name: b.nextName(), Typ: typ, Incoming: incoming})
}

// Br emits an unconditional branch to target.
func (b *Builder) Br(target *Block) *Instr {
	return b.insert(&Instr{Op: OpBr, Typ: Void, Blocks: []*Block{target}})
}

// CondBr branches to then or els on an i1 condition.
func (b *Builder) CondBr(cond Value, then, els *Block) *Instr {
	return b.insert(&Instr{Op: OpCondBr, Typ: Void, Args: []Value{cond}, Blocks: []*Block{then, els}})
}

// Ret returns v from the current function.
func (b *Builder) Ret(v Value) *Instr {
	return b.insert(&Instr{Op: OpRet, Typ: Void, Args: []Value{v}})
}

// RetVoid returns from a void function.
func (b *Builder) RetVoid() *Instr {
	return b.insert(&Instr{Op: OpRet, Typ: Void})
}
