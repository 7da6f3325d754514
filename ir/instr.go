package ir

import (
	"fmt"
	"strings"
)

// Op enumerates the instruction set.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpSDiv
	OpSRem
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpAShr
	OpICmp
	OpFCmp
	OpAlloca
	OpLoad
	OpStore
	OpGEP
	OpBitcast
	OpPtrToInt
	OpIntToPtr
	OpSIToFP
	OpFPToSI
	OpZExt
	OpTrunc
	OpSelect
	OpCall
	OpPhi
	OpBr
	OpCondBr
	OpRet
)

var opNames = map[Op]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpSDiv: "sdiv", OpSRem: "srem",
	OpFAdd: "fadd", OpFSub: "fsub", OpFMul: "fmul", OpFDiv: "fdiv", OpFRem: "frem",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpShl: "shl", OpAShr: "ashr",
	OpICmp: "icmp", OpFCmp: "fcmp",
	OpAlloca: "alloca", OpLoad: "load", OpStore: "store", OpGEP: "getelementptr",
	OpBitcast: "bitcast", OpPtrToInt: "ptrtoint", OpIntToPtr: "inttoptr",
	OpSIToFP: "sitofp", OpFPToSI: "fptosi", OpZExt: "zext", OpTrunc: "trunc",
	OpSelect: "select", OpCall: "call", OpPhi: "phi",
	OpBr: "br", OpCondBr: "condbr", OpRet: "ret",
}

func (op Op) String() string { return opNames[op] }

// Pred is a comparison predicate shared by icmp and fcmp.
type Pred int

const (
	PredEQ Pred = iota
	PredNE
	PredLT
	PredLE
	PredGT
	PredGE
)

var predNames = map[Pred]string{
	PredEQ: "eq", PredNE: "ne", PredLT: "lt", PredLE: "le", PredGT: "gt", PredGE: "ge",
}

func (p Pred) String() string { return predNames[p] }

// Incoming is one phi edge: the value flowing in from a predecessor block.
type Incoming struct {
	Value Value
	Block *Block
}

// Instr is a single instruction. Args carry the value operands; control
// transfers reference Blocks directly. An instruction with a non-void Typ
// is itself a Value usable by later instructions.
type Instr struct {
	Op   Op
	Name string // SSA result name, empty for void results
	Typ  *Type

	Args []Value
	Pred Pred // for OpICmp / OpFCmp

	// Callee is set for OpCall. Tail marks a self-recursive call in tail
	// position; execution semantics are unchanged.
	Callee *Function
	Tail   bool

	// Blocks: OpBr → [target]; OpCondBr → [then, else].
	Blocks []*Block

	// Incoming is set for OpPhi.
	Incoming []Incoming

	parent *Block
}

func (in *Instr) Type() *Type { return in.Typ }

func (in *Instr) Ident() string { return "%" + in.Name }

// Parent is the block holding the instruction.
func (in *Instr) Parent() *Block { return in.parent }

// IsTerminator reports whether the instruction ends a basic block.
func (in *Instr) IsTerminator() bool {
	switch in.Op {
	case OpBr, OpCondBr, OpRet:
		return true
	}
	return false
}

func (in *Instr) String() string {
	switch in.Op {
	case OpBr:
		return fmt.Sprintf("br label %%%s", in.Blocks[0].Name)
	case OpCondBr:
		return fmt.Sprintf("br %s %s, label %%%s, label %%%s",
			in.Args[0].Type(), in.Args[0].Ident(), in.Blocks[0].Name, in.Blocks[1].Name)
	case OpRet:
		if len(in.Args) == 0 {
			return "ret void"
		}
		return fmt.Sprintf("ret %s %s", in.Args[0].Type(), in.Args[0].Ident())
	case OpStore:
		return fmt.Sprintf("store %s %s, %s %s",
			in.Args[0].Type(), in.Args[0].Ident(), in.Args[1].Type(), in.Args[1].Ident())
	case OpAlloca:
		return fmt.Sprintf("%%%s = alloca %s", in.Name, in.Typ.Elem)
	case OpLoad:
		return fmt.Sprintf("%%%s = load %s, %s %s",
			in.Name, in.Typ, in.Args[0].Type(), in.Args[0].Ident())
	case OpICmp, OpFCmp:
		return fmt.Sprintf("%%%s = %s %s %s %s, %s",
			in.Name, in.Op, in.Pred, in.Args[0].Type(), in.Args[0].Ident(), in.Args[1].Ident())
	case OpCall:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = fmt.Sprintf("%s %s", a.Type(), a.Ident())
		}
		call := fmt.Sprintf("call %s @%s(%s)", in.Callee.Sig.Return, in.Callee.Name, strings.Join(args, ", "))
		if in.Tail {
			call = "tail " + call
		}
		if in.Typ.Kind == KindVoid {
			return call
		}
		return fmt.Sprintf("%%%s = %s", in.Name, call)
	case OpPhi:
		edges := make([]string, len(in.Incoming))
		for i, inc := range in.Incoming {
			edges[i] = fmt.Sprintf("[ %s, %%%s ]", inc.Value.Ident(), inc.Block.Name)
		}
		return fmt.Sprintf("%%%s = phi %s %s", in.Name, in.Typ, strings.Join(edges, ", "))
	case OpSelect:
		return fmt.Sprintf("%%%s = select %s %s, %s %s, %s %s",
			in.Name, in.Args[0].Type(), in.Args[0].Ident(),
			in.Args[1].Type(), in.Args[1].Ident(),
			in.Args[2].Type(), in.Args[2].Ident())
	case OpGEP:
		parts := make([]string, len(in.Args))
		for i, a := range in.Args {
			parts[i] = fmt.Sprintf("%s %s", a.Type(), a.Ident())
		}
		return fmt.Sprintf("%%%s = getelementptr %s", in.Name, strings.Join(parts, ", "))
	case OpBitcast, OpPtrToInt, OpIntToPtr, OpSIToFP, OpFPToSI, OpZExt, OpTrunc:
		return fmt.Sprintf("%%%s = %s %s %s to %s",
			in.Name, in.Op, in.Args[0].Type(), in.Args[0].Ident(), in.Typ)
	default:
		return fmt.Sprintf("%%%s = %s %s %s, %s",
			in.Name, in.Op, in.Typ, in.Args[0].Ident(), in.Args[1].Ident())
	}
}
