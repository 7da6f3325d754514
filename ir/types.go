// Package ir provides an in-memory SSA intermediate representation with
// typed functions, basic blocks, and an instruction builder. Modules built
// here can be printed as text, serialized, or executed by the interp
// subpackage.
package ir

import (
	"fmt"
	"strings"
)

// Kind enumerates the scalar shapes a value can have.
type Kind int

const (
	KindVoid Kind = iota
	KindI1
	KindI8
	KindI32
	KindI64
	KindF64
	KindPtr
	KindFunc
)

// Type describes the static type of an IR value.
type Type struct {
	Kind Kind

	// Elem is the pointee type for KindPtr allocas. A nil Elem means an
	// opaque pointer (runtime handles).
	Elem *Type

	// Sig is set for KindFunc.
	Sig *Signature
}

var (
	Void = &Type{Kind: KindVoid}
	I1   = &Type{Kind: KindI1}
	I8   = &Type{Kind: KindI8}
	I32  = &Type{Kind: KindI32}
	I64  = &Type{Kind: KindI64}
	F64  = &Type{Kind: KindF64}
	Ptr  = &Type{Kind: KindPtr}
)

// PointerTo returns a pointer type with a known pointee.
func PointerTo(elem *Type) *Type {
	return &Type{Kind: KindPtr, Elem: elem}
}

func (t *Type) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindI1:
		return "i1"
	case KindI8:
		return "i8"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF64:
		return "f64"
	case KindPtr:
		if t.Elem != nil {
			return t.Elem.String() + "*"
		}
		return "ptr"
	case KindFunc:
		return t.Sig.String()
	}
	return "?"
}

// IsInt reports whether the type is any integer width.
func (t *Type) IsInt() bool {
	switch t.Kind {
	case KindI1, KindI8, KindI32, KindI64:
		return true
	}
	return false
}

// IsFloat reports whether the type is a floating-point type.
func (t *Type) IsFloat() bool { return t.Kind == KindF64 }

// Signature is a function type: parameter types plus a return type.
type Signature struct {
	Params   []*Type
	Return   *Type
	Variadic bool
}

func NewSignature(ret *Type, params ...*Type) *Signature {
	return &Signature{Params: params, Return: ret}
}

func (s *Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	if s.Variadic {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("%s (%s)", s.Return, strings.Join(parts, ", "))
}

// FuncType wraps a signature as a first-class type for function pointers.
func FuncType(sig *Signature) *Type {
	return &Type{Kind: KindFunc, Sig: sig}
}
