// Package types defines the gradual type system used by the Cheetah
// compiler. Types form a lattice with Any at the top: every type is
// compatible with Any, and unification falls back to Any rather than
// failing where the surface language is permissive (list literals,
// dict values, and numeric promotion).
package types

import (
	"fmt"
	"strings"
)

// Type is implemented by every type in the lattice. Equality between types
// is structural, with the exception of classes, whose identity is the pair
// (name, bases).
type Type interface {
	fmt.Stringer
	typeNode()
}

// Primitive and special types are singletons; compare them directly.
var (
	Int       Type = &IntType{}
	Float     Type = &FloatType{}
	Bool      Type = &BoolType{}
	None      Type = &NoneType{}
	Str       Type = &StrType{}
	Bytes     Type = &BytesType{}
	RangeIter Type = &RangeIterType{}
	Any       Type = &AnyType{}
	Unknown   Type = &UnknownType{}
	Void      Type = &VoidType{}
)

type IntType struct{}

func (t *IntType) typeNode()      {}
func (t *IntType) String() string { return "int" }

type FloatType struct{}

func (t *FloatType) typeNode()      {}
func (t *FloatType) String() string { return "float" }

type BoolType struct{}

func (t *BoolType) typeNode()      {}
func (t *BoolType) String() string { return "bool" }

type NoneType struct{}

func (t *NoneType) typeNode()      {}
func (t *NoneType) String() string { return "None" }

type StrType struct{}

func (t *StrType) typeNode()      {}
func (t *StrType) String() string { return "str" }

type BytesType struct{}

func (t *BytesType) typeNode()      {}
func (t *BytesType) String() string { return "bytes" }

// RangeIterType is the type of values produced by the range builtin.
type RangeIterType struct{}

func (t *RangeIterType) typeNode()      {}
func (t *RangeIterType) String() string { return "range" }

// AnyType is the top of the lattice; every type coerces to and from it.
type AnyType struct{}

func (t *AnyType) typeNode()      {}
func (t *AnyType) String() string { return "Any" }

// UnknownType marks a type the checker has not yet resolved.
type UnknownType struct{}

func (t *UnknownType) typeNode()      {}
func (t *UnknownType) String() string { return "Unknown" }

// VoidType is the return type of functions that return no value.
type VoidType struct{}

func (t *VoidType) typeNode()      {}
func (t *VoidType) String() string { return "void" }

// ListType is a homogeneous list with element type Elem.
type ListType struct {
	Elem Type
}

func NewList(elem Type) *ListType { return &ListType{Elem: elem} }

func (t *ListType) typeNode()      {}
func (t *ListType) String() string { return fmt.Sprintf("list[%s]", t.Elem) }

// SetType is a set with element type Elem.
type SetType struct {
	Elem Type
}

func NewSet(elem Type) *SetType { return &SetType{Elem: elem} }

func (t *SetType) typeNode()      {}
func (t *SetType) String() string { return fmt.Sprintf("set[%s]", t.Elem) }

// TupleType is a fixed-arity tuple with per-element types.
type TupleType struct {
	Elems []Type
}

func NewTuple(elems ...Type) *TupleType { return &TupleType{Elems: elems} }

func (t *TupleType) typeNode() {}
func (t *TupleType) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return fmt.Sprintf("tuple[%s]", strings.Join(parts, ", "))
}

// CommonElem returns the element type shared by all tuple members when the
// tuple is homogeneous, and Any otherwise. Loop variables iterate tuples
// through this degraded view.
func (t *TupleType) CommonElem() Type {
	if len(t.Elems) == 0 {
		return Any
	}
	first := t.Elems[0]
	for _, e := range t.Elems[1:] {
		if !Equal(first, e) {
			return Any
		}
	}
	return first
}

// DictType is a dictionary with key and value types.
type DictType struct {
	Key   Type
	Value Type
}

func NewDict(key, value Type) *DictType { return &DictType{Key: key, Value: value} }

func (t *DictType) typeNode()      {}
func (t *DictType) String() string { return fmt.Sprintf("dict[%s, %s]", t.Key, t.Value) }

// FunctionType describes a callable signature. The three parameter slices
// are parallel: ParamTypes[i] and ParamNames[i] describe the same parameter,
// and Defaults is a bitmask marking which trailing positions carry default
// values.
type FunctionType struct {
	ParamTypes []Type
	ParamNames []string
	HasVarArgs bool
	HasKwArgs  bool
	Defaults   uint64
	Return     Type
}

func NewFunction(paramTypes []Type, paramNames []string, ret Type) *FunctionType {
	return &FunctionType{ParamTypes: paramTypes, ParamNames: paramNames, Return: ret}
}

func (t *FunctionType) typeNode() {}
func (t *FunctionType) String() string {
	parts := make([]string, len(t.ParamTypes))
	for i, p := range t.ParamTypes {
		parts[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), t.Return)
}

// DefaultCount returns the number of parameters carrying default values.
func (t *FunctionType) DefaultCount() int {
	count := 0
	for i := 0; i < len(t.ParamTypes); i++ {
		if t.Defaults&(1<<uint(i)) != 0 {
			count++
		}
	}
	return count
}

// HasDefault reports whether the parameter at position i carries a default.
func (t *FunctionType) HasDefault(i int) bool {
	return t.Defaults&(1<<uint(i)) != 0
}

// SetDefault marks the parameter at position i as carrying a default value.
func (t *FunctionType) SetDefault(i int) {
	t.Defaults |= 1 << uint(i)
}

// ClassMember is a single method or field entry. Members are held in slices
// rather than maps so traversal order matches declaration order.
type ClassMember struct {
	Name string
	Type Type
}

// ClassType describes a user-defined class. Identity is (Name, Bases);
// methods and fields do not participate in equality.
type ClassType struct {
	Name    string
	Bases   []string
	Methods []ClassMember
	Fields  []ClassMember
}

func NewClass(name string, bases ...string) *ClassType {
	return &ClassType{Name: name, Bases: bases}
}

func (t *ClassType) typeNode()      {}
func (t *ClassType) String() string { return t.Name }

// Method returns the type of the named method, if defined.
func (t *ClassType) Method(name string) (Type, bool) {
	for _, m := range t.Methods {
		if m.Name == name {
			return m.Type, true
		}
	}
	return nil, false
}

// Field returns the type of the named field, if defined.
func (t *ClassType) Field(name string) (Type, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// AddMethod appends or replaces the named method.
func (t *ClassType) AddMethod(name string, typ Type) {
	for i, m := range t.Methods {
		if m.Name == name {
			t.Methods[i].Type = typ
			return
		}
	}
	t.Methods = append(t.Methods, ClassMember{Name: name, Type: typ})
}

// AddField appends or replaces the named field.
func (t *ClassType) AddField(name string, typ Type) {
	for i, f := range t.Fields {
		if f.Name == name {
			t.Fields[i].Type = typ
			return
		}
	}
	t.Fields = append(t.Fields, ClassMember{Name: name, Type: typ})
}

// Member resolves a method or field by name, methods first.
func (t *ClassType) Member(name string) (Type, error) {
	if m, ok := t.Method(name); ok {
		return m, nil
	}
	if f, ok := t.Field(name); ok {
		return f, nil
	}
	return nil, &UndefinedMemberError{Class: t.Name, Member: name}
}

// GenericType is an instantiation of a generic base type.
type GenericType struct {
	Base Type
	Args []Type
}

func (t *GenericType) typeNode() {}
func (t *GenericType) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", t.Base, strings.Join(parts, ", "))
}

// TypeParamType is a named type parameter.
type TypeParamType struct {
	Name string
}

func (t *TypeParamType) typeNode()      {}
func (t *TypeParamType) String() string { return t.Name }

// Equal reports structural equality between two types. Class equality skips
// method and field members: two classes are equal when their names and base
// lists match.
func Equal(a, b Type) bool {
	if a == b {
		return true
	}
	switch at := a.(type) {
	case *IntType:
		_, ok := b.(*IntType)
		return ok
	case *FloatType:
		_, ok := b.(*FloatType)
		return ok
	case *BoolType:
		_, ok := b.(*BoolType)
		return ok
	case *NoneType:
		_, ok := b.(*NoneType)
		return ok
	case *StrType:
		_, ok := b.(*StrType)
		return ok
	case *BytesType:
		_, ok := b.(*BytesType)
		return ok
	case *RangeIterType:
		_, ok := b.(*RangeIterType)
		return ok
	case *AnyType:
		_, ok := b.(*AnyType)
		return ok
	case *UnknownType:
		_, ok := b.(*UnknownType)
		return ok
	case *VoidType:
		_, ok := b.(*VoidType)
		return ok
	case *ListType:
		bt, ok := b.(*ListType)
		return ok && Equal(at.Elem, bt.Elem)
	case *SetType:
		bt, ok := b.(*SetType)
		return ok && Equal(at.Elem, bt.Elem)
	case *TupleType:
		bt, ok := b.(*TupleType)
		if !ok || len(at.Elems) != len(bt.Elems) {
			return false
		}
		for i := range at.Elems {
			if !Equal(at.Elems[i], bt.Elems[i]) {
				return false
			}
		}
		return true
	case *DictType:
		bt, ok := b.(*DictType)
		return ok && Equal(at.Key, bt.Key) && Equal(at.Value, bt.Value)
	case *FunctionType:
		bt, ok := b.(*FunctionType)
		if !ok || len(at.ParamTypes) != len(bt.ParamTypes) {
			return false
		}
		for i := range at.ParamTypes {
			if !Equal(at.ParamTypes[i], bt.ParamTypes[i]) {
				return false
			}
		}
		return Equal(at.Return, bt.Return) &&
			at.HasVarArgs == bt.HasVarArgs &&
			at.HasKwArgs == bt.HasKwArgs
	case *ClassType:
		bt, ok := b.(*ClassType)
		if !ok || at.Name != bt.Name || len(at.Bases) != len(bt.Bases) {
			return false
		}
		for i := range at.Bases {
			if at.Bases[i] != bt.Bases[i] {
				return false
			}
		}
		return true
	case *GenericType:
		bt, ok := b.(*GenericType)
		if !ok || !Equal(at.Base, bt.Base) || len(at.Args) != len(bt.Args) {
			return false
		}
		for i := range at.Args {
			if !Equal(at.Args[i], bt.Args[i]) {
				return false
			}
		}
		return true
	case *TypeParamType:
		bt, ok := b.(*TypeParamType)
		return ok && at.Name == bt.Name
	}
	return false
}

// IsNumeric reports whether t is one of the numeric types.
func IsNumeric(t Type) bool {
	switch t.(type) {
	case *IntType, *FloatType, *BoolType:
		return true
	}
	return false
}

// IsReference reports whether t is a heap-allocated reference type, which
// None may stand in for.
func IsReference(t Type) bool {
	switch t.(type) {
	case *StrType, *BytesType, *ListType, *DictType, *SetType, *FunctionType, *ClassType:
		return true
	}
	return false
}
