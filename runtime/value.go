// Package runtime implements the tagged-value ABI that compiled code calls
// into wherever a value's static type is Any or polymorphic. Every entry
// point is registered under a stable C-style symbol name (see Symbols) so
// emitted call instructions resolve at execution time.
package runtime

import (
	"math/big"
	"sync/atomic"
)

// Tag discriminates the payload of a Value.
type Tag int32

const (
	TagInt      Tag = 1
	TagFloat    Tag = 2
	TagBool     Tag = 3
	TagNone     Tag = 4
	TagStr      Tag = 5
	TagBytes    Tag = 6
	TagList     Tag = 7
	TagTuple    Tag = 8
	TagDict     Tag = 9
	TagSet      Tag = 10
	TagFunction Tag = 11
	TagClass    Tag = 12
	TagBigInt   Tag = 13
)

var tagNames = map[Tag]string{
	TagInt: "int", TagFloat: "float", TagBool: "bool", TagNone: "None",
	TagStr: "str", TagBytes: "bytes", TagList: "list", TagTuple: "tuple",
	TagDict: "dict", TagSet: "set", TagFunction: "function", TagClass: "class",
	TagBigInt: "bigint",
}

func (t Tag) String() string { return tagNames[t] }

// Value is one boxed runtime value. Exactly one payload field is
// meaningful for a given tag.
type Value struct {
	Tag Tag

	Int   int64
	Float float64
	Str   string
	Bytes []byte
	List  *List
	Tuple []*Value
	Dict  *Dict
	Set   *Set
	Big   *big.Int
	Fn    any
}

// live counts boxed allocations minus frees. Clone/free balance in emitted
// code is verified against it.
var live atomic.Int64

// LiveValues reports the number of boxed values currently allocated.
func LiveValues() int64 { return live.Load() }

func alloc(v Value) *Value {
	live.Add(1)
	out := v
	return &out
}

// FromInt boxes an integer. The caller owns the result.
func FromInt(i int64) *Value { return alloc(Value{Tag: TagInt, Int: i}) }

// FromFloat boxes a float.
func FromFloat(f float64) *Value { return alloc(Value{Tag: TagFloat, Float: f}) }

// FromBool boxes a boolean.
func FromBool(b bool) *Value {
	var i int64
	if b {
		i = 1
	}
	return alloc(Value{Tag: TagBool, Int: i})
}

// FromString boxes a string.
func FromString(s string) *Value { return alloc(Value{Tag: TagStr, Str: s}) }

// FromBytes boxes a byte string.
func FromBytes(b []byte) *Value { return alloc(Value{Tag: TagBytes, Bytes: b}) }

// FromBig boxes an arbitrary-precision integer.
func FromBig(b *big.Int) *Value { return alloc(Value{Tag: TagBigInt, Big: b}) }

// None boxes the none value.
func None() *Value { return alloc(Value{Tag: TagNone}) }

// NewList boxes a fresh list taking ownership of items.
func NewList(items ...*Value) *Value {
	return alloc(Value{Tag: TagList, List: &List{Items: items}})
}

// NewTuple boxes a tuple taking ownership of items.
func NewTuple(items ...*Value) *Value {
	return alloc(Value{Tag: TagTuple, Tuple: items})
}

// NewDict boxes an empty insertion-ordered dict.
func NewDict() *Value { return alloc(Value{Tag: TagDict, Dict: newDict()}) }

// NewSet boxes an empty insertion-ordered set.
func NewSet() *Value { return alloc(Value{Tag: TagSet, Set: newSet()}) }

// Free releases a value and, for container tags, its elements. Passing nil
// is a no-op.
func Free(v *Value) {
	if v == nil {
		return
	}
	switch v.Tag {
	case TagList:
		for _, it := range v.List.Items {
			Free(it)
		}
		v.List.Items = nil
	case TagTuple:
		for _, it := range v.Tuple {
			Free(it)
		}
		v.Tuple = nil
	case TagDict:
		for i := range v.Dict.keys {
			Free(v.Dict.keys[i])
			Free(v.Dict.values[i])
		}
		v.Dict.keys = nil
		v.Dict.values = nil
		v.Dict.index = nil
	case TagSet:
		for _, it := range v.Set.items {
			Free(it)
		}
		v.Set.items = nil
		v.Set.index = nil
	}
	live.Add(-1)
}

// Clone deep-copies a value. Container tags copy every element recursively;
// mutating the clone never affects the original.
func Clone(v *Value) *Value {
	if v == nil {
		return nil
	}
	switch v.Tag {
	case TagList:
		items := make([]*Value, len(v.List.Items))
		for i, it := range v.List.Items {
			items[i] = Clone(it)
		}
		return NewList(items...)
	case TagTuple:
		items := make([]*Value, len(v.Tuple))
		for i, it := range v.Tuple {
			items[i] = Clone(it)
		}
		return NewTuple(items...)
	case TagDict:
		out := NewDict()
		for i := range v.Dict.keys {
			out.Dict.set(Clone(v.Dict.keys[i]), Clone(v.Dict.values[i]))
		}
		return out
	case TagSet:
		out := NewSet()
		for _, it := range v.Set.items {
			out.Set.add(Clone(it))
		}
		return out
	case TagBigInt:
		return FromBig(new(big.Int).Set(v.Big))
	default:
		return alloc(*v)
	}
}

// ToInt unboxes an integer-tagged value; Bool converts, Float truncates.
func ToInt(v *Value) int64 {
	switch v.Tag {
	case TagInt, TagBool:
		return v.Int
	case TagFloat:
		return int64(v.Float)
	case TagBigInt:
		return v.Big.Int64()
	}
	return 0
}

// ToFloat unboxes a numeric value as a float.
func ToFloat(v *Value) float64 {
	switch v.Tag {
	case TagFloat:
		return v.Float
	case TagInt, TagBool:
		return float64(v.Int)
	case TagBigInt:
		f, _ := new(big.Float).SetInt(v.Big).Float64()
		return f
	}
	return 0
}

// IsNone reports whether v carries the none tag.
func IsNone(v *Value) bool { return v == nil || v.Tag == TagNone }

func isNumeric(t Tag) bool {
	switch t {
	case TagInt, TagFloat, TagBool, TagBigInt:
		return true
	}
	return false
}
