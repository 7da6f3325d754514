package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// List is a growable sequence of boxed values. The list owns its items.
type List struct {
	Items []*Value
}

// Dict is an insertion-ordered mapping. Lookup goes through an index keyed
// by a canonical encoding of the key value; iteration walks the parallel
// key/value slices so traversal order is always insertion order.
type Dict struct {
	keys   []*Value
	values []*Value
	index  map[string]int
}

func newDict() *Dict {
	return &Dict{index: map[string]int{}}
}

// keyEncoding canonicalizes a hashable value for index lookup. Int and
// Bool share the numeric space so d[1] and d[True] alias, as they do in
// the source language.
func keyEncoding(v *Value) string {
	switch v.Tag {
	case TagInt, TagBool:
		return "i" + strconv.FormatInt(v.Int, 10)
	case TagFloat:
		if v.Float == float64(int64(v.Float)) {
			return "i" + strconv.FormatInt(int64(v.Float), 10)
		}
		return "f" + strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TagStr:
		return "s" + v.Str
	case TagNone:
		return "n"
	case TagBigInt:
		return "i" + v.Big.String()
	case TagTuple:
		enc := "t"
		for _, it := range v.Tuple {
			enc += keyEncoding(it) + "\x00"
		}
		return enc
	}
	return fmt.Sprintf("p%p", v)
}

func (d *Dict) get(key *Value) (*Value, bool) {
	i, ok := d.index[keyEncoding(key)]
	if !ok {
		return nil, false
	}
	return d.values[i], true
}

// set takes ownership of key and value; replacing an existing entry frees
// the previous key and value.
func (d *Dict) set(key, value *Value) {
	enc := keyEncoding(key)
	if i, ok := d.index[enc]; ok {
		Free(d.keys[i])
		Free(d.values[i])
		d.keys[i] = key
		d.values[i] = value
		return
	}
	d.index[enc] = len(d.keys)
	d.keys = append(d.keys, key)
	d.values = append(d.values, value)
}

// Keys returns the dict's keys in insertion order.
func (d *Dict) Keys() []*Value { return d.keys }

// Values returns the dict's values in insertion order.
func (d *Dict) Values() []*Value { return d.values }

// Set is an insertion-ordered collection of unique hashable values.
type Set struct {
	items []*Value
	index map[string]struct{}
}

func newSet() *Set {
	return &Set{index: map[string]struct{}{}}
}

func (s *Set) add(v *Value) {
	enc := keyEncoding(v)
	if _, ok := s.index[enc]; ok {
		Free(v)
		return
	}
	s.index[enc] = struct{}{}
	s.items = append(s.items, v)
}

func (s *Set) contains(v *Value) bool {
	_, ok := s.index[keyEncoding(v)]
	return ok
}

// Len implements len(): Str, Bytes, List, Tuple, Dict, and Set report
// their sizes; every other tag reports 0.
func Len(v *Value) int64 {
	switch v.Tag {
	case TagStr:
		return int64(len(v.Str))
	case TagBytes:
		return int64(len(v.Bytes))
	case TagList:
		return int64(len(v.List.Items))
	case TagTuple:
		return int64(len(v.Tuple))
	case TagDict:
		return int64(len(v.Dict.keys))
	case TagSet:
		return int64(len(v.Set.items))
	}
	return 0
}

// normIndex maps a possibly negative index into [0, length) Python-style.
func normIndex(i, length int64) (int64, bool) {
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, false
	}
	return i, true
}

// GetItem implements container[key]. The result is a clone the caller
// owns; missing keys and out-of-range indices yield None.
func GetItem(container, key *Value) *Value {
	switch container.Tag {
	case TagList:
		i, ok := normIndex(ToInt(key), int64(len(container.List.Items)))
		if !ok {
			return None()
		}
		return Clone(container.List.Items[i])
	case TagTuple:
		i, ok := normIndex(ToInt(key), int64(len(container.Tuple)))
		if !ok {
			return None()
		}
		return Clone(container.Tuple[i])
	case TagStr:
		i, ok := normIndex(ToInt(key), int64(len(container.Str)))
		if !ok {
			return None()
		}
		return FromString(string(container.Str[i]))
	case TagBytes:
		i, ok := normIndex(ToInt(key), int64(len(container.Bytes)))
		if !ok {
			return None()
		}
		return FromInt(int64(container.Bytes[i]))
	case TagDict:
		if v, ok := container.Dict.get(key); ok {
			return Clone(v)
		}
		return None()
	}
	return None()
}

// SetItem implements container[key] = value, taking ownership of value.
func SetItem(container, key, value *Value) {
	switch container.Tag {
	case TagList:
		i, ok := normIndex(ToInt(key), int64(len(container.List.Items)))
		if !ok {
			Free(value)
			return
		}
		Free(container.List.Items[i])
		container.List.Items[i] = value
	case TagDict:
		container.Dict.set(Clone(key), value)
	default:
		Free(value)
	}
}

// Contains implements the "in" operator.
func Contains(container, item *Value) bool {
	switch container.Tag {
	case TagList:
		for _, it := range container.List.Items {
			if Equals(it, item) {
				return true
			}
		}
	case TagTuple:
		for _, it := range container.Tuple {
			if Equals(it, item) {
				return true
			}
		}
	case TagSet:
		return container.Set.contains(item)
	case TagDict:
		_, ok := container.Dict.get(item)
		return ok
	case TagStr:
		if item.Tag == TagStr {
			return strings.Contains(container.Str, item.Str)
		}
	}
	return false
}

// sliceBounds normalizes start/end/step for a sequence of the given
// length: negative indices count from the end and results are clamped.
func sliceBounds(start, end, step, length int64) (int64, int64, int64) {
	if step == 0 {
		step = 1
	}
	if start < 0 {
		start += length
	}
	if end < 0 {
		end += length
	}
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	return start, end, step
}

// Slice implements container[start:end:step] and returns a fresh
// container the caller owns.
func Slice(container *Value, start, end, step int64) *Value {
	switch container.Tag {
	case TagList:
		length := int64(len(container.List.Items))
		s, e, st := sliceBounds(start, end, step, length)
		var items []*Value
		if st > 0 {
			for i := s; i < e; i += st {
				items = append(items, Clone(container.List.Items[i]))
			}
		} else {
			for i := e - 1; i >= s; i += st {
				items = append(items, Clone(container.List.Items[i]))
			}
		}
		return NewList(items...)
	case TagStr:
		length := int64(len(container.Str))
		s, e, st := sliceBounds(start, end, step, length)
		var out []byte
		if st > 0 {
			for i := s; i < e; i += st {
				out = append(out, container.Str[i])
			}
		} else {
			for i := e - 1; i >= s; i += st {
				out = append(out, container.Str[i])
			}
		}
		return FromString(string(out))
	case TagTuple:
		length := int64(len(container.Tuple))
		s, e, st := sliceBounds(start, end, step, length)
		var items []*Value
		if st > 0 {
			for i := s; i < e; i += st {
				items = append(items, Clone(container.Tuple[i]))
			}
		}
		return NewTuple(items...)
	}
	return None()
}

// CallMethod dispatches obj.name(argv...) against each tag's small method
// table. Unknown methods yield None.
func CallMethod(obj *Value, name string, argv []*Value) *Value {
	switch obj.Tag {
	case TagList:
		switch name {
		case "append":
			if len(argv) == 1 {
				obj.List.Items = append(obj.List.Items, Clone(argv[0]))
			}
			return None()
		case "len":
			return FromInt(int64(len(obj.List.Items)))
		}
	case TagDict:
		switch name {
		case "keys":
			items := make([]*Value, len(obj.Dict.keys))
			for i, k := range obj.Dict.keys {
				items[i] = Clone(k)
			}
			return NewList(items...)
		case "values":
			items := make([]*Value, len(obj.Dict.values))
			for i, v := range obj.Dict.values {
				items[i] = Clone(v)
			}
			return NewList(items...)
		case "items":
			items := make([]*Value, len(obj.Dict.keys))
			for i := range obj.Dict.keys {
				items[i] = NewTuple(Clone(obj.Dict.keys[i]), Clone(obj.Dict.values[i]))
			}
			return NewList(items...)
		case "get":
			if len(argv) >= 1 {
				if v, ok := obj.Dict.get(argv[0]); ok {
					return Clone(v)
				}
				if len(argv) == 2 {
					return Clone(argv[1])
				}
			}
			return None()
		}
	case TagStr:
		if name == "strip" {
			return FromString(strings.TrimSpace(obj.Str))
		}
	}
	return None()
}
