package runtime

// List entry points mirroring the symbol table. They operate on boxed
// list values so compiled code can treat lists and tagged values
// uniformly.

// ListNew allocates an empty list.
func ListNew() *Value { return NewList() }

// ListWithCapacity allocates an empty list with room for n items.
func ListWithCapacity(n int64) *Value {
	if n < 0 {
		n = 0
	}
	return alloc(Value{Tag: TagList, List: &List{Items: make([]*Value, 0, n)}})
}

// ListGet returns a clone of the i-th element; out of range yields None.
func ListGet(l *Value, i int64) *Value {
	if l.Tag != TagList {
		return None()
	}
	idx, ok := normIndex(i, int64(len(l.List.Items)))
	if !ok {
		return None()
	}
	return Clone(l.List.Items[idx])
}

// ListSet stores v at index i, taking ownership of v.
func ListSet(l *Value, i int64, v *Value) {
	if l.Tag != TagList {
		Free(v)
		return
	}
	idx, ok := normIndex(i, int64(len(l.List.Items)))
	if !ok {
		Free(v)
		return
	}
	Free(l.List.Items[idx])
	l.List.Items[idx] = v
}

// ListAppend appends v, taking ownership.
func ListAppend(l *Value, v *Value) {
	if l.Tag != TagList {
		Free(v)
		return
	}
	l.List.Items = append(l.List.Items, v)
}

// ListLen is the list's length.
func ListLen(l *Value) int64 {
	if l.Tag != TagList {
		return 0
	}
	return int64(len(l.List.Items))
}

// ListFree releases the list and its items.
func ListFree(l *Value) { Free(l) }

// ListSlice returns a fresh list of the selected elements.
func ListSlice(l *Value, start, end, step int64) *Value {
	if l.Tag != TagList {
		return None()
	}
	return Slice(l, start, end, step)
}

// ListConcat returns a fresh list holding clones of both operands'
// elements.
func ListConcat(a, b *Value) *Value {
	if a.Tag != TagList || b.Tag != TagList {
		return None()
	}
	return Add(a, b)
}

// ListRepeat returns a fresh list with l's elements repeated n times.
func ListRepeat(l *Value, n int64) *Value {
	if l.Tag != TagList {
		return None()
	}
	return Multiply(l, FromIntBorrowed(n))
}

// FromIntBorrowed boxes an integer without counting it as a live
// allocation; used for transient operands the callee never sees again.
func FromIntBorrowed(i int64) *Value {
	return &Value{Tag: TagInt, Int: i}
}
