package types

// IsCompatibleWith reports whether a value of type a may appear where type b
// is required without any coercion. Compatibility is reflexive, Any is
// compatible with everything, None is compatible with every reference type,
// and containers are compatible element-wise (tuples require equal arity).
// Class-inheritance compatibility is the responsibility of the environment,
// not the lattice.
func IsCompatibleWith(a, b Type) bool {
	if Equal(a, b) {
		return true
	}
	if isAny(a) || isAny(b) {
		return true
	}
	if isNone(a) && IsReference(b) {
		return true
	}
	if isNone(b) && IsReference(a) {
		return true
	}
	switch at := a.(type) {
	case *ListType:
		if bt, ok := b.(*ListType); ok {
			return IsCompatibleWith(at.Elem, bt.Elem)
		}
	case *SetType:
		if bt, ok := b.(*SetType); ok {
			return IsCompatibleWith(at.Elem, bt.Elem)
		}
	case *TupleType:
		if bt, ok := b.(*TupleType); ok {
			if len(at.Elems) != len(bt.Elems) {
				return false
			}
			for i := range at.Elems {
				if !IsCompatibleWith(at.Elems[i], bt.Elems[i]) {
					return false
				}
			}
			return true
		}
	case *DictType:
		if bt, ok := b.(*DictType); ok {
			return IsCompatibleWith(at.Key, bt.Key) && IsCompatibleWith(at.Value, bt.Value)
		}
	}
	return false
}

// CanCoerceTo reports whether a value of type a may be converted to type b.
// This is a superset of compatibility: the numeric tower widens Bool to Int
// to Float, strings convert to and from the scalar types with runtime-parse
// semantics, and dict values may surface through nested dictionary access.
// Function coercion is contravariant in parameters and covariant in return.
func CanCoerceTo(a, b Type) bool {
	if Equal(a, b) || IsCompatibleWith(a, b) {
		return true
	}
	if isAny(b) {
		return true
	}
	switch at := a.(type) {
	case *IntType:
		switch b.(type) {
		case *FloatType, *BoolType, *StrType:
			return true
		}
	case *BoolType:
		switch b.(type) {
		case *IntType, *FloatType, *StrType:
			return true
		}
	case *FloatType:
		switch b.(type) {
		case *BoolType, *StrType:
			return true
		}
	case *StrType:
		switch b.(type) {
		case *IntType, *FloatType, *BoolType:
			return true
		}
	case *NoneType:
		return IsReference(b)
	case *ListType:
		if bt, ok := b.(*ListType); ok {
			return CanCoerceTo(at.Elem, bt.Elem)
		}
	case *SetType:
		if bt, ok := b.(*SetType); ok {
			return CanCoerceTo(at.Elem, bt.Elem)
		}
	case *DictType:
		if bt, ok := b.(*DictType); ok {
			return CanCoerceTo(at.Key, bt.Key) && CanCoerceTo(at.Value, bt.Value)
		}
		// Nested dictionary access returns inner values, so a dict may
		// stand in for anything its value type coerces to.
		return CanCoerceTo(at.Value, b)
	case *TupleType:
		if bt, ok := b.(*TupleType); ok {
			if len(at.Elems) != len(bt.Elems) {
				return false
			}
			for i := range at.Elems {
				if !CanCoerceTo(at.Elems[i], bt.Elems[i]) {
					return false
				}
			}
			return true
		}
	case *ClassType:
		if bt, ok := b.(*ClassType); ok {
			return at.Name == bt.Name
		}
	case *FunctionType:
		if bt, ok := b.(*FunctionType); ok {
			if len(at.ParamTypes) != len(bt.ParamTypes) {
				return false
			}
			for i := range at.ParamTypes {
				// Contravariant: the target's parameter must coerce to ours.
				if !CanCoerceTo(bt.ParamTypes[i], at.ParamTypes[i]) {
					return false
				}
			}
			return CanCoerceTo(at.Return, bt.Return)
		}
	case *TypeParamType:
		return true
	}
	if bt, ok := b.(*DictType); ok && isAny(bt.Value) {
		return true
	}
	if _, ok := b.(*TypeParamType); ok {
		return true
	}
	return false
}

// Unify computes the least general type that both a and b coerce to,
// returning false when no such type exists. Lists are permissive: element
// unification failure degrades the element type to Any rather than failing,
// to accommodate heterogeneous literals. Unify never returns a type
// narrower than either input.
func Unify(a, b Type) (Type, bool) {
	if Equal(a, b) {
		return a, true
	}
	if isAny(a) {
		return b, true
	}
	if isAny(b) {
		return a, true
	}
	if isUnknown(a) {
		return b, true
	}
	if isUnknown(b) {
		return a, true
	}
	if isNone(a) && IsReference(b) {
		return b, true
	}
	if isNone(b) && IsReference(a) {
		return a, true
	}
	switch at := a.(type) {
	case *ListType:
		if bt, ok := b.(*ListType); ok {
			if elem, ok := Unify(at.Elem, bt.Elem); ok {
				return NewList(elem), true
			}
			return NewList(Any), true
		}
	case *TupleType:
		if bt, ok := b.(*TupleType); ok {
			if len(at.Elems) != len(bt.Elems) {
				return nil, false
			}
			elems := make([]Type, len(at.Elems))
			for i := range at.Elems {
				u, ok := Unify(at.Elems[i], bt.Elems[i])
				if !ok {
					return nil, false
				}
				elems[i] = u
			}
			return &TupleType{Elems: elems}, true
		}
	case *SetType:
		if bt, ok := b.(*SetType); ok {
			if elem, ok := Unify(at.Elem, bt.Elem); ok {
				return NewSet(elem), true
			}
			return nil, false
		}
	case *DictType:
		if bt, ok := b.(*DictType); ok {
			key, ok := Unify(at.Key, bt.Key)
			if !ok {
				key = Any
			}
			value, ok := Unify(at.Value, bt.Value)
			if !ok {
				value = Any
			}
			return NewDict(key, value), true
		}
		// Dict against a non-dict: nested access means the dict's value
		// type may be what the other side sees.
		if u, ok := Unify(at.Value, b); ok {
			return u, true
		}
		return Any, true
	}
	if bt, ok := b.(*DictType); ok {
		if u, ok := Unify(bt.Value, a); ok {
			return u, true
		}
		return Any, true
	}
	// Numeric promotion chooses the more general type.
	switch {
	case isInt(a) && isFloat(b), isFloat(a) && isInt(b):
		return Float, true
	case isBool(a) && isInt(b), isInt(a) && isBool(b):
		return Int, true
	case isBool(a) && isFloat(b), isFloat(a) && isBool(b):
		return Float, true
	}
	if _, ok := a.(*TypeParamType); ok {
		return b, true
	}
	if _, ok := b.(*TypeParamType); ok {
		return a, true
	}
	return nil, false
}

// FindCommonType unifies a sequence of types left to right, falling back to
// Any when any pair fails to unify. An empty sequence yields Any.
func FindCommonType(ts []Type) Type {
	if len(ts) == 0 {
		return Any
	}
	common := ts[0]
	for _, t := range ts[1:] {
		u, ok := Unify(common, t)
		if !ok {
			return Any
		}
		common = u
	}
	return common
}

// IsIndexable reports whether t supports the subscript operator.
func IsIndexable(t Type) bool {
	switch t.(type) {
	case *ListType, *TupleType, *DictType, *StrType, *BytesType:
		return true
	}
	return isAny(t)
}

// IndexedType returns the type produced by indexing t with an index of type
// idx. Lists and strings index with Int, dicts with any key coercible to
// their key type, tuples degrade to the common element type, and bytes
// produce Int.
func IndexedType(t, idx Type) (Type, error) {
	switch ct := t.(type) {
	case *ListType:
		if CanCoerceTo(idx, Int) {
			return ct.Elem, nil
		}
		return nil, &InvalidOperatorError{Op: "[]", Left: t, Right: idx}
	case *StrType:
		if CanCoerceTo(idx, Int) {
			return Str, nil
		}
		return nil, &InvalidOperatorError{Op: "[]", Left: t, Right: idx}
	case *TupleType:
		if isInt(idx) {
			return ct.CommonElem(), nil
		}
		return nil, &InvalidOperatorError{Op: "[]", Left: t, Right: idx}
	case *DictType:
		if CanCoerceTo(idx, ct.Key) {
			return ct.Value, nil
		}
		return nil, &InvalidOperatorError{Op: "[]", Left: t, Right: idx}
	case *BytesType:
		if isInt(idx) {
			return Int, nil
		}
		return nil, &InvalidOperatorError{Op: "[]", Left: t, Right: idx}
	case *AnyType:
		return Any, nil
	}
	return nil, &NotIndexableError{Type: t}
}

// IsCallable reports whether t may be invoked with call syntax.
func IsCallable(t Type) bool {
	switch t.(type) {
	case *FunctionType, *ClassType:
		return true
	}
	return isAny(t)
}

// CallReturnType checks a call against the signature of t and returns the
// call's result type. Calling a class constructs an instance of it.
func CallReturnType(t Type, args []Type) (Type, error) {
	switch ct := t.(type) {
	case *FunctionType:
		minArgs := len(ct.ParamTypes) - ct.DefaultCount()
		if len(args) < minArgs || (!ct.HasVarArgs && len(args) > len(ct.ParamTypes)) {
			return nil, &WrongArgumentCountError{
				Func:     "function",
				Expected: len(ct.ParamTypes),
				Got:      len(args),
			}
		}
		for i, arg := range args {
			if i >= len(ct.ParamTypes) {
				break
			}
			if !CanCoerceTo(arg, ct.ParamTypes[i]) {
				return nil, &InvalidArgumentError{
					Func:     "function",
					Index:    i,
					Expected: ct.ParamTypes[i],
					Got:      arg,
				}
			}
		}
		return ct.Return, nil
	case *ClassType:
		return &ClassType{Name: ct.Name, Bases: ct.Bases}, nil
	case *AnyType:
		return Any, nil
	}
	return nil, &NotCallableError{Type: t}
}

func isAny(t Type) bool {
	_, ok := t.(*AnyType)
	return ok
}

func isUnknown(t Type) bool {
	_, ok := t.(*UnknownType)
	return ok
}

func isNone(t Type) bool {
	_, ok := t.(*NoneType)
	return ok
}

func isInt(t Type) bool {
	_, ok := t.(*IntType)
	return ok
}

func isFloat(t Type) bool {
	_, ok := t.(*FloatType)
	return ok
}

func isBool(t Type) bool {
	_, ok := t.(*BoolType)
	return ok
}
