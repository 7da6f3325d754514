package runtime

// ToBool implements truthiness: nonzero numbers, non-empty strings, and
// all containers are true; None is false.
func ToBool(v *Value) bool {
	if v == nil {
		return false
	}
	switch v.Tag {
	case TagInt, TagBool:
		return v.Int != 0
	case TagFloat:
		return v.Float != 0
	case TagBigInt:
		return v.Big.Sign() != 0
	case TagNone:
		return false
	case TagStr:
		return v.Str != ""
	case TagBytes:
		return len(v.Bytes) > 0
	}
	return true
}

// And implements short-circuit "and": the result is a clone of whichever
// operand the truthiness of a selects. The caller owns the clone.
func And(a, b *Value) *Value {
	if !ToBool(a) {
		return Clone(a)
	}
	return Clone(b)
}

// Or implements short-circuit "or".
func Or(a, b *Value) *Value {
	if ToBool(a) {
		return Clone(a)
	}
	return Clone(b)
}

// Not implements "not", always yielding a Bool.
func Not(a *Value) *Value { return FromBool(!ToBool(a)) }

// BitAnd implements "&"; non-Int operands yield None.
func BitAnd(a, b *Value) *Value {
	if !bothInts(a, b) {
		return None()
	}
	return FromInt(ToInt(a) & ToInt(b))
}

// BitOr implements "|".
func BitOr(a, b *Value) *Value {
	if !bothInts(a, b) {
		return None()
	}
	return FromInt(ToInt(a) | ToInt(b))
}

// BitXor implements "^".
func BitXor(a, b *Value) *Value {
	if !bothInts(a, b) {
		return None()
	}
	return FromInt(ToInt(a) ^ ToInt(b))
}

// BitNot implements "~".
func BitNot(a *Value) *Value {
	if a.Tag != TagInt && a.Tag != TagBool {
		return None()
	}
	return FromInt(^ToInt(a))
}

// ShiftLeft implements "<<"; a negative shift count yields None.
func ShiftLeft(a, b *Value) *Value {
	if !bothInts(a, b) || ToInt(b) < 0 {
		return None()
	}
	return FromInt(ToInt(a) << uint64(ToInt(b)))
}

// ShiftRight implements ">>".
func ShiftRight(a, b *Value) *Value {
	if !bothInts(a, b) || ToInt(b) < 0 {
		return None()
	}
	return FromInt(ToInt(a) >> uint64(ToInt(b)))
}

func bothInts(a, b *Value) bool {
	intish := func(v *Value) bool { return v.Tag == TagInt || v.Tag == TagBool }
	return intish(a) && intish(b)
}
