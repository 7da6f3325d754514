package runtime

import "bytes"

// Equals implements "==". Numeric tags compare across the Int/Float mix,
// strings compare byte-wise, containers compare element-wise, and two
// none values are equal. Mismatched incomparable tags compare unequal.
func Equals(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if isNumeric(a.Tag) && isNumeric(b.Tag) {
		if a.Tag == TagFloat || b.Tag == TagFloat {
			return ToFloat(a) == ToFloat(b)
		}
		if a.Tag == TagBigInt || b.Tag == TagBigInt {
			return bigOf(a).Cmp(bigOf(b)) == 0
		}
		return ToInt(a) == ToInt(b)
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagNone:
		return true
	case TagStr:
		return a.Str == b.Str
	case TagBytes:
		return bytes.Equal(a.Bytes, b.Bytes)
	case TagList:
		if len(a.List.Items) != len(b.List.Items) {
			return false
		}
		for i := range a.List.Items {
			if !Equals(a.List.Items[i], b.List.Items[i]) {
				return false
			}
		}
		return true
	case TagTuple:
		if len(a.Tuple) != len(b.Tuple) {
			return false
		}
		for i := range a.Tuple {
			if !Equals(a.Tuple[i], b.Tuple[i]) {
				return false
			}
		}
		return true
	case TagDict:
		if len(a.Dict.keys) != len(b.Dict.keys) {
			return false
		}
		for i, k := range a.Dict.keys {
			other, ok := b.Dict.get(k)
			if !ok || !Equals(a.Dict.values[i], other) {
				return false
			}
		}
		return true
	case TagSet:
		if len(a.Set.items) != len(b.Set.items) {
			return false
		}
		for _, it := range a.Set.items {
			if !b.Set.contains(it) {
				return false
			}
		}
		return true
	}
	return false
}

// NotEquals implements "!=".
func NotEquals(a, b *Value) bool { return !Equals(a, b) }

// compareOrder returns -1, 0, or 1 for ordered tags and false when the
// operands are not orderable against each other.
func compareOrder(a, b *Value) (int, bool) {
	if isNumeric(a.Tag) && isNumeric(b.Tag) {
		if a.Tag == TagFloat || b.Tag == TagFloat {
			x, y := ToFloat(a), ToFloat(b)
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			}
			return 0, true
		}
		if a.Tag == TagBigInt || b.Tag == TagBigInt {
			return bigOf(a).Cmp(bigOf(b)), true
		}
		x, y := ToInt(a), ToInt(b)
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	if a.Tag == TagStr && b.Tag == TagStr {
		switch {
		case a.Str < b.Str:
			return -1, true
		case a.Str > b.Str:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// LessThan implements "<"; incomparable operands yield false.
func LessThan(a, b *Value) bool {
	c, ok := compareOrder(a, b)
	return ok && c < 0
}

// LessEqual implements "<=".
func LessEqual(a, b *Value) bool {
	c, ok := compareOrder(a, b)
	return ok && c <= 0
}

// GreaterThan implements ">".
func GreaterThan(a, b *Value) bool {
	c, ok := compareOrder(a, b)
	return ok && c > 0
}

// GreaterEqual implements ">=".
func GreaterEqual(a, b *Value) bool {
	c, ok := compareOrder(a, b)
	return ok && c >= 0
}
