package runtime

import (
	"math"
	"math/big"
	"strings"
)

// Arithmetic dispatches on the cross-product of operand tags. Int×Int is
// checked: overflow promotes both operands to BigInt and retries, which is
// a semantic guarantee rather than an optimization. Division by zero
// returns None; there are no exceptions at this layer.

func addOverflows(a, b int64) bool {
	s := a + b
	return (s > a) != (b > 0)
}

func subOverflows(a, b int64) bool {
	d := a - b
	return (d < a) != (b > 0)
}

func mulOverflows(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	p := a * b
	return p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64)
}

func bigOf(v *Value) *big.Int {
	if v.Tag == TagBigInt {
		return v.Big
	}
	return big.NewInt(ToInt(v))
}

// Add implements the "+" operator.
func Add(a, b *Value) *Value {
	switch {
	case a.Tag == TagStr && b.Tag == TagStr:
		return FromString(a.Str + b.Str)
	case a.Tag == TagList && b.Tag == TagList:
		items := make([]*Value, 0, len(a.List.Items)+len(b.List.Items))
		for _, it := range a.List.Items {
			items = append(items, Clone(it))
		}
		for _, it := range b.List.Items {
			items = append(items, Clone(it))
		}
		return NewList(items...)
	case a.Tag == TagTuple && b.Tag == TagTuple:
		items := make([]*Value, 0, len(a.Tuple)+len(b.Tuple))
		for _, it := range a.Tuple {
			items = append(items, Clone(it))
		}
		for _, it := range b.Tuple {
			items = append(items, Clone(it))
		}
		return NewTuple(items...)
	case a.Tag == TagBigInt || b.Tag == TagBigInt:
		if !isNumeric(a.Tag) || !isNumeric(b.Tag) {
			return None()
		}
		if a.Tag == TagFloat || b.Tag == TagFloat {
			return FromFloat(ToFloat(a) + ToFloat(b))
		}
		return normalizeBig(new(big.Int).Add(bigOf(a), bigOf(b)))
	case a.Tag == TagFloat || b.Tag == TagFloat:
		if !isNumeric(a.Tag) || !isNumeric(b.Tag) {
			return None()
		}
		return FromFloat(ToFloat(a) + ToFloat(b))
	case isNumeric(a.Tag) && isNumeric(b.Tag):
		x, y := ToInt(a), ToInt(b)
		if addOverflows(x, y) {
			return normalizeBig(new(big.Int).Add(big.NewInt(x), big.NewInt(y)))
		}
		return FromInt(x + y)
	}
	return None()
}

// Subtract implements the "-" operator.
func Subtract(a, b *Value) *Value {
	if !isNumeric(a.Tag) || !isNumeric(b.Tag) {
		return None()
	}
	if a.Tag == TagFloat || b.Tag == TagFloat {
		return FromFloat(ToFloat(a) - ToFloat(b))
	}
	if a.Tag == TagBigInt || b.Tag == TagBigInt {
		return normalizeBig(new(big.Int).Sub(bigOf(a), bigOf(b)))
	}
	x, y := ToInt(a), ToInt(b)
	if subOverflows(x, y) {
		return normalizeBig(new(big.Int).Sub(big.NewInt(x), big.NewInt(y)))
	}
	return FromInt(x - y)
}

// Multiply implements the "*" operator, including Str*Int and List*Int
// replication in either operand order.
func Multiply(a, b *Value) *Value {
	if a.Tag == TagInt || a.Tag == TagBool {
		if b.Tag == TagStr || b.Tag == TagList {
			a, b = b, a
		}
	}
	switch {
	case a.Tag == TagStr && (b.Tag == TagInt || b.Tag == TagBool):
		n := ToInt(b)
		if n <= 0 {
			return FromString("")
		}
		return FromString(strings.Repeat(a.Str, int(n)))
	case a.Tag == TagList && (b.Tag == TagInt || b.Tag == TagBool):
		n := ToInt(b)
		var items []*Value
		for ; n > 0; n-- {
			for _, it := range a.List.Items {
				items = append(items, Clone(it))
			}
		}
		return NewList(items...)
	case !isNumeric(a.Tag) || !isNumeric(b.Tag):
		return None()
	case a.Tag == TagFloat || b.Tag == TagFloat:
		return FromFloat(ToFloat(a) * ToFloat(b))
	case a.Tag == TagBigInt || b.Tag == TagBigInt:
		return normalizeBig(new(big.Int).Mul(bigOf(a), bigOf(b)))
	}
	x, y := ToInt(a), ToInt(b)
	if mulOverflows(x, y) {
		return normalizeBig(new(big.Int).Mul(big.NewInt(x), big.NewInt(y)))
	}
	return FromInt(x * y)
}

// Divide implements true division: the result is always Float.
func Divide(a, b *Value) *Value {
	if !isNumeric(a.Tag) || !isNumeric(b.Tag) {
		return None()
	}
	d := ToFloat(b)
	if d == 0 {
		return None()
	}
	return FromFloat(ToFloat(a) / d)
}

// FloorDiv implements the "//" operator with Python floor semantics.
func FloorDiv(a, b *Value) *Value {
	if !isNumeric(a.Tag) || !isNumeric(b.Tag) {
		return None()
	}
	if a.Tag == TagFloat || b.Tag == TagFloat {
		d := ToFloat(b)
		if d == 0 {
			return None()
		}
		return FromFloat(math.Floor(ToFloat(a) / d))
	}
	if a.Tag == TagBigInt || b.Tag == TagBigInt {
		d := bigOf(b)
		if d.Sign() == 0 {
			return None()
		}
		q := new(big.Int)
		m := new(big.Int)
		q.QuoRem(bigOf(a), d, m)
		if m.Sign() != 0 && m.Sign() != d.Sign() {
			q.Sub(q, big.NewInt(1))
		}
		return normalizeBig(q)
	}
	x, y := ToInt(a), ToInt(b)
	if y == 0 {
		return None()
	}
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return FromInt(q)
}

// Modulo implements the "%" operator with the sign of the divisor.
func Modulo(a, b *Value) *Value {
	if !isNumeric(a.Tag) || !isNumeric(b.Tag) {
		return None()
	}
	if a.Tag == TagFloat || b.Tag == TagFloat {
		d := ToFloat(b)
		if d == 0 {
			return None()
		}
		m := math.Mod(ToFloat(a), d)
		if m != 0 && (m < 0) != (d < 0) {
			m += d
		}
		return FromFloat(m)
	}
	if a.Tag == TagBigInt || b.Tag == TagBigInt {
		d := bigOf(b)
		if d.Sign() == 0 {
			return None()
		}
		m := new(big.Int)
		new(big.Int).QuoRem(bigOf(a), d, m)
		if m.Sign() != 0 && m.Sign() != d.Sign() {
			m.Add(m, d)
		}
		return normalizeBig(m)
	}
	x, y := ToInt(a), ToInt(b)
	if y == 0 {
		return None()
	}
	m := x % y
	if m != 0 && (m < 0) != (y < 0) {
		m += y
	}
	return FromInt(m)
}

// Power implements the "**" operator.
func Power(a, b *Value) *Value {
	if !isNumeric(a.Tag) || !isNumeric(b.Tag) {
		return None()
	}
	if a.Tag == TagFloat || b.Tag == TagFloat {
		return FromFloat(math.Pow(ToFloat(a), ToFloat(b)))
	}
	if b.Tag == TagBigInt && !b.Big.IsInt64() {
		return None()
	}
	exp := ToInt(b)
	if exp < 0 {
		base := ToFloat(a)
		if base == 0 {
			return None()
		}
		return FromFloat(math.Pow(base, float64(exp)))
	}
	result := new(big.Int).Exp(bigOf(a), big.NewInt(exp), nil)
	return normalizeBig(result)
}

// Negate implements unary minus.
func Negate(a *Value) *Value {
	switch a.Tag {
	case TagInt, TagBool:
		x := ToInt(a)
		if x == math.MinInt64 {
			return normalizeBig(new(big.Int).Neg(big.NewInt(x)))
		}
		return FromInt(-x)
	case TagFloat:
		return FromFloat(-a.Float)
	case TagBigInt:
		return normalizeBig(new(big.Int).Neg(a.Big))
	}
	return None()
}

// normalizeBig demotes a big integer back to Int when it fits in 64 bits.
func normalizeBig(b *big.Int) *Value {
	if b.IsInt64() {
		return FromInt(b.Int64())
	}
	return FromBig(b)
}
