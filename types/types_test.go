package types

import (
	"errors"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
)

func TestEquality(t *testing.T) {
	tests := []struct {
		a, b  Type
		equal bool
	}{
		{Int, Int, true},
		{Int, Float, false},
		{NewList(Int), NewList(Int), true},
		{NewList(Int), NewList(Str), false},
		{NewTuple(Int, Str), NewTuple(Int, Str), true},
		{NewTuple(Int, Str), NewTuple(Int), false},
		{NewDict(Str, Int), NewDict(Str, Int), true},
		{NewClass("Point"), NewClass("Point"), true},
		{NewClass("Point"), NewClass("Size"), false},
		{NewClass("A", "B"), NewClass("A", "C"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, Equal(tt.a, tt.b), tt.equal, "Equal(%s, %s)", tt.a, tt.b)
	}
}

func TestClassIdentityIgnoresMembers(t *testing.T) {
	a := NewClass("Point")
	a.AddMethod("area", NewFunction(nil, nil, Float))
	a.AddField("x", Int)
	b := NewClass("Point")
	assert.True(t, Equal(a, b))
}

func TestCompatibility(t *testing.T) {
	tests := []struct {
		a, b   Type
		compat bool
	}{
		{Int, Int, true},
		{Int, Any, true},
		{Any, Str, true},
		{None, Str, true},
		{None, NewList(Int), true},
		{None, Int, false},
		{NewList(Int), NewList(Int), true},
		{NewList(Int), NewList(Str), false},
		{NewTuple(Int, Int), NewTuple(Int, Int), true},
		{NewTuple(Int), NewTuple(Int, Int), false},
		{Int, Float, false},
	}
	for _, tt := range tests {
		assert.Equal(t, IsCompatibleWith(tt.a, tt.b), tt.compat,
			"IsCompatibleWith(%s, %s)", tt.a, tt.b)
	}
}

func TestCoercion(t *testing.T) {
	tests := []struct {
		a, b    Type
		coerces bool
	}{
		{Int, Float, true},
		{Int, Bool, true},
		{Bool, Int, true},
		{Bool, Float, true},
		{Float, Int, false},
		{Str, Int, true},
		{Int, Str, true},
		{Float, Str, true},
		{Str, Bool, true},
		{NewDict(Str, Int), Int, true},
		{NewDict(Str, Str), Int, false},
		{NewList(Int), NewList(Float), true},
		{None, Str, true},
		{None, Int, false},
	}
	for _, tt := range tests {
		assert.Equal(t, CanCoerceTo(tt.a, tt.b), tt.coerces,
			"CanCoerceTo(%s, %s)", tt.a, tt.b)
	}
}

func TestFunctionCoercionVariance(t *testing.T) {
	// (float) -> int coerces to (int) -> float: parameters are
	// contravariant and returns are covariant.
	from := NewFunction([]Type{Float}, []string{"x"}, Int)
	to := NewFunction([]Type{Int}, []string{"x"}, Float)
	assert.True(t, CanCoerceTo(from, to))
	assert.False(t, CanCoerceTo(to, from))
}

func TestUnify(t *testing.T) {
	tests := []struct {
		a, b Type
		want Type
		ok   bool
	}{
		{Int, Int, Int, true},
		{Int, Float, Float, true},
		{Bool, Int, Int, true},
		{Bool, Float, Float, true},
		{Any, Int, Int, true},
		{Unknown, Str, Str, true},
		{None, Str, Str, true},
		{NewList(Int), NewList(Float), NewList(Float), true},
		{NewList(Int), NewList(Str), NewList(Any), true},
		{NewTuple(Int, Str), NewTuple(Int, Str), NewTuple(Int, Str), true},
		{NewTuple(Int), NewTuple(Int, Int), nil, false},
		{NewDict(Str, Int), NewDict(Str, Float), NewDict(Str, Float), true},
		{NewDict(Str, Int), Float, Float, true},
		{Int, Str, nil, false},
	}
	for _, tt := range tests {
		got, ok := Unify(tt.a, tt.b)
		assert.Equal(t, ok, tt.ok, "Unify(%s, %s)", tt.a, tt.b)
		if tt.ok {
			assert.True(t, Equal(got, tt.want), "Unify(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

// Whenever Unify succeeds, both inputs must coerce to the result.
func TestUnifyProducesCoercionTarget(t *testing.T) {
	samples := []Type{
		Int, Float, Bool, Str, None, Any, Unknown,
		NewList(Int), NewList(Str), NewList(Any),
		NewTuple(Int, Int), NewDict(Str, Int), NewSet(Int),
	}
	for _, a := range samples {
		for _, b := range samples {
			u, ok := Unify(a, b)
			if !ok {
				continue
			}
			assert.True(t, CanCoerceTo(a, u), "%s should coerce to Unify(%s, %s) = %s", a, a, b, u)
			assert.True(t, CanCoerceTo(b, u), "%s should coerce to Unify(%s, %s) = %s", b, a, b, u)
		}
	}
}

func TestFindCommonType(t *testing.T) {
	assert.True(t, Equal(FindCommonType(nil), Any))
	assert.True(t, Equal(FindCommonType([]Type{Int, Float, Bool}), Float))
	assert.True(t, Equal(FindCommonType([]Type{Int, Str}), Any))
}

func TestIndexing(t *testing.T) {
	elem, err := IndexedType(NewList(Str), Int)
	assert.Nil(t, err)
	assert.True(t, Equal(elem, Str))

	elem, err = IndexedType(Str, Int)
	assert.Nil(t, err)
	assert.True(t, Equal(elem, Str))

	elem, err = IndexedType(NewDict(Str, Int), Str)
	assert.Nil(t, err)
	assert.True(t, Equal(elem, Int))

	elem, err = IndexedType(NewTuple(Int, Int), Int)
	assert.Nil(t, err)
	assert.True(t, Equal(elem, Int))

	elem, err = IndexedType(NewTuple(Int, Str), Int)
	assert.Nil(t, err)
	assert.True(t, Equal(elem, Any))

	elem, err = IndexedType(Bytes, Int)
	assert.Nil(t, err)
	assert.True(t, Equal(elem, Int))

	_, err = IndexedType(Int, Int)
	var notIndexable *NotIndexableError
	assert.True(t, errors.As(err, &notIndexable), "want NotIndexableError, got %v", err)

	_, err = IndexedType(NewList(Int), Str)
	var invalidOp *InvalidOperatorError
	assert.True(t, errors.As(err, &invalidOp), "want InvalidOperatorError, got %v", err)
}

func TestCallReturnType(t *testing.T) {
	fn := NewFunction([]Type{Int, Int}, []string{"a", "b"}, Int)
	fn.SetDefault(1)

	ret, err := CallReturnType(fn, []Type{Int, Int})
	assert.Nil(t, err)
	assert.True(t, Equal(ret, Int))

	// Trailing default makes the second argument optional.
	ret, err = CallReturnType(fn, []Type{Int})
	assert.Nil(t, err)
	assert.True(t, Equal(ret, Int))

	_, err = CallReturnType(fn, nil)
	var wrongCount *WrongArgumentCountError
	assert.True(t, errors.As(err, &wrongCount), "want WrongArgumentCountError, got %v", err)

	_, err = CallReturnType(fn, []Type{NewList(Int), Int})
	var invalidArg *InvalidArgumentError
	assert.True(t, errors.As(err, &invalidArg), "want InvalidArgumentError, got %v", err)

	cls := NewClass("Point")
	ret, err = CallReturnType(cls, nil)
	assert.Nil(t, err)
	assert.True(t, Equal(ret, cls))

	_, err = CallReturnType(Int, nil)
	var notCallable *NotCallableError
	assert.True(t, errors.As(err, &notCallable), "want NotCallableError, got %v", err)
}
