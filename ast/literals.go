package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Int is an integer literal.
type Int struct {
	Span
	Value int64
}

func (x *Int) exprNode()      {}
func (x *Int) String() string { return strconv.FormatInt(x.Value, 10) }

// Float is a floating point literal.
type Float struct {
	Span
	Value float64
}

func (x *Float) exprNode()      {}
func (x *Float) String() string { return strconv.FormatFloat(x.Value, 'g', -1, 64) }

// Str is a string literal.
type Str struct {
	Span
	Value string
}

func (x *Str) exprNode()      {}
func (x *Str) String() string { return fmt.Sprintf("%q", x.Value) }

// Bytes is a bytes literal.
type Bytes struct {
	Span
	Value []byte
}

func (x *Bytes) exprNode()      {}
func (x *Bytes) String() string { return fmt.Sprintf("b%q", string(x.Value)) }

// Bool is a True or False literal.
type Bool struct {
	Span
	Value bool
}

func (x *Bool) exprNode() {}
func (x *Bool) String() string {
	if x.Value {
		return "True"
	}
	return "False"
}

// NoneLiteral is the None constant.
type NoneLiteral struct {
	Span
}

func (x *NoneLiteral) exprNode()      {}
func (x *NoneLiteral) String() string { return "None" }

// List is a list literal.
type List struct {
	Span
	Elts []Expr
}

func (x *List) exprNode()      {}
func (x *List) String() string { return "[" + joinExprs(x.Elts, ", ") + "]" }

// Tuple is a tuple literal.
type Tuple struct {
	Span
	Elts []Expr
}

func (x *Tuple) exprNode() {}
func (x *Tuple) String() string {
	if len(x.Elts) == 1 {
		return "(" + x.Elts[0].String() + ",)"
	}
	return "(" + joinExprs(x.Elts, ", ") + ")"
}

// Set is a set literal.
type Set struct {
	Span
	Elts []Expr
}

func (x *Set) exprNode()      {}
func (x *Set) String() string { return "{" + joinExprs(x.Elts, ", ") + "}" }

// Dict is a dict literal. Keys and Values are parallel slices so that
// insertion order is preserved through compilation.
type Dict struct {
	Span
	Keys   []Expr
	Values []Expr
}

func (x *Dict) exprNode() {}
func (x *Dict) String() string {
	parts := make([]string, 0, len(x.Keys))
	for i, k := range x.Keys {
		parts = append(parts, k.String()+": "+x.Values[i].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
