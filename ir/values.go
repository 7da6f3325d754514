package ir

import (
	"fmt"
	"strconv"
)

// Value is anything an instruction can take as an operand: constants,
// function parameters, globals, functions, and prior instruction results.
type Value interface {
	// Ident is the value's printed identifier, e.g. %t3, @g, or 42.
	Ident() string
	Type() *Type
}

// Const is an immediate scalar constant.
type Const struct {
	Typ *Type
	Int int64
	Flt float64
	Str string // payload for string constants, Typ is Ptr
}

func ConstInt(t *Type, v int64) *Const { return &Const{Typ: t, Int: v} }
func ConstFloat(v float64) *Const      { return &Const{Typ: F64, Flt: v} }
func ConstBool(v bool) *Const          { return &Const{Typ: I1, Int: b2i(v)} }
func ConstString(s string) *Const      { return &Const{Typ: Ptr, Str: s} }
func ConstNull() *Const                { return &Const{Typ: Ptr} }

func b2i(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func (c *Const) Type() *Type { return c.Typ }

func (c *Const) Ident() string {
	switch {
	case c.Typ.IsFloat():
		return strconv.FormatFloat(c.Flt, 'g', -1, 64)
	case c.Typ.Kind == KindPtr && c.Str != "":
		return strconv.Quote(c.Str)
	case c.Typ.Kind == KindPtr:
		return "null"
	default:
		return strconv.FormatInt(c.Int, 10)
	}
}

// Param is a function parameter.
type Param struct {
	Name string
	Typ  *Type

	// Index is the parameter's position in the function signature.
	Index int
}

func (p *Param) Type() *Type   { return p.Typ }
func (p *Param) Ident() string { return "%" + p.Name }

// Global is a module-level mutable cell. Globals are zero-initialized
// unless Init is set.
type Global struct {
	Name string
	Typ  *Type // pointee type; the global's value type is a pointer to it
	Init *Const
}

func (g *Global) Type() *Type   { return PointerTo(g.Typ) }
func (g *Global) Ident() string { return "@" + g.Name }

func (g *Global) String() string {
	init := "zeroinitializer"
	if g.Init != nil {
		init = g.Init.Ident()
	}
	return fmt.Sprintf("@%s = global %s %s", g.Name, g.Typ, init)
}
