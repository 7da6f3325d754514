package compiler

import (
	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/errz"
	"github.com/cheetah-lang/cheetah/ir"
	"github.com/cheetah-lang/cheetah/types"
)

// compileBuiltin lowers a call to one of the built-in functions. Scalar
// arguments take specialized extern paths; everything else goes through
// the tagged runtime.
func (c *Context) compileBuiltin(name string, e *ast.Call) (value, error) {
	if len(e.Keywords) > 0 {
		return value{}, errz.Typef("%s() takes no keyword arguments", name)
	}
	switch name {
	case "print":
		return c.compilePrint(e.Args)
	case "len":
		v, err := c.single(name, e.Args)
		if err != nil {
			return value{}, err
		}
		return value{c.b.Call(c.extern("len"), c.box(v).v), types.Int}, nil
	case "range":
		return c.compileRange(e)
	case "str":
		v, err := c.single(name, e.Args)
		if err != nil {
			return value{}, err
		}
		raw := c.rawStringOf(v)
		return value{c.b.Call(c.extern("from_string"), raw), types.Str}, nil
	case "int":
		v, err := c.single(name, e.Args)
		if err != nil {
			return value{}, err
		}
		if types.Equal(v.t, types.Str) {
			return value{c.b.Call(c.extern("string_to_int"), c.b.Call(c.extern("to_string"), v.v)), types.Int}, nil
		}
		return value{c.asI64(v), types.Int}, nil
	case "float":
		v, err := c.single(name, e.Args)
		if err != nil {
			return value{}, err
		}
		if types.Equal(v.t, types.Str) {
			return value{c.b.Call(c.extern("string_to_float"), c.b.Call(c.extern("to_string"), v.v)), types.Float}, nil
		}
		return value{c.asF64(v), types.Float}, nil
	case "bool":
		v, err := c.single(name, e.Args)
		if err != nil {
			return value{}, err
		}
		return value{c.condition(v), types.Bool}, nil
	case "list":
		return c.compileListCall(e)
	case "dict":
		if len(e.Args) != 0 {
			return value{}, errz.Typef("dict() takes no arguments in compiled code")
		}
		return value{c.b.Call(c.extern("dict_new")), types.NewDict(types.Any, types.Any)}, nil
	case "set":
		if len(e.Args) != 0 {
			return value{}, errz.Typef("set() takes no arguments in compiled code")
		}
		return value{c.b.Call(c.extern("set_new")), types.NewSet(types.Any)}, nil
	case "tuple":
		v, err := c.single(name, e.Args)
		if err != nil {
			return value{}, err
		}
		if _, ok := v.t.(*types.ListType); !ok {
			return value{}, errz.Typef("tuple() expects a list argument")
		}
		return value{c.b.Call(c.extern("tuple_from_list"), v.v), types.Any}, nil
	case "min":
		return c.compileMinMax(e, true)
	case "max":
		return c.compileMinMax(e, false)
	default:
		return value{}, errz.Internalf("unhandled builtin %q", name)
	}
}

func (c *Context) single(name string, args []ast.Expr) (value, error) {
	if len(args) != 1 {
		return value{}, errz.Typef("%s() expects one argument, got %d", name, len(args))
	}
	return c.compileExpr(args[0])
}

// compilePrint specializes single unboxed scalars to the matching print
// extern. Multiple arguments and tagged values are converted to strings,
// joined with spaces, and printed with one trailing newline.
func (c *Context) compilePrint(args []ast.Expr) (value, error) {
	if len(args) == 1 {
		v, err := c.compileExpr(args[0])
		if err != nil {
			return value{}, err
		}
		switch rep(v) {
		case ir.I64:
			c.b.Call(c.extern("print_int"), v.v)
		case ir.F64:
			c.b.Call(c.extern("print_float"), v.v)
		case ir.I1:
			c.b.Call(c.extern("print_bool"), v.v)
		default:
			c.b.Call(c.extern("print_value"), v.v)
		}
		return c.none(), nil
	}
	if len(args) == 0 {
		c.b.Call(c.extern("println_string"), ir.ConstString(""))
		return c.none(), nil
	}
	var acc ir.Value
	for _, a := range args {
		raw, err := c.rawString(a)
		if err != nil {
			return value{}, err
		}
		if acc == nil {
			acc = raw
		} else {
			acc = c.b.Call(c.extern("string_concat"), acc, ir.ConstString(" "))
			acc = c.b.Call(c.extern("string_concat"), acc, raw)
		}
	}
	c.b.Call(c.extern("println_string"), acc)
	return c.none(), nil
}

// compileRange lowers range(...) to a range iterator value. Loop headers
// bypass this and extract the bounds directly.
func (c *Context) compileRange(e *ast.Call) (value, error) {
	if len(e.Args) < 1 || len(e.Args) > 3 {
		return value{}, errz.Typef("range() expects 1 to 3 arguments, got %d", len(e.Args))
	}
	vals := make([]ir.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := c.compileExpr(a)
		if err != nil {
			return value{}, err
		}
		vals[i] = c.asI64(v)
	}
	var call ir.Value
	switch len(vals) {
	case 1:
		call = c.b.Call(c.extern("range_1"), vals[0])
	case 2:
		call = c.b.Call(c.extern("range_2"), vals[0], vals[1])
	default:
		call = c.b.Call(c.extern("range_3"), vals[0], vals[1], vals[2])
	}
	return value{call, types.RangeIter}, nil
}

// compileListCall lowers list(...): empty, a copy of a list, or the
// materialization of a range.
func (c *Context) compileListCall(e *ast.Call) (value, error) {
	if len(e.Args) == 0 {
		return value{c.b.Call(c.extern("list_new")), types.NewList(types.Any)}, nil
	}
	if len(e.Args) != 1 {
		return value{}, errz.Typef("list() expects at most one argument, got %d", len(e.Args))
	}
	acc := c.b.Call(c.extern("list_new"))
	elemT := types.Type(types.Any)
	err := c.iterLoop(e.Args[0], func(v value) error {
		elemT = v.t
		c.b.Call(c.extern("list_append"), acc, c.box(v).v)
		return nil
	}, func() error { return nil })
	if err != nil {
		return value{}, err
	}
	return value{acc, types.NewList(elemT)}, nil
}

// compileMinMax folds min or max over unboxed numeric arguments with
// compare-and-select chains.
func (c *Context) compileMinMax(e *ast.Call, min bool) (value, error) {
	if len(e.Args) < 2 {
		return value{}, errz.Typef("min and max expect at least two arguments")
	}
	vals := make([]value, len(e.Args))
	float := false
	for i, a := range e.Args {
		v, err := c.compileExpr(a)
		if err != nil {
			return value{}, err
		}
		if !isIntRep(v) && rep(v) != ir.F64 {
			return value{}, errz.Typef("min and max work on numbers in compiled code")
		}
		if rep(v) == ir.F64 {
			float = true
		}
		vals[i] = v
	}
	pred := ir.PredLT
	if !min {
		pred = ir.PredGT
	}
	if float {
		acc := c.asF64(vals[0])
		for _, v := range vals[1:] {
			next := c.asF64(v)
			acc = c.b.Select(c.b.FCmp(pred, next, acc), next, acc)
		}
		return value{acc, types.Float}, nil
	}
	acc := c.asI64(vals[0])
	for _, v := range vals[1:] {
		next := c.asI64(v)
		acc = c.b.Select(c.b.ICmp(pred, next, acc), next, acc)
	}
	return value{acc, types.Int}, nil
}
