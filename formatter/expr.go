package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cheetah-lang/cheetah/ast"
)

// Operator precedence for the expression printer, loosest first. An
// expression is parenthesized when its own level is below the level its
// context demands.
const (
	precNone = iota
	precTernary
	precOr
	precAnd
	precNot
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdd
	precMul
	precUnary
	precPower
	precAwait
	precPostfix
	precAtom
)

var binOpPrec = map[string]int{
	"|":  precBitOr,
	"^":  precBitXor,
	"&":  precBitAnd,
	"<<": precShift,
	">>": precShift,
	"+":  precAdd,
	"-":  precAdd,
	"*":  precMul,
	"/":  precMul,
	"//": precMul,
	"%":  precMul,
	"@":  precMul,
	"**": precPower,
}

// expr prints e, wrapping it in parentheses when its precedence is below
// min.
func (f *Formatter) expr(e ast.Expr, min int) {
	if prec := exprPrec(e); prec < min {
		f.buf.WriteString("(")
		f.exprInner(e)
		f.buf.WriteString(")")
		return
	}
	f.exprInner(e)
}

func exprPrec(e ast.Expr) int {
	switch x := e.(type) {
	case *ast.BinOp:
		return binOpPrec[x.Op]
	case *ast.UnaryOp:
		if x.Op == "not" {
			return precNot
		}
		return precUnary
	case *ast.BoolOp:
		if x.Op == "or" {
			return precOr
		}
		return precAnd
	case *ast.Compare:
		return precCompare
	case *ast.IfExp, *ast.Lambda:
		return precTernary
	case *ast.NamedExpr, *ast.Yield, *ast.YieldFrom:
		// Always printed with their own parentheses or at statement
		// level, so they never need wrapping here.
		return precAtom
	case *ast.Await:
		return precAwait
	case *ast.Call, *ast.Attribute, *ast.Subscript:
		return precPostfix
	case *ast.Starred:
		return precCompare
	default:
		return precAtom
	}
}

func (f *Formatter) exprInner(e ast.Expr) {
	switch x := e.(type) {
	case *ast.Name:
		f.buf.WriteString(x.ID)

	case *ast.Int:
		f.buf.WriteString(strconv.FormatInt(x.Value, 10))

	case *ast.Float:
		s := strconv.FormatFloat(x.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		f.buf.WriteString(s)

	case *ast.Str:
		f.buf.WriteString(strconv.Quote(x.Value))

	case *ast.Bytes:
		f.buf.WriteString("b" + strconv.Quote(string(x.Value)))

	case *ast.Bool:
		if x.Value {
			f.buf.WriteString("True")
		} else {
			f.buf.WriteString("False")
		}

	case *ast.NoneLiteral:
		f.buf.WriteString("None")

	case *ast.BinOp:
		prec := binOpPrec[x.Op]
		if x.Op == "**" {
			f.expr(x.Left, prec+1)
			f.buf.WriteString(" ** ")
			f.expr(x.Right, prec)
		} else {
			f.expr(x.Left, prec)
			f.buf.WriteString(" " + x.Op + " ")
			f.expr(x.Right, prec+1)
		}

	case *ast.UnaryOp:
		if x.Op == "not" {
			f.buf.WriteString("not ")
			f.expr(x.Operand, precNot)
		} else {
			f.buf.WriteString(x.Op)
			f.expr(x.Operand, precUnary)
		}

	case *ast.BoolOp:
		for i, v := range x.Values {
			if i > 0 {
				f.buf.WriteString(" " + x.Op + " ")
			}
			f.expr(v, exprPrec(x)+1)
		}

	case *ast.Compare:
		f.expr(x.Left, precCompare+1)
		for i, op := range x.Ops {
			f.buf.WriteString(" " + op + " ")
			f.expr(x.Comparators[i], precCompare+1)
		}

	case *ast.IfExp:
		f.expr(x.Body, precTernary+1)
		f.buf.WriteString(" if ")
		f.expr(x.Test, precTernary+1)
		f.buf.WriteString(" else ")
		f.expr(x.OrElse, precTernary)

	case *ast.NamedExpr:
		f.buf.WriteString("(" + x.Target.ID + " := ")
		f.expr(x.Value, precNone)
		f.buf.WriteString(")")

	case *ast.Lambda:
		f.buf.WriteString("lambda")
		if len(x.Params) > 0 {
			f.buf.WriteString(" ")
			for i, p := range x.Params {
				if i > 0 {
					f.buf.WriteString(", ")
				}
				f.param(p)
			}
		}
		f.buf.WriteString(": ")
		f.expr(x.Body, precTernary)

	case *ast.Call:
		f.expr(x.Func, precPostfix)
		// A generator expression as the sole argument shares the call's
		// parentheses.
		if len(x.Args) == 1 && len(x.Keywords) == 0 {
			if gen, ok := x.Args[0].(*ast.GeneratorExp); ok {
				f.buf.WriteString("(")
				f.expr(gen.Elt, precNone)
				f.comprehensions(gen.Generators)
				f.buf.WriteString(")")
				return
			}
		}
		f.buf.WriteString("(")
		n := 0
		for _, a := range x.Args {
			if n > 0 {
				f.buf.WriteString(", ")
			}
			f.expr(a, precNone)
			n++
		}
		for _, k := range x.Keywords {
			if n > 0 {
				f.buf.WriteString(", ")
			}
			if k.Arg == "" {
				f.buf.WriteString("**")
			} else {
				f.buf.WriteString(k.Arg + "=")
			}
			f.expr(k.Value, precNone)
			n++
		}
		f.buf.WriteString(")")

	case *ast.Attribute:
		// A leading numeric literal would absorb the dot.
		switch x.Value.(type) {
		case *ast.Int, *ast.Float:
			f.buf.WriteString("(")
			f.exprInner(x.Value)
			f.buf.WriteString(")")
		default:
			f.expr(x.Value, precPostfix)
		}
		f.buf.WriteString("." + x.Attr)

	case *ast.Subscript:
		f.expr(x.Value, precPostfix)
		f.buf.WriteString("[")
		if t, ok := x.Index.(*ast.Tuple); ok && len(t.Elts) > 0 {
			f.commaExprs(t.Elts)
		} else {
			f.expr(x.Index, precNone)
		}
		f.buf.WriteString("]")

	case *ast.SliceExpr:
		if x.Lower != nil {
			f.expr(x.Lower, precNone)
		}
		f.buf.WriteString(":")
		if x.Upper != nil {
			f.expr(x.Upper, precNone)
		}
		if x.Step != nil {
			f.buf.WriteString(":")
			f.expr(x.Step, precNone)
		}

	case *ast.Starred:
		f.buf.WriteString("*")
		f.expr(x.Value, precCompare)

	case *ast.List:
		f.buf.WriteString("[")
		f.commaExprs(x.Elts)
		f.buf.WriteString("]")

	case *ast.Tuple:
		f.buf.WriteString("(")
		f.commaExprs(x.Elts)
		if len(x.Elts) == 1 {
			f.buf.WriteString(",")
		}
		f.buf.WriteString(")")

	case *ast.Set:
		f.buf.WriteString("{")
		f.commaExprs(x.Elts)
		f.buf.WriteString("}")

	case *ast.Dict:
		f.buf.WriteString("{")
		for i, k := range x.Keys {
			if i > 0 {
				f.buf.WriteString(", ")
			}
			f.expr(k, precNone)
			f.buf.WriteString(": ")
			f.expr(x.Values[i], precNone)
		}
		f.buf.WriteString("}")

	case *ast.ListComp:
		f.buf.WriteString("[")
		f.expr(x.Elt, precNone)
		f.comprehensions(x.Generators)
		f.buf.WriteString("]")

	case *ast.SetComp:
		f.buf.WriteString("{")
		f.expr(x.Elt, precNone)
		f.comprehensions(x.Generators)
		f.buf.WriteString("}")

	case *ast.DictComp:
		f.buf.WriteString("{")
		f.expr(x.Key, precNone)
		f.buf.WriteString(": ")
		f.expr(x.Value, precNone)
		f.comprehensions(x.Generators)
		f.buf.WriteString("}")

	case *ast.GeneratorExp:
		f.buf.WriteString("(")
		f.expr(x.Elt, precNone)
		f.comprehensions(x.Generators)
		f.buf.WriteString(")")

	case *ast.JoinedStr:
		f.fstring(x)

	case *ast.Await:
		f.buf.WriteString("await ")
		f.expr(x.Value, precAwait)

	case *ast.Yield:
		f.buf.WriteString("(yield")
		if x.Value != nil {
			f.buf.WriteString(" ")
			f.expr(x.Value, precNone)
		}
		f.buf.WriteString(")")

	case *ast.YieldFrom:
		f.buf.WriteString("(yield from ")
		f.expr(x.Value, precNone)
		f.buf.WriteString(")")

	default:
		fmt.Fprintf(&f.buf, "%s", e.String())
	}
}

func (f *Formatter) comprehensions(gens []*ast.Comprehension) {
	for _, g := range gens {
		f.buf.WriteString(" for ")
		f.exprList(g.Target)
		f.buf.WriteString(" in ")
		f.expr(g.Iter, precTernary+1)
		for _, cond := range g.Ifs {
			f.buf.WriteString(" if ")
			f.expr(cond, precTernary+1)
		}
	}
}

func (f *Formatter) fstring(x *ast.JoinedStr) {
	f.buf.WriteString(`f"`)
	for _, v := range x.Values {
		switch part := v.(type) {
		case *ast.Str:
			quoted := strconv.Quote(part.Value)
			body := quoted[1 : len(quoted)-1]
			body = strings.ReplaceAll(body, "{", "{{")
			body = strings.ReplaceAll(body, "}", "}}")
			f.buf.WriteString(body)
		case *ast.FormattedValue:
			f.buf.WriteString("{")
			f.expr(part.Value, precNone)
			f.buf.WriteString("}")
		}
	}
	f.buf.WriteString(`"`)
}
