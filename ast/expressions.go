package ast

import (
	"fmt"
	"strings"

	"github.com/cheetah-lang/cheetah/token"
)

// Span is embedded by every concrete node to record its source extent.
type Span struct {
	From token.Position
	To   token.Position
}

func (s Span) Pos() token.Position { return s.From }
func (s Span) End() token.Position { return s.To }

// Name refers to a variable, function, or class by identifier.
type Name struct {
	Span
	ID string
}

func (x *Name) exprNode()      {}
func (x *Name) String() string { return x.ID }

// BinOp is a binary arithmetic or bitwise operation such as a + b.
type BinOp struct {
	Span
	Left  Expr
	Op    string
	Right Expr
}

func (x *BinOp) exprNode() {}
func (x *BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", x.Left.String(), x.Op, x.Right.String())
}

// UnaryOp is a unary operation such as -a or not a.
type UnaryOp struct {
	Span
	Op      string // one of "+", "-", "not", "~"
	Operand Expr
}

func (x *UnaryOp) exprNode() {}
func (x *UnaryOp) String() string {
	if x.Op == "not" {
		return fmt.Sprintf("(not %s)", x.Operand.String())
	}
	return fmt.Sprintf("(%s%s)", x.Op, x.Operand.String())
}

// BoolOp is a short-circuiting boolean operation over two or more values.
type BoolOp struct {
	Span
	Op     string // "and" or "or"
	Values []Expr
}

func (x *BoolOp) exprNode() {}
func (x *BoolOp) String() string {
	return "(" + joinExprs(x.Values, " "+x.Op+" ") + ")"
}

// Compare is a chained comparison such as a < b <= c.
type Compare struct {
	Span
	Left        Expr
	Ops         []string // "==", "!=", "<", "<=", ">", ">=", "is", "is not", "in", "not in"
	Comparators []Expr
}

func (x *Compare) exprNode() {}
func (x *Compare) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(x.Left.String())
	for i, op := range x.Ops {
		b.WriteString(" " + op + " ")
		b.WriteString(x.Comparators[i].String())
	}
	b.WriteString(")")
	return b.String()
}

// Keyword is a keyword argument in a call, such as f(x=1).
type Keyword struct {
	Span
	Arg   string // empty for **kwargs
	Value Expr
}

func (x *Keyword) String() string {
	if x.Arg == "" {
		return "**" + x.Value.String()
	}
	return x.Arg + "=" + x.Value.String()
}

// Call is a function or class invocation.
type Call struct {
	Span
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

func (x *Call) exprNode() {}
func (x *Call) String() string {
	parts := make([]string, 0, len(x.Args)+len(x.Keywords))
	for _, a := range x.Args {
		parts = append(parts, a.String())
	}
	for _, k := range x.Keywords {
		parts = append(parts, k.String())
	}
	return fmt.Sprintf("%s(%s)", x.Func.String(), strings.Join(parts, ", "))
}

// Attribute is a member access such as obj.name.
type Attribute struct {
	Span
	Value Expr
	Attr  string
}

func (x *Attribute) exprNode()      {}
func (x *Attribute) String() string { return x.Value.String() + "." + x.Attr }

// Subscript is an index or slice access such as a[i] or a[1:3].
type Subscript struct {
	Span
	Value Expr
	Index Expr // may be a *SliceExpr
}

func (x *Subscript) exprNode() {}
func (x *Subscript) String() string {
	return fmt.Sprintf("%s[%s]", x.Value.String(), x.Index.String())
}

// SliceExpr is the lower:upper:step component of a subscript.
type SliceExpr struct {
	Span
	Lower Expr // may be nil
	Upper Expr // may be nil
	Step  Expr // may be nil
}

func (x *SliceExpr) exprNode() {}
func (x *SliceExpr) String() string {
	var b strings.Builder
	if x.Lower != nil {
		b.WriteString(x.Lower.String())
	}
	b.WriteString(":")
	if x.Upper != nil {
		b.WriteString(x.Upper.String())
	}
	if x.Step != nil {
		b.WriteString(":")
		b.WriteString(x.Step.String())
	}
	return b.String()
}

// Param is a single function or lambda parameter.
type Param struct {
	Span
	Name       string
	Annotation Expr // may be nil
	Default    Expr // may be nil
}

func (p *Param) String() string {
	s := p.Name
	if p.Annotation != nil {
		s += ": " + p.Annotation.String()
	}
	if p.Default != nil {
		s += "=" + p.Default.String()
	}
	return s
}

// Lambda is an anonymous function expression.
type Lambda struct {
	Span
	Params []*Param
	Body   Expr
}

func (x *Lambda) exprNode() {}
func (x *Lambda) String() string {
	parts := make([]string, 0, len(x.Params))
	for _, p := range x.Params {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("lambda %s: %s", strings.Join(parts, ", "), x.Body.String())
}

// IfExp is a conditional expression: a if cond else b.
type IfExp struct {
	Span
	Test   Expr
	Body   Expr
	OrElse Expr
}

func (x *IfExp) exprNode() {}
func (x *IfExp) String() string {
	return fmt.Sprintf("(%s if %s else %s)", x.Body.String(), x.Test.String(), x.OrElse.String())
}

// NamedExpr is a walrus assignment expression: (x := value).
type NamedExpr struct {
	Span
	Target *Name
	Value  Expr
}

func (x *NamedExpr) exprNode() {}
func (x *NamedExpr) String() string {
	return fmt.Sprintf("(%s := %s)", x.Target.String(), x.Value.String())
}

// Starred is a *expr unpacking inside calls and assignment targets.
type Starred struct {
	Span
	Value Expr
}

func (x *Starred) exprNode()      {}
func (x *Starred) String() string { return "*" + x.Value.String() }

// Comprehension is a single "for target in iter if cond..." clause.
type Comprehension struct {
	Span
	Target Expr
	Iter   Expr
	Ifs    []Expr
}

func (c *Comprehension) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "for %s in %s", c.Target.String(), c.Iter.String())
	for _, cond := range c.Ifs {
		b.WriteString(" if " + cond.String())
	}
	return b.String()
}

// ListComp is a list comprehension expression.
type ListComp struct {
	Span
	Elt        Expr
	Generators []*Comprehension
}

func (x *ListComp) exprNode() {}
func (x *ListComp) String() string {
	return "[" + x.Elt.String() + " " + joinComprehensions(x.Generators) + "]"
}

// SetComp is a set comprehension expression.
type SetComp struct {
	Span
	Elt        Expr
	Generators []*Comprehension
}

func (x *SetComp) exprNode() {}
func (x *SetComp) String() string {
	return "{" + x.Elt.String() + " " + joinComprehensions(x.Generators) + "}"
}

// DictComp is a dict comprehension expression.
type DictComp struct {
	Span
	Key        Expr
	Value      Expr
	Generators []*Comprehension
}

func (x *DictComp) exprNode() {}
func (x *DictComp) String() string {
	return "{" + x.Key.String() + ": " + x.Value.String() + " " + joinComprehensions(x.Generators) + "}"
}

// GeneratorExp is a generator expression.
type GeneratorExp struct {
	Span
	Elt        Expr
	Generators []*Comprehension
}

func (x *GeneratorExp) exprNode() {}
func (x *GeneratorExp) String() string {
	return "(" + x.Elt.String() + " " + joinComprehensions(x.Generators) + ")"
}

// Await is an await expression. Accepted syntactically; lowering rejects it.
type Await struct {
	Span
	Value Expr
}

func (x *Await) exprNode()      {}
func (x *Await) String() string { return "await " + x.Value.String() }

// Yield is a yield expression. Accepted syntactically; lowering rejects it.
type Yield struct {
	Span
	Value Expr // may be nil
}

func (x *Yield) exprNode() {}
func (x *Yield) String() string {
	if x.Value == nil {
		return "yield"
	}
	return "yield " + x.Value.String()
}

// YieldFrom is a "yield from" expression.
type YieldFrom struct {
	Span
	Value Expr
}

func (x *YieldFrom) exprNode()      {}
func (x *YieldFrom) String() string { return "yield from " + x.Value.String() }

// FormattedValue is a single {expr} interpolation inside an f-string.
type FormattedValue struct {
	Span
	Value Expr
}

func (x *FormattedValue) exprNode()      {}
func (x *FormattedValue) String() string { return "{" + x.Value.String() + "}" }

// JoinedStr is an f-string: a sequence of Str and FormattedValue parts.
type JoinedStr struct {
	Span
	Values []Expr
}

func (x *JoinedStr) exprNode() {}
func (x *JoinedStr) String() string {
	var b strings.Builder
	b.WriteString(`f"`)
	for _, v := range x.Values {
		if s, ok := v.(*Str); ok {
			b.WriteString(s.Value)
		} else {
			b.WriteString(v.String())
		}
	}
	b.WriteString(`"`)
	return b.String()
}

func joinComprehensions(gens []*Comprehension) string {
	parts := make([]string, 0, len(gens))
	for _, g := range gens {
		parts = append(parts, g.String())
	}
	return strings.Join(parts, " ")
}
