package compiler

import (
	"fmt"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/errz"
	"github.com/cheetah-lang/cheetah/ir"
	"github.com/cheetah-lang/cheetah/typecheck"
	"github.com/cheetah-lang/cheetah/types"
)

// compileExpr lowers one expression and returns its value together with
// the static type the lowering derived for it. Scalars with a known
// int, float, or bool type stay unboxed; everything else is a tagged
// handle.
func (c *Context) compileExpr(expr ast.Expr) (value, error) {
	switch e := expr.(type) {
	case *ast.Int:
		return value{ir.ConstInt(ir.I64, e.Value), types.Int}, nil
	case *ast.Float:
		return value{ir.ConstFloat(e.Value), types.Float}, nil
	case *ast.Bool:
		return value{ir.ConstBool(e.Value), types.Bool}, nil
	case *ast.Str:
		v := c.b.Call(c.extern("from_string"), ir.ConstString(e.Value))
		return value{v, types.Str}, nil
	case *ast.Bytes:
		v := c.b.Call(c.extern("from_string"), ir.ConstString(string(e.Value)))
		return value{v, types.Bytes}, nil
	case *ast.NoneLiteral:
		return c.none(), nil
	case *ast.Name:
		return c.compileName(e)
	case *ast.BinOp:
		return c.compileBinOp(e)
	case *ast.UnaryOp:
		return c.compileUnaryOp(e)
	case *ast.BoolOp:
		return c.compileBoolOp(e)
	case *ast.Compare:
		return c.compileCompare(e)
	case *ast.Call:
		return c.compileCall(e)
	case *ast.Attribute:
		return c.compileAttribute(e)
	case *ast.Subscript:
		return c.compileSubscript(e)
	case *ast.IfExp:
		return c.compileIfExp(e)
	case *ast.NamedExpr:
		v, err := c.compileExpr(e.Value)
		if err != nil {
			return value{}, err
		}
		if err := c.assign(e.Target.ID, v); err != nil {
			return value{}, err
		}
		return v, nil
	case *ast.Lambda:
		return c.compileLambda(e)
	case *ast.List:
		return c.compileList(e.Elts)
	case *ast.Tuple:
		return c.compileTuple(e.Elts)
	case *ast.Set:
		return c.compileSet(e)
	case *ast.Dict:
		return c.compileDict(e)
	case *ast.JoinedStr:
		return c.compileJoinedStr(e)
	case *ast.FormattedValue:
		raw, err := c.rawString(e.Value)
		if err != nil {
			return value{}, err
		}
		return value{c.b.Call(c.extern("from_string"), raw), types.Str}, nil
	case *ast.ListComp:
		return c.compileListComp(e.Elt, e.Generators, false)
	case *ast.GeneratorExp:
		// Generator expressions are materialized eagerly.
		return c.compileListComp(e.Elt, e.Generators, false)
	case *ast.SetComp:
		return c.compileListComp(e.Elt, e.Generators, true)
	case *ast.DictComp:
		return c.compileDictComp(e)
	case *ast.Starred:
		return value{}, errz.Newf(errz.TypeError, "starred expression outside assignment target")
	case *ast.Await:
		return value{}, errz.Newf(errz.TypeError, "await is not supported in compiled code")
	case *ast.Yield, *ast.YieldFrom:
		return value{}, errz.Newf(errz.TypeError, "generators are not supported in compiled code")
	default:
		return value{}, errz.Internalf("unhandled expression %T", expr)
	}
}

// none yields the tagged none value.
func (c *Context) none() value {
	return value{c.b.Call(c.extern("none")), types.None}
}

func (c *Context) compileName(e *ast.Name) (value, error) {
	if slot, ok := c.lookup(e.ID); ok {
		return value{c.b.Load(slot.IRType, slot.Ptr), slot.Type}, nil
	}
	if fi, ok := c.resolveFunc(e.ID); ok {
		if len(fi.captures) > 0 {
			return value{}, errz.Functionf(fi.name, "closures cannot be passed as values")
		}
		pt := make([]types.Type, len(fi.params))
		pn := make([]string, len(fi.params))
		for i, p := range fi.params {
			pt[i], pn[i] = p.t, p.name
		}
		return value{fi.irFn, types.NewFunction(pt, pn, fi.retType)}, nil
	}
	return value{}, errz.Typef("undefined variable %q", e.ID).Wrap(&unknownName{Name: e.ID})
}

// unknownName marks an unresolved identifier so report can offer
// near-miss suggestions from the names in scope.
type unknownName struct {
	Name string
}

func (e *unknownName) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// rep reports the IR representation of a value.
func rep(v value) *ir.Type { return v.v.Type() }

// asI64 promotes an unboxed scalar to i64.
func (c *Context) asI64(v value) ir.Value {
	switch rep(v) {
	case ir.I64:
		return v.v
	case ir.I1:
		return c.b.ZExt(v.v, ir.I64)
	case ir.F64:
		return c.b.FPToSI(v.v)
	default:
		return c.b.Call(c.extern("to_int"), v.v)
	}
}

// asF64 promotes an unboxed scalar to f64.
func (c *Context) asF64(v value) ir.Value {
	switch rep(v) {
	case ir.F64:
		return v.v
	case ir.I64:
		return c.b.SIToFP(v.v)
	case ir.I1:
		return c.b.SIToFP(c.b.ZExt(v.v, ir.I64))
	default:
		return c.b.Call(c.extern("to_float"), v.v)
	}
}

func isIntRep(v value) bool {
	return rep(v) == ir.I64 || rep(v) == ir.I1
}

func numericReps(l, r value) bool {
	return (isIntRep(l) || rep(l) == ir.F64) && (isIntRep(r) || rep(r) == ir.F64)
}

var binOpExterns = map[string]string{
	"+": "add", "-": "subtract", "*": "multiply", "/": "divide",
	"//": "floor_div", "%": "modulo", "**": "power",
	"&": "bit_and", "|": "bit_or", "^": "bit_xor",
	"<<": "shift_left", ">>": "shift_right",
}

func (c *Context) compileBinOp(e *ast.BinOp) (value, error) {
	l, err := c.compileExpr(e.Left)
	if err != nil {
		return value{}, err
	}
	r, err := c.compileExpr(e.Right)
	if err != nil {
		return value{}, err
	}
	return c.arith(e.Op, l, r)
}

func (c *Context) arith(op string, l, r value) (value, error) {
	// Integer fast path: native i64 arithmetic.
	if isIntRep(l) && isIntRep(r) {
		a, b := c.asI64(l), c.asI64(r)
		switch op {
		case "+":
			return value{c.b.Add(a, b), types.Int}, nil
		case "-":
			return value{c.b.Sub(a, b), types.Int}, nil
		case "*":
			return value{c.b.Mul(a, b), types.Int}, nil
		case "/":
			return value{c.b.FDiv(c.b.SIToFP(a), c.b.SIToFP(b)), types.Float}, nil
		case "//":
			return value{c.floorDivInt(a, b), types.Int}, nil
		case "%":
			return value{c.floorModInt(a, b), types.Int}, nil
		case "&":
			return value{c.b.And(a, b), types.Int}, nil
		case "|":
			return value{c.b.Or(a, b), types.Int}, nil
		case "^":
			return value{c.b.Xor(a, b), types.Int}, nil
		case "<<":
			return value{c.b.Shl(a, b), types.Int}, nil
		case ">>":
			return value{c.b.AShr(a, b), types.Int}, nil
		case "**":
			// Exponentiation promotes through the tagged runtime so
			// negative exponents and overflow keep Python semantics.
			v := c.b.Call(c.extern("power"), c.box(l).v, c.box(r).v)
			return value{v, types.Any}, nil
		}
	}

	// Float path: either side f64, the other numeric.
	if numericReps(l, r) && (rep(l) == ir.F64 || rep(r) == ir.F64) {
		a, b := c.asF64(l), c.asF64(r)
		switch op {
		case "+":
			return value{c.b.FAdd(a, b), types.Float}, nil
		case "-":
			return value{c.b.FSub(a, b), types.Float}, nil
		case "*":
			return value{c.b.FMul(a, b), types.Float}, nil
		case "/":
			return value{c.b.FDiv(a, b), types.Float}, nil
		case "%":
			return value{c.b.FRem(a, b), types.Float}, nil
		}
		// Floor division and exponentiation fall through to the
		// runtime, which implements the floor and pow semantics.
	}

	sym, ok := binOpExterns[op]
	if !ok {
		return value{}, errz.Typef("unsupported binary operator %q", op)
	}
	v := c.b.Call(c.extern(sym), c.box(l).v, c.box(r).v)
	return value{v, arithResultType(op, l.t, r.t)}, nil
}

// floorDivInt emits Python floor division: the quotient is rounded toward
// negative infinity rather than toward zero.
func (c *Context) floorDivInt(a, b ir.Value) ir.Value {
	q := c.b.SDiv(a, b)
	r := c.b.SRem(a, b)
	hasRem := c.b.ICmp(ir.PredNE, r, ir.ConstInt(ir.I64, 0))
	rNeg := c.b.ICmp(ir.PredLT, r, ir.ConstInt(ir.I64, 0))
	bNeg := c.b.ICmp(ir.PredLT, b, ir.ConstInt(ir.I64, 0))
	signDiff := c.b.Xor(rNeg, bNeg)
	fix := c.b.And(hasRem, signDiff)
	adj := c.b.Select(fix, ir.ConstInt(ir.I64, 1), ir.ConstInt(ir.I64, 0))
	return c.b.Sub(q, adj)
}

// floorModInt emits the Python modulo, whose result takes the sign of the
// divisor.
func (c *Context) floorModInt(a, b ir.Value) ir.Value {
	r := c.b.SRem(a, b)
	hasRem := c.b.ICmp(ir.PredNE, r, ir.ConstInt(ir.I64, 0))
	rNeg := c.b.ICmp(ir.PredLT, r, ir.ConstInt(ir.I64, 0))
	bNeg := c.b.ICmp(ir.PredLT, b, ir.ConstInt(ir.I64, 0))
	signDiff := c.b.Xor(rNeg, bNeg)
	fix := c.b.And(hasRem, signDiff)
	return c.b.Select(fix, c.b.Add(r, b), r)
}

func arithResultType(op string, l, r types.Type) types.Type {
	switch op {
	case "+":
		if types.Equal(l, types.Str) && types.Equal(r, types.Str) {
			return types.Str
		}
		if _, ok := l.(*types.ListType); ok {
			return l
		}
	case "*":
		if types.Equal(l, types.Str) && types.Equal(r, types.Int) {
			return types.Str
		}
		if _, ok := l.(*types.ListType); ok && types.Equal(r, types.Int) {
			return l
		}
	case "/":
		if types.Equal(l, types.Float) || types.Equal(r, types.Float) {
			return types.Float
		}
	}
	return types.Any
}

func (c *Context) compileUnaryOp(e *ast.UnaryOp) (value, error) {
	v, err := c.compileExpr(e.Operand)
	if err != nil {
		return value{}, err
	}
	switch e.Op {
	case "not":
		return value{c.b.Xor(c.condition(v), ir.ConstBool(true)), types.Bool}, nil
	case "-":
		switch rep(v) {
		case ir.I64:
			return value{c.b.Sub(ir.ConstInt(ir.I64, 0), v.v), types.Int}, nil
		case ir.I1:
			return value{c.b.Sub(ir.ConstInt(ir.I64, 0), c.asI64(v)), types.Int}, nil
		case ir.F64:
			return value{c.b.FSub(ir.ConstFloat(0), v.v), types.Float}, nil
		default:
			return value{c.b.Call(c.extern("negate"), v.v), v.t}, nil
		}
	case "+":
		return v, nil
	case "~":
		if isIntRep(v) {
			return value{c.b.Xor(c.asI64(v), ir.ConstInt(ir.I64, -1)), types.Int}, nil
		}
		return value{c.b.Call(c.extern("bit_not"), c.box(v).v), types.Any}, nil
	default:
		return value{}, errz.Typef("unsupported unary operator %q", e.Op)
	}
}

// compileBoolOp lowers a short-circuiting and/or chain through a result
// cell: each operand stores its value and branches past the rest once
// the outcome is decided.
func (c *Context) compileBoolOp(e *ast.BoolOp) (value, error) {
	typed := true
	for _, v := range e.Values {
		if !staticBool(v) {
			typed = false
			break
		}
	}
	cellType := ir.Ptr
	resType := types.Type(types.Any)
	if typed {
		cellType = ir.I1
		resType = types.Bool
	}
	cell := c.b.AllocaInEntry(cellType, "bool")
	end := c.fn.irFn.NewBlock("bool.end")

	for i, operand := range e.Values {
		v, err := c.compileExpr(operand)
		if err != nil {
			return value{}, err
		}
		if typed {
			c.b.Store(c.condition(v), cell)
		} else {
			c.b.Store(c.box(v).v, cell)
		}
		if i == len(e.Values)-1 {
			break
		}
		cond := c.condition(v)
		next := c.fn.irFn.NewBlock("bool.next")
		if e.Op == "and" {
			c.b.CondBr(cond, next, end)
		} else {
			c.b.CondBr(cond, end, next)
		}
		c.b.SetInsertPoint(next)
	}
	c.seal(end)
	c.b.SetInsertPoint(end)
	return value{c.b.Load(cellType, cell), resType}, nil
}

// staticBool reports whether an expression is boolean by construction.
func staticBool(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.Bool, *ast.Compare:
		return true
	case *ast.UnaryOp:
		return x.Op == "not"
	case *ast.BoolOp:
		for _, v := range x.Values {
			if !staticBool(v) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

var cmpPreds = map[string]ir.Pred{
	"==": ir.PredEQ, "!=": ir.PredNE,
	"<": ir.PredLT, "<=": ir.PredLE,
	">": ir.PredGT, ">=": ir.PredGE,
}

var cmpExterns = map[string]string{
	"==": "equals", "!=": "not_equals",
	"<": "less_than", "<=": "less_equal",
	">": "greater_than", ">=": "greater_equal",
}

// compileCompare lowers a comparison chain. A chain a < b < c tests each
// adjacent pair, short-circuiting once a pair fails.
func (c *Context) compileCompare(e *ast.Compare) (value, error) {
	prev, err := c.compileExpr(e.Left)
	if err != nil {
		return value{}, err
	}
	if len(e.Ops) == 1 {
		cond, err := c.comparePair(prev, e.Ops[0], e.Comparators[0])
		if err != nil {
			return value{}, err
		}
		return value{cond, types.Bool}, nil
	}

	cell := c.b.AllocaInEntry(ir.I1, "cmp")
	end := c.fn.irFn.NewBlock("cmp.end")
	for i, op := range e.Ops {
		next, err := c.compileExpr(e.Comparators[i])
		if err != nil {
			return value{}, err
		}
		cond, err := c.comparePairValues(prev, op, next)
		if err != nil {
			return value{}, err
		}
		c.b.Store(cond, cell)
		if i < len(e.Ops)-1 {
			cont := c.fn.irFn.NewBlock("cmp.next")
			c.b.CondBr(cond, cont, end)
			c.b.SetInsertPoint(cont)
		}
		prev = next
	}
	c.seal(end)
	c.b.SetInsertPoint(end)
	return value{c.b.Load(ir.I1, cell), types.Bool}, nil
}

func (c *Context) comparePair(l value, op string, right ast.Expr) (ir.Value, error) {
	r, err := c.compileExpr(right)
	if err != nil {
		return nil, err
	}
	return c.comparePairValues(l, op, r)
}

func (c *Context) comparePairValues(l value, op string, r value) (ir.Value, error) {
	switch op {
	case "in":
		return c.b.Call(c.extern("contains"), c.box(r).v, c.box(l).v), nil
	case "not in":
		in := c.b.Call(c.extern("contains"), c.box(r).v, c.box(l).v)
		return c.b.Xor(in, ir.ConstBool(true)), nil
	case "is":
		return c.b.Call(c.extern("equals"), c.box(l).v, c.box(r).v), nil
	case "is not":
		return c.b.Call(c.extern("not_equals"), c.box(l).v, c.box(r).v), nil
	}
	if numericReps(l, r) {
		if rep(l) == ir.F64 || rep(r) == ir.F64 {
			return c.b.FCmp(cmpPreds[op], c.asF64(l), c.asF64(r)), nil
		}
		return c.b.ICmp(cmpPreds[op], c.asI64(l), c.asI64(r)), nil
	}
	sym, ok := cmpExterns[op]
	if !ok {
		return nil, errz.Typef("unsupported comparison operator %q", op)
	}
	return c.b.Call(c.extern(sym), c.box(l).v, c.box(r).v), nil
}

// compileIfExp lowers a conditional expression through a result cell. The
// cell's representation is decided after both arms are lowered: matching
// representations stay unboxed, mixed ones are boxed.
func (c *Context) compileIfExp(e *ast.IfExp) (value, error) {
	test, err := c.compileExpr(e.Test)
	if err != nil {
		return value{}, err
	}
	cond := c.condition(test)
	thenB := c.fn.irFn.NewBlock("ternary.then")
	elseB := c.fn.irFn.NewBlock("ternary.else")
	end := c.fn.irFn.NewBlock("ternary.end")
	c.b.CondBr(cond, thenB, elseB)

	c.b.SetInsertPoint(thenB)
	tv, err := c.compileExpr(e.Body)
	if err != nil {
		return value{}, err
	}
	thenEnd := c.b.InsertBlock()

	c.b.SetInsertPoint(elseB)
	ev, err := c.compileExpr(e.OrElse)
	if err != nil {
		return value{}, err
	}
	elseEnd := c.b.InsertBlock()

	cellType := rep(tv)
	resType, _ := types.Unify(tv.t, ev.t)
	if rep(tv) != rep(ev) {
		cellType = ir.Ptr
	}
	cell := c.b.AllocaInEntry(cellType, "ternary")

	c.b.SetInsertPoint(thenEnd)
	c.storeAs(tv, cellType, cell)
	c.b.Br(end)
	c.b.SetInsertPoint(elseEnd)
	c.storeAs(ev, cellType, cell)
	c.b.Br(end)

	c.b.SetInsertPoint(end)
	return value{c.b.Load(cellType, cell), resType}, nil
}

// storeAs stores v into cell, boxing or coercing to the cell's
// representation first.
func (c *Context) storeAs(v value, cellType *ir.Type, cell ir.Value) {
	if cellType == ir.Ptr {
		c.b.Store(c.box(v).v, cell)
		return
	}
	c.b.Store(c.coerce(v, cellType), cell)
}

func (c *Context) compileLambda(e *ast.Lambda) (value, error) {
	fi, err := c.lowerLambda(e, "")
	if err != nil {
		return value{}, err
	}
	if len(fi.captures) > 0 {
		return value{}, errz.Functionf(fi.name, "closures cannot be passed as values")
	}
	pt := make([]types.Type, len(fi.params))
	pn := make([]string, len(fi.params))
	for i, p := range fi.params {
		pt[i], pn[i] = p.t, p.name
	}
	return value{fi.irFn, types.NewFunction(pt, pn, fi.retType)}, nil
}

// lowerLambda declares and compiles a lambda as an anonymous function.
// When name is non-empty the lambda was bound to a variable and registers
// under that name so calls resolve statically.
func (c *Context) lowerLambda(e *ast.Lambda, name string) (*funcInfo, error) {
	local := name
	if local == "" {
		local = fmt.Sprintf("lambda_%d", c.anon)
		c.anon++
	}
	qualified := c.qualify(local)
	def := &ast.FunctionDef{
		Name:   local,
		Params: e.Params,
		Body:   []ast.Stmt{&ast.Return{Value: e.Body}},
	}
	fi := c.declareFunction(def, qualified)
	if err := c.lowerFunctionBody(fi); err != nil {
		return nil, err
	}
	return fi, nil
}

func (c *Context) compileCall(e *ast.Call) (value, error) {
	switch fn := e.Func.(type) {
	case *ast.Name:
		// Local bindings shadow builtins and declared functions.
		if _, shadowed := c.lookup(fn.ID); !shadowed {
			if ci, ok := c.classes[fn.ID]; ok {
				return c.instantiate(ci, e.Args, e.Keywords)
			}
			if fi, ok := c.resolveFunc(fn.ID); ok {
				return c.callFunction(fi, nil, e.Args, e.Keywords)
			}
			if typecheck.IsBuiltin(fn.ID) {
				return c.compileBuiltin(fn.ID, e)
			}
		}
		return value{}, errz.Typef("%q is not callable", fn.ID)
	case *ast.Attribute:
		return c.compileMethodCall(e, fn)
	case *ast.Lambda:
		fi, err := c.lowerLambda(fn, "")
		if err != nil {
			return value{}, err
		}
		return c.callFunction(fi, nil, e.Args, e.Keywords)
	default:
		return value{}, errz.Typef("expression is not callable")
	}
}

// callFunction emits a direct call. Captured cells are passed as leading
// pointer arguments resolved in the caller's scope; missing arguments are
// filled from parameter defaults evaluated at the call site.
func (c *Context) callFunction(fi *funcInfo, self *value, args []ast.Expr, kws []*ast.Keyword) (value, error) {
	irArgs := make([]ir.Value, 0, len(fi.captures)+len(fi.params))
	for _, cv := range fi.captures {
		slot, ok := c.lookup(cv.name)
		if !ok {
			return value{}, errz.Functionf(fi.name, "captured variable %q is not visible at this call site", cv.name)
		}
		irArgs = append(irArgs, slot.Ptr)
	}

	params := fi.params
	exprs := make([]ast.Expr, len(params))
	offset := 0
	if self != nil {
		offset = 1
	}
	if len(args)+offset > len(params) {
		return value{}, errz.Functionf(fi.name, "too many arguments: want at most %d, got %d", len(params)-offset, len(args))
	}
	for i, a := range args {
		exprs[offset+i] = a
	}
	for _, kw := range kws {
		idx := -1
		for i, p := range params {
			if p.name == kw.Arg {
				idx = i
				break
			}
		}
		if idx < 0 {
			return value{}, errz.Functionf(fi.name, "unexpected keyword argument %q", kw.Arg)
		}
		if exprs[idx] != nil {
			return value{}, errz.Functionf(fi.name, "argument %q given twice", kw.Arg)
		}
		exprs[idx] = kw.Value
	}

	for i, p := range params {
		if self != nil && i == 0 {
			irArgs = append(irArgs, c.coerce(*self, p.irt))
			continue
		}
		expr := exprs[i]
		if expr == nil {
			expr = fi.defaults[i]
		}
		if expr == nil {
			return value{}, errz.Functionf(fi.name, "missing argument %q", p.name)
		}
		v, err := c.compileExpr(expr)
		if err != nil {
			return value{}, err
		}
		irArgs = append(irArgs, c.coerce(v, p.irt))
	}

	call := c.b.Call(fi.irFn, irArgs...)
	return value{call, fi.retType}, nil
}

// instantiate lowers a class construction: a fresh dict seeded with the
// field defaults, then __init__ when the class defines one.
func (c *Context) instantiate(ci *classInfo, args []ast.Expr, kws []*ast.Keyword) (value, error) {
	obj := c.b.Call(c.extern("dict_new"))
	for i, name := range ci.fieldNames {
		v, err := c.compileExpr(ci.fieldValues[i])
		if err != nil {
			return value{}, err
		}
		key := c.b.Call(c.extern("from_string"), ir.ConstString(name))
		c.b.Call(c.extern("set_item"), obj, key, c.box(v).v)
	}
	self := value{obj, ci.typ}
	if init, ok := ci.methods["__init__"]; ok {
		if _, err := c.callFunction(init, &self, args, kws); err != nil {
			return value{}, err
		}
	} else if len(args) > 0 || len(kws) > 0 {
		return value{}, errz.Functionf(ci.name, "class %q takes no constructor arguments", ci.name)
	}
	return self, nil
}

func (c *Context) compileMethodCall(e *ast.Call, attr *ast.Attribute) (value, error) {
	obj, err := c.compileExpr(attr.Value)
	if err != nil {
		return value{}, err
	}

	if ct, ok := obj.t.(*types.ClassType); ok {
		if ci, found := c.classes[ct.Name]; found {
			if fi, has := ci.methods[attr.Attr]; has {
				return c.callFunction(fi, &obj, e.Args, e.Keywords)
			}
		}
		return value{}, errz.Typef("%s has no method %q", ct.Name, attr.Attr)
	}

	// Container methods dispatch through the runtime method table.
	if len(e.Keywords) > 0 {
		return value{}, errz.Typef("method %q takes no keyword arguments", attr.Attr)
	}
	var argv ir.Value = ir.ConstNull()
	if len(e.Args) > 0 {
		list := c.b.Call(c.extern("list_with_capacity"), ir.ConstInt(ir.I64, int64(len(e.Args))))
		for _, a := range e.Args {
			v, err := c.compileExpr(a)
			if err != nil {
				return value{}, err
			}
			c.b.Call(c.extern("list_append"), list, c.box(v).v)
		}
		argv = list
	}
	call := c.b.Call(c.extern("call_method"),
		c.box(obj).v, ir.ConstString(attr.Attr), argv, ir.ConstInt(ir.I64, int64(len(e.Args))))
	return value{call, methodResultType(obj.t, attr.Attr)}, nil
}

// methodResultType refines the static result of the runtime method table
// where the container type pins it down.
func methodResultType(t types.Type, method string) types.Type {
	switch ct := t.(type) {
	case *types.DictType:
		switch method {
		case "keys":
			return types.NewList(ct.Key)
		case "values":
			return types.NewList(ct.Value)
		case "items":
			return types.NewList(types.NewTuple(ct.Key, ct.Value))
		case "get":
			return ct.Value
		}
	case *types.ListType:
		switch method {
		case "append":
			return types.None
		case "len":
			return types.Int
		}
	case *types.StrType:
		if method == "strip" {
			return types.Str
		}
	}
	return types.Any
}

func (c *Context) compileAttribute(e *ast.Attribute) (value, error) {
	obj, err := c.compileExpr(e.Value)
	if err != nil {
		return value{}, err
	}
	t := types.Type(types.Any)
	if ct, ok := obj.t.(*types.ClassType); ok {
		if ft, has := ct.Field(e.Attr); has {
			t = ft
		}
	}
	key := c.b.Call(c.extern("from_string"), ir.ConstString(e.Attr))
	return value{c.b.Call(c.extern("get_item"), c.box(obj).v, key), t}, nil
}

func (c *Context) compileSubscript(e *ast.Subscript) (value, error) {
	if sl, ok := e.Index.(*ast.SliceExpr); ok {
		return c.compileSlice(e.Value, sl)
	}
	obj, err := c.compileExpr(e.Value)
	if err != nil {
		return value{}, err
	}
	key, err := c.compileExpr(e.Index)
	if err != nil {
		return value{}, err
	}
	t, terr := types.IndexedType(obj.t, key.t)
	if terr != nil {
		t = types.Any
	}
	v := c.b.Call(c.extern("get_item"), c.box(obj).v, c.box(key).v)
	return value{v, t}, nil
}

func (c *Context) compileSlice(container ast.Expr, sl *ast.SliceExpr) (value, error) {
	obj, err := c.compileExpr(container)
	if err != nil {
		return value{}, err
	}
	boxed := c.box(obj).v
	bound := func(e ast.Expr, def ir.Value) (ir.Value, error) {
		if e == nil {
			return def, nil
		}
		v, err := c.compileExpr(e)
		if err != nil {
			return nil, err
		}
		return c.asI64(v), nil
	}
	lo, err := bound(sl.Lower, ir.ConstInt(ir.I64, 0))
	if err != nil {
		return value{}, err
	}
	hi, err := bound(sl.Upper, nil)
	if err != nil {
		return value{}, err
	}
	if hi == nil {
		hi = c.b.Call(c.extern("len"), boxed)
	}
	step, err := bound(sl.Step, ir.ConstInt(ir.I64, 1))
	if err != nil {
		return value{}, err
	}
	v := c.b.Call(c.extern("slice"), boxed, lo, hi, step)
	return value{v, obj.t}, nil
}

func (c *Context) compileList(elts []ast.Expr) (value, error) {
	list := c.b.Call(c.extern("list_with_capacity"), ir.ConstInt(ir.I64, int64(len(elts))))
	elem := types.Type(types.Unknown)
	for _, e := range elts {
		v, err := c.compileExpr(e)
		if err != nil {
			return value{}, err
		}
		c.b.Call(c.extern("list_append"), list, c.box(v).v)
		elem = unifyElem(elem, v.t)
	}
	if _, ok := elem.(*types.UnknownType); ok {
		elem = types.Any
	}
	return value{list, types.NewList(elem)}, nil
}

func (c *Context) compileTuple(elts []ast.Expr) (value, error) {
	list := c.b.Call(c.extern("list_with_capacity"), ir.ConstInt(ir.I64, int64(len(elts))))
	elemTypes := make([]types.Type, len(elts))
	for i, e := range elts {
		v, err := c.compileExpr(e)
		if err != nil {
			return value{}, err
		}
		c.b.Call(c.extern("list_append"), list, c.box(v).v)
		elemTypes[i] = v.t
	}
	tup := c.b.Call(c.extern("tuple_from_list"), list)
	return value{tup, types.NewTuple(elemTypes...)}, nil
}

func (c *Context) compileSet(e *ast.Set) (value, error) {
	set := c.b.Call(c.extern("set_new"))
	elem := types.Type(types.Unknown)
	for _, el := range e.Elts {
		v, err := c.compileExpr(el)
		if err != nil {
			return value{}, err
		}
		c.b.Call(c.extern("set_add"), set, c.box(v).v)
		elem = unifyElem(elem, v.t)
	}
	if _, ok := elem.(*types.UnknownType); ok {
		elem = types.Any
	}
	return value{set, types.NewSet(elem)}, nil
}

func (c *Context) compileDict(e *ast.Dict) (value, error) {
	dict := c.b.Call(c.extern("dict_new"))
	kt := types.Type(types.Unknown)
	vt := types.Type(types.Unknown)
	for i, k := range e.Keys {
		kv, err := c.compileExpr(k)
		if err != nil {
			return value{}, err
		}
		vv, err := c.compileExpr(e.Values[i])
		if err != nil {
			return value{}, err
		}
		c.b.Call(c.extern("set_item"), dict, c.box(kv).v, c.box(vv).v)
		kt = unifyElem(kt, kv.t)
		vt = unifyElem(vt, vv.t)
	}
	if _, ok := kt.(*types.UnknownType); ok {
		kt = types.Any
	}
	if _, ok := vt.(*types.UnknownType); ok {
		vt = types.Any
	}
	return value{dict, types.NewDict(kt, vt)}, nil
}

func unifyElem(acc, next types.Type) types.Type {
	if _, ok := acc.(*types.UnknownType); ok {
		return next
	}
	u, ok := types.Unify(acc, next)
	if !ok {
		return types.Any
	}
	return u
}

// rawString lowers an expression to an unboxed string handle, for
// concatenation inside f-strings.
func (c *Context) rawString(e ast.Expr) (ir.Value, error) {
	if s, ok := e.(*ast.Str); ok {
		return ir.ConstString(s.Value), nil
	}
	v, err := c.compileExpr(e)
	if err != nil {
		return nil, err
	}
	return c.rawStringOf(v), nil
}

func (c *Context) rawStringOf(v value) ir.Value {
	switch rep(v) {
	case ir.I64:
		return c.b.Call(c.extern("int_to_string"), v.v)
	case ir.F64:
		return c.b.Call(c.extern("float_to_string"), v.v)
	case ir.I1:
		return c.b.Call(c.extern("bool_to_string"), v.v)
	default:
		return c.b.Call(c.extern("to_string"), v.v)
	}
}

func (c *Context) compileJoinedStr(e *ast.JoinedStr) (value, error) {
	var acc ir.Value
	for _, part := range e.Values {
		var raw ir.Value
		var err error
		switch p := part.(type) {
		case *ast.Str:
			if p.Value == "" {
				continue
			}
			raw = ir.ConstString(p.Value)
		case *ast.FormattedValue:
			raw, err = c.rawString(p.Value)
		default:
			raw, err = c.rawString(part)
		}
		if err != nil {
			return value{}, err
		}
		if acc == nil {
			acc = raw
		} else {
			acc = c.b.Call(c.extern("string_concat"), acc, raw)
		}
	}
	if acc == nil {
		acc = ir.ConstString("")
	}
	return value{c.b.Call(c.extern("from_string"), acc), types.Str}, nil
}

func (c *Context) compileListComp(elt ast.Expr, gens []*ast.Comprehension, asSet bool) (value, error) {
	var acc ir.Value
	var elem types.Type = types.Any
	if asSet {
		acc = c.b.Call(c.extern("set_new"))
	} else {
		acc = c.b.Call(c.extern("list_new"))
	}
	c.pushScope(ScopeBlock)
	err := c.compGenerators(gens, 0, func() error {
		v, err := c.compileExpr(elt)
		if err != nil {
			return err
		}
		elem = v.t
		if asSet {
			c.b.Call(c.extern("set_add"), acc, c.box(v).v)
		} else {
			c.b.Call(c.extern("list_append"), acc, c.box(v).v)
		}
		return nil
	})
	c.popScope()
	if err != nil {
		return value{}, err
	}
	if asSet {
		return value{acc, types.NewSet(elem)}, nil
	}
	return value{acc, types.NewList(elem)}, nil
}

func (c *Context) compileDictComp(e *ast.DictComp) (value, error) {
	dict := c.b.Call(c.extern("dict_new"))
	kt := types.Type(types.Any)
	vt := types.Type(types.Any)
	c.pushScope(ScopeBlock)
	err := c.compGenerators(e.Generators, 0, func() error {
		kv, err := c.compileExpr(e.Key)
		if err != nil {
			return err
		}
		vv, err := c.compileExpr(e.Value)
		if err != nil {
			return err
		}
		kt, vt = kv.t, vv.t
		c.b.Call(c.extern("set_item"), dict, c.box(kv).v, c.box(vv).v)
		return nil
	})
	c.popScope()
	if err != nil {
		return value{}, err
	}
	return value{dict, types.NewDict(kt, vt)}, nil
}

// compGenerators nests one loop per generator clause, applying the
// clause's conditions before descending.
func (c *Context) compGenerators(gens []*ast.Comprehension, i int, emit func() error) error {
	if i == len(gens) {
		return emit()
	}
	g := gens[i]
	return c.iterLoop(g.Iter, func(v value) error {
		return c.bindTarget(g.Target, v)
	}, func() error {
		return c.compConditions(g.Ifs, 0, func() error {
			return c.compGenerators(gens, i+1, emit)
		})
	})
}

func (c *Context) compConditions(ifs []ast.Expr, i int, emit func() error) error {
	if i == len(ifs) {
		return emit()
	}
	v, err := c.compileExpr(ifs[i])
	if err != nil {
		return err
	}
	then := c.fn.irFn.NewBlock("comp.then")
	cont := c.fn.irFn.NewBlock("comp.cont")
	c.b.CondBr(c.condition(v), then, cont)
	c.b.SetInsertPoint(then)
	if err := c.compConditions(ifs, i+1, emit); err != nil {
		return err
	}
	c.seal(cont)
	c.b.SetInsertPoint(cont)
	return nil
}

// isRangeCall reports whether a call is the range builtin, not shadowed
// by a local binding or user function.
func (c *Context) isRangeCall(call *ast.Call) bool {
	name, ok := call.Func.(*ast.Name)
	if !ok || name.ID != "range" {
		return false
	}
	if _, shadowed := c.lookup("range"); shadowed {
		return false
	}
	if _, shadowed := c.resolveFunc("range"); shadowed {
		return false
	}
	return len(call.Args) >= 1 && len(call.Args) <= 3 && len(call.Keywords) == 0
}

// rangeArgs lowers a range call's arguments to i64 start, stop, and step.
func (c *Context) rangeArgs(call *ast.Call) (start, stop, step ir.Value, err error) {
	vals := make([]ir.Value, len(call.Args))
	for i, a := range call.Args {
		v, cerr := c.compileExpr(a)
		if cerr != nil {
			return nil, nil, nil, cerr
		}
		vals[i] = c.asI64(v)
	}
	switch len(vals) {
	case 1:
		return ir.ConstInt(ir.I64, 0), vals[0], ir.ConstInt(ir.I64, 1), nil
	case 2:
		return vals[0], vals[1], ir.ConstInt(ir.I64, 1), nil
	default:
		return vals[0], vals[1], vals[2], nil
	}
}

// emitCountedLoop emits the canonical counted loop: a counter cell, a
// condition block selecting < or > by the step's sign, a body, and an
// increment block.
func (c *Context) emitCountedLoop(start, stop, step ir.Value, body func(i ir.Value) error) error {
	cell := c.b.AllocaInEntry(ir.I64, "idx")
	c.b.Store(start, cell)
	condB := c.fn.irFn.NewBlock("loop.cond")
	bodyB := c.fn.irFn.NewBlock("loop.body")
	incB := c.fn.irFn.NewBlock("loop.inc")
	endB := c.fn.irFn.NewBlock("loop.end")
	c.b.Br(condB)

	c.b.SetInsertPoint(condB)
	i := c.b.Load(ir.I64, cell)
	up := c.b.ICmp(ir.PredLT, i, stop)
	down := c.b.ICmp(ir.PredGT, i, stop)
	pos := c.b.ICmp(ir.PredGT, step, ir.ConstInt(ir.I64, 0))
	c.b.CondBr(c.b.Select(pos, up, down), bodyB, endB)

	c.b.SetInsertPoint(bodyB)
	iv := c.b.Load(ir.I64, cell)
	if err := body(iv); err != nil {
		return err
	}
	c.seal(incB)

	c.b.SetInsertPoint(incB)
	next := c.b.Add(c.b.Load(ir.I64, cell), step)
	c.b.Store(next, cell)
	c.b.Br(condB)

	c.b.SetInsertPoint(endB)
	return nil
}

// iterLoop drives iteration over an iterable expression: range calls
// become counted loops, range values walk range_at, everything else is
// treated as an indexable list.
func (c *Context) iterLoop(iter ast.Expr, bind func(value) error, body func() error) error {
	if call, ok := iter.(*ast.Call); ok && c.isRangeCall(call) {
		start, stop, step, err := c.rangeArgs(call)
		if err != nil {
			return err
		}
		return c.emitCountedLoop(start, stop, step, func(i ir.Value) error {
			if err := bind(value{i, types.Int}); err != nil {
				return err
			}
			return body()
		})
	}

	v, err := c.compileExpr(iter)
	if err != nil {
		return err
	}
	return c.iterValueLoop(v, bind, body)
}

// iterValueLoop iterates an already-lowered value.
func (c *Context) iterValueLoop(v value, bind func(value) error, body func() error) error {
	if _, ok := v.t.(*types.RangeIterType); ok {
		r := v.v
		n := c.b.Call(c.extern("range_len"), r)
		return c.emitCountedLoop(ir.ConstInt(ir.I64, 0), n, ir.ConstInt(ir.I64, 1), func(i ir.Value) error {
			elem := c.b.Call(c.extern("range_at"), r, i)
			if err := bind(value{elem, types.Int}); err != nil {
				return err
			}
			return body()
		})
	}

	elemT := types.Type(types.Any)
	boxed := c.box(v).v
	fastList := false
	switch t := v.t.(type) {
	case *types.ListType:
		elemT = t.Elem
		fastList = true
	case *types.StrType:
		elemT = types.Str
	case *types.DictType:
		// Iterating a dict walks its keys in insertion order.
		boxed = c.b.Call(c.extern("call_method"),
			boxed, ir.ConstString("keys"), ir.ConstNull(), ir.ConstInt(ir.I64, 0))
		elemT = t.Key
		fastList = true
	case *types.SetType:
		return errz.Typef("sets are not iterable in compiled code")
	}
	if fastList {
		n := c.b.Call(c.extern("list_len"), boxed)
		return c.emitCountedLoop(ir.ConstInt(ir.I64, 0), n, ir.ConstInt(ir.I64, 1), func(i ir.Value) error {
			elem := c.b.Call(c.extern("list_get"), boxed, i)
			if err := bind(value{elem, elemT}); err != nil {
				return err
			}
			return body()
		})
	}
	n := c.b.Call(c.extern("len"), boxed)
	return c.emitCountedLoop(ir.ConstInt(ir.I64, 0), n, ir.ConstInt(ir.I64, 1), func(i ir.Value) error {
		key := c.b.Call(c.extern("from_int"), i)
		elem := c.b.Call(c.extern("get_item"), boxed, key)
		if err := bind(value{elem, elemT}); err != nil {
			return err
		}
		return body()
	})
}
