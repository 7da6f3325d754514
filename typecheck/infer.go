package typecheck

import (
	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/types"
)

// Builtins whose call sites have fixed result types.
var builtinReturns = map[string]types.Type{
	"len":   types.Int,
	"str":   types.Str,
	"int":   types.Int,
	"float": types.Float,
	"bool":  types.Bool,
	"list":  types.NewList(types.Any),
	"dict":  types.NewDict(types.Any, types.Any),
	"set":   types.NewSet(types.Any),
	"tuple": types.NewTuple(),
	"print": types.None,
	"range": types.RangeIter,
	"min":   types.Any,
	"max":   types.Any,
}

// IsBuiltin reports whether name refers to a built-in function.
func IsBuiltin(name string) bool {
	_, ok := builtinReturns[name]
	return ok
}

// Infer computes the type of an expression in the given environment. It is
// total: every failure mode surfaces as a types.Error, never a panic.
// Inference may refine stored function parameter types at call sites, which
// is its only environment mutation.
func Infer(env *Env, expr ast.Expr) (types.Type, error) {
	switch e := expr.(type) {
	case *ast.Int:
		return types.Int, nil
	case *ast.Float:
		return types.Float, nil
	case *ast.Str:
		return types.Str, nil
	case *ast.Bytes:
		return types.Bytes, nil
	case *ast.Bool:
		return types.Bool, nil
	case *ast.NoneLiteral:
		return types.None, nil
	case *ast.Name:
		if t, ok := env.Lookup(e.ID); ok {
			return t, nil
		}
		if IsBuiltin(e.ID) {
			return types.Any, nil
		}
		return nil, &types.UndefinedVariableError{Name: e.ID}
	case *ast.List:
		return inferList(env, e)
	case *ast.Tuple:
		return inferTuple(env, e)
	case *ast.Set:
		return inferSet(env, e)
	case *ast.Dict:
		return inferDict(env, e)
	case *ast.BinOp:
		return inferBinOp(env, e)
	case *ast.UnaryOp:
		return inferUnaryOp(env, e)
	case *ast.BoolOp:
		return inferBoolOp(env, e)
	case *ast.Compare:
		return inferCompare(env, e)
	case *ast.Call:
		return inferCall(env, e)
	case *ast.Attribute:
		return inferAttribute(env, e)
	case *ast.Subscript:
		return inferSubscript(env, e)
	case *ast.Lambda:
		return inferLambda(env, e)
	case *ast.IfExp:
		return inferIfExp(env, e)
	case *ast.NamedExpr:
		t, err := Infer(env, e.Value)
		if err != nil {
			return nil, err
		}
		env.SetVariableType(e.Target.ID, t)
		return t, nil
	case *ast.Starred:
		return Infer(env, e.Value)
	case *ast.JoinedStr, *ast.FormattedValue:
		return types.Str, nil
	case *ast.ListComp:
		return inferListComp(env, e)
	case *ast.SetComp:
		return inferSetComp(env, e)
	case *ast.DictComp:
		return inferDictComp(env, e)
	case *ast.GeneratorExp:
		return inferGeneratorExp(env, e)
	case *ast.Await:
		return Infer(env, e.Value)
	case *ast.Yield:
		return types.Any, nil
	case *ast.YieldFrom:
		return types.Any, nil
	case *ast.SliceExpr:
		return types.Any, nil
	}
	return nil, &types.CannotInferTypeError{Expr: expr.String()}
}

func inferList(env *Env, e *ast.List) (types.Type, error) {
	if len(e.Elts) == 0 {
		return types.NewList(types.Any), nil
	}
	elemTypes := make([]types.Type, 0, len(e.Elts))
	for _, elt := range e.Elts {
		t, err := Infer(env, elt)
		if err != nil {
			return nil, err
		}
		elemTypes = append(elemTypes, t)
	}
	return types.NewList(types.FindCommonType(elemTypes)), nil
}

func inferTuple(env *Env, e *ast.Tuple) (types.Type, error) {
	elems := make([]types.Type, 0, len(e.Elts))
	for _, elt := range e.Elts {
		t, err := Infer(env, elt)
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
	}
	return &types.TupleType{Elems: elems}, nil
}

func inferSet(env *Env, e *ast.Set) (types.Type, error) {
	if len(e.Elts) == 0 {
		return types.NewSet(types.Any), nil
	}
	elemTypes := make([]types.Type, 0, len(e.Elts))
	for _, elt := range e.Elts {
		t, err := Infer(env, elt)
		if err != nil {
			return nil, err
		}
		elemTypes = append(elemTypes, t)
	}
	return types.NewSet(types.FindCommonType(elemTypes)), nil
}

func inferDict(env *Env, e *ast.Dict) (types.Type, error) {
	if len(e.Keys) == 0 {
		return types.NewDict(types.Any, types.Any), nil
	}
	keyTypes := make([]types.Type, 0, len(e.Keys))
	valTypes := make([]types.Type, 0, len(e.Values))
	for i := range e.Keys {
		kt, err := Infer(env, e.Keys[i])
		if err != nil {
			return nil, err
		}
		vt, err := Infer(env, e.Values[i])
		if err != nil {
			return nil, err
		}
		keyTypes = append(keyTypes, kt)
		valTypes = append(valTypes, vt)
	}
	return types.NewDict(types.FindCommonType(keyTypes), types.FindCommonType(valTypes)), nil
}

func inferBinOp(env *Env, e *ast.BinOp) (types.Type, error) {
	left, err := Infer(env, e.Left)
	if err != nil {
		return nil, err
	}
	right, err := Infer(env, e.Right)
	if err != nil {
		return nil, err
	}
	if isAnyType(left) || isAnyType(right) {
		return types.Any, nil
	}
	switch e.Op {
	case "+":
		if types.IsNumeric(left) && types.IsNumeric(right) {
			return promoteNumeric(left, right), nil
		}
		if types.Equal(left, types.Str) && types.Equal(right, types.Str) {
			return types.Str, nil
		}
		if lt, ok := left.(*types.ListType); ok {
			if rt, ok := right.(*types.ListType); ok {
				if elem, ok := types.Unify(lt.Elem, rt.Elem); ok {
					return types.NewList(elem), nil
				}
				return types.NewList(types.Any), nil
			}
		}
		if lt, ok := left.(*types.TupleType); ok {
			if rt, ok := right.(*types.TupleType); ok {
				elems := make([]types.Type, 0, len(lt.Elems)+len(rt.Elems))
				elems = append(elems, lt.Elems...)
				elems = append(elems, rt.Elems...)
				return &types.TupleType{Elems: elems}, nil
			}
		}
	case "-", "/", "//", "%", "**":
		if types.IsNumeric(left) && types.IsNumeric(right) {
			if e.Op == "/" {
				return types.Float, nil
			}
			return promoteNumeric(left, right), nil
		}
	case "*":
		if types.IsNumeric(left) && types.IsNumeric(right) {
			return promoteNumeric(left, right), nil
		}
		if isRepeatable(left) && types.Equal(right, types.Int) {
			return left, nil
		}
		if isRepeatable(right) && types.Equal(left, types.Int) {
			return right, nil
		}
	case "&", "|", "^", "<<", ">>":
		if types.Equal(left, types.Int) && types.Equal(right, types.Int) {
			return types.Int, nil
		}
	case "@":
		// Matrix multiply is accepted syntactically but has no defined
		// semantics for any operand types.
		return nil, &types.InvalidOperatorError{Op: e.Op, Left: left, Right: right}
	}
	return nil, &types.InvalidOperatorError{Op: e.Op, Left: left, Right: right}
}

func inferUnaryOp(env *Env, e *ast.UnaryOp) (types.Type, error) {
	operand, err := Infer(env, e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "not":
		return types.Bool, nil
	case "+", "-":
		if isAnyType(operand) {
			return types.Any, nil
		}
		if types.IsNumeric(operand) {
			if types.Equal(operand, types.Bool) {
				return types.Int, nil
			}
			return operand, nil
		}
	case "~":
		if isAnyType(operand) {
			return types.Any, nil
		}
		if types.Equal(operand, types.Int) || types.Equal(operand, types.Bool) {
			return types.Int, nil
		}
	}
	return nil, &types.InvalidOperatorError{Op: e.Op, Left: operand}
}

func inferBoolOp(env *Env, e *ast.BoolOp) (types.Type, error) {
	for _, value := range e.Values {
		t, err := Infer(env, value)
		if err != nil {
			return nil, err
		}
		if !types.CanCoerceTo(t, types.Bool) && !isAnyType(t) && !types.IsReference(t) {
			return nil, &types.IncompatibleTypesError{Expected: types.Bool, Got: t, Op: e.Op}
		}
	}
	return types.Bool, nil
}

func inferCompare(env *Env, e *ast.Compare) (types.Type, error) {
	left, err := Infer(env, e.Left)
	if err != nil {
		return nil, err
	}
	for i, op := range e.Ops {
		right, err := Infer(env, e.Comparators[i])
		if err != nil {
			return nil, err
		}
		switch op {
		case "==", "!=", "is", "is not":
			// Anything compares for identity and equality.
		case "<", "<=", ">", ">=":
			numeric := types.IsNumeric(left) && types.IsNumeric(right)
			strings := types.Equal(left, types.Str) && types.Equal(right, types.Str)
			if !numeric && !strings && !isAnyType(left) && !isAnyType(right) {
				return nil, &types.InvalidOperatorError{Op: op, Left: left, Right: right}
			}
		case "in", "not in":
			if !types.IsIndexable(right) {
				if _, isSet := right.(*types.SetType); !isSet {
					return nil, &types.InvalidOperatorError{Op: op, Left: left, Right: right}
				}
			}
		}
		left = right
	}
	return types.Bool, nil
}

func inferCall(env *Env, e *ast.Call) (types.Type, error) {
	// Method calls on containers are resolved against their synthetic
	// method tables rather than through general attribute inference.
	if attr, ok := e.Func.(*ast.Attribute); ok {
		return inferMethodCall(env, e, attr)
	}

	argTypes := make([]types.Type, 0, len(e.Args))
	for _, arg := range e.Args {
		t, err := Infer(env, arg)
		if err != nil {
			return nil, err
		}
		argTypes = append(argTypes, t)
	}

	if name, ok := e.Func.(*ast.Name); ok {
		if _, isVar := env.LookupVariable(name.ID); !isVar {
			if fn, isFn := env.LookupFunction(name.ID); isFn {
				return inferUserCall(env, name.ID, fn, argTypes)
			}
			if cls, isCls := env.LookupClass(name.ID); isCls {
				return types.CallReturnType(cls, argTypes)
			}
			if ret, isBuiltin := builtinReturns[name.ID]; isBuiltin {
				return inferBuiltinCall(name.ID, ret, argTypes)
			}
			return nil, &types.UndefinedVariableError{Name: name.ID}
		}
	}

	callee, err := Infer(env, e.Func)
	if err != nil {
		return nil, err
	}
	if isAnyType(callee) {
		return types.Any, nil
	}
	if !types.IsCallable(callee) {
		return nil, &types.NotCallableError{Type: callee}
	}
	return types.CallReturnType(callee, argTypes)
}

// inferUserCall checks arity, then refines the declared parameter types by
// unifying each with the corresponding actual argument type. The refined
// signature is written back into the environment so later call sites and
// the function body see the narrowed types.
func inferUserCall(env *Env, name string, fnType types.Type, args []types.Type) (types.Type, error) {
	fn, ok := fnType.(*types.FunctionType)
	if !ok {
		return types.CallReturnType(fnType, args)
	}
	minArgs := len(fn.ParamTypes) - fn.DefaultCount()
	if len(args) < minArgs || (!fn.HasVarArgs && len(args) > len(fn.ParamTypes)) {
		return nil, &types.WrongArgumentCountError{
			Func:     name,
			Expected: len(fn.ParamTypes),
			Got:      len(args),
		}
	}
	refined := false
	params := make([]types.Type, len(fn.ParamTypes))
	copy(params, fn.ParamTypes)
	for i, arg := range args {
		if i >= len(params) {
			break
		}
		if !types.CanCoerceTo(arg, params[i]) {
			return nil, &types.InvalidArgumentError{
				Func:     name,
				Index:    i,
				Expected: params[i],
				Got:      arg,
			}
		}
		if u, ok := types.Unify(params[i], arg); ok && !types.Equal(u, params[i]) {
			params[i] = u
			refined = true
		}
	}
	if refined {
		updated := &types.FunctionType{
			ParamTypes: params,
			ParamNames: fn.ParamNames,
			HasVarArgs: fn.HasVarArgs,
			HasKwArgs:  fn.HasKwArgs,
			Defaults:   fn.Defaults,
			Return:     fn.Return,
		}
		env.UpdateFunction(name, updated)
	}
	return fn.Return, nil
}

func inferBuiltinCall(name string, ret types.Type, args []types.Type) (types.Type, error) {
	switch name {
	case "len":
		if len(args) != 1 {
			return nil, &types.WrongArgumentCountError{Func: name, Expected: 1, Got: len(args)}
		}
	case "range":
		if len(args) < 1 || len(args) > 3 {
			return nil, &types.WrongArgumentCountError{Func: name, Expected: 1, Got: len(args)}
		}
		for i, arg := range args {
			if !types.CanCoerceTo(arg, types.Int) {
				return nil, &types.InvalidArgumentError{
					Func: name, Index: i, Expected: types.Int, Got: arg,
				}
			}
		}
	case "list":
		if len(args) == 1 {
			switch at := args[0].(type) {
			case *types.ListType:
				return at, nil
			case *types.SetType:
				return types.NewList(at.Elem), nil
			case *types.RangeIterType:
				return types.NewList(types.Int), nil
			case *types.StrType:
				return types.NewList(types.Str), nil
			}
		}
	case "set":
		if len(args) == 1 {
			if at, ok := args[0].(*types.ListType); ok {
				return types.NewSet(at.Elem), nil
			}
		}
	}
	return ret, nil
}

func inferMethodCall(env *Env, call *ast.Call, attr *ast.Attribute) (types.Type, error) {
	base, err := Infer(env, attr.Value)
	if err != nil {
		return nil, err
	}
	argTypes := make([]types.Type, 0, len(call.Args))
	for _, arg := range call.Args {
		t, err := Infer(env, arg)
		if err != nil {
			return nil, err
		}
		argTypes = append(argTypes, t)
	}
	switch bt := base.(type) {
	case *types.DictType:
		switch attr.Attr {
		case "keys":
			return types.NewList(bt.Key), nil
		case "values":
			return types.NewList(bt.Value), nil
		case "items":
			return types.NewList(types.NewTuple(bt.Key, bt.Value)), nil
		case "get":
			return bt.Value, nil
		}
		return nil, &types.UndefinedMemberError{Class: "dict", Member: attr.Attr}
	case *types.ListType:
		switch attr.Attr {
		case "append":
			return types.None, nil
		case "len":
			return types.Int, nil
		}
		return nil, &types.UndefinedMemberError{Class: "list", Member: attr.Attr}
	case *types.StrType:
		if attr.Attr == "strip" {
			return types.Str, nil
		}
		return nil, &types.UndefinedMemberError{Class: "str", Member: attr.Attr}
	case *types.ClassType:
		method, err := bt.Member(attr.Attr)
		if err != nil {
			return nil, err
		}
		return types.CallReturnType(method, argTypes)
	case *types.AnyType:
		return types.Any, nil
	}
	return nil, &types.NotAClassError{Type: base, Member: attr.Attr}
}

func inferAttribute(env *Env, e *ast.Attribute) (types.Type, error) {
	base, err := Infer(env, e.Value)
	if err != nil {
		return nil, err
	}
	switch bt := base.(type) {
	case *types.ClassType:
		return bt.Member(e.Attr)
	case *types.DictType:
		// Dicts expose synthetic iteration methods with precise generics.
		switch e.Attr {
		case "keys":
			return types.NewFunction(nil, nil, types.NewList(bt.Key)), nil
		case "values":
			return types.NewFunction(nil, nil, types.NewList(bt.Value)), nil
		case "items":
			return types.NewFunction(nil, nil, types.NewList(types.NewTuple(bt.Key, bt.Value))), nil
		}
		return nil, &types.UndefinedMemberError{Class: "dict", Member: e.Attr}
	case *types.AnyType:
		return types.Any, nil
	}
	return nil, &types.NotAClassError{Type: base, Member: e.Attr}
}

func inferSubscript(env *Env, e *ast.Subscript) (types.Type, error) {
	base, err := Infer(env, e.Value)
	if err != nil {
		return nil, err
	}
	if _, isSlice := e.Index.(*ast.SliceExpr); isSlice {
		// Slicing returns the container type unchanged.
		return base, nil
	}
	idx, err := Infer(env, e.Index)
	if err != nil {
		return nil, err
	}
	if isAnyType(base) {
		return types.Any, nil
	}
	return types.IndexedType(base, idx)
}

func inferLambda(env *Env, e *ast.Lambda) (types.Type, error) {
	params := make([]types.Type, len(e.Params))
	names := make([]string, len(e.Params))
	for i, p := range e.Params {
		params[i] = types.Any
		names[i] = p.Name
	}
	return types.NewFunction(params, names, types.Any), nil
}

func inferIfExp(env *Env, e *ast.IfExp) (types.Type, error) {
	cond, err := Infer(env, e.Test)
	if err != nil {
		return nil, err
	}
	if !types.CanCoerceTo(cond, types.Bool) && !isAnyType(cond) && !types.IsReference(cond) {
		return nil, &types.IncompatibleTypesError{Expected: types.Bool, Got: cond, Op: "if expression"}
	}
	thenType, err := Infer(env, e.Body)
	if err != nil {
		return nil, err
	}
	elseType, err := Infer(env, e.OrElse)
	if err != nil {
		return nil, err
	}
	if u, ok := types.Unify(thenType, elseType); ok {
		return u, nil
	}
	return types.Any, nil
}

// ElementType returns the type bound to a loop variable iterating over
// iterable. Homogeneous tuples degrade to their element type.
func ElementType(iterable types.Type) types.Type {
	switch it := iterable.(type) {
	case *types.ListType:
		if tup, ok := it.Elem.(*types.TupleType); ok {
			return tup.CommonElem()
		}
		return it.Elem
	case *types.SetType:
		return it.Elem
	case *types.TupleType:
		return it.CommonElem()
	case *types.StrType:
		return types.Str
	case *types.BytesType:
		return types.Int
	case *types.RangeIterType:
		return types.Int
	case *types.DictType:
		return it.Key
	}
	return types.Any
}

func bindComprehension(env *Env, gens []*ast.Comprehension) error {
	for _, gen := range gens {
		iterType, err := Infer(env, gen.Iter)
		if err != nil {
			return err
		}
		elem := ElementType(iterType)
		switch target := gen.Target.(type) {
		case *ast.Name:
			env.DefineVariable(target.ID, elem)
		case *ast.Tuple:
			for _, t := range target.Elts {
				if name, ok := t.(*ast.Name); ok {
					env.DefineVariable(name.ID, types.Any)
				}
			}
			if tup, ok := elem.(*types.TupleType); ok && len(tup.Elems) == len(target.Elts) {
				for i, t := range target.Elts {
					if name, ok := t.(*ast.Name); ok {
						env.DefineVariable(name.ID, tup.Elems[i])
					}
				}
			}
		}
		for _, cond := range gen.Ifs {
			if _, err := Infer(env, cond); err != nil {
				return err
			}
		}
	}
	return nil
}

func inferListComp(env *Env, e *ast.ListComp) (types.Type, error) {
	env.PushScope()
	defer env.PopScope()
	if err := bindComprehension(env, e.Generators); err != nil {
		return nil, err
	}
	elt, err := Infer(env, e.Elt)
	if err != nil {
		return nil, err
	}
	return types.NewList(elt), nil
}

func inferSetComp(env *Env, e *ast.SetComp) (types.Type, error) {
	env.PushScope()
	defer env.PopScope()
	if err := bindComprehension(env, e.Generators); err != nil {
		return nil, err
	}
	elt, err := Infer(env, e.Elt)
	if err != nil {
		return nil, err
	}
	return types.NewSet(elt), nil
}

func inferDictComp(env *Env, e *ast.DictComp) (types.Type, error) {
	env.PushScope()
	defer env.PopScope()
	if err := bindComprehension(env, e.Generators); err != nil {
		return nil, err
	}
	key, err := Infer(env, e.Key)
	if err != nil {
		return nil, err
	}
	value, err := Infer(env, e.Value)
	if err != nil {
		return nil, err
	}
	return types.NewDict(key, value), nil
}

func inferGeneratorExp(env *Env, e *ast.GeneratorExp) (types.Type, error) {
	env.PushScope()
	defer env.PopScope()
	if err := bindComprehension(env, e.Generators); err != nil {
		return nil, err
	}
	if _, err := Infer(env, e.Elt); err != nil {
		return nil, err
	}
	return types.Any, nil
}

func isAnyType(t types.Type) bool {
	_, ok := t.(*types.AnyType)
	return ok
}

func isRepeatable(t types.Type) bool {
	switch t.(type) {
	case *types.StrType, *types.ListType:
		return true
	}
	return false
}

func promoteNumeric(a, b types.Type) types.Type {
	if types.Equal(a, types.Float) || types.Equal(b, types.Float) {
		return types.Float
	}
	return types.Int
}
