package typecheck

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/errors"
	"github.com/cheetah-lang/cheetah/token"
	"github.com/cheetah-lang/cheetah/types"
)

// Diagnostic wraps a type error with the source position of the statement
// or expression that produced it.
type Diagnostic struct {
	Pos token.Position
	Err error
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", d.Pos.LineNumber(), d.Pos.ColumnNumber(), d.Err)
}

func (d *Diagnostic) Unwrap() error { return d.Err }

// Checker walks a module, inferring and validating types. Errors are
// accumulated rather than stopping at the first failure so a single pass
// reports everything wrong with a file.
type Checker struct {
	env  *Env
	errs *multierror.Error
}

// NewChecker returns a checker with a fresh module-level environment.
func NewChecker() *Checker {
	return &Checker{env: NewEnv()}
}

// Env exposes the environment after a check, with all inferred bindings.
func (c *Checker) Env() *Env { return c.env }

// Check type-checks the module. Function and class declarations are
// registered in a hoisting pass before any bodies are checked, so
// mutually recursive definitions resolve.
func (c *Checker) Check(module *ast.Module) error {
	for _, stmt := range module.Stmts {
		c.hoist(stmt)
	}
	for _, stmt := range module.Stmts {
		c.checkStmt(stmt)
	}
	return c.errs.ErrorOrNil()
}

// Check is a convenience wrapper that runs a fresh checker over the module.
func Check(module *ast.Module) (*Env, error) {
	c := NewChecker()
	err := c.Check(module)
	return c.env, err
}

func (c *Checker) report(pos token.Position, err error) {
	if err == nil {
		return
	}
	if undef, ok := err.(*types.UndefinedVariableError); ok && undef.Hint == "" {
		sugs := errors.SuggestSimilar(undef.Name, c.env.VisibleNames())
		undef.Hint = errors.FormatSuggestions(sugs)
	}
	c.errs = multierror.Append(c.errs, &Diagnostic{Pos: pos, Err: err})
}

// infer runs expression inference and reports any failure, returning Any
// so checking can continue past the error.
func (c *Checker) infer(expr ast.Expr) types.Type {
	t, err := Infer(c.env, expr)
	if err != nil {
		c.report(expr.Pos(), err)
		return types.Any
	}
	return t
}

func (c *Checker) hoist(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.FunctionDef:
		c.env.DefineFunction(s.Name, c.signatureOf(s))
	case *ast.ClassDef:
		c.env.DefineClass(s.Name, c.classOf(s))
	}
}

// signatureOf builds a function type from a def's annotations. Missing
// annotations default to Any so unannotated code stays checkable.
func (c *Checker) signatureOf(s *ast.FunctionDef) *types.FunctionType {
	params := make([]types.Type, len(s.Params))
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = types.Any
		if p.Annotation != nil {
			params[i] = c.typeFromAnnotation(p.Annotation)
		}
		names[i] = p.Name
	}
	ret := types.Type(types.Any)
	if s.Returns != nil {
		ret = c.typeFromAnnotation(s.Returns)
	}
	fn := types.NewFunction(params, names, ret)
	fn.HasVarArgs = s.VarArg != ""
	fn.HasKwArgs = s.KwArg != ""
	for i, p := range s.Params {
		if p.Default != nil {
			fn.SetDefault(i)
		}
	}
	return fn
}

func (c *Checker) classOf(s *ast.ClassDef) *types.ClassType {
	bases := make([]string, 0, len(s.Bases))
	for _, b := range s.Bases {
		if name, ok := b.(*ast.Name); ok {
			bases = append(bases, name.ID)
		}
	}
	cls := types.NewClass(s.Name, bases...)
	for _, stmt := range s.Body {
		switch member := stmt.(type) {
		case *ast.FunctionDef:
			cls.AddMethod(member.Name, c.signatureOf(member))
		case *ast.AnnAssign:
			if name, ok := member.Target.(*ast.Name); ok {
				cls.AddField(name.ID, c.typeFromAnnotation(member.Annotation))
			}
		case *ast.Assign:
			for _, target := range member.Targets {
				if name, ok := target.(*ast.Name); ok {
					cls.AddField(name.ID, c.infer(member.Value))
				}
			}
		}
	}
	return cls
}

// typeFromAnnotation resolves an annotation expression to a type. Unknown
// names and unsupported forms are reported and fall back to Any.
func (c *Checker) typeFromAnnotation(expr ast.Expr) types.Type {
	switch a := expr.(type) {
	case *ast.Name:
		switch a.ID {
		case "int":
			return types.Int
		case "float":
			return types.Float
		case "bool":
			return types.Bool
		case "str":
			return types.Str
		case "bytes":
			return types.Bytes
		case "None":
			return types.None
		case "list":
			return types.NewList(types.Any)
		case "set":
			return types.NewSet(types.Any)
		case "dict":
			return types.NewDict(types.Any, types.Any)
		case "tuple":
			return types.NewTuple()
		case "Any", "object":
			return types.Any
		}
		if cls, ok := c.env.LookupClass(a.ID); ok {
			return cls
		}
		return &types.TypeParamType{Name: a.ID}
	case *ast.NoneLiteral:
		return types.None
	case *ast.Subscript:
		base, ok := a.Value.(*ast.Name)
		if !ok {
			break
		}
		args := annotationArgs(a.Index)
		switch base.ID {
		case "list":
			if len(args) == 1 {
				return types.NewList(c.typeFromAnnotation(args[0]))
			}
		case "set":
			if len(args) == 1 {
				return types.NewSet(c.typeFromAnnotation(args[0]))
			}
		case "dict":
			if len(args) == 2 {
				return types.NewDict(c.typeFromAnnotation(args[0]), c.typeFromAnnotation(args[1]))
			}
		case "tuple":
			elems := make([]types.Type, len(args))
			for i, arg := range args {
				elems[i] = c.typeFromAnnotation(arg)
			}
			return types.NewTuple(elems...)
		default:
			params := make([]types.Type, len(args))
			for i, arg := range args {
				params[i] = c.typeFromAnnotation(arg)
			}
			return &types.GenericType{Base: c.typeFromAnnotation(base), Args: params}
		}
	case *ast.Str:
		// Forward references resolve against classes declared anywhere
		// in the module thanks to hoisting.
		if cls, ok := c.env.LookupClass(a.Value); ok {
			return cls
		}
	}
	c.report(expr.Pos(), &types.CannotInferTypeError{Expr: expr.String()})
	return types.Any
}

func annotationArgs(index ast.Expr) []ast.Expr {
	if tup, ok := index.(*ast.Tuple); ok {
		return tup.Elts
	}
	return []ast.Expr{index}
}

func (c *Checker) checkBlock(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		c.hoist(stmt)
	}
	for _, stmt := range stmts {
		c.checkStmt(stmt)
	}
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		c.infer(s.Value)
	case *ast.Assign:
		c.checkAssign(s)
	case *ast.AugAssign:
		c.checkAugAssign(s)
	case *ast.AnnAssign:
		c.checkAnnAssign(s)
	case *ast.If:
		c.checkCondition(s.Test)
		c.checkBlock(s.Body)
		c.checkBlock(s.OrElse)
	case *ast.While:
		c.checkCondition(s.Test)
		c.checkBlock(s.Body)
		c.checkBlock(s.OrElse)
	case *ast.For:
		c.checkFor(s)
	case *ast.FunctionDef:
		c.checkFunctionDef(s)
	case *ast.ClassDef:
		c.checkClassDef(s)
	case *ast.Return:
		c.checkReturn(s)
	case *ast.Raise:
		if s.Exc != nil {
			c.infer(s.Exc)
		}
		if s.Cause != nil {
			c.infer(s.Cause)
		}
	case *ast.Try:
		c.checkBlock(s.Body)
		for _, handler := range s.Handlers {
			c.checkHandler(handler)
		}
		c.checkBlock(s.OrElse)
		c.checkBlock(s.FinalBody)
	case *ast.With:
		for _, item := range s.Items {
			t := c.infer(item.ContextExpr)
			if item.Optional != nil {
				c.bindTarget(item.Optional, t)
			}
		}
		c.checkBlock(s.Body)
	case *ast.Match:
		c.infer(s.Subject)
		for _, arm := range s.Cases {
			if arm.Guard != nil {
				c.checkCondition(arm.Guard)
			}
			c.checkBlock(arm.Body)
		}
	case *ast.Assert:
		c.checkCondition(s.Test)
		if s.Msg != nil {
			c.infer(s.Msg)
		}
	case *ast.Delete:
		for _, target := range s.Targets {
			c.infer(target)
		}
	case *ast.Global:
		c.checkGlobal(s)
	case *ast.Nonlocal:
		c.checkNonlocal(s)
	case *ast.Pass, *ast.Break, *ast.Continue, *ast.Import, *ast.ImportFrom:
		// No type-level effect.
	}
}

func (c *Checker) checkCondition(test ast.Expr) {
	t := c.infer(test)
	if !types.CanCoerceTo(t, types.Bool) && !isAnyType(t) && !types.IsReference(t) {
		c.report(test.Pos(), &types.IncompatibleTypesError{
			Expected: types.Bool, Got: t, Op: "condition",
		})
	}
}

func (c *Checker) checkAssign(s *ast.Assign) {
	value := c.infer(s.Value)
	for _, target := range s.Targets {
		c.bindTarget(target, value)
	}
}

// bindTarget binds the value type into an assignment target. Name targets
// widen any previous binding through unification so conditional assignments
// of different types converge instead of flapping.
func (c *Checker) bindTarget(target ast.Expr, value types.Type) {
	switch t := target.(type) {
	case *ast.Name:
		if prev, ok := c.env.LookupVariable(t.ID); ok {
			if u, ok := types.Unify(prev, value); ok {
				c.env.SetVariableType(t.ID, u)
				return
			}
			c.env.SetVariableType(t.ID, types.Any)
			return
		}
		c.env.SetVariableType(t.ID, value)
	case *ast.Tuple:
		c.bindDestructure(t.Elts, value, t.Pos())
	case *ast.List:
		c.bindDestructure(t.Elts, value, t.Pos())
	case *ast.Subscript:
		base := c.infer(t.Value)
		if _, isSlice := t.Index.(*ast.SliceExpr); !isSlice {
			idx := c.infer(t.Index)
			if _, err := types.IndexedType(base, idx); err != nil && !isAnyType(base) {
				c.report(t.Pos(), err)
			}
		}
	case *ast.Attribute:
		c.infer(t)
	case *ast.Starred:
		c.bindTarget(t.Value, types.NewList(types.Any))
	default:
		c.report(target.Pos(), &types.CannotInferTypeError{Expr: target.String()})
	}
}

func (c *Checker) bindDestructure(targets []ast.Expr, value types.Type, pos token.Position) {
	if tup, ok := value.(*types.TupleType); ok {
		if len(tup.Elems) != len(targets) {
			c.report(pos, &types.IncompatibleTypesError{
				Expected: types.NewTuple(make([]types.Type, len(targets))...),
				Got:      tup,
				Op:       "unpacking",
			})
			for _, target := range targets {
				c.bindTarget(target, types.Any)
			}
			return
		}
		for i, target := range targets {
			c.bindTarget(target, tup.Elems[i])
		}
		return
	}
	elem := ElementType(value)
	for _, target := range targets {
		c.bindTarget(target, elem)
	}
}

func (c *Checker) checkAugAssign(s *ast.AugAssign) {
	// a op= b types exactly like a = a op b.
	equivalent := &ast.BinOp{Left: s.Target, Op: s.Op, Right: s.Value}
	result, err := Infer(c.env, equivalent)
	if err != nil {
		c.report(s.Pos(), err)
		return
	}
	c.bindTarget(s.Target, result)
}

func (c *Checker) checkAnnAssign(s *ast.AnnAssign) {
	declared := c.typeFromAnnotation(s.Annotation)
	if s.Value != nil {
		value := c.infer(s.Value)
		if !types.CanCoerceTo(value, declared) {
			c.report(s.Pos(), &types.IncompatibleTypesError{
				Expected: declared, Got: value, Op: "assignment",
			})
		}
	}
	if name, ok := s.Target.(*ast.Name); ok {
		c.env.DefineVariable(name.ID, declared)
	}
}

func (c *Checker) checkFor(s *ast.For) {
	iter := c.infer(s.Iter)
	c.bindTarget(s.Target, ElementType(iter))
	c.checkBlock(s.Body)
	c.checkBlock(s.OrElse)
}

func (c *Checker) checkFunctionDef(s *ast.FunctionDef) {
	fn := c.signatureOf(s)
	c.env.DefineFunction(s.Name, fn)
	for _, dec := range s.Decorators {
		c.infer(dec)
	}
	for _, p := range s.Params {
		if p.Default != nil {
			c.infer(p.Default)
		}
	}

	c.env.PushScope()
	defer c.env.PopScope()
	savedReturn := c.env.ReturnType()
	c.env.SetReturnType(fn.Return)
	defer c.env.SetReturnType(savedReturn)

	for i, p := range s.Params {
		c.env.DefineVariable(p.Name, fn.ParamTypes[i])
	}
	if s.VarArg != "" {
		c.env.DefineVariable(s.VarArg, types.NewTuple())
	}
	if s.KwArg != "" {
		c.env.DefineVariable(s.KwArg, types.NewDict(types.Str, types.Any))
	}
	c.checkBlock(s.Body)
}

func (c *Checker) checkClassDef(s *ast.ClassDef) {
	cls := c.classOf(s)
	c.env.DefineClass(s.Name, cls)
	c.env.PushScope()
	defer c.env.PopScope()
	c.env.DefineVariable("self", cls)
	for _, stmt := range s.Body {
		if fn, ok := stmt.(*ast.FunctionDef); ok {
			c.checkMethod(cls, fn)
			continue
		}
		c.checkStmt(stmt)
	}
}

func (c *Checker) checkMethod(cls *types.ClassType, s *ast.FunctionDef) {
	fn := c.signatureOf(s)
	c.env.PushScope()
	defer c.env.PopScope()
	savedReturn := c.env.ReturnType()
	c.env.SetReturnType(fn.Return)
	defer c.env.SetReturnType(savedReturn)

	for i, p := range s.Params {
		t := fn.ParamTypes[i]
		if i == 0 && p.Annotation == nil {
			t = cls
		}
		c.env.DefineVariable(p.Name, t)
	}
	c.checkBlock(s.Body)
}

func (c *Checker) checkReturn(s *ast.Return) {
	declared := c.env.ReturnType()
	if s.Value == nil {
		if declared != nil && !types.Equal(declared, types.None) &&
			!isAnyType(declared) && !types.Equal(declared, types.Void) {
			c.report(s.Pos(), &types.IncompatibleTypesError{
				Expected: declared, Got: types.None, Op: "return",
			})
		}
		return
	}
	value := c.infer(s.Value)
	if declared == nil || isAnyType(declared) {
		return
	}
	if !types.CanCoerceTo(value, declared) {
		c.report(s.Pos(), &types.IncompatibleTypesError{
			Expected: declared, Got: value, Op: "return",
		})
	}
}

func (c *Checker) checkHandler(h *ast.ExceptHandler) {
	if h.Type != nil {
		c.infer(h.Type)
	}
	if h.Name != "" {
		c.env.DefineVariable(h.Name, types.Any)
	}
	c.checkBlock(h.Body)
}

func (c *Checker) checkGlobal(s *ast.Global) {
	for _, name := range s.Names {
		if t, ok := c.env.LookupVariable(name); ok {
			c.env.DefineVariable(name, t)
			continue
		}
		c.env.DefineVariable(name, types.Any)
	}
}

func (c *Checker) checkNonlocal(s *ast.Nonlocal) {
	for _, name := range s.Names {
		if _, ok := c.env.LookupVariable(name); !ok {
			c.report(s.Pos(), &types.UndefinedVariableError{Name: name})
		}
	}
}
