package compiler

import (
	"strings"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/errz"
	"github.com/cheetah-lang/cheetah/ir"
	"github.com/cheetah-lang/cheetah/types"
)

type paramSpec struct {
	name string
	t    types.Type
	irt  *ir.Type
}

type captureSpec struct {
	name string
	slot *Slot // the captured cell in the defining frame
}

// syncPair connects a nonlocal alias cell to the captured pointer it must
// be flushed through before every return.
type syncPair struct {
	alias *Slot
	out   ir.Value
}

// funcInfo is one entry of the function registry: the declared IR
// function plus everything a call site needs (parameter specs, default
// expressions, and the closure environment).
type funcInfo struct {
	name     string // qualified: enclosing-function-name "." local-name
	local    string
	irFn     *ir.Function
	params   []paramSpec
	defaults []ast.Expr // aligned with params, nil when absent
	captures []captureSpec
	// nonlocals lists capture names declared nonlocal in the body, in
	// declaration order, deduplicated.
	nonlocals []string
	retType   types.Type
	retIR     *ir.Type
	def       *ast.FunctionDef

	syncs []syncPair
}

func (fi *funcInfo) isNonlocal(name string) bool {
	for _, n := range fi.nonlocals {
		if n == name {
			return true
		}
	}
	return false
}

// declareFunction registers a function and creates its IR declaration.
// The signature prepends one pointer parameter per captured variable, in
// capture insertion order, ahead of the source parameters.
func (c *Context) declareFunction(def *ast.FunctionDef, qualified string) *funcInfo {
	params, defaults, ret := c.signatureFor(def)

	fi := &funcInfo{
		name:     qualified,
		local:    def.Name,
		params:   params,
		defaults: defaults,
		retType:  ret,
		retIR:    irTypeOf(ret),
		def:      def,
	}
	if _, ok := ret.(*types.NoneType); ok {
		fi.retIR = ir.Ptr // functions yield the none value, not void
	}

	free, nonlocals := scanFree(def)
	for _, name := range free {
		if slot, ok := c.captureTarget(name); ok {
			fi.captures = append(fi.captures, captureSpec{name: name, slot: slot})
		}
	}
	fi.nonlocals = nonlocals

	irName := qualified
	if _, taken := c.mod.Func(irName); taken {
		irName = qualified + ".1"
	}
	sigTypes := make([]*ir.Type, 0, len(fi.captures)+len(params))
	names := make([]string, 0, cap(sigTypes))
	for _, cv := range fi.captures {
		sigTypes = append(sigTypes, ir.Ptr)
		names = append(names, "__cap_"+cv.name)
	}
	for _, p := range params {
		sigTypes = append(sigTypes, p.irt)
		names = append(names, p.name)
	}
	fi.irFn = c.mod.NewFunction(irName, ir.NewSignature(fi.retIR, sigTypes...), names...)

	c.funcs[qualified] = fi
	c.funcOrder = append(c.funcOrder, qualified)
	return fi
}

// signatureFor derives parameter and return types, preferring the type
// environment's refined function type over bare annotations.
func (c *Context) signatureFor(def *ast.FunctionDef) ([]paramSpec, []ast.Expr, types.Type) {
	params := make([]paramSpec, len(def.Params))
	defaults := make([]ast.Expr, len(def.Params))
	var fnType *types.FunctionType
	if t, ok := c.env.LookupFunction(def.Name); ok {
		if ft, ok := t.(*types.FunctionType); ok && len(ft.ParamTypes) == len(def.Params) {
			fnType = ft
		}
	}
	for i, p := range def.Params {
		t := types.Type(types.Any)
		if fnType != nil {
			t = fnType.ParamTypes[i]
		} else if p.Annotation != nil {
			t = annotatedType(p.Annotation)
		}
		params[i] = paramSpec{name: p.Name, t: t, irt: irTypeOf(t)}
		defaults[i] = p.Default
	}
	ret := types.Type(types.Any)
	if fnType != nil && fnType.Return != nil {
		ret = fnType.Return
	} else if def.Returns != nil {
		ret = annotatedType(def.Returns)
	}
	return params, defaults, ret
}

// annotatedType maps a simple annotation expression to a type. Anything
// beyond the primitive names is treated as Any; the checker has already
// validated the annotation.
func annotatedType(expr ast.Expr) types.Type {
	name, ok := expr.(*ast.Name)
	if !ok {
		return types.Any
	}
	switch name.ID {
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
	default:
		return types.Any
	}
}

// captureTarget resolves a free name against the enclosing frames. Only
// names living in an enclosing function frame become captures; module
// globals and builtins resolve directly.
func (c *Context) captureTarget(name string) (*Slot, bool) {
	if c.inModuleScope() {
		return nil, false
	}
	slot, ok := c.lookup(name)
	if !ok || slot.Global {
		return nil, false
	}
	return slot, true
}

// lowerFunctionBody compiles a declared function's body in a fresh
// function scope with the loop stack reset.
func (c *Context) lowerFunctionBody(fi *funcInfo) error {
	savedFn, savedScope, savedLoops := c.fn, c.cur, c.loops
	savedBlock := c.b.InsertBlock()
	defer func() {
		c.fn, c.cur, c.loops = savedFn, savedScope, savedLoops
		c.b.SetInsertPoint(savedBlock)
	}()

	c.fn = fi
	c.loops = nil
	c.cur = c.pushScopeRaw(ScopeFunction, 0)

	entry := fi.irFn.NewBlock("entry")
	c.b.SetInsertPoint(entry)

	// Captured cells arrive as pointer parameters. Nonlocal captures get
	// a uniquely named local alias cell, loaded at entry and flushed back
	// before every return; plain captures are read through the pointer.
	fi.syncs = nil
	for i, cv := range fi.captures {
		param := fi.irFn.Params[i]
		if fi.isNonlocal(cv.name) {
			aliasName := "__nonlocal_" + fi.local + "_" + cv.name
			cell := c.b.AllocaInEntry(cv.slot.IRType, aliasName)
			c.b.Store(c.b.Load(cv.slot.IRType, param), cell)
			alias := &Slot{Name: aliasName, Type: cv.slot.Type, IRType: cv.slot.IRType, Ptr: cell}
			c.define(aliasName, alias)
			c.scope().aliases[cv.name] = aliasName
			c.scope().nonlocals[cv.name] = struct{}{}
			fi.syncs = append(fi.syncs, syncPair{alias: alias, out: param})
			continue
		}
		c.define(cv.name, &Slot{
			Name: cv.name, Type: cv.slot.Type, IRType: cv.slot.IRType,
			Ptr: param, Captured: true,
		})
	}
	for i, p := range fi.params {
		param := fi.irFn.Params[len(fi.captures)+i]
		cell := c.b.AllocaInEntry(p.irt, p.name)
		c.b.Store(param, cell)
		c.define(p.name, &Slot{Name: p.name, Type: p.t, IRType: p.irt, Ptr: cell})
	}
	if fi.def.VarArg != "" || fi.def.KwArg != "" {
		return errz.Functionf(fi.name, "starred parameters are not supported in compiled code")
	}

	if err := c.block(fi.def.Body); err != nil {
		return err
	}

	if !c.b.InsertBlock().Terminated() {
		c.flushNonlocals()
		c.emitDefaultReturn(fi)
	}
	c.popScope()
	return nil
}

// flushNonlocals writes every nonlocal alias cell back through its
// captured pointer.
func (c *Context) flushNonlocals() {
	if c.fn == nil {
		return
	}
	for _, s := range c.fn.syncs {
		c.b.Store(c.b.Load(s.alias.IRType, s.alias.Ptr), s.out)
	}
}

func (c *Context) emitDefaultReturn(fi *funcInfo) {
	switch fi.retIR {
	case ir.Void:
		c.b.RetVoid()
	case ir.I64:
		c.b.Ret(ir.ConstInt(ir.I64, 0))
	case ir.F64:
		c.b.Ret(ir.ConstFloat(0))
	case ir.I1:
		c.b.Ret(ir.ConstBool(false))
	default:
		c.b.Ret(c.b.Call(c.extern("none")))
	}
}

// resolveFunc finds a function by source name, innermost qualification
// first: inside outer, "inc" resolves to "outer.inc" before "inc".
func (c *Context) resolveFunc(name string) (*funcInfo, bool) {
	if c.fn != nil {
		prefix := c.fn.name
		for prefix != "" {
			if fi, ok := c.funcs[prefix+"."+name]; ok {
				return fi, true
			}
			idx := strings.LastIndex(prefix, ".")
			if idx < 0 {
				break
			}
			prefix = prefix[:idx]
		}
	}
	fi, ok := c.funcs[name]
	return fi, ok
}

// classInfo records a class declaration: its checker type, field default
// expressions in source order, and lowered methods.
type classInfo struct {
	name        string
	def         *ast.ClassDef
	typ         types.Type
	fieldNames  []string
	fieldValues []ast.Expr
	methods     map[string]*funcInfo
	methodOrder []string
}

func (c *Context) declareClass(def *ast.ClassDef) *classInfo {
	ci := &classInfo{
		name:    def.Name,
		def:     def,
		methods: map[string]*funcInfo{},
	}
	if t, ok := c.env.LookupClass(def.Name); ok {
		ci.typ = t
	} else {
		ci.typ = types.Any
	}
	for _, stmt := range def.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			fi := c.declareFunction(s, def.Name+"."+s.Name)
			// Instances are tagged handles regardless of annotation.
			if len(fi.params) > 0 {
				fi.params[0].t = ci.typ
				fi.params[0].irt = ir.Ptr
			}
			ci.methods[s.Name] = fi
			ci.methodOrder = append(ci.methodOrder, s.Name)
		case *ast.Assign:
			if len(s.Targets) == 1 {
				if n, ok := s.Targets[0].(*ast.Name); ok {
					ci.fieldNames = append(ci.fieldNames, n.ID)
					ci.fieldValues = append(ci.fieldValues, s.Value)
				}
			}
		case *ast.AnnAssign:
			if n, ok := s.Target.(*ast.Name); ok && s.Value != nil {
				ci.fieldNames = append(ci.fieldNames, n.ID)
				ci.fieldValues = append(ci.fieldValues, s.Value)
			}
		}
	}
	c.classes[def.Name] = ci
	return ci
}

func (c *Context) lowerClassBody(def *ast.ClassDef) error {
	ci, ok := c.classes[def.Name]
	if !ok {
		return errz.Internalf("class %q was never declared", def.Name)
	}
	for _, name := range ci.methodOrder {
		fi := ci.methods[name]
		if err := c.lowerFunctionBody(fi); err != nil {
			return err
		}
	}
	return nil
}
