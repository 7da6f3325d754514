package compiler

import (
	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/errz"
	"github.com/cheetah-lang/cheetah/ir"
	"github.com/cheetah-lang/cheetah/types"
)

// compileBlock lowers a statement list with the recursive frontend.
// Statements after a terminator are unreachable and skipped. A failed
// statement is reported and compilation moves to the next sibling.
func (c *Context) compileBlock(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if c.b.InsertBlock().Terminated() {
			return nil
		}
		savedScope, savedLoops := c.cur, len(c.loops)
		if err := c.compileStmt(s); err != nil {
			c.report(s.Pos(), err)
			c.cur, c.loops = savedScope, c.loops[:savedLoops]
			if c.b.InsertBlock().Terminated() {
				c.b.SetInsertPoint(c.fn.irFn.NewBlock("recover"))
			}
		}
	}
	return nil
}

func (c *Context) compileStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.If:
		f, err := c.beginIf(st.Test)
		if err != nil {
			return err
		}
		if err := c.compileBlock(st.Body); err != nil {
			return err
		}
		c.startElse(f)
		if err := c.compileBlock(st.OrElse); err != nil {
			return err
		}
		c.finishIf(f)
		return nil
	case *ast.While:
		f, err := c.beginWhile(st.Test)
		if err != nil {
			return err
		}
		if err := c.compileBlock(st.Body); err != nil {
			return err
		}
		c.startWhileElse(f)
		if err := c.compileBlock(st.OrElse); err != nil {
			return err
		}
		c.finishWhile(f)
		return nil
	case *ast.For:
		return c.lowerFor(st)
	case *ast.Try:
		return c.lowerTryRecursive(st)
	case *ast.With:
		f, err := c.beginWith(st)
		if err != nil {
			return err
		}
		if err := c.compileBlock(st.Body); err != nil {
			return err
		}
		c.finishWith(f)
		return nil
	default:
		return c.lowerSimple(s)
	}
}

// lowerSimple handles every statement that introduces no nested block of
// its own. Both frontends share it.
func (c *Context) lowerSimple(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.ExprStmt:
		_, err := c.compileExpr(st.Value)
		return err
	case *ast.Assign:
		return c.lowerAssign(st)
	case *ast.AugAssign:
		return c.lowerAugAssign(st)
	case *ast.AnnAssign:
		return c.lowerAnnAssign(st)
	case *ast.Return:
		return c.lowerReturn(st)
	case *ast.Break:
		loop, ok := c.currentLoop()
		if !ok {
			return errz.Newf(errz.TypeError, "break outside of a loop")
		}
		c.b.Br(loop.breakTo)
		return nil
	case *ast.Continue:
		loop, ok := c.currentLoop()
		if !ok {
			return errz.Newf(errz.TypeError, "continue outside of a loop")
		}
		c.b.Br(loop.continueTo)
		return nil
	case *ast.FunctionDef:
		fi := c.declareFunction(st, c.qualify(st.Name))
		return c.lowerFunctionBody(fi)
	case *ast.ClassDef:
		c.declareClass(st)
		return c.lowerClassBody(st)
	case *ast.Raise:
		return c.lowerRaise(st)
	case *ast.Global:
		for _, name := range st.Names {
			c.scope().globals[name] = struct{}{}
			t := types.Type(types.Int)
			if et, ok := c.env.LookupVariable(name); ok {
				t = et
			}
			c.ensureGlobal(name, t)
		}
		return nil
	case *ast.Nonlocal:
		// The alias cells were created at function entry; the statement
		// itself only validates placement.
		if c.fn == nil || c.fn.def == nil {
			return errz.Typef("nonlocal declaration outside of a function")
		}
		return nil
	case *ast.Assert:
		return c.lowerAssert(st)
	case *ast.Pass, *ast.Delete, *ast.Import, *ast.ImportFrom:
		return nil
	case *ast.Match:
		return errz.Typef("match statements are not supported in compiled code")
	default:
		return errz.Internalf("unhandled statement %T", s)
	}
}

// qualify builds the registry name for a function declared at the current
// position: nested functions carry their enclosing function's name.
func (c *Context) qualify(name string) string {
	if c.fn == nil {
		return name
	}
	return c.fn.name + "." + name
}

// assign stores v into the named variable. Module-scope targets are IR
// globals; nonlocal targets write their alias cell; assignment to a plain
// captured variable shadows it with a fresh local.
func (c *Context) assign(name string, v value) error {
	if aname, ok := c.aliasFor(name); ok {
		slot, found := c.lookup(aname)
		if !found {
			return errz.Internalf("nonlocal alias %q has no cell", aname)
		}
		c.b.Store(c.coerce(v, slot.IRType), slot.Ptr)
		return nil
	}
	if c.declaredGlobal(name) || c.functionScope().kind == ScopeModule {
		slot := c.ensureGlobal(name, v.t)
		c.b.Store(c.coerce(v, slot.IRType), slot.Ptr)
		return nil
	}
	if slot, ok := c.frameLookup(name); ok && !slot.Captured {
		c.b.Store(c.coerce(v, slot.IRType), slot.Ptr)
		return nil
	}
	// Fresh local, or a shadow over a read-only capture.
	cell := c.b.AllocaInEntry(rep(v), name)
	c.b.Store(v.v, cell)
	c.define(name, &Slot{Name: name, Type: v.t, IRType: rep(v), Ptr: cell})
	return nil
}

// frameLookup resolves a name within the current function frame only,
// without the module-global fallback lookup performs.
func (c *Context) frameLookup(name string) (*Slot, bool) {
	id := c.cur
	for {
		sc := c.scopes[id]
		if slot, ok := sc.vars[name]; ok {
			return slot, true
		}
		if sc.kind == ScopeFunction || sc.kind == ScopeModule {
			return nil, false
		}
		id = sc.parent
	}
}

// bindTarget assigns v to an assignment target: a name, an unpacking
// tuple or list, a subscript, or an attribute.
func (c *Context) bindTarget(target ast.Expr, v value) error {
	switch t := target.(type) {
	case *ast.Name:
		return c.assign(t.ID, v)
	case *ast.Tuple:
		return c.destructure(t.Elts, v)
	case *ast.List:
		return c.destructure(t.Elts, v)
	case *ast.Subscript:
		obj, err := c.compileExpr(t.Value)
		if err != nil {
			return err
		}
		if _, ok := t.Index.(*ast.SliceExpr); ok {
			return errz.Typef("slice assignment is not supported in compiled code")
		}
		key, err := c.compileExpr(t.Index)
		if err != nil {
			return err
		}
		c.b.Call(c.extern("set_item"), c.box(obj).v, c.box(key).v, c.box(v).v)
		return nil
	case *ast.Attribute:
		obj, err := c.compileExpr(t.Value)
		if err != nil {
			return err
		}
		key := c.b.Call(c.extern("from_string"), ir.ConstString(t.Attr))
		c.b.Call(c.extern("set_item"), c.box(obj).v, key, c.box(v).v)
		return nil
	case *ast.Starred:
		return errz.Typef("starred assignment targets are not supported in compiled code")
	default:
		return errz.Typef("cannot assign to %T", target)
	}
}

func (c *Context) destructure(elts []ast.Expr, v value) error {
	boxed := c.box(v).v
	for i, el := range elts {
		et := types.Type(types.Any)
		switch t := v.t.(type) {
		case *types.TupleType:
			if len(t.Elems) == len(elts) {
				et = t.Elems[i]
			}
		case *types.ListType:
			et = t.Elem
		}
		key := c.b.Call(c.extern("from_int"), ir.ConstInt(ir.I64, int64(i)))
		elem := c.b.Call(c.extern("get_item"), boxed, key)
		if err := c.bindTarget(el, value{elem, et}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) lowerAssign(s *ast.Assign) error {
	// A lambda bound to a plain name registers as a named function so
	// later calls resolve statically.
	if lam, ok := s.Value.(*ast.Lambda); ok && len(s.Targets) == 1 {
		if name, isName := s.Targets[0].(*ast.Name); isName {
			_, err := c.lowerLambda(lam, name.ID)
			return err
		}
	}
	v, err := c.compileExpr(s.Value)
	if err != nil {
		return err
	}
	for _, t := range s.Targets {
		if err := c.bindTarget(t, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) lowerAugAssign(s *ast.AugAssign) error {
	switch t := s.Target.(type) {
	case *ast.Name:
		slotVal, err := c.compileExpr(t)
		if err != nil {
			return err
		}
		rhs, err := c.compileExpr(s.Value)
		if err != nil {
			return err
		}
		res, err := c.arith(s.Op, slotVal, rhs)
		if err != nil {
			return err
		}
		return c.assign(t.ID, res)
	case *ast.Subscript:
		obj, err := c.compileExpr(t.Value)
		if err != nil {
			return err
		}
		key, err := c.compileExpr(t.Index)
		if err != nil {
			return err
		}
		boxedObj, boxedKey := c.box(obj).v, c.box(key).v
		cur := c.b.Call(c.extern("get_item"), boxedObj, boxedKey)
		rhs, err := c.compileExpr(s.Value)
		if err != nil {
			return err
		}
		res, err := c.arith(s.Op, value{cur, types.Any}, rhs)
		if err != nil {
			return err
		}
		c.b.Call(c.extern("set_item"), boxedObj, boxedKey, c.box(res).v)
		return nil
	case *ast.Attribute:
		obj, err := c.compileExpr(t.Value)
		if err != nil {
			return err
		}
		boxedObj := c.box(obj).v
		key := c.b.Call(c.extern("from_string"), ir.ConstString(t.Attr))
		cur := c.b.Call(c.extern("get_item"), boxedObj, key)
		rhs, err := c.compileExpr(s.Value)
		if err != nil {
			return err
		}
		res, err := c.arith(s.Op, value{cur, types.Any}, rhs)
		if err != nil {
			return err
		}
		c.b.Call(c.extern("set_item"), boxedObj, key, c.box(res).v)
		return nil
	default:
		return errz.Typef("cannot assign to %T", s.Target)
	}
}

func (c *Context) lowerAnnAssign(s *ast.AnnAssign) error {
	if s.Value == nil {
		return nil
	}
	v, err := c.compileExpr(s.Value)
	if err != nil {
		return err
	}
	declared := annotatedType(s.Annotation)
	if !types.Equal(declared, types.Any) {
		v = value{c.coerce(v, irTypeOf(declared)), declared}
	}
	return c.bindTarget(s.Target, v)
}

func (c *Context) lowerReturn(s *ast.Return) error {
	if c.fn == nil || c.fn.def == nil {
		return errz.Newf(errz.TypeError, "return outside of a function")
	}
	if s.Value == nil {
		c.flushNonlocals()
		c.emitDefaultReturn(c.fn)
		return nil
	}
	v, err := c.compileExpr(s.Value)
	if err != nil {
		return err
	}
	// A self-call in return position is a tail call.
	if in, ok := v.v.(*ir.Instr); ok && in.Op == ir.OpCall && in.Callee == c.fn.irFn {
		in.Tail = true
	}
	out := c.coerce(v, c.fn.retIR)
	c.flushNonlocals()
	if c.fn.retIR == ir.Void {
		c.b.RetVoid()
	} else {
		c.b.Ret(out)
	}
	return nil
}

func (c *Context) lowerRaise(s *ast.Raise) error {
	if s.Exc != nil {
		v, err := c.compileExpr(s.Exc)
		if err != nil {
			return err
		}
		c.b.Call(c.extern("set_current_exception"), c.box(v).v)
	}
	c.b.Store(ir.ConstBool(true), c.excState)
	return nil
}

func (c *Context) lowerAssert(s *ast.Assert) error {
	v, err := c.compileExpr(s.Test)
	if err != nil {
		return err
	}
	cond := c.condition(v)
	fail := c.fn.irFn.NewBlock("assert.fail")
	cont := c.fn.irFn.NewBlock("assert.cont")
	c.b.CondBr(cond, cont, fail)
	c.b.SetInsertPoint(fail)
	var msg ir.Value
	if s.Msg != nil {
		mv, err := c.compileExpr(s.Msg)
		if err != nil {
			return err
		}
		msg = c.box(mv).v
	} else {
		msg = c.b.Call(c.extern("from_string"), ir.ConstString("assertion failed"))
	}
	c.b.Call(c.extern("set_current_exception"), msg)
	c.b.Store(ir.ConstBool(true), c.excState)
	c.b.Br(cont)
	c.b.SetInsertPoint(cont)
	return nil
}

// ifFrame tracks the block graph of one if statement. Every if gets a
// then, an else, and an end block even when the source has no else
// clause, so both frontends emit the same shape.
type ifFrame struct {
	then, els, end *ir.Block
}

func (c *Context) beginIf(test ast.Expr) (*ifFrame, error) {
	v, err := c.compileExpr(test)
	if err != nil {
		return nil, err
	}
	f := &ifFrame{
		then: c.fn.irFn.NewBlock("if.then"),
		els:  c.fn.irFn.NewBlock("if.else"),
		end:  c.fn.irFn.NewBlock("if.end"),
	}
	c.b.CondBr(c.condition(v), f.then, f.els)
	c.b.SetInsertPoint(f.then)
	c.pushScope(ScopeBlock)
	return f, nil
}

func (c *Context) startElse(f *ifFrame) {
	c.popScope()
	c.seal(f.end)
	c.b.SetInsertPoint(f.els)
	c.pushScope(ScopeBlock)
}

func (c *Context) finishIf(f *ifFrame) {
	c.popScope()
	c.seal(f.end)
	c.b.SetInsertPoint(f.end)
}

// whileFrame tracks the block graph of one while statement: condition,
// body, else, and end. break jumps to end, skipping the else clause.
type whileFrame struct {
	cond, body, els, end *ir.Block
}

func (c *Context) beginWhile(test ast.Expr) (*whileFrame, error) {
	f := &whileFrame{
		cond: c.fn.irFn.NewBlock("while.cond"),
		body: c.fn.irFn.NewBlock("while.body"),
		els:  c.fn.irFn.NewBlock("while.else"),
		end:  c.fn.irFn.NewBlock("while.end"),
	}
	c.b.Br(f.cond)
	c.b.SetInsertPoint(f.cond)
	v, err := c.compileExpr(test)
	if err != nil {
		return nil, err
	}
	c.b.CondBr(c.condition(v), f.body, f.els)
	c.b.SetInsertPoint(f.body)
	c.pushScope(ScopeLoop)
	c.pushLoop(f.cond, f.end)
	return f, nil
}

func (c *Context) startWhileElse(f *whileFrame) {
	c.popLoop()
	c.popScope()
	c.seal(f.cond)
	c.b.SetInsertPoint(f.els)
	c.pushScope(ScopeBlock)
}

func (c *Context) finishWhile(f *whileFrame) {
	c.popScope()
	c.seal(f.end)
	c.b.SetInsertPoint(f.end)
}

// forFrame tracks the canonical counted for loop: cond, body, inc, else,
// and end blocks plus the counter cell. continue jumps to inc, break to
// end.
type forFrame struct {
	s                         *ast.For
	cell                      ir.Value
	step                      ir.Value
	cond, body, inc, els, end *ir.Block
}

// beginForCounted opens the canonical loop over [start, stop) by step and
// binds the loop target for the current iteration.
func (c *Context) beginForCounted(s *ast.For, start, stop, step ir.Value, fetch func(ir.Value) (value, error)) (*forFrame, error) {
	f := &forFrame{
		s:    s,
		step: step,
		cond: c.fn.irFn.NewBlock("for.cond"),
		body: c.fn.irFn.NewBlock("for.body"),
		inc:  c.fn.irFn.NewBlock("for.inc"),
		els:  c.fn.irFn.NewBlock("for.else"),
		end:  c.fn.irFn.NewBlock("for.end"),
	}
	f.cell = c.b.AllocaInEntry(ir.I64, "i")
	c.b.Store(start, f.cell)
	c.b.Br(f.cond)

	c.b.SetInsertPoint(f.cond)
	i := c.b.Load(ir.I64, f.cell)
	up := c.b.ICmp(ir.PredLT, i, stop)
	down := c.b.ICmp(ir.PredGT, i, stop)
	pos := c.b.ICmp(ir.PredGT, step, ir.ConstInt(ir.I64, 0))
	c.b.CondBr(c.b.Select(pos, up, down), f.body, f.els)

	c.b.SetInsertPoint(f.body)
	c.pushScope(ScopeLoop)
	c.pushLoop(f.inc, f.end)
	iv := c.b.Load(ir.I64, f.cell)
	ev, err := fetch(iv)
	if err != nil {
		return nil, err
	}
	if err := c.bindTarget(s.Target, ev); err != nil {
		return nil, err
	}
	return f, nil
}

// startForElse closes the loop body, emits the increment, and opens the
// else clause.
func (c *Context) startForElse(f *forFrame) {
	c.popLoop()
	c.popScope()
	c.seal(f.inc)
	c.b.SetInsertPoint(f.inc)
	c.b.Store(c.b.Add(c.b.Load(ir.I64, f.cell), f.step), f.cell)
	c.b.Br(f.cond)
	c.b.SetInsertPoint(f.els)
	c.pushScope(ScopeBlock)
}

func (c *Context) finishFor(f *forFrame) {
	c.popScope()
	c.seal(f.end)
	c.b.SetInsertPoint(f.end)
}

// lowerFor routes a for statement: constant-range headers go through the
// loop optimizer, everything else takes the canonical iterable loop.
func (c *Context) lowerFor(s *ast.For) error {
	if call, ok := s.Iter.(*ast.Call); ok && c.isRangeCall(call) {
		return c.lowerRangeFor(s, call)
	}
	v, err := c.compileExpr(s.Iter)
	if err != nil {
		return err
	}
	return c.lowerForOver(s, v)
}

// forIterPlan computes how to walk an already-lowered iterable: an
// element count and a fetch for the element at an index.
func (c *Context) forIterPlan(v value) (stop ir.Value, fetch func(ir.Value) (value, error), err error) {
	if _, ok := v.t.(*types.RangeIterType); ok {
		r := v.v
		stop = c.b.Call(c.extern("range_len"), r)
		fetch = func(i ir.Value) (value, error) {
			return value{c.b.Call(c.extern("range_at"), r, i), types.Int}, nil
		}
		return stop, fetch, nil
	}
	boxed := c.box(v).v
	elemT := types.Type(types.Any)
	fastList := false
	switch t := v.t.(type) {
	case *types.ListType:
		elemT = t.Elem
		fastList = true
	case *types.StrType:
		elemT = types.Str
	case *types.DictType:
		boxed = c.b.Call(c.extern("call_method"),
			boxed, ir.ConstString("keys"), ir.ConstNull(), ir.ConstInt(ir.I64, 0))
		elemT = t.Key
		fastList = true
	case *types.SetType:
		return nil, nil, errz.Typef("sets are not iterable in compiled code")
	}
	if fastList {
		stop = c.b.Call(c.extern("list_len"), boxed)
		fetch = func(i ir.Value) (value, error) {
			return value{c.b.Call(c.extern("list_get"), boxed, i), elemT}, nil
		}
		return stop, fetch, nil
	}
	stop = c.b.Call(c.extern("len"), boxed)
	fetch = func(i ir.Value) (value, error) {
		key := c.b.Call(c.extern("from_int"), i)
		return value{c.b.Call(c.extern("get_item"), boxed, key), elemT}, nil
	}
	return stop, fetch, nil
}

// lowerForOver drives the canonical loop over an already-lowered
// iterable value.
func (c *Context) lowerForOver(s *ast.For, v value) error {
	stop, fetch, err := c.forIterPlan(v)
	if err != nil {
		return err
	}
	f, err := c.beginForCounted(s, ir.ConstInt(ir.I64, 0), stop, ir.ConstInt(ir.I64, 1), fetch)
	if err != nil {
		return err
	}
	if err := c.block(s.Body); err != nil {
		return err
	}
	c.startForElse(f)
	if err := c.block(s.OrElse); err != nil {
		return err
	}
	c.finishFor(f)
	return nil
}

// tryFrame tracks the block graph of one try statement. The exception
// state cell drives the branch at the end of the body into the handler
// match chain: every handler gets a match block and a body block, with an
// unmatched exception falling through to finally.
type tryFrame struct {
	s                *ast.Try
	body             *ir.Block
	matches          []*ir.Block
	handlers         []*ir.Block
	els, finalB, end *ir.Block
}

func (c *Context) beginTry(s *ast.Try) *tryFrame {
	f := &tryFrame{
		s:      s,
		body:   c.fn.irFn.NewBlock("try.body"),
		els:    c.fn.irFn.NewBlock("try.else"),
		finalB: c.fn.irFn.NewBlock("try.finally"),
		end:    c.fn.irFn.NewBlock("try.end"),
	}
	for range s.Handlers {
		f.matches = append(f.matches, c.fn.irFn.NewBlock("try.match"))
		f.handlers = append(f.handlers, c.fn.irFn.NewBlock("try.except"))
	}
	c.b.Store(ir.ConstBool(false), c.excState)
	c.b.Br(f.body)
	c.b.SetInsertPoint(f.body)
	c.pushScope(ScopeBlock)
	return f
}

// endTryBody closes the try body: an exception raised in it enters the
// handler match chain, otherwise control continues to else. With no
// handlers the exception skips straight to finally, state still set.
func (c *Context) endTryBody(f *tryFrame) {
	c.popScope()
	if !c.b.InsertBlock().Terminated() {
		flag := c.b.Load(ir.I1, c.excState)
		if len(f.matches) > 0 {
			c.b.CondBr(flag, f.matches[0], f.els)
		} else {
			c.b.CondBr(flag, f.finalB, f.els)
		}
	}
}

// startHandler opens handler i. The match block tests the raised value
// against the handler clause and falls through to the next handler, or to
// finally after the last one. Raised values carry no class tag at
// runtime, so the match is constant true and the first handler always
// wins. The handler body runs with the exception bound when the source
// names it and the state cleared.
func (c *Context) startHandler(f *tryFrame, i int) error {
	h := f.s.Handlers[i]
	c.b.SetInsertPoint(f.matches[i])
	next := f.finalB
	if i+1 < len(f.matches) {
		next = f.matches[i+1]
	}
	c.b.CondBr(ir.ConstBool(true), f.handlers[i], next)

	c.b.SetInsertPoint(f.handlers[i])
	c.pushScope(ScopeBlock)
	c.b.Store(ir.ConstBool(false), c.excState)
	if h.Name != "" {
		exc := c.b.Call(c.extern("get_current_exception"))
		if err := c.assign(h.Name, value{exc, types.Any}); err != nil {
			return err
		}
	}
	c.b.Call(c.extern("clear_current_exception"))
	return nil
}

// endHandler closes handler i's body into the finally block.
func (c *Context) endHandler(f *tryFrame) {
	c.popScope()
	c.seal(f.finalB)
}

func (c *Context) startTryElse(f *tryFrame) {
	c.b.SetInsertPoint(f.els)
	c.pushScope(ScopeBlock)
}

func (c *Context) startFinally(f *tryFrame) {
	c.popScope()
	c.seal(f.finalB)
	c.b.SetInsertPoint(f.finalB)
	c.pushScope(ScopeBlock)
}

func (c *Context) finishTry(f *tryFrame) {
	c.popScope()
	c.seal(f.end)
	c.b.SetInsertPoint(f.end)
}

func (c *Context) lowerTryRecursive(s *ast.Try) error {
	f := c.beginTry(s)
	if err := c.compileBlock(s.Body); err != nil {
		return err
	}
	c.endTryBody(f)
	for i := range s.Handlers {
		if err := c.startHandler(f, i); err != nil {
			return err
		}
		if err := c.compileBlock(s.Handlers[i].Body); err != nil {
			return err
		}
		c.endHandler(f)
	}
	c.startTryElse(f)
	if err := c.compileBlock(s.OrElse); err != nil {
		return err
	}
	c.startFinally(f)
	if err := c.compileBlock(s.FinalBody); err != nil {
		return err
	}
	c.finishTry(f)
	return nil
}

// withFrame tracks one with statement. Context values carry no enter or
// exit protocol in compiled code; the items are evaluated and bound, and
// the body runs in its own block scope.
type withFrame struct {
	s *ast.With
}

func (c *Context) beginWith(s *ast.With) (*withFrame, error) {
	c.pushScope(ScopeBlock)
	for _, item := range s.Items {
		v, err := c.compileExpr(item.ContextExpr)
		if err != nil {
			return nil, err
		}
		if item.Optional != nil {
			if err := c.bindTarget(item.Optional, v); err != nil {
				return nil, err
			}
		}
	}
	return &withFrame{s: s}, nil
}

func (c *Context) finishWith(f *withFrame) {
	c.popScope()
}
