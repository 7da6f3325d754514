package compiler

import (
	"fmt"
	"math"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/ir"
	"github.com/cheetah-lang/cheetah/runtime"
	"github.com/cheetah-lang/cheetah/types"
)

// Loop transformation constants. Chunk sizes bound how much straight
// iteration runs between scheduling points; the unroll cutoffs bound
// code growth.
const (
	minChunk            = 5_000
	maxChunk            = 200_000
	defaultChunk        = 50_000
	largeRange          = 1_000_000
	veryLargeRange      = 10_000_000
	unrollThreshold     = 16
	partialUnrollFactor = 4
	minParallelSize     = 1_000

	chunkAdjust       = 0.8
	memScale          = 0.6
	pressureThreshold = 0.8
)

// loopBody summarizes the statements of one loop body for the optimizer
// gates. break and continue are attributed to this loop only; nested
// loops own theirs.
type loopBody struct {
	hasBreak    bool
	hasContinue bool
	hasReturn   bool
	hasDef      bool
}

func scanLoopBody(stmts []ast.Stmt) loopBody {
	var m loopBody
	scanLoopStmts(stmts, &m, true)
	return m
}

func scanLoopStmts(stmts []ast.Stmt, m *loopBody, direct bool) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.Break:
			if direct {
				m.hasBreak = true
			}
		case *ast.Continue:
			if direct {
				m.hasContinue = true
			}
		case *ast.Return:
			m.hasReturn = true
		case *ast.FunctionDef, *ast.ClassDef:
			m.hasDef = true
		case *ast.If:
			scanLoopStmts(st.Body, m, direct)
			scanLoopStmts(st.OrElse, m, direct)
		case *ast.For:
			scanLoopStmts(st.Body, m, false)
			scanLoopStmts(st.OrElse, m, direct)
		case *ast.While:
			scanLoopStmts(st.Body, m, false)
			scanLoopStmts(st.OrElse, m, direct)
		case *ast.Try:
			scanLoopStmts(st.Body, m, direct)
			for _, h := range st.Handlers {
				scanLoopStmts(h.Body, m, direct)
			}
			scanLoopStmts(st.OrElse, m, direct)
			scanLoopStmts(st.FinalBody, m, direct)
		case *ast.With:
			scanLoopStmts(st.Body, m, direct)
		}
	}
}

// constInt extracts a compile-time integer from a literal or a negated
// literal.
func constInt(e ast.Expr) (int64, bool) {
	switch x := e.(type) {
	case *ast.Int:
		return x.Value, true
	case *ast.UnaryOp:
		if x.Op == "-" {
			if lit, ok := x.Operand.(*ast.Int); ok {
				return -lit.Value, true
			}
		}
	}
	return 0, false
}

// constRange extracts compile-time range bounds from a range call.
func constRange(call *ast.Call) (start, stop, step int64, ok bool) {
	vals := make([]int64, len(call.Args))
	for i, a := range call.Args {
		v, isConst := constInt(a)
		if !isConst {
			return 0, 0, 0, false
		}
		vals[i] = v
	}
	switch len(vals) {
	case 1:
		return 0, vals[0], 1, true
	case 2:
		return vals[0], vals[1], 1, true
	case 3:
		return vals[0], vals[1], vals[2], true
	default:
		return 0, 0, 0, false
	}
}

// iterCount computes how many times a range loop runs.
func iterCount(start, stop, step int64) int64 {
	if step == 0 {
		return 0
	}
	if step > 0 {
		if stop <= start {
			return 0
		}
		return (stop - start + step - 1) / step
	}
	if stop >= start {
		return 0
	}
	return (start - stop + (-step) - 1) / (-step)
}

// prevPow2 is the largest power of two not exceeding n.
func prevPow2(n int64) int64 {
	p := int64(1)
	for p*2 <= n {
		p *= 2
	}
	return p
}

func clampChunk(n int64) int64 {
	if n < minChunk {
		return minChunk
	}
	if n > maxChunk {
		return maxChunk
	}
	return n
}

// baseChunkSize is the tier table mapping a loop's total iteration count
// to an inner chunk size, before pressure scaling.
func baseChunkSize(n int64) int64 {
	switch {
	case n <= minChunk:
		return minChunk
	case n <= maxChunk:
		return n
	case n <= largeRange:
		return clampChunk(prevPow2(n))
	case n <= veryLargeRange:
		scaled := float64(defaultChunk) * math.Max(1, math.Sqrt(float64(n))/50)
		return clampChunk(int64(scaled))
	default:
		return maxChunk
	}
}

// chunkSize picks the inner iteration count for a chunked loop of the
// given total size, then scales it down under memory pressure and rounds
// it up to a multiple of the partial unroll factor.
func chunkSize(n int64) int64 {
	size := baseChunkSize(n)
	if ratio := runtime.MemoryPressure(); ratio > pressureThreshold {
		scale := (1 - (ratio-pressureThreshold)/(1-pressureThreshold)) * memScale
		size = int64(float64(size) * scale)
		if size < minChunk {
			size = minChunk
		}
	}
	size = int64(float64(size) * chunkAdjust)
	if rem := size % partialUnrollFactor; rem != 0 {
		size += partialUnrollFactor - rem
	}
	return size
}

// lowerRangeFor lowers a for-over-range statement. Constant headers walk
// the optimizer's decision tree under the configured level: parallel
// dispatch, flattening, full or partial unrolling, chunking, and finally
// the canonical loop whose condition selects < or > by the step's sign.
func (c *Context) lowerRangeFor(s *ast.For, call *ast.Call) error {
	meta := scanLoopBody(s.Body)
	cs, ce, cstep, isConst := constRange(call)

	if isConst && cstep != 0 && !meta.hasBreak && !meta.hasContinue {
		n := iterCount(cs, ce, cstep)
		if n == 0 {
			// The body never runs; only the else clause does.
			c.pushScope(ScopeBlock)
			err := c.block(s.OrElse)
			c.popScope()
			return err
		}
		if c.opts.OptLevel >= OptParallel && c.inModuleScope() &&
			n >= minParallelSize && len(s.OrElse) == 0 &&
			!meta.hasReturn && !meta.hasDef {
			if target, ok := s.Target.(*ast.Name); ok {
				return c.parallelizeLoop(s, target.ID, cs, ce, cstep)
			}
		}
		if c.opts.OptLevel >= OptChunk {
			if inner, ok := c.flattenCandidate(s, cs, ce, cstep, meta); ok {
				return c.flattenLoops(s, inner)
			}
		}
		if c.opts.OptLevel >= OptUnroll && n <= unrollThreshold {
			return c.fullUnroll(s, cs, cstep, n)
		}
		if c.opts.OptLevel >= OptUnroll && n <= 500 && n%partialUnrollFactor == 0 {
			return c.partialUnroll(s, cs, ce, cstep)
		}
		if c.opts.OptLevel >= OptChunk && n > minChunk {
			return c.chunkedLoop(s, cs, ce, cstep, chunkSize(n))
		}
	} else if !isConst && c.opts.OptLevel >= OptChunk &&
		!meta.hasBreak && !meta.hasContinue {
		start, stop, step, err := c.rangeArgs(call)
		if err != nil {
			return err
		}
		return c.chunkedLoopDyn(s, start, stop, step, chunkSize(defaultChunk))
	}

	start, stop, step, err := c.rangeArgs(call)
	if err != nil {
		return err
	}
	f, err := c.beginForCounted(s, start, stop, step, func(i ir.Value) (value, error) {
		return value{i, types.Int}, nil
	})
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

// fullUnroll replicates the body once per iteration with the loop
// variable bound to its precomputed value, each copy followed by a
// continuation block.
func (c *Context) fullUnroll(s *ast.For, start, step, n int64) error {
	c.pushScope(ScopeLoop)
	for k := int64(0); k < n; k++ {
		iv := value{ir.ConstInt(ir.I64, start+k*step), types.Int}
		if err := c.bindTarget(s.Target, iv); err != nil {
			c.popScope()
			return err
		}
		if err := c.block(s.Body); err != nil {
			c.popScope()
			return err
		}
		cont := c.fn.irFn.NewBlock("unroll.cont")
		c.seal(cont)
		c.b.SetInsertPoint(cont)
	}
	c.popScope()
	c.pushScope(ScopeBlock)
	err := c.block(s.OrElse)
	c.popScope()
	return err
}

// partialUnroll keeps the loop but advances by step * factor, with the
// body replicated once per offset.
func (c *Context) partialUnroll(s *ast.For, start, stop, step int64) error {
	bigStep := step * partialUnrollFactor
	f, err := c.beginForCounted(s,
		ir.ConstInt(ir.I64, start), ir.ConstInt(ir.I64, stop), ir.ConstInt(ir.I64, bigStep),
		func(i ir.Value) (value, error) {
			return value{i, types.Int}, nil
		})
	if err != nil {
		return err
	}
	if err := c.block(s.Body); err != nil {
		return err
	}
	for k := int64(1); k < partialUnrollFactor; k++ {
		if c.b.InsertBlock().Terminated() {
			break
		}
		i := c.b.Load(ir.I64, f.cell)
		offset := c.b.Add(i, ir.ConstInt(ir.I64, k*step))
		if err := c.bindTarget(s.Target, value{offset, types.Int}); err != nil {
			return err
		}
		if err := c.block(s.Body); err != nil {
			return err
		}
	}
	c.startForElse(f)
	if err := c.block(s.OrElse); err != nil {
		return err
	}
	c.finishFor(f)
	return nil
}

// chunkedLoop emits the two-level loop for a constant range: an outer
// loop advancing chunk by chunk and an inner per-iteration loop bounded
// by min(counter + chunk, stop).
func (c *Context) chunkedLoop(s *ast.For, start, stop, step, chunk int64) error {
	return c.chunkedLoopDyn(s,
		ir.ConstInt(ir.I64, start), ir.ConstInt(ir.I64, stop), ir.ConstInt(ir.I64, step), chunk)
}

func (c *Context) chunkedLoopDyn(s *ast.For, start, stop, step ir.Value, chunk int64) error {
	outer := c.b.AllocaInEntry(ir.I64, "chunk")
	inner := c.b.AllocaInEntry(ir.I64, "i")
	c.b.Store(start, outer)

	chunkCond := c.fn.irFn.NewBlock("chunk.cond")
	chunkBody := c.fn.irFn.NewBlock("chunk.body")
	innerCond := c.fn.irFn.NewBlock("inner.cond")
	innerBody := c.fn.irFn.NewBlock("inner.body")
	innerInc := c.fn.irFn.NewBlock("inner.inc")
	chunkInc := c.fn.irFn.NewBlock("chunk.inc")
	elseB := c.fn.irFn.NewBlock("for.else")
	end := c.fn.irFn.NewBlock("for.end")
	pos := c.b.ICmp(ir.PredGT, step, zeroI64())
	c.b.Br(chunkCond)

	c.b.SetInsertPoint(chunkCond)
	ov := c.b.Load(ir.I64, outer)
	up := c.b.ICmp(ir.PredLT, ov, stop)
	down := c.b.ICmp(ir.PredGT, ov, stop)
	c.b.CondBr(c.b.Select(pos, up, down), chunkBody, elseB)

	// chunk end = min(counter + chunk*step, stop), max for negative
	// steps.
	c.b.SetInsertPoint(chunkBody)
	ov = c.b.Load(ir.I64, outer)
	span := c.b.Mul(ir.ConstInt(ir.I64, chunk), step)
	rawEnd := c.b.Add(ov, span)
	below := c.b.ICmp(ir.PredLT, rawEnd, stop)
	above := c.b.ICmp(ir.PredGT, rawEnd, stop)
	clamped := c.b.Select(c.b.Select(pos, below, above), rawEnd, stop)
	c.b.Store(ov, inner)
	c.b.Br(innerCond)

	c.b.SetInsertPoint(innerCond)
	iv := c.b.Load(ir.I64, inner)
	iUp := c.b.ICmp(ir.PredLT, iv, clamped)
	iDown := c.b.ICmp(ir.PredGT, iv, clamped)
	c.b.CondBr(c.b.Select(pos, iUp, iDown), innerBody, chunkInc)

	c.b.SetInsertPoint(innerBody)
	c.pushScope(ScopeLoop)
	c.pushLoop(innerInc, end)
	cur := c.b.Load(ir.I64, inner)
	if err := c.bindTarget(s.Target, value{cur, types.Int}); err != nil {
		return err
	}
	if err := c.block(s.Body); err != nil {
		return err
	}
	c.popLoop()
	c.popScope()
	c.seal(innerInc)

	c.b.SetInsertPoint(innerInc)
	c.b.Store(c.b.Add(c.b.Load(ir.I64, inner), step), inner)
	c.b.Br(innerCond)

	c.b.SetInsertPoint(chunkInc)
	c.b.Store(clamped, outer)
	c.b.Br(chunkCond)

	c.b.SetInsertPoint(elseB)
	c.pushScope(ScopeBlock)
	if err := c.block(s.OrElse); err != nil {
		return err
	}
	c.popScope()
	c.seal(end)
	c.b.SetInsertPoint(end)
	return nil
}

// flatInner describes the inner loop of a flattenable nest.
type flatInner struct {
	s                                *ast.For
	start, stop, step                int64
	outerStart, outerStop, outerStep int64
}

// flattenCandidate recognizes a two-deep nest of constant, ascending
// range loops whose outer body is exactly the inner loop.
func (c *Context) flattenCandidate(s *ast.For, os, oe, ostep int64, meta loopBody) (*flatInner, bool) {
	if len(s.Body) != 1 || len(s.OrElse) != 0 || ostep <= 0 || oe <= os {
		return nil, false
	}
	innerFor, ok := s.Body[0].(*ast.For)
	if !ok || len(innerFor.OrElse) != 0 {
		return nil, false
	}
	call, ok := innerFor.Iter.(*ast.Call)
	if !ok || !c.isRangeCall(call) {
		return nil, false
	}
	is, ie, istep, isConst := constRange(call)
	if !isConst || istep <= 0 || ie <= is {
		return nil, false
	}
	if _, ok := s.Target.(*ast.Name); !ok {
		return nil, false
	}
	if _, ok := innerFor.Target.(*ast.Name); !ok {
		return nil, false
	}
	im := scanLoopBody(innerFor.Body)
	if im.hasBreak || im.hasContinue {
		return nil, false
	}
	return &flatInner{
		s: innerFor, start: is, stop: ie, step: istep,
		outerStart: os, outerStop: oe, outerStep: ostep,
	}, true
}

// flattenLoops merges a two-deep range nest into one loop over a pair of
// index cells: every step advances the inner index, and when it reaches
// its stop it resets and the outer index advances.
func (c *Context) flattenLoops(s *ast.For, in *flatInner) error {
	outerCell := c.b.AllocaInEntry(ir.I64, "outer")
	innerCell := c.b.AllocaInEntry(ir.I64, "inner")
	c.b.Store(ir.ConstInt(ir.I64, in.outerStart), outerCell)
	c.b.Store(ir.ConstInt(ir.I64, in.start), innerCell)

	cond := c.fn.irFn.NewBlock("flat.cond")
	body := c.fn.irFn.NewBlock("flat.body")
	inc := c.fn.irFn.NewBlock("flat.inc")
	end := c.fn.irFn.NewBlock("flat.end")
	c.b.Br(cond)

	c.b.SetInsertPoint(cond)
	ov := c.b.Load(ir.I64, outerCell)
	c.b.CondBr(c.b.ICmp(ir.PredLT, ov, ir.ConstInt(ir.I64, in.outerStop)), body, end)

	c.b.SetInsertPoint(body)
	c.pushScope(ScopeLoop)
	c.pushLoop(inc, end)
	if err := c.bindTarget(s.Target, value{c.b.Load(ir.I64, outerCell), types.Int}); err != nil {
		return err
	}
	if err := c.bindTarget(in.s.Target, value{c.b.Load(ir.I64, innerCell), types.Int}); err != nil {
		return err
	}
	if err := c.block(in.s.Body); err != nil {
		return err
	}
	c.popLoop()
	c.popScope()
	c.seal(inc)

	c.b.SetInsertPoint(inc)
	ni := c.b.Add(c.b.Load(ir.I64, innerCell), ir.ConstInt(ir.I64, in.step))
	wrapped := c.b.ICmp(ir.PredGE, ni, ir.ConstInt(ir.I64, in.stop))
	c.b.Store(c.b.Select(wrapped, ir.ConstInt(ir.I64, in.start), ni), innerCell)
	ov = c.b.Load(ir.I64, outerCell)
	no := c.b.Add(ov, ir.ConstInt(ir.I64, in.outerStep))
	c.b.Store(c.b.Select(wrapped, no, ov), outerCell)
	c.b.Br(cond)

	c.b.SetInsertPoint(end)
	return nil
}

// parallelizeLoop synthesizes a body function taking the loop index and
// hands the range to the runtime worker pool. The loop variable is the
// body function's parameter, so workers never race on it.
func (c *Context) parallelizeLoop(s *ast.For, target string, start, stop, step int64) error {
	name := fmt.Sprintf("parallel_body_%d", c.anon)
	c.anon++
	body := c.mod.NewFunction(name, ir.NewSignature(ir.Void, ir.I64), target)
	fi := &funcInfo{
		name:    name,
		local:   name,
		irFn:    body,
		params:  []paramSpec{{name: target, t: types.Int, irt: ir.I64}},
		retType: types.Void,
		retIR:   ir.Void,
	}

	savedFn, savedScope, savedLoops := c.fn, c.cur, c.loops
	savedBlock := c.b.InsertBlock()
	c.fn = fi
	c.loops = nil
	c.cur = c.pushScopeRaw(ScopeFunction, 0)
	entry := body.NewBlock("entry")
	c.b.SetInsertPoint(entry)
	cell := c.b.AllocaInEntry(ir.I64, target)
	c.b.Store(body.Params[0], cell)
	c.define(target, &Slot{Name: target, Type: types.Int, IRType: ir.I64, Ptr: cell})
	err := c.block(s.Body)
	if err == nil && !c.b.InsertBlock().Terminated() {
		c.b.RetVoid()
	}
	c.popScope()
	c.fn, c.cur, c.loops = savedFn, savedScope, savedLoops
	c.b.SetInsertPoint(savedBlock)
	if err != nil {
		return err
	}

	c.b.Call(c.extern("parallel_range_for_each"),
		ir.ConstInt(ir.I64, start), ir.ConstInt(ir.I64, stop), ir.ConstInt(ir.I64, step), body)
	return nil
}
