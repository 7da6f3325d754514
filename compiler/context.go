package compiler

import (
	stderrors "errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cheetah-lang/cheetah/errors"
	"github.com/cheetah-lang/cheetah/errz"
	"github.com/cheetah-lang/cheetah/ir"
	"github.com/cheetah-lang/cheetah/typecheck"
	"github.com/cheetah-lang/cheetah/types"
)

// Context carries all mutable state of one compilation: the IR module and
// insertion cursor, the scope arena, the loop stack, the function and
// closure-env registries, the type environment, and the exception-state
// cell. It is single-threaded; every lowering operation takes it
// explicitly.
type Context struct {
	mod *ir.Module
	b   *ir.Builder
	env *typecheck.Env
	log zerolog.Logger

	filename string
	opts     Options
	errs     *errors.CompileErrors

	scopes []*Scope
	cur    ScopeID

	loops []loopTargets

	funcs     map[string]*funcInfo
	funcOrder []string
	classes   map[string]*classInfo

	// fn is the function currently being lowered.
	fn *funcInfo

	// excState is the module-wide "exception in flight" cell.
	excState *ir.Global

	externs   map[string]*ir.Function
	externDup int

	anon int
}

type loopTargets struct {
	continueTo *ir.Block
	breakTo    *ir.Block
}

func newContext(filename string, env *typecheck.Env, opts Options) *Context {
	mod := ir.NewModule(filename)
	c := &Context{
		mod:      mod,
		b:        ir.NewBuilder(mod),
		env:      env,
		log:      opts.Logger,
		filename: filename,
		opts:     opts,
		errs:     &errors.CompileErrors{},
		funcs:    map[string]*funcInfo{},
		classes:  map[string]*classInfo{},
		externs:  map[string]*ir.Function{},
	}
	c.cur = c.pushScopeRaw(ScopeModule, -1)
	c.excState = mod.NewGlobal("__exc_state", ir.I1)
	return c
}

// value pairs an IR value with the static type it was lowered under. The
// IR representation follows the type: Int is a raw i64, Float an f64,
// Bool an i1, and everything else a tagged runtime handle.
type value struct {
	v ir.Value
	t types.Type
}

func irTypeOf(t types.Type) *ir.Type {
	switch t.(type) {
	case *types.IntType:
		return ir.I64
	case *types.FloatType:
		return ir.F64
	case *types.BoolType:
		return ir.I1
	case *types.VoidType:
		return ir.Void
	default:
		return ir.Ptr
	}
}

func isTagged(v value) bool { return v.v.Type().Kind == ir.KindPtr }

func zeroI64() ir.Value { return ir.ConstInt(ir.I64, 0) }
func oneI64() ir.Value  { return ir.ConstInt(ir.I64, 1) }

// box lifts a raw scalar into a tagged runtime value. Tagged values pass
// through unchanged.
func (c *Context) box(v value) value {
	switch v.v.Type() {
	case ir.I64:
		return value{c.b.Call(c.extern("from_int"), v.v), v.t}
	case ir.F64:
		return value{c.b.Call(c.extern("from_float"), v.v), v.t}
	case ir.I1:
		return value{c.b.Call(c.extern("from_bool"), v.v), v.t}
	default:
		return v
	}
}

// coerce converts a value to the wanted IR representation, going through
// the runtime for tagged-to-scalar and scalar-to-tagged moves.
func (c *Context) coerce(v value, want *ir.Type) ir.Value {
	have := v.v.Type()
	if have == want || have.Kind == want.Kind {
		return v.v
	}
	switch {
	case want == ir.Ptr:
		return c.box(v).v
	case have == ir.Ptr && want == ir.I64:
		return c.b.Call(c.extern("to_int"), v.v)
	case have == ir.Ptr && want == ir.F64:
		return c.b.Call(c.extern("to_float"), v.v)
	case have == ir.Ptr && want == ir.I1:
		return c.b.Call(c.extern("to_bool"), v.v)
	case have == ir.I64 && want == ir.F64:
		return c.b.SIToFP(v.v)
	case have == ir.F64 && want == ir.I64:
		return c.b.FPToSI(v.v)
	case have == ir.I1 && want == ir.I64:
		return c.b.ZExt(v.v, ir.I64)
	case have == ir.I64 && want == ir.I1:
		return c.b.ICmp(ir.PredNE, v.v, ir.ConstInt(ir.I64, 0))
	case have == ir.I1 && want == ir.F64:
		return c.b.SIToFP(c.b.ZExt(v.v, ir.I64))
	case have == ir.F64 && want == ir.I1:
		return c.b.FCmp(ir.PredNE, v.v, ir.ConstFloat(0))
	}
	return v.v
}

// condition turns a value into an i1 for a conditional branch.
func (c *Context) condition(v value) ir.Value {
	return c.coerce(v, ir.I1)
}

// seal branches to target unless the current block already has a
// terminator. This is the mechanism behind the one-terminator invariant:
// fall-through edges are patched, never duplicated.
func (c *Context) seal(target *ir.Block) {
	if !c.b.InsertBlock().Terminated() {
		c.b.Br(target)
	}
}

// pushLoop records the continue/break targets of an entered loop.
func (c *Context) pushLoop(continueTo, breakTo *ir.Block) {
	c.loops = append(c.loops, loopTargets{continueTo, breakTo})
}

func (c *Context) popLoop() {
	c.loops = c.loops[:len(c.loops)-1]
}

func (c *Context) currentLoop() (loopTargets, bool) {
	if len(c.loops) == 0 {
		return loopTargets{}, false
	}
	return c.loops[len(c.loops)-1], true
}

// extern returns the declared IR function for a runtime ABI symbol,
// declaring it on first use. If a user function already claimed the name,
// the declaration is suffixed; the execution engine resolves suffixed
// names back to the base symbol.
func (c *Context) extern(name string) *ir.Function {
	if fn, ok := c.externs[name]; ok {
		return fn
	}
	sig, ok := externSigs[name]
	if !ok {
		panic("unknown runtime symbol " + name)
	}
	declared := name
	if _, taken := c.mod.Func(name); taken {
		c.externDup++
		declared = fmt.Sprintf("%s.%d", name, c.externDup)
	}
	fn := c.mod.Declare(declared, sig)
	c.externs[name] = fn
	return fn
}

// codeFor maps a lowering failure to its diagnostic code.
func codeFor(err error) errors.ErrorCode {
	var se *errz.StructuredError
	if stderrors.As(err, &se) {
		switch se.Kind {
		case errz.FunctionError:
			return errors.E3001
		case errz.TypeError:
			return errors.E3003
		case errz.TerminatorError:
			return errors.E3004
		}
	}
	return errors.E3002
}
