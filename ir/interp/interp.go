// Package interp executes ir modules directly. It resolves external
// declarations through a registered symbol table, which is how compiled
// programs reach the tagged-value runtime.
package interp

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cheetah-lang/cheetah/ir"
)

// Extern is a host function callable from compiled code. Arguments and
// results are boxed: i64 as int64, f64 as float64, i1 as bool, pointers
// as opaque handles. Function-pointer arguments arrive as Closure values.
type Extern func(args []any) any

// Closure is what an extern receives for a function-pointer argument. It
// re-enters the engine when invoked. The alias keeps the shape assertable
// without importing this package.
type Closure = func(args ...any) any

// Engine runs one module. It is not safe for concurrent use; the
// parallelism a compiled program observes lives behind extern symbols.
type Engine struct {
	mod     *ir.Module
	symbols map[string]Extern
	globals map[*ir.Global]*word
	log     zerolog.Logger
}

type word struct {
	i   int64
	f   float64
	ref any
}

// ErrHalt signals a deliberate early stop requested by an extern.
type haltError struct{ code int }

func (e *haltError) Error() string { return fmt.Sprintf("halt %d", e.code) }

// Halt returns a value an extern can panic with to stop execution.
func Halt(code int) error { return &haltError{code: code} }

// New creates an engine for mod.
func New(mod *ir.Module, log zerolog.Logger) *Engine {
	return &Engine{
		mod:     mod,
		symbols: map[string]Extern{},
		globals: map[*ir.Global]*word{},
		log:     log,
	}
}

// Register maps an external symbol name to its host implementation.
func (e *Engine) Register(name string, fn Extern) {
	e.symbols[name] = fn
}

// RegisterAll registers a whole symbol table.
func (e *Engine) RegisterAll(table map[string]func(args []any) any) {
	for name, fn := range table {
		e.symbols[name] = fn
	}
}

// resolve finds the implementation of an extern. Mangled duplicates such
// as "range_1.3" resolve to their base symbol "range_1".
func (e *Engine) resolve(name string) (Extern, error) {
	if fn, ok := e.symbols[name]; ok {
		return fn, nil
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		if fn, ok := e.symbols[name[:i]]; ok {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("undefined symbol %q", name)
}

// Run executes the named function with no arguments and returns its
// result as a boxed value (nil for void).
func (e *Engine) Run(ctx context.Context, entry string) (any, error) {
	fn, ok := e.mod.Func(entry)
	if !ok {
		return nil, fmt.Errorf("undefined function %q", entry)
	}
	e.log.Debug().Str("module", e.mod.Name).Str("entry", entry).Msg("executing")
	w, err := e.call(ctx, fn, nil)
	if err != nil {
		return nil, err
	}
	return unbox(w, fn.Sig.Return), nil
}

func (e *Engine) global(g *ir.Global) *word {
	if w, ok := e.globals[g]; ok {
		return w
	}
	w := &word{}
	if g.Init != nil {
		*w = constWord(g.Init)
	}
	e.globals[g] = w
	return w
}

func constWord(c *ir.Const) word {
	t := c.Type()
	switch {
	case t.IsFloat():
		return word{f: c.Flt}
	case t.Kind == ir.KindPtr && c.Str != "":
		return word{ref: c.Str}
	case t.Kind == ir.KindPtr:
		return word{}
	default:
		return word{i: c.Int}
	}
}

// frame is one activation record.
type frame struct {
	values map[ir.Value]word
}

func (e *Engine) call(ctx context.Context, fn *ir.Function, args []word) (word, error) {
	if fn.Extern {
		return e.callExtern(ctx, fn, args)
	}
	if len(fn.Blocks) == 0 {
		return word{}, fmt.Errorf("function %q has no body", fn.Name)
	}
	fr := &frame{values: map[ir.Value]word{}}
	for i, p := range fn.Params {
		if i < len(args) {
			fr.values[p] = args[i]
		}
	}

	block := fn.Entry()
	var prev *ir.Block
	for {
		if err := ctx.Err(); err != nil {
			return word{}, err
		}
		next, ret, done, err := e.execBlock(ctx, fr, block, prev)
		if err != nil {
			return word{}, err
		}
		if done {
			return ret, nil
		}
		prev, block = block, next
	}
}

func (e *Engine) execBlock(ctx context.Context, fr *frame, block, prev *ir.Block) (*ir.Block, word, bool, error) {
	// Phi nodes read their incoming values against the predecessor before
	// any non-phi instruction in the block runs.
	for _, in := range block.Instrs {
		if in.Op != ir.OpPhi {
			break
		}
		found := false
		for _, inc := range in.Incoming {
			if inc.Block == prev {
				fr.values[in] = e.eval(fr, inc.Value)
				found = true
				break
			}
		}
		if !found {
			return nil, word{}, false, fmt.Errorf("phi in %s has no edge from predecessor", block.Name)
		}
	}

	for _, in := range block.Instrs {
		switch in.Op {
		case ir.OpPhi:
			continue
		case ir.OpBr:
			return in.Blocks[0], word{}, false, nil
		case ir.OpCondBr:
			if e.eval(fr, in.Args[0]).i != 0 {
				return in.Blocks[0], word{}, false, nil
			}
			return in.Blocks[1], word{}, false, nil
		case ir.OpRet:
			if len(in.Args) == 0 {
				return nil, word{}, true, nil
			}
			return nil, e.eval(fr, in.Args[0]), true, nil
		default:
			w, err := e.exec(ctx, fr, in)
			if err != nil {
				return nil, word{}, false, err
			}
			fr.values[in] = w
		}
	}
	return nil, word{}, false, fmt.Errorf("block %s fell off the end without a terminator", block.Name)
}

func (e *Engine) eval(fr *frame, v ir.Value) word {
	switch val := v.(type) {
	case *ir.Const:
		return constWord(val)
	case *ir.Global:
		return word{ref: e.global(val)}
	case *ir.Function:
		return word{ref: val}
	default:
		return fr.values[v]
	}
}

func (e *Engine) exec(ctx context.Context, fr *frame, in *ir.Instr) (word, error) {
	switch in.Op {
	case ir.OpAlloca:
		return word{ref: &word{}}, nil
	case ir.OpLoad:
		cell, ok := e.eval(fr, in.Args[0]).ref.(*word)
		if !ok {
			return word{}, fmt.Errorf("load from non-pointer in %s", in.Parent().Name)
		}
		return *cell, nil
	case ir.OpStore:
		cell, ok := e.eval(fr, in.Args[1]).ref.(*word)
		if !ok {
			return word{}, fmt.Errorf("store to non-pointer in %s", in.Parent().Name)
		}
		*cell = e.eval(fr, in.Args[0])
		return word{}, nil
	case ir.OpGEP:
		// Cells are single slots; only a zero offset is addressable.
		if e.eval(fr, in.Args[1]).i != 0 {
			return word{}, fmt.Errorf("non-zero gep offset in %s", in.Parent().Name)
		}
		return e.eval(fr, in.Args[0]), nil
	case ir.OpCall:
		args := make([]word, len(in.Args))
		for i, a := range in.Args {
			args[i] = e.eval(fr, a)
		}
		return e.call(ctx, in.Callee, args)
	case ir.OpSelect:
		if e.eval(fr, in.Args[0]).i != 0 {
			return e.eval(fr, in.Args[1]), nil
		}
		return e.eval(fr, in.Args[2]), nil
	case ir.OpICmp:
		return icmp(in.Pred, e.eval(fr, in.Args[0]).i, e.eval(fr, in.Args[1]).i), nil
	case ir.OpFCmp:
		return fcmp(in.Pred, e.eval(fr, in.Args[0]).f, e.eval(fr, in.Args[1]).f), nil
	case ir.OpBitcast, ir.OpIntToPtr, ir.OpPtrToInt:
		return e.eval(fr, in.Args[0]), nil
	case ir.OpSIToFP:
		return word{f: float64(e.eval(fr, in.Args[0]).i)}, nil
	case ir.OpFPToSI:
		return word{i: int64(e.eval(fr, in.Args[0]).f)}, nil
	case ir.OpZExt, ir.OpTrunc:
		return e.eval(fr, in.Args[0]), nil
	}

	x := e.eval(fr, in.Args[0])
	y := e.eval(fr, in.Args[1])
	switch in.Op {
	case ir.OpAdd:
		return word{i: x.i + y.i}, nil
	case ir.OpSub:
		return word{i: x.i - y.i}, nil
	case ir.OpMul:
		return word{i: x.i * y.i}, nil
	case ir.OpSDiv:
		if y.i == 0 {
			return word{}, fmt.Errorf("integer division by zero in %s", in.Parent().Name)
		}
		return word{i: x.i / y.i}, nil
	case ir.OpSRem:
		if y.i == 0 {
			return word{}, fmt.Errorf("integer modulo by zero in %s", in.Parent().Name)
		}
		return word{i: x.i % y.i}, nil
	case ir.OpFAdd:
		return word{f: x.f + y.f}, nil
	case ir.OpFSub:
		return word{f: x.f - y.f}, nil
	case ir.OpFMul:
		return word{f: x.f * y.f}, nil
	case ir.OpFDiv:
		return word{f: x.f / y.f}, nil
	case ir.OpFRem:
		return word{f: math.Mod(x.f, y.f)}, nil
	case ir.OpAnd:
		return word{i: x.i & y.i}, nil
	case ir.OpOr:
		return word{i: x.i | y.i}, nil
	case ir.OpXor:
		return word{i: x.i ^ y.i}, nil
	case ir.OpShl:
		return word{i: x.i << uint64(y.i)}, nil
	case ir.OpAShr:
		return word{i: x.i >> uint64(y.i)}, nil
	}
	return word{}, fmt.Errorf("unsupported instruction %s", in.Op)
}

func (e *Engine) callExtern(ctx context.Context, fn *ir.Function, args []word) (word, error) {
	impl, err := e.resolve(fn.Name)
	if err != nil {
		return word{}, err
	}
	boxed := make([]any, len(args))
	for i, a := range args {
		var t *ir.Type
		if i < len(fn.Sig.Params) {
			t = fn.Sig.Params[i]
		} else {
			t = ir.Ptr
		}
		boxed[i] = e.boxArg(ctx, a, t)
	}
	var result any
	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				if halt, ok := r.(*haltError); ok {
					err = halt
					return
				}
				err = fmt.Errorf("runtime fault in %s: %v", fn.Name, r)
			}
		}()
		result = impl(boxed)
		return nil
	}()
	if err != nil {
		return word{}, err
	}
	return box(result, fn.Sig.Return), nil
}

// boxArg converts a machine word to the host representation. Function
// pointers become closures that call back into the engine.
func (e *Engine) boxArg(ctx context.Context, w word, t *ir.Type) any {
	if target, ok := w.ref.(*ir.Function); ok {
		return Closure(func(args ...any) any {
			words := make([]word, len(args))
			for i, a := range args {
				var pt *ir.Type
				if i < len(target.Sig.Params) {
					pt = target.Sig.Params[i]
				} else {
					pt = ir.I64
				}
				words[i] = box(a, pt)
			}
			out, err := e.call(ctx, target, words)
			if err != nil {
				panic(err)
			}
			return unbox(out, target.Sig.Return)
		})
	}
	return unbox(w, t)
}

func unbox(w word, t *ir.Type) any {
	switch {
	case t == nil || t.Kind == ir.KindVoid:
		return nil
	case t.Kind == ir.KindI1:
		return w.i != 0
	case t.IsFloat():
		return w.f
	case t.Kind == ir.KindPtr, t.Kind == ir.KindFunc:
		return w.ref
	default:
		return w.i
	}
}

func box(v any, t *ir.Type) word {
	switch val := v.(type) {
	case nil:
		return word{}
	case bool:
		return word{i: b2i(val)}
	case int:
		return word{i: int64(val)}
	case int64:
		return word{i: val}
	case float64:
		if t != nil && t.IsFloat() {
			return word{f: val}
		}
		return word{f: val, i: int64(val)}
	default:
		return word{ref: v}
	}
}

func b2i(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func icmp(pred ir.Pred, a, b int64) word {
	var r bool
	switch pred {
	case ir.PredEQ:
		r = a == b
	case ir.PredNE:
		r = a != b
	case ir.PredLT:
		r = a < b
	case ir.PredLE:
		r = a <= b
	case ir.PredGT:
		r = a > b
	case ir.PredGE:
		r = a >= b
	}
	return word{i: b2i(r)}
}

func fcmp(pred ir.Pred, a, b float64) word {
	var r bool
	switch pred {
	case ir.PredEQ:
		r = a == b
	case ir.PredNE:
		r = a != b
	case ir.PredLT:
		r = a < b
	case ir.PredLE:
		r = a <= b
	case ir.PredGT:
		r = a > b
	case ir.PredGE:
		r = a >= b
	}
	return word{i: b2i(r)}
}
