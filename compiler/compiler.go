// Package compiler lowers a type-checked module to SSA IR.
//
// The compilation context owns the IR module under construction, a scope
// arena tracking variable cells, the loop stack, the function registry,
// and the exception-state cell. Two frontends drive statement lowering: a
// recursive one and a work-stack one that survives deeply nested input.
// Both produce identical IR.
package compiler

import (
	stderrors "errors"

	"github.com/rs/zerolog"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/errors"
	"github.com/cheetah-lang/cheetah/ir"
	"github.com/cheetah-lang/cheetah/token"
	"github.com/cheetah-lang/cheetah/typecheck"
	"github.com/cheetah-lang/cheetah/types"
)

// Optimization levels for the loop optimizer.
const (
	OptNone     = 0 // canonical loops only
	OptUnroll   = 1 // + full and partial unrolling
	OptChunk    = 2 // + chunking and nested-loop flattening
	OptParallel = 3 // + parallel dispatch of large constant ranges
)

// Options configure one compilation.
type Options struct {
	Filename string
	Logger   zerolog.Logger
	OptLevel int

	// Recursive selects the recursive statement frontend instead of the
	// default work-stack one. The two emit identical IR.
	Recursive bool
}

// Compile lowers a checked module to IR. The env must be the environment
// produced by typecheck.Check on the same module. On failure the returned
// error is an *errors.CompileError or *errors.CompileErrors; the IR module
// is still returned and every emitted block is well formed.
func Compile(module *ast.Module, env *typecheck.Env, opts Options) (*ir.Module, error) {
	name := opts.Filename
	if name == "" {
		name = "main"
	}
	c := newContext(name, env, opts)

	// Top-level functions and classes are declared before any body is
	// lowered so mutual recursion resolves.
	for _, stmt := range module.Stmts {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			c.declareFunction(s, s.Name)
		case *ast.ClassDef:
			c.declareClass(s)
		}
	}
	c.declareModuleGlobals(module.Stmts)

	for _, stmt := range module.Stmts {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			if fi, ok := c.funcs[s.Name]; ok {
				if err := c.lowerFunctionBody(fi); err != nil {
					c.report(s.Pos(), err)
				}
			}
		case *ast.ClassDef:
			if err := c.lowerClassBody(s); err != nil {
				c.report(s.Pos(), err)
			}
		}
	}

	c.lowerMain(module)

	return c.mod, c.errs.ToError()
}

// declareModuleGlobals creates the IR global for every name assigned at
// module scope. Function bodies are lowered before the entry function,
// so the globals they reference must exist up front. The walk descends
// into control-flow blocks but not into nested definitions, whose
// assignments are locals.
func (c *Context) declareModuleGlobals(stmts []ast.Stmt) {
	var names []string
	seen := map[string]bool{}
	collect := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	var target func(e ast.Expr)
	target = func(e ast.Expr) {
		switch t := e.(type) {
		case *ast.Name:
			collect(t.ID)
		case *ast.Tuple:
			for _, el := range t.Elts {
				target(el)
			}
		case *ast.List:
			for _, el := range t.Elts {
				target(el)
			}
		case *ast.Starred:
			target(t.Value)
		}
	}
	var walk func(ss []ast.Stmt)
	walk = func(ss []ast.Stmt) {
		for _, s := range ss {
			switch st := s.(type) {
			case *ast.Assign:
				if _, isLambda := st.Value.(*ast.Lambda); isLambda && len(st.Targets) == 1 {
					if _, isName := st.Targets[0].(*ast.Name); isName {
						// Becomes a named function, not a variable slot.
						continue
					}
				}
				for _, t := range st.Targets {
					target(t)
				}
			case *ast.AugAssign:
				target(st.Target)
			case *ast.AnnAssign:
				target(st.Target)
			case *ast.For:
				target(st.Target)
				walk(st.Body)
				walk(st.OrElse)
			case *ast.While:
				walk(st.Body)
				walk(st.OrElse)
			case *ast.If:
				walk(st.Body)
				walk(st.OrElse)
			case *ast.Try:
				walk(st.Body)
				for _, h := range st.Handlers {
					if h.Name != "" {
						collect(h.Name)
					}
					walk(h.Body)
				}
				walk(st.OrElse)
				walk(st.FinalBody)
			case *ast.With:
				for _, item := range st.Items {
					if item.Optional != nil {
						target(item.Optional)
					}
				}
				walk(st.Body)
			}
		}
	}
	walk(stmts)
	for _, name := range names {
		if _, ok := c.funcs[name]; ok {
			continue
		}
		t := types.Any
		if vt, ok := c.env.LookupVariable(name); ok {
			t = vt
		}
		c.ensureGlobal(name, t)
	}
}

// lowerMain compiles the top-level statements into the module entry
// function. Module-scope variables become IR globals.
func (c *Context) lowerMain(module *ast.Module) {
	main := c.mod.NewFunction("main", ir.NewSignature(ir.I64))
	entry := main.NewBlock("entry")
	c.b.SetInsertPoint(entry)
	c.fn = &funcInfo{name: "main", irFn: main, retIR: ir.I64}

	for _, stmt := range module.Stmts {
		switch stmt.(type) {
		case *ast.FunctionDef, *ast.ClassDef:
			continue // already lowered
		}
		c.stmt(stmt)
	}

	if !c.b.InsertBlock().Terminated() {
		c.b.Ret(ir.ConstInt(ir.I64, 0))
	}
}

// stmt lowers one statement through the configured frontend, reporting
// and recovering from per-statement failures: the scope and loop stacks
// are restored and emission resumes in a fresh block so later statements
// still compile.
func (c *Context) stmt(s ast.Stmt) {
	savedScope, savedLoops := c.cur, len(c.loops)
	var err error
	if c.opts.Recursive {
		err = c.compileStmt(s)
	} else {
		err = c.runTasks([]task{{kind: taskExecute, stmt: s}})
	}
	if err != nil {
		c.report(s.Pos(), err)
		c.cur = savedScope
		c.loops = c.loops[:savedLoops]
		if c.b.InsertBlock().Terminated() {
			cont := c.fn.irFn.NewBlock("recover")
			c.b.SetInsertPoint(cont)
		}
	}
}

// block lowers a statement list through the configured frontend.
func (c *Context) block(stmts []ast.Stmt) error {
	if c.opts.Recursive {
		return c.compileBlock(stmts)
	}
	return c.runTasks([]task{{kind: taskExecuteBlock, block: stmts}})
}

func (c *Context) report(pos token.Position, err error) {
	ce := &errors.CompileError{
		Code:     codeFor(err),
		Message:  err.Error(),
		Filename: c.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
	}
	var unk *unknownName
	if stderrors.As(err, &unk) {
		ce.Suggestions = errors.SuggestSimilar(unk.Name, c.visibleNames())
	}
	c.log.Error().Err(err).Int("line", ce.Line).Msg("error compiling statement")
	c.errs.Add(ce)
}
