package compiler

import (
	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/errz"
	"github.com/cheetah-lang/cheetah/token"
)

// The work-stack frontend drives statement lowering off an explicit LIFO
// stack instead of the Go call stack, so deeply nested input cannot
// overflow it. Control-flow statements decompose into stages: the opening
// stage emits the block graph through the shared frames, the body runs as
// an ExecuteBlock task, and continuation tasks close each region. Both
// frontends call the same frame functions, so the emitted IR is
// identical.
type taskKind int

const (
	taskExecute taskKind = iota
	taskExecuteBlock
	taskProcessFor
	taskProcessWhile
	taskProcessTry
	taskProcessWith
	taskProcessAssign
	taskProcessReturn
	taskProcessFunctionDef
	taskRun
)

// task is one unit of pending work. Exactly one of stmt, block, or run is
// meaningful, selected by kind.
type task struct {
	kind  taskKind
	stmt  ast.Stmt
	block []ast.Stmt
	run   func() error
}

type taskStack struct {
	tasks []task
}

// push schedules tasks so they execute in argument order.
func (st *taskStack) push(ts ...task) {
	for i := len(ts) - 1; i >= 0; i-- {
		st.tasks = append(st.tasks, ts[i])
	}
}

func (st *taskStack) pop() (task, bool) {
	if len(st.tasks) == 0 {
		return task{}, false
	}
	t := st.tasks[len(st.tasks)-1]
	st.tasks = st.tasks[:len(st.tasks)-1]
	return t, true
}

func run(f func() error) task { return task{kind: taskRun, run: f} }

func (c *Context) runTasks(initial []task) error {
	st := &taskStack{}
	st.push(initial...)
	var last ast.Stmt
	savedScope, savedLoops := c.cur, len(c.loops)
	for {
		t, ok := st.pop()
		if !ok {
			return nil
		}
		if t.stmt != nil {
			last = t.stmt
			savedScope, savedLoops = c.cur, len(c.loops)
		}
		if err := c.runTask(t, st); err != nil {
			var pos token.Position
			if last != nil {
				pos = last.Pos()
			}
			c.report(pos, err)
			c.cur, c.loops = savedScope, c.loops[:savedLoops]
			if c.b.InsertBlock().Terminated() {
				c.b.SetInsertPoint(c.fn.irFn.NewBlock("recover"))
			}
		}
	}
}

func (c *Context) runTask(t task, st *taskStack) error {
	switch t.kind {
	case taskExecute:
		return c.execute(t.stmt, st)
	case taskExecuteBlock:
		// Statements after a terminator are unreachable, matching the
		// recursive frontend.
		if len(t.block) == 0 || c.b.InsertBlock().Terminated() {
			return nil
		}
		st.push(
			task{kind: taskExecute, stmt: t.block[0]},
			task{kind: taskExecuteBlock, block: t.block[1:]},
		)
		return nil
	case taskProcessFor:
		return c.processFor(t.stmt.(*ast.For), st)
	case taskProcessWhile:
		return c.processWhile(t.stmt.(*ast.While), st)
	case taskProcessTry:
		return c.processTry(t.stmt.(*ast.Try), st)
	case taskProcessWith:
		return c.processWith(t.stmt.(*ast.With), st)
	case taskProcessAssign:
		return c.lowerAssign(t.stmt.(*ast.Assign))
	case taskProcessReturn:
		return c.lowerReturn(t.stmt.(*ast.Return))
	case taskProcessFunctionDef:
		def := t.stmt.(*ast.FunctionDef)
		fi := c.declareFunction(def, c.qualify(def.Name))
		return c.lowerFunctionBody(fi)
	case taskRun:
		return t.run()
	default:
		return errz.Internalf("unhandled task kind %d", t.kind)
	}
}

// execute dispatches one statement: block-bearing statements become
// staged tasks, everything else lowers directly.
func (c *Context) execute(s ast.Stmt, st *taskStack) error {
	switch stmt := s.(type) {
	case *ast.If:
		f, err := c.beginIf(stmt.Test)
		if err != nil {
			return err
		}
		st.push(
			task{kind: taskExecuteBlock, block: stmt.Body},
			run(func() error { c.startElse(f); return nil }),
			task{kind: taskExecuteBlock, block: stmt.OrElse},
			run(func() error { c.finishIf(f); return nil }),
		)
		return nil
	case *ast.For:
		st.push(task{kind: taskProcessFor, stmt: stmt})
		return nil
	case *ast.While:
		st.push(task{kind: taskProcessWhile, stmt: stmt})
		return nil
	case *ast.Try:
		st.push(task{kind: taskProcessTry, stmt: stmt})
		return nil
	case *ast.With:
		st.push(task{kind: taskProcessWith, stmt: stmt})
		return nil
	case *ast.Assign:
		st.push(task{kind: taskProcessAssign, stmt: stmt})
		return nil
	case *ast.Return:
		st.push(task{kind: taskProcessReturn, stmt: stmt})
		return nil
	case *ast.FunctionDef:
		st.push(task{kind: taskProcessFunctionDef, stmt: stmt})
		return nil
	default:
		return c.lowerSimple(s)
	}
}

// processFor stages the canonical iterable loop. Constant range headers
// fall back to the loop optimizer, which emits the whole construct
// inline.
func (c *Context) processFor(s *ast.For, st *taskStack) error {
	if call, ok := s.Iter.(*ast.Call); ok && c.isRangeCall(call) {
		return c.lowerRangeFor(s, call)
	}
	v, err := c.compileExpr(s.Iter)
	if err != nil {
		return err
	}
	stop, fetch, err := c.forIterPlan(v)
	if err != nil {
		return err
	}
	f, err := c.beginForCounted(s, zeroI64(), stop, oneI64(), fetch)
	if err != nil {
		return err
	}
	st.push(
		task{kind: taskExecuteBlock, block: s.Body},
		run(func() error { c.startForElse(f); return nil }),
		task{kind: taskExecuteBlock, block: s.OrElse},
		run(func() error { c.finishFor(f); return nil }),
	)
	return nil
}

func (c *Context) processWhile(s *ast.While, st *taskStack) error {
	f, err := c.beginWhile(s.Test)
	if err != nil {
		return err
	}
	st.push(
		task{kind: taskExecuteBlock, block: s.Body},
		run(func() error { c.startWhileElse(f); return nil }),
		task{kind: taskExecuteBlock, block: s.OrElse},
		run(func() error { c.finishWhile(f); return nil }),
	)
	return nil
}

func (c *Context) processTry(s *ast.Try, st *taskStack) error {
	f := c.beginTry(s)
	tasks := []task{
		{kind: taskExecuteBlock, block: s.Body},
		run(func() error { c.endTryBody(f); return nil }),
	}
	for i := range s.Handlers {
		tasks = append(tasks,
			run(func() error { return c.startHandler(f, i) }),
			task{kind: taskExecuteBlock, block: s.Handlers[i].Body},
			run(func() error { c.endHandler(f); return nil }),
		)
	}
	tasks = append(tasks,
		run(func() error { c.startTryElse(f); return nil }),
		task{kind: taskExecuteBlock, block: s.OrElse},
		run(func() error { c.startFinally(f); return nil }),
		task{kind: taskExecuteBlock, block: s.FinalBody},
		run(func() error { c.finishTry(f); return nil }),
	)
	st.push(tasks...)
	return nil
}

func (c *Context) processWith(s *ast.With, st *taskStack) error {
	f, err := c.beginWith(s)
	if err != nil {
		return err
	}
	st.push(
		task{kind: taskExecuteBlock, block: s.Body},
		run(func() error { c.finishWith(f); return nil }),
	)
	return nil
}
