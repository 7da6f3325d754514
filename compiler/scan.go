package compiler

import (
	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/typecheck"
)

// scanFree computes a function's free variables in first-use order, plus
// the names it declares nonlocal. The capture list of a closure signature
// is built from this scan, so its determinism is what makes property
// "stable capture order" hold.
func scanFree(def *ast.FunctionDef) (free []string, nonlocals []string) {
	sc := &freeScan{
		bound: map[string]struct{}{},
		seen:  map[string]struct{}{},
	}
	for _, p := range def.Params {
		sc.bind(p.Name)
	}
	if def.VarArg != "" {
		sc.bind(def.VarArg)
	}
	if def.KwArg != "" {
		sc.bind(def.KwArg)
	}
	collectAssigned(def.Body, sc)
	sc.scanStmts(def.Body)

	// Nonlocal names are captures even when also assigned locally.
	for _, n := range sc.nonlocals {
		if _, ok := sc.seen[n]; !ok {
			sc.seen[n] = struct{}{}
			sc.free = append(sc.free, n)
		}
	}
	return sc.free, sc.nonlocals
}

type freeScan struct {
	bound     map[string]struct{}
	seen      map[string]struct{}
	free      []string
	nonlocals []string
	globals   map[string]struct{}
}

func (sc *freeScan) bind(name string) { sc.bound[name] = struct{}{} }

func (sc *freeScan) use(name string) {
	if _, ok := sc.bound[name]; ok {
		return
	}
	if typecheck.IsBuiltin(name) {
		return
	}
	if _, ok := sc.seen[name]; ok {
		return
	}
	sc.seen[name] = struct{}{}
	sc.free = append(sc.free, name)
}

// collectAssigned pre-binds every name the body assigns, mirroring the
// rule that assignment anywhere in a function makes a name local. Names
// declared global or nonlocal are exempt. Nested function bodies are
// separate frames and are not descended into here.
func collectAssigned(stmts []ast.Stmt, sc *freeScan) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Assign:
			for _, t := range s.Targets {
				bindTargetNames(t, sc)
			}
		case *ast.AugAssign:
			bindTargetNames(s.Target, sc)
		case *ast.AnnAssign:
			bindTargetNames(s.Target, sc)
		case *ast.For:
			bindTargetNames(s.Target, sc)
			collectAssigned(s.Body, sc)
			collectAssigned(s.OrElse, sc)
		case *ast.While:
			collectAssigned(s.Body, sc)
			collectAssigned(s.OrElse, sc)
		case *ast.If:
			collectAssigned(s.Body, sc)
			collectAssigned(s.OrElse, sc)
		case *ast.With:
			for _, item := range s.Items {
				if item.Optional != nil {
					bindTargetNames(item.Optional, sc)
				}
			}
			collectAssigned(s.Body, sc)
		case *ast.Try:
			collectAssigned(s.Body, sc)
			for _, h := range s.Handlers {
				if h.Name != "" {
					sc.bind(h.Name)
				}
				collectAssigned(h.Body, sc)
			}
			collectAssigned(s.OrElse, sc)
			collectAssigned(s.FinalBody, sc)
		case *ast.FunctionDef:
			sc.bind(s.Name)
		case *ast.ClassDef:
			sc.bind(s.Name)
		case *ast.Global:
			if sc.globals == nil {
				sc.globals = map[string]struct{}{}
			}
			for _, n := range s.Names {
				sc.globals[n] = struct{}{}
				sc.bind(n)
			}
		case *ast.Nonlocal:
			for _, n := range s.Names {
				if !containsName(sc.nonlocals, n) {
					sc.nonlocals = append(sc.nonlocals, n)
				}
			}
		}
	}
}

func bindTargetNames(target ast.Expr, sc *freeScan) {
	switch t := target.(type) {
	case *ast.Name:
		sc.bind(t.ID)
	case *ast.Tuple:
		for _, e := range t.Elts {
			bindTargetNames(e, sc)
		}
	case *ast.List:
		for _, e := range t.Elts {
			bindTargetNames(e, sc)
		}
	case *ast.Starred:
		bindTargetNames(t.Value, sc)
	}
}

func (sc *freeScan) scanStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.ExprStmt:
			sc.scanExpr(s.Value)
		case *ast.Assign:
			sc.scanExpr(s.Value)
			for _, t := range s.Targets {
				sc.scanTarget(t)
			}
		case *ast.AugAssign:
			sc.scanExpr(s.Value)
			sc.scanTarget(s.Target)
		case *ast.AnnAssign:
			if s.Value != nil {
				sc.scanExpr(s.Value)
			}
		case *ast.If:
			sc.scanExpr(s.Test)
			sc.scanStmts(s.Body)
			sc.scanStmts(s.OrElse)
		case *ast.While:
			sc.scanExpr(s.Test)
			sc.scanStmts(s.Body)
			sc.scanStmts(s.OrElse)
		case *ast.For:
			sc.scanExpr(s.Iter)
			sc.scanStmts(s.Body)
			sc.scanStmts(s.OrElse)
		case *ast.Return:
			if s.Value != nil {
				sc.scanExpr(s.Value)
			}
		case *ast.Raise:
			if s.Exc != nil {
				sc.scanExpr(s.Exc)
			}
		case *ast.Try:
			sc.scanStmts(s.Body)
			for _, h := range s.Handlers {
				sc.scanStmts(h.Body)
			}
			sc.scanStmts(s.OrElse)
			sc.scanStmts(s.FinalBody)
		case *ast.With:
			for _, item := range s.Items {
				sc.scanExpr(item.ContextExpr)
			}
			sc.scanStmts(s.Body)
		case *ast.Assert:
			sc.scanExpr(s.Test)
			if s.Msg != nil {
				sc.scanExpr(s.Msg)
			}
		case *ast.Delete:
			for _, t := range s.Targets {
				sc.scanExpr(t)
			}
		case *ast.Match:
			sc.scanExpr(s.Subject)
		case *ast.FunctionDef:
			// A nested frame: whatever it captures that we do not bind
			// becomes our free variable too, so the chain of pointer
			// parameters reaches all the way down.
			nestedFree, _ := scanFree(s)
			for _, n := range nestedFree {
				sc.use(n)
			}
		}
	}
}

// scanTarget records uses inside assignment targets: subscript and
// attribute stores read their base expression.
func (sc *freeScan) scanTarget(target ast.Expr) {
	switch t := target.(type) {
	case *ast.Name:
		// Local by the assignment rule; nothing to record.
	case *ast.Subscript:
		sc.scanExpr(t.Value)
		sc.scanExpr(t.Index)
	case *ast.Attribute:
		sc.scanExpr(t.Value)
	case *ast.Tuple:
		for _, e := range t.Elts {
			sc.scanTarget(e)
		}
	case *ast.List:
		for _, e := range t.Elts {
			sc.scanTarget(e)
		}
	case *ast.Starred:
		sc.scanTarget(t.Value)
	}
}

func (sc *freeScan) scanExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Name:
		sc.use(e.ID)
	case *ast.BinOp:
		sc.scanExpr(e.Left)
		sc.scanExpr(e.Right)
	case *ast.UnaryOp:
		sc.scanExpr(e.Operand)
	case *ast.BoolOp:
		for _, v := range e.Values {
			sc.scanExpr(v)
		}
	case *ast.Compare:
		sc.scanExpr(e.Left)
		for _, cmp := range e.Comparators {
			sc.scanExpr(cmp)
		}
	case *ast.Call:
		sc.scanExpr(e.Func)
		for _, a := range e.Args {
			sc.scanExpr(a)
		}
		for _, kw := range e.Keywords {
			sc.scanExpr(kw.Value)
		}
	case *ast.Attribute:
		sc.scanExpr(e.Value)
	case *ast.Subscript:
		sc.scanExpr(e.Value)
		sc.scanExpr(e.Index)
	case *ast.SliceExpr:
		for _, part := range []ast.Expr{e.Lower, e.Upper, e.Step} {
			if part != nil {
				sc.scanExpr(part)
			}
		}
	case *ast.IfExp:
		sc.scanExpr(e.Test)
		sc.scanExpr(e.Body)
		sc.scanExpr(e.OrElse)
	case *ast.NamedExpr:
		sc.scanExpr(e.Value)
		bindTargetNames(e.Target, sc)
	case *ast.List:
		for _, el := range e.Elts {
			sc.scanExpr(el)
		}
	case *ast.Tuple:
		for _, el := range e.Elts {
			sc.scanExpr(el)
		}
	case *ast.Set:
		for _, el := range e.Elts {
			sc.scanExpr(el)
		}
	case *ast.Dict:
		for i := range e.Keys {
			sc.scanExpr(e.Keys[i])
			sc.scanExpr(e.Values[i])
		}
	case *ast.JoinedStr:
		for _, part := range e.Values {
			sc.scanExpr(part)
		}
	case *ast.FormattedValue:
		sc.scanExpr(e.Value)
	case *ast.Starred:
		sc.scanExpr(e.Value)
	case *ast.Lambda:
		inner := &freeScan{bound: map[string]struct{}{}, seen: map[string]struct{}{}}
		for _, p := range e.Params {
			inner.bind(p.Name)
		}
		inner.scanExpr(e.Body)
		for _, n := range inner.free {
			sc.use(n)
		}
	case *ast.ListComp:
		sc.scanComp(e.Generators, e.Elt, nil)
	case *ast.SetComp:
		sc.scanComp(e.Generators, e.Elt, nil)
	case *ast.GeneratorExp:
		sc.scanComp(e.Generators, e.Elt, nil)
	case *ast.DictComp:
		sc.scanComp(e.Generators, e.Key, e.Value)
	}
}

func (sc *freeScan) scanComp(gens []*ast.Comprehension, a, b ast.Expr) {
	for _, g := range gens {
		sc.scanExpr(g.Iter)
		bindTargetNames(g.Target, sc)
		for _, cond := range g.Ifs {
			sc.scanExpr(cond)
		}
	}
	if a != nil {
		sc.scanExpr(a)
	}
	if b != nil {
		sc.scanExpr(b)
	}
}

func containsName(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}
