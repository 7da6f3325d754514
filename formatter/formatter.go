// Package formatter reprints a parsed module as canonical source.
//
// Output uses four-space indentation, one statement per line, a single
// space around binary operators, and the minimal parentheses needed to
// preserve evaluation order. Formatting a module twice is a fixed point.
package formatter

import (
	"bytes"
	"strings"

	"github.com/cheetah-lang/cheetah/ast"
)

// Format reprints the module as canonical source text. The result always
// ends with a newline unless the module is empty.
func Format(module *ast.Module) string {
	f := &Formatter{}
	f.stmts(module.Stmts, true)
	return f.buf.String()
}

// Formatter holds the output buffer and indentation state while walking
// the tree.
type Formatter struct {
	buf    bytes.Buffer
	indent int
}

func (f *Formatter) writeIndent() {
	f.buf.WriteString(strings.Repeat("    ", f.indent))
}

// stmts prints a statement list at the current indent. At top level a
// blank line separates function and class definitions from their
// neighbors.
func (f *Formatter) stmts(stmts []ast.Stmt, topLevel bool) {
	for i, stmt := range stmts {
		if topLevel && i > 0 && wantsBlankLine(stmt, stmts[i-1]) {
			f.buf.WriteString("\n")
		}
		f.writeIndent()
		f.stmt(stmt)
		f.buf.WriteString("\n")
	}
}

func wantsBlankLine(cur, prev ast.Stmt) bool {
	switch cur.(type) {
	case *ast.FunctionDef, *ast.ClassDef:
		return true
	}
	switch prev.(type) {
	case *ast.FunctionDef, *ast.ClassDef:
		return true
	}
	return false
}

// suite prints a colon, a newline, and an indented body. An empty body
// is printed as a pass statement so the output always reparses.
func (f *Formatter) suite(body []ast.Stmt) {
	f.buf.WriteString(":\n")
	f.indent++
	if len(body) == 0 {
		f.writeIndent()
		f.buf.WriteString("pass\n")
	} else {
		f.stmts(body, false)
	}
	f.indent--
}

// clause prints an indented "else"-style clause header followed by a
// suite.
func (f *Formatter) clause(keyword string, body []ast.Stmt) {
	f.writeIndent()
	f.buf.WriteString(keyword)
	f.suite(body)
}

func (f *Formatter) stmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		f.expr(s.Value, precNone)

	case *ast.Assign:
		for _, t := range s.Targets {
			f.exprList(t)
			f.buf.WriteString(" = ")
		}
		f.exprList(s.Value)

	case *ast.AugAssign:
		f.expr(s.Target, precNone)
		f.buf.WriteString(" " + s.Op + "= ")
		f.exprList(s.Value)

	case *ast.AnnAssign:
		f.expr(s.Target, precNone)
		f.buf.WriteString(": ")
		f.expr(s.Annotation, precNone)
		if s.Value != nil {
			f.buf.WriteString(" = ")
			f.exprList(s.Value)
		}

	case *ast.Return:
		f.buf.WriteString("return")
		if s.Value != nil {
			f.buf.WriteString(" ")
			f.exprList(s.Value)
		}

	case *ast.Pass:
		f.buf.WriteString("pass")
	case *ast.Break:
		f.buf.WriteString("break")
	case *ast.Continue:
		f.buf.WriteString("continue")

	case *ast.Global:
		f.buf.WriteString("global " + strings.Join(s.Names, ", "))
	case *ast.Nonlocal:
		f.buf.WriteString("nonlocal " + strings.Join(s.Names, ", "))

	case *ast.Delete:
		f.buf.WriteString("del ")
		f.commaExprs(s.Targets)

	case *ast.Assert:
		f.buf.WriteString("assert ")
		f.expr(s.Test, precNone)
		if s.Msg != nil {
			f.buf.WriteString(", ")
			f.expr(s.Msg, precNone)
		}

	case *ast.Raise:
		f.buf.WriteString("raise")
		if s.Exc != nil {
			f.buf.WriteString(" ")
			f.expr(s.Exc, precNone)
			if s.Cause != nil {
				f.buf.WriteString(" from ")
				f.expr(s.Cause, precNone)
			}
		}

	case *ast.Import:
		f.buf.WriteString("import ")
		f.aliases(s.Names)

	case *ast.ImportFrom:
		f.buf.WriteString("from " + strings.Repeat(".", s.Level) + s.Module + " import ")
		f.aliases(s.Names)

	case *ast.If:
		f.ifStmt(s, "if ")

	case *ast.While:
		f.buf.WriteString("while ")
		f.expr(s.Test, precNone)
		f.suite(s.Body)
		if len(s.OrElse) > 0 {
			f.clause("else", s.OrElse)
		}
		f.trim()

	case *ast.For:
		f.buf.WriteString("for ")
		f.exprList(s.Target)
		f.buf.WriteString(" in ")
		f.exprList(s.Iter)
		f.suite(s.Body)
		if len(s.OrElse) > 0 {
			f.clause("else", s.OrElse)
		}
		f.trim()

	case *ast.With:
		f.buf.WriteString("with ")
		for i, item := range s.Items {
			if i > 0 {
				f.buf.WriteString(", ")
			}
			f.expr(item.ContextExpr, precNone)
			if item.Optional != nil {
				f.buf.WriteString(" as ")
				f.expr(item.Optional, precNone)
			}
		}
		f.suite(s.Body)
		f.trim()

	case *ast.Try:
		f.buf.WriteString("try")
		f.suite(s.Body)
		for _, h := range s.Handlers {
			f.writeIndent()
			f.buf.WriteString("except")
			if h.Type != nil {
				f.buf.WriteString(" ")
				f.expr(h.Type, precNone)
				if h.Name != "" {
					f.buf.WriteString(" as " + h.Name)
				}
			}
			f.suite(h.Body)
		}
		if len(s.OrElse) > 0 {
			f.clause("else", s.OrElse)
		}
		if len(s.FinalBody) > 0 {
			f.clause("finally", s.FinalBody)
		}
		f.trim()

	case *ast.Match:
		f.buf.WriteString("match ")
		f.exprList(s.Subject)
		f.buf.WriteString(":\n")
		f.indent++
		for _, c := range s.Cases {
			f.writeIndent()
			f.buf.WriteString("case ")
			f.exprList(c.Pattern)
			if c.Guard != nil {
				f.buf.WriteString(" if ")
				f.expr(c.Guard, precTernary+1)
			}
			f.suite(c.Body)
		}
		f.indent--
		f.trim()

	case *ast.FunctionDef:
		f.decorators(s.Decorators)
		if s.IsAsync {
			f.buf.WriteString("async ")
		}
		f.buf.WriteString("def " + s.Name + "(")
		f.params(s.Params, s.VarArg, s.KwArg)
		f.buf.WriteString(")")
		if s.Returns != nil {
			f.buf.WriteString(" -> ")
			f.expr(s.Returns, precNone)
		}
		f.suite(s.Body)
		f.trim()

	case *ast.ClassDef:
		f.decorators(s.Decorators)
		f.buf.WriteString("class " + s.Name)
		if len(s.Bases) > 0 {
			f.buf.WriteString("(")
			f.commaExprs(s.Bases)
			f.buf.WriteString(")")
		}
		f.suite(s.Body)
		f.trim()

	default:
		// Unknown statements fall back to their debug form.
		f.buf.WriteString(stmt.String())
	}
}

// ifStmt flattens a nested else-if chain into elif clauses.
func (f *Formatter) ifStmt(s *ast.If, keyword string) {
	f.buf.WriteString(keyword)
	f.expr(s.Test, precNone)
	f.suite(s.Body)
	if len(s.OrElse) == 1 {
		if chained, ok := s.OrElse[0].(*ast.If); ok {
			f.writeIndent()
			f.ifStmt(chained, "elif ")
			return
		}
	}
	if len(s.OrElse) > 0 {
		f.clause("else", s.OrElse)
	}
	f.trim()
}

// trim removes the trailing newline left by a suite so that the caller's
// uniform "print statement then newline" loop applies to compound
// statements too.
func (f *Formatter) trim() {
	b := f.buf.Bytes()
	if len(b) > 0 && b[len(b)-1] == '\n' {
		f.buf.Truncate(len(b) - 1)
	}
}

func (f *Formatter) decorators(decorators []ast.Expr) {
	for _, d := range decorators {
		f.buf.WriteString("@")
		f.expr(d, precNone)
		f.buf.WriteString("\n")
		f.writeIndent()
	}
}

func (f *Formatter) params(params []*ast.Param, varArg, kwArg string) {
	for i, p := range params {
		if i > 0 {
			f.buf.WriteString(", ")
		}
		f.param(p)
	}
	if varArg != "" {
		if len(params) > 0 {
			f.buf.WriteString(", ")
		}
		f.buf.WriteString("*" + varArg)
	}
	if kwArg != "" {
		if len(params) > 0 || varArg != "" {
			f.buf.WriteString(", ")
		}
		f.buf.WriteString("**" + kwArg)
	}
}

func (f *Formatter) param(p *ast.Param) {
	f.buf.WriteString(p.Name)
	if p.Annotation != nil {
		f.buf.WriteString(": ")
		f.expr(p.Annotation, precNone)
	}
	if p.Default != nil {
		if p.Annotation != nil {
			f.buf.WriteString(" = ")
		} else {
			f.buf.WriteString("=")
		}
		f.expr(p.Default, precNone)
	}
}

func (f *Formatter) aliases(names []*ast.Alias) {
	for i, a := range names {
		if i > 0 {
			f.buf.WriteString(", ")
		}
		f.buf.WriteString(a.Name)
		if a.AsName != "" {
			f.buf.WriteString(" as " + a.AsName)
		}
	}
}

// exprList prints an expression that sits in a statement-level list
// position, where a tuple needs no surrounding parentheses.
func (f *Formatter) exprList(e ast.Expr) {
	if t, ok := e.(*ast.Tuple); ok && len(t.Elts) > 0 {
		f.commaExprs(t.Elts)
		if len(t.Elts) == 1 {
			f.buf.WriteString(",")
		}
		return
	}
	f.expr(e, precNone)
}

func (f *Formatter) commaExprs(exprs []ast.Expr) {
	for i, e := range exprs {
		if i > 0 {
			f.buf.WriteString(", ")
		}
		f.expr(e, precNone)
	}
}
