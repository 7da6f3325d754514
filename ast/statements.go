package ast

import (
	"fmt"
	"strings"
)

// ExprStmt wraps an expression evaluated for its side effects.
type ExprStmt struct {
	Span
	Value Expr
}

func (s *ExprStmt) stmtNode()      {}
func (s *ExprStmt) String() string { return s.Value.String() }

// Assign is an assignment statement. Multiple targets represent chained
// assignment (a = b = value).
type Assign struct {
	Span
	Targets []Expr
	Value   Expr
}

func (s *Assign) stmtNode() {}
func (s *Assign) String() string {
	return joinExprs(s.Targets, " = ") + " = " + s.Value.String()
}

// AugAssign is an augmented assignment such as x += 1.
type AugAssign struct {
	Span
	Target Expr
	Op     string // operator without the trailing "=", e.g. "+"
	Value  Expr
}

func (s *AugAssign) stmtNode() {}
func (s *AugAssign) String() string {
	return fmt.Sprintf("%s %s= %s", s.Target.String(), s.Op, s.Value.String())
}

// AnnAssign is an annotated assignment such as x: int = 1. Value may be nil
// for a bare annotation.
type AnnAssign struct {
	Span
	Target     Expr
	Annotation Expr
	Value      Expr // may be nil
}

func (s *AnnAssign) stmtNode() {}
func (s *AnnAssign) String() string {
	out := s.Target.String() + ": " + s.Annotation.String()
	if s.Value != nil {
		out += " = " + s.Value.String()
	}
	return out
}

// If is a conditional statement. An elif chain is represented as a nested If
// inside OrElse.
type If struct {
	Span
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

func (s *If) stmtNode() {}
func (s *If) String() string {
	out := "if " + s.Test.String() + ":" + blockString(s.Body)
	if len(s.OrElse) > 0 {
		out += "\nelse:" + blockString(s.OrElse)
	}
	return out
}

// While is a while loop with an optional else clause.
type While struct {
	Span
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

func (s *While) stmtNode() {}
func (s *While) String() string {
	out := "while " + s.Test.String() + ":" + blockString(s.Body)
	if len(s.OrElse) > 0 {
		out += "\nelse:" + blockString(s.OrElse)
	}
	return out
}

// For is a for loop with an optional else clause.
type For struct {
	Span
	Target Expr
	Iter   Expr
	Body   []Stmt
	OrElse []Stmt
}

func (s *For) stmtNode() {}
func (s *For) String() string {
	out := fmt.Sprintf("for %s in %s:%s", s.Target.String(), s.Iter.String(), blockString(s.Body))
	if len(s.OrElse) > 0 {
		out += "\nelse:" + blockString(s.OrElse)
	}
	return out
}

// FunctionDef is a named function definition.
type FunctionDef struct {
	Span
	Name       string
	Params     []*Param
	VarArg     string // name of *args parameter, or empty
	KwArg      string // name of **kwargs parameter, or empty
	Returns    Expr   // return annotation, may be nil
	Body       []Stmt
	Decorators []Expr
	IsAsync    bool
}

func (s *FunctionDef) stmtNode() {}
func (s *FunctionDef) String() string {
	parts := make([]string, 0, len(s.Params)+2)
	for _, p := range s.Params {
		parts = append(parts, p.String())
	}
	if s.VarArg != "" {
		parts = append(parts, "*"+s.VarArg)
	}
	if s.KwArg != "" {
		parts = append(parts, "**"+s.KwArg)
	}
	out := fmt.Sprintf("def %s(%s)", s.Name, strings.Join(parts, ", "))
	if s.Returns != nil {
		out += " -> " + s.Returns.String()
	}
	return out + ":" + blockString(s.Body)
}

// ClassDef is a class definition.
type ClassDef struct {
	Span
	Name       string
	Bases      []Expr
	Body       []Stmt
	Decorators []Expr
}

func (s *ClassDef) stmtNode() {}
func (s *ClassDef) String() string {
	out := "class " + s.Name
	if len(s.Bases) > 0 {
		out += "(" + joinExprs(s.Bases, ", ") + ")"
	}
	return out + ":" + blockString(s.Body)
}

// Return is a return statement with an optional value.
type Return struct {
	Span
	Value Expr // may be nil
}

func (s *Return) stmtNode() {}
func (s *Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

// Pass is the no-op statement.
type Pass struct {
	Span
}

func (s *Pass) stmtNode()      {}
func (s *Pass) String() string { return "pass" }

// Break exits the innermost enclosing loop.
type Break struct {
	Span
}

func (s *Break) stmtNode()      {}
func (s *Break) String() string { return "break" }

// Continue jumps to the next iteration of the innermost enclosing loop.
type Continue struct {
	Span
}

func (s *Continue) stmtNode()      {}
func (s *Continue) String() string { return "continue" }

// Global declares names as module-global within a function body.
type Global struct {
	Span
	Names []string
}

func (s *Global) stmtNode()      {}
func (s *Global) String() string { return "global " + strings.Join(s.Names, ", ") }

// Nonlocal declares names as belonging to an enclosing function scope.
type Nonlocal struct {
	Span
	Names []string
}

func (s *Nonlocal) stmtNode()      {}
func (s *Nonlocal) String() string { return "nonlocal " + strings.Join(s.Names, ", ") }

// ExceptHandler is one except clause of a try statement.
type ExceptHandler struct {
	Span
	Type Expr   // may be nil for a bare except
	Name string // "as" binding, may be empty
	Body []Stmt
}

func (h *ExceptHandler) String() string {
	out := "except"
	if h.Type != nil {
		out += " " + h.Type.String()
		if h.Name != "" {
			out += " as " + h.Name
		}
	}
	return out + ":" + blockString(h.Body)
}

// Try is a try/except/else/finally statement.
type Try struct {
	Span
	Body      []Stmt
	Handlers  []*ExceptHandler
	OrElse    []Stmt
	FinalBody []Stmt
}

func (s *Try) stmtNode() {}
func (s *Try) String() string {
	var b strings.Builder
	b.WriteString("try:" + blockString(s.Body))
	for _, h := range s.Handlers {
		b.WriteString("\n" + h.String())
	}
	if len(s.OrElse) > 0 {
		b.WriteString("\nelse:" + blockString(s.OrElse))
	}
	if len(s.FinalBody) > 0 {
		b.WriteString("\nfinally:" + blockString(s.FinalBody))
	}
	return b.String()
}

// Raise raises an exception. Exc may be nil for a bare re-raise.
type Raise struct {
	Span
	Exc   Expr // may be nil
	Cause Expr // "from" cause, may be nil
}

func (s *Raise) stmtNode() {}
func (s *Raise) String() string {
	if s.Exc == nil {
		return "raise"
	}
	out := "raise " + s.Exc.String()
	if s.Cause != nil {
		out += " from " + s.Cause.String()
	}
	return out
}

// WithItem is a single context manager in a with statement.
type WithItem struct {
	Span
	ContextExpr Expr
	Optional    Expr // "as" target, may be nil
}

func (w *WithItem) String() string {
	out := w.ContextExpr.String()
	if w.Optional != nil {
		out += " as " + w.Optional.String()
	}
	return out
}

// With is a with statement.
type With struct {
	Span
	Items []*WithItem
	Body  []Stmt
}

func (s *With) stmtNode() {}
func (s *With) String() string {
	parts := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		parts = append(parts, item.String())
	}
	return "with " + strings.Join(parts, ", ") + ":" + blockString(s.Body)
}

// Alias is one name binding in an import statement.
type Alias struct {
	Span
	Name   string
	AsName string // may be empty
}

func (a *Alias) String() string {
	if a.AsName != "" {
		return a.Name + " as " + a.AsName
	}
	return a.Name
}

// Import is an import statement.
type Import struct {
	Span
	Names []*Alias
}

func (s *Import) stmtNode() {}
func (s *Import) String() string {
	parts := make([]string, 0, len(s.Names))
	for _, a := range s.Names {
		parts = append(parts, a.String())
	}
	return "import " + strings.Join(parts, ", ")
}

// ImportFrom is a from-import statement.
type ImportFrom struct {
	Span
	Module string
	Names  []*Alias
	Level  int // number of leading dots for relative imports
}

func (s *ImportFrom) stmtNode() {}
func (s *ImportFrom) String() string {
	parts := make([]string, 0, len(s.Names))
	for _, a := range s.Names {
		parts = append(parts, a.String())
	}
	return fmt.Sprintf("from %s%s import %s", strings.Repeat(".", s.Level), s.Module, strings.Join(parts, ", "))
}

// MatchCase is one case clause of a match statement.
type MatchCase struct {
	Span
	Pattern Expr
	Guard   Expr // may be nil
	Body    []Stmt
}

func (c *MatchCase) String() string {
	out := "case " + c.Pattern.String()
	if c.Guard != nil {
		out += " if " + c.Guard.String()
	}
	return out + ":" + blockString(c.Body)
}

// Match is a match statement. Accepted syntactically; case-body lowering is
// not implemented.
type Match struct {
	Span
	Subject Expr
	Cases   []*MatchCase
}

func (s *Match) stmtNode() {}
func (s *Match) String() string {
	var b strings.Builder
	b.WriteString("match " + s.Subject.String() + ":")
	for _, c := range s.Cases {
		b.WriteString("\n    " + c.String())
	}
	return b.String()
}

// Delete is a del statement.
type Delete struct {
	Span
	Targets []Expr
}

func (s *Delete) stmtNode()      {}
func (s *Delete) String() string { return "del " + joinExprs(s.Targets, ", ") }

// Assert is an assert statement with an optional message.
type Assert struct {
	Span
	Test Expr
	Msg  Expr // may be nil
}

func (s *Assert) stmtNode() {}
func (s *Assert) String() string {
	if s.Msg == nil {
		return "assert " + s.Test.String()
	}
	return "assert " + s.Test.String() + ", " + s.Msg.String()
}

func blockString(stmts []Stmt) string {
	var b strings.Builder
	for _, s := range stmts {
		for _, line := range strings.Split(s.String(), "\n") {
			b.WriteString("\n    " + line)
		}
	}
	return b.String()
}
