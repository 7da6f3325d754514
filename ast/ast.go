// Package ast defines the abstract syntax tree representation of Cheetah code.
package ast

import (
	"strings"

	"github.com/cheetah-lang/cheetah/token"
)

// Node represents a portion of the syntax tree. All nodes have position
// information indicating where they appear in the source code.
type Node interface {
	// Pos returns the position of the first character belonging to the node.
	Pos() token.Position

	// End returns the position of the first character immediately after the node.
	End() token.Position

	// String returns a human friendly representation of the Node. This should
	// be similar to the original source code, but not necessarily identical.
	String() string
}

// Stmt represents a statement node. Statements cause side effects but
// do not evaluate to a value.
type Stmt interface {
	Node
	stmtNode()
}

// Expr represents an expression node. Expressions evaluate to a value
// and may be embedded within other expressions.
type Expr interface {
	Node
	exprNode()
}

// Module is the root node of every parsed Cheetah source file.
type Module struct {
	Filename string
	Stmts    []Stmt
}

func (m *Module) Pos() token.Position {
	if len(m.Stmts) > 0 {
		return m.Stmts[0].Pos()
	}
	return token.Position{}
}

func (m *Module) End() token.Position {
	if n := len(m.Stmts); n > 0 {
		return m.Stmts[n-1].End()
	}
	return token.Position{}
}

func (m *Module) String() string {
	var b strings.Builder
	for _, s := range m.Stmts {
		b.WriteString(s.String())
		b.WriteString("\n")
	}
	return b.String()
}

// BadExpr represents an expression containing syntax errors. It is used by
// the parser to continue parsing after an error, allowing subsequent errors
// to be detected without giving up.
type BadExpr struct {
	From token.Position
	To   token.Position
}

func (x *BadExpr) exprNode() {}

func (x *BadExpr) Pos() token.Position { return x.From }
func (x *BadExpr) End() token.Position { return x.To }
func (x *BadExpr) String() string      { return "<bad expression>" }

// BadStmt represents a statement containing syntax errors.
type BadStmt struct {
	From token.Position
	To   token.Position
}

func (x *BadStmt) stmtNode() {}

func (x *BadStmt) Pos() token.Position { return x.From }
func (x *BadStmt) End() token.Position { return x.To }
func (x *BadStmt) String() string      { return "<bad statement>" }

func joinExprs(exprs []Expr, sep string) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, sep)
}
