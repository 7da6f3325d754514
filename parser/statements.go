package parser

import (
	"strings"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/token"
)

// augAssignOps maps augmented assignment tokens to the operator they
// apply, e.g. "+=" applies "+".
var augAssignOps = map[token.Type]string{
	token.PLUS_EQUALS:     "+",
	token.MINUS_EQUALS:    "-",
	token.ASTERISK_EQUALS: "*",
	token.SLASH_EQUALS:    "/",
	token.FLOOR_EQUALS:    "//",
	token.PERCENT_EQUALS:  "%",
	token.POWER_EQUALS:    "**",
	token.AMP_EQUALS:      "&",
	token.PIPE_EQUALS:     "|",
	token.CARET_EQUALS:    "^",
	token.LSHIFT_EQUALS:   "<<",
	token.RSHIFT_EQUALS:   ">>",
}

// parseStatement parses one statement. It is called with curToken on
// the first token of the statement and returns with curToken on the
// statement's last token, leaving the trailing NEWLINE (if any) as the
// peek token.
func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case token.DEF:
		return p.parseFunctionDef(nil)
	case token.ASYNC:
		return p.parseAsyncDef(nil)
	case token.CLASS:
		return p.parseClassDef(nil)
	case token.AT:
		return p.parseDecorated()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.TRY:
		return p.parseTryStmt()
	case token.WITH:
		return p.parseWithStmt()
	case token.MATCH:
		return p.parseMatchStmt()
	default:
		return p.parseSimpleStmt()
	}
}

// parseSimpleStmt parses a statement that fits on one logical line.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	switch p.curToken.Type {
	case token.RETURN:
		return p.parseReturn()
	case token.PASS:
		return &ast.Pass{Span: spanTok(p.curToken)}
	case token.BREAK:
		return &ast.Break{Span: spanTok(p.curToken)}
	case token.CONTINUE:
		return &ast.Continue{Span: spanTok(p.curToken)}
	case token.RAISE:
		return p.parseRaise()
	case token.GLOBAL:
		return p.parseGlobal()
	case token.NONLOCAL:
		return p.parseNonlocal()
	case token.IMPORT:
		return p.parseImport()
	case token.FROM:
		return p.parseImportFrom()
	case token.DEL:
		return p.parseDelete()
	case token.ASSERT:
		return p.parseAssert()
	default:
		return p.parseExprOrAssign()
	}
}

// parseExprOrAssign parses an expression statement, an assignment (x = y,
// possibly chained), an augmented assignment (x += y), or an annotated
// assignment (x: int = y).
func (p *Parser) parseExprOrAssign() ast.Stmt {
	start := p.curToken.StartPosition
	first := p.parseExpressionList(LOWEST)
	if first == nil {
		return nil
	}
	switch {
	case p.peekTokenIs(token.ASSIGN):
		exprs := []ast.Expr{first}
		for p.peekTokenIs(token.ASSIGN) {
			p.nextToken() // the "="
			p.nextToken()
			next := p.parseExpressionList(LOWEST)
			if next == nil {
				return nil
			}
			exprs = append(exprs, next)
		}
		n := len(exprs)
		return &ast.Assign{
			Span:    p.spanFrom(start),
			Targets: exprs[:n-1],
			Value:   exprs[n-1],
		}
	case augAssignOps[p.peekToken.Type] != "":
		p.nextToken()
		op := augAssignOps[p.curToken.Type]
		if !p.validAssignTarget(first) {
			p.setTokenError(p.curToken, "invalid target for augmented assignment")
			return nil
		}
		p.nextToken()
		value := p.parseExpressionList(LOWEST)
		if value == nil {
			return nil
		}
		return &ast.AugAssign{
			Span:   p.spanFrom(start),
			Target: first,
			Op:     op,
			Value:  value,
		}
	case p.peekTokenIs(token.COLON):
		if !p.validAssignTarget(first) {
			p.setTokenError(p.peekToken, "invalid target for annotated assignment")
			return nil
		}
		p.nextToken() // the ":"
		p.nextToken()
		annotation := p.parseExpression(LOWEST)
		if annotation == nil {
			return nil
		}
		stmt := &ast.AnnAssign{Target: first, Annotation: annotation}
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			stmt.Value = p.parseExpressionList(LOWEST)
			if stmt.Value == nil {
				return nil
			}
		}
		stmt.Span = p.spanFrom(start)
		return stmt
	default:
		return &ast.ExprStmt{Span: p.spanFrom(start), Value: first}
	}
}

// validAssignTarget reports whether an expression may appear on the left
// of an augmented or annotated assignment.
func (p *Parser) validAssignTarget(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Name, *ast.Attribute, *ast.Subscript:
		return true
	default:
		return false
	}
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.curToken.StartPosition
	stmt := &ast.Return{Span: spanTok(p.curToken)}
	if statementTerminators[p.peekToken.Type] {
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpressionList(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseRaise() ast.Stmt {
	start := p.curToken.StartPosition
	stmt := &ast.Raise{Span: spanTok(p.curToken)}
	if statementTerminators[p.peekToken.Type] {
		return stmt // bare re-raise
	}
	p.nextToken()
	stmt.Exc = p.parseExpression(LOWEST)
	if stmt.Exc == nil {
		return nil
	}
	if p.peekTokenIs(token.FROM) {
		p.nextToken()
		p.nextToken()
		stmt.Cause = p.parseExpression(LOWEST)
		if stmt.Cause == nil {
			return nil
		}
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseGlobal() ast.Stmt {
	start := p.curToken.StartPosition
	names := p.parseNameList("global statement")
	if names == nil {
		return nil
	}
	return &ast.Global{Span: p.spanFrom(start), Names: names}
}

func (p *Parser) parseNonlocal() ast.Stmt {
	start := p.curToken.StartPosition
	names := p.parseNameList("nonlocal statement")
	if names == nil {
		return nil
	}
	return &ast.Nonlocal{Span: p.spanFrom(start), Names: names}
}

// parseNameList parses a comma-separated list of plain identifiers
// following the current keyword token.
func (p *Parser) parseNameList(context string) []string {
	if !p.expectPeek(context, token.IDENT) {
		return nil
	}
	names := []string{p.curToken.Literal}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek(context, token.IDENT) {
			return nil
		}
		names = append(names, p.curToken.Literal)
	}
	return names
}

func (p *Parser) parseImport() ast.Stmt {
	start := p.curToken.StartPosition
	var names []*ast.Alias
	for {
		alias := p.parseImportAlias()
		if alias == nil {
			return nil
		}
		names = append(names, alias)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	return &ast.Import{Span: p.spanFrom(start), Names: names}
}

// parseImportAlias parses a possibly dotted module name with an
// optional "as" binding.
func (p *Parser) parseImportAlias() *ast.Alias {
	if !p.expectPeek("import statement", token.IDENT) {
		return nil
	}
	start := p.curToken.StartPosition
	var parts []string
	parts = append(parts, p.curToken.Literal)
	for p.peekTokenIs(token.DOT) {
		p.nextToken()
		if !p.expectPeek("import statement", token.IDENT) {
			return nil
		}
		parts = append(parts, p.curToken.Literal)
	}
	alias := &ast.Alias{Name: strings.Join(parts, ".")}
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek("import statement", token.IDENT) {
			return nil
		}
		alias.AsName = p.curToken.Literal
	}
	alias.Span = p.spanFrom(start)
	return alias
}

func (p *Parser) parseImportFrom() ast.Stmt {
	start := p.curToken.StartPosition
	stmt := &ast.ImportFrom{}
	for p.peekTokenIs(token.DOT) {
		p.nextToken()
		stmt.Level++
	}
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		parts := []string{p.curToken.Literal}
		for p.peekTokenIs(token.DOT) {
			p.nextToken()
			if !p.expectPeek("from-import statement", token.IDENT) {
				return nil
			}
			parts = append(parts, p.curToken.Literal)
		}
		stmt.Module = strings.Join(parts, ".")
	} else if stmt.Level == 0 {
		p.peekError("from-import statement", token.IDENT, p.peekToken)
		return nil
	}
	if !p.expectPeek("from-import statement", token.IMPORT) {
		return nil
	}
	if p.peekTokenIs(token.ASTERISK) {
		p.nextToken()
		stmt.Names = []*ast.Alias{{Span: spanTok(p.curToken), Name: "*"}}
		stmt.Span = p.spanFrom(start)
		return stmt
	}
	parens := false
	if p.peekTokenIs(token.LPAREN) {
		parens = true
		p.nextToken()
	}
	for {
		if !p.expectPeek("from-import statement", token.IDENT) {
			return nil
		}
		alias := &ast.Alias{Span: spanTok(p.curToken), Name: p.curToken.Literal}
		if p.peekTokenIs(token.AS) {
			p.nextToken()
			if !p.expectPeek("from-import statement", token.IDENT) {
				return nil
			}
			alias.AsName = p.curToken.Literal
			alias.Span.To = p.curToken.EndPosition
		}
		stmt.Names = append(stmt.Names, alias)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		// A trailing comma is allowed inside parentheses
		if parens && p.peekTokenIs(token.RPAREN) {
			break
		}
	}
	if parens && !p.expectPeek("from-import statement", token.RPAREN) {
		return nil
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseDelete() ast.Stmt {
	start := p.curToken.StartPosition
	p.nextToken()
	var targets []ast.Expr
	for {
		target := p.parseExpression(COMPARISON)
		if target == nil {
			return nil
		}
		targets = append(targets, target)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	return &ast.Delete{Span: p.spanFrom(start), Targets: targets}
}

func (p *Parser) parseAssert() ast.Stmt {
	start := p.curToken.StartPosition
	p.nextToken()
	test := p.parseExpression(LOWEST)
	if test == nil {
		return nil
	}
	stmt := &ast.Assert{Test: test}
	if p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		stmt.Msg = p.parseExpression(LOWEST)
		if stmt.Msg == nil {
			return nil
		}
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseSuite parses the body of a compound statement: a colon followed
// by either an indented block or an inline list of simple statements.
// It is called with curToken on the token preceding the colon and
// returns with curToken on the suite's last token (the DEDENT for an
// indented block).
func (p *Parser) parseSuite(context string) []ast.Stmt {
	if !p.expectPeek(context, token.COLON) {
		return nil
	}
	if p.peekTokenIs(token.NEWLINE) {
		p.nextToken() // the NEWLINE
		if !p.expectPeek(context, token.INDENT) {
			return nil
		}
		p.nextToken() // first token of the block
		return p.parseBlock()
	}
	// Inline suite: one or more semicolon-separated simple statements
	p.nextToken()
	return p.parseSimpleStmtList()
}

// parseBlock parses statements until the enclosing DEDENT. It is called
// with curToken on the block's first token and returns with curToken on
// the DEDENT (or EOF).
func (p *Parser) parseBlock() []ast.Stmt {
	var stmts []ast.Stmt
	for {
		if p.curTokenIs(token.DEDENT) || p.curTokenIs(token.EOF) {
			return stmts
		}
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		if p.tooManyErrors() || p.cancelled() {
			return stmts
		}
		p.stmtErrorCount = len(p.errors)
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		} else if p.hadNewError() {
			p.synchronize()
			continue
		}
		p.nextToken()
	}
}

// parseSimpleStmtList parses semicolon-separated simple statements on a
// single line, for inline suites such as "if x: a = 1; b = 2".
func (p *Parser) parseSimpleStmtList() []ast.Stmt {
	var stmts []ast.Stmt
	for {
		stmt := p.parseSimpleStmt()
		if stmt == nil {
			return stmts
		}
		stmts = append(stmts, stmt)
		if !p.peekTokenIs(token.SEMICOLON) {
			return stmts
		}
		p.nextToken() // the ";"
		if statementTerminators[p.peekToken.Type] {
			return stmts // trailing semicolon
		}
		p.nextToken()
	}
}

// parseIfStmt parses an if statement. An elif clause is represented as
// a nested If in the OrElse of its parent.
func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.curToken.StartPosition
	p.nextToken()
	test := p.parseExpression(LOWEST)
	if test == nil {
		return nil
	}
	stmt := &ast.If{Test: test}
	stmt.Body = p.parseSuite("if statement")
	if stmt.Body == nil {
		return nil
	}
	if p.peekTokenIs(token.ELIF) {
		p.nextToken()
		nested := p.parseIfStmt()
		if nested == nil {
			return nil
		}
		stmt.OrElse = []ast.Stmt{nested}
	} else if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		stmt.OrElse = p.parseSuite("else clause")
		if stmt.OrElse == nil {
			return nil
		}
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.curToken.StartPosition
	p.nextToken()
	test := p.parseExpression(LOWEST)
	if test == nil {
		return nil
	}
	stmt := &ast.While{Test: test}
	stmt.Body = p.parseSuite("while statement")
	if stmt.Body == nil {
		return nil
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		stmt.OrElse = p.parseSuite("else clause")
		if stmt.OrElse == nil {
			return nil
		}
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseForStmt() ast.Stmt {
	start := p.curToken.StartPosition
	p.nextToken()
	target := p.parseTargetList()
	if target == nil {
		return nil
	}
	if !p.expectPeek("for statement", token.IN) {
		return nil
	}
	p.nextToken()
	iter := p.parseExpressionList(LOWEST)
	if iter == nil {
		return nil
	}
	stmt := &ast.For{Target: target, Iter: iter}
	stmt.Body = p.parseSuite("for statement")
	if stmt.Body == nil {
		return nil
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		stmt.OrElse = p.parseSuite("else clause")
		if stmt.OrElse == nil {
			return nil
		}
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseTryStmt() ast.Stmt {
	start := p.curToken.StartPosition
	stmt := &ast.Try{}
	stmt.Body = p.parseSuite("try statement")
	if stmt.Body == nil {
		return nil
	}
	for p.peekTokenIs(token.EXCEPT) {
		p.nextToken()
		handler := p.parseExceptHandler()
		if handler == nil {
			return nil
		}
		stmt.Handlers = append(stmt.Handlers, handler)
	}
	if p.peekTokenIs(token.ELSE) {
		if len(stmt.Handlers) == 0 {
			p.setTokenError(p.peekToken, "try statement must have an except clause before else")
			return nil
		}
		p.nextToken()
		stmt.OrElse = p.parseSuite("else clause")
		if stmt.OrElse == nil {
			return nil
		}
	}
	if p.peekTokenIs(token.FINALLY) {
		p.nextToken()
		stmt.FinalBody = p.parseSuite("finally clause")
		if stmt.FinalBody == nil {
			return nil
		}
	}
	if len(stmt.Handlers) == 0 && len(stmt.FinalBody) == 0 {
		p.setTokenError(p.curToken, "try statement must have an except or finally clause")
		return nil
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseExceptHandler parses one except clause, with curToken on the
// "except" keyword.
func (p *Parser) parseExceptHandler() *ast.ExceptHandler {
	start := p.curToken.StartPosition
	handler := &ast.ExceptHandler{}
	if !p.peekTokenIs(token.COLON) {
		p.nextToken()
		handler.Type = p.parseExpression(LOWEST)
		if handler.Type == nil {
			return nil
		}
		if p.peekTokenIs(token.AS) {
			p.nextToken()
			if !p.expectPeek("except clause", token.IDENT) {
				return nil
			}
			handler.Name = p.curToken.Literal
		}
	}
	handler.Body = p.parseSuite("except clause")
	if handler.Body == nil {
		return nil
	}
	handler.Span = p.spanFrom(start)
	return handler
}

func (p *Parser) parseWithStmt() ast.Stmt {
	start := p.curToken.StartPosition
	stmt := &ast.With{}
	for {
		p.nextToken()
		item := p.parseWithItem()
		if item == nil {
			return nil
		}
		stmt.Items = append(stmt.Items, item)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	stmt.Body = p.parseSuite("with statement")
	if stmt.Body == nil {
		return nil
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseWithItem() *ast.WithItem {
	start := p.curToken.StartPosition
	ctxExpr := p.parseExpression(LOWEST)
	if ctxExpr == nil {
		return nil
	}
	item := &ast.WithItem{ContextExpr: ctxExpr}
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		p.nextToken()
		item.Optional = p.parseExpression(COMPARISON)
		if item.Optional == nil {
			return nil
		}
	}
	item.Span = p.spanFrom(start)
	return item
}

func (p *Parser) parseMatchStmt() ast.Stmt {
	start := p.curToken.StartPosition
	p.nextToken()
	subject := p.parseExpressionList(LOWEST)
	if subject == nil {
		return nil
	}
	stmt := &ast.Match{Subject: subject}
	if !p.expectPeek("match statement", token.COLON) {
		return nil
	}
	if !p.expectPeek("match statement", token.NEWLINE) {
		return nil
	}
	if !p.expectPeek("match statement", token.INDENT) {
		return nil
	}
	for !p.peekTokenIs(token.DEDENT) && !p.peekTokenIs(token.EOF) {
		if p.peekTokenIs(token.NEWLINE) {
			p.nextToken()
			continue
		}
		if !p.expectPeek("match statement", token.CASE) {
			return nil
		}
		c := p.parseMatchCase()
		if c == nil {
			return nil
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	p.nextToken() // the DEDENT
	if len(stmt.Cases) == 0 {
		p.setTokenError(p.curToken, "match statement must have at least one case")
		return nil
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseMatchCase parses one case clause, with curToken on the "case"
// keyword. Patterns are parsed as ordinary expressions.
func (p *Parser) parseMatchCase() *ast.MatchCase {
	start := p.curToken.StartPosition
	p.nextToken()
	pattern := p.parseExpressionListPrec(TERNARY)
	if pattern == nil {
		return nil
	}
	c := &ast.MatchCase{Pattern: pattern}
	if p.peekTokenIs(token.IF) {
		p.nextToken()
		p.nextToken()
		c.Guard = p.parseExpression(TERNARY)
		if c.Guard == nil {
			return nil
		}
	}
	c.Body = p.parseSuite("case clause")
	if c.Body == nil {
		return nil
	}
	c.Span = p.spanFrom(start)
	return c
}

// parseDecorated parses one or more decorator lines followed by a
// function or class definition.
func (p *Parser) parseDecorated() ast.Stmt {
	var decorators []ast.Expr
	for p.curTokenIs(token.AT) {
		p.nextToken()
		dec := p.parseExpression(LOWEST)
		if dec == nil {
			return nil
		}
		decorators = append(decorators, dec)
		if !p.expectPeek("decorator", token.NEWLINE) {
			return nil
		}
		p.nextToken()
	}
	switch p.curToken.Type {
	case token.DEF:
		return p.parseFunctionDef(decorators)
	case token.ASYNC:
		return p.parseAsyncDef(decorators)
	case token.CLASS:
		return p.parseClassDef(decorators)
	default:
		p.setTokenError(p.curToken, "decorator must be followed by a function or class definition")
		return nil
	}
}

// parseAsyncDef parses "async def", with curToken on "async".
func (p *Parser) parseAsyncDef(decorators []ast.Expr) ast.Stmt {
	start := p.curToken.StartPosition
	if !p.expectPeek("async statement", token.DEF) {
		return nil
	}
	stmt := p.parseFunctionDef(decorators)
	if stmt == nil {
		return nil
	}
	fd := stmt.(*ast.FunctionDef)
	fd.IsAsync = true
	fd.Span.From = start
	return fd
}

func (p *Parser) parseFunctionDef(decorators []ast.Expr) ast.Stmt {
	start := p.curToken.StartPosition
	if !p.expectPeek("function definition", token.IDENT) {
		return nil
	}
	stmt := &ast.FunctionDef{Name: p.curToken.Literal, Decorators: decorators}
	if !p.expectPeek("function definition", token.LPAREN) {
		return nil
	}
	if !p.parseParameters(stmt) {
		return nil
	}
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		p.nextToken()
		stmt.Returns = p.parseExpression(LOWEST)
		if stmt.Returns == nil {
			return nil
		}
	}
	stmt.Body = p.parseSuite("function definition")
	if stmt.Body == nil {
		return nil
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseParameters parses a parenthesized parameter list, with curToken
// on the opening parenthesis. Returns false if a parse error occurred.
func (p *Parser) parseParameters(fd *ast.FunctionDef) bool {
	for !p.peekTokenIs(token.RPAREN) {
		switch {
		case p.peekTokenIs(token.ASTERISK):
			p.nextToken()
			if p.peekTokenIs(token.COMMA) {
				// Bare "*": the marker itself binds nothing
				p.nextToken()
				continue
			}
			if !p.expectPeek("parameter list", token.IDENT) {
				return false
			}
			fd.VarArg = p.curToken.Literal
		case p.peekTokenIs(token.POWER):
			p.nextToken()
			if !p.expectPeek("parameter list", token.IDENT) {
				return false
			}
			fd.KwArg = p.curToken.Literal
		default:
			param := p.parseParam("parameter list")
			if param == nil {
				return false
			}
			fd.Params = append(fd.Params, param)
		}
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return p.expectPeek("parameter list", token.RPAREN)
}

// parseParam parses one named parameter with optional annotation and
// default value.
func (p *Parser) parseParam(context string) *ast.Param {
	if !p.expectPeek(context, token.IDENT) {
		return nil
	}
	start := p.curToken.StartPosition
	param := &ast.Param{Name: p.curToken.Literal}
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		param.Annotation = p.parseExpression(LOWEST)
		if param.Annotation == nil {
			return nil
		}
	}
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		param.Default = p.parseExpression(LOWEST)
		if param.Default == nil {
			return nil
		}
	}
	param.Span = p.spanFrom(start)
	return param
}

func (p *Parser) parseClassDef(decorators []ast.Expr) ast.Stmt {
	start := p.curToken.StartPosition
	if !p.expectPeek("class definition", token.IDENT) {
		return nil
	}
	stmt := &ast.ClassDef{Name: p.curToken.Literal, Decorators: decorators}
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		for !p.peekTokenIs(token.RPAREN) {
			p.nextToken()
			base := p.parseExpression(LOWEST)
			if base == nil {
				return nil
			}
			stmt.Bases = append(stmt.Bases, base)
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek("class definition", token.RPAREN) {
			return nil
		}
	}
	stmt.Body = p.parseSuite("class definition")
	if stmt.Body == nil {
		return nil
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseExpressionList parses a comma-separated expression list, folding
// multiple elements into a Tuple. A single expression without a comma
// is returned as-is.
func (p *Parser) parseExpressionList(precedence int) ast.Expr {
	return p.parseExpressionListPrec(precedence)
}

func (p *Parser) parseExpressionListPrec(precedence int) ast.Expr {
	start := p.curToken.StartPosition
	first := p.parseExpression(precedence)
	if first == nil {
		return nil
	}
	if !p.peekTokenIs(token.COMMA) {
		return first
	}
	elts := []ast.Expr{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken() // the ","
		// A trailing comma ends the list
		if p.prefixParseFns[p.peekToken.Type] == nil {
			break
		}
		p.nextToken()
		elt := p.parseExpression(precedence)
		if elt == nil {
			return nil
		}
		elts = append(elts, elt)
	}
	return &ast.Tuple{Span: p.spanFrom(start), Elts: elts}
}

// parseTargetList parses an assignment target list, e.g. the loop
// variables of a for statement. Comparisons are excluded so that "in"
// terminates the list.
func (p *Parser) parseTargetList() ast.Expr {
	return p.parseExpressionListPrec(COMPARISON)
}
