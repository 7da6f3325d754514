package parser

import (
	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/token"
)

func (p *Parser) parseIdent() ast.Expr {
	return &ast.Name{Span: spanTok(p.curToken), ID: p.curToken.Literal}
}

// parsePrefixExpr parses a unary "+", "-", or "~" expression.
func (p *Parser) parsePrefixExpr() ast.Expr {
	op := p.curToken
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}
	return &ast.UnaryOp{
		Span:    spanOf(op.StartPosition, operand),
		Op:      op.Literal,
		Operand: operand,
	}
}

// parseNotExpr parses a "not" expression, which binds more loosely than
// comparisons: "not a == b" negates the comparison.
func (p *Parser) parseNotExpr() ast.Expr {
	op := p.curToken
	p.nextToken()
	operand := p.parseExpression(NOT)
	if operand == nil {
		return nil
	}
	return &ast.UnaryOp{
		Span:    spanOf(op.StartPosition, operand),
		Op:      "not",
		Operand: operand,
	}
}

// parseInfixExpr parses a binary arithmetic or bitwise expression.
func (p *Parser) parseInfixExpr(left ast.Expr) ast.Expr {
	op := p.curToken
	precedence := p.currentPrecedence()
	if op.Type == token.POWER {
		// "**" is right associative
		precedence--
	}
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return &ast.BinOp{
		Span:  spanOf(left.Pos(), right),
		Left:  left,
		Op:    op.Literal,
		Right: right,
	}
}

// parseComparison parses one link of a comparison, extending an
// existing chain when the left side is already a Compare: "a < b < c"
// becomes a single node with two operators.
func (p *Parser) parseComparison(left ast.Expr) ast.Expr {
	op := p.curToken.Literal
	if p.curTokenIs(token.IS) && p.peekTokenIs(token.NOT) {
		p.nextToken()
		op = "is not"
	}
	p.nextToken()
	right := p.parseExpression(COMPARISON)
	if right == nil {
		return nil
	}
	if chain, ok := left.(*ast.Compare); ok {
		chain.Ops = append(chain.Ops, op)
		chain.Comparators = append(chain.Comparators, right)
		chain.To = right.End()
		return chain
	}
	return &ast.Compare{
		Span:        spanOf(left.Pos(), right),
		Left:        left,
		Ops:         []string{op},
		Comparators: []ast.Expr{right},
	}
}

// parseNotIn parses the "not in" comparison operator.
func (p *Parser) parseNotIn(left ast.Expr) ast.Expr {
	if !p.expectPeek("comparison", token.IN) {
		return nil
	}
	p.nextToken()
	right := p.parseExpression(COMPARISON)
	if right == nil {
		return nil
	}
	if chain, ok := left.(*ast.Compare); ok {
		chain.Ops = append(chain.Ops, "not in")
		chain.Comparators = append(chain.Comparators, right)
		chain.To = right.End()
		return chain
	}
	return &ast.Compare{
		Span:        spanOf(left.Pos(), right),
		Left:        left,
		Ops:         []string{"not in"},
		Comparators: []ast.Expr{right},
	}
}

// parseBoolOp parses "and"/"or", folding runs of the same operator into
// a single node: "a or b or c" has three values.
func (p *Parser) parseBoolOp(left ast.Expr) ast.Expr {
	op := p.curToken.Literal
	precedence := p.currentPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	if b, ok := left.(*ast.BoolOp); ok && b.Op == op {
		b.Values = append(b.Values, right)
		b.To = right.End()
		return b
	}
	return &ast.BoolOp{
		Span:   spanOf(left.Pos(), right),
		Op:     op,
		Values: []ast.Expr{left, right},
	}
}

// parseTernary parses a conditional expression: "body if test else
// orelse". It is triggered by "if" in infix position, with the already
// parsed left expression as the body.
func (p *Parser) parseTernary(left ast.Expr) ast.Expr {
	p.nextToken()
	test := p.parseExpression(TERNARY)
	if test == nil {
		return nil
	}
	if !p.expectPeek("conditional expression", token.ELSE) {
		return nil
	}
	p.nextToken()
	orElse := p.parseExpression(LOWEST)
	if orElse == nil {
		return nil
	}
	return &ast.IfExp{
		Span:   spanOf(left.Pos(), orElse),
		Test:   test,
		Body:   left,
		OrElse: orElse,
	}
}

// parseNamedExpr parses a walrus assignment expression: "x := value".
func (p *Parser) parseNamedExpr(left ast.Expr) ast.Expr {
	target, ok := left.(*ast.Name)
	if !ok {
		return p.setTokenError(p.curToken, "cannot use %s as a walrus assignment target", left.String())
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return &ast.NamedExpr{
		Span:   spanOf(left.Pos(), value),
		Target: target,
		Value:  value,
	}
}

// parseCall parses a call expression, with curToken on the opening
// parenthesis.
func (p *Parser) parseCall(left ast.Expr) ast.Expr {
	call := &ast.Call{Func: left}
	sawKeyword := false
	for !p.peekTokenIs(token.RPAREN) {
		switch {
		case p.peekTokenIs(token.ASTERISK):
			p.nextToken()
			star := p.parseStarred()
			if star == nil {
				return nil
			}
			call.Args = append(call.Args, star)
		case p.peekTokenIs(token.POWER):
			p.nextToken()
			start := p.curToken.StartPosition
			p.nextToken()
			value := p.parseExpression(LOWEST)
			if value == nil {
				return nil
			}
			call.Keywords = append(call.Keywords, &ast.Keyword{
				Span:  ast.Span{From: start, To: value.End()},
				Value: value,
			})
			sawKeyword = true
		default:
			p.nextToken()
			arg := p.parseExpression(LOWEST)
			if arg == nil {
				return nil
			}
			// An "=" after the expression marks a keyword argument
			if p.peekTokenIs(token.ASSIGN) {
				name, ok := arg.(*ast.Name)
				if !ok {
					return p.setTokenError(p.peekToken, "cannot use %s as a keyword argument name", arg.String())
				}
				p.nextToken() // the "="
				p.nextToken()
				value := p.parseExpression(LOWEST)
				if value == nil {
					return nil
				}
				call.Keywords = append(call.Keywords, &ast.Keyword{
					Span:  ast.Span{From: name.Pos(), To: value.End()},
					Arg:   name.ID,
					Value: value,
				})
				sawKeyword = true
				break
			}
			// A generator expression may be passed as the sole argument
			if p.peekTokenIs(token.FOR) && len(call.Args) == 0 && !sawKeyword {
				gens := p.parseComprehensions()
				if gens == nil {
					return nil
				}
				arg = &ast.GeneratorExp{
					Span:       ast.Span{From: arg.Pos(), To: p.curToken.EndPosition},
					Elt:        arg,
					Generators: gens,
				}
			}
			if sawKeyword {
				return p.setTokenError(p.curToken, "positional argument follows keyword argument")
			}
			call.Args = append(call.Args, arg)
		}
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek("call arguments", token.RPAREN) {
		return nil
	}
	call.Span = ast.Span{From: left.Pos(), To: p.curToken.EndPosition}
	return call
}

// parseIndex parses a subscript expression, with curToken on the
// opening bracket. The index may be a slice or a comma-separated tuple.
func (p *Parser) parseIndex(left ast.Expr) ast.Expr {
	lbracket := p.curToken
	var index ast.Expr
	if p.peekTokenIs(token.COLON) {
		index = p.parseSliceExpr(nil, lbracket.StartPosition)
		if index == nil {
			return nil
		}
	} else {
		p.nextToken()
		lower := p.parseExpressionList(LOWEST)
		if lower == nil {
			return nil
		}
		if p.peekTokenIs(token.COLON) {
			index = p.parseSliceExpr(lower, lower.Pos())
			if index == nil {
				return nil
			}
		} else {
			index = lower
		}
	}
	if !p.expectPeek("subscript", token.RBRACKET) {
		return nil
	}
	return &ast.Subscript{
		Span:  ast.Span{From: left.Pos(), To: p.curToken.EndPosition},
		Value: left,
		Index: index,
	}
}

// parseSliceExpr parses the remainder of a slice after an optional
// lower bound, with the first ":" as the peek token.
func (p *Parser) parseSliceExpr(lower ast.Expr, start token.Position) ast.Expr {
	p.nextToken() // the first ":"
	slice := &ast.SliceExpr{Lower: lower}
	if !p.peekTokenIs(token.COLON) && !p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		slice.Upper = p.parseExpression(LOWEST)
		if slice.Upper == nil {
			return nil
		}
	}
	if p.peekTokenIs(token.COLON) {
		p.nextToken() // the second ":"
		if !p.peekTokenIs(token.RBRACKET) {
			p.nextToken()
			slice.Step = p.parseExpression(LOWEST)
			if slice.Step == nil {
				return nil
			}
		}
	}
	slice.Span = ast.Span{From: start, To: p.curToken.EndPosition}
	return slice
}

// parseAttribute parses an attribute access, with curToken on the dot.
func (p *Parser) parseAttribute(left ast.Expr) ast.Expr {
	if !p.expectPeek("attribute access", token.IDENT) {
		return nil
	}
	return &ast.Attribute{
		Span:  ast.Span{From: left.Pos(), To: p.curToken.EndPosition},
		Value: left,
		Attr:  p.curToken.Literal,
	}
}

// parseGroupedExpr parses a parenthesized expression, a tuple display,
// or a generator expression, with curToken on the opening parenthesis.
func (p *Parser) parseGroupedExpr() ast.Expr {
	start := p.curToken.StartPosition
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.Tuple{Span: p.spanFrom(start)}
	}
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.FOR) {
		gens := p.parseComprehensions()
		if gens == nil {
			return nil
		}
		if !p.expectPeek("generator expression", token.RPAREN) {
			return nil
		}
		return &ast.GeneratorExp{Span: p.spanFrom(start), Elt: first, Generators: gens}
	}
	if p.peekTokenIs(token.COMMA) {
		elts := []ast.Expr{first}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if p.peekTokenIs(token.RPAREN) {
				break // trailing comma
			}
			p.nextToken()
			elt := p.parseExpression(LOWEST)
			if elt == nil {
				return nil
			}
			elts = append(elts, elt)
		}
		if !p.expectPeek("tuple", token.RPAREN) {
			return nil
		}
		return &ast.Tuple{Span: p.spanFrom(start), Elts: elts}
	}
	if !p.expectPeek("parenthesized expression", token.RPAREN) {
		return nil
	}
	return first
}

// parseStarred parses a "*expr" unpacking, with curToken on the
// asterisk.
func (p *Parser) parseStarred() ast.Expr {
	start := p.curToken.StartPosition
	p.nextToken()
	value := p.parseExpression(COMPARISON)
	if value == nil {
		return nil
	}
	return &ast.Starred{Span: spanOf(start, value), Value: value}
}

// parseLambda parses an anonymous function, with curToken on the
// "lambda" keyword.
func (p *Parser) parseLambda() ast.Expr {
	start := p.curToken.StartPosition
	lambda := &ast.Lambda{}
	for !p.peekTokenIs(token.COLON) {
		param := p.parseParam("lambda parameters")
		if param == nil {
			return nil
		}
		lambda.Params = append(lambda.Params, param)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek("lambda expression", token.COLON) {
		return nil
	}
	p.nextToken()
	lambda.Body = p.parseExpression(LOWEST)
	if lambda.Body == nil {
		return nil
	}
	lambda.Span = p.spanFrom(start)
	return lambda
}

// parseYield parses a yield or "yield from" expression.
func (p *Parser) parseYield() ast.Expr {
	start := p.curToken.StartPosition
	if p.peekTokenIs(token.FROM) {
		p.nextToken()
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		return &ast.YieldFrom{Span: spanOf(start, value), Value: value}
	}
	y := &ast.Yield{Span: spanTok(p.curToken)}
	if !statementTerminators[p.peekToken.Type] && !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		y.Value = p.parseExpressionList(LOWEST)
		if y.Value == nil {
			return nil
		}
		y.Span = p.spanFrom(start)
	}
	return y
}

// parseAwait parses an await expression.
func (p *Parser) parseAwait() ast.Expr {
	start := p.curToken.StartPosition
	p.nextToken()
	value := p.parseExpression(PREFIX)
	if value == nil {
		return nil
	}
	return &ast.Await{Span: spanOf(start, value), Value: value}
}

// parseComprehensions parses one or more "for target in iter [if cond]"
// clauses, with the first "for" as the peek token. On return, curToken
// is on the last token of the final clause.
func (p *Parser) parseComprehensions() []*ast.Comprehension {
	var gens []*ast.Comprehension
	for p.peekTokenIs(token.FOR) {
		p.nextToken() // the "for"
		start := p.curToken.StartPosition
		p.nextToken()
		target := p.parseTargetList()
		if target == nil {
			return nil
		}
		if !p.expectPeek("comprehension", token.IN) {
			return nil
		}
		p.nextToken()
		// The iterable excludes ternaries so that a trailing "if" reads
		// as a filter
		iter := p.parseExpression(TERNARY)
		if iter == nil {
			return nil
		}
		gen := &ast.Comprehension{Target: target, Iter: iter}
		for p.peekTokenIs(token.IF) {
			p.nextToken()
			p.nextToken()
			cond := p.parseExpression(TERNARY)
			if cond == nil {
				return nil
			}
			gen.Ifs = append(gen.Ifs, cond)
		}
		gen.Span = p.spanFrom(start)
		gens = append(gens, gen)
	}
	return gens
}
