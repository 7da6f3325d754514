package parser

import (
	"strconv"
	"strings"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/internal/lexer"
	"github.com/cheetah-lang/cheetah/token"
)

func (p *Parser) parseInt() ast.Expr {
	lit := p.curToken.Literal
	var value int64
	var err error
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") ||
		strings.HasPrefix(lit, "0o") || strings.HasPrefix(lit, "0O") ||
		strings.HasPrefix(lit, "0b") || strings.HasPrefix(lit, "0B") {
		value, err = strconv.ParseInt(lit, 0, 64)
	} else {
		value, err = strconv.ParseInt(strings.ReplaceAll(lit, "_", ""), 10, 64)
	}
	if err != nil {
		return p.setTokenError(p.curToken, "could not parse %q as an integer", lit)
	}
	return &ast.Int{Span: spanTok(p.curToken), Value: value}
}

func (p *Parser) parseFloat() ast.Expr {
	lit := p.curToken.Literal
	value, err := strconv.ParseFloat(strings.ReplaceAll(lit, "_", ""), 64)
	if err != nil {
		return p.setTokenError(p.curToken, "could not parse %q as a float", lit)
	}
	return &ast.Float{Span: spanTok(p.curToken), Value: value}
}

func (p *Parser) parseString() ast.Expr {
	// Adjacent string literals concatenate: "a" "b" is "ab"
	value := p.curToken.Literal
	start := p.curToken.StartPosition
	for p.peekTokenIs(token.STRING) {
		p.nextToken()
		value += p.curToken.Literal
	}
	return &ast.Str{Span: p.spanFrom(start), Value: value}
}

func (p *Parser) parseBytes() ast.Expr {
	return &ast.Bytes{Span: spanTok(p.curToken), Value: []byte(p.curToken.Literal)}
}

func (p *Parser) parseBoolean() ast.Expr {
	return &ast.Bool{Span: spanTok(p.curToken), Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNone() ast.Expr {
	return &ast.NoneLiteral{Span: spanTok(p.curToken)}
}

// parseListLiteral parses a list display or list comprehension, with
// curToken on the opening bracket.
func (p *Parser) parseListLiteral() ast.Expr {
	start := p.curToken.StartPosition
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return &ast.List{Span: p.spanFrom(start)}
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
		if !p.expectPeek("list comprehension", token.RBRACKET) {
			return nil
		}
		return &ast.ListComp{Span: p.spanFrom(start), Elt: first, Generators: gens}
	}
	elts := []ast.Expr{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RBRACKET) {
			break // trailing comma
		}
		p.nextToken()
		elt := p.parseExpression(LOWEST)
		if elt == nil {
			return nil
		}
		elts = append(elts, elt)
	}
	if !p.expectPeek("list", token.RBRACKET) {
		return nil
	}
	return &ast.List{Span: p.spanFrom(start), Elts: elts}
}

// parseDictOrSet parses a dict or set display (or comprehension), with
// curToken on the opening brace. "{}" is an empty dict.
func (p *Parser) parseDictOrSet() ast.Expr {
	start := p.curToken.StartPosition
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return &ast.Dict{Span: p.spanFrom(start)}
	}
	if p.peekTokenIs(token.POWER) {
		return p.setTokenError(p.peekToken, "dict unpacking is not supported")
	}
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.COLON) {
		return p.parseDictRest(start, first)
	}
	return p.parseSetRest(start, first)
}

// parseDictRest parses the remainder of a dict display after its first
// key, with the ":" as the peek token.
func (p *Parser) parseDictRest(start token.Position, firstKey ast.Expr) ast.Expr {
	p.nextToken() // the ":"
	p.nextToken()
	firstValue := p.parseExpression(LOWEST)
	if firstValue == nil {
		return nil
	}
	if p.peekTokenIs(token.FOR) {
		gens := p.parseComprehensions()
		if gens == nil {
			return nil
		}
		if !p.expectPeek("dict comprehension", token.RBRACE) {
			return nil
		}
		return &ast.DictComp{
			Span:       p.spanFrom(start),
			Key:        firstKey,
			Value:      firstValue,
			Generators: gens,
		}
	}
	dict := &ast.Dict{Keys: []ast.Expr{firstKey}, Values: []ast.Expr{firstValue}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RBRACE) {
			break // trailing comma
		}
		p.nextToken()
		key := p.parseExpression(LOWEST)
		if key == nil {
			return nil
		}
		if !p.expectPeek("dict", token.COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		dict.Keys = append(dict.Keys, key)
		dict.Values = append(dict.Values, value)
	}
	if !p.expectPeek("dict", token.RBRACE) {
		return nil
	}
	dict.Span = p.spanFrom(start)
	return dict
}

// parseSetRest parses the remainder of a set display after its first
// element.
func (p *Parser) parseSetRest(start token.Position, first ast.Expr) ast.Expr {
	if p.peekTokenIs(token.FOR) {
		gens := p.parseComprehensions()
		if gens == nil {
			return nil
		}
		if !p.expectPeek("set comprehension", token.RBRACE) {
			return nil
		}
		return &ast.SetComp{Span: p.spanFrom(start), Elt: first, Generators: gens}
	}
	elts := []ast.Expr{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RBRACE) {
			break // trailing comma
		}
		p.nextToken()
		elt := p.parseExpression(LOWEST)
		if elt == nil {
			return nil
		}
		elts = append(elts, elt)
	}
	if !p.expectPeek("set", token.RBRACE) {
		return nil
	}
	return &ast.Set{Span: p.spanFrom(start), Elts: elts}
}

// parseFString splits an f-string literal into literal text and
// interpolated expressions. The lexer has already processed escapes but
// left braces untouched. Conversion markers (!r) and format specs
// (:>8) are accepted and discarded; formatting happens via str() at
// runtime.
func (p *Parser) parseFString() ast.Expr {
	tok := p.curToken
	runes := []rune(tok.Literal)
	joined := &ast.JoinedStr{Span: spanTok(tok)}
	var lit []rune
	flush := func() {
		if len(lit) > 0 {
			joined.Values = append(joined.Values, &ast.Str{Span: spanTok(tok), Value: string(lit)})
			lit = lit[:0]
		}
	}
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '{' && i+1 < len(runes) && runes[i+1] == '{':
			lit = append(lit, '{')
			i++
		case ch == '}' && i+1 < len(runes) && runes[i+1] == '}':
			lit = append(lit, '}')
			i++
		case ch == '}':
			return p.setTokenError(tok, "f-string: single '}' is not allowed")
		case ch == '{':
			end, exprEnd := scanFStringExpr(runes, i+1)
			if end < 0 {
				return p.setTokenError(tok, "f-string: expecting '}'")
			}
			text := strings.TrimSpace(string(runes[i+1 : exprEnd]))
			if text == "" {
				return p.setTokenError(tok, "f-string: empty expression not allowed")
			}
			value := p.parseFStringExpr(text, tok)
			if value == nil {
				return nil
			}
			flush()
			joined.Values = append(joined.Values, &ast.FormattedValue{
				Span:  spanTok(tok),
				Value: value,
			})
			i = end
		default:
			lit = append(lit, ch)
		}
	}
	flush()
	return joined
}

// scanFStringExpr finds the "}" closing an interpolation that starts at
// from. It returns the index of the closing brace and the index where
// the expression text ends (before any conversion or format spec), or
// (-1, -1) if the brace is unbalanced.
func scanFStringExpr(runes []rune, from int) (end, exprEnd int) {
	depth := 0
	exprEnd = -1
	for j := from; j < len(runes); j++ {
		switch runes[j] {
		case '{', '[', '(':
			depth++
		case ']', ')':
			depth--
		case '}':
			if depth == 0 {
				if exprEnd < 0 {
					exprEnd = j
				}
				return j, exprEnd
			}
			depth--
		case ':':
			if depth == 0 && exprEnd < 0 {
				exprEnd = j
			}
		case '!':
			// A conversion marker, unless it is the != operator
			if depth == 0 && exprEnd < 0 && (j+1 >= len(runes) || runes[j+1] != '=') {
				exprEnd = j
			}
		}
	}
	return -1, -1
}

// parseFStringExpr parses the expression text of one interpolation with
// a fresh sub-parser.
func (p *Parser) parseFStringExpr(text string, tok token.Token) ast.Expr {
	sub := New(lexer.New(text), WithMaxDepth(p.maxDepth-p.depth))
	expr := sub.parseExpressionList(LOWEST)
	if expr == nil || sub.hasErrors() ||
		(!sub.peekTokenIs(token.NEWLINE) && !sub.peekTokenIs(token.EOF)) {
		return p.setTokenError(tok, "f-string: invalid expression %q", text)
	}
	return expr
}
