// Package parser generates the abstract syntax tree (AST) for a Cheetah
// program.
//
// A parser is created by calling New() with a lexer as input. The parser
// should then be used only once, by calling parser.Parse() to produce
// the AST.
package parser

import (
	"context"
	"fmt"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/internal/lexer"
	"github.com/cheetah-lang/cheetah/token"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// statementTerminators defines tokens that end a simple statement.
// Cheetah is line oriented: the lexer emits NEWLINE at the end of each
// logical line and DEDENT when a block closes, so statement recovery
// only ever needs to skip forward to one of these.
var statementTerminators = map[token.Type]bool{
	token.SEMICOLON: true,
	token.NEWLINE:   true,
	token.DEDENT:    true,
	token.EOF:       true,
}

// statementKeywords are tokens that can only begin a statement. They
// serve as secondary synchronization points during error recovery.
var statementKeywords = map[token.Type]bool{
	token.DEF:      true,
	token.CLASS:    true,
	token.RETURN:   true,
	token.IF:       true,
	token.WHILE:    true,
	token.FOR:      true,
	token.TRY:      true,
	token.WITH:     true,
	token.RAISE:    true,
	token.IMPORT:   true,
	token.FROM:     true,
	token.DEL:      true,
	token.ASSERT:   true,
	token.GLOBAL:   true,
	token.NONLOCAL: true,
	token.PASS:     true,
	token.BREAK:    true,
	token.CONTINUE: true,
}

// Parse the provided input as Cheetah source code and return the AST.
// This is a shorthand way to create a Lexer and Parser and then call
// Parse on that.
func Parse(ctx context.Context, input string, options ...Option) (*ast.Module, error) {
	// Extract filename from options before creating the parser, so that
	// lexer errors in the first tokens have proper location context.
	var filename string
	for _, opt := range options {
		var probe Parser
		opt(&probe)
		if probe.filename != "" {
			filename = probe.filename
			break
		}
	}
	l := lexer.New(input)
	if filename != "" {
		l.SetFilename(filename)
	}
	p := New(l, options...)
	return p.Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name reported in error messages.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth sets the maximum nesting depth for the parser. This
// prevents stack overflow on deeply nested input. The default is 500.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 500

// MaxErrors is the maximum number of errors to collect before stopping.
const MaxErrors = 10

// Parser object
type Parser struct {
	// the Context supplied in the Parse() call
	ctx context.Context

	// l is our lexer
	l *lexer.Lexer

	// prevToken holds the previous token, which we already processed.
	prevToken token.Token

	// curToken holds the current token from the lexer.
	curToken token.Token

	// peekToken holds the next token from the lexer.
	peekToken token.Token

	// parsing errors collected during parsing
	errors []ParserError

	// stmtErrorCount tracks error count at start of current statement.
	// Used by inner methods to detect if an error was added during this
	// statement.
	stmtErrorCount int

	// prefixParseFns holds a map of parsing methods for prefix position
	prefixParseFns map[token.Type]prefixParseFn

	// infixParseFns holds a map of parsing methods for infix position
	infixParseFns map[token.Type]infixParseFn

	// The filename of the input
	filename string

	// Current recursion depth
	depth int

	// Maximum allowed recursion depth
	maxDepth int
}

// New returns a Parser for the program provided by the given Lexer.
func New(l *lexer.Lexer, options ...Option) *Parser {
	p := &Parser{
		l:              l,
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.filename != "" {
		l.SetFilename(p.filename)
	}

	// Prime the token pump
	p.nextToken() // makes curToken=<empty>, peekToken=token[0]
	p.nextToken() // makes curToken=token[0], peekToken=token[1]

	// Register prefix-functions
	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.INT, p.parseInt)
	p.registerPrefix(token.FLOAT, p.parseFloat)
	p.registerPrefix(token.STRING, p.parseString)
	p.registerPrefix(token.BYTES, p.parseBytes)
	p.registerPrefix(token.FSTRING, p.parseFString)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.NONE, p.parseNone)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.LBRACKET, p.parseListLiteral)
	p.registerPrefix(token.LBRACE, p.parseDictOrSet)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.PLUS, p.parsePrefixExpr)
	p.registerPrefix(token.TILDE, p.parsePrefixExpr)
	p.registerPrefix(token.NOT, p.parseNotExpr)
	p.registerPrefix(token.ASTERISK, p.parseStarred)
	p.registerPrefix(token.LAMBDA, p.parseLambda)
	p.registerPrefix(token.YIELD, p.parseYield)
	p.registerPrefix(token.AWAIT, p.parseAwait)
	p.registerPrefix(token.EOF, p.illegalToken)
	p.registerPrefix(token.ILLEGAL, p.illegalToken)

	// Register infix functions
	p.registerInfix(token.PLUS, p.parseInfixExpr)
	p.registerInfix(token.MINUS, p.parseInfixExpr)
	p.registerInfix(token.ASTERISK, p.parseInfixExpr)
	p.registerInfix(token.SLASH, p.parseInfixExpr)
	p.registerInfix(token.SLASH_SLASH, p.parseInfixExpr)
	p.registerInfix(token.PERCENT, p.parseInfixExpr)
	p.registerInfix(token.POWER, p.parseInfixExpr)
	p.registerInfix(token.AMPERSAND, p.parseInfixExpr)
	p.registerInfix(token.PIPE, p.parseInfixExpr)
	p.registerInfix(token.CARET, p.parseInfixExpr)
	p.registerInfix(token.LT_LT, p.parseInfixExpr)
	p.registerInfix(token.GT_GT, p.parseInfixExpr)
	p.registerInfix(token.EQ, p.parseComparison)
	p.registerInfix(token.NOT_EQ, p.parseComparison)
	p.registerInfix(token.LT, p.parseComparison)
	p.registerInfix(token.LT_EQUALS, p.parseComparison)
	p.registerInfix(token.GT, p.parseComparison)
	p.registerInfix(token.GT_EQUALS, p.parseComparison)
	p.registerInfix(token.IN, p.parseComparison)
	p.registerInfix(token.IS, p.parseComparison)
	p.registerInfix(token.NOT, p.parseNotIn)
	p.registerInfix(token.AND, p.parseBoolOp)
	p.registerInfix(token.OR, p.parseBoolOp)
	p.registerInfix(token.IF, p.parseTernary)
	p.registerInfix(token.WALRUS, p.parseNamedExpr)
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.LBRACKET, p.parseIndex)
	p.registerInfix(token.DOT, p.parseAttribute)

	return p
}

// Parse the program that is provided via the lexer.
// Returns the AST and any errors encountered. If there are errors, the
// AST may be partial, containing only successfully parsed statements.
func (p *Parser) Parse(ctx context.Context) (*ast.Module, error) {
	p.ctx = ctx
	// It's possible for errors to already exist because we read tokens
	// from the lexer in the constructor.
	if p.hasErrors() {
		return nil, NewErrors(p.errors)
	}
	var statements []ast.Stmt
	for p.curToken.Type != token.EOF {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if p.tooManyErrors() {
			break
		}
		// Blank lines and semicolons between statements carry no meaning
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		p.stmtErrorCount = len(p.errors)
		stmt := p.parseStatement()
		if stmt != nil {
			statements = append(statements, stmt)
		} else if p.hadNewError() {
			p.synchronize()
			continue
		}
		p.nextToken()
	}
	module := &ast.Module{Stmts: statements, Filename: p.l.Filename()}
	if p.hasErrors() {
		return module, NewErrors(p.errors)
	}
	return module, nil
}

// registerPrefix registers a function for handling a token in prefix position.
func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

// registerInfix registers a function for handling a token in infix position.
func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// advanceToken moves to the next token from the lexer without error
// checking. Used internally by synchronize() during error recovery.
func (p *Parser) advanceToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken, _ = p.l.Next()
}

// nextToken moves to the next token from the lexer, updating all of
// prevToken, curToken, and peekToken.
func (p *Parser) nextToken() error {
	var err error
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken, err = p.l.Next()
	if err == nil {
		return nil
	}
	// The lexer encountered an error. We consider all lexer errors
	// "syntax errors" and parsing will now be considered broken.
	p.addError(NewSyntaxError(ErrorOpts{
		Cause:         err,
		File:          p.l.Filename(),
		StartPosition: p.peekToken.StartPosition,
		EndPosition:   p.peekToken.EndPosition,
		SourceCode:    p.l.GetLineText(p.peekToken),
	}))
	return err
}

// addError appends an error to the errors slice.
func (p *Parser) addError(err ParserError) {
	p.errors = append(p.errors, err)
}

func (p *Parser) setError(err ParserError) {
	p.addError(err)
}

// hasErrors returns true if any errors have been recorded.
func (p *Parser) hasErrors() bool {
	return len(p.errors) > 0
}

// tooManyErrors returns true if the error limit has been reached.
func (p *Parser) tooManyErrors() bool {
	return len(p.errors) >= MaxErrors
}

// hadNewError returns true if an error was added during the current statement.
func (p *Parser) hadNewError() bool {
	return len(p.errors) > p.stmtErrorCount
}

// synchronize skips tokens until a statement boundary is reached. This
// is used for error recovery to continue parsing after an error.
func (p *Parser) synchronize() {
	for !p.curTokenIs(token.EOF) {
		if statementTerminators[p.curToken.Type] {
			return
		}
		prevPos := p.curToken.StartPosition
		p.advanceToken()
		// Safety: if we didn't advance (lexer stuck), bail out
		if p.curToken.StartPosition == prevPos {
			return
		}
		if statementKeywords[p.curToken.Type] {
			return
		}
	}
}

func (p *Parser) noPrefixParseFnError(t token.Token) {
	p.addError(NewParserError(ErrorOpts{
		ErrType:       "parse error",
		Message:       fmt.Sprintf("invalid syntax (unexpected %s)", tokenDescription(t)),
		File:          p.l.Filename(),
		StartPosition: t.StartPosition,
		EndPosition:   t.EndPosition,
		SourceCode:    p.l.GetLineText(t),
	}))
}

// peekError raises an error if the next token is not the expected type.
func (p *Parser) peekError(context string, expected token.Type, got token.Token) {
	p.addError(NewParserError(ErrorOpts{
		ErrType: "parse error",
		Message: fmt.Sprintf("unexpected %s while parsing %s (expected %s)",
			tokenDescription(got), context, tokenTypeDescription(expected)),
		File:          p.l.Filename(),
		StartPosition: got.StartPosition,
		EndPosition:   got.EndPosition,
		SourceCode:    p.l.GetLineText(got),
	}))
}

func (p *Parser) setTokenError(t token.Token, msg string, args ...interface{}) ast.Expr {
	p.setError(NewParserError(ErrorOpts{
		ErrType:       "parse error",
		Message:       fmt.Sprintf(msg, args...),
		File:          p.l.Filename(),
		StartPosition: t.StartPosition,
		EndPosition:   t.EndPosition,
		SourceCode:    p.l.GetLineText(t),
	}))
	return nil
}

// cancelled checks if the parsing context has been cancelled. Returns
// true if cancelled, in which case parsing should stop.
func (p *Parser) cancelled() bool {
	if p.ctx == nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		p.setError(NewParserError(ErrorOpts{
			ErrType: "context error",
			Message: p.ctx.Err().Error(),
		}))
		return true
	default:
		return false
	}
}

// parseExpression is the core of the Pratt expression parser. It is
// called with curToken on the first token of the expression and returns
// with curToken on its last token.
func (p *Parser) parseExpression(precedence int) ast.Expr {
	if p.curToken.Type == token.EOF || p.hadNewError() {
		return nil
	}
	p.depth++
	if p.depth > p.maxDepth {
		p.setTokenError(p.curToken, "maximum nesting depth exceeded")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if p.hadNewError() || leftExp == nil {
		return nil
	}
	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		if err := p.nextToken(); err != nil {
			return nil
		}
		leftExp = infix(leftExp)
		if p.hadNewError() || leftExp == nil {
			return nil
		}
	}
	return leftExp
}

func (p *Parser) illegalToken() ast.Expr {
	return p.setTokenError(p.curToken, "illegal token %s", tokenDescription(p.curToken))
}

// curTokenIs returns true if the current token has the given type.
func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

// peekTokenIs returns true if the next token has the given type.
func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}

// expectPeek validates that the next token is of the given type, and
// advances if it is. If it's a different type, an error is stored.
func (p *Parser) expectPeek(context string, t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(context, t, p.peekToken)
	return false
}

// peekPrecedence returns the precedence of the next token.
func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// currentPrecedence returns the precedence of the current token.
func (p *Parser) currentPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// spanFrom builds a Span from a start position through the end of the
// current token.
func (p *Parser) spanFrom(start token.Position) ast.Span {
	return ast.Span{From: start, To: p.curToken.EndPosition}
}

// spanTok builds a Span covering a single token.
func spanTok(t token.Token) ast.Span {
	return ast.Span{From: t.StartPosition, To: t.EndPosition}
}

// spanOf builds a Span from a start position through the end of an
// already-parsed node.
func spanOf(start token.Position, end ast.Node) ast.Span {
	return ast.Span{From: start, To: end.End()}
}
