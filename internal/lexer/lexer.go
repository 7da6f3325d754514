// Package lexer converts Cheetah source text into a token stream.
//
// Cheetah is indentation sensitive: the lexer keeps a stack of
// indentation widths and emits synthetic INDENT and DEDENT tokens as the
// block structure deepens and unwinds. Inside parentheses, brackets, and
// braces, newlines and indentation carry no meaning.
package lexer

import (
	"fmt"

	"github.com/cheetah-lang/cheetah/token"
)

// Error is a lexing failure annotated with its source position.
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (line %d, column %d)",
		e.Message, e.Pos.LineNumber(), e.Pos.ColumnNumber())
}

type Lexer struct {
	input     []rune
	pos       int
	char      rune // current rune, 0 at end of input
	line      int
	column    int
	lineStart int
	file      string

	indents []int
	pending []token.Token
	depth   int // bracket nesting
	atLine  bool
	last    token.Type
	done    bool
}

func New(input string) *Lexer {
	l := &Lexer{
		input:   []rune(input),
		indents: []int{0},
		atLine:  true,
	}
	if len(l.input) > 0 {
		l.char = l.input[0]
	}
	return l
}

// SetFilename sets the filename attached to token positions.
func (l *Lexer) SetFilename(name string) { l.file = name }

// Filename returns the filename attached to token positions.
func (l *Lexer) Filename() string { return l.file }

// GetLineText returns the full source line containing the given token,
// for use in error messages.
func (l *Lexer) GetLineText(tok token.Token) string {
	start := tok.StartPosition.LineStart
	if start < 0 || start >= len(l.input) {
		return ""
	}
	end := start
	for end < len(l.input) && l.input[end] != '\n' {
		end++
	}
	return string(l.input[start:end])
}

// Tokenize collects every token through EOF.
func Tokenize(input, filename string) ([]token.Token, error) {
	l := New(input)
	l.SetFilename(filename)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

// Next returns the next token, or an error pointing at the offending
// input.
func (l *Lexer) Next() (token.Token, error) {
	for {
		if len(l.pending) > 0 {
			t := l.pending[0]
			l.pending = l.pending[1:]
			return l.ret(t)
		}
		if l.atLine && l.depth == 0 {
			if err := l.measureIndent(); err != nil {
				return token.Token{}, err
			}
			continue
		}
		l.skipSpace()
		switch {
		case l.char == 0:
			if !l.done {
				l.done = true
				if l.last != "" && l.last != token.NEWLINE &&
					l.last != token.INDENT && l.last != token.DEDENT {
					l.pending = append(l.pending, l.synthetic(token.NEWLINE))
				}
				for len(l.indents) > 1 {
					l.indents = l.indents[:len(l.indents)-1]
					l.pending = append(l.pending, l.synthetic(token.DEDENT))
				}
				continue
			}
			here := l.here()
			return l.ret(token.Token{Type: token.EOF, StartPosition: here, EndPosition: here})
		case l.char == '#':
			for l.char != '\n' && l.char != 0 {
				l.advance()
			}
		case l.char == '\n':
			start := l.here()
			l.advance()
			if l.depth > 0 {
				continue
			}
			l.atLine = true
			return l.ret(token.Token{
				Type: token.NEWLINE, Literal: "\n",
				StartPosition: start, EndPosition: start,
			})
		default:
			return l.scanToken()
		}
	}
}

func (l *Lexer) ret(t token.Token) (token.Token, error) {
	l.last = t.Type
	return t, nil
}

func (l *Lexer) advance() {
	if l.char == '\n' {
		l.line++
		l.column = 0
		l.lineStart = l.pos + 1
	} else if l.char != 0 {
		l.column++
	}
	l.pos++
	if l.pos < len(l.input) {
		l.char = l.input[l.pos]
	} else {
		l.char = 0
	}
}

func (l *Lexer) peek() rune {
	if l.pos+1 < len(l.input) {
		return l.input[l.pos+1]
	}
	return 0
}

func (l *Lexer) peek2() rune {
	if l.pos+2 < len(l.input) {
		return l.input[l.pos+2]
	}
	return 0
}

func (l *Lexer) here() token.Position {
	return token.Position{
		Value:     l.char,
		Char:      l.pos,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.column,
		File:      l.file,
	}
}

func (l *Lexer) synthetic(t token.Type) token.Token {
	here := l.here()
	return token.Token{Type: t, StartPosition: here, EndPosition: here}
}

// skipSpace consumes horizontal whitespace and backslash line
// continuations.
func (l *Lexer) skipSpace() {
	for {
		switch {
		case l.char == ' ' || l.char == '\t' || l.char == '\r':
			l.advance()
		case l.char == '\\' && l.peek() == '\n':
			l.advance()
			l.advance()
		default:
			return
		}
	}
}

// measureIndent runs at the start of each logical line, comparing its
// leading whitespace to the indentation stack. Blank and comment-only
// lines are consumed without affecting block structure. Tabs advance to
// the next multiple of eight columns.
func (l *Lexer) measureIndent() error {
	for {
		width := 0
		for {
			if l.char == ' ' {
				width++
				l.advance()
				continue
			}
			if l.char == '\t' {
				width += 8 - width%8
				l.advance()
				continue
			}
			break
		}
		if l.char == '#' {
			for l.char != '\n' && l.char != 0 {
				l.advance()
			}
		}
		if l.char == '\n' {
			l.advance()
			continue
		}
		l.atLine = false
		if l.char == 0 {
			return nil
		}
		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			l.pending = append(l.pending, l.synthetic(token.INDENT))
		case width < top:
			for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
				l.indents = l.indents[:len(l.indents)-1]
				l.pending = append(l.pending, l.synthetic(token.DEDENT))
			}
			if l.indents[len(l.indents)-1] != width {
				return &Error{
					Message: "unindent does not match any outer indentation level",
					Pos:     l.here(),
				}
			}
		}
		return nil
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch > 127
}

func isDigit(ch rune) bool { return '0' <= ch && ch <= '9' }

func isQuote(ch rune) bool { return ch == '"' || ch == '\'' }

func (l *Lexer) scanToken() (token.Token, error) {
	start := l.here()
	switch {
	case isLetter(l.char):
		if (l.char == 'f' || l.char == 'r' || l.char == 'b') && isQuote(l.peek()) {
			prefix := l.char
			l.advance()
			lit, err := l.scanString(prefix == 'r')
			if err != nil {
				return token.Token{}, err
			}
			t := token.Type(token.STRING)
			switch prefix {
			case 'f':
				t = token.FSTRING
			case 'b':
				t = token.BYTES
			}
			return l.ret(token.Token{Type: t, Literal: lit, StartPosition: start, EndPosition: l.here()})
		}
		lit := l.scanIdent()
		return l.ret(token.Token{
			Type: token.LookupIdent(lit), Literal: lit,
			StartPosition: start, EndPosition: l.here(),
		})
	case isDigit(l.char):
		return l.scanNumber(start)
	case isQuote(l.char):
		lit, err := l.scanString(false)
		if err != nil {
			return token.Token{}, err
		}
		return l.ret(token.Token{Type: token.STRING, Literal: lit, StartPosition: start, EndPosition: l.here()})
	default:
		return l.scanOperator(start)
	}
}

func (l *Lexer) scanIdent() string {
	from := l.pos
	for isLetter(l.char) || isDigit(l.char) {
		l.advance()
	}
	return string(l.input[from:l.pos])
}

func (l *Lexer) scanNumber(start token.Position) (token.Token, error) {
	from := l.pos
	if l.char == '0' && (l.peek() == 'x' || l.peek() == 'X' ||
		l.peek() == 'o' || l.peek() == 'O' || l.peek() == 'b' || l.peek() == 'B') {
		l.advance()
		l.advance()
		for isDigit(l.char) || ('a' <= l.char && l.char <= 'f') ||
			('A' <= l.char && l.char <= 'F') || l.char == '_' {
			l.advance()
		}
		return l.ret(token.Token{
			Type: token.INT, Literal: string(l.input[from:l.pos]),
			StartPosition: start, EndPosition: l.here(),
		})
	}
	isFloat := false
	for isDigit(l.char) || l.char == '_' {
		l.advance()
	}
	if l.char == '.' && isDigit(l.peek()) {
		isFloat = true
		l.advance()
		for isDigit(l.char) || l.char == '_' {
			l.advance()
		}
	}
	if l.char == 'e' || l.char == 'E' {
		next := l.peek()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peek2())) {
			isFloat = true
			l.advance()
			if l.char == '+' || l.char == '-' {
				l.advance()
			}
			for isDigit(l.char) {
				l.advance()
			}
		}
	}
	t := token.Type(token.INT)
	if isFloat {
		t = token.FLOAT
	}
	return l.ret(token.Token{
		Type: t, Literal: string(l.input[from:l.pos]),
		StartPosition: start, EndPosition: l.here(),
	})
}

// scanString consumes a quoted literal, returning its processed
// contents. Triple quotes span lines; single quotes must close before
// the line ends. Raw strings keep backslashes untouched.
func (l *Lexer) scanString(raw bool) (string, error) {
	quote := l.char
	start := l.here()
	triple := l.peek() == quote && l.peek2() == quote
	l.advance()
	if triple {
		l.advance()
		l.advance()
	}
	var out []rune
	for {
		if l.char == 0 {
			return "", &Error{Message: "unterminated string literal", Pos: start}
		}
		if !triple && l.char == '\n' {
			return "", &Error{Message: "unterminated string literal", Pos: start}
		}
		if l.char == quote {
			if !triple {
				l.advance()
				return string(out), nil
			}
			if l.peek() == quote && l.peek2() == quote {
				l.advance()
				l.advance()
				l.advance()
				return string(out), nil
			}
		}
		if l.char == '\\' && !raw {
			l.advance()
			switch l.char {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '0':
				out = append(out, 0)
			case '\\', '\'', '"':
				out = append(out, l.char)
			case '\n':
				// escaped newline joins the lines
			default:
				out = append(out, '\\', l.char)
			}
			l.advance()
			continue
		}
		out = append(out, l.char)
		l.advance()
	}
}

var threeCharOps = map[string]token.Type{
	"**=": token.POWER_EQUALS,
	"//=": token.FLOOR_EQUALS,
	"<<=": token.LSHIFT_EQUALS,
	">>=": token.RSHIFT_EQUALS,
}

var twoCharOps = map[string]token.Type{
	"**": token.POWER,
	"//": token.SLASH_SLASH,
	"<<": token.LT_LT,
	">>": token.GT_GT,
	"<=": token.LT_EQUALS,
	">=": token.GT_EQUALS,
	"==": token.EQ,
	"!=": token.NOT_EQ,
	"+=": token.PLUS_EQUALS,
	"-=": token.MINUS_EQUALS,
	"*=": token.ASTERISK_EQUALS,
	"/=": token.SLASH_EQUALS,
	"%=": token.PERCENT_EQUALS,
	"&=": token.AMP_EQUALS,
	"|=": token.PIPE_EQUALS,
	"^=": token.CARET_EQUALS,
	":=": token.WALRUS,
	"->": token.ARROW,
}

var oneCharOps = map[rune]token.Type{
	'=': token.ASSIGN,
	'+': token.PLUS,
	'-': token.MINUS,
	'*': token.ASTERISK,
	'/': token.SLASH,
	'%': token.PERCENT,
	'@': token.AT,
	'&': token.AMPERSAND,
	'|': token.PIPE,
	'^': token.CARET,
	'~': token.TILDE,
	'<': token.LT,
	'>': token.GT,
	',': token.COMMA,
	':': token.COLON,
	';': token.SEMICOLON,
	'.': token.DOT,
	'(': token.LPAREN,
	')': token.RPAREN,
	'[': token.LBRACKET,
	']': token.RBRACKET,
	'{': token.LBRACE,
	'}': token.RBRACE,
}

func (l *Lexer) scanOperator(start token.Position) (token.Token, error) {
	if t, ok := threeCharOps[string([]rune{l.char, l.peek(), l.peek2()})]; ok {
		lit := string([]rune{l.char, l.peek(), l.peek2()})
		l.advance()
		l.advance()
		l.advance()
		return l.ret(token.Token{Type: t, Literal: lit, StartPosition: start, EndPosition: l.here()})
	}
	if t, ok := twoCharOps[string([]rune{l.char, l.peek()})]; ok {
		lit := string([]rune{l.char, l.peek()})
		l.advance()
		l.advance()
		return l.ret(token.Token{Type: t, Literal: lit, StartPosition: start, EndPosition: l.here()})
	}
	if t, ok := oneCharOps[l.char]; ok {
		lit := string(l.char)
		switch l.char {
		case '(', '[', '{':
			l.depth++
		case ')', ']', '}':
			if l.depth > 0 {
				l.depth--
			}
		}
		l.advance()
		return l.ret(token.Token{Type: t, Literal: lit, StartPosition: start, EndPosition: l.here()})
	}
	err := &Error{Message: fmt.Sprintf("unexpected character %q", l.char), Pos: l.here()}
	l.advance()
	return token.Token{}, err
}
