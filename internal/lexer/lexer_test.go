package lexer

import (
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"

	"github.com/cheetah-lang/cheetah/token"
)

type tokenExpectation struct {
	expectedType    token.Type
	expectedLiteral string
}

func expectTokens(t *testing.T, input string, tests []tokenExpectation) {
	t.Helper()
	l := New(input)
	for i, tt := range tests {
		tok, err := l.Next()
		assert.Nil(t, err)
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong, expected=%q, got=%q (literal %q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong, expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestSimpleAssignment(t *testing.T) {
	expectTokens(t, "x = 1 + 2\n", []tokenExpectation{
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.PLUS, "+"},
		{token.INT, "2"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestOperators(t *testing.T) {
	expectTokens(t, "** // << >> <= >= == != += -= *= /= %= **= //= := -> ~ ^ | &\n", []tokenExpectation{
		{token.POWER, "**"},
		{token.SLASH_SLASH, "//"},
		{token.LT_LT, "<<"},
		{token.GT_GT, ">>"},
		{token.LT_EQUALS, "<="},
		{token.GT_EQUALS, ">="},
		{token.EQ, "=="},
		{token.NOT_EQ, "!="},
		{token.PLUS_EQUALS, "+="},
		{token.MINUS_EQUALS, "-="},
		{token.ASTERISK_EQUALS, "*="},
		{token.SLASH_EQUALS, "/="},
		{token.PERCENT_EQUALS, "%="},
		{token.POWER_EQUALS, "**="},
		{token.FLOOR_EQUALS, "//="},
		{token.WALRUS, ":="},
		{token.ARROW, "->"},
		{token.TILDE, "~"},
		{token.CARET, "^"},
		{token.PIPE, "|"},
		{token.AMPERSAND, "&"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestKeywords(t *testing.T) {
	expectTokens(t, "def f(): pass\n", []tokenExpectation{
		{token.DEF, "def"},
		{token.IDENT, "f"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.COLON, ":"},
		{token.PASS, "pass"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestIndentation(t *testing.T) {
	input := "if x:\n    y = 1\n    z = 2\nw = 3\n"
	expectTokens(t, input, []tokenExpectation{
		{token.IF, "if"},
		{token.IDENT, "x"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, ""},
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "z"},
		{token.ASSIGN, "="},
		{token.INT, "2"},
		{token.NEWLINE, "\n"},
		{token.DEDENT, ""},
		{token.IDENT, "w"},
		{token.ASSIGN, "="},
		{token.INT, "3"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestNestedIndentation(t *testing.T) {
	input := "while a:\n  if b:\n    c\n  d\n"
	expectTokens(t, input, []tokenExpectation{
		{token.WHILE, "while"},
		{token.IDENT, "a"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, ""},
		{token.IF, "if"},
		{token.IDENT, "b"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, ""},
		{token.IDENT, "c"},
		{token.NEWLINE, "\n"},
		{token.DEDENT, ""},
		{token.IDENT, "d"},
		{token.NEWLINE, "\n"},
		{token.DEDENT, ""},
		{token.EOF, ""},
	})
}

func TestBlankAndCommentLinesIgnored(t *testing.T) {
	input := "a = 1\n\n# comment\n   # indented comment\nb = 2\n"
	expectTokens(t, input, []tokenExpectation{
		{token.IDENT, "a"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "b"},
		{token.ASSIGN, "="},
		{token.INT, "2"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestTrailingCommentOnCodeLine(t *testing.T) {
	expectTokens(t, "x = 1  # set x\n", []tokenExpectation{
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestBracketsSuppressNewlines(t *testing.T) {
	input := "xs = [1,\n      2,\n      3]\n"
	expectTokens(t, input, []tokenExpectation{
		{token.IDENT, "xs"},
		{token.ASSIGN, "="},
		{token.LBRACKET, "["},
		{token.INT, "1"},
		{token.COMMA, ","},
		{token.INT, "2"},
		{token.COMMA, ","},
		{token.INT, "3"},
		{token.RBRACKET, "]"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestBackslashContinuation(t *testing.T) {
	expectTokens(t, "x = 1 + \\\n    2\n", []tokenExpectation{
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.PLUS, "+"},
		{token.INT, "2"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestStrings(t *testing.T) {
	input := `s = "hi" + 'there' + "a\nb"` + "\n"
	expectTokens(t, input, []tokenExpectation{
		{token.IDENT, "s"},
		{token.ASSIGN, "="},
		{token.STRING, "hi"},
		{token.PLUS, "+"},
		{token.STRING, "there"},
		{token.PLUS, "+"},
		{token.STRING, "a\nb"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestTripleQuotedString(t *testing.T) {
	input := "s = \"\"\"line1\nline2\"\"\"\n"
	expectTokens(t, input, []tokenExpectation{
		{token.IDENT, "s"},
		{token.ASSIGN, "="},
		{token.STRING, "line1\nline2"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestStringPrefixes(t *testing.T) {
	input := `a = f"x={x}"` + "\n" + `b = r"a\nb"` + "\n"
	expectTokens(t, input, []tokenExpectation{
		{token.IDENT, "a"},
		{token.ASSIGN, "="},
		{token.FSTRING, "x={x}"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "b"},
		{token.ASSIGN, "="},
		{token.STRING, `a\nb`},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestNumbers(t *testing.T) {
	expectTokens(t, "1 42 3.14 1e3 2.5e-2 0xff 0b101 0o17 1_000\n", []tokenExpectation{
		{token.INT, "1"},
		{token.INT, "42"},
		{token.FLOAT, "3.14"},
		{token.FLOAT, "1e3"},
		{token.FLOAT, "2.5e-2"},
		{token.INT, "0xff"},
		{token.INT, "0b101"},
		{token.INT, "0o17"},
		{token.INT, "1_000"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestMissingFinalNewline(t *testing.T) {
	expectTokens(t, "x = 1", []tokenExpectation{
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.NEWLINE, ""},
		{token.EOF, ""},
	})
}

func TestDedentAtEOF(t *testing.T) {
	expectTokens(t, "if a:\n    b", []tokenExpectation{
		{token.IF, "if"},
		{token.IDENT, "a"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, ""},
		{token.IDENT, "b"},
		{token.NEWLINE, ""},
		{token.DEDENT, ""},
		{token.EOF, ""},
	})
}

func TestInconsistentDedentFails(t *testing.T) {
	l := New("if a:\n    b\n  c\n")
	var err error
	for i := 0; i < 10; i++ {
		var tok token.Token
		tok, err = l.Next()
		if err != nil || tok.Type == token.EOF {
			break
		}
	}
	assert.NotNil(t, err)
	lexErr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Contains(t, lexErr.Error(), "unindent")
}

func TestUnterminatedStringFails(t *testing.T) {
	_, err := Tokenize(`s = "abc`, "test.ch")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "unterminated")
}

func TestUnexpectedCharacterFails(t *testing.T) {
	_, err := Tokenize("x = 1 $\n", "test.ch")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "unexpected character")
}

func TestPositions(t *testing.T) {
	l := New("a = 1\nbb = 2\n")
	l.SetFilename("test.ch")
	var toks []token.Token
	for {
		tok, err := l.Next()
		assert.Nil(t, err)
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	// "bb" starts at line 2, column 1.
	assert.Equal(t, toks[4].Literal, "bb")
	assert.Equal(t, toks[4].StartPosition.LineNumber(), 2)
	assert.Equal(t, toks[4].StartPosition.ColumnNumber(), 1)
	assert.Equal(t, toks[4].StartPosition.File, "test.ch")
}

func TestSemicolonSeparatesStatements(t *testing.T) {
	expectTokens(t, "a = 1; b = 2\n", []tokenExpectation{
		{token.IDENT, "a"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "b"},
		{token.ASSIGN, "="},
		{token.INT, "2"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}
