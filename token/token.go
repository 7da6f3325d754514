// Package token defines language keywords and tokens used when lexing Cheetah
// source code.
package token

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Value     rune
	Char      int
	LineStart int
	Line      int
	Column    int
	File      string
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// Token represents one token lexed from the input source code.
type Token struct {
	Type          Type
	Literal       string
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"
	NEWLINE = "NEWLINE"
	INDENT  = "INDENT"
	DEDENT  = "DEDENT"

	IDENT   = "IDENT"
	INT     = "INT"
	FLOAT   = "FLOAT"
	STRING  = "STRING"
	BYTES   = "BYTES"
	FSTRING = "FSTRING"

	ASSIGN          = "="
	PLUS            = "+"
	MINUS           = "-"
	ASTERISK        = "*"
	POWER           = "**"
	SLASH           = "/"
	SLASH_SLASH     = "//"
	PERCENT         = "%"
	AT              = "@"
	AMPERSAND       = "&"
	PIPE            = "|"
	CARET           = "^"
	TILDE           = "~"
	LT_LT           = "<<"
	GT_GT           = ">>"
	PLUS_EQUALS     = "+="
	MINUS_EQUALS    = "-="
	ASTERISK_EQUALS = "*="
	SLASH_EQUALS    = "/="
	FLOOR_EQUALS    = "//="
	PERCENT_EQUALS  = "%="
	POWER_EQUALS    = "**="
	AMP_EQUALS      = "&="
	PIPE_EQUALS     = "|="
	CARET_EQUALS    = "^="
	LSHIFT_EQUALS   = "<<="
	RSHIFT_EQUALS   = ">>="
	WALRUS          = ":="

	EQ        = "=="
	NOT_EQ    = "!="
	LT        = "<"
	GT        = ">"
	LT_EQUALS = "<="
	GT_EQUALS = ">="

	COMMA     = ","
	COLON     = ":"
	SEMICOLON = ";"
	DOT       = "."
	ARROW     = "->"
	LPAREN    = "("
	RPAREN    = ")"
	LBRACKET  = "["
	RBRACKET  = "]"
	LBRACE    = "{"
	RBRACE    = "}"

	DEF      = "DEF"
	CLASS    = "CLASS"
	RETURN   = "RETURN"
	IF       = "IF"
	ELIF     = "ELIF"
	ELSE     = "ELSE"
	WHILE    = "WHILE"
	FOR      = "FOR"
	IN       = "IN"
	NOT      = "NOT"
	AND      = "AND"
	OR       = "OR"
	IS       = "IS"
	PASS     = "PASS"
	BREAK    = "BREAK"
	CONTINUE = "CONTINUE"
	LAMBDA   = "LAMBDA"
	TRUE     = "TRUE"
	FALSE    = "FALSE"
	NONE     = "NONE"
	GLOBAL   = "GLOBAL"
	NONLOCAL = "NONLOCAL"
	TRY      = "TRY"
	EXCEPT   = "EXCEPT"
	FINALLY  = "FINALLY"
	RAISE    = "RAISE"
	WITH     = "WITH"
	AS       = "AS"
	IMPORT   = "IMPORT"
	FROM     = "FROM"
	MATCH    = "MATCH"
	CASE     = "CASE"
	DEL      = "DEL"
	ASSERT   = "ASSERT"
	YIELD    = "YIELD"
	AWAIT    = "AWAIT"
	ASYNC    = "ASYNC"
)

var keywords = map[string]Type{
	"def":      DEF,
	"class":    CLASS,
	"return":   RETURN,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"not":      NOT,
	"and":      AND,
	"or":       OR,
	"is":       IS,
	"pass":     PASS,
	"break":    BREAK,
	"continue": CONTINUE,
	"lambda":   LAMBDA,
	"True":     TRUE,
	"False":    FALSE,
	"None":     NONE,
	"global":   GLOBAL,
	"nonlocal": NONLOCAL,
	"try":      TRY,
	"except":   EXCEPT,
	"finally":  FINALLY,
	"raise":    RAISE,
	"with":     WITH,
	"as":       AS,
	"import":   IMPORT,
	"from":     FROM,
	"match":    MATCH,
	"case":     CASE,
	"del":      DEL,
	"assert":   ASSERT,
	"yield":    YIELD,
	"await":    AWAIT,
	"async":    ASYNC,
}

// LookupIdent checks our keywords map for scanned identifiers, returning the
// keyword type if the identifier is a keyword and IDENT otherwise.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
