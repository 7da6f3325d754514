package parser

import (
	"github.com/cheetah-lang/cheetah/token"
)

// Operator precedence levels, from loosest to tightest binding.
const (
	_ int = iota
	LOWEST
	TERNARY    // x if cond else y
	WALRUS     // :=
	OR         // or
	AND        // and
	NOT        // not x
	COMPARISON // == != < <= > >= in "not in" is "is not"
	BITOR      // |
	BITXOR     // ^
	BITAND     // &
	SHIFT      // << >>
	SUM        // + -
	PRODUCT    // * / // %
	PREFIX     // unary + - ~
	POWER      // ** (right associative)
	CALL       // f(x)
	INDEX      // a[i] obj.attr
)

// precedences maps token types to their binding power when used in
// infix position.
var precedences = map[token.Type]int{
	token.IF:          TERNARY,
	token.WALRUS:      WALRUS,
	token.OR:          OR,
	token.AND:         AND,
	token.EQ:          COMPARISON,
	token.NOT_EQ:      COMPARISON,
	token.LT:          COMPARISON,
	token.LT_EQUALS:   COMPARISON,
	token.GT:          COMPARISON,
	token.GT_EQUALS:   COMPARISON,
	token.IN:          COMPARISON,
	token.NOT:         COMPARISON, // "not in"
	token.IS:          COMPARISON,
	token.PIPE:        BITOR,
	token.CARET:       BITXOR,
	token.AMPERSAND:   BITAND,
	token.LT_LT:       SHIFT,
	token.GT_GT:       SHIFT,
	token.PLUS:        SUM,
	token.MINUS:       SUM,
	token.ASTERISK:    PRODUCT,
	token.SLASH:       PRODUCT,
	token.SLASH_SLASH: PRODUCT,
	token.PERCENT:     PRODUCT,
	token.POWER:       POWER,
	token.LPAREN:      CALL,
	token.LBRACKET:    INDEX,
	token.DOT:         INDEX,
}
