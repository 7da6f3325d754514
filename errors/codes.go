package errors

// ErrorCode identifies a diagnostic. Codes are organized by category:
//   - E1xxx: lex and parse errors
//   - E2xxx: type errors
//   - E3xxx: lowering and codegen errors
type ErrorCode string

const (
	// Lex/parse errors (E1xxx)
	E1001 ErrorCode = "E1001" // Unexpected token
	E1002 ErrorCode = "E1002" // Unterminated string literal
	E1003 ErrorCode = "E1003" // Invalid syntax
	E1004 ErrorCode = "E1004" // Missing expression
	E1005 ErrorCode = "E1005" // Invalid assignment target
	E1006 ErrorCode = "E1006" // Expected identifier
	E1007 ErrorCode = "E1007" // Unclosed delimiter
	E1008 ErrorCode = "E1008" // Invalid number literal
	E1009 ErrorCode = "E1009" // Inconsistent indentation
	E1010 ErrorCode = "E1010" // Invalid escape sequence

	// Type errors (E2xxx)
	E2001 ErrorCode = "E2001" // Undefined variable
	E2002 ErrorCode = "E2002" // Incompatible types
	E2003 ErrorCode = "E2003" // Invalid operator for operand types
	E2004 ErrorCode = "E2004" // Wrong argument count
	E2005 ErrorCode = "E2005" // Invalid argument type
	E2006 ErrorCode = "E2006" // Not callable
	E2007 ErrorCode = "E2007" // Not indexable
	E2008 ErrorCode = "E2008" // Undefined member
	E2009 ErrorCode = "E2009" // Cannot infer type

	// Lowering/codegen errors (E3xxx)
	E3001 ErrorCode = "E3001" // Function error
	E3002 ErrorCode = "E3002" // Internal error
	E3003 ErrorCode = "E3003" // Type error during lowering
	E3004 ErrorCode = "E3004" // Block terminator violation
	E3005 ErrorCode = "E3005" // Break outside loop
	E3006 ErrorCode = "E3006" // Continue outside loop
	E3007 ErrorCode = "E3007" // Return outside function
	E3008 ErrorCode = "E3008" // Unsupported construct
)

var codeDescriptions = map[ErrorCode]string{
	E1001: "unexpected token",
	E1002: "unterminated string literal",
	E1003: "invalid syntax",
	E1004: "missing expression",
	E1005: "invalid assignment target",
	E1006: "expected identifier",
	E1007: "unclosed delimiter",
	E1008: "invalid number literal",
	E1009: "inconsistent indentation",
	E1010: "invalid escape sequence",

	E2001: "undefined variable",
	E2002: "incompatible types",
	E2003: "invalid operator",
	E2004: "wrong argument count",
	E2005: "invalid argument",
	E2006: "not callable",
	E2007: "not indexable",
	E2008: "undefined member",
	E2009: "cannot infer type",

	E3001: "function error",
	E3002: "internal error",
	E3003: "type error",
	E3004: "block terminator violation",
	E3005: "break outside loop",
	E3006: "continue outside loop",
	E3007: "return outside function",
	E3008: "unsupported construct",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

func (c ErrorCode) String() string {
	return string(c)
}

// Category returns the error category based on the code prefix.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "unknown"
	}
	switch c[1] {
	case '1':
		return "parse"
	case '2':
		return "type"
	case '3':
		return "compile"
	default:
		return "unknown"
	}
}
