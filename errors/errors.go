// Package errors defines the compiler's diagnostic types: positioned
// compile errors, the error-code taxonomy, and the colored formatter the
// CLI prints diagnostics with.
package errors

import (
	"fmt"
	"strings"
)

// SourceLocation is a position in a source file.
type SourceLocation struct {
	Filename string
	Line     int    // 1-based
	Column   int    // 1-based
	Source   string // the line of source code, if available
}

func (s SourceLocation) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero reports whether the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// StackFrame is one frame of a source-level call stack.
type StackFrame struct {
	Function string
	Location SourceLocation
}

func (f StackFrame) String() string {
	if f.Function != "" {
		return fmt.Sprintf("at %s (%s)", f.Function, f.Location)
	}
	return fmt.Sprintf("at %s", f.Location)
}

// FormatStackTrace renders frames as a human-readable block.
func FormatStackTrace(frames []StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Stack trace:\n")
	for _, frame := range frames {
		b.WriteString("  ")
		b.WriteString(frame.String())
		b.WriteString("\n")
	}
	return b.String()
}

// FriendlyError is an error with a human-friendly rendering in addition
// to the terse default message.
type FriendlyError interface {
	Error() string
	FriendlyErrorMessage() string
}

// FormattableError is an error that can be rendered by the Formatter,
// with colors and source context.
type FormattableError interface {
	Error() string
	ToFormatted() *FormattedError
}
