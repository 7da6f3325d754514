package errors

import (
	"fmt"
	"strings"
)

// CompileError is one positioned diagnostic, from any stage: lexing,
// parsing, type checking, or lowering.
type CompileError struct {
	Code        ErrorCode
	Message     string
	Filename    string
	Line        int
	Column      int
	EndColumn   int
	SourceLine  string
	Suggestions []Suggestion
	Note        string
}

// New builds a CompileError at a position.
func New(code ErrorCode, filename string, line, column int, format string, args ...any) *CompileError {
	return &CompileError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Filename: filename,
		Line:     line,
		Column:   column,
	}
}

func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.Category())
	b.WriteString(" error: ")
	b.WriteString(e.Message)
	if e.Filename != "" || e.Line > 0 {
		b.WriteString(" (")
		if e.Filename != "" {
			b.WriteString(e.Filename)
			b.WriteString(":")
		}
		fmt.Fprintf(&b, "%d:%d)", e.Line, e.Column)
	}
	return b.String()
}

// FriendlyErrorMessage renders the error without color.
func (e *CompileError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts the error for display.
func (e *CompileError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:     e.Code,
		Kind:     e.Code.Category() + " error",
		Message:  e.Message,
		Filename: e.Filename,
		Line:     e.Line,
		Column:   e.Column,
		Note:     e.Note,
	}
	if e.SourceLine != "" {
		fe.SourceLines = []SourceLineEntry{
			{Number: e.Line, Text: e.SourceLine, IsMain: true},
		}
	}
	if len(e.Suggestions) > 0 {
		fe.Hint = FormatSuggestions(e.Suggestions)
	}
	return fe
}

// CompileErrors collects diagnostics across a whole file so one pass can
// report everything.
type CompileErrors struct {
	Errors []*CompileError
}

func (e *CompileErrors) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

// FriendlyErrorMessage renders every collected error.
func (e *CompileErrors) FriendlyErrorMessage() string {
	if len(e.Errors) == 0 {
		return ""
	}
	formatted := make([]*FormattedError, len(e.Errors))
	for i, err := range e.Errors {
		formatted[i] = err.ToFormatted()
	}
	return NewFormatter(false).FormatMultiple(formatted)
}

// ToFormattedMultiple converts every collected diagnostic for rendering.
func (e *CompileErrors) ToFormattedMultiple() []*FormattedError {
	formatted := make([]*FormattedError, len(e.Errors))
	for i, err := range e.Errors {
		formatted[i] = err.ToFormatted()
	}
	return formatted
}

// Add appends a diagnostic.
func (e *CompileErrors) Add(err *CompileError) {
	e.Errors = append(e.Errors, err)
}

// Count is the number of collected diagnostics.
func (e *CompileErrors) Count() int {
	return len(e.Errors)
}

// HasErrors reports whether anything was collected.
func (e *CompileErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError flattens the collection to a single error, or nil when empty.
func (e *CompileErrors) ToError() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	default:
		return e
	}
}
