// Package errz carries structured errors raised while lowering a checked
// module to IR. These are distinct from the positioned diagnostics in the
// errors package: a lowering failure names the function being lowered and
// a category, and usually indicates either a user construct the backend
// cannot express or a bug in the lowering itself.
package errz

import "fmt"

// ErrorKind categorizes a lowering failure.
type ErrorKind string

const (
	// FunctionError covers failures scoped to one function body, such as
	// a reference to a name the scope arena never defined.
	FunctionError ErrorKind = "function error"

	// InternalError marks invariant violations in the lowering itself.
	InternalError ErrorKind = "internal error"

	// TypeError marks a value whose inferred type cannot be represented
	// by the instruction being emitted.
	TypeError ErrorKind = "type error"

	// TerminatorError marks a block that would receive an instruction
	// after its terminator, or end without one.
	TerminatorError ErrorKind = "block terminator violation"
)

// StructuredError is a lowering failure with its kind and the enclosing
// function, when one is known.
type StructuredError struct {
	Kind     ErrorKind
	Function string
	Message  string
	Wrapped  error
}

func (e *StructuredError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("%s in %q: %s", e.Kind, e.Function, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *StructuredError) Unwrap() error {
	return e.Wrapped
}

// Is matches against another StructuredError by kind, so callers can use
// errors.Is with a bare kind sentinel.
func (e *StructuredError) Is(target error) bool {
	t, ok := target.(*StructuredError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Newf builds a StructuredError of the given kind.
func Newf(kind ErrorKind, format string, args ...any) *StructuredError {
	return &StructuredError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InFunction returns a copy annotated with the enclosing function name.
func (e *StructuredError) InFunction(name string) *StructuredError {
	dup := *e
	dup.Function = name
	return &dup
}

// Wrap attaches a cause.
func (e *StructuredError) Wrap(err error) *StructuredError {
	dup := *e
	dup.Wrapped = err
	return &dup
}

// Functionf builds a function-scoped lowering error.
func Functionf(fn, format string, args ...any) *StructuredError {
	return &StructuredError{Kind: FunctionError, Function: fn, Message: fmt.Sprintf(format, args...)}
}

// Internalf builds an internal invariant violation.
func Internalf(format string, args ...any) *StructuredError {
	return &StructuredError{Kind: InternalError, Message: fmt.Sprintf(format, args...)}
}

// Typef builds a representation type error.
func Typef(format string, args ...any) *StructuredError {
	return &StructuredError{Kind: TypeError, Message: fmt.Sprintf(format, args...)}
}

// Terminatorf builds a block terminator violation.
func Terminatorf(format string, args ...any) *StructuredError {
	return &StructuredError{Kind: TerminatorError, Message: fmt.Sprintf(format, args...)}
}
