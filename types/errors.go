package types

import "fmt"

// Error is implemented by every type error in the taxonomy. Checking and
// inference never panic; every failure mode surfaces as one of these values.
type Error interface {
	error
	typeError()
}

// IncompatibleTypesError reports a value of one type used where another was
// required.
type IncompatibleTypesError struct {
	Expected Type
	Got      Type
	Op       string
}

func (e *IncompatibleTypesError) typeError() {}
func (e *IncompatibleTypesError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("incompatible types in %s: expected %s, got %s", e.Op, e.Expected, e.Got)
	}
	return fmt.Sprintf("incompatible types: expected %s, got %s", e.Expected, e.Got)
}

// UndefinedVariableError reports a reference to an unbound name. Hint is
// optional did-you-mean text, filled in by the checker from the names in
// scope at the point of the reference.
type UndefinedVariableError struct {
	Name string
	Hint string
}

func (e *UndefinedVariableError) typeError() {}
func (e *UndefinedVariableError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("undefined variable %q. %s", e.Name, e.Hint)
	}
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// InvalidOperatorError reports an operator applied to operand types that do
// not support it. Right is nil for unary operators.
type InvalidOperatorError struct {
	Op    string
	Left  Type
	Right Type // nil for unary operators
}

func (e *InvalidOperatorError) typeError() {}
func (e *InvalidOperatorError) Error() string {
	if e.Right == nil {
		return fmt.Sprintf("invalid operator %q for %s", e.Op, e.Left)
	}
	return fmt.Sprintf("invalid operator %q for %s and %s", e.Op, e.Left, e.Right)
}

// InvalidArgumentError reports an argument that cannot coerce to the
// declared parameter type.
type InvalidArgumentError struct {
	Func     string
	Index    int
	Expected Type
	Got      Type
}

func (e *InvalidArgumentError) typeError() {}
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %d to %s: expected %s, got %s",
		e.Index, e.Func, e.Expected, e.Got)
}

// WrongArgumentCountError reports a call with the wrong number of arguments.
type WrongArgumentCountError struct {
	Func     string
	Expected int
	Got      int
}

func (e *WrongArgumentCountError) typeError() {}
func (e *WrongArgumentCountError) Error() string {
	return fmt.Sprintf("%s expects %d arguments, got %d", e.Func, e.Expected, e.Got)
}

// NotAClassError reports member access on a type with no members.
type NotAClassError struct {
	Type   Type
	Member string
}

func (e *NotAClassError) typeError() {}
func (e *NotAClassError) Error() string {
	return fmt.Sprintf("%s is not a class (accessing member %q)", e.Type, e.Member)
}

// UndefinedMemberError reports access to a member a class does not define.
type UndefinedMemberError struct {
	Class  string
	Member string
}

func (e *UndefinedMemberError) typeError() {}
func (e *UndefinedMemberError) Error() string {
	return fmt.Sprintf("class %s has no member %q", e.Class, e.Member)
}

// CannotInferTypeError reports an expression whose type cannot be computed.
type CannotInferTypeError struct {
	Expr string
}

func (e *CannotInferTypeError) typeError() {}
func (e *CannotInferTypeError) Error() string {
	return fmt.Sprintf("cannot infer type of %s", e.Expr)
}

// NotCallableError reports a call on a non-callable type.
type NotCallableError struct {
	Type Type
}

func (e *NotCallableError) typeError() {}
func (e *NotCallableError) Error() string {
	return fmt.Sprintf("%s is not callable", e.Type)
}

// NotIndexableError reports a subscript on a non-indexable type.
type NotIndexableError struct {
	Type Type
}

func (e *NotIndexableError) typeError() {}
func (e *NotIndexableError) Error() string {
	return fmt.Sprintf("%s is not indexable", e.Type)
}
