package errz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
)

func TestStructuredErrorMessage(t *testing.T) {
	err := Functionf("fib", "variable %q has no storage slot", "n")
	assert.Equal(t, `function error in "fib": variable "n" has no storage slot`, err.Error())

	internal := Internalf("no current block")
	assert.Equal(t, "internal error: no current block", internal.Error())
}

func TestInFunctionAnnotates(t *testing.T) {
	err := Terminatorf("branch after return").InFunction("main")
	assert.Equal(t, `block terminator violation in "main": branch after return`, err.Error())
}

func TestIsMatchesByKind(t *testing.T) {
	err := Typef("cannot unbox list into i64")
	assert.True(t, errors.Is(err, &StructuredError{Kind: TypeError}))
	assert.False(t, errors.Is(err, &StructuredError{Kind: InternalError}))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("slot 3 out of range")
	err := Internalf("scope arena corrupt").Wrap(cause)
	assert.True(t, errors.Is(err, cause))
}
