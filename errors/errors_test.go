package errors

import (
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
)

func TestErrorCodeCategories(t *testing.T) {
	assert.Equal(t, "parse", E1001.Category())
	assert.Equal(t, "type", E2001.Category())
	assert.Equal(t, "compile", E3002.Category())
}

func TestErrorCodeDescriptions(t *testing.T) {
	assert.Equal(t, "undefined variable", E2001.Description())
	assert.Equal(t, "inconsistent indentation", E1009.Description())
}

func TestCompileErrorMessage(t *testing.T) {
	err := New(E2001, "main.ch", 3, 7, "undefined variable %q", "foo")
	assert.Equal(t, `type error: undefined variable "foo" (main.ch:3:7)`, err.Error())
}

func TestCompileErrorWithoutPosition(t *testing.T) {
	err := &CompileError{Code: E3002, Message: "no current block"}
	assert.Equal(t, "compile error: no current block", err.Error())
}

func TestFriendlyMessageIncludesSourceAndCaret(t *testing.T) {
	err := New(E2002, "main.ch", 2, 5, "cannot add int and str")
	err.SourceLine = "x = 1 + \"a\""
	err.EndColumn = 11
	msg := err.FriendlyErrorMessage()
	assert.Contains(t, msg, "--> main.ch:2:5")
	assert.Contains(t, msg, `x = 1 + "a"`)
	assert.Contains(t, msg, "^^^^^^^")
}

func TestFriendlyMessageIncludesHint(t *testing.T) {
	err := New(E2001, "main.ch", 1, 1, "undefined variable \"pront\"")
	err.Suggestions = SuggestSimilar("pront", []string{"print", "range", "len"})
	msg := err.FriendlyErrorMessage()
	assert.Contains(t, msg, "hint: Did you mean 'print'?")
}

func TestCompileErrorsCollects(t *testing.T) {
	var errs CompileErrors
	assert.False(t, errs.HasErrors())
	assert.Nil(t, errs.ToError())

	errs.Add(New(E2001, "a.ch", 1, 1, "undefined variable \"x\""))
	assert.True(t, errs.HasErrors())
	assert.Equal(t, 1, errs.Count())
	assert.Equal(t, errs.Errors[0], errs.ToError())

	errs.Add(New(E2002, "a.ch", 2, 3, "incompatible types"))
	assert.Equal(t, 2, errs.Count())
	assert.Contains(t, errs.Error(), "and 1 more errors")
}

func TestFormatMultipleNumbersErrors(t *testing.T) {
	var errs CompileErrors
	errs.Add(New(E2001, "a.ch", 1, 1, "undefined variable \"x\""))
	errs.Add(New(E2001, "a.ch", 2, 1, "undefined variable \"y\""))
	msg := errs.FriendlyErrorMessage()
	assert.Contains(t, msg, "[1/2]")
	assert.Contains(t, msg, "[2/2]")
	assert.Contains(t, msg, "found 2 errors")
}

func TestSuggestSimilarScalesThreshold(t *testing.T) {
	// Short targets only tolerate one edit.
	got := SuggestSimilar("ln", []string{"len", "list", "int"})
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "len", got[0].Value)

	// Exact matches are never suggested.
	assert.Equal(t, 0, len(SuggestSimilar("len", []string{"len"})))
}

func TestSuggestSimilarOrdersByDistance(t *testing.T) {
	got := SuggestSimilar("rang", []string{"range", "ranges", "wrong"})
	assert.True(t, len(got) >= 2)
	assert.Equal(t, "range", got[0].Value)
}

func TestSourceLocationString(t *testing.T) {
	loc := SourceLocation{Filename: "main.ch", Line: 4, Column: 2}
	assert.Equal(t, "main.ch:4:2", loc.String())
	assert.False(t, loc.IsZero())
	assert.True(t, SourceLocation{}.IsZero())
}
