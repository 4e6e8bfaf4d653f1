package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsErrorSeverity(t *testing.T) {
	d := New(CodeUnexpectedToken, "unexpected token", Span{Start: 1, End: 2})
	assert.Equal(t, Error, d.Severity)
	assert.Equal(t, CodeUnexpectedToken, d.Code)
	assert.Contains(t, d.Error(), "unexpected token")
}

func TestNewfAndWarningf(t *testing.T) {
	d := Newf(CodeTypeMismatch, Span{Start: 0, End: 3}, "expected %s, got %s", "Integer", "String")
	assert.Equal(t, Error, d.Severity)
	assert.Equal(t, "expected Integer, got String", d.Message)

	w := Warningf(CodeNotSingleton, Span{}, "collection has %d items", 2)
	assert.Equal(t, Warning, w.Severity)
	assert.Equal(t, "collection has 2 items", w.Message)
}

func TestWithSuggestionAndWithRelated(t *testing.T) {
	d := New(CodeUnknownField, "unknown field", Span{})
	d.WithSuggestion("did you mean name?", "name").WithRelated(Span{Start: 5, End: 8})

	require.Len(t, d.Suggestions, 1)
	assert.Equal(t, "name", d.Suggestions[0].Replacement)
	require.Len(t, d.RelatedSpans, 1)
	assert.Equal(t, Span{Start: 5, End: 8}, d.RelatedSpans[0])
}

func TestDiagnosticsHasErrorsAndErrors(t *testing.T) {
	var ds Diagnostics
	ds.Add(Warningf(CodeNotSingleton, Span{}, "just a warning"))
	assert.False(t, ds.HasErrors())
	assert.Empty(t, ds.Errors())

	ds.Add(New(CodeUnexpectedToken, "bad token", Span{}))
	assert.True(t, ds.HasErrors())
	require.Len(t, ds.Errors(), 1)
	assert.Equal(t, CodeUnexpectedToken, ds.Errors()[0].Code)
}

func TestErrorOrNilAggregatesMessages(t *testing.T) {
	var ds Diagnostics
	assert.Nil(t, ds.ErrorOrNil(), "no diagnostics means no error")

	ds.Add(New(CodeUnexpectedToken, "first error", Span{}))
	ds.Add(New(CodeMissingOperand, "second error", Span{}))

	err := ds.ErrorOrNil()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first error")
	assert.Contains(t, err.Error(), "second error")
}

func TestErrorOrNilIgnoresNonErrorSeverity(t *testing.T) {
	var ds Diagnostics
	ds.Add(Warningf(CodeNotSingleton, Span{}, "only a warning"))
	assert.Nil(t, ds.ErrorOrNil())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "warning", Warning.String())
	assert.Equal(t, "info", Info.String())
	assert.Equal(t, "hint", Hint.String())
}
