// Package diagnostic provides structured, non-throwing diagnostics for the
// tokenizer, parser, and evaluator. Diagnostics are values, not exceptions:
// every phase that can fail returns its best-effort result alongside a
// Diagnostics batch instead of stopping the world.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Severity classifies how serious a Diagnostic is.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
	Hint
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// Span is a byte-offset range into the source expression.
type Span struct {
	Start int
	End   int
}

// Suggestion is an optional fix-it attached to a Diagnostic.
type Suggestion struct {
	Message     string
	Replacement string
}

// Diagnostic is a single structured error/warning/info/hint.
// Stable codes (FP0001, FP0054, ...) are additive; new codes may be added
// but existing codes never change meaning.
type Diagnostic struct {
	Severity     Severity
	Code         string
	Message      string
	Span         Span
	RelatedSpans []Span
	Suggestions  []Suggestion
}

// Error implements the error interface so a single Diagnostic can be used
// anywhere a plain error is expected.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s %s: %s (at %d:%d)", d.Severity, d.Code, d.Message, d.Span.Start, d.Span.End)
}

// New creates an error-severity Diagnostic.
func New(code, message string, span Span) *Diagnostic {
	return &Diagnostic{Severity: Error, Code: code, Message: message, Span: span}
}

// Newf creates an error-severity Diagnostic with a formatted message.
func Newf(code string, span Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Severity: Error, Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}

// Warningf creates a warning-severity Diagnostic.
func Warningf(code string, span Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Severity: Warning, Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}

// WithSuggestion attaches a fix-it suggestion and returns the Diagnostic.
func (d *Diagnostic) WithSuggestion(message, replacement string) *Diagnostic {
	d.Suggestions = append(d.Suggestions, Suggestion{Message: message, Replacement: replacement})
	return d
}

// WithRelated attaches a related span and returns the Diagnostic.
func (d *Diagnostic) WithRelated(span Span) *Diagnostic {
	d.RelatedSpans = append(d.RelatedSpans, span)
	return d
}

// Diagnostics is an ordered batch of Diagnostic values accumulated across a
// parse or evaluation. It is itself a valid error (via Err/ErrorOrNil) so
// callers that want a single error from a batch can get one without losing
// the individual structured entries.
type Diagnostics []*Diagnostic

// Add appends one or more diagnostics.
func (ds *Diagnostics) Add(d ...*Diagnostic) {
	*ds = append(*ds, d...)
}

// HasErrors returns true if any diagnostic has Error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the Error-severity diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

// ErrorOrNil aggregates all Error-severity diagnostics into a single error,
// using hashicorp/go-multierror so each Diagnostic's message is preserved
// verbatim in the combined error text. Returns nil if there are no errors.
func (ds Diagnostics) ErrorOrNil() error {
	errs := ds.Errors()
	if len(errs) == 0 {
		return nil
	}
	merr := &multierror.Error{
		ErrorFormat: func(es []error) string {
			var b strings.Builder
			for i, e := range es {
				if i > 0 {
					b.WriteByte('\n')
				}
				b.WriteString(e.Error())
			}
			return b.String()
		},
	}
	for _, d := range errs {
		merr = multierror.Append(merr, d)
	}
	return merr.ErrorOrNil()
}

// Error codes. New codes are additive; never repurpose an existing one.
const (
	CodeLexError              = "FP0001"
	CodeUnterminatedString    = "FP0002"
	CodeInvalidEscape         = "FP0003"
	CodeMalformedDateTime     = "FP0004"
	CodeUnexpectedToken       = "FP0010"
	CodeMissingOperand        = "FP0011"
	CodeUnmatchedParen        = "FP0012"
	CodeUnmatchedBracket      = "FP0013"
	CodeInvalidTypeSpecifier  = "FP0020"
	CodeUnknownField          = "FP0054"
	CodeTypeMismatch          = "FP0055"
	CodeFunctionNotFound      = "FP0056"
	CodeInvalidArgumentCount  = "FP0057"
	CodeInvalidArgumentType   = "FP0058"
	CodeUnknownVariable       = "FP0059"
	CodeNotSingleton          = "FP0060"
	CodeCancelled             = "FP0099"
	CodeInternalInvariant     = "FP0100"
	CodeUnsupportedOperation  = "FP0101"
	CodeRegistrationCollision = "FP0102"
)
