package fhirpath

import (
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
)

// EvalContext is an alias for eval.Context for easier external use, letting
// callers install a tracer or a custom model provider before evaluating.
type EvalContext = eval.Context

// NewEvalContext creates an evaluation context rooted at resource, the same
// context EvaluateWithContext expects.
func NewEvalContext(resource []byte) *EvalContext {
	return eval.NewContext(resource)
}
