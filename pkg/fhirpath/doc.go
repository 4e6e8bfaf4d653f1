// Package fhirpath implements a FHIRPath engine: tokenizer, Pratt parser,
// and tree-walking evaluator over FHIR resource JSON.
//
// A FHIRPath expression navigates and filters a resource's element tree,
// evaluating to a (possibly empty, possibly multi-valued) collection of
// results:
//
//	result, err := fhirpath.Evaluate(patient, `name.where(use = 'official').given.first()`)
//
// Compile once and reuse the Expression when evaluating the same
// expression against many resources, or call through an ExpressionCache
// to get that reuse without managing Expression values yourself:
//
//	expr, err := fhirpath.Compile(`telecom.where(system = 'email').value`)
//	for _, resource := range resources {
//	    result, err := expr.Evaluate(resource)
//	}
//
// The evaluator resolves element and complex-type names against a
// model.Provider (see pkg/fhirpath/model); without one registered it uses
// the built-in heuristic FHIR R4 provider, which infers types from each
// JSON object's shape and resolves polymorphic `[x]` properties (e.g.
// `value` reaching `valueQuantity`) from a fixed list of choice-element
// base names and type suffixes.
package fhirpath
