package fhirpath

import (
	"fmt"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/parser"
)

// compile parses a FHIRPath expression into a compiled Expression.
func compile(expr string) (*Expression, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}

	tree, diags := parser.Parse(expr)
	if err := diags.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Expression{
		source: expr,
		tree:   tree,
	}, nil
}
