package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/ast"
)

func TestLookupOperatorKnownSymbols(t *testing.T) {
	spec, ok := LookupOperator("+")
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, spec.BinaryOp)

	spec, ok = LookupOperator("is")
	require.True(t, ok)
	assert.True(t, spec.IsTypeOp)
	assert.Equal(t, ast.TypeOpIs, spec.TypeOpKind)
}

func TestLookupOperatorUnknownSymbol(t *testing.T) {
	_, ok := LookupOperator("??")
	assert.False(t, ok)
}

func TestOperatorPrecedenceOrdering(t *testing.T) {
	mul, _ := LookupOperator("*")
	add, _ := LookupOperator("+")
	is, _ := LookupOperator("is")
	union, _ := LookupOperator("|")
	lt, _ := LookupOperator("<")
	eq, _ := LookupOperator("=")
	in, _ := LookupOperator("in")
	and, _ := LookupOperator("and")
	or, _ := LookupOperator("or")
	implies, _ := LookupOperator("implies")

	assert.Greater(t, mul.Precedence, add.Precedence)
	assert.Greater(t, add.Precedence, is.Precedence)
	assert.Greater(t, is.Precedence, union.Precedence)
	assert.Greater(t, union.Precedence, lt.Precedence)
	assert.Greater(t, lt.Precedence, eq.Precedence)
	assert.Greater(t, eq.Precedence, in.Precedence)
	assert.Greater(t, in.Precedence, and.Precedence)
	assert.Greater(t, and.Precedence, or.Precedence)
	assert.Greater(t, or.Precedence, implies.Precedence)
}

func TestOperatorsListsEverythingLookupFinds(t *testing.T) {
	all := Operators()
	assert.NotEmpty(t, all)

	bySymbol := make(map[string]OperatorSpec, len(all))
	for _, spec := range all {
		bySymbol[spec.Symbol] = spec
	}

	for _, symbol := range []string{"*", "+", "is", "|", "<", "=", "in", "and", "or", "implies"} {
		want, ok := LookupOperator(symbol)
		require.True(t, ok)
		got, ok := bySymbol[symbol]
		require.True(t, ok, "Operators() missing symbol %q", symbol)
		assert.Equal(t, want, got)
	}
}
