package funcs

import (
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
	"github.com/shopspring/decimal"
)

// Most function bodies in this package start by pulling a scalar out of
// either the singleton input collection or a pre-evaluated argument, both
// of which the evaluator hands over loosely typed (an argument may arrive
// as a raw Go string, a types.String, or a wrapping types.Collection
// depending on how it was produced upstream). These helpers centralize
// that coercion so each function focuses on its own logic instead of
// re-deriving the same type switch.

// argString coerces a single function argument to a Go string, accepting
// a bare string, a types.String, or a one-element types.Collection
// wrapping either.
func argString(arg interface{}) (string, bool) {
	switch v := arg.(type) {
	case string:
		return v, true
	case types.String:
		return v.Value(), true
	case types.Collection:
		return singletonString(v)
	default:
		return "", false
	}
}

// singletonString extracts the lone element of col as a string, falling
// back to its String() rendering for non-String values (so e.g.
// `5.join()`-style misuse degrades gracefully instead of silently
// dropping the element).
func singletonString(col types.Collection) (string, bool) {
	if col.Empty() {
		return "", false
	}
	if s, ok := col[0].(types.String); ok {
		return s.Value(), true
	}
	return col[0].String(), true
}

// argInteger coerces a single function argument to an int64, accepting a
// bare int/int64, a types.Integer, or a one-element collection wrapping
// one.
func argInteger(arg interface{}) (int64, error) {
	switch v := arg.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case types.Integer:
		return v.Value(), nil
	case types.Collection:
		if v.Empty() {
			return 0, eval.NewEvalError(eval.ErrType, "expected integer, got empty collection")
		}
		if i, ok := v[0].(types.Integer); ok {
			return i.Value(), nil
		}
		return 0, eval.TypeError("Integer", v[0].Type(), "argument")
	default:
		return 0, eval.NewEvalError(eval.ErrType, "expected integer")
	}
}

// argCollection coerces a function argument to a types.Collection,
// reporting ok=false when the argument didn't arrive pre-evaluated as one
// (functions like subsetOf/intersect/combine always receive their operand
// this way, never as a bare scalar).
func argCollection(arg interface{}) (types.Collection, bool) {
	c, ok := arg.(types.Collection)
	return c, ok
}

// argTypeName recovers a FHIRPath type name from an argument to a
// type-filtering function (ofType, as used in function-call form): a bare
// string, a types.String, or a one-element collection wrapping one.
func argTypeName(arg interface{}) string {
	name, _ := argString(arg)
	return name
}

// argFloat coerces a function argument to float64 for the math functions
// that do their work via math.Pow/math.Log rather than shopspring/decimal
// (power's exponent, log's base).
func argFloat(arg interface{}) (float64, error) {
	switch v := arg.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case types.Integer:
		return float64(v.Value()), nil
	case types.Decimal:
		return v.Value().InexactFloat64(), nil
	case decimal.Decimal:
		return v.InexactFloat64(), nil
	case types.Collection:
		if v.Empty() {
			return 0, eval.NewEvalError(eval.ErrType, "expected number, got empty collection")
		}
		return argFloat(v[0])
	default:
		return 0, eval.NewEvalError(eval.ErrType, "expected number")
	}
}

// numericFloat reports v's value as float64 when v is an Integer or
// Decimal, the two types every unary math function (abs, ceiling, sqrt,
// ...) operates on.
func numericFloat(v types.Value) (float64, bool) {
	switch n := v.(type) {
	case types.Integer:
		return float64(n.Value()), true
	case types.Decimal:
		return n.Value().InexactFloat64(), true
	default:
		return 0, false
	}
}
