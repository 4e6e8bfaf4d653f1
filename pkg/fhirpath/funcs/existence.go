// Existence functions report on a collection's shape - emptiness,
// cardinality, distinctness, membership - rather than transforming its
// elements.
package funcs

import (
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "empty", MinArgs: 0, MaxArgs: 0, Fn: fnEmpty})
	Register(FuncDef{Name: "exists", MinArgs: 0, MaxArgs: 1, Fn: fnExists})
	Register(FuncDef{Name: "all", MinArgs: 1, MaxArgs: 1, Fn: fnAll})
	Register(FuncDef{Name: "allTrue", MinArgs: 0, MaxArgs: 0, Fn: fnAllTrue})
	Register(FuncDef{Name: "anyTrue", MinArgs: 0, MaxArgs: 0, Fn: fnAnyTrue})
	Register(FuncDef{Name: "allFalse", MinArgs: 0, MaxArgs: 0, Fn: fnAllFalse})
	Register(FuncDef{Name: "anyFalse", MinArgs: 0, MaxArgs: 0, Fn: fnAnyFalse})
	Register(FuncDef{Name: "count", MinArgs: 0, MaxArgs: 0, Fn: fnCount})
	Register(FuncDef{Name: "distinct", MinArgs: 0, MaxArgs: 0, Fn: fnDistinct})
	Register(FuncDef{Name: "isDistinct", MinArgs: 0, MaxArgs: 0, Fn: fnIsDistinct})
	Register(FuncDef{Name: "subsetOf", MinArgs: 1, MaxArgs: 1, Fn: fnSubsetOf})
	Register(FuncDef{Name: "supersetOf", MinArgs: 1, MaxArgs: 1, Fn: fnSupersetOf})
}

func boolResult(b bool) types.Collection {
	if b {
		return types.TrueCollection
	}
	return types.FalseCollection
}

func fnEmpty(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(input.Empty()), nil
}

// fnExists reports whether the input is non-empty and ignores any
// argument. The evaluator handles exists(criteria) itself and never calls
// this body.
func fnExists(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(!input.Empty()), nil
}

// fnAll always reports true, ignoring its input and argument. The
// evaluator handles all(criteria) itself (short-circuiting on the first
// false criteria result) and never calls this registration.
func fnAll(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	return types.TrueCollection, nil
}

func fnAllTrue(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(input.Empty() || input.AllTrue()), nil
}

func fnAnyTrue(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(!input.Empty() && input.AnyTrue()), nil
}

func fnAllFalse(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(input.Empty() || input.AllFalse()), nil
}

func fnAnyFalse(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(!input.Empty() && input.AnyFalse()), nil
}

func fnCount(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return types.Collection{types.GetInteger(int64(input.Count()))}, nil
}

func fnDistinct(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return input.Distinct(), nil
}

func fnIsDistinct(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(input.IsDistinct()), nil
}

func fnSubsetOf(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("subsetOf", 1, 0)
	}
	other, ok := argCollection(args[0])
	if !ok {
		return nil, eval.TypeError("Collection", "unknown", "subsetOf")
	}
	for _, item := range input {
		if !other.Contains(item) {
			return types.FalseCollection, nil
		}
	}
	return types.TrueCollection, nil
}

func fnSupersetOf(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("supersetOf", 1, 0)
	}
	other, ok := argCollection(args[0])
	if !ok {
		return nil, eval.TypeError("Collection", "unknown", "supersetOf")
	}
	for _, item := range other {
		if !input.Contains(item) {
			return types.FalseCollection, nil
		}
	}
	return types.TrueCollection, nil
}
