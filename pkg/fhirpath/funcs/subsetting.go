// Subsetting functions slice a collection by position (first, last, tail,
// skip, take) or by set membership against another collection (intersect,
// exclude), never evaluating a sub-expression of their own.
package funcs

import (
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "first", MinArgs: 0, MaxArgs: 0, Fn: fnFirst})
	Register(FuncDef{Name: "last", MinArgs: 0, MaxArgs: 0, Fn: fnLast})
	Register(FuncDef{Name: "tail", MinArgs: 0, MaxArgs: 0, Fn: fnTail})
	Register(FuncDef{Name: "skip", MinArgs: 1, MaxArgs: 1, Fn: fnSkip})
	Register(FuncDef{Name: "take", MinArgs: 1, MaxArgs: 1, Fn: fnTake})
	Register(FuncDef{Name: "single", MinArgs: 0, MaxArgs: 0, Fn: fnSingle})
	Register(FuncDef{Name: "intersect", MinArgs: 1, MaxArgs: 1, Fn: fnIntersect})
	Register(FuncDef{Name: "exclude", MinArgs: 1, MaxArgs: 1, Fn: fnExclude})
}

func fnFirst(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if v, ok := input.First(); ok {
		return types.Collection{v}, nil
	}
	return types.Collection{}, nil
}

func fnLast(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if v, ok := input.Last(); ok {
		return types.Collection{v}, nil
	}
	return types.Collection{}, nil
}

func fnTail(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return input.Tail(), nil
}

func fnSkip(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("skip", 1, 0)
	}
	n, err := argInteger(args[0])
	if err != nil {
		return nil, err
	}
	return input.Skip(int(n)), nil
}

func fnTake(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("take", 1, 0)
	}
	n, err := argInteger(args[0])
	if err != nil {
		return nil, err
	}
	return input.Take(int(n)), nil
}

// fnSingle requires exactly one element, surfacing the underlying
// singleton-violation message from types.Collection.Single as an
// ErrSingletonExpected rather than a generic failure.
func fnSingle(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	v, err := input.Single()
	if err != nil {
		return nil, eval.NewEvalError(eval.ErrSingletonExpected, err.Error())
	}
	return types.Collection{v}, nil
}

func fnIntersect(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("intersect", 1, 0)
	}
	other, ok := argCollection(args[0])
	if !ok {
		return nil, eval.TypeError("Collection", "unknown", "intersect")
	}
	return input.Intersect(other), nil
}

func fnExclude(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("exclude", 1, 0)
	}
	other, ok := argCollection(args[0])
	if !ok {
		return nil, eval.TypeError("Collection", "unknown", "exclude")
	}
	return input.Exclude(other), nil
}
