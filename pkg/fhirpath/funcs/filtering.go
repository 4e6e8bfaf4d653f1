// where(), select(), repeat() and ofType() all take a sub-expression
// rather than a plain value argument. The evaluator recognizes these by
// name and evaluates them entirely itself (see eval.Evaluator's
// callSpecialForm); it never calls the Fn bodies below. Those bodies serve
// direct callers of the registration: each consumes an already-evaluated
// types.Collection argument, and none of them walk the AST.
package funcs

import (
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "where", MinArgs: 1, MaxArgs: 1, Fn: fnWhere})
	Register(FuncDef{Name: "select", MinArgs: 1, MaxArgs: 1, Fn: fnSelect})
	Register(FuncDef{Name: "repeat", MinArgs: 1, MaxArgs: 1, Fn: fnRepeat})
	Register(FuncDef{Name: "ofType", MinArgs: 1, MaxArgs: 1, Fn: fnOfType})
}

// fnWhere keeps input[i] wherever the criteria collection passed in
// args[0] holds a true Boolean at index i. A criteria entry that's
// non-Boolean, or a criteria collection shorter than input, excludes the
// element rather than erroring - where() filters, it never raises a type
// error over its criteria.
func fnWhere(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("where", 1, 0)
	}
	criteria, ok := argCollection(args[0])
	if !ok {
		return input, nil
	}
	kept := types.Collection{}
	for i, item := range input {
		if i >= len(criteria) {
			break
		}
		if b, ok := criteria[i].(types.Boolean); ok && b.Bool() {
			kept = append(kept, item)
		}
	}
	return kept, nil
}

// fnSelect returns the already-evaluated projection collection passed in
// args[0] verbatim.
func fnSelect(_ *eval.Context, _ types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("select", 1, 0)
	}
	projected, ok := argCollection(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	return projected, nil
}

// fnRepeat, like select, returns the already-evaluated collection passed
// in args[0] (or the input when that argument is not a collection); it
// does no repetition of its own.
func fnRepeat(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("repeat", 1, 0)
	}
	if result, ok := argCollection(args[0]); ok {
		return result, nil
	}
	return input, nil
}

// fnOfType keeps elements whose FHIRPath type name exactly matches the
// argument. This body is a direct filter against Type() and does not walk
// the type hierarchy; the evaluator's own ofType() handling, like its
// is/as handling, matches subtypes through eval.TypeMatches.
func fnOfType(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("ofType", 1, 0)
	}
	typeName := argTypeName(args[0])
	if typeName == "" {
		return types.Collection{}, nil
	}
	kept := types.Collection{}
	for _, item := range input {
		if item.Type() == typeName {
			kept = append(kept, item)
		}
	}
	return kept, nil
}
