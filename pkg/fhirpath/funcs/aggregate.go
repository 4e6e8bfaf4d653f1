// Tree navigation (children, descendants), set combination (combine,
// union), and a few functions that round out the primitive-value surface
// (not, hasValue, getValue) and type casting in function-call form (as).
package funcs

import (
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "aggregate", MinArgs: 1, MaxArgs: 2, Fn: fnAggregate})
	Register(FuncDef{Name: "children", MinArgs: 0, MaxArgs: 0, Fn: fnChildren})
	Register(FuncDef{Name: "descendants", MinArgs: 0, MaxArgs: 0, Fn: fnDescendants})
	Register(FuncDef{Name: "not", MinArgs: 0, MaxArgs: 0, Fn: fnNot})
	Register(FuncDef{Name: "hasValue", MinArgs: 0, MaxArgs: 0, Fn: fnHasValue})
	Register(FuncDef{Name: "getValue", MinArgs: 0, MaxArgs: 0, Fn: fnGetValue})
	Register(FuncDef{Name: "combine", MinArgs: 1, MaxArgs: 1, Fn: fnCombine})
	Register(FuncDef{Name: "union", MinArgs: 1, MaxArgs: 1, Fn: fnUnion})
	Register(FuncDef{Name: "as", MinArgs: 1, MaxArgs: 1, Fn: fnAs})
}

// fnAggregate is the registration for aggregate(aggregator [, init]). The
// evaluator handles aggregate itself (maintaining $total and $index across
// the iteration), same as where/select, and never calls this body. This
// body does no iteration: it returns args[1] when that is a collection,
// and empty otherwise.
func fnAggregate(_ *eval.Context, _ types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("aggregate", 1, 0)
	}
	if len(args) > 1 {
		if total, ok := argCollection(args[1]); ok {
			return total, nil
		}
	}
	return types.Collection{}, nil
}

// isObject reports whether v is a navigable FHIR object.
func isObject(v types.Value) (*types.ObjectValue, bool) {
	obj, ok := v.(*types.ObjectValue)
	return obj, ok
}

func fnChildren(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	result := types.Collection{}
	for _, item := range input {
		if obj, ok := isObject(item); ok {
			result = append(result, obj.Children()...)
		}
	}
	return result, nil
}

// fnDescendants walks the object tree breadth-first, tracking visited
// values to guard against a resource containing a reference cycle (FHIR
// JSON is a tree in practice, but nothing in the type system here
// guarantees it).
func fnDescendants(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	result := types.Collection{}
	visited := make(map[types.Value]bool)

	queue := append(types.Collection{}, input...)
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if visited[item] {
			continue
		}
		visited[item] = true

		obj, ok := isObject(item)
		if !ok {
			continue
		}
		children := obj.Children()
		result = append(result, children...)
		queue = append(queue, children...)
	}
	return result, nil
}

func fnNot(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	b, ok := input[0].(types.Boolean)
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewBoolean(!b.Bool())}, nil
}

// isPrimitive reports whether v is one of FHIRPath's primitive value
// types, as opposed to a complex/object type with no single scalar value
// of its own.
func isPrimitive(v types.Value) bool {
	switch v.(type) {
	case types.Boolean, types.String, types.Integer, types.Decimal,
		types.Date, types.DateTime, types.Time:
		return true
	default:
		return false
	}
}

func fnHasValue(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	for _, item := range input {
		if isPrimitive(item) {
			return types.Collection{types.NewBoolean(true)}, nil
		}
	}
	return types.Collection{types.NewBoolean(false)}, nil
}

func fnGetValue(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	result := types.Collection{}
	for _, item := range input {
		if isPrimitive(item) {
			result = append(result, item)
		}
	}
	return result, nil
}

func fnCombine(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("combine", 1, 0)
	}
	result := make(types.Collection, len(input))
	copy(result, input)
	if other, ok := argCollection(args[0]); ok {
		result = append(result, other...)
	}
	return result, nil
}

func fnUnion(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("union", 1, 0)
	}
	other, ok := argCollection(args[0])
	if !ok {
		return input, nil
	}
	return input.Union(other), nil
}

// fnAs filters the input to elements whose FHIRPath type name exactly
// matches the argument. This is the function-call form of `as Type`; this
// body does not walk the type hierarchy, while fnIsType and the
// evaluator's own is/as/ofType handling match subtypes through
// eval.TypeMatches.
func fnAs(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("as", 1, 0)
	}
	typeName := argTypeName(args[0])
	if typeName == "" || input.Empty() {
		return types.Collection{}, nil
	}
	result := types.Collection{}
	for _, item := range input {
		if item.Type() == typeName {
			result = append(result, item)
		}
	}
	return result, nil
}
