// is() in function-call form (`value.is(Type)`, `value.is(System.Type)`),
// equivalent to the `is` operator but usable where operator syntax
// would be ambiguous (e.g. mid-chain after a filter). The as() registration
// lives in aggregate.go.
package funcs

import (
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func init() {
	// is(Type) and as(Type) both take a bare type name, which the parser
	// would otherwise try to resolve as a path/identifier expression. The
	// evaluator special-cases both names before ever reaching these
	// registrations, reading the type name straight off the call's AST
	// node. fnIsType stays registered anyway so Has("is") and the function
	// table stay self-consistent for anything that walks the registry
	// (documentation generation, arity validation) without special-casing
	// "is" itself.
	Register(FuncDef{
		Name:    "is",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnIsType,
	})
}

// fnIsType is not reached for a literal `is(Type)` call - see the init
// comment - but protects against a future caller invoking "is" through
// Context.CallFunction with an already-evaluated argument (a string or
// singleton String collection naming the type) instead of going through
// the evaluator's AST-level interception.
func fnIsType(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("is", 1, 0)
	}
	if input.Empty() {
		return types.Collection{}, nil
	}
	if len(input) != 1 {
		return nil, eval.SingletonError(len(input))
	}

	typeName := argTypeName(args[0])
	if typeName == "" {
		return types.Collection{}, nil
	}

	return types.Collection{types.NewBoolean(eval.TypeMatches(input[0].Type(), typeName))}, nil
}
