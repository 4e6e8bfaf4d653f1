package funcs

import (
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "trace", MinArgs: 1, MaxArgs: 2, Fn: fnTrace})
}

// fnTrace is registered for registry.Has/List consistency; the real work
// happens in eval.Evaluator.evaluateTrace, which consults the Context's
// installed TraceSink directly rather than dispatching through the
// registry like an ordinary function.
func fnTrace(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return input, nil
}
