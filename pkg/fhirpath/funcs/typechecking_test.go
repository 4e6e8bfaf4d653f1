package funcs

import (
	"testing"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

// fnIsType is not reached through ordinary `value.is(Type)` evaluation -
// the evaluator intercepts that at the AST level - but it stays registered
// and callable directly, which is what these tests exercise.
func TestIsTypeMatches(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	fn, ok := Get("is")
	if !ok {
		t.Fatal(`"is" not registered`)
	}

	got, err := fn.Fn(ctx, types.Collection{types.NewString("hi")}, []interface{}{"String"})
	if err != nil {
		t.Fatal(err)
	}
	if !got[0].(types.Boolean).Bool() {
		t.Error(`is(String) on a String = false, want true`)
	}

	got, err = fn.Fn(ctx, types.Collection{types.NewString("hi")}, []interface{}{"Integer"})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].(types.Boolean).Bool() {
		t.Error(`is(Integer) on a String = true, want false`)
	}
}

func TestIsTypeOnEmptyInput(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	fn, _ := Get("is")

	got, err := fn.Fn(ctx, types.Collection{}, []interface{}{"String"})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Empty() {
		t.Errorf("is(Type) on empty input = %v, want empty", got)
	}
}

func TestIsTypeRejectsNonSingletonInput(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	fn, _ := Get("is")

	multi := types.Collection{types.NewString("a"), types.NewString("b")}
	_, err := fn.Fn(ctx, multi, []interface{}{"String"})
	if err == nil {
		t.Error("is(Type) on a multi-element collection should error, got nil")
	}
}

func TestIsTypeRequiresArgument(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	fn, _ := Get("is")

	_, err := fn.Fn(ctx, types.Collection{types.NewString("a")}, nil)
	if err == nil {
		t.Error("is() with no type argument should error, got nil")
	}
}
