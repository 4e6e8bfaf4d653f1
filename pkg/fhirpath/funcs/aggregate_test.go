package funcs

import (
	"testing"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func mustObject(t *testing.T, jsonStr string) *types.ObjectValue {
	t.Helper()
	col, err := types.JSONToCollection([]byte(jsonStr))
	if err != nil {
		t.Fatalf("JSONToCollection: %v", err)
	}
	obj, ok := col[0].(*types.ObjectValue)
	if !ok {
		t.Fatalf("expected *ObjectValue, got %T", col[0])
	}
	return obj
}

func TestChildren(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	obj := mustObject(t, `{"name":[{"family":"Smith"}],"active":true}`)

	fn, _ := Get("children")
	got, err := fn.Fn(ctx, types.Collection{obj}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Error("children() of a non-empty object returned nothing")
	}
}

func TestDescendantsVisitsNestedObjects(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	obj := mustObject(t, `{"name":[{"family":"Smith","given":["Jo"]}]}`)

	fn, _ := Get("descendants")
	got, err := fn.Fn(ctx, types.Collection{obj}, nil)
	if err != nil {
		t.Fatal(err)
	}

	foundGiven := false
	for _, v := range got {
		if s, ok := v.(types.String); ok && s.Value() == "Jo" {
			foundGiven = true
		}
	}
	if !foundGiven {
		t.Errorf("descendants() did not reach the nested given name, got %v", got)
	}
}

func TestNot(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	fn, _ := Get("not")

	got, err := fn.Fn(ctx, types.Collection{types.NewBoolean(true)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].(types.Boolean).Bool() {
		t.Error("not(true) = true, want false")
	}

	got, _ = fn.Fn(ctx, types.Collection{types.NewString("x")}, nil)
	if !got.Empty() {
		t.Errorf("not(non-boolean) = %v, want empty", got)
	}
}

func TestHasValueAndGetValue(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	hasValue, _ := Get("hasValue")
	getValue, _ := Get("getValue")

	primitive := types.Collection{types.NewString("hi")}
	got, _ := hasValue.Fn(ctx, primitive, nil)
	if !got[0].(types.Boolean).Bool() {
		t.Error("hasValue(primitive) = false, want true")
	}

	obj := mustObject(t, `{"active":true}`)
	got, _ = hasValue.Fn(ctx, types.Collection{obj}, nil)
	if got[0].(types.Boolean).Bool() {
		t.Error("hasValue(object) = true, want false")
	}

	values, _ := getValue.Fn(ctx, primitive, nil)
	if len(values) != 1 || values[0].(types.String).Value() != "hi" {
		t.Errorf("getValue(primitive) = %v, want [hi]", values)
	}
}

func TestCombineAndUnion(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	combine, _ := Get("combine")
	union, _ := Get("union")

	a := types.Collection{types.NewInteger(1), types.NewInteger(2)}
	b := types.Collection{types.NewInteger(2), types.NewInteger(3)}

	combined, err := combine.Fn(ctx, a, []interface{}{b})
	if err != nil {
		t.Fatal(err)
	}
	if len(combined) != 4 {
		t.Errorf("combine keeps duplicates: got %d elements, want 4", len(combined))
	}

	unioned, err := union.Fn(ctx, a, []interface{}{b})
	if err != nil {
		t.Fatal(err)
	}
	if len(unioned) != 3 {
		t.Errorf("union dedupes: got %d elements, want 3", len(unioned))
	}
}

func TestAsFiltersByExactType(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	fn, _ := Get("as")

	mixed := types.Collection{types.NewString("x"), types.NewInteger(5)}
	got, err := fn.Fn(ctx, mixed, []interface{}{"String"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].(types.String).Value() != "x" {
		t.Errorf("as(String) = %v, want [x]", got)
	}
}

func TestAggregateReturnsAccumulatedTotal(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	fn, _ := Get("aggregate")

	// The evaluator handles aggregate's iteration itself; called directly,
	// aggregate's Fn body just hands back the total passed as its second
	// argument.
	total := types.Collection{types.NewInteger(6)}
	got, err := fn.Fn(ctx, types.Collection{}, []interface{}{nil, total})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].(types.Integer).Value() != 6 {
		t.Errorf("aggregate result = %v, want 6", got[0])
	}
}
