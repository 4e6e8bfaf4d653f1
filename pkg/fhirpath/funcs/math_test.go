package funcs

import (
	"testing"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func TestAbs(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	fn, _ := Get("abs")

	if got, err := fn.Fn(ctx, types.Collection{types.NewInteger(-5)}, nil); err != nil || got[0].(types.Integer).Value() != 5 {
		t.Errorf("abs(-5) = %v, err %v, want 5", got, err)
	}
	if got, _ := fn.Fn(ctx, types.Collection{types.NewInteger(5)}, nil); got[0].(types.Integer).Value() != 5 {
		t.Errorf("abs(5) = %v, want 5", got)
	}
	if got, _ := fn.Fn(ctx, types.Collection{}, nil); !got.Empty() {
		t.Errorf("abs(empty) = %v, want empty", got)
	}
}

func TestCeilingFloorTruncate(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))

	cases := []struct {
		name string
		in   float64
		want int64
	}{
		{"ceiling", 1.1, 2},
		{"ceiling", -1.1, -1},
		{"floor", 1.9, 1},
		{"floor", -1.1, -2},
		{"truncate", 1.9, 1},
		{"truncate", -1.9, -1},
	}
	for _, c := range cases {
		fn, _ := Get(c.name)
		got, err := fn.Fn(ctx, types.Collection{types.NewDecimalFromFloat(c.in)}, nil)
		if err != nil {
			t.Fatalf("%s(%v): %v", c.name, c.in, err)
		}
		i, ok := got[0].(types.Integer)
		if !ok {
			t.Fatalf("%s(%v) returned %T, want Integer", c.name, c.in, got[0])
		}
		if i.Value() != c.want {
			t.Errorf("%s(%v) = %d, want %d", c.name, c.in, i.Value(), c.want)
		}
	}

	for _, name := range []string{"ceiling", "floor", "truncate"} {
		fn, _ := Get(name)
		got, _ := fn.Fn(ctx, types.Collection{types.NewInteger(7)}, nil)
		if got[0].(types.Integer).Value() != 7 {
			t.Errorf("%s(7) = %v, want 7", name, got[0])
		}
	}
}

// High-precision decimals must round via the decimal representation, not a
// float64 round-trip that would lose digits beyond float64's mantissa.
func TestCeilingHighPrecisionDecimal(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	fn, _ := Get("ceiling")
	d, err := types.NewDecimal("123456789012345.25")
	if err != nil {
		t.Fatalf("NewDecimal: %v", err)
	}
	got, err := fn.Fn(ctx, types.Collection{d}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].(types.Integer).Value() != 123456789012346 {
		t.Errorf("ceiling(123456789012345.25) = %v, want 123456789012346", got[0])
	}
}

func TestSqrtLn(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))

	sqrt, _ := Get("sqrt")
	got, _ := sqrt.Fn(ctx, types.Collection{types.NewInteger(16)}, nil)
	if f, _ := numericFloat(got[0]); f != 4 {
		t.Errorf("sqrt(16) = %v, want 4", got[0])
	}
	if got, _ := sqrt.Fn(ctx, types.Collection{types.NewInteger(-1)}, nil); !got.Empty() {
		t.Errorf("sqrt(-1) = %v, want empty", got)
	}

	ln, _ := Get("ln")
	if got, _ := ln.Fn(ctx, types.Collection{types.NewInteger(0)}, nil); !got.Empty() {
		t.Errorf("ln(0) = %v, want empty", got)
	}
}

func TestLogAndPower(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))

	log, _ := Get("log")
	got, err := log.Fn(ctx, types.Collection{types.NewInteger(8)}, []interface{}{int64(2)})
	if err != nil {
		t.Fatal(err)
	}
	if f, _ := numericFloat(got[0]); f < 2.99 || f > 3.01 {
		t.Errorf("log(8, 2) = %v, want ~3", got[0])
	}

	power, _ := Get("power")
	got, err = power.Fn(ctx, types.Collection{types.NewInteger(2)}, []interface{}{int64(10)})
	if err != nil {
		t.Fatal(err)
	}
	if f, _ := numericFloat(got[0]); f != 1024 {
		t.Errorf("power(2, 10) = %v, want 1024", got[0])
	}

	// Negative base with a fractional exponent isn't a real number.
	got, _ = power.Fn(ctx, types.Collection{types.NewInteger(-1)}, []interface{}{float64(0.5)})
	if !got.Empty() {
		t.Errorf("power(-1, 0.5) = %v, want empty", got)
	}
}

func TestRound(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	fn, _ := Get("round")

	got, err := fn.Fn(ctx, types.Collection{types.NewDecimalFromFloat(3.14159)}, []interface{}{int64(2)})
	if err != nil {
		t.Fatal(err)
	}
	d, ok := got[0].(types.Decimal)
	if !ok {
		t.Fatalf("round returned %T, want Decimal", got[0])
	}
	if d.String() != "3.14" {
		t.Errorf("round(3.14159, 2) = %s, want 3.14", d.String())
	}
}

func TestSumAvg(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	sum, _ := Get("sum")
	avg, _ := Get("avg")

	ints := types.Collection{types.NewInteger(1), types.NewInteger(2), types.NewInteger(3)}
	got, _ := sum.Fn(ctx, ints, nil)
	if got[0].(types.Integer).Value() != 6 {
		t.Errorf("sum(1,2,3) = %v, want 6", got[0])
	}

	got, _ = avg.Fn(ctx, ints, nil)
	d, ok := got[0].(types.Decimal)
	if !ok {
		t.Fatalf("avg returned %T, want Decimal", got[0])
	}
	if f, _ := d.Value().Float64(); f != 2 {
		t.Errorf("avg(1,2,3) = %v, want 2", d)
	}

	mixed := types.Collection{types.NewInteger(1), types.NewDecimalFromFloat(1.5)}
	got, _ = sum.Fn(ctx, mixed, nil)
	if _, ok := got[0].(types.Decimal); !ok {
		t.Errorf("sum with a decimal element should promote to Decimal, got %T", got[0])
	}

	bad := types.Collection{types.NewInteger(1), types.NewString("x")}
	if got, _ := sum.Fn(ctx, bad, nil); !got.Empty() {
		t.Errorf("sum with a non-numeric element = %v, want empty", got)
	}
}

func TestMinMax(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	min, _ := Get("min")
	max, _ := Get("max")

	ints := types.Collection{types.NewInteger(3), types.NewInteger(1), types.NewInteger(2)}
	if got, _ := min.Fn(ctx, ints, nil); got[0].(types.Integer).Value() != 1 {
		t.Errorf("min = %v, want 1", got[0])
	}
	if got, _ := max.Fn(ctx, ints, nil); got[0].(types.Integer).Value() != 3 {
		t.Errorf("max = %v, want 3", got[0])
	}

	strs := types.Collection{types.NewString("banana"), types.NewString("apple"), types.NewString("cherry")}
	if got, _ := min.Fn(ctx, strs, nil); got[0].(types.String).Value() != "apple" {
		t.Errorf("min(strings) = %v, want apple", got[0])
	}

	if got, _ := min.Fn(ctx, types.Collection{}, nil); !got.Empty() {
		t.Errorf("min(empty) = %v, want empty", got)
	}

	one := types.Collection{types.NewInteger(42)}
	if got, _ := min.Fn(ctx, one, nil); got[0].(types.Integer).Value() != 42 {
		t.Errorf("min(single) = %v, want 42", got[0])
	}
}
