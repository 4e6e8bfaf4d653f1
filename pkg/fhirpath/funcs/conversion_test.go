package funcs

import (
	"testing"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func convFn(t *testing.T, name string, input types.Collection, args ...interface{}) types.Collection {
	t.Helper()
	ctx := eval.NewContext([]byte(`{}`))
	fn, ok := Get(name)
	if !ok {
		t.Fatalf("function %q not registered", name)
	}
	got, err := fn.Fn(ctx, input, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return got
}

func TestToBoolean(t *testing.T) {
	cases := []struct {
		in   types.Value
		want bool
		ok   bool
	}{
		{types.NewString("true"), true, true},
		{types.NewString("Yes"), true, true},
		{types.NewString("0"), false, true},
		{types.NewString("maybe"), false, false},
		{types.NewInteger(1), true, true},
		{types.NewInteger(2), false, false},
		{types.NewBoolean(false), false, true},
	}
	for _, c := range cases {
		got := convFn(t, "toBoolean", types.Collection{c.in})
		converts := convFn(t, "convertsToBoolean", types.Collection{c.in})
		if c.ok != converts[0].(types.Boolean).Bool() {
			t.Errorf("convertsToBoolean(%v) = %v, want %v", c.in, converts[0], c.ok)
		}
		if !c.ok {
			if !got.Empty() {
				t.Errorf("toBoolean(%v) = %v, want empty", c.in, got)
			}
			continue
		}
		if got[0].(types.Boolean).Bool() != c.want {
			t.Errorf("toBoolean(%v) = %v, want %v", c.in, got[0], c.want)
		}
	}
}

func TestToInteger(t *testing.T) {
	got := convFn(t, "toInteger", types.Collection{types.NewString("42")})
	if got[0].(types.Integer).Value() != 42 {
		t.Errorf("toInteger(\"42\") = %v, want 42", got[0])
	}

	if got := convFn(t, "toInteger", types.Collection{types.NewString("4.2")}); !got.Empty() {
		t.Errorf("toInteger(\"4.2\") = %v, want empty", got)
	}

	d := types.NewDecimalFromInt(7)
	if got := convFn(t, "toInteger", types.Collection{d}); got[0].(types.Integer).Value() != 7 {
		t.Errorf("toInteger(7.0) = %v, want 7", got[0])
	}

	nonInt := types.NewDecimalFromFloat(7.5)
	if got := convFn(t, "toInteger", types.Collection{nonInt}); !got.Empty() {
		t.Errorf("toInteger(7.5) = %v, want empty", got)
	}
}

func TestToDecimal(t *testing.T) {
	got := convFn(t, "toDecimal", types.Collection{types.NewString("3.14")})
	if got[0].(types.Decimal).String() != "3.14" {
		t.Errorf("toDecimal(\"3.14\") = %v, want 3.14", got[0])
	}

	if got := convFn(t, "toDecimal", types.Collection{types.NewString("abc")}); !got.Empty() {
		t.Errorf("toDecimal(\"abc\") = %v, want empty", got)
	}
}

func TestToStringAlwaysSucceeds(t *testing.T) {
	got := convFn(t, "toString", types.Collection{types.NewInteger(5)})
	if got[0].(types.String).Value() != "5" {
		t.Errorf("toString(5) = %v, want \"5\"", got[0])
	}

	converts := convFn(t, "convertsToString", types.Collection{types.NewBoolean(true)})
	if !converts[0].(types.Boolean).Bool() {
		t.Error("convertsToString(true) = false, want true")
	}
}

func TestToDate(t *testing.T) {
	got := convFn(t, "toDate", types.Collection{types.NewString("2023-06-15")})
	d, ok := got[0].(types.Date)
	if !ok {
		t.Fatalf("toDate returned %T, want Date", got[0])
	}
	if d.Year() != 2023 || d.Month() != 6 || d.Day() != 15 {
		t.Errorf("toDate(\"2023-06-15\") = %v, want 2023-06-15", d)
	}

	// A Date passed in already is returned as-is.
	already, err := types.NewDate("2020-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if got := convFn(t, "toDate", types.Collection{already}); got[0].(types.Date) != already {
		t.Errorf("toDate(Date) did not pass through unchanged")
	}
	if got := convFn(t, "convertsToDate", types.Collection{already}); !got[0].(types.Boolean).Bool() {
		t.Error("convertsToDate(Date) = false, want true")
	}

	// A DateTime converts by dropping its time-of-day component.
	dt, err := types.NewDateTime("2023-06-15T10:30:00Z")
	if err != nil {
		t.Fatal(err)
	}
	got = convFn(t, "toDate", types.Collection{dt})
	d, ok = got[0].(types.Date)
	if !ok || d.Year() != 2023 || d.Month() != 6 || d.Day() != 15 {
		t.Errorf("toDate(DateTime) = %v, want 2023-06-15", got)
	}
}

func TestToDateTime(t *testing.T) {
	got := convFn(t, "toDateTime", types.Collection{types.NewString("2023-06-15T10:30:00Z")})
	dt, ok := got[0].(types.DateTime)
	if !ok {
		t.Fatalf("toDateTime returned %T, want DateTime", got[0])
	}
	if dt.Year() != 2023 || dt.Hour() != 10 {
		t.Errorf("toDateTime(...) = %v, want year 2023 hour 10", dt)
	}

	// A bare Date promotes to a day-precision DateTime rather than
	// remaining a String.
	d, err := types.NewDate("2020-03-01")
	if err != nil {
		t.Fatal(err)
	}
	got = convFn(t, "toDateTime", types.Collection{d})
	dt, ok = got[0].(types.DateTime)
	if !ok {
		t.Fatalf("toDateTime(Date) returned %T, want DateTime", got[0])
	}
	if dt.Year() != 2020 || dt.Month() != 3 || dt.Day() != 1 {
		t.Errorf("toDateTime(Date) = %v, want 2020-03-01", dt)
	}

	if got := convFn(t, "toDateTime", types.Collection{types.NewString("not a date")}); !got.Empty() {
		t.Errorf("toDateTime(garbage) = %v, want empty", got)
	}
}

func TestToTime(t *testing.T) {
	got := convFn(t, "toTime", types.Collection{types.NewString("10:30:00")})
	tm, ok := got[0].(types.Time)
	if !ok {
		t.Fatalf("toTime returned %T, want Time", got[0])
	}
	if tm.Hour() != 10 || tm.Minute() != 30 {
		t.Errorf("toTime(\"10:30:00\") = %v, want 10:30", tm)
	}

	if got := convFn(t, "convertsToTime", types.Collection{tm}); !got[0].(types.Boolean).Bool() {
		t.Error("convertsToTime(Time) = false, want true")
	}
}

func TestToQuantity(t *testing.T) {
	got := convFn(t, "toQuantity", types.Collection{types.NewInteger(5)}, "mg")
	q, ok := got[0].(types.Quantity)
	if !ok {
		t.Fatalf("toQuantity returned %T, want Quantity", got[0])
	}
	if q.Unit() != "mg" {
		t.Errorf("toQuantity(5, mg) = %v, want unit mg", q)
	}

	got = convFn(t, "toQuantity", types.Collection{types.NewString("5 'mg'")})
	if _, ok := got[0].(types.Quantity); !ok {
		t.Errorf("toQuantity(\"5 'mg'\") returned %T, want Quantity", got[0])
	}
}

func TestIif(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))
	fn, _ := Get("iif")

	trueArgs := []interface{}{
		types.Collection{types.NewBoolean(true)},
		types.Collection{types.NewString("yes")},
		types.Collection{types.NewString("no")},
	}
	got, err := fn.Fn(ctx, types.Collection{}, trueArgs)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].(types.String).Value() != "yes" {
		t.Errorf("iif(true, yes, no) = %v, want yes", got[0])
	}

	falseArgs := []interface{}{
		types.Collection{types.NewBoolean(false)},
		types.Collection{types.NewString("yes")},
		types.Collection{types.NewString("no")},
	}
	got, _ = fn.Fn(ctx, types.Collection{}, falseArgs)
	if got[0].(types.String).Value() != "no" {
		t.Errorf("iif(false, yes, no) = %v, want no", got[0])
	}

	// Missing else branch yields empty when the condition is false.
	twoArgs := []interface{}{
		types.Collection{types.NewBoolean(false)},
		types.Collection{types.NewString("yes")},
	}
	got, _ = fn.Fn(ctx, types.Collection{}, twoArgs)
	if !got.Empty() {
		t.Errorf("iif(false, yes) with no else = %v, want empty", got)
	}
}
