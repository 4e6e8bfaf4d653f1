// The to*()/convertsTo*() family implicitly defines FHIRPath's conversion
// rules between primitive types: toX() performs the conversion (or yields
// empty when the input doesn't fit), and convertsToX() reports whether
// toX() would succeed without actually doing the work twice. The
// implementations below are written in matching pairs for exactly that
// reason - see e.g. parseBoolean/fnToBoolean/fnConvertsToBoolean.
package funcs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
	"github.com/shopspring/decimal"
)

func init() {
	Register(FuncDef{Name: "iif", MinArgs: 2, MaxArgs: 3, Fn: fnIif})

	Register(FuncDef{Name: "toBoolean", MinArgs: 0, MaxArgs: 0, Fn: fnToBoolean})
	Register(FuncDef{Name: "convertsToBoolean", MinArgs: 0, MaxArgs: 0, Fn: fnConvertsToBoolean})

	Register(FuncDef{Name: "toInteger", MinArgs: 0, MaxArgs: 0, Fn: fnToInteger})
	Register(FuncDef{Name: "convertsToInteger", MinArgs: 0, MaxArgs: 0, Fn: fnConvertsToInteger})

	Register(FuncDef{Name: "toDecimal", MinArgs: 0, MaxArgs: 0, Fn: fnToDecimal})
	Register(FuncDef{Name: "convertsToDecimal", MinArgs: 0, MaxArgs: 0, Fn: fnConvertsToDecimal})

	Register(FuncDef{Name: "toString", MinArgs: 0, MaxArgs: 0, Fn: fnToString})
	Register(FuncDef{Name: "convertsToString", MinArgs: 0, MaxArgs: 0, Fn: fnConvertsToString})

	Register(FuncDef{Name: "toDate", MinArgs: 0, MaxArgs: 0, Fn: fnToDate})
	Register(FuncDef{Name: "convertsToDate", MinArgs: 0, MaxArgs: 0, Fn: fnConvertsToDate})

	Register(FuncDef{Name: "toDateTime", MinArgs: 0, MaxArgs: 0, Fn: fnToDateTime})
	Register(FuncDef{Name: "convertsToDateTime", MinArgs: 0, MaxArgs: 0, Fn: fnConvertsToDateTime})

	Register(FuncDef{Name: "toTime", MinArgs: 0, MaxArgs: 0, Fn: fnToTime})
	Register(FuncDef{Name: "convertsToTime", MinArgs: 0, MaxArgs: 0, Fn: fnConvertsToTime})

	Register(FuncDef{Name: "toQuantity", MinArgs: 0, MaxArgs: 1, Fn: fnToQuantity})
	Register(FuncDef{Name: "convertsToQuantity", MinArgs: 0, MaxArgs: 1, Fn: fnConvertsToQuantity})
}

// fnIif is FHIRPath's conditional: iif(criterion, true-result [, false-result]).
// This body receives both branches already evaluated. The evaluator
// handles iif itself, evaluating only the branch actually taken, and never
// calls this body.
func fnIif(_ *eval.Context, _ types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) < 2 {
		return nil, eval.InvalidArgumentsError("iif", 2, len(args))
	}

	condition := false
	if cond, ok := argCollection(args[0]); ok && !cond.Empty() {
		if b, ok := cond[0].(types.Boolean); ok {
			condition = b.Bool()
		}
	}

	if condition {
		if result, ok := argCollection(args[1]); ok {
			return result, nil
		}
		return types.Collection{}, nil
	}
	if len(args) > 2 {
		if result, ok := argCollection(args[2]); ok {
			return result, nil
		}
	}
	return types.Collection{}, nil
}

// booleanWords are the case-insensitive string forms FHIRPath recognizes
// for toBoolean()/convertsToBoolean(), per the spec's explicit list.
var booleanWords = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "1": true, "1.0": true,
	"false": false, "f": false, "no": false, "n": false, "0": false, "0.0": false,
}

// parseBoolean attempts FHIRPath's to-boolean conversion, reporting
// ok=false when v isn't one of the convertible shapes.
func parseBoolean(v types.Value) (result types.Boolean, ok bool) {
	switch t := v.(type) {
	case types.Boolean:
		return t, true
	case types.String:
		b, known := booleanWords[strings.ToLower(t.Value())]
		return types.NewBoolean(b), known
	case types.Integer:
		switch t.Value() {
		case 0:
			return types.NewBoolean(false), true
		case 1:
			return types.NewBoolean(true), true
		default:
			return types.Boolean{}, false
		}
	case types.Decimal:
		switch {
		case t.Value().Equal(decimal.Zero):
			return types.NewBoolean(false), true
		case t.Value().Equal(decimal.NewFromInt(1)):
			return types.NewBoolean(true), true
		default:
			return types.Boolean{}, false
		}
	default:
		return types.Boolean{}, false
	}
}

func fnToBoolean(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if b, ok := parseBoolean(input[0]); ok {
		return types.Collection{b}, nil
	}
	return types.Collection{}, nil
}

func fnConvertsToBoolean(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	_, ok := parseBoolean(input[0])
	return types.Collection{types.NewBoolean(ok)}, nil
}

func parseInteger(v types.Value) (types.Integer, bool) {
	switch t := v.(type) {
	case types.Integer:
		return t, true
	case types.Boolean:
		if t.Bool() {
			return types.NewInteger(1), true
		}
		return types.NewInteger(0), true
	case types.String:
		i, err := strconv.ParseInt(strings.TrimSpace(t.Value()), 10, 64)
		return types.NewInteger(i), err == nil
	case types.Decimal:
		if !t.IsInteger() {
			return types.Integer{}, false
		}
		i, ok := t.ToInteger()
		return i, ok
	default:
		return types.Integer{}, false
	}
}

func fnToInteger(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if i, ok := parseInteger(input[0]); ok {
		return types.Collection{i}, nil
	}
	return types.Collection{}, nil
}

func fnConvertsToInteger(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	_, ok := parseInteger(input[0])
	return types.Collection{types.NewBoolean(ok)}, nil
}

func parseDecimal(v types.Value) (types.Decimal, bool) {
	switch t := v.(type) {
	case types.Decimal:
		return t, true
	case types.Integer:
		return types.NewDecimalFromInt(t.Value()), true
	case types.Boolean:
		if t.Bool() {
			return types.NewDecimalFromInt(1), true
		}
		return types.NewDecimalFromInt(0), true
	case types.String:
		d, err := types.NewDecimal(strings.TrimSpace(t.Value()))
		return d, err == nil
	default:
		return types.Decimal{}, false
	}
}

func fnToDecimal(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if d, ok := parseDecimal(input[0]); ok {
		return types.Collection{d}, nil
	}
	return types.Collection{}, nil
}

func fnConvertsToDecimal(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	_, ok := parseDecimal(input[0])
	return types.Collection{types.NewBoolean(ok)}, nil
}

// fnToString always succeeds for any singleton value - every Value
// implements String().
func fnToString(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewString(input[0].String())}, nil
}

func fnConvertsToString(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	switch input[0].(type) {
	case types.String, types.Boolean, types.Integer, types.Decimal,
		types.Date, types.DateTime, types.Time, types.Quantity:
		return types.Collection{types.NewBoolean(true)}, nil
	default:
		return types.Collection{types.NewBoolean(false)}, nil
	}
}

// dateString renders a DateTime's date components back into the textual
// form NewDate expects, regardless of the datetime's own precision -
// toDate() only ever needs the calendar date, never the time-of-day part.
func dateString(dt types.DateTime) string {
	return fmt.Sprintf("%04d-%02d-%02d", dt.Year(), dt.Month(), dt.Day())
}

func parseDate(v types.Value) (types.Date, bool) {
	switch t := v.(type) {
	case types.Date:
		return t, true
	case types.DateTime:
		d, err := types.NewDate(dateString(t))
		return d, err == nil
	case types.String:
		d, err := types.NewDate(t.Value())
		return d, err == nil
	default:
		return types.Date{}, false
	}
}

func fnToDate(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if d, ok := parseDate(input[0]); ok {
		return types.Collection{d}, nil
	}
	return types.Collection{}, nil
}

func fnConvertsToDate(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	_, ok := parseDate(input[0])
	return types.Collection{types.NewBoolean(ok)}, nil
}

// parseDateTime backs toDateTime()/convertsToDateTime(). A Date promotes
// cleanly since DateTime's own literal grammar accepts date-only precision
// (NewDateTime("2020-01-15") is valid, just at day precision).
func parseDateTime(v types.Value) (types.DateTime, bool) {
	switch t := v.(type) {
	case types.DateTime:
		return t, true
	case types.Date:
		dt, err := types.NewDateTime(t.String())
		return dt, err == nil
	case types.String:
		dt, err := types.NewDateTime(t.Value())
		return dt, err == nil
	default:
		return types.DateTime{}, false
	}
}

func fnToDateTime(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if dt, ok := parseDateTime(input[0]); ok {
		return types.Collection{dt}, nil
	}
	return types.Collection{}, nil
}

func fnConvertsToDateTime(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	_, ok := parseDateTime(input[0])
	return types.Collection{types.NewBoolean(ok)}, nil
}

func parseTime(v types.Value) (types.Time, bool) {
	switch t := v.(type) {
	case types.Time:
		return t, true
	case types.String:
		tm, err := types.NewTime(t.Value())
		return tm, err == nil
	default:
		return types.Time{}, false
	}
}

func fnToTime(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if t, ok := parseTime(input[0]); ok {
		return types.Collection{t}, nil
	}
	return types.Collection{}, nil
}

func fnConvertsToTime(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	_, ok := parseTime(input[0])
	return types.Collection{types.NewBoolean(ok)}, nil
}

// quantityUnitArg pulls the optional unit argument for toQuantity(unit).
func quantityUnitArg(args []interface{}) string {
	if len(args) == 0 {
		return ""
	}
	unit, _ := argString(args[0])
	return unit
}

func parseQuantity(v types.Value, unit string) (types.Quantity, bool) {
	switch t := v.(type) {
	case types.Quantity:
		return t, true
	case types.Integer:
		return types.NewQuantityFromDecimal(decimal.NewFromInt(t.Value()), unit), true
	case types.Decimal:
		return types.NewQuantityFromDecimal(t.Value(), unit), true
	case types.String:
		q, err := types.NewQuantity(t.Value())
		return q, err == nil
	default:
		return types.Quantity{}, false
	}
}

func fnToQuantity(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if q, ok := parseQuantity(input[0], quantityUnitArg(args)); ok {
		return types.Collection{q}, nil
	}
	return types.Collection{}, nil
}

func fnConvertsToQuantity(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	_, ok := parseQuantity(input[0], quantityUnitArg(args))
	return types.Collection{types.NewBoolean(ok)}, nil
}
