// Temporal component accessors (year/month/.../millisecond) each pull one
// field out of whichever Date/DateTime/Time value they're given, and the
// three now()/today()/timeOfDay() functions stamp the current moment in
// each of those three precisions.
package funcs

import (
	"time"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "year", MinArgs: 0, MaxArgs: 0, Fn: fnYear})
	Register(FuncDef{Name: "month", MinArgs: 0, MaxArgs: 0, Fn: fnMonth})
	Register(FuncDef{Name: "day", MinArgs: 0, MaxArgs: 0, Fn: fnDay})
	Register(FuncDef{Name: "hour", MinArgs: 0, MaxArgs: 0, Fn: fnHour})
	Register(FuncDef{Name: "minute", MinArgs: 0, MaxArgs: 0, Fn: fnMinute})
	Register(FuncDef{Name: "second", MinArgs: 0, MaxArgs: 0, Fn: fnSecond})
	Register(FuncDef{Name: "millisecond", MinArgs: 0, MaxArgs: 0, Fn: fnMillisecond})

	Register(FuncDef{Name: "now", MinArgs: 0, MaxArgs: 0, Fn: fnNow})
	Register(FuncDef{Name: "today", MinArgs: 0, MaxArgs: 0, Fn: fnToday})
	Register(FuncDef{Name: "timeOfDay", MinArgs: 0, MaxArgs: 0, Fn: fnTimeOfDay})
}

// dateComponent reads a calendar field (year/month/day) off a Date or
// DateTime, reporting present=false when the value doesn't carry that
// field at all (wrong type) as distinct from carrying it at zero
// precision (partial date literals like "2020" or "2020-03" leave
// month/day unset).
func dateComponent(v types.Value, field func(y, m, d int) int) (value int, present bool) {
	switch t := v.(type) {
	case types.Date:
		return field(t.Year(), t.Month(), t.Day()), true
	case types.DateTime:
		return field(t.Year(), t.Month(), t.Day()), true
	default:
		return 0, false
	}
}

// timeComponent reads a clock field (hour/minute/second/millisecond) off
// a DateTime or Time.
func timeComponent(v types.Value, field func(h, mi, s, ms int) int) (value int, present bool) {
	switch t := v.(type) {
	case types.DateTime:
		return field(t.Hour(), t.Minute(), t.Second(), t.Millisecond()), true
	case types.Time:
		return field(t.Hour(), t.Minute(), t.Second(), t.Millisecond()), true
	default:
		return 0, false
	}
}

func fnYear(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	v, ok := dateComponent(input[0], func(y, _, _ int) int { return y })
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewInteger(int64(v))}, nil
}

func fnMonth(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	v, ok := dateComponent(input[0], func(_, m, _ int) int { return m })
	if !ok || v == 0 {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewInteger(int64(v))}, nil
}

func fnDay(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	v, ok := dateComponent(input[0], func(_, _, d int) int { return d })
	if !ok || v == 0 {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewInteger(int64(v))}, nil
}

func fnHour(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	v, ok := timeComponent(input[0], func(h, _, _, _ int) int { return h })
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewInteger(int64(v))}, nil
}

func fnMinute(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	v, ok := timeComponent(input[0], func(_, mi, _, _ int) int { return mi })
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewInteger(int64(v))}, nil
}

func fnSecond(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	v, ok := timeComponent(input[0], func(_, _, s, _ int) int { return s })
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewInteger(int64(v))}, nil
}

func fnMillisecond(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	v, ok := timeComponent(input[0], func(_, _, _, ms int) int { return ms })
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewInteger(int64(v))}, nil
}

func fnNow(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	return types.Collection{types.NewDateTimeFromTime(time.Now())}, nil
}

func fnToday(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	return types.Collection{types.NewDateFromTime(time.Now())}, nil
}

func fnTimeOfDay(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	return types.Collection{types.NewTimeFromGoTime(time.Now())}, nil
}
