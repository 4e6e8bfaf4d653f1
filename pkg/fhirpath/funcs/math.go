// Math functions operate on the first element of the input, an Integer or
// Decimal; elements after the first are not examined. A non-numeric value
// gives empty rather than an error, so these compose inside a path
// expression without aborting the whole evaluation over one bad element.
package funcs

import (
	"math"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
	"github.com/shopspring/decimal"
)

func init() {
	Register(FuncDef{Name: "abs", MinArgs: 0, MaxArgs: 0, Fn: fnAbs})
	Register(FuncDef{Name: "ceiling", MinArgs: 0, MaxArgs: 0, Fn: fnCeiling})
	Register(FuncDef{Name: "exp", MinArgs: 0, MaxArgs: 0, Fn: fnExp})
	Register(FuncDef{Name: "floor", MinArgs: 0, MaxArgs: 0, Fn: fnFloor})
	Register(FuncDef{Name: "ln", MinArgs: 0, MaxArgs: 0, Fn: fnLn})
	Register(FuncDef{Name: "log", MinArgs: 1, MaxArgs: 1, Fn: fnLog})
	Register(FuncDef{Name: "power", MinArgs: 1, MaxArgs: 1, Fn: fnPower})
	Register(FuncDef{Name: "round", MinArgs: 0, MaxArgs: 1, Fn: fnRound})
	Register(FuncDef{Name: "sqrt", MinArgs: 0, MaxArgs: 0, Fn: fnSqrt})
	Register(FuncDef{Name: "truncate", MinArgs: 0, MaxArgs: 0, Fn: fnTruncate})

	Register(FuncDef{Name: "sum", MinArgs: 0, MaxArgs: 0, Fn: fnSum})
	Register(FuncDef{Name: "min", MinArgs: 0, MaxArgs: 0, Fn: fnMin})
	Register(FuncDef{Name: "max", MinArgs: 0, MaxArgs: 0, Fn: fnMax})
	Register(FuncDef{Name: "avg", MinArgs: 0, MaxArgs: 0, Fn: fnAvg})
}

func fnAbs(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if i, ok := input[0].(types.Integer); ok {
		return types.Collection{i.Abs()}, nil
	}
	f, ok := numericFloat(input[0])
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewDecimalFromFloat(math.Abs(f))}, nil
}

func fnCeiling(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	switch v := input[0].(type) {
	case types.Integer:
		return types.Collection{v}, nil
	case types.Decimal:
		return types.Collection{v.Ceiling()}, nil
	default:
		return types.Collection{}, nil
	}
}

func fnFloor(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	switch v := input[0].(type) {
	case types.Integer:
		return types.Collection{v}, nil
	case types.Decimal:
		return types.Collection{v.Floor()}, nil
	default:
		return types.Collection{}, nil
	}
}

func fnTruncate(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	switch v := input[0].(type) {
	case types.Integer:
		return types.Collection{v}, nil
	case types.Decimal:
		return types.Collection{v.Truncate()}, nil
	default:
		return types.Collection{}, nil
	}
}

func fnExp(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	f, ok := numericFloat(input[0])
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewDecimalFromFloat(math.Exp(f))}, nil
}

func fnLn(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	f, ok := numericFloat(input[0])
	if !ok || f <= 0 {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewDecimalFromFloat(math.Log(f))}, nil
}

func fnLog(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() || len(args) == 0 {
		return types.Collection{}, nil
	}
	f, ok := numericFloat(input[0])
	if !ok || f <= 0 {
		return types.Collection{}, nil
	}
	base, err := argFloat(args[0])
	if err != nil || base <= 0 || base == 1 {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewDecimalFromFloat(math.Log(f) / math.Log(base))}, nil
}

func fnPower(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() || len(args) == 0 {
		return types.Collection{}, nil
	}
	base, ok := numericFloat(input[0])
	if !ok {
		return types.Collection{}, nil
	}
	exp, err := argFloat(args[0])
	if err != nil {
		return types.Collection{}, nil
	}
	result := math.Pow(base, exp)
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewDecimalFromFloat(result)}, nil
}

func fnRound(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	precision := int32(0)
	if len(args) > 0 {
		p, err := argInteger(args[0])
		if err != nil {
			return types.Collection{}, nil
		}
		precision = int32(p)
	}
	switch v := input[0].(type) {
	case types.Integer:
		return types.Collection{v}, nil
	case types.Decimal:
		return types.Collection{v.Round(precision)}, nil
	default:
		return types.Collection{}, nil
	}
}

func fnSqrt(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	f, ok := numericFloat(input[0])
	if !ok || f < 0 {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewDecimalFromFloat(math.Sqrt(f))}, nil
}

// fnSum adds every element, returning Integer when every element was an
// Integer and Decimal as soon as any element was a Decimal. A non-numeric
// element anywhere makes the whole result empty - sum() doesn't skip
// elements it can't add.
func fnSum(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewInteger(0)}, nil
	}
	if err := ctx.CheckCancellation(); err != nil {
		return nil, err
	}

	var total decimal.Decimal
	sawDecimal := false
	for _, item := range input {
		switch v := item.(type) {
		case types.Integer:
			total = total.Add(decimal.NewFromInt(v.Value()))
		case types.Decimal:
			total = total.Add(v.Value())
			sawDecimal = true
		default:
			return types.Collection{}, nil
		}
	}

	if sawDecimal {
		d, _ := types.NewDecimal(total.String())
		return types.Collection{d}, nil
	}
	return types.Collection{types.NewInteger(total.IntPart())}, nil
}

func fnAvg(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if err := ctx.CheckCancellation(); err != nil {
		return nil, err
	}

	var total decimal.Decimal
	count := 0
	for _, item := range input {
		switch v := item.(type) {
		case types.Integer:
			total = total.Add(decimal.NewFromInt(v.Value()))
			count++
		case types.Decimal:
			total = total.Add(v.Value())
			count++
		default:
			return types.Collection{}, nil
		}
	}
	if count == 0 {
		return types.Collection{}, nil
	}
	avg := total.Div(decimal.NewFromInt(int64(count)))
	d, _ := types.NewDecimal(avg.String())
	return types.Collection{d}, nil
}

func fnMin(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return fnExtremum(ctx, input, false)
}

func fnMax(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return fnExtremum(ctx, input, true)
}

// fnExtremum finds the greatest (wantGreater) or least element of input
// using each element's own Compare method, so it works uniformly across
// Integer, Decimal, String, Date, DateTime, and Time without repeating a
// type switch per comparable type. A Compare failure (incomparable types
// mixed in the collection) or a non-Comparable element yields empty,
// matching how the rest of this package treats a type it can't act on.
func fnExtremum(ctx *eval.Context, input types.Collection, wantGreater bool) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if err := ctx.CheckCancellation(); err != nil {
		return nil, err
	}

	best, ok := input[0].(types.Comparable)
	if !ok {
		return types.Collection{}, nil
	}
	for _, item := range input[1:] {
		cur, ok := item.(types.Comparable)
		if !ok {
			return types.Collection{}, nil
		}
		cmp, err := cur.Compare(best)
		if err != nil {
			return types.Collection{}, nil
		}
		if (wantGreater && cmp > 0) || (!wantGreater && cmp < 0) {
			best = cur
		}
	}
	return types.Collection{best}, nil
}
