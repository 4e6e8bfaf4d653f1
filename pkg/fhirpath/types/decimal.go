package types

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// TypeNameDecimal is the FHIRPath type name for decimal values.
const TypeNameDecimal = "Decimal"

// Decimal is a FHIRPath decimal, backed by shopspring/decimal for arbitrary
// precision arithmetic (no float64 rounding drift across chained +/-/*).
type Decimal struct {
	value decimal.Decimal
}

// NewDecimal parses a decimal literal's text.
func NewDecimal(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal: %s", s)
	}
	return Decimal{value: d}, nil
}

func NewDecimalFromInt(v int64) Decimal {
	return Decimal{value: decimal.NewFromInt(v)}
}

func NewDecimalFromFloat(v float64) Decimal {
	return Decimal{value: decimal.NewFromFloat(v)}
}

// MustDecimal parses s, panicking on a malformed literal. Reserved for
// constants built from source known at compile time, never user input.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) Value() decimal.Decimal {
	return d.value
}

func (d Decimal) Type() string {
	return TypeNameDecimal
}

// Equal is exact numeric comparison: trailing zeroes never affect it
// (shopspring/decimal compares by value, not by the digits that produced
// it), so 1.0 = 1.00 and 1 = 1.0 both hold.
func (d Decimal) Equal(other Value) bool {
	switch o := other.(type) {
	case Decimal:
		return d.value.Equal(o.value)
	case Integer:
		return d.value.Equal(decimal.NewFromInt(o.value))
	default:
		return false
	}
}

// Equivalent rounds both operands to the number of fractional digits of
// whichever is less precise before comparing, per FHIRPath's decimal
// equivalence rule (1.2 ~ 1.20 is true; 1.2 ~ 1.23 rounds 1.23 down to 1.2
// and is also true, unlike 1.2 = 1.23 which is false). An Integer operand
// is always exact (zero fractional digits of its own), so it only narrows
// the comparison precision when this Decimal is less precise than it.
func (d Decimal) Equivalent(other Value) bool {
	var o decimal.Decimal
	switch v := other.(type) {
	case Decimal:
		o = v.value
	case Integer:
		o = decimal.NewFromInt(v.value)
	default:
		return false
	}
	precision := fractionalDigits(d.value)
	if op := fractionalDigits(o); op < precision {
		precision = op
	}
	return d.value.Round(precision).Equal(o.Round(precision))
}

// fractionalDigits returns how many digits follow the decimal point in v's
// stored representation (the scale), never negative.
func fractionalDigits(v decimal.Decimal) int32 {
	if exp := v.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

func (d Decimal) String() string {
	return d.value.String()
}

func (d Decimal) IsEmpty() bool {
	return false
}

// ToDecimal implements Numeric by returning d unchanged.
func (d Decimal) ToDecimal() Decimal {
	return d
}

func (d Decimal) Compare(other Value) (int, error) {
	switch o := other.(type) {
	case Decimal:
		return d.value.Cmp(o.value), nil
	case Integer:
		return d.value.Cmp(decimal.NewFromInt(o.value)), nil
	default:
		return 0, NewTypeError(TypeNameDecimal, other.Type(), "comparison")
	}
}

func (d Decimal) Add(other Decimal) Decimal {
	return Decimal{value: d.value.Add(other.value)}
}

func (d Decimal) Subtract(other Decimal) Decimal {
	return Decimal{value: d.value.Sub(other.value)}
}

func (d Decimal) Multiply(other Decimal) Decimal {
	return Decimal{value: d.value.Mul(other.value)}
}

// decimalDivisionPrecision bounds how many fractional digits `/` keeps;
// FHIRPath doesn't mandate an exact figure, so this picks enough to absorb
// a long chain of divisions without the result ballooning arbitrarily.
const decimalDivisionPrecision = 16

func (d Decimal) Divide(other Decimal) (Decimal, error) {
	if other.value.IsZero() {
		return Decimal{}, fmt.Errorf("division by zero")
	}
	return Decimal{value: d.value.DivRound(other.value, decimalDivisionPrecision)}, nil
}

func (d Decimal) Negate() Decimal {
	return Decimal{value: d.value.Neg()}
}

func (d Decimal) Abs() Decimal {
	return Decimal{value: d.value.Abs()}
}

func (d Decimal) Ceiling() Integer {
	return NewInteger(d.value.Ceil().IntPart())
}

func (d Decimal) Floor() Integer {
	return NewInteger(d.value.Floor().IntPart())
}

func (d Decimal) Truncate() Integer {
	return NewInteger(d.value.Truncate(0).IntPart())
}

func (d Decimal) Round(precision int32) Decimal {
	return Decimal{value: d.value.Round(precision)}
}

// Power uses float64 math.Pow: shopspring/decimal has no native power
// operation, and FHIRPath's power() result need not stay exact for
// fractional or negative exponents anyway.
func (d Decimal) Power(exp Decimal) Decimal {
	base, _ := d.value.Float64()
	exponent, _ := exp.value.Float64()
	return NewDecimalFromFloat(math.Pow(base, exponent))
}

func (d Decimal) Sqrt() (Decimal, error) {
	if d.value.IsNegative() {
		return Decimal{}, fmt.Errorf("cannot take square root of negative number")
	}
	f, _ := d.value.Float64()
	return NewDecimalFromFloat(math.Sqrt(f)), nil
}

func (d Decimal) Exp() Decimal {
	f, _ := d.value.Float64()
	return NewDecimalFromFloat(math.Exp(f))
}

func (d Decimal) Ln() (Decimal, error) {
	if !d.value.IsPositive() {
		return Decimal{}, fmt.Errorf("cannot take logarithm of non-positive number")
	}
	f, _ := d.value.Float64()
	return NewDecimalFromFloat(math.Log(f)), nil
}

func (d Decimal) Log(base Decimal) (Decimal, error) {
	if !d.value.IsPositive() {
		return Decimal{}, fmt.Errorf("cannot take logarithm of non-positive number")
	}
	if !base.value.IsPositive() || base.value.Equal(decimal.NewFromInt(1)) {
		return Decimal{}, fmt.Errorf("invalid logarithm base")
	}
	f, _ := d.value.Float64()
	b, _ := base.value.Float64()
	return NewDecimalFromFloat(math.Log(f) / math.Log(b)), nil
}

// IsInteger reports whether d has no fractional part.
func (d Decimal) IsInteger() bool {
	return d.value.Equal(d.value.Truncate(0))
}

// ToInteger converts d to an Integer, succeeding only for whole values.
func (d Decimal) ToInteger() (Integer, bool) {
	if !d.IsInteger() {
		return Integer{}, false
	}
	return NewInteger(d.value.IntPart()), true
}
