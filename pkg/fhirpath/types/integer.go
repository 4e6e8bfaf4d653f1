package types

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// TypeNameInteger is the FHIRPath type name for integer values.
const TypeNameInteger = "Integer"

// Integer is a FHIRPath integer, backed by a plain int64. FHIRPath integers
// are unbounded in principle; in practice the parser already falls back to
// Decimal for literals too large for int64 (pkg/fhirpath/parser), so this
// type only ever has to hold what fits.
type Integer struct {
	value int64
}

// NewInteger wraps a Go int64 as a FHIRPath Integer.
func NewInteger(v int64) Integer {
	return Integer{value: v}
}

// Value unwraps the underlying int64.
func (i Integer) Value() int64 {
	return i.value
}

func (i Integer) Type() string {
	return TypeNameInteger
}

// Equal compares exactly against another Integer, or numerically against a
// Decimal by promoting this Integer first (so 1 = 1.0 is true).
func (i Integer) Equal(other Value) bool {
	switch o := other.(type) {
	case Integer:
		return i.value == o.value
	case Decimal:
		return i.ToDecimal().Equal(o)
	default:
		return false
	}
}

// Equivalent is identical to Equal: integers carry no precision ambiguity
// of their own. Comparing against a Decimal still goes through Decimal's
// precision-aware Equivalent, since the Decimal side may be imprecise.
func (i Integer) Equivalent(other Value) bool {
	if o, ok := other.(Decimal); ok {
		return i.ToDecimal().Equivalent(o)
	}
	return i.Equal(other)
}

func (i Integer) String() string {
	return fmt.Sprintf("%d", i.value)
}

func (i Integer) IsEmpty() bool {
	return false
}

// ToDecimal promotes the Integer to an exact Decimal.
func (i Integer) ToDecimal() Decimal {
	return Decimal{value: decimal.NewFromInt(i.value)}
}

// Compare orders this Integer against another Integer or a Decimal.
func (i Integer) Compare(other Value) (int, error) {
	switch o := other.(type) {
	case Integer:
		switch {
		case i.value < o.value:
			return -1, nil
		case i.value > o.value:
			return 1, nil
		default:
			return 0, nil
		}
	case Decimal:
		return i.ToDecimal().Compare(o)
	default:
		return 0, NewTypeError(TypeNameInteger, other.Type(), "comparison")
	}
}

func (i Integer) Add(other Integer) Integer {
	return NewInteger(i.value + other.value)
}

func (i Integer) Subtract(other Integer) Integer {
	return NewInteger(i.value - other.value)
}

func (i Integer) Multiply(other Integer) Integer {
	return NewInteger(i.value * other.value)
}

// Divide is FHIRPath's `/` operator: integer-by-integer division always
// promotes to Decimal, even when the result happens to be whole.
func (i Integer) Divide(other Integer) (Decimal, error) {
	if other.value == 0 {
		return Decimal{}, fmt.Errorf("division by zero")
	}
	return i.ToDecimal().Divide(other.ToDecimal())
}

// Div is FHIRPath's `div` operator: truncating integer division.
func (i Integer) Div(other Integer) (Integer, error) {
	if other.value == 0 {
		return Integer{}, fmt.Errorf("division by zero")
	}
	return NewInteger(i.value / other.value), nil
}

// Mod is FHIRPath's `mod` operator.
func (i Integer) Mod(other Integer) (Integer, error) {
	if other.value == 0 {
		return Integer{}, fmt.Errorf("division by zero")
	}
	return NewInteger(i.value % other.value), nil
}

func (i Integer) Negate() Integer {
	return NewInteger(-i.value)
}

func (i Integer) Abs() Integer {
	if i.value < 0 {
		return NewInteger(-i.value)
	}
	return i
}

// Power returns i^exp as a Decimal: the result may not be a whole number
// for negative exponents, so Integer never returns Integer here.
func (i Integer) Power(exp Integer) Decimal {
	return i.ToDecimal().Power(exp.ToDecimal())
}

// Sqrt returns the square root as a Decimal, since it is rarely whole.
func (i Integer) Sqrt() (Decimal, error) {
	if i.value < 0 {
		return Decimal{}, fmt.Errorf("cannot take square root of negative number")
	}
	return NewDecimalFromFloat(math.Sqrt(float64(i.value))), nil
}
