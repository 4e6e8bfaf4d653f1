package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/ucum"
)

const TypeNameQuantity = "Quantity"

// Quantity is a FHIRPath quantity: a decimal value paired with a UCUM (or
// calendar-duration) unit code.
type Quantity struct {
	value decimal.Decimal
	unit  string
}

// quantityLiteral matches the `<number> '<unit>'` or `<number> <unit>`
// surface syntax of a quantity literal; the unit is optional (a bare
// number is a unitless Quantity).
var quantityLiteral = regexp.MustCompile(`^([+-]?\d+\.?\d*)\s*(?:'([^']+)'|(\S+))?$`)

// NewQuantity parses a quantity literal's text.
func NewQuantity(s string) (Quantity, error) {
	m := quantityLiteral.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Quantity{}, fmt.Errorf("invalid quantity format: %s", s)
	}
	val, err := decimal.NewFromString(m[1])
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity value: %s", m[1])
	}
	unit := m[2]
	if unit == "" {
		unit = m[3]
	}
	return Quantity{value: val, unit: unit}, nil
}

func NewQuantityFromDecimal(value decimal.Decimal, unit string) Quantity {
	return Quantity{value: value, unit: unit}
}

func (q Quantity) Type() string { return TypeNameQuantity }

func (q Quantity) Value() decimal.Decimal { return q.value }
func (q Quantity) Unit() string           { return q.unit }

func (q Quantity) IsEmpty() bool { return false }

func (q Quantity) String() string {
	if q.unit == "" {
		return q.value.String()
	}
	if strings.ContainsRune(q.unit, ' ') {
		return fmt.Sprintf("%s '%s'", q.value.String(), q.unit)
	}
	return fmt.Sprintf("%s %s", q.value.String(), q.unit)
}

// Normalize returns q's UCUM-canonical value and unit code, letting two
// quantities expressed in different but convertible units (week vs day,
// mg vs g) be compared or combined.
func (q Quantity) Normalize() ucum.NormalizedQuantity {
	f, _ := q.value.Float64()
	return ucum.Normalize(f, q.unit)
}

// sameDimension reports whether q and other can be compared/combined
// directly: identical unit strings (byte-for-byte, since that's cheaper
// and covers the overwhelming majority of same-unit comparisons), or
// either side carrying no unit at all (an untyped numeric literal is
// treated as dimensionless and compatible with anything).
func (q Quantity) sameDimension(other Quantity) bool {
	return q.unit == other.unit || q.unit == "" || other.unit == ""
}

// normalizedPair UCUM-normalizes both operands and reports their common
// canonical unit code plus both normalized values, or ok=false if the
// units don't resolve to the same dimension at all (e.g. mg vs L).
func normalizedPair(a, b Quantity) (av, bv float64, ok bool) {
	na, nb := a.Normalize(), b.Normalize()
	if na.Code != nb.Code {
		return 0, 0, false
	}
	return na.Value, nb.Value, true
}

// Equal implements `=`: same-unit (or unitless) quantities compare their
// decimal values exactly; differing units fall back to UCUM normalization.
func (q Quantity) Equal(other Value) bool {
	o, ok := other.(Quantity)
	if !ok {
		return false
	}
	if q.sameDimension(o) {
		return q.value.Equal(o.value)
	}
	av, bv, ok := normalizedPair(q, o)
	return ok && decimal.NewFromFloat(av).Equal(decimal.NewFromFloat(bv))
}

// Equivalent implements `~`: like Equal but the unit comparison is
// case-insensitive (FHIRPath equivalence folds case throughout), and the
// normalized-value comparison uses a relative tolerance rather than exact
// decimal equality, since UCUM normalization goes through float64.
func (q Quantity) Equivalent(other Value) bool {
	o, ok := other.(Quantity)
	if !ok {
		return false
	}
	if q.unit == "" || o.unit == "" || strings.EqualFold(q.unit, o.unit) {
		return q.value.Equal(o.value)
	}
	av, bv, ok := normalizedPair(q, o)
	if !ok {
		return false
	}
	return floatEquivalent(av, bv)
}

// floatEquivalent compares two UCUM-normalized values with a small relative
// tolerance, absorbing the float64 round-trip Normalize goes through.
func floatEquivalent(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	maxAbs := a
	if b > maxAbs {
		maxAbs = b
	}
	if maxAbs == 0 {
		return diff == 0
	}
	const relativeTolerance = 1e-10
	return diff/maxAbs < relativeTolerance
}

// Compare implements `<`/`<=`/`>`/`>=`, erroring when the units don't
// resolve to a common dimension even after UCUM normalization.
func (q Quantity) Compare(other Value) (int, error) {
	o, ok := other.(Quantity)
	if !ok {
		return 0, NewTypeError(TypeNameQuantity, other.Type(), "comparison")
	}
	if q.sameDimension(o) {
		return q.value.Cmp(o.value), nil
	}
	av, bv, ok := normalizedPair(q, o)
	if !ok {
		return 0, fmt.Errorf("incompatible units: %s and %s", q.unit, o.unit)
	}
	return decimal.NewFromFloat(av).Cmp(decimal.NewFromFloat(bv)), nil
}

// combine applies op to q and other after resolving a common unit,
// UCUM-normalizing both sides first when their unit strings differ. It
// backs both Add and Subtract, which differ only in which decimal.Decimal
// operation they pass in.
func (q Quantity) combine(other Quantity, op func(a, b decimal.Decimal) decimal.Decimal) (Quantity, error) {
	if q.sameDimension(other) {
		unit := q.unit
		if unit == "" {
			unit = other.unit
		}
		return Quantity{value: op(q.value, other.value), unit: unit}, nil
	}

	av, bv, ok := normalizedPair(q, other)
	if !ok {
		return Quantity{}, fmt.Errorf("incompatible units: %s and %s", q.unit, other.unit)
	}
	result := op(decimal.NewFromFloat(av), decimal.NewFromFloat(bv))
	return Quantity{value: result, unit: q.Normalize().Code}, nil
}

// Add combines two quantities, UCUM-normalizing first when their units
// differ but are dimensionally compatible (1 'wk' + 3 'd').
func (q Quantity) Add(other Quantity) (Quantity, error) {
	return q.combine(other, decimal.Decimal.Add)
}

// Subtract combines two quantities, UCUM-normalizing first when their
// units differ but are dimensionally compatible.
func (q Quantity) Subtract(other Quantity) (Quantity, error) {
	return q.combine(other, decimal.Decimal.Sub)
}

// Multiply scales the quantity's value by a dimensionless factor, keeping
// the original unit.
func (q Quantity) Multiply(factor decimal.Decimal) Quantity {
	return Quantity{value: q.value.Mul(factor), unit: q.unit}
}

// Divide scales the quantity's value by a dimensionless divisor, keeping
// the original unit.
func (q Quantity) Divide(divisor decimal.Decimal) (Quantity, error) {
	if divisor.IsZero() {
		return Quantity{}, fmt.Errorf("division by zero")
	}
	return Quantity{value: q.value.Div(divisor), unit: q.unit}, nil
}
