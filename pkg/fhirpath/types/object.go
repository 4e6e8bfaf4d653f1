package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
)

// ObjectValue is a FHIR resource or complex-typed element, held as raw JSON
// and decoded lazily field-by-field. Most expressions only ever touch a
// handful of an object's fields, so there is no value in eagerly unmarshaling
// the whole thing into a Go struct up front.
type ObjectValue struct {
	data   []byte
	fields map[string]Value // lazily populated, keyed by field name
}

// NewObjectValue wraps raw JSON bytes known to describe a single object.
func NewObjectValue(data []byte) *ObjectValue {
	return &ObjectValue{
		data:   data,
		fields: make(map[string]Value),
	}
}

const typeNameObject = "Object"

// shapeRule recognizes one FHIR complex type by the fields present on an
// object that carries no explicit resourceType. Rules are tried in order;
// the first match wins. This is a fallback only — a caller that has a
// model.Provider and the element's declared path should prefer that over
// guessing from shape (see pkg/fhirpath/model for the structural lookup
// this heuristic predates).
type shapeRule struct {
	typeName string
	matches  func(o *ObjectValue) bool
}

var shapeRules = []shapeRule{
	{"Quantity", func(o *ObjectValue) bool {
		return o.hasField("value") && (o.hasField("unit") || o.hasField("code") || o.hasField("system"))
	}},
	{"Coding", func(o *ObjectValue) bool {
		return o.hasField("system") && o.hasField("code") && !o.hasField("value")
	}},
	{"CodeableConcept", func(o *ObjectValue) bool {
		return o.hasArrayField("coding")
	}},
	{"Reference", func(o *ObjectValue) bool {
		return o.hasField("reference")
	}},
	{"Period", func(o *ObjectValue) bool {
		return o.hasField("start") || o.hasField("end")
	}},
	{"Identifier", func(o *ObjectValue) bool {
		return o.hasField("system") && o.hasStringField("value")
	}},
	{"Range", func(o *ObjectValue) bool {
		return o.hasField("low") || o.hasField("high")
	}},
	{"Ratio", func(o *ObjectValue) bool {
		return o.hasField("numerator") || o.hasField("denominator")
	}},
	{"Attachment", func(o *ObjectValue) bool {
		return o.hasField("contentType")
	}},
	{"HumanName", func(o *ObjectValue) bool {
		return o.hasField("family") || o.hasArrayField("given")
	}},
	{"Address", func(o *ObjectValue) bool {
		return o.hasField("city") || o.hasField("postalCode")
	}},
	{"ContactPoint", func(o *ObjectValue) bool {
		return o.hasField("system") && o.hasField("use")
	}},
	{"Annotation", func(o *ObjectValue) bool {
		return o.hasField("text") && (o.hasField("time") || o.hasField("authorReference") || o.hasField("authorString"))
	}},
}

// Type reports resourceType when present (FHIR resources always carry
// one), otherwise guesses a complex type from the object's shape via
// shapeRules, falling back to the generic "Object".
func (o *ObjectValue) Type() string {
	if rt, err := jsonparser.GetString(o.data, "resourceType"); err == nil {
		return rt
	}
	for _, rule := range shapeRules {
		if rule.matches(o) {
			return rule.typeName
		}
	}
	return typeNameObject
}

func (o *ObjectValue) hasField(name string) bool {
	_, _, _, err := jsonparser.Get(o.data, name) //nolint:dogsled // only the error is needed
	return err == nil
}

func (o *ObjectValue) hasStringField(name string) bool {
	_, dataType, _, err := jsonparser.Get(o.data, name)
	return err == nil && dataType == jsonparser.String
}

func (o *ObjectValue) hasArrayField(name string) bool {
	_, dataType, _, err := jsonparser.Get(o.data, name)
	return err == nil && dataType == jsonparser.Array
}

// Equal compares the raw JSON bytes. Two objects parsed from differently
// formatted but semantically equal JSON (reordered keys, different
// whitespace) will compare unequal; FHIRPath doesn't define structural
// equality for arbitrary complex types beyond this, so byte equality is the
// closest conservative match.
func (o *ObjectValue) Equal(other Value) bool {
	ov, ok := other.(*ObjectValue)
	return ok && bytes.Equal(o.data, ov.data)
}

func (o *ObjectValue) Equivalent(other Value) bool {
	return o.Equal(other)
}

func (o *ObjectValue) String() string {
	return string(o.data)
}

func (o *ObjectValue) IsEmpty() bool {
	return false
}

// Data returns the object's raw JSON bytes.
func (o *ObjectValue) Data() []byte {
	return o.data
}

// Get returns a single field's value, decoding and caching it on first
// access. ok is false if the field is absent or JSON null.
func (o *ObjectValue) Get(field string) (Value, bool) {
	if v, cached := o.fields[field]; cached {
		return v, true
	}
	raw, dataType, _, err := jsonparser.Get(o.data, field)
	if err != nil {
		return nil, false
	}
	v := decodeJSONValue(raw, dataType)
	if v == nil {
		return nil, false
	}
	o.fields[field] = v
	return v, true
}

// GetCollection returns field as a Collection: every element of an array
// field, or a one-element Collection for a scalar field, or empty if the
// field is absent.
func (o *ObjectValue) GetCollection(field string) Collection {
	raw, dataType, _, err := jsonparser.Get(o.data, field)
	if err != nil {
		return Collection{}
	}
	if dataType == jsonparser.Array {
		return decodeJSONArray(raw)
	}
	v := decodeJSONValue(raw, dataType)
	if v == nil {
		return Collection{}
	}
	return Collection{v}
}

// Keys returns every field name present on the object, in JSON source order.
func (o *ObjectValue) Keys() []string {
	var keys []string
	_ = jsonparser.ObjectEach(o.data, func(key []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
		keys = append(keys, string(key))
		return nil
	})
	return keys
}

// Children flattens every field's value(s) into one Collection, array
// fields contributing one element per item. This is what `.children()`
// walks.
func (o *ObjectValue) Children() Collection {
	var result Collection
	_ = jsonparser.ObjectEach(o.data, func(_ []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType == jsonparser.Array {
			result = append(result, decodeJSONArray(value)...)
			return nil
		}
		if v := decodeJSONValue(value, dataType); v != nil {
			result = append(result, v)
		}
		return nil
	})
	return result
}

// ToQuantity extracts a Quantity from an object that carries Quantity-shaped
// fields ("value" plus "unit" or "code"), for navigation contexts that
// expect a Quantity rather than a generic ObjectValue (arithmetic,
// comparisons against a quantity literal).
func (o *ObjectValue) ToQuantity() (Quantity, bool) {
	raw, dataType, _, err := jsonparser.Get(o.data, "value")
	if err != nil || dataType != jsonparser.Number {
		return Quantity{}, false
	}
	val, err := decimal.NewFromString(string(raw))
	if err != nil {
		return Quantity{}, false
	}

	unit := ""
	if unitBytes, _, _, err := jsonparser.Get(o.data, "unit"); err == nil {
		unit = string(unitBytes)
	} else if codeBytes, _, _, err := jsonparser.Get(o.data, "code"); err == nil {
		unit = string(codeBytes)
	}
	return NewQuantityFromDecimal(val, unit), true
}

// decodeJSONValue converts one decoded JSON scalar/object into its
// FHIRPath Value, or nil for null/array (arrays are the caller's job via
// decodeJSONArray, since they expand into multiple Collection elements).
func decodeJSONValue(data []byte, dataType jsonparser.ValueType) Value {
	switch dataType {
	case jsonparser.String:
		var s string
		if err := json.Unmarshal(append([]byte{'"'}, append(data, '"')...), &s); err != nil {
			s = string(data)
		}
		return NewString(s)

	case jsonparser.Number:
		text := string(data)
		if !strings.ContainsAny(text, ".eE") {
			if i, err := jsonparser.ParseInt(data); err == nil {
				return NewInteger(i)
			}
		}
		d, err := NewDecimal(text)
		if err != nil {
			return nil
		}
		return d

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return nil
		}
		return NewBoolean(b)

	case jsonparser.Object:
		return NewObjectValue(data)

	default: // jsonparser.Array, jsonparser.Null, jsonparser.Unknown, jsonparser.NotExist
		return nil
	}
}

func decodeJSONArray(data []byte) Collection {
	var result Collection
	jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) { //nolint:errcheck // ArrayEach only errors for non-arrays; data is already validated
		if v := decodeJSONValue(value, dataType); v != nil {
			result = append(result, v)
		}
	})
	return result
}

// JSONToCollection decodes a JSON document's top-level value into a
// Collection: an object becomes a singleton, an array expands, null
// becomes empty, and a bare scalar becomes a singleton of the matching
// primitive Value.
func JSONToCollection(data []byte) (Collection, error) {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}
	switch dataType {
	case jsonparser.Object:
		return Collection{NewObjectValue(value)}, nil
	case jsonparser.Array:
		return decodeJSONArray(value), nil
	case jsonparser.Null:
		return Collection{}, nil
	default:
		v := decodeJSONValue(value, dataType)
		if v == nil {
			return Collection{}, nil
		}
		return Collection{v}, nil
	}
}
