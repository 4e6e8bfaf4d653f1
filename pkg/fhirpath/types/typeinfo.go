package types

import "fmt"

// TypeInfo is the common interface implemented by every reflection record
// returned by type() and consulted by is/as/ofType. It is itself a Value so
// it can travel through a Collection like any other FHIRPath result.
type TypeInfo interface {
	Value
	// QualifiedName returns "namespace.name" (e.g. "FHIR.Patient").
	QualifiedName() string
}

// SimpleTypeInfo describes a primitive or FHIR primitive wrapper type.
type SimpleTypeInfo struct {
	Namespace string
	Name      string
	BaseType  string // qualified name of the base type, or "" if none
}

func (s SimpleTypeInfo) QualifiedName() string { return s.Namespace + "." + s.Name }
func (s SimpleTypeInfo) Type() string          { return "TypeInfo" }
func (s SimpleTypeInfo) Equal(other Value) bool {
	o, ok := other.(SimpleTypeInfo)
	return ok && o.Namespace == s.Namespace && o.Name == s.Name
}
func (s SimpleTypeInfo) Equivalent(other Value) bool { return s.Equal(other) }
func (s SimpleTypeInfo) String() string              { return s.QualifiedName() }
func (s SimpleTypeInfo) IsEmpty() bool               { return false }

// ClassInfoElement describes one element of a ClassInfo.
type ClassInfoElement struct {
	Name        string
	Type        string // qualified type name
	IsOneBased  bool
	Cardinality string // e.g. "0..1", "0..*", "1..1"
}

// ClassInfo describes a complex (resource or data) type.
type ClassInfo struct {
	Namespace string
	Name      string
	BaseType  string
	Elements  []ClassInfoElement
}

func (c ClassInfo) QualifiedName() string { return c.Namespace + "." + c.Name }
func (c ClassInfo) Type() string          { return "TypeInfo" }
func (c ClassInfo) Equal(other Value) bool {
	o, ok := other.(ClassInfo)
	return ok && o.Namespace == c.Namespace && o.Name == c.Name
}
func (c ClassInfo) Equivalent(other Value) bool { return c.Equal(other) }
func (c ClassInfo) String() string              { return c.QualifiedName() }
func (c ClassInfo) IsEmpty() bool               { return false }

// ListTypeInfo describes the type of a collection result.
type ListTypeInfo struct {
	ElementType string // qualified type name
}

func (l ListTypeInfo) QualifiedName() string { return "System.List<" + l.ElementType + ">" }
func (l ListTypeInfo) Type() string          { return "TypeInfo" }
func (l ListTypeInfo) Equal(other Value) bool {
	o, ok := other.(ListTypeInfo)
	return ok && o.ElementType == l.ElementType
}
func (l ListTypeInfo) Equivalent(other Value) bool { return l.Equal(other) }
func (l ListTypeInfo) String() string              { return l.QualifiedName() }
func (l ListTypeInfo) IsEmpty() bool               { return false }

// TupleTypeInfoElement is one named member of an anonymous tuple type.
type TupleTypeInfoElement struct {
	Name string
	Type string
}

// TupleTypeInfo describes an anonymous structural type.
type TupleTypeInfo struct {
	Elements []TupleTypeInfoElement
}

func (t TupleTypeInfo) QualifiedName() string { return "System.Tuple" }
func (t TupleTypeInfo) Type() string          { return "TypeInfo" }
func (t TupleTypeInfo) Equal(other Value) bool {
	o, ok := other.(TupleTypeInfo)
	if !ok || len(o.Elements) != len(t.Elements) {
		return false
	}
	for i := range t.Elements {
		if t.Elements[i] != o.Elements[i] {
			return false
		}
	}
	return true
}
func (t TupleTypeInfo) Equivalent(other Value) bool { return t.Equal(other) }
func (t TupleTypeInfo) String() string {
	return fmt.Sprintf("System.Tuple(%d elements)", len(t.Elements))
}
func (t TupleTypeInfo) IsEmpty() bool { return false }
