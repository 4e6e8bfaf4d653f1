package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemProviderKnowsOnlySystemTypes(t *testing.T) {
	p := NewSystemProvider()

	info, ok := p.GetTypeInfo("Integer")
	require.True(t, ok)
	assert.Equal(t, "System", info.Namespace)
	assert.Equal(t, "Integer", info.Name)

	_, ok = p.GetTypeInfo("Patient")
	assert.False(t, ok, "SystemProvider must not know about FHIR resource types")

	assert.Equal(t, Unversioned, p.FHIRVersion())
	assert.Equal(t, "System", p.Namespace())
}

func TestSystemProviderIsSubtypeOf(t *testing.T) {
	p := NewSystemProvider()
	assert.True(t, p.IsSubtypeOf("Integer", "Integer"))
	assert.True(t, p.IsSubtypeOf("System.Integer", "Integer"))
	assert.False(t, p.IsSubtypeOf("Integer", "String"))
}

func TestHeuristicProviderFallsBackToSystem(t *testing.T) {
	p := NewHeuristicFHIRProvider(R4)

	info, ok := p.GetTypeInfo("String")
	require.True(t, ok)
	assert.Equal(t, "System", info.Namespace)

	assert.Equal(t, R4, p.FHIRVersion())
	assert.Equal(t, "FHIR", p.Namespace())
}

func TestHeuristicProviderRecognizesComplexTypes(t *testing.T) {
	p := NewHeuristicFHIRProvider(R4)

	info, ok := p.GetTypeInfo("HumanName")
	require.True(t, ok)
	assert.Equal(t, "FHIR", info.Namespace)
	assert.True(t, info.IsClass)

	_, ok = p.GetTypeInfo("NotARealType")
	assert.False(t, ok)
}

func TestHeuristicProviderRegisterType(t *testing.T) {
	p := NewHeuristicFHIRProvider(R4)
	p.RegisterType(TypeInfo{
		Namespace: "FHIR",
		Name:      "Patient",
		BaseType:  "FHIR.DomainResource",
		IsClass:   true,
		Elements: []ClassElement{
			{Name: "name", Type: "FHIR.HumanName", Cardinality: "0..*"},
		},
	})

	info, ok := p.GetTypeInfo("Patient")
	require.True(t, ok)
	assert.Equal(t, "Patient", info.Name)

	elType, ok := p.GetPropertyType("Patient", "name")
	require.True(t, ok)
	assert.Equal(t, "HumanName", elType.Name)

	_, ok = p.GetPropertyType("Patient", "nonexistent")
	assert.False(t, ok)
}

func TestHeuristicProviderIsSubtypeOfRegisteredHierarchy(t *testing.T) {
	p := NewHeuristicFHIRProvider(R4)
	p.RegisterType(TypeInfo{Namespace: "FHIR", Name: "Resource"})
	p.RegisterType(TypeInfo{Namespace: "FHIR", Name: "DomainResource", BaseType: "FHIR.Resource"})
	p.RegisterType(TypeInfo{Namespace: "FHIR", Name: "Patient", BaseType: "FHIR.DomainResource"})

	assert.True(t, p.IsSubtypeOf("Patient", "Patient"))
	assert.True(t, p.IsSubtypeOf("Patient", "DomainResource"))
	assert.True(t, p.IsSubtypeOf("Patient", "Resource"))
	assert.False(t, p.IsSubtypeOf("Patient", "Observation"))
}

func TestHeuristicProviderResolvePolymorphicProperty(t *testing.T) {
	p := NewHeuristicFHIRProvider(R4)

	name, ok := p.ResolvePolymorphicProperty("Observation", "value", "Quantity")
	require.True(t, ok)
	assert.Equal(t, "valueQuantity", name)

	name, ok = p.ResolvePolymorphicProperty("Observation", "value", "String")
	require.True(t, ok)
	assert.Equal(t, "valueString", name)

	_, ok = p.ResolvePolymorphicProperty("Observation", "value", "")
	assert.False(t, ok)
}

func TestHeuristicProviderGetChoiceTypePaths(t *testing.T) {
	p := NewHeuristicFHIRProvider(R4)
	paths := p.GetChoiceTypePaths("Observation")

	suffixes, ok := paths["value"]
	require.True(t, ok)
	assert.Contains(t, suffixes, "Quantity")
	assert.Contains(t, suffixes, "String")
}

func TestHeuristicProviderIsChoiceProperty(t *testing.T) {
	p := NewHeuristicFHIRProvider(R4)

	base, typeName, ok := p.IsChoiceProperty("valueQuantity")
	require.True(t, ok)
	assert.Equal(t, "value", base)
	assert.Equal(t, "Quantity", typeName)

	base, typeName, ok = p.IsChoiceProperty("valueString")
	require.True(t, ok)
	assert.Equal(t, "value", base)
	assert.Equal(t, "string", typeName, "primitive suffixes resolve to the lowerFirst FHIRPath name")

	_, _, ok = p.IsChoiceProperty("name")
	assert.False(t, ok)
}

func TestSplitQualified(t *testing.T) {
	ns, bare := SplitQualified("FHIR.Patient")
	assert.Equal(t, "FHIR", ns)
	assert.Equal(t, "Patient", bare)

	ns, bare = SplitQualified("Patient")
	assert.Equal(t, "", ns)
	assert.Equal(t, "Patient", bare)
}

func TestFHIRVersionString(t *testing.T) {
	assert.Equal(t, "R4", R4.String())
	assert.Equal(t, "R4B", R4B.String())
	assert.Equal(t, "R5", R5.String())
	assert.Equal(t, "unversioned", Unversioned.String())
}
