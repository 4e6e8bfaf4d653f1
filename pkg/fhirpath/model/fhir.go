package model

import (
	"strings"
	"sync"
)

// choiceTypeSuffixes enumerates the recognized value[x] suffixes, grounded
// on gofhir-validator/walker/types.go's ChoiceTypeSuffixes table. Primitive
// suffixes resolve to a lowerFirst System/FHIR primitive name; everything
// else resolves to a FHIR complex type name unchanged.
var choiceTypeSuffixes = []string{
	"String", "Boolean", "Integer", "Integer64", "Decimal", "DateTime",
	"Date", "Time", "Instant", "Uri", "Url", "Canonical", "Code", "Id",
	"Markdown", "Base64Binary", "Oid", "Uuid", "PositiveInt", "UnsignedInt",
	"Address", "Age", "Annotation", "Attachment", "CodeableConcept",
	"CodeableReference", "Coding", "ContactDetail", "ContactPoint",
	"Contributor", "Count", "DataRequirement", "Distance", "Dosage",
	"Duration", "Expression", "HumanName", "Identifier", "Meta", "Money",
	"MoneyQuantity", "Narrative", "ParameterDefinition", "Period",
	"Quantity", "Range", "Ratio", "RatioRange", "Reference",
	"RelatedArtifact", "SampledData", "Signature", "SimpleQuantity",
	"Timing", "TriggerDefinition", "UsageContext",
}

var primitiveChoiceSuffixes = map[string]bool{
	"String": true, "Boolean": true, "Integer": true, "Integer64": true,
	"Decimal": true, "DateTime": true, "Date": true, "Time": true,
	"Instant": true, "Uri": true, "Url": true, "Canonical": true,
	"Code": true, "Id": true, "Markdown": true, "Base64Binary": true,
	"Oid": true, "Uuid": true, "PositiveInt": true, "UnsignedInt": true,
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// choiceBaseElements lists every known value[x]-shaped element across the
// FHIR resources and complex types the heuristic provider is asked to
// reason about. It is deliberately small: real schema-driven providers
// (backed by generated StructureDefinitions, as gofhir-validator's
// DefaultTypeResolver is) should be preferred when a full FHIR package is
// available; this table only needs to cover what HeuristicFHIRProvider
// can't otherwise infer from JSON shape alone.
var choiceBaseElements = map[string]bool{
	"value":        true,
	"effect":       true,
	"onset":        true,
	"abatement":    true,
	"deceased":     true,
	"multipleBirth": true,
	"medication":   true,
	"performed":    true,
	"occurrence":   true,
	"detail":       true,
	"timing":       true,
	"dose":         true,
	"asNeeded":     true,
	"bornDate":     true,
	"scheduled":    true,
	"collected":    true,
}

// HeuristicFHIRProvider wraps SystemProvider with FHIR structural-type
// inference that does not depend on a compiled StructureDefinition package.
// It is grounded on two teacher idioms: types.ObjectValue's shape-based
// inferType/inferQuantityType/inferCodingType heuristics (kept below as
// classifyShape), and gofhir-validator's walker/choice.go suffix-matching
// resolution of value[x] elements (kept below as resolveChoiceSuffix).
type HeuristicFHIRProvider struct {
	system  *SystemProvider
	version FHIRVersion

	mu    sync.RWMutex
	extra map[string]TypeInfo // types registered via RegisterType
}

// NewHeuristicFHIRProvider returns a Provider that augments System.* with
// FHIR complex-type and choice-type heuristics for the given release.
func NewHeuristicFHIRProvider(version FHIRVersion) *HeuristicFHIRProvider {
	return &HeuristicFHIRProvider{
		system:  NewSystemProvider(),
		version: version,
		extra:   make(map[string]TypeInfo),
	}
}

// RegisterType lets a caller seed additional structural knowledge (e.g.
// loaded from a StructureDefinition bundle) without requiring a full
// schema package as a dependency of this provider.
func (p *HeuristicFHIRProvider) RegisterType(t TypeInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extra[t.Name] = t
}

func (p *HeuristicFHIRProvider) GetTypeInfo(name string) (TypeInfo, bool) {
	ns, bare := SplitQualified(name)
	if ns == "System" || ns == "" {
		if t, ok := p.system.GetTypeInfo(bare); ok {
			return t, true
		}
	}

	p.mu.RLock()
	if t, ok := p.extra[bare]; ok {
		p.mu.RUnlock()
		return t, true
	}
	p.mu.RUnlock()

	if isKnownComplexType(bare) {
		return TypeInfo{Namespace: "FHIR", Name: bare, IsClass: true}, true
	}
	return TypeInfo{}, false
}

// GetPropertyType only resolves what RegisterType seeded; the heuristic
// provider otherwise defers to ObjectValue's own runtime shape inference,
// since it has no StructureDefinition to consult ahead of time.
func (p *HeuristicFHIRProvider) GetPropertyType(parentType, property string) (TypeInfo, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	parent, ok := p.extra[parentType]
	if !ok {
		return TypeInfo{}, false
	}
	for _, el := range parent.Elements {
		if el.Name == property {
			return p.GetTypeInfo(el.Type)
		}
	}
	return TypeInfo{}, false
}

// ResolvePolymorphicProperty maps a choice base name plus the FHIRPath type
// the caller already knows it holds (e.g. from ObjectValue.Type()) to the
// serialized property name, e.g. ("Observation", "value", "Quantity") ->
// "valueQuantity". parentType is accepted for interface symmetry with
// schema-backed providers but unused here; baseName must be one of
// choiceBaseElements.
func (p *HeuristicFHIRProvider) ResolvePolymorphicProperty(parentType, baseName, actualValueType string) (string, bool) {
	if !choiceBaseElements[baseName] {
		return "", false
	}
	_, suffix := SplitQualified(actualValueType)
	if suffix == "" {
		return "", false
	}
	for _, s := range choiceTypeSuffixes {
		if strings.EqualFold(s, suffix) {
			return baseName + s, true
		}
	}
	return "", false
}

func (p *HeuristicFHIRProvider) IsSubtypeOf(child, parent string) bool {
	_, childBare := SplitQualified(child)
	_, parentBare := SplitQualified(parent)
	if childBare == parentBare {
		return true
	}
	if p.system.IsSubtypeOf(child, parent) {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for c := childBare; c != ""; {
		t, ok := p.extra[c]
		if !ok {
			break
		}
		_, base := SplitQualified(t.BaseType)
		if base == parentBare {
			return true
		}
		if base == c || base == "" {
			break
		}
		c = base
	}
	return false
}

// GetChoiceTypePaths returns, for any parentType, the fixed set of
// choice-base-name -> allowed-suffix mappings this heuristic knows about.
// A schema-backed provider would instead read this per-type from its
// StructureDefinitions; without one, every recognized choice base is
// assumed to accept every suffix in choiceTypeSuffixes.
func (p *HeuristicFHIRProvider) GetChoiceTypePaths(parentType string) map[string][]string {
	result := make(map[string][]string, len(choiceBaseElements))
	for base := range choiceBaseElements {
		suffixes := make([]string, len(choiceTypeSuffixes))
		copy(suffixes, choiceTypeSuffixes)
		result[base] = suffixes
	}
	return result
}

func (p *HeuristicFHIRProvider) FHIRVersion() FHIRVersion { return p.version }
func (p *HeuristicFHIRProvider) Namespace() string        { return "FHIR" }

// IsChoiceProperty reports whether a serialized JSON key (e.g.
// "valueQuantity" read off a FHIR resource) is a choice-type variant, and
// if so its base name ("value") and resolved FHIRPath type name
// ("Quantity"). Used by property navigation to recognize value[x] fields
// without a schema lookup.
func (p *HeuristicFHIRProvider) IsChoiceProperty(key string) (baseName, typeName string, ok bool) {
	return resolveChoiceSuffix(key)
}

// resolveChoiceSuffix reports whether key is a choice-type variant (e.g.
// "valueQuantity") and, if so, its base name and resolved type name. It
// mirrors gofhir-validator's walker.resolveByTypeSuffix fallback path
// (no ElementIndex available), which is the only path HeuristicFHIRProvider
// ever has access to.
func resolveChoiceSuffix(key string) (baseName, typeName string, ok bool) {
	for _, suffix := range choiceTypeSuffixes {
		if !strings.HasSuffix(key, suffix) {
			continue
		}
		base := key[:len(key)-len(suffix)]
		if base == "" {
			continue
		}
		name := suffix
		if primitiveChoiceSuffixes[suffix] {
			name = lowerFirst(suffix)
		}
		return base, name, true
	}
	return "", "", false
}

// isKnownComplexType reports whether name is one of the FHIR complex
// (non-resource) data types this provider recognizes by name alone.
func isKnownComplexType(name string) bool {
	_, ok := fhirComplexTypes[name]
	return ok
}

var fhirComplexTypes = map[string]bool{
	"Address": true, "Age": true, "Annotation": true, "Attachment": true,
	"BackboneElement": true, "CodeableConcept": true, "CodeableReference": true,
	"Coding": true, "ContactDetail": true, "ContactPoint": true,
	"Contributor": true, "Count": true, "DataRequirement": true,
	"Distance": true, "Dosage": true, "Duration": true, "Element": true,
	"ElementDefinition": true, "Expression": true, "Extension": true,
	"HumanName": true, "Identifier": true, "MarketingStatus": true,
	"Meta": true, "Money": true, "MoneyQuantity": true, "Narrative": true,
	"ParameterDefinition": true, "Period": true, "Population": true,
	"ProdCharacteristic": true, "ProductShelfLife": true, "Quantity": true,
	"Range": true, "Ratio": true, "RatioRange": true, "Reference": true,
	"RelatedArtifact": true, "SampledData": true, "Signature": true,
	"SimpleQuantity": true, "SubstanceAmount": true, "Timing": true,
	"TriggerDefinition": true, "UsageContext": true,
}
