package model

import "strings"

// systemTypes are the primitive System.* types every evaluator must know
// about even with no FHIR schema at all (spec.md section 4.4: "the
// evaluator must work with a minimal provider that knows only the System
// namespace").
var systemTypes = map[string]TypeInfo{
	"Boolean":  {Namespace: "System", Name: "Boolean"},
	"Integer":  {Namespace: "System", Name: "Integer"},
	"Decimal":  {Namespace: "System", Name: "Decimal"},
	"String":   {Namespace: "System", Name: "String"},
	"Date":     {Namespace: "System", Name: "Date"},
	"DateTime": {Namespace: "System", Name: "DateTime"},
	"Time":     {Namespace: "System", Name: "Time"},
	"Quantity": {Namespace: "System", Name: "Quantity"},
}

// systemSubtypes records the (rare) subtype relationships within System.*.
// FHIRPath's System namespace is mostly flat; this exists so IsSubtypeOf
// has a single place to grow if a future spec revision adds one.
var systemSubtypes = map[string]string{}

// SystemProvider is the minimal Provider required by spec.md section 4.4:
// it knows only the System namespace and nothing about FHIR resources.
type SystemProvider struct{}

// NewSystemProvider returns a Provider backed only by System.* primitives.
func NewSystemProvider() *SystemProvider {
	return &SystemProvider{}
}

func (p *SystemProvider) GetTypeInfo(name string) (TypeInfo, bool) {
	name = stripNamespace(name, "System")
	t, ok := systemTypes[name]
	return t, ok
}

func (p *SystemProvider) GetPropertyType(string, string) (TypeInfo, bool) {
	return TypeInfo{}, false
}

func (p *SystemProvider) ResolvePolymorphicProperty(string, string, string) (string, bool) {
	return "", false
}

func (p *SystemProvider) IsSubtypeOf(child, parent string) bool {
	child = stripNamespace(child, "System")
	parent = stripNamespace(parent, "System")
	if child == parent {
		return true
	}
	for c := child; c != ""; c = systemSubtypes[c] {
		if c == parent {
			return true
		}
		if systemSubtypes[c] == "" {
			break
		}
	}
	return false
}

func (p *SystemProvider) GetChoiceTypePaths(string) map[string][]string {
	return nil
}

func (p *SystemProvider) FHIRVersion() FHIRVersion { return Unversioned }
func (p *SystemProvider) Namespace() string        { return "System" }

// stripNamespace removes a leading "Namespace." prefix if name carries it.
func stripNamespace(name, namespace string) string {
	prefix := namespace + "."
	if strings.HasPrefix(name, prefix) {
		return name[len(prefix):]
	}
	return name
}

// SplitQualified splits "FHIR.Patient" into ("FHIR", "Patient"), or returns
// ("", name) if name carries no namespace.
func SplitQualified(name string) (namespace, bare string) {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return "", name
}
