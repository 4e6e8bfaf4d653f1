// Package funcs implements every built-in FHIRPath function (exists(),
// where(), substring(), toInteger(), and the rest of the standard
// library) as eval.FuncDef values registered into a shared registry that
// eval.Evaluator looks functions up in by name.
package funcs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
)

// FuncDef is the shape eval.Evaluator expects for a callable function:
// name, arity bounds, and the Go implementation.
type FuncDef = eval.FuncDef

// Registry maps FHIRPath function names to their implementations. Each
// file in this package registers its functions into the shared global
// registry from an init(), so importing pkg/fhirpath/funcs for its side
// effects is what makes the standard library available to an Evaluator.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]FuncDef
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]FuncDef)}
}

// Register adds def to the registry. Registering the same name twice is
// almost certainly a bug (two files claiming the same function), so it
// panics rather than silently letting the second registration win - this
// only ever runs during package init, never on a request path.
func (r *Registry) Register(def FuncDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		panic(fmt.Sprintf("funcs: duplicate registration for %q", def.Name))
	}
	r.defs[def.Name] = def
}

func (r *Registry) Get(name string) (FuncDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[name]
	return ok
}

// List returns every registered function name, sorted for stable output
// (tooling like cmd/gofhir-lint prints this list; an unordered map range
// would make that output flap between runs for no reason).
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var globalRegistry = NewRegistry()

func Register(def FuncDef)             { globalRegistry.Register(def) }
func Get(name string) (FuncDef, bool)  { return globalRegistry.Get(name) }
func Has(name string) bool             { return globalRegistry.Has(name) }
func List() []string                   { return globalRegistry.List() }

// GetRegistry exposes the global registry directly, for callers (mainly
// eval.NewContext) that need to wire it into an evaluator rather than call
// through the package-level helpers above.
func GetRegistry() *Registry { return globalRegistry }
