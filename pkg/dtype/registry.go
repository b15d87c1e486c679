package dtype

import (
	"fmt"
	"sync"

	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

// Formatter renders a foreign payload for display.
type Formatter func(value interface{}) string

// Registry maps foreign payload type names to formatters. Registration is
// explicit: callers register formatters during setup, before any formatting
// happens, instead of relying on load-time side effects. A Registry is safe
// for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[string]Formatter)}
}

// Register adds a formatter for a foreign type name. Registering the same
// name twice fails.
func (r *Registry) Register(name string, f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formatters[name]; exists {
		return scipperrors.Newf(scipperrors.KindDType,
			"formatter for foreign type %q already registered", name)
	}
	r.formatters[name] = f
	return nil
}

// Lookup returns the formatter for a foreign type name.
func (r *Registry) Lookup(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[name]
	return f, ok
}

// Format renders a foreign payload, falling back to %v when no formatter is
// registered for the name.
func (r *Registry) Format(name string, value interface{}) string {
	if f, ok := r.Lookup(name); ok {
		return f(value)
	}
	return fmt.Sprintf("%v", value)
}

// defaultRegistry is the process-wide registry used when no explicit one is
// passed. It is created at package initialization and torn down never;
// callers that need isolation construct their own Registry.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide foreign-dtype registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
