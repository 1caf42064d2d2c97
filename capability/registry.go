package capability

import (
	"fmt"
	"sync"

	"github.com/xraph/conduct"
)

// entry pairs a factory with its registered description.
type entry struct {
	description string
	factory     Factory
}

// Registry maps capability names to factories.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register adds a capability under the given name. Registering the same
// name again overwrites the previous entry silently (last wins); plugin
// load order is not guaranteed, so this is intentional, not an error.
func (r *Registry) Register(name, description string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{description: description, factory: factory}
}

// Lookup returns the factory for the given capability name.
// Returns conduct.ErrUnknownCapability if no capability is registered.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", conduct.ErrUnknownCapability, name)
	}
	return e.factory, nil
}

// List returns name and description for all registered capabilities.
// Order is unspecified.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.entries))
	for name, e := range r.entries {
		infos = append(infos, Info{Name: name, Description: e.description})
	}
	return infos
}

// Names returns all registered capability names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}
