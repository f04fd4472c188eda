// Package registry holds the named component registries of the detection
// framework schema. Config values like MODEL.BACKBONE.CONV_BODY are
// contracts against these names: the training framework looks each one up
// in its own registry, so validation resolves them here first.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// DuplicateError is returned when a name is registered twice.
type DuplicateError struct {
	Registry string
	Name     string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("registry %s: %q already registered", e.Registry, e.Name)
}

// Registry is a named, concurrency-safe map from component name to its
// descriptor. Lookups are case-sensitive exact match, as in the framework.
type Registry[T any] struct {
	name    string
	mu      sync.RWMutex
	entries map[string]T
}

// New creates an empty registry with the given name.
func New[T any](name string) *Registry[T] {
	return &Registry[T]{
		name:    name,
		entries: make(map[string]T),
	}
}

// Name returns the registry name, e.g. "CONV_BODY".
func (r *Registry[T]) Name() string {
	return r.name
}

// Register adds a component. Registering an existing name is an error;
// component names are global contracts and must not be silently replaced.
func (r *Registry[T]) Register(name string, value T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return DuplicateError{Registry: r.name, Name: name}
	}
	r.entries[name] = value
	return nil
}

// MustRegister adds a component and panics on duplicates. Intended for
// builtin registration at package init.
func (r *Registry[T]) MustRegister(name string, value T) {
	if err := r.Register(name, value); err != nil {
		panic(err)
	}
}

// Get looks up a component by exact name.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.entries[name]
	return value, ok
}

// Contains reports whether a name is registered.
func (r *Registry[T]) Contains(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns all registered names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
