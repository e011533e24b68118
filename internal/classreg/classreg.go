// Package classreg maps type names to factory functions so that a
// configuration value can name an extension point ("com.example.Sink")
// and have it resolved to something constructible at runtime.
//
// The embedding application registers every selectable implementation at
// startup; class-typed configuration entries are then resolved by lookup.
package classreg

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrAlreadyRegistered is returned when a name is registered twice.
var ErrAlreadyRegistered = errors.New("class already registered")

// Factory creates a new instance of a registered class.
type Factory func() any

// Class is the resolved handle stored for class-typed configuration entries.
type Class struct {
	Name string
	New  Factory
}

// Instantiate creates a new instance using the class factory.
func (c Class) Instantiate() (any, error) {
	if c.New == nil {
		return nil, fmt.Errorf("class %s has no factory", c.Name)
	}
	return c.New(), nil
}

// String returns the registered name.
func (c Class) String() string {
	return c.Name
}

// Registry holds the named factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return errors.New("class name must not be empty")
	}
	if f == nil {
		return fmt.Errorf("class %s: factory must not be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister registers a factory and panics on error.
// Intended for init-time registration of built-in implementations.
func (r *Registry) MustRegister(name string, f Factory) *Registry {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the class registered under name.
// A nil registry has no classes.
func (r *Registry) Lookup(name string) (Class, bool) {
	if r == nil {
		return Class{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	if !ok {
		return Class{}, false
	}
	return Class{Name: name, New: f}, true
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
