package storage

import (
	"fmt"
	"sort"
	"sync"
)

// Options carries the connection settings a factory may need. Each backend
// reads only its own fields.
type Options struct {
	// Path is the sqlite database file.
	Path string
	// DSN is the postgres connection string.
	DSN string
	// URI and Database locate the mongo deployment.
	URI      string
	Database string
}

// Factory opens a backend.
type Factory func(opts Options) (Backend, error)

// Registry manages available storage backends
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Factory
}

// NewRegistry creates a new backend registry
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Factory),
	}
}

// Register adds a new backend factory to the registry
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("backend %s already registered", name)
	}

	r.backends[name] = factory
	return nil
}

// Open instantiates a backend by name
func (r *Registry) Open(name string, opts Options) (Backend, error) {
	r.mu.RLock()
	factory, exists := r.backends[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("backend %s not registered", name)
	}

	return factory(opts)
}

// List returns all registered backend names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds a backend to the global registry. Backends call it from init
// and a duplicate name is a programming error.
func Register(name string, factory Factory) {
	if err := defaultRegistry.Register(name, factory); err != nil {
		panic(err)
	}
}

// Open creates a backend from the global registry
func Open(name string, opts Options) (Backend, error) {
	return defaultRegistry.Open(name, opts)
}

// List returns all registered backend names from the global registry
func List() []string {
	return defaultRegistry.List()
}
