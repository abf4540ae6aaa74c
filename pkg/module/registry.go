package module

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrModuleNotFound is returned when no factory is registered for a path.
var ErrModuleNotFound = errors.New("module: not found")

// Importer resolves an import key to a module. Keys may carry a "?t="
// uniqueness token which importers must ignore for lookup.
type Importer interface {
	Import(ctx context.Context, key string) (*Module, error)
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(ctx context.Context, key string) (*Module, error)

// Import implements Importer.
func (f ImporterFunc) Import(ctx context.Context, key string) (*Module, error) {
	return f(ctx, key)
}

// Factory builds a new module instance.
type Factory func() *Module

// Registry is an Importer over compiled-in module factories, keyed by route
// file path. Every Import calls the factory, so each call yields a new
// instance.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for path.
func (r *Registry) Register(path string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[path] = f
}

// Unregister removes the factory for path.
func (r *Registry) Unregister(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, path)
}

// Paths returns the registered paths, sorted.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.factories))
	for p := range r.factories {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Import implements Importer.
func (r *Registry) Import(ctx context.Context, key string) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := StripToken(key)

	r.mu.RLock()
	f, ok := r.factories[path]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, path)
	}
	m := f()
	if m == nil {
		return nil, fmt.Errorf("module: factory for %s returned nil", path)
	}
	m.Path = path
	return m, nil
}

// StripToken removes a "?t=" uniqueness token from an import key.
func StripToken(key string) string {
	path, _, _ := strings.Cut(key, "?")
	return path
}
