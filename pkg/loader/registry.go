package loader

import (
	"sort"
	"sync"
)

// Registry maps dependency keys to the route paths whose last successful
// loader invocation read them. It drives selective invalidation in
// development.
type Registry struct {
	mu      sync.RWMutex
	byDep   map[string]map[string]struct{}
	byRoute map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byDep:   make(map[string]map[string]struct{}),
		byRoute: make(map[string][]string),
	}
}

// Record replaces the dependencies of route with deps.
func (r *Registry) Record(route string, deps []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forgetLocked(route)
	if len(deps) == 0 {
		return
	}
	r.byRoute[route] = append([]string(nil), deps...)
	for _, d := range deps {
		routes, ok := r.byDep[d]
		if !ok {
			routes = make(map[string]struct{})
			r.byDep[d] = routes
		}
		routes[route] = struct{}{}
	}
}

// Forget drops every dependency of route.
func (r *Registry) Forget(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forgetLocked(route)
}

func (r *Registry) forgetLocked(route string) {
	for _, d := range r.byRoute[route] {
		routes := r.byDep[d]
		delete(routes, route)
		if len(routes) == 0 {
			delete(r.byDep, d)
		}
	}
	delete(r.byRoute, route)
}

// Affected returns the routes depending on dep, sorted.
func (r *Registry) Affected(dep string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	routes := make([]string, 0, len(r.byDep[dep]))
	for route := range r.byDep[dep] {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}

// Dependencies returns the recorded dependencies of route.
func (r *Registry) Dependencies(route string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.byRoute[route]...)
}

// Tracked reports whether any route depends on dep.
func (r *Registry) Tracked(dep string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byDep[dep]) > 0
}
