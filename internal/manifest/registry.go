package manifest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vango-dev/dispatch"
	"github.com/vango-dev/dispatch/pkg/router"
)

// Registry maps handler names used in a manifest to modules.
type Registry struct {
	mu       sync.RWMutex
	modules  map[string]any
	fallback any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]any)}
}

// Register binds name to a module. The module is anything RouteSpec.Module
// accepts: *dispatch.Module, dispatch.Module or a handler.
func (r *Registry) Register(name string, module any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = module
}

// SetFallback sets the module used by entries without a handler name.
func (r *Registry) SetFallback(module any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = module
}

// Names returns the registered handler names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		return r.fallback, r.fallback != nil
	}
	m, ok := r.modules[name]
	return m, ok
}

// Resolve turns manifest entries into route specs. An unknown handler name
// is a *dispatch.RouteError wrapping dispatch.ErrNoHandler.
func (r *Registry) Resolve(entries []Entry) ([]router.RouteSpec, error) {
	routes := make([]router.RouteSpec, 0, len(entries))
	for _, e := range entries {
		module, ok := r.lookup(e.Handler)
		if !ok {
			name := e.Handler
			if name == "" {
				name = "(fallback)"
			}
			return nil, &dispatch.RouteError{
				RouteID: e.ID,
				Err:     fmt.Errorf("%w: unknown handler %q", dispatch.ErrNoHandler, name),
			}
		}
		routes = append(routes, router.RouteSpec{
			ID:      e.ID,
			Pattern: e.Pattern,
			Kind:    e.Kind,
			Methods: e.Methods,
			Module:  module,
		})
	}
	return routes, nil
}
