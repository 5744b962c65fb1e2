package router

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Router manages the published route table.
type Router struct {
	current atomic.Pointer[table]

	// mu serializes writers; readers never take it.
	mu sync.Mutex

	logger *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for table swaps.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a router with an empty table.
func New(opts ...Option) *Router {
	r := &Router{logger: slog.Default().With("component", "router")}
	for _, opt := range opts {
		opt(r)
	}
	r.current.Store(newTable())
	return r
}

// NewFromRoutes creates a router and registers routes.
func NewFromRoutes(routes []RouteSpec, opts ...Option) (*Router, error) {
	r := New(opts...)
	if err := r.SetRoutes(routes); err != nil {
		return nil, err
	}
	return r, nil
}

// SetRoutes replaces the whole table.
//
// The new table is built in isolation and published with a single pointer
// swap. On error the previous table stays in service.
func (r *Router) SetRoutes(routes []RouteSpec) error {
	t, err := buildTable(routes)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.current.Store(t)
	r.mu.Unlock()

	r.logSwap("routes set", t)
	return nil
}

// AddRoute registers a single route without disturbing existing entries.
func (r *Router) AddRoute(route RouteSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.current.Load().clone()
	if err := t.add(route); err != nil {
		return err
	}
	r.current.Store(t)

	r.logSwap("route added", t)
	return nil
}

// Match finds the route for a path.
func (r *Router) Match(path string) (*MatchResult, bool) {
	return r.current.Load().match(path)
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []RouteSpec {
	t := r.current.Load()
	return append([]RouteSpec(nil), t.routes...)
}

// Lookup returns the route registered under id.
func (r *Router) Lookup(id string) (*RouteSpec, bool) {
	t := r.current.Load()
	idx, ok := t.ids[id]
	if !ok {
		return nil, false
	}
	return &t.routes[idx], true
}

// Stats returns static, dynamic and total route counts.
func (r *Router) Stats() Stats {
	return r.current.Load().stats()
}

func (r *Router) logSwap(msg string, t *table) {
	s := t.stats()
	r.logger.Debug(msg, "static", s.Static, "dynamic", s.Dynamic, "total", s.Total)
}

// buildTable registers routes into a fresh table.
func buildTable(routes []RouteSpec) (*table, error) {
	t := newTable()
	for _, route := range routes {
		if err := t.add(route); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Validate checks routes without building a router.
func Validate(routes []RouteSpec) error {
	_, err := buildTable(routes)
	return err
}
