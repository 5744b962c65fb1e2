package dispatch

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/vango-dev/dispatch/pkg/pipeline"
)

// AnyMethod is the Handlers key that serves every method without a more
// specific entry.
const AnyMethod = "*"

// Module is what a RouteSpec's Module field refers to: the handlers, route
// middleware and local hooks of one route.
type Module struct {
	// Handlers maps an HTTP method (or AnyMethod) to its handler.
	Handlers map[string]pipeline.Handler

	// Middleware runs after the global middleware.
	Middleware []pipeline.Middleware

	// Hooks are the route's local hooks.
	Hooks *pipeline.Lifecycle
}

var (
	// ErrNoModule is returned for a route without a module.
	ErrNoModule = errors.New("dispatch: route has no module")

	// ErrNoHandler is returned for a module without handlers.
	ErrNoHandler = errors.New("dispatch: module has no handlers")
)

// RouteError reports a route whose module cannot be prepared.
type RouteError struct {
	RouteID string
	Err     error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("dispatch: route %q: %v", e.RouteID, e.Err)
}

func (e *RouteError) Unwrap() error { return e.Err }

// resolveModule accepts *Module, Module, pipeline.Handler or a plain handler
// func.
func resolveModule(v any) (*Module, error) {
	var m *Module
	switch t := v.(type) {
	case nil:
		return nil, ErrNoModule
	case *Module:
		if t == nil {
			return nil, ErrNoModule
		}
		m = t
	case Module:
		m = &t
	case pipeline.Handler:
		m = &Module{Handlers: map[string]pipeline.Handler{AnyMethod: t}}
	case func(*pipeline.Ctx) (*pipeline.Response, error):
		m = &Module{Handlers: map[string]pipeline.Handler{AnyMethod: t}}
	default:
		return nil, fmt.Errorf("dispatch: unsupported module type %T", v)
	}
	if len(m.Handlers) == 0 {
		return nil, ErrNoHandler
	}
	return m, nil
}

// allowList upper-cases methods, adds HEAD when GET is present and sorts
// the result.
func allowList(methods []string) []string {
	set := make(map[string]bool, len(methods)+1)
	for _, m := range methods {
		set[strings.ToUpper(m)] = true
	}
	return sortedMethods(set)
}

// methodsOf returns the sorted methods m serves explicitly, with HEAD added
// when GET is served. It is nil when m has an AnyMethod handler.
func methodsOf(m *Module) []string {
	if _, ok := m.Handlers[AnyMethod]; ok {
		return nil
	}
	set := make(map[string]bool, len(m.Handlers)+1)
	for method := range m.Handlers {
		set[strings.ToUpper(method)] = true
	}
	return sortedMethods(set)
}

func sortedMethods(set map[string]bool) []string {
	if set[http.MethodGet] {
		set[http.MethodHead] = true
	}
	out := make([]string, 0, len(set))
	for method := range set {
		out = append(out, method)
	}
	sort.Strings(out)
	return out
}
