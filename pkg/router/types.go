package router

import "strings"

// Kind tags what a route serves. The router does not interpret it.
type Kind string

const (
	KindPage  Kind = "page"
	KindAPI   Kind = "api"
	KindAsset Kind = "asset"
)

// WildcardKey is the reserved parameter key holding a wildcard remainder.
const WildcardKey = "wildcard"

// RouteSpec describes one registered route.
type RouteSpec struct {
	// ID uniquely identifies the route (e.g., "users.show").
	ID string `json:"id"`

	// Pattern is the URL pattern (e.g., "/users/:id"). Must start with "/".
	Pattern string `json:"pattern"`

	// Kind is an opaque tag used by collaborators (page, api, ...).
	Kind Kind `json:"kind,omitempty"`

	// Methods restricts the route to these HTTP methods. Empty allows all.
	Methods []string `json:"methods,omitempty"`

	// Module is the collaborator-owned handler module for this route.
	Module any `json:"-"`
}

// AllowsMethod reports whether the route accepts the given HTTP method.
func (r *RouteSpec) AllowsMethod(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}
	for _, m := range r.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// Params maps parameter names to decoded values.
type Params map[string]string

// Get returns the value for key, or "" when absent.
func (p Params) Get(key string) string {
	return p[key]
}

// Wildcard returns the wildcard remainder, or "" for non-wildcard matches.
func (p Params) Wildcard() string {
	return p[WildcardKey]
}

// MatchResult contains the result of matching a path against the router.
type MatchResult struct {
	// Route is the matched route definition.
	Route *RouteSpec

	// Params are the extracted route parameters. Never nil.
	Params Params
}

// Stats summarizes a route table.
type Stats struct {
	Static  int `json:"static"`
	Dynamic int `json:"dynamic"`
	Total   int `json:"total"`
}
