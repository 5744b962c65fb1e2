package router

import "fmt"

// ErrorKind categorizes registration failures.
type ErrorKind string

const (
	// KindDuplicatePattern: two routes normalize to the same pattern.
	KindDuplicatePattern ErrorKind = "duplicate-pattern"

	// KindParamNameConflict: two parameter names at the same trie position,
	// e.g. /users/:id and /users/:slug.
	KindParamNameConflict ErrorKind = "param-name-conflict"

	// KindWildcardNotLast: a wildcard marker before the final segment.
	KindWildcardNotLast ErrorKind = "wildcard-not-last"

	// KindRouteConflict: a duplicate route ID, or two patterns that differ in
	// text but claim the same terminal slot (/f/* and /f/:rest*).
	KindRouteConflict ErrorKind = "route-conflict"

	// KindInvalidPattern: the pattern is malformed (no leading slash, empty
	// parameter name).
	KindInvalidPattern ErrorKind = "invalid-pattern"
)

// Error is returned when a route cannot be registered.
type Error struct {
	Kind ErrorKind

	// RouteID is the route being registered.
	RouteID string

	// ConflictID is the already-registered route it collides with, if any.
	ConflictID string

	// Pattern is the offending pattern.
	Pattern string

	// Detail is additional error-specific information.
	Detail string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("router: %s: route %q (%s)", e.Kind, e.RouteID, e.Pattern)
	if e.ConflictID != "" {
		msg += fmt.Sprintf(" conflicts with route %q", e.ConflictID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrDuplicatePattern  = &Error{Kind: KindDuplicatePattern}
	ErrParamNameConflict = &Error{Kind: KindParamNameConflict}
	ErrWildcardNotLast   = &Error{Kind: KindWildcardNotLast}
	ErrRouteConflict     = &Error{Kind: KindRouteConflict}
	ErrInvalidPattern    = &Error{Kind: KindInvalidPattern}
)
