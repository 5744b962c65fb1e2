package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/dispatch"
	"github.com/vango-dev/dispatch/pkg/router"
)

// Category represents the type of a diagnostic.
type Category string

const (
	CategoryRoute    Category = "route"
	CategoryConfig   Category = "config"
	CategoryManifest Category = "manifest"
	CategoryCLI      Category = "cli"
)

// Location points at where a diagnostic applies.
type Location struct {
	File  string
	Route string
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	switch {
	case l.File != "" && l.Route != "":
		return fmt.Sprintf("%s (route %s)", l.File, l.Route)
	case l.Route != "":
		return "route " + l.Route
	default:
		return l.File
	}
}

// Diagnostic is a structured error with a location and a fix suggestion.
type Diagnostic struct {
	// Code is a unique identifier (e.g., "R001").
	Code string

	// Category is the diagnostic type.
	Category Category

	// Message is a short description.
	Message string

	// Detail is a longer explanation.
	Detail string

	// Location is where the problem is.
	Location *Location

	// Suggestion is a hint on how to fix the problem.
	Suggestion string

	// Example shows the correct approach.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Diagnostic) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Diagnostic) Unwrap() error {
	return e.Wrapped
}

// WithFile sets the file the diagnostic applies to.
func (e *Diagnostic) WithFile(file string) *Diagnostic {
	if e.Location == nil {
		e.Location = &Location{}
	}
	e.Location.File = file
	return e
}

// WithRoute sets the route the diagnostic applies to.
func (e *Diagnostic) WithRoute(id string) *Diagnostic {
	if e.Location == nil {
		e.Location = &Location{}
	}
	e.Location.Route = id
	return e
}

// WithSuggestion adds a fix suggestion.
func (e *Diagnostic) WithSuggestion(s string) *Diagnostic {
	e.Suggestion = s
	return e
}

// WithExample adds an example.
func (e *Diagnostic) WithExample(ex string) *Diagnostic {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation.
func (e *Diagnostic) WithDetail(d string) *Diagnostic {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Diagnostic) Wrap(err error) *Diagnostic {
	e.Wrapped = err
	return e
}

// New creates a Diagnostic from a registered code.
func New(code string) *Diagnostic {
	template, ok := registry[code]
	if !ok {
		return &Diagnostic{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Diagnostic{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a Diagnostic with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in a Diagnostic with code, unless it already is one.
func FromError(err error, code string) *Diagnostic {
	if err == nil {
		return nil
	}
	var d *Diagnostic
	if stderrors.As(err, &d) {
		return d
	}
	return New(code).Wrap(err)
}

// routeCodes maps router error kinds to diagnostic codes.
var routeCodes = map[router.ErrorKind]string{
	router.KindDuplicatePattern:  "R001",
	router.KindParamNameConflict: "R002",
	router.KindWildcardNotLast:   "R003",
	router.KindRouteConflict:     "R004",
	router.KindInvalidPattern:    "R005",
}

// FromRouteError converts a registration error into a Diagnostic. Errors
// that are not *router.Error become R006 when they concern a missing
// handler, and a CLI diagnostic otherwise.
func FromRouteError(err error) *Diagnostic {
	if err == nil {
		return nil
	}

	var re *router.Error
	if !stderrors.As(err, &re) {
		if stderrors.Is(err, dispatch.ErrNoModule) || stderrors.Is(err, dispatch.ErrNoHandler) {
			d := New("R006").Wrap(err).WithDetail(err.Error())
			var rerr *dispatch.RouteError
			if stderrors.As(err, &rerr) {
				d.WithRoute(rerr.RouteID)
			}
			return d
		}
		return FromError(err, "X001")
	}

	code, ok := routeCodes[re.Kind]
	if !ok {
		code = "R005"
	}
	d := New(code).Wrap(err).WithRoute(re.RouteID)

	detail := re.Detail
	if detail == "" {
		detail = fmt.Sprintf("Pattern %q", re.Pattern)
	}
	if re.ConflictID != "" {
		detail += fmt.Sprintf(" (conflicts with route %s)", re.ConflictID)
	}
	d.Detail = detail
	return d
}
