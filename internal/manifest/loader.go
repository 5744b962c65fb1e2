package manifest

import (
	"log/slog"

	"github.com/vango-dev/dispatch/pkg/router"
)

// RouteSetter publishes a route table. *dispatch.App implements it.
type RouteSetter interface {
	SetRoutes(routes []router.RouteSpec) error
}

// Loader reads a manifest and resolves it against a registry.
type Loader struct {
	path     string
	registry *Registry
	logger   *slog.Logger
}

// NewLoader creates a loader for the manifest at path.
func NewLoader(path string, registry *Registry) *Loader {
	return &Loader{
		path:     path,
		registry: registry,
		logger:   slog.Default().With("component", "manifest"),
	}
}

// WithLogger sets the loader's logger.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Path returns the manifest path.
func (l *Loader) Path() string { return l.path }

// Routes reads the manifest and resolves its handlers.
func (l *Loader) Routes() ([]router.RouteSpec, error) {
	f, err := Read(l.path)
	if err != nil {
		return nil, err
	}
	return l.registry.Resolve(f.Routes)
}

// Apply loads the manifest and publishes it. On any error the table in
// service is left untouched.
func (l *Loader) Apply(dst RouteSetter) error {
	routes, err := l.Routes()
	if err != nil {
		l.logger.Error("manifest rejected", "path", l.path, "error", err)
		return err
	}
	if err := dst.SetRoutes(routes); err != nil {
		l.logger.Error("manifest rejected", "path", l.path, "error", err)
		return err
	}
	l.logger.Info("manifest applied", "path", l.path, "routes", len(routes))
	return nil
}
