package dispatch

import (
	"log/slog"

	"github.com/vango-dev/dispatch/pkg/pipeline"
	"github.com/vango-dev/dispatch/pkg/router"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config configures an App.
type Config struct {
	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// NotFound answers unmatched requests. It runs behind the global
	// middleware and hooks. Default: pipeline.NotFound (bare 404).
	NotFound pipeline.Handler

	// Scheduler runs post-response hooks. Default: pipeline.GoScheduler.
	Scheduler pipeline.Scheduler

	// OnHookFailure is told about every hook failure the executor absorbs.
	OnHookFailure pipeline.FailureObserver

	// OnRouteSwap is called after a new route table is published.
	OnRouteSwap func(stats router.Stats)

	// ErrorHandler turns an error no on-error hook handled into a response.
	// Default: a bare 500.
	ErrorHandler func(c *pipeline.Ctx, err error) *pipeline.Response
}

// Option configures an App beyond Config.
type Option func(*App)

// WithMiddleware adds global middleware, like App.Use.
func WithMiddleware(mws ...pipeline.Middleware) Option {
	return func(a *App) {
		a.middleware = append(a.middleware, mws...)
	}
}

// WithHooks merges lc into the global lifecycle.
func WithHooks(lc *pipeline.Lifecycle) Option {
	return func(a *App) {
		a.hooks.Append(lc)
	}
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.NotFound == nil {
		c.NotFound = pipeline.NotFound
	}
	if c.Scheduler == nil {
		c.Scheduler = pipeline.GoScheduler
	}
	if c.ErrorHandler == nil {
		c.ErrorHandler = defaultErrorHandler
	}
	return c
}
