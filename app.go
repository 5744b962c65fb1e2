package dispatch

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/dispatch/pkg/pipeline"
	"github.com/vango-dev/dispatch/pkg/router"
)

// =============================================================================
// App Type
// =============================================================================

// App dispatches HTTP requests to route modules through their middleware
// and lifecycle hooks. It implements http.Handler.
//
//	app := dispatch.New(dispatch.Config{Logger: logger})
//	app.Use(middleware.Tracing())
//	app.Hooks().BeforeHandle(requireUser)
//	if err := app.SetRoutes(routes); err != nil {
//	    return err
//	}
//	http.ListenAndServe(":8080", app)
//
// Middleware and hooks registered through Use, Hooks and Scope apply from
// the next SetRoutes call.
type App struct {
	config   Config
	logger   *slog.Logger
	executor *pipeline.Executor

	// mu guards registration state and serializes SetRoutes.
	mu         sync.Mutex
	middleware []pipeline.Middleware
	hooks      *pipeline.Lifecycle
	scopes     []scope

	current atomic.Pointer[snapshot]
}

type scope struct {
	prefix string
	hooks  *pipeline.Lifecycle
}

// snapshot pairs a route table with the pipelines prepared for it, so a
// match is never served by another table's pipelines.
type snapshot struct {
	router   *router.Router
	prepared map[string]*prepared
	fallback pipeline.Handler
	global   *pipeline.Lifecycle
}

// prepared is the assembled pipeline of one route.
type prepared struct {
	route      *router.RouteSpec
	lifecycle  *pipeline.Lifecycle
	handlers   map[string]pipeline.Handler
	any        pipeline.Handler
	allow      string
	notAllowed pipeline.Handler
}

// New creates an App with no routes.
func New(cfg Config, opts ...Option) *App {
	cfg = cfg.withDefaults()
	a := &App{
		config: cfg,
		logger: cfg.Logger.With("component", "dispatch"),
		hooks:  pipeline.NewLifecycle(pipeline.ScopeGlobal),
	}
	a.executor = pipeline.NewExecutor(
		pipeline.WithLogger(a.logger),
		pipeline.WithScheduler(cfg.Scheduler),
		pipeline.WithFailureObserver(cfg.OnHookFailure),
	)
	for _, opt := range opts {
		opt(a)
	}

	a.current.Store(a.assemble(router.New(router.WithLogger(cfg.Logger))))
	return a
}

// =============================================================================
// Registration
// =============================================================================

// Use adds global middleware that applies to all routes, including
// not-found responses.
//
//	app.Use(middleware.Tracing(), metrics.Middleware())
func (a *App) Use(mws ...pipeline.Middleware) {
	a.mu.Lock()
	a.middleware = append(a.middleware, mws...)
	a.mu.Unlock()
}

// Hooks returns the global lifecycle. Registering on it is safe while
// SetRoutes runs; new hooks apply from the next SetRoutes.
func (a *App) Hooks() *pipeline.Lifecycle {
	return a.hooks
}

// Scope returns the lifecycle for routes whose pattern is prefix or lies
// under it. Repeated calls with the same prefix return the same lifecycle.
//
//	app.Scope("/admin").BeforeHandle(requireAdmin)
func (a *App) Scope(prefix string) *pipeline.Lifecycle {
	prefix = strings.TrimSuffix(prefix, "/")
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.scopes {
		if s.prefix == prefix {
			return s.hooks
		}
	}
	lc := pipeline.NewLifecycle(pipeline.ScopeScoped)
	a.scopes = append(a.scopes, scope{prefix: prefix, hooks: lc})
	return lc
}

// SetRoutes builds a new route table and the pipeline of every route, then
// publishes both at once. On error nothing changes.
func (a *App) SetRoutes(routes []router.RouteSpec) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, err := router.NewFromRoutes(routes, router.WithLogger(a.config.Logger))
	if err != nil {
		return err
	}

	snap := a.assemble(r)
	for _, spec := range r.Routes() {
		route, _ := r.Lookup(spec.ID)
		p, err := a.prepare(route)
		if err != nil {
			return &RouteError{RouteID: spec.ID, Err: err}
		}
		snap.prepared[route.ID] = p
	}

	a.current.Store(snap)

	stats := r.Stats()
	a.logger.Info("routes published", "total", stats.Total, "static", stats.Static, "dynamic", stats.Dynamic)
	if a.config.OnRouteSwap != nil {
		a.config.OnRouteSwap(stats)
	}
	return nil
}

// assemble creates a snapshot for r with the current global pipeline.
// Callers hold a.mu, except New.
func (a *App) assemble(r *router.Router) *snapshot {
	global := pipeline.Merge(a.hooks)
	mws := append([]pipeline.Middleware(nil), a.middleware...)
	return &snapshot{
		router:   r,
		prepared: make(map[string]*prepared),
		fallback: pipeline.Compose(mws, a.config.NotFound),
		global:   global,
	}
}

func (a *App) prepare(route *router.RouteSpec) (*prepared, error) {
	mod, err := resolveModule(route.Module)
	if err != nil {
		return nil, err
	}

	layers := []*pipeline.Lifecycle{a.hooks}
	for _, s := range a.scopes {
		if underPrefix(route.Pattern, s.prefix) {
			layers = append(layers, s.hooks)
		}
	}
	layers = append(layers, mod.Hooks)

	mws := make([]pipeline.Middleware, 0, len(a.middleware)+len(mod.Middleware))
	mws = append(mws, a.middleware...)
	mws = append(mws, mod.Middleware...)

	p := &prepared{
		route:     route,
		lifecycle: pipeline.Merge(layers...),
		handlers:  make(map[string]pipeline.Handler, len(mod.Handlers)),
	}
	for method, h := range mod.Handlers {
		composed := pipeline.ComposeRoute(mws, h, a.config.NotFound)
		if method == AnyMethod {
			p.any = composed
			continue
		}
		p.handlers[strings.ToUpper(method)] = composed
	}

	allowed := methodsOf(mod)
	if len(route.Methods) > 0 {
		allowed = allowList(route.Methods)
	}
	p.allow = strings.Join(allowed, ", ")
	p.notAllowed = pipeline.ComposeRoute(a.middleware, methodNotAllowed(p.allow), a.config.NotFound)
	return p, nil
}

// handlerFor returns the pipeline serving method and its lifecycle.
func (p *prepared) handlerFor(method string, snap *snapshot) (pipeline.Handler, *pipeline.Lifecycle) {
	if !p.allows(method) {
		return p.notAllowed, snap.global
	}
	if h, ok := p.handlers[method]; ok {
		return h, p.lifecycle
	}
	if method == http.MethodHead {
		if h, ok := p.handlers[http.MethodGet]; ok {
			return h, p.lifecycle
		}
	}
	if p.any != nil {
		return p.any, p.lifecycle
	}
	return p.notAllowed, snap.global
}

// allows reports whether the route accepts method. HEAD is accepted
// wherever GET is.
func (p *prepared) allows(method string) bool {
	if p.route.AllowsMethod(method) {
		return true
	}
	return method == http.MethodHead && p.route.AllowsMethod(http.MethodGet)
}

func methodNotAllowed(allow string) pipeline.Handler {
	return func(c *pipeline.Ctx) (*pipeline.Response, error) {
		res := pipeline.NewResponse(http.StatusMethodNotAllowed)
		if allow != "" {
			res.SetHeader("Allow", allow)
		}
		return res, nil
	}
}

// underPrefix reports whether pattern is prefix or a path below it.
func underPrefix(pattern, prefix string) bool {
	if prefix == "" {
		return true
	}
	if pattern == prefix {
		return true
	}
	return strings.HasPrefix(pattern, prefix+"/")
}

// =============================================================================
// http.Handler Implementation
// =============================================================================

// ServeHTTP implements http.Handler.
//
// The raw (still percent-encoded) path is matched so that encoded slashes
// inside parameters are seen by the router.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := a.current.Load()

	var (
		handler pipeline.Handler
		lc      *pipeline.Lifecycle
	)
	match, found := snap.router.Match(r.URL.EscapedPath())
	if found {
		handler, lc = snap.prepared[match.Route.ID].handlerFor(r.Method, snap)
	} else {
		match = nil
		handler, lc = snap.fallback, snap.global
	}

	c := pipeline.NewCtx(r, match, pipeline.WithCtxLogger(a.config.Logger))
	res, err := a.executor.Run(c, lc, handler)
	if err != nil {
		c.Logger().Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		res = a.config.ErrorHandler(c, err)
	}
	if res == nil {
		res, _ = a.config.NotFound(c)
	}
	if res == nil {
		res = pipeline.NewResponse(http.StatusNotFound)
	}
	if err := res.Send(w); err != nil {
		c.Logger().Debug("response write failed", "error", err)
	}
}

func defaultErrorHandler(c *pipeline.Ctx, err error) *pipeline.Response {
	return pipeline.NewResponse(http.StatusInternalServerError)
}

// =============================================================================
// Accessors
// =============================================================================

// Router returns the router of the published table. A later SetRoutes
// publishes a different router.
func (a *App) Router() *router.Router {
	return a.current.Load().router
}

// Routes returns the published routes in registration order.
func (a *App) Routes() []router.RouteSpec {
	return a.Router().Routes()
}

// Stats returns the size of the published table.
func (a *App) Stats() router.Stats {
	return a.Router().Stats()
}

// Config returns the app configuration.
func (a *App) Config() Config {
	return a.config
}

// Shutdown waits for scheduled post-response hooks, or until ctx is done.
func (a *App) Shutdown(ctx context.Context) error {
	return a.executor.Shutdown(ctx)
}
