package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/vango-dev/dispatch/pkg/router"
)

// RequestIDHeader is the header a request ID is read from and echoed to.
const RequestIDHeader = "X-Request-ID"

// Ctx is the per-request context. A fresh Ctx is created for every request
// and discarded once its post-response hooks finish.
type Ctx struct {
	request *http.Request
	ctx     context.Context
	route   *router.RouteSpec
	params  router.Params
	query   url.Values
	id      string
	logger  *slog.Logger

	// mu guards values and body; post-response hooks run on another
	// goroutine.
	mu      sync.RWMutex
	values  map[any]any
	body    any
	hasBody bool
}

// CtxOption configures a Ctx.
type CtxOption func(*Ctx)

// WithCtxLogger sets the base logger.
func WithCtxLogger(logger *slog.Logger) CtxOption {
	return func(c *Ctx) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestID overrides the request ID.
func WithRequestID(id string) CtxOption {
	return func(c *Ctx) {
		if id != "" {
			c.id = id
		}
	}
}

// NewCtx builds a context for r. match may be nil for unmatched requests.
func NewCtx(r *http.Request, match *router.MatchResult, opts ...CtxOption) *Ctx {
	c := &Ctx{
		request: r,
		ctx:     r.Context(),
		params:  router.Params{},
		logger:  slog.Default(),
	}
	if match != nil {
		c.route = match.Route
		if match.Params != nil {
			c.params = match.Params
		}
	}
	c.id = r.Header.Get(RequestIDHeader)
	for _, opt := range opts {
		opt(c)
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}

	c.logger = c.logger.With("request_id", c.id)
	if c.route != nil {
		c.logger = c.logger.With("route", c.route.ID)
	}
	return c
}

// Request returns the underlying HTTP request.
func (c *Ctx) Request() *http.Request { return c.request }

// Context returns the request's context.Context.
func (c *Ctx) Context() context.Context { return c.ctx }

// SetContext replaces the context.Context (e.g., to carry a trace span).
func (c *Ctx) SetContext(ctx context.Context) {
	c.ctx = ctx
	c.request = c.request.WithContext(ctx)
}

// Method returns the HTTP method.
func (c *Ctx) Method() string { return c.request.Method }

// Path returns the URL path.
func (c *Ctx) Path() string { return c.request.URL.Path }

// Route returns the matched route, or nil.
func (c *Ctx) Route() *router.RouteSpec { return c.route }

// Param returns a route parameter by name.
func (c *Ctx) Param(key string) string { return c.params[key] }

// Params returns all route parameters.
func (c *Ctx) Params() router.Params { return c.params }

// Bind decodes the route params into the struct target points to, using
// `param` tags. See router.Params.Bind.
func (c *Ctx) Bind(target any) error { return c.params.Bind(target) }

// Query returns the parsed query string.
func (c *Ctx) Query() url.Values {
	if c.query == nil {
		c.query = c.request.URL.Query()
	}
	return c.query
}

// QueryParam returns a single query parameter value by key.
func (c *Ctx) QueryParam(key string) string { return c.Query().Get(key) }

// Header returns a request header value.
func (c *Ctx) Header(key string) string { return c.request.Header.Get(key) }

// RequestID returns the request's ID.
func (c *Ctx) RequestID() string { return c.id }

// Logger returns a logger annotated with the request ID and route.
func (c *Ctx) Logger() *slog.Logger { return c.logger }

// Set stores a request-scoped value.
func (c *Ctx) Set(key, value any) {
	c.mu.Lock()
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = value
	c.mu.Unlock()
}

// Get returns a request-scoped value and whether it was set.
func (c *Ctx) Get(key any) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Value returns a request-scoped value, or nil.
func (c *Ctx) Value(key any) any {
	v, _ := c.Get(key)
	return v
}

// Delete removes a request-scoped value.
func (c *Ctx) Delete(key any) {
	c.mu.Lock()
	delete(c.values, key)
	c.mu.Unlock()
}

// ValueAs returns a typed request-scoped value.
func ValueAs[T any](c *Ctx, key any) (T, bool) {
	v, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Body returns the value produced by a body-parse hook, if any.
func (c *Ctx) Body() (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.body, c.hasBody
}

// SetBody stores the parsed request body.
func (c *Ctx) SetBody(v any) {
	c.mu.Lock()
	c.body = v
	c.hasBody = true
	c.mu.Unlock()
}

// JSON creates a JSON response.
func (c *Ctx) JSON(status int, v any) (*Response, error) { return JSON(status, v) }

// Text creates a plain text response.
func (c *Ctx) Text(status int, s string) (*Response, error) { return Text(status, s), nil }

// HTML creates an HTML response.
func (c *Ctx) HTML(status int, s string) (*Response, error) { return HTML(status, s), nil }

// NoContent creates an empty response with the given status.
func (c *Ctx) NoContent(status int) (*Response, error) { return NewResponse(status), nil }

// Redirect creates a redirect response.
func (c *Ctx) Redirect(url string, code int) (*Response, error) { return Redirect(url, code), nil }

// Error creates a JSON error response of the form {"error": msg}.
func (c *Ctx) Error(status int, msg string) (*Response, error) {
	return JSON(status, map[string]string{"error": msg})
}
