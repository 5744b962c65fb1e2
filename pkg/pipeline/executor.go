package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
)

// Scheduler runs a post-response task without blocking the caller.
type Scheduler func(task func())

// GoScheduler runs each task on its own goroutine.
func GoScheduler(task func()) { go task() }

// FailureObserver is notified of every hook failure the executor absorbs:
// post-response failures and failing on-error hooks.
type FailureObserver func(stage Stage, err error)

// Executor runs lifecycles.
type Executor struct {
	logger    *slog.Logger
	schedule  Scheduler
	onFailure FailureObserver

	// mu guards pending and idle. idle is closed whenever pending is zero.
	mu      sync.Mutex
	pending int
	idle    chan struct{}
}

var closedIdle = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the executor logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithScheduler sets how post-response work is scheduled.
func WithScheduler(s Scheduler) ExecutorOption {
	return func(e *Executor) {
		if s != nil {
			e.schedule = s
		}
	}
}

// WithFailureObserver sets a callback for absorbed hook failures.
func WithFailureObserver(fn FailureObserver) ExecutorOption {
	return func(e *Executor) {
		e.onFailure = fn
	}
}

// NewExecutor creates an executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		logger:   slog.Default().With("component", "pipeline"),
		schedule: GoScheduler,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// bodyMethods are the methods whose requests reach body-parse hooks.
var bodyMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// HasBody reports whether requests with method run body-parse hooks.
func HasBody(method string) bool {
	return bodyMethods[method]
}

// Run executes lc around handler and returns the final response.
//
// If a stage fails and no on-error hook produces a response, the original
// error is returned. Post-response hooks are scheduled in every case, after
// the response is final.
func (e *Executor) Run(c *Ctx, lc *Lifecycle, handler Handler) (*Response, error) {
	if lc == nil {
		lc = &Lifecycle{}
	}

	res, err := e.run(c, lc, handler)
	if err != nil {
		res, err = e.handleError(c, lc, err)
	}

	e.afterResponse(c, lc, res)
	return res, err
}

func (e *Executor) run(c *Ctx, lc *Lifecycle, handler Handler) (*Response, error) {
	for _, h := range lc.RequestStart {
		res, err := protect(StageRequestStart, func() (*Response, error) { return h.Fn(c) })
		if err != nil || res != nil {
			return res, err
		}
	}

	if HasBody(c.Method()) {
		for _, h := range lc.BodyParse {
			v, err := protect(StageBodyParse, func() (any, error) { return h.Fn(c) })
			if err != nil {
				return nil, err
			}
			if v != nil {
				c.SetBody(v)
				break
			}
		}
	}

	for _, h := range lc.PreHandle {
		res, err := protect(StagePreHandle, func() (*Response, error) { return h.Fn(c) })
		if err != nil || res != nil {
			return res, err
		}
	}

	if handler == nil {
		handler = NotFound
	}
	res, err := protect(StageHandler, func() (*Response, error) { return handler(c) })
	if err != nil {
		return nil, err
	}

	for _, h := range lc.PostHandle {
		_, err := protect(StagePostHandle, func() (struct{}, error) { return struct{}{}, h.Fn(c, res) })
		if err != nil {
			return nil, err
		}
	}

	for _, h := range lc.ResponseMap {
		mapped, err := protect(StageResponseMap, func() (*Response, error) { return h.Fn(c, res) })
		if err != nil {
			return nil, err
		}
		if mapped != nil {
			res = mapped
		}
	}

	return res, nil
}

// handleError offers err to the on-error hooks in order.
func (e *Executor) handleError(c *Ctx, lc *Lifecycle, err error) (*Response, error) {
	for _, h := range lc.OnError {
		res, herr := protect(StageOnError, func() (*Response, error) { return h.Fn(c, err) })
		if herr != nil {
			e.failure(c, StageOnError, herr)
			continue
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, err
}

// afterResponse schedules the post-response hooks.
func (e *Executor) afterResponse(c *Ctx, lc *Lifecycle, res *Response) {
	if len(lc.PostResponse) == 0 {
		return
	}
	hooks := lc.PostResponse
	snapshot := res.Clone()

	e.begin()
	e.schedule(func() {
		defer e.end()
		for _, h := range hooks {
			e.postResponse(c, h.Fn, snapshot)
		}
	})
}

// postResponse runs one post-response hook in isolation.
func (e *Executor) postResponse(c *Ctx, fn ResponseHook, res *Response) {
	_, err := protect(StagePostResponse, func() (struct{}, error) { return struct{}{}, fn(c, res) })
	if err != nil {
		e.failure(c, StagePostResponse, err)
	}
}

func (e *Executor) failure(c *Ctx, stage Stage, err error) {
	e.logger.Error("hook failed",
		"stage", stage.String(),
		"request_id", c.RequestID(),
		"path", c.Path(),
		"error", err,
	)
	if e.onFailure != nil {
		e.onFailure(stage, err)
	}
}

func (e *Executor) begin() {
	e.mu.Lock()
	if e.pending == 0 {
		e.idle = make(chan struct{})
	}
	e.pending++
	e.mu.Unlock()
}

func (e *Executor) end() {
	e.mu.Lock()
	e.pending--
	if e.pending == 0 {
		close(e.idle)
	}
	e.mu.Unlock()
}

// drained returns a channel closed once no post-response work is pending.
func (e *Executor) drained() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == 0 {
		return closedIdle
	}
	return e.idle
}

// Wait blocks until no scheduled post-response work is pending. Requests
// may keep arriving while it waits; work scheduled after the count first
// reaches zero is not waited for.
func (e *Executor) Wait() {
	<-e.drained()
}

// Shutdown waits like Wait, or until ctx is done. Stop accepting requests
// first (http.Server.Shutdown) to drain everything.
func (e *Executor) Shutdown(ctx context.Context) error {
	select {
	case <-e.drained():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// protect calls fn, converting a panic into a *PanicError.
func protect[T any](stage Stage, fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Stage: stage, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
