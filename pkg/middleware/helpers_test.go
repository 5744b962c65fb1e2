package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vango-dev/dispatch/pkg/pipeline"
	"github.com/vango-dev/dispatch/pkg/router"
)

func newCtx(t *testing.T, method, path string, route *router.RouteSpec) *pipeline.Ctx {
	t.Helper()
	r := httptest.NewRequest(method, path, nil)
	var match *router.MatchResult
	if route != nil {
		match = &router.MatchResult{Route: route, Params: router.Params{}}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return pipeline.NewCtx(r, match, pipeline.WithCtxLogger(logger))
}

func ok(c *pipeline.Ctx) (*pipeline.Response, error) {
	return pipeline.Text(http.StatusOK, "ok"), nil
}

func run(t *testing.T, c *pipeline.Ctx, handler pipeline.Handler, mws ...pipeline.Middleware) (*pipeline.Response, error) {
	t.Helper()
	return pipeline.ComposeRoute(mws, handler, nil)(c)
}
