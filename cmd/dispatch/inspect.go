package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/vango-dev/dispatch"
	"github.com/vango-dev/dispatch/internal/config"
	"github.com/vango-dev/dispatch/internal/manifest"
	"github.com/vango-dev/dispatch/pkg/pipeline"
	"github.com/vango-dev/dispatch/pkg/router"
)

// inspection is the body the inspect handler answers with.
type inspection struct {
	ID        string        `json:"id"`
	Kind      router.Kind   `json:"kind,omitempty"`
	Pattern   string        `json:"pattern"`
	Method    string        `json:"method"`
	Params    router.Params `json:"params"`
	Segments  []string      `json:"segments,omitempty"`
	RequestID string        `json:"request_id"`
}

// inspectParams are the params the inspect handler decodes.
type inspectParams struct {
	Segments []string `param:"wildcard"`
}

func inspectHandler(c *pipeline.Ctx) (*pipeline.Response, error) {
	route := c.Route()
	params := c.Params()
	if params == nil {
		params = router.Params{}
	}
	var bound inspectParams
	if err := c.Bind(&bound); err != nil {
		return c.Error(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, inspection{
		ID:        route.ID,
		Kind:      route.Kind,
		Pattern:   route.Pattern,
		Method:    c.Method(),
		Params:    params,
		Segments:  bound.Segments,
		RequestID: c.RequestID(),
	})
}

// newRegistry registers the built-in handlers. Entries without a handler
// name are inspected.
func newRegistry(cfg *config.Config) *manifest.Registry {
	reg := manifest.NewRegistry()

	inspect := &dispatch.Module{
		Handlers: map[string]pipeline.Handler{dispatch.AnyMethod: inspectHandler},
	}
	reg.Register("inspect", inspect)
	reg.SetFallback(inspect)

	reg.Register("assets", dispatch.Assets(os.DirFS(cfg.AssetsDir()), dispatch.AssetOptions{
		CacheControl: dispatch.CacheControlProduction,
	}))

	return reg
}

// loadApp builds an App from the configured manifest for the offline
// commands.
func loadApp(cfg *config.Config) (*dispatch.App, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := dispatch.New(dispatch.Config{Logger: logger})
	loader := manifest.NewLoader(cfg.ManifestPath(), newRegistry(cfg)).WithLogger(logger)
	if err := loader.Apply(app); err != nil {
		return nil, err
	}
	return app, nil
}
