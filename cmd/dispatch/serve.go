package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/dispatch"
	"github.com/vango-dev/dispatch/internal/config"
	"github.com/vango-dev/dispatch/internal/manifest"
	"github.com/vango-dev/dispatch/pkg/middleware"
	"github.com/vango-dev/dispatch/pkg/pipeline"
	"github.com/vango-dev/dispatch/pkg/router"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the inspection server",
		Long: `Serve the route manifest over HTTP. Routes without a handler answer
with the matched route and parameters as JSON.

With --watch the manifest is reloaded when it changes. A manifest that
fails to load is reported and the running table stays in service.

Examples:
  dispatch serve
  dispatch serve --addr=:9090 --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if watch {
				cfg.Routes.Watch = true
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := newServer(cfg, newLogger(cfg.Log, os.Stderr))
			if err != nil {
				return err
			}
			return srv.run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from dispatch.json)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the manifest when it changes")

	return cmd
}

// server is the wired inspection server.
type server struct {
	cfg     *config.Config
	logger  *slog.Logger
	app     *dispatch.App
	loader  *manifest.Loader
	limiter *middleware.RateLimiter
	handler http.Handler
}

// newServer wires the app, its observability and the outer chi router,
// then publishes the manifest.
func newServer(cfg *config.Config, logger *slog.Logger) (*server, error) {
	s := &server{cfg: cfg, logger: logger}

	appCfg := dispatch.Config{Logger: logger}

	var (
		metrics  *middleware.Metrics
		registry *prometheus.Registry
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = middleware.NewMetrics(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(registry),
		)
		appCfg.NotFound = metrics.NotFound(pipeline.NotFound)
		appCfg.OnHookFailure = metrics.HookFailure
		appCfg.OnRouteSwap = func(router.Stats) { metrics.RouteSwap() }
	}

	s.app = dispatch.New(appCfg)
	s.app.Use(middleware.RequestID(false))
	if cfg.Tracing.Enabled {
		s.app.Use(middleware.Tracing(middleware.WithTracerName(cfg.Tracing.TracerName)))
	}
	if metrics != nil {
		s.app.Use(metrics.Middleware())
		registry.MustRegister(middleware.NewRouterCollector(cfg.Metrics.Namespace, s.app))
	}
	if cfg.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		rl.Requests = cfg.RateLimit.Requests
		rl.Per = cfg.RateLimit.Per.Std()
		rl.Burst = cfg.RateLimit.Burst
		s.limiter = middleware.NewRateLimiter(rl)
		s.app.Hooks().OnRequest(s.limiter.Hook(), pipeline.WithChecksum("ratelimit"))
	}

	s.loader = manifest.NewLoader(cfg.ManifestPath(), newRegistry(cfg)).WithLogger(logger)
	if err := s.loader.Apply(s.app); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if registry != nil {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	s.app.Mount(r, cfg.Server.Prefix)
	s.handler = r

	return s, nil
}

// run serves until ctx is done, then shuts down gracefully.
func (s *server) run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout.Std(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", "addr", httpServer.Addr, "routes", s.app.Stats().Total)
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if s.cfg.Routes.Watch {
		w := manifest.NewWatcher(manifest.WatcherConfig{
			Path:     s.loader.Path(),
			Interval: s.cfg.Routes.WatchInterval.Std(),
		})
		w.OnChange(s.reload)
		g.Go(func() error {
			if err := w.Start(gctx); err != nil && !stderrors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if s.limiter != nil {
		g.Go(func() error {
			s.sweep(gctx, time.Minute)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Std())
		defer cancel()

		s.logger.Info("shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return s.app.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// reload republishes the manifest after a change. Failures keep the
// current table and are logged by the loader.
func (s *server) reload(c manifest.Change) {
	if c.Removed {
		s.logger.Warn("manifest removed, keeping current routes", "path", c.Path)
		return
	}
	_ = s.loader.Apply(s.app)
}

// sweep drops idle rate limit entries until ctx is done.
func (s *server) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Cleanup(); n > 0 {
				s.logger.Debug("rate limit entries expired", "count", n)
			}
		}
	}
}
