// Package middleware provides production middleware for dispatch
// pipelines.
//
// This package includes:
//   - OpenTelemetry tracing (Tracing)
//   - Prometheus metrics (Metrics, RouterCollector)
//   - Per-client rate limiting (RateLimiter)
//   - Request ID propagation (RequestID)
//
// # Tracing
//
// Tracing starts a server span per request and replaces the request context
// with the span context:
//
//	app.Use(middleware.Tracing(middleware.WithTracerName("api")))
//
// Handlers can annotate the span:
//
//	middleware.SpanFromContext(c).SetAttributes(attribute.Int("items", n))
//
// # Prometheus Metrics
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	app.Use(m.Middleware())
//
// The executor reports absorbed hook failures to m.HookFailure, and the
// not-found handler can be wrapped with m.NotFound. Expose the registry
// with promhttp.
//
// # Rate Limiting
//
// RateLimiter answers 429 with a Retry-After header once a client exceeds
// its token bucket. Use Hook() at request-start to reject before body
// parsing, or Middleware() to limit a single route.
package middleware
