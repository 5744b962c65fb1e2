package middleware

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/dispatch/pkg/pipeline"
)

const defaultTracerName = "dispatch"

// TraceConfig configures the tracing middleware.
type TraceConfig struct {
	// TracerName is the name of the tracer (default: "dispatch").
	TracerName string

	// Provider supplies the tracer. Defaults to the global provider.
	Provider trace.TracerProvider

	// Filter reports whether a request is traced. If nil, every request is.
	Filter func(c *pipeline.Ctx) bool

	// AttributeExtractor adds custom span attributes.
	AttributeExtractor func(c *pipeline.Ctx) []attribute.KeyValue
}

// TraceOption configures the tracing middleware.
type TraceOption func(*TraceConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TraceOption {
	return func(c *TraceConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(p trace.TracerProvider) TraceOption {
	return func(c *TraceConfig) {
		c.Provider = p
	}
}

// WithTraceFilter sets a filter for traced requests.
func WithTraceFilter(filter func(c *pipeline.Ctx) bool) TraceOption {
	return func(c *TraceConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(c *pipeline.Ctx) []attribute.KeyValue) TraceOption {
	return func(c *TraceConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracing creates middleware that wraps the rest of the chain in a server
// span. The span context replaces the request context, so downstream
// middleware and the handler can start child spans from c.Context().
//
// Install it first so the span covers every later entry:
//
//	app.Use(middleware.Tracing(middleware.WithTracerName("api")))
//
// Configure the global tracer provider in main() before serving.
func Tracing(opts ...TraceOption) pipeline.Middleware {
	config := TraceConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	tracer := provider.Tracer(config.TracerName)

	return pipeline.Named("tracing", func(c *pipeline.Ctx, next pipeline.Next) (*pipeline.Response, error) {
		if config.Filter != nil && !config.Filter(c) {
			return next()
		}

		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Method()),
			attribute.String("url.path", c.Path()),
			attribute.String("dispatch.request_id", c.RequestID()),
		}
		if route := c.Route(); route != nil {
			attrs = append(attrs,
				attribute.String("http.route", route.Pattern),
				attribute.String("dispatch.route_id", route.ID),
			)
			if route.Kind != "" {
				attrs = append(attrs, attribute.String("dispatch.route_kind", string(route.Kind)))
			}
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(c)...)
		}

		spanCtx, span := tracer.Start(
			c.Context(),
			spanName(c),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		c.SetContext(spanCtx)

		res, err := next()
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case res != nil:
			span.SetAttributes(attribute.Int("http.status_code", statusOf(res)))
			if statusOf(res) >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(res.Status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		default:
			span.SetStatus(codes.Ok, "")
		}
		return res, err
	})
}

// SpanFromContext returns the current span, which is a no-op span when the
// request is not traced.
func SpanFromContext(c *pipeline.Ctx) trace.Span {
	return trace.SpanFromContext(c.Context())
}

// TraceContext returns the context to propagate to outgoing calls.
func TraceContext(c *pipeline.Ctx) context.Context {
	return c.Context()
}

func spanName(c *pipeline.Ctx) string {
	if route := c.Route(); route != nil {
		return fmt.Sprintf("%s %s", c.Method(), route.Pattern)
	}
	return c.Method()
}

func statusOf(res *pipeline.Response) int {
	if res.Status == 0 {
		return http.StatusOK
	}
	return res.Status
}
