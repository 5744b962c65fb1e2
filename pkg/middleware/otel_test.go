package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/dispatch/pkg/pipeline"
	"github.com/vango-dev/dispatch/pkg/router"
)

type recordedSpan struct {
	noop.Span

	name   string
	attrs  []attribute.KeyValue
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) { s.status = code }
func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}
func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue) { s.attrs = append(s.attrs, kv...) }
func (s *recordedSpan) End(...trace.SpanEndOption)              { s.ended = true }

type recordingTracer struct {
	embedded.Tracer

	mu    sync.Mutex
	spans []*recordedSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{name: name, attrs: cfg.Attributes()}
	t.mu.Lock()
	t.spans = append(t.spans, s)
	t.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

type recordingProvider struct {
	embedded.TracerProvider
	tracer *recordingTracer
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer { return p.tracer }

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{tracer: &recordingTracer{}}
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingStartsServerSpan(t *testing.T) {
	p := newRecordingProvider()
	route := &router.RouteSpec{ID: "projects.show", Pattern: "/projects/:id", Kind: router.KindAPI}
	c := newCtx(t, http.MethodGet, "/projects/7", route)

	mw := Tracing(
		WithTracerProvider(p),
		WithAttributeExtractor(func(*pipeline.Ctx) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)

	var inHandler trace.Span
	_, err := run(t, c, func(c *pipeline.Ctx) (*pipeline.Response, error) {
		inHandler = SpanFromContext(c)
		if TraceContext(c) != c.Context() {
			t.Error("TraceContext should return the span context")
		}
		return ok(c)
	}, mw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(p.tracer.spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(p.tracer.spans))
	}
	span := p.tracer.spans[0]
	if span.name != "GET /projects/:id" {
		t.Errorf("span name = %q", span.name)
	}
	if inHandler != trace.Span(span) {
		t.Error("handler should see the middleware's span")
	}
	if !span.ended {
		t.Error("span should be ended")
	}
	if span.status != codes.Ok {
		t.Errorf("status = %v, want Ok", span.status)
	}
	for key, want := range map[string]string{
		"http.route":          "/projects/:id",
		"dispatch.route_id":   "projects.show",
		"dispatch.route_kind": "api",
		"test.attr":           "ok",
	} {
		v, found := attrValue(span.attrs, key)
		if !found || v.AsString() != want {
			t.Errorf("attr %s = %v, want %q", key, v.Emit(), want)
		}
	}
	if v, found := attrValue(span.attrs, "http.status_code"); !found || v.AsInt64() != 200 {
		t.Errorf("http.status_code = %v", v.Emit())
	}
}

func TestTracingRecordsErrors(t *testing.T) {
	p := newRecordingProvider()
	c := newCtx(t, http.MethodPost, "/x", &router.RouteSpec{ID: "x", Pattern: "/x"})
	boom := errors.New("boom")

	_, err := run(t, c, func(*pipeline.Ctx) (*pipeline.Response, error) { return nil, boom }, Tracing(WithTracerProvider(p)))
	if err != boom {
		t.Fatalf("error = %v, want boom unchanged", err)
	}
	span := p.tracer.spans[0]
	if span.status != codes.Error || len(span.errs) != 1 {
		t.Errorf("status = %v errs = %v", span.status, span.errs)
	}

	p = newRecordingProvider()
	c = newCtx(t, http.MethodGet, "/x", nil)
	_, err = run(t, c, func(*pipeline.Ctx) (*pipeline.Response, error) {
		return pipeline.NewResponse(http.StatusBadGateway), nil
	}, Tracing(WithTracerProvider(p)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.tracer.spans[0].status != codes.Error {
		t.Error("5xx responses should mark the span as an error")
	}
	if p.tracer.spans[0].name != "GET" {
		t.Errorf("unmatched span name = %q, want GET", p.tracer.spans[0].name)
	}
}

func TestTracingFilter(t *testing.T) {
	p := newRecordingProvider()
	c := newCtx(t, http.MethodGet, "/healthz", nil)
	mw := Tracing(WithTracerProvider(p), WithTraceFilter(func(c *pipeline.Ctx) bool {
		return c.Path() != "/healthz"
	}))

	if _, err := run(t, c, ok, mw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.tracer.spans) != 0 {
		t.Errorf("filtered request produced %d spans", len(p.tracer.spans))
	}
}
