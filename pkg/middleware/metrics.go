package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/dispatch/pkg/pipeline"
	"github.com/vango-dev/dispatch/pkg/router"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "dispatch").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "dispatch",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the dispatch Prometheus metrics.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
	notFound        prometheus.Counter
	hookFailures    *prometheus.CounterVec
	routeSwaps      prometheus.Counter
}

// NewMetrics registers the dispatch metrics:
//
//   - dispatch_requests_total: requests by route, method and status
//   - dispatch_request_duration_seconds: chain duration by route
//   - dispatch_request_errors_total: chain errors by route and error type
//   - dispatch_not_found_total: unmatched requests
//   - dispatch_hook_failures_total: absorbed hook failures by stage
//   - dispatch_route_swaps_total: published route tables
//
// Registration panics if the metrics are already registered with the
// registry, like promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Total number of dispatched requests",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_duration_seconds",
			Help:        "Middleware chain duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		requestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_errors_total",
			Help:        "Total number of errors returned by the middleware chain",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "error_type"}),

		notFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "not_found_total",
			Help:        "Total number of requests that matched no route",
			ConstLabels: config.ConstLabels,
		}),

		hookFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_failures_total",
			Help:        "Total number of hook failures absorbed by the executor",
			ConstLabels: config.ConstLabels,
		}, []string{"stage"}),

		routeSwaps: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "route_swaps_total",
			Help:        "Total number of route tables published",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Middleware returns the metrics middleware. Install it early so the timing
// covers the rest of the chain.
func (m *Metrics) Middleware() pipeline.Middleware {
	return pipeline.Named("metrics", func(c *pipeline.Ctx, next pipeline.Next) (*pipeline.Response, error) {
		route := routeLabel(c)
		start := time.Now()

		res, err := next()

		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

		status := "error"
		if err != nil {
			m.requestErrors.WithLabelValues(route, categorizeError(err)).Inc()
		} else if res != nil {
			status = strconv.Itoa(statusOf(res))
		}
		m.requestsTotal.WithLabelValues(route, c.Method(), status).Inc()
		return res, err
	})
}

// NotFound wraps a not-found handler so that unmatched requests are
// counted.
func (m *Metrics) NotFound(h pipeline.Handler) pipeline.Handler {
	if h == nil {
		h = pipeline.NotFound
	}
	return func(c *pipeline.Ctx) (*pipeline.Response, error) {
		m.notFound.Inc()
		return h(c)
	}
}

// HookFailure counts an absorbed hook failure. It matches
// pipeline.FailureObserver.
func (m *Metrics) HookFailure(stage pipeline.Stage, _ error) {
	m.hookFailures.WithLabelValues(stage.String()).Inc()
}

// RouteSwap counts a published route table.
func (m *Metrics) RouteSwap() {
	m.routeSwaps.Inc()
}

func routeLabel(c *pipeline.Ctx) string {
	if route := c.Route(); route != nil {
		return route.ID
	}
	return "unmatched"
}

// categorizeError keeps error labels low-cardinality.
func categorizeError(err error) string {
	var pe *pipeline.PanicError
	if errors.As(err, &pe) {
		return "panic"
	}
	if errors.Is(err, pipeline.ErrNextCalledTwice) {
		return "next_called_twice"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "canceled"):
		return "canceled"
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "unauthorized"):
		return "unauthorized"
	case strings.Contains(msg, "forbidden"):
		return "forbidden"
	case strings.Contains(msg, "validation"):
		return "validation"
	default:
		return "internal"
	}
}

// StatsSource reports route table sizes. *router.Router implements it.
type StatsSource interface {
	Stats() router.Stats
}

// RouterCollector exports route table sizes as gauges.
type RouterCollector struct {
	source  StatsSource
	static  *prometheus.Desc
	dynamic *prometheus.Desc
	total   *prometheus.Desc
}

// NewRouterCollector creates a collector reading from src. Register it with
// a prometheus.Registerer.
func NewRouterCollector(namespace string, src StatsSource) *RouterCollector {
	if namespace == "" {
		namespace = "dispatch"
	}
	return &RouterCollector{
		source: src,
		static: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "routes", "static"),
			"Number of routes in the static table", nil, nil),
		dynamic: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "routes", "dynamic"),
			"Number of routes in the trie", nil, nil),
		total: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "routes", "total"),
			"Number of registered routes", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (rc *RouterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- rc.static
	ch <- rc.dynamic
	ch <- rc.total
}

// Collect implements prometheus.Collector.
func (rc *RouterCollector) Collect(ch chan<- prometheus.Metric) {
	s := rc.source.Stats()
	ch <- prometheus.MustNewConstMetric(rc.static, prometheus.GaugeValue, float64(s.Static))
	ch <- prometheus.MustNewConstMetric(rc.dynamic, prometheus.GaugeValue, float64(s.Dynamic))
	ch <- prometheus.MustNewConstMetric(rc.total, prometheus.GaugeValue, float64(s.Total))
}

var _ prometheus.Collector = (*RouterCollector)(nil)
