// Package metrics defines the Prometheus collectors exported by rulecat.
//
// Collectors live on a dedicated [prometheus.Registry] so that tests can
// create isolated instances.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/macropower/rulecat/pkg/rule"
)

const namespace = "rulecat"

// Lookup kinds.
const (
	KindSection = "section"
	KindRule    = "rule"
)

// Results.
const (
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultSuccess  = "success"
	ResultError    = "error"
)

// Metrics holds the collectors.
type Metrics struct {
	registry *prometheus.Registry

	lookups         *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	mcpToolCalls    *prometheus.CounterVec
	catalogRules    prometheus.Gauge
	catalogSections prometheus.Gauge
	catalogReloads  *prometheus.CounterVec
}

// Opt configures [New].
type Opt func(*options)

type options struct {
	runtime bool
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Opt {
	return func(o *options) {
		o.runtime = true
	}
}

// New registers the collectors on a new registry.
func New(opts ...Opt) *Metrics {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	reg := prometheus.NewRegistry()
	if o.runtime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Section and rule lookups by slug.",
		}, []string{"kind", "result"}),

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP API requests by route and status code.",
		}, []string{"route", "code"}),

		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP API request latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"route"}),

		mcpToolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "MCP tool calls by tool and result.",
		}, []string{"tool", "result"}),

		catalogRules: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "rules",
			Help:      "Rules in the current catalog.",
		}),

		catalogSections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "sections",
			Help:      "Sections in the current catalog.",
		}),

		catalogReloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "reloads_total",
			Help:      "Catalog rebuilds by result.",
		}, []string{"result"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveLookup counts a lookup of the given kind.
func (m *Metrics) ObserveLookup(kind string, found bool) {
	result := ResultNotFound
	if found {
		result = ResultFound
	}

	m.lookups.WithLabelValues(kind, result).Inc()
}

// ObserveHTTPRequest records one HTTP request.
func (m *Metrics) ObserveHTTPRequest(route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveToolCall counts one MCP tool call.
func (m *Metrics) ObserveToolCall(tool string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}

	m.mcpToolCalls.WithLabelValues(tool, result).Inc()
}

// SetCatalog updates the catalog gauges.
func (m *Metrics) SetCatalog(c *rule.Catalog) {
	if c == nil {
		return
	}

	m.catalogRules.Set(float64(c.Len()))
	m.catalogSections.Set(float64(len(c.Tags())))
}

// ObserveReload counts a catalog rebuild and, on success, updates the
// catalog gauges.
func (m *Metrics) ObserveReload(c *rule.Catalog, err error) {
	if err != nil {
		m.catalogReloads.WithLabelValues(ResultError).Inc()

		return
	}

	m.catalogReloads.WithLabelValues(ResultSuccess).Inc()
	m.SetCatalog(c)
}
