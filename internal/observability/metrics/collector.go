package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CLI invocation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeNotFound = "not_found"
)

// Collector holds the gateway's Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	// Request metrics
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// CLI metrics
	CLIInvocations *prometheus.CounterVec
	CLIDuration    *prometheus.HistogramVec

	// Workspace metrics
	WorkspaceFiles prometheus.Counter
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return newCollector(prometheus.DefaultRegisterer, nil)
}

// NewWithRegistry creates a collector on a private registry. Tests use
// this to avoid duplicate registration on the global one.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	return newCollector(reg, reg)
}

func newCollector(registerer prometheus.Registerer, registry *prometheus.Registry) *Collector {
	c := &Collector{
		registry: registry,

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"method", "path", "status"},
		),

		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),

		CLIInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_cli_invocations_total",
				Help: "Total Copilot CLI invocations by model and outcome",
			},
			[]string{"model", "outcome"},
		),

		CLIDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "copilot_cli_duration_seconds",
				Help:    "Copilot CLI invocation duration in seconds",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"model"},
		),

		WorkspaceFiles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "workspace_files_collected_total",
				Help: "Total files collected from CLI workspaces",
			},
		),
	}

	registerer.MustRegister(
		c.RequestDuration,
		c.RequestsInFlight,
		c.CLIInvocations,
		c.CLIDuration,
		c.WorkspaceFiles,
	)

	return c
}

// ObserveRequest records one finished HTTP request.
func (c *Collector) ObserveRequest(method, path string, status int, duration time.Duration) {
	c.RequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

// ObserveCLI records one CLI invocation.
func (c *Collector) ObserveCLI(model, outcome string, duration time.Duration) {
	c.CLIInvocations.WithLabelValues(model, outcome).Inc()
	c.CLIDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// AddWorkspaceFiles counts files returned to clients.
func (c *Collector) AddWorkspaceFiles(n int) {
	if n > 0 {
		c.WorkspaceFiles.Add(float64(n))
	}
}

// Handler returns the HTTP handler for the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	if c.registry != nil {
		return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}
