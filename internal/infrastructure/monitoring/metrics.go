package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// backendStates lists every value of the backend_state gauge's label.
var backendStates = []string{"starting", "running", "failed", "exited"}

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration prometheus.Histogram
	PendingCommands prometheus.Gauge

	// Backend output metrics
	OrphanLines    prometheus.Counter
	MalformedLines prometheus.Counter

	// Backend lifecycle
	BackendState *prometheus.GaugeVec
	Uptime       prometheus.GaugeFunc
	startTime    time.Time

	// Snapshot for the health endpoint
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for the health endpoint
type MetricsSnapshot struct {
	TotalRequests  int64 `json:"total_requests"`
	TotalErrors    int64 `json:"total_errors"`
	TotalCommands  int64 `json:"total_commands"`
	FailedCommands int64 `json:"failed_commands"`
	OrphanLines    int64 `json:"orphan_lines"`
	MalformedLines int64 `json:"malformed_lines"`
}

// NewMetrics creates a new metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Command metrics
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_commands_total",
				Help: "Total number of commands by outcome",
			},
			[]string{"outcome"},
		),
		CommandDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bridge_command_duration_seconds",
				Help:    "Time from submission to result in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 30},
			},
		),
		PendingCommands: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_pending_commands",
				Help: "Number of commands awaiting a backend response",
			},
		),

		// Backend output metrics
		OrphanLines: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_orphan_lines_total",
				Help: "Backend output lines that arrived with no pending command",
			},
		),
		MalformedLines: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_malformed_lines_total",
				Help: "Backend output lines that failed to decode or exceeded the size limit",
			},
		),

		// Backend lifecycle
		BackendState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bridge_backend_state",
				Help: "1 for the backend's current lifecycle state, 0 otherwise",
			},
			[]string{"state"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "bridge_uptime_seconds",
			Help: "Bridge uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	m.SetBackendState("starting")
	return m
}

// Registry returns the registry the metrics are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordCommand records one Execute call and its outcome
func (m *Metrics) RecordCommand(outcome string, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(outcome).Inc()
	m.CommandDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalCommands++
	if outcome != "ok" {
		m.snapshot.FailedCommands++
	}
	m.mu.Unlock()
}

// SetPending sets the number of commands awaiting a response
func (m *Metrics) SetPending(count int) {
	m.PendingCommands.Set(float64(count))
}

// IncOrphanLines counts a dropped output line
func (m *Metrics) IncOrphanLines() {
	m.OrphanLines.Inc()
	m.mu.Lock()
	m.snapshot.OrphanLines++
	m.mu.Unlock()
}

// IncMalformedLines counts an undecodable output line
func (m *Metrics) IncMalformedLines() {
	m.MalformedLines.Inc()
	m.mu.Lock()
	m.snapshot.MalformedLines++
	m.mu.Unlock()
}

// SetBackendState marks state as the backend's current state
func (m *Metrics) SetBackendState(state string) {
	for _, s := range backendStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.BackendState.WithLabelValues(s).Set(v)
	}
}

// Snapshot returns a copy of the current counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
