package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics groups the collectors exported at /metrics. Each instance owns
// its registry so tests can build as many as they like.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	modelCalls   *prometheus.CounterVec
	modelLatency *prometheus.HistogramVec
	fanoutTasks  *prometheus.CounterVec
	scratchFiles *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		modelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_calls_total",
			Help: "Model provider calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		modelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "model_call_duration_seconds",
			Help:    "Model provider call latency including retries",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"operation"}),
		fanoutTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fanout_tasks_total",
			Help: "Fan-out tasks by stage and outcome",
		}, []string{"stage", "outcome"}),
		scratchFiles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scratch_file_operations_total",
			Help: "Scratch directory writes and removals",
		}, []string{"kind", "op"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveModelCall records one provider call started at start
func (m *Metrics) ObserveModelCall(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.modelCalls.WithLabelValues(operation, outcome(err)).Inc()
	m.modelLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveFanoutTask records the outcome of one fan-out task
func (m *Metrics) ObserveFanoutTask(stage string, err error) {
	if m == nil {
		return
	}
	m.fanoutTasks.WithLabelValues(stage, outcome(err)).Inc()
}

// ObserveScratch records a scratch file operation
func (m *Metrics) ObserveScratch(kind, op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.scratchFiles.WithLabelValues(kind, op).Add(float64(n))
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
