package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rmrk_extension"

// Collector owns the host's Prometheus registry. It implements engine.CallObserver.
type Collector struct {
	registry *prometheus.Registry

	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	auditRuns    *prometheus.CounterVec
	auditIssues  prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "extension",
				Name:      "calls_total",
				Help:      "Total number of extension calls by func and outcome.",
			},
			[]string{"func", "outcome"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "extension",
				Name:      "call_duration_seconds",
				Help:      "Duration of extension calls.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"func"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "status"},
		),
		auditRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "audit",
				Name:      "runs_total",
				Help:      "Total number of integrity audit runs by result.",
			},
			[]string{"result"},
		),
		auditIssues: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "audit",
				Name:      "issues",
				Help:      "Invariant violations found by the last audit run.",
			},
		),
	}

	c.registry.MustRegister(
		c.calls,
		c.callDuration,
		c.httpRequests,
		c.auditRuns,
		c.auditIssues,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return c
}

func (c *Collector) ObserveCall(id protocol.FuncID, outcome string, elapsed time.Duration) {
	c.calls.WithLabelValues(id.String(), outcome).Inc()
	c.callDuration.WithLabelValues(id.String()).Observe(elapsed.Seconds())
}

// ObserveAudit records one audit run and the number of violations it found.
func (c *Collector) ObserveAudit(issues int, err error) {
	result := "clean"
	switch {
	case err != nil:
		result = "error"
	case issues > 0:
		result = "violations"
	}
	c.auditRuns.WithLabelValues(result).Inc()
	if err == nil {
		c.auditIssues.Set(float64(issues))
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler exposes the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler counts every request that passes through next.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		c.httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
