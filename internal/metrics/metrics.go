// Package metrics collects and exposes Prometheus metrics for the auth service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes used as label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// MetricsCollector is the recording interface used by services, repositories and middleware.
type MetricsCollector interface {
	RecordAuthEvent(operation, outcome string)
	RecordStoreOp(op, outcome string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector is the Prometheus implementation of MetricsCollector.
type Collector struct {
	authEvents   *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
	httpStatus   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_auth_events_total",
			Help: "Authentication operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authgate_session_store_op_seconds",
			Help:    "Refresh session store call latency in seconds.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op", "outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.authEvents,
		c.storeLatency,
		c.httpStatus,
	)

	return c
}

func (c *Collector) RecordAuthEvent(operation, outcome string) {
	c.authEvents.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) RecordStoreOp(op, outcome string, duration time.Duration) {
	c.storeLatency.WithLabelValues(op, outcome).Observe(duration.Seconds())
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Noop discards everything. Used in tests and when metrics are disabled.
type Noop struct{}

func (Noop) RecordAuthEvent(string, string) {}
func (Noop) RecordStoreOp(string, string, time.Duration) {}
func (Noop) RecordHTTPStatus(int) {}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
