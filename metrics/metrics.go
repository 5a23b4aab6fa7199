// Package metrics provides Prometheus metrics for the NetBox retrieval layer.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	RetriesTotal    prometheus.Counter
	ObjectsTotal    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netbox_forager_requests_total",
				Help: "Total number of HTTP requests sent to NetBox, by status code",
			},
			[]string{"code"},
		),
		RequestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "netbox_forager_request_duration_seconds",
				Help:    "Duration of HTTP requests to NetBox in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		RetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "netbox_forager_retries_total",
				Help: "Total number of retried HTTP requests",
			},
		),
		ObjectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netbox_forager_objects_total",
				Help: "Total number of objects returned by queries, by endpoint",
			},
			[]string{"endpoint"},
		),
	}
}

// ObserveRequest records one completed HTTP exchange. Code 0 means no response.
func (m *Metrics) ObserveRequest(code int, duration time.Duration) {
	if m == nil {
		return
	}
	label := "none"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.RequestsTotal.WithLabelValues(label).Inc()
	m.RequestDuration.Observe(duration.Seconds())
}

func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

func (m *Metrics) AddObjects(endpoint string, count int) {
	if m == nil {
		return
	}
	m.ObjectsTotal.WithLabelValues(endpoint).Add(float64(count))
}
