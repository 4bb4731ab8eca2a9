package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the HTTP surface and the record store.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Request latency by method, route pattern and status code
	RequestDuration *prometheus.HistogramVec

	// Store call latency by backend and operation
	StoreDuration *prometheus.HistogramVec

	// Failed store calls by backend and operation
	StoreErrors *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sales_dashboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),

		StoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sales_dashboard_store_operation_duration_seconds",
			Help:    "Duration of record store operations by backend and operation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"backend", "operation"}),

		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sales_dashboard_store_errors_total",
			Help: "Total failed record store operations by backend and operation",
		}, []string{"backend", "operation"}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
	}
}

// ObserveStoreOperation records one store call; it satisfies store.Observer.
func (m *Metrics) ObserveStoreOperation(backend, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(backend, operation).Observe(d.Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(backend, operation).Inc()
	}
}
