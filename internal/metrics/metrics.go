// Package metrics holds the Prometheus collectors for the employee store.
// HTTP-level metrics live in the middleware package.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for StoreOps.
const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics groups the collectors updated by the service layer.
type Metrics struct {
	StoreOps      *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
	Employees     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StoreOps: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employee_store_operations_total",
			Help: "Employee store operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		StoreDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "employee_store_operation_duration_seconds",
			Help:    "Duration of employee store operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}), // op: list, create, update, delete, clear
		Employees: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "employee_store_rows",
			Help: "Number of employees returned by the most recent list.",
		}),
	}
	return m
}

var (
	defaultOnce sync.Once
	defaultM    *Metrics
)

// Default returns the process-wide Metrics registered on the default
// Prometheus registry. It is created on first use.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultM = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultM
}

// Observe records one store operation. It is a no-op on a nil receiver so
// services can run without metrics in tests.
func (m *Metrics) Observe(op, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.StoreOps.WithLabelValues(op, outcome).Inc()
	m.StoreDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
