// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. Labels are
// kept bounded: the path label is the registered Gin route
// (e.g. /api/employees/:id) or "unmatched" when no route matched.
package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// unmatchedPath is the path label for requests that hit NoRoute/NoMethod.
const unmatchedPath = "unmatched"

// HTTPMetrics groups the HTTP collectors.
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	Inflight prometheus.Gauge
	RespSize *prometheus.HistogramVec
}

// NewHTTPMetrics creates the collectors and registers them with reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	f := promauto.With(reg)
	return &HTTPMetrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		Inflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		}),
		RespSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			// 200B .. 1MiB; employee lists are small JSON arrays.
			Buckets: prometheus.ExponentialBuckets(200, 4, 8),
		}, []string{"method", "path"}),
	}
}

var (
	defaultHTTPOnce    sync.Once
	defaultHTTPMetrics *HTTPMetrics
)

// Metrics instruments requests with collectors on the default registry.
func Metrics() gin.HandlerFunc {
	defaultHTTPOnce.Do(func() {
		defaultHTTPMetrics = NewHTTPMetrics(prometheus.DefaultRegisterer)
	})
	return defaultHTTPMetrics.Handler()
}

// Handler returns the middleware recording into m.
func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.Inflight.Inc()
		defer m.Inflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method

		m.Requests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.Latency.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written.
		if size := c.Writer.Size(); size >= 0 {
			m.RespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
