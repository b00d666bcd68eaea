package middleware

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// routeStatic labels requests that fell through to the file handler.
const routeStatic = "static"

var (
	// httpRequestsTotal counts total HTTP requests
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devserver",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// httpRequestDuration measures request latency
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "devserver",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// httpRequestsInFlight tracks concurrent requests
	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "devserver",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// httpResponseSize measures response body size
	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "devserver",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7), // 100B to 100MB
		},
		[]string{"method", "route"},
	)
)

// Static file metrics
var (
	// FilesServedTotal counts files served by extension
	FilesServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devserver",
			Subsystem: "static",
			Name:      "files_served_total",
			Help:      "Total number of files served",
		},
		[]string{"extension"},
	)

	// FileErrorsTotal counts rejected file requests by reason
	FileErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devserver",
			Subsystem: "static",
			Name:      "errors_total",
			Help:      "Total number of failed file requests",
		},
		[]string{"reason"}, // not_found, forbidden, method_not_allowed, internal
	)
)

// Metrics returns Prometheus metrics middleware
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint
		if c.Request.URL.Path == common.MetricsPath {
			c.Next()
			return
		}

		start := time.Now()
		method := c.Request.Method

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		// FullPath is empty for NoRoute, i.e. everything the file handler serves
		route := c.FullPath()
		if route == "" {
			route = routeStatic
		}

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(method, route, status).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(duration)
		httpResponseSize.WithLabelValues(method, route).Observe(float64(max(c.Writer.Size(), 0)))
	}
}

// RecordFileServed records a successfully served file
func RecordFileServed(name string) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = "none"
	}
	FilesServedTotal.WithLabelValues(ext).Inc()
}

// RecordFileError records a rejected file request
func RecordFileError(reason string) {
	FileErrorsTotal.WithLabelValues(reason).Inc()
}
