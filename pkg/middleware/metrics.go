package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "Current number of HTTP requests being processed",
		},
	)

	serviceStartTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "service_start_time_seconds",
			Help: "Unix time the service process started",
		},
	)

	registerOnce sync.Once
)

// RegisterMetrics registers the HTTP collectors with the default registry,
// labelled with the owning service. Only the first call has any effect.
func RegisterMetrics(service string) {
	registerOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, prometheus.DefaultRegisterer)
		reg.MustRegister(httpRequestsTotal, httpRequestDuration, httpRequestsInProgress, serviceStartTime)
		serviceStartTime.SetToCurrentTime()
	})
}

const maxPathLabel = 100

// normalizePath replaces case ids, evidence ids and digests with ":id" so
// label cardinality stays bounded.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if isIdentifier(part) {
			parts[i] = ":id"
		}
	}
	normalized := strings.Join(parts, "/")
	if len(normalized) > maxPathLabel {
		normalized = normalized[:maxPathLabel]
	}
	return normalized
}

func isIdentifier(segment string) bool {
	if segment == "" {
		return false
	}
	if _, err := uuid.Parse(segment); err == nil {
		return true
	}
	if len(segment) > 32 {
		return true
	}
	return strings.ContainsAny(segment, "0123456789")
}

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		httpRequestsInProgress.Inc()
		defer httpRequestsInProgress.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

func GetMetricsHandler() http.Handler {
	return promhttp.Handler()
}
