// Package metrics collects and exposes Prometheus metrics for the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	requests *prometheus.CounterVec
	authFail prometheus.Counter
	latency  prometheus.Histogram
	registry *prometheus.Registry
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookkeep_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status"}),
		authFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookkeep_auth_failures_total",
			Help: "Requests rejected with 401",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookkeep_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		registry: reg,
	}
	reg.MustRegister(c.requests, c.authFail, c.latency)
	return c
}

func (c *Collector) Record(method string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	if status == http.StatusUnauthorized {
		c.authFail.Inc()
	}
	c.latency.Observe(duration.Seconds())
}

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware records method, status and latency for every request.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		c.Record(r.Method, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
