// Package metrics exposes Prometheus collectors for the download service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	downloadJobsTotal          *prometheus.CounterVec
	downloadAttemptsTotal      *prometheus.CounterVec
	downloadBytesTotal         prometheus.Counter
	downloadActiveJobs         prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		downloadJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "download_jobs_total",
				Help: "Total number of download jobs, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		downloadAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "download_attempts_total",
				Help: "Total number of extraction attempts, labeled by client identity and outcome.",
			},
			[]string{"client", "outcome"},
		)

		downloadBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "download_bytes_total",
				Help: "Total bytes reported downloaded across all jobs.",
			},
		)

		downloadActiveJobs = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "download_active_jobs",
				Help: "Whether a download job is currently in flight (0 or 1).",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveJob increments the job counter for the given outcome.
func ObserveJob(outcome string) {
	if downloadJobsTotal == nil {
		return
	}
	downloadJobsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAttempt increments the attempt counter for one client identity.
func ObserveAttempt(client, outcome string) {
	if downloadAttemptsTotal == nil {
		return
	}
	downloadAttemptsTotal.WithLabelValues(client, outcome).Inc()
}

// AddBytesDownloaded adds a byte delta reported by the extractor.
func AddBytesDownloaded(n int64) {
	if downloadBytesTotal == nil {
		return
	}
	if n > 0 {
		downloadBytesTotal.Add(float64(n))
	}
}

// SetJobActive flips the active-job gauge.
func SetJobActive(active bool) {
	if downloadActiveJobs == nil {
		return
	}
	if active {
		downloadActiveJobs.Set(1)
		return
	}
	downloadActiveJobs.Set(0)
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
