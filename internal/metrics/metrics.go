// Package metrics exposes Prometheus collectors for the f1data pipeline and API.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamRequestsTotal      *prometheus.CounterVec
	upstreamRetriesTotal       *prometheus.CounterVec
	cacheLookupsTotal          *prometheus.CounterVec
	pagesFetchedTotal          *prometheus.CounterVec
	politenessDelaySeconds     prometheus.Histogram
	importRowsTotal            *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "f1_upstream_requests_total",
				Help: "Upstream API calls, labeled by host and outcome.",
			},
			[]string{"host", "outcome"},
		)

		upstreamRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "f1_upstream_retries_total",
				Help: "Retried upstream attempts, labeled by host.",
			},
			[]string{"host"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "f1_cache_lookups_total",
				Help: "Cache lookups, labeled by hit or miss.",
			},
			[]string{"result"},
		)

		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "f1_pages_fetched_total",
				Help: "Scraped pages, labeled by backend and outcome.",
			},
			[]string{"backend", "outcome"},
		)

		politenessDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "f1_politeness_delay_seconds",
				Help:    "Histogram of politeness pauses between page fetches.",
				Buckets: []float64{0.5, 1, 2, 3, 5, 7, 10},
			},
		)

		importRowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "f1_import_rows_total",
				Help: "Rows seen by the loader, labeled by outcome.",
			},
			[]string{"outcome"},
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

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveUpstream counts one upstream call outcome ("ok", "error", "rejected").
func ObserveUpstream(rawURL, outcome string) {
	Init()
	upstreamRequestsTotal.WithLabelValues(SanitizeSite(rawURL), outcome).Inc()
}

// ObserveRetry counts one retried upstream attempt.
func ObserveRetry(rawURL string) {
	Init()
	upstreamRetriesTotal.WithLabelValues(SanitizeSite(rawURL)).Inc()
}

// ObserveCacheLookup counts a cache hit or miss.
func ObserveCacheLookup(hit bool) {
	Init()
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObservePage counts a page fetch outcome for a backend.
func ObservePage(backend, outcome string) {
	Init()
	pagesFetchedTotal.WithLabelValues(backend, outcome).Inc()
}

// ObservePolitenessDelay records a politeness pause.
func ObservePolitenessDelay(d time.Duration) {
	Init()
	politenessDelaySeconds.Observe(d.Seconds())
}

// ObserveImportRows adds n rows with the given loader outcome.
func ObserveImportRows(outcome string, n int) {
	Init()
	if n <= 0 {
		return
	}
	importRowsTotal.WithLabelValues(outcome).Add(float64(n))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
