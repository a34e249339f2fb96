package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "bibliography"

// CacheStatser exposes lookup cache counters, e.g. *openlibrary.Client.
type CacheStatser interface {
	CacheStats() (hits, misses, requests uint64)
}

type metrics struct {
	registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	suggestions  *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		suggestions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "suggest",
				Name:      "queries_total",
				Help:      "Suggest queries by data type and result.",
			},
			[]string{"datatype", "result"},
		),
	}
	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.suggestions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) recordHTTP(method, path string, status int, d time.Duration) {
	label := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, label).Inc()
	m.httpDuration.WithLabelValues(method, path, label).Observe(d.Seconds())
}

func (m *metrics) recordSuggest(dataType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.suggestions.WithLabelValues(dataType, result).Inc()
}

// registerCache exports the counters of a lookup cache under name.
func (m *metrics) registerCache(name string, c CacheStatser) {
	labels := prometheus.Labels{"datatype": name}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "suggest", Name: "cache_hits_total",
			Help: "Suggest cache hits.", ConstLabels: labels,
		}, func() float64 { h, _, _ := c.CacheStats(); return float64(h) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "suggest", Name: "cache_misses_total",
			Help: "Suggest cache misses.", ConstLabels: labels,
		}, func() float64 { _, miss, _ := c.CacheStats(); return float64(miss) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "suggest", Name: "upstream_requests_total",
			Help: "Requests sent to the upstream lookup service.", ConstLabels: labels,
		}, func() float64 { _, _, r := c.CacheStats(); return float64(r) }),
	)
}
