// Package metrics owns the Prometheus registry: HTTP request metrics plus
// counters for ledger writes, owner drift, events and image extraction. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "haulbook"

type Metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	writes      *prometheus.CounterVec
	drift       prometheus.Counter
	events      *prometheus.CounterVec
	extractions *prometheus.CounterVec
	drafts      prometheus.Counter
}

// New builds a registry with the Go and process collectors and every
// haulbook metric registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "writes_total",
			Help:      "Committed document writes by collection and operation.",
		}, []string{"collection", "op"}),
		drift: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "owner_drift_total",
			Help:      "Owner ledgers found out of step with their trips and payments.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "handled_total",
			Help:      "Ledger events handled by the worker, by type and outcome.",
		}, []string{"type", "outcome"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "requests_total",
			Help:      "Ledger image extractions by outcome.",
		}, []string{"outcome"}),
		drafts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "drafts_total",
			Help:      "Trip drafts returned by ledger image extraction.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.writes, m.drift, m.events, m.extractions, m.drafts,
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      errorLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// errorLogger implements promhttp.Logger on top of slog.
type errorLogger struct{}

func (errorLogger) Println(v ...any) {
	slog.Error("Metrics collection failed", "error", fmt.Sprint(v...))
}

// RegisterCache exposes a cache's cumulative hit and miss counts.
func (m *Metrics) RegisterCache(name string, stats func() (hits, misses int64)) {
	if m == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        "hits_total",
			Help:        "Cache hits.",
			ConstLabels: prometheus.Labels{"cache": name},
		}, func() float64 { h, _ := stats(); return float64(h) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        "misses_total",
			Help:        "Cache misses.",
			ConstLabels: prometheus.Labels{"cache": name},
		}, func() float64 { _, mi := stats(); return float64(mi) }),
	)
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) Write(collection, op string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(collection, op).Inc()
}

func (m *Metrics) Drift(owners int) {
	if m == nil || owners <= 0 {
		return
	}
	m.drift.Add(float64(owners))
}

func (m *Metrics) Event(typ, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(typ, outcome).Inc()
}

func (m *Metrics) Extraction(outcome string, drafts int) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(outcome).Inc()
	if drafts > 0 {
		m.drafts.Add(float64(drafts))
	}
}
