// Package metrics defines the Prometheus collectors for ingestion, retries
// and queries, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingest results used as the "result" label.
const (
	ResultIngested = "ingested"
	ResultSkipped  = "skipped"
	ResultFailed   = "failed"
)

// Query outcomes used as the "outcome" label.
const (
	OutcomeAnswered  = "answered"
	OutcomeNoContent = "no_content"
	OutcomeError     = "error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing,
// so services can run without a registry.
type Metrics struct {
	registry *prometheus.Registry

	IngestSourcesTotal *prometheus.CounterVec
	IngestChunksTotal  prometheus.Counter
	RetriesTotal       *prometheus.CounterVec
	QueryDuration      *prometheus.HistogramVec
}

// New creates the collectors in a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		IngestSourcesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_sources_total",
				Help: "Sources processed by ingestion, by result (ingested, skipped, failed).",
			},
			[]string{"result"},
		),
		IngestChunksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_chunks_total",
				Help: "Chunks embedded and written to the vector store.",
			},
		),
		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_retries_total",
				Help: "Retried calls to the AI providers, by service (embedding, llm).",
			},
			[]string{"service"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_duration_seconds",
				Help:    "End-to-end query latency in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		m.IngestSourcesTotal,
		m.IngestChunksTotal,
		m.RetriesTotal,
		m.QueryDuration,
	)

	return m
}

// SourceProcessed counts one source with the given result label.
func (m *Metrics) SourceProcessed(result string) {
	if m == nil {
		return
	}
	m.IngestSourcesTotal.WithLabelValues(result).Inc()
}

// ChunksIngested adds n upserted chunks.
func (m *Metrics) ChunksIngested(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.IngestChunksTotal.Add(float64(n))
}

// Retried counts one retry against service.
func (m *Metrics) Retried(service string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabelValues(service).Inc()
}

// ObserveQuery records the latency of one query.
func (m *Metrics) ObserveQuery(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Handler returns the scrape handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
