package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.SourceProcessed(ResultIngested)
	m.SourceProcessed(ResultIngested)
	m.SourceProcessed(ResultSkipped)
	m.ChunksIngested(3)
	m.ChunksIngested(0)
	m.Retried("embedding")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IngestSourcesTotal.WithLabelValues(ResultIngested)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestSourcesTotal.WithLabelValues(ResultSkipped)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IngestChunksTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetriesTotal.WithLabelValues("embedding")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SourceProcessed(ResultFailed)
		m.ChunksIngested(1)
		m.Retried("llm")
		m.ObserveQuery(OutcomeAnswered, time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveQuery(OutcomeNoContent, 10*time.Millisecond)
	m.SourceProcessed(ResultIngested)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "query_duration_seconds")
	assert.Contains(t, string(body), `ingest_sources_total{result="ingested"} 1`)
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
