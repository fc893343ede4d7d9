package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())
}

func TestEmbedBatch_OrdersByIndex(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Input)
		assert.Zero(t, req.Dimensions)

		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[2,2]},
			{"index":0,"embedding":[1,1]}
		]}`))
	})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 2}}, vecs)
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	})
	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbedding))
	assert.False(t, domain.IsRetryable(err))
}

func TestEmbedBatch_RateLimitedIsRetryable(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	})
	_, err := svc.Embed(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbedding))
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	assert.True(t, domain.IsRetryable(err))
}

func TestEmbedBatch_BadRequestNotRetryable(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := svc.Embed(context.Background(), "a")
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err))
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	assert.NoError(t, svc.Ping(context.Background()))
}

func TestPing_Unauthorized(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	err := svc.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
