package resilient

import (
	"context"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// Ensure Embedding implements the interface.
var _ driven.EmbeddingService = (*Embedding)(nil)

// Embedding retries and throttles an embedding service.
type Embedding struct {
	inner  driven.EmbeddingService
	policy Policy
}

// NewEmbedding wraps inner with policy.
func NewEmbedding(inner driven.EmbeddingService, policy Policy) *Embedding {
	return &Embedding{inner: inner, policy: policy}
}

// Embed retries inner.Embed.
func (e *Embedding) Embed(ctx context.Context, text string) ([]float32, error) {
	return Do(ctx, e.policy, "embed", func(ctx context.Context) ([]float32, error) {
		return e.inner.Embed(ctx, text)
	})
}

// EmbedBatch retries the whole batch.
func (e *Embedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return Do(ctx, e.policy, "embed batch", func(ctx context.Context) ([][]float32, error) {
		return e.inner.EmbedBatch(ctx, texts)
	})
}

func (e *Embedding) Dimensions() int   { return e.inner.Dimensions() }
func (e *Embedding) ModelName() string { return e.inner.ModelName() }

// Ping is not retried.
func (e *Embedding) Ping(ctx context.Context) error { return e.inner.Ping(ctx) }

func (e *Embedding) Close() error { return e.inner.Close() }
