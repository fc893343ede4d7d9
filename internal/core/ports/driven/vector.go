package driven

import (
	"context"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// VectorStore persists embedding records and answers similarity queries.
// All chunks of all sources live in a single logical collection.
type VectorStore interface {
	// Upsert inserts or overwrites records keyed by record ID.
	// Implementations apply the whole batch atomically where the backend allows.
	Upsert(ctx context.Context, records []domain.EmbeddingRecord) error

	// Query returns at most topK records nearest to vector, nearest first.
	// An empty store yields an empty slice and no error.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.RetrievedChunk, error)

	// DeleteSource removes every record whose source_id metadata matches.
	DeleteSource(ctx context.Context, sourceID string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
