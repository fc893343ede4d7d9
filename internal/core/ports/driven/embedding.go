// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService turns chunk text and queries into vectors. Queries and
// stored chunks must be embedded by the same model for their scores to be
// comparable.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in one request where the provider allows it.
	// The result is index-aligned with texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the configured vector length, or 0 when the model's
	// length is not known up front.
	Dimensions() int

	ModelName() string

	// Ping sends a minimal request to check the endpoint and credentials.
	Ping(ctx context.Context) error

	Close() error
}
