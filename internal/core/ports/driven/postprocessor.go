package driven

import (
	"context"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// Normaliser transforms a raw transcript into clean text.
type Normaliser interface {
	// Name returns the normaliser name for logging.
	Name() string

	// Normalise returns the cleaned text.
	Normalise(text string) string
}

// PostProcessor processes cleaned source text to produce chunks.
// PostProcessors are chained in a pipeline (e.g., chunking, compression).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a source with cleaned text and returns chunks.
	// If the processor modifies chunks (e.g., compression), it receives and returns chunks.
	// If the processor creates chunks (e.g., chunker), it receives nil and returns new chunks.
	Process(ctx context.Context, src *domain.Source, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline cleans a source and chains PostProcessors.
type PostProcessorPipeline interface {
	// Process normalises the source text and runs it through all processors in order.
	// Returns the cleaned text and the final chunks.
	Process(ctx context.Context, src *domain.Source) (string, []domain.Chunk, error)
}
