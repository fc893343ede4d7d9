package driving

import (
	"context"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// QueryService answers questions from ingested transcripts.
type QueryService interface {
	// Answer retrieves the topK nearest chunks and asks the language model.
	// topK <= 0 uses the configured default. When nothing is retrieved the
	// answer text is domain.NoRelevantContent and the model is not called.
	Answer(ctx context.Context, query string, topK int) (*domain.Answer, error)

	// Retrieve returns the topK nearest chunks without generating an answer.
	Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error)
}
