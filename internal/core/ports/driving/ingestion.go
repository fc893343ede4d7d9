package driving

import (
	"context"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// IngestOptions adjusts a single ingestion call.
type IngestOptions struct {
	// Force re-ingests sources already present in the ledger.
	Force bool

	// DryRun cleans and chunks without embedding or writing.
	DryRun bool
}

// IngestionService turns transcripts into stored embedding records.
type IngestionService interface {
	// IngestSource ingests one source. Sources already in the ledger are
	// skipped without any embedding or vector store call.
	IngestSource(ctx context.Context, src domain.Source, opts IngestOptions) (domain.IngestResult, error)

	// IngestAll ingests every transcript the source yields, one at a time.
	// A failing transcript does not stop the run; storage failures on the ledger do.
	IngestAll(ctx context.Context, transcripts driven.TranscriptSource, opts IngestOptions) (domain.IngestSummary, error)
}
