package driven

import (
	"context"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// DedupLedger records which sources completed ingestion.
// Implementations load state fully before the first call and persist every
// mark synchronously.
type DedupLedger interface {
	// IsProcessed reports whether the source has been fully ingested.
	IsProcessed(ctx context.Context, sourceID string) (bool, error)

	// MarkProcessed records the source as fully ingested.
	MarkProcessed(ctx context.Context, entry domain.LedgerEntry) error

	// Forget removes the source so the next run ingests it again.
	Forget(ctx context.Context, sourceID string) error

	// List returns all entries ordered by source ID.
	List(ctx context.Context) ([]domain.LedgerEntry, error)

	// Close releases resources.
	Close() error
}

// SourceClaimer is implemented by ledgers that coordinate concurrent runs.
// Claim returns domain.ErrAlreadyClaimed when another run holds the source.
type SourceClaimer interface {
	Claim(ctx context.Context, sourceID string) (release func(), err error)
}
