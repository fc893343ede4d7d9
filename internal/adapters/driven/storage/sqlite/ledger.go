package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// ledger implements driven.DedupLedger on the ledger table.
type ledger struct {
	store *Store
}

var _ driven.DedupLedger = (*ledger)(nil)

// IsProcessed reports whether the source has a ledger row.
func (l *ledger) IsProcessed(ctx context.Context, sourceID string) (bool, error) {
	var n int
	err := l.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ledger WHERE source_id = ?", sourceID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: reading ledger: %w", domain.ErrStorage, err)
	}
	return n > 0, nil
}

// MarkProcessed inserts or replaces the ledger row.
func (l *ledger) MarkProcessed(ctx context.Context, entry domain.LedgerEntry) error {
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now().UTC()
	}
	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO ledger (source_id, title, processed_at, run_id, chunks)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			title = excluded.title,
			processed_at = excluded.processed_at,
			run_id = excluded.run_id,
			chunks = excluded.chunks
	`, entry.SourceID, entry.Title, entry.ProcessedAt, entry.RunID, entry.Chunks)
	if err != nil {
		return fmt.Errorf("%w: marking %s processed: %w", domain.ErrStorage, entry.SourceID, err)
	}
	return nil
}

// Forget deletes the ledger row.
func (l *ledger) Forget(ctx context.Context, sourceID string) error {
	res, err := l.store.db.ExecContext(ctx, "DELETE FROM ledger WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("%w: forgetting %s: %w", domain.ErrStorage, sourceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all ledger rows ordered by source id.
func (l *ledger) List(ctx context.Context) ([]domain.LedgerEntry, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT source_id, title, processed_at, run_id, chunks
		FROM ledger ORDER BY source_id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing ledger: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.SourceID, &e.Title, &e.ProcessedAt, &e.RunID, &e.Chunks); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger: %w", err)
	}
	return entries, nil
}

// Close is a no-op; the owning Store closes the database.
func (l *ledger) Close() error {
	return nil
}
