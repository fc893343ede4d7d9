package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// chunkStore implements driven.ChunkStore on the chunk_documents table.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// Save replaces the chunk document of a source.
func (c *chunkStore) Save(ctx context.Context, sourceID, cleaned string, chunks []string) error {
	if chunks == nil {
		chunks = []string{}
	}
	chunksJSON, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("marshalling chunks: %w", err)
	}
	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO chunk_documents (source_id, cleaned, chunks, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			cleaned = excluded.cleaned,
			chunks = excluded.chunks,
			updated_at = excluded.updated_at
	`, sourceID, cleaned, string(chunksJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: saving chunks of %s: %w", domain.ErrStorage, sourceID, err)
	}
	return nil
}

// Load returns the ordered chunks of a source.
func (c *chunkStore) Load(ctx context.Context, sourceID string) ([]string, error) {
	var chunksJSON string
	err := c.store.db.QueryRowContext(ctx,
		"SELECT chunks FROM chunk_documents WHERE source_id = ?", sourceID).Scan(&chunksJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading chunks of %s: %w", domain.ErrStorage, sourceID, err)
	}

	var chunks []string
	if err := json.Unmarshal([]byte(chunksJSON), &chunks); err != nil {
		return nil, fmt.Errorf("%w: decoding chunks of %s: %w", domain.ErrStorage, sourceID, err)
	}
	return chunks, nil
}
