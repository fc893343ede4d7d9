package sqlite

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/storage/similarity"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore with an exact cosine scan.
type vectorStore struct {
	store      *Store
	collection string
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert stores all records in a single transaction.
func (v *vectorStore) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStorage, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (id, collection, source_id, content, embedding, dimensions, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			source_id = excluded.source_id,
			content = excluded.content,
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %w", domain.ErrStorage, err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		if len(r.Vector) == 0 {
			return fmt.Errorf("%w: record %s has no vector", domain.ErrInvalidInput, r.ID)
		}
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, v.collection, r.Metadata[domain.MetaSourceID], r.Text,
			float32SliceToBytes(r.Vector), len(r.Vector), string(metadataJSON), now); err != nil {
			return fmt.Errorf("%w: saving record %s: %w", domain.ErrStorage, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrStorage, err)
	}
	return nil
}

// Query scans the collection and returns the topK most similar records.
func (v *vectorStore) Query(ctx context.Context, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT id, content, embedding, dimensions, metadata
		FROM vectors WHERE collection = ?
	`, v.collection)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	top := similarity.NewTopK(topK)
	for rows.Next() {
		var (
			id, content, metadataJSON string
			blob                      []byte
			dims                      int
		)
		if err := rows.Scan(&id, &content, &blob, &dims, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		if dims != len(vector) {
			return nil, fmt.Errorf("%w: record %s has %d dimensions, query has %d",
				domain.ErrInvalidInput, id, dims, len(vector))
		}

		var metadata map[string]string
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata of %s: %w", id, err)
		}
		top.Push(domain.RetrievedChunk{
			ID:       id,
			Text:     content,
			Metadata: metadata,
			Score:    similarity.Cosine(vector, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return top.Results(), nil
}

// DeleteSource removes all records of a source.
func (v *vectorStore) DeleteSource(ctx context.Context, sourceID string) error {
	_, err := v.store.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE collection = ? AND source_id = ?", v.collection, sourceID)
	if err != nil {
		return fmt.Errorf("%w: deleting vectors of %s: %w", domain.ErrStorage, sourceID, err)
	}
	return nil
}

// Count returns the number of records in the collection.
func (v *vectorStore) Count(ctx context.Context) (int, error) {
	var n int
	err := v.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vectors WHERE collection = ?", v.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (v *vectorStore) Close() error {
	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
