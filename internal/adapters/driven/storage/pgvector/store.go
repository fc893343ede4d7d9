// Package pgvector stores embedding records in Postgres using the pgvector
// extension. Similarity search is delegated to the database's cosine
// distance operator.
package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Config configures the Postgres vector store.
type Config struct {
	// DatabaseURL is a postgres:// connection string.
	DatabaseURL string

	// Collection names the logical collection rows belong to.
	Collection string

	// Dimensions fixes the vector column size.
	Dimensions int

	// MaxConns bounds the pool. Zero uses 4.
	MaxConns int32
}

// Store is a pgvector-backed driven.VectorStore.
type Store struct {
	pool       *pgxpool.Pool
	collection string
	dimensions int
}

// Open ensures the extension and schema exist and returns a connected store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, domain.NewConfigurationError("vector_store.database_url", "required for the postgres vector backend")
	}
	if cfg.Dimensions <= 0 {
		return nil, domain.NewConfigurationError("embedding.model", "unknown embedding dimensions")
	}
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollection
	}

	// The vector type must exist before pooled connections register it.
	if err := ensureExtension(ctx, cfg.DatabaseURL); err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, domain.NewConfigurationError("vector_store.database_url", err.Error())
	}
	config.MaxConns = cfg.MaxConns
	if config.MaxConns == 0 {
		config.MaxConns = 4
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: create pgx pool: %w", domain.ErrStorage, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", domain.ErrStorage, err)
	}

	s := &Store{pool: pool, collection: cfg.Collection, dimensions: cfg.Dimensions}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: migrate: %w", domain.ErrStorage, err)
	}

	logger.Debug("pgvector: connected to %s, collection %s", config.ConnConfig.Host, cfg.Collection)
	return s, nil
}

func ensureExtension(ctx context.Context, url string) error {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: connect postgres: %w", domain.ErrStorage, err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("%w: create vector extension: %w", domain.ErrStorage, err)
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS transcript_chunks (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			source_id  TEXT NOT NULL,
			content    TEXT NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding  vector(%d) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (collection, id)
		)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS transcript_chunks_source_idx ON transcript_chunks (collection, source_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Upsert writes all records in one transaction.
func (s *Store) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrStorage, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, r := range records {
		if len(r.Vector) != s.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, store expects %d",
				domain.ErrInvalidInput, r.ID, len(r.Vector), s.dimensions)
		}
		metadata, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		batch.Queue(`
			INSERT INTO transcript_chunks (collection, id, source_id, content, metadata, embedding, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (collection, id) DO UPDATE SET
				source_id = EXCLUDED.source_id,
				content = EXCLUDED.content,
				metadata = EXCLUDED.metadata,
				embedding = EXCLUDED.embedding,
				updated_at = EXCLUDED.updated_at`,
			s.collection, r.ID, r.Metadata[domain.MetaSourceID], r.Text, metadata, pgv.NewVector(r.Vector), now)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%w: upsert: %w", domain.ErrStorage, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrStorage, err)
	}
	return nil
}

// Query orders rows by cosine distance to vector. Score is 1 - distance.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, store expects %d",
			domain.ErrInvalidInput, len(vector), s.dimensions)
	}
	if topK <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, content, metadata, 1 - (embedding <=> $2) AS score
		FROM transcript_chunks
		WHERE collection = $1
		ORDER BY embedding <=> $2, id
		LIMIT $3`, s.collection, pgv.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	var out []domain.RetrievedChunk
	for rows.Next() {
		var (
			r        domain.RetrievedChunk
			metadata []byte
		)
		if err := rows.Scan(&r.ID, &r.Text, &metadata, &r.Score); err != nil {
			return nil, fmt.Errorf("scan vector row: %w", err)
		}
		if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vector rows: %w", err)
	}
	return out, nil
}

// DeleteSource removes the rows of a source.
func (s *Store) DeleteSource(ctx context.Context, sourceID string) error {
	_, err := s.pool.Exec(ctx,
		"DELETE FROM transcript_chunks WHERE collection = $1 AND source_id = $2", s.collection, sourceID)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", domain.ErrStorage, sourceID, err)
	}
	return nil
}

// Count returns the number of rows in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM transcript_chunks WHERE collection = $1", s.collection).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	return n, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
