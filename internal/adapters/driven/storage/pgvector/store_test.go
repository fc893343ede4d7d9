package pgvector

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

func TestOpen_Validation(t *testing.T) {
	_, err := Open(context.Background(), Config{Dimensions: 3})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	_, err = Open(context.Background(), Config{DatabaseURL: "postgres://localhost/x"})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

// setupTestStore connects to TEST_DATABASE_URL with a fresh collection.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := Open(context.Background(), Config{
		DatabaseURL: url,
		Collection:  "test_" + uuid.NewString(),
		Dimensions:  3,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.pool.Exec(context.Background(), "DELETE FROM transcript_chunks WHERE collection = $1", s.collection)
		_ = s.Close()
	})
	return s
}

func TestStore_UpsertQuery(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	results, err := s.Query(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	rec := func(id, src string, v ...float32) domain.EmbeddingRecord {
		return domain.EmbeddingRecord{ID: id, Vector: v, Text: id, Metadata: map[string]string{domain.MetaSourceID: src}}
	}
	batch := []domain.EmbeddingRecord{rec("a_0", "a", 1, 0, 0), rec("a_1", "a", 0, 1, 0), rec("b_0", "b", 0.9, 0.1, 0)}
	require.NoError(t, s.Upsert(ctx, batch))
	require.NoError(t, s.Upsert(ctx, batch))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results, err = s.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a_0", results[0].ID)
	assert.Equal(t, "b_0", results[1].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	require.NoError(t, s.DeleteSource(ctx, "a"))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_DimensionMismatch(t *testing.T) {
	s := setupTestStore(t)

	err := s.Upsert(context.Background(), []domain.EmbeddingRecord{{ID: "x_0", Vector: []float32{1}}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
