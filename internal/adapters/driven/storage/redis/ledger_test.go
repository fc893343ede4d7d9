package redis

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
	_, err := Open(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	_, err = Open(context.Background(), "not-a-url")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func setupTestLedger(t *testing.T) *Ledger {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	prefix := "test-" + uuid.NewString()
	l, err := Open(context.Background(), url, WithPrefix(prefix))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = l.rdb.Del(context.Background(), l.processedKey()).Err()
		_ = l.Close()
	})
	return l
}

func TestLedger_MarkAndList(t *testing.T) {
	l := setupTestLedger(t)
	ctx := context.Background()

	ok, err := l.IsProcessed(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.MarkProcessed(ctx, domain.LedgerEntry{SourceID: "v2", Chunks: 5}))
	require.NoError(t, l.MarkProcessed(ctx, domain.LedgerEntry{SourceID: "v1"}))

	ok, err = l.IsProcessed(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "v1", entries[0].SourceID)
	assert.Equal(t, 5, entries[1].Chunks)

	require.NoError(t, l.Forget(ctx, "v1"))
	assert.ErrorIs(t, l.Forget(ctx, "v1"), domain.ErrNotFound)
}

func TestLedger_Claim(t *testing.T) {
	l := setupTestLedger(t)
	ctx := context.Background()

	release, err := l.Claim(ctx, "v1")
	require.NoError(t, err)

	_, err = l.Claim(ctx, "v1")
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	release()
	release2, err := l.Claim(ctx, "v1")
	require.NoError(t, err)
	release2()
}
