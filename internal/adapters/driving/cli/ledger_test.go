package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

func TestLedgerCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(ledgerCmd.Commands()))
	for _, cmd := range ledgerCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "list")
	assert.Contains(t, names, "forget")
}

func TestLedgerListCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute(t, "ledger", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No videos ingested yet.")
}

func TestLedgerListCmd_Entries(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	require.NoError(t, env.ledger.MarkProcessed(context.Background(), domain.LedgerEntry{
		SourceID:    "vidaaaaaaaa",
		Title:       "Selling puts",
		ProcessedAt: time.Now(),
		Chunks:      7,
	}))

	out, err := execute(t, "ledger", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested videos (1):")
	assert.Contains(t, out, "vidaaaaaaaa")
	assert.Contains(t, out, "7 chunks")
	assert.Contains(t, out, "Selling puts")
}

func TestLedgerForgetCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()
	require.NoError(t, env.ledger.MarkProcessed(ctx, domain.LedgerEntry{SourceID: "vidaaaaaaaa"}))

	out, err := execute(t, "ledger", "forget", "vidaaaaaaaa", "unknown")

	require.NoError(t, err)
	assert.Contains(t, out, "Forgot vidaaaaaaaa.")
	assert.Contains(t, out, "unknown is not in the ledger.")
	ok, err := env.ledger.IsProcessed(ctx, "vidaaaaaaaa")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLedgerForgetCmd_RequiresID(t *testing.T) {
	_, err := execute(t, "ledger", "forget")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}
