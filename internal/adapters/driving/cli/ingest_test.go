package cli

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [file...]", ingestCmd.Use)
	for _, name := range []string{"all", "force", "watch", "dry-run"} {
		assert.NotNil(t, ingestCmd.Flags().Lookup(name), name)
	}
}

func TestIngestCmd_RequiresTarget(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "specify transcript files")
}

func TestIngestCmd_AllWithFilesRejected(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "ingest", "--all", "a.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all cannot be combined")
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()
	ingestionService = nil

	_, err := execute(t, "ingest", "--all")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestIngestCmd_All(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	writeTranscript(t, env.dir, "vidaaaaaaaa_Selling puts.txt", "0.00 - Sell puts when volatility is high.\n4.20 - Keep the size small.")
	writeTranscript(t, env.dir, "vidbbbbbbbb_Wheel strategy.txt", "1.00 - The wheel starts with a cash secured put.")
	writeTranscript(t, env.dir, "vidcccccccc_Trading live.txt", "2.00 - Live session.")

	out, err := execute(t, "ingest", "--all")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 2, skipped 1, failed 0.")
	ok, err := env.ledger.IsProcessed(context.Background(), "vidaaaaaaaa")
	require.NoError(t, err)
	assert.True(t, ok)
	count, err := env.vectors.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.IngestSourcesTotal.WithLabelValues("ingested")))

	out, err = execute(t, "ingest", "--all")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 0, skipped 3, failed 0.")
	count, err = env.vectors.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIngestCmd_Files(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	path := writeTranscript(t, env.dir, "vidaaaaaaaa_Selling puts.txt", "0.00 - Sell puts.")
	writeTranscript(t, env.dir, "vidbbbbbbbb_Other.txt", "1.00 - Not named on the command line.")

	out, err := execute(t, "ingest", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 1, skipped 0, failed 0.")
	entries, err := env.ledger.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "vidaaaaaaaa", entries[0].SourceID)
}

func TestIngestCmd_DryRun(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	writeTranscript(t, env.dir, "vidaaaaaaaa_Selling puts.txt", "0.00 - Sell puts.")

	out, err := execute(t, "ingest", "--all", "--dry-run")

	require.NoError(t, err)
	assert.Contains(t, out, "Chunked (dry run) 1")
	count, err := env.vectors.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	entries, err := env.ledger.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIngestCmd_MissingFileFails(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute(t, "ingest", "/nonexistent/vid_x.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest failed")
	assert.Contains(t, out, "Ingested 0")
}
