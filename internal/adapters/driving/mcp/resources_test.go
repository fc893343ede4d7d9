package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/storage/memory"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid chunks URI",
			uri:      "trading://videos/dQw4w9WgXcQ/chunks",
			expected: "dQw4w9WgXcQ",
		},
		{
			name:     "invalid prefix",
			uri:      "file://videos/dQw4w9WgXcQ/chunks",
			expected: "",
		},
		{
			name:     "missing chunks suffix",
			uri:      "trading://videos/dQw4w9WgXcQ",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
		{
			name:     "parent directory",
			uri:      "trading://videos/../../x/chunks",
			expected: "",
		},
		{
			name:     "dot dot id",
			uri:      "trading://videos/../chunks",
			expected: "",
		},
		{
			name:     "backslash",
			uri:      `trading://videos/..\x/chunks`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractVideoID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleVideosResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil ledger returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}})
		require.NoError(t, err)

		result, err := server.handleVideosResource(ctx, makeReadResourceRequest("trading://videos"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns ledger entries", func(t *testing.T) {
		ledger := &mockLedger{entries: []domain.LedgerEntry{{
			SourceID:    "vid",
			Title:       "Wheel strategy",
			ProcessedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
			Chunks:      12,
		}}}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Ledger: ledger})
		require.NoError(t, err)

		result, err := server.handleVideosResource(ctx, makeReadResourceRequest("trading://videos"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		text := result.Contents[0].Text
		assert.Contains(t, text, `"id": "vid"`)
		assert.Contains(t, text, "Wheel strategy")
		assert.Contains(t, text, "2024-03-01T09:30:00Z")
		assert.Contains(t, text, `"chunks": 12`)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		ledger := &mockLedger{err: errors.New("disk error")}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Ledger: ledger})
		require.NoError(t, err)

		_, err = server.handleVideosResource(ctx, makeReadResourceRequest("trading://videos"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing videos")
	})
}

func TestServer_handleChunksResource(t *testing.T) {
	ctx := context.Background()
	chunks := memory.NewChunkStore()
	require.NoError(t, chunks.Save(ctx, "vid", "cleaned", []string{"first chunk", "second chunk"}))

	t.Run("returns stored chunks", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Chunks: chunks})
		require.NoError(t, err)

		result, err := server.handleChunksResource(ctx, makeReadResourceRequest("trading://videos/vid/chunks"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.JSONEq(t, `["first chunk", "second chunk"]`, result.Contents[0].Text)
	})

	t.Run("unknown video is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Chunks: chunks})
		require.NoError(t, err)

		_, err = server.handleChunksResource(ctx, makeReadResourceRequest("trading://videos/missing/chunks"))

		require.Error(t, err)
	})

	t.Run("path traversal is not found", func(t *testing.T) {
		store := memory.NewChunkStore()
		require.NoError(t, store.Save(ctx, "../../x", "cleaned", []string{"outside"}))
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Chunks: store})
		require.NoError(t, err)

		_, err = server.handleChunksResource(ctx, makeReadResourceRequest("trading://videos/../../x/chunks"))

		require.Error(t, err)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Chunks: chunks})
		require.NoError(t, err)

		_, err = server.handleChunksResource(ctx, makeReadResourceRequest("trading://videos/vid"))

		require.Error(t, err)
	})

	t.Run("nil chunk store is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}})
		require.NoError(t, err)

		_, err = server.handleChunksResource(ctx, makeReadResourceRequest("trading://videos/vid/chunks"))

		require.Error(t, err)
	})
}
