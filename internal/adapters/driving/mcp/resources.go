package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for transcript resources.
	uriScheme = "trading://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing ingested videos.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "videos",
		Name:        "videos",
		Description: "Videos whose transcripts have been ingested",
		MIMEType:    "application/json",
	}, s.handleVideosResource)

	// Template for the stored chunks of one video.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "videos/{videoId}/chunks",
		Name:        "video-chunks",
		Description: "Transcript chunks stored for a specific video",
		MIMEType:    "application/json",
	}, s.handleChunksResource)
}

// handleVideosResource returns the dedup ledger entries.
func (s *Server) handleVideosResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ledger == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	entries, err := s.ports.Ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}

	type videoInfo struct {
		ID          string `json:"id"`
		Title       string `json:"title,omitempty"`
		ProcessedAt string `json:"processed_at,omitempty"`
		Chunks      int    `json:"chunks"`
	}

	infos := make([]videoInfo, len(entries))
	for i, e := range entries {
		infos[i] = videoInfo{
			ID:     e.SourceID,
			Title:  e.Title,
			Chunks: e.Chunks,
		}
		if !e.ProcessedAt.IsZero() {
			infos[i].ProcessedAt = e.ProcessedAt.UTC().Format(time.RFC3339)
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling videos: %w", err)
	}

	return jsonResult(req.Params.URI, string(data)), nil
}

// handleChunksResource returns the chunks stored for one video.
func (s *Server) handleChunksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Chunks == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract videoId from URI: trading://videos/{videoId}/chunks
	videoID := extractVideoID(req.Params.URI)
	if videoID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chunks, err := s.ports.Chunks.Load(ctx, videoID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling chunks: %w", err)
	}

	return jsonResult(req.Params.URI, string(data)), nil
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractVideoID extracts the video ID from a URI like trading://videos/{videoId}/chunks.
func extractVideoID(uri string) string {
	const prefix = uriScheme + "videos/"
	const suffix = "/chunks"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	id := strings.TrimSuffix(uri, suffix)
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return ""
	}
	return id
}
