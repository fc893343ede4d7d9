package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the trading question to answer"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of transcript excerpts to use (default from settings)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string          `json:"answer"`
	Model   string          `json:"model,omitempty"`
	Sources []ExcerptOutput `json:"sources"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"text to find similar transcript excerpts for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of excerpts to return (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []ExcerptOutput `json:"results"`
	Count   int             `json:"count"`
}

// ExcerptOutput is one retrieved transcript chunk.
type ExcerptOutput struct {
	ChunkID     string  `json:"chunk_id"`
	VideoID     string  `json:"video_id"`
	Title       string  `json:"title,omitempty"`
	PublishedAt string  `json:"published_at,omitempty"`
	URI         string  `json:"uri,omitempty"`
	Score       float64 `json:"score"`
	Text        string  `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a trading question from the ingested video transcripts",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the transcript excerpts most similar to a query",
	}, s.handleRetrieve)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Answer(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Model:   answer.Model,
		Sources: excerpts(answer.Sources),
	}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	results, err := s.ports.Query.Retrieve(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	return nil, RetrieveOutput{
		Results: excerpts(results),
		Count:   len(results),
	}, nil
}

func excerpts(chunks []domain.RetrievedChunk) []ExcerptOutput {
	out := make([]ExcerptOutput, len(chunks))
	for i, c := range chunks {
		out[i] = ExcerptOutput{
			ChunkID:     c.ID,
			VideoID:     c.SourceID(),
			Title:       c.Title(),
			PublishedAt: c.Metadata[domain.MetaPublishedAt],
			URI:         c.Metadata[domain.MetaURI],
			Score:       c.Score,
			Text:        c.Text,
		}
	}
	return out
}
