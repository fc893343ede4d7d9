// Package ollama embeds chunks and queries with a local Ollama model.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/httpx"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768 // nomic-embed-text
)

// Config configures the client. Every field has a default.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
}

// EmbeddingService calls /api/embed, which takes a whole batch per request.
type EmbeddingService struct {
	api        *httpx.Client
	model      string
	dimensions int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &EmbeddingService{
		api:        httpx.NewClient("ollama", cfg.BaseURL, cfg.Timeout),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	if err := s.api.Post(ctx, "/api/embed", embedRequest{Model: s.model, Input: texts}, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama: got %d embeddings for %d inputs from %s",
			domain.ErrEmbedding, len(resp.Embeddings), len(texts), s.model)
	}
	for i, vec := range resp.Embeddings {
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: ollama: empty embedding for input %d", domain.ErrEmbedding, i)
		}
	}
	return resp.Embeddings, nil
}

func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists local models to check the server is up.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/api/tags", nil)
}

func (s *EmbeddingService) Close() error {
	return nil
}
