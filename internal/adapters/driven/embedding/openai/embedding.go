// Package openai embeds chunks and queries with the OpenAI embeddings API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/httpx"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-ada-002"
	DefaultTimeout = 60 * time.Second
)

var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config configures the client. Only APIKey is required.
type Config struct {
	APIKey string

	// BaseURL also accepts OpenAI-compatible endpoints.
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions shortens text-embedding-3-* vectors. Other models ignore it.
	Dimensions int

	HTTPClient *http.Client
}

// EmbeddingService calls /embeddings with every text of a batch in one request.
type EmbeddingService struct {
	api        *httpx.Client
	model      string
	dimensions int
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService returns a configuration error when the API key is missing.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewConfigurationError("embedding.api_key", "OpenAI API key is required (set OPENAI_API_KEY)")
	}
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
		cfg.Dimensions = modelDimensions[cfg.Model]
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1536
	}

	api := httpx.NewClient("openai", cfg.BaseURL, cfg.Timeout,
		httpx.WithHeader("Authorization", "Bearer "+cfg.APIKey),
		httpx.WithHTTPClient(cfg.HTTPClient),
	)
	return &EmbeddingService{api: api, model: cfg.Model, dimensions: cfg.Dimensions}, nil
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
	vecs, err := s.embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	return vecs, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := embeddingRequest{Model: s.model, Input: texts}
	if strings.HasPrefix(s.model, "text-embedding-3-") {
		req.Dimensions = s.dimensions
	}

	var resp embeddingResponse
	if err := s.api.Post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("openai: %s", resp.Error.Message)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	// Data may arrive in any order; Index says which input it belongs to.
	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vecs[d.Index] != nil {
			return nil, fmt.Errorf("openai: bad embedding index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without embedding anything.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/models", nil)
}

func (s *EmbeddingService) Close() error {
	return nil
}
