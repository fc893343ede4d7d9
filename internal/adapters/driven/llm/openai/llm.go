// Package openai answers questions with OpenAI chat completions.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/httpx"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4-turbo"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig configures the chat client. Only APIKey is required.
type LLMConfig struct {
	APIKey string

	// BaseURL also accepts OpenAI-compatible endpoints.
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls /chat/completions.
type LLMService struct {
	api   *httpx.Client
	model string
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
	Stop        []string            `json:"stop,omitempty"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService returns a configuration error when the API key is missing.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewConfigurationError("llm.api_key", "OpenAI API key is required (set OPENAI_API_KEY)")
	}
	cfg.BaseURL = orDefault(cfg.BaseURL, DefaultBaseURL)
	cfg.Model = orDefault(cfg.Model, DefaultLLMModel)
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		api:   httpx.NewClient("openai", cfg.BaseURL, cfg.Timeout, httpx.WithHeader("Authorization", "Bearer "+cfg.APIKey)),
		model: cfg.Model,
	}, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Generate sends prompt as a single user message.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.complete(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}},
		opts.MaxTokens, opts.Temperature, opts.StopWords)
}

// Chat passes messages through unchanged, system message included.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return s.complete(ctx, messages, opts.MaxTokens, opts.Temperature, nil)
}

func (s *LLMService) complete(ctx context.Context, messages []driven.ChatMessage, maxTokens int, temperature float64, stop []string) (string, error) {
	req := chatCompletionRequest{
		Model:       s.model,
		Messages:    make([]chatCompletionMsg, len(messages)),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stop:        stop,
	}
	for i, m := range messages {
		req.Messages[i] = chatCompletionMsg(m)
	}

	var resp chatCompletionResponse
	if err := s.api.Post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	switch {
	case resp.Error != nil:
		return "", fmt.Errorf("%w: openai: %s", domain.ErrGeneration, resp.Error.Message)
	case len(resp.Choices) == 0:
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, errNoChoices)
	}
	return resp.Choices[0].Message.Content, nil
}

var errNoChoices = errors.New("openai: no response choices returned")

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/models", nil)
}

func (s *LLMService) Close() error {
	return nil
}
