// Package anthropic answers questions with the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/httpx"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// DefaultMaxTokens is sent when the caller sets no limit; the API
	// requires one.
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
)

// Config configures the client. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls /v1/messages. Overloaded (529) replies are 5xx and
// therefore retryable.
type LLMService struct {
	api   *httpx.Client
	model string
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	StopSeqs    []string          `json:"stop_sequences,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService returns a configuration error when the API key is missing.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewConfigurationError("llm.api_key", "Anthropic API key is required (set ANTHROPIC_API_KEY)")
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

	api := httpx.NewClient("anthropic", cfg.BaseURL, cfg.Timeout,
		httpx.WithHeader("x-api-key", cfg.APIKey),
		httpx.WithHeader("anthropic-version", anthropicVersion),
	)
	return &LLMService{api: api, model: cfg.Model}, nil
}

func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.send(ctx, messagesRequest{
		Messages:    []messagesMessage{{Role: driven.RoleUser, Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		StopSeqs:    opts.StopWords,
	})
}

// Chat moves system messages into the top-level system field, which is
// where the Messages API expects the persona.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := messagesRequest{MaxTokens: opts.MaxTokens, Temperature: opts.Temperature}
	var system []string
	for _, m := range messages {
		if m.Role == driven.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, messagesMessage(m))
	}
	req.System = strings.Join(system, "\n\n")
	return s.send(ctx, req)
}

func (s *LLMService) send(ctx context.Context, req messagesRequest) (string, error) {
	req.Model = s.model
	if req.MaxTokens == 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	var resp messagesResponse
	if err := s.api.Post(ctx, "/v1/messages", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%w: anthropic: %s", domain.ErrGeneration, resp.Error.Message)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("%w: anthropic: no response content returned", domain.ErrGeneration)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/v1/models", nil)
}

func (s *LLMService) Close() error {
	return nil
}
