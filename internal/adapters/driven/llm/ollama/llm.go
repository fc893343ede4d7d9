// Package ollama answers questions with a local Ollama model.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/httpx"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig configures the client. Every field has a default.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls /api/generate and /api/chat with streaming off.
type LLMService struct {
	api   *httpx.Client
	model string
}

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		api:   httpx.NewClient("ollama", cfg.BaseURL, cfg.Timeout),
		model: cfg.Model,
	}
}

// newOptions returns nil when every option is unset so the model's own
// defaults apply.
func newOptions(maxTokens int, temperature float64, stop []string) *options {
	if maxTokens == 0 && temperature == 0 && len(stop) == 0 {
		return nil
	}
	return &options{NumPredict: maxTokens, Temperature: temperature, Stop: stop}
}

func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var resp generateResponse
	err := s.api.Post(ctx, "/api/generate", generateRequest{
		Model:   s.model,
		Prompt:  prompt,
		Options: newOptions(opts.MaxTokens, opts.Temperature, opts.StopWords),
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return resp.Response, nil
}

func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatRequest{
		Model:    s.model,
		Messages: make([]chatMessage, len(messages)),
		Options:  newOptions(opts.MaxTokens, opts.Temperature, nil),
	}
	for i, m := range messages {
		req.Messages[i] = chatMessage(m)
	}

	var resp chatResponse
	if err := s.api.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return resp.Message.Content, nil
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists local models to check the server is up.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/api/tags", nil)
}

func (s *LLMService) Close() error {
	return nil
}
