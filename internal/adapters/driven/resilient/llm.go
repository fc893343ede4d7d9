package resilient

import (
	"context"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// Ensure LLM implements the interface.
var _ driven.LLMService = (*LLM)(nil)

// LLM retries and throttles a language model service.
type LLM struct {
	inner  driven.LLMService
	policy Policy
}

// NewLLM wraps inner with policy.
func NewLLM(inner driven.LLMService, policy Policy) *LLM {
	return &LLM{inner: inner, policy: policy}
}

// Generate retries inner.Generate.
func (l *LLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return Do(ctx, l.policy, "generate", func(ctx context.Context) (string, error) {
		return l.inner.Generate(ctx, prompt, opts)
	})
}

// Chat retries inner.Chat.
func (l *LLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return Do(ctx, l.policy, "chat", func(ctx context.Context) (string, error) {
		return l.inner.Chat(ctx, messages, opts)
	})
}

func (l *LLM) ModelName() string              { return l.inner.ModelName() }
func (l *LLM) Ping(ctx context.Context) error { return l.inner.Ping(ctx) }
func (l *LLM) Close() error                   { return l.inner.Close() }
