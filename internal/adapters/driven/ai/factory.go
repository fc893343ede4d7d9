// Package ai builds the embedding and LLM adapters named in settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/llm/ollama"
	openaillm "github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/llm/openai"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service named by settings.
// An unusable configuration is reported as domain.ErrEmbeddingUnavailable
// wrapping a *domain.ConfigurationError.
func CreateEmbeddingService(settings domain.EmbeddingSettings, timeout time.Duration) (driven.EmbeddingService, error) {
	svc, err := createEmbeddingService(settings, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

func createEmbeddingService(settings domain.EmbeddingSettings, timeout time.Duration) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		dimensions := domain.EmbeddingDimensions()[settings.Model]
		if dimensions == 0 {
			dimensions = ollamaembed.DefaultDimensions
		}
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    timeout,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    timeout,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})

	case domain.AIProviderAnthropic:
		return nil, domain.NewConfigurationError("embedding.provider", "anthropic does not support embeddings, use ollama or openai")

	case "":
		return nil, domain.NewConfigurationError("embedding.provider", "not set")

	default:
		return nil, fmt.Errorf("%w: %w", domain.ErrUnsupportedType,
			domain.NewConfigurationError("embedding.provider", fmt.Sprintf("unknown provider %q", settings.Provider)))
	}
}

// CreateLLMService creates the LLM service named by settings.
// An unusable configuration is reported as domain.ErrLLMUnavailable
// wrapping a *domain.ConfigurationError.
func CreateLLMService(settings domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	svc, err := createLLMService(settings, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

func createLLMService(settings domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case "":
		return nil, domain.NewConfigurationError("llm.provider", "not set")

	default:
		return nil, fmt.Errorf("%w: %w", domain.ErrUnsupportedType,
			domain.NewConfigurationError("llm.provider", fmt.Sprintf("unknown provider %q", settings.Provider)))
	}
}

// ValidateEmbeddingConfig creates the embedding service and pings it.
// Used by `settings check` to confirm credentials before an ingest run.
func ValidateEmbeddingConfig(ctx context.Context, settings domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings, pingTimeout)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// ValidateLLMConfig creates the LLM service and pings it.
func ValidateLLMConfig(ctx context.Context, settings domain.LLMSettings) error {
	svc, err := CreateLLMService(settings, pingTimeout)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}
