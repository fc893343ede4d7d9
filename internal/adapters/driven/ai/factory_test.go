package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  domain.EmbeddingSettings
		wantErr   bool
		wantField string
		wantModel string
		wantDims  int
	}{
		{
			name:      "empty provider",
			settings:  domain.EmbeddingSettings{},
			wantErr:   true,
			wantField: "embedding.provider",
		},
		{
			name: "ollama",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "mxbai-embed-large",
			},
			wantModel: "mxbai-embed-large",
			wantDims:  1024,
		},
		{
			name: "openai default model",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
			},
			wantModel: "text-embedding-ada-002",
			wantDims:  1536,
		},
		{
			name: "openai without key",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
			},
			wantErr:   true,
			wantField: "embedding.api_key",
		},
		{
			name: "anthropic has no embeddings",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantErr:   true,
			wantField: "embedding.provider",
		},
		{
			name: "unknown provider",
			settings: domain.EmbeddingSettings{
				Provider: "cohere",
			},
			wantErr:   true,
			wantField: "embedding.provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings, time.Second)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
				assert.True(t, errors.Is(err, domain.ErrConfiguration))

				var cfgErr *domain.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, tt.wantField, cfgErr.Field)
				return
			}
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateEmbeddingService_UnknownIsUnsupported(t *testing.T) {
	_, err := CreateEmbeddingService(domain.EmbeddingSettings{Provider: "cohere"}, time.Second)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedType))
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  domain.LLMSettings
		wantErr   bool
		wantModel string
	}{
		{name: "empty provider", settings: domain.LLMSettings{}, wantErr: true},
		{
			name:      "ollama",
			settings:  domain.LLMSettings{Provider: domain.AIProviderOllama},
			wantModel: "llama3.2",
		},
		{
			name:      "openai",
			settings:  domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"},
			wantModel: "gpt-4-turbo",
		},
		{
			name:      "anthropic",
			settings:  domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k", Model: "claude-3-5-haiku-latest"},
			wantModel: "claude-3-5-haiku-latest",
		},
		{
			name:     "anthropic without key",
			settings: domain.LLMSettings{Provider: domain.AIProviderAnthropic},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings, time.Second)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
				assert.True(t, errors.Is(err, domain.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestValidateEmbeddingConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := ValidateEmbeddingConfig(context.Background(), domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})
	assert.NoError(t, err)
}

func TestValidateLLMConfig_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := ValidateLLMConfig(context.Background(), domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "bad",
		BaseURL:  srv.URL,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
	assert.Contains(t, err.Error(), "unreachable")
}
