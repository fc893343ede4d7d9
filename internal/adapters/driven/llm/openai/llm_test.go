package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestChat_SendsMessagesAndTemperature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultLLMModel, req.Model)
		assert.InDelta(t, 0.2, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  sell premium  "}}]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "persona"},
		{Role: driven.RoleUser, Content: "q"},
	}, driven.ChatOptions{Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "  sell premium  ", out)
}

func TestChat_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "q", driven.GenerateOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGeneration))
	assert.True(t, domain.IsRetryable(err))
}

func TestChat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "q", driven.GenerateOptions{})
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err))
}
