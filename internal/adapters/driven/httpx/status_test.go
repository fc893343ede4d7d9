package httpx

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		status      int
		retryable   bool
		rateLimited bool
		config      bool
	}{
		{429, true, true, false},
		{500, true, false, false},
		{503, true, false, false},
		{408, true, false, false},
		{401, false, false, true},
		{403, false, false, true},
		{400, false, false, false},
		{404, false, false, false},
	}

	for _, tt := range tests {
		err := StatusError("openai", tt.status, []byte(`{"error":"x"}`))
		assert.Equal(t, tt.retryable, domain.IsRetryable(err), "status %d", tt.status)
		assert.Equal(t, tt.rateLimited, errors.Is(err, domain.ErrRateLimited), "status %d", tt.status)
		assert.Equal(t, tt.config, errors.Is(err, domain.ErrConfiguration), "status %d", tt.status)
		assert.Contains(t, err.Error(), "openai")
	}
}

func TestStatusError_TruncatesBody(t *testing.T) {
	err := StatusError("ollama", 400, []byte(strings.Repeat("x", 2000)))
	assert.Less(t, len(err.Error()), 600)
}

func TestTransportError(t *testing.T) {
	assert.True(t, domain.IsRetryable(TransportError("openai", errors.New("connection reset"))))

	err := TransportError("openai", context.Canceled)
	assert.False(t, domain.IsRetryable(err))
	assert.True(t, errors.Is(err, context.Canceled))
}
