package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrConfiguration", ErrConfiguration},
		{"ErrStorage", ErrStorage},
		{"ErrEmbedding", ErrEmbedding},
		{"ErrGeneration", ErrGeneration},
		{"ErrRetrieval", ErrRetrieval},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("chunking.overlap", "must be less than chunking.size")

	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.False(t, errors.Is(err, ErrStorage))
	assert.Contains(t, err.Error(), "chunking.overlap")

	wrapped := fmt.Errorf("build pipeline: %w", err)
	var ce *ConfigurationError
	assert.True(t, errors.As(wrapped, &ce))
	assert.Equal(t, "chunking.overlap", ce.Field)
}

func TestRetryable(t *testing.T) {
	assert.Nil(t, Retryable(nil))

	base := fmt.Errorf("%w: status 429", ErrRateLimited)
	err := fmt.Errorf("%w: %w", ErrEmbedding, Retryable(base))

	assert.True(t, IsRetryable(err))
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.True(t, errors.Is(err, ErrEmbedding))
	assert.False(t, IsRetryable(ErrEmbedding))
}
