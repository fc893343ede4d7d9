package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrConfiguration indicates missing credentials or invalid parameters.
	// It is fatal and reported before any work starts.
	ErrConfiguration = errors.New("configuration error")

	// ErrStorage indicates the ledger, chunk files or vector store
	// could not be read or written.
	ErrStorage = errors.New("storage error")

	// ErrEmbedding indicates the embedding service failed.
	ErrEmbedding = errors.New("embedding error")

	// ErrGeneration indicates the language model failed to produce an answer.
	ErrGeneration = errors.New("generation error")

	// ErrRetrieval indicates the vector store could not be queried.
	ErrRetrieval = errors.New("retrieval error")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyClaimed indicates another ingestion run holds the source.
	ErrAlreadyClaimed = errors.New("source already claimed")
)

// ConfigurationError names the setting that is missing or invalid.
type ConfigurationError struct {
	Field  string
	Reason string
}

// NewConfigurationError returns a ConfigurationError for field.
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// RetryableError marks a transient failure such as a 429 or 5xx response.
type RetryableError struct {
	Err error
}

// Retryable wraps err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err, or any error it wraps, is transient.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
