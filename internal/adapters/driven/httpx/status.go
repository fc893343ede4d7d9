// Package httpx is the JSON transport shared by the AI provider adapters.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// maxBody caps how much of an error body ends up in an error message.
const maxBody = 512

// StatusError builds the error for a non-2xx response. 429 and 5xx
// responses are marked retryable; 429 also matches domain.ErrRateLimited.
func StatusError(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBody {
		msg = msg[:maxBody] + "..."
	}
	err := fmt.Errorf("%s: API returned status %d: %s", provider, status, msg)

	switch {
	case status == http.StatusTooManyRequests:
		return domain.Retryable(fmt.Errorf("%w: %w", domain.ErrRateLimited, err))
	case status >= 500, status == http.StatusRequestTimeout:
		return domain.Retryable(err)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	default:
		return err
	}
}

// TransportError wraps a failure to send a request. Cancellation by the
// caller is not retryable; everything else (DNS, resets, timeouts) is.
func TransportError(provider string, err error) error {
	wrapped := fmt.Errorf("%s: send request: %w", provider, err)
	if errors.Is(err, context.Canceled) {
		return wrapped
	}
	return domain.Retryable(wrapped)
}
