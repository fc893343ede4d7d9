package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// Common YouTube Data API errors.
var (
	// ErrQuotaExceeded indicates the daily API quota is used up. Retrying
	// before the quota resets will not help.
	ErrQuotaExceeded = errors.New("youtube: quota exceeded")

	// ErrNotFound indicates the channel or video does not exist.
	ErrNotFound = errors.New("youtube: not found")
)

// reason returns the first error reason reported by the API, if any.
func reason(gerr *googleapi.Error) string {
	for _, item := range gerr.Errors {
		if item.Reason != "" {
			return item.Reason
		}
	}
	return ""
}

// IsQuotaExceeded returns true if the error indicates an exhausted quota.
func IsQuotaExceeded(err error) bool {
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusForbidden && reason(gerr) == "quotaExceeded"
	}
	return false
}

// IsRateLimited returns true if the error indicates short-term rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests ||
			(gerr.Code == http.StatusForbidden && reason(gerr) == "rateLimitExceeded")
	}
	return false
}

// WrapError converts a YouTube API error into the domain taxonomy.
// Rate limits and server errors are marked retryable.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("youtube: %s: %w", op, err)
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return domain.Retryable(fmt.Errorf("youtube: %s: %w", op, err))
	}

	switch {
	case IsQuotaExceeded(err):
		return fmt.Errorf("%w: %s: %w", ErrQuotaExceeded, op, err)
	case IsRateLimited(err):
		return domain.Retryable(fmt.Errorf("%w: youtube: %s: %w", domain.ErrRateLimited, op, err))
	case gerr.Code == http.StatusBadRequest && reason(gerr) == "keyInvalid",
		gerr.Code == http.StatusUnauthorized,
		gerr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %s: %w", domain.NewConfigurationError("youtube.api_key", "rejected by the YouTube API"), op, err)
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %s: %w", ErrNotFound, op, err)
	case gerr.Code >= http.StatusInternalServerError:
		return domain.Retryable(fmt.Errorf("youtube: %s: %w", op, err))
	default:
		return fmt.Errorf("youtube: %s: %w", op, err)
	}
}

// retryAfter reads the Retry-After header of a rate limited response.
func retryAfter(err error) time.Duration {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Header != nil {
		if secs, perr := strconv.Atoi(gerr.Header.Get("Retry-After")); perr == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return rateLimitBackoff
}
