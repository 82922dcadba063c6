package scholar

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors returned by the scholar client.
var (
	// ErrNetwork indicates a transport failure (DNS, connection reset, timeout).
	ErrNetwork = errors.New("network error fetching listing")

	// ErrRetriesExhausted indicates every attempt allowed by the retry policy failed.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// HTTPError is a non-200 response from the listing endpoint.
type HTTPError struct {
	StatusCode int
	URL        string
	RetryAfter time.Duration // Parsed Retry-After header; zero when absent
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("listing request failed (status %d): %s", e.StatusCode, e.URL)
}

// IsRetryable reports whether a failed attempt may succeed if repeated.
// Network errors, 429 and 5xx responses are retryable; other statuses are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetwork) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
