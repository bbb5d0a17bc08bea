package apierr

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError describes a non-2xx response from the case-management API.
// Status and StatusText mirror the HTTP response exactly. Message holds the
// human-readable detail extracted from the response body, or empty when the
// body carried none (or was not valid JSON).
type APIError struct {
	Status     int
	StatusText string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d %s: %s", e.Status, e.StatusText, e.Message)
	}
	return fmt.Sprintf("API error %d %s", e.Status, e.StatusText)
}

// RateLimitError indicates a 429 response that was not transparently retried.
// RetryAfter is the server's hint in whole seconds; nil means the response
// carried no usable Retry-After header.
type RateLimitError struct {
	RetryAfter *int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("rate limited, retry after %ds", *e.RetryAfter)
	}
	return "rate limited"
}

// ParseRetryAfter parses a Retry-After header value into whole seconds.
// It accepts delta-seconds ("5") and HTTP dates (RFC 7231). Dates are
// converted to the remaining wait relative to now, rounded up and floored
// at zero. Returns ok=false for missing or unparseable values.
func ParseRetryAfter(raw string, now time.Time) (seconds int, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, true
		}
		return n, true
	}

	if ts, err := http.ParseTime(raw); err == nil {
		remaining := ts.Sub(now)
		if remaining <= 0 {
			return 0, true
		}
		return int(math.Ceil(remaining.Seconds())), true
	}

	return 0, false
}
