package modeladapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// discardLogger stands in for a nil Logger.
var discardLogger = slog.New(slog.DiscardHandler)

// StatusError is returned when the API answers with a non-2xx status after
// the transport's own retries are exhausted.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.Code)
	if text == "" {
		text = "unexpected status"
	}
	if e.Body == "" {
		return fmt.Sprintf("%d %s", e.Code, text)
	}
	return fmt.Sprintf("%d %s: %s", e.Code, text, e.Body)
}

// RateLimitError is returned when the API still responds with HTTP 429 (Too
// Many Requests) after all transport retries. It carries an optional
// RetryAfter duration parsed from the Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %s", e.RetryAfter, e.Body)
	}
	return fmt.Sprintf("rate limited: %s", e.Body)
}

// Unwrap exposes the underlying 429 as a *StatusError.
func (e *RateLimitError) Unwrap() error {
	return &StatusError{Code: http.StatusTooManyRequests, Body: e.Body}
}

// TimeoutError is returned when every escalation attempt timed out.
type TimeoutError struct {
	Attempts int
	Limit    time.Duration // Timeout of the final attempt.
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %d attempt(s) (last timeout %s): %v", e.Attempts, e.Limit, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Timeout lets TimeoutError satisfy the timeout half of net.Error.
func (e *TimeoutError) Timeout() bool { return true }

// IsTimeout reports whether err was caused by a request deadline rather than
// by an HTTP status or another connection failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// net.Error, *url.Error and TimeoutError all expose Timeout.
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// ParseRetryAfter parses the Retry-After header value as either seconds (integer)
// or an HTTP-date (RFC 7231). Returns zero if unparseable or if the date is in the past.
func ParseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
		return 0
	}
	return 0
}
