package modeladapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"slices"
	"time"
)

// RetryPolicy configures transport-level retries of responses with a
// transient status code and, optionally, of failed connection attempts.
type RetryPolicy struct {
	Total              int           // Max retries after the first try (0 disables retries).
	BackoffFactor      time.Duration // Wait before retry n is BackoffFactor * 2^(n-1).
	BackoffMax         time.Duration // Upper bound for a single wait (0 = unbounded).
	StatusForcelist    []int         // Status codes that trigger a retry.
	Methods            []string      // HTTP methods that may be retried.
	RespectRetryAfter  bool          // Honour a Retry-After header on 429 and 503.
	RetryConnectErrors bool          // Retry when the connection cannot be established.
}

// DefaultRetryPolicy retries POSTs up to five times on 429 and 5xx gateway
// errors, waiting 2s, 4s, 8s, 16s and 32s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Total:         5,
		BackoffFactor: 2 * time.Second,
		BackoffMax:    120 * time.Second,
		StatusForcelist: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		Methods:           []string{http.MethodPost},
		RespectRetryAfter: true,
	}
}

// Backoff returns the wait before retry n (1-based).
func (p RetryPolicy) Backoff(n int) time.Duration {
	if n < 1 || p.BackoffFactor <= 0 {
		return 0
	}

	d := time.Duration(float64(p.BackoffFactor) * math.Pow(2, float64(n-1))) //nolint:mnd // exponential backoff formula
	if p.BackoffMax > 0 && (d > p.BackoffMax || d < 0) {
		return p.BackoffMax
	}

	return d
}

// RetriesStatus reports whether code is in the forcelist.
func (p RetryPolicy) RetriesStatus(code int) bool {
	return slices.Contains(p.StatusForcelist, code)
}

// RetriesMethod reports whether requests with the given method may be retried.
func (p RetryPolicy) RetriesMethod(method string) bool {
	return slices.Contains(p.Methods, method)
}

type attemptTimeoutKey struct{}

// WithAttemptTimeout returns a context that tells RetryTransport to bound each
// underlying try by d. Backoff sleeps between tries are not counted.
func WithAttemptTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, attemptTimeoutKey{}, d)
}

func attemptTimeout(ctx context.Context) (time.Duration, bool) {
	d, ok := ctx.Value(attemptTimeoutKey{}).(time.Duration)
	return d, ok && d > 0
}

var _ http.RoundTripper = (*RetryTransport)(nil)

// RetryTransport is an http.RoundTripper that retries responses whose status
// is in the policy's forcelist. Transport errors are returned immediately
// unless the policy retries connect errors and the dial itself failed.
type RetryTransport struct {
	Base   http.RoundTripper // Underlying transport; falls back to http.DefaultTransport.
	Policy RetryPolicy
	Logger *slog.Logger

	// sleepFunc is used for testing; defaults to a context-aware sleep.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewRetryTransport wraps base with the given policy.
func NewRetryTransport(base http.RoundTripper, policy RetryPolicy, logger *slog.Logger) *RetryTransport {
	return &RetryTransport{
		Base:      base,
		Policy:    policy,
		Logger:    logger,
		sleepFunc: contextSleep,
	}
}

// SetSleepFunc overrides the sleep function (for testing).
func (t *RetryTransport) SetSleepFunc(fn func(ctx context.Context, d time.Duration) error) {
	t.sleepFunc = fn
}

// CloseIdleConnections closes idle connections held by the base transport.
func (t *RetryTransport) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if ci, ok := t.base().(closeIdler); ok {
		ci.CloseIdleConnections()
	}
}

func (t *RetryTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *RetryTransport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return discardLogger
}

func (t *RetryTransport) sleep(ctx context.Context, d time.Duration) error {
	if t.sleepFunc != nil {
		return t.sleepFunc(ctx, d)
	}
	return contextSleep(ctx, d)
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
	retryable := replayable && t.Policy.Total > 0 && t.Policy.RetriesMethod(req.Method)

	for attempt := 0; ; attempt++ {
		resp, err := t.try(req, attempt)
		if err != nil {
			if !retryable || attempt >= t.Policy.Total || !t.Policy.RetryConnectErrors ||
				ctx.Err() != nil || !isConnectError(err) {
				return nil, err
			}

			wait := t.Policy.Backoff(attempt + 1)
			t.logger().WarnContext(ctx, "retrying request after connect error",
				"method", req.Method,
				"url", req.URL.Redacted(),
				"error", err,
				"retry", attempt+1,
				"of", t.Policy.Total,
				"wait", wait,
			)

			if err := t.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if !retryable || attempt >= t.Policy.Total || !t.Policy.RetriesStatus(resp.StatusCode) {
			return resp, nil
		}

		wait := t.Policy.Backoff(attempt + 1)
		if t.Policy.RespectRetryAfter && retryAfterApplies(resp.StatusCode) {
			if ra := ParseRetryAfter(resp.Header.Get("Retry-After")); ra > wait {
				wait = ra
			}
		}

		t.logger().WarnContext(ctx, "retrying request",
			"method", req.Method,
			"url", req.URL.Redacted(),
			"status", resp.StatusCode,
			"retry", attempt+1,
			"of", t.Policy.Total,
			"wait", wait,
		)

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if err := t.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// try sends one copy of req, rewinding the body on retries and applying the
// per-attempt timeout from the request context.
func (t *RetryTransport) try(req *http.Request, attempt int) (*http.Response, error) {
	r := req
	cancel := context.CancelFunc(func() {})

	if d, ok := attemptTimeout(req.Context()); ok {
		var ctx context.Context
		ctx, cancel = context.WithTimeout(req.Context(), d)
		r = req.Clone(ctx)
	} else if attempt > 0 {
		r = req.Clone(req.Context())
	}

	if attempt > 0 && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			cancel()
			return nil, err
		}
		r.Body = body
	}

	resp, err := t.base().RoundTrip(r)
	if err != nil {
		cancel()
		return nil, err
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	return resp, nil
}

// isConnectError reports whether err came from a dial that failed outright
// (refused, unreachable, DNS). Dial timeouts are left to the caller.
func isConnectError(err error) bool {
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "dial" && !op.Timeout()
}

func retryAfterApplies(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// cancelOnClose releases the per-attempt context once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// contextSleep sleeps for d or until ctx is cancelled.
func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
