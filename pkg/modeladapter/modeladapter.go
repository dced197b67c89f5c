package modeladapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/germanamz/statai/pkg/chats/chat"
	"github.com/germanamz/statai/pkg/chats/message"
	"github.com/germanamz/statai/pkg/modeladapter/usage"
)

// maxErrorBody bounds how much of a failed response body is kept in errors.
const maxErrorBody = 4096

// Completer sends a conversation to an LLM and returns the assistant's reply.
type Completer interface {
	Complete(ctx context.Context, c *chat.Chat) (message.Message, error)
}

// UsageReporter provides token usage information from a completer.
type UsageReporter interface {
	UsageTracker() *usage.Tracker
}

// Auth holds authentication settings for an LLM provider API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// Escalation configures the application-level retry that runs on top of the
// transport: a request that times out is retried once with a longer timeout.
type Escalation struct {
	FirstTimeout  time.Duration // Per-try timeout of the first attempt (0 = none).
	RetryDelay    time.Duration // Pause before the second attempt.
	SecondTimeout time.Duration // Per-try timeout of the second attempt (0 disables escalation).
}

// DefaultEscalation waits 45s, then retries once after 2s with a 90s timeout.
func DefaultEscalation() Escalation {
	return Escalation{
		FirstTimeout:  45 * time.Second,
		RetryDelay:    2 * time.Second,
		SecondTimeout: 90 * time.Second,
	}
}

// Enabled reports whether a timed-out first attempt gets a second one.
func (e Escalation) Enabled() bool { return e.SecondTimeout > 0 }

// ModelAdapter holds shared state for LLM provider implementations. Embed it in
// concrete provider structs to get HTTP helpers, auth, custom headers, and the
// two retry layers. Concrete types define their own Complete method.
type ModelAdapter struct {
	Name        string            // Model identifier (e.g. "deepseek-chat").
	Temperature float64           // Sampling temperature.
	MaxTokens   int               // Maximum tokens in the response (0 = provider default).
	Auth        Auth              // Authentication settings.
	BaseURL     string            // API base URL (no trailing slash).
	Client      *http.Client      // HTTP client; nil builds a pooled client with a RetryTransport.
	Headers     map[string]string // Extra headers applied to every request.
	Retry       RetryPolicy       // Transport-level retry policy for the default client.
	Escalation  Escalation        // Timeout escalation applied by PostJSON.
	Logger      *slog.Logger      // Optional; nil discards logs.
	Usage       usage.Tracker     // Token usage of completed requests.

	clientOnce    sync.Once
	defaultClient *http.Client

	// sleepFunc is used for testing; defaults to a context-aware sleep.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// New creates a ModelAdapter with the default retry policy and escalation.
// A nil client builds a dedicated pooled client on first use.
func New(baseURL string, auth Auth, client *http.Client) ModelAdapter {
	return ModelAdapter{
		Auth:       auth,
		BaseURL:    baseURL,
		Client:     client,
		Retry:      DefaultRetryPolicy(),
		Escalation: DefaultEscalation(),
	}
}

// UsageTracker returns the adapter's token usage tracker.
func (a *ModelAdapter) UsageTracker() *usage.Tracker { return &a.Usage }

// SetSleepFunc overrides the escalation delay (for testing).
func (a *ModelAdapter) SetSleepFunc(fn func(ctx context.Context, d time.Duration) error) {
	a.sleepFunc = fn
}

// Log returns the adapter's logger, or a logger that discards everything.
func (a *ModelAdapter) Log() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return discardLogger
}

// httpClient returns the configured client or a cached client whose transport
// applies the adapter's retry policy over its own connection pool.
func (a *ModelAdapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	a.clientOnce.Do(func() {
		base := http.DefaultTransport.(*http.Transport).Clone()
		a.defaultClient = &http.Client{
			Transport: NewRetryTransport(base, a.Retry, a.Logger),
		}
	})

	return a.defaultClient
}

// Close releases pooled connections. It is safe to call more than once and
// on an adapter that never sent a request.
func (a *ModelAdapter) Close() error {
	a.httpClient().CloseIdleConnections()
	return nil
}

// NewRequest builds an *http.Request with the base URL, auth, and custom
// headers already applied.
func (a *ModelAdapter) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := a.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	// Apply auth.
	if a.Auth.Key != "" {
		header := a.Auth.Header
		if header == "" {
			header = "Authorization"
		}

		value := a.Auth.Key
		if header == "Authorization" {
			scheme := a.Auth.Scheme
			if scheme == "" {
				scheme = "Bearer"
			}

			value = scheme + " " + value
		} else if a.Auth.Scheme != "" {
			value = a.Auth.Scheme + " " + value
		}

		req.Header.Set(header, value)
	}

	// Apply custom headers.
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Do sends the request using the configured HTTP client.
func (a *ModelAdapter) Do(req *http.Request) (*http.Response, error) {
	return a.httpClient().Do(req) //nolint:gosec // URL is built from trusted BaseURL config, not user input.
}

// PostJSON marshals payload as JSON, POSTs it to path, checks for a 2xx
// status, and unmarshals the response body into dest. If the first attempt
// times out and escalation is enabled, it waits Escalation.RetryDelay and
// tries once more with Escalation.SecondTimeout. Other failures are returned
// without the extra attempt.
func (a *ModelAdapter) PostJSON(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = a.postOnce(ctx, path, body, dest, a.Escalation.FirstTimeout)
	if err == nil || !IsTimeout(err) || ctx.Err() != nil {
		return err
	}

	if !a.Escalation.Enabled() {
		return &TimeoutError{Attempts: 1, Limit: a.Escalation.FirstTimeout, Err: err}
	}

	a.Log().WarnContext(ctx, "initial request timed out, retrying with longer timeout",
		"path", path,
		"timeout", a.Escalation.SecondTimeout,
		"delay", a.Escalation.RetryDelay,
	)

	if err := a.sleep(ctx, a.Escalation.RetryDelay); err != nil {
		return err
	}

	err = a.postOnce(ctx, path, body, dest, a.Escalation.SecondTimeout)
	if err != nil && IsTimeout(err) && ctx.Err() == nil {
		return &TimeoutError{Attempts: 2, Limit: a.Escalation.SecondTimeout, Err: err}
	}

	return err
}

func (a *ModelAdapter) sleep(ctx context.Context, d time.Duration) error {
	if a.sleepFunc != nil {
		return a.sleepFunc(ctx, d)
	}
	return contextSleep(ctx, d)
}

// postOnce performs a single application-level attempt. The transport may
// still retry underneath it.
func (a *ModelAdapter) postOnce(ctx context.Context, path string, body []byte, dest any, timeout time.Duration) error {
	if timeout > 0 {
		ctx = WithAttemptTimeout(ctx, timeout)
		// Only RetryTransport reads the attempt timeout; bound the whole call
		// for any other transport.
		if _, ok := a.httpClient().Transport.(*RetryTransport); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
	}

	req, err := a.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RateLimitError{
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if IsTimeout(err) {
			return fmt.Errorf("read response: %w", err)
		}
		return fmt.Errorf("decode response: %w: %w", ErrDecode, err)
	}

	return nil
}

// ErrDecode marks a 2xx response whose body is not valid JSON.
var ErrDecode = errors.New("invalid response body")
