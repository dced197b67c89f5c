// Package modeladapter holds the HTTP plumbing shared by LLM completion
// adapters.
//
// It contains:
//   - [Completer] interface and embeddable [ModelAdapter] base struct with auth, custom headers, and JSON POST helpers
//   - [RetryTransport], an http.RoundTripper that retries transient statuses with exponential backoff
//   - [Escalation], a single timeout-triggered retry with a longer deadline, applied by [ModelAdapter.PostJSON]
//
// The two retry layers are configured independently. This package contains
// no provider-specific code; concrete adapters live in separate packages that
// import modeladapter.
package modeladapter
