// Package usage accumulates token counts reported by the chat-completion API.
package usage

import "sync"

// TokenCount holds the token counts of one completion.
type TokenCount struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns the sum of prompt and completion tokens.
func (tc TokenCount) Total() int {
	return tc.PromptTokens + tc.CompletionTokens
}

// Tracker sums token usage over the completions of one invocation.
// It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	total    TokenCount
	requests int
}

// Add records the usage of one completion.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total.PromptTokens += tc.PromptTokens
	t.total.CompletionTokens += tc.CompletionTokens
	t.requests++
}

// Total returns the accumulated counts.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Requests returns how many completions were recorded.
func (t *Tracker) Requests() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.requests
}
