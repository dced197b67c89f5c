// Package deepseek provides a Completer implementation for the DeepSeek Chat
// Completions API, which follows the OpenAI wire format.
package deepseek

import (
	"context"
	"errors"
	"fmt"

	"github.com/germanamz/statai/pkg/chats/chat"
	"github.com/germanamz/statai/pkg/chats/message"
	"github.com/germanamz/statai/pkg/modeladapter"
	"github.com/germanamz/statai/pkg/modeladapter/usage"
)

const (
	// DefaultBaseURL is the public DeepSeek API host.
	DefaultBaseURL = "https://api.deepseek.com"
	// DefaultModel is the general chat model.
	DefaultModel = "deepseek-chat"

	completionsPath = "/v1/chat/completions"
)

// ErrUnexpectedResponse is returned when a 2xx response carries no choices.
var ErrUnexpectedResponse = errors.New("deepseek: unexpected response format")

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer for the DeepSeek API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter with the default retry policy and timeout
// escalation. Empty baseURL and model fall back to the defaults.
func New(baseURL, apiKey, model string) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	a := &Adapter{ModelAdapter: modeladapter.New(baseURL, modeladapter.Auth{Key: apiKey}, nil)}
	a.Name = model

	return a
}

// Complete sends the conversation and returns the first choice's message.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat) (message.Message, error) {
	req, err := a.buildRequest(c)
	if err != nil {
		return message.Message{}, err
	}

	var resp apiResponse
	if err := a.PostJSON(ctx, completionsPath, req, &resp); err != nil {
		return message.Message{}, fmt.Errorf("deepseek: %w", err)
	}

	a.Usage.Add(usage.TokenCount{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	})

	a.Log().DebugContext(ctx, "completion received",
		"model", a.Name,
		"choices", len(resp.Choices),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	if len(resp.Choices) == 0 {
		return message.Message{}, ErrUnexpectedResponse
	}

	choice := resp.Choices[0]
	var text string
	if choice.Message.Content != nil {
		text = *choice.Message.Content
	}

	return message.Assistant(text), nil
}

// --- request types ---

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- response types ---

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message      apiRespMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type apiRespMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(c *chat.Chat) (apiRequest, error) {
	if c.Len() == 0 {
		return apiRequest{}, errors.New("deepseek: empty conversation")
	}

	req := apiRequest{
		Model:       a.Name,
		Messages:    make([]apiMessage, 0, c.Len()),
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
	}

	for i := range c.Len() {
		m := c.At(i)
		if !m.Role.Valid() {
			return apiRequest{}, fmt.Errorf("deepseek: invalid message role at index %d: %q", i, m.Role)
		}
		req.Messages = append(req.Messages, apiMessage{Role: m.Role.String(), Content: m.Content})
	}

	return req, nil
}
