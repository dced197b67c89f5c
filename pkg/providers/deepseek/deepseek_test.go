package deepseek_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/germanamz/statai/pkg/chats/chat"
	"github.com/germanamz/statai/pkg/chats/message"
	"github.com/germanamz/statai/pkg/chats/role"
	"github.com/germanamz/statai/pkg/modeladapter"
	"github.com/germanamz/statai/pkg/providers/deepseek"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *deepseek.Adapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := deepseek.New(srv.URL, "test-key", "")
	t.Cleanup(func() { _ = a.Close() })

	return a
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}

	return req
}

func textReply(text string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]any{"role": "assistant", "content": text},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5},
	}
}

func TestNew_Defaults(t *testing.T) {
	a := deepseek.New("", "k", "")

	assert.Equal(t, deepseek.DefaultBaseURL, a.BaseURL)
	assert.Equal(t, deepseek.DefaultModel, a.Name)
	assert.Equal(t, "k", a.Auth.Key)
	assert.Equal(t, modeladapter.DefaultRetryPolicy(), a.Retry)
	assert.Equal(t, modeladapter.DefaultEscalation(), a.Escalation)
}

func TestComplete_SystemAndUser(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		req := readBody(t, r)

		assert.Equal(t, "deepseek-chat", req["model"])
		assert.InDelta(t, 0.3, req["temperature"], 1e-9)
		assert.InDelta(t, 2000, req["max_tokens"], 1e-9)

		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 2)

		first, _ := msgs[0].(map[string]any)
		assert.Equal(t, "system", first["role"])
		assert.Equal(t, "You are a Stata expert.", first["content"])

		second, _ := msgs[1].(map[string]any)
		assert.Equal(t, "user", second["role"])

		writeJSON(t, w, textReply("summarize price"))
	})
	a.Temperature = 0.3
	a.MaxTokens = 2000

	msg, err := a.Complete(context.Background(), chat.New(
		message.System("You are a Stata expert."),
		message.User("What should I run?"),
	))
	require.NoError(t, err)

	assert.Equal(t, role.Assistant, msg.Role)
	assert.Equal(t, "summarize price", msg.Content)

	var reporter modeladapter.UsageReporter = a
	assert.Equal(t, 1, reporter.UsageTracker().Requests())
	assert.Equal(t, 15, reporter.UsageTracker().Total().Total())
}

func TestComplete_OmitsZeroMaxTokensButKeepsTemperature(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		_, hasMax := req["max_tokens"]
		assert.False(t, hasMax)

		temp, hasTemp := req["temperature"]
		assert.True(t, hasTemp)
		assert.InDelta(t, 0.7, temp, 1e-9)

		writeJSON(t, w, textReply("hi"))
	})
	a.Temperature = 0.7

	_, err := a.Complete(context.Background(), chat.New(message.User("hello")))
	require.NoError(t, err)
}

func TestComplete_EmptyChoices(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"choices": []any{}})
	})

	_, err := a.Complete(context.Background(), chat.New(message.User("hello")))
	require.ErrorIs(t, err, deepseek.ErrUnexpectedResponse)
}

func TestComplete_MissingChoices(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"id": "x"})
	})

	_, err := a.Complete(context.Background(), chat.New(message.User("hello")))
	require.ErrorIs(t, err, deepseek.ErrUnexpectedResponse)
}

func TestComplete_NullContent(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": nil}}},
		})
	})

	msg, err := a.Complete(context.Background(), chat.New(message.User("hello")))
	require.NoError(t, err)
	assert.Empty(t, msg.Content)
}

func TestComplete_HTTPError(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Authentication Fails"}}`))
	})

	_, err := a.Complete(context.Background(), chat.New(message.User("hello")))
	require.Error(t, err)

	var se *modeladapter.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Contains(t, err.Error(), "deepseek:")
}

func TestComplete_InvalidRole(t *testing.T) {
	a := deepseek.New("http://unused.invalid", "k", "")

	_, err := a.Complete(context.Background(), chat.New(message.New("tool", "x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid message role")
}

func TestComplete_EmptyConversation(t *testing.T) {
	a := deepseek.New("http://unused.invalid", "k", "")

	_, err := a.Complete(context.Background(), chat.New())
	require.Error(t, err)
}
