// Package providers groups the chat-completion backends statai can talk to.
//
// Each backend lives in its own sub-package and embeds
// [github.com/germanamz/statai/pkg/modeladapter.ModelAdapter] for auth, the
// transport retry policy and timeout escalation:
//   - [github.com/germanamz/statai/pkg/providers/deepseek]: the DeepSeek Chat Completions API
package providers
