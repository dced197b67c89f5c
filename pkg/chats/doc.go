// Package chats provides the provider-agnostic message model sent to the
// completion endpoint.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/statai/pkg/chats/role]: conversation roles (system, user, assistant)
//   - [github.com/germanamz/statai/pkg/chats/message]: a role paired with its text content
//   - [github.com/germanamz/statai/pkg/chats/chat]: ordered conversation container
package chats
