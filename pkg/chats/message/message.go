// Package message defines a single chat message.
package message

import (
	"strings"

	"github.com/germanamz/statai/pkg/chats/role"
)

// Message is one turn of a conversation.
type Message struct {
	Role    role.Role
	Content string
}

// New creates a Message with the given role and text.
func New(r role.Role, content string) Message {
	return Message{Role: r, Content: content}
}

// System is shorthand for New(role.System, content).
func System(content string) Message { return New(role.System, content) }

// User is shorthand for New(role.User, content).
func User(content string) Message { return New(role.User, content) }

// Assistant is shorthand for New(role.Assistant, content).
func Assistant(content string) Message { return New(role.Assistant, content) }

// Empty reports whether the message carries only whitespace.
func (m Message) Empty() bool {
	return strings.TrimSpace(m.Content) == ""
}
