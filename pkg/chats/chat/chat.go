// Package chat provides an ordered conversation container.
package chat

import "github.com/germanamz/statai/pkg/chats/message"

// Chat is an ordered list of messages. The zero value is an empty
// conversation. Chat is not safe for concurrent use.
type Chat struct {
	messages []message.Message
}

// New creates a Chat holding the given messages in order.
func New(msgs ...message.Message) *Chat {
	return &Chat{messages: msgs}
}

// Len returns the number of messages in the conversation.
func (c *Chat) Len() int {
	return len(c.messages)
}

// At returns the message at the given index.
// It panics if the index is out of range.
func (c *Chat) At(index int) message.Message {
	return c.messages[index]
}
