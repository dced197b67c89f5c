package chat

import (
	"testing"

	"github.com/germanamz/statai/pkg/chats/message"
	"github.com/germanamz/statai/pkg/chats/role"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	c := New(message.System("be brief"), message.User("hello"))

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, role.System, c.At(0).Role)
	assert.Equal(t, "hello", c.At(1).Content)
}

func TestChat_ZeroValue(t *testing.T) {
	var c Chat

	assert.Equal(t, 0, c.Len())
}

func TestChat_At_Panics(t *testing.T) {
	c := New()
	assert.Panics(t, func() { c.At(0) })
}
