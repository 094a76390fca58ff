// Package convo holds multi-turn conversation state and the matcher that
// routes an inbound message back into the exchange it belongs to.
package convo

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ringbridge/ringbridge/internal/message"
)

// Handler is invoked with each message routed into a conversation.
type Handler func(c *Conversation, m *message.Message)

// Conversation is one multi-turn exchange, keyed by the user and channel of
// the message that started it.
type Conversation struct {
	ID string
	// Source is the message that opened the exchange; its User and Channel
	// are the matching key and never change afterwards.
	Source message.Message

	mu      sync.Mutex
	active  bool
	handler Handler
}

// IsActive reports whether the conversation still accepts messages.
func (c *Conversation) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// End deactivates the conversation; subsequent messages start fresh.
func (c *Conversation) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
}

// Handle hands a routed message to the conversation's handler.
func (c *Conversation) Handle(m *message.Message) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h != nil {
		h(c, m)
	}
}

// Task groups the conversations created by one unit of host work.
type Task struct {
	convos []*Conversation
}

// Registry owns the live task and conversation collections.
type Registry struct {
	mu    sync.RWMutex
	tasks []*Task
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Start opens a new conversation for the source message under a fresh task.
func (r *Registry) Start(src *message.Message, h Handler) *Conversation {
	c := &Conversation{
		ID:      uuid.NewString(),
		Source:  *src,
		active:  true,
		handler: h,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, &Task{convos: []*Conversation{c}})
	return c
}
