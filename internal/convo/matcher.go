package convo

import (
	"strings"

	"github.com/ringbridge/ringbridge/internal/message"
)

// FindActive returns the first active conversation whose source user and
// channel both equal the given pair, or nil. Tasks are scanned in creation
// order and conversations within a task in creation order; first match wins.
//
// This is a linear scan: O(total conversations) per inbound message. The
// working set of concurrently active conversations is expected to stay
// small, so no index is kept.
func (r *Registry) FindActive(user, channel string) *Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tasks {
		for _, c := range t.convos {
			if c.IsActive() && c.Source.User == user && c.Source.Channel == channel {
				return c
			}
		}
	}
	return nil
}

// Match looks up the conversation the inbound message belongs to. On a
// match the message text is trimmed and fn receives the conversation; on no
// match fn receives nil and the caller starts fresh.
func (r *Registry) Match(m *message.Message, fn func(*Conversation)) {
	c := r.FindActive(m.User, m.Channel)
	if c != nil && m.Text != "" {
		m.Text = strings.TrimSpace(m.Text)
	}
	fn(c)
}
