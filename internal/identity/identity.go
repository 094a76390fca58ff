// Package identity tracks the bot's own platform identity so the pipeline
// can distinguish self-authored events.
package identity

import "sync"

// BotIdentity is the result of the platform's "who am I" call.
type BotIdentity struct {
	ID   string
	Name string
}

// Tracker holds the current bot identity. It is overwritten whole on each
// successful identity resolution, never partially updated. Until the first
// resolution, self-filtering degrades to a no-op.
type Tracker struct {
	mu       sync.RWMutex
	identity BotIdentity
	resolved bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Set replaces the tracked identity atomically.
func (t *Tracker) Set(id BotIdentity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.identity = id
	t.resolved = true
}

// Get returns the current identity and whether it has been resolved.
func (t *Tracker) Get() (BotIdentity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.identity, t.resolved
}

// IsSelf reports whether userID belongs to the bot. An unresolved identity
// never matches, so unfiltered events flow through rather than crashing.
func (t *Tracker) IsSelf(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolved && userID != "" && userID == t.identity.ID
}
