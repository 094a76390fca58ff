package pipeline

import (
	"strings"

	"github.com/ringbridge/ringbridge/internal/identity"
	"github.com/ringbridge/ringbridge/internal/message"
)

// Platform-raw event types rewritten by the categorize stage.
const rawTypeTextMessage = "TextMessage"

const mentionCloseTag = "</a>"

// Ingest acknowledges the originating HTTP transaction before the chain
// advances, so downstream failures never reach the sender.
func Ingest() Handler {
	return func(pc *Context) (Result, error) {
		if pc.Ack != nil {
			pc.Ack()
		}
		return Continue, nil
	}
}

// Normalize maps the raw platform payload onto the canonical message
// fields. Safe to run twice on the same payload.
func Normalize() Handler {
	return func(pc *Context) (Result, error) {
		m := pc.Message
		if m == nil || m.Raw == nil {
			return Continue, nil
		}
		m.Channel = m.Raw.Body.GroupID
		m.User = m.Raw.Body.CreatorID
		m.Text = m.Raw.Body.Text
		m.Type = m.Raw.Body.Type
		return Continue, nil
	}
}

// Categorize rewrites the raw event type to a canonical one, post-processes
// the text, and suppresses messages the bot authored itself. When the bot
// identity is not yet resolved, self-filtering is a no-op.
func Categorize(ids *identity.Tracker) Handler {
	return func(pc *Context) (Result, error) {
		m := pc.Message
		if m == nil {
			return Continue, nil
		}
		if ids != nil && ids.IsSelf(m.User) {
			return Abort, nil
		}
		switch m.Type {
		case rawTypeTextMessage:
			m.Type = message.TypeMessageReceived
			m.Text = strings.TrimSpace(m.Text)
		case message.TypeDirectMention:
			m.Text = stripMentionMarkup(m.Text)
		}
		return Continue, nil
	}
}

// Receive is the pass-through hand-off point; the host hook is registered
// here as an additional handler.
func Receive() Handler {
	return func(pc *Context) (Result, error) {
		return Continue, nil
	}
}

// Format copies every populated message field onto the outbound platform
// payload, key by key, so the platform call receives a flat superset object.
func Format() Handler {
	return func(pc *Context) (Result, error) {
		if pc.Message == nil {
			return Continue, nil
		}
		for k, v := range pc.Message.Fields() {
			pc.Outbound[k] = v
		}
		return Continue, nil
	}
}

// stripMentionMarkup takes the text following the last closing markup tag of
// a direct mention, drops the leading @mention token, and trims the rest.
func stripMentionMarkup(text string) string {
	if idx := strings.LastIndex(text, mentionCloseTag); idx >= 0 {
		text = text[idx+len(mentionCloseTag):]
	}
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "@") {
		if _, rest, ok := strings.Cut(text, " "); ok {
			text = rest
		} else {
			text = ""
		}
	}
	return strings.TrimSpace(text)
}
