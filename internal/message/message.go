// Package message defines the platform-agnostic message shape shared by the
// pipeline, the conversation layer, and the outbound send path.
package message

import "encoding/json"

// Canonical message types produced by the categorize stage.
const (
	TypeMessageReceived = "message_received"
	TypeDirectMention   = "direct_mention"
	TypeTyping          = "typing"
)

// RawBody is the platform-specific inner payload of a webhook delivery.
type RawBody struct {
	GroupID   string `json:"groupId"`
	CreatorID string `json:"creatorId"`
	Text      string `json:"text"`
	Type      string `json:"type"`
}

// RawEvent is a webhook delivery as posted by the platform.
type RawEvent struct {
	Body RawBody `json:"body"`
}

// Message is built incrementally as a delivery moves through the pipeline.
// Channel, User, Text and Type are authoritative only after the normalize
// stage has run; Raw always carries the untouched original payload.
type Message struct {
	Channel string
	User    string
	Text    string
	Type    string
	Raw     *RawEvent
}

// FromRaw creates a Message that carries the original payload and nothing
// else; the normalize stage fills in the canonical fields.
func FromRaw(raw *RawEvent) *Message {
	return &Message{Raw: raw}
}

// Fields returns the set of fields actually populated on the message, keyed
// the way the platform wire format expects them. The format stage copies
// these key by key onto the outbound payload, so the result must contain
// every set field and nothing else.
func (m *Message) Fields() map[string]any {
	out := make(map[string]any)
	if m.Channel != "" {
		out["channel"] = m.Channel
	}
	if m.User != "" {
		out["user"] = m.User
	}
	if m.Text != "" {
		out["text"] = m.Text
	}
	if m.Type != "" {
		out["type"] = m.Type
	}
	if m.Raw != nil {
		out["raw"] = m.Raw
	}
	return out
}

// OutboundPayload is the flat platform-specific object handed to the send
// path after the format stage has run.
type OutboundPayload map[string]any

// JSON renders the payload for logging and webhook relay.
func (p OutboundPayload) JSON() ([]byte, error) {
	return json.Marshal(map[string]any(p))
}
