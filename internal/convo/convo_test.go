package convo

import (
	"testing"

	"github.com/ringbridge/ringbridge/internal/message"
)

func TestFindActiveMatchesExactPair(t *testing.T) {
	r := NewRegistry()
	c1 := r.Start(&message.Message{User: "u1", Channel: "g1"}, nil)
	c2 := r.Start(&message.Message{User: "u2", Channel: "g2"}, nil)

	if got := r.FindActive("u2", "g2"); got != c2 {
		t.Fatalf("expected second conversation, got %+v", got)
	}
	if got := r.FindActive("u1", "g1"); got != c1 {
		t.Fatalf("expected first conversation, got %+v", got)
	}
	if got := r.FindActive("u1", "g2"); got != nil {
		t.Fatal("mismatched pair must not match")
	}
}

func TestFindActiveSkipsInactiveConversations(t *testing.T) {
	r := NewRegistry()
	c := r.Start(&message.Message{User: "u1", Channel: "g1"}, nil)
	c.End()
	if got := r.FindActive("u1", "g1"); got != nil {
		t.Fatal("inactive conversation must not match even with an equal pair")
	}
}

func TestFindActiveFirstMatchWinsInCreationOrder(t *testing.T) {
	r := NewRegistry()
	first := r.Start(&message.Message{User: "u1", Channel: "g1"}, nil)
	r.Start(&message.Message{User: "u1", Channel: "g1"}, nil)
	if got := r.FindActive("u1", "g1"); got != first {
		t.Fatal("expected earliest created conversation to win")
	}
}

func TestMatchTrimsTextAndRoutesToConversation(t *testing.T) {
	r := NewRegistry()
	want := r.Start(&message.Message{User: "u1", Channel: "g1"}, nil)
	m := &message.Message{User: "u1", Channel: "g1", Text: "  reply  "}

	var got *Conversation
	r.Match(m, func(c *Conversation) { got = c })
	if got != want {
		t.Fatalf("expected started conversation, got %+v", got)
	}
	if m.Text != "reply" {
		t.Fatalf("expected trimmed text, got %q", m.Text)
	}
}

func TestMatchWithoutConversationInvokesWithNil(t *testing.T) {
	r := NewRegistry()
	invoked := false
	r.Match(&message.Message{User: "u1", Channel: "g1"}, func(c *Conversation) {
		invoked = true
		if c != nil {
			t.Fatalf("expected no conversation, got %+v", c)
		}
	})
	if !invoked {
		t.Fatal("callback must run even with no match")
	}
}

func TestConversationHandleInvokesHandler(t *testing.T) {
	r := NewRegistry()
	var seen *message.Message
	c := r.Start(&message.Message{User: "u1", Channel: "g1"}, func(c *Conversation, m *message.Message) {
		seen = m
	})
	m := &message.Message{User: "u1", Channel: "g1", Text: "hi"}
	c.Handle(m)
	if seen != m {
		t.Fatal("handler must receive the routed message")
	}
}
