package pipeline

import (
	"context"
	"testing"

	"github.com/ringbridge/ringbridge/internal/identity"
	"github.com/ringbridge/ringbridge/internal/message"
)

func inboundContext(raw *message.RawEvent) *Context {
	return &Context{Ctx: context.Background(), Message: message.FromRaw(raw)}
}

func TestNormalizeMapsRawPayload(t *testing.T) {
	pc := inboundContext(&message.RawEvent{Body: message.RawBody{
		GroupID: "g1", CreatorID: "u1", Text: "hello", Type: "TextMessage",
	}})
	if res, err := Normalize()(pc); err != nil || res != Continue {
		t.Fatalf("normalize: res=%v err=%v", res, err)
	}
	m := pc.Message
	if m.Channel != "g1" || m.User != "u1" || m.Text != "hello" || m.Type != "TextMessage" {
		t.Fatalf("unexpected message after normalize: %+v", m)
	}

	// Idempotent when invoked twice with the same raw payload.
	if _, err := Normalize()(pc); err != nil {
		t.Fatalf("second normalize: %v", err)
	}
	if m.Channel != "g1" || m.User != "u1" || m.Text != "hello" || m.Type != "TextMessage" {
		t.Fatalf("normalize not idempotent: %+v", m)
	}
}

func TestCategorizeSuppressesSelfAuthoredMessages(t *testing.T) {
	ids := identity.NewTracker()
	ids.Set(identity.BotIdentity{ID: "bot1", Name: "Ringo"})
	pc := &Context{Ctx: context.Background(), Message: &message.Message{User: "bot1", Type: "TextMessage"}}
	res, err := Categorize(ids)(pc)
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if res != Abort {
		t.Fatal("self-authored message must abort the chain")
	}
}

func TestCategorizeUnresolvedIdentityIsNoOp(t *testing.T) {
	pc := &Context{Ctx: context.Background(), Message: &message.Message{User: "u1", Type: "TextMessage", Text: " hi "}}
	res, err := Categorize(identity.NewTracker())(pc)
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if res != Continue {
		t.Fatal("unresolved identity must not suppress messages")
	}
}

func TestCategorizeRewritesTextMessage(t *testing.T) {
	pc := &Context{Ctx: context.Background(), Message: &message.Message{
		User: "u1", Type: "TextMessage", Text: "  hello world  ",
	}}
	if _, err := Categorize(identity.NewTracker())(pc); err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if pc.Message.Type != message.TypeMessageReceived {
		t.Fatalf("expected canonical type, got %q", pc.Message.Type)
	}
	if pc.Message.Text != "hello world" {
		t.Fatalf("expected trimmed text, got %q", pc.Message.Text)
	}
}

func TestCategorizeStripsDirectMentionMarkup(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"<a>...</a>@bot hello there", "hello there"},
		{"<a>first</a> and <a>second</a>@bot do it", "do it"},
		{"no markup at all", "no markup at all"},
		{"<a>only mention</a>@bot", ""},
	}
	for _, tc := range cases {
		pc := &Context{Ctx: context.Background(), Message: &message.Message{
			User: "u1", Type: message.TypeDirectMention, Text: tc.in,
		}}
		if _, err := Categorize(identity.NewTracker())(pc); err != nil {
			t.Fatalf("categorize(%q): %v", tc.in, err)
		}
		if pc.Message.Text != tc.want {
			t.Fatalf("categorize(%q): got %q, want %q", tc.in, pc.Message.Text, tc.want)
		}
	}
}

func TestFormatCopiesEverySetFieldAndNothingElse(t *testing.T) {
	raw := &message.RawEvent{Body: message.RawBody{GroupID: "g1"}}
	m := &message.Message{Channel: "g1", User: "u1", Text: "hi", Type: message.TypeMessageReceived, Raw: raw}
	pc := &Context{Ctx: context.Background(), Message: m, Outbound: make(message.OutboundPayload)}
	if _, err := Format()(pc); err != nil {
		t.Fatalf("format: %v", err)
	}
	want := m.Fields()
	if len(pc.Outbound) != len(want) {
		t.Fatalf("outbound has %d keys, want %d: %v", len(pc.Outbound), len(want), pc.Outbound)
	}
	for k, v := range want {
		if pc.Outbound[k] != v {
			t.Fatalf("outbound[%q] = %v, want %v", k, pc.Outbound[k], v)
		}
	}
}
