package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ringbridge/ringbridge/internal/identity"
	"github.com/ringbridge/ringbridge/internal/message"
	"github.com/ringbridge/ringbridge/internal/platform"
)

func TestTypingDelayComputation(t *testing.T) {
	cases := []struct {
		chars int
		want  time.Duration
	}{
		{10, 200 * time.Millisecond},
		{100, 2000 * time.Millisecond},
		{150, 2000 * time.Millisecond}, // 3000ms pre-cap, clamped
		{0, 0},
	}
	for _, tc := range cases {
		text := strings.Repeat("a", tc.chars)
		if got := TypingDelay(text); got != tc.want {
			t.Fatalf("TypingDelay(%d chars) = %v, want %v", tc.chars, got, tc.want)
		}
	}
}

func TestReplyWithTypingEmitsIndicatorThenReply(t *testing.T) {
	posts := make(chan map[string]string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		posts <- body
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	b := New(platform.NewClient(srv.URL), identity.NewTracker())
	src := &message.Message{User: "u1", Channel: "g1"}
	start := time.Now()
	b.ReplyWithTyping(context.Background(), src, "hey") // 3 chars -> 60ms delay

	first := waitPost(t, posts)
	if first["text"] != "" {
		t.Fatalf("typing indicator must carry no text, got %v", first)
	}
	second := waitPost(t, posts)
	if second["text"] != "hey" || second["groupId"] != "g1" {
		t.Fatalf("unexpected reply post: %v", second)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("reply arrived before the typing delay elapsed: %v", elapsed)
	}
}

func TestReplyWithTypingSurvivesCancelledRequestContext(t *testing.T) {
	posts := make(chan map[string]string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		posts <- body
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	b := New(platform.NewClient(srv.URL), identity.NewTracker())
	ctx, cancel := context.WithCancel(context.Background())
	b.ReplyWithTyping(ctx, &message.Message{User: "u1", Channel: "g1"}, "hi")
	cancel() // the webhook transaction ends before the delay fires

	waitPost(t, posts) // typing indicator
	reply := waitPost(t, posts)
	if reply["text"] != "hi" {
		t.Fatalf("delayed reply must still be delivered, got %v", reply)
	}
}

func waitPost(t *testing.T, posts chan map[string]string) map[string]string {
	t.Helper()
	select {
	case p := <-posts:
		return p
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for an outbound post")
		return nil
	}
}
