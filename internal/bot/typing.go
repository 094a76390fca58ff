package bot

import (
	"context"
	"time"

	"github.com/ringbridge/ringbridge/internal/message"
)

// typingMsPerChar approximates a human typing rate of 60 chars per 1200ms.
const typingMsPerChar = 1200 / 60

// maxTypingDelay caps the simulated composing latency.
const maxTypingDelay = 2000 * time.Millisecond

// TypingDelay computes a human-plausible composing delay for a reply:
// text length x 20ms, clamped at 2000ms.
func TypingDelay(text string) time.Duration {
	d := time.Duration(len(text)) * typingMsPerChar * time.Millisecond
	if d > maxTypingDelay {
		d = maxTypingDelay
	}
	return d
}

// StartTyping emits a typing indicator for the source message's channel.
func (b *Bot) StartTyping(ctx context.Context, src *message.Message) {
	b.Reply(ctx, src, &message.Message{Type: message.TypeTyping})
}

// ReplyWithTyping emits a typing indicator immediately and the actual reply
// after the computed delay, so the bot appears to compose its response. The
// timer does not block other deliveries, and the reply outlives the
// originating request context.
func (b *Bot) ReplyWithTyping(ctx context.Context, src *message.Message, resp any) {
	text := responseMessage(resp).Text
	b.StartTyping(ctx, src)
	detached := context.WithoutCancel(ctx)
	srcCopy := *src
	time.AfterFunc(TypingDelay(text), func() {
		b.Reply(detached, &srcCopy, resp)
	})
}
