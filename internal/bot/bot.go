// Package bot ties the pipeline, the conversation layer, and the platform
// client together into the adapter's bot instance.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/ringbridge/ringbridge/internal/convo"
	"github.com/ringbridge/ringbridge/internal/identity"
	"github.com/ringbridge/ringbridge/internal/message"
	"github.com/ringbridge/ringbridge/internal/pipeline"
	"github.com/ringbridge/ringbridge/internal/platform"
)

// ErrNoWebhookURL is returned by SendWebhook before any network activity
// when no incoming webhook URL has been configured.
var ErrNoWebhookURL = errors.New("no incoming webhook URL specified")

// MessageFunc is the host hand-off hook, invoked with messages that did not
// match an ongoing conversation.
type MessageFunc func(b *Bot, m *message.Message)

// Bot is one adapter instance: a shared platform client, the staged
// pipeline, the bot's own identity, and the live conversation registry.
type Bot struct {
	client *platform.Client
	pipe   *pipeline.Pipeline
	ids    *identity.Tracker
	convos *convo.Registry
	httpc  *http.Client
	log    *slog.Logger

	mu                 sync.RWMutex
	incomingWebhookURL string
	onMessage          MessageFunc
}

// New creates a bot with the default pipeline stages installed.
func New(client *platform.Client, ids *identity.Tracker) *Bot {
	b := &Bot{
		client: client,
		ids:    ids,
		convos: convo.NewRegistry(),
		httpc:  http.DefaultClient,
		log:    slog.Default(),
	}
	p := pipeline.New()
	p.Use(pipeline.StageIngest, pipeline.Ingest())
	p.Use(pipeline.StageNormalize, pipeline.Normalize())
	p.Use(pipeline.StageCategorize, pipeline.Categorize(ids))
	p.Use(pipeline.StageReceive, pipeline.Receive(), b.dispatch)
	p.Use(pipeline.StageFormat, pipeline.Format())
	b.pipe = p
	return b
}

// Pipeline exposes the pipeline for additional handler registration.
func (b *Bot) Pipeline() *pipeline.Pipeline { return b.pipe }

// Identity returns the bot's identity tracker.
func (b *Bot) Identity() *identity.Tracker { return b.ids }

// Conversations returns the live conversation registry.
func (b *Bot) Conversations() *convo.Registry { return b.convos }

// OnMessage registers the host hand-off hook.
func (b *Bot) OnMessage(fn MessageFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onMessage = fn
}

// HandleDelivery submits a parsed webhook delivery into the pipeline's
// ingest entry. ack acknowledges the originating HTTP transaction and is
// called by the ingest stage.
func (b *Bot) HandleDelivery(ctx context.Context, raw *message.RawEvent, ack func()) {
	pc := &pipeline.Context{
		Ctx:     ctx,
		Message: message.FromRaw(raw),
		Ack:     ack,
	}
	b.pipe.RunInbound(pc)
}

// dispatch is the receive-stage hand-off: an ongoing conversation consumes
// the message if one matches, otherwise the registered hook gets it.
func (b *Bot) dispatch(pc *pipeline.Context) (pipeline.Result, error) {
	m := pc.Message
	if m == nil || m.Type == "" {
		return pipeline.Continue, nil
	}
	b.convos.Match(m, func(c *convo.Conversation) {
		if c != nil {
			c.Handle(m)
			return
		}
		b.mu.RLock()
		fn := b.onMessage
		b.mu.RUnlock()
		if fn != nil {
			fn(b, m)
		}
	})
	return pipeline.Continue, nil
}

// StartConversation opens a new multi-turn exchange keyed to the source
// message.
func (b *Bot) StartConversation(src *message.Message, h convo.Handler) *convo.Conversation {
	return b.convos.Start(src, h)
}

// Send runs the message through the format stage and posts it to the
// platform. Outbound delivery is best-effort: transport failures are logged
// and never surfaced to the caller.
func (b *Bot) Send(ctx context.Context, m *message.Message) {
	out := b.pipe.RunFormat(&pipeline.Context{
		Ctx:      ctx,
		Message:  m,
		Outbound: make(message.OutboundPayload),
	})
	channel, _ := out["channel"].(string)
	text, _ := out["text"].(string)
	if _, err := b.client.Post(ctx, "/restapi/v1.0/glip/posts", map[string]string{
		"groupId": channel,
		"text":    text,
	}); err != nil {
		b.log.Error("outbound send failed", "channel", channel, "error", err)
	}
}

// Reply normalizes a string-or-message response onto the source message's
// user and channel, then routes it through Send.
func (b *Bot) Reply(ctx context.Context, src *message.Message, resp any) {
	m := responseMessage(resp)
	m.User = src.User
	m.Channel = src.Channel
	b.Send(ctx, m)
}

// ConfigureIncomingWebhook sets the relay target for SendWebhook.
func (b *Bot) ConfigureIncomingWebhook(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrNoWebhookURL
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return fmt.Errorf("invalid incoming webhook URL: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.incomingWebhookURL = rawURL
	return nil
}

// SendWebhook posts an arbitrary payload, wrapped as form-encoded JSON, to
// the configured incoming webhook URL. Without a configured URL it fails
// immediately and performs no network call.
func (b *Bot) SendWebhook(ctx context.Context, payload any) ([]byte, error) {
	b.mu.RLock()
	target := b.incomingWebhookURL
	b.mu.RUnlock()
	if target == "" {
		return nil, ErrNoWebhookURL
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode webhook payload: %w", err)
	}
	form := url.Values{"payload": {string(data)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := b.httpc.Do(req)
	if err != nil {
		b.log.Error("webhook relay failed", "error", err)
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook relay status: %d", resp.StatusCode)
	}
	return body, nil
}

func responseMessage(resp any) *message.Message {
	switch v := resp.(type) {
	case string:
		return &message.Message{Text: v}
	case *message.Message:
		cp := *v
		return &cp
	case message.Message:
		return &v
	default:
		return &message.Message{Text: fmt.Sprint(v)}
	}
}
