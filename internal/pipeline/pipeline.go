// Package pipeline provides the staged middleware chain that turns a raw
// webhook payload into an actionable message and prepares outbound messages
// for the platform wire format. Handlers can inspect, transform, or abort a
// message before it reaches the host hand-off.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/ringbridge/ringbridge/internal/message"
)

// Result is the tagged outcome of a handler.
type Result int

const (
	// Continue advances to the next handler / next stage.
	Continue Result = iota
	// Abort ends processing for this message, silently.
	Abort
)

// Stage names. Inbound order is fixed: ingest, normalize, categorize,
// receive. Outbound messages pass through format only.
type Stage string

const (
	StageIngest     Stage = "ingest"
	StageNormalize  Stage = "normalize"
	StageCategorize Stage = "categorize"
	StageReceive    Stage = "receive"
	StageFormat     Stage = "format"
)

// Context carries the shared mutable state through a chain run.
type Context struct {
	Ctx     context.Context
	Message *message.Message

	// Ack acknowledges the originating HTTP transaction. Set for inbound
	// runs only; the server wraps it so repeated calls are harmless.
	Ack func()

	// Outbound is the platform wire object the format stage populates.
	// Set for format runs only.
	Outbound message.OutboundPayload
}

// Handler processes the shared context and decides whether the chain
// continues. A returned error stops the chain; it is logged, never surfaced
// to the webhook sender (the transaction is already acknowledged by then).
type Handler func(pc *Context) (Result, error)

type stage struct {
	name     Stage
	handlers []Handler
}

// Pipeline is an ordered list of named stages, each an ordered handler list.
type Pipeline struct {
	inbound []*stage
	format  *stage
	log     *slog.Logger
}

// New creates an empty pipeline with the fixed stage layout.
func New() *Pipeline {
	return &Pipeline{
		inbound: []*stage{
			{name: StageIngest},
			{name: StageNormalize},
			{name: StageCategorize},
			{name: StageReceive},
		},
		format: &stage{name: StageFormat},
		log:    slog.Default(),
	}
}

// Use appends handlers to the named stage. Handlers run in registration
// order within a stage.
func (p *Pipeline) Use(name Stage, handlers ...Handler) *Pipeline {
	if name == StageFormat {
		p.format.handlers = append(p.format.handlers, handlers...)
		return p
	}
	for _, s := range p.inbound {
		if s.name == name {
			s.handlers = append(s.handlers, handlers...)
			break
		}
	}
	return p
}

// RunInbound drives a delivery through ingest, normalize, categorize and
// receive in strict order. Failures downstream of the acknowledgment can
// only be logged, so this never returns an error to the caller.
func (p *Pipeline) RunInbound(pc *Context) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("pipeline handler panic", "panic", r)
		}
	}()
	for _, s := range p.inbound {
		if !p.runStage(s, pc) {
			return
		}
	}
}

// RunFormat drives a message through the format stage and returns the
// populated outbound payload.
func (p *Pipeline) RunFormat(pc *Context) message.OutboundPayload {
	if pc.Outbound == nil {
		pc.Outbound = make(message.OutboundPayload)
	}
	p.runStage(p.format, pc)
	return pc.Outbound
}

func (p *Pipeline) runStage(s *stage, pc *Context) bool {
	for _, h := range s.handlers {
		res, err := h(pc)
		if err != nil {
			p.log.Error("pipeline handler failed", "stage", string(s.name), "error", err)
			return false
		}
		if res == Abort {
			return false
		}
	}
	return true
}
