package audit

import (
	"context"
	"log/slog"
	"sync/atomic"

	"realtyvest/internal/device"
	"realtyvest/internal/platform/logger"
	"realtyvest/pkg/requestcontext"
)

const defaultBufferSize = 256

// Publisher enqueues audit events for the Worker. Emit never blocks: audit is
// best effort and must not slow down the request path.
type Publisher struct {
	events  chan Event
	logger  *slog.Logger
	dropped atomic.Int64
}

type PublisherOption func(*Publisher)

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(bufferSize int, opts ...PublisherOption) *Publisher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	p := &Publisher{
		events: make(chan Event, bufferSize),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit stamps the event with request metadata from ctx and enqueues it.
// The event is dropped when the buffer is full or ctx is already done.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Device == "" {
		if ua := requestcontext.UserAgent(ctx); ua != "" {
			event.Device = device.ParseUserAgent(ua)
		}
	}

	if ctx.Err() != nil {
		p.drop(ctx, event, "context done")
		return
	}
	select {
	case p.events <- event:
	default:
		p.drop(ctx, event, "buffer full")
	}
}

// Events is the channel the Worker drains.
func (p *Publisher) Events() <-chan Event {
	return p.events
}

// Dropped returns how many events were discarded.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) drop(ctx context.Context, event Event, reason string) {
	p.dropped.Add(1)
	p.logger.WarnContext(ctx, "audit event dropped",
		"reason", reason,
		"action", event.Action,
		"user_id", event.UserID.String(),
	)
}
