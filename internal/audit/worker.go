package audit

import (
	"context"
	"log/slog"
	"time"

	"realtyvest/internal/platform/logger"
)

const drainTimeout = 5 * time.Second

// Worker consumes audit events from a channel and fans them out to every sink.
// A failing sink is logged and does not stop delivery to the others.
type Worker struct {
	inbox  <-chan Event
	sinks  []Sink
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, log *slog.Logger, sinks ...Sink) *Worker {
	if log == nil {
		log = logger.Discard()
	}
	return &Worker{inbox: inbox, sinks: sinks, logger: log}
}

// Run delivers events until ctx is cancelled, then flushes whatever is still
// buffered using a short detached deadline.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case event := <-w.inbox:
			w.deliver(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-w.inbox:
			w.deliver(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) deliver(ctx context.Context, event Event) {
	for _, sink := range w.sinks {
		if err := sink.Append(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "audit sink append failed",
				"error", err,
				"action", event.Action,
				"user_id", event.UserID.String(),
			)
		}
	}
}
