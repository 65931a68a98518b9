package audit

import (
	"context"
	"time"

	id "realtyvest/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    id.UserID `json:"user_id"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Device    string    `json:"device,omitempty"`
}

// Sink persists or forwards audit events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}
