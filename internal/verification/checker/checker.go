// Package checker implements the external verification check run when a user
// submits the wizard.
package checker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"realtyvest/internal/verification/models"
)

const DefaultSimulatedDelay = 2 * time.Second

var tracer = otel.Tracer("realtyvest/verification/checker")

// Simulated waits a fixed delay and then accepts, unless configured to fail.
type Simulated struct {
	delay   time.Duration
	failure error
}

type SimulatedOption func(*Simulated)

func WithDelay(d time.Duration) SimulatedOption {
	return func(s *Simulated) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithFailure makes every check return err after the delay.
func WithFailure(err error) SimulatedOption {
	return func(s *Simulated) {
		s.failure = err
	}
}

func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{delay: DefaultSimulatedDelay}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulated) Check(ctx context.Context, submission models.Submission) error {
	_, span := tracer.Start(ctx, "checker.simulated")
	defer span.End()
	span.SetAttributes(
		attribute.String("verification.document_type", string(submission.DocumentType)),
		attribute.Int("verification.documents", len(submission.Documents)),
	)

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return ctx.Err()
	case <-timer.C:
	}
	if s.failure != nil {
		span.RecordError(s.failure)
	}
	return s.failure
}
