package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"realtyvest/internal/platform/logger"
	"realtyvest/internal/verification/models"
	"realtyvest/pkg/platform/circuit"
	"realtyvest/pkg/platform/sentinel"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTP posts submissions to a remote verification service. A 2xx response
// accepts the submission; anything else is an error. Transport failures and
// 5xx responses count against the circuit breaker; while it is open, checks
// fail fast with sentinel.ErrUnavailable.
type HTTP struct {
	url     string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type HTTPOption func(*HTTP)

func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = client
	}
}

func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(h *HTTP) {
		h.breaker = b
	}
}

func WithLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTP) {
		h.logger = logger
	}
}

func NewHTTP(url string, timeout time.Duration, opts ...HTTPOption) *HTTP {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	h := &HTTP{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: circuit.New("verification-checker"),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Check(ctx context.Context, submission models.Submission) error {
	ctx, span := tracer.Start(ctx, "checker.http")
	defer span.End()
	span.SetAttributes(attribute.String("verification.document_type", string(submission.DocumentType)))

	if !h.breaker.Allow() {
		span.SetStatus(codes.Error, "circuit open")
		return fmt.Errorf("%w: verification service circuit open", sentinel.ErrUnavailable)
	}

	body, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		h.recordFailure(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		h.logger.WarnContext(ctx, "verification service request failed", "error", err)
		if isTimeout(err) {
			return fmt.Errorf("%w: verification service timed out", sentinel.ErrUnavailable)
		}
		return fmt.Errorf("%w: verification service unreachable", sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode >= 500:
		h.recordFailure(ctx)
		span.SetStatus(codes.Error, resp.Status)
		return fmt.Errorf("%w: verification service returned %d", sentinel.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		h.recordSuccess(ctx)
		span.SetStatus(codes.Error, resp.Status)
		return fmt.Errorf("verification service declined submission with status %d", resp.StatusCode)
	}
	h.recordSuccess(ctx)
	return nil
}

func (h *HTTP) recordFailure(ctx context.Context) {
	if _, change := h.breaker.RecordFailure(); change.Opened {
		h.logger.WarnContext(ctx, "verification checker circuit opened", "breaker", h.breaker.Name())
	}
}

func (h *HTTP) recordSuccess(ctx context.Context) {
	if _, change := h.breaker.RecordSuccess(); change.Closed {
		h.logger.InfoContext(ctx, "verification checker circuit closed", "breaker", h.breaker.Name())
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
