package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"realtyvest/internal/audit"
	"realtyvest/internal/investment/models"
	"realtyvest/internal/platform/logger"
	"realtyvest/internal/platform/metrics"
	id "realtyvest/pkg/domain"
	dErrors "realtyvest/pkg/domain-errors"
	"realtyvest/pkg/platform/sentinel"
)

var tracer = otel.Tracer("realtyvest/investment/service")

// Gate answers whether a user's verification allows investing.
type Gate interface {
	CanInvest(ctx context.Context, userID id.UserID) (bool, error)
}

type Catalog interface {
	Get(id string) (models.Property, error)
	List(f models.Filter) []models.Property
}

type Store interface {
	Reserve(ctx context.Context, propertyID string, shares, limit int64) (bool, error)
	Release(ctx context.Context, propertyID string, shares int64) error
	SoldShares(ctx context.Context, propertyID string) (int64, error)
	Add(ctx context.Context, userID id.UserID, propertyID string, amount decimal.Decimal, shares int64, at time.Time) (models.Investment, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]models.Investment, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

type Service struct {
	gate    Gate
	catalog Catalog
	store   Store
	logger  *slog.Logger
	metrics *metrics.Investment
	auditor AuditPublisher
	clock   func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Investment) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func New(gate Gate, catalog Catalog, st Store, opts ...Option) *Service {
	s := &Service{
		gate:    gate,
		catalog: catalog,
		store:   st,
		logger:  logger.Discard(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(f models.Filter) []models.Property {
	return s.catalog.List(f)
}

func (s *Service) Property(ctx context.Context, propertyID string) (models.Property, error) {
	p, err := s.catalog.Get(propertyID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Property{}, dErrors.Wrap(err, dErrors.CodeNotFound, "property not found")
	}
	if err != nil {
		return models.Property{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load property")
	}
	return p, nil
}

// Summary previews what amount buys. Remaining shares account for platform
// sales.
func (s *Service) Summary(ctx context.Context, propertyID string, amount decimal.Decimal) (models.Summary, error) {
	p, err := s.Property(ctx, propertyID)
	if err != nil {
		return models.Summary{}, err
	}
	summary, err := models.Summarize(p, amount)
	if err != nil {
		return models.Summary{}, err
	}
	sold, err := s.store.SoldShares(ctx, propertyID)
	if err != nil {
		return models.Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sold shares")
	}
	summary.RemainingShares = max(summary.RemainingShares-sold, 0)
	return summary, nil
}

// Invest places an order for userID. Users whose verification does not allow
// investing are refused with a forbidden error.
func (s *Service) Invest(ctx context.Context, userID id.UserID, propertyID string, amount decimal.Decimal) (models.Investment, error) {
	ctx, span := tracer.Start(ctx, "investment.invest", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("property_id", propertyID),
	))
	defer span.End()

	allowed, err := s.gate.CanInvest(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return models.Investment{}, err
	}
	if !allowed {
		s.metrics.IncrementDenied("verification_required")
		s.logger.InfoContext(ctx, "investment denied",
			"user_id", userID.String(),
			"property_id", propertyID,
			"reason", "verification_required",
		)
		return models.Investment{}, dErrors.New(dErrors.CodeForbidden, "identity verification is required before investing")
	}

	p, err := s.Property(ctx, propertyID)
	if err != nil {
		return models.Investment{}, err
	}
	if amount.LessThan(p.Terms.MinInvestment) || amount.GreaterThan(p.Terms.MaxInvestment) {
		s.metrics.IncrementDenied("amount_out_of_range")
		return models.Investment{}, dErrors.WithFields(dErrors.CodeValidation, "investment amount out of range", map[string]string{
			"amount": "must be between " + p.Terms.MinInvestment.String() + " and " + p.Terms.MaxInvestment.String(),
		})
	}
	summary, err := models.Summarize(p, amount)
	if err != nil {
		return models.Investment{}, err
	}
	if summary.Shares < 1 {
		s.metrics.IncrementDenied("below_share_price")
		return models.Investment{}, dErrors.WithFields(dErrors.CodeValidation, "amount buys no shares", map[string]string{
			"amount": "must cover at least one share of " + summary.SharePrice.String(),
		})
	}

	reserved, err := s.store.Reserve(ctx, propertyID, summary.Shares, summary.RemainingShares)
	if err != nil {
		span.RecordError(err)
		return models.Investment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve shares")
	}
	if !reserved {
		s.metrics.IncrementDenied("sold_out")
		return models.Investment{}, dErrors.New(dErrors.CodeConflict, "not enough shares remaining")
	}

	inv, err := s.store.Add(ctx, userID, propertyID, amount, summary.Shares, s.clock())
	if err != nil {
		span.RecordError(err)
		if releaseErr := s.store.Release(ctx, propertyID, summary.Shares); releaseErr != nil {
			s.logger.ErrorContext(ctx, "failed to release reserved shares",
				"property_id", propertyID,
				"shares", summary.Shares,
				"error", releaseErr,
			)
		}
		return models.Investment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record investment")
	}

	s.metrics.IncrementPlaced(propertyID)
	s.logger.InfoContext(ctx, "investment placed",
		"user_id", userID.String(),
		"property_id", propertyID,
		"shares", summary.Shares,
	)
	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			Timestamp: s.clock(),
			UserID:    userID,
			Action:    "investment_placed",
			Status:    "placed",
			Reason:    propertyID,
		})
	}
	return inv, nil
}

// Portfolio totals the user's positions. Positions in properties no longer
// in the catalog count towards the invested total only.
func (s *Service) Portfolio(ctx context.Context, userID id.UserID) (models.Portfolio, error) {
	investments, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return models.Portfolio{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list investments")
	}
	out := models.Portfolio{Investments: investments, TotalInvested: decimal.Zero, AnnualReturns: decimal.Zero}
	for _, inv := range investments {
		out.TotalInvested = out.TotalInvested.Add(inv.Amount)
		if p, err := s.catalog.Get(inv.PropertyID); err == nil {
			out.AnnualReturns = out.AnnualReturns.Add(p.AnnualReturn(inv.Amount))
		}
	}
	out.AnnualReturns = out.AnnualReturns.Round(2)
	return out, nil
}
