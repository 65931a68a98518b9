package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"realtyvest/internal/audit"
	"realtyvest/internal/investment/catalog"
	"realtyvest/internal/investment/models"
	"realtyvest/internal/investment/store"
	"realtyvest/internal/platform/metrics"
	id "realtyvest/pkg/domain"
	dErrors "realtyvest/pkg/domain-errors"
)

type stubGate map[id.UserID]bool

func (g stubGate) CanInvest(_ context.Context, userID id.UserID) (bool, error) {
	return g[userID], nil
}

type failingGate struct{}

func (failingGate) CanInvest(context.Context, id.UserID) (bool, error) {
	return false, dErrors.Wrap(errors.New("redis down"), dErrors.CodeInternal, "failed to load verification record")
}

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	verified id.UserID
	pending  id.UserID
	metrics  *metrics.Investment
	events   *audit.Publisher
	svc      *Service
	now      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.verified = id.UserID(uuid.New())
	s.pending = id.UserID(uuid.New())
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.metrics = metrics.NewInvestment(prometheus.NewRegistry())
	s.events = audit.NewPublisher(16)

	c, err := catalog.Default()
	s.Require().NoError(err)
	s.svc = New(stubGate{s.verified: true}, c, store.NewInMemoryStore(),
		WithMetrics(s.metrics),
		WithAuditPublisher(s.events),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *ServiceSuite) TestInvestRequiresVerification() {
	_, err := s.svc.Invest(s.ctx, s.pending, "oakwood-residences", dec("5000"))
	s.True(dErrors.Is(err, dErrors.CodeForbidden))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Denied.WithLabelValues("verification_required")))

	portfolio, err := s.svc.Portfolio(s.ctx, s.pending)
	s.Require().NoError(err)
	s.Empty(portfolio.Investments)
}

func (s *ServiceSuite) TestGateErrorsPropagate() {
	c, err := catalog.Default()
	s.Require().NoError(err)
	svc := New(failingGate{}, c, store.NewInMemoryStore())
	_, err = svc.Invest(s.ctx, s.verified, "oakwood-residences", dec("5000"))
	s.True(dErrors.Is(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestInvestValidation() {
	s.Run("unknown property", func() {
		_, err := s.svc.Invest(s.ctx, s.verified, "atlantis", dec("5000"))
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("amount outside the terms", func() {
		for _, amount := range []string{"4999.99", "50000.01"} {
			_, err := s.svc.Invest(s.ctx, s.verified, "oakwood-residences", dec(amount))
			de, ok := dErrors.As(err)
			s.Require().True(ok, amount)
			s.Equal(dErrors.CodeValidation, de.Code)
			s.Equal("must be between 5000 and 50000", de.Fields["amount"])
		}
	})

	s.Run("amount below one share", func() {
		c, err := catalog.Parse([]byte(`
properties:
  - id: duplex
    price: "100000"
    roi: "5"
    terms: {min_investment: "5000", max_investment: "50000", available_shares: 10}`))
		s.Require().NoError(err)
		svc := New(stubGate{s.verified: true}, c, store.NewInMemoryStore())

		_, err = svc.Invest(s.ctx, s.verified, "duplex", dec("9999"))
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeValidation, de.Code)
		s.Contains(de.Fields["amount"], "at least one share")
	})
}

func (s *ServiceSuite) TestInvestAccumulatesAndTotals() {
	first, err := s.svc.Invest(s.ctx, s.verified, "oakwood-residences", dec("5000"))
	s.Require().NoError(err)
	s.Equal(int64(2), first.Shares)

	second, err := s.svc.Invest(s.ctx, s.verified, "oakwood-residences", dec("7500"))
	s.Require().NoError(err)
	s.Equal(int64(5), second.Shares)
	s.True(second.Amount.Equal(dec("12500")))
	s.Equal(s.now, second.UpdatedAt)

	_, err = s.svc.Invest(s.ctx, s.verified, "sunset-plaza", dec("10000"))
	s.Require().NoError(err)

	portfolio, err := s.svc.Portfolio(s.ctx, s.verified)
	s.Require().NoError(err)
	s.Require().Len(portfolio.Investments, 2)
	s.Equal("oakwood-residences", portfolio.Investments[0].PropertyID)
	s.True(portfolio.TotalInvested.Equal(dec("22500")))
	// 12500 * 8.2% + 10000 * 8.3%
	s.True(portfolio.AnnualReturns.Equal(dec("1855")), portfolio.AnnualReturns.String())

	s.Equal(2.0, testutil.ToFloat64(s.metrics.Placed.WithLabelValues("oakwood-residences")))
	event := <-s.events.Events()
	s.Equal("investment_placed", event.Action)
	s.Equal(s.verified, event.UserID)
}

func (s *ServiceSuite) TestSharesRunOut() {
	// horizon-towers: 50 shares at 8400, 31 sold, 19 remain. 11 shares per
	// 100000 order.
	_, err := s.svc.Invest(s.ctx, s.verified, "horizon-towers", dec("100000"))
	s.Require().NoError(err)

	summary, err := s.svc.Summary(s.ctx, "horizon-towers", dec("100000"))
	s.Require().NoError(err)
	s.Equal(int64(8), summary.RemainingShares)

	_, err = s.svc.Invest(s.ctx, s.verified, "horizon-towers", dec("100000"))
	s.True(dErrors.Is(err, dErrors.CodeConflict))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Denied.WithLabelValues("sold_out")))
}

type failingAddStore struct {
	*store.InMemoryStore
}

func (failingAddStore) Add(context.Context, id.UserID, string, decimal.Decimal, int64, time.Time) (models.Investment, error) {
	return models.Investment{}, errors.New("write failed")
}

func (s *ServiceSuite) TestFailedRecordReleasesShares() {
	positions := store.NewInMemoryStore()
	c, err := catalog.Default()
	s.Require().NoError(err)
	svc := New(stubGate{s.verified: true}, c, failingAddStore{InMemoryStore: positions})

	_, err = svc.Invest(s.ctx, s.verified, "horizon-towers", dec("100000"))
	s.True(dErrors.Is(err, dErrors.CodeInternal))

	sold, err := positions.SoldShares(s.ctx, "horizon-towers")
	s.Require().NoError(err)
	s.Zero(sold)

	summary, err := svc.Summary(s.ctx, "horizon-towers", dec("100000"))
	s.Require().NoError(err)
	s.Equal(int64(19), summary.RemainingShares)
}

func (s *ServiceSuite) TestListAndSummary() {
	s.Len(s.svc.List(models.Filter{}), 4)
	s.Len(s.svc.List(models.Filter{Type: models.PropertyTypeLand}), 1)

	summary, err := s.svc.Summary(s.ctx, "sunset-plaza", dec("10000"))
	s.Require().NoError(err)
	s.True(summary.SharePrice.Equal(dec("3625")))
	s.Equal(int64(2), summary.Shares)
	s.True(summary.AnnualReturn.Equal(dec("830")))
	s.Equal(int64(57), summary.RemainingShares)

	_, err = s.svc.Summary(s.ctx, "sunset-plaza", dec("0"))
	s.True(dErrors.Is(err, dErrors.CodeValidation))
}
