package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	dErrors "realtyvest/pkg/domain-errors"
)

type ModelsSuite struct {
	suite.Suite
	oakwood Property
}

func TestModelsSuite(t *testing.T) {
	suite.Run(t, new(ModelsSuite))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (s *ModelsSuite) SetupTest() {
	s.oakwood = Property{
		ID:          "oakwood-residences",
		Title:       "Oakwood Residences",
		Location:    "Austin, TX",
		Type:        PropertyTypeResidential,
		Price:       dec("250000"),
		ROI:         dec("8.2"),
		Description: "A modern residential complex",
		Terms:       Terms{AvailableShares: 100, SoldShares: 42},
	}
}

func (s *ModelsSuite) TestSummarize() {
	s.Run("share math", func() {
		summary, err := Summarize(s.oakwood, dec("5000"))
		s.Require().NoError(err)
		s.Equal(int64(2), summary.Shares)
		s.True(summary.SharePrice.Equal(dec("2500")))
		s.True(summary.AnnualReturn.Equal(dec("410")))
		s.True(summary.MonthlyIncome.Equal(dec("34.17")), summary.MonthlyIncome.String())
		s.True(summary.TotalInvestment.Equal(dec("5000")))
		s.Equal(int64(58), summary.RemainingShares)
	})

	s.Run("shares are floored", func() {
		summary, err := Summarize(s.oakwood, dec("7499.99"))
		s.Require().NoError(err)
		s.Equal(int64(2), summary.Shares)
		s.True(summary.TotalInvestment.Equal(dec("5000")))
	})

	s.Run("amount must be positive", func() {
		for _, amount := range []string{"0", "-10"} {
			_, err := Summarize(s.oakwood, dec(amount))
			s.True(dErrors.Is(err, dErrors.CodeValidation), amount)
		}
	})

	s.Run("properties without shares are rejected", func() {
		p := s.oakwood
		p.Terms.AvailableShares = 0
		_, err := Summarize(p, dec("100"))
		s.True(dErrors.Is(err, dErrors.CodeInvariantViolation))
	})
}

func (s *ModelsSuite) TestFilter() {
	minROI := dec("8")
	tooHigh := dec("9")
	maxPrice := dec("200000")

	s.True(Filter{}.Matches(s.oakwood))
	s.True(Filter{Type: PropertyTypeResidential}.Matches(s.oakwood))
	s.False(Filter{Type: PropertyTypeLand}.Matches(s.oakwood))
	s.True(Filter{Location: "austin"}.Matches(s.oakwood))
	s.True(Filter{MinROI: &minROI}.Matches(s.oakwood))
	s.False(Filter{MinROI: &tooHigh}.Matches(s.oakwood))
	s.False(Filter{MaxPrice: &maxPrice}.Matches(s.oakwood))
	s.True(Filter{Search: "RESIDENTIAL complex"}.Matches(s.oakwood))
	s.False(Filter{Search: "warehouse"}.Matches(s.oakwood))
}
