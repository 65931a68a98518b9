// Package models holds the property catalog types and the investment
// calculator.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dErrors "realtyvest/pkg/domain-errors"
)

type PropertyType string

const (
	PropertyTypeResidential PropertyType = "residential"
	PropertyTypeCommercial  PropertyType = "commercial"
	PropertyTypeLand        PropertyType = "land"
)

// Terms are the share offering of a property. SoldShares counts shares sold
// before the catalog was published.
type Terms struct {
	MinInvestment    decimal.Decimal `yaml:"min_investment" json:"min_investment"`
	MaxInvestment    decimal.Decimal `yaml:"max_investment" json:"max_investment"`
	AvailableShares  int64           `yaml:"available_shares" json:"available_shares"`
	SoldShares       int64           `yaml:"sold_shares" json:"sold_shares"`
	ProjectedReturn  decimal.Decimal `yaml:"projected_return" json:"projected_return"`
	InvestmentPeriod string          `yaml:"investment_period" json:"investment_period"`
	ExitStrategy     string          `yaml:"exit_strategy" json:"exit_strategy"`
}

// Features describe the building or lot. Fields that do not apply to a
// property type are left zero and omitted.
type Features struct {
	Bedrooms   int    `yaml:"bedrooms" json:"bedrooms,omitempty"`
	Bathrooms  int    `yaml:"bathrooms" json:"bathrooms,omitempty"`
	SquareFeet int    `yaml:"square_feet" json:"square_feet,omitempty"`
	YearBuilt  int    `yaml:"year_built" json:"year_built,omitempty"`
	Parking    int    `yaml:"parking" json:"parking,omitempty"`
	Floors     int    `yaml:"floors" json:"floors,omitempty"`
	Zoning     string `yaml:"zoning" json:"zoning,omitempty"`
	LotSize    string `yaml:"lot_size" json:"lot_size,omitempty"`
	TenantType string `yaml:"tenant_type" json:"tenant_type,omitempty"`
}

// Financials are the published operating figures. Income properties report
// rent and expenses; land reports projected value and development cost.
type Financials struct {
	MonthlyRent     *decimal.Decimal `yaml:"monthly_rent" json:"monthly_rent,omitempty"`
	AnnualIncome    *decimal.Decimal `yaml:"annual_income" json:"annual_income,omitempty"`
	Expenses        *decimal.Decimal `yaml:"expenses" json:"expenses,omitempty"`
	NetIncome       *decimal.Decimal `yaml:"net_income" json:"net_income,omitempty"`
	ProjectedValue  *decimal.Decimal `yaml:"projected_value" json:"projected_value,omitempty"`
	DevelopmentCost *decimal.Decimal `yaml:"development_cost" json:"development_cost,omitempty"`
	NetProfit       *decimal.Decimal `yaml:"net_profit" json:"net_profit,omitempty"`
	CapRate         decimal.Decimal  `yaml:"cap_rate" json:"cap_rate"`
	CashOnCash      decimal.Decimal  `yaml:"cash_on_cash" json:"cash_on_cash"`
}

type Property struct {
	ID          string          `yaml:"id" json:"id"`
	Title       string          `yaml:"title" json:"title"`
	Location    string          `yaml:"location" json:"location"`
	Type        PropertyType    `yaml:"type" json:"type"`
	Price       decimal.Decimal `yaml:"price" json:"price"`
	ROI         decimal.Decimal `yaml:"roi" json:"roi"`
	Occupancy   int             `yaml:"occupancy" json:"occupancy"`
	Investors   int             `yaml:"investors" json:"investors"`
	Description string          `yaml:"description" json:"description"`
	Features    Features        `yaml:"features" json:"features"`
	Financials  Financials      `yaml:"financials" json:"financials"`
	Amenities   []string        `yaml:"amenities" json:"amenities,omitempty"`
	Terms       Terms           `yaml:"terms" json:"terms"`
}

// SharePrice is the price divided evenly over the available shares.
func (p Property) SharePrice() decimal.Decimal {
	if p.Terms.AvailableShares <= 0 {
		return decimal.Zero
	}
	return p.Price.Div(decimal.NewFromInt(p.Terms.AvailableShares))
}

// AnnualReturn is amount times the property's ROI percentage.
func (p Property) AnnualReturn(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.ROI).Div(decimal.NewFromInt(100))
}

// Filter narrows a catalog listing. Zero fields match everything.
type Filter struct {
	Type     PropertyType
	Location string
	MinROI   *decimal.Decimal
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
}

func (f Filter) Matches(p Property) bool {
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.Location != "" && !containsFold(p.Location, f.Location) {
		return false
	}
	if f.MinROI != nil && p.ROI.LessThan(*f.MinROI) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Search != "" &&
		!containsFold(p.Title, f.Search) &&
		!containsFold(p.Location, f.Search) &&
		!containsFold(p.Description, f.Search) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Summary is what an amount buys in a property.
type Summary struct {
	Shares          int64           `json:"shares"`
	SharePrice      decimal.Decimal `json:"share_price"`
	AnnualReturn    decimal.Decimal `json:"annual_return"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	RemainingShares int64           `json:"remaining_shares"`
}

// Summarize computes the share purchase for amount. Money values are rounded
// to cents; the share count is floored.
func Summarize(p Property, amount decimal.Decimal) (Summary, error) {
	if !amount.IsPositive() {
		return Summary{}, dErrors.New(dErrors.CodeValidation, "investment amount must be positive")
	}
	sharePrice := p.SharePrice()
	if !sharePrice.IsPositive() {
		return Summary{}, dErrors.New(dErrors.CodeInvariantViolation, "property "+p.ID+" has no shares on offer")
	}
	shares := amount.Div(sharePrice).Floor().IntPart()
	annual := p.AnnualReturn(amount)
	return Summary{
		Shares:          shares,
		SharePrice:      sharePrice.Round(2),
		AnnualReturn:    annual.Round(2),
		MonthlyIncome:   annual.Div(decimal.NewFromInt(12)).Round(2),
		TotalInvestment: sharePrice.Mul(decimal.NewFromInt(shares)).Round(2),
		RemainingShares: p.Terms.AvailableShares - p.Terms.SoldShares,
	}, nil
}

// Investment is a user's accumulated position in one property.
type Investment struct {
	PropertyID string          `json:"property_id"`
	Amount     decimal.Decimal `json:"amount"`
	Shares     int64           `json:"shares"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type Portfolio struct {
	Investments   []Investment    `json:"investments"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	AnnualReturns decimal.Decimal `json:"annual_returns"`
}
