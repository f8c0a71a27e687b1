package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuptureSeverity classifies how urgent a projected stockout is for a
// product across the whole catalog
type RuptureSeverity int

const (
	SeverityOK RuptureSeverity = iota
	SeverityAttention
	SeverityAlert
	SeverityCritical
)

// String method for RuptureSeverity enum
func (s RuptureSeverity) String() string {
	switch s {
	case SeverityOK:
		return "OK"
	case SeverityAttention:
		return "Attention"
	case SeverityAlert:
		return "Alert"
	case SeverityCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// OrderRiskLevel classifies the fulfillment risk of a single order, based
// on how many of its lines are affected and the share of order value at risk
type OrderRiskLevel int

const (
	OrderRiskLow OrderRiskLevel = iota
	OrderRiskMedium
	OrderRiskAlert
	OrderRiskCritical
)

// String method for OrderRiskLevel enum
func (l OrderRiskLevel) String() string {
	switch l {
	case OrderRiskLow:
		return "Low"
	case OrderRiskMedium:
		return "Medium"
	case OrderRiskAlert:
		return "Alert"
	case OrderRiskCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// RiskEntry is one product's row in a catalog-wide stockout risk list
type RiskEntry struct {
	ProductCode       ProductCode     `json:"product_code"`
	CurrentBalance    Quantity        `json:"current_balance"`
	MinBalanceWeek    Quantity        `json:"min_balance_week"`
	MinBalanceHorizon Quantity        `json:"min_balance_horizon"`
	FirstShortfall    *time.Time      `json:"first_shortfall,omitempty"`
	DaysToShortfall   int             `json:"days_to_shortfall"`
	CommittedQty      Quantity        `json:"committed_qty"`
	AffectedOrders    int             `json:"affected_orders"`
	ValueAtRisk       decimal.Decimal `json:"value_at_risk"`
	ScheduledInWindow Quantity        `json:"scheduled_in_window"`
	Severity          RuptureSeverity `json:"severity"`
}

// OrderRisk summarizes the fulfillment risk of one order
type OrderRisk struct {
	AffectedLines int             `json:"affected_lines"`
	TotalLines    int             `json:"total_lines"`
	ValueAtRisk   decimal.Decimal `json:"value_at_risk"`
	PctAtRisk     decimal.Decimal `json:"pct_at_risk"`
	Level         OrderRiskLevel  `json:"level"`
}
