// Package services holds pure domain policy: severity classification of
// projection results. Thresholds are business policy, not derived
// constants, so they are named fields that deployments can override.
package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodsys/ruptura/pkg/domain/entities"
)

// Thresholds are the classification knobs for both severity variants
type Thresholds struct {
	// CriticalWithinDays: a shortfall this many days out (or sooner) is Critical.
	CriticalWithinDays int `yaml:"critical_within_days"`
	// AlertWithinDays: a shortfall this many days out (or sooner) is Alert.
	AlertWithinDays int `yaml:"alert_within_days"`

	// Order-level variant: line count and percent-of-value bounds.
	OrderCriticalLines int     `yaml:"order_critical_lines"`
	OrderCriticalPct   float64 `yaml:"order_critical_pct"`
	OrderAlertLines    int     `yaml:"order_alert_lines"`
	OrderAlertPct      float64 `yaml:"order_alert_pct"`
	OrderMediumLines   int     `yaml:"order_medium_lines"`
	OrderMediumPct     float64 `yaml:"order_medium_pct"`
}

// DefaultThresholds returns the stock policy values
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalWithinDays: 2,
		AlertWithinDays:    5,
		OrderCriticalLines: 3,
		OrderCriticalPct:   10,
		OrderAlertLines:    3,
		OrderAlertPct:      10,
		OrderMediumLines:   2,
		OrderMediumPct:     5,
	}
}

// RuptureClassifier assigns catalog-wide severity tiers to projection results
type RuptureClassifier struct {
	thresholds Thresholds
}

// NewRuptureClassifier creates a classifier with the given thresholds
func NewRuptureClassifier(thresholds Thresholds) *RuptureClassifier {
	return &RuptureClassifier{thresholds: thresholds}
}

// Classify assigns a severity tier to a projection result. First match wins:
// a shortfall within CriticalWithinDays (or an immediate day-0 deficit) is
// Critical, within AlertWithinDays is Alert, any later shortfall is
// Attention, no shortfall is OK.
func (c *RuptureClassifier) Classify(result *entities.ProjectionResult, today time.Time) entities.RuptureSeverity {
	days, has := result.DaysToShortfall(today)
	switch {
	case has && days <= c.thresholds.CriticalWithinDays,
		result.MinBalanceHorizon < 0 && result.ImmediateDeficit():
		return entities.SeverityCritical
	case has && days <= c.thresholds.AlertWithinDays:
		return entities.SeverityAlert
	case has:
		return entities.SeverityAttention
	default:
		return entities.SeverityOK
	}
}

// OrderRiskClassifier assigns risk levels to individual orders, trading on
// affected line count and the share of order value at risk rather than
// days-to-shortfall. Kept separate from RuptureClassifier on purpose: the
// two classify different objects and must not be merged.
type OrderRiskClassifier struct {
	thresholds Thresholds
}

// NewOrderRiskClassifier creates an order-level classifier
func NewOrderRiskClassifier(thresholds Thresholds) *OrderRiskClassifier {
	return &OrderRiskClassifier{thresholds: thresholds}
}

// Classify assigns a risk level from affected line count and percent of
// order value at risk. The medium band is checked before the alert band
// because it is the stricter subset of it.
func (c *OrderRiskClassifier) Classify(affectedLines int, pctAtRisk decimal.Decimal) entities.OrderRiskLevel {
	pct, _ := pctAtRisk.Float64()
	switch {
	case affectedLines == 0:
		return entities.OrderRiskLow
	case affectedLines > c.thresholds.OrderCriticalLines && pct > c.thresholds.OrderCriticalPct:
		return entities.OrderRiskCritical
	case affectedLines <= c.thresholds.OrderMediumLines && pct <= c.thresholds.OrderMediumPct:
		return entities.OrderRiskMedium
	case affectedLines <= c.thresholds.OrderAlertLines && pct <= c.thresholds.OrderAlertPct:
		return entities.OrderRiskAlert
	default:
		return entities.OrderRiskLow
	}
}
