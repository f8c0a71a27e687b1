package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is one product/quantity line of a customer order. The
// availability fields are resolved from a projection before options are
// generated: AvailableToday means current stock covers the full line,
// FirstSufficient is the first projected day that does (nil when no day in
// the horizon covers it).
type OrderLine struct {
	ProductCode     ProductCode
	Quantity        Quantity
	UnitPrice       decimal.Decimal
	AvailableToday  bool
	FirstSufficient *time.Time
}

// NewOrderLine creates a validated OrderLine
func NewOrderLine(code ProductCode, qty Quantity, unitPrice decimal.Decimal) (*OrderLine, error) {
	if code == "" {
		return nil, fmt.Errorf("product code cannot be empty")
	}
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %f", qty)
	}
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("unit price cannot be negative, got %s", unitPrice)
	}

	return &OrderLine{
		ProductCode: code,
		Quantity:    qty,
		UnitPrice:   unitPrice,
	}, nil
}

// Value returns the monetary value of the line
func (l *OrderLine) Value() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromFloat(l.Quantity))
}

// FulfillmentOption is one way of shipping an order: either wait for full
// availability or ship a qualifying subset now, dropping the worst
// bottleneck lines
type FulfillmentOption struct {
	Code          string
	Included      []OrderLine
	Excluded      []OrderLine
	// ShipDate is the earliest date every included line is covered, or nil
	// when an included line never reaches sufficiency within the horizon.
	ShipDate      *time.Time
	Value         decimal.Decimal
	PctOfOrder    decimal.Decimal
	IncludedLines int
	ExcludedLines int
}
