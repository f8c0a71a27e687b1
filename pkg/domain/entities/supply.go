package entities

import (
	"fmt"
	"time"
)

// SupplyEvent represents a scheduled production inflow for a product on a
// specific production line
type SupplyEvent struct {
	ProductCode    ProductCode
	ProductionLine string
	Quantity       Quantity
	ScheduledOn    time.Time
}

// NewSupplyEvent creates a validated SupplyEvent
func NewSupplyEvent(code ProductCode, line string, qty Quantity, scheduledOn time.Time) (*SupplyEvent, error) {
	if code == "" {
		return nil, fmt.Errorf("product code cannot be empty")
	}
	if line == "" {
		return nil, fmt.Errorf("production line cannot be empty")
	}
	if qty < 0 {
		return nil, fmt.Errorf("quantity cannot be negative, got %f", qty)
	}
	if scheduledOn.IsZero() {
		return nil, fmt.Errorf("scheduled date cannot be zero")
	}

	return &SupplyEvent{
		ProductCode:    code,
		ProductionLine: line,
		Quantity:       qty,
		ScheduledOn:    scheduledOn,
	}, nil
}
