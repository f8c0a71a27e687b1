package entities

import (
	"fmt"
	"time"
)

// StockMovement is one signed entry in a product's stock ledger.
// Positive quantities are inflows (receipts, production), negative
// quantities are outflows (shipments, losses). Cancelled movements stay in
// the ledger with Active=false and are excluded from every balance.
type StockMovement struct {
	ProductCode ProductCode
	Quantity    Quantity
	Active      bool
	MovedOn     time.Time
}

// NewStockMovement creates a validated StockMovement
func NewStockMovement(code ProductCode, qty Quantity, active bool, movedOn time.Time) (*StockMovement, error) {
	if code == "" {
		return nil, fmt.Errorf("product code cannot be empty")
	}
	if movedOn.IsZero() {
		return nil, fmt.Errorf("movement date cannot be zero")
	}

	return &StockMovement{
		ProductCode: code,
		Quantity:    qty,
		Active:      active,
		MovedOn:     movedOn,
	}, nil
}
