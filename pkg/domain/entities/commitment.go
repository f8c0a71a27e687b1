package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CommitmentSource discriminates how a demand commitment was recorded
type CommitmentSource int

const (
	// Allocated quantity is already reserved against a specific shipment plan
	Allocated CommitmentSource = iota
	// Backlog is the total open order quantity, not yet allocated.
	// For a given order and product the backlog figure already includes any
	// allocated portion; consumers must net the two to avoid double counting.
	Backlog
)

// String method for CommitmentSource enum
func (s CommitmentSource) String() string {
	switch s {
	case Allocated:
		return "Allocated"
	case Backlog:
		return "Backlog"
	default:
		return "Unknown"
	}
}

// DemandCommitment represents an outstanding outgoing commitment for a
// product: either an allocation against a shipment plan or raw sales-order
// backlog. DueOn is nil for commitments with no confirmed date; those must
// never be bucketed into a projection day.
type DemandCommitment struct {
	ProductCode ProductCode
	OrderRef    string
	Source      CommitmentSource
	Quantity    Quantity
	UnitPrice   decimal.Decimal
	DueOn       *time.Time
}

// NewDemandCommitment creates a validated DemandCommitment
func NewDemandCommitment(code ProductCode, orderRef string, source CommitmentSource, qty Quantity, unitPrice decimal.Decimal, dueOn *time.Time) (*DemandCommitment, error) {
	if code == "" {
		return nil, fmt.Errorf("product code cannot be empty")
	}
	if orderRef == "" {
		return nil, fmt.Errorf("order reference cannot be empty")
	}
	if qty < 0 {
		return nil, fmt.Errorf("quantity cannot be negative, got %f", qty)
	}

	return &DemandCommitment{
		ProductCode: code,
		OrderRef:    orderRef,
		Source:      source,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		DueOn:       dueOn,
	}, nil
}

// Value returns the monetary value of the committed quantity
func (c *DemandCommitment) Value() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromFloat(c.Quantity))
}
