// Package repositories defines the read-only data source interfaces the
// projection core consumes. Implementations live in infrastructure; the
// core never writes through any of them.
package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodsys/ruptura/pkg/domain/entities"
)

// AliasResolver resolves the alias group of a product code: the set of
// interchangeable codes recorded for the same physical item over time.
// An empty result means the code has no registered group; callers fail
// open and treat the group as the single input code.
type AliasResolver interface {
	RelatedCodes(ctx context.Context, code entities.ProductCode) ([]entities.ProductCode, error)
}

// BalanceSource provides the current on-hand balance for an alias group:
// the signed sum of all active stock movements, with no day dimension.
// Implementations return entities.ErrProductNotFound when no source holds
// any data for any code in the group.
type BalanceSource interface {
	CurrentBalance(ctx context.Context, codes []entities.ProductCode) (entities.Quantity, error)
}

// DemandSource provides outstanding outgoing commitments for an alias group
type DemandSource interface {
	// ByDay sums allocated commitment quantities per calendar day within
	// [from, to]. Commitments without a date are excluded, never defaulted
	// to the range start.
	ByDay(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error)

	// Backlog returns the total open quantity not yet allocated:
	// sum over orders of max(0, backlog total - allocated total), so the
	// allocated portion is never double counted.
	Backlog(ctx context.Context, codes []entities.ProductCode) (entities.Quantity, error)

	// OpenOrderStats returns the number of distinct orders with open
	// commitments for the group and their total monetary value.
	OpenOrderStats(ctx context.Context, codes []entities.ProductCode) (int, decimal.Decimal, error)
}

// SupplySource provides scheduled production inflows for an alias group
type SupplySource interface {
	// ByDay sums scheduled supply quantities per calendar day within [from, to].
	ByDay(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error)

	// InWindow returns the scalar sum of scheduled supply within [from, to].
	InWindow(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (entities.Quantity, error)
}

// ProductionLineSource lists the production schedule of one line, used by
// the reschedule advisor to find candidate slots
type ProductionLineSource interface {
	ScheduledEvents(ctx context.Context, line string, from, to time.Time) ([]*entities.SupplyEvent, error)
}
