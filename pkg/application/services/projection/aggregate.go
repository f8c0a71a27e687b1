package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodsys/ruptura/pkg/domain/entities"
	"github.com/foodsys/ruptura/pkg/domain/repositories"
)

// resolveGroup returns the alias group for a code, failing open to the
// single input code when no group is registered.
func resolveGroup(ctx context.Context, resolver repositories.AliasResolver, code entities.ProductCode) ([]entities.ProductCode, error) {
	if resolver == nil {
		return []entities.ProductCode{code}, nil
	}
	codes, err := resolver.RelatedCodes(ctx, code)
	if err != nil {
		return nil, &entities.SourceError{Source: "alias", Op: "RelatedCodes", Err: err}
	}
	if len(codes) == 0 {
		return []entities.ProductCode{code}, nil
	}
	return codes, nil
}

// BalanceReader resolves the current on-hand balance of a product over its
// full alias group. The balance is a single signed running total; there is
// no day dimension.
type BalanceReader struct {
	resolver repositories.AliasResolver
	source   repositories.BalanceSource
}

// NewBalanceReader creates a BalanceReader over the given collaborators
func NewBalanceReader(resolver repositories.AliasResolver, source repositories.BalanceSource) *BalanceReader {
	return &BalanceReader{resolver: resolver, source: source}
}

// CurrentBalance returns the signed sum of all active stock movements for
// the product's alias group
func (r *BalanceReader) CurrentBalance(ctx context.Context, code entities.ProductCode) (entities.Quantity, error) {
	codes, err := resolveGroup(ctx, r.resolver, code)
	if err != nil {
		return 0, err
	}
	balance, err := r.source.CurrentBalance(ctx, codes)
	if err != nil {
		if errors.Is(err, entities.ErrProductNotFound) {
			return 0, fmt.Errorf("balance for %s: %w", code, err)
		}
		return 0, &entities.SourceError{Source: "balance", Op: "CurrentBalance", Err: err}
	}
	return balance, nil
}

// DemandAggregator sums future outgoing commitments for a product's alias
// group: allocated quantities bucketed per day, raw backlog as a scalar.
type DemandAggregator struct {
	resolver repositories.AliasResolver
	source   repositories.DemandSource
}

// NewDemandAggregator creates a DemandAggregator over the given collaborators
func NewDemandAggregator(resolver repositories.AliasResolver, source repositories.DemandSource) *DemandAggregator {
	return &DemandAggregator{resolver: resolver, source: source}
}

// OutgoingByDay sums allocated commitment quantities per day within
// [from, to]. Commitments without a date never appear here; they are
// surfaced separately through TotalBacklog.
func (a *DemandAggregator) OutgoingByDay(ctx context.Context, code entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error) {
	codes, err := resolveGroup(ctx, a.resolver, code)
	if err != nil {
		return nil, err
	}
	byDay, err := a.source.ByDay(ctx, codes, entities.DateOnly(from), entities.DateOnly(to))
	if err != nil {
		return nil, &entities.SourceError{Source: "demand", Op: "ByDay", Err: err}
	}
	return byDay, nil
}

// TotalBacklog returns the total open quantity not yet allocated for the
// product's alias group
func (a *DemandAggregator) TotalBacklog(ctx context.Context, code entities.ProductCode) (entities.Quantity, error) {
	codes, err := resolveGroup(ctx, a.resolver, code)
	if err != nil {
		return 0, err
	}
	backlog, err := a.source.Backlog(ctx, codes)
	if err != nil {
		return 0, &entities.SourceError{Source: "demand", Op: "Backlog", Err: err}
	}
	return backlog, nil
}

// OpenOrderStats returns the distinct open order count and total monetary
// value committed against the product's alias group
func (a *DemandAggregator) OpenOrderStats(ctx context.Context, code entities.ProductCode) (int, decimal.Decimal, error) {
	codes, err := resolveGroup(ctx, a.resolver, code)
	if err != nil {
		return 0, decimal.Zero, err
	}
	orders, value, err := a.source.OpenOrderStats(ctx, codes)
	if err != nil {
		return 0, decimal.Zero, &entities.SourceError{Source: "demand", Op: "OpenOrderStats", Err: err}
	}
	return orders, value, nil
}

// SupplyAggregator sums scheduled production inflows for a product's alias group
type SupplyAggregator struct {
	resolver repositories.AliasResolver
	source   repositories.SupplySource
}

// NewSupplyAggregator creates a SupplyAggregator over the given collaborators
func NewSupplyAggregator(resolver repositories.AliasResolver, source repositories.SupplySource) *SupplyAggregator {
	return &SupplyAggregator{resolver: resolver, source: source}
}

// IncomingByDay sums scheduled supply quantities per day within [from, to]
func (a *SupplyAggregator) IncomingByDay(ctx context.Context, code entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error) {
	codes, err := resolveGroup(ctx, a.resolver, code)
	if err != nil {
		return nil, err
	}
	byDay, err := a.source.ByDay(ctx, codes, entities.DateOnly(from), entities.DateOnly(to))
	if err != nil {
		return nil, &entities.SourceError{Source: "supply", Op: "ByDay", Err: err}
	}
	return byDay, nil
}

// TotalInWindow returns the scalar sum of scheduled supply within [from, to],
// used for "production scheduled in the next N days" risk annotations.
func (a *SupplyAggregator) TotalInWindow(ctx context.Context, code entities.ProductCode, from, to time.Time) (entities.Quantity, error) {
	codes, err := resolveGroup(ctx, a.resolver, code)
	if err != nil {
		return 0, err
	}
	total, err := a.source.InWindow(ctx, codes, entities.DateOnly(from), entities.DateOnly(to))
	if err != nil {
		return 0, &entities.SourceError{Source: "supply", Op: "InWindow", Err: err}
	}
	return total, nil
}
