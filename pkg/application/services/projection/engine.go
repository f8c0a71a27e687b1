// Package projection implements the day-by-day forward balance simulation:
// current stock plus scheduled production inflows minus committed demand,
// simulated over a configurable horizon to find the first stockout day.
package projection

import (
	"context"
	"log/slog"
	"time"

	"github.com/foodsys/ruptura/pkg/domain/entities"
	"github.com/foodsys/ruptura/pkg/domain/repositories"
)

// Clock returns the current time. Injected so projections are testable
// against fixed dates.
type Clock func() time.Time

// Engine computes forward balance projections. It is stateless between
// calls: every projection is recomputed fresh from the data sources, and
// the returned series is owned by the caller.
type Engine struct {
	balance *BalanceReader
	demand  *DemandAggregator
	supply  *SupplyAggregator
	clock   Clock
	logger  *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the engine's time source
func WithClock(clock Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger sets the engine's logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a projection engine over the injected data sources
func NewEngine(
	resolver repositories.AliasResolver,
	balanceSource repositories.BalanceSource,
	demandSource repositories.DemandSource,
	supplySource repositories.SupplySource,
	opts ...Option,
) *Engine {
	e := &Engine{
		balance: NewBalanceReader(resolver, balanceSource),
		demand:  NewDemandAggregator(resolver, demandSource),
		supply:  NewSupplyAggregator(resolver, supplySource),
		clock:   time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the engine's current calendar day
func (e *Engine) Today() time.Time {
	return entities.DateOnly(e.clock())
}

// Demand exposes the engine's demand aggregator for callers that need
// backlog or order statistics alongside a projection.
func (e *Engine) Demand() *DemandAggregator {
	return e.demand
}

// Supply exposes the engine's supply aggregator
func (e *Engine) Supply() *SupplyAggregator {
	return e.supply
}

// Project simulates the product's balance day by day over the horizon.
//
// For each day, the day's outflow is subtracted from the opening balance
// first and the day's inflow added after. The ordering is part of the
// contract: a same-day production arrival must not mask a same-day
// shortfall in the AfterOutflow field, only in the closing balance.
//
// Any data source failure propagates as a typed error; the engine never
// substitutes zero for a failed read.
func (e *Engine) Project(ctx context.Context, code entities.ProductCode, horizonDays int) (*entities.ProjectionResult, error) {
	if horizonDays < 0 {
		return nil, entities.ErrInvalidHorizon
	}

	today := e.Today()
	end := today.AddDate(0, 0, horizonDays)

	balance, err := e.balance.CurrentBalance(ctx, code)
	if err != nil {
		return nil, err
	}
	outgoing, err := e.demand.OutgoingByDay(ctx, code, today, end)
	if err != nil {
		return nil, err
	}
	incoming, err := e.supply.IncomingByDay(ctx, code, today, end)
	if err != nil {
		return nil, err
	}

	result := &entities.ProjectionResult{
		ProductCode:    code,
		CurrentBalance: balance,
		HorizonDays:    horizonDays,
		Days:           make([]entities.DailyProjection, 0, horizonDays+1),
	}

	opening := balance
	for day := 0; day <= horizonDays; day++ {
		date := today.AddDate(0, 0, day)
		outflow := outgoing[date]
		afterOutflow := opening - outflow
		inflow := incoming[date]
		closing := afterOutflow + inflow

		result.Days = append(result.Days, entities.DailyProjection{
			DayIndex:       day,
			Date:           date,
			OpeningBalance: opening,
			Inflow:         inflow,
			Outflow:        outflow,
			AfterOutflow:   afterOutflow,
			ClosingBalance: closing,
		})

		if closing < 0 && result.FirstShortfall == nil {
			d := date
			result.FirstShortfall = &d
		}
		opening = closing
	}

	weekEnd := 7
	if horizonDays < weekEnd {
		weekEnd = horizonDays
	}
	result.MinBalanceWeek = minClosing(result.Days[:weekEnd+1])
	result.MinBalanceHorizon = minClosing(result.Days)

	e.logger.DebugContext(ctx, "projected product balance",
		"product", code,
		"horizon_days", horizonDays,
		"current_balance", balance,
		"min_balance_horizon", result.MinBalanceHorizon,
		"has_shortfall", result.HasShortfall(),
	)

	return result, nil
}

func minClosing(days []entities.DailyProjection) entities.Quantity {
	min := days[0].ClosingBalance
	for _, d := range days[1:] {
		if d.ClosingBalance < min {
			min = d.ClosingBalance
		}
	}
	return min
}
