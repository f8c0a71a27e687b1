// Package reschedule proposes production schedule changes to resolve a
// projected stockout: advance an existing run, swap a slot with a product
// that has slack, or add extra capacity. All proposals are advisory; the
// scheduling system decides feasibility and executes.
package reschedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/foodsys/ruptura/pkg/application/services/projection"
	"github.com/foodsys/ruptura/pkg/domain/entities"
	"github.com/foodsys/ruptura/pkg/domain/repositories"
)

// Advisor inspects a production line's schedule around a product's
// projected shortfall and generates reallocation options
type Advisor struct {
	engine     *projection.Engine
	resolver   repositories.AliasResolver
	lineSource repositories.ProductionLineSource
	// defaultCapacityQty sizes the AddCapacity proposal when the advisor
	// is called proactively, before any deficit is projected.
	defaultCapacityQty entities.Quantity
	logger             *slog.Logger
}

// Option configures an Advisor
type Option func(*Advisor)

// WithLogger sets the advisor's logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Advisor) { a.logger = logger }
}

// WithDefaultCapacity overrides the proactive AddCapacity quantity
func WithDefaultCapacity(qty entities.Quantity) Option {
	return func(a *Advisor) { a.defaultCapacityQty = qty }
}

// NewAdvisor creates a reschedule advisor
func NewAdvisor(
	engine *projection.Engine,
	resolver repositories.AliasResolver,
	lineSource repositories.ProductionLineSource,
	opts ...Option,
) *Advisor {
	a := &Advisor{
		engine:             engine,
		resolver:           resolver,
		lineSource:         lineSource,
		defaultCapacityQty: 100,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SuggestReschedule proposes options for the target product's nearest
// shortfall on the given production line:
//
//   - Advance, for each of the product's own future runs on the line
//   - Swap, for each other product on the line whose own projection shows
//     slack over the horizon
//   - AddCapacity, always, sized to the projected deficit (or the default
//     quantity when called proactively with no deficit yet)
func (a *Advisor) SuggestReschedule(ctx context.Context, code entities.ProductCode, line string, horizonDays int) ([]entities.RescheduleOption, error) {
	if horizonDays < 0 {
		return nil, entities.ErrInvalidHorizon
	}

	target, err := a.engine.Project(ctx, code, horizonDays)
	if err != nil {
		return nil, err
	}

	today := a.engine.Today()
	end := today.AddDate(0, 0, horizonDays)
	events, err := a.lineSource.ScheduledEvents(ctx, line, today, end)
	if err != nil {
		return nil, &entities.SourceError{Source: "production line", Op: "ScheduledEvents", Err: err}
	}

	group, err := a.relatedCodes(ctx, code)
	if err != nil {
		return nil, err
	}

	var options []entities.RescheduleOption
	swapSeen := make(map[entities.ProductCode]bool)
	for _, event := range events {
		if inGroup(group, event.ProductCode) {
			if entities.DateOnly(event.ScheduledOn).After(today) {
				options = append(options, entities.RescheduleOption{
					Kind:  entities.Advance,
					Event: event,
				})
			}
			continue
		}

		if swapSeen[event.ProductCode] {
			continue
		}
		swapSeen[event.ProductCode] = true

		other, err := a.engine.Project(ctx, event.ProductCode, horizonDays)
		if err != nil {
			return nil, err
		}
		if other.MinBalanceHorizon > 0 {
			options = append(options, entities.RescheduleOption{
				Kind:        entities.Swap,
				Event:       event,
				SwapProduct: event.ProductCode,
				SwapSlack:   other.MinBalanceHorizon,
			})
		}
	}

	options = append(options, entities.RescheduleOption{
		Kind:         entities.AddCapacity,
		SuggestedQty: a.capacityQty(target),
	})

	a.logger.DebugContext(ctx, "reschedule options generated",
		"product", code,
		"line", line,
		"options", len(options),
		"first_shortfall", shortfallAttr(target.FirstShortfall),
	)
	return options, nil
}

// capacityQty sizes the AddCapacity option to the absolute projected
// deficit, falling back to the default lot when there is none yet
func (a *Advisor) capacityQty(target *entities.ProjectionResult) entities.Quantity {
	if target.MinBalanceHorizon < 0 {
		return -target.MinBalanceHorizon
	}
	return a.defaultCapacityQty
}

func (a *Advisor) relatedCodes(ctx context.Context, code entities.ProductCode) ([]entities.ProductCode, error) {
	if a.resolver == nil {
		return []entities.ProductCode{code}, nil
	}
	group, err := a.resolver.RelatedCodes(ctx, code)
	if err != nil {
		return nil, &entities.SourceError{Source: "alias", Op: "RelatedCodes", Err: err}
	}
	if len(group) == 0 {
		return []entities.ProductCode{code}, nil
	}
	return group, nil
}

func inGroup(codes []entities.ProductCode, code entities.ProductCode) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func shortfallAttr(date *time.Time) string {
	if date == nil {
		return "none"
	}
	return date.Format("2006-01-02")
}
