// Package fulfillment generates shipping options for a single order:
// wait for every line to be available, or ship now without the worst
// bottleneck lines.
package fulfillment

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/foodsys/ruptura/pkg/application/services/projection"
	"github.com/foodsys/ruptura/pkg/domain/entities"
	"github.com/foodsys/ruptura/pkg/domain/services"
)

var hundred = decimal.NewFromInt(100)

// Generator derives fulfillment options and order-level risk from per-line
// projections
type Generator struct {
	engine     *projection.Engine
	classifier *services.OrderRiskClassifier
	logger     *slog.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the generator's logger
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator creates a fulfillment option generator
func NewGenerator(engine *projection.Engine, classifier *services.OrderRiskClassifier, opts ...Option) *Generator {
	g := &Generator{
		engine:     engine,
		classifier: classifier,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateOptions proposes fulfillment options for one order.
//
// Option A ships everything once every line is available. Option B drops
// the single worst bottleneck line, option C the two worst; B and C exist
// only when the order has that many bottlenecks. Bottlenecks rank by first
// sufficient date, latest first (never-sufficient worst of all), ties
// broken by line value descending.
func (g *Generator) GenerateOptions(ctx context.Context, lines []entities.OrderLine, horizonDays int) ([]entities.FulfillmentOption, error) {
	if horizonDays < 0 {
		return nil, entities.ErrInvalidHorizon
	}

	resolved, err := g.resolveLines(ctx, lines, horizonDays)
	if err != nil {
		return nil, err
	}

	totalValue := orderValue(resolved)
	bottlenecks := rankBottlenecks(resolved)

	options := []entities.FulfillmentOption{
		g.buildOption("A", resolved, nil, totalValue),
	}
	if len(bottlenecks) >= 1 {
		options = append(options, g.buildOption("B", resolved, bottlenecks[:1], totalValue))
	}
	if len(bottlenecks) >= 2 {
		options = append(options, g.buildOption("C", resolved, bottlenecks[:2], totalValue))
	}

	g.logger.DebugContext(ctx, "generated fulfillment options",
		"lines", len(resolved),
		"bottlenecks", len(bottlenecks),
		"options", len(options),
	)
	return options, nil
}

// AssessOrder classifies the fulfillment risk of one order from the count
// of lines not available today and their share of the order value
func (g *Generator) AssessOrder(ctx context.Context, lines []entities.OrderLine, horizonDays int) (*entities.OrderRisk, error) {
	resolved, err := g.resolveLines(ctx, lines, horizonDays)
	if err != nil {
		return nil, err
	}

	totalValue := orderValue(resolved)
	atRisk := decimal.Zero
	affected := 0
	for i := range resolved {
		if !resolved[i].AvailableToday {
			affected++
			atRisk = atRisk.Add(resolved[i].Value())
		}
	}

	pct := decimal.Zero
	if totalValue.IsPositive() {
		pct = atRisk.Div(totalValue).Mul(hundred)
	}

	return &entities.OrderRisk{
		AffectedLines: affected,
		TotalLines:    len(resolved),
		ValueAtRisk:   atRisk,
		PctAtRisk:     pct,
		Level:         g.classifier.Classify(affected, pct),
	}, nil
}

// resolveLines projects each line's product and fills in availability:
// whether current stock covers the line and the first projected day whose
// closing balance does. Sufficiency is relative to the line quantity, not
// to zero.
func (g *Generator) resolveLines(ctx context.Context, lines []entities.OrderLine, horizonDays int) ([]entities.OrderLine, error) {
	resolved := make([]entities.OrderLine, len(lines))
	for i, line := range lines {
		result, err := g.engine.Project(ctx, line.ProductCode, horizonDays)
		if err != nil {
			return nil, err
		}
		line.AvailableToday = result.CurrentBalance >= line.Quantity
		if line.AvailableToday {
			today := g.engine.Today()
			line.FirstSufficient = &today
		} else {
			line.FirstSufficient = result.FirstSufficientDate(line.Quantity)
		}
		resolved[i] = line
	}
	return resolved, nil
}

// buildOption assembles one option from the resolved lines minus the
// excluded bottlenecks. The ship date is the max of the included lines'
// availability dates, today when everything is already available, and nil
// when an included line never reaches sufficiency within the horizon.
func (g *Generator) buildOption(code string, resolved, excluded []entities.OrderLine, totalValue decimal.Decimal) entities.FulfillmentOption {
	opt := entities.FulfillmentOption{
		Code:  code,
		Value: decimal.Zero,
	}

	today := g.engine.Today()
	shipDate := &today
	for _, line := range resolved {
		if containsLine(excluded, line) {
			opt.Excluded = append(opt.Excluded, line)
			continue
		}
		opt.Included = append(opt.Included, line)
		opt.Value = opt.Value.Add(line.Value())
		switch {
		case line.FirstSufficient == nil:
			shipDate = nil
		case shipDate != nil && line.FirstSufficient.After(*shipDate):
			d := *line.FirstSufficient
			shipDate = &d
		}
	}

	opt.ShipDate = shipDate
	opt.IncludedLines = len(opt.Included)
	opt.ExcludedLines = len(opt.Excluded)
	opt.PctOfOrder = decimal.Zero
	if totalValue.IsPositive() {
		opt.PctOfOrder = opt.Value.Div(totalValue).Mul(hundred)
	}
	return opt
}

// rankBottlenecks returns the lines not available today, worst first:
// never-sufficient lines, then latest first-sufficient date, ties broken
// by line value descending.
func rankBottlenecks(resolved []entities.OrderLine) []entities.OrderLine {
	var bottlenecks []entities.OrderLine
	for _, line := range resolved {
		if !line.AvailableToday {
			bottlenecks = append(bottlenecks, line)
		}
	}
	sort.SliceStable(bottlenecks, func(i, j int) bool {
		di, dj := bottlenecks[i].FirstSufficient, bottlenecks[j].FirstSufficient
		switch {
		case di == nil && dj != nil:
			return true
		case di != nil && dj == nil:
			return false
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.After(*dj)
		}
		return bottlenecks[i].Value().GreaterThan(bottlenecks[j].Value())
	})
	return bottlenecks
}

func orderValue(lines []entities.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].Value())
	}
	return total
}

func containsLine(lines []entities.OrderLine, line entities.OrderLine) bool {
	for i := range lines {
		if lines[i].ProductCode == line.ProductCode && lines[i].Quantity == line.Quantity {
			return true
		}
	}
	return false
}
