// Package scan fans the projection engine out across the whole product
// catalog with bounded concurrency, classifies each result and assembles a
// ranked stockout risk list.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foodsys/ruptura/pkg/application/services/projection"
	"github.com/foodsys/ruptura/pkg/domain/entities"
	"github.com/foodsys/ruptura/pkg/domain/services"
	"github.com/foodsys/ruptura/pkg/infrastructure/metrics"
)

// Failure records one product whose projection could not be completed
// during a scan. Failed products are reported here and never appear in the
// risk list: "status unknown" must stay distinguishable from "no risk".
type Failure struct {
	ProductCode entities.ProductCode `json:"product_code"`
	Code        entities.ErrorCode   `json:"code"`
	Err         string               `json:"error"`
}

// Report is the outcome of one catalog scan
type Report struct {
	ScanID    string             `json:"scan_id"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration"`
	// Complete is false when the scan was cancelled before every product
	// was evaluated; Entries then covers only the products that finished.
	Complete bool                 `json:"complete"`
	Scanned  int                  `json:"scanned"`
	Entries  []entities.RiskEntry `json:"entries"`
	Failures []Failure            `json:"failures"`
}

// Scheduler runs catalog-wide projections under a bounded worker pool.
// Workers share no mutable state beyond the guarded result slices; each
// operates on its own ProjectionResult.
type Scheduler struct {
	engine         *projection.Engine
	classifier     *services.RuptureClassifier
	maxConcurrency int
	perItemTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Scan
	onItem         func(entities.ProductCode)
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithMetrics attaches prometheus scan collectors
func WithMetrics(m *metrics.Scan) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithItemObserver registers a callback invoked after each product finishes,
// successfully or not. Used for CLI progress reporting; may be called from
// any worker goroutine.
func WithItemObserver(observer func(entities.ProductCode)) Option {
	return func(s *Scheduler) { s.onItem = observer }
}

// NewScheduler creates a scheduler. maxConcurrency bounds the worker pool;
// perItemTimeout bounds each product's projection.
func NewScheduler(
	engine *projection.Engine,
	classifier *services.RuptureClassifier,
	maxConcurrency int,
	perItemTimeout time.Duration,
	opts ...Option,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	s := &Scheduler{
		engine:         engine,
		classifier:     classifier,
		maxConcurrency: maxConcurrency,
		perItemTimeout: perItemTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanCatalog projects every product, keeps the ones at risk and returns
// them ranked: nearest shortfall first, higher value at risk breaking ties.
// Products whose projection fails or times out are isolated as Failures.
//
// Cancelling the context stops dispatching new work; the partial report is
// returned together with entities.ErrScanCancelled and Complete=false.
func (s *Scheduler) ScanCatalog(ctx context.Context, codes []entities.ProductCode, horizonDays int) (*Report, error) {
	if horizonDays < 0 {
		return nil, entities.ErrInvalidHorizon
	}

	report := &Report{
		ScanID:    uuid.NewString(),
		StartedAt: s.engine.Today(),
		Complete:  true,
	}
	started := time.Now()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		cancelled bool
	)
	sem := make(chan struct{}, s.maxConcurrency)

dispatch:
	for _, code := range codes {
		select {
		case <-ctx.Done():
			cancelled = true
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(code entities.ProductCode) {
			defer wg.Done()
			defer func() { <-sem }()

			entry, err := s.evaluate(ctx, code, horizonDays)
			if s.onItem != nil {
				s.onItem(code)
			}

			mu.Lock()
			defer mu.Unlock()
			report.Scanned++
			switch {
			case err != nil:
				report.Failures = append(report.Failures, Failure{
					ProductCode: code,
					Code:        entities.Code(err),
					Err:         err.Error(),
				})
				s.metrics.ObserveFailure(string(entities.Code(err)))
			case entry != nil:
				report.Entries = append(report.Entries, *entry)
			}
		}(code)
	}

	wg.Wait()

	report.Duration = time.Since(started)
	s.sortEntries(report.Entries)
	s.metrics.ObserveScan(report.Scanned, len(report.Entries), report.Duration)

	s.logger.InfoContext(ctx, "catalog scan finished",
		"scan_id", report.ScanID,
		"scanned", report.Scanned,
		"at_risk", len(report.Entries),
		"failures", len(report.Failures),
		"complete", !cancelled,
		"duration", report.Duration,
	)

	if cancelled {
		report.Complete = false
		return report, entities.ErrScanCancelled
	}
	return report, nil
}

// evaluate projects and classifies one product. A nil entry with nil error
// means the product is not at risk.
func (s *Scheduler) evaluate(ctx context.Context, code entities.ProductCode, horizonDays int) (*entities.RiskEntry, error) {
	itemCtx := ctx
	if s.perItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, s.perItemTimeout)
		defer cancel()
	}

	result, err := s.engine.Project(itemCtx, code, horizonDays)
	if err != nil {
		return nil, s.wrapItemErr(ctx, itemCtx, err)
	}

	today := s.engine.Today()
	severity := s.classifier.Classify(result, today)
	immediateDeficit := result.CurrentBalance < 0 || result.ImmediateDeficit()
	if severity == entities.SeverityOK && !immediateDeficit {
		return nil, nil
	}

	end := today.AddDate(0, 0, horizonDays)
	outgoing, err := s.engine.Demand().OutgoingByDay(itemCtx, code, today, end)
	if err != nil {
		return nil, s.wrapItemErr(ctx, itemCtx, err)
	}
	var committed entities.Quantity
	for _, qty := range outgoing {
		committed += qty
	}
	backlog, err := s.engine.Demand().TotalBacklog(itemCtx, code)
	if err != nil {
		return nil, s.wrapItemErr(ctx, itemCtx, err)
	}
	committed += backlog

	orders, valueAtRisk, err := s.engine.Demand().OpenOrderStats(itemCtx, code)
	if err != nil {
		return nil, s.wrapItemErr(ctx, itemCtx, err)
	}
	scheduled, err := s.engine.Supply().TotalInWindow(itemCtx, code, today, end)
	if err != nil {
		return nil, s.wrapItemErr(ctx, itemCtx, err)
	}

	entry := &entities.RiskEntry{
		ProductCode:       code,
		CurrentBalance:    result.CurrentBalance,
		MinBalanceWeek:    result.MinBalanceWeek,
		MinBalanceHorizon: result.MinBalanceHorizon,
		FirstShortfall:    result.FirstShortfall,
		DaysToShortfall:   -1,
		CommittedQty:      committed,
		AffectedOrders:    orders,
		ValueAtRisk:       valueAtRisk,
		ScheduledInWindow: scheduled,
		Severity:          severity,
	}
	if days, ok := result.DaysToShortfall(today); ok {
		entry.DaysToShortfall = days
	}
	return entry, nil
}

// wrapItemErr maps a per-item context deadline onto the timeout taxonomy.
// A parent cancellation is left as-is so the scan loop reports Cancelled.
func (s *Scheduler) wrapItemErr(parent, item context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil && item.Err() != nil {
		return entities.ErrProjectionTimeout
	}
	return err
}

// sortEntries orders the risk list deterministically: days-to-shortfall
// ascending with "never" sorting last, then value at risk descending.
func (s *Scheduler) sortEntries(entries []entities.RiskEntry) {
	const neverShortfall = int((^uint(0)) >> 1)
	key := func(e entities.RiskEntry) int {
		if e.FirstShortfall == nil {
			return neverShortfall
		}
		return e.DaysToShortfall
	}
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := key(entries[i]), key(entries[j])
		if di != dj {
			return di < dj
		}
		return entries[i].ValueAtRisk.GreaterThan(entries[j].ValueAtRisk)
	})
}
