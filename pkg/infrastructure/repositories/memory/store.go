// Package memory provides in-memory implementations of the projection
// core's data source interfaces. It backs CLI scenario runs and is the
// primary test fixture.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodsys/ruptura/pkg/domain/entities"
	"github.com/foodsys/ruptura/pkg/domain/repositories"
)

// Store holds stock movements, demand commitments, supply events and alias
// groups in memory and serves all five source interfaces over them
type Store struct {
	mu          sync.RWMutex
	movements   []entities.StockMovement
	commitments []entities.DemandCommitment
	supply      []entities.SupplyEvent
	aliasGroups map[entities.ProductCode][]entities.ProductCode
	known       map[entities.ProductCode]bool
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		aliasGroups: make(map[entities.ProductCode][]entities.ProductCode),
		known:       make(map[entities.ProductCode]bool),
	}
}

// Verify interface compliance. Demand and supply are exposed as views
// because their interfaces share a ByDay method name.
var (
	_ repositories.AliasResolver        = (*Store)(nil)
	_ repositories.BalanceSource        = (*Store)(nil)
	_ repositories.DemandSource         = demandView{}
	_ repositories.SupplySource         = supplyView{}
	_ repositories.ProductionLineSource = (*Store)(nil)
)

// DemandSource returns the store's demand commitment view
func (s *Store) DemandSource() repositories.DemandSource { return demandView{s} }

// SupplySource returns the store's scheduled production view
func (s *Store) SupplySource() repositories.SupplySource { return supplyView{s} }

type demandView struct{ s *Store }

func (v demandView) ByDay(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error) {
	return v.s.DemandByDay(ctx, codes, from, to)
}

func (v demandView) Backlog(ctx context.Context, codes []entities.ProductCode) (entities.Quantity, error) {
	return v.s.Backlog(ctx, codes)
}

func (v demandView) OpenOrderStats(ctx context.Context, codes []entities.ProductCode) (int, decimal.Decimal, error) {
	return v.s.OpenOrderStats(ctx, codes)
}

type supplyView struct{ s *Store }

func (v supplyView) ByDay(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error) {
	return v.s.SupplyByDay(ctx, codes, from, to)
}

func (v supplyView) InWindow(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (entities.Quantity, error) {
	return v.s.InWindow(ctx, codes, from, to)
}

// AddMovement records a stock movement
func (s *Store) AddMovement(m entities.StockMovement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, m)
	s.known[m.ProductCode] = true
}

// AddCommitment records a demand commitment
func (s *Store) AddCommitment(c entities.DemandCommitment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitments = append(s.commitments, c)
	s.known[c.ProductCode] = true
}

// AddSupplyEvent records a scheduled production inflow
func (s *Store) AddSupplyEvent(e entities.SupplyEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supply = append(s.supply, e)
	s.known[e.ProductCode] = true
}

// AddAliasGroup registers a set of interchangeable product codes. Every
// member resolves to the full group.
func (s *Store) AddAliasGroup(codes ...entities.ProductCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group := make([]entities.ProductCode, len(codes))
	copy(group, codes)
	for _, code := range codes {
		s.aliasGroups[code] = group
		s.known[code] = true
	}
}

// RelatedCodes returns the alias group registered for a code, or nil when
// the code has no group
func (s *Store) RelatedCodes(_ context.Context, code entities.ProductCode) ([]entities.ProductCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group := s.aliasGroups[code]
	if group == nil {
		return nil, nil
	}
	out := make([]entities.ProductCode, len(group))
	copy(out, group)
	return out, nil
}

// CurrentBalance sums active movement quantities across the alias group
func (s *Store) CurrentBalance(_ context.Context, codes []entities.ProductCode) (entities.Quantity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.anyKnown(codes) {
		return 0, entities.ErrProductNotFound
	}
	var balance entities.Quantity
	for _, m := range s.movements {
		if m.Active && inGroup(codes, m.ProductCode) {
			balance += m.Quantity
		}
	}
	return balance, nil
}

// DemandByDay sums allocated commitment quantities per day within [from, to].
// Undated commitments are excluded.
func (s *Store) DemandByDay(_ context.Context, codes []entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[time.Time]entities.Quantity)
	for _, c := range s.commitments {
		if c.Source != entities.Allocated || c.DueOn == nil || !inGroup(codes, c.ProductCode) {
			continue
		}
		day := entities.DateOnly(*c.DueOn)
		if day.Before(from) || day.After(to) {
			continue
		}
		out[day] += c.Quantity
	}
	return out, nil
}

// Backlog returns the total open quantity not yet allocated: per order,
// max(0, backlog total - allocated total), summed across the group.
func (s *Store) Backlog(_ context.Context, codes []entities.ProductCode) (entities.Quantity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type orderTotals struct{ backlog, allocated entities.Quantity }
	perOrder := make(map[string]*orderTotals)
	for _, c := range s.commitments {
		if !inGroup(codes, c.ProductCode) {
			continue
		}
		totals := perOrder[c.OrderRef]
		if totals == nil {
			totals = &orderTotals{}
			perOrder[c.OrderRef] = totals
		}
		switch c.Source {
		case entities.Backlog:
			totals.backlog += c.Quantity
		case entities.Allocated:
			totals.allocated += c.Quantity
		}
	}
	var open entities.Quantity
	for _, totals := range perOrder {
		if diff := totals.backlog - totals.allocated; diff > 0 {
			open += diff
		}
	}
	return open, nil
}

// OpenOrderStats returns the distinct order count and total committed value
// for the alias group. Value is taken from backlog commitments since the
// backlog figure already includes the allocated portion.
func (s *Store) OpenOrderStats(_ context.Context, codes []entities.ProductCode) (int, decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make(map[string]bool)
	value := decimal.Zero
	for _, c := range s.commitments {
		if !inGroup(codes, c.ProductCode) {
			continue
		}
		orders[c.OrderRef] = true
		if c.Source == entities.Backlog {
			value = value.Add(c.Value())
		}
	}
	return len(orders), value, nil
}

// InWindow returns the scalar sum of scheduled supply within [from, to]
func (s *Store) InWindow(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (entities.Quantity, error) {
	byDay, err := s.SupplyByDay(ctx, codes, from, to)
	if err != nil {
		return 0, err
	}
	var total entities.Quantity
	for _, qty := range byDay {
		total += qty
	}
	return total, nil
}

// SupplyByDay sums scheduled supply quantities per day within [from, to]
func (s *Store) SupplyByDay(_ context.Context, codes []entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[time.Time]entities.Quantity)
	for _, e := range s.supply {
		if !inGroup(codes, e.ProductCode) {
			continue
		}
		day := entities.DateOnly(e.ScheduledOn)
		if day.Before(from) || day.After(to) {
			continue
		}
		out[day] += e.Quantity
	}
	return out, nil
}

// ScheduledEvents lists supply events on one production line within [from, to],
// ordered by scheduled date
func (s *Store) ScheduledEvents(_ context.Context, line string, from, to time.Time) ([]*entities.SupplyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var events []*entities.SupplyEvent
	for i := range s.supply {
		e := s.supply[i]
		day := entities.DateOnly(e.ScheduledOn)
		if e.ProductionLine != line || day.Before(from) || day.After(to) {
			continue
		}
		copied := e
		events = append(events, &copied)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].ScheduledOn.Before(events[j].ScheduledOn)
	})
	return events, nil
}

func (s *Store) anyKnown(codes []entities.ProductCode) bool {
	for _, code := range codes {
		if s.known[code] {
			return true
		}
	}
	return false
}

func inGroup(codes []entities.ProductCode, code entities.ProductCode) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
