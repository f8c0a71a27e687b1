package sqlite

import (
	"context"
	"fmt"

	"github.com/foodsys/ruptura/pkg/domain/entities"
)

// Insert helpers used by data loaders and tests. The projection core never
// writes; these exist for the surrounding application.

// AddMovement inserts a stock movement
func (s *Store) AddMovement(ctx context.Context, m entities.StockMovement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_movements (product_code, quantity, active, moved_on)
		VALUES (?, ?, ?, ?)`,
		string(m.ProductCode), m.Quantity, boolInt(m.Active), m.MovedOn.Format(dayFormat))
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// AddCommitment inserts a demand commitment. A nil DueOn is stored as NULL.
func (s *Store) AddCommitment(ctx context.Context, c entities.DemandCommitment) error {
	var dueOn any
	if c.DueOn != nil {
		dueOn = c.DueOn.Format(dayFormat)
	}
	source := "allocated"
	if c.Source == entities.Backlog {
		source = "backlog"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO demand_commitments (product_code, order_ref, source, quantity, unit_price, due_on)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(c.ProductCode), c.OrderRef, source, c.Quantity, c.UnitPrice.String(), dueOn)
	if err != nil {
		return fmt.Errorf("insert commitment: %w", err)
	}
	return nil
}

// AddSupplyEvent inserts a scheduled production inflow
func (s *Store) AddSupplyEvent(ctx context.Context, e entities.SupplyEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO supply_events (product_code, production_line, quantity, scheduled_on)
		VALUES (?, ?, ?, ?)`,
		string(e.ProductCode), e.ProductionLine, e.Quantity, e.ScheduledOn.Format(dayFormat))
	if err != nil {
		return fmt.Errorf("insert supply event: %w", err)
	}
	return nil
}

// AddAliasGroup registers a set of interchangeable codes under one group id
func (s *Store) AddAliasGroup(ctx context.Context, groupID string, codes ...entities.ProductCode) error {
	for _, code := range codes {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO product_aliases (product_code, group_id)
			VALUES (?, ?)`, string(code), groupID)
		if err != nil {
			return fmt.Errorf("insert alias %s: %w", code, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
