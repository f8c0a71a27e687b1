// Package sqlite implements the projection core's data source interfaces
// over a SQLite database. Aggregation happens in SQL; the store returns the
// same day-bucketed maps the in-memory fixture does.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/foodsys/ruptura/pkg/domain/entities"
	"github.com/foodsys/ruptura/pkg/domain/repositories"
)

const dayFormat = "2006-01-02"

// Store serves the source interfaces from a SQLite database
type Store struct {
	db *sql.DB
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

// Open opens (creating when missing) a SQLite-backed store at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStore wraps an already-open database handle (tests, shared pools)
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for data loading
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) migrate() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS stock_movements (
			product_code TEXT NOT NULL,
			quantity REAL NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			moved_on TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movements_code ON stock_movements(product_code)`,
		`CREATE TABLE IF NOT EXISTS demand_commitments (
			product_code TEXT NOT NULL,
			order_ref TEXT NOT NULL,
			source TEXT NOT NULL CHECK (source IN ('allocated', 'backlog')),
			quantity REAL NOT NULL,
			unit_price TEXT NOT NULL DEFAULT '0',
			due_on TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_commitments_code ON demand_commitments(product_code)`,
		`CREATE TABLE IF NOT EXISTS supply_events (
			product_code TEXT NOT NULL,
			production_line TEXT NOT NULL,
			quantity REAL NOT NULL,
			scheduled_on TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_supply_code ON supply_events(product_code)`,
		`CREATE INDEX IF NOT EXISTS idx_supply_line ON supply_events(production_line)`,
		`CREATE TABLE IF NOT EXISTS product_aliases (
			product_code TEXT NOT NULL,
			group_id TEXT NOT NULL,
			PRIMARY KEY (product_code, group_id)
		)`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// DemandSource returns the store's demand commitment view
func (s *Store) DemandSource() repositories.DemandSource { return demandView{s} }

// SupplySource returns the store's scheduled production view
func (s *Store) SupplySource() repositories.SupplySource { return supplyView{s} }

// RelatedCodes resolves a code's alias group: every code sharing a group id
// with the input. Returns nil when the code is not in any group.
func (s *Store) RelatedCodes(ctx context.Context, code entities.ProductCode) ([]entities.ProductCode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT a2.product_code
		FROM product_aliases a1
		JOIN product_aliases a2 ON a2.group_id = a1.group_id
		WHERE a1.product_code = ?
		ORDER BY a2.product_code`, string(code))
	if err != nil {
		return nil, fmt.Errorf("related codes for %s: %w", code, err)
	}
	defer func() { _ = rows.Close() }()

	var codes []entities.ProductCode
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		codes = append(codes, entities.ProductCode(c))
	}
	return codes, rows.Err()
}

// CurrentBalance sums active movement quantities across the alias group
func (s *Store) CurrentBalance(ctx context.Context, codes []entities.ProductCode) (entities.Quantity, error) {
	known, err := s.anyKnown(ctx, codes)
	if err != nil {
		return 0, err
	}
	if !known {
		return 0, entities.ErrProductNotFound
	}

	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(quantity), 0)
		FROM stock_movements
		WHERE active = 1 AND product_code IN (%s)`, placeholders(len(codes)))
	var balance float64
	if err := s.db.QueryRowContext(ctx, query, codeArgs(codes)...).Scan(&balance); err != nil {
		return 0, fmt.Errorf("current balance: %w", err)
	}
	return balance, nil
}

func (s *Store) demandByDay(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error) {
	query := fmt.Sprintf(`
		SELECT due_on, SUM(quantity)
		FROM demand_commitments
		WHERE source = 'allocated'
		  AND due_on IS NOT NULL
		  AND due_on BETWEEN ? AND ?
		  AND product_code IN (%s)
		GROUP BY due_on`, placeholders(len(codes)))
	args := append([]any{from.Format(dayFormat), to.Format(dayFormat)}, codeArgs(codes)...)
	return s.queryByDay(ctx, "demand by day", query, args)
}

func (s *Store) backlog(ctx context.Context, codes []entities.ProductCode) (entities.Quantity, error) {
	query := fmt.Sprintf(`
		SELECT order_ref,
		       COALESCE(SUM(CASE WHEN source = 'backlog' THEN quantity END), 0),
		       COALESCE(SUM(CASE WHEN source = 'allocated' THEN quantity END), 0)
		FROM demand_commitments
		WHERE product_code IN (%s)
		GROUP BY order_ref`, placeholders(len(codes)))
	rows, err := s.db.QueryContext(ctx, query, codeArgs(codes)...)
	if err != nil {
		return 0, fmt.Errorf("backlog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var open float64
	for rows.Next() {
		var orderRef string
		var backlog, allocated float64
		if err := rows.Scan(&orderRef, &backlog, &allocated); err != nil {
			return 0, fmt.Errorf("scan backlog: %w", err)
		}
		if diff := backlog - allocated; diff > 0 {
			open += diff
		}
	}
	return open, rows.Err()
}

func (s *Store) openOrderStats(ctx context.Context, codes []entities.ProductCode) (int, decimal.Decimal, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(DISTINCT order_ref)
		FROM demand_commitments
		WHERE product_code IN (%s)`, placeholders(len(codes)))
	var orders int
	if err := s.db.QueryRowContext(ctx, query, codeArgs(codes)...).Scan(&orders); err != nil {
		return 0, decimal.Zero, fmt.Errorf("open order count: %w", err)
	}

	// Value comes from backlog rows: the backlog figure already includes
	// the allocated portion. Prices are stored as text and summed with
	// decimal arithmetic to avoid float drift on money.
	query = fmt.Sprintf(`
		SELECT quantity, unit_price
		FROM demand_commitments
		WHERE source = 'backlog' AND product_code IN (%s)`, placeholders(len(codes)))
	rows, err := s.db.QueryContext(ctx, query, codeArgs(codes)...)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("open order value: %w", err)
	}
	defer func() { _ = rows.Close() }()

	value := decimal.Zero
	for rows.Next() {
		var qty float64
		var price string
		if err := rows.Scan(&qty, &price); err != nil {
			return 0, decimal.Zero, fmt.Errorf("scan order value: %w", err)
		}
		unit, err := decimal.NewFromString(price)
		if err != nil {
			return 0, decimal.Zero, fmt.Errorf("parse unit price %q: %w", price, err)
		}
		value = value.Add(unit.Mul(decimal.NewFromFloat(qty)))
	}
	return orders, value, rows.Err()
}

func (s *Store) supplyByDay(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error) {
	query := fmt.Sprintf(`
		SELECT scheduled_on, SUM(quantity)
		FROM supply_events
		WHERE scheduled_on BETWEEN ? AND ?
		  AND product_code IN (%s)
		GROUP BY scheduled_on`, placeholders(len(codes)))
	args := append([]any{from.Format(dayFormat), to.Format(dayFormat)}, codeArgs(codes)...)
	return s.queryByDay(ctx, "supply by day", query, args)
}

func (s *Store) supplyInWindow(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (entities.Quantity, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(quantity), 0)
		FROM supply_events
		WHERE scheduled_on BETWEEN ? AND ?
		  AND product_code IN (%s)`, placeholders(len(codes)))
	args := append([]any{from.Format(dayFormat), to.Format(dayFormat)}, codeArgs(codes)...)
	var total float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("supply in window: %w", err)
	}
	return total, nil
}

// ScheduledEvents lists supply events on one production line within [from, to]
func (s *Store) ScheduledEvents(ctx context.Context, line string, from, to time.Time) ([]*entities.SupplyEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_code, production_line, quantity, scheduled_on
		FROM supply_events
		WHERE production_line = ? AND scheduled_on BETWEEN ? AND ?
		ORDER BY scheduled_on, product_code`,
		line, from.Format(dayFormat), to.Format(dayFormat))
	if err != nil {
		return nil, fmt.Errorf("scheduled events on %s: %w", line, err)
	}
	defer func() { _ = rows.Close() }()

	var events []*entities.SupplyEvent
	for rows.Next() {
		var code, eventLine, day string
		var qty float64
		if err := rows.Scan(&code, &eventLine, &qty, &day); err != nil {
			return nil, fmt.Errorf("scan supply event: %w", err)
		}
		scheduledOn, err := time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse scheduled date %q: %w", day, err)
		}
		events = append(events, &entities.SupplyEvent{
			ProductCode:    entities.ProductCode(code),
			ProductionLine: eventLine,
			Quantity:       qty,
			ScheduledOn:    scheduledOn,
		})
	}
	return events, rows.Err()
}

func (s *Store) queryByDay(ctx context.Context, op, query string, args []any) (map[time.Time]entities.Quantity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[time.Time]entities.Quantity)
	for rows.Next() {
		var day string
		var qty float64
		if err := rows.Scan(&day, &qty); err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		date, err := time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse %s date %q: %w", op, day, err)
		}
		out[date] += qty
	}
	return out, rows.Err()
}

// anyKnown reports whether any table holds data for any code in the group
func (s *Store) anyKnown(ctx context.Context, codes []entities.ProductCode) (bool, error) {
	ph := placeholders(len(codes))
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM stock_movements WHERE product_code IN (%s))
		    OR EXISTS (SELECT 1 FROM demand_commitments WHERE product_code IN (%s))
		    OR EXISTS (SELECT 1 FROM supply_events WHERE product_code IN (%s))
		    OR EXISTS (SELECT 1 FROM product_aliases WHERE product_code IN (%s))`,
		ph, ph, ph, ph)
	args := make([]any, 0, len(codes)*4)
	for i := 0; i < 4; i++ {
		args = append(args, codeArgs(codes)...)
	}
	var known bool
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&known); err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return known, nil
}

type demandView struct{ s *Store }

func (v demandView) ByDay(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error) {
	return v.s.demandByDay(ctx, codes, from, to)
}

func (v demandView) Backlog(ctx context.Context, codes []entities.ProductCode) (entities.Quantity, error) {
	return v.s.backlog(ctx, codes)
}

func (v demandView) OpenOrderStats(ctx context.Context, codes []entities.ProductCode) (int, decimal.Decimal, error) {
	return v.s.openOrderStats(ctx, codes)
}

type supplyView struct{ s *Store }

func (v supplyView) ByDay(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (map[time.Time]entities.Quantity, error) {
	return v.s.supplyByDay(ctx, codes, from, to)
}

func (v supplyView) InWindow(ctx context.Context, codes []entities.ProductCode, from, to time.Time) (entities.Quantity, error) {
	return v.s.supplyInWindow(ctx, codes, from, to)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func codeArgs(codes []entities.ProductCode) []any {
	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = string(c)
	}
	return args
}
