package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodsys/ruptura/pkg/application/services/projection"
	"github.com/foodsys/ruptura/pkg/domain/entities"
)

var dbToday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func dbDay(offset int) time.Time { return dbToday.AddDate(0, 0, offset) }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ruptura.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedMovement(t *testing.T, store *Store, code entities.ProductCode, qty entities.Quantity, active bool) {
	t.Helper()
	err := store.AddMovement(context.Background(), entities.StockMovement{
		ProductCode: code, Quantity: qty, Active: active, MovedOn: dbDay(-10),
	})
	require.NoError(t, err)
}

func seedCommitment(t *testing.T, store *Store, code entities.ProductCode, orderRef string, source entities.CommitmentSource, qty entities.Quantity, unitPrice int64, dueOn *time.Time) {
	t.Helper()
	err := store.AddCommitment(context.Background(), entities.DemandCommitment{
		ProductCode: code,
		OrderRef:    orderRef,
		Source:      source,
		Quantity:    qty,
		UnitPrice:   decimal.NewFromInt(unitPrice),
		DueOn:       dueOn,
	})
	require.NoError(t, err)
}

func seedSupply(t *testing.T, store *Store, code entities.ProductCode, line string, qty entities.Quantity, on time.Time) {
	t.Helper()
	err := store.AddSupplyEvent(context.Background(), entities.SupplyEvent{
		ProductCode: code, ProductionLine: line, Quantity: qty, ScheduledOn: on,
	})
	require.NoError(t, err)
}

func TestStore_CurrentBalance(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	seedMovement(t, store, "MILK-1L", 100, true)
	seedMovement(t, store, "MILK-1L", -30, true)
	seedMovement(t, store, "MILK-1L", -500, false)
	seedMovement(t, store, "OTHER", 999, true)

	balance, err := store.CurrentBalance(ctx, []entities.ProductCode{"MILK-1L"})
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(70), balance)
}

func TestStore_CurrentBalance_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedMovement(t, store, "MILK-1L", 100, true)

	_, err := store.CurrentBalance(ctx, []entities.ProductCode{"UNKNOWN"})
	require.ErrorIs(t, err, entities.ErrProductNotFound)
}

func TestStore_RelatedCodes(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.AddAliasGroup(ctx, "YOG", "YOG-OLD", "YOG-NEW"))

	group, err := store.RelatedCodes(ctx, "YOG-OLD")
	require.NoError(t, err)
	assert.Equal(t, []entities.ProductCode{"YOG-NEW", "YOG-OLD"}, group)

	none, err := store.RelatedCodes(ctx, "UNGROUPED")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_DemandByDay(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	d1, d2 := dbDay(1), dbDay(2)
	seedCommitment(t, store, "MILK-1L", "SO-1", entities.Allocated, 10, 10, &d1)
	seedCommitment(t, store, "MILK-1L", "SO-2", entities.Allocated, 5, 10, &d1)
	seedCommitment(t, store, "MILK-1L", "SO-3", entities.Allocated, 7, 10, &d2)
	seedCommitment(t, store, "MILK-1L", "SO-4", entities.Allocated, 99, 10, nil)
	seedCommitment(t, store, "MILK-1L", "SO-5", entities.Backlog, 99, 10, nil)

	byDay, err := store.DemandSource().ByDay(ctx, []entities.ProductCode{"MILK-1L"}, dbDay(0), dbDay(7))
	require.NoError(t, err)

	require.Len(t, byDay, 2)
	assert.Equal(t, entities.Quantity(15), byDay[d1])
	assert.Equal(t, entities.Quantity(7), byDay[d2])
}

func TestStore_BacklogAndOrderStats(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	d1 := dbDay(1)
	seedCommitment(t, store, "MILK-1L", "SO-1", entities.Backlog, 50, 10, nil)
	seedCommitment(t, store, "MILK-1L", "SO-1", entities.Allocated, 30, 10, &d1)
	seedCommitment(t, store, "MILK-1L", "SO-2", entities.Backlog, 4, 25, nil)

	open, err := store.DemandSource().Backlog(ctx, []entities.ProductCode{"MILK-1L"})
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(24), open)

	orders, value, err := store.DemandSource().OpenOrderStats(ctx, []entities.ProductCode{"MILK-1L"})
	require.NoError(t, err)
	assert.Equal(t, 2, orders)
	assert.True(t, value.Equal(decimal.NewFromInt(600)), "value %s", value)
}

func TestStore_SupplyQueries(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	seedSupply(t, store, "MILK-1L", "LINE-1", 10, dbDay(1))
	seedSupply(t, store, "MILK-1L", "LINE-2", 5, dbDay(1))
	seedSupply(t, store, "MILK-1L", "LINE-1", 20, dbDay(30))

	byDay, err := store.SupplySource().ByDay(ctx, []entities.ProductCode{"MILK-1L"}, dbDay(0), dbDay(7))
	require.NoError(t, err)
	require.Len(t, byDay, 1)
	assert.Equal(t, entities.Quantity(15), byDay[dbDay(1)])

	total, err := store.SupplySource().InWindow(ctx, []entities.ProductCode{"MILK-1L"}, dbDay(0), dbDay(31))
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(35), total)
}

func TestStore_ScheduledEvents(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	seedSupply(t, store, "CHEESE-1KG", "LINE-1", 20, dbDay(5))
	seedSupply(t, store, "MILK-1L", "LINE-1", 10, dbDay(2))
	seedSupply(t, store, "MILK-1L", "LINE-2", 99, dbDay(3))

	events, err := store.ScheduledEvents(ctx, "LINE-1", dbDay(0), dbDay(14))
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, entities.ProductCode("MILK-1L"), events[0].ProductCode)
	assert.Equal(t, dbDay(2), events[0].ScheduledOn)
	assert.Equal(t, entities.ProductCode("CHEESE-1KG"), events[1].ProductCode)
}

func TestStore_BacksProjectionEngine(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	d0, d1, d2 := dbDay(0), dbDay(1), dbDay(2)
	seedMovement(t, store, "YOGURT-500", 100, true)
	seedCommitment(t, store, "YOGURT-500", "SO-1", entities.Allocated, 40, 10, &d0)
	seedCommitment(t, store, "YOGURT-500", "SO-2", entities.Allocated, 40, 10, &d1)
	seedCommitment(t, store, "YOGURT-500", "SO-3", entities.Allocated, 40, 10, &d2)

	engine := projection.NewEngine(
		store,
		store,
		store.DemandSource(),
		store.SupplySource(),
		projection.WithClock(func() time.Time { return dbToday }),
	)

	result, err := engine.Project(ctx, "YOGURT-500", 7)
	require.NoError(t, err)
	require.True(t, result.HasShortfall())
	assert.Equal(t, dbDay(2), *result.FirstShortfall)
	assert.Equal(t, entities.Quantity(-20), result.MinBalanceHorizon)
}
