package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodsys/ruptura/pkg/domain/entities"
)

var storeToday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func storeDay(offset int) time.Time { return storeToday.AddDate(0, 0, offset) }

func movement(code entities.ProductCode, qty entities.Quantity, active bool) entities.StockMovement {
	return entities.StockMovement{ProductCode: code, Quantity: qty, Active: active, MovedOn: storeDay(-10)}
}

func allocated(code entities.ProductCode, orderRef string, qty entities.Quantity, dueOn *time.Time) entities.DemandCommitment {
	return entities.DemandCommitment{
		ProductCode: code,
		OrderRef:    orderRef,
		Source:      entities.Allocated,
		Quantity:    qty,
		UnitPrice:   decimal.NewFromInt(10),
		DueOn:       dueOn,
	}
}

func backlogged(code entities.ProductCode, orderRef string, qty entities.Quantity, unitPrice int64) entities.DemandCommitment {
	return entities.DemandCommitment{
		ProductCode: code,
		OrderRef:    orderRef,
		Source:      entities.Backlog,
		Quantity:    qty,
		UnitPrice:   decimal.NewFromInt(unitPrice),
	}
}

func TestStore_CurrentBalance(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	store.AddMovement(movement("MILK-1L", 100, true))
	store.AddMovement(movement("MILK-1L", -30, true))
	store.AddMovement(movement("MILK-1L", -500, false))
	store.AddMovement(movement("OTHER", 999, true))

	balance, err := store.CurrentBalance(ctx, []entities.ProductCode{"MILK-1L"})
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(70), balance)
}

func TestStore_CurrentBalance_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.AddMovement(movement("MILK-1L", 100, true))

	_, err := store.CurrentBalance(ctx, []entities.ProductCode{"UNKNOWN"})
	require.ErrorIs(t, err, entities.ErrProductNotFound)
}

func TestStore_CurrentBalance_AcrossAliasGroup(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	store.AddMovement(movement("YOG-OLD", 60, true))
	store.AddMovement(movement("YOG-NEW", 40, true))

	balance, err := store.CurrentBalance(ctx, []entities.ProductCode{"YOG-OLD", "YOG-NEW"})
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(100), balance)
}

func TestStore_RelatedCodes(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.AddAliasGroup("YOG-OLD", "YOG-NEW", "YOG-PROMO")

	group, err := store.RelatedCodes(ctx, "YOG-NEW")
	require.NoError(t, err)
	assert.ElementsMatch(t, []entities.ProductCode{"YOG-OLD", "YOG-NEW", "YOG-PROMO"}, group)

	none, err := store.RelatedCodes(ctx, "UNGROUPED")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStore_DemandByDay(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	d1, d2, far := storeDay(1), storeDay(2), storeDay(40)
	store.AddCommitment(allocated("MILK-1L", "SO-1", 10, &d1))
	store.AddCommitment(allocated("MILK-1L", "SO-2", 5, &d1))
	store.AddCommitment(allocated("MILK-1L", "SO-3", 7, &d2))
	// Outside the window, undated, and backlog entries never bucket.
	store.AddCommitment(allocated("MILK-1L", "SO-4", 99, &far))
	store.AddCommitment(allocated("MILK-1L", "SO-5", 99, nil))
	store.AddCommitment(backlogged("MILK-1L", "SO-6", 99, 10))

	byDay, err := store.DemandByDay(ctx, []entities.ProductCode{"MILK-1L"}, storeDay(0), storeDay(7))
	require.NoError(t, err)

	require.Len(t, byDay, 2)
	assert.Equal(t, entities.Quantity(15), byDay[d1])
	assert.Equal(t, entities.Quantity(7), byDay[d2])
}

func TestStore_Backlog_NetsAllocatedPerOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	d1 := storeDay(1)
	// SO-1: 50 open, 30 allocated; 20 remains.
	store.AddCommitment(backlogged("MILK-1L", "SO-1", 50, 10))
	store.AddCommitment(allocated("MILK-1L", "SO-1", 30, &d1))
	// SO-2: over-allocated, clamps at zero instead of going negative.
	store.AddCommitment(backlogged("MILK-1L", "SO-2", 10, 10))
	store.AddCommitment(allocated("MILK-1L", "SO-2", 15, &d1))

	open, err := store.Backlog(ctx, []entities.ProductCode{"MILK-1L"})
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(20), open)
}

func TestStore_OpenOrderStats(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	d1 := storeDay(1)
	store.AddCommitment(backlogged("MILK-1L", "SO-1", 50, 10))
	store.AddCommitment(allocated("MILK-1L", "SO-1", 30, &d1))
	store.AddCommitment(backlogged("MILK-1L", "SO-2", 4, 25))

	orders, value, err := store.OpenOrderStats(ctx, []entities.ProductCode{"MILK-1L"})
	require.NoError(t, err)
	assert.Equal(t, 2, orders)
	assert.True(t, value.Equal(decimal.NewFromInt(600)), "value %s", value)
}

func TestStore_SupplyByDayAndWindow(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	store.AddSupplyEvent(entities.SupplyEvent{ProductCode: "MILK-1L", ProductionLine: "LINE-1", Quantity: 10, ScheduledOn: storeDay(1)})
	store.AddSupplyEvent(entities.SupplyEvent{ProductCode: "MILK-1L", ProductionLine: "LINE-2", Quantity: 5, ScheduledOn: storeDay(1)})
	store.AddSupplyEvent(entities.SupplyEvent{ProductCode: "MILK-1L", ProductionLine: "LINE-1", Quantity: 20, ScheduledOn: storeDay(30)})

	byDay, err := store.SupplyByDay(ctx, []entities.ProductCode{"MILK-1L"}, storeDay(0), storeDay(7))
	require.NoError(t, err)
	require.Len(t, byDay, 1)
	assert.Equal(t, entities.Quantity(15), byDay[storeDay(1)])

	total, err := store.InWindow(ctx, []entities.ProductCode{"MILK-1L"}, storeDay(0), storeDay(31))
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(35), total)
}

func TestStore_ScheduledEvents(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	store.AddSupplyEvent(entities.SupplyEvent{ProductCode: "CHEESE-1KG", ProductionLine: "LINE-1", Quantity: 20, ScheduledOn: storeDay(5)})
	store.AddSupplyEvent(entities.SupplyEvent{ProductCode: "MILK-1L", ProductionLine: "LINE-1", Quantity: 10, ScheduledOn: storeDay(2)})
	store.AddSupplyEvent(entities.SupplyEvent{ProductCode: "MILK-1L", ProductionLine: "LINE-2", Quantity: 99, ScheduledOn: storeDay(3)})
	store.AddSupplyEvent(entities.SupplyEvent{ProductCode: "MILK-1L", ProductionLine: "LINE-1", Quantity: 30, ScheduledOn: storeDay(20)})

	events, err := store.ScheduledEvents(ctx, "LINE-1", storeDay(0), storeDay(14))
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, entities.ProductCode("MILK-1L"), events[0].ProductCode)
	assert.Equal(t, entities.ProductCode("CHEESE-1KG"), events[1].ProductCode)
}
