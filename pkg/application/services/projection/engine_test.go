package projection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodsys/ruptura/pkg/domain/entities"
	"github.com/foodsys/ruptura/pkg/domain/repositories"
	"github.com/foodsys/ruptura/pkg/infrastructure/repositories/memory"
)

var testToday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testToday }

func day(offset int) time.Time { return testToday.AddDate(0, 0, offset) }

func datePtr(t time.Time) *time.Time { return &t }

func newTestEngine(store *memory.Store) *Engine {
	return NewEngine(
		store,
		store,
		store.DemandSource(),
		store.SupplySource(),
		WithClock(fixedClock),
	)
}

func addMovement(t *testing.T, store *memory.Store, code entities.ProductCode, qty entities.Quantity, active bool) {
	t.Helper()
	m, err := entities.NewStockMovement(code, qty, active, day(-10))
	require.NoError(t, err)
	store.AddMovement(*m)
}

func addAllocation(t *testing.T, store *memory.Store, code entities.ProductCode, orderRef string, qty entities.Quantity, dueOn *time.Time) {
	t.Helper()
	c, err := entities.NewDemandCommitment(code, orderRef, entities.Allocated, qty, decimal.NewFromInt(10), dueOn)
	require.NoError(t, err)
	store.AddCommitment(*c)
}

func addBacklog(t *testing.T, store *memory.Store, code entities.ProductCode, orderRef string, qty entities.Quantity, dueOn *time.Time) {
	t.Helper()
	c, err := entities.NewDemandCommitment(code, orderRef, entities.Backlog, qty, decimal.NewFromInt(10), dueOn)
	require.NoError(t, err)
	store.AddCommitment(*c)
}

func addSupply(t *testing.T, store *memory.Store, code entities.ProductCode, qty entities.Quantity, scheduledOn time.Time) {
	t.Helper()
	e, err := entities.NewSupplyEvent(code, "LINE-1", qty, scheduledOn)
	require.NoError(t, err)
	store.AddSupplyEvent(*e)
}

func TestEngine_Project_SimpleShortfall(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	addMovement(t, store, "YOGURT-500", 100, true)
	addAllocation(t, store, "YOGURT-500", "SO-1", 40, datePtr(day(0)))
	addAllocation(t, store, "YOGURT-500", "SO-2", 40, datePtr(day(1)))
	addAllocation(t, store, "YOGURT-500", "SO-3", 40, datePtr(day(2)))

	engine := newTestEngine(store)
	result, err := engine.Project(ctx, "YOGURT-500", 7)
	require.NoError(t, err)

	assert.Equal(t, entities.Quantity(100), result.CurrentBalance)
	assert.Equal(t, entities.Quantity(60), result.Days[0].ClosingBalance)
	assert.Equal(t, entities.Quantity(20), result.Days[1].ClosingBalance)
	assert.Equal(t, entities.Quantity(-20), result.Days[2].ClosingBalance)

	require.True(t, result.HasShortfall())
	assert.Equal(t, day(2), *result.FirstShortfall)
	assert.Equal(t, entities.Quantity(-20), result.MinBalanceWeek)
	assert.Equal(t, entities.Quantity(-20), result.MinBalanceHorizon)

	days, ok := result.DaysToShortfall(engine.Today())
	require.True(t, ok)
	assert.Equal(t, 2, days)
}

func TestEngine_Project_ShortfallResolvedByProduction(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	addMovement(t, store, "CHEESE-1KG", 10, true)
	addAllocation(t, store, "CHEESE-1KG", "SO-1", 20, datePtr(day(3)))
	addSupply(t, store, "CHEESE-1KG", 15, day(3))

	engine := newTestEngine(store)
	result, err := engine.Project(ctx, "CHEESE-1KG", 7)
	require.NoError(t, err)

	d3 := result.Days[3]
	assert.Equal(t, entities.Quantity(10), d3.OpeningBalance)
	assert.Equal(t, entities.Quantity(20), d3.Outflow)
	assert.Equal(t, entities.Quantity(-10), d3.AfterOutflow)
	assert.Equal(t, entities.Quantity(15), d3.Inflow)
	assert.Equal(t, entities.Quantity(5), d3.ClosingBalance)

	// The intraday dip never closes a day negative, so the horizon is clean.
	assert.False(t, result.HasShortfall())
	assert.Equal(t, entities.Quantity(5), result.MinBalanceHorizon)
}

func TestEngine_Project_SeriesLengthAndContinuity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	addMovement(t, store, "MILK-1L", 50, true)
	addAllocation(t, store, "MILK-1L", "SO-1", 7, datePtr(day(1)))
	addAllocation(t, store, "MILK-1L", "SO-2", 13, datePtr(day(4)))
	addSupply(t, store, "MILK-1L", 30, day(6))

	engine := newTestEngine(store)
	result, err := engine.Project(ctx, "MILK-1L", 30)
	require.NoError(t, err)

	require.Len(t, result.Days, 31)
	assert.Equal(t, 0, result.Days[0].DayIndex)
	assert.Equal(t, testToday, result.Days[0].Date)
	assert.Equal(t, result.CurrentBalance, result.Days[0].OpeningBalance)

	for i := 1; i < len(result.Days); i++ {
		assert.Equal(t, result.Days[i-1].ClosingBalance, result.Days[i].OpeningBalance,
			"day %d opening must equal day %d closing", i, i-1)
		assert.Equal(t, i, result.Days[i].DayIndex)
	}
}

func TestEngine_Project_HorizonZero(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	addMovement(t, store, "BUTTER-250", 5, true)
	addAllocation(t, store, "BUTTER-250", "SO-1", 8, datePtr(day(0)))

	engine := newTestEngine(store)
	result, err := engine.Project(ctx, "BUTTER-250", 0)
	require.NoError(t, err)

	require.Len(t, result.Days, 1)
	assert.Equal(t, entities.Quantity(-3), result.Days[0].ClosingBalance)
	assert.True(t, result.ImmediateDeficit())
	assert.Equal(t, result.MinBalanceHorizon, result.MinBalanceWeek)
}

func TestEngine_Project_UndatedCommitmentsExcluded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	addMovement(t, store, "CREAM-200", 30, true)
	addAllocation(t, store, "CREAM-200", "SO-1", 10, datePtr(day(2)))
	addBacklog(t, store, "CREAM-200", "SO-9", 500, nil)

	engine := newTestEngine(store)
	result, err := engine.Project(ctx, "CREAM-200", 7)
	require.NoError(t, err)

	// The huge undated backlog never enters a day bucket.
	assert.False(t, result.HasShortfall())
	assert.Equal(t, entities.Quantity(20), result.MinBalanceHorizon)

	backlog, err := engine.Demand().TotalBacklog(ctx, "CREAM-200")
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(500), backlog)
}

func TestEngine_Project_InactiveMovementsExcluded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	addMovement(t, store, "JUICE-1L", 100, true)
	addMovement(t, store, "JUICE-1L", -60, true)
	addMovement(t, store, "JUICE-1L", -1000, false)

	engine := newTestEngine(store)
	result, err := engine.Project(ctx, "JUICE-1L", 7)
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(40), result.CurrentBalance)
}

func TestEngine_Project_AliasGroupAggregation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	store.AddAliasGroup("YOG-OLD", "YOG-NEW")
	addMovement(t, store, "YOG-OLD", 60, true)
	addMovement(t, store, "YOG-NEW", 40, true)
	addAllocation(t, store, "YOG-OLD", "SO-1", 30, datePtr(day(1)))
	addSupply(t, store, "YOG-NEW", 25, day(2))

	engine := newTestEngine(store)

	// Either member of the group projects the same combined series.
	resultOld, err := engine.Project(ctx, "YOG-OLD", 5)
	require.NoError(t, err)
	resultNew, err := engine.Project(ctx, "YOG-NEW", 5)
	require.NoError(t, err)

	assert.Equal(t, entities.Quantity(100), resultOld.CurrentBalance)
	assert.Equal(t, resultOld.CurrentBalance, resultNew.CurrentBalance)
	assert.Equal(t, resultOld.Days[1].Outflow, resultNew.Days[1].Outflow)
	assert.Equal(t, entities.Quantity(95), resultOld.Days[2].ClosingBalance)
}

func TestEngine_Project_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	addMovement(t, store, "MILK-1L", 50, true)
	addAllocation(t, store, "MILK-1L", "SO-1", 20, datePtr(day(1)))
	addSupply(t, store, "MILK-1L", 10, day(3))

	engine := newTestEngine(store)
	first, err := engine.Project(ctx, "MILK-1L", 10)
	require.NoError(t, err)
	second, err := engine.Project(ctx, "MILK-1L", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_Project_NegativeHorizon(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(memory.NewStore())

	result, err := engine.Project(ctx, "ANY", -1)
	assert.Nil(t, result)
	require.ErrorIs(t, err, entities.ErrInvalidHorizon)
	assert.Equal(t, entities.CodeInvalidHorizon, entities.Code(err))
}

func TestEngine_Project_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	addMovement(t, store, "MILK-1L", 50, true)

	engine := newTestEngine(store)
	result, err := engine.Project(ctx, "NO-SUCH-PRODUCT", 7)
	assert.Nil(t, result)
	require.ErrorIs(t, err, entities.ErrProductNotFound)
	assert.Equal(t, entities.CodeProductNotFound, entities.Code(err))
}

type failingBalanceSource struct{ err error }

func (f failingBalanceSource) CurrentBalance(context.Context, []entities.ProductCode) (entities.Quantity, error) {
	return 0, f.err
}

var _ repositories.BalanceSource = failingBalanceSource{}

func TestEngine_Project_SourceFailurePropagates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	addMovement(t, store, "MILK-1L", 50, true)

	cause := errors.New("connection refused")
	engine := NewEngine(
		store,
		failingBalanceSource{err: cause},
		store.DemandSource(),
		store.SupplySource(),
		WithClock(fixedClock),
	)

	result, err := engine.Project(ctx, "MILK-1L", 7)
	assert.Nil(t, result)
	require.Error(t, err)

	var se *entities.SourceError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, entities.CodeDataSourceUnavailable, entities.Code(err))
}

func TestDemandAggregator_BacklogNetsAllocated(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	// Order SO-1: 50 open, 30 of it already allocated.
	addBacklog(t, store, "MILK-1L", "SO-1", 50, nil)
	addAllocation(t, store, "MILK-1L", "SO-1", 30, datePtr(day(1)))
	// Order SO-2: fully allocated, nothing open.
	addBacklog(t, store, "MILK-1L", "SO-2", 10, nil)
	addAllocation(t, store, "MILK-1L", "SO-2", 10, datePtr(day(2)))

	engine := newTestEngine(store)
	backlog, err := engine.Demand().TotalBacklog(ctx, "MILK-1L")
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(20), backlog)

	orders, value, err := engine.Demand().OpenOrderStats(ctx, "MILK-1L")
	require.NoError(t, err)
	assert.Equal(t, 2, orders)
	assert.True(t, value.Equal(decimal.NewFromInt(600)), "value %s", value)
}

func TestSupplyAggregator_TotalInWindow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	addSupply(t, store, "MILK-1L", 10, day(1))
	addSupply(t, store, "MILK-1L", 15, day(4))
	addSupply(t, store, "MILK-1L", 99, day(40))

	engine := newTestEngine(store)
	total, err := engine.Supply().TotalInWindow(ctx, "MILK-1L", day(0), day(7))
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(25), total)
}
