package lots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

func makeLot(number string, available float64, price string, day int) *Lot {
	qty := types.NewQuantityFromFloat64(available)
	lot := NewLot(number, id.New(), qty, types.MustMoney(price), time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC))
	return lot
}

func TestAllocateConsumesOldestFirst(t *testing.T) {
	lots := []*Lot{
		makeLot("LOT-2026-001", 30, "100", 1),
		makeLot("LOT-2026-002", 50, "105", 2),
		makeLot("LOT-2026-003", 20, "110", 3),
	}

	plan, err := Allocate(lots, types.NewQuantityFromFloat64(60))
	require.NoError(t, err)
	require.Len(t, plan, 2)

	assert.Equal(t, "LOT-2026-001", plan[0].Lot.LotNumber)
	assert.Equal(t, types.NewQuantityFromFloat64(30), plan[0].Quantity)
	assert.Equal(t, "LOT-2026-002", plan[1].Lot.LotNumber)
	assert.Equal(t, types.NewQuantityFromFloat64(30), plan[1].Quantity)

	// Planning must not mutate the lots.
	assert.Equal(t, types.NewQuantityFromFloat64(30), lots[0].AvailableQuantity)
	assert.Equal(t, types.NewQuantityFromFloat64(50), lots[1].AvailableQuantity)
	assert.Equal(t, types.NewQuantityFromFloat64(20), lots[2].AvailableQuantity)
}

func TestAllocateExactExhaustion(t *testing.T) {
	lots := []*Lot{
		makeLot("LOT-2026-001", 70, "10", 1),
		makeLot("LOT-2026-002", 30, "12", 2),
	}

	plan, err := Allocate(lots, types.NewQuantityFromFloat64(100))
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, types.NewQuantityFromFloat64(70), plan[0].Quantity)
	assert.Equal(t, types.NewQuantityFromFloat64(30), plan[1].Quantity)
}

func TestAllocateSkipsExhaustedLots(t *testing.T) {
	lots := []*Lot{
		makeLot("LOT-2026-001", 0, "10", 1),
		makeLot("LOT-2026-002", 40, "12", 2),
	}

	plan, err := Allocate(lots, types.NewQuantityFromFloat64(10))
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "LOT-2026-002", plan[0].Lot.LotNumber)
}

func TestAllocateSingleLotPartial(t *testing.T) {
	lots := []*Lot{makeLot("LOT-2026-001", 50, "10", 1)}

	plan, err := Allocate(lots, types.NewQuantityFromFloat64(20))
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, types.NewQuantityFromFloat64(20), plan[0].Quantity)
}

func TestAllocateShortViewFails(t *testing.T) {
	lots := []*Lot{makeLot("LOT-2026-001", 50, "10", 1)}

	plan, err := Allocate(lots, types.NewQuantityFromFloat64(100))
	assert.Error(t, err)
	assert.Nil(t, plan)
}

func TestAllocateRejectsNonPositive(t *testing.T) {
	lots := []*Lot{makeLot("LOT-2026-001", 50, "10", 1)}

	_, err := Allocate(lots, types.Quantity(0))
	assert.Error(t, err)

	_, err = Allocate(lots, types.NewQuantityFromFloat64(-5))
	assert.Error(t, err)
}

func TestTotalAvailable(t *testing.T) {
	lots := []*Lot{
		makeLot("LOT-2026-001", 30, "100", 1),
		makeLot("LOT-2026-002", 50, "105", 2),
		makeLot("LOT-2026-003", 20, "110", 3),
	}
	assert.Equal(t, types.NewQuantityFromFloat64(100), TotalAvailable(lots))
	assert.Equal(t, types.Quantity(0), TotalAvailable(nil))
}

func TestLotValue(t *testing.T) {
	lot := makeLot("LOT-2026-001", 30, "100", 1)
	assert.True(t, lot.Value().Equal(types.MustMoney("3000")))
}
