package inventory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemoryLedger_SetStock_And_Stock(t *testing.T) {
	ledger := NewMemoryLedger()

	require.NoError(t, ledger.SetStock(1, 100))
	require.NoError(t, ledger.SetStock(2, 0))

	stock, err := ledger.Stock(1)
	require.NoError(t, err)
	assert.Equal(t, 100, stock.OnHand)
	assert.Equal(t, 0, stock.Sold)
	assert.True(t, stock.Available())
	assert.False(t, stock.UpdatedAt.IsZero())

	stock, err = ledger.Stock(2)
	require.NoError(t, err)
	assert.False(t, stock.Available())

	_, err = ledger.Stock(999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemoryLedger_CheckAvailable(t *testing.T) {
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.SetStock(1, 5))
	require.NoError(t, ledger.SetStock(2, 0))

	ok, err := ledger.CheckAvailable(1, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.CheckAvailable(1, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	// zero stock means unavailable, regardless of quantity
	ok, err = ledger.CheckAvailable(2, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ledger.CheckAvailable(999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemoryLedger_Decrement_Success(t *testing.T) {
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.SetStock(1, 100))

	require.NoError(t, ledger.Decrement(1, 30))

	stock, err := ledger.Stock(1)
	require.NoError(t, err)
	assert.Equal(t, 70, stock.OnHand)
	assert.Equal(t, 30, stock.Sold)
}

func TestMemoryLedger_Decrement_InsufficientStock(t *testing.T) {
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.SetStock(1, 10))

	err := ledger.Decrement(1, 20)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(1), stockErr.ProductID)
	assert.Equal(t, 20, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)

	// no mutation on failure
	stock, _ := ledger.Stock(1)
	assert.Equal(t, 10, stock.OnHand)
	assert.Equal(t, 0, stock.Sold)
}

func TestMemoryLedger_Decrement_ProductNotFound(t *testing.T) {
	ledger := NewMemoryLedger()

	err := ledger.Decrement(999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemoryLedger_Increment(t *testing.T) {
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.SetStock(1, 10))

	require.NoError(t, ledger.Increment(1, 5))

	stock, _ := ledger.Stock(1)
	assert.Equal(t, 15, stock.OnHand)
	assert.Equal(t, 0, stock.Sold) // restore does not touch the sold counter

	assert.ErrorIs(t, ledger.Increment(999, 1), ErrProductNotFound)
}

func TestMemoryLedger_DecrementAll_AllOrNothing(t *testing.T) {
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.SetStock(1, 100))
	require.NoError(t, ledger.SetStock(2, 3))

	err := ledger.DecrementAll([]domain.StockMovement{
		{ProductID: 1, Quantity: 10},
		{ProductID: 2, Quantity: 5}, // short by 2
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// first line must not have been applied
	stock, _ := ledger.Stock(1)
	assert.Equal(t, 100, stock.OnHand)
	stock, _ = ledger.Stock(2)
	assert.Equal(t, 3, stock.OnHand)

	require.NoError(t, ledger.DecrementAll([]domain.StockMovement{
		{ProductID: 1, Quantity: 10},
		{ProductID: 2, Quantity: 3},
	}))

	stock, _ = ledger.Stock(1)
	assert.Equal(t, 90, stock.OnHand)
	assert.Equal(t, 10, stock.Sold)
	stock, _ = ledger.Stock(2)
	assert.Equal(t, 0, stock.OnHand)
	assert.Equal(t, 3, stock.Sold)
}

func TestMemoryLedger_IncrementAll_RollsBack(t *testing.T) {
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.SetStock(1, 10))
	require.NoError(t, ledger.SetStock(2, 10))

	items := []domain.StockMovement{
		{ProductID: 1, Quantity: 4},
		{ProductID: 2, Quantity: 6},
	}
	require.NoError(t, ledger.DecrementAll(items))
	require.NoError(t, ledger.IncrementAll(items))

	stock, _ := ledger.Stock(1)
	assert.Equal(t, 10, stock.OnHand)
	stock, _ = ledger.Stock(2)
	assert.Equal(t, 10, stock.OnHand)
}

func TestMemoryLedger_ConcurrentDecrements(t *testing.T) {
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.SetStock(1, 100))

	var wg sync.WaitGroup
	failures := make(chan error, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ledger.Decrement(1, 1); err != nil {
				failures <- err
			}
		}()
	}
	wg.Wait()
	close(failures)

	failed := 0
	for err := range failures {
		assert.ErrorIs(t, err, ErrInsufficientStock)
		failed++
	}

	// exactly 100 decrements can succeed, never more
	assert.Equal(t, 100, failed)
	stock, _ := ledger.Stock(1)
	assert.Equal(t, 0, stock.OnHand)
	assert.Equal(t, 100, stock.Sold)
}
