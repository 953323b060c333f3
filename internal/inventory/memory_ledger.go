package inventory

import (
	"sync"
	"time"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

// MemoryLedger implements Ledger with in-memory storage
type MemoryLedger struct {
	mu     sync.RWMutex
	stocks map[int64]*domain.StockInfo // productID -> stock record
}

// NewMemoryLedger creates a new in-memory inventory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		stocks: make(map[int64]*domain.StockInfo),
	}
}

func (l *MemoryLedger) Stock(productID int64) (domain.StockInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stock, exists := l.stocks[productID]
	if !exists {
		return domain.StockInfo{}, ErrProductNotFound
	}
	return *stock, nil
}

func (l *MemoryLedger) CheckAvailable(productID int64, quantity int) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stock, exists := l.stocks[productID]
	if !exists {
		return false, ErrProductNotFound
	}
	return stock.Available() && stock.OnHand >= quantity, nil
}

func (l *MemoryLedger) Decrement(productID int64, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.decrementLocked(productID, quantity)
}

func (l *MemoryLedger) decrementLocked(productID int64, quantity int) error {
	stock, exists := l.stocks[productID]
	if !exists {
		return ErrProductNotFound
	}
	if stock.OnHand < quantity {
		return &InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: stock.OnHand,
		}
	}

	stock.OnHand -= quantity
	stock.Sold += quantity
	stock.UpdatedAt = time.Now()
	return nil
}

func (l *MemoryLedger) Increment(productID int64, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stock, exists := l.stocks[productID]
	if !exists {
		return ErrProductNotFound
	}

	stock.OnHand += quantity
	stock.UpdatedAt = time.Now()
	return nil
}

// DecrementAll re-checks every line at decrement time. First pass validates
// all items under the write lock, second pass applies; a failed first pass
// leaves the ledger untouched.
func (l *MemoryLedger) DecrementAll(items []domain.StockMovement) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, item := range items {
		stock, exists := l.stocks[item.ProductID]
		if !exists {
			return ErrProductNotFound
		}
		if stock.OnHand < item.Quantity {
			return &InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: stock.OnHand,
			}
		}
	}

	now := time.Now()
	for _, item := range items {
		stock := l.stocks[item.ProductID]
		stock.OnHand -= item.Quantity
		stock.Sold += item.Quantity
		stock.UpdatedAt = now
	}
	return nil
}

func (l *MemoryLedger) IncrementAll(items []domain.StockMovement) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, item := range items {
		if _, exists := l.stocks[item.ProductID]; !exists {
			return ErrProductNotFound
		}
	}

	now := time.Now()
	for _, item := range items {
		stock := l.stocks[item.ProductID]
		stock.OnHand += item.Quantity
		stock.UpdatedAt = now
	}
	return nil
}

func (l *MemoryLedger) SetStock(productID int64, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if stock, exists := l.stocks[productID]; exists {
		stock.OnHand = quantity
		stock.UpdatedAt = time.Now()
		return nil
	}

	l.stocks[productID] = &domain.StockInfo{
		ProductID: productID,
		OnHand:    quantity,
		UpdatedAt: time.Now(),
	}
	return nil
}
