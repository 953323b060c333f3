package inventory

import (
	"errors"
	"fmt"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

// Common errors returned by the ledger
var (
	ErrProductNotFound   = errors.New("product not found in inventory")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError carries the requested and available quantities for
// user-facing messaging. It matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Ledger is the single source of truth for product stock. All stock
// mutation funnels through it; no component may cache a stock figure across
// more than one mutation decision.
type Ledger interface {
	// Stock returns the current stock record for a product.
	Stock(productID int64) (domain.StockInfo, error)

	// CheckAvailable reports whether the product exists, is available and
	// has at least quantity units on hand.
	CheckAvailable(productID int64, quantity int) (bool, error)

	// Decrement atomically reduces on-hand stock and bumps the sold
	// counter. Fails without mutation when stock is short or the product
	// is unknown.
	Decrement(productID int64, quantity int) error

	// Increment restores stock (cancellations, restocks). Always succeeds
	// for an existing product.
	Increment(productID int64, quantity int) error

	// DecrementAll applies a batch of decrements all-or-nothing: either
	// every line has sufficient stock and all are applied, or nothing is.
	DecrementAll(items []domain.StockMovement) error

	// IncrementAll restores a batch of movements (checkout rollback).
	IncrementAll(items []domain.StockMovement) error

	// SetStock sets the on-hand level for a product (seeding, restock).
	SetStock(productID int64, quantity int) error
}
