package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is deliberately absent here: the
// inventory ledger is the only authority for stock figures.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	OldPrice    *decimal.Decimal
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StockInfo is the ledger's view of one product.
type StockInfo struct {
	ProductID int64
	OnHand    int
	Sold      int
	UpdatedAt time.Time
}

// Available reports whether any stock is on hand.
func (s StockInfo) Available() bool {
	return s.OnHand > 0
}

// StockMovement is one line of a batch decrement/increment.
type StockMovement struct {
	ProductID int64
	Quantity  int
}
