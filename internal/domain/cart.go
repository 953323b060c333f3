package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the mutable aggregate of desired-purchase lines. A cart with an
// empty UserID is anonymous and keyed only by its ID.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id,omitempty"`
	Items     []CartLine `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CartLine is one product entry within a cart. Price is captured at the
// moment the line is added, not re-read from the product afterwards.
type CartLine struct {
	ProductID          int64           `json:"product_id"`
	Price              decimal.Decimal `json:"price"`
	Quantity           int             `json:"quantity"`
	SelectedAttributes string          `json:"selected_attributes,omitempty"`
	AddedAt            time.Time       `json:"added_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Line returns a pointer to the line for productID, or nil.
func (c *Cart) Line(productID int64) *CartLine {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveLine drops the line for productID if present and reports whether it
// was there.
func (c *Cart) RemoveLine(productID int64) bool {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount is the total quantity across all lines.
func (c *Cart) ItemCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal sums price*quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ExpiredAt reports whether the cart's expiration has passed at the given
// instant. Callers must pass the current clock, never a cached decision.
func (c *Cart) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}
