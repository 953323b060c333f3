package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusProcessing      OrderStatus = "PROCESSING"
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRefunded        OrderStatus = "REFUNDED"
	OrderStatusOnHold          OrderStatus = "ON_HOLD"
)

// IsTerminal reports whether the status has no outgoing transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// CustomerInfo is the contact snapshot frozen into an order at creation.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ShippingInfo is the destination snapshot frozen into an order at creation.
type ShippingInfo struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// OrderLine is an immutable snapshot of a cart line at conversion time.
// ProductName stays frozen even if the product is later renamed.
type OrderLine struct {
	ProductID     int64            `json:"product_id"`
	ProductName   string           `json:"product_name"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Quantity      int              `json:"quantity"`
	Attributes    string           `json:"attributes,omitempty"`
}

// Order is the immutable-once-created financial record produced from a
// validated cart. Only Status, PaymentStatus, the milestone timestamps and
// TrackingNumber change after creation, and only through the status machine.
type Order struct {
	OrderNumber string
	UserID      string

	Customer CustomerInfo
	Shipping ShippingInfo

	Status        OrderStatus
	PaymentStatus PaymentStatus

	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Currency       string

	Items []OrderLine

	TrackingNumber string
	CustomerNotes  string

	CreatedAt    time.Time
	UpdatedAt    time.Time
	ProcessingAt *time.Time
	ShippedAt    *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
}

// Total is always derived, never stored or assigned:
// subtotal + shipping + tax - discount.
func (o *Order) Total() decimal.Decimal {
	return o.Subtotal.Add(o.ShippingCost).Add(o.TaxAmount).Sub(o.DiscountAmount)
}
