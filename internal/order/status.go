package order

import (
	"fmt"
	"time"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

// allowedTransitions is the full status graph, data only. Cancelled and
// Refunded have no outgoing edges.
var allowedTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:         {domain.OrderStatusProcessing, domain.OrderStatusOnHold, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing:      {domain.OrderStatusAwaitingPayment, domain.OrderStatusPaid, domain.OrderStatusOnHold, domain.OrderStatusCancelled},
	domain.OrderStatusAwaitingPayment: {domain.OrderStatusPaid, domain.OrderStatusOnHold, domain.OrderStatusCancelled},
	domain.OrderStatusPaid:            {domain.OrderStatusShipped, domain.OrderStatusOnHold, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:         {domain.OrderStatusDelivered, domain.OrderStatusRefunded, domain.OrderStatusCancelled},
	domain.OrderStatusDelivered:       {domain.OrderStatusRefunded},
	domain.OrderStatusOnHold:          {domain.OrderStatusPending, domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusCancelled:       {},
	domain.OrderStatusRefunded:        {},
}

// Statuses lists every known order status.
func Statuses() []domain.OrderStatus {
	return []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusProcessing,
		domain.OrderStatusAwaitingPayment,
		domain.OrderStatusPaid,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
		domain.OrderStatusCancelled,
		domain.OrderStatusRefunded,
		domain.OrderStatusOnHold,
	}
}

// KnownStatus reports whether s is one of the defined order statuses.
func KnownStatus(s domain.OrderStatus) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// AllowedNext returns the statuses reachable from the given one.
func AllowedNext(from domain.OrderStatus) []domain.OrderStatus {
	return allowedTransitions[from]
}

// CanTransition reports whether from -> to is in the table.
func CanTransition(from, to domain.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and applies a status move in one step. On success
// the status is updated and, the first time the order reaches Processing,
// Shipped, Delivered or Cancelled, the matching milestone timestamp is
// stamped. Re-entering a status via OnHold never overwrites a timestamp
// that is already set.
func Transition(o *domain.Order, to domain.OrderStatus, now time.Time) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}

	switch to {
	case domain.OrderStatusProcessing:
		if o.ProcessingAt == nil {
			o.ProcessingAt = &now
		}
	case domain.OrderStatusPaid:
		o.PaymentStatus = domain.PaymentStatusPaid
	case domain.OrderStatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	case domain.OrderStatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	case domain.OrderStatusCancelled:
		if o.CancelledAt == nil {
			o.CancelledAt = &now
		}
		// money already taken has to go back
		if o.PaymentStatus == domain.PaymentStatusPaid {
			o.PaymentStatus = domain.PaymentStatusRefunded
		}
	case domain.OrderStatusRefunded:
		o.PaymentStatus = domain.PaymentStatusRefunded
	}

	o.Status = to
	o.UpdatedAt = now
	return nil
}
