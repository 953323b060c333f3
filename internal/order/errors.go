package order

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateOrderNumber = errors.New("order with this number already exists")

	// ErrInvalidTransition rejects a status move not present in the
	// transition table. It is surfaced to the actor, never coerced to
	// the nearest legal state.
	ErrInvalidTransition = errors.New("illegal order status transition")

	// ErrStatusConflict means the order's status changed under a
	// concurrent request between read and update.
	ErrStatusConflict = errors.New("order status changed concurrently")
)
