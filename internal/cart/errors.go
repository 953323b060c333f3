package cart

import "errors"

var (
	// ErrInvalidQuantity is a caller contract violation, never retried.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrItemNotFound means the cart has no line for the product.
	ErrItemNotFound = errors.New("item not found in cart")

	// ErrEmptyCart rejects checkout of a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

	// ErrCartInvalid means some line references a product that is gone,
	// unavailable or short on stock.
	ErrCartInvalid = errors.New("cart contains unavailable items")
)
