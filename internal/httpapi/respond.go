package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/Alexlic0001/EquipmentShop/internal/cart"
	"github.com/Alexlic0001/EquipmentShop/internal/cartstore"
	"github.com/Alexlic0001/EquipmentShop/internal/catalog"
	"github.com/Alexlic0001/EquipmentShop/internal/inventory"
	"github.com/Alexlic0001/EquipmentShop/internal/order"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondDomainError maps the typed failures the core returns onto HTTP
// status codes. Anything unrecognized is a 500 with no internals leaked.
func respondDomainError(w http.ResponseWriter, err error) {
	var stockErr *inventory.InsufficientStockError
	if errors.As(err, &stockErr) {
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error: "insufficient stock",
			Code:  "insufficient_stock",
			Details: fmt.Sprintf("product %d: requested %d, available %d",
				stockErr.ProductID, stockErr.Requested, stockErr.Available),
		})
		return
	}

	switch {
	case errors.Is(err, cartstore.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.Is(err, cartstore.ErrCartExpired):
		respondError(w, http.StatusGone, "cart_expired", "cart has expired")
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", "item is not in the cart")
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity is not valid")
	case errors.Is(err, cart.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", "cart is empty")
	case errors.Is(err, cart.ErrCartInvalid):
		respondError(w, http.StatusConflict, "cart_invalid", "cart no longer matches available stock")
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, inventory.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, inventory.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient_stock", "insufficient stock")
	case errors.Is(err, order.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, order.ErrInvalidTransition):
		respondError(w, http.StatusUnprocessableEntity, "invalid_transition", "status transition is not allowed")
	case errors.Is(err, order.ErrStatusConflict):
		respondError(w, http.StatusConflict, "status_conflict", "order status changed concurrently, retry")
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
