package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Alexlic0001/EquipmentShop/internal/checkout"
	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

type CheckoutHandler struct {
	checkout *checkout.Service
	timeout  time.Duration
}

func NewCheckoutHandler(checkout *checkout.Service, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type PlaceOrderRequestDTO struct {
	CartID        string              `json:"cart_id"`
	UserID        string              `json:"user_id"`
	Customer      domain.CustomerInfo `json:"customer"`
	Shipping      domain.ShippingInfo `json:"shipping"`
	CustomerNotes string              `json:"customer_notes,omitempty"`
}

type OrderResponseDTO struct {
	OrderNumber    string              `json:"order_number"`
	UserID         string              `json:"user_id"`
	Customer       domain.CustomerInfo `json:"customer"`
	Shipping       domain.ShippingInfo `json:"shipping"`
	Status         string              `json:"status"`
	PaymentStatus  string              `json:"payment_status"`
	Subtotal       string              `json:"subtotal"`
	ShippingCost   string              `json:"shipping_cost"`
	TaxAmount      string              `json:"tax_amount"`
	DiscountAmount string              `json:"discount_amount"`
	Total          string              `json:"total"`
	Currency       string              `json:"currency"`
	Items          []domain.OrderLine  `json:"items"`
	TrackingNumber string              `json:"tracking_number,omitempty"`
	CustomerNotes  string              `json:"customer_notes,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	ProcessingAt   *time.Time          `json:"processing_at,omitempty"`
	ShippedAt      *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time          `json:"cancelled_at,omitempty"`
}

func toOrderDTO(o *domain.Order) OrderResponseDTO {
	return OrderResponseDTO{
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		Customer:       o.Customer,
		Shipping:       o.Shipping,
		Status:         o.Status.String(),
		PaymentStatus:  string(o.PaymentStatus),
		Subtotal:       o.Subtotal.String(),
		ShippingCost:   o.ShippingCost.String(),
		TaxAmount:      o.TaxAmount.String(),
		DiscountAmount: o.DiscountAmount.String(),
		Total:          o.Total().String(),
		Currency:       o.Currency,
		Items:          o.Items,
		TrackingNumber: o.TrackingNumber,
		CustomerNotes:  o.CustomerNotes,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		ProcessingAt:   o.ProcessingAt,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
	}
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CartID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "cart_id is required")
		return
	}
	if req.Customer.Name == "" || req.Customer.Email == "" {
		respondError(w, http.StatusBadRequest, "invalid_customer", "customer name and email are required")
		return
	}
	if req.Shipping.Address == "" || req.Shipping.City == "" {
		respondError(w, http.StatusBadRequest, "invalid_shipping", "shipping address and city are required")
		return
	}

	o, err := h.checkout.PlaceOrder(ctx, checkout.PlaceOrderInput{
		CartID:        req.CartID,
		UserID:        req.UserID,
		Customer:      req.Customer,
		Shipping:      req.Shipping,
		CustomerNotes: req.CustomerNotes,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderDTO(o))
}
