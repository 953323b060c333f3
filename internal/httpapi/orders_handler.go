package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Alexlic0001/EquipmentShop/internal/checkout"
	"github.com/Alexlic0001/EquipmentShop/internal/domain"
	"github.com/Alexlic0001/EquipmentShop/internal/order"
)

type OrdersHandler struct {
	orders   order.Repository
	checkout *checkout.Service
	timeout  time.Duration
}

func NewOrdersHandler(orders order.Repository, checkout *checkout.Service, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:   orders,
		checkout: checkout,
		timeout:  timeout,
	}
}

type ChangeStatusRequestDTO struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.orders.GetByOrderNumber(ctx, chi.URLParam(r, "order_number"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *OrdersHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id query parameter is required")
		return
	}

	orders, err := h.orders.ListByUserID(ctx, userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, toOrderDTO(o))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *OrdersHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ChangeStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	to := domain.OrderStatus(req.Status)
	if !order.KnownStatus(to) {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	o, err := h.checkout.ChangeStatus(ctx, chi.URLParam(r, "order_number"), to, req.TrackingNumber)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *OrdersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.checkout.CancelOrder(ctx, chi.URLParam(r, "order_number"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTO(o))
}
