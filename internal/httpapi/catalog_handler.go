package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Alexlic0001/EquipmentShop/internal/catalog"
	"github.com/Alexlic0001/EquipmentShop/internal/inventory"
)

type CatalogHandler struct {
	products catalog.Products
	ledger   inventory.Ledger
	timeout  time.Duration
}

func NewCatalogHandler(products catalog.Products, ledger inventory.Ledger, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		products: products,
		ledger:   ledger,
		timeout:  timeout,
	}
}

type StockDTO struct {
	ProductID int64 `json:"product_id"`
	OnHand    int   `json:"on_hand"`
	Sold      int   `json:"sold"`
	Available bool  `json:"available"`
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.products.GetAllProducts(ctx)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	product, err := h.products.GetProduct(ctx, productID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) Stock(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	stock, err := h.ledger.Stock(productID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, StockDTO{
		ProductID: stock.ProductID,
		OnHand:    stock.OnHand,
		Sold:      stock.Sold,
		Available: stock.Available(),
	})
}
