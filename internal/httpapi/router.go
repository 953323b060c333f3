package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Alexlic0001/EquipmentShop/internal/cart"
	"github.com/Alexlic0001/EquipmentShop/internal/catalog"
	"github.com/Alexlic0001/EquipmentShop/internal/checkout"
	"github.com/Alexlic0001/EquipmentShop/internal/inventory"
	"github.com/Alexlic0001/EquipmentShop/internal/order"
)

// RouterDeps collects everything the HTTP surface is wired from.
type RouterDeps struct {
	Carts          *cart.Service
	Checkout       *checkout.Service
	Orders         order.Repository
	Products       catalog.Products
	Ledger         inventory.Ledger
	RequestTimeout time.Duration
}

// NewRouter assembles the full API surface with the standard middleware
// stack. The returned handler is traced end to end.
func NewRouter(deps RouterDeps) http.Handler {
	cartHandler := NewCartHandler(deps.Carts, deps.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(deps.Checkout, deps.RequestTimeout)
	ordersHandler := NewOrdersHandler(deps.Orders, deps.Checkout, deps.RequestTimeout)
	catalogHandler := NewCatalogHandler(deps.Products, deps.Ledger, deps.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(deps.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/carts", func(r chi.Router) {
			r.Post("/", cartHandler.GetOrCreate)
			r.Route("/{cart_id}", func(r chi.Router) {
				r.Get("/", cartHandler.Get)
				r.Get("/summary", cartHandler.Summary)
				r.Get("/validate", cartHandler.Validate)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
				r.Delete("/items", cartHandler.Clear)
				r.Post("/merge", cartHandler.Merge)
				r.Post("/transfer", cartHandler.Transfer)
				r.Post("/renew", cartHandler.Renew)
			})
		})

		r.Post("/checkout", checkoutHandler.PlaceOrder)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListByUser)
			r.Route("/{order_number}", func(r chi.Router) {
				r.Get("/", ordersHandler.Get)
				r.Post("/status", ordersHandler.ChangeStatus)
				r.Post("/cancel", ordersHandler.Cancel)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogHandler.List)
			r.Get("/{product_id}", catalogHandler.Get)
			r.Get("/{product_id}/stock", catalogHandler.Stock)
		})
	})

	return otelhttp.NewHandler(r, "equipment-shop")
}
