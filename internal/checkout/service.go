package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
	"github.com/Alexlic0001/EquipmentShop/internal/events"
	"github.com/Alexlic0001/EquipmentShop/internal/inventory"
	"github.com/Alexlic0001/EquipmentShop/internal/order"
)

// Carts is the slice of the cart service checkout needs: a validated
// snapshot going in, disposal of the cart once the order is durable.
type Carts interface {
	ConvertToOrderInput(ctx context.Context, cartID string) ([]domain.OrderLine, error)
	Delete(ctx context.Context, cartID string) error
}

// Config holds the pricing knobs applied when a cart becomes an order.
type Config struct {
	ShippingCost          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
	Currency              string
}

// PlaceOrderInput is what the buyer submits at checkout, alongside the
// cart that holds the actual lines.
type PlaceOrderInput struct {
	CartID        string
	UserID        string
	Customer      domain.CustomerInfo
	Shipping      domain.ShippingInfo
	CustomerNotes string
}

// Service orchestrates checkout: snapshot the cart, commit stock, persist
// the order, then dispose of the cart. Stock and the order record must
// stay consistent, so a failed persist rolls the decrement back.
type Service struct {
	carts   Carts
	ledger  inventory.Ledger
	factory *order.Factory
	orders  order.Repository
	events  events.Publisher
	cfg     Config
}

func NewService(carts Carts, ledger inventory.Ledger, factory *order.Factory, orders order.Repository, publisher events.Publisher, cfg Config) *Service {
	return &Service{
		carts:   carts,
		ledger:  ledger,
		factory: factory,
		orders:  orders,
		events:  publisher,
		cfg:     cfg,
	}
}

// PlaceOrder converts the cart into a durable order.
//
// Sequencing matters: the cart snapshot re-validates against live stock,
// then the decrement itself re-checks atomically (a sale may have landed
// between the two), and only a successfully persisted order keeps the
// decrement. The cart is deleted last; if that fails the order still
// stands and the leftover cart expires on its own.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	lines, err := s.carts.ConvertToOrderInput(ctx, in.CartID)
	if err != nil {
		return nil, err
	}

	movements := make([]domain.StockMovement, 0, len(lines))
	for _, line := range lines {
		movements = append(movements, domain.StockMovement{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	if err := s.ledger.DecrementAll(movements); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	shippingCost := s.cfg.ShippingCost
	if s.cfg.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(s.cfg.FreeShippingThreshold) {
		shippingCost = decimal.Zero
	}
	taxAmount := subtotal.Mul(s.cfg.TaxRate).Round(2)

	newOrder, err := s.factory.Build(ctx, order.BuildInput{
		UserID:        in.UserID,
		Customer:      in.Customer,
		Shipping:      in.Shipping,
		Lines:         lines,
		Subtotal:      subtotal,
		ShippingCost:  shippingCost,
		TaxAmount:     taxAmount,
		Currency:      s.cfg.Currency,
		CustomerNotes: in.CustomerNotes,
	})
	if err != nil {
		s.rollbackStock(movements)
		return nil, err
	}

	if err := s.orders.CreateOrder(ctx, newOrder); err != nil {
		s.rollbackStock(movements)
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if err := s.carts.Delete(ctx, in.CartID); err != nil {
		log.Printf("order %s placed but cart %s not deleted: %v", newOrder.OrderNumber, in.CartID, err)
	}

	if err := s.events.OrderPlaced(ctx, newOrder); err != nil {
		log.Printf("failed to publish order_placed for %s: %v", newOrder.OrderNumber, err)
	}

	log.Printf("order %s placed for user %s, total %s %s",
		newOrder.OrderNumber, newOrder.UserID, newOrder.Total(), newOrder.Currency)
	return newOrder, nil
}

// ChangeStatus moves an order through the status machine. The write is
// guarded by the status the order was read at, so two concurrent
// transitions cannot both win.
func (s *Service) ChangeStatus(ctx context.Context, orderNumber string, to domain.OrderStatus, trackingNumber string) (*domain.Order, error) {
	o, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	from := o.Status
	if err := order.Transition(o, to, time.Now()); err != nil {
		return nil, err
	}
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}

	if err := s.orders.UpdateStatus(ctx, o, from); err != nil {
		return nil, err
	}

	if err := s.events.OrderStatusChanged(ctx, o, from); err != nil {
		log.Printf("failed to publish order_status_changed for %s: %v", orderNumber, err)
	}

	log.Printf("order %s moved %s -> %s", orderNumber, from, to)
	return o, nil
}

// CancelOrder is ChangeStatus sugar that also restocks the order's lines.
// Only non-shipped cancellations restock; a cancelled shipment is handled
// through the returns flow, not here.
func (s *Service) CancelOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	o, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	restock := o.Status != domain.OrderStatusShipped

	cancelled, err := s.ChangeStatus(ctx, orderNumber, domain.OrderStatusCancelled, "")
	if err != nil {
		return nil, err
	}

	if restock {
		movements := make([]domain.StockMovement, 0, len(cancelled.Items))
		for _, line := range cancelled.Items {
			movements = append(movements, domain.StockMovement{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}
		s.rollbackStock(movements)
	}
	return cancelled, nil
}

func (s *Service) rollbackStock(movements []domain.StockMovement) {
	if err := s.ledger.IncrementAll(movements); err != nil {
		log.Printf("failed to restore stock after checkout failure: %v", err)
	}
}
