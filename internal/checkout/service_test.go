package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexlic0001/EquipmentShop/internal/cart"
	"github.com/Alexlic0001/EquipmentShop/internal/domain"
	"github.com/Alexlic0001/EquipmentShop/internal/inventory"
	"github.com/Alexlic0001/EquipmentShop/internal/order"
)

// mockCarts is a hand mock for the cart slice checkout depends on.
type mockCarts struct {
	mu      sync.Mutex
	lines   []domain.OrderLine
	convErr error
	deleted []string
	delErr  error
}

func (m *mockCarts) ConvertToOrderInput(_ context.Context, cartID string) ([]domain.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.convErr != nil {
		return nil, m.convErr
	}
	return m.lines, nil
}

func (m *mockCarts) Delete(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	m.deleted = append(m.deleted, cartID)
	return nil
}

// memOrders keeps persisted orders in a map, with injectable failures.
type memOrders struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	createErr error
	updateErr error
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]*domain.Order)}
}

func (m *memOrders) CreateOrder(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.orders[o.OrderNumber]; exists {
		return order.ErrDuplicateOrderNumber
	}
	cp := *o
	m.orders[o.OrderNumber] = &cp
	return nil
}

func (m *memOrders) GetByOrderNumber(_ context.Context, number string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[number]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) ListByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrders) OrderNumberExists(_ context.Context, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.orders[number]
	return ok, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, o *domain.Order, from domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.orders[o.OrderNumber]
	if !ok {
		return order.ErrOrderNotFound
	}
	if stored.Status != from {
		return order.ErrStatusConflict
	}
	cp := *o
	m.orders[o.OrderNumber] = &cp
	return nil
}

func (m *memOrders) RunMigrations(*order.Credentials) error { return nil }
func (m *memOrders) Close() error                           { return nil }

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu      sync.Mutex
	placed  []string
	changed [][2]string // order number, to-status
	err     error
}

func (p *recordingPublisher) OrderPlaced(_ context.Context, o *domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.placed = append(p.placed, o.OrderNumber)
	return nil
}

func (p *recordingPublisher) OrderStatusChanged(_ context.Context, o *domain.Order, _ domain.OrderStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.changed = append(p.changed, [2]string{o.OrderNumber, o.Status.String()})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type checkoutEnv struct {
	service   *Service
	carts     *mockCarts
	ledger    *inventory.MemoryLedger
	orders    *memOrders
	publisher *recordingPublisher
}

func setupCheckout(t *testing.T) *checkoutEnv {
	t.Helper()

	carts := &mockCarts{
		lines: []domain.OrderLine{
			{ProductID: 1, ProductName: "Drill", UnitPrice: decimal.RequireFromString("99.90"), Quantity: 2},
			{ProductID: 2, ProductName: "Hammer", UnitPrice: decimal.RequireFromString("15.00"), Quantity: 1},
		},
	}
	ledger := inventory.NewMemoryLedger()
	require.NoError(t, ledger.SetStock(1, 10))
	require.NoError(t, ledger.SetStock(2, 10))

	orders := newMemOrders()
	publisher := &recordingPublisher{}
	factory := order.NewFactory(orders, "BYN")

	service := NewService(carts, ledger, factory, orders, publisher, Config{
		ShippingCost:          decimal.RequireFromString("10.00"),
		FreeShippingThreshold: decimal.RequireFromString("500.00"),
		TaxRate:               decimal.RequireFromString("0.2"),
		Currency:              "BYN",
	})

	return &checkoutEnv{
		service:   service,
		carts:     carts,
		ledger:    ledger,
		orders:    orders,
		publisher: publisher,
	}
}

func placeInput() PlaceOrderInput {
	return PlaceOrderInput{
		CartID: "cart-1",
		UserID: "user-1",
		Customer: domain.CustomerInfo{
			Name:  "Ivan Ivanov",
			Email: "ivan@example.com",
		},
		Shipping: domain.ShippingInfo{
			Address: "Nezavisimosti 1",
			City:    "Minsk",
		},
	}
}

func TestPlaceOrder_HappyPath(t *testing.T) {
	env := setupCheckout(t)

	o, err := env.service.PlaceOrder(context.Background(), placeInput())
	require.NoError(t, err)

	// 2*99.90 + 15.00
	assert.True(t, o.Subtotal.Equal(decimal.RequireFromString("214.80")))
	assert.True(t, o.ShippingCost.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, o.TaxAmount.Equal(decimal.RequireFromString("42.96")))
	assert.True(t, o.Total().Equal(decimal.RequireFromString("267.76")))
	assert.Equal(t, domain.OrderStatusPending, o.Status)

	// stock committed
	stock, err := env.ledger.Stock(1)
	require.NoError(t, err)
	assert.Equal(t, 8, stock.OnHand)
	assert.Equal(t, 2, stock.Sold)

	// order persisted, cart gone, event out
	_, err = env.orders.GetByOrderNumber(context.Background(), o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, []string{"cart-1"}, env.carts.deleted)
	assert.Equal(t, []string{o.OrderNumber}, env.publisher.placed)
}

func TestPlaceOrder_FreeShippingAboveThreshold(t *testing.T) {
	env := setupCheckout(t)
	env.carts.lines = []domain.OrderLine{
		{ProductID: 1, ProductName: "Drill", UnitPrice: decimal.RequireFromString("300.00"), Quantity: 2},
	}

	o, err := env.service.PlaceOrder(context.Background(), placeInput())
	require.NoError(t, err)
	assert.True(t, o.ShippingCost.IsZero())
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	env := setupCheckout(t)
	env.carts.convErr = cart.ErrEmptyCart

	_, err := env.service.PlaceOrder(context.Background(), placeInput())
	assert.ErrorIs(t, err, cart.ErrEmptyCart)
	assert.Empty(t, env.carts.deleted)
}

func TestPlaceOrder_InsufficientStockNothingApplied(t *testing.T) {
	env := setupCheckout(t)
	require.NoError(t, env.ledger.SetStock(2, 0))

	_, err := env.service.PlaceOrder(context.Background(), placeInput())
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	// the decrement is all-or-nothing: the in-stock line is untouched
	stock, err := env.ledger.Stock(1)
	require.NoError(t, err)
	assert.Equal(t, 10, stock.OnHand)
	assert.Empty(t, env.carts.deleted)
	assert.Empty(t, env.publisher.placed)
}

func TestPlaceOrder_PersistFailureRollsBackStock(t *testing.T) {
	env := setupCheckout(t)
	env.orders.createErr = errors.New("connection lost")

	_, err := env.service.PlaceOrder(context.Background(), placeInput())
	require.Error(t, err)

	stock, err := env.ledger.Stock(1)
	require.NoError(t, err)
	assert.Equal(t, 10, stock.OnHand)
	assert.Empty(t, env.carts.deleted)
	assert.Empty(t, env.publisher.placed)
}

func TestPlaceOrder_CartDeleteFailureKeepsOrder(t *testing.T) {
	env := setupCheckout(t)
	env.carts.delErr = errors.New("store unavailable")

	o, err := env.service.PlaceOrder(context.Background(), placeInput())
	require.NoError(t, err)

	_, err = env.orders.GetByOrderNumber(context.Background(), o.OrderNumber)
	assert.NoError(t, err)
}

func TestPlaceOrder_PublishFailureKeepsOrder(t *testing.T) {
	env := setupCheckout(t)
	env.publisher.err = errors.New("broker down")

	o, err := env.service.PlaceOrder(context.Background(), placeInput())
	require.NoError(t, err)

	_, err = env.orders.GetByOrderNumber(context.Background(), o.OrderNumber)
	assert.NoError(t, err)
}

func TestChangeStatus(t *testing.T) {
	env := setupCheckout(t)
	ctx := context.Background()

	o, err := env.service.PlaceOrder(ctx, placeInput())
	require.NoError(t, err)

	updated, err := env.service.ChangeStatus(ctx, o.OrderNumber, domain.OrderStatusProcessing, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, updated.Status)
	require.NotNil(t, updated.ProcessingAt)
	assert.Equal(t, [2]string{o.OrderNumber, "PROCESSING"}, env.publisher.changed[0])
}

func TestChangeStatus_InvalidTransition(t *testing.T) {
	env := setupCheckout(t)
	ctx := context.Background()

	o, err := env.service.PlaceOrder(ctx, placeInput())
	require.NoError(t, err)

	_, err = env.service.ChangeStatus(ctx, o.OrderNumber, domain.OrderStatusDelivered, "")
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
	assert.Empty(t, env.publisher.changed)
}

func TestChangeStatus_ShippedWithTracking(t *testing.T) {
	env := setupCheckout(t)
	ctx := context.Background()

	o, err := env.service.PlaceOrder(ctx, placeInput())
	require.NoError(t, err)

	_, err = env.service.ChangeStatus(ctx, o.OrderNumber, domain.OrderStatusProcessing, "")
	require.NoError(t, err)
	_, err = env.service.ChangeStatus(ctx, o.OrderNumber, domain.OrderStatusPaid, "")
	require.NoError(t, err)

	shipped, err := env.service.ChangeStatus(ctx, o.OrderNumber, domain.OrderStatusShipped, "BY987654321")
	require.NoError(t, err)
	assert.Equal(t, "BY987654321", shipped.TrackingNumber)
}

func TestChangeStatus_ConflictSurfaces(t *testing.T) {
	env := setupCheckout(t)
	ctx := context.Background()

	o, err := env.service.PlaceOrder(ctx, placeInput())
	require.NoError(t, err)

	env.orders.updateErr = order.ErrStatusConflict
	_, err = env.service.ChangeStatus(ctx, o.OrderNumber, domain.OrderStatusProcessing, "")
	assert.ErrorIs(t, err, order.ErrStatusConflict)
}

func TestChangeStatus_UnknownOrder(t *testing.T) {
	env := setupCheckout(t)

	_, err := env.service.ChangeStatus(context.Background(), "EQ000000000000000000", domain.OrderStatusProcessing, "")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestCancelOrder_Restocks(t *testing.T) {
	env := setupCheckout(t)
	ctx := context.Background()

	o, err := env.service.PlaceOrder(ctx, placeInput())
	require.NoError(t, err)

	stock, _ := env.ledger.Stock(1)
	require.Equal(t, 8, stock.OnHand)

	cancelled, err := env.service.CancelOrder(ctx, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	stock, err = env.ledger.Stock(1)
	require.NoError(t, err)
	assert.Equal(t, 10, stock.OnHand)
}

func TestCancelOrder_ShippedDoesNotRestock(t *testing.T) {
	env := setupCheckout(t)
	ctx := context.Background()

	o, err := env.service.PlaceOrder(ctx, placeInput())
	require.NoError(t, err)
	_, err = env.service.ChangeStatus(ctx, o.OrderNumber, domain.OrderStatusProcessing, "")
	require.NoError(t, err)
	_, err = env.service.ChangeStatus(ctx, o.OrderNumber, domain.OrderStatusPaid, "")
	require.NoError(t, err)
	_, err = env.service.ChangeStatus(ctx, o.OrderNumber, domain.OrderStatusShipped, "")
	require.NoError(t, err)

	_, err = env.service.CancelOrder(ctx, o.OrderNumber)
	require.NoError(t, err)

	stock, err := env.ledger.Stock(1)
	require.NoError(t, err)
	assert.Equal(t, 8, stock.OnHand)
}
