package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/Alexlic0001/EquipmentShop/internal/cart/cache"
	"github.com/Alexlic0001/EquipmentShop/internal/cartstore"
	"github.com/Alexlic0001/EquipmentShop/internal/catalog"
	"github.com/Alexlic0001/EquipmentShop/internal/domain"
	"github.com/Alexlic0001/EquipmentShop/internal/inventory"
)

// Service owns all cart business logic. Every mutating operation runs its
// read-modify-write cycle under a per-cart mutex, so two concurrent
// AddItem calls on the same cart serialize instead of last-writer-wins.
type Service struct {
	store     cartstore.Store
	products  catalog.Products
	ledger    inventory.Ledger
	cache     cache.CartCache
	sfg       singleflight.Group // Prevents cache stampede on reads
	locks     *keyedMutex
	retention time.Duration
}

func NewService(store cartstore.Store, products catalog.Products, ledger inventory.Ledger, cartCache cache.CartCache, retention time.Duration) *Service {
	if retention <= 0 {
		retention = cartstore.DefaultRetention
	}
	return &Service{
		store:     store,
		products:  products,
		ledger:    ledger,
		cache:     cartCache,
		locks:     newKeyedMutex(),
		retention: retention,
	}
}

// Get returns the live cart for cartID. Reads go through the cache with
// singleflight so concurrent misses for the same cart hit the store once.
func (s *Service) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
		cached, errCache := s.cache.Get(ctx, cartID)
		if errCache == nil && !cached.ExpiredAt(time.Now()) {
			return cached, nil
		}
		if errCache != nil && !errors.Is(errCache, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", errCache) // log cache error but continue
		}

		cart, errGet := s.store.Get(ctx, cartID)
		if errGet != nil {
			return nil, errGet
		}

		// fill cache off the request path
		go func() {
			if errSet := s.cache.Set(context.Background(), cartID, cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// GetOrCreate returns the live cart for cartID, creating one if it is
// absent or has expired. An empty cartID requests a brand new cart. A
// differing non-empty userID triggers ownership transfer first; if the
// transfer merged this cart into the user's existing live cart, that cart
// is returned.
func (s *Service) GetOrCreate(ctx context.Context, cartID, userID string) (*domain.Cart, error) {
	if cartID == "" {
		cartID = uuid.NewString()
	}

	cart, err := s.Get(ctx, cartID)
	if err != nil {
		if !isGone(err) {
			return nil, err
		}
		if errors.Is(err, cartstore.ErrCartExpired) {
			log.Printf("cart %s expired, creating a fresh one", cartID)
		}
		// a user keeps at most one live cart
		if userID != "" {
			if userCart, errOwner := s.store.GetLiveByOwner(ctx, userID); errOwner == nil {
				return userCart, nil
			} else if !errors.Is(errOwner, cartstore.ErrCartNotFound) {
				return nil, errOwner
			}
		}
		cart, err = s.store.Create(ctx, cartID, userID)
		if err != nil {
			return nil, err
		}
		log.Printf("created cart %s", cartID)
		return cart, nil
	}

	if userID != "" && cart.UserID != userID {
		if err := s.TransferOwnership(ctx, cartID, userID); err != nil {
			return nil, err
		}
		cart, err = s.store.Get(ctx, cartID)
		if isGone(err) {
			// merged into the user's live cart
			return s.store.GetLiveByOwner(ctx, userID)
		}
		if err != nil {
			return nil, err
		}
	}

	return cart, nil
}

// AddItem appends quantity of a product to the cart, creating the cart
// and the line as needed. The line price is captured from the product at
// this moment. Re-adding an existing product accumulates and clamps to
// current stock; only the first add of a line can fail on stock.
func (s *Service) AddItem(ctx context.Context, cartID string, productID int64, quantity int, attributes string) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	stock, err := s.ledger.Stock(productID)
	if err != nil {
		return err
	}
	if !stock.Available() || quantity > stock.OnHand {
		return &inventory.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: stock.OnHand,
		}
	}

	cart, err := s.store.Get(ctx, cartID)
	if err != nil {
		if !isGone(err) {
			return err
		}
		cart, err = s.store.Create(ctx, cartID, "")
		if err != nil {
			return err
		}
	}

	now := time.Now()
	if line := cart.Line(productID); line != nil {
		newQuantity := line.Quantity + quantity
		if newQuantity > stock.OnHand {
			newQuantity = stock.OnHand
		}
		line.Quantity = newQuantity
		line.UpdatedAt = now
	} else {
		cart.Items = append(cart.Items, domain.CartLine{
			ProductID:          productID,
			Price:              product.Price,
			Quantity:           quantity,
			SelectedAttributes: attributes,
			AddedAt:            now,
			UpdatedAt:          now,
		})
	}
	cart.UpdatedAt = now

	if err := s.store.Upsert(ctx, cart); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	s.invalidate(cartID)
	log.Printf("added product %d to cart %s", productID, cartID)
	return nil
}

// UpdateQuantity sets the exact quantity for an existing line. Unlike
// AddItem's accumulate-and-clamp, an explicit quantity above stock is
// rejected: the user asked for that number and gets it or an error.
// Quantity zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, cartID string, productID int64, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, cartID, productID)
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.store.Get(ctx, cartID)
	if err != nil {
		return err
	}

	line := cart.Line(productID)
	if line == nil {
		return ErrItemNotFound
	}

	stock, err := s.ledger.Stock(productID)
	if err != nil {
		return err
	}
	if !stock.Available() || quantity > stock.OnHand {
		return &inventory.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: stock.OnHand,
		}
	}

	now := time.Now()
	line.Quantity = quantity
	line.UpdatedAt = now
	cart.UpdatedAt = now

	if err := s.store.Upsert(ctx, cart); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	s.invalidate(cartID)
	return nil
}

// RemoveItem drops the line for productID. Removing an absent line, or a
// line from an absent cart, is a no-op.
func (s *Service) RemoveItem(ctx context.Context, cartID string, productID int64) error {
	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.store.Get(ctx, cartID)
	if err != nil {
		if isGone(err) {
			return nil
		}
		return err
	}

	if !cart.RemoveLine(productID) {
		return nil
	}
	cart.UpdatedAt = time.Now()

	if err := s.store.Upsert(ctx, cart); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	s.invalidate(cartID)
	log.Printf("removed product %d from cart %s", productID, cartID)
	return nil
}

// Clear removes every line. The cart itself survives.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.store.Get(ctx, cartID)
	if err != nil {
		return err
	}

	cart.Items = []domain.CartLine{}
	cart.UpdatedAt = time.Now()

	if err := s.store.Upsert(ctx, cart); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	s.invalidate(cartID)
	log.Printf("cleared cart %s", cartID)
	return nil
}

// Delete removes the cart entirely. Idempotent: deleting a cart that is
// already gone is not an error.
func (s *Service) Delete(ctx context.Context, cartID string) error {
	unlock := s.locks.Lock(cartID)
	defer unlock()

	if err := s.store.Delete(ctx, cartID); err != nil && !errors.Is(err, cartstore.ErrCartNotFound) {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	s.invalidate(cartID)
	return nil
}

// Validate reports whether every line's product is still available and
// within stock. Read-only; a missing cart is simply not valid.
func (s *Service) Validate(ctx context.Context, cartID string) (bool, error) {
	cart, err := s.store.Get(ctx, cartID)
	if err != nil {
		if isGone(err) {
			return false, nil
		}
		return false, err
	}

	return s.validateLines(cart), nil
}

func (s *Service) validateLines(cart *domain.Cart) bool {
	for _, item := range cart.Items {
		stock, err := s.ledger.Stock(item.ProductID)
		if err != nil {
			return false
		}
		if !stock.Available() || item.Quantity > stock.OnHand {
			return false
		}
	}
	return true
}

// Merge folds the source cart into the target: shared products accumulate
// (clamped to current stock), the rest move over. The source cart is
// deleted on completion.
func (s *Service) Merge(ctx context.Context, sourceCartID, targetCartID string) error {
	if sourceCartID == targetCartID {
		return nil
	}

	// lock both carts in a stable order to avoid deadlock with a
	// concurrent merge in the opposite direction
	first, second := sourceCartID, targetCartID
	if first > second {
		first, second = second, first
	}
	unlockFirst := s.locks.Lock(first)
	defer unlockFirst()
	unlockSecond := s.locks.Lock(second)
	defer unlockSecond()

	source, err := s.store.Get(ctx, sourceCartID)
	if err != nil {
		return err
	}

	target, err := s.store.Get(ctx, targetCartID)
	if err != nil {
		if !isGone(err) {
			return err
		}
		target, err = s.store.Create(ctx, targetCartID, "")
		if err != nil {
			return err
		}
	}

	now := time.Now()
	for _, sourceItem := range source.Items {
		if targetLine := target.Line(sourceItem.ProductID); targetLine != nil {
			stock, err := s.ledger.Stock(sourceItem.ProductID)
			if err != nil {
				continue // product gone; keep the target line as is
			}
			newQuantity := targetLine.Quantity + sourceItem.Quantity
			if newQuantity > stock.OnHand {
				newQuantity = stock.OnHand
			}
			targetLine.Quantity = newQuantity
			targetLine.UpdatedAt = now
		} else {
			moved := sourceItem
			moved.AddedAt = now
			moved.UpdatedAt = now
			target.Items = append(target.Items, moved)
		}
	}
	target.UpdatedAt = now

	if err := s.store.Upsert(ctx, target); err != nil {
		return fmt.Errorf("failed to save merged cart: %w", err)
	}

	if err := s.store.Delete(ctx, sourceCartID); err != nil && !errors.Is(err, cartstore.ErrCartNotFound) {
		return fmt.Errorf("failed to delete source cart: %w", err)
	}

	s.invalidate(sourceCartID)
	s.invalidate(targetCartID)
	log.Printf("merged cart %s into %s", sourceCartID, targetCartID)
	return nil
}

// TransferOwnership assigns the cart to a user. If the user already owns
// a different live cart, this cart is merged into it instead.
func (s *Service) TransferOwnership(ctx context.Context, cartID, userID string) error {
	if userID == "" {
		return fmt.Errorf("userID is empty")
	}

	userCart, err := s.store.GetLiveByOwner(ctx, userID)
	if err == nil && userCart.ID != cartID {
		return s.Merge(ctx, cartID, userCart.ID)
	}
	if err != nil && !errors.Is(err, cartstore.ErrCartNotFound) {
		return err
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.store.Get(ctx, cartID)
	if err != nil {
		return err
	}

	cart.UserID = userID
	cart.UpdatedAt = time.Now()

	if err := s.store.Upsert(ctx, cart); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	s.invalidate(cartID)
	return nil
}

// RenewExpiration pushes the cart's expiration out by the retention
// window. A stale token pointing at a purged cart is routine, not an
// error: absent and expired carts are tolerated silently.
func (s *Service) RenewExpiration(ctx context.Context, cartID string) error {
	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.store.Get(ctx, cartID)
	if err != nil {
		if isGone(err) {
			log.Printf("renewal skipped, cart %s is gone: %v", cartID, err)
			return nil
		}
		return err
	}

	now := time.Now()
	expires := now.Add(s.retention)
	cart.ExpiresAt = &expires
	cart.UpdatedAt = now

	if err := s.store.Upsert(ctx, cart); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	s.invalidate(cartID)
	return nil
}

// ConvertToOrderInput snapshots a validated, non-empty cart into immutable
// order lines. It neither decrements inventory nor deletes the cart; the
// checkout orchestration owns that sequencing.
func (s *Service) ConvertToOrderInput(ctx context.Context, cartID string) ([]domain.OrderLine, error) {
	cart, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	if !s.validateLines(cart) {
		return nil, ErrCartInvalid
	}

	lines := make([]domain.OrderLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, ErrCartInvalid
			}
			return nil, err
		}
		lines = append(lines, domain.OrderLine{
			ProductID:     item.ProductID,
			ProductName:   product.Name,
			UnitPrice:     item.Price,
			OriginalPrice: product.OldPrice,
			Quantity:      item.Quantity,
			Attributes:    item.SelectedAttributes,
		})
	}

	return lines, nil
}

// Summary returns the item count and subtotal for the mini-cart. A cart
// that is absent or expired counts as empty.
func (s *Service) Summary(ctx context.Context, cartID string) (int, decimal.Decimal, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		if isGone(err) {
			return 0, decimal.Zero, nil
		}
		return 0, decimal.Zero, err
	}
	return cart.ItemCount(), cart.Subtotal(), nil
}

func (s *Service) invalidate(cartID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, cartID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

// isGone treats an expired cart the same as a missing one; callers fall
// back to creating a fresh cart either way.
func isGone(err error) bool {
	return errors.Is(err, cartstore.ErrCartNotFound) || errors.Is(err, cartstore.ErrCartExpired)
}
