package cartstore

import (
	"context"
	"sync"
	"time"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

// MemoryStore implements Store with in-memory storage. Used in tests and
// single-node setups without MongoDB.
type MemoryStore struct {
	mu        sync.RWMutex
	carts     map[string]*domain.Cart
	retention time.Duration
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{
		carts:     make(map[string]*domain.Cart),
		retention: retention,
	}
}

func (s *MemoryStore) Get(_ context.Context, cartID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, exists := s.carts[cartID]
	if !exists {
		return nil, ErrCartNotFound
	}

	if cart.ExpiredAt(time.Now()) {
		delete(s.carts, cartID)
		return nil, ErrCartExpired
	}

	return copyCart(cart), nil
}

func (s *MemoryStore) GetLiveByOwner(_ context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrCartNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	for _, cart := range s.carts {
		if cart.UserID == userID && !cart.ExpiredAt(now) {
			return copyCart(cart), nil
		}
	}
	return nil, ErrCartNotFound
}

func (s *MemoryStore) Create(_ context.Context, cartID, userID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	expires := now.Add(s.retention)
	cart := &domain.Cart{
		ID:        cartID,
		UserID:    userID,
		Items:     []domain.CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: &expires,
	}
	s.carts[cartID] = cart
	return copyCart(cart), nil
}

func (s *MemoryStore) Upsert(_ context.Context, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = time.Now()
	}
	s.carts[cart.ID] = copyCart(cart)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.carts[cartID]; !exists {
		return ErrCartNotFound
	}
	delete(s.carts, cartID)
	return nil
}

func copyCart(cart *domain.Cart) *domain.Cart {
	c := *cart
	c.Items = make([]domain.CartLine, len(cart.Items))
	copy(c.Items, cart.Items)
	if cart.ExpiresAt != nil {
		expires := *cart.ExpiresAt
		c.ExpiresAt = &expires
	}
	return &c
}
