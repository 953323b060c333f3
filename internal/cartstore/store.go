package cartstore

import (
	"context"
	"errors"
	"time"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")

	// ErrCartExpired is treated as not-found by callers but kept distinct
	// so diagnostics can tell a purged cart from one that never existed.
	ErrCartExpired = errors.New("cart has expired")
)

// DefaultRetention is how long a cart lives without renewal.
const DefaultRetention = 30 * 24 * time.Hour

// Store persists cart aggregates. A cart whose expiration has passed must
// behave as not found: implementations compare expires_at against the
// current clock on every lookup, delete the stale document and return
// ErrCartExpired rather than stale data.
//
// Consumers define this interface, not the MongoDB implementation.
type Store interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	GetLiveByOwner(ctx context.Context, userID string) (*domain.Cart, error)
	Create(ctx context.Context, cartID, userID string) (*domain.Cart, error)
	Upsert(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, cartID string) error
}
