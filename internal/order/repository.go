package order

import (
	"context"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Repository persists orders. Order lines are immutable once written;
// UpdateStatus is the only mutation after creation and is guarded by an
// optimistic check on the status the caller read.
type Repository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
	UpdateStatus(ctx context.Context, order *domain.Order, from domain.OrderStatus) error
	RunMigrations(*Credentials) error
	Close() error
}
