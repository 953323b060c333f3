package order

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

const (
	orderNumberPrefix = "EQ"

	// how many fresh numbers to try before giving up on a clash streak
	maxNumberAttempts = 5
)

// NumberChecker answers whether an order number is already taken.
// Satisfied by Repository.
type NumberChecker interface {
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
}

// BuildInput carries everything a new order is assembled from. Lines come
// from the cart service's ConvertToOrderInput.
type BuildInput struct {
	UserID         string
	Customer       domain.CustomerInfo
	Shipping       domain.ShippingInfo
	Lines          []domain.OrderLine
	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Currency       string
	CustomerNotes  string
}

// Factory builds order snapshots. It does not persist them.
type Factory struct {
	numbers         NumberChecker
	defaultCurrency string
}

func NewFactory(numbers NumberChecker, defaultCurrency string) *Factory {
	if defaultCurrency == "" {
		defaultCurrency = "BYN"
	}
	return &Factory{
		numbers:         numbers,
		defaultCurrency: defaultCurrency,
	}
}

// Build assembles an immutable order in status Pending with a freshly
// generated, collision-checked order number. The total is never assigned:
// Order.Total derives it from the monetary breakdown.
func (f *Factory) Build(ctx context.Context, in BuildInput) (*domain.Order, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("cannot build an order without lines")
	}

	cur := in.Currency
	if cur == "" {
		cur = f.defaultCurrency
	}
	if _, err := currency.ParseISO(cur); err != nil {
		return nil, fmt.Errorf("currency[%s] is not valid: %w", cur, err)
	}

	number, err := f.uniqueOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	subtotal := in.Subtotal
	if subtotal.IsZero() {
		for _, line := range in.Lines {
			subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}

	now := time.Now()
	return &domain.Order{
		OrderNumber:    number,
		UserID:         in.UserID,
		Customer:       in.Customer,
		Shipping:       in.Shipping,
		Status:         domain.OrderStatusPending,
		PaymentStatus:  domain.PaymentStatusPending,
		Subtotal:       subtotal,
		ShippingCost:   in.ShippingCost,
		TaxAmount:      in.TaxAmount,
		DiscountAmount: in.DiscountAmount,
		Currency:       cur,
		Items:          in.Lines,
		CustomerNotes:  in.CustomerNotes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (f *Factory) uniqueOrderNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number := generateOrderNumber()

		exists, err := f.numbers.OrderNumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("failed to check order number: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique order number after %d attempts", maxNumberAttempts)
}

func generateOrderNumber() string {
	datePart := time.Now().UTC().Format("20060102150405")
	randomPart := rand.Intn(9000) + 1000
	return fmt.Sprintf("%s%s%d", orderNumberPrefix, datePart, randomPart)
}
