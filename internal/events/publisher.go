package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

// Publisher notifies downstream consumers (fulfilment, notifications) about
// order lifecycle events. Publishing is best-effort: callers log failures and
// keep going, the order itself is already durable.
type Publisher interface {
	OrderPlaced(ctx context.Context, order *domain.Order) error
	OrderStatusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus) error
	Close() error
}

type orderPlacedEvent struct {
	OrderNumber string             `json:"order_number"`
	UserID      string             `json:"user_id"`
	Items       []domain.OrderLine `json:"items"`
	Subtotal    string             `json:"subtotal"`
	Total       string             `json:"total"`
	Currency    string             `json:"currency"`
	CreatedAt   time.Time          `json:"created_at"`
}

type statusChangedEvent struct {
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	FromStatus  string    `json:"from_status"`
	ToStatus    string    `json:"to_status"`
	ChangedAt   time.Time `json:"changed_at"`
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, order *domain.Order) error {
	event := orderPlacedEvent{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Items:       order.Items,
		Subtotal:    order.Subtotal.String(),
		Total:       order.Total().String(),
		Currency:    order.Currency,
		CreatedAt:   order.CreatedAt,
	}
	return p.publish(ctx, order.OrderNumber, "order_placed", event)
}

func (p *KafkaPublisher) OrderStatusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus) error {
	event := statusChangedEvent{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		FromStatus:  from.String(),
		ToStatus:    order.Status.String(),
		ChangedAt:   order.UpdatedAt,
	}
	return p.publish(ctx, order.OrderNumber, "order_status_changed", event)
}

func (p *KafkaPublisher) publish(ctx context.Context, orderNumber, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(orderNumber), // order_number for ordering
		Value: payloadJSON,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards all events. Used in tests and single-process setups
// where no broker is configured.
type NopPublisher struct{}

func (NopPublisher) OrderPlaced(context.Context, *domain.Order) error {
	return nil
}

func (NopPublisher) OrderStatusChanged(context.Context, *domain.Order, domain.OrderStatus) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
