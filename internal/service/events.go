package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"go.uber.org/zap"

	"order-reconciliation/internal/logger"
)

const (
	EventPaymentConfirmed      = "payment.confirmed"
	EventOrderCreated          = "order.created"
	EventShipmentUpdated       = "order.shipment.updated"
	EventCancellationRequested = "order.cancellation.requested"
	EventCancellationApproved  = "order.cancellation.approved"
)

// OrderEvent is emitted after a state change has been committed.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"orderId,omitempty"`
	PaymentCode   string    `json:"paymentCode,omitempty"`
	CancelOrderID string    `json:"cancelOrderId,omitempty"`
	Status        string    `json:"status,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

type noopPublisher struct{}

func NewNoopPublisher() EventPublisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, OrderEvent) error {
	return nil
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher publishes events as JSON, keyed by order id (or payment code)
// so events of one order stay on one partition.
func NewKafkaPublisher(producer sarama.SyncProducer, topic string) EventPublisher {
	return &kafkaPublisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	content, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	key := event.OrderID
	if key == "" {
		key = event.PaymentCode
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(content),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

// publish never fails the caller: the state change is already committed.
func publish(ctx context.Context, publisher EventPublisher, event OrderEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("publish order event failed",
			zap.String("event", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}
