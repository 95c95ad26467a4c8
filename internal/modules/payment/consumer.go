package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"cleanbook/internal/domain"
)

// RoutingKeys are the bindings the payment consumer needs.
var RoutingKeys = []string{"payment.*"}

type Consumer struct {
	svc    *Service
	source deliverySource
}

func NewConsumer(svc *Service, source deliverySource) *Consumer {
	return &Consumer{svc: svc, source: source}
}

// Run starts consuming in a background goroutine. It returns once the
// subscription is established.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.source.Deliveries(ctx)
	if err != nil {
		return err
	}
	go func() {
		for d := range msgs {
			c.handle(ctx, d)
		}
		log.Printf("[payment-consumer] deliveries closed")
	}()
	return nil
}

// handle acks processed and permanently invalid messages and requeues only
// storage failures.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var evt StatusEvent
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		log.Printf("[payment-consumer] unmarshal error: %v", err)
		_ = d.Nack(false, false)
		return
	}

	_, err := c.svc.Apply(ctx, d.RoutingKey, evt)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		log.Printf("[payment-consumer] dropping event key=%s reservation_id=%d: %v", d.RoutingKey, evt.Data.ReservationID, err)
		_ = d.Ack(false)
	default:
		log.Printf("[payment-consumer] apply error key=%s reservation_id=%d: %v", d.RoutingKey, evt.Data.ReservationID, err)
		_ = d.Nack(false, true)
	}
}
