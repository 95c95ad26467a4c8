package payment

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"cleanbook/internal/domain"
)

type statusWriter interface {
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Reservation, error)
}

type deliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}
