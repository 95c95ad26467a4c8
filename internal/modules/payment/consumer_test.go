package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cleanbook/internal/domain"
)

type MockStatusWriter struct {
	mock.Mock
}

func (m *MockStatusWriter) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Reservation, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

type fakeAck struct {
	acked   int
	nacked  int
	requeue bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked++; return nil }
func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	f.requeue = requeue
	return nil
}
func (f *fakeAck) Reject(uint64, bool) error { return nil }

type fakeSource struct {
	ch chan amqp.Delivery
}

func (f *fakeSource) Deliveries(context.Context) (<-chan amqp.Delivery, error) {
	return f.ch, nil
}

func delivery(ack *fakeAck, key, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, RoutingKey: key, Body: []byte(body)}
}

func TestService_Apply(t *testing.T) {
	w := new(MockStatusWriter)
	svc := NewService(w, nil)
	ctx := context.Background()

	w.On("UpdatePaymentStatus", ctx, int64(4), domain.PaymentPaid).Return(&domain.Reservation{ID: 4, PaymentStatus: domain.PaymentPaid}, nil)

	var evt StatusEvent
	evt.Data.ReservationID = 4
	r, err := svc.Apply(ctx, "payment.paid", evt)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, r.PaymentStatus)

	_, err = svc.Apply(ctx, "payment.paid", StatusEvent{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Apply(ctx, "payments", evt)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestConsumer_Handle(t *testing.T) {
	w := new(MockStatusWriter)
	c := NewConsumer(NewService(w, nil), nil)
	ctx := context.Background()

	w.On("UpdatePaymentStatus", ctx, int64(1), domain.PaymentStatus("refunded")).Return(&domain.Reservation{ID: 1}, nil)
	w.On("UpdatePaymentStatus", ctx, int64(2), domain.PaymentPaid).Return(nil, domain.ErrNotFound)
	w.On("UpdatePaymentStatus", ctx, int64(3), domain.PaymentPaid).Return(nil, domain.StorageError(errors.New("down")))

	ok := &fakeAck{}
	c.handle(ctx, delivery(ok, "payment.paid", `{"data":{"reservation_id":1,"status":"refunded"}}`))
	assert.Equal(t, 1, ok.acked)

	missing := &fakeAck{}
	c.handle(ctx, delivery(missing, "payment.paid", `{"data":{"reservation_id":2}}`))
	assert.Equal(t, 1, missing.acked)

	broken := &fakeAck{}
	c.handle(ctx, delivery(broken, "payment.paid", `{"data":{"reservation_id":3}}`))
	assert.Equal(t, 1, broken.nacked)
	assert.True(t, broken.requeue)

	garbage := &fakeAck{}
	c.handle(ctx, delivery(garbage, "payment.paid", `{`))
	assert.Equal(t, 1, garbage.nacked)
	assert.False(t, garbage.requeue)
}

func TestConsumer_Run(t *testing.T) {
	w := new(MockStatusWriter)
	src := &fakeSource{ch: make(chan amqp.Delivery, 1)}
	c := NewConsumer(NewService(w, nil), src)

	done := make(chan struct{})
	w.On("UpdatePaymentStatus", mock.Anything, int64(9), domain.PaymentPaid).
		Run(func(mock.Arguments) { close(done) }).
		Return(&domain.Reservation{ID: 9}, nil)

	require.NoError(t, c.Run(context.Background()))
	src.ch <- delivery(&fakeAck{}, "payment.paid", `{"data":{"reservation_id":9}}`)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event was not applied")
	}
	close(src.ch)
}
