package payment

import (
	"context"
	"strings"

	"cleanbook/internal/domain"
)

// Service stores payment statuses reported by the provider. The status is
// opaque to scheduling and never changes the reservation status.
type Service struct {
	writer  statusWriter
	loggerf func(format string, args ...interface{})
}

func NewService(writer statusWriter, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{writer: writer, loggerf: loggerf}
}

// Apply records evt. routingKey supplies the status when the payload does not.
func (s *Service) Apply(ctx context.Context, routingKey string, evt StatusEvent) (*domain.Reservation, error) {
	if evt.Data.ReservationID <= 0 {
		return nil, domain.Validationf("reservation_id is required")
	}

	status := strings.TrimSpace(evt.Data.Status)
	if status == "" {
		status = strings.TrimPrefix(routingKey, "payment.")
	}
	if status == "" || status == routingKey {
		return nil, domain.Validationf("payment status is required")
	}

	r, err := s.writer.UpdatePaymentStatus(ctx, evt.Data.ReservationID, domain.PaymentStatus(status))
	if err != nil {
		return nil, err
	}

	s.loggerf("payment_status_recorded reservation_id=%d payment_id=%s status=%s", r.ID, evt.Data.PaymentID, status)
	return r, nil
}
