package booking

import (
	"context"
	"fmt"
	"log"

	"cleanbook/internal/domain"
	"cleanbook/internal/notification"
	"cleanbook/internal/pkg/validator"
	"cleanbook/internal/repository"
)

// Service is the booking entry point used by the HTTP layer and the CLI.
type Service struct {
	ledger   Ledger
	resolver *AvailabilityResolver
	notifier Notifier
	events   SlotEvents
	clock    Clock
}

func NewService(ledger Ledger, notifier Notifier, events SlotEvents, clock Clock) *Service {
	return &Service{
		ledger:   ledger,
		resolver: NewAvailabilityResolver(ledger, clock),
		notifier: notifier,
		events:   events,
		clock:    clock,
	}
}

func (s *Service) Availability(ctx context.Context, serviceID int64, date string) (*Availability, error) {
	return s.resolver.Resolve(ctx, serviceID, date)
}

// Reserve books a slot for the caller, or for req.UserID when the caller is
// an administrator.
func (s *Service) Reserve(ctx context.Context, actor domain.Principal, req ReserveRequest) (*domain.Reservation, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if !IsGridSlot(req.ServiceID, req.Time) {
		return nil, domain.Validationf("time %s is not a bookable slot", req.Time)
	}

	owner := actor.ID
	if req.UserID != 0 && req.UserID != actor.ID {
		if !actor.IsAdmin() {
			return nil, domain.ErrForbidden
		}
		owner = req.UserID
	}
	// Clients cannot pre-confirm or declare payment; payment status arrives
	// from the provider or an administrator.
	if (req.Confirm || req.PaymentStatus != "") && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	if err := s.ensureNotElapsed(ctx, req.ServiceID, req.Date, req.Time); err != nil {
		return nil, err
	}

	status := domain.StatusPending
	if req.Confirm {
		status = domain.StatusConfirmed
	}

	r := &domain.Reservation{
		UserID:        owner,
		ServiceID:     req.ServiceID,
		Date:          req.Date,
		Time:          req.Time,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: domain.PaymentStatus(req.PaymentStatus),
		Address:       req.Address,
		Phone:         req.Phone,
		Instructions:  req.Instructions,
		Status:        status,
	}
	if err := s.ledger.Reserve(ctx, r); err != nil {
		return nil, err
	}

	s.publish(notification.SlotReserved, r)
	s.notify(ctx, r, domain.NotifReservationCreated, "Reservation created")
	return r, nil
}

func (s *Service) Release(ctx context.Context, actor domain.Principal, id int64) (*domain.Reservation, error) {
	r, err := s.ledger.Release(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	s.publish(notification.SlotReleased, r)
	s.notify(ctx, r, domain.NotifReservationCancelled, "Reservation cancelled")
	return r, nil
}

func (s *Service) ChangeStatus(ctx context.Context, actor domain.Principal, id int64, req ChangeStatusRequest) (*domain.Reservation, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	r, err := s.ledger.TransitionStatus(ctx, id, domain.ReservationStatus(req.Status), actor)
	if err != nil {
		return nil, err
	}

	if !r.Status.IsBlocking() {
		s.publish(notification.SlotReleased, r)
	}
	s.notify(ctx, r, domain.NotifReservationStatus, fmt.Sprintf("Reservation is now %s", r.Status))
	return r, nil
}

// Reschedule moves a pending reservation of the caller to another slot of the
// same service.
func (s *Service) Reschedule(ctx context.Context, actor domain.Principal, id int64, req RescheduleRequest) (*domain.Reservation, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	before, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(before) {
		return nil, domain.ErrForbidden
	}
	if !IsGridSlot(before.ServiceID, req.Time) {
		return nil, domain.Validationf("time %s is not a bookable slot", req.Time)
	}
	if err := s.ensureNotElapsed(ctx, before.ServiceID, req.Date, req.Time); err != nil {
		return nil, err
	}

	r, err := s.ledger.Reschedule(ctx, id, req.Date, req.Time, actor)
	if err != nil {
		return nil, err
	}

	old := *before
	old.Status = domain.StatusCancelled
	s.publish(notification.SlotReleased, &old)
	s.publish(notification.SlotReserved, r)
	s.notify(ctx, r, domain.NotifReservationRescheduled, "Reservation rescheduled")
	return r, nil
}

func (s *Service) AttachReview(ctx context.Context, actor domain.Principal, id int64, req ReviewRequest) (*domain.Reservation, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	return s.ledger.AttachReview(ctx, id, actor, req.Rating, req.Comment)
}

func (s *Service) Get(ctx context.Context, actor domain.Principal, id int64) (*domain.Reservation, error) {
	r, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(r) {
		return nil, domain.ErrForbidden
	}
	return r, nil
}

func (s *Service) ListMine(ctx context.Context, actor domain.Principal, limit, offset int) ([]domain.Reservation, error) {
	return s.ledger.ListByUser(ctx, actor.ID, limit, offset)
}

func (s *Service) ListAll(ctx context.Context, actor domain.Principal, q ListQuery) ([]domain.Reservation, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, domain.ErrForbidden
	}
	return s.ledger.List(ctx, repository.ReservationFilter{
		ServiceID: q.ServiceID,
		UserID:    q.UserID,
		Status:    q.Status,
		DateFrom:  q.DateFrom,
		DateTo:    q.DateTo,
		Page:      q.Page,
		PerPage:   q.PerPage,
	})
}

// UpdatePaymentStatus records the provider's payment status. It does not
// change the scheduling status.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actor domain.Principal, id int64, req PaymentStatusRequest) (*domain.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	return s.ledger.UpdatePaymentStatus(ctx, id, domain.PaymentStatus(req.PaymentStatus))
}

// ensureNotElapsed rejects slots that have already started. Occupied slots
// pass through; the ledger reports those with the holder's id.
func (s *Service) ensureNotElapsed(ctx context.Context, serviceID int64, date, hhmm string) error {
	av, err := s.resolver.Resolve(ctx, serviceID, date)
	if err != nil {
		return err
	}
	if !av.IsAvailable(hhmm) && !av.IsOccupied(hhmm) {
		return domain.Validationf("slot %s %s is in the past", date, hhmm)
	}
	return nil
}

func (s *Service) publish(kind string, r *domain.Reservation) {
	if s.events == nil {
		return
	}
	s.events.PublishSlotEvent(notification.SlotEvent{
		Type:          kind,
		ServiceID:     r.ServiceID,
		Date:          r.Date,
		Time:          r.Time,
		ReservationID: r.ID,
		Status:        string(r.Status),
	})
}

// notify is fire-and-forget: failures are logged, never returned.
func (s *Service) notify(ctx context.Context, r *domain.Reservation, typ domain.NotificationType, subject string) {
	if s.notifier == nil {
		return
	}
	msg := notification.Message{
		Recipient: r.UserID,
		Subject:   subject,
		Type:      typ,
		TemplateData: map[string]any{
			"reservation_id": r.ID,
			"service_id":     r.ServiceID,
			"date":           r.Date,
			"time":           r.Time,
			"status":         string(r.Status),
		},
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		log.Printf("notification_failed type=%s reservation_id=%d recipient=%d error=%v", typ, r.ID, r.UserID, err)
	}
}
