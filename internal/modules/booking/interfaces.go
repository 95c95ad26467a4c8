package booking

import (
	"context"
	"time"

	"cleanbook/internal/domain"
	"cleanbook/internal/notification"
	"cleanbook/internal/repository"
)

// OccupancyReader is the read side the availability resolver needs.
type OccupancyReader interface {
	BlockingForDay(ctx context.Context, serviceID int64, date string) ([]domain.Reservation, error)
}

// Ledger is the transactional reservation store.
type Ledger interface {
	OccupancyReader
	Reserve(ctx context.Context, r *domain.Reservation) error
	Release(ctx context.Context, id int64, actor domain.Principal) (*domain.Reservation, error)
	TransitionStatus(ctx context.Context, id int64, to domain.ReservationStatus, actor domain.Principal) (*domain.Reservation, error)
	Reschedule(ctx context.Context, id int64, date, hhmm string, actor domain.Principal) (*domain.Reservation, error)
	AttachReview(ctx context.Context, id int64, owner domain.Principal, rating int, comment string) (*domain.Reservation, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Reservation, error)
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Reservation, error)
	List(ctx context.Context, filter repository.ReservationFilter) ([]domain.Reservation, int64, error)
}

// ExpiryStore is what the sweeper needs from the ledger.
type ExpiryStore interface {
	PendingDueBy(ctx context.Context, date string) ([]domain.Reservation, error)
	Expire(ctx context.Context, id int64, at time.Time) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg notification.Message) error
}

// SlotEvents receives slot occupancy changes for live subscribers.
type SlotEvents interface {
	PublishSlotEvent(evt notification.SlotEvent)
}
