package domain

import "time"

type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusInProgress ReservationStatus = "in_progress"
	StatusCompleted  ReservationStatus = "completed"
	StatusCancelled  ReservationStatus = "cancelled"
	StatusExpired    ReservationStatus = "expired"
	StatusRejected   ReservationStatus = "rejected"
)

// PaymentStatus is reported by the payment provider and stored as is.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// transitions lists every allowed status change. Statuses without an entry are terminal.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled, StatusExpired, StatusRejected},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted,
		StatusCancelled, StatusExpired, StatusRejected:
		return true
	}
	return false
}

func (s ReservationStatus) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// IsBlocking reports whether a reservation in this status occupies its slot.
func (s ReservationStatus) IsBlocking() bool {
	return s != StatusCancelled && s != StatusRejected
}

func (s ReservationStatus) CanTransitionTo(to ReservationStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// NonBlockingStatuses are excluded from slot conflict checks.
func NonBlockingStatuses() []string {
	return []string{string(StatusCancelled), string(StatusRejected)}
}

type Reservation struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	ServiceID     int64             `json:"service_id"`
	Date          string            `json:"date"`
	Time          string            `json:"time"`
	Amount        float64           `json:"amount"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	Address       string            `json:"address,omitempty"`
	Phone         string            `json:"phone,omitempty"`
	Instructions  string            `json:"instructions,omitempty"`
	Status        ReservationStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	CancelledAt   *time.Time        `json:"cancelled_at,omitempty"`
	CancelledBy   *int64            `json:"cancelled_by,omitempty"`

	Rating        *int       `json:"rating,omitempty"`
	ReviewComment string     `json:"review_comment,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
}

// ScheduledAt returns the start of the reserved slot in loc.
func (r *Reservation) ScheduledAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, r.Date+" "+r.Time, loc)
}

func (r *Reservation) HasReview() bool {
	return r.Rating != nil
}
