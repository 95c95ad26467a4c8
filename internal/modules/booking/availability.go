package booking

import (
	"context"
	"strings"
	"time"

	"cleanbook/internal/domain"
)

type OccupiedSlot struct {
	Time          string                   `json:"time"`
	Status        domain.ReservationStatus `json:"status"`
	CreatedAt     time.Time                `json:"created_at"`
	ReservationID int64                    `json:"reservation_id"`
}

type Availability struct {
	ServiceID     int64          `json:"service_id"`
	Date          string         `json:"date"`
	Available     []string       `json:"available"`
	Occupied      []OccupiedSlot `json:"occupied"`
	TotalSlots    int            `json:"total_slots"`
	OccupiedCount int            `json:"occupied_count"`
	PastCount     int            `json:"past_count"`
}

// IsAvailable reports whether hhmm is in the free list.
func (a *Availability) IsAvailable(hhmm string) bool {
	for _, s := range a.Available {
		if s == hhmm {
			return true
		}
	}
	return false
}

func (a *Availability) IsOccupied(hhmm string) bool {
	for _, o := range a.Occupied {
		if o.Time == hhmm {
			return true
		}
	}
	return false
}

// AvailabilityResolver computes the free slots of a service day straight from
// the ledger. Results are never cached.
type AvailabilityResolver struct {
	store OccupancyReader
	clock Clock
}

func NewAvailabilityResolver(store OccupancyReader, clock Clock) *AvailabilityResolver {
	return &AvailabilityResolver{store: store, clock: clock}
}

func (r *AvailabilityResolver) Resolve(ctx context.Context, serviceID int64, date string) (*Availability, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, domain.Validationf("date is required")
	}
	if serviceID <= 0 {
		return nil, domain.Validationf("service id must be positive")
	}
	day, err := time.ParseInLocation(domain.DateLayout, date, r.clock.location())
	if err != nil {
		return nil, domain.Validationf("date must be formatted as YYYY-MM-DD")
	}

	blocking, err := r.store.BlockingForDay(ctx, serviceID, date)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(blocking))
	occupied := make([]OccupiedSlot, 0, len(blocking))
	for _, b := range blocking {
		taken[b.Time] = struct{}{}
		occupied = append(occupied, OccupiedSlot{
			Time:          b.Time,
			Status:        b.Status,
			CreatedAt:     b.CreatedAt,
			ReservationID: b.ID,
		})
	}

	now := r.clock.now()
	today := now.Format(domain.DateLayout)

	grid := GenerateSlots(serviceID)
	out := &Availability{
		ServiceID:     serviceID,
		Date:          date,
		Available:     make([]string, 0, len(grid)),
		Occupied:      occupied,
		TotalSlots:    len(grid),
		OccupiedCount: len(occupied),
	}

	for _, hhmm := range grid {
		if _, ok := taken[hhmm]; ok {
			continue
		}
		if date < today {
			out.PastCount++
			continue
		}
		if date == today {
			start, _ := time.ParseInLocation(domain.TimeLayout, hhmm, r.clock.location())
			slotStart := time.Date(day.Year(), day.Month(), day.Day(), start.Hour(), start.Minute(), 0, 0, r.clock.location())
			if !slotStart.After(now) {
				out.PastCount++
				continue
			}
		}
		out.Available = append(out.Available, hhmm)
	}

	return out, nil
}
