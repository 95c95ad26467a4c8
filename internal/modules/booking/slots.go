package booking

import (
	"fmt"
	"time"

	"cleanbook/internal/domain"
)

const (
	gridOpen  = 8 * 60
	gridClose = 18*60 + 30
	slotStep  = 30
)

// GenerateSlots returns the bookable start times for one calendar day of the
// service, in order. The grid is currently the same for every service.
func GenerateSlots(serviceID int64) []string {
	out := make([]string, 0, (gridClose-gridOpen)/slotStep+1)
	for m := gridOpen; m <= gridClose; m += slotStep {
		out = append(out, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return out
}

// IsGridSlot reports whether hhmm is one of the service's slot start times.
func IsGridSlot(serviceID int64, hhmm string) bool {
	t, err := time.Parse(domain.TimeLayout, hhmm)
	if err != nil || t.Format(domain.TimeLayout) != hhmm {
		return false
	}
	for _, s := range GenerateSlots(serviceID) {
		if s == hhmm {
			return true
		}
	}
	return false
}

// Clock yields wall-clock time in the business time zone.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Location: loc, Now: time.Now}
}

func (c Clock) now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	if c.Now == nil {
		return time.Now().In(loc)
	}
	return c.Now().In(loc)
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Clock) Today() string {
	return c.now().Format(domain.DateLayout)
}
