package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanbook/internal/domain"
)

func TestResolve_FutureDay(t *testing.T) {
	ledger := new(MockLedger)
	created := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	ledger.On("BlockingForDay", context.Background(), int64(7), "2025-03-11").Return([]domain.Reservation{
		{ID: 3, Time: "10:00", Status: domain.StatusPending, CreatedAt: created},
		{ID: 4, Time: "18:30", Status: domain.StatusConfirmed, CreatedAt: created},
	}, nil)

	av, err := NewAvailabilityResolver(ledger, fixedClock()).Resolve(context.Background(), 7, "2025-03-11")

	require.NoError(t, err)
	assert.Equal(t, 22, av.TotalSlots)
	assert.Equal(t, 2, av.OccupiedCount)
	assert.Equal(t, 0, av.PastCount)
	assert.Len(t, av.Available, 20)
	assert.False(t, av.IsAvailable("10:00"))
	assert.True(t, av.IsOccupied("10:00"))
	assert.Equal(t, int64(3), av.Occupied[0].ReservationID)
	assert.Equal(t, domain.StatusPending, av.Occupied[0].Status)
	assert.Equal(t, created, av.Occupied[0].CreatedAt)
}

func TestResolve_TodayDropsElapsedSlots(t *testing.T) {
	ledger := new(MockLedger)
	ledger.On("BlockingForDay", context.Background(), int64(7), "2025-03-10").Return([]domain.Reservation{
		{ID: 9, Time: "14:00", Status: domain.StatusPending},
	}, nil)

	av, err := NewAvailabilityResolver(ledger, fixedClock()).Resolve(context.Background(), 7, "2025-03-10")

	require.NoError(t, err)
	// 08:00..11:00 have started by 11:15.
	assert.Equal(t, 7, av.PastCount)
	assert.Equal(t, "11:30", av.Available[0])
	assert.Len(t, av.Available, 22-7-1)
	assert.False(t, av.IsAvailable("14:00"))
}

func TestResolve_PastDay(t *testing.T) {
	ledger := new(MockLedger)
	ledger.On("BlockingForDay", context.Background(), int64(7), "2025-03-09").Return([]domain.Reservation{}, nil)

	av, err := NewAvailabilityResolver(ledger, fixedClock()).Resolve(context.Background(), 7, "2025-03-09")

	require.NoError(t, err)
	assert.Empty(t, av.Available)
	assert.Equal(t, 22, av.PastCount)
}

func TestResolve_Validation(t *testing.T) {
	ledger := new(MockLedger)
	r := NewAvailabilityResolver(ledger, fixedClock())

	_, err := r.Resolve(context.Background(), 7, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "date is required")

	_, err = r.Resolve(context.Background(), 7, "2025-13-40")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = r.Resolve(context.Background(), 0, "2025-03-11")
	assert.ErrorIs(t, err, domain.ErrValidation)

	ledger.AssertNotCalled(t, "BlockingForDay")
}

func TestResolve_StorageError(t *testing.T) {
	ledger := new(MockLedger)
	ledger.On("BlockingForDay", context.Background(), int64(7), "2025-03-11").
		Return(nil, domain.StorageError(errors.New("connection reset")))

	_, err := NewAvailabilityResolver(ledger, fixedClock()).Resolve(context.Background(), 7, "2025-03-11")
	assert.ErrorIs(t, err, domain.ErrStorage)
}
