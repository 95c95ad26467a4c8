package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cleanbook/internal/domain"
)

type MockExpiryStore struct {
	mock.Mock
}

func (m *MockExpiryStore) PendingDueBy(ctx context.Context, date string) ([]domain.Reservation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockExpiryStore) Expire(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func TestSweep_ExpiresOnlyStartedSlots(t *testing.T) {
	store := new(MockExpiryStore)
	clock := fixedClock()
	ctx := context.Background()

	store.On("PendingDueBy", ctx, "2025-03-10").Return([]domain.Reservation{
		{ID: 1, Date: "2020-01-01", Time: "08:00"},
		{ID: 2, Date: "2025-03-10", Time: "11:00"},
		{ID: 3, Date: "2025-03-10", Time: "11:30"},
		{ID: 4, Date: "2025-03-10", Time: "11:15"},
	}, nil)
	store.On("Expire", ctx, int64(1), clock.now()).Return(true, nil)
	store.On("Expire", ctx, int64(2), clock.now()).Return(true, nil)

	n, err := NewSweeper(store, clock).Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	store.AssertNotCalled(t, "Expire", ctx, int64(3), mock.Anything)
	store.AssertNotCalled(t, "Expire", ctx, int64(4), mock.Anything)
}

func TestSweep_ContinuesPastRowFailures(t *testing.T) {
	store := new(MockExpiryStore)
	ctx := context.Background()

	store.On("PendingDueBy", ctx, "2025-03-10").Return([]domain.Reservation{
		{ID: 1, Date: "2025-03-01", Time: "08:00"},
		{ID: 2, Date: "2025-03-02", Time: "08:00"},
		{ID: 3, Date: "2025-03-03", Time: "08:00"},
	}, nil)
	store.On("Expire", ctx, int64(1), mock.Anything).Return(false, domain.StorageError(errors.New("locked")))
	store.On("Expire", ctx, int64(2), mock.Anything).Return(false, nil)
	store.On("Expire", ctx, int64(3), mock.Anything).Return(true, nil)

	n, err := NewSweeper(store, fixedClock()).Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	store.AssertNumberOfCalls(t, "Expire", 3)
}

func TestSweep_ReadFailure(t *testing.T) {
	store := new(MockExpiryStore)
	store.On("PendingDueBy", mock.Anything, mock.Anything).Return(nil, domain.StorageError(errors.New("down")))

	_, err := NewSweeper(store, fixedClock()).Sweep(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestSchedule_DisabledReturnsNil(t *testing.T) {
	s := NewSweeper(new(MockExpiryStore), fixedClock())
	assert.Nil(t, s.Schedule(context.Background(), SweepConfig{Enabled: false, Interval: time.Second}))
}

func TestSchedule_RunsUntilStopped(t *testing.T) {
	store := new(MockExpiryStore)
	swept := make(chan struct{}, 1)
	store.On("PendingDueBy", mock.Anything, "2025-03-10").
		Run(func(mock.Arguments) {
			select {
			case swept <- struct{}{}:
			default:
			}
		}).
		Return([]domain.Reservation{}, nil)

	stop := NewSweeper(store, fixedClock()).Schedule(context.Background(), SweepConfig{Enabled: true, Interval: 10 * time.Millisecond})
	require.NotNil(t, stop)
	defer close(stop)

	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("sweep did not run")
	}
}
