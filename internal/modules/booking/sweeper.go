package booking

import (
	"context"
	"log"
	"time"

	"cleanbook/internal/domain"
)

// Sweeper expires pending reservations whose slot has already started.
type Sweeper struct {
	store ExpiryStore
	clock Clock
}

func NewSweeper(store ExpiryStore, clock Clock) *Sweeper {
	return &Sweeper{store: store, clock: clock}
}

// Sweep runs one expiry pass and returns how many reservations it expired.
// A failure on one reservation is logged and does not stop the pass.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.clock.now()

	due, err := s.store.PendingDueBy(ctx, now.Format(domain.DateLayout))
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		r := &due[i]
		at, err := r.ScheduledAt(s.clock.location())
		if err != nil {
			log.Printf("sweep_skip reservation_id=%d date=%s time=%s error=%v", r.ID, r.Date, r.Time, err)
			continue
		}
		if !at.Before(now) {
			continue
		}

		ok, err := s.store.Expire(ctx, r.ID, now)
		if err != nil {
			log.Printf("sweep_expire_failed reservation_id=%d error=%v", r.ID, err)
			continue
		}
		if ok {
			expired++
		}
	}

	return expired, nil
}

type SweepConfig struct {
	Interval time.Duration
	Enabled  bool
}

// Schedule starts a goroutine that sweeps every cfg.Interval until ctx is done
// or the returned channel is closed. It returns nil when sweeping is disabled.
func (s *Sweeper) Schedule(ctx context.Context, cfg SweepConfig) chan struct{} {
	if !cfg.Enabled {
		log.Println("Scheduled sweep is disabled")
		return nil
	}

	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				start := time.Now()
				n, err := s.Sweep(ctx)
				if err != nil {
					log.Printf("sweep_failed error=%v", err)
					continue
				}
				if n > 0 {
					log.Printf("sweep_completed expired=%d duration=%s", n, time.Since(start))
				}
			case <-stopCh:
				log.Println("Scheduled sweep stopped")
				return
			case <-ctx.Done():
				log.Println("Scheduled sweep stopped (context done)")
				return
			}
		}
	}()

	log.Printf("Scheduled sweep started with interval %v", cfg.Interval)
	return stopCh
}
