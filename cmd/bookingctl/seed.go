package main

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"cleanbook/internal/domain"
	"cleanbook/internal/modules/booking"
	"cleanbook/internal/notification"
	"cleanbook/internal/repository"
)

// newSeedCmd fills the ledger with demo reservations through the booking
// service, so every seeded row went through the same checks as real traffic.
func newSeedCmd() *cobra.Command {
	var (
		services int
		days     int
		perDay   int
	)

	c := &cobra.Command{
		Use:   "seed",
		Short: "Create demo reservations for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			if services < 0 || days < 0 || perDay < 0 {
				return fmt.Errorf("--services, --days and --per-day must not be negative")
			}
			cfg, db, err := openDB()
			if err != nil {
				return err
			}

			clock := booking.SystemClock(cfg.Location)
			svc := booking.NewService(repository.NewReservationRepository(db), notification.NewLogNotifier(), nil, clock)
			admin := domain.Principal{ID: 1, Role: domain.RoleAdmin}
			grid := booking.GenerateSlots(0)
			start := clock.Now().In(cfg.Location).AddDate(0, 0, 1)

			created, skipped := 0, 0
			for s := 1; s <= services; s++ {
				for d := 0; d < days; d++ {
					date := start.AddDate(0, 0, d).Format(domain.DateLayout)
					for _, i := range rand.Perm(len(grid))[:min(perDay, len(grid))] {
						_, err := svc.Reserve(cmd.Context(), admin, booking.ReserveRequest{
							ServiceID:     int64(s),
							Date:          date,
							Time:          grid[i],
							UserID:        int64(100 + rand.Intn(20)),
							Amount:        float64(5000 + 500*rand.Intn(10)),
							PaymentMethod: "card",
							Address:       fmt.Sprintf("%d Demo Street", 1+rand.Intn(200)),
						})
						if _, ok := domain.IsConflict(err); ok {
							skipped++
							continue
						}
						if err != nil && !errors.Is(err, domain.ErrValidation) {
							return err
						}
						if err == nil {
							created++
						}
					}
				}
			}

			cmd.Printf("seeded %d reservation(s), %d slot(s) already taken, at %s\n", created, skipped, time.Now().Format(time.RFC3339))
			return nil
		},
	}

	c.Flags().IntVar(&services, "services", 3, "number of services")
	c.Flags().IntVar(&days, "days", 7, "number of days starting tomorrow")
	c.Flags().IntVar(&perDay, "per-day", 5, "reservations per service day")
	return c
}
