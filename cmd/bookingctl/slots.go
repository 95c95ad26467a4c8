package main

import (
	"strings"

	"github.com/spf13/cobra"

	"cleanbook/internal/modules/booking"
	"cleanbook/internal/repository"
)

func newSlotsCmd() *cobra.Command {
	var (
		serviceID int64
		date      string
	)

	c := &cobra.Command{
		Use:   "slots",
		Short: "Show free and occupied slots of a service day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}

			resolver := booking.NewAvailabilityResolver(repository.NewReservationRepository(db), booking.SystemClock(cfg.Location))
			av, err := resolver.Resolve(cmd.Context(), serviceID, date)
			if err != nil {
				return err
			}

			cmd.Printf("service %d on %s: %d free, %d occupied, %d past\n",
				av.ServiceID, av.Date, len(av.Available), av.OccupiedCount, av.PastCount)
			cmd.Printf("free: %s\n", strings.Join(av.Available, " "))
			for _, o := range av.Occupied {
				cmd.Printf("  %s  #%d  %s\n", o.Time, o.ReservationID, o.Status)
			}
			return nil
		},
	}

	c.Flags().Int64Var(&serviceID, "service", 0, "service id")
	c.Flags().StringVar(&date, "date", "", "day to inspect (YYYY-MM-DD)")
	_ = c.MarkFlagRequired("service")
	_ = c.MarkFlagRequired("date")
	return c
}
