package main

import (
	"github.com/spf13/cobra"

	"cleanbook/internal/modules/booking"
	"cleanbook/internal/repository"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire pending reservations whose slot has started",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}

			sweeper := booking.NewSweeper(repository.NewReservationRepository(db), booking.SystemClock(cfg.Location))
			n, err := sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("expired %d reservation(s)\n", n)
			return nil
		},
	}
}
