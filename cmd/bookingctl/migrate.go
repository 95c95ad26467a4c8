package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := openDB(); err != nil {
				return err
			}
			cmd.Println("migrations up to date")
			return nil
		},
	}
}
