package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cleanbook/internal/config"
	"cleanbook/internal/domain"
	jwtsvc "cleanbook/internal/pkg/jwt"
)

// newTokenCmd issues a bearer token for local testing against the API.
func newTokenCmd() *cobra.Command {
	var (
		userID int64
		role   string
	)

	c := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if config.IsProdLike(cfg.AppEnv) {
				return fmt.Errorf("token issuing is disabled in %s", cfg.AppEnv)
			}
			if userID <= 0 {
				return fmt.Errorf("--user must be positive")
			}
			r := domain.UserRole(role)
			if r != domain.RoleClient && r != domain.RoleAdmin {
				return fmt.Errorf("--role must be client or admin")
			}

			token, err := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL).GenerateToken(userID, role)
			if err != nil {
				return err
			}
			cmd.Println(token)
			return nil
		},
	}

	c.Flags().Int64Var(&userID, "user", 0, "user id")
	c.Flags().StringVar(&role, "role", string(domain.RoleClient), "client or admin")
	return c
}
