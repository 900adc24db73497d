package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"eventlottery/internal/adapters/auth"
	"eventlottery/internal/domain"
)

// NewTokenCommand issues a bearer token signed with JWT_SECRET.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		organizer bool
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <entrant-id>",
		Short: "Issue an API bearer token for an entrant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.setup()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is required to issue tokens")
			}
			var roles []string
			if organizer {
				roles = append(roles, domain.RoleOrganizer)
			}
			tok, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(args[0], roles, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().BoolVar(&organizer, "organizer", false, "grant the organizer role")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
