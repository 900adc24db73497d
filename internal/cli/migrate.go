package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"eventlottery/config"
	"eventlottery/internal/repository/postgres"
)

// NewMigrateCommand applies the embedded PostgreSQL schema.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the lottery tables in PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				return fmt.Errorf("migrate needs STORE=%s, got %q", config.StorePostgres, cfg.Store)
			}
			db, err := openDB(cmd.Context(), cfg.DBUrl)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("schema applied")
			return nil
		},
	}
}
