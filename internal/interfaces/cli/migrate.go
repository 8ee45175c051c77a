package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dealershipai/visibility-engine/internal/infrastructure/database/postgres"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
)

func newMigrateCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log, err := logging.NewLogger(logging.Config{Level: opts.LogLevel, Format: "console"})
			if err != nil {
				return err
			}

			conn, err := postgres.NewConnection(cfg.Database, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.RunMigrations(); err != nil {
				return err
			}
			fmt.Println("Migrations applied")
			return nil
		},
	}
}
