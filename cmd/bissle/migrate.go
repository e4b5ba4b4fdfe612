package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, database, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			logger.Info().Str("driver", cfg.DB.Driver).Msg("migrations complete")
			return nil
		},
	}
}
