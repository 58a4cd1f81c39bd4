package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/calcoz/internal/migrations"
	"github.com/Simplici0/calcoz/internal/seed"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()

			version, err := migrations.Version(cmd.Context(), database)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database %s at version %d\n", a.cfg.DBPath, version)
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the starter templates into an empty template library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()

			stats, err := seed.Run(cmd.Context(), database, seed.DefaultStarters())
			if err != nil {
				return err
			}
			a.logger.Debug("seed finished", zap.Int("inserted", stats.Inserts), zap.Int("skipped", stats.Skipped))
			if stats.Inserts == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "template library is not empty, no starter templates inserted")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "starter templates: %d inserted\n", stats.Inserts)
			return nil
		},
	}
}
