package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			database, err := connectPostgres(context.Background(), cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			return database.Migrate()
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			database, err := connectPostgres(context.Background(), cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.MigrateDown(steps); err != nil {
				return err
			}
			logger.Info("rolled back migrations", "steps", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}
