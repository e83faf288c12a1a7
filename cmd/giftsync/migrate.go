package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Kerhoff/GiftSync/internal/config"
	"github.com/Kerhoff/GiftSync/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openDatabase(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Migrate(cfg.MigrationsPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}

			db, cfg, err := openDatabase(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.MigrateDown(cfg.MigrationsPath, steps)
		},
	})

	return cmd
}

func openDatabase(cmd *cobra.Command) (*config.Database, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.UseMemory() {
		return nil, nil, fmt.Errorf("migrations need a Postgres DATABASE_URL")
	}

	l := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	db, err := config.NewDatabase(cmd.Context(), cfg.DatabaseURL, l)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}
