package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariefcatur/go-order-catalog/internal/config"
	"github.com/ariefcatur/go-order-catalog/internal/logger"
	"github.com/ariefcatur/go-order-catalog/internal/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the products, orders and order_events tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.AppEnv, cfg.LogLevel)

			db, err := postgres.Connect(cmd.Context(), cfg.PostgresDSN, cfg.PostgresMaxConns)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info("schema up to date")
			return nil
		},
	}
}
