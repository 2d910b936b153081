package main

import (
	"context"
	"fmt"

	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/database/db_client"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, _ := cmd.Flags().GetString("dsn")
			cfg := config.Load()
			if dsn == "" {
				dsn = cfg.PostgreSQL.DSN()
			}

			db, err := db_client.ConnectDSN(dsn, cfg.PostgreSQL.MaxConnAttempts)
			if err != nil {
				return err
			}
			defer db.Close()

			if err = db_client.Migrate(context.Background(), db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Println("Schema is up to date")
			return nil
		},
	}

	cmd.Flags().String("dsn", "", "Database DSN (defaults to the DB_* environment)")

	return cmd
}
