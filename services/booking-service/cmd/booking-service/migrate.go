package main

import (
	"fmt"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := config.RequiredString("DATABASE_URL")
			if err != nil {
				return err
			}
			pool, err := db.Open(cmd.Context(), url, db.PoolConfig{MaxConns: 2})
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			pg := storage.NewPostgres(pool)
			defer pg.Close()

			if err := pg.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}
