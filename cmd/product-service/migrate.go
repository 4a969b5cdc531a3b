package main

import (
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db := postgres.MustInitDB(a.cfg)
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}()
			return migrate.RunMigrations(db, a.log)
		},
	}
}
