package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/calories/internal/storage/sqlstore"
)

func newMigrateCommand(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long:  "Apply pending schema migrations to the configured database. The server also migrates on start.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := sqlstore.New(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Database schema is up to date (%s)\n", store.Dialect())
			return nil
		},
	}
}
