package main

import (
	"fmt"

	"github.com/hugh/blogit/internal/categories"
	"github.com/hugh/blogit/internal/database"
	"github.com/spf13/cobra"
)

func migrateCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := database.AutoMigrate(current().db.WithContext(cmd.Context())); err != nil {
				return fmt.Errorf("migration: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database migrated")
			return nil
		},
	}
}

func seedCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [category...]",
		Short: "Create the default categories, or the ones given",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			names := args
			if len(names) == 0 {
				names = categories.DefaultNames
			}

			created, err := categories.NewService(a.db, a.logger).Seed(cmd.Context(), names...)
			if err != nil {
				return fmt.Errorf("seeding categories: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d of %d categories\n", created, len(names))
			return nil
		},
	}
}
