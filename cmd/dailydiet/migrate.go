package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/daily-diet/internal/repository/sqlite"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(a, func(db *sqlite.DB) error {
					if err := db.MigrateUp(); err != nil {
						return err
					}
					a.logger.Info("migrations applied", slog.String("database", a.cfg.DBPath))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration (drops all data)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(a, func(db *sqlite.DB) error {
					if err := db.MigrateDown(); err != nil {
						return err
					}
					a.logger.Info("migrations rolled back", slog.String("database", a.cfg.DBPath))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(a, func(db *sqlite.DB) error {
					version, dirty, ok, err := db.MigrationVersion()
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
					return nil
				})
			},
		},
	)

	return cmd
}

// withDB opens the database without migrating it, runs fn and closes it.
func withDB(a *app, fn func(*sqlite.DB) error) error {
	db, err := sqlite.Open(a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}
