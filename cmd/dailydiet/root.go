package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/daily-diet/internal/config"
)

// app carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE before any subcommand runs.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var dbPath string

	root := &cobra.Command{
		Use:           "dailydiet",
		Short:         "Diet tracking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}
			a.cfg = cfg
			a.logger = cfg.NewLogger()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", "", "database file (overrides DB_PATH)")

	root.AddCommand(newServeCmd(a), newMigrateCmd(a))
	return root
}
