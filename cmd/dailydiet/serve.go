package main

import (
	"github.com/spf13/cobra"

	"github.com/sakif/daily-diet/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}

			srv, err := server.New(a.cfg, a.logger)
			if err != nil {
				return err
			}
			// Blocks until SIGINT/SIGTERM.
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides PORT)")
	return cmd
}
