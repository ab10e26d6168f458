package main

import (
	"github.com/spf13/cobra"

	"ChanSentinel/internal/api"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			srv, err := api.NewServer(api.Config{
				Addr:      a.cfg.Server.Addr,
				Engine:    a.eng,
				Simulator: a.sim,
				Defaults:  a.cfg.Simulator.Params,
			})
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to config server.addr)")
	return cmd
}
