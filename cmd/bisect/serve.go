package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bisect/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if addr != "" {
				cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.ListenAndServe(ctx, cfg, a.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "адрес (по умолчанию из конфигурации)")
	return cmd
}
