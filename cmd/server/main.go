package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bisect/internal/config"
	"bisect/internal/server"
)

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd — только HTTP API, без подкоманд bisect
func newRootCmd(out io.Writer) *cobra.Command {
	var configPath, addr string

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "HTTP API метода бисекции",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("некорректная конфигурация: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}

			level, _ := config.ParseLevel(cfg.LogLevel)
			log := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := server.ListenAndServe(ctx, cfg, log); err != nil {
				log.Error("ошибка сервера", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("BISECT_CONFIG"), "путь к .toml/.yaml конфигурации")
	cmd.Flags().StringVar(&addr, "addr", "", "адрес (по умолчанию из конфигурации)")
	return cmd
}
