package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"bisect/internal/config"
)

// app — общее состояние команд, заполняется в PersistentPreRunE
type app struct {
	configPath string
	logLevel   string

	cfg config.Config
	log *slog.Logger
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "bisect",
		Short: "Поиск корня функции методом бисекции",
		Long: `bisect находит корень непрерывной функции на отрезке, где она меняет знак,
деля отрезок пополам, пока значение в середине не станет точно нулём.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			level, err := config.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("BISECT_CONFIG"), "путь к .toml/.yaml конфигурации")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "уровень логирования (debug, info, warn, error)")

	root.AddCommand(
		newSolveCmd(a),
		newDemoCmd(a),
		newProblemsCmd(a),
		newServeCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
