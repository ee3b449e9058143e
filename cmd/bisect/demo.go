package main

import (
	"github.com/spf13/cobra"

	"bisect/internal/config"
)

// demo: cos(x) - x = 0 на [0, pi/4], e = 1e-16, таблица в LaTeX
func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Решить cos(x) = x на [0, π/4] и вывести таблицу LaTeX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := config.Default().Problems[config.DottieName]
			return runSolve(a, cmd.OutOrStdout(), &solveOptions{
				expr:    p.Func,
				x0:      "0",
				x1:      "pi/4",
				eps:     1e-16,
				maxIter: a.cfg.MaxIter,
				format:  "latex",
			})
		},
	}
}
