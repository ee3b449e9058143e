package main

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newProblemsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "problems",
		Short: "Список задач из конфигурации",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("name", "f(x)", "x0", "x1", "eps")
			for _, name := range a.cfg.ProblemNames() {
				p, err := a.cfg.Problem(name)
				if err != nil {
					return err
				}
				t.Row(name, p.Func,
					strconv.FormatFloat(p.X0, 'g', -1, 64),
					strconv.FormatFloat(p.X1, 'g', -1, 64),
					strconv.FormatFloat(p.Eps, 'g', -1, 64),
				)
			}
			_, err := cmd.OutOrStdout().Write([]byte(t.Render() + "\n"))
			return err
		},
	}
}
