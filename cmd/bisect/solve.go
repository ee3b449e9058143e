package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bisect/internal/report"
	"bisect/internal/solver"
)

type solveOptions struct {
	problem string
	expr    string
	x0, x1  string
	eps     float64
	maxIter int
	format  string
	quiet   bool
	noCheck bool
}

func newSolveCmd(a *app) *cobra.Command {
	o := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Найти корень f(x) на отрезке [x0, x1]",
		Example: `  bisect solve --func "cos(x) - x" --x0 0 --x1 "pi/4"
  bisect solve --problem dottie --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.problem != "" {
				p, err := a.cfg.Problem(o.problem)
				if err != nil {
					return err
				}
				o.expr = p.Func
				o.x0 = strconv.FormatFloat(p.X0, 'g', -1, 64)
				o.x1 = strconv.FormatFloat(p.X1, 'g', -1, 64)
				if !cmd.Flags().Changed("eps") {
					o.eps = p.Eps
				}
			}
			if !cmd.Flags().Changed("max-iter") {
				o.maxIter = a.cfg.MaxIter
			}
			if o.eps <= 0 {
				o.eps = a.cfg.DefaultEps
			}
			return runSolve(a, cmd.OutOrStdout(), o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.problem, "problem", "", "имя задачи из конфигурации")
	f.StringVar(&o.expr, "func", "", "выражение f(x), например \"cos(x) - x\"; есть sin cos tan exp log sqrt abs pow, pi, e и запись 1e-3")
	f.StringVar(&o.x0, "x0", "", "левый конец отрезка (число или выражение: pi/4)")
	f.StringVar(&o.x1, "x1", "", "правый конец отрезка")
	f.Float64Var(&o.eps, "eps", 0, "допуск (сохраняется в отчёте; цикл идёт до точного нуля)")
	f.IntVar(&o.maxIter, "max-iter", 0, "предел числа итераций, 0 — без предела")
	f.StringVar(&o.format, "format", "table", "формат таблицы: "+strings.Join(report.Formats, ", "))
	f.BoolVarP(&o.quiet, "quiet", "q", false, "не печатать итерации")
	f.BoolVar(&o.noCheck, "no-check", false, "не проверять смену знака на концах отрезка")
	cmd.MarkFlagsMutuallyExclusive("problem", "func")

	return cmd
}

// parseNumber принимает число или константное выражение (pi/4, 1e-3, 2,5)
func parseNumber(s string) (float64, error) {
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return v, nil
	}
	f, err := solver.NewEvalFunc(s)
	if err != nil {
		return 0, fmt.Errorf("не число: %q: %w", s, err)
	}
	return f.Eval(0)
}

func runSolve(a *app, out io.Writer, o *solveOptions) error {
	if o.expr == "" {
		return errors.New("нужен --func или --problem")
	}
	x0, err := parseNumber(o.x0)
	if err != nil {
		return fmt.Errorf("--x0: %w", err)
	}
	x1, err := parseNumber(o.x1)
	if err != nil {
		return fmt.Errorf("--x1: %w", err)
	}

	f, err := solver.NewEvalFunc(o.expr)
	if err != nil {
		return fmt.Errorf("ошибка в выражении функции: %w", err)
	}
	if !o.noCheck {
		if err := solver.CheckBracket(f, x0, x1); err != nil {
			return err
		}
	}

	opts := []solver.Option{solver.WithMaxIter(o.maxIter)}
	if !o.quiet {
		opts = append(opts, solver.WithProgress(func(it solver.Iter) error {
			_, err := fmt.Fprintln(out, report.ProgressLine(it))
			return err
		}))
	}

	a.log.Debug("решение", "func", o.expr, "x0", x0, "x1", x1, "eps", o.eps, "max_iter", o.maxIter)
	res, err := solver.Bisection(f, x0, x1, o.eps, opts...)
	switch {
	case errors.Is(err, solver.ErrMaxIter):
		a.log.Warn("f(x2) так и не стало точным нулём", "iterations", res.Iterations, "froot", res.FRoot)
	case err != nil:
		return err
	default:
		a.log.Debug("корень найден", "root", res.Root, "iterations", res.Iterations)
	}

	fmt.Fprintf(out, "\n%s\n", report.RootLine(res.Root))
	return report.Write(out, o.format, res.Trace)
}
