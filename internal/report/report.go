// Package report — вывод хода бисекции и таблиц трассы.
// Все числа печатаются с 16 знаками после запятой.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"bisect/internal/solver"
)

const digits = 16

var ErrUnknownFormat = errors.New("report: unknown format")

// Formats — форматы, которые понимает Write
var Formats = []string{"latex", "csv", "md", "html", "table"}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', digits, 64)
}

// ProgressLine — строка прогресса по середине отрезка
func ProgressLine(it solver.Iter) string {
	return fmt.Sprintf("Step: %d, x2 = % .16f and f(x2) = %.16f", it.K, it.XMid, it.FXMid)
}

// RootLine — итоговая оценка корня
func RootLine(root float64) string {
	return fmt.Sprintf("Required Root is: % .16f", root)
}

// LaTeX — трасса в окружении tabular с колонкой индекса
func LaTeX(trace []solver.Step) string {
	var b strings.Builder
	b.WriteString("\\begin{tabular}{lrr}\n")
	b.WriteString(" & x & f(x) \\\\\n")
	for _, s := range trace {
		fmt.Fprintf(&b, "%d & %s & %s \\\\\n", s.K, num(s.X), num(s.FX))
	}
	b.WriteString("\\end{tabular}\n")
	return b.String()
}

// CSV — трасса с заголовком k,x,f(x)
func CSV(w io.Writer, trace []solver.Step) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"k", "x", "f(x)"}); err != nil {
		return err
	}
	for _, s := range trace {
		if err := cw.Write([]string{strconv.Itoa(s.K), num(s.X), num(s.FX)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Markdown — таблица GFM
func Markdown(trace []solver.Step) string {
	var b strings.Builder
	b.WriteString("| k | x | f(x) |\n")
	b.WriteString("|--:|--:|--:|\n")
	for _, s := range trace {
		fmt.Fprintf(&b, "| %d | %s | %s |\n", s.K, num(s.X), num(s.FX))
	}
	return b.String()
}

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML — markdown-таблица, отрендеренная goldmark
func HTML(trace []solver.Step) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(trace)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)

// Terminal — таблица с рамкой для терминала
func Terminal(trace []solver.Step) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("k", "x", "f(x)").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, s := range trace {
		t.Row(strconv.Itoa(s.K), num(s.X), num(s.FX))
	}
	return t.Render() + "\n"
}

// ContentType — MIME-тип для выдачи по HTTP
func ContentType(format string) string {
	switch format {
	case "csv":
		return "text/csv; charset=utf-8"
	case "html":
		return "text/html; charset=utf-8"
	case "md":
		return "text/markdown; charset=utf-8"
	case "latex":
		return "application/x-latex; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func Extension(format string) string {
	switch format {
	case "latex":
		return "tex"
	case "table":
		return "txt"
	default:
		return format
	}
}

// Write выводит трассу в указанном формате
func Write(w io.Writer, format string, trace []solver.Step) error {
	var out string
	switch format {
	case "latex":
		out = LaTeX(trace)
	case "csv":
		return CSV(w, trace)
	case "md":
		out = Markdown(trace)
	case "html":
		h, err := HTML(trace)
		if err != nil {
			return err
		}
		out = h
	case "table":
		out = Terminal(trace)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	_, err := io.WriteString(w, out)
	return err
}
