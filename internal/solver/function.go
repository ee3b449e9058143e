package solver

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// Func — функция одной переменной f(x)
type Func interface {
	Eval(x float64) (float64, error)
}

// FuncOf оборачивает обычную функцию Go в Func
type FuncOf func(float64) float64

func (f FuncOf) Eval(x float64) (float64, error) {
	return f(x), nil
}

// exprFunc — Func на основе выражения govaluate.
// Не потокобезопасна: на каждый запуск создаётся своя.
type exprFunc struct {
	src    string
	expr   *govaluate.EvaluableExpression
	params map[string]interface{}
}

var builtins = map[string]govaluate.ExpressionFunction{
	"sin":  unary(math.Sin),
	"cos":  unary(math.Cos),
	"tan":  unary(math.Tan),
	"exp":  unary(math.Exp),
	"log":  unary(math.Log),
	"sqrt": unary(math.Sqrt),
	"abs":  unary(math.Abs),
	"pow": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow: ожидалось 2 аргумента, получено %d", len(args))
		}
		base, err := toFloat(args[0])
		if err != nil {
			return nil, fmt.Errorf("pow: %w", err)
		}
		exp, err := toFloat(args[1])
		if err != nil {
			return nil, fmt.Errorf("pow: %w", err)
		}
		return math.Pow(base, exp), nil
	},
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("ожидался 1 аргумент, получено %d", len(args))
		}
		v, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		return fn(v), nil
	}
}

var (
	// 2,5 -> 2.5; применяется, только если выражение не разобралось как есть
	decimalComma = regexp.MustCompile(`(\d),(\d)`)
	// 1e-3 -> 0.001: лексер govaluate не знает экспоненциальной записи
	sciNumber = regexp.MustCompile(`(^|[^\w.])(\d+(?:\.\d*)?[eE][+-]?\d+)`)
)

func expandSci(s string) string {
	return sciNumber.ReplaceAllStringFunc(s, func(m string) string {
		sub := sciNumber.FindStringSubmatch(m)
		v, err := strconv.ParseFloat(sub[2], 64)
		if err != nil {
			return m
		}
		return sub[1] + strconv.FormatFloat(v, 'f', -1, 64)
	})
}

// NewEvalFunc разбирает выражение от x, например "cos(x) - x".
// Доступны константы pi и e, функции sin cos tan exp log sqrt abs pow.
// Числа вида 1e-3 допустимы; десятичная запятая (2,5) понимается,
// только если без неё выражение некорректно: pow(2,3) — это 2 в кубе.
func NewEvalFunc(expr string) (Func, error) {
	src := strings.TrimSpace(expr)
	if src == "" {
		return nil, fmt.Errorf("пустое выражение")
	}

	f, err := compile(src, expandSci(src))
	if err == nil {
		return f, nil
	}
	if alt := decimalComma.ReplaceAllString(src, "$1.$2"); alt != src {
		if f, altErr := compile(src, expandSci(alt)); altErr == nil {
			return f, nil
		}
	}
	return nil, err
}

func compile(src, normalized string) (*exprFunc, error) {
	parsed, err := govaluate.NewEvaluableExpressionWithFunctions(normalized, builtins)
	if err != nil {
		return nil, err
	}

	f := &exprFunc{
		src:  src,
		expr: parsed,
		params: map[string]interface{}{
			"x":  0.0,
			"pi": math.Pi,
			"e":  math.E,
		},
	}
	// пробное вычисление ловит неизвестные переменные и нечисловой результат
	if _, err := f.Eval(0); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *exprFunc) String() string { return f.src }

func (f *exprFunc) Eval(x float64) (float64, error) {
	f.params["x"] = x
	v, err := f.expr.Evaluate(f.params)
	if err != nil {
		return math.NaN(), err
	}
	out, err := toFloat(v)
	if err != nil {
		return math.NaN(), fmt.Errorf("выражение %q: %w", f.src, err)
	}
	return out, nil
}

// toFloat приводит значение govaluate к float64; строки и прочее — ошибка
func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return math.NaN(), fmt.Errorf("ожидалось число, получено %T (%v)", v, v)
	}
}
