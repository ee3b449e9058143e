package solver

import (
	"errors"
	"fmt"
	"math"
)

// Step — запись трассы: левый конец отрезка и значение функции в нём.
// K = 0 соответствует исходному x0.
type Step struct {
	K  int     `json:"k"`
	X  float64 `json:"x"`
	FX float64 `json:"fx"`
}

// Iter — одна итерация метода бисекции (K с единицы).
// A, B — отрезок после сужения.
type Iter struct {
	K     int     `json:"k"`
	A     float64 `json:"a"`
	B     float64 `json:"b"`
	XMid  float64 `json:"xmid"`
	FXMid float64 `json:"fxmid"`
	Len   float64 `json:"len"`
}

// Result — итог запуска. Root — последняя вычисленная середина.
type Result struct {
	Root       float64 `json:"root"`
	FRoot      float64 `json:"froot"`
	Eps        float64 `json:"eps"`
	Iterations int     `json:"iterations"`
	Trace      []Step  `json:"trace"`
}

var (
	// ErrStopped — принудительная остановка из колбэка
	ErrStopped = errors.New("bisection: stopped by callback")
	// ErrMaxIter — исчерпан лимит итераций, а f(x2) так и не стало нулём
	ErrMaxIter = errors.New("bisection: iteration limit reached")
)

type options struct {
	maxIter int
	onIter  func(Iter) error
}

// Option настраивает Bisection
type Option func(*options)

// WithMaxIter ограничивает число итераций; n <= 0 — без ограничения.
func WithMaxIter(n int) Option {
	return func(o *options) { o.maxIter = n }
}

// WithProgress задаёт колбэк, вызываемый после каждой итерации.
// Если он вернёт ErrStopped, алгоритм прерывается.
func WithProgress(fn func(Iter) error) Option {
	return func(o *options) { o.onIter = fn }
}

// Bisection ищет корень f на отрезке [x0, x1].
//
// Знаки f(x0) и f(x1) должны различаться; это не проверяется (см. CheckBracket).
// Цикл идёт, пока |f(x2)| > 0, то есть до точного нуля в середине.
// Допуск e в условии остановки не участвует и лишь сохраняется в Result.
//
// При ошибке возвращается частичный результат.
func Bisection(f Func, x0, x1, e float64, opts ...Option) (Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	res := Result{Eps: e}

	fx0, err := f.Eval(x0)
	if err != nil {
		return res, fmt.Errorf("f(%g): %w", x0, err)
	}
	trace := []Step{{K: 0, X: x0, FX: fx0}}
	res.Trace = trace

	for k := 1; ; k++ {
		if o.maxIter > 0 && k > o.maxIter {
			return res, ErrMaxIter
		}

		x2 := (x0 + x1) / 2
		fx2, err := f.Eval(x2)
		if err != nil {
			return res, fmt.Errorf("f(%g): %w", x2, err)
		}

		if fx0*fx2 < 0 {
			x1 = x2
		} else {
			x0, fx0 = x2, fx2
		}

		trace = append(trace, Step{K: k, X: x0, FX: fx0})
		res.Root, res.FRoot = x2, fx2
		res.Iterations = k
		res.Trace = trace

		if o.onIter != nil {
			it := Iter{
				K:     k,
				A:     x0,
				B:     x1,
				XMid:  x2,
				FXMid: fx2,
				Len:   x1 - x0,
			}
			if err := o.onIter(it); err != nil {
				return res, err
			}
		}

		if !(math.Abs(fx2) > 0) {
			return res, nil
		}
	}
}
