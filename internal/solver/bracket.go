package solver

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBracket = errors.New("bisection: x0 == x1")
	ErrNoSignChange = errors.New("bisection: f(x0) and f(x1) have the same sign")
)

// CheckBracket проверяет, что на концах отрезка функция меняет знак.
// Точный ноль на конце допускается.
func CheckBracket(f Func, x0, x1 float64) error {
	if x0 == x1 {
		return ErrEmptyBracket
	}
	fx0, err := f.Eval(x0)
	if err != nil {
		return fmt.Errorf("f(%g): %w", x0, err)
	}
	fx1, err := f.Eval(x1)
	if err != nil {
		return fmt.Errorf("f(%g): %w", x1, err)
	}
	if fx0 == 0 || fx1 == 0 {
		return nil
	}
	if !(fx0*fx1 < 0) {
		return fmt.Errorf("%w: f(%g) = %g, f(%g) = %g", ErrNoSignChange, x0, fx0, x1, fx1)
	}
	return nil
}
