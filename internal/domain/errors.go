package domain

import (
	"errors"
	"fmt"
)

// ErrStability marks parameter regions where the Stage 4 pricing
// equilibrium breaks down. Solvers treat such points as infeasible;
// the error always propagates, it is never absorbed by clamping.
var ErrStability = errors.New("equilibrium stability condition violated")

// StabilityError reports which stability condition failed and the value
// that violated it. It wraps ErrStability for errors.Is matching.
type StabilityError struct {
	Condition string  // "B_rho_kappa" or "denominator_a"
	Value     float64 // offending value
	Detail    string  // violated inequality in words
}

func (e *StabilityError) Error() string {
	return fmt.Sprintf("%s, got %.6e", e.Detail, e.Value)
}

func (e *StabilityError) Unwrap() error { return ErrStability }

// ValidationError reports a violated parameter constraint together with
// the snake_case key of the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
