// Package fixedpoint solves scalar fixed-point equations x = f(x) by
// successive approximation.
package fixedpoint

import (
	"fmt"
	"log/slog"
	"math"
)

// Default convergence settings for the intercept solve.
const (
	DefaultTol     = 1e-6
	DefaultMaxIter = 100
)

// Solve iterates x ← f(x) from x0 until the step |f(x)−x| drops below
// tol or maxIter is exhausted. Returns the last iterate, the number of
// iterations performed, and whether the tolerance was met. A contraction
// mapping is guaranteed to converge; anything else may not, and the
// non-convergent exit is logged at warn level.
func Solve(f func(float64) float64, x0, tol float64, maxIter int) (float64, int, bool) {
	x := x0
	residual := math.Inf(1)
	for iter := 0; iter < maxIter; iter++ {
		next := f(x)
		residual = math.Abs(next - x)
		if residual < tol {
			return next, iter + 1, true
		}
		x = next
	}
	slog.Warn("fixed-point iteration did not converge",
		"iterations", maxIter,
		"residual", residual)
	return x, maxIter, false
}

// SolveRelaxed damps the iteration with x ← θ·f(x) + (1−θ)·x. Useful
// when the plain map oscillates; θ=1 recovers Solve. θ outside (0,1]
// is a caller error.
func SolveRelaxed(f func(float64) float64, x0, theta, tol float64, maxIter int) (float64, int, bool, error) {
	if theta <= 0 || theta > 1 {
		return 0, 0, false, fmt.Errorf("relaxation parameter must be in (0,1], got %g", theta)
	}

	x := x0
	residual := math.Inf(1)
	for iter := 0; iter < maxIter; iter++ {
		next := theta*f(x) + (1-theta)*x
		residual = math.Abs(next - x)
		if residual < tol {
			return next, iter + 1, true, nil
		}
		x = next
	}
	slog.Warn("relaxed fixed-point iteration did not converge",
		"theta", theta,
		"iterations", maxIter,
		"residual", residual)
	return x, maxIter, false, nil
}
