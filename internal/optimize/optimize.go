// Package optimize provides the global search machinery behind the
// investment-stage equilibrium: a seeded differential evolution solver
// with binomial crossover, a bounded Nelder-Mead simplex used as the
// polishing step, and a central-difference gradient for stationarity
// diagnostics. Objectives are plain func([]float64) float64 values;
// infeasible points signal themselves by returning +Inf.
package optimize

import (
	"fmt"
	"math"
)

// Problem is a bound-constrained minimization problem.
type Problem struct {
	// Objective returns the value to minimize. +Inf marks an
	// infeasible point and is handled by selection, never averaged.
	Objective func(x []float64) float64

	// Bounds holds [lower, upper] per coordinate.
	Bounds [][2]float64
}

func (p Problem) validate() error {
	if p.Objective == nil {
		return fmt.Errorf("objective function is required")
	}
	if len(p.Bounds) == 0 {
		return fmt.Errorf("at least one bounded coordinate is required")
	}
	for i, b := range p.Bounds {
		if !(b[0] < b[1]) {
			return fmt.Errorf("bounds for coordinate %d must satisfy lower < upper, got [%g, %g]", i, b[0], b[1])
		}
	}
	return nil
}

// Result reports the outcome of a solver run.
type Result struct {
	X          []float64 // best point found
	Fun        float64   // objective at X
	Iterations int       // generations (DE) or simplex steps (NM)
	FuncEvals  int       // objective evaluations, polishing included
	Converged  bool
	Message    string
	Jac        []float64 // optional gradient, filled by the caller
}

// Gradient estimates ∇f at x by central differences with step h.
// The equilibrium objectives reseed their sampler on every call, so
// they are deterministic in x and safe to difference.
func Gradient(f func([]float64) float64, x []float64, h float64) []float64 {
	grad := make([]float64, len(x))
	probe := make([]float64, len(x))
	copy(probe, x)
	for i := range x {
		probe[i] = x[i] + h
		forward := f(probe)
		probe[i] = x[i] - h
		backward := f(probe)
		probe[i] = x[i]
		grad[i] = (forward - backward) / (2 * h)
	}
	return grad
}

// Norm is the Euclidean length of a gradient vector.
func Norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
