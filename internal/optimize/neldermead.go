package optimize

import (
	"math"
	"sort"
)

// NMOptions configures the bounded Nelder-Mead polish.
type NMOptions struct {
	MaxIter int     // simplex steps; 0 means 200 per coordinate
	XAtol   float64 // absolute simplex diameter for termination
	FAtol   float64 // absolute function spread for termination
}

// DefaultNMOptions matches the usual simplex tolerances.
func DefaultNMOptions() NMOptions {
	return NMOptions{XAtol: 1e-4, FAtol: 1e-4}
}

// NelderMead minimizes f from x0 with a downhill simplex whose
// candidate points are projected into the bounds before evaluation.
// The gradient-free polish suits the Monte Carlo objectives here:
// their common-random-number seeding makes them deterministic but
// only piecewise smooth, which line-search methods handle poorly.
func NelderMead(f func([]float64) float64, x0 []float64, bounds [][2]float64, opts NMOptions) Result {
	dims := len(x0)
	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = 200 * dims
	}

	project := func(x []float64) []float64 {
		for j, b := range bounds {
			x[j] = clamp(x[j], b[0], b[1])
		}
		return x
	}

	// Initial simplex: x0 plus one vertex per coordinate, stepped by 5%
	// of the coordinate range, reflected inward at the upper bound.
	simplex := make([][]float64, dims+1)
	values := make([]float64, dims+1)
	simplex[0] = project(append([]float64(nil), x0...))
	for j := 0; j < dims; j++ {
		vertex := append([]float64(nil), simplex[0]...)
		step := 0.05 * (bounds[j][1] - bounds[j][0])
		if vertex[j]+step > bounds[j][1] {
			vertex[j] -= step
		} else {
			vertex[j] += step
		}
		simplex[j+1] = project(vertex)
	}
	evals := 0
	for i, vertex := range simplex {
		values[i] = f(vertex)
		evals++
	}

	order := func() {
		idx := make([]int, dims+1)
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })
		newSimplex := make([][]float64, dims+1)
		newValues := make([]float64, dims+1)
		for i, k := range idx {
			newSimplex[i] = simplex[k]
			newValues[i] = values[k]
		}
		simplex, values = newSimplex, newValues
	}
	order()

	result := Result{Message: "maximum simplex steps reached"}
	for iter := 1; iter <= maxIter; iter++ {
		result.Iterations = iter

		// Termination on simplex collapse.
		maxCoordSpread, maxValueSpread := 0.0, 0.0
		for i := 1; i <= dims; i++ {
			for j := 0; j < dims; j++ {
				maxCoordSpread = math.Max(maxCoordSpread, math.Abs(simplex[i][j]-simplex[0][j]))
			}
			maxValueSpread = math.Max(maxValueSpread, math.Abs(values[i]-values[0]))
		}
		if maxCoordSpread <= opts.XAtol && maxValueSpread <= opts.FAtol {
			result.Converged = true
			result.Message = "simplex collapsed within tolerance"
			break
		}

		// Centroid of all vertices except the worst.
		centroid := make([]float64, dims)
		for i := 0; i < dims; i++ {
			for j := 0; j < dims; j++ {
				centroid[j] += simplex[i][j] / float64(dims)
			}
		}
		worst := simplex[dims]

		move := func(coeff float64) ([]float64, float64) {
			x := make([]float64, dims)
			for j := 0; j < dims; j++ {
				x[j] = centroid[j] + coeff*(centroid[j]-worst[j])
			}
			project(x)
			evals++
			return x, f(x)
		}

		reflected, fr := move(1)
		switch {
		case fr < values[0]:
			expanded, fe := move(2)
			if fe < fr {
				simplex[dims], values[dims] = expanded, fe
			} else {
				simplex[dims], values[dims] = reflected, fr
			}
		case fr < values[dims-1]:
			simplex[dims], values[dims] = reflected, fr
		default:
			var contracted []float64
			var fc float64
			if fr < values[dims] {
				contracted, fc = move(0.5)
				if fc > fr {
					contracted, fc = nil, 0
				}
			} else {
				contracted, fc = move(-0.5)
				if fc >= values[dims] {
					contracted, fc = nil, 0
				}
			}
			if contracted != nil {
				simplex[dims], values[dims] = contracted, fc
			} else {
				// Shrink toward the best vertex.
				for i := 1; i <= dims; i++ {
					for j := 0; j < dims; j++ {
						simplex[i][j] = simplex[0][j] + 0.5*(simplex[i][j]-simplex[0][j])
					}
					values[i] = f(simplex[i])
					evals++
				}
			}
		}
		order()
	}

	result.X = simplex[0]
	result.Fun = values[0]
	result.FuncEvals = evals
	return result
}
