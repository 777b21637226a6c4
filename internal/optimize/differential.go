package optimize

import (
	"fmt"
	"math"
	"math/rand/v2"

	"espionage-duopoly-lab/internal/montecarlo"
)

// DEOptions configures DifferentialEvolution. The zero value is not
// usable; start from DefaultDEOptions.
type DEOptions struct {
	PopSizeFactor int     // population members per coordinate
	MaxIter       int     // generation cap
	Tol           float64 // relative energy-spread tolerance
	AbsTol        float64 // absolute energy-spread tolerance
	MutationMin   float64 // dither range for the mutation factor
	MutationMax   float64
	Recombination float64 // binomial crossover probability
	Seed          uint64
	Polish        bool // run a bounded Nelder-Mead pass from the best member

	// OnGeneration, when set, observes the best member after each
	// generation. The slice is a copy; callbacks may retain it.
	OnGeneration func(generation int, best []float64, energy float64)
}

// DefaultDEOptions mirrors the conventional best1bin settings: dithered
// mutation in [0.5, 1), crossover 0.7, population of 15 members per
// coordinate.
func DefaultDEOptions() DEOptions {
	return DEOptions{
		PopSizeFactor: 15,
		MaxIter:       1000,
		Tol:           0.01,
		AbsTol:        0,
		MutationMin:   0.5,
		MutationMax:   1.0,
		Recombination: 0.7,
		Polish:        true,
	}
}

func (o DEOptions) validate() error {
	if o.PopSizeFactor < 1 {
		return fmt.Errorf("population size factor must be at least 1, got %d", o.PopSizeFactor)
	}
	if o.MaxIter < 1 {
		return fmt.Errorf("maximum iterations must be at least 1, got %d", o.MaxIter)
	}
	if o.Recombination < 0 || o.Recombination > 1 {
		return fmt.Errorf("recombination must be in [0, 1], got %g", o.Recombination)
	}
	if o.MutationMin < 0 || o.MutationMax >= 2 || o.MutationMin > o.MutationMax {
		return fmt.Errorf("mutation range must satisfy 0 <= min <= max < 2, got [%g, %g]", o.MutationMin, o.MutationMax)
	}
	return nil
}

// deState keeps the population in unit-cube coordinates; points are
// scaled to the problem bounds only for objective evaluation.
type deState struct {
	problem    Problem
	dims       int
	population [][]float64
	energies   []float64
	evals      int
}

// DifferentialEvolution minimizes the problem with the best/1/bin
// strategy: mutate against the current best member, cross over
// binomially, keep the trial on improvement. The energy spread of the
// population decides convergence, so a run only stops once the whole
// population agrees on the basin.
func DifferentialEvolution(p Problem, opts DEOptions) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	if err := opts.validate(); err != nil {
		return Result{}, err
	}

	rng := montecarlo.NewRand(opts.Seed)
	dims := len(p.Bounds)
	members := opts.PopSizeFactor * dims
	if members < 5 {
		members = 5
	}

	d := &deState{problem: p, dims: dims}
	d.initLatinHypercube(members, rng)
	d.evaluateAll()
	d.promoteBest()

	result := Result{Message: "maximum generations reached"}
	for gen := 1; gen <= opts.MaxIter; gen++ {
		// One mutation factor per generation, dithered.
		f := opts.MutationMin + rng.Float64()*(opts.MutationMax-opts.MutationMin)

		for i := 0; i < members; i++ {
			trial := d.mutateBest1Bin(i, f, opts.Recombination, rng)
			energy := d.problem.Objective(d.scaled(trial))
			d.evals++
			if energy < d.energies[i] {
				d.population[i] = trial
				d.energies[i] = energy
				if energy < d.energies[0] {
					d.swap(0, i)
				}
			}
		}

		result.Iterations = gen
		if opts.OnGeneration != nil {
			opts.OnGeneration(gen, d.scaled(d.population[0]), d.energies[0])
		}
		if d.converged(opts.Tol, opts.AbsTol) {
			result.Converged = true
			result.Message = "population energy spread within tolerance"
			break
		}
	}

	result.X = d.scaled(d.population[0])
	result.Fun = d.energies[0]
	result.FuncEvals = d.evals

	if opts.Polish {
		polished := NelderMead(p.Objective, result.X, p.Bounds, DefaultNMOptions())
		result.FuncEvals += polished.FuncEvals
		if polished.Fun < result.Fun {
			result.X = polished.X
			result.Fun = polished.Fun
		}
	}
	return result, nil
}

// initLatinHypercube stratifies each coordinate into one segment per
// member so the initial population covers every marginal evenly.
func (d *deState) initLatinHypercube(members int, rng *rand.Rand) {
	d.population = make([][]float64, members)
	for i := range d.population {
		d.population[i] = make([]float64, d.dims)
	}
	segment := 1.0 / float64(members)
	for j := 0; j < d.dims; j++ {
		order := rng.Perm(members)
		for i := 0; i < members; i++ {
			d.population[i][j] = (float64(order[i]) + rng.Float64()) * segment
		}
	}
	d.energies = make([]float64, members)
}

func (d *deState) evaluateAll() {
	for i, member := range d.population {
		d.energies[i] = d.problem.Objective(d.scaled(member))
		d.evals++
	}
}

// promoteBest moves the lowest-energy member into slot 0, the anchor
// for best/1 mutation.
func (d *deState) promoteBest() {
	best := 0
	for i, e := range d.energies {
		if e < d.energies[best] {
			best = i
		}
	}
	d.swap(0, best)
}

func (d *deState) swap(a, b int) {
	d.population[a], d.population[b] = d.population[b], d.population[a]
	d.energies[a], d.energies[b] = d.energies[b], d.energies[a]
}

// mutateBest1Bin builds a trial for candidate i: best + F·(r1 − r2)
// with binomial crossover. One coordinate is always taken from the
// mutant; components leaving the unit cube are redrawn uniformly.
func (d *deState) mutateBest1Bin(i int, f, recombination float64, rng *rand.Rand) []float64 {
	members := len(d.population)
	r1 := rng.IntN(members)
	for r1 == i {
		r1 = rng.IntN(members)
	}
	r2 := rng.IntN(members)
	for r2 == i || r2 == r1 {
		r2 = rng.IntN(members)
	}

	fill := rng.IntN(d.dims)
	trial := make([]float64, d.dims)
	copy(trial, d.population[i])
	for j := 0; j < d.dims; j++ {
		if j != fill && rng.Float64() >= recombination {
			continue
		}
		v := d.population[0][j] + f*(d.population[r1][j]-d.population[r2][j])
		if v < 0 || v > 1 {
			v = rng.Float64()
		}
		trial[j] = v
	}
	return trial
}

func (d *deState) scaled(unit []float64) []float64 {
	x := make([]float64, d.dims)
	for j, b := range d.problem.Bounds {
		x[j] = b[0] + unit[j]*(b[1]-b[0])
	}
	return x
}

// converged checks std(energies) <= atol + tol·|mean(energies)| over
// the whole population. Infinite energies (infeasible members still
// alive) veto convergence outright.
func (d *deState) converged(tol, atol float64) bool {
	mean := montecarlo.Mean(d.energies)
	if math.IsInf(mean, 0) || math.IsNaN(mean) {
		return false
	}
	sum := 0.0
	for _, e := range d.energies {
		diff := e - mean
		sum += diff * diff
	}
	std := math.Sqrt(sum / float64(len(d.energies)))
	return std <= atol+tol*math.Abs(mean)
}
