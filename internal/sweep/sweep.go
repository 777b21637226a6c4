// Package sweep runs comparative statics: re-solving the equilibrium
// while one parameter moves across a range, plus dense grids of the
// closed-form information quantities over the investment box.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/idhash"
	"espionage-duopoly-lab/internal/nash"
	"espionage-duopoly-lab/internal/observability"
	"espionage-duopoly-lab/internal/storage"
)

// Outputs tracked across a sweep, in render order.
var SweepOutputs = []string{"I_1", "I_2", "rho", "kappa", "U_1", "U_2", "CS", "W"}

// Options configures a sweep. Parameter names follow the canonical keys
// accepted by Parameters.WithOverrides.
type Options struct {
	Parameter string
	Base      domain.Parameters
	Min       float64
	Max       float64
	Points    int
	LogScale  bool
	Seed      uint64

	// Solver overrides the per-point solve budget. The zero value uses
	// nash.DefaultOptions with Seed applied.
	Solver nash.Options

	// Store, when set, receives the solved points in one batch.
	Store storage.SweepStore

	Logger *slog.Logger
}

// ElasticitySeries holds the arc elasticity of one output between each
// pair of adjacent solved points.
type ElasticitySeries struct {
	Output string
	Values []float64
}

// Threshold marks a qualitative change in an output along the sweep.
type Threshold struct {
	Output string
	Kind   string // "sign-change" or "direction-change"
	Value  float64
	Index  int
}

// Result is the outcome of one sweep.
type Result struct {
	SweepID      string
	Parameter    string
	Points       []*domain.SweepPoint
	Elasticities []ElasticitySeries
	Thresholds   []Threshold
	Failed       int
}

// Engine solves a sweep point by point.
type Engine struct {
	opts Options
	log  *slog.Logger
}

// NewEngine creates a sweep engine.
func NewEngine(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{opts: opts, log: log}
}

// Run executes the sweep.
// Phases:
//  1. Validate options and build the value grid
//  2. Solve each point; failed points are logged and skipped
//  3. Persist solved points
//  4. Derive elasticities and thresholds
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	opts := e.opts

	// Phase 1: value grid
	if opts.Points < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 points, got %d", opts.Points)
	}
	if !(opts.Max > opts.Min) {
		return nil, fmt.Errorf("sweep range [%g, %g] is empty", opts.Min, opts.Max)
	}
	if opts.LogScale && opts.Min <= 0 {
		return nil, fmt.Errorf("log-scale sweep requires min > 0, got %g", opts.Min)
	}
	if _, ok := opts.Base.Fields()[opts.Parameter]; !ok {
		return nil, fmt.Errorf("unknown sweep parameter %q", opts.Parameter)
	}

	values := Values(opts.Min, opts.Max, opts.Points, opts.LogScale)

	baseID := idhash.ComputeRunID(opts.Base, opts.Seed)
	sweepID := idhash.ComputeSweepID(opts.Parameter, values, baseID)

	solver := opts.Solver
	if solver.MaxIter == 0 {
		solver = nash.DefaultOptions()
	}
	solver.Seed = opts.Seed

	e.log.Info("sweep started",
		"sweep_id", sweepID,
		"parameter", opts.Parameter,
		"points", opts.Points,
		"min", opts.Min,
		"max", opts.Max,
		"log_scale", opts.LogScale,
	)

	// Phase 2: solve each point
	result := &Result{SweepID: sweepID, Parameter: opts.Parameter}
	for i, value := range values {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		variant, err := opts.Base.WithOverrides(map[string]float64{opts.Parameter: value})
		if err != nil {
			e.log.Warn("sweep point invalid",
				"parameter", opts.Parameter, "value", value, "error", err)
			observability.RecordSweepPoint("invalid")
			result.Failed++
			continue
		}

		solution, err := nash.Solve(variant, solver)
		if err != nil {
			e.log.Warn("sweep point failed",
				"parameter", opts.Parameter, "value", value, "error", err)
			observability.RecordSweepPoint("error")
			result.Failed++
			continue
		}

		observability.RecordSweepPoint("ok")
		result.Points = append(result.Points, &domain.SweepPoint{
			SweepID:         sweepID,
			Parameter:       opts.Parameter,
			Value:           value,
			PointIndex:      i,
			I1:              solution.Investments[0],
			I2:              solution.Investments[1],
			ContestProb:     solution.ContestProb,
			SignalPrecision: solution.SignalPrecision,
			U1:              solution.Utilities[0],
			U2:              solution.Utilities[1],
			ConsumerSurplus: solution.ConsumerSurplus,
			TotalWelfare:    solution.TotalWelfare,
			Converged:       solution.Converged,
		})
	}

	// Phase 3: persist
	if opts.Store != nil && len(result.Points) > 0 {
		if err := opts.Store.InsertBulk(ctx, result.Points); err != nil {
			return nil, fmt.Errorf("persist sweep points: %w", err)
		}
	}

	// Phase 4: elasticities and thresholds
	xs := make([]float64, len(result.Points))
	for i, pt := range result.Points {
		xs[i] = pt.Value
	}
	for _, output := range SweepOutputs {
		ys := make([]float64, len(result.Points))
		for i, pt := range result.Points {
			ys[i] = OutputValue(pt, output)
		}
		result.Elasticities = append(result.Elasticities, ElasticitySeries{
			Output: output,
			Values: ArcElasticities(xs, ys),
		})
		result.Thresholds = append(result.Thresholds, DetectThresholds(xs, output, ys)...)
	}

	e.log.Info("sweep finished",
		"sweep_id", sweepID,
		"solved", len(result.Points),
		"failed", result.Failed,
		"thresholds", len(result.Thresholds),
	)

	return result, nil
}

// Values builds the sweep grid, inclusive of both endpoints.
func Values(min, max float64, points int, logScale bool) []float64 {
	values := make([]float64, points)
	if logScale {
		logMin, logMax := math.Log(min), math.Log(max)
		step := (logMax - logMin) / float64(points-1)
		for i := range values {
			values[i] = math.Exp(logMin + float64(i)*step)
		}
		// Guard the endpoints against exp/log round trips.
		values[0], values[points-1] = min, max
		return values
	}

	step := (max - min) / float64(points-1)
	for i := range values {
		values[i] = min + float64(i)*step
	}
	values[points-1] = max
	return values
}

// OutputValue extracts a named output from a sweep point.
func OutputValue(pt *domain.SweepPoint, output string) float64 {
	switch output {
	case "I_1":
		return pt.I1
	case "I_2":
		return pt.I2
	case "rho":
		return pt.ContestProb
	case "kappa":
		return pt.SignalPrecision
	case "U_1":
		return pt.U1
	case "U_2":
		return pt.U2
	case "CS":
		return pt.ConsumerSurplus
	case "W":
		return pt.TotalWelfare
	default:
		return math.NaN()
	}
}

// ArcElasticities returns the midpoint arc elasticity
// (ΔY/ΔX)·(X̄/Ȳ) between each pair of adjacent points. Pairs whose
// midpoint response or step is zero yield NaN.
func ArcElasticities(xs, ys []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}

	out := make([]float64, len(xs)-1)
	for i := 0; i+1 < len(xs); i++ {
		dx := xs[i+1] - xs[i]
		midX := (xs[i+1] + xs[i]) / 2
		midY := (ys[i+1] + ys[i]) / 2
		if dx == 0 || midY == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (ys[i+1] - ys[i]) / dx * midX / midY
	}
	return out
}

// DetectThresholds scans one output series for sign changes between
// adjacent points and direction reversals at interior points.
func DetectThresholds(xs []float64, output string, ys []float64) []Threshold {
	var thresholds []Threshold

	for i := 0; i+1 < len(ys); i++ {
		if ys[i]*ys[i+1] < 0 {
			thresholds = append(thresholds, Threshold{
				Output: output,
				Kind:   "sign-change",
				Value:  (xs[i] + xs[i+1]) / 2,
				Index:  i,
			})
		}
	}

	for i := 1; i+1 < len(ys); i++ {
		left := ys[i] - ys[i-1]
		right := ys[i+1] - ys[i]
		if left*right < 0 {
			thresholds = append(thresholds, Threshold{
				Output: output,
				Kind:   "direction-change",
				Value:  xs[i],
				Index:  i,
			})
		}
	}

	return thresholds
}
