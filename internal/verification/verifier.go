// Package verification re-solves stored equilibrium runs and checks that the
// recorded solution reproduces. The solver is deterministic for a fixed seed,
// so a stored run that no longer reproduces points at a parameter-handling
// regression or a corrupted row, not at sampling noise.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/nash"
	"espionage-duopoly-lab/internal/storage"
)

// FloatTolerance bounds the acceptable drift between a stored value and its
// re-solved counterpart. The search is seeded, so on one machine the match is
// exact; the tolerance absorbs libm differences across platforms.
const FloatTolerance = 1e-7

// FieldDivergence records a single field that failed to reproduce.
type FieldDivergence struct {
	Field    string `json:"field"`
	Stored   any    `json:"stored"`
	Resolved any    `json:"resolved"`
}

// RunResult is the outcome of verifying one stored run.
type RunResult struct {
	RunID       string            `json:"run_id"`
	Match       bool              `json:"match"`
	Divergences []FieldDivergence `json:"divergences,omitempty"`
}

// Report aggregates verification outcomes across a set of runs.
type Report struct {
	TotalRuns     int         `json:"total_runs"`
	MatchedRuns   int         `json:"matched_runs"`
	DivergentRuns int         `json:"divergent_runs"`
	Results       []RunResult `json:"results"`
}

// Verifier re-solves stored runs and compares the outcome field by field.
//
// The solver budget is not part of the stored row, so the verifier must be
// configured with the same options the original solve used; runs produced by
// the shipped binaries all use nash.DefaultOptions.
type Verifier struct {
	runs    storage.RunStore
	options nash.Options
	log     *slog.Logger
}

// NewVerifier builds a verifier over the given run store. The seed inside
// options is ignored; each re-solve uses the seed stored with the run.
func NewVerifier(runs storage.RunStore, options nash.Options, log *slog.Logger) *Verifier {
	if log == nil {
		log = slog.Default()
	}
	return &Verifier{runs: runs, options: options, log: log}
}

// VerifyRun loads one run by ID, re-solves with the stored parameters and
// seed, and reports every field that diverged.
func (v *Verifier) VerifyRun(ctx context.Context, runID string) (*RunResult, error) {
	run, err := v.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return v.verify(run)
}

// VerifyAll re-solves every stored run and aggregates the results.
func (v *Verifier) VerifyAll(ctx context.Context) (*Report, error) {
	runs, err := v.runs.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}

	report := &Report{Results: make([]RunResult, 0, len(runs))}
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := v.verify(run)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, *result)
		report.TotalRuns++
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
	}
	return report, nil
}

func (v *Verifier) verify(run *domain.EquilibriumRun) (*RunResult, error) {
	opts := v.options
	opts.Seed = run.Seed
	opts.OnProgress = nil

	resolved, err := nash.Solve(run.Parameters, opts)
	if err != nil {
		return nil, fmt.Errorf("re-solve run %s: %w", run.RunID, err)
	}

	divergences := CompareSolutions(run.Solution(), resolved)
	result := &RunResult{
		RunID:       run.RunID,
		Match:       len(divergences) == 0,
		Divergences: divergences,
	}
	if !result.Match {
		v.log.Warn("stored run did not reproduce",
			"run_id", run.RunID,
			"divergent_fields", len(divergences))
	}
	return result, nil
}

// CompareSolutions returns one divergence per field whose stored and
// re-solved values disagree. Float fields compare within FloatTolerance;
// flags and counters compare exactly.
func CompareSolutions(stored, resolved *domain.EquilibriumSolution) []FieldDivergence {
	var divergences []FieldDivergence

	floats := []struct {
		field            string
		stored, resolved float64
	}{
		{"I_1", stored.Investments[0], resolved.Investments[0]},
		{"I_2", stored.Investments[1], resolved.Investments[1]},
		{"rho", stored.ContestProb, resolved.ContestProb},
		{"kappa", stored.SignalPrecision, resolved.SignalPrecision},
		{"V_1", stored.ValueFunctions[0], resolved.ValueFunctions[0]},
		{"V_2", stored.ValueFunctions[1], resolved.ValueFunctions[1]},
		{"U_1", stored.Utilities[0], resolved.Utilities[0]},
		{"U_2", stored.Utilities[1], resolved.Utilities[1]},
		{"CS", stored.ConsumerSurplus, resolved.ConsumerSurplus},
		{"W", stored.TotalWelfare, resolved.TotalWelfare},
		{"gradient_norm", stored.GradientNorm, resolved.GradientNorm},
	}
	for _, f := range floats {
		if !floatEquals(f.stored, f.resolved) {
			divergences = append(divergences, FieldDivergence{
				Field:    f.field,
				Stored:   f.stored,
				Resolved: f.resolved,
			})
		}
	}

	if stored.Converged != resolved.Converged {
		divergences = append(divergences, FieldDivergence{
			Field:    "converged",
			Stored:   stored.Converged,
			Resolved: resolved.Converged,
		})
	}
	if stored.KKTSatisfied != resolved.KKTSatisfied {
		divergences = append(divergences, FieldDivergence{
			Field:    "kkt_satisfied",
			Stored:   stored.KKTSatisfied,
			Resolved: resolved.KKTSatisfied,
		})
	}
	if stored.Iterations != resolved.Iterations {
		divergences = append(divergences, FieldDivergence{
			Field:    "iterations",
			Stored:   stored.Iterations,
			Resolved: resolved.Iterations,
		})
	}

	return divergences
}

func floatEquals(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= FloatTolerance
}
