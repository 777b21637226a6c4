// Package main runs the diagnostic suite on one equilibrium: KKT
// verification, strategic-interaction classification, sequential and
// information effect decomposition, and the welfare derivative split.
// The point comes either from a stored run or from a fresh solve.
// With --verify it instead re-solves a stored run and checks that the
// recorded solution reproduces.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"espionage-duopoly-lab/internal/analysis"
	"espionage-duopoly-lab/internal/cli"
	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/idhash"
	"espionage-duopoly-lab/internal/nash"
	"espionage-duopoly-lab/internal/reporting"
	pgstore "espionage-duopoly-lab/internal/storage/postgres"
	"espionage-duopoly-lab/internal/verification"
)

func main() {
	cli.LoadEnvFile()

	runID := flag.String("run-id", "", "Stored run to analyze (requires --postgres-dsn)")
	verify := flag.Bool("verify", false, "Re-solve the stored run and check that it reproduces (requires --run-id)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	scenario := flag.String("scenario", domain.ScenarioBaseline, "Parameter preset for a fresh solve")
	set := flag.String("set", "", "Comma-separated parameter overrides for a fresh solve")
	seed := flag.Uint64("seed", nash.DefaultOptions().Seed, "Solver seed for a fresh solve")
	outputDir := flag.String("output-dir", "output", "Output directory for the report")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := cli.SetupLogger(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	log := slog.Default()
	ctx := context.Background()

	if *verify {
		if *runID == "" {
			fmt.Fprintln(os.Stderr, "Error: --verify requires --run-id")
			os.Exit(1)
		}
		matched, err := verifyStored(ctx, *postgresDSN, *runID, log)
		if err != nil {
			log.Error("verification failed", "error", err)
			os.Exit(1)
		}
		if !matched {
			os.Exit(1)
		}
		return
	}

	var (
		params   domain.Parameters
		solution *domain.EquilibriumSolution
		runSeed  uint64
		id       string
		err      error
	)
	if *runID != "" {
		params, solution, runSeed, err = loadRun(ctx, *postgresDSN, *runID)
		id = *runID
	} else {
		params, solution, runSeed, id, err = solveFresh(*scenario, *set, *seed, log)
	}
	if err != nil {
		log.Error("resolving the equilibrium failed", "error", err)
		os.Exit(1)
	}

	shortID := id
	if short, err := idhash.ShortRunID(id); err == nil {
		shortID = short
	}
	I1, I2 := solution.Investments[0], solution.Investments[1]
	log.Info("analyzing equilibrium", "run_id", shortID, "I_1", I1, "I_2", I2)

	kkt, err := analysis.VerifyKKT(params, I1, I2, runSeed, analysis.DefaultStep, analysis.DefaultKKTTolerance)
	if err != nil {
		log.Error("KKT verification failed", "error", err)
		os.Exit(1)
	}

	interaction := analysis.AnalyzeInteraction(params, I1, I2, analysis.DefaultStep)

	effects, err := analysis.DecomposeEffects(params, I1, I2, runSeed, analysis.EffectTrials)
	if err != nil {
		log.Error("effect decomposition failed", "error", err)
		os.Exit(1)
	}

	welfare, err := analysis.DecomposeWelfareDerivative(params, I1, I2, runSeed, analysis.DefaultStep)
	if err != nil {
		log.Error("welfare decomposition failed", "error", err)
		os.Exit(1)
	}

	files, err := reporting.NewWriter(*outputDir).WriteRun(&reporting.RunReport{
		RunID:       shortID,
		Seed:        runSeed,
		Parameters:  params,
		Solution:    solution,
		KKT:         kkt,
		Interaction: &interaction,
		Effects:     effects,
		Welfare:     welfare,
	})
	if err != nil {
		log.Error("writing report failed", "error", err)
		os.Exit(1)
	}

	fmt.Print(kkt.Format())
	fmt.Print(interaction.Format())
	fmt.Print(effects.Format())
	fmt.Print(welfare.Format())
	fmt.Printf("Full report: %s\n", files.Markdown)
}

// verifyStored re-solves a stored run with its recorded parameters and
// seed, printing any field that fails to reproduce.
func verifyStored(ctx context.Context, dsn, runID string, log *slog.Logger) (bool, error) {
	if dsn == "" {
		return false, fmt.Errorf("--postgres-dsn is required with --run-id")
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return false, fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	verifier := verification.NewVerifier(pgstore.NewRunStore(pool), nash.DefaultOptions(), log)
	result, err := verifier.VerifyRun(ctx, runID)
	if err != nil {
		return false, err
	}

	if result.Match {
		fmt.Printf("Run %s reproduces: all fields match within %g.\n", runID, verification.FloatTolerance)
		return true, nil
	}
	fmt.Printf("Run %s diverged on %d field(s):\n", runID, len(result.Divergences))
	for _, d := range result.Divergences {
		fmt.Printf("  %-14s stored %v, re-solved %v\n", d.Field, d.Stored, d.Resolved)
	}
	return false, nil
}

// loadRun pulls a stored run and re-derives the analysis inputs from
// its parameter snapshot.
func loadRun(ctx context.Context, dsn, runID string) (domain.Parameters, *domain.EquilibriumSolution, uint64, error) {
	if dsn == "" {
		return domain.Parameters{}, nil, 0, fmt.Errorf("--postgres-dsn is required with --run-id")
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return domain.Parameters{}, nil, 0, fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	run, err := pgstore.NewRunStore(pool).GetByID(ctx, runID)
	if err != nil {
		return domain.Parameters{}, nil, 0, fmt.Errorf("load run %s: %w", runID, err)
	}
	return run.Parameters, run.Solution(), run.Seed, nil
}

func solveFresh(scenario, set string, seed uint64, log *slog.Logger) (domain.Parameters, *domain.EquilibriumSolution, uint64, string, error) {
	params, err := cli.ResolveParameters(scenario, set)
	if err != nil {
		return domain.Parameters{}, nil, 0, "", err
	}

	opts := nash.DefaultOptions()
	opts.Seed = seed

	id := idhash.ComputeRunID(params, seed)
	log.Info("solving equilibrium", "scenario", scenario, "seed", seed)

	start := time.Now()
	solution, err := nash.Solve(params, opts)
	if err != nil {
		return domain.Parameters{}, nil, 0, "", err
	}
	log.Info("equilibrium solved", "duration", time.Since(start))

	return params, solution, seed, id, nil
}
