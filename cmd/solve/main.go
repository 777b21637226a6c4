// Package main solves one espionage-duopoly equilibrium, exports the
// run artifacts, and optionally records the run in PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"espionage-duopoly-lab/internal/cli"
	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/idhash"
	"espionage-duopoly-lab/internal/nash"
	"espionage-duopoly-lab/internal/reporting"
	"espionage-duopoly-lab/internal/storage"
	"espionage-duopoly-lab/internal/storage/migrations"
	pgstore "espionage-duopoly-lab/internal/storage/postgres"
)

func main() {
	cli.LoadEnvFile()

	scenario := flag.String("scenario", domain.ScenarioBaseline, "Parameter preset (baseline, hardened_leader, cheap_espionage, noisy_channel)")
	set := flag.String("set", "", "Comma-separated parameter overrides (e.g. alpha=90,lambda_defense=2.5)")
	seed := flag.Uint64("seed", nash.DefaultOptions().Seed, "Solver seed")
	outputDir := flag.String("output-dir", "output", "Output directory for run artifacts")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (optional; persists the run)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := cli.SetupLogger(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	log := slog.Default()

	params, err := cli.ResolveParameters(*scenario, *set)
	if err != nil {
		log.Error("invalid parameters", "error", err)
		os.Exit(1)
	}

	runID := idhash.ComputeRunID(params, *seed)
	shortID, _ := idhash.ShortRunID(runID)

	opts := nash.DefaultOptions()
	opts.Seed = *seed
	opts.OnProgress = func(p nash.Progress) {
		log.Debug("generation",
			"n", p.Generation, "I_1", p.I1, "I_2", p.I2, "joint_surplus", p.JointSurplus)
	}

	log.Info("solving equilibrium", "run_id", shortID, "scenario", *scenario, "seed", *seed)

	start := time.Now()
	solution, err := nash.Solve(params, opts)
	if err != nil {
		log.Error("solve failed", "run_id", shortID, "error", err)
		os.Exit(1)
	}
	duration := time.Since(start)

	log.Info("equilibrium solved",
		"run_id", shortID,
		"I_1", solution.Investments[0],
		"I_2", solution.Investments[1],
		"converged", solution.Converged,
		"duration", duration,
	)

	writer := reporting.NewWriter(*outputDir)
	files, err := writer.WriteRun(&reporting.RunReport{
		RunID:      shortID,
		Seed:       *seed,
		Parameters: params,
		Solution:   solution,
	})
	if err != nil {
		log.Error("writing artifacts failed", "error", err)
		os.Exit(1)
	}

	if *postgresDSN != "" {
		if err := persistRun(context.Background(), *postgresDSN, runID, *seed, params, solution, duration); err != nil {
			log.Error("persisting run failed", "error", err)
			os.Exit(1)
		}
		log.Info("run recorded", "run_id", runID)
	}

	printSummary(solution, shortID, files)
}

// persistRun records the solved run, applying migrations first so a
// fresh database works out of the box. An already-recorded run is not
// an error: identical parameters and seed produce the same run ID.
func persistRun(ctx context.Context, dsn, runID string, seed uint64, params domain.Parameters, s *domain.EquilibriumSolution, duration time.Duration) error {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	run := domain.NewEquilibriumRun(runID, seed, time.Now().UnixMilli(), params, s, duration.Milliseconds())
	if err := pgstore.NewRunStore(pool).Insert(ctx, run); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			slog.Info("run already recorded", "run_id", runID)
			return nil
		}
		return err
	}
	return nil
}

func printSummary(s *domain.EquilibriumSolution, shortID string, files reporting.RunFiles) {
	fmt.Printf("Equilibrium %s\n", shortID)
	fmt.Printf("  I_1* = %.4f   I_2* = %.4f\n", s.Investments[0], s.Investments[1])
	fmt.Printf("  rho* = %.4f   kappa* = %.4f\n", s.ContestProb, s.SignalPrecision)
	fmt.Printf("  U_1  = %.2f   U_2 = %.2f\n", s.Utilities[0], s.Utilities[1])
	fmt.Printf("  CS   = %.2f   W = %.2f\n", s.ConsumerSurplus, s.TotalWelfare)
	fmt.Printf("  converged = %t   kkt = %t   iterations = %d\n",
		s.Converged, s.KKTSatisfied, s.Iterations)
	fmt.Println("Artifacts:")
	for _, f := range []string{files.JSON, files.CSV, files.LaTeX, files.Markdown} {
		fmt.Printf("  - %s\n", f)
	}
}
