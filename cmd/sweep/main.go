// Package main runs a comparative-statics sweep: one parameter moves
// across a range, the equilibrium is re-solved at every point, and the
// results land in CSV/markdown files and optionally in ClickHouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"espionage-duopoly-lab/internal/cli"
	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/idhash"
	"espionage-duopoly-lab/internal/nash"
	"espionage-duopoly-lab/internal/storage"
	chstore "espionage-duopoly-lab/internal/storage/clickhouse"
	"espionage-duopoly-lab/internal/storage/migrations"
	"espionage-duopoly-lab/internal/sweep"
)

func main() {
	cli.LoadEnvFile()

	planPath := flag.String("plan", "", "YAML sweep plan file (overrides the range flags)")
	parameter := flag.String("parameter", "", "Parameter to sweep (canonical key, e.g. lambda_defense)")
	min := flag.Float64("min", 0, "Sweep range lower endpoint")
	max := flag.Float64("max", 0, "Sweep range upper endpoint")
	points := flag.Int("points", 10, "Number of sweep points")
	logScale := flag.Bool("log-scale", false, "Space the points logarithmically")
	seed := flag.Uint64("seed", nash.DefaultOptions().Seed, "Solver seed shared by every point")
	scenario := flag.String("scenario", domain.ScenarioBaseline, "Base parameter preset")
	set := flag.String("set", "", "Comma-separated base parameter overrides")
	outputDir := flag.String("output-dir", "output", "Output directory for sweep files")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional; persists the points)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := cli.SetupLogger(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	log := slog.Default()

	if *planPath != "" {
		plan, err := sweep.LoadPlan(*planPath)
		if err != nil {
			log.Error("loading sweep plan failed", "error", err)
			os.Exit(1)
		}
		*parameter = plan.Parameter
		*min, *max = plan.Min, plan.Max
		*points = plan.Points
		*logScale = plan.LogScale
		if plan.Seed != 0 {
			*seed = plan.Seed
		}
		log.Info("sweep plan loaded", "plan", plan.Name, "file", *planPath)
	}
	if *parameter == "" {
		log.Error("either --plan or --parameter is required")
		os.Exit(1)
	}

	base, err := cli.ResolveParameters(*scenario, *set)
	if err != nil {
		log.Error("invalid base parameters", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.SweepStore
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			log.Error("preparing clickhouse failed", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		store = chstore.NewSweepStore(conn)
	}

	engine := sweep.NewEngine(sweep.Options{
		Parameter: *parameter,
		Base:      base,
		Min:       *min,
		Max:       *max,
		Points:    *points,
		LogScale:  *logScale,
		Seed:      *seed,
		Store:     store,
		Logger:    log,
	})

	result, err := engine.Run(ctx)
	if err != nil {
		log.Error("sweep failed", "error", err)
		os.Exit(1)
	}

	files, err := writeSweepFiles(*outputDir, result)
	if err != nil {
		log.Error("writing sweep files failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Sweep %s over %s: %d solved, %d failed, %d thresholds\n",
		displayID(result.SweepID), result.Parameter,
		len(result.Points), result.Failed, len(result.Thresholds))
	for _, f := range files {
		fmt.Printf("  - %s\n", f)
	}
}

func writeSweepFiles(dir string, result *sweep.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("sweep_%s.csv", displayID(result.SweepID)))
	if err := os.WriteFile(csvPath, []byte(sweep.RenderCSV(result)), 0644); err != nil {
		return nil, err
	}

	mdPath := filepath.Join(dir, fmt.Sprintf("sweep_%s.md", displayID(result.SweepID)))
	if err := os.WriteFile(mdPath, []byte(sweep.RenderMarkdown(result)), 0644); err != nil {
		return nil, err
	}

	return []string{csvPath, mdPath}, nil
}

func displayID(id string) string {
	if short, err := idhash.ShortRunID(id); err == nil {
		return short
	}
	return id
}
