// Package main evaluates the contest-probability and signal-precision
// surfaces over the investment box and writes them as heatmap CSV,
// optionally persisting the cells to ClickHouse.
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
	"espionage-duopoly-lab/internal/storage"
	chstore "espionage-duopoly-lab/internal/storage/clickhouse"
	"espionage-duopoly-lab/internal/storage/migrations"
	"espionage-duopoly-lab/internal/sweep"
)

func main() {
	cli.LoadEnvFile()

	points := flag.Int("points", sweep.DefaultGridPoints, "Lattice resolution per axis")
	scenario := flag.String("scenario", domain.ScenarioBaseline, "Parameter preset")
	set := flag.String("set", "", "Comma-separated parameter overrides")
	outputDir := flag.String("output-dir", "output", "Output directory for the grid CSV")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional; persists the cells)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := cli.SetupLogger(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	log := slog.Default()

	base, err := cli.ResolveParameters(*scenario, *set)
	if err != nil {
		log.Error("invalid parameters", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.GridStore
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			log.Error("preparing clickhouse failed", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		store = chstore.NewGridStore(conn)
	}

	result, err := sweep.RunGrid(ctx, sweep.GridOptions{
		Base:   base,
		Points: *points,
		Store:  store,
		Logger: log,
	})
	if err != nil {
		log.Error("grid evaluation failed", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Error("creating output directory failed", "error", err)
		os.Exit(1)
	}

	shortID := result.GridID
	if short, err := idhash.ShortRunID(result.GridID); err == nil {
		shortID = short
	}

	csvPath := filepath.Join(*outputDir, fmt.Sprintf("grid_%s.csv", shortID))
	if err := os.WriteFile(csvPath, []byte(sweep.RenderGridCSV(result)), 0644); err != nil {
		log.Error("writing grid CSV failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Grid %s: %d×%d lattice, %d cells\n",
		shortID, result.Points, result.Points, len(result.Cells))
	fmt.Printf("  - %s\n", csvPath)
}
