// Package main runs the equilibrium service: a solve API with live
// websocket progress, stored-run queries, a status endpoint, and
// Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"espionage-duopoly-lab/internal/cli"
	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/idhash"
	"espionage-duopoly-lab/internal/nash"
	"espionage-duopoly-lab/internal/observability"
	"espionage-duopoly-lab/internal/storage"
	"espionage-duopoly-lab/internal/storage/memory"
	"espionage-duopoly-lab/internal/storage/migrations"
	pgstore "espionage-duopoly-lab/internal/storage/postgres"
	"espionage-duopoly-lab/internal/stream"
)

// Server holds the service state shared across handlers.
type Server struct {
	runStore storage.RunStore
	hub      *stream.Hub
	log      *slog.Logger

	mu           sync.Mutex
	started      time.Time
	solveRunning bool
	solves       int
	lastRunID    string
	lastSolveAt  time.Time
}

func main() {
	cli.LoadEnvFile()

	addr := flag.String("addr", cli.EnvOr("SERVER_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	logLevel := flag.String("log-level", cli.EnvOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := cli.SetupLogger(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	log := slog.Default()

	if !*useMemory && *postgresDSN == "" {
		log.Error("--postgres-dsn is required (or --use-memory for in-memory storage)")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runStore, cleanup, err := createRunStore(ctx, *postgresDSN, *useMemory)
	if err != nil {
		log.Error("creating run store failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := &Server{
		runStore: runStore,
		hub:      stream.NewHub(log, nil),
		log:      log,
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/api/solve", server.handleSolve)
	mux.HandleFunc("/api/runs", server.handleRuns)
	mux.Handle("/ws/progress", server.hub)

	httpServer := &http.Server{Addr: *addr, Handler: mux}

	// The uptime counter advances while the process lives.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.RecordUptime(15)
			}
		}
	}()

	shutdownDone := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("signal received, draining connections", "signal", sig.String())

		go func() {
			sig := <-sigCh
			log.Warn("second signal, forcing exit", "signal", sig.String())
			os.Exit(1)
		}()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown incomplete", "error", err)
		}
		server.hub.Close()
		cancel()
		close(shutdownDone)
	}()

	log.Info("server listening", "addr", *addr, "storage", storageMode(*useMemory))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-shutdownDone
	log.Info("shutdown complete")
}

func storageMode(useMemory bool) string {
	if useMemory {
		return "memory"
	}
	return "postgres"
}

// createRunStore builds the run store, applying migrations when backed
// by PostgreSQL.
func createRunStore(ctx context.Context, dsn string, useMemory bool) (storage.RunStore, func(), error) {
	if useMemory {
		return memory.NewRunStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	return pgstore.NewRunStore(pool), pool.Close, nil
}

// solveRequest is the /api/solve body. Every field is optional; the
// zero request solves the baseline with the default seed.
type solveRequest struct {
	Scenario  string             `json:"scenario,omitempty"`
	Overrides map[string]float64 `json:"overrides,omitempty"`
	Seed      *uint64            `json:"seed,omitempty"`
}

// handleSolve runs the solver synchronously; clients follow the search
// on /ws/progress. One solve at a time: the solver saturates its core
// and a second concurrent run would only stretch both.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	scenario := req.Scenario
	if scenario == "" {
		scenario = domain.ScenarioBaseline
	}
	params, err := domain.ScenarioParams(scenario)
	if err == nil && len(req.Overrides) > 0 {
		params, err = params.WithOverrides(req.Overrides)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	seed := nash.DefaultOptions().Seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	s.mu.Lock()
	if s.solveRunning {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, errors.New("a solve is already in progress"))
		return
	}
	s.solveRunning = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.solveRunning = false
		s.mu.Unlock()
	}()

	runID := idhash.ComputeRunID(params, seed)
	opts := nash.DefaultOptions()
	opts.Seed = seed
	opts.OnProgress = func(p nash.Progress) {
		s.hub.Broadcast(stream.ProgressEvent(runID, p))
	}

	s.log.Info("solve requested", "run_id", runID, "scenario", scenario, "seed", seed)

	start := time.Now()
	solution, err := nash.Solve(params, opts)
	if err != nil {
		s.hub.Broadcast(stream.FailedEvent(runID, err))
		s.log.Error("solve failed", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	duration := time.Since(start)

	persisted := true
	run := domain.NewEquilibriumRun(runID, seed, time.Now().UnixMilli(), params, solution, duration.Milliseconds())
	if err := s.runStore.Insert(r.Context(), run); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			s.log.Info("run already recorded", "run_id", runID)
		} else {
			persisted = false
			s.log.Error("persisting run failed", "run_id", runID, "error", err)
		}
	}

	s.hub.Broadcast(stream.SolvedEvent(runID, solution))

	s.mu.Lock()
	s.solves++
	s.lastRunID = runID
	s.lastSolveAt = time.Now()
	s.mu.Unlock()

	resp := map[string]any{
		"run_id":      runID,
		"duration_ms": duration.Milliseconds(),
		"persisted":   persisted,
	}
	if short, err := idhash.ShortRunID(runID); err == nil {
		resp["short_id"] = short
	}
	for group, values := range solution.ToDict() {
		resp[group] = values
	}
	writeJSON(w, http.StatusOK, resp)
}

// runSummary is one stored run in the /api/runs response.
type runSummary struct {
	RunID           string  `json:"run_id"`
	ShortID         string  `json:"short_id"`
	Seed            uint64  `json:"seed"`
	CreatedAt       int64   `json:"created_at"`
	I1              float64 `json:"I_1"`
	I2              float64 `json:"I_2"`
	ContestProb     float64 `json:"rho"`
	SignalPrecision float64 `json:"kappa"`
	U1              float64 `json:"U_1"`
	U2              float64 `json:"U_2"`
	ConsumerSurplus float64 `json:"CS"`
	TotalWelfare    float64 `json:"W"`
	Converged       bool    `json:"converged"`
	DurationMs      int64   `json:"duration_ms"`
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runs, err := s.runStore.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	summaries := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		summary := runSummary{
			RunID:           run.RunID,
			Seed:            run.Seed,
			CreatedAt:       run.CreatedAt,
			I1:              run.I1,
			I2:              run.I2,
			ContestProb:     run.ContestProb,
			SignalPrecision: run.SignalPrecision,
			U1:              run.U1,
			U2:              run.U2,
			ConsumerSurplus: run.ConsumerSurplus,
			TotalWelfare:    run.TotalWelfare,
			Converged:       run.Converged,
			DurationMs:      run.DurationMs,
		}
		if short, err := idhash.ShortRunID(run.RunID); err == nil {
			summary.ShortID = short
		}
		summaries = append(summaries, summary)
	}
	writeJSON(w, http.StatusOK, summaries)
}

// statusResponse is the /status JSON shape.
type statusResponse struct {
	Status          string `json:"status"`
	Uptime          string `json:"uptime"`
	Subscribers     int    `json:"progress_subscribers"`
	SolveRunning    bool   `json:"solve_running"`
	SolvesCompleted int    `json:"solves_completed"`
	LastRunID       string `json:"last_run_id,omitempty"`
	LastSolveAt     string `json:"last_solve_at,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := statusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).String(),
		SolveRunning:    s.solveRunning,
		SolvesCompleted: s.solves,
		LastRunID:       s.lastRunID,
	}
	if !s.lastSolveAt.IsZero() {
		resp.LastSolveAt = s.lastSolveAt.UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()

	resp.Subscribers = s.hub.ClientCount()
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
