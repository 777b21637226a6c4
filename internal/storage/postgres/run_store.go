package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
//
// The parameter snapshot is flattened into one column per parameter so that
// runs can be filtered and compared in SQL without unpacking a blob.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, seed, created_at,
	alpha, beta, delta, gamma, kappa_1, kappa_2,
	epsilon, gamma_exponent, lambda_defense, iota,
	sigma_epsilon, sigma_c, i_bar, mu_c,
	i1, i2, contest_prob, signal_precision,
	v1, v2, u1, u2, consumer_surplus, total_welfare,
	converged, gradient_norm, kkt_satisfied, iterations, duration_ms
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, run *domain.EquilibriumRun) error {
	query := `
		INSERT INTO equilibrium_runs (` + runColumns + `
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23, $24, $25, $26, $27,
			$28, $29, $30, $31, $32
		)
	`

	p := run.Parameters
	_, err := s.pool.Exec(ctx, query,
		run.RunID, run.Seed, run.CreatedAt,
		p.Alpha, p.Beta, p.Delta, p.Gamma, p.Kappa1, p.Kappa2,
		p.Epsilon, p.GammaExponent, p.LambdaDefense, p.Iota,
		p.SigmaEpsilon, p.SigmaC, p.IBar, p.MuC,
		run.I1, run.I2, run.ContestProb, run.SignalPrecision,
		run.V1, run.V2, run.U1, run.U2, run.ConsumerSurplus, run.TotalWelfare,
		run.Converged, run.GradientNorm, run.KKTSatisfied, run.Iterations, run.DurationMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.EquilibriumRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM equilibrium_runs
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	run, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return run, nil
}

// GetBySeed retrieves all runs solved with the given seed, latest first.
func (s *RunStore) GetBySeed(ctx context.Context, seed uint64) ([]*domain.EquilibriumRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM equilibrium_runs
		WHERE seed = $1
		ORDER BY created_at DESC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, seed)
	if err != nil {
		return nil, fmt.Errorf("get runs by seed: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetAll retrieves all runs, latest first.
func (s *RunStore) GetAll(ctx context.Context) ([]*domain.EquilibriumRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM equilibrium_runs
		ORDER BY created_at DESC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// scanRun scans a single row into an EquilibriumRun.
func scanRun(row pgx.Row) (*domain.EquilibriumRun, error) {
	var run domain.EquilibriumRun
	p := &run.Parameters

	err := row.Scan(
		&run.RunID, &run.Seed, &run.CreatedAt,
		&p.Alpha, &p.Beta, &p.Delta, &p.Gamma, &p.Kappa1, &p.Kappa2,
		&p.Epsilon, &p.GammaExponent, &p.LambdaDefense, &p.Iota,
		&p.SigmaEpsilon, &p.SigmaC, &p.IBar, &p.MuC,
		&run.I1, &run.I2, &run.ContestProb, &run.SignalPrecision,
		&run.V1, &run.V2, &run.U1, &run.U2, &run.ConsumerSurplus, &run.TotalWelfare,
		&run.Converged, &run.GradientNorm, &run.KKTSatisfied, &run.Iterations, &run.DurationMs,
	)
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// scanRuns scans multiple rows into a slice of EquilibriumRun.
func scanRuns(rows pgx.Rows) ([]*domain.EquilibriumRun, error) {
	var runs []*domain.EquilibriumRun

	for rows.Next() {
		var run domain.EquilibriumRun
		p := &run.Parameters

		err := rows.Scan(
			&run.RunID, &run.Seed, &run.CreatedAt,
			&p.Alpha, &p.Beta, &p.Delta, &p.Gamma, &p.Kappa1, &p.Kappa2,
			&p.Epsilon, &p.GammaExponent, &p.LambdaDefense, &p.Iota,
			&p.SigmaEpsilon, &p.SigmaC, &p.IBar, &p.MuC,
			&run.I1, &run.I2, &run.ContestProb, &run.SignalPrecision,
			&run.V1, &run.V2, &run.U1, &run.U2, &run.ConsumerSurplus, &run.TotalWelfare,
			&run.Converged, &run.GradientNorm, &run.KKTSatisfied, &run.Iterations, &run.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}
