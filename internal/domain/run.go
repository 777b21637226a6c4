package domain

// EquilibriumRun is one persisted solver run.
// Corresponds to equilibrium_runs table in PostgreSQL.
type EquilibriumRun struct {
	RunID     string // PRIMARY KEY, deterministic hash of parameters + seed
	Seed      uint64 // solver seed
	CreatedAt int64  // Unix timestamp in milliseconds

	// Parameter snapshot at solve time
	Parameters Parameters

	// Solution
	I1              float64
	I2              float64
	ContestProb     float64
	SignalPrecision float64
	V1              float64
	V2              float64
	U1              float64
	U2              float64
	ConsumerSurplus float64
	TotalWelfare    float64

	// Diagnostics
	Converged    bool
	GradientNorm float64
	KKTSatisfied bool
	Iterations   int
	DurationMs   int64 // wall-clock solve time
}

// Solution reassembles the solution container from the stored columns.
func (r *EquilibriumRun) Solution() *EquilibriumSolution {
	return &EquilibriumSolution{
		Investments:     [2]float64{r.I1, r.I2},
		ContestProb:     r.ContestProb,
		SignalPrecision: r.SignalPrecision,
		ValueFunctions:  [2]float64{r.V1, r.V2},
		Utilities:       [2]float64{r.U1, r.U2},
		ConsumerSurplus: r.ConsumerSurplus,
		TotalWelfare:    r.TotalWelfare,
		Converged:       r.Converged,
		GradientNorm:    r.GradientNorm,
		KKTSatisfied:    r.KKTSatisfied,
		Iterations:      r.Iterations,
	}
}

// NewEquilibriumRun flattens a solved equilibrium into its storage row.
func NewEquilibriumRun(runID string, seed uint64, createdAt int64, p Parameters, s *EquilibriumSolution, durationMs int64) *EquilibriumRun {
	return &EquilibriumRun{
		RunID:           runID,
		Seed:            seed,
		CreatedAt:       createdAt,
		Parameters:      p,
		I1:              s.Investments[0],
		I2:              s.Investments[1],
		ContestProb:     s.ContestProb,
		SignalPrecision: s.SignalPrecision,
		V1:              s.ValueFunctions[0],
		V2:              s.ValueFunctions[1],
		U1:              s.Utilities[0],
		U2:              s.Utilities[1],
		ConsumerSurplus: s.ConsumerSurplus,
		TotalWelfare:    s.TotalWelfare,
		Converged:       s.Converged,
		GradientNorm:    s.GradientNorm,
		KKTSatisfied:    s.KKTSatisfied,
		Iterations:      s.Iterations,
		DurationMs:      durationMs,
	}
}

// SweepPoint is one comparative-statics evaluation.
// Corresponds to sweep_points table in ClickHouse.
type SweepPoint struct {
	SweepID    string  // sweep identity hash
	Parameter  string  // swept parameter key (ParameterKeys member)
	Value      float64 // swept parameter value at this point
	PointIndex int     // position in the sweep grid

	// Solution at this point
	I1              float64
	I2              float64
	ContestProb     float64
	SignalPrecision float64
	U1              float64
	U2              float64
	ConsumerSurplus float64
	TotalWelfare    float64
	Converged       bool
}

// Heatmap quantities.
const (
	GridQuantityRho   = "rho"
	GridQuantityKappa = "kappa"
)

// GridCell is one heatmap cell of a contest or precision surface.
// Corresponds to grid_cells table in ClickHouse.
type GridCell struct {
	GridID   string // grid identity hash
	Quantity string // "rho" | "kappa"
	I        int    // row index (I₁ axis)
	J        int    // column index (I₂ axis)
	I1       float64
	I2       float64
	Value    float64
}
