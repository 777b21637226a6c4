// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Solver metrics
	SolverRunsTotal      *prometheus.CounterVec
	SolveDuration        prometheus.Histogram
	ObjectiveEvaluations prometheus.Counter
	MonteCarloTrials     prometheus.Counter
	FixedPointIterations prometheus.Histogram
	StabilityErrors      prometheus.Counter

	// Sweep metrics
	SweepPointsTotal *prometheus.CounterVec
	GridCellsTotal   prometheus.Counter

	// Database metrics
	StoreQueryDuration *prometheus.HistogramVec
	StoreQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulSolve prometheus.Gauge
	UptimeSeconds       prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "espionage_duopoly"
	}

	return &Metrics{
		// Solver metrics
		SolverRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "runs_total",
			Help:      "Total number of equilibrium solves by status",
		}, []string{"status"}),
		SolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of equilibrium solves",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		ObjectiveEvaluations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "objective_evaluations_total",
			Help:      "Total number of joint-surplus objective evaluations",
		}),
		MonteCarloTrials: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "monte_carlo_trials_total",
			Help:      "Total number of simulated pricing rounds",
		}),
		FixedPointIterations: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "fixed_point_iterations",
			Help:      "Banach iterations used to resolve the market intercept",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		StabilityErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "stability_errors_total",
			Help:      "Total number of infeasible evaluations rejected on stability",
		}),

		// Sweep metrics
		SweepPointsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "points_total",
			Help:      "Total number of comparative-statics points by status",
		}, []string{"status"}),
		GridCellsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "grid_cells_total",
			Help:      "Total number of evaluated investment-grid cells",
		}),

		// Database metrics
		StoreQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Store query latency by backend and operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		StoreQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_errors_total",
			Help:      "Store query errors by backend and operation",
		}, []string{"store", "operation"}),

		// Health metrics
		LastSuccessfulSolve: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_solve_timestamp",
			Help:      "Unix timestamp of the last successful equilibrium solve",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSolve records one equilibrium solve.
func RecordSolve(status string, durationSeconds float64) {
	DefaultMetrics.SolverRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.SolveDuration.Observe(durationSeconds)
}

// MarkSolveSuccess stamps the last successful solve time.
func MarkSolveSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulSolve.Set(float64(unixSeconds))
}

// RecordObjectiveEvaluations adds to the objective evaluation counter.
func RecordObjectiveEvaluations(n int) {
	DefaultMetrics.ObjectiveEvaluations.Add(float64(n))
}

// RecordMonteCarloTrials adds to the simulated-rounds counter.
func RecordMonteCarloTrials(n int) {
	DefaultMetrics.MonteCarloTrials.Add(float64(n))
}

// RecordFixedPoint records the iteration count of one intercept solve.
func RecordFixedPoint(iterations int) {
	DefaultMetrics.FixedPointIterations.Observe(float64(iterations))
}

// RecordStabilityError increments the infeasible-evaluation counter.
func RecordStabilityError() {
	DefaultMetrics.StabilityErrors.Inc()
}

// RecordSweepPoint records one comparative-statics point.
func RecordSweepPoint(status string) {
	DefaultMetrics.SweepPointsTotal.WithLabelValues(status).Inc()
}

// RecordGridCells adds to the investment-grid cell counter.
func RecordGridCells(n int) {
	DefaultMetrics.GridCellsTotal.Add(float64(n))
}

// RecordStoreQuery records store query metrics.
func RecordStoreQuery(store, operation string, seconds float64, err error) {
	DefaultMetrics.StoreQueryDuration.WithLabelValues(store, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.StoreQueryErrors.WithLabelValues(store, operation).Inc()
	}
}

// RecordUptime adds to the uptime counter.
func RecordUptime(seconds float64) {
	DefaultMetrics.UptimeSeconds.Add(seconds)
}
