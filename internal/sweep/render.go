package sweep

import (
	"fmt"
	"math"
	"strings"

	"espionage-duopoly-lab/internal/idhash"
)

// RenderCSV flattens sweep points into rows for external plotting.
func RenderCSV(res *Result) string {
	var b strings.Builder
	b.WriteString("parameter,value,point_index,I_1,I_2,rho,kappa,U_1,U_2,CS,W,converged\n")

	for _, pt := range res.Points {
		b.WriteString(fmt.Sprintf("%s,%g,%d,%g,%g,%g,%g,%g,%g,%g,%g,%t\n",
			pt.Parameter, pt.Value, pt.PointIndex,
			pt.I1, pt.I2, pt.ContestProb, pt.SignalPrecision,
			pt.U1, pt.U2, pt.ConsumerSurplus, pt.TotalWelfare,
			pt.Converged,
		))
	}

	return b.String()
}

// RenderMarkdown summarizes a sweep: the solved points, the elasticity of
// each output, and any detected thresholds.
func RenderMarkdown(res *Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Sweep Report: %s\n\n", res.Parameter))
	b.WriteString(fmt.Sprintf("Sweep: %s | Solved: %d | Failed: %d\n\n",
		displayID(res.SweepID), len(res.Points), res.Failed))

	b.WriteString(fmt.Sprintf("| %s | I_1* | I_2* | rho* | kappa* | U_1 | U_2 | CS | W |\n", res.Parameter))
	b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, pt := range res.Points {
		b.WriteString(fmt.Sprintf("| %.4g | %.4f | %.4f | %.4f | %.4f | %.2f | %.2f | %.2f | %.2f |\n",
			pt.Value, pt.I1, pt.I2, pt.ContestProb, pt.SignalPrecision,
			pt.U1, pt.U2, pt.ConsumerSurplus, pt.TotalWelfare,
		))
	}
	b.WriteString("\n")

	b.WriteString("## Arc Elasticities\n\n")
	b.WriteString("| Output | Mean | Min | Max |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, series := range res.Elasticities {
		mean, min, max, ok := summarize(series.Values)
		if !ok {
			b.WriteString(fmt.Sprintf("| %s | n/a | n/a | n/a |\n", series.Output))
			continue
		}
		b.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f |\n", series.Output, mean, min, max))
	}
	b.WriteString("\n")

	b.WriteString("## Thresholds\n\n")
	if len(res.Thresholds) == 0 {
		b.WriteString("None detected.\n")
	} else {
		for _, th := range res.Thresholds {
			b.WriteString(fmt.Sprintf("- %s %s at %s = %.6g (point %d)\n",
				th.Output, th.Kind, res.Parameter, th.Value, th.Index))
		}
	}

	return b.String()
}

// RenderGridCSV flattens grid cells into rows for heatmap tooling.
func RenderGridCSV(res *GridResult) string {
	var b strings.Builder
	b.WriteString("quantity,i,j,I_1,I_2,value\n")

	for _, c := range res.Cells {
		b.WriteString(fmt.Sprintf("%s,%d,%d,%g,%g,%g\n",
			c.Quantity, c.I, c.J, c.I1, c.I2, c.Value))
	}

	return b.String()
}

// summarize reduces an elasticity series over its finite entries.
func summarize(values []float64) (mean, min, max float64, ok bool) {
	var sum float64
	var n int
	min, max = math.Inf(1), math.Inf(-1)

	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if n == 0 {
		return 0, 0, 0, false
	}
	return sum / float64(n), min, max, true
}

func displayID(id string) string {
	if short, err := idhash.ShortRunID(id); err == nil {
		return short
	}
	return id
}
