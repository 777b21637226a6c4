package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunFiles lists the artifacts one run writes.
type RunFiles struct {
	JSON     string
	CSV      string
	LaTeX    string
	Markdown string
}

// Writer renders a run report into its output directory.
type Writer struct {
	outputDir string
	now       func() time.Time // Injectable clock for deterministic output
}

// NewWriter creates a writer rooted at outputDir. The directory is
// created on first write.
func NewWriter(outputDir string) *Writer {
	return &Writer{
		outputDir: outputDir,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// WriteRun stamps the report, renders all four formats, and writes
// them as equilibrium_<run>.{json,csv,tex,md}.
func (w *Writer) WriteRun(report *RunReport) (RunFiles, error) {
	if report.Solution == nil {
		return RunFiles{}, fmt.Errorf("run report %q carries no solution", report.RunID)
	}
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return RunFiles{}, fmt.Errorf("create output directory: %w", err)
	}
	report.GeneratedAt = w.now()

	files := RunFiles{
		JSON:     w.path(report.RunID, "json"),
		CSV:      w.path(report.RunID, "csv"),
		LaTeX:    w.path(report.RunID, "tex"),
		Markdown: w.path(report.RunID, "md"),
	}

	jsonBytes, err := RenderJSON(report.Solution)
	if err != nil {
		return RunFiles{}, fmt.Errorf("render JSON: %w", err)
	}
	if err := os.WriteFile(files.JSON, jsonBytes, 0644); err != nil {
		return RunFiles{}, err
	}
	if err := os.WriteFile(files.CSV, []byte(RenderCSV(report.Solution)), 0644); err != nil {
		return RunFiles{}, err
	}
	if err := os.WriteFile(files.LaTeX, []byte(RenderLaTeX(report.Solution, "")), 0644); err != nil {
		return RunFiles{}, err
	}
	if err := os.WriteFile(files.Markdown, []byte(RenderMarkdown(report)), 0644); err != nil {
		return RunFiles{}, err
	}
	return files, nil
}

func (w *Writer) path(runID, ext string) string {
	return filepath.Join(w.outputDir, fmt.Sprintf("equilibrium_%s.%s", runID, ext))
}
