// Command report loads an observation workbook (or CSV), classifies it,
// and writes the classified records plus summary statistics to the
// reports directory. Filters mirror the API: omit a dimension flag to
// keep every observed label on it.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"accretioncli/internal/accretion"
	"accretioncli/internal/config"
	"accretioncli/internal/dataset"
	"accretioncli/internal/exporter"
	"accretioncli/internal/infrastructure"
	"accretioncli/pkg/contracts/domain"
)

func main() {
	input := flag.String("in", "", "input workbook (.xlsx) or CSV file (required)")
	outputDir := flag.String("out", "", "output directory (defaults to the configured reports dir)")
	massClasses := flag.String("mass", "", "comma-separated mass classes to keep")
	spinClasses := flag.String("spin", "", "comma-separated spin classes to keep")
	eddingtonClasses := flag.String("eddington", "", "comma-separated Eddington classes to keep")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, closer := infrastructure.MustLogger(cfg.Logging)
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	if *outputDir != "" {
		cfg.Paths.ReportsDir = *outputDir
	}

	ctx := context.Background()
	loader := dataset.NewLoader(logger)

	ds, err := loadInput(ctx, loader, *input)
	if err != nil {
		slog.Error("Failed to load dataset", "path", *input, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded dataset", "source", ds.Source, "observations", ds.Count())

	spin := accretion.SpinThresholds{Low: cfg.Dataset.SpinLow, High: cfg.Dataset.SpinHigh}
	thresholds := accretion.ComputeThresholds(ds, spin)
	accretion.ClassifyDataset(ds, thresholds)

	sel := accretion.DefaultSelection(ds.Observations)
	if labels := splitLabels(*massClasses); labels != nil {
		sel.MassClasses = labels
	}
	if labels := splitLabels(*spinClasses); labels != nil {
		sel.SpinClasses = labels
	}
	if labels := splitLabels(*eddingtonClasses); labels != nil {
		sel.EddingtonClasses = labels
	}

	subset := accretion.Filter(ds.Observations, sel)
	summary := accretion.Aggregate(subset, ds)
	slog.Info("Computed summary",
		"selected", summary.Count,
		"jet_power_index", summary.JetPowerIndex)

	filtered := &domain.Dataset{
		Source:       ds.Source,
		LoadedAt:     ds.LoadedAt,
		Observations: subset,
		Columns:      ds.Columns,
	}

	w := exporter.NewCSVWriter(cfg.Paths)
	if err := w.WriteObservations("classified.csv", filtered); err != nil {
		slog.Error("Failed to write classified records", "error", err)
		os.Exit(1)
	}
	if err := w.WriteJSON("summary.json", map[string]any{
		"summary":    summary,
		"thresholds": thresholds,
		"selection":  sel,
	}); err != nil {
		slog.Error("Failed to write summary JSON", "error", err)
		os.Exit(1)
	}
	if err := w.WriteSummaryCSV("summary.csv", summary); err != nil {
		slog.Error("Failed to write summary CSV", "error", err)
		os.Exit(1)
	}

	slog.Info("Report complete", "reports_dir", cfg.Paths.ReportsDir)
}

func loadInput(ctx context.Context, loader *dataset.Loader, path string) (*domain.Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return loader.LoadCSV(ctx, f, filepath.Base(path))
	}
	return loader.LoadFile(ctx, path)
}

// splitLabels parses a comma-separated flag value. Empty means the
// flag was not set and the observed labels apply.
func splitLabels(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}
