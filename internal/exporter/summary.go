package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"accretioncli/internal/accretion"
)

// WriteJSON writes v as indented JSON, creating parent directories as
// needed. Relative paths land in the reports directory.
func (w *CSVWriter) WriteJSON(filePath string, v any) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("Writing JSON report",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// WriteSummaryCSV flattens a summary into a two-column metric/value
// CSV, one row per statistic plus one per radar axis.
func (w *CSVWriter) WriteSummaryCSV(filePath string, s accretion.Summary) error {
	records := [][]string{
		{"count", strconv.Itoa(s.Count)},
		{"mean_mass", formatMeasurement(s.MeanMass)},
		{"mean_spin", formatMeasurement(s.MeanSpin)},
		{"mean_luminosity", formatMeasurement(s.MeanLuminosity)},
		{"jet_power_index", formatFloat(s.JetPowerIndex)},
	}
	for _, axis := range s.RadarVector {
		records = append(records, []string{
			"radar:" + string(axis.Field),
			formatMeasurement(axis.Mean),
		})
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   []string{"metric", "value"},
		Records:   records,
		BOMPrefix: true,
	})
}
