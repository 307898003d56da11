// Package exporter writes classified observations and summary reports
// to disk for the report CLI and download endpoints.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"accretioncli/internal/config"
	"accretioncli/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality.
type CSVWriter struct {
	paths config.PathsConfig
}

// NewCSVWriter creates a new CSV writer instance.
func NewCSVWriter(paths config.PathsConfig) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// observationHeaders is the column order of the classified-record CSV:
// the identifier, every physical field, then the three class labels.
func observationHeaders() []string {
	headers := []string{"id"}
	for _, f := range domain.Fields() {
		headers = append(headers, string(f))
	}
	return append(headers, "mass_class", "spin_class", "eddington_class")
}

// WriteObservations writes the classified dataset as a CSV report.
// Missing measurements become empty cells.
func (w *CSVWriter) WriteObservations(filePath string, ds *domain.Dataset) error {
	records := make([][]string, 0, ds.Count())
	for _, o := range ds.Observations {
		row := []string{o.ID}
		for _, f := range domain.Fields() {
			row = append(row, formatMeasurement(o.Value(f)))
		}
		row = append(row, o.MassClass, o.SpinClass, o.EddingtonClass)
		records = append(records, row)
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   observationHeaders(),
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteCSV writes data to a CSV file with the given options.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// BOM helps Excel recognize UTF-8
	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return writer.Error()
}

// resolvePath resolves a relative path into the reports directory.
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(w.paths.ReportsDir, filePath)
}
