// Package dataset loads accretion observation workbooks into domain
// datasets. Numeric cells that are absent, blank, or unparseable become
// missing measurements rather than load failures; only a workbook with
// no recognizable observation sheet is an error.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"accretioncli/pkg/contracts/domain"
)

// idHeader is the normalized header of the identifier column.
const idHeader = "blackhole_id"

// headerFields maps normalized source column headers onto domain
// fields. Header matching trims whitespace and lowercases, so the
// ragged headers real exports carry still resolve.
var headerFields = map[string]domain.Field{
	"blackhole_mass_solarmass":    domain.FieldMass,
	"spin_factor":                 domain.FieldSpin,
	"eddington_ratio":             domain.FieldEddingtonRatio,
	"xray_luminosity_erg_s":       domain.FieldXrayLuminosity,
	"disk_temperature_inner_k":    domain.FieldDiskTemperature,
	"magnetic_flux_gauss":         domain.FieldMagneticFlux,
	"gravitational_redshift":      domain.FieldGravitationalRedshift,
	"radiation_pressure":          domain.FieldRadiationPressure,
	"relativistic_beaming_factor": domain.FieldBeamingFactor,
	"hardness_ratio":              domain.FieldHardnessRatio,
	"jet_energy_erg":              domain.FieldJetEnergy,
}

// Loader reads observation datasets from Excel workbooks or CSV files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadFile reads an .xlsx workbook from disk.
func (l *Loader) LoadFile(ctx context.Context, path string) (*domain.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return l.loadWorkbook(ctx, f, path)
}

// LoadReader reads an .xlsx workbook from r, e.g. an HTTP upload.
func (l *Loader) LoadReader(ctx context.Context, r io.Reader, source string) (*domain.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return l.loadWorkbook(ctx, f, source)
}

func (l *Loader) loadWorkbook(ctx context.Context, f *excelize.File, source string) (*domain.Dataset, error) {
	var rows [][]string
	var sheetName string

	// Take the first sheet whose header row carries known observation
	// columns. Exports sometimes hide metadata sheets before the data.
	for _, name := range f.GetSheetList() {
		candidate, err := f.GetRows(name)
		if err != nil || len(candidate) == 0 {
			continue
		}
		if headerRowIndex(candidate) >= 0 {
			rows = candidate
			sheetName = name
			break
		}
	}

	if sheetName == "" {
		return nil, fmt.Errorf("no observation sheet found in %s", source)
	}

	l.logger.InfoContext(ctx, "found observation sheet",
		slog.String("source", source),
		slog.String("sheet", sheetName),
		slog.Int("rows", len(rows)))

	return l.buildDataset(ctx, rows, source)
}

// LoadCSV reads the same tabular layout from a CSV stream, used by the
// report tool for re-ingesting previously exported data.
func (l *Loader) LoadCSV(ctx context.Context, r io.Reader, source string) (*domain.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if headerRowIndex(rows) < 0 {
		return nil, fmt.Errorf("no observation header found in %s", source)
	}
	return l.buildDataset(ctx, rows, source)
}

func (l *Loader) buildDataset(ctx context.Context, rows [][]string, source string) (*domain.Dataset, error) {
	headerRow := headerRowIndex(rows)
	if headerRow < 0 {
		return nil, fmt.Errorf("no observation header found in %s", source)
	}

	idCol := -1
	columns := make(map[int]domain.Field)
	for i, header := range rows[headerRow] {
		key := normalizeHeader(header)
		if key == idHeader {
			idCol = i
			continue
		}
		if field, ok := headerFields[key]; ok {
			columns[i] = field
		}
	}

	ds := &domain.Dataset{
		Source:   source,
		LoadedAt: time.Now().UTC(),
		Columns:  make(map[domain.Field]bool, len(columns)),
	}
	for _, field := range columns {
		ds.Columns[field] = true
	}

	missingCells := 0
	for _, row := range rows[headerRow+1:] {
		if emptyRow(row) {
			continue
		}

		var o domain.Observation
		if idCol >= 0 && idCol < len(row) {
			o.ID = strings.TrimSpace(row[idCol])
		}
		if o.ID == "" {
			o.ID = "obj-" + uuid.NewString()[:8]
		}

		for col, field := range columns {
			var raw string
			if col < len(row) {
				raw = row[col]
			}
			m := parseCell(raw)
			if !m.Valid {
				missingCells++
			}
			o.SetValue(field, m)
		}
		ds.Observations = append(ds.Observations, o)
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", source),
		slog.Int("observations", len(ds.Observations)),
		slog.Int("columns", len(ds.Columns)),
		slog.Int("missing_cells", missingCells))

	return ds, nil
}

// headerRowIndex finds the first row that looks like the observation
// header: it must name the identifier or mass column. Returns -1 when
// none of the first rows qualifies.
func headerRowIndex(rows [][]string) int {
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		for _, cell := range rows[i] {
			key := normalizeHeader(cell)
			if key == idHeader {
				return i
			}
			if _, ok := headerFields[key]; ok {
				return i
			}
		}
	}
	return -1
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseCell coerces one spreadsheet cell into a measurement. Grouping
// commas are tolerated; anything else non-numeric is missing, never an
// error.
func parseCell(raw string) domain.Measurement {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Missing()
	}
	s = strings.ReplaceAll(s, ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Missing()
	}
	return domain.Num(v)
}
