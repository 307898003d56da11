package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accretioncli/internal/accretion"
	"accretioncli/internal/config"
	"accretioncli/pkg/contracts/domain"
)

func newTestWriter(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	dir := t.TempDir()
	return NewCSVWriter(config.PathsConfig{ReportsDir: dir}), dir
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "expected UTF-8 BOM")
	rows, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteObservations(t *testing.T) {
	w, dir := newTestWriter(t)

	ds := &domain.Dataset{
		Source:   "test.xlsx",
		LoadedAt: time.Now(),
		Observations: []domain.Observation{
			{
				ID:             "BH-001",
				Mass:           domain.Num(2.5),
				XrayLuminosity: domain.Num(1.2e38),
				MassClass:      domain.ClassLowMass,
				SpinClass:      domain.ClassUnknown,
				EddingtonClass: domain.ClassUnknown,
			},
			{
				ID:        "BH-002",
				MassClass: domain.ClassUnknown,
			},
		},
	}

	require.NoError(t, w.WriteObservations("classified.csv", ds))

	rows := readCSV(t, filepath.Join(dir, "classified.csv"))
	require.Len(t, rows, 3)

	header := rows[0]
	assert.Equal(t, "id", header[0])
	assert.Equal(t, "mass", header[1])
	assert.Equal(t, "xray_luminosity", header[4])
	assert.Equal(t, "eddington_class", header[len(header)-1])

	assert.Equal(t, "BH-001", rows[1][0])
	assert.Equal(t, "2.5", rows[1][1])
	assert.Equal(t, "1.2e+38", rows[1][4])
	assert.Equal(t, domain.ClassLowMass, rows[1][len(header)-3])

	// missing measurements are empty cells
	assert.Equal(t, "", rows[2][1])
}

func TestWriteCSVAppend(t *testing.T) {
	w, dir := newTestWriter(t)

	require.NoError(t, w.WriteCSV("log.csv", WriteOptions{
		Headers: []string{"a", "b"},
		Records: [][]string{{"1", "2"}},
	}))
	require.NoError(t, w.WriteCSV("log.csv", WriteOptions{
		Records: [][]string{{"3", "4"}},
		Append:  true,
	}))

	data, err := os.ReadFile(filepath.Join(dir, "log.csv"))
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}}, rows)
}

func TestWriteCSVAbsolutePath(t *testing.T) {
	w, _ := newTestWriter(t)
	target := filepath.Join(t.TempDir(), "nested", "out.csv")

	require.NoError(t, w.WriteCSV(target, WriteOptions{
		Headers: []string{"x"},
		Records: [][]string{{"1"}},
	}))

	_, err := os.Stat(target)
	assert.NoError(t, err)
}

func TestWriteJSON(t *testing.T) {
	w, dir := newTestWriter(t)

	summary := accretion.Summary{Count: 2, JetPowerIndex: 61.9}
	require.NoError(t, w.WriteJSON("summary.json", summary))

	data, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)

	var got accretion.Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2, got.Count)
	assert.InDelta(t, 61.9, got.JetPowerIndex, 1e-9)
}

func TestWriteSummaryCSV(t *testing.T) {
	w, dir := newTestWriter(t)

	s := accretion.Summary{
		Count:         1,
		MeanMass:      domain.Num(9),
		MeanSpin:      domain.Missing(),
		JetPowerIndex: 100,
		RadarVector: []accretion.RadarAxis{
			{Field: domain.FieldHardnessRatio, Label: "Hardness Ratio", Mean: domain.Num(0.8)},
		},
	}
	require.NoError(t, w.WriteSummaryCSV("summary.csv", s))

	rows := readCSV(t, filepath.Join(dir, "summary.csv"))
	assert.Equal(t, []string{"metric", "value"}, rows[0])
	assert.Contains(t, rows, []string{"count", "1"})
	assert.Contains(t, rows, []string{"mean_mass", "9"})
	assert.Contains(t, rows, []string{"mean_spin", ""})
	assert.Contains(t, rows, []string{"jet_power_index", "100.00"})
	assert.Contains(t, rows, []string{"radar:hardness_ratio", "0.8"})
}

func TestFormatMeasurement(t *testing.T) {
	assert.Equal(t, "", formatMeasurement(domain.Missing()))
	assert.Equal(t, "0.3", formatMeasurement(domain.Num(0.3)))
	assert.Equal(t, "1e+40", formatMeasurement(domain.Num(1e40)))
}
