package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"accretioncli/internal/accretion"
	"accretioncli/internal/dataset"
	"accretioncli/internal/infrastructure"
	"accretioncli/pkg/contracts/domain"
)

func testWorkbook(t *testing.T) *strings.Reader {
	t.Helper()

	rows := [][]interface{}{
		{"BlackHole_ID", "BlackHole_Mass_SolarMass", "Spin_Factor", "Eddington_Ratio", "Jet_Energy_erg"},
		{"BH-001", 1, 0.2, 0.05, 10},
		{"BH-002", 5, 0.5, 0.5, 20},
		{"BH-003", 9, 0.9, 2.0, 100},
	}

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, cell := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", axis, cell))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return strings.NewReader(buf.String())
}

func newTestService() *AnalyticsService {
	return NewAnalyticsService(
		dataset.NewLoader(nil),
		accretion.DefaultSpinThresholds,
		nil,
		infrastructure.NewMetrics(),
		nil,
	)
}

func TestLoadFromReaderClassifies(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	status, err := svc.LoadFromReader(ctx, testWorkbook(t), "session.xlsx", false)
	require.NoError(t, err)

	assert.True(t, status.Loaded)
	assert.Equal(t, 3, status.Observations)
	require.True(t, status.Thresholds.MassQ33.Valid)
	assert.InDelta(t, 3.64, status.Thresholds.MassQ33.Value, 1e-9)
	assert.InDelta(t, 6.28, status.Thresholds.MassQ66.Value, 1e-9)

	records, err := svc.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, domain.ClassLowMass, records[0].MassClass)
	assert.Equal(t, domain.ClassMediumMass, records[1].MassClass)
	assert.Equal(t, domain.ClassHighMass, records[2].MassClass)
}

func TestLoadTwiceWithoutReplace(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.LoadFromReader(ctx, testWorkbook(t), "first.xlsx", false)
	require.NoError(t, err)

	_, err = svc.LoadFromReader(ctx, testWorkbook(t), "second.xlsx", false)
	assert.ErrorIs(t, err, ErrAlreadyLoaded)

	status, err := svc.LoadFromReader(ctx, testWorkbook(t), "second.xlsx", true)
	require.NoError(t, err)
	assert.Equal(t, "second.xlsx", status.Source)
}

func TestOperationsBeforeLoad(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	status := svc.Status(ctx)
	assert.False(t, status.Loaded)

	_, err := svc.ObservedLabels(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = svc.Records(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = svc.Recompute(ctx, RecomputeRequest{})
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestRecomputeDefaultsNilDimensions(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.LoadFromReader(ctx, testWorkbook(t), "session.xlsx", false)
	require.NoError(t, err)

	// Nil selection on every dimension means "everything observed".
	result, err := svc.Recompute(ctx, RecomputeRequest{IncludeRecords: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Summary.Count)
	assert.Len(t, result.Records, 3)
	assert.NotEmpty(t, result.Selection.MassClasses)
}

func TestRecomputeExplicitSelection(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.LoadFromReader(ctx, testWorkbook(t), "session.xlsx", false)
	require.NoError(t, err)

	result, err := svc.Recompute(ctx, RecomputeRequest{
		Selection: accretion.FilterSelection{
			MassClasses:      []string{domain.ClassHighMass},
			SpinClasses:      []string{domain.ClassHighSpin},
			EddingtonClasses: []string{domain.ClassSuperEddington},
		},
		IncludeRecords: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Count)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "BH-003", result.Records[0].ID)
	require.True(t, result.Summary.MeanMass.Valid)
	assert.InDelta(t, 9.0, result.Summary.MeanMass.Value, 1e-9)
}

func TestRecomputeEmptyDimensionIsEmptySubset(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.LoadFromReader(ctx, testWorkbook(t), "session.xlsx", false)
	require.NoError(t, err)

	// Empty (non-nil) slice allows nothing on that dimension.
	result, err := svc.Recompute(ctx, RecomputeRequest{
		Selection: accretion.FilterSelection{
			MassClasses:      []string{},
			SpinClasses:      []string{domain.ClassLowSpin, domain.ClassMediumSpin, domain.ClassHighSpin},
			EddingtonClasses: []string{domain.ClassSubEddington, domain.ClassNearEddington, domain.ClassSuperEddington},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Count)
	assert.False(t, result.Summary.MeanMass.Valid)
}

func TestObservedLabels(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.LoadFromReader(ctx, testWorkbook(t), "session.xlsx", false)
	require.NoError(t, err)

	labels, err := svc.ObservedLabels(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.ClassLowMass, domain.ClassMediumMass, domain.ClassHighMass}, labels.MassClasses)
	assert.ElementsMatch(t, []string{domain.ClassSubEddington, domain.ClassNearEddington, domain.ClassSuperEddington}, labels.EddingtonClasses)
}
