package accretion

import (
	"accretioncli/pkg/contracts/domain"
)

// Quantile positions for the dataset-relative mass classes.
const (
	MassQuantileLow  = 0.33
	MassQuantileHigh = 0.66
)

// Fixed Eddington-regime boundaries.
const (
	EddingtonSubMax  = 0.1
	EddingtonNearMax = 1.0
)

// SpinThresholds holds the fixed spin-class boundaries. Two variants of
// this system exist in the wild (0.3/0.7 and 0.33/0.66); the default
// follows the original dashboard's 0.3/0.7.
type SpinThresholds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// DefaultSpinThresholds is the canonical spin-class variant.
var DefaultSpinThresholds = SpinThresholds{Low: 0.3, High: 0.7}

// Thresholds carries every boundary the classifier needs. Mass
// boundaries are derived from the full dataset once per session and
// passed in explicitly; they are never recomputed for a filtered
// subset. MassQ33/MassQ66 are missing when the dataset has no
// non-missing mass values at all.
type Thresholds struct {
	MassQ33 domain.Measurement `json:"mass_q33"`
	MassQ66 domain.Measurement `json:"mass_q66"`
	Spin    SpinThresholds     `json:"spin"`
}

// ComputeThresholds derives the mass quantile boundaries from the full
// dataset. With fewer than 3 non-missing masses the quantiles are
// best-effort: boundaries may coincide and some buckets stay empty.
func ComputeThresholds(ds *domain.Dataset, spin SpinThresholds) Thresholds {
	t := Thresholds{Spin: spin}
	if ds == nil {
		return t
	}

	masses := fieldValues(ds.Observations, domain.FieldMass)
	if q1, ok := Percentile(masses, MassQuantileLow); ok {
		t.MassQ33 = domain.Num(q1)
	}
	if q2, ok := Percentile(masses, MassQuantileHigh); ok {
		t.MassQ66 = domain.Num(q2)
	}
	return t
}

// Classify assigns the three class labels for one observation. It is
// pure and total: a missing measurement yields ClassUnknown for that
// dimension only. Boundary ties fall into the higher bucket (strict <
// comparisons throughout).
func Classify(o domain.Observation, t Thresholds) (massClass, spinClass, eddClass string) {
	return classifyMass(o.Mass, t), classifySpin(o.Spin, t.Spin), classifyEddington(o.EddingtonRatio)
}

// ClassifyDataset labels every observation in place. Called once,
// immediately after load; labels are never recomputed per filter.
func ClassifyDataset(ds *domain.Dataset, t Thresholds) {
	if ds == nil {
		return
	}
	for i := range ds.Observations {
		o := &ds.Observations[i]
		o.MassClass, o.SpinClass, o.EddingtonClass = Classify(*o, t)
	}
}

func classifyMass(m domain.Measurement, t Thresholds) string {
	if !m.Valid || !t.MassQ33.Valid || !t.MassQ66.Valid {
		return domain.ClassUnknown
	}
	switch {
	case m.Value < t.MassQ33.Value:
		return domain.ClassLowMass
	case m.Value < t.MassQ66.Value:
		return domain.ClassMediumMass
	default:
		return domain.ClassHighMass
	}
}

func classifySpin(s domain.Measurement, t SpinThresholds) string {
	if !s.Valid {
		return domain.ClassUnknown
	}
	switch {
	case s.Value < t.Low:
		return domain.ClassLowSpin
	case s.Value < t.High:
		return domain.ClassMediumSpin
	default:
		return domain.ClassHighSpin
	}
}

func classifyEddington(e domain.Measurement) string {
	if !e.Valid {
		return domain.ClassUnknown
	}
	switch {
	case e.Value < EddingtonSubMax:
		return domain.ClassSubEddington
	case e.Value <= EddingtonNearMax:
		return domain.ClassNearEddington
	default:
		return domain.ClassSuperEddington
	}
}
