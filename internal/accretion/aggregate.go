package accretion

import (
	"accretioncli/pkg/contracts/domain"
)

// JetQuantile is the full-population reference quantile for the jet
// power index.
const JetQuantile = 0.90

// RadarAxis is one spoke of the accretion-physics radar profile.
type RadarAxis struct {
	Field domain.Field       `json:"field"`
	Label string             `json:"label"`
	Mean  domain.Measurement `json:"mean"`
}

// radarAxes defines the radar profile in render order.
var radarAxes = []struct {
	field domain.Field
	label string
}{
	{domain.FieldMagneticFlux, "Magnetic Flux"},
	{domain.FieldGravitationalRedshift, "Gravitational Redshift"},
	{domain.FieldRadiationPressure, "Radiation Pressure"},
	{domain.FieldBeamingFactor, "Relativistic Beaming"},
	{domain.FieldHardnessRatio, "Hardness Ratio"},
	{domain.FieldEddingtonRatio, "Eddington Ratio"},
}

// Summary holds the aggregate statistics for one filtered subset.
// Means are missing (JSON null) when the subset has no usable values,
// never zero or NaN pretending to be data. JetPowerIndex is always in
// [0, 100] and is population-referenced: it divides the subset's mean
// jet energy by the full dataset's 90th percentile, so the index stays
// comparable as the user narrows the view.
type Summary struct {
	Count          int                `json:"count"`
	MeanMass       domain.Measurement `json:"mean_mass"`
	MeanSpin       domain.Measurement `json:"mean_spin"`
	MeanLuminosity domain.Measurement `json:"mean_luminosity"`
	RadarVector    []RadarAxis        `json:"radar_vector"`
	JetPowerIndex  float64            `json:"jet_power_index"`
}

// Mean computes the arithmetic mean of field f over the non-missing
// values in obs. The result is missing when there are none.
func Mean(obs []domain.Observation, f domain.Field) domain.Measurement {
	sum := 0.0
	n := 0
	for _, o := range obs {
		if m := o.Value(f); m.Valid {
			sum += m.Value
			n++
		}
	}
	if n == 0 {
		return domain.Missing()
	}
	return domain.Num(sum / float64(n))
}

// Aggregate computes the summary for subset against the full dataset.
// It never fails: an empty subset yields Count 0, missing means, and a
// zero jet power index.
func Aggregate(subset []domain.Observation, full *domain.Dataset) Summary {
	s := Summary{
		Count:          len(subset),
		MeanMass:       Mean(subset, domain.FieldMass),
		MeanSpin:       Mean(subset, domain.FieldSpin),
		MeanLuminosity: Mean(subset, domain.FieldXrayLuminosity),
		RadarVector:    radarVector(subset, full),
		JetPowerIndex:  jetPowerIndex(subset, full),
	}
	return s
}

// radarVector builds the per-axis means. A column that was entirely
// absent from the source file contributes a literal 0 so the radar
// chart keeps its shape; a present column with no valid values in the
// subset stays missing, which is a different condition.
func radarVector(subset []domain.Observation, full *domain.Dataset) []RadarAxis {
	vector := make([]RadarAxis, 0, len(radarAxes))
	for _, axis := range radarAxes {
		mean := domain.Num(0)
		if full.HasColumn(axis.field) {
			mean = Mean(subset, axis.field)
		}
		vector = append(vector, RadarAxis{Field: axis.field, Label: axis.label, Mean: mean})
	}
	return vector
}

// jetPowerIndex scores the subset's mean jet energy against the full
// population's 90th percentile, capped at 100. It is 0 whenever the
// reference percentile is zero or undefined, or the subset carries no
// jet-energy data.
func jetPowerIndex(subset []domain.Observation, full *domain.Dataset) float64 {
	if full == nil {
		return 0
	}
	p90, ok := Percentile(fieldValues(full.Observations, domain.FieldJetEnergy), JetQuantile)
	if !ok || p90 == 0 {
		return 0
	}
	mean := Mean(subset, domain.FieldJetEnergy)
	if !mean.Valid {
		return 0
	}
	score := 100 * mean.Value / p90
	if score > 100 {
		return 100
	}
	return score
}
