package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Measurement is a single numeric cell from the source spreadsheet.
// A cell that is absent, blank, or non-numeric yields Valid == false;
// downstream mean/quantile logic must skip invalid measurements rather
// than treat the zero Value as data.
type Measurement struct {
	Value float64
	Valid bool
}

// Num returns a valid measurement. NaN and infinities are treated as
// missing, so they can never leak into means or quantiles.
func Num(v float64) Measurement {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Measurement{}
	}
	return Measurement{Value: v, Valid: true}
}

// Missing returns the missing-value marker.
func Missing() Measurement {
	return Measurement{}
}

// MarshalJSON encodes a missing measurement as null so the rendering
// layer can distinguish "no data" from a literal zero.
func (m Measurement) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts a number or null.
func (m *Measurement) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Measurement{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Num(v)
	return nil
}

// Field identifies one of the numeric attributes carried by every
// observation. The loader maps spreadsheet columns onto fields; the
// aggregation engine computes means per field.
type Field string

const (
	FieldMass                  Field = "mass"
	FieldSpin                  Field = "spin"
	FieldEddingtonRatio        Field = "eddington_ratio"
	FieldXrayLuminosity        Field = "xray_luminosity"
	FieldDiskTemperature       Field = "disk_temperature"
	FieldMagneticFlux          Field = "magnetic_flux"
	FieldGravitationalRedshift Field = "gravitational_redshift"
	FieldRadiationPressure     Field = "radiation_pressure"
	FieldBeamingFactor         Field = "beaming_factor"
	FieldHardnessRatio         Field = "hardness_ratio"
	FieldJetEnergy             Field = "jet_energy"
)

// Fields returns all numeric fields in canonical order.
func Fields() []Field {
	return []Field{
		FieldMass,
		FieldSpin,
		FieldEddingtonRatio,
		FieldXrayLuminosity,
		FieldDiskTemperature,
		FieldMagneticFlux,
		FieldGravitationalRedshift,
		FieldRadiationPressure,
		FieldBeamingFactor,
		FieldHardnessRatio,
		FieldJetEnergy,
	}
}

// Classification labels. ClassUnknown is the sentinel for any dimension
// whose underlying measurement is missing.
const (
	ClassUnknown = "Unknown"

	ClassLowMass    = "Low Mass"
	ClassMediumMass = "Medium Mass"
	ClassHighMass   = "High Mass"

	ClassLowSpin    = "Low Spin"
	ClassMediumSpin = "Medium Spin"
	ClassHighSpin   = "High Spin"

	ClassSubEddington   = "Sub-Eddington"
	ClassNearEddington  = "Near-Eddington"
	ClassSuperEddington = "Super-Eddington"
)

// Observation represents one accretion-disk object from the dataset.
// The three class labels are attached once, immediately after load, and
// never recomputed per filter operation.
type Observation struct {
	ID string `json:"id"`

	Mass                  Measurement `json:"mass"`
	Spin                  Measurement `json:"spin"`
	EddingtonRatio        Measurement `json:"eddington_ratio"`
	XrayLuminosity        Measurement `json:"xray_luminosity"`
	DiskTemperature       Measurement `json:"disk_temperature"`
	MagneticFlux          Measurement `json:"magnetic_flux"`
	GravitationalRedshift Measurement `json:"gravitational_redshift"`
	RadiationPressure     Measurement `json:"radiation_pressure"`
	BeamingFactor         Measurement `json:"beaming_factor"`
	HardnessRatio         Measurement `json:"hardness_ratio"`
	JetEnergy             Measurement `json:"jet_energy"`

	MassClass      string `json:"mass_class"`
	SpinClass      string `json:"spin_class"`
	EddingtonClass string `json:"eddington_class"`
}

// Value returns the measurement for the given field.
func (o Observation) Value(f Field) Measurement {
	switch f {
	case FieldMass:
		return o.Mass
	case FieldSpin:
		return o.Spin
	case FieldEddingtonRatio:
		return o.EddingtonRatio
	case FieldXrayLuminosity:
		return o.XrayLuminosity
	case FieldDiskTemperature:
		return o.DiskTemperature
	case FieldMagneticFlux:
		return o.MagneticFlux
	case FieldGravitationalRedshift:
		return o.GravitationalRedshift
	case FieldRadiationPressure:
		return o.RadiationPressure
	case FieldBeamingFactor:
		return o.BeamingFactor
	case FieldHardnessRatio:
		return o.HardnessRatio
	case FieldJetEnergy:
		return o.JetEnergy
	default:
		return Missing()
	}
}

// SetValue assigns the measurement for the given field. Used by the
// loaders when mapping source columns onto observations.
func (o *Observation) SetValue(f Field, m Measurement) {
	switch f {
	case FieldMass:
		o.Mass = m
	case FieldSpin:
		o.Spin = m
	case FieldEddingtonRatio:
		o.EddingtonRatio = m
	case FieldXrayLuminosity:
		o.XrayLuminosity = m
	case FieldDiskTemperature:
		o.DiskTemperature = m
	case FieldMagneticFlux:
		o.MagneticFlux = m
	case FieldGravitationalRedshift:
		o.GravitationalRedshift = m
	case FieldRadiationPressure:
		o.RadiationPressure = m
	case FieldBeamingFactor:
		o.BeamingFactor = m
	case FieldHardnessRatio:
		o.HardnessRatio = m
	case FieldJetEnergy:
		o.JetEnergy = m
	}
}

// Dataset is the full collection of observations loaded for a session.
// It is read-only after load: classification thresholds and every
// population-relative statistic are derived from this set, never from a
// filtered subset. Columns records which known fields were actually
// present in the source file, which drives the absent-column rule for
// radar vectors.
type Dataset struct {
	Source       string         `json:"source"`
	LoadedAt     time.Time      `json:"loaded_at"`
	Observations []Observation  `json:"observations"`
	Columns      map[Field]bool `json:"columns"`
}

// HasColumn reports whether the source file carried a column for f.
func (d *Dataset) HasColumn(f Field) bool {
	return d != nil && d.Columns[f]
}

// Count returns the number of observations.
func (d *Dataset) Count() int {
	if d == nil {
		return 0
	}
	return len(d.Observations)
}
