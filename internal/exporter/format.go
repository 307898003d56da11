package exporter

import (
	"strconv"

	"accretioncli/pkg/contracts/domain"
)

// formatMeasurement renders a measurement for CSV output. Missing
// values become empty cells. The shortest round-trip representation
// keeps wide-ranged physical values (solar masses through erg/s)
// readable without losing precision.
func formatMeasurement(m domain.Measurement) string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'g', -1, 64)
}

// formatFloat formats a derived statistic with fixed precision.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
