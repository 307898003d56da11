package accretion

import (
	"math"
	"sort"

	"accretioncli/pkg/contracts/domain"
)

// Percentile returns the value at percentile p (0..1) of sorted using
// linear interpolation between the two nearest ranks, matching the
// default behavior of common dataframe libraries. The second return is
// false when sorted is empty.
func Percentile(sorted []float64, p float64) (float64, bool) {
	n := len(sorted)
	if n == 0 {
		return 0, false
	}
	if p <= 0 {
		return sorted[0], true
	}
	if p >= 1 {
		return sorted[n-1], true
	}

	index := p * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower], true
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight, true
}

// fieldValues collects the non-missing values of f across obs, sorted
// ascending, ready for Percentile.
func fieldValues(obs []domain.Observation, f domain.Field) []float64 {
	values := make([]float64, 0, len(obs))
	for _, o := range obs {
		if m := o.Value(f); m.Valid {
			values = append(values, m.Value)
		}
	}
	sort.Float64s(values)
	return values
}
