package accretion

import (
	"accretioncli/pkg/contracts/domain"
)

// FilterSelection is the user-chosen set of allowed labels per
// classification dimension. Dimensions are AND-combined; labels within
// a dimension are OR-combined. An empty dimension allows nothing, so it
// yields an empty subset. A label that does not occur in the dataset
// simply matches zero records.
type FilterSelection struct {
	MassClasses      []string `json:"mass_classes" validate:"max=16,dive,min=1,max=64"`
	SpinClasses      []string `json:"spin_classes" validate:"max=16,dive,min=1,max=64"`
	EddingtonClasses []string `json:"eddington_classes" validate:"max=16,dive,min=1,max=64"`
}

// DefaultSelection returns the selection that matches every
// observation: the label sets actually observed in obs, in first-seen
// order. Labels with zero occurrences never appear, so they are never
// offered as filter options.
func DefaultSelection(obs []domain.Observation) FilterSelection {
	var sel FilterSelection
	seenMass := make(map[string]bool)
	seenSpin := make(map[string]bool)
	seenEdd := make(map[string]bool)

	for _, o := range obs {
		if !seenMass[o.MassClass] {
			seenMass[o.MassClass] = true
			sel.MassClasses = append(sel.MassClasses, o.MassClass)
		}
		if !seenSpin[o.SpinClass] {
			seenSpin[o.SpinClass] = true
			sel.SpinClasses = append(sel.SpinClasses, o.SpinClass)
		}
		if !seenEdd[o.EddingtonClass] {
			seenEdd[o.EddingtonClass] = true
			sel.EddingtonClasses = append(sel.EddingtonClasses, o.EddingtonClass)
		}
	}
	return sel
}

// Filter returns the observations whose three class labels are all
// allowed by sel. It is a pure projection: obs is never mutated, and
// applying the same selection twice returns the same subset.
func Filter(obs []domain.Observation, sel FilterSelection) []domain.Observation {
	mass := toSet(sel.MassClasses)
	spin := toSet(sel.SpinClasses)
	edd := toSet(sel.EddingtonClasses)

	subset := make([]domain.Observation, 0, len(obs))
	for _, o := range obs {
		if mass[o.MassClass] && spin[o.SpinClass] && edd[o.EddingtonClass] {
			subset = append(subset, o)
		}
	}
	return subset
}

func toSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return set
}
