// Package accretion implements the classification, filtering, and
// aggregation engine behind the accretion-disk analytics dashboard.
//
// The engine is a two-phase pipeline over an immutable dataset:
//
//  1. After load, classification thresholds are computed once against
//     the full population (ComputeThresholds) and every observation is
//     labeled (ClassifyDataset). Mass classes are dataset-relative
//     (33rd/66th percentile of the full set); spin and Eddington
//     classes use fixed thresholds.
//  2. On every filter change, the caller projects a subset (Filter)
//     and recomputes summary statistics over it (Aggregate). Metrics
//     that must stay comparable across filter selections, such as the
//     jet power index, reference the full population rather than the
//     subset.
//
// All functions are pure and never fail: missing or non-numeric inputs
// degrade to the "Unknown" label or a NoData mean, never to an error or
// a NaN that looks like a valid value.
package accretion
