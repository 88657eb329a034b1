// Package grading implements the grade aggregation engine: it turns raw
// per-criterion peer and self scores into weighted percentages, per-student
// averages, a within-team fairness factor, and a 1–10 suggested grade.
package grading

import "github.com/peergrade-hub/grading-core/internal/domain/evaluation"

// AllocationPercent converts the raw scores of one allocation into a single
// weighted 0–100 percentage, normalized against the rubric scale so that
// rubrics with different scales stay comparable.
//
// Returns nil when the allocation has no scores or when the total weight is
// not positive: an unscored allocation contributes nothing, not a zero.
// Raw values outside the scale pass through untouched (the percentage may
// then leave [0,100]) unless clamp is set.
func AllocationPercent(scores []evaluation.Score, scale evaluation.Scale, weights map[string]float64, clamp bool) *float64 {
	if len(scores) == 0 {
		return nil
	}

	span := float64(scale.Span())
	var numerator, denominator float64
	for _, s := range scores {
		norm := (s.Value - float64(scale.Min)) / span
		if clamp {
			if norm < 0 {
				norm = 0
			} else if norm > 1 {
				norm = 1
			}
		}
		w := weights[s.CriterionID]
		numerator += w * norm
		denominator += w
	}

	if denominator <= 0 {
		return nil
	}

	pct := 100.0 * numerator / denominator
	return &pct
}

// WeightMap builds the criterion-id → weight lookup for a rubric.
// Criteria missing from the map weigh zero at normalization time.
func WeightMap(criteria []evaluation.Criterion) map[string]float64 {
	weights := make(map[string]float64, len(criteria))
	for _, c := range criteria {
		weights[c.ID] = c.Weight
	}
	return weights
}
