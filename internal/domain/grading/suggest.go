package grading

import "math"

// Suggested grades live on a 1–10 scale; peer assessment dominates the
// blend and the self assessment may shift the result by at most ±10%.
const (
	MinSuggestedGrade = 1.0
	MaxSuggestedGrade = 10.0

	peerWeight = 0.75
	selfWeight = 0.25

	sprCorrectionMin = 0.90
	sprCorrectionMax = 1.10
)

// SuggestedGrade blends a student's peer average and self assessment into a
// 1–10 grade, or nil when neither exists.
//
// An avgScore of exactly 0 counts as "no peer data" here: at this step a
// unanimous 0% is indistinguishable from an unscored student. The
// aggregation layer keeps the distinction via nil; the conflation is a
// deliberate carry-over of the platform's grading policy.
func SuggestedGrade(avgScore float64, selfPct *float64) *float64 {
	var p, s *float64
	if avgScore > 0 {
		v := avgScore / 10.0
		p = &v
	}
	if selfPct != nil && *selfPct > 0 {
		v := *selfPct / 10.0
		s = &v
	}

	var suggested float64
	switch {
	case p != nil && s != nil:
		suggested = peerWeight**p + selfWeight**s
		suggested *= sprCorrection(*p, *s)
	case p != nil:
		suggested = *p
	case s != nil:
		suggested = *s
	default:
		return nil
	}

	suggested = math.Round(suggested*10) / 10
	if suggested < MinSuggestedGrade {
		suggested = MinSuggestedGrade
	} else if suggested > MaxSuggestedGrade {
		suggested = MaxSuggestedGrade
	}
	return &suggested
}

// sprCorrection is the clamped self-to-peer correction factor applied
// inside the blend. Not the same number as the reported SelfToPeerRatio.
func sprCorrection(p, s float64) float64 {
	if p <= 0 {
		return 1.0
	}
	spr := s / p
	if spr < sprCorrectionMin {
		return sprCorrectionMin
	}
	if spr > sprCorrectionMax {
		return sprCorrectionMax
	}
	return spr
}

// SelfToPeerRatio is the unclamped self/peer ratio persisted and reported
// in grade metadata: selfPct / avgScore when both are present and the
// average is positive, else 0.0.
func SelfToPeerRatio(avgScore float64, selfPct *float64) float64 {
	if selfPct == nil || avgScore <= 0 {
		return 0.0
	}
	return *selfPct / avgScore
}
