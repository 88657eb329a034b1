package grading

import "github.com/peergrade-hub/grading-core/internal/domain/evaluation"

// StudentScores holds one student's aggregated review percentages.
// A nil field means "no data", which is distinct from a genuine 0%:
// a student with no reviews gets no grade, not a zero.
type StudentScores struct {
	PeerAvgPct *float64
	SelfPct    *float64
}

// AggregateStudent partitions a student's incoming allocations into peer
// and self reviews and averages each group's percentages. Allocations with
// a nil percentage (unscored or zero-weight) are ignored, not counted as 0.
func AggregateStudent(allocs []evaluation.Allocation, percents map[string]*float64) StudentScores {
	var peer, self []float64
	for _, a := range allocs {
		pct := percents[a.ID]
		if pct == nil {
			continue
		}
		if a.Self() {
			self = append(self, *pct)
		} else {
			peer = append(peer, *pct)
		}
	}

	return StudentScores{
		PeerAvgPct: mean(peer),
		SelfPct:    mean(self),
	}
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}
