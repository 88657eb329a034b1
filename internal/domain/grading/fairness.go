package grading

// ContributionFactors computes the group contribution factor (GCF) for each
// student: their peer average divided by their own team's peer-average mean.
// This is a within-team correction: it answers "how does this student
// compare to their teammates", not "how good are they absolutely".
//
// Grouping uses the raw team id, never the neat display number. Students
// without a peer average, without a team, or on a team with a non-positive
// mean all fall back to 1.0 (treated as perfectly average). The factor is a
// ratio with no floor or ceiling.
func ContributionFactors(peerAvg map[string]*float64, teamOf func(studentID string) (string, bool)) map[string]float64 {
	teamSum := make(map[string]float64)
	teamCount := make(map[string]int)
	for studentID, avg := range peerAvg {
		if avg == nil {
			continue
		}
		teamID, ok := teamOf(studentID)
		if !ok {
			continue
		}
		teamSum[teamID] += *avg
		teamCount[teamID]++
	}

	factors := make(map[string]float64, len(peerAvg))
	for studentID, avg := range peerAvg {
		factors[studentID] = 1.0
		if avg == nil {
			continue
		}
		teamID, ok := teamOf(studentID)
		if !ok {
			continue
		}
		count := teamCount[teamID]
		if count == 0 {
			continue
		}
		teamMean := teamSum[teamID] / float64(count)
		if teamMean > 0 {
			factors[studentID] = *avg / teamMean
		}
	}
	return factors
}
