package roster

import "sort"

// TeamIndex assigns neat 1-based display numbers to the teams of a course.
// Teams are ordered by (name ascending, id ascending); the resulting
// numbering is a pure function of the team set and is recomputed on every
// call. It must never be persisted.
func TeamIndex(teams []Team) map[string]int {
	index := make(map[string]int, len(teams))
	if len(teams) == 0 {
		return index
	}

	ordered := make([]Team, len(teams))
	copy(ordered, teams)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Name != ordered[j].Name {
			return ordered[i].Name < ordered[j].Name
		}
		return ordered[i].ID < ordered[j].ID
	})

	for i, t := range ordered {
		index[t.ID] = i + 1
	}
	return index
}
