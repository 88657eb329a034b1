package roster

import "sort"

// EligibleSet is the authoritative in-scope roster for one course: students
// with an active team membership who are not archived, ordered by name.
//
// There is deliberately no fallback: an empty course yields an empty set,
// never "all students". A wrong roster is worse than an empty one.
type EligibleSet struct {
	students []Student
	teamOf   map[string]string
}

// BuildEligibleSet joins active memberships with the student directory.
// Memberships referencing unknown or archived students are dropped.
func BuildEligibleSet(memberships []Membership, students []Student) *EligibleSet {
	byID := make(map[string]Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}

	set := &EligibleSet{teamOf: make(map[string]string)}
	for _, m := range memberships {
		if !m.Active {
			continue
		}
		s, ok := byID[m.StudentID]
		if !ok || s.Archived {
			continue
		}
		if _, seen := set.teamOf[s.ID]; seen {
			continue
		}
		set.teamOf[s.ID] = m.TeamID
		set.students = append(set.students, s)
	}

	sort.Slice(set.students, func(i, j int) bool {
		if set.students[i].Name != set.students[j].Name {
			return set.students[i].Name < set.students[j].Name
		}
		return set.students[i].ID < set.students[j].ID
	})

	return set
}

// Students returns the eligible students ordered by name ascending.
func (s *EligibleSet) Students() []Student {
	return s.students
}

// IDs returns the eligible student ids in roster order.
func (s *EligibleSet) IDs() []string {
	ids := make([]string, len(s.students))
	for i, st := range s.students {
		ids[i] = st.ID
	}
	return ids
}

// TeamOf returns the raw team id of an eligible student.
func (s *EligibleSet) TeamOf(studentID string) (string, bool) {
	teamID, ok := s.teamOf[studentID]
	return teamID, ok
}

// Contains reports whether a student is in scope.
func (s *EligibleSet) Contains(studentID string) bool {
	_, ok := s.teamOf[studentID]
	return ok
}

// Len returns the number of eligible students.
func (s *EligibleSet) Len() int {
	return len(s.students)
}
