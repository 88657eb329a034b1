// Package roster contains the read-only directory model this core consumes:
// students, teams, and team memberships. The directory is owned by an
// external user-management service; this core never mutates it.
package roster

// Student is a member of the school directory.
type Student struct {
	// ID is the directory identifier (UUID in string form).
	ID string

	// Name is the display name used for ordering and presentation.
	Name string

	// ClassName is the class label (e.g., "V4A"), may be empty.
	ClassName string

	// Archived marks a student as globally retired. Archived students
	// never appear in any grading output.
	Archived bool
}

// Team belongs to exactly one course and groups students for an evaluation.
type Team struct {
	// ID is the raw team identifier.
	ID string

	// CourseID links the team to its course.
	CourseID string

	// Name is the display name; neat team numbers are derived from it.
	Name string
}

// Membership links a student to a team. A student has at most one active
// membership per course at a time (enforced upstream, assumed here).
type Membership struct {
	StudentID string
	TeamID    string
	Active    bool
}
