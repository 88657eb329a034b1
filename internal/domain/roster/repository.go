package roster

import "context"

// Directory provides read access to the externally-owned student/team
// directory. Implementations must never expose write operations; the
// grading core treats these tables as read-only.
type Directory interface {
	// ListTeams returns all teams in a course, in no particular order.
	ListTeams(ctx context.Context, courseID string) ([]Team, error)

	// ListActiveMemberships returns the active memberships of all teams
	// in a course. Inactive memberships are filtered at the source.
	ListActiveMemberships(ctx context.Context, courseID string) ([]Membership, error)

	// GetStudents returns the students for the given ids, including
	// archived ones. Archival filtering is a domain concern.
	GetStudents(ctx context.Context, ids []string) ([]Student, error)
}
