package postgres

import (
	"context"
	"fmt"

	"github.com/peergrade-hub/grading-core/internal/domain/roster"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER DIRECTORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RosterRepository implements roster.Directory for PostgreSQL. All reads;
// the directory tables are owned by the school directory service.
type RosterRepository struct {
	conn *Connection
}

// NewRosterRepository creates a new RosterRepository.
func NewRosterRepository(conn *Connection) *RosterRepository {
	return &RosterRepository{conn: conn}
}

// ListTeams returns all teams of a course.
func (r *RosterRepository) ListTeams(ctx context.Context, courseID string) ([]roster.Team, error) {
	query := `
		SELECT id, course_id, name
		FROM teams
		WHERE course_id = $1
	`

	rows, err := r.conn.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []roster.Team
	for rows.Next() {
		var t roster.Team
		if err := rows.Scan(&t.ID, &t.CourseID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}

// ListActiveMemberships returns the active team memberships of a course.
// Inactive rows never leave the database.
func (r *RosterRepository) ListActiveMemberships(ctx context.Context, courseID string) ([]roster.Membership, error) {
	query := `
		SELECT m.student_id, m.team_id, m.active
		FROM team_memberships m
		JOIN teams t ON t.id = m.team_id
		WHERE t.course_id = $1 AND m.active
	`

	rows, err := r.conn.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []roster.Membership
	for rows.Next() {
		var m roster.Membership
		if err := rows.Scan(&m.StudentID, &m.TeamID, &m.Active); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	return memberships, rows.Err()
}

// GetStudents returns the directory records for the given ids, archived
// students included. Filtering archived rows is the caller's concern.
func (r *RosterRepository) GetStudents(ctx context.Context, ids []string) ([]roster.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, name, class_name, archived
		FROM students
		WHERE id = ANY($1)
	`

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get students: %w", err)
	}
	defer rows.Close()

	var students []roster.Student
	for rows.Next() {
		var s roster.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.ClassName, &s.Archived); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}

	return students, rows.Err()
}
