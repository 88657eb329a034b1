package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/peergrade-hub/grading-core/internal/domain/grade"
	"github.com/peergrade-hub/grading-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRADE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GradeRepository implements grade.Repository for PostgreSQL.
type GradeRepository struct {
	conn *Connection
}

// NewGradeRepository creates a new GradeRepository.
func NewGradeRepository(conn *Connection) *GradeRepository {
	return &GradeRepository{conn: conn}
}

// Upsert writes one grade row as a single statement. The unique index on
// (evaluation_id, user_id) resolves concurrent saves to one row; the
// losing insert turns into an update of the same row instead of failing.
func (r *GradeRepository) Upsert(ctx context.Context, g *grade.Grade) error {
	query := `
		INSERT INTO grades (
			id, evaluation_id, user_id, grade, override_reason, meta,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (evaluation_id, user_id) DO UPDATE SET
			grade = EXCLUDED.grade,
			override_reason = EXCLUDED.override_reason,
			meta = EXCLUDED.meta,
			updated_at = EXCLUDED.updated_at
	`

	metaJSON, err := json.Marshal(g.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal grade meta: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		g.ID,
		g.EvaluationID,
		g.UserID,
		g.Grade,
		g.OverrideReason,
		metaJSON,
		g.CreatedAt,
		g.UpdatedAt,
	)
	if err != nil {
		if IsCheckViolation(err) {
			return shared.ErrGradeOutOfRange
		}
		return fmt.Errorf("failed to upsert grade: %w", err)
	}

	return nil
}

// ListByEvaluation returns the grade rows of an evaluation restricted to
// the given user ids. An empty id list short-circuits without a query.
func (r *GradeRepository) ListByEvaluation(ctx context.Context, evaluationID string, userIDs []string) ([]*grade.Grade, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, evaluation_id, user_id, grade, override_reason, meta,
			   created_at, updated_at
		FROM grades
		WHERE evaluation_id = $1 AND user_id = ANY($2)
	`

	rows, err := r.conn.Query(ctx, query, evaluationID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	defer rows.Close()

	var grades []*grade.Grade
	for rows.Next() {
		var g grade.Grade
		var metaJSON []byte

		if err := rows.Scan(
			&g.ID,
			&g.EvaluationID,
			&g.UserID,
			&g.Grade,
			&g.OverrideReason,
			&metaJSON,
			&g.CreatedAt,
			&g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}

		g.Meta = grade.Meta{}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &g.Meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal grade meta: %w", err)
			}
		}

		grades = append(grades, &g)
	}

	return grades, rows.Err()
}
