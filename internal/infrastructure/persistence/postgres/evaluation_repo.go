package postgres

import (
	"context"
	"fmt"

	"github.com/peergrade-hub/grading-core/internal/domain/evaluation"
	"github.com/peergrade-hub/grading-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EvaluationRepository implements evaluation.Store for PostgreSQL.
type EvaluationRepository struct {
	conn *Connection
}

// NewEvaluationRepository creates a new EvaluationRepository.
func NewEvaluationRepository(conn *Connection) *EvaluationRepository {
	return &EvaluationRepository{conn: conn}
}

// GetEvaluation returns one evaluation by id.
func (r *EvaluationRepository) GetEvaluation(ctx context.Context, id string) (*evaluation.Evaluation, error) {
	query := `
		SELECT id, COALESCE(rubric_id::text, ''), COALESCE(course_id::text, '')
		FROM evaluations
		WHERE id = $1
	`

	var e evaluation.Evaluation
	err := r.conn.QueryRow(ctx, query, id).Scan(&e.ID, &e.RubricID, &e.CourseID)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}

	return &e, nil
}

// GetRubric returns one rubric by id.
func (r *EvaluationRepository) GetRubric(ctx context.Context, id string) (*evaluation.Rubric, error) {
	query := `
		SELECT id, scale_min, scale_max
		FROM rubrics
		WHERE id = $1
	`

	var rb evaluation.Rubric
	err := r.conn.QueryRow(ctx, query, id).Scan(&rb.ID, &rb.ScaleMin, &rb.ScaleMax)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRubricNotFound
		}
		return nil, fmt.Errorf("failed to get rubric: %w", err)
	}

	return &rb, nil
}

// ListCriteria returns the weighted criteria of a rubric.
func (r *EvaluationRepository) ListCriteria(ctx context.Context, rubricID string) ([]evaluation.Criterion, error) {
	query := `
		SELECT id, rubric_id, weight
		FROM rubric_criteria
		WHERE rubric_id = $1
		ORDER BY position, id
	`

	rows, err := r.conn.Query(ctx, query, rubricID)
	if err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	defer rows.Close()

	var criteria []evaluation.Criterion
	for rows.Next() {
		var c evaluation.Criterion
		if err := rows.Scan(&c.ID, &c.RubricID, &c.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan criterion: %w", err)
		}
		criteria = append(criteria, c)
	}

	return criteria, rows.Err()
}

// ListAllocations returns the reviewer/reviewee assignments of an evaluation.
func (r *EvaluationRepository) ListAllocations(ctx context.Context, evaluationID string) ([]evaluation.Allocation, error) {
	query := `
		SELECT id, evaluation_id, reviewer_id, reviewee_id, is_self
		FROM allocations
		WHERE evaluation_id = $1
	`

	rows, err := r.conn.Query(ctx, query, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	var allocations []evaluation.Allocation
	for rows.Next() {
		var a evaluation.Allocation
		if err := rows.Scan(&a.ID, &a.EvaluationID, &a.ReviewerID, &a.RevieweeID, &a.IsSelf); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}

	return allocations, rows.Err()
}

// ListScores returns the submitted scores of an evaluation grouped by
// allocation id.
func (r *EvaluationRepository) ListScores(ctx context.Context, evaluationID string) (map[string][]evaluation.Score, error) {
	query := `
		SELECT s.allocation_id, s.criterion_id, s.value
		FROM scores s
		JOIN allocations a ON a.id = s.allocation_id
		WHERE a.evaluation_id = $1
	`

	rows, err := r.conn.Query(ctx, query, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[string][]evaluation.Score)
	for rows.Next() {
		var s evaluation.Score
		if err := rows.Scan(&s.AllocationID, &s.CriterionID, &s.Value); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores[s.AllocationID] = append(scores[s.AllocationID], s)
	}

	return scores, rows.Err()
}
