package evaluation

import "context"

// Store provides read access to the externally-owned evaluation data.
// A missing evaluation or rubric is reported via shared.ErrNotFound
// sentinels; callers in this core degrade to empty results instead of
// propagating the error.
type Store interface {
	// GetEvaluation returns an evaluation by id.
	GetEvaluation(ctx context.Context, id string) (*Evaluation, error)

	// GetRubric returns a rubric by id.
	GetRubric(ctx context.Context, id string) (*Rubric, error)

	// ListCriteria returns all criteria of a rubric with defaulted weights.
	ListCriteria(ctx context.Context, rubricID string) ([]Criterion, error)

	// ListAllocations returns all allocations of an evaluation.
	ListAllocations(ctx context.Context, evaluationID string) ([]Allocation, error)

	// ListScores returns all scores of an evaluation grouped by allocation.
	ListScores(ctx context.Context, evaluationID string) (map[string][]Score, error)
}
