package grade

import "context"

// Repository persists grade overrides. The grades table is the only mutable
// shared resource owned by the grading core.
type Repository interface {
	// Upsert inserts or updates the grade identified by
	// (evaluation_id, user_id) as a single atomic statement backed by a
	// storage-level uniqueness constraint, so concurrent draft/publish
	// calls cannot produce duplicate rows.
	Upsert(ctx context.Context, g *Grade) error

	// ListByEvaluation returns the grade rows of an evaluation restricted
	// to the given user ids. An empty id list returns no rows without
	// touching storage.
	ListByEvaluation(ctx context.Context, evaluationID string, userIDs []string) ([]*Grade, error)
}
