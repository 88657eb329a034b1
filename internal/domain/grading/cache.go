package grading

import (
	"context"
	"time"
)

// PreviewCache caches computed previews for a short TTL. Previews are pure
// functions of the read-only platform data, so a stale entry can only lag
// new scores by the TTL, never show an ineligible student as eligible
// beyond it.
type PreviewCache interface {
	// Get returns the cached preview for (evaluation, course override),
	// or (nil, nil) on a miss.
	Get(ctx context.Context, evaluationID, courseID string) (*Preview, error)

	// Set stores a preview with the given TTL, keyed by the requested
	// (evaluation, course override) pair. The override may differ from the
	// resolved course inside the preview, so the key carries the request.
	Set(ctx context.Context, evaluationID, courseID string, p *Preview, ttl time.Duration) error

	// Delete drops the cached preview for (evaluation, course override).
	Delete(ctx context.Context, evaluationID, courseID string) error
}
