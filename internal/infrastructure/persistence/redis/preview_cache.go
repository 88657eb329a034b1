package redis

import (
	"context"
	"errors"
	"time"

	"github.com/peergrade-hub/grading-core/internal/domain/grading"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREVIEW CACHE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PreviewCache implements grading.PreviewCache on top of Redis. Previews
// are cached per (evaluation, course override) pair because an override
// changes the roster and with it every computed row.
type PreviewCache struct {
	cache *Cache
}

// NewPreviewCache creates a new PreviewCache.
func NewPreviewCache(cache *Cache) *PreviewCache {
	return &PreviewCache{cache: cache}
}

// Get returns the cached preview, or (nil, nil) on a miss.
func (p *PreviewCache) Get(ctx context.Context, evaluationID, courseID string) (*grading.Preview, error) {
	var preview grading.Preview
	err := p.cache.Get(ctx, PreviewKey(evaluationID, courseID), &preview)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	return &preview, nil
}

// Set stores a preview under the requested evaluation and course key.
func (p *PreviewCache) Set(ctx context.Context, evaluationID, courseID string, preview *grading.Preview, ttl time.Duration) error {
	if preview == nil {
		return ErrCacheNilValue
	}
	return p.cache.Set(ctx, PreviewKey(evaluationID, courseID), preview, ttl)
}

// Delete drops the cached preview for one evaluation and course pair.
func (p *PreviewCache) Delete(ctx context.Context, evaluationID, courseID string) error {
	return p.cache.Delete(ctx, PreviewKey(evaluationID, courseID))
}
