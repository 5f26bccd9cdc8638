package redis

import (
	"context"
	"errors"
	"time"

	"github.com/classpulse/participation-hub/internal/domain/participation"
)

// AggregateKey builds the cache key for one course/student pair.
func AggregateKey(courseID, studentID string) string {
	return PrefixAggregate + courseID + ":" + studentID
}

// AggregateCache implements participation.AggregateCache on the generic Cache.
type AggregateCache struct {
	cache *Cache
}

// NewAggregateCache creates a new AggregateCache.
func NewAggregateCache(cache *Cache) *AggregateCache {
	return &AggregateCache{cache: cache}
}

// Get returns the cached aggregate, or (nil, nil) on a miss so callers fall
// back to recomputation without branching on error kinds.
func (a *AggregateCache) Get(ctx context.Context, courseID, studentID string) (*participation.Aggregate, error) {
	var agg participation.Aggregate
	err := a.cache.Get(ctx, AggregateKey(courseID, studentID), &agg)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// Set stores the aggregate with a TTL.
func (a *AggregateCache) Set(ctx context.Context, courseID, studentID string, agg participation.Aggregate, ttl time.Duration) error {
	return a.cache.Set(ctx, AggregateKey(courseID, studentID), agg, ttl)
}

// Invalidate drops the cached aggregate.
func (a *AggregateCache) Invalidate(ctx context.Context, courseID, studentID string) error {
	return a.cache.Delete(ctx, AggregateKey(courseID, studentID))
}
