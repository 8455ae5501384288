package service

import (
	"context"
	"time"

	"vidtube.com/cmd/interaction/infras/redis"
)

// RedisPendingMarks backs PendingMarker with the shared redis client.
type RedisPendingMarks struct{}

func (RedisPendingMarks) Mark(ctx context.Context, parentType, parentID string) error {
	return redis.MarkPendingDeletion(ctx, parentType, parentID)
}

func (RedisPendingMarks) Clear(ctx context.Context, parentType, parentID string) error {
	return redis.ClearPendingDeletion(ctx, parentType, parentID)
}

func (RedisPendingMarks) Stale(ctx context.Context, olderThan time.Duration) ([]redis.PendingDeletion, error) {
	return redis.StalePendingDeletions(ctx, olderThan)
}
