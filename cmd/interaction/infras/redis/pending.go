package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const pendingPrefix = "pending_delete:"

// PendingDeletion is a cascade that was started but not confirmed done.
// The mark is written before the first dependent delete and cleared only
// after the parent document is gone, so a crash anywhere in between leaves
// a mark for the reconciler to re-drive.
type PendingDeletion struct {
	ParentType string
	ParentID   string
	MarkedAt   time.Time
}

func MarkPendingDeletion(ctx context.Context, parentType, parentID string) error {
	key := pendingPrefix + parentType + ":" + parentID
	return rdb.Set(ctx, key, time.Now().Unix(), 0).Err()
}

func ClearPendingDeletion(ctx context.Context, parentType, parentID string) error {
	key := pendingPrefix + parentType + ":" + parentID
	return rdb.Del(ctx, key).Err()
}

// StalePendingDeletions lists marks older than the given age.
func StalePendingDeletions(ctx context.Context, olderThan time.Duration) ([]PendingDeletion, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	var stale []PendingDeletion

	iter := rdb.Scan(ctx, 0, pendingPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := rdb.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ts > cutoff {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(key, pendingPrefix), ":", 2)
		if len(parts) != 2 {
			continue
		}
		stale = append(stale, PendingDeletion{
			ParentType: parts[0],
			ParentID:   parts[1],
			MarkedAt:   time.Unix(ts, 0),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan pending deletions: %w", err)
	}
	return stale, nil
}
