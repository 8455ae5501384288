package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"vidtube.com/pkg/constants"
)

// CommentRateCount bumps and returns the viewer's comment count inside the
// current rate window. Callers treat redis failure as "not limited": the
// guard must never block users when the cache is down.
func CommentRateCount(ctx context.Context, userID string) (int64, error) {
	key := fmt.Sprintf("comment_rate:%s", userID)
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		rdb.Expire(ctx, key, constants.CommentRateWindow)
	}
	return count, nil
}

// CheckDuplicateComment reports whether the same user posted the same
// content inside the duplicate window.
func CheckDuplicateComment(ctx context.Context, userID, content string) (bool, error) {
	sum := sha256.Sum256([]byte(content))
	key := fmt.Sprintf("comment_dup:%s:%s", userID, hex.EncodeToString(sum[:8]))
	set, err := rdb.SetNX(ctx, key, 1, constants.CommentDuplicateWindow).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}
