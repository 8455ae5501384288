package constants

import "time"

const (
	// Collection names. The collections are independent: every relation
	// between them is an id reference checked by the service layer.
	VideoCollection        = "videos"
	CommentCollection      = "comments"
	TweetCollection        = "tweets"
	LikeCollection         = "likes"
	SubscriptionCollection = "subscriptions"
	UserCollection         = "users"

	DefaultPage  int64 = 1
	DefaultLimit int64 = 10
	MaxPageSize  int64 = 100

	MaxQueryTime = 10 * time.Second

	// Atlas search index used by the video feed text stage.
	VideoSearchIndex = "search-videos"

	MaxCommentLength = 500
	MaxTweetLength   = 280
	MaxTitleLength   = 120

	CommentRateLimit          = 10
	CommentRateWindow         = time.Minute
	CommentDuplicateWindow    = 5 * time.Minute
	PendingDeletionRetryAfter = time.Minute
)
