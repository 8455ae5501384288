package pipeline

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/cmd/model"
	"vidtube.com/pkg/constants"
)

// Ordering invariants every builder below maintains:
//
//  1. SearchText, when present, is the first stage.
//  2. Visibility and ownership Match stages precede every Lookup.
//  3. Lookups that fetch owner and reaction data precede the AddFields
//     stages computing likes_count / is_liked / subscribers_count /
//     is_subscribed from the joined arrays.
//  4. Sort runs after all computed fields exist and before Project.
//  5. Project is last and is an explicit allow-list.
//
// Every Sort ends with a descending _id key: created_at is not unique, and
// without the tie-breaker two documents sharing a timestamp can straddle a
// page boundary differently between the count and slice reads.

// FeedFilter carries the caller-supplied knobs of the video feed.
type FeedFilter struct {
	SearchTerm string
	OwnerID    *primitive.ObjectID
	SortBy     string
	SortAsc    bool
}

var feedSortFields = map[string]bool{
	"created_at": true,
	"views":      true,
	"duration":   true,
	"title":      true,
}

// VideoFeed builds the published-video feed. Unpublished videos are only
// visible when the viewer asks for their own uploads.
func VideoFeed(filter FeedFilter, viewer *primitive.ObjectID) []Stage {
	stages := make([]Stage, 0, 8)

	if filter.SearchTerm != "" {
		stages = append(stages, SearchText{
			Index:  constants.VideoSearchIndex,
			Fields: []string{"title", "description"},
			Term:   filter.SearchTerm,
		})
	}
	if filter.OwnerID != nil {
		stages = append(stages, Match{Predicate: bson.D{{Key: "owner", Value: *filter.OwnerID}}})
	}
	if !viewerOwnsFeed(filter.OwnerID, viewer) {
		stages = append(stages, Match{Predicate: bson.D{{Key: "is_published", Value: true}}})
	}

	stages = append(stages,
		Lookup{
			From:         constants.UserCollection,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner_details",
			Pipeline:     []Stage{Project{Fields: ownerProjection()}},
		},
		Unwind{Path: "owner_details"},
	)

	sortBy := filter.SortBy
	if !feedSortFields[sortBy] {
		sortBy = "created_at"
	}
	stages = append(stages,
		stableSort(SortKey{Field: sortBy, Desc: !filter.SortAsc}),
		Project{Fields: bson.D{
			{Key: "title", Value: 1},
			{Key: "description", Value: 1},
			{Key: "video_file", Value: 1},
			{Key: "thumbnail", Value: 1},
			{Key: "duration", Value: 1},
			{Key: "views", Value: 1},
			{Key: "is_published", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "owner_details", Value: 1},
		}},
	)
	return stages
}

// VideoComments builds the comment feed of one video, enriched with the
// commenter profile and viewer-relative like fields.
func VideoComments(videoID primitive.ObjectID, viewer *primitive.ObjectID) []Stage {
	return []Stage{
		Match{Predicate: bson.D{{Key: "video", Value: videoID}}},
		Lookup{
			From:         constants.UserCollection,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner_details",
			Pipeline:     []Stage{Project{Fields: ownerProjection()}},
		},
		likesLookup(model.TargetComment),
		AddFields{Fields: bson.D{
			{Key: "likes_count", Value: bson.D{{Key: "$size", Value: "$likes"}}},
			{Key: "owner", Value: bson.D{{Key: "$first", Value: "$owner_details"}}},
			{Key: "is_liked", Value: likedExpr(viewer, "likes")},
		}},
		stableSort(SortKey{Field: "created_at", Desc: true}),
		Project{Fields: bson.D{
			{Key: "content", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "likes_count", Value: 1},
			{Key: "owner", Value: 1},
			{Key: "is_liked", Value: 1},
		}},
	}
}

// UserTweets builds one user's tweet feed.
func UserTweets(owner primitive.ObjectID, viewer *primitive.ObjectID) []Stage {
	return []Stage{
		Match{Predicate: bson.D{{Key: "owner", Value: owner}}},
		Lookup{
			From:         constants.UserCollection,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner_details",
			Pipeline:     []Stage{Project{Fields: ownerProjection()}},
		},
		likesLookup(model.TargetTweet),
		AddFields{Fields: bson.D{
			{Key: "likes_count", Value: bson.D{{Key: "$size", Value: "$likes"}}},
			{Key: "owner", Value: bson.D{{Key: "$first", Value: "$owner_details"}}},
			{Key: "is_liked", Value: likedExpr(viewer, "likes")},
		}},
		stableSort(SortKey{Field: "created_at", Desc: true}),
		Project{Fields: bson.D{
			{Key: "content", Value: 1},
			{Key: "owner", Value: 1},
			{Key: "likes_count", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "is_liked", Value: 1},
		}},
	}
}

// LikedVideos runs on the likes collection and resolves every video the
// viewer has liked, newest like first.
func LikedVideos(viewer primitive.ObjectID) []Stage {
	return []Stage{
		Match{Predicate: bson.D{
			{Key: "liked_by", Value: viewer},
			{Key: "target_type", Value: model.TargetVideo},
		}},
		Lookup{
			From:         constants.VideoCollection,
			LocalField:   "target_id",
			ForeignField: "_id",
			As:           "liked_video",
			Pipeline: []Stage{
				Lookup{
					From:         constants.UserCollection,
					LocalField:   "owner",
					ForeignField: "_id",
					As:           "owner_details",
					Pipeline:     []Stage{Project{Fields: ownerProjection()}},
				},
				Unwind{Path: "owner_details"},
			},
		},
		Unwind{Path: "liked_video"},
		stableSort(SortKey{Field: "created_at", Desc: true}),
		Project{Fields: bson.D{
			{Key: "_id", Value: 0},
			{Key: "liked_video", Value: bson.D{
				{Key: "_id", Value: 1},
				{Key: "video_file", Value: 1},
				{Key: "thumbnail", Value: 1},
				{Key: "title", Value: 1},
				{Key: "description", Value: 1},
				{Key: "views", Value: 1},
				{Key: "duration", Value: 1},
				{Key: "created_at", Value: 1},
				{Key: "is_published", Value: 1},
				{Key: "owner_details", Value: 1},
			}},
		}},
	}
}

// VideoByID builds the single-video view: like data, owner profile with
// subscriber data, all viewer-relative flags.
func VideoByID(videoID primitive.ObjectID, viewer *primitive.ObjectID) []Stage {
	return []Stage{
		Match{Predicate: bson.D{{Key: "_id", Value: videoID}}},
		likesLookup(model.TargetVideo),
		Lookup{
			From:         constants.UserCollection,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner_details",
			Pipeline: []Stage{
				Lookup{
					From:         constants.SubscriptionCollection,
					LocalField:   "_id",
					ForeignField: "channel",
					As:           "subscribers",
				},
				AddFields{Fields: bson.D{
					{Key: "subscribers_count", Value: bson.D{{Key: "$size", Value: "$subscribers"}}},
					{Key: "is_subscribed", Value: subscribedExpr(viewer)},
				}},
				Project{Fields: bson.D{
					{Key: "username", Value: 1},
					{Key: "full_name", Value: 1},
					{Key: "avatar", Value: 1},
					{Key: "subscribers_count", Value: 1},
					{Key: "is_subscribed", Value: 1},
				}},
			},
		},
		AddFields{Fields: bson.D{
			{Key: "likes_count", Value: bson.D{{Key: "$size", Value: "$likes"}}},
			{Key: "owner", Value: bson.D{{Key: "$first", Value: "$owner_details"}}},
			{Key: "is_liked", Value: likedExpr(viewer, "likes")},
		}},
		Project{Fields: bson.D{
			{Key: "video_file", Value: 1},
			{Key: "thumbnail", Value: 1},
			{Key: "title", Value: 1},
			{Key: "description", Value: 1},
			{Key: "views", Value: 1},
			{Key: "duration", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "is_published", Value: 1},
			{Key: "owner", Value: 1},
			{Key: "likes_count", Value: 1},
			{Key: "is_liked", Value: 1},
		}},
	}
}

// WatchHistory runs on the users collection and resolves the viewer's
// watched videos with their owner profiles.
func WatchHistory(userID primitive.ObjectID) []Stage {
	return []Stage{
		Match{Predicate: bson.D{{Key: "_id", Value: userID}}},
		Lookup{
			From:         constants.VideoCollection,
			LocalField:   "watch_history",
			ForeignField: "_id",
			As:           "watch_history",
			Pipeline: []Stage{
				Lookup{
					From:         constants.UserCollection,
					LocalField:   "owner",
					ForeignField: "_id",
					As:           "owner_details",
					Pipeline:     []Stage{Project{Fields: ownerProjection()}},
				},
				Unwind{Path: "owner_details"},
			},
		},
		Unwind{Path: "watch_history"},
		Sort{Keys: []SortKey{
			{Field: "watch_history.created_at", Desc: true},
			{Field: "watch_history._id", Desc: true},
		}},
		Project{Fields: bson.D{
			{Key: "_id", Value: 0},
			{Key: "watch_history", Value: 1},
		}},
	}
}

// ChannelProfile runs on the users collection and computes the subscriber
// counters plus the viewer's subscription state for one channel.
func ChannelProfile(username string, viewer *primitive.ObjectID) []Stage {
	return []Stage{
		Match{Predicate: bson.D{{Key: "username", Value: username}}},
		Lookup{
			From:         constants.SubscriptionCollection,
			LocalField:   "_id",
			ForeignField: "channel",
			As:           "subscribers",
		},
		Lookup{
			From:         constants.SubscriptionCollection,
			LocalField:   "_id",
			ForeignField: "subscriber",
			As:           "subscribed_to",
		},
		AddFields{Fields: bson.D{
			{Key: "subscribers_count", Value: bson.D{{Key: "$size", Value: "$subscribers"}}},
			{Key: "channels_subscribed_to_count", Value: bson.D{{Key: "$size", Value: "$subscribed_to"}}},
			{Key: "is_subscribed", Value: subscribedExpr(viewer)},
		}},
		Project{Fields: bson.D{
			{Key: "username", Value: 1},
			{Key: "full_name", Value: 1},
			{Key: "email", Value: 1},
			{Key: "avatar", Value: 1},
			{Key: "cover_image", Value: 1},
			{Key: "subscribers_count", Value: 1},
			{Key: "channels_subscribed_to_count", Value: 1},
			{Key: "is_subscribed", Value: 1},
			{Key: "created_at", Value: 1},
		}},
	}
}

// likesLookup joins the likes of one target kind onto the current document.
func likesLookup(kind model.TargetType) Lookup {
	return Lookup{
		From:         constants.LikeCollection,
		LocalField:   "_id",
		ForeignField: "target_id",
		As:           "likes",
		Pipeline: []Stage{
			Match{Predicate: bson.D{{Key: "target_type", Value: kind}}},
		},
	}
}

// likedExpr yields the is_liked expression. Unauthenticated viewers never
// see a target as liked, so the absent-viewer case is the literal false.
func likedExpr(viewer *primitive.ObjectID, likesField string) interface{} {
	if viewer == nil {
		return false
	}
	return bson.D{{Key: "$in", Value: bson.A{*viewer, "$" + likesField + ".liked_by"}}}
}

func subscribedExpr(viewer *primitive.ObjectID) interface{} {
	if viewer == nil {
		return false
	}
	return bson.D{{Key: "$in", Value: bson.A{*viewer, "$subscribers.subscriber"}}}
}

func ownerProjection() bson.D {
	return bson.D{
		{Key: "username", Value: 1},
		{Key: "full_name", Value: 1},
		{Key: "avatar", Value: 1},
	}
}

func stableSort(primary SortKey) Sort {
	return Sort{Keys: []SortKey{primary, {Field: "_id", Desc: true}}}
}

func viewerOwnsFeed(owner, viewer *primitive.ObjectID) bool {
	return owner != nil && viewer != nil && *owner == *viewer
}
