package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	interaction "vidtube.com/cmd/interaction/service"
	"vidtube.com/cmd/model"
	"vidtube.com/pkg/constants"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/oss"
	"vidtube.com/pkg/pipeline"
	"vidtube.com/pkg/utils"
)

// VideoStore is the storage contract of the video operations.
type VideoStore interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Video, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.D) (*model.Video, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	Executor() pipeline.Executor
}

// WatchHistoryStore records which videos a user has opened.
type WatchHistoryStore interface {
	AddWatchHistory(ctx context.Context, userID, videoID primitive.ObjectID) error
}

// MediaStore hands out presigned URLs and removes stored objects.
type MediaStore interface {
	UploadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	PlaybackURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, objectKey string) error
}

// UploadTicket carries the presigned PUT URLs a publisher uploads to.
type UploadTicket struct {
	Video         *model.Video `json:"video"`
	VideoURL      string       `json:"videoUploadUrl"`
	ThumbnailURL  string       `json:"thumbnailUploadUrl"`
	URLExpiresSec int64        `json:"urlExpiresInSeconds"`
}

type VideoService struct {
	videos    VideoStore
	history   WatchHistoryStore
	media     MediaStore
	cascade   *interaction.CascadeService
	paginator *pipeline.Paginator
	urlExpiry time.Duration
}

func NewVideoService(videos VideoStore, history WatchHistoryStore, media MediaStore, cascade *interaction.CascadeService, paginator *pipeline.Paginator, urlExpiry time.Duration) *VideoService {
	if urlExpiry <= 0 {
		urlExpiry = 15 * time.Minute
	}
	return &VideoService{
		videos:    videos,
		history:   history,
		media:     media,
		cascade:   cascade,
		paginator: paginator,
		urlExpiry: urlExpiry,
	}
}

// FeedParams carries the caller-supplied feed knobs before identifier parsing.
type FeedParams struct {
	Query    string
	OwnerHex string
	SortBy   string
	SortAsc  bool
	Page     int64
	Limit    int64
}

// Feed returns a page of published videos, optionally searched, filtered by
// owner, and sorted.
func (s *VideoService) Feed(ctx context.Context, params FeedParams, viewer *primitive.ObjectID) (*pipeline.Page, error) {
	filter := pipeline.FeedFilter{
		SearchTerm: strings.TrimSpace(params.Query),
		SortBy:     params.SortBy,
		SortAsc:    params.SortAsc,
	}
	if params.OwnerHex != "" {
		ownerID, err := utils.ParseObjectID(params.OwnerHex)
		if err != nil {
			return nil, err
		}
		filter.OwnerID = &ownerID
	}

	stages := pipeline.VideoFeed(filter, viewer)
	var items []bson.M
	return s.paginator.Execute(ctx, s.videos.Executor(), stages, params.Page, params.Limit, &items)
}

// GetByID fetches a single video enriched with owner and reaction data. The
// view counter bump and the watch-history append run after the fetch and are
// not coordinated with it; a failure there never fails the read.
func (s *VideoService) GetByID(ctx context.Context, videoHex string, viewer *primitive.ObjectID) (bson.M, error) {
	videoID, err := utils.ParseObjectID(videoHex)
	if err != nil {
		return nil, err
	}

	stages := pipeline.VideoByID(videoID, viewer)
	var docs []bson.M
	if err := s.videos.Executor().Aggregate(ctx, pipeline.Compile(stages), &docs); err != nil {
		return nil, errno.ConvertErr(err)
	}
	if len(docs) == 0 {
		return nil, errno.NotFound.WithMessage("video not found")
	}
	doc := docs[0]

	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		hlog.CtxWarnf(ctx, "Failed to increment views for video %s: %v", videoID.Hex(), err)
	}
	if viewer != nil {
		if err := s.history.AddWatchHistory(ctx, *viewer, videoID); err != nil {
			hlog.CtxWarnf(ctx, "Failed to record watch history for user %s: %v", viewer.Hex(), err)
		}
	}

	s.attachPlaybackURLs(ctx, doc)
	return doc, nil
}

// attachPlaybackURLs swaps stored object keys for presigned GET URLs. The
// raw key stays in place when presigning fails.
func (s *VideoService) attachPlaybackURLs(ctx context.Context, doc bson.M) {
	if s.media == nil {
		return
	}
	for _, field := range []string{"video_file", "thumbnail"} {
		key, ok := doc[field].(string)
		if !ok || key == "" {
			continue
		}
		u, err := s.media.PlaybackURL(ctx, key, s.urlExpiry)
		if err != nil {
			hlog.CtxWarnf(ctx, "Failed to presign playback for %s: %v", key, err)
			continue
		}
		doc[field] = u
	}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errno.ParamErr.WithMessage("Video title cannot be empty")
	}
	if utf8.RuneCountInString(title) > constants.MaxTitleLength {
		return "", errno.ParamErr.WithMessage("Video title too long, maximum 120 characters allowed")
	}
	return title, nil
}

// Publish creates an unpublished video record and returns presigned PUT URLs
// the client uploads the media to.
func (s *VideoService) Publish(ctx context.Context, owner primitive.ObjectID, title, description string, duration float64) (*UploadTicket, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	if duration < 0 {
		return nil, errno.ParamErr.WithMessage("Video duration cannot be negative")
	}

	video := &model.Video{
		Title:       title,
		Description: strings.TrimSpace(description),
		Duration:    duration,
		Owner:       owner,
		IsPublished: false,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return nil, err
	}

	video.VideoFile = oss.VideoKey(video.ID.Hex())
	video.Thumbnail = oss.ThumbnailKey(video.ID.Hex())
	if _, err := s.videos.Update(ctx, video.ID, bson.D{
		{Key: "video_file", Value: video.VideoFile},
		{Key: "thumbnail", Value: video.Thumbnail},
	}); err != nil {
		return nil, err
	}

	ticket := &UploadTicket{Video: video, URLExpiresSec: int64(s.urlExpiry.Seconds())}
	if s.media != nil {
		if ticket.VideoURL, err = s.media.UploadURL(ctx, video.VideoFile, s.urlExpiry); err != nil {
			return nil, err
		}
		if ticket.ThumbnailURL, err = s.media.UploadURL(ctx, video.Thumbnail, s.urlExpiry); err != nil {
			return nil, err
		}
	}
	return ticket, nil
}

func (s *VideoService) owned(ctx context.Context, owner primitive.ObjectID, videoHex string) (*model.Video, error) {
	videoID, err := utils.ParseObjectID(videoHex)
	if err != nil {
		return nil, err
	}
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.Owner != owner {
		return nil, errno.Forbidden.WithMessage("Only the video owner can modify this video")
	}
	return video, nil
}

func (s *VideoService) Update(ctx context.Context, owner primitive.ObjectID, videoHex, title, description string) (*model.Video, error) {
	video, err := s.owned(ctx, owner, videoHex)
	if err != nil {
		return nil, err
	}

	set := bson.D{}
	if title != "" {
		title, err = validateTitle(title)
		if err != nil {
			return nil, err
		}
		set = append(set, bson.E{Key: "title", Value: title})
	}
	if description != "" {
		set = append(set, bson.E{Key: "description", Value: strings.TrimSpace(description)})
	}
	if len(set) == 0 {
		return video, nil
	}
	return s.videos.Update(ctx, video.ID, set)
}

func (s *VideoService) TogglePublish(ctx context.Context, owner primitive.ObjectID, videoHex string) (*model.Video, error) {
	video, err := s.owned(ctx, owner, videoHex)
	if err != nil {
		return nil, err
	}
	return s.videos.Update(ctx, video.ID, bson.D{{Key: "is_published", Value: !video.IsPublished}})
}

// Delete removes a video after sweeping its dependents: likes of its
// comments, the comments themselves, then the video's own likes. The video
// document goes last so a partial sweep leaves the parent visible for the
// reconciler to re-drive. Media removal is best effort.
func (s *VideoService) Delete(ctx context.Context, owner primitive.ObjectID, videoHex string) error {
	video, err := s.owned(ctx, owner, videoHex)
	if err != nil {
		return err
	}

	s.cascade.Begin(ctx, model.TargetVideo, video.ID)
	if err := s.cascade.OnDeleteParent(ctx, model.TargetVideo, video.ID); err != nil {
		return err
	}
	deleted, err := s.videos.Delete(ctx, video.ID)
	if err != nil {
		// Parent still exists and the caller sees the error; the pending
		// mark stays set so the reconciler re-drives the cascade.
		return err
	}
	if !deleted {
		return errno.NotFound.WithMessage("video not found")
	}

	if s.media != nil {
		for _, key := range []string{video.VideoFile, video.Thumbnail} {
			if key == "" {
				continue
			}
			if err := s.media.Remove(ctx, key); err != nil {
				hlog.CtxWarnf(ctx, "Failed to remove media object %s: %v", key, err)
			}
		}
	}

	s.cascade.Finish(ctx, model.TargetVideo, video.ID)
	return nil
}
