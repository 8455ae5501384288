package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/cmd/interaction/infras/redis"
	"vidtube.com/cmd/model"
	"vidtube.com/pkg/constants"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/pipeline"
	"vidtube.com/pkg/utils"
)

// CommentStore is the storage contract of the comment operations.
type CommentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Comment, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*model.Comment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Executor() pipeline.Executor
}

// CommentGuard throttles comment creation. Guard failures never block the
// user; the cache being down is not the user's problem.
type CommentGuard interface {
	RateCount(ctx context.Context, userID string) (int64, error)
	IsDuplicate(ctx context.Context, userID, content string) (bool, error)
}

// RedisCommentGuard backs CommentGuard with the shared redis client.
type RedisCommentGuard struct{}

func (RedisCommentGuard) RateCount(ctx context.Context, userID string) (int64, error) {
	return redis.CommentRateCount(ctx, userID)
}

func (RedisCommentGuard) IsDuplicate(ctx context.Context, userID, content string) (bool, error) {
	return redis.CheckDuplicateComment(ctx, userID, content)
}

type CommentService struct {
	comments    CommentStore
	videoExists ExistsFunc
	cascade     *CascadeService
	guard       CommentGuard
	paginator   *pipeline.Paginator
}

func NewCommentService(comments CommentStore, videoExists ExistsFunc, cascade *CascadeService, guard CommentGuard, paginator *pipeline.Paginator) *CommentService {
	return &CommentService{
		comments:    comments,
		videoExists: videoExists,
		cascade:     cascade,
		guard:       guard,
		paginator:   paginator,
	}
}

func (s *CommentService) validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errno.ParamErr.WithMessage("Comment content cannot be empty")
	}
	if utf8.RuneCountInString(content) > constants.MaxCommentLength {
		return "", errno.ParamErr.WithMessage("Comment too long, maximum 500 characters allowed")
	}
	return content, nil
}

func (s *CommentService) checkGuards(ctx context.Context, userID primitive.ObjectID, content string) error {
	if s.guard == nil {
		return nil
	}
	count, err := s.guard.RateCount(ctx, userID.Hex())
	if err != nil {
		hlog.CtxWarnf(ctx, "Failed to check comment rate limit: %v", err)
	} else if count > constants.CommentRateLimit {
		return errno.ParamErr.WithMessage("Comment rate limit exceeded, please try again later")
	}

	dup, err := s.guard.IsDuplicate(ctx, userID.Hex(), content)
	if err != nil {
		hlog.CtxWarnf(ctx, "Failed to check duplicate comment: %v", err)
		return nil
	}
	if dup {
		return errno.ParamErr.WithMessage("Duplicate comment detected, please wait before posting similar content")
	}
	return nil
}

func (s *CommentService) Create(ctx context.Context, userID primitive.ObjectID, videoHex, content string) (*model.Comment, error) {
	content, err := s.validateContent(content)
	if err != nil {
		return nil, err
	}
	videoID, err := utils.ParseObjectID(videoHex)
	if err != nil {
		return nil, err
	}
	exists, err := s.videoExists(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errno.NotFound.WithMessage("video not found")
	}
	if err := s.checkGuards(ctx, userID, content); err != nil {
		return nil, err
	}

	comment := &model.Comment{Content: content, Video: videoID, Owner: userID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, userID primitive.ObjectID, commentHex, content string) (*model.Comment, error) {
	content, err := s.validateContent(content)
	if err != nil {
		return nil, err
	}
	commentID, err := utils.ParseObjectID(commentHex)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.Owner != userID {
		return nil, errno.Forbidden.WithMessage("Only the comment owner can edit this comment")
	}
	return s.comments.UpdateContent(ctx, commentID, content)
}

// Delete removes the comment after sweeping its likes, dependents first.
func (s *CommentService) Delete(ctx context.Context, userID primitive.ObjectID, commentHex string) error {
	commentID, err := utils.ParseObjectID(commentHex)
	if err != nil {
		return err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.Owner != userID {
		return errno.Forbidden.WithMessage("Only the comment owner can delete this comment")
	}

	s.cascade.Begin(ctx, model.TargetComment, commentID)
	if err := s.cascade.OnDeleteParent(ctx, model.TargetComment, commentID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	s.cascade.Finish(ctx, model.TargetComment, commentID)
	return nil
}

// List returns a video's comment page, enriched per viewer.
func (s *CommentService) List(ctx context.Context, videoHex string, viewer *primitive.ObjectID, page, limit int64) (*pipeline.Page, error) {
	videoID, err := utils.ParseObjectID(videoHex)
	if err != nil {
		return nil, err
	}
	exists, err := s.videoExists(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errno.NotFound.WithMessage("video not found")
	}

	stages := pipeline.VideoComments(videoID, viewer)
	var items []bson.M
	return s.paginator.Execute(ctx, s.comments.Executor(), stages, page, limit, &items)
}
