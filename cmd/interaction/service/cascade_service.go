package service

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/cmd/model"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/mq"
)

// CascadeCommentStore is the slice of the comment storage the cascade needs.
type CascadeCommentStore interface {
	IDsByVideo(ctx context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) (int64, error)
}

// PendingMarker records cascades in flight so a crash between steps leaves
// a durable trace for the reconciler.
type PendingMarker interface {
	Mark(ctx context.Context, parentType, parentID string) error
	Clear(ctx context.Context, parentType, parentID string) error
}

// ConsistencyPublisher is satisfied by *mq.Producer.
type ConsistencyPublisher interface {
	PublishConsistencyEvent(ctx context.Context, event *mq.ConsistencyEvent) error
}

// CascadeService removes the dependents of a parent entity before the
// parent itself goes. If the process dies between the two, the transient
// state is a parent with its dependents already gone — harmless
// over-deletion — never orphaned dependents of a missing parent.
//
// There is no multi-document transaction here. Every step is idempotent
// (deleting from an already-empty set is a no-op), so the reconciler can
// re-drive a marked cascade from the top. A step is never retried inside a
// single pass; that would risk doubling partial deletes mid-sequence.
type CascadeService struct {
	likes    LikeStore
	comments CascadeCommentStore
	marks    PendingMarker
	producer ConsistencyPublisher
}

func NewCascadeService(likes LikeStore, comments CascadeCommentStore, marks PendingMarker, producer ConsistencyPublisher) *CascadeService {
	return &CascadeService{likes: likes, comments: comments, marks: marks, producer: producer}
}

// Begin marks the parent as pending deletion. The mark is advisory: if the
// mark store is down the cascade still proceeds, it just loses its crash
// trace.
func (s *CascadeService) Begin(ctx context.Context, kind model.TargetType, parentID primitive.ObjectID) {
	if s.marks == nil {
		return
	}
	if err := s.marks.Mark(ctx, string(kind), parentID.Hex()); err != nil {
		hlog.CtxWarnf(ctx, "Failed to mark pending deletion for %s %s: %v", kind, parentID.Hex(), err)
	}
}

// OnDeleteParent removes every dependent of the parent. The parent
// document itself is removed by the caller after this returns nil.
func (s *CascadeService) OnDeleteParent(ctx context.Context, kind model.TargetType, parentID primitive.ObjectID) error {
	switch kind {
	case model.TargetVideo:
		return s.cascadeVideo(ctx, parentID)
	case model.TargetComment, model.TargetTweet:
		if _, err := s.likes.DeleteByTarget(ctx, kind, parentID); err != nil {
			return errors.Wrapf(err, "delete likes of %s %s", kind, parentID.Hex())
		}
		return nil
	}
	return errno.ParamErr.WithMessage("unknown parent type " + string(kind))
}

// cascadeVideo sweeps likes-of-comments first, then the comments, then the
// likes of the video itself. Comment ids must be captured before the
// comments are deleted or their likes would be unreachable.
func (s *CascadeService) cascadeVideo(ctx context.Context, videoID primitive.ObjectID) error {
	commentIDs, err := s.comments.IDsByVideo(ctx, videoID)
	if err != nil {
		return errors.Wrap(err, "list comment ids")
	}
	if _, err := s.likes.DeleteByTargets(ctx, model.TargetComment, commentIDs); err != nil {
		return errors.Wrap(err, "delete likes of comments")
	}
	if _, err := s.comments.DeleteByVideo(ctx, videoID); err != nil {
		return errors.Wrap(err, "delete comments")
	}
	if _, err := s.likes.DeleteByTarget(ctx, model.TargetVideo, videoID); err != nil {
		return errors.Wrap(err, "delete likes of video")
	}
	return nil
}

// Finish clears the pending mark once the parent document is gone.
func (s *CascadeService) Finish(ctx context.Context, kind model.TargetType, parentID primitive.ObjectID) {
	if s.marks == nil {
		return
	}
	if err := s.marks.Clear(ctx, string(kind), parentID.Hex()); err != nil {
		hlog.CtxWarnf(ctx, "Failed to clear pending deletion for %s %s: %v", kind, parentID.Hex(), err)
	}
}

// ReportViolation surfaces a cleanup failure that happened after the
// parent was already removed. It is logged and published, never returned
// to the request that triggered the delete.
func (s *CascadeService) ReportViolation(ctx context.Context, kind model.TargetType, parentID primitive.ObjectID, step string, cause error) {
	hlog.CtxErrorf(ctx, "Consistency violation: %s cleanup for %s %s failed: %v", step, kind, parentID.Hex(), cause)
	if s.producer == nil {
		return
	}
	event := &mq.ConsistencyEvent{
		ParentType: string(kind),
		ParentID:   parentID.Hex(),
		Step:       step,
		Detail:     cause.Error(),
		Timestamp:  time.Now().Unix(),
		EventID:    uuid.New().String(),
	}
	if err := s.producer.PublishConsistencyEvent(ctx, event); err != nil {
		hlog.CtxErrorf(ctx, "Failed to publish consistency event: %v", err)
	}
}
