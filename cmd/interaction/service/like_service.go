package service

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/cmd/model"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/mq"
	"vidtube.com/pkg/utils"
)

// LikeStore is the storage contract of the toggle path.
type LikeStore interface {
	FindByOwnerTarget(ctx context.Context, owner primitive.ObjectID, kind model.TargetType, target primitive.ObjectID) (*model.Like, error)
	Create(ctx context.Context, like *model.Like) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByTarget(ctx context.Context, kind model.TargetType, target primitive.ObjectID) (int64, error)
	DeleteByTargets(ctx context.Context, kind model.TargetType, targets []primitive.ObjectID) (int64, error)
}

// ExistsFunc answers whether a target document exists.
type ExistsFunc func(ctx context.Context, id primitive.ObjectID) (bool, error)

// TargetRegistry resolves existence checks per target kind.
type TargetRegistry map[model.TargetType]ExistsFunc

func (r TargetRegistry) Exists(ctx context.Context, kind model.TargetType, id primitive.ObjectID) (bool, error) {
	check, ok := r[kind]
	if !ok {
		return false, errno.ParamErr.WithMessage("unknown target type " + string(kind))
	}
	return check(ctx, id)
}

// EventPublisher is satisfied by *mq.Producer.
type EventPublisher interface {
	PublishLikeEvent(ctx context.Context, event *mq.LikeEvent) error
}

type LikeService struct {
	likes    LikeStore
	targets  TargetRegistry
	producer EventPublisher
}

func NewLikeService(likes LikeStore, targets TargetRegistry, producer EventPublisher) *LikeService {
	return &LikeService{likes: likes, targets: targets, producer: producer}
}

// Toggle flips the viewer's like on one target and reports the new state.
//
// The find-then-act sequence is not atomic: two concurrent toggles can both
// observe "absent" and both insert. The unique (liked_by, target_type,
// target_id) index turns the second insert into a duplicate-key error,
// which the store absorbs as "already liked" — the caller's desired state —
// so no lock is needed. Sequential toggles alternate: after N of them,
// liked == (N odd).
func (s *LikeService) Toggle(ctx context.Context, userID primitive.ObjectID, kind model.TargetType, targetHex string) (bool, error) {
	if !kind.Valid() {
		return false, errno.ParamErr.WithMessage("unknown target type " + string(kind))
	}
	targetID, err := utils.ParseObjectID(targetHex)
	if err != nil {
		return false, err
	}

	exists, err := s.targets.Exists(ctx, kind, targetID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, errno.NotFound.WithMessage(string(kind) + " not found")
	}

	existing, err := s.likes.FindByOwnerTarget(ctx, userID, kind, targetID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if err := s.likes.Delete(ctx, existing.ID); err != nil {
			return false, err
		}
		s.publish(ctx, userID, kind, targetID, "unlike")
		return false, nil
	}

	like, err := model.NewLike(kind, targetID, userID)
	if err != nil {
		return false, errno.ParamErr.WithMessage(err.Error())
	}
	created, err := s.likes.Create(ctx, like)
	if err != nil {
		return false, err
	}
	if created {
		s.publish(ctx, userID, kind, targetID, "like")
	}
	return true, nil
}

func (s *LikeService) publish(ctx context.Context, userID primitive.ObjectID, kind model.TargetType, targetID primitive.ObjectID, action string) {
	if s.producer == nil {
		return
	}
	event := &mq.LikeEvent{
		UserID:     userID.Hex(),
		TargetType: string(kind),
		TargetID:   targetID.Hex(),
		ActionType: action,
		Timestamp:  time.Now().Unix(),
		EventID:    uuid.New().String(),
	}
	if err := s.producer.PublishLikeEvent(ctx, event); err != nil {
		hlog.CtxWarnf(ctx, "Failed to publish like event: %v", err)
	}
}
