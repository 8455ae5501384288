package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/cmd/model"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/utils"
)

// SubscriptionStore is the storage contract of the subscription toggle.
type SubscriptionStore interface {
	Find(ctx context.Context, subscriber, channel primitive.ObjectID) (*model.Subscription, error)
	Create(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserChecker reports whether a user exists.
type UserChecker func(ctx context.Context, id primitive.ObjectID) (bool, error)

type RelationService struct {
	subs       SubscriptionStore
	userExists UserChecker
}

func NewRelationService(subs SubscriptionStore, userExists UserChecker) *RelationService {
	return &RelationService{subs: subs, userExists: userExists}
}

// Toggle subscribes the user to the channel, or unsubscribes when a
// subscription already exists. It returns the resulting state. Concurrent
// toggles of the same pair collapse onto the unique (subscriber, channel)
// index, so N toggles from a subscribed-free start always land on the state
// matching the parity of N.
func (s *RelationService) Toggle(ctx context.Context, subscriber primitive.ObjectID, channelHex string) (bool, error) {
	channelID, err := utils.ParseObjectID(channelHex)
	if err != nil {
		return false, err
	}
	if subscriber == channelID {
		return false, errno.ParamErr.WithMessage("You cannot subscribe to your own channel")
	}
	exists, err := s.userExists(ctx, channelID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, errno.NotFound.WithMessage("channel not found")
	}

	existing, err := s.subs.Find(ctx, subscriber, channelID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if err := s.subs.Delete(ctx, existing.ID); err != nil {
			return false, err
		}
		return false, nil
	}
	if _, err := s.subs.Create(ctx, subscriber, channelID); err != nil {
		return false, err
	}
	return true, nil
}
