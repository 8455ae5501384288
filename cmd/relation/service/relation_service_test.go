package service

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/cmd/model"
	"vidtube.com/pkg/errno"
)

type memSubscriptionStore struct {
	subs map[primitive.ObjectID]*model.Subscription
}

func newMemSubscriptionStore() *memSubscriptionStore {
	return &memSubscriptionStore{subs: make(map[primitive.ObjectID]*model.Subscription)}
}

func (m *memSubscriptionStore) Find(ctx context.Context, subscriber, channel primitive.ObjectID) (*model.Subscription, error) {
	for _, s := range m.subs {
		if s.Subscriber == subscriber && s.Channel == channel {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memSubscriptionStore) Create(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	if existing, _ := m.Find(ctx, subscriber, channel); existing != nil {
		return false, nil
	}
	id := primitive.NewObjectID()
	m.subs[id] = &model.Subscription{ID: id, Subscriber: subscriber, Channel: channel}
	return true, nil
}

func (m *memSubscriptionStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(m.subs, id)
	return nil
}

func userExists(ctx context.Context, id primitive.ObjectID) (bool, error) { return true, nil }
func noUser(ctx context.Context, id primitive.ObjectID) (bool, error)    { return false, nil }

func TestSubscriptionToggleParity(t *testing.T) {
	ctx := context.Background()
	store := newMemSubscriptionStore()
	svc := NewRelationService(store, userExists)
	subscriber := primitive.NewObjectID()
	channel := primitive.NewObjectID()

	for n := 1; n <= 4; n++ {
		subscribed, err := svc.Toggle(ctx, subscriber, channel.Hex())
		if err != nil {
			t.Fatalf("toggle %d failed: %v", n, err)
		}
		if want := n%2 == 1; subscribed != want {
			t.Fatalf("after %d toggles subscribed = %v, want %v", n, subscribed, want)
		}
	}
	if len(store.subs) != 0 {
		t.Errorf("%d subscriptions remain after even toggles", len(store.subs))
	}
}

func TestSubscriptionRejectsSelf(t *testing.T) {
	svc := NewRelationService(newMemSubscriptionStore(), userExists)
	user := primitive.NewObjectID()

	_, err := svc.Toggle(context.Background(), user, user.Hex())
	var e errno.ErrNo
	if !errors.As(err, &e) || e.ErrCode != errno.ParamErrCode {
		t.Fatalf("self-subscribe returned %v, want ParamErr", err)
	}
}

func TestSubscriptionMissingChannel(t *testing.T) {
	svc := NewRelationService(newMemSubscriptionStore(), noUser)
	_, err := svc.Toggle(context.Background(), primitive.NewObjectID(), primitive.NewObjectID().Hex())
	var e errno.ErrNo
	if !errors.As(err, &e) || e.ErrCode != errno.NotFoundCode {
		t.Fatalf("missing channel returned %v, want NotFound", err)
	}
}

func TestSubscriptionMalformedChannel(t *testing.T) {
	svc := NewRelationService(newMemSubscriptionStore(), userExists)
	_, err := svc.Toggle(context.Background(), primitive.NewObjectID(), "not-hex")
	var e errno.ErrNo
	if !errors.As(err, &e) || e.ErrCode != errno.InvalidIdentifierCode {
		t.Fatalf("malformed channel returned %v, want InvalidIdentifier", err)
	}
}
