package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	interaction "vidtube.com/cmd/interaction/service"
	"vidtube.com/cmd/model"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/pipeline"
)

type fakeTweetStore struct {
	tweets map[primitive.ObjectID]*model.Tweet
	total  int64
}

func newFakeTweetStore() *fakeTweetStore {
	return &fakeTweetStore{tweets: make(map[primitive.ObjectID]*model.Tweet)}
}

func (f *fakeTweetStore) Create(ctx context.Context, tweet *model.Tweet) error {
	tweet.ID = primitive.NewObjectID()
	f.tweets[tweet.ID] = tweet
	return nil
}

func (f *fakeTweetStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Tweet, error) {
	tw, ok := f.tweets[id]
	if !ok {
		return nil, errno.NotFound.WithMessage("tweet not found")
	}
	return tw, nil
}

func (f *fakeTweetStore) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*model.Tweet, error) {
	tw, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tw.Content = content
	return tw, nil
}

func (f *fakeTweetStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(f.tweets, id)
	return nil
}

func (f *fakeTweetStore) Executor() pipeline.Executor { return &countExecutor{total: f.total} }

type countExecutor struct {
	total int64
}

func (e *countExecutor) Aggregate(ctx context.Context, p mongo.Pipeline, out interface{}) error {
	return nil
}

func (e *countExecutor) Count(ctx context.Context, p mongo.Pipeline) (int64, error) {
	return e.total, nil
}

// likeCounter is the minimal LikeStore the tweet cascade needs.
type likeCounter struct {
	perTarget map[primitive.ObjectID]int64
}

func newLikeCounter() *likeCounter {
	return &likeCounter{perTarget: make(map[primitive.ObjectID]int64)}
}

func (s *likeCounter) FindByOwnerTarget(ctx context.Context, owner primitive.ObjectID, kind model.TargetType, target primitive.ObjectID) (*model.Like, error) {
	return nil, nil
}

func (s *likeCounter) Create(ctx context.Context, like *model.Like) (bool, error) {
	s.perTarget[like.TargetID]++
	return true, nil
}

func (s *likeCounter) Delete(ctx context.Context, id primitive.ObjectID) error { return nil }

func (s *likeCounter) DeleteByTarget(ctx context.Context, kind model.TargetType, target primitive.ObjectID) (int64, error) {
	n := s.perTarget[target]
	delete(s.perTarget, target)
	return n, nil
}

func (s *likeCounter) DeleteByTargets(ctx context.Context, kind model.TargetType, targets []primitive.ObjectID) (int64, error) {
	var n int64
	for _, t := range targets {
		c, _ := s.DeleteByTarget(ctx, kind, t)
		n += c
	}
	return n, nil
}

type noComments struct{}

func (noComments) IDsByVideo(ctx context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return nil, nil
}

func (noComments) DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) (int64, error) {
	return 0, nil
}

func newTweetService(store *fakeTweetStore, likes *likeCounter) *TweetService {
	cascade := interaction.NewCascadeService(likes, noComments{}, nil, nil)
	return NewTweetService(store, cascade, pipeline.NewPaginator())
}

func TestTweetCreate(t *testing.T) {
	svc := newTweetService(newFakeTweetStore(), newLikeCounter())
	owner := primitive.NewObjectID()

	tweet, err := svc.Create(context.Background(), owner, "  hello world  ")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if tweet.Content != "hello world" {
		t.Errorf("content = %q, want trimmed", tweet.Content)
	}
	if tweet.Owner != owner {
		t.Error("owner not set")
	}
}

func TestTweetValidation(t *testing.T) {
	svc := newTweetService(newFakeTweetStore(), newLikeCounter())
	owner := primitive.NewObjectID()

	if _, err := svc.Create(context.Background(), owner, "   "); err == nil {
		t.Error("blank tweet accepted")
	}
	if _, err := svc.Create(context.Background(), owner, strings.Repeat("x", 281)); err == nil {
		t.Error("281-character tweet accepted")
	}
	if _, err := svc.Create(context.Background(), owner, strings.Repeat("好", 280)); err != nil {
		t.Errorf("280-rune tweet rejected: %v", err)
	}
}

func TestTweetUpdateOwnership(t *testing.T) {
	ctx := context.Background()
	svc := newTweetService(newFakeTweetStore(), newLikeCounter())
	owner := primitive.NewObjectID()

	tweet, _ := svc.Create(ctx, owner, "original")

	_, err := svc.Update(ctx, primitive.NewObjectID(), tweet.ID.Hex(), "hijacked")
	var e errno.ErrNo
	if !errors.As(err, &e) || e.ErrCode != errno.ForbiddenCode {
		t.Fatalf("non-owner update returned %v, want Forbidden", err)
	}

	updated, err := svc.Update(ctx, owner, tweet.ID.Hex(), "edited")
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Content != "edited" {
		t.Errorf("content = %q", updated.Content)
	}
}

func TestTweetDeleteCascadesLikes(t *testing.T) {
	ctx := context.Background()
	store := newFakeTweetStore()
	likes := newLikeCounter()
	svc := newTweetService(store, likes)
	owner := primitive.NewObjectID()

	tweet, _ := svc.Create(ctx, owner, "doomed")
	l, _ := model.NewLike(model.TargetTweet, tweet.ID, primitive.NewObjectID())
	likes.Create(ctx, l)

	if err := svc.Delete(ctx, owner, tweet.ID.Hex()); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(likes.perTarget) != 0 {
		t.Error("tweet likes survived the delete")
	}
	if _, err := store.GetByID(ctx, tweet.ID); err == nil {
		t.Error("tweet survived its delete")
	}
}

func TestTweetListByUser(t *testing.T) {
	store := newFakeTweetStore()
	store.total = 7
	svc := newTweetService(store, newLikeCounter())

	page, err := svc.ListByUser(context.Background(), primitive.NewObjectID().Hex(), nil, 1, 5)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.TotalItems != 7 || page.TotalPages != 2 {
		t.Errorf("totals = %d items, %d pages", page.TotalItems, page.TotalPages)
	}

	if _, err := svc.ListByUser(context.Background(), "bad-id", nil, 1, 5); err == nil {
		t.Error("malformed user id accepted")
	}
}
