package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	interaction "vidtube.com/cmd/interaction/service"
	"vidtube.com/cmd/model"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/mq"
	"vidtube.com/pkg/pipeline"
)

// fakeVideoStore is an in-memory VideoStore. Aggregations answer with the
// stored documents as single-row results.
type fakeVideoStore struct {
	videos    map[primitive.ObjectID]*model.Video
	views     map[primitive.ObjectID]int64
	deleteErr error
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{
		videos: make(map[primitive.ObjectID]*model.Video),
		views:  make(map[primitive.ObjectID]int64),
	}
}

func (f *fakeVideoStore) Create(ctx context.Context, video *model.Video) error {
	video.ID = primitive.NewObjectID()
	f.videos[video.ID] = video
	return nil
}

func (f *fakeVideoStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return nil, errno.NotFound.WithMessage("video not found")
	}
	return v, nil
}

func (f *fakeVideoStore) Update(ctx context.Context, id primitive.ObjectID, set bson.D) (*model.Video, error) {
	v, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, e := range set {
		switch e.Key {
		case "title":
			v.Title = e.Value.(string)
		case "description":
			v.Description = e.Value.(string)
		case "is_published":
			v.IsPublished = e.Value.(bool)
		case "video_file":
			v.VideoFile = e.Value.(string)
		case "thumbnail":
			v.Thumbnail = e.Value.(string)
		}
	}
	return v, nil
}

func (f *fakeVideoStore) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	if _, ok := f.videos[id]; !ok {
		return false, nil
	}
	delete(f.videos, id)
	return true, nil
}

func (f *fakeVideoStore) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	f.views[id]++
	return nil
}

func (f *fakeVideoStore) Executor() pipeline.Executor { return &videoExecutor{store: f} }

// videoExecutor serves the single-video aggregation from the fake store by
// matching the _id predicate of the first $match stage.
type videoExecutor struct {
	store *fakeVideoStore
}

func (e *videoExecutor) Aggregate(ctx context.Context, p mongo.Pipeline, out interface{}) error {
	docs := out.(*[]bson.M)
	for _, stage := range p {
		if stage[0].Key != "$match" {
			continue
		}
		for _, cond := range stage[0].Value.(bson.D) {
			if cond.Key != "_id" {
				continue
			}
			if v, ok := e.store.videos[cond.Value.(primitive.ObjectID)]; ok {
				*docs = append(*docs, bson.M{
					"_id":        v.ID,
					"title":      v.Title,
					"video_file": v.VideoFile,
					"thumbnail":  v.Thumbnail,
				})
			}
		}
	}
	return nil
}

func (e *videoExecutor) Count(ctx context.Context, p mongo.Pipeline) (int64, error) {
	return int64(len(e.store.videos)), nil
}

type memHistory struct {
	watched map[primitive.ObjectID][]primitive.ObjectID
}

func newMemHistory() *memHistory {
	return &memHistory{watched: make(map[primitive.ObjectID][]primitive.ObjectID)}
}

func (m *memHistory) AddWatchHistory(ctx context.Context, userID, videoID primitive.ObjectID) error {
	m.watched[userID] = append(m.watched[userID], videoID)
	return nil
}

type fakeMedia struct {
	removed []string
}

func (f *fakeMedia) UploadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://media.test/upload/" + key, nil
}

func (f *fakeMedia) PlaybackURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://media.test/play/" + key, nil
}

func (f *fakeMedia) Remove(ctx context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

func newVideoService(store *fakeVideoStore, media MediaStore, likes *testLikeStore) *VideoService {
	cascade := interaction.NewCascadeService(likes, &testCommentStore{}, nil, nil)
	return NewVideoService(store, newMemHistory(), media, cascade, pipeline.NewPaginator(), time.Minute)
}

// testLikeStore tracks per-target like counts, enough for cascade checks.
type testLikeStore struct {
	byTarget map[string]int64
}

func newTestLikeStore() *testLikeStore { return &testLikeStore{byTarget: make(map[string]int64)} }

func (s *testLikeStore) key(kind model.TargetType, target primitive.ObjectID) string {
	return string(kind) + ":" + target.Hex()
}

func (s *testLikeStore) add(kind model.TargetType, target primitive.ObjectID) {
	s.byTarget[s.key(kind, target)]++
}

func (s *testLikeStore) FindByOwnerTarget(ctx context.Context, owner primitive.ObjectID, kind model.TargetType, target primitive.ObjectID) (*model.Like, error) {
	return nil, nil
}

func (s *testLikeStore) Create(ctx context.Context, like *model.Like) (bool, error) {
	s.add(like.TargetType, like.TargetID)
	return true, nil
}

func (s *testLikeStore) Delete(ctx context.Context, id primitive.ObjectID) error { return nil }

func (s *testLikeStore) DeleteByTarget(ctx context.Context, kind model.TargetType, target primitive.ObjectID) (int64, error) {
	k := s.key(kind, target)
	n := s.byTarget[k]
	delete(s.byTarget, k)
	return n, nil
}

func (s *testLikeStore) DeleteByTargets(ctx context.Context, kind model.TargetType, targets []primitive.ObjectID) (int64, error) {
	var n int64
	for _, t := range targets {
		c, _ := s.DeleteByTarget(ctx, kind, t)
		n += c
	}
	return n, nil
}

type testCommentStore struct {
	ids []primitive.ObjectID
}

func (s *testCommentStore) IDsByVideo(ctx context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids, nil
}

func (s *testCommentStore) DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) (int64, error) {
	n := int64(len(s.ids))
	s.ids = nil
	return n, nil
}

func TestPublishCreatesUnpublished(t *testing.T) {
	store := newFakeVideoStore()
	media := &fakeMedia{}
	svc := newVideoService(store, media, newTestLikeStore())
	owner := primitive.NewObjectID()

	ticket, err := svc.Publish(context.Background(), owner, "  My Video  ", "about cats", 93.5)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if ticket.Video.IsPublished {
		t.Error("freshly published video is already visible")
	}
	if ticket.Video.Title != "My Video" {
		t.Errorf("title = %q, want trimmed", ticket.Video.Title)
	}
	if ticket.VideoURL == "" || ticket.ThumbnailURL == "" {
		t.Error("ticket is missing upload URLs")
	}
	if ticket.Video.VideoFile == "" || ticket.Video.Thumbnail == "" {
		t.Error("video record is missing object keys")
	}
}

func TestPublishValidation(t *testing.T) {
	svc := newVideoService(newFakeVideoStore(), nil, newTestLikeStore())
	owner := primitive.NewObjectID()

	if _, err := svc.Publish(context.Background(), owner, "   ", "", 10); err == nil {
		t.Error("empty title accepted")
	}
	if _, err := svc.Publish(context.Background(), owner, "ok", "", -1); err == nil {
		t.Error("negative duration accepted")
	}
}

func TestUpdateRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	store := newFakeVideoStore()
	svc := newVideoService(store, nil, newTestLikeStore())
	owner := primitive.NewObjectID()

	ticket, err := svc.Publish(ctx, owner, "mine", "", 1)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	_, err = svc.Update(ctx, primitive.NewObjectID(), ticket.Video.ID.Hex(), "stolen", "")
	var e errno.ErrNo
	if !errors.As(err, &e) || e.ErrCode != errno.ForbiddenCode {
		t.Fatalf("non-owner update returned %v, want Forbidden", err)
	}

	updated, err := svc.Update(ctx, owner, ticket.Video.ID.Hex(), "renamed", "new text")
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Title != "renamed" || updated.Description != "new text" {
		t.Errorf("update applied %q / %q", updated.Title, updated.Description)
	}
}

func TestTogglePublishFlips(t *testing.T) {
	ctx := context.Background()
	store := newFakeVideoStore()
	svc := newVideoService(store, nil, newTestLikeStore())
	owner := primitive.NewObjectID()

	ticket, _ := svc.Publish(ctx, owner, "t", "", 1)
	v, err := svc.TogglePublish(ctx, owner, ticket.Video.ID.Hex())
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !v.IsPublished {
		t.Fatal("first toggle did not publish")
	}
	v, _ = svc.TogglePublish(ctx, owner, ticket.Video.ID.Hex())
	if v.IsPublished {
		t.Fatal("second toggle did not unpublish")
	}
}

func TestDeleteCascadesAndRemovesMedia(t *testing.T) {
	ctx := context.Background()
	store := newFakeVideoStore()
	media := &fakeMedia{}
	likes := newTestLikeStore()
	svc := newVideoService(store, media, likes)
	owner := primitive.NewObjectID()

	ticket, err := svc.Publish(ctx, owner, "doomed", "", 1)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	videoID := ticket.Video.ID
	likes.add(model.TargetVideo, videoID)

	if err := svc.Delete(ctx, primitive.NewObjectID(), videoID.Hex()); err == nil {
		t.Fatal("non-owner delete accepted")
	}
	if err := svc.Delete(ctx, owner, videoID.Hex()); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := store.GetByID(ctx, videoID); err == nil {
		t.Error("video document survived its delete")
	}
	if len(likes.byTarget) != 0 {
		t.Error("video likes survived the cascade")
	}
	if len(media.removed) != 2 {
		t.Errorf("%d media objects removed, want 2", len(media.removed))
	}
}

func TestGetByIDSideEffects(t *testing.T) {
	ctx := context.Background()
	store := newFakeVideoStore()
	history := newMemHistory()
	cascade := interaction.NewCascadeService(newTestLikeStore(), &testCommentStore{}, nil, nil)
	media := &fakeMedia{}
	svc := NewVideoService(store, history, media, cascade, pipeline.NewPaginator(), time.Minute)

	owner := primitive.NewObjectID()
	ticket, _ := svc.Publish(ctx, owner, "watched", "", 1)
	videoID := ticket.Video.ID
	viewer := primitive.NewObjectID()

	doc, err := svc.GetByID(ctx, videoID.Hex(), &viewer)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if store.views[videoID] != 1 {
		t.Errorf("views = %d after one fetch", store.views[videoID])
	}
	if len(history.watched[viewer]) != 1 {
		t.Error("fetch did not record watch history")
	}
	if file, _ := doc["video_file"].(string); file == "" || file == ticket.Video.VideoFile {
		t.Errorf("video_file = %q, want a presigned URL", file)
	}
}

func TestGetByIDAnonymousSkipsHistory(t *testing.T) {
	ctx := context.Background()
	store := newFakeVideoStore()
	history := newMemHistory()
	cascade := interaction.NewCascadeService(newTestLikeStore(), &testCommentStore{}, nil, nil)
	svc := NewVideoService(store, history, nil, cascade, pipeline.NewPaginator(), time.Minute)

	ticket, _ := svc.Publish(ctx, primitive.NewObjectID(), "anon", "", 1)
	if _, err := svc.GetByID(ctx, ticket.Video.ID.Hex(), nil); err != nil {
		t.Fatalf("anonymous get failed: %v", err)
	}
	if len(history.watched) != 0 {
		t.Error("anonymous fetch recorded watch history")
	}
}

func TestGetByIDMissing(t *testing.T) {
	svc := newVideoService(newFakeVideoStore(), nil, newTestLikeStore())
	_, err := svc.GetByID(context.Background(), primitive.NewObjectID().Hex(), nil)
	var e errno.ErrNo
	if !errors.As(err, &e) || e.ErrCode != errno.NotFoundCode {
		t.Fatalf("got %v, want NotFound", err)
	}
}

func TestFeedRejectsMalformedOwner(t *testing.T) {
	svc := newVideoService(newFakeVideoStore(), nil, newTestLikeStore())
	_, err := svc.Feed(context.Background(), FeedParams{OwnerHex: "zzz", Page: 1, Limit: 10}, nil)
	var e errno.ErrNo
	if !errors.As(err, &e) || e.ErrCode != errno.InvalidIdentifierCode {
		t.Fatalf("got %v, want InvalidIdentifier", err)
	}
}

// eventLog records published consistency events.
type eventLog struct {
	events []*mq.ConsistencyEvent
}

func (l *eventLog) PublishConsistencyEvent(ctx context.Context, event *mq.ConsistencyEvent) error {
	l.events = append(l.events, event)
	return nil
}

func TestFeedClampsBadPageAndLimit(t *testing.T) {
	ctx := context.Background()
	store := newFakeVideoStore()
	svc := newVideoService(store, &fakeMedia{}, newTestLikeStore())

	cases := []struct {
		name        string
		page, limit int64
	}{
		{"negative limit", 1, -5},
		{"zero limit", 1, 0},
		{"negative page", -3, 10},
		{"both negative", -1, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.Feed(ctx, FeedParams{Page: tc.page, Limit: tc.limit}, nil)
			if err != nil {
				t.Fatalf("feed failed: %v", err)
			}
			if result.Page < 1 || result.Limit < 1 {
				t.Errorf("page=%d limit=%d escaped the clamp", result.Page, result.Limit)
			}
		})
	}
}

func TestDeleteParentFailureReportsNoViolation(t *testing.T) {
	ctx := context.Background()
	store := newFakeVideoStore()
	media := &fakeMedia{}
	likes := newTestLikeStore()
	log := &eventLog{}
	cascade := interaction.NewCascadeService(likes, &testCommentStore{}, nil, log)
	svc := NewVideoService(store, newMemHistory(), media, cascade, pipeline.NewPaginator(), time.Minute)
	owner := primitive.NewObjectID()

	ticket, err := svc.Publish(ctx, owner, "stuck", "", 1)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	store.deleteErr = errors.New("write conflict")

	if err := svc.Delete(ctx, owner, ticket.Video.ID.Hex()); err == nil {
		t.Fatal("delete reported success despite the storage error")
	}
	// The parent is still there and the caller already saw the error, so
	// no consistency event belongs here; the reconciler owns the retry.
	if len(log.events) != 0 {
		t.Errorf("%d consistency events published, want 0", len(log.events))
	}
	if len(media.removed) != 0 {
		t.Errorf("%d media objects removed for a surviving video, want 0", len(media.removed))
	}
}
