package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vidtube.com/cmd/model"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/pipeline"
)

// fakeCommentStore is an in-memory CommentStore.
type fakeCommentStore struct {
	comments map[primitive.ObjectID]*model.Comment
	total    int64
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[primitive.ObjectID]*model.Comment)}
}

func (f *fakeCommentStore) Create(ctx context.Context, comment *model.Comment) error {
	comment.ID = primitive.NewObjectID()
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeCommentStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, errno.NotFound.WithMessage("comment not found")
	}
	return c, nil
}

func (f *fakeCommentStore) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*model.Comment, error) {
	c, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Content = content
	return c, nil
}

func (f *fakeCommentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentStore) Executor() pipeline.Executor {
	return &staticExecutor{total: f.total}
}

// staticExecutor answers every aggregation with a fixed count and no rows.
type staticExecutor struct {
	total int64
}

func (s *staticExecutor) Aggregate(ctx context.Context, p mongo.Pipeline, out interface{}) error {
	return nil
}

func (s *staticExecutor) Count(ctx context.Context, p mongo.Pipeline) (int64, error) {
	return s.total, nil
}

// fakeGuard rejects when told to.
type fakeGuard struct {
	count int64
	dup   bool
	err   error
}

func (g *fakeGuard) RateCount(ctx context.Context, userID string) (int64, error) {
	return g.count, g.err
}

func (g *fakeGuard) IsDuplicate(ctx context.Context, userID, content string) (bool, error) {
	return g.dup, g.err
}

func newCommentService(store *fakeCommentStore, videoExists ExistsFunc, guard CommentGuard) *CommentService {
	cascade := NewCascadeService(newMemLikeStore(), &memCommentStore{}, nil, nil)
	return NewCommentService(store, videoExists, cascade, guard, pipeline.NewPaginator())
}

func TestCommentCreate(t *testing.T) {
	store := newFakeCommentStore()
	svc := newCommentService(store, alwaysExists, nil)
	user := primitive.NewObjectID()
	videoID := primitive.NewObjectID()

	comment, err := svc.Create(context.Background(), user, videoID.Hex(), "  nice video  ")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if comment.Content != "nice video" {
		t.Errorf("content = %q, want trimmed", comment.Content)
	}
	if comment.Owner != user || comment.Video != videoID {
		t.Error("comment owner or video not set")
	}
}

func TestCommentCreateValidation(t *testing.T) {
	svc := newCommentService(newFakeCommentStore(), alwaysExists, nil)
	user := primitive.NewObjectID()
	videoHex := primitive.NewObjectID().Hex()

	cases := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t  "},
		{"over limit", strings.Repeat("a", 501)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), user, videoHex, tc.content)
			var e errno.ErrNo
			if !errors.As(err, &e) || e.ErrCode != errno.ParamErrCode {
				t.Fatalf("got %v, want ParamErr", err)
			}
		})
	}

	// 500 runes exactly is allowed, multi-byte runes included.
	if _, err := svc.Create(context.Background(), user, videoHex, strings.Repeat("好", 500)); err != nil {
		t.Fatalf("500-rune comment rejected: %v", err)
	}
}

func TestCommentCreateMissingVideo(t *testing.T) {
	svc := newCommentService(newFakeCommentStore(), neverExists, nil)
	_, err := svc.Create(context.Background(), primitive.NewObjectID(), primitive.NewObjectID().Hex(), "hi")
	var e errno.ErrNo
	if !errors.As(err, &e) || e.ErrCode != errno.NotFoundCode {
		t.Fatalf("got %v, want NotFound", err)
	}
}

func TestCommentGuards(t *testing.T) {
	user := primitive.NewObjectID()
	videoHex := primitive.NewObjectID().Hex()

	t.Run("rate limited", func(t *testing.T) {
		svc := newCommentService(newFakeCommentStore(), alwaysExists, &fakeGuard{count: 11})
		if _, err := svc.Create(context.Background(), user, videoHex, "hi"); err == nil {
			t.Fatal("rate-limited comment accepted")
		}
	})
	t.Run("duplicate", func(t *testing.T) {
		svc := newCommentService(newFakeCommentStore(), alwaysExists, &fakeGuard{dup: true})
		if _, err := svc.Create(context.Background(), user, videoHex, "hi"); err == nil {
			t.Fatal("duplicate comment accepted")
		}
	})
	t.Run("guard outage fails open", func(t *testing.T) {
		svc := newCommentService(newFakeCommentStore(), alwaysExists, &fakeGuard{err: errors.New("cache down")})
		if _, err := svc.Create(context.Background(), user, videoHex, "hi"); err != nil {
			t.Fatalf("guard outage blocked the comment: %v", err)
		}
	})
}

func TestCommentUpdateOwnership(t *testing.T) {
	ctx := context.Background()
	store := newFakeCommentStore()
	svc := newCommentService(store, alwaysExists, nil)
	owner := primitive.NewObjectID()

	comment, err := svc.Create(ctx, owner, primitive.NewObjectID().Hex(), "original")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Update(ctx, primitive.NewObjectID(), comment.ID.Hex(), "hijacked")
	var e errno.ErrNo
	if !errors.As(err, &e) || e.ErrCode != errno.ForbiddenCode {
		t.Fatalf("non-owner update returned %v, want Forbidden", err)
	}

	updated, err := svc.Update(ctx, owner, comment.ID.Hex(), "edited")
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Content != "edited" {
		t.Errorf("content = %q after update", updated.Content)
	}
}

func TestCommentDeleteCascadesLikes(t *testing.T) {
	ctx := context.Background()
	store := newFakeCommentStore()
	likes := newMemLikeStore()
	cascade := NewCascadeService(likes, &memCommentStore{}, nil, nil)
	svc := NewCommentService(store, alwaysExists, cascade, nil, pipeline.NewPaginator())
	owner := primitive.NewObjectID()

	comment, err := svc.Create(ctx, owner, primitive.NewObjectID().Hex(), "soon gone")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	l, _ := model.NewLike(model.TargetComment, comment.ID, primitive.NewObjectID())
	likes.Create(ctx, l)

	if err := svc.Delete(ctx, primitive.NewObjectID(), comment.ID.Hex()); err == nil {
		t.Fatal("non-owner delete accepted")
	}
	if err := svc.Delete(ctx, owner, comment.ID.Hex()); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if likes.count() != 0 {
		t.Errorf("%d likes survived the comment delete", likes.count())
	}
	if _, err := store.GetByID(ctx, comment.ID); err == nil {
		t.Error("comment survived its delete")
	}
}

func TestCommentList(t *testing.T) {
	store := newFakeCommentStore()
	store.total = 25
	svc := newCommentService(store, alwaysExists, nil)

	page, err := svc.List(context.Background(), primitive.NewObjectID().Hex(), nil, 2, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.TotalItems != 25 || page.TotalPages != 3 {
		t.Errorf("totals = %d items, %d pages", page.TotalItems, page.TotalPages)
	}
	if !page.HasNextPage || !page.HasPrevPage {
		t.Error("page 2 of 3 has wrong neighbor flags")
	}
}

func TestCommentListClampsBadLimit(t *testing.T) {
	store := newFakeCommentStore()
	store.total = 25
	svc := newCommentService(store, alwaysExists, nil)

	page, err := svc.List(context.Background(), primitive.NewObjectID().Hex(), nil, 0, -5)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Page < 1 || page.Limit < 1 {
		t.Errorf("page=%d limit=%d escaped the clamp", page.Page, page.Limit)
	}
}

func TestCommentListMissingVideo(t *testing.T) {
	svc := newCommentService(newFakeCommentStore(), neverExists, nil)
	_, err := svc.List(context.Background(), primitive.NewObjectID().Hex(), nil, 1, 10)
	var e errno.ErrNo
	if !errors.As(err, &e) || e.ErrCode != errno.NotFoundCode {
		t.Fatalf("got %v, want NotFound", err)
	}
}
