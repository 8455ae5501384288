package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	interaction "vidtube.com/cmd/interaction/service"
	"vidtube.com/cmd/model"
	"vidtube.com/pkg/constants"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/pipeline"
	"vidtube.com/pkg/utils"
)

// TweetStore is the storage contract of the tweet operations.
type TweetStore interface {
	Create(ctx context.Context, tweet *model.Tweet) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Tweet, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*model.Tweet, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Executor() pipeline.Executor
}

type TweetService struct {
	tweets    TweetStore
	cascade   *interaction.CascadeService
	paginator *pipeline.Paginator
}

func NewTweetService(tweets TweetStore, cascade *interaction.CascadeService, paginator *pipeline.Paginator) *TweetService {
	return &TweetService{tweets: tweets, cascade: cascade, paginator: paginator}
}

func validateTweet(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errno.ParamErr.WithMessage("Tweet content cannot be empty")
	}
	if utf8.RuneCountInString(content) > constants.MaxTweetLength {
		return "", errno.ParamErr.WithMessage("Tweet too long, maximum 280 characters allowed")
	}
	return content, nil
}

func (s *TweetService) Create(ctx context.Context, owner primitive.ObjectID, content string) (*model.Tweet, error) {
	content, err := validateTweet(content)
	if err != nil {
		return nil, err
	}
	tweet := &model.Tweet{Content: content, Owner: owner}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return nil, err
	}
	return tweet, nil
}

func (s *TweetService) Update(ctx context.Context, owner primitive.ObjectID, tweetHex, content string) (*model.Tweet, error) {
	content, err := validateTweet(content)
	if err != nil {
		return nil, err
	}
	tweetID, err := utils.ParseObjectID(tweetHex)
	if err != nil {
		return nil, err
	}
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if tweet.Owner != owner {
		return nil, errno.Forbidden.WithMessage("Only the tweet owner can edit this tweet")
	}
	return s.tweets.UpdateContent(ctx, tweetID, content)
}

// Delete removes the tweet after sweeping its likes.
func (s *TweetService) Delete(ctx context.Context, owner primitive.ObjectID, tweetHex string) error {
	tweetID, err := utils.ParseObjectID(tweetHex)
	if err != nil {
		return err
	}
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return err
	}
	if tweet.Owner != owner {
		return errno.Forbidden.WithMessage("Only the tweet owner can delete this tweet")
	}

	s.cascade.Begin(ctx, model.TargetTweet, tweetID)
	if err := s.cascade.OnDeleteParent(ctx, model.TargetTweet, tweetID); err != nil {
		return err
	}
	if err := s.tweets.Delete(ctx, tweetID); err != nil {
		return err
	}
	s.cascade.Finish(ctx, model.TargetTweet, tweetID)
	return nil
}

// ListByUser returns one user's tweet page, newest first.
func (s *TweetService) ListByUser(ctx context.Context, ownerHex string, viewer *primitive.ObjectID, page, limit int64) (*pipeline.Page, error) {
	ownerID, err := utils.ParseObjectID(ownerHex)
	if err != nil {
		return nil, err
	}
	stages := pipeline.UserTweets(ownerID, viewer)
	var items []bson.M
	return s.paginator.Execute(ctx, s.tweets.Executor(), stages, page, limit, &items)
}
