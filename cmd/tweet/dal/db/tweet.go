package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vidtube.com/cmd/model"
	"vidtube.com/pkg/constants"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/pipeline"
)

type TweetDAO struct {
	coll *mongo.Collection
	exec *pipeline.CollectionExecutor
}

func NewTweetDAO(database *mongo.Database) *TweetDAO {
	coll := database.Collection(constants.TweetCollection)
	return &TweetDAO{coll: coll, exec: &pipeline.CollectionExecutor{Coll: coll}}
}

func (d *TweetDAO) Executor() pipeline.Executor {
	return d.exec
}

func (d *TweetDAO) Create(ctx context.Context, tweet *model.Tweet) error {
	now := time.Now()
	tweet.CreatedAt = now
	tweet.UpdatedAt = now
	res, err := d.coll.InsertOne(ctx, tweet)
	if err != nil {
		return err
	}
	tweet.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (d *TweetDAO) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Tweet, error) {
	var tweet model.Tweet
	err := d.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&tweet)
	if err == mongo.ErrNoDocuments {
		return nil, errno.NotFound.WithMessage("tweet not found")
	}
	if err != nil {
		return nil, err
	}
	return &tweet, nil
}

func (d *TweetDAO) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := d.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	return count > 0, err
}

func (d *TweetDAO) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*model.Tweet, error) {
	after := options.After
	var tweet model.Tweet
	err := d.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "content", Value: content},
			{Key: "updated_at", Value: time.Now()},
		}}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&tweet)
	if err == mongo.ErrNoDocuments {
		return nil, errno.NotFound.WithMessage("tweet not found")
	}
	if err != nil {
		return nil, err
	}
	return &tweet, nil
}

func (d *TweetDAO) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := d.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return err
}
