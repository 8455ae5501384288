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

type VideoDAO struct {
	coll *mongo.Collection
	exec *pipeline.CollectionExecutor
}

func NewVideoDAO(database *mongo.Database) *VideoDAO {
	coll := database.Collection(constants.VideoCollection)
	return &VideoDAO{coll: coll, exec: &pipeline.CollectionExecutor{Coll: coll}}
}

// Executor exposes the collection for aggregation pipelines.
func (d *VideoDAO) Executor() pipeline.Executor {
	return d.exec
}

func (d *VideoDAO) Create(ctx context.Context, video *model.Video) error {
	now := time.Now()
	video.CreatedAt = now
	video.UpdatedAt = now
	res, err := d.coll.InsertOne(ctx, video)
	if err != nil {
		return err
	}
	video.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (d *VideoDAO) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Video, error) {
	var video model.Video
	err := d.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&video)
	if err == mongo.ErrNoDocuments {
		return nil, errno.NotFound.WithMessage("video not found")
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (d *VideoDAO) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := d.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	return count > 0, err
}

// Update applies the given $set document and returns the updated video.
func (d *VideoDAO) Update(ctx context.Context, id primitive.ObjectID, set bson.D) (*model.Video, error) {
	set = append(set, bson.E{Key: "updated_at", Value: time.Now()})
	after := options.After
	var video model.Video
	err := d.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&video)
	if err == mongo.ErrNoDocuments {
		return nil, errno.NotFound.WithMessage("video not found")
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (d *VideoDAO) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := d.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// IncrementViews bumps the monotone view counter. It runs after the fetch
// that served the video and is not coordinated with it.
func (d *VideoDAO) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := d.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}},
	)
	return err
}
