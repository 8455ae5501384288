package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vidtube.com/cmd/model"
	"vidtube.com/pkg/constants"
	"vidtube.com/pkg/pipeline"
)

type LikeDAO struct {
	coll *mongo.Collection
	exec *pipeline.CollectionExecutor
}

func NewLikeDAO(database *mongo.Database) *LikeDAO {
	coll := database.Collection(constants.LikeCollection)
	return &LikeDAO{coll: coll, exec: &pipeline.CollectionExecutor{Coll: coll}}
}

func (d *LikeDAO) Executor() pipeline.Executor {
	return d.exec
}

// FindByOwnerTarget returns (nil, nil) when no like exists.
func (d *LikeDAO) FindByOwnerTarget(ctx context.Context, owner primitive.ObjectID, kind model.TargetType, target primitive.ObjectID) (*model.Like, error) {
	var like model.Like
	err := d.coll.FindOne(ctx, bson.D{
		{Key: "liked_by", Value: owner},
		{Key: "target_type", Value: kind},
		{Key: "target_id", Value: target},
	}).Decode(&like)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Create inserts the like. A duplicate-key error means a concurrent toggle
// already created the document; that is reported as created=false, not as
// an error, because the caller's desired state holds either way.
func (d *LikeDAO) Create(ctx context.Context, like *model.Like) (bool, error) {
	res, err := d.coll.InsertOne(ctx, like)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	like.ID = res.InsertedID.(primitive.ObjectID)
	return true, nil
}

func (d *LikeDAO) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := d.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return err
}

// DeleteByTarget removes every like of one target. Re-running it against
// an already-empty set is a no-op, which is what makes cascade retries safe.
func (d *LikeDAO) DeleteByTarget(ctx context.Context, kind model.TargetType, target primitive.ObjectID) (int64, error) {
	res, err := d.coll.DeleteMany(ctx, bson.D{
		{Key: "target_type", Value: kind},
		{Key: "target_id", Value: target},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByTargets removes likes of many targets of one kind in one sweep.
func (d *LikeDAO) DeleteByTargets(ctx context.Context, kind model.TargetType, targets []primitive.ObjectID) (int64, error) {
	if len(targets) == 0 {
		return 0, nil
	}
	res, err := d.coll.DeleteMany(ctx, bson.D{
		{Key: "target_type", Value: kind},
		{Key: "target_id", Value: bson.D{{Key: "$in", Value: targets}}},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
