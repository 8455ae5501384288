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

type UserDAO struct {
	coll *mongo.Collection
	exec *pipeline.CollectionExecutor
}

func NewUserDAO(database *mongo.Database) *UserDAO {
	coll := database.Collection(constants.UserCollection)
	return &UserDAO{coll: coll, exec: &pipeline.CollectionExecutor{Coll: coll}}
}

func (d *UserDAO) Executor() pipeline.Executor {
	return d.exec
}

func (d *UserDAO) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	res, err := d.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return errno.Conflict.WithMessage("username already taken")
	}
	if err != nil {
		return err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (d *UserDAO) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var user model.User
	err := d.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, errno.NotFound.WithMessage("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIdentifier resolves a login identifier against username or email.
func (d *UserDAO) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	var user model.User
	err := d.coll.FindOne(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: identifier}},
		bson.D{{Key: "email", Value: identifier}},
	}}}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, errno.NotFound.WithMessage("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *UserDAO) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := d.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	return count > 0, err
}

// AddWatchHistory records a watched video. $addToSet keeps membership
// unique without a read-modify-write cycle.
func (d *UserDAO) AddWatchHistory(ctx context.Context, userID, videoID primitive.ObjectID) error {
	_, err := d.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$addToSet", Value: bson.D{{Key: "watch_history", Value: videoID}}}},
	)
	return err
}

func (d *UserDAO) SetRefreshToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	_, err := d.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "refresh_token", Value: token}}}},
	)
	return err
}
