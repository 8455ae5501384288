package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vidtube.com/cmd/model"
	"vidtube.com/pkg/constants"
)

type SubscriptionDAO struct {
	coll *mongo.Collection
}

func NewSubscriptionDAO(database *mongo.Database) *SubscriptionDAO {
	return &SubscriptionDAO{coll: database.Collection(constants.SubscriptionCollection)}
}

// Find returns (nil, nil) when no subscription exists.
func (d *SubscriptionDAO) Find(ctx context.Context, subscriber, channel primitive.ObjectID) (*model.Subscription, error) {
	var sub model.Subscription
	err := d.coll.FindOne(ctx, bson.D{
		{Key: "subscriber", Value: subscriber},
		{Key: "channel", Value: channel},
	}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create absorbs a duplicate-key race the same way the like path does.
func (d *SubscriptionDAO) Create(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	_, err := d.coll.InsertOne(ctx, &model.Subscription{
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  time.Now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *SubscriptionDAO) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := d.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return err
}
