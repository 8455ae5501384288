package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vidtube.com/pkg/constants"
)

// Connect opens the client, verifies the deployment answers, and makes
// sure the uniqueness indexes exist before any request is served.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "mongo ping")
	}

	db := client.Database(dbName)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, errors.Wrap(err, "ensure indexes")
	}

	logrus.Infof("Connected to mongo database %s", dbName)
	return db, nil
}

func Disconnect(ctx context.Context, db *mongo.Database) error {
	return db.Client().Disconnect(ctx)
}

// ensureIndexes creates the storage-level invariants the services rely on.
// The unique like index is what turns a concurrent double-toggle into a
// duplicate-key error instead of two documents; the toggle services absorb
// that error as "already present".
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	_, err := db.Collection(constants.LikeCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "liked_by", Value: 1},
			{Key: "target_type", Value: 1},
			{Key: "target_id", Value: 1},
		},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(constants.SubscriptionCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "subscriber", Value: 1},
			{Key: "channel", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(constants.UserCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	// Query-path indexes for the feed, comment list and cascade deletes.
	secondary := []struct {
		coll string
		keys bson.D
	}{
		{constants.VideoCollection, bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}}},
		{constants.CommentCollection, bson.D{{Key: "video", Value: 1}, {Key: "created_at", Value: -1}}},
		{constants.TweetCollection, bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}}},
		{constants.LikeCollection, bson.D{{Key: "target_type", Value: 1}, {Key: "target_id", Value: 1}}},
	}
	for _, idx := range secondary {
		if _, err := db.Collection(idx.coll).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: idx.keys}); err != nil {
			return err
		}
	}
	return nil
}
