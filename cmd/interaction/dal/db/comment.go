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

type CommentDAO struct {
	coll *mongo.Collection
	exec *pipeline.CollectionExecutor
}

func NewCommentDAO(database *mongo.Database) *CommentDAO {
	coll := database.Collection(constants.CommentCollection)
	return &CommentDAO{coll: coll, exec: &pipeline.CollectionExecutor{Coll: coll}}
}

func (d *CommentDAO) Executor() pipeline.Executor {
	return d.exec
}

func (d *CommentDAO) Create(ctx context.Context, comment *model.Comment) error {
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	res, err := d.coll.InsertOne(ctx, comment)
	if err != nil {
		return err
	}
	comment.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (d *CommentDAO) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	var comment model.Comment
	err := d.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		return nil, errno.NotFound.WithMessage("comment not found")
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (d *CommentDAO) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := d.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	return count > 0, err
}

func (d *CommentDAO) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*model.Comment, error) {
	after := options.After
	var comment model.Comment
	err := d.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "content", Value: content},
			{Key: "updated_at", Value: time.Now()},
		}}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		return nil, errno.NotFound.WithMessage("comment not found")
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (d *CommentDAO) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := d.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return err
}

// IDsByVideo lists the comment ids of one video, used by the cascade to
// sweep their likes before the comments themselves go.
func (d *CommentDAO) IDsByVideo(ctx context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := d.coll.Find(ctx,
		bson.D{{Key: "video", Value: videoID}},
		options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func (d *CommentDAO) DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) (int64, error) {
	res, err := d.coll.DeleteMany(ctx, bson.D{{Key: "video", Value: videoID}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
