package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	VideoFile   string             `bson:"video_file" json:"videoFile"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"is_published" json:"isPublished"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
