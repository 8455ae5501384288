package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription links a subscriber to a channel (both user ids). Unique
// index on (subscriber, channel).
type Subscription struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Subscriber primitive.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    primitive.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}
