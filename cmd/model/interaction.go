package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content   string             `bson:"content" json:"content"`
	Video     primitive.ObjectID `bson:"video" json:"video"`
	Owner     primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// TargetType discriminates what a Like applies to.
type TargetType string

const (
	TargetVideo   TargetType = "video"
	TargetComment TargetType = "comment"
	TargetTweet   TargetType = "tweet"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetVideo, TargetComment, TargetTweet:
		return true
	}
	return false
}

// Like references exactly one target, discriminated by TargetType. The
// likes collection carries a unique index on (liked_by, target_type,
// target_id), so at most one document exists per owner and target.
type Like struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LikedBy    primitive.ObjectID `bson:"liked_by" json:"likedBy"`
	TargetType TargetType         `bson:"target_type" json:"targetType"`
	TargetID   primitive.ObjectID `bson:"target_id" json:"targetId"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}

// NewLike is the only way a Like should be built, so a document can never
// hold more or less than one target variant.
func NewLike(kind TargetType, target, owner primitive.ObjectID) (*Like, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown like target type %q", kind)
	}
	if target.IsZero() || owner.IsZero() {
		return nil, fmt.Errorf("like requires both target and owner ids")
	}
	return &Like{
		LikedBy:    owner,
		TargetType: kind,
		TargetID:   target,
		CreatedAt:  time.Now(),
	}, nil
}
