package model

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewLikeRequiresValidVariant(t *testing.T) {
	owner := primitive.NewObjectID()
	target := primitive.NewObjectID()

	for _, kind := range []TargetType{TargetVideo, TargetComment, TargetTweet} {
		like, err := NewLike(kind, target, owner)
		if err != nil {
			t.Fatalf("NewLike(%s) failed: %v", kind, err)
		}
		if like.TargetType != kind || like.TargetID != target || like.LikedBy != owner {
			t.Errorf("NewLike(%s) built %+v", kind, like)
		}
	}

	if _, err := NewLike(TargetType("playlist"), target, owner); err == nil {
		t.Error("unknown target type accepted")
	}
	if _, err := NewLike(TargetVideo, primitive.NilObjectID, owner); err == nil {
		t.Error("zero target accepted")
	}
	if _, err := NewLike(TargetVideo, target, primitive.NilObjectID); err == nil {
		t.Error("zero owner accepted")
	}
}

func TestTargetTypeValid(t *testing.T) {
	if TargetType("").Valid() || TargetType("user").Valid() {
		t.Error("invalid target types pass Valid")
	}
	if !TargetVideo.Valid() || !TargetComment.Valid() || !TargetTweet.Valid() {
		t.Error("known target types fail Valid")
	}
}
