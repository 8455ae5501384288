package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User carries credential fields that must never be projected into query
// results. Output allow-lists enumerate public fields instead of excluding
// these two.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	FullName     string               `bson:"full_name" json:"fullName"`
	Password     string               `bson:"password" json:"-"`
	Avatar       string               `bson:"avatar" json:"avatar"`
	CoverImage   string               `bson:"cover_image" json:"coverImage"`
	WatchHistory []primitive.ObjectID `bson:"watch_history" json:"watchHistory"`
	RefreshToken string               `bson:"refresh_token,omitempty" json:"-"`
	CreatedAt    time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updatedAt"`
}
