package utils

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/pkg/errno"
)

// ParseObjectID validates a caller-supplied identifier before any storage
// access. Malformed ids are rejected locally as InvalidIdentifier.
func ParseObjectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, errno.InvalidIdentifier.WithMessage("malformed identifier: " + hex)
	}
	return id, nil
}
