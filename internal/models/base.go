package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a new document id. Ids are ObjectID hex strings, so their
// lexical order follows creation order; cursor pagination relies on this.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether s looks like an id produced by NewID.
func ValidID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// Now is the clock used for CreatedAt stamps, truncated to the millisecond
// precision the document store keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
