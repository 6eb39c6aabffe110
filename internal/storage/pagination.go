package storage

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Page selects a newest-first window. Ids are creation-ordered, so
// BeforeID acts as the cursor: only documents with a smaller id are returned.
type Page struct {
	BeforeID string
	Limit    int
}

func (p Page) apply(filter bson.M) (bson.M, *options.FindOptions) {
	if p.BeforeID != "" {
		filter["_id"] = bson.M{"$lt": p.BeforeID}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if p.Limit > 0 {
		opts.SetLimit(int64(p.Limit))
	}
	return filter, opts
}
