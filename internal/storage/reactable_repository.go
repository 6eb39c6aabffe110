package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"social-go/internal/models"
)

// ReactableRepository maintains the denormalised ReactionState of one
// reactable kind. Each mutation is a single conditional update, so counts
// never drift under concurrent writers and never go below zero.
type ReactableRepository interface {
	Kind() models.SourceType
	Get(ctx context.Context, id string) (models.Reactable, error)
	// AddReaction records reactionID under t. It is a no-op when the id is
	// already present; ErrNotFound means the reactable does not exist.
	AddReaction(ctx context.Context, id string, t models.ReactionType, reactionID string) error
	// RemoveReaction drops reactionID from t; ErrNotFound means it was not recorded there.
	RemoveReaction(ctx context.Context, id string, t models.ReactionType, reactionID string) error
	ReplaceState(ctx context.Context, id string, state models.ReactionState) error
}

type mongoReactableRepository struct {
	kind    models.SourceType
	coll    *mongo.Collection
	newItem func() models.Reactable
}

// NewMongoReactableRepository returns the reactable repository backing kind.
func NewMongoReactableRepository(db *mongo.Database, kind models.SourceType) ReactableRepository {
	r := &mongoReactableRepository{kind: kind}
	switch kind {
	case models.SourcePost:
		r.coll = db.Collection(postsCollection)
		r.newItem = func() models.Reactable { return &models.Post{} }
	case models.SourceComment:
		r.coll = db.Collection(commentsCollection)
		r.newItem = func() models.Reactable { return &models.Comment{} }
	case models.SourceReply:
		r.coll = db.Collection(repliesCollection)
		r.newItem = func() models.Reactable { return &models.Reply{} }
	default:
		panic("storage: unknown reactable kind " + string(kind))
	}
	return r
}

func (r *mongoReactableRepository) Kind() models.SourceType { return r.kind }

func (r *mongoReactableRepository) Get(ctx context.Context, id string) (models.Reactable, error) {
	item := r.newItem()
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(item); err != nil {
		return nil, mapMongoErr(err)
	}
	return item, nil
}

func (r *mongoReactableRepository) AddReaction(ctx context.Context, id string, t models.ReactionType, reactionID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "reactionIds": bson.M{"$ne": reactionID}},
		bson.M{
			"$inc":      bson.M{"reactionCounts." + string(t): 1},
			"$addToSet": bson.M{"reactionIds": reactionID, "reactions." + string(t): reactionID},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	// Either the reactable is missing or the id was already recorded.
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoReactableRepository) RemoveReaction(ctx context.Context, id string, t models.ReactionType, reactionID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "reactions." + string(t): reactionID},
		bson.M{
			"$inc":  bson.M{"reactionCounts." + string(t): -1},
			"$pull": bson.M{"reactionIds": reactionID, "reactions." + string(t): reactionID},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoReactableRepository) ReplaceState(ctx context.Context, id string, state models.ReactionState) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"reactionCounts": state.Counts,
		"reactionIds":    state.IDs,
		"reactions":      state.ByType,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
