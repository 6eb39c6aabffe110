package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-go/internal/models"
)

// ReactionRepository defines the interface for reaction data operations.
// The (userId, sourceId) pair is unique.
type ReactionRepository interface {
	Create(ctx context.Context, reaction *models.Reaction) error
	GetByID(ctx context.Context, id string) (*models.Reaction, error)
	FindByUserAndSource(ctx context.Context, userID, sourceID string) (*models.Reaction, error)
	Delete(ctx context.Context, id string) error
	// UpdateType changes the reaction type only if it still equals from.
	UpdateType(ctx context.Context, id string, from, to models.ReactionType) error
	ListBySource(ctx context.Context, sourceID string, typeFilter models.ReactionType, page Page) ([]*models.Reaction, error)
	ListAllBySource(ctx context.Context, sourceType models.SourceType, sourceID string) ([]*models.Reaction, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Reaction, error)
}

type mongoReactionRepository struct {
	coll *mongo.Collection
}

func NewMongoReactionRepository(db *mongo.Database) ReactionRepository {
	return &mongoReactionRepository{coll: db.Collection("reactions")}
}

func (r *mongoReactionRepository) Create(ctx context.Context, reaction *models.Reaction) error {
	_, err := r.coll.InsertOne(ctx, reaction)
	return mapMongoErr(err)
}

func (r *mongoReactionRepository) GetByID(ctx context.Context, id string) (*models.Reaction, error) {
	var reaction models.Reaction
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&reaction); err != nil {
		return nil, mapMongoErr(err)
	}
	return &reaction, nil
}

func (r *mongoReactionRepository) FindByUserAndSource(ctx context.Context, userID, sourceID string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.coll.FindOne(ctx, bson.M{"userId": userID, "sourceId": sourceID}).Decode(&reaction)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &reaction, nil
}

func (r *mongoReactionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoReactionRepository) UpdateType(ctx context.Context, id string, from, to models.ReactionType) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "type": from},
		bson.M{"$set": bson.M{"type": to}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoReactionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Reaction, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*models.Reaction{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoReactionRepository) ListBySource(ctx context.Context, sourceID string, typeFilter models.ReactionType, page Page) ([]*models.Reaction, error) {
	base := bson.M{"sourceId": sourceID}
	if typeFilter != "" {
		base["type"] = typeFilter
	}
	filter, opts := page.apply(base)
	return r.find(ctx, filter, opts)
}

func (r *mongoReactionRepository) ListAllBySource(ctx context.Context, sourceType models.SourceType, sourceID string) ([]*models.Reaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"sourceType": sourceType, "sourceId": sourceID}, opts)
}

func (r *mongoReactionRepository) ListByUser(ctx context.Context, userID string) ([]*models.Reaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"userId": userID}, opts)
}
