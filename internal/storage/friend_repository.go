package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-go/internal/models"
)

// FriendRepository defines the interface for friendship data operations.
// PairKey is unique, so a pair can be friends at most once.
type FriendRepository interface {
	Create(ctx context.Context, friend *models.Friend) error
	GetByID(ctx context.Context, id string) (*models.Friend, error)
	FindByPair(ctx context.Context, userID1, userID2 string) (*models.Friend, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]*models.Friend, error)
	// PageByUser is ListByUser newest first, one page at a time.
	PageByUser(ctx context.Context, userID string, page Page) ([]*models.Friend, error)
}

type mongoFriendRepository struct {
	coll *mongo.Collection
}

func NewMongoFriendRepository(db *mongo.Database) FriendRepository {
	return &mongoFriendRepository{coll: db.Collection("friends")}
}

func (r *mongoFriendRepository) Create(ctx context.Context, friend *models.Friend) error {
	_, err := r.coll.InsertOne(ctx, friend)
	return mapMongoErr(err)
}

func (r *mongoFriendRepository) GetByID(ctx context.Context, id string) (*models.Friend, error) {
	var friend models.Friend
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&friend); err != nil {
		return nil, mapMongoErr(err)
	}
	return &friend, nil
}

func (r *mongoFriendRepository) FindByPair(ctx context.Context, userID1, userID2 string) (*models.Friend, error) {
	var friend models.Friend
	err := r.coll.FindOne(ctx, bson.M{"pairKey": models.PairKey(userID1, userID2)}).Decode(&friend)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &friend, nil
}

func (r *mongoFriendRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoFriendRepository) ListByUser(ctx context.Context, userID string) ([]*models.Friend, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"userIds": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	friends := []*models.Friend{}
	if err := cursor.All(ctx, &friends); err != nil {
		return nil, err
	}
	return friends, nil
}

func (r *mongoFriendRepository) PageByUser(ctx context.Context, userID string, page Page) ([]*models.Friend, error) {
	friends := []*models.Friend{}
	filter, opts := page.apply(bson.M{"userIds": userID})
	return friends, findAll(ctx, r.coll, filter, opts, &friends)
}
