package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-go/internal/models"
)

// FriendRequestRepository defines the interface for friend request data operations.
// The store enforces one pending request per ordered (sender, receiver) pair.
type FriendRequestRepository interface {
	Create(ctx context.Context, request *models.FriendRequest) error
	GetByID(ctx context.Context, id string) (*models.FriendRequest, error)
	FindPending(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error)
	// Delete removes the request; ErrNotFound means another caller got there first.
	Delete(ctx context.Context, id string) error
	ListReceived(ctx context.Context, receiverID string) ([]*models.FriendRequest, error)
	ListSent(ctx context.Context, senderID string) ([]*models.FriendRequest, error)
}

type mongoFriendRequestRepository struct {
	coll *mongo.Collection
}

func NewMongoFriendRequestRepository(db *mongo.Database) FriendRequestRepository {
	return &mongoFriendRequestRepository{coll: db.Collection("friend_requests")}
}

func (r *mongoFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	_, err := r.coll.InsertOne(ctx, request)
	return mapMongoErr(err)
}

func (r *mongoFriendRequestRepository) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&request); err != nil {
		return nil, mapMongoErr(err)
	}
	return &request, nil
}

func (r *mongoFriendRequestRepository) FindPending(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.coll.FindOne(ctx, bson.M{"senderId": senderID, "receiverId": receiverID}).Decode(&request)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &request, nil
}

func (r *mongoFriendRequestRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoFriendRequestRepository) list(ctx context.Context, filter bson.M) ([]*models.FriendRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []*models.FriendRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *mongoFriendRequestRepository) ListReceived(ctx context.Context, receiverID string) ([]*models.FriendRequest, error) {
	return r.list(ctx, bson.M{"receiverId": receiverID})
}

func (r *mongoFriendRequestRepository) ListSent(ctx context.Context, senderID string) ([]*models.FriendRequest, error) {
	return r.list(ctx, bson.M{"senderId": senderID})
}
