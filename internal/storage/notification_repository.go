package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"social-go/internal/models"
)

// NotificationRepository defines the interface for notification data operations.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, page Page) ([]*models.Notification, error)
	CountUnseen(ctx context.Context, recipientID string) (int64, error)
	// MarkRead flags one notification as read; ErrNotFound covers foreign ids too.
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllSeen(ctx context.Context, recipientID string) (int64, error)
	FindByFriendRequest(ctx context.Context, recipientID, friendRequestID string) (*models.Notification, error)
	Delete(ctx context.Context, id string) error
}

type mongoNotificationRepository struct {
	coll *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{coll: db.Collection("notifications")}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	_, err := r.coll.InsertOne(ctx, n)
	return mapMongoErr(err)
}

func (r *mongoNotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, mapMongoErr(err)
	}
	return &n, nil
}

func (r *mongoNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, page Page) ([]*models.Notification, error) {
	filter, opts := page.apply(bson.M{"recipientId": recipientID})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*models.Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoNotificationRepository) CountUnseen(ctx context.Context, recipientID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"recipientId": recipientID, "hasBeenSeen": false})
}

func (r *mongoNotificationRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "recipientId": recipientID},
		bson.M{"$set": bson.M{"hasBeenRead": true, "hasBeenSeen": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoNotificationRepository) MarkAllSeen(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"recipientId": recipientID, "hasBeenSeen": false},
		bson.M{"$set": bson.M{"hasBeenSeen": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *mongoNotificationRepository) FindByFriendRequest(ctx context.Context, recipientID, friendRequestID string) (*models.Notification, error) {
	var n models.Notification
	err := r.coll.FindOne(ctx, bson.M{
		"recipientId":     recipientID,
		"type":            models.NotificationFriendRequestReceived,
		"friendRequestId": friendRequestID,
	}).Decode(&n)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &n, nil
}

func (r *mongoNotificationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
