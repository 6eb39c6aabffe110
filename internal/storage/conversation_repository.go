package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"social-go/internal/models"
)

// ConversationRepository defines the interface for private conversation data.
type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	FindByPair(ctx context.Context, userID1, userID2 string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, messageID string) error
}

// MessageRepository defines the interface for message data operations.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByConversation(ctx context.Context, conversationID string, page Page) ([]*models.Message, error)
}

type mongoConversationRepository struct {
	coll *mongo.Collection
}

func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &mongoConversationRepository{coll: db.Collection("conversations")}
}

func (r *mongoConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	_, err := r.coll.InsertOne(ctx, conv)
	return mapMongoErr(err)
}

func (r *mongoConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&conv); err != nil {
		return nil, mapMongoErr(err)
	}
	return &conv, nil
}

func (r *mongoConversationRepository) FindByPair(ctx context.Context, userID1, userID2 string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.coll.FindOne(ctx, bson.M{"pairKey": models.PairKey(userID1, userID2)}).Decode(&conv)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &conv, nil
}

func (r *mongoConversationRepository) AppendMessage(ctx context.Context, conversationID, messageID string) error {
	return appendToList(ctx, r.coll, conversationID, "messageIds", messageID)
}

type mongoMessageRepository struct {
	coll *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &mongoMessageRepository{coll: db.Collection("messages")}
}

func (r *mongoMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return mapMongoErr(err)
}

func (r *mongoMessageRepository) ListByConversation(ctx context.Context, conversationID string, page Page) ([]*models.Message, error) {
	filter, opts := page.apply(bson.M{"conversationId": conversationID})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*models.Message{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
