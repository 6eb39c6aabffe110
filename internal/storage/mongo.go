package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-go/internal/config"
	"social-go/internal/logging"
	"social-go/internal/models"
)

// InitMongo connects to MongoDB and verifies the connection with a ping.
func InitMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	logging.WithComponent("storage").Info().Str("database", cfg.Database).Msg("connected to MongoDB")
	return client, nil
}

type indexSpec struct {
	collection string
	keys       bson.D
	unique     bool
	sparse     bool
}

// uniqueness invariants live in these indexes; writers rely on ErrDuplicate.
var indexSpecs = []indexSpec{
	{collection: "users", keys: bson.D{{Key: "username", Value: 1}}, unique: true},
	{collection: "users", keys: bson.D{{Key: "email", Value: 1}}, unique: true, sparse: true},
	{collection: "users", keys: bson.D{{Key: "phone", Value: 1}}, unique: true, sparse: true},
	{collection: "friend_requests", keys: bson.D{{Key: "senderId", Value: 1}, {Key: "receiverId", Value: 1}}, unique: true},
	{collection: "friend_requests", keys: bson.D{{Key: "receiverId", Value: 1}}},
	{collection: "friends", keys: bson.D{{Key: "pairKey", Value: 1}}, unique: true},
	{collection: "friends", keys: bson.D{{Key: "userIds", Value: 1}}},
	{collection: "notifications", keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "_id", Value: -1}}},
	{collection: "notifications", keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "hasBeenSeen", Value: 1}}},
	{collection: "reactions", keys: bson.D{{Key: "userId", Value: 1}, {Key: "sourceId", Value: 1}}, unique: true},
	{collection: "reactions", keys: bson.D{{Key: "sourceId", Value: 1}, {Key: "type", Value: 1}, {Key: "_id", Value: -1}}},
	{collection: "posts", keys: bson.D{{Key: "userId", Value: 1}, {Key: "_id", Value: -1}}},
	{collection: "comments", keys: bson.D{{Key: "postId", Value: 1}, {Key: "_id", Value: -1}}},
	{collection: "replies", keys: bson.D{{Key: "commentId", Value: 1}, {Key: "_id", Value: -1}}},
	{collection: "conversations", keys: bson.D{{Key: "pairKey", Value: 1}}, unique: true},
	{collection: "messages", keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "_id", Value: -1}}},
}

// EnsureIndexes creates the indexes every repository depends on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, spec := range indexSpecs {
		opts := options.Index()
		if spec.unique {
			opts.SetUnique(true)
		}
		if spec.sparse {
			opts.SetSparse(true)
		}
		_, err := db.Collection(spec.collection).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: spec.keys, Options: opts})
		if err != nil {
			return fmt.Errorf("create index on %s: %w", spec.collection, err)
		}
	}
	return nil
}

// NewMongoStore wires every repository to db.
func NewMongoStore(db *mongo.Database, journal RepairJournal) *Store {
	return &Store{
		Users:          NewMongoUserRepository(db),
		FriendRequests: NewMongoFriendRequestRepository(db),
		Friends:        NewMongoFriendRepository(db),
		Notifications:  NewMongoNotificationRepository(db),
		Reactions:      NewMongoReactionRepository(db),
		Reactables: map[models.SourceType]ReactableRepository{
			models.SourcePost:    NewMongoReactableRepository(db, models.SourcePost),
			models.SourceComment: NewMongoReactableRepository(db, models.SourceComment),
			models.SourceReply:   NewMongoReactableRepository(db, models.SourceReply),
		},
		Content:       NewMongoContentRepository(db),
		Conversations: NewMongoConversationRepository(db),
		Messages:      NewMongoMessageRepository(db),
		Journal:       journal,
	}
}
