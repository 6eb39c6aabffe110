package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-go/internal/models"
)

// UserRepository defines the interface for user data operations.
// List mutations are single-document atomic operations, so concurrent
// updates to different lists of the same user never lose each other.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetBasicInfo(ctx context.Context, id string) (*models.UserBasicInfo, error)
	GetBasicInfos(ctx context.Context, ids []string) ([]*models.UserBasicInfo, error)
	AddToList(ctx context.Context, userID string, field models.UserListField, id string) error
	RemoveFromList(ctx context.Context, userID string, field models.UserListField, id string) error
	SetList(ctx context.Context, userID string, field models.UserListField, ids []string) error
	SetLastSeenAt(ctx context.Context, userID string, at *time.Time) error
}

type mongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a MongoDB-backed UserRepository.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection("users")}
}

var basicInfoProjection = bson.M{"_id": 1, "username": 1, "avatar": 1}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.coll.InsertOne(ctx, user)
	return mapMongoErr(err)
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapMongoErr(err)
	}
	return &user, nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *mongoUserRepository) GetBasicInfo(ctx context.Context, id string) (*models.UserBasicInfo, error) {
	var info models.UserBasicInfo
	opts := options.FindOne().SetProjection(basicInfoProjection)
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&info); err != nil {
		return nil, mapMongoErr(err)
	}
	return &info, nil
}

// GetBasicInfos returns the profiles that exist, in the order of ids.
func (r *mongoUserRepository) GetBasicInfos(ctx context.Context, ids []string) ([]*models.UserBasicInfo, error) {
	if len(ids) == 0 {
		return []*models.UserBasicInfo{}, nil
	}
	opts := options.Find().SetProjection(basicInfoProjection)
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var found []*models.UserBasicInfo
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	return orderBasicInfos(ids, found), nil
}

func (r *mongoUserRepository) updateOne(ctx context.Context, userID string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddToList appends id to the list with $addToSet, so retries never duplicate.
func (r *mongoUserRepository) AddToList(ctx context.Context, userID string, field models.UserListField, id string) error {
	return r.updateOne(ctx, userID, bson.M{"$addToSet": bson.M{string(field): id}})
}

func (r *mongoUserRepository) RemoveFromList(ctx context.Context, userID string, field models.UserListField, id string) error {
	return r.updateOne(ctx, userID, bson.M{"$pull": bson.M{string(field): id}})
}

func (r *mongoUserRepository) SetList(ctx context.Context, userID string, field models.UserListField, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return r.updateOne(ctx, userID, bson.M{"$set": bson.M{string(field): ids}})
}

func (r *mongoUserRepository) SetLastSeenAt(ctx context.Context, userID string, at *time.Time) error {
	return r.updateOne(ctx, userID, bson.M{"$set": bson.M{"lastSeenAt": at}})
}

func orderBasicInfos(ids []string, found []*models.UserBasicInfo) []*models.UserBasicInfo {
	byID := make(map[string]*models.UserBasicInfo, len(found))
	for _, info := range found {
		byID[info.ID] = info
	}
	out := make([]*models.UserBasicInfo, 0, len(found))
	for _, id := range ids {
		if info, ok := byID[id]; ok {
			out = append(out, info)
		}
	}
	return out
}
