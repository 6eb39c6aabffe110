package storage

import (
	"context"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-go/internal/models"
)

const (
	postsCollection    = "posts"
	commentsCollection = "comments"
	repliesCollection  = "replies"
)

// ContentRepository stores posts, comments and replies.
type ContentRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	CreateReply(ctx context.Context, reply *models.Reply) error
	GetReply(ctx context.Context, id string) (*models.Reply, error)
	// AppendToPost adds id to the post's commentIds or shareIds list.
	AppendToPost(ctx context.Context, postID, field, id string) error
	AppendCommentReply(ctx context.Context, commentID, replyID string) error

	// ListPosts pages the posts matching any of scopes, newest first.
	ListPosts(ctx context.Context, scopes []PostScope, page Page) ([]*models.Post, error)
	ListComments(ctx context.Context, postID string, page Page) ([]*models.Comment, error)
	ListReplies(ctx context.Context, commentID string, page Page) ([]*models.Reply, error)
}

// PostScope matches posts written by one of AuthorIDs with one of
// Privacies. An empty Privacies matches every privacy.
type PostScope struct {
	AuthorIDs []string
	Privacies []models.Privacy
}

// Matches reports whether post falls inside the scope.
func (s PostScope) Matches(post *models.Post) bool {
	if !slices.Contains(s.AuthorIDs, post.UserID) {
		return false
	}
	return len(s.Privacies) == 0 || slices.Contains(s.Privacies, post.Privacy)
}

func (s PostScope) filter() bson.M {
	f := bson.M{"userId": bson.M{"$in": s.AuthorIDs}}
	if len(s.Privacies) > 0 {
		f["privacy"] = bson.M{"$in": s.Privacies}
	}
	return f
}

const (
	PostCommentsField = "commentIds"
	PostSharesField   = "shareIds"
)

type mongoContentRepository struct {
	posts    *mongo.Collection
	comments *mongo.Collection
	replies  *mongo.Collection
}

func NewMongoContentRepository(db *mongo.Database) ContentRepository {
	return &mongoContentRepository{
		posts:    db.Collection(postsCollection),
		comments: db.Collection(commentsCollection),
		replies:  db.Collection(repliesCollection),
	}
}

func (r *mongoContentRepository) CreatePost(ctx context.Context, post *models.Post) error {
	_, err := r.posts.InsertOne(ctx, post)
	return mapMongoErr(err)
}

func (r *mongoContentRepository) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, mapMongoErr(err)
	}
	return &post, nil
}

func (r *mongoContentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	_, err := r.comments.InsertOne(ctx, comment)
	return mapMongoErr(err)
}

func (r *mongoContentRepository) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return nil, mapMongoErr(err)
	}
	return &comment, nil
}

func (r *mongoContentRepository) CreateReply(ctx context.Context, reply *models.Reply) error {
	_, err := r.replies.InsertOne(ctx, reply)
	return mapMongoErr(err)
}

func (r *mongoContentRepository) GetReply(ctx context.Context, id string) (*models.Reply, error) {
	var reply models.Reply
	if err := r.replies.FindOne(ctx, bson.M{"_id": id}).Decode(&reply); err != nil {
		return nil, mapMongoErr(err)
	}
	return &reply, nil
}

func (r *mongoContentRepository) AppendToPost(ctx context.Context, postID, field, id string) error {
	return appendToList(ctx, r.posts, postID, field, id)
}

func (r *mongoContentRepository) AppendCommentReply(ctx context.Context, commentID, replyID string) error {
	return appendToList(ctx, r.comments, commentID, "replyIds", replyID)
}

func (r *mongoContentRepository) ListPosts(ctx context.Context, scopes []PostScope, page Page) ([]*models.Post, error) {
	out := []*models.Post{}
	if len(scopes) == 0 {
		return out, nil
	}
	or := make(bson.A, 0, len(scopes))
	for _, sc := range scopes {
		or = append(or, sc.filter())
	}
	filter, opts := page.apply(bson.M{"$or": or})
	return out, findAll(ctx, r.posts, filter, opts, &out)
}

func (r *mongoContentRepository) ListComments(ctx context.Context, postID string, page Page) ([]*models.Comment, error) {
	out := []*models.Comment{}
	filter, opts := page.apply(bson.M{"postId": postID})
	return out, findAll(ctx, r.comments, filter, opts, &out)
}

func (r *mongoContentRepository) ListReplies(ctx context.Context, commentID string, page Page) ([]*models.Reply, error) {
	out := []*models.Reply{}
	filter, opts := page.apply(bson.M{"commentId": commentID})
	return out, findAll(ctx, r.replies, filter, opts, &out)
}

func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions, out any) error {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func appendToList(ctx context.Context, coll *mongo.Collection, docID, field, id string) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": docID}, bson.M{"$addToSet": bson.M{field: id}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
