package models

import (
	"fmt"
	"time"
)

type PostType string

const (
	PostTypePost  PostType = "POST"
	PostTypeShare PostType = "SHARE"
)

type Privacy string

const (
	PrivacyPublic  Privacy = "PUBLIC"
	PrivacyFriends Privacy = "FRIENDS"
	PrivacyOnlyMe  Privacy = "ONLY_ME"
)

// Post is either a normal post or a share of another post. SourceID is set
// exactly when Type is PostTypeShare.
type Post struct {
	ID         string    `bson:"_id" json:"id"`
	UserID     string    `bson:"userId" json:"userId"`
	Type       PostType  `bson:"type" json:"type"`
	SourceID   string    `bson:"sourceId,omitempty" json:"sourceId,omitempty"`
	Privacy    Privacy   `bson:"privacy" json:"privacy"`
	Content    string    `bson:"content" json:"content"`
	CommentIDs []string  `bson:"commentIds" json:"commentIds"`
	ShareIDs   []string  `bson:"shareIds" json:"shareIds"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`

	ReactionState `bson:",inline"`
}

func NewPost(userID, content string, privacy Privacy) *Post {
	return &Post{
		ID:            NewID(),
		UserID:        userID,
		Type:          PostTypePost,
		Privacy:       privacy,
		Content:       content,
		CommentIDs:    []string{},
		ShareIDs:      []string{},
		CreatedAt:     Now(),
		ReactionState: NewReactionState(),
	}
}

func NewShare(userID, sourceID, content string, privacy Privacy) *Post {
	p := NewPost(userID, content, privacy)
	p.Type = PostTypeShare
	p.SourceID = sourceID
	return p
}

// Validate checks the POST/SHARE discriminant against SourceID.
func (p *Post) Validate() error {
	switch p.Type {
	case PostTypePost:
		if p.SourceID != "" {
			return fmt.Errorf("post %s: normal post carries a source", p.ID)
		}
	case PostTypeShare:
		if p.SourceID == "" {
			return fmt.Errorf("post %s: share without a source", p.ID)
		}
	default:
		return fmt.Errorf("post %s: unknown type %q", p.ID, p.Type)
	}
	return nil
}

func (p *Post) ReactableKind() SourceType  { return SourcePost }
func (p *Post) ReactableID() string        { return p.ID }
func (p *Post) Reactions() *ReactionState { return &p.ReactionState }

type Comment struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	PostID    string    `bson:"postId" json:"postId"`
	Content   string    `bson:"content" json:"content"`
	ReplyIDs  []string  `bson:"replyIds" json:"replyIds"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`

	ReactionState `bson:",inline"`
}

func NewComment(userID, postID, content string) *Comment {
	return &Comment{
		ID:            NewID(),
		UserID:        userID,
		PostID:        postID,
		Content:       content,
		ReplyIDs:      []string{},
		CreatedAt:     Now(),
		ReactionState: NewReactionState(),
	}
}

func (c *Comment) ReactableKind() SourceType  { return SourceComment }
func (c *Comment) ReactableID() string        { return c.ID }
func (c *Comment) Reactions() *ReactionState { return &c.ReactionState }

type Reply struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	CommentID string    `bson:"commentId" json:"commentId"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`

	ReactionState `bson:",inline"`
}

func NewReply(userID, commentID, content string) *Reply {
	return &Reply{
		ID:            NewID(),
		UserID:        userID,
		CommentID:     commentID,
		Content:       content,
		CreatedAt:     Now(),
		ReactionState: NewReactionState(),
	}
}

func (r *Reply) ReactableKind() SourceType  { return SourceReply }
func (r *Reply) ReactableID() string        { return r.ID }
func (r *Reply) Reactions() *ReactionState { return &r.ReactionState }
