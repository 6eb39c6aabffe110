package models

import (
	"fmt"
	"strings"
	"time"
)

type ReactionType string

const (
	ReactionLike         ReactionType = "LIKE"
	ReactionFavorite     ReactionType = "FAVORITE"
	ReactionSatisfied    ReactionType = "SATISFIED"
	ReactionDissatisfied ReactionType = "DISSATISFIED"
)

// ReactionTypes lists every valid reaction type in display order.
var ReactionTypes = []ReactionType{ReactionLike, ReactionFavorite, ReactionSatisfied, ReactionDissatisfied}

// ParseReactionType accepts any casing of a valid type.
func ParseReactionType(s string) (ReactionType, error) {
	t := ReactionType(strings.ToUpper(strings.TrimSpace(s)))
	for _, valid := range ReactionTypes {
		if t == valid {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown reaction type %q", s)
}

// SourceType discriminates what a Reaction points at.
type SourceType string

const (
	SourcePost    SourceType = "Post"
	SourceComment SourceType = "Comment"
	SourceReply   SourceType = "Reply"
)

// ParseSourceType accepts the type name or its plural route form ("posts").
func ParseSourceType(s string) (SourceType, error) {
	switch strings.ToLower(s) {
	case "post", "posts":
		return SourcePost, nil
	case "comment", "comments":
		return SourceComment, nil
	case "reply", "replies":
		return SourceReply, nil
	}
	return "", fmt.Errorf("unknown reactable kind %q", s)
}

// Reaction is one user's reaction on one reactable. At most one exists per
// (UserID, SourceID).
type Reaction struct {
	ID         string       `bson:"_id" json:"id"`
	UserID     string       `bson:"userId" json:"userId"`
	SourceType SourceType   `bson:"sourceType" json:"sourceType"`
	SourceID   string       `bson:"sourceId" json:"sourceId"`
	Type       ReactionType `bson:"type" json:"type"`
	CreatedAt  time.Time    `bson:"createdAt" json:"createdAt"`
}

func NewReaction(userID string, sourceType SourceType, sourceID string, t ReactionType) *Reaction {
	return &Reaction{
		ID:         NewID(),
		UserID:     userID,
		SourceType: sourceType,
		SourceID:   sourceID,
		Type:       t,
		CreatedAt:  Now(),
	}
}

// ReactionWithUser pairs a reaction with its author's public profile.
type ReactionWithUser struct {
	Reaction
	User *UserBasicInfo `json:"user"`
}
