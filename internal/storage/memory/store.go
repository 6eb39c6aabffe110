// Package memory implements the storage repositories in process. Every
// repository shares one mutex, so each call is atomic in the same way a
// single-document MongoDB update is.
package memory

import (
	"slices"
	"sort"
	"sync"

	"social-go/internal/models"
	"social-go/internal/storage"
)

type state struct {
	mu sync.Mutex

	users          map[string]*models.User
	friendRequests map[string]*models.FriendRequest
	friends        map[string]*models.Friend
	notifications  map[string]*models.Notification
	reactions      map[string]*models.Reaction
	posts          map[string]*models.Post
	comments       map[string]*models.Comment
	replies        map[string]*models.Reply
	conversations  map[string]*models.Conversation
	messages       map[string]*models.Message
}

// NewStore returns a Store whose repositories share one in-process state.
func NewStore(journal storage.RepairJournal) *storage.Store {
	if journal == nil {
		journal = storage.NewMemoryRepairJournal()
	}
	s := &state{
		users:          map[string]*models.User{},
		friendRequests: map[string]*models.FriendRequest{},
		friends:        map[string]*models.Friend{},
		notifications:  map[string]*models.Notification{},
		reactions:      map[string]*models.Reaction{},
		posts:          map[string]*models.Post{},
		comments:       map[string]*models.Comment{},
		replies:        map[string]*models.Reply{},
		conversations:  map[string]*models.Conversation{},
		messages:       map[string]*models.Message{},
	}
	return &storage.Store{
		Users:          &userRepo{s},
		FriendRequests: &friendRequestRepo{s},
		Friends:        &friendRepo{s},
		Notifications:  &notificationRepo{s},
		Reactions:      &reactionRepo{s},
		Reactables: map[models.SourceType]storage.ReactableRepository{
			models.SourcePost:    &reactableRepo{s: s, kind: models.SourcePost},
			models.SourceComment: &reactableRepo{s: s, kind: models.SourceComment},
			models.SourceReply:   &reactableRepo{s: s, kind: models.SourceReply},
		},
		Content:       &contentRepo{s},
		Conversations: &conversationRepo{s},
		Messages:      &messageRepo{s},
		Journal:       journal,
	}
}

// page sorts items newest first and applies the cursor window.
func page[T any](items []T, id func(T) string, p storage.Page) []T {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) > id(items[j]) })
	out := make([]T, 0, len(items))
	for _, it := range items {
		if p.BeforeID != "" && id(it) >= p.BeforeID {
			continue
		}
		out = append(out, it)
		if p.Limit > 0 && len(out) == p.Limit {
			break
		}
	}
	return out
}

func sortByID[T any](items []T, id func(T) string) []T {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
	return items
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.PostIDs = slices.Clone(u.PostIDs)
	cp.ReactionIDs = slices.Clone(u.ReactionIDs)
	cp.CommentIDs = slices.Clone(u.CommentIDs)
	cp.ReplyIDs = slices.Clone(u.ReplyIDs)
	cp.FriendIDs = slices.Clone(u.FriendIDs)
	cp.NotificationIDs = slices.Clone(u.NotificationIDs)
	cp.SentFriendRequestIDs = slices.Clone(u.SentFriendRequestIDs)
	cp.ReceivedFriendRequestIDs = slices.Clone(u.ReceivedFriendRequestIDs)
	if u.LastSeenAt != nil {
		t := *u.LastSeenAt
		cp.LastSeenAt = &t
	}
	return &cp
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.CommentIDs = slices.Clone(p.CommentIDs)
	cp.ShareIDs = slices.Clone(p.ShareIDs)
	cp.ReactionState = p.ReactionState.Clone()
	return &cp
}

func cloneComment(c *models.Comment) *models.Comment {
	cp := *c
	cp.ReplyIDs = slices.Clone(c.ReplyIDs)
	cp.ReactionState = c.ReactionState.Clone()
	return &cp
}

func cloneReply(r *models.Reply) *models.Reply {
	cp := *r
	cp.ReactionState = r.ReactionState.Clone()
	return &cp
}

func cloneConversation(c *models.Conversation) *models.Conversation {
	cp := *c
	cp.MessageIDs = slices.Clone(c.MessageIDs)
	return &cp
}

func ptrCopy[T any](v *T) *T {
	cp := *v
	return &cp
}
