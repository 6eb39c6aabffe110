package services

import (
	"time"

	"social-go/internal/models"
	"social-go/internal/storage"
)

// Realtime payloads, as clients receive them.

type FriendRequestReceivedPayload struct {
	NotificationID string                       `json:"notificationId"`
	FriendRequest  *models.FriendRequestSummary `json:"friendRequest"`
}

type FriendRequestAcceptedPayload struct {
	NotificationID string                `json:"notificationId"`
	Friend         *models.UserBasicInfo `json:"friend"`
}

type OnlineStatus string

const (
	StatusOnline  OnlineStatus = "ONLINE"
	StatusOffline OnlineStatus = "OFFLINE"
)

type OnlineStatusPayload struct {
	UserID     string       `json:"userId"`
	Status     OnlineStatus `json:"status"`
	LastSeenAt *time.Time   `json:"lastSeenAt,omitempty"`
}

type MessageCreatedPayload struct {
	Message *models.Message `json:"message"`
}

// Page results. HasMore is true when older items exist beyond the last one.

type ReactionPage struct {
	Reactions []*models.ReactionWithUser `json:"reactions"`
	HasMore   bool                       `json:"hasMore"`
}

type NotificationPage struct {
	Notifications []*models.Notification `json:"notifications"`
	HasMore       bool                   `json:"hasMore"`
}

type MessagePage struct {
	Messages []*models.Message `json:"messages"`
	HasMore  bool              `json:"hasMore"`
}

type PostPage struct {
	Posts   []*models.Post `json:"posts"`
	HasMore bool           `json:"hasMore"`
}

type CommentPage struct {
	Comments []*models.Comment `json:"comments"`
	HasMore  bool              `json:"hasMore"`
}

type ReplyPage struct {
	Replies []*models.Reply `json:"replies"`
	HasMore bool            `json:"hasMore"`
}

// FriendView is one entry of a friends list. IsFriend tells whether the
// listed user is also a friend of the viewer.
type FriendView struct {
	FriendID  string                `json:"friendId"`
	User      *models.UserBasicInfo `json:"user"`
	IsFriend  bool                  `json:"isFriend"`
	CreatedAt time.Time             `json:"createdAt"`
}

type FriendPage struct {
	Friends []*FriendView `json:"friends"`
	HasMore bool          `json:"hasMore"`
}

// fetchWindow asks for one item past the page so trimPage can tell whether
// more remain.
func fetchWindow(page storage.Page) storage.Page {
	if page.Limit > 0 {
		page.Limit++
	}
	return page
}

// trimPage cuts a limit+1 fetch back to limit and reports whether more remain.
func trimPage[T any](items []T, limit int) ([]T, bool) {
	if limit > 0 && len(items) > limit {
		return items[:limit], true
	}
	return items, false
}
