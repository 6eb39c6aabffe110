package models

import "time"

// User is an account together with the id collections it owns.
type User struct {
	ID           string     `bson:"_id" json:"id"`
	Username     string     `bson:"username" json:"username"`
	Email        string     `bson:"email,omitempty" json:"email,omitempty"`
	Phone        string     `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string     `bson:"passwordHash" json:"-"`
	Birthday     *time.Time `bson:"birthday,omitempty" json:"birthday,omitempty"`
	Avatar       string     `bson:"avatar,omitempty" json:"avatar,omitempty"`
	// LastSeenAt is nil while the user has a live connection.
	LastSeenAt *time.Time `bson:"lastSeenAt" json:"lastSeenAt"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`

	PostIDs                  []string `bson:"postIds" json:"postIds"`
	ReactionIDs              []string `bson:"reactionIds" json:"reactionIds"`
	CommentIDs               []string `bson:"commentIds" json:"commentIds"`
	ReplyIDs                 []string `bson:"replyIds" json:"replyIds"`
	FriendIDs                []string `bson:"friendIds" json:"friendIds"`
	NotificationIDs          []string `bson:"notificationIds" json:"notificationIds"`
	SentFriendRequestIDs     []string `bson:"sentFriendRequestIds" json:"sentFriendRequestIds"`
	ReceivedFriendRequestIDs []string `bson:"receivedFriendRequestIds" json:"receivedFriendRequestIds"`
}

// IsOnline reports the canonical online flag.
func (u *User) IsOnline() bool { return u.LastSeenAt == nil }

// BasicInfo projects the public profile fields.
func (u *User) BasicInfo() *UserBasicInfo {
	return &UserBasicInfo{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// UserBasicInfo holds minimal public information about a user.
type UserBasicInfo struct {
	ID       string `bson:"_id" json:"id"`
	Username string `bson:"username" json:"username"`
	Avatar   string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// UserListField names one of the id collections on User.
type UserListField string

const (
	UserPosts                  UserListField = "postIds"
	UserReactions              UserListField = "reactionIds"
	UserComments               UserListField = "commentIds"
	UserReplies                UserListField = "replyIds"
	UserFriends                UserListField = "friendIds"
	UserNotifications          UserListField = "notificationIds"
	UserSentFriendRequests     UserListField = "sentFriendRequestIds"
	UserReceivedFriendRequests UserListField = "receivedFriendRequestIds"
)

// List returns a pointer to the slice backing field, or nil for an unknown field.
func (u *User) List(field UserListField) *[]string {
	switch field {
	case UserPosts:
		return &u.PostIDs
	case UserReactions:
		return &u.ReactionIDs
	case UserComments:
		return &u.CommentIDs
	case UserReplies:
		return &u.ReplyIDs
	case UserFriends:
		return &u.FriendIDs
	case UserNotifications:
		return &u.NotificationIDs
	case UserSentFriendRequests:
		return &u.SentFriendRequestIDs
	case UserReceivedFriendRequests:
		return &u.ReceivedFriendRequestIDs
	}
	return nil
}
