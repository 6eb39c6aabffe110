package services

import (
	"errors"

	"social-go/internal/apperr"
	"social-go/internal/storage"
)

var (
	ErrUserNotFound = apperr.NotFound("user not found")

	ErrSelfFriendRequest      = apperr.BadRequest("cannot send a friend request to yourself")
	ErrAlreadyFriends         = apperr.Conflict("users are already friends")
	ErrFriendRequestExists    = apperr.Conflict("a pending friend request already exists")
	ErrFriendRequestNotFound  = apperr.NotFound("friend request not found")
	ErrNotFriendRequestSender = apperr.Forbidden("only the sender can cancel this friend request")
	ErrNotFriendRequestTarget = apperr.Forbidden("only the receiver can respond to this friend request")
	ErrFriendNotFound         = apperr.NotFound("friend not found")
	ErrNotFriendParty         = apperr.Forbidden("you are not part of this friendship")

	ErrInvalidReactionType = apperr.BadRequest("invalid reaction type")
	ErrTargetNotFound      = apperr.NotFound("reaction target not found")
	ErrReactionNotFound    = apperr.NotFound("reaction not found")

	ErrNotificationNotFound = apperr.NotFound("notification not found")

	ErrPostNotFound    = apperr.NotFound("post not found")
	ErrCommentNotFound = apperr.NotFound("comment not found")

	ErrConversationNotFound = apperr.NotFound("conversation not found")
	ErrNotConversationParty = apperr.Forbidden("you are not part of this conversation")
	ErrSelfConversation     = apperr.BadRequest("cannot start a conversation with yourself")
	ErrNotFriends           = apperr.Forbidden("conversations are only available between friends")

	ErrInvalidCredentials = apperr.Unauthorized("invalid credentials")
	ErrInvalidToken       = apperr.Unauthorized("invalid or expired token")
	ErrIdentityTaken      = apperr.Conflict("username, email or phone already registered")
)

// lookupErr maps a storage miss to notFound and wraps anything else as internal.
func lookupErr(op string, err error, notFound error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFound
	}
	return apperr.Internal(op, err)
}
