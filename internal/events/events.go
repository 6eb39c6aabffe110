// Package events decouples side effects (notifications, realtime pushes)
// from the operation that caused them.
package events

import (
	"context"

	"social-go/internal/models"
)

type Kind string

const (
	FriendRequestCreated   Kind = "friend_request.created"
	FriendRequestAccepted  Kind = "friend_request.accepted"
	FriendRequestCancelled Kind = "friend_request.cancelled"
	FriendRequestRejected  Kind = "friend_request.rejected"
	MessageCreated         Kind = "message.created"
)

// Event is a tagged union: Kind selects which payload pointer is set.
type Event struct {
	Kind          Kind
	FriendRequest *FriendRequestPayload
	Message       *MessagePayload
}

// FriendRequestPayload describes a friend request transition. FriendID is
// set only for FriendRequestAccepted.
type FriendRequestPayload struct {
	RequestID  string
	SenderID   string
	ReceiverID string
	FriendID   string
}

type MessagePayload struct {
	Message        *models.Message
	ParticipantIDs [2]string
}

func NewFriendRequestEvent(kind Kind, req *models.FriendRequest) Event {
	return Event{Kind: kind, FriendRequest: &FriendRequestPayload{
		RequestID:  req.ID,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
	}}
}

func NewMessageEvent(msg *models.Message, conv *models.Conversation) Event {
	return Event{Kind: MessageCreated, Message: &MessagePayload{Message: msg, ParticipantIDs: conv.UserIDs}}
}

// Handler processes one event. Returned errors are logged by the bus.
type Handler func(ctx context.Context, ev Event) error

// Bus publishes events to the handlers subscribed to their kind.
type Bus interface {
	Publish(ctx context.Context, ev Event)
	Subscribe(kind Kind, h Handler)
}
