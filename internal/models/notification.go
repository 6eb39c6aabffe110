package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
)

type NotificationType string

const (
	NotificationFriendRequestReceived NotificationType = "FRIEND_REQUEST_RECEIVED"
	NotificationFriendRequestAccepted NotificationType = "FRIEND_REQUEST_ACCEPTED"
)

// NotificationPayload is the variant part of a Notification. The set of
// implementations is closed: FriendRequestReceived and FriendRequestAccepted.
type NotificationPayload interface {
	NotificationType() NotificationType
	isNotificationPayload()
}

// FriendRequestReceived is owned by the receiver of a friend request.
type FriendRequestReceived struct {
	FriendRequestID string
}

// FriendRequestAccepted is owned by the original sender once the request is accepted.
type FriendRequestAccepted struct {
	FriendUserID string
}

func (FriendRequestReceived) NotificationType() NotificationType {
	return NotificationFriendRequestReceived
}
func (FriendRequestAccepted) NotificationType() NotificationType {
	return NotificationFriendRequestAccepted
}
func (FriendRequestReceived) isNotificationPayload() {}
func (FriendRequestAccepted) isNotificationPayload() {}

// Notification belongs to RecipientID. Payload decides its type.
type Notification struct {
	ID          string
	RecipientID string
	Payload     NotificationPayload
	HasBeenRead bool
	HasBeenSeen bool
	CreatedAt   time.Time
}

func NewNotification(recipientID string, payload NotificationPayload) *Notification {
	return &Notification{ID: NewID(), RecipientID: recipientID, Payload: payload, CreatedAt: Now()}
}

func (n *Notification) Type() NotificationType {
	if n.Payload == nil {
		return ""
	}
	return n.Payload.NotificationType()
}

// notificationDoc is the flat stored and wire form.
type notificationDoc struct {
	ID              string           `bson:"_id" json:"id"`
	RecipientID     string           `bson:"recipientId" json:"recipientId"`
	Type            NotificationType `bson:"type" json:"type"`
	FriendRequestID string           `bson:"friendRequestId,omitempty" json:"friendRequestId,omitempty"`
	FriendUserID    string           `bson:"friendUserId,omitempty" json:"friendUserId,omitempty"`
	HasBeenRead     bool             `bson:"hasBeenRead" json:"hasBeenRead"`
	HasBeenSeen     bool             `bson:"hasBeenSeen" json:"hasBeenSeen"`
	CreatedAt       time.Time        `bson:"createdAt" json:"createdAt"`
}

func (n *Notification) toDoc() (notificationDoc, error) {
	doc := notificationDoc{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		HasBeenRead: n.HasBeenRead,
		HasBeenSeen: n.HasBeenSeen,
		CreatedAt:   n.CreatedAt,
	}
	switch p := n.Payload.(type) {
	case FriendRequestReceived:
		doc.Type = p.NotificationType()
		doc.FriendRequestID = p.FriendRequestID
	case FriendRequestAccepted:
		doc.Type = p.NotificationType()
		doc.FriendUserID = p.FriendUserID
	default:
		return doc, fmt.Errorf("notification %s: unknown payload %T", n.ID, n.Payload)
	}
	return doc, nil
}

func (n *Notification) fromDoc(doc notificationDoc) error {
	switch doc.Type {
	case NotificationFriendRequestReceived:
		n.Payload = FriendRequestReceived{FriendRequestID: doc.FriendRequestID}
	case NotificationFriendRequestAccepted:
		n.Payload = FriendRequestAccepted{FriendUserID: doc.FriendUserID}
	default:
		return fmt.Errorf("notification %s: unknown type %q", doc.ID, doc.Type)
	}
	n.ID = doc.ID
	n.RecipientID = doc.RecipientID
	n.HasBeenRead = doc.HasBeenRead
	n.HasBeenSeen = doc.HasBeenSeen
	n.CreatedAt = doc.CreatedAt
	return nil
}

func (n *Notification) MarshalBSON() ([]byte, error) {
	doc, err := n.toDoc()
	if err != nil {
		return nil, err
	}
	return bson.Marshal(doc)
}

func (n *Notification) UnmarshalBSON(data []byte) error {
	var doc notificationDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	return n.fromDoc(doc)
}

func (n *Notification) MarshalJSON() ([]byte, error) {
	doc, err := n.toDoc()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	var doc notificationDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return n.fromDoc(doc)
}
