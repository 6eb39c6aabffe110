package models

import "time"

// FriendRequest is a pending request from Sender to Receiver. It is deleted
// once accepted, rejected or cancelled, so its existence is the pending state.
type FriendRequest struct {
	ID         string    `bson:"_id" json:"id"`
	SenderID   string    `bson:"senderId" json:"senderId"`
	ReceiverID string    `bson:"receiverId" json:"receiverId"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

func NewFriendRequest(senderID, receiverID string) *FriendRequest {
	return &FriendRequest{ID: NewID(), SenderID: senderID, ReceiverID: receiverID, CreatedAt: Now()}
}

// FriendRequestSummary is the request with both parties' public profiles.
type FriendRequestSummary struct {
	ID        string         `json:"id"`
	Sender    *UserBasicInfo `json:"sender"`
	Receiver  *UserBasicInfo `json:"receiver"`
	CreatedAt time.Time      `json:"createdAt"`
}
