package models

import "time"

// Conversation is a private thread between two friends.
type Conversation struct {
	ID         string    `bson:"_id" json:"id"`
	UserIDs    [2]string `bson:"userIds" json:"userIds"`
	PairKey    string    `bson:"pairKey" json:"-"`
	MessageIDs []string  `bson:"messageIds" json:"-"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

func NewConversation(a, b string) *Conversation {
	return &Conversation{
		ID:         NewID(),
		UserIDs:    [2]string{a, b},
		PairKey:    PairKey(a, b),
		MessageIDs: []string{},
		CreatedAt:  Now(),
	}
}

func (c *Conversation) HasMember(userID string) bool {
	return c.UserIDs[0] == userID || c.UserIDs[1] == userID
}

type Message struct {
	ID             string    `bson:"_id" json:"id"`
	ConversationID string    `bson:"conversationId" json:"conversationId"`
	FromUserID     string    `bson:"fromUserId" json:"fromUserId"`
	Content        string    `bson:"content" json:"content"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

func NewMessage(conversationID, fromUserID, content string) *Message {
	return &Message{
		ID:             NewID(),
		ConversationID: conversationID,
		FromUserID:     fromUserID,
		Content:        content,
		CreatedAt:      Now(),
	}
}
