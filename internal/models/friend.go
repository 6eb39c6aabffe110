package models

import "time"

// Friend is an undirected friendship. UserIDs keeps [requester, accepter];
// PairKey is the canonical (sorted) pair and is unique in the store.
type Friend struct {
	ID        string    `bson:"_id" json:"id"`
	UserIDs   [2]string `bson:"userIds" json:"userIds"`
	PairKey   string    `bson:"pairKey" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func NewFriend(requesterID, accepterID string) *Friend {
	return &Friend{
		ID:        NewID(),
		UserIDs:   [2]string{requesterID, accepterID},
		PairKey:   PairKey(requesterID, accepterID),
		CreatedAt: Now(),
	}
}

// PairKey orders the two ids so (a, b) and (b, a) produce the same key.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func (f *Friend) HasMember(userID string) bool {
	return f.UserIDs[0] == userID || f.UserIDs[1] == userID
}

// Other returns the member that is not userID.
func (f *Friend) Other(userID string) string {
	if f.UserIDs[0] == userID {
		return f.UserIDs[1]
	}
	return f.UserIDs[0]
}
