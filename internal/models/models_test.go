package models

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestReactionStateReplaceKeepsInvariants(t *testing.T) {
	s := NewReactionState()
	s.Add(ReactionLike, "r1")
	s.Add(ReactionLike, "r2")
	require.True(t, s.Consistent())

	require.True(t, s.Remove(ReactionLike, "r1"))
	s.Add(ReactionFavorite, "r3")

	require.True(t, s.Consistent())
	require.Equal(t, 1, s.Counts[ReactionLike])
	require.Equal(t, 1, s.Counts[ReactionFavorite])
	require.ElementsMatch(t, []string{"r2", "r3"}, s.IDs)
}

func TestReactionStateRemoveUnknownIsNoop(t *testing.T) {
	s := NewReactionState()
	s.Add(ReactionLike, "r1")

	require.False(t, s.Remove(ReactionFavorite, "r1"))
	require.False(t, s.Remove(ReactionLike, "missing"))
	require.Equal(t, 1, s.Counts[ReactionLike])
	require.True(t, s.Consistent())
}

func TestReactionStateAddIsIdempotent(t *testing.T) {
	s := NewReactionState()
	s.Add(ReactionLike, "r1")
	s.Add(ReactionLike, "r1")
	require.Equal(t, 1, s.Total())
	require.True(t, s.Consistent())
}

func TestConsistentDetectsDrift(t *testing.T) {
	s := NewReactionState()
	s.Add(ReactionLike, "r1")
	s.Counts[ReactionLike] = 2
	require.False(t, s.Consistent())

	s = NewReactionState()
	s.Add(ReactionLike, "r1")
	s.IDs = append(s.IDs, "ghost")
	require.False(t, s.Consistent())
}

func TestRebuildReactionState(t *testing.T) {
	reactions := []*Reaction{
		{ID: "b", Type: ReactionFavorite},
		{ID: "a", Type: ReactionLike},
		{ID: "c", Type: ReactionLike},
	}
	s := RebuildReactionState(reactions)

	require.True(t, s.Consistent())
	require.Equal(t, []string{"a", "b", "c"}, s.IDs)
	require.Equal(t, []string{"a", "c"}, s.ByType[ReactionLike])
	require.Equal(t, 0, s.Counts[ReactionDissatisfied])
}

func TestParseReactionType(t *testing.T) {
	got, err := ParseReactionType("favorite")
	require.NoError(t, err)
	require.Equal(t, ReactionFavorite, got)

	_, err = ParseReactionType("LOVE")
	require.Error(t, err)
}

func TestParseSourceType(t *testing.T) {
	got, err := ParseSourceType("replies")
	require.NoError(t, err)
	require.Equal(t, SourceReply, got)

	_, err = ParseSourceType("users")
	require.Error(t, err)
}

func TestPairKeyIsSymmetric(t *testing.T) {
	require.Equal(t, PairKey("u1", "u2"), PairKey("u2", "u1"))

	f := NewFriend("u2", "u1")
	require.Equal(t, [2]string{"u2", "u1"}, f.UserIDs)
	require.Equal(t, "u1", f.Other("u2"))
	require.True(t, f.HasMember("u1"))
	require.False(t, f.HasMember("u3"))
}

func TestNotificationVariantsSurviveBSON(t *testing.T) {
	received := NewNotification("u2", FriendRequestReceived{FriendRequestID: "fr1"})

	raw, err := bson.Marshal(received)
	require.NoError(t, err)

	var flat bson.M
	require.NoError(t, bson.Unmarshal(raw, &flat))
	require.Equal(t, "FRIEND_REQUEST_RECEIVED", flat["type"])
	require.Equal(t, "fr1", flat["friendRequestId"])
	require.NotContains(t, flat, "friendUserId")

	var decoded Notification
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	require.Equal(t, FriendRequestReceived{FriendRequestID: "fr1"}, decoded.Payload)
	require.Equal(t, "u2", decoded.RecipientID)
}

func TestNotificationJSONShape(t *testing.T) {
	n := NewNotification("u1", FriendRequestAccepted{FriendUserID: "u2"})
	raw, err := json.Marshal(n)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(raw, &flat))
	require.Equal(t, "FRIEND_REQUEST_ACCEPTED", flat["type"])
	require.Equal(t, "u2", flat["friendUserId"])
	require.Equal(t, false, flat["hasBeenSeen"])
}

func TestNotificationRejectsUnknownType(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"_id": "n1", "type": "POKE"})
	require.NoError(t, err)

	var n Notification
	require.Error(t, bson.Unmarshal(raw, &n))

	_, err = bson.Marshal(&Notification{ID: "n2"})
	require.Error(t, err)
}

func TestPostValidate(t *testing.T) {
	require.NoError(t, NewPost("u1", "hi", PrivacyPublic).Validate())
	require.NoError(t, NewShare("u1", "p1", "", PrivacyFriends).Validate())

	broken := NewShare("u1", "p1", "", PrivacyPublic)
	broken.SourceID = ""
	require.Error(t, broken.Validate())
}

func TestNewIDOrdersByCreation(t *testing.T) {
	a, b := NewID(), NewID()
	require.Less(t, a, b)
	require.True(t, ValidID(a))
	require.False(t, ValidID("nope"))
}
