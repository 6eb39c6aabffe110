package services_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"social-go/internal/models"
	"social-go/internal/services"
)

func TestReconcilerReplaysOpenEntries(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	req, err := e.friends.CreateFriendRequest(e.ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	healthy := e.store.Users
	e.store.Users = failingUsers{UserRepository: healthy, field: models.UserFriends, err: errors.New("write timeout")}
	e.wire()
	friend, err := e.friends.AcceptFriendRequest(e.ctx, bob.ID, req.ID)
	require.NoError(t, err)

	require.NoError(t, e.journal.Record(e.ctx, &models.RepairEntry{
		Operation: "accept_friend_request", View: models.ViewUserFriendRequests,
		SubjectKind: "FriendRequest", SubjectID: req.ID, Step: "friend_request.restore", Error: "lost",
	}))
	require.Len(t, e.openEntries(t), 3)

	e.store.Users = healthy
	e.wire()
	r := services.NewReconciler(e.journal, e.friends, e.notifications, e.engagement)
	report, err := r.Run(e.ctx, 0)
	require.NoError(t, err)
	require.Equal(t, services.ReconcileReport{Resolved: 2, Skipped: 1}, report)

	require.Equal(t, []string{friend.ID}, e.reload(t, alice.ID).FriendIDs)
	require.Equal(t, []string{friend.ID}, e.reload(t, bob.ID).FriendIDs)

	open := e.openEntries(t)
	require.Len(t, open, 1)
	require.Equal(t, "FriendRequest", open[0].SubjectKind)
}

func TestReconcilerRebuildsReactableCounters(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	post, err := e.content.CreatePost(e.ctx, alice.ID, services.CreatePostInput{Content: "hi"})
	require.NoError(t, err)
	target := services.TargetRef{Kind: models.SourcePost, ID: post.ID}
	_, err = e.engagement.UpsertReaction(e.ctx, alice.ID, target, models.ReactionLike)
	require.NoError(t, err)

	require.NoError(t, e.journal.Record(e.ctx, &models.RepairEntry{
		Operation: "remove_reaction", View: models.ViewReactable,
		SubjectKind: string(models.SourcePost), SubjectID: post.ID, Step: "reactable.remove", Error: "timeout",
	}))

	r := services.NewReconciler(e.journal, e.friends, e.notifications, e.engagement)
	report, err := r.Run(e.ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 1, report.Resolved)
	require.Empty(t, e.openEntries(t))
}
