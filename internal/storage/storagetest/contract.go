// Package storagetest holds behaviour checks every storage.Store backend must pass.
package storagetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"social-go/internal/models"
	"social-go/internal/storage"
)

// Run exercises the repositories of the store returned by newStore.
// Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) *storage.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("FriendRequests", func(t *testing.T) { testFriendRequests(t, newStore(t)) })
	t.Run("Friends", func(t *testing.T) { testFriends(t, newStore(t)) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, newStore(t)) })
	t.Run("Reactions", func(t *testing.T) { testReactions(t, newStore(t)) })
	t.Run("ReactableConcurrent", func(t *testing.T) { testReactableConcurrent(t, newStore(t)) })
	t.Run("Messages", func(t *testing.T) { testMessages(t, newStore(t)) })
	t.Run("ContentListings", func(t *testing.T) { testContentListings(t, newStore(t)) })
}

// NewUser returns a user with every list initialised.
func NewUser(username string) *models.User {
	return &models.User{
		ID:                       models.NewID(),
		Username:                 username,
		CreatedAt:                models.Now(),
		PostIDs:                  []string{},
		ReactionIDs:              []string{},
		CommentIDs:               []string{},
		ReplyIDs:                 []string{},
		FriendIDs:                []string{},
		NotificationIDs:          []string{},
		SentFriendRequestIDs:     []string{},
		ReceivedFriendRequestIDs: []string{},
	}
}

func testUsers(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	alice := NewUser("alice")
	alice.Email = "alice@example.com"
	require.NoError(t, s.Users.Create(ctx, alice))
	require.ErrorIs(t, s.Users.Create(ctx, NewUser("alice")), storage.ErrDuplicate)

	got, err := s.Users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	_, err = s.Users.GetByID(ctx, models.NewID())
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Users.AddToList(ctx, alice.ID, models.UserFriends, "f1"))
	require.NoError(t, s.Users.AddToList(ctx, alice.ID, models.UserFriends, "f1"))
	require.NoError(t, s.Users.AddToList(ctx, alice.ID, models.UserFriends, "f2"))
	require.NoError(t, s.Users.RemoveFromList(ctx, alice.ID, models.UserFriends, "f1"))
	got, err = s.Users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"f2"}, got.FriendIDs)

	bob := NewUser("bob")
	require.NoError(t, s.Users.Create(ctx, bob))
	infos, err := s.Users.GetBasicInfos(ctx, []string{bob.ID, models.NewID(), alice.ID})
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, "bob", infos[0].Username)
	require.Equal(t, "alice", infos[1].Username)

	require.ErrorIs(t, s.Users.AddToList(ctx, models.NewID(), models.UserPosts, "p"), storage.ErrNotFound)
}

func testFriendRequests(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	req := models.NewFriendRequest("a", "b")
	require.NoError(t, s.FriendRequests.Create(ctx, req))
	require.ErrorIs(t, s.FriendRequests.Create(ctx, models.NewFriendRequest("a", "b")), storage.ErrDuplicate)
	require.NoError(t, s.FriendRequests.Create(ctx, models.NewFriendRequest("b", "a")))

	pending, err := s.FriendRequests.FindPending(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, req.ID, pending.ID)

	received, err := s.FriendRequests.ListReceived(ctx, "b")
	require.NoError(t, err)
	require.Len(t, received, 1)

	require.NoError(t, s.FriendRequests.Delete(ctx, req.ID))
	require.ErrorIs(t, s.FriendRequests.Delete(ctx, req.ID), storage.ErrNotFound)
}

func testFriends(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	f := models.NewFriend("a", "b")
	require.NoError(t, s.Friends.Create(ctx, f))
	require.ErrorIs(t, s.Friends.Create(ctx, models.NewFriend("b", "a")), storage.ErrDuplicate)

	got, err := s.Friends.FindByPair(ctx, "b", "a")
	require.NoError(t, err)
	require.Equal(t, f.ID, got.ID)

	list, err := s.Friends.ListByUser(ctx, "b")
	require.NoError(t, err)
	require.Len(t, list, 1)

	g := models.NewFriend("b", "c")
	require.NoError(t, s.Friends.Create(ctx, g))
	paged, err := s.Friends.PageByUser(ctx, "b", storage.Page{Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, g.ID, paged[0].ID)
	paged, err = s.Friends.PageByUser(ctx, "b", storage.Page{BeforeID: g.ID, Limit: 5})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, f.ID, paged[0].ID)
	require.NoError(t, s.Friends.Delete(ctx, g.ID))

	require.NoError(t, s.Friends.Delete(ctx, f.ID))
	_, err = s.Friends.FindByPair(ctx, "a", "b")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testNotifications(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		n := models.NewNotification("r", models.FriendRequestAccepted{FriendUserID: "x"})
		require.NoError(t, s.Notifications.Create(ctx, n))
		ids = append(ids, n.ID)
	}
	received := models.NewNotification("r", models.FriendRequestReceived{FriendRequestID: "fr1"})
	require.NoError(t, s.Notifications.Create(ctx, received))

	first, err := s.Notifications.ListByRecipient(ctx, "r", storage.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, received.ID, first[0].ID)
	require.Equal(t, ids[4], first[1].ID)

	next, err := s.Notifications.ListByRecipient(ctx, "r", storage.Page{BeforeID: first[1].ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, next, 4)
	require.Equal(t, ids[3], next[0].ID)

	found, err := s.Notifications.FindByFriendRequest(ctx, "r", "fr1")
	require.NoError(t, err)
	require.Equal(t, received.ID, found.ID)

	unseen, err := s.Notifications.CountUnseen(ctx, "r")
	require.NoError(t, err)
	require.EqualValues(t, 6, unseen)

	require.ErrorIs(t, s.Notifications.MarkRead(ctx, "someone-else", ids[0]), storage.ErrNotFound)
	require.NoError(t, s.Notifications.MarkRead(ctx, "r", ids[0]))
	changed, err := s.Notifications.MarkAllSeen(ctx, "r")
	require.NoError(t, err)
	require.EqualValues(t, 5, changed)

	unseen, err = s.Notifications.CountUnseen(ctx, "r")
	require.NoError(t, err)
	require.Zero(t, unseen)
}

func testReactions(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	post := models.NewPost("author", "hello", models.PrivacyPublic)
	require.NoError(t, s.Content.CreatePost(ctx, post))
	repo, err := s.Reactable(models.SourcePost)
	require.NoError(t, err)

	like := models.NewReaction("u1", models.SourcePost, post.ID, models.ReactionLike)
	require.NoError(t, s.Reactions.Create(ctx, like))
	require.ErrorIs(t, s.Reactions.Create(ctx, models.NewReaction("u1", models.SourcePost, post.ID, models.ReactionFavorite)), storage.ErrDuplicate)

	require.NoError(t, repo.AddReaction(ctx, post.ID, models.ReactionLike, like.ID))
	require.NoError(t, repo.AddReaction(ctx, post.ID, models.ReactionLike, like.ID))
	require.ErrorIs(t, repo.AddReaction(ctx, models.NewID(), models.ReactionLike, like.ID), storage.ErrNotFound)

	item, err := repo.Get(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, 1, item.Reactions().Counts[models.ReactionLike])
	require.True(t, item.Reactions().Consistent())

	require.ErrorIs(t, repo.RemoveReaction(ctx, post.ID, models.ReactionFavorite, like.ID), storage.ErrNotFound)
	require.NoError(t, repo.RemoveReaction(ctx, post.ID, models.ReactionLike, like.ID))
	require.ErrorIs(t, repo.RemoveReaction(ctx, post.ID, models.ReactionLike, like.ID), storage.ErrNotFound)

	item, err = repo.Get(ctx, post.ID)
	require.NoError(t, err)
	require.Zero(t, item.Reactions().Total())

	require.NoError(t, s.Reactions.UpdateType(ctx, like.ID, models.ReactionLike, models.ReactionSatisfied))
	require.ErrorIs(t, s.Reactions.UpdateType(ctx, like.ID, models.ReactionLike, models.ReactionSatisfied), storage.ErrNotFound)

	listed, err := s.Reactions.ListBySource(ctx, post.ID, models.ReactionSatisfied, storage.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func testReactableConcurrent(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	post := models.NewPost("author", "busy", models.PrivacyPublic)
	require.NoError(t, s.Content.CreatePost(ctx, post))
	repo, err := s.Reactable(models.SourcePost)
	require.NoError(t, err)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			t := models.ReactionTypes[i%len(models.ReactionTypes)]
			_ = repo.AddReaction(ctx, post.ID, t, models.NewID())
		}(i)
	}
	wg.Wait()

	item, err := repo.Get(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, n, item.Reactions().Total())
	require.True(t, item.Reactions().Consistent())
}

func testMessages(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	conv := models.NewConversation("a", "b")
	require.NoError(t, s.Conversations.Create(ctx, conv))
	require.ErrorIs(t, s.Conversations.Create(ctx, models.NewConversation("b", "a")), storage.ErrDuplicate)

	for i := 0; i < 3; i++ {
		msg := models.NewMessage(conv.ID, "a", "hi")
		require.NoError(t, s.Messages.Create(ctx, msg))
		require.NoError(t, s.Conversations.AppendMessage(ctx, conv.ID, msg.ID))
	}
	got, err := s.Conversations.FindByPair(ctx, "b", "a")
	require.NoError(t, err)
	require.Len(t, got.MessageIDs, 3)

	msgs, err := s.Messages.ListByConversation(ctx, conv.ID, storage.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, got.MessageIDs[2], msgs[0].ID)
}

func testContentListings(t *testing.T, s *storage.Store) {
	ctx := context.Background()
	public := models.NewPost("a", "public", models.PrivacyPublic)
	friends := models.NewPost("a", "friends", models.PrivacyFriends)
	private := models.NewPost("a", "private", models.PrivacyOnlyMe)
	other := models.NewPost("b", "other", models.PrivacyPublic)
	for _, p := range []*models.Post{public, friends, private, other} {
		require.NoError(t, s.Content.CreatePost(ctx, p))
	}

	posts, err := s.Content.ListPosts(ctx, []storage.PostScope{
		{AuthorIDs: []string{"a"}, Privacies: []models.Privacy{models.PrivacyPublic, models.PrivacyFriends}},
	}, storage.Page{})
	require.NoError(t, err)
	require.Equal(t, []string{friends.ID, public.ID}, postIDs(posts))

	posts, err = s.Content.ListPosts(ctx, []storage.PostScope{
		{AuthorIDs: []string{"a"}},
		{AuthorIDs: []string{"b"}, Privacies: []models.Privacy{models.PrivacyPublic}},
	}, storage.Page{BeforeID: other.ID, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{private.ID, friends.ID}, postIDs(posts))

	posts, err = s.Content.ListPosts(ctx, nil, storage.Page{})
	require.NoError(t, err)
	require.Empty(t, posts)

	c1 := models.NewComment("b", public.ID, "one")
	c2 := models.NewComment("a", public.ID, "two")
	require.NoError(t, s.Content.CreateComment(ctx, c1))
	require.NoError(t, s.Content.CreateComment(ctx, c2))
	require.NoError(t, s.Content.CreateComment(ctx, models.NewComment("a", other.ID, "elsewhere")))
	comments, err := s.Content.ListComments(ctx, public.ID, storage.Page{Limit: 5})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, c2.ID, comments[0].ID)

	reply := models.NewReply("a", c1.ID, "thanks")
	require.NoError(t, s.Content.CreateReply(ctx, reply))
	replies, err := s.Content.ListReplies(ctx, c1.ID, storage.Page{})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	require.Equal(t, reply.ID, replies[0].ID)
	replies, err = s.Content.ListReplies(ctx, c2.ID, storage.Page{})
	require.NoError(t, err)
	require.Empty(t, replies)
}

func postIDs(posts []*models.Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
