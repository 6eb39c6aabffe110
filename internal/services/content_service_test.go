package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"social-go/internal/apperr"
	"social-go/internal/models"
	"social-go/internal/services"
	"social-go/internal/storage"
)

func TestGetPostHonoursPrivacy(t *testing.T) {
	e := newEnv(t)
	alice, bob, eve := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "eve")
	e.befriend(t, alice, bob)

	public, err := e.content.CreatePost(e.ctx, alice.ID, services.CreatePostInput{Content: "hi all"})
	require.NoError(t, err)
	require.Equal(t, models.PrivacyPublic, public.Privacy)
	friendsOnly, err := e.content.CreatePost(e.ctx, alice.ID, services.CreatePostInput{Content: "hi friends", Privacy: models.PrivacyFriends})
	require.NoError(t, err)
	private, err := e.content.CreatePost(e.ctx, alice.ID, services.CreatePostInput{Content: "diary", Privacy: models.PrivacyOnlyMe})
	require.NoError(t, err)

	cases := []struct {
		name    string
		viewer  string
		post    string
		visible bool
	}{
		{"public to stranger", eve.ID, public.ID, true},
		{"friends post to friend", bob.ID, friendsOnly.ID, true},
		{"friends post to stranger", eve.ID, friendsOnly.ID, false},
		{"private to friend", bob.ID, private.ID, false},
		{"private to author", alice.ID, private.ID, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.content.GetPost(e.ctx, tc.viewer, tc.post)
			if tc.visible {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, services.ErrPostNotFound)
			}
		})
	}

	require.ElementsMatch(t, []string{public.ID, friendsOnly.ID, private.ID}, e.reload(t, alice.ID).PostIDs)
}

func TestSharePointsAtOriginal(t *testing.T) {
	e := newEnv(t)
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	original, err := e.content.CreatePost(e.ctx, alice.ID, services.CreatePostInput{Content: "original"})
	require.NoError(t, err)

	share, err := e.content.SharePost(e.ctx, bob.ID, original.ID, services.SharePostInput{})
	require.NoError(t, err)
	require.Equal(t, models.PostTypeShare, share.Type)
	require.Equal(t, original.ID, share.SourceID)
	require.NoError(t, share.Validate())

	reshare, err := e.content.SharePost(e.ctx, carol.ID, share.ID, services.SharePostInput{Content: "via bob"})
	require.NoError(t, err)
	require.Equal(t, original.ID, reshare.SourceID)

	stored, err := e.store.Content.GetPost(e.ctx, original.ID)
	require.NoError(t, err)
	require.Equal(t, []string{share.ID, reshare.ID}, stored.ShareIDs)
}

func TestCommentsAndReplies(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	post, err := e.content.CreatePost(e.ctx, alice.ID, services.CreatePostInput{Content: "post"})
	require.NoError(t, err)

	_, err = e.content.CreateComment(e.ctx, bob.ID, post.ID, services.CreateCommentInput{})
	require.Equal(t, 400, apperr.HTTPStatus(err))

	comment, err := e.content.CreateComment(e.ctx, bob.ID, post.ID, services.CreateCommentInput{Content: "nice"})
	require.NoError(t, err)
	reply, err := e.content.CreateReply(e.ctx, alice.ID, comment.ID, services.CreateCommentInput{Content: "thanks"})
	require.NoError(t, err)

	stored, err := e.store.Content.GetPost(e.ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, []string{comment.ID}, stored.CommentIDs)
	storedComment, err := e.store.Content.GetComment(e.ctx, comment.ID)
	require.NoError(t, err)
	require.Equal(t, []string{reply.ID}, storedComment.ReplyIDs)
	require.Equal(t, []string{comment.ID}, e.reload(t, bob.ID).CommentIDs)
	require.Equal(t, []string{reply.ID}, e.reload(t, alice.ID).ReplyIDs)

	// Comments and replies are reactable too.
	_, err = e.engagement.UpsertReaction(e.ctx, alice.ID, services.TargetRef{Kind: models.SourceReply, ID: reply.ID}, models.ReactionLike)
	require.NoError(t, err)

	_, err = e.content.CreateReply(e.ctx, alice.ID, models.NewID(), services.CreateCommentInput{Content: "lost"})
	require.ErrorIs(t, err, services.ErrCommentNotFound)
}

func TestListUserPostsHonoursPrivacy(t *testing.T) {
	e := newEnv(t)
	alice, bob, eve := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "eve")
	e.befriend(t, alice, bob)

	var ids []string
	for _, p := range []models.Privacy{models.PrivacyPublic, models.PrivacyFriends, models.PrivacyOnlyMe} {
		post, err := e.content.CreatePost(e.ctx, alice.ID, services.CreatePostInput{Content: string(p), Privacy: p})
		require.NoError(t, err)
		ids = append(ids, post.ID)
	}
	public, friendsOnly, private := ids[0], ids[1], ids[2]

	cases := []struct {
		name   string
		viewer string
		want   []string
	}{
		{"author sees everything", alice.ID, []string{private, friendsOnly, public}},
		{"friend skips private", bob.ID, []string{friendsOnly, public}},
		{"stranger sees public only", eve.ID, []string{public}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := e.content.ListUserPosts(e.ctx, tc.viewer, alice.ID, storage.Page{Limit: 10})
			require.NoError(t, err)
			require.False(t, page.HasMore)
			require.Equal(t, tc.want, postIDs(page.Posts))
		})
	}

	page, err := e.content.ListUserPosts(e.ctx, alice.ID, alice.ID, storage.Page{Limit: 2})
	require.NoError(t, err)
	require.True(t, page.HasMore)
	page, err = e.content.ListUserPosts(e.ctx, alice.ID, alice.ID, storage.Page{BeforeID: page.Posts[1].ID, Limit: 2})
	require.NoError(t, err)
	require.False(t, page.HasMore)
	require.Equal(t, []string{public}, postIDs(page.Posts))

	_, err = e.content.ListUserPosts(e.ctx, alice.ID, models.NewID(), storage.Page{Limit: 2})
	require.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestNewsfeedShowsOwnAndFriendsPosts(t *testing.T) {
	e := newEnv(t)
	alice, bob, eve := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "eve")
	e.befriend(t, alice, bob)

	mine, err := e.content.CreatePost(e.ctx, alice.ID, services.CreatePostInput{Content: "diary", Privacy: models.PrivacyOnlyMe})
	require.NoError(t, err)
	bobs, err := e.content.CreatePost(e.ctx, bob.ID, services.CreatePostInput{Content: "for friends", Privacy: models.PrivacyFriends})
	require.NoError(t, err)
	_, err = e.content.CreatePost(e.ctx, bob.ID, services.CreatePostInput{Content: "secret", Privacy: models.PrivacyOnlyMe})
	require.NoError(t, err)
	_, err = e.content.CreatePost(e.ctx, eve.ID, services.CreatePostInput{Content: "stranger"})
	require.NoError(t, err)

	feed, err := e.content.ListNewsfeed(e.ctx, alice.ID, storage.Page{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []string{bobs.ID, mine.ID}, postIDs(feed.Posts))

	lonely, err := e.content.ListNewsfeed(e.ctx, eve.ID, storage.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, lonely.Posts, 1)
}

func TestListCommentsAndReplies(t *testing.T) {
	e := newEnv(t)
	alice, bob, eve := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "eve")
	e.befriend(t, alice, bob)
	post, err := e.content.CreatePost(e.ctx, alice.ID, services.CreatePostInput{Content: "post", Privacy: models.PrivacyFriends})
	require.NoError(t, err)

	var comments []string
	for _, text := range []string{"one", "two", "three"} {
		c, err := e.content.CreateComment(e.ctx, bob.ID, post.ID, services.CreateCommentInput{Content: text})
		require.NoError(t, err)
		comments = append(comments, c.ID)
	}
	reply, err := e.content.CreateReply(e.ctx, alice.ID, comments[0], services.CreateCommentInput{Content: "thanks"})
	require.NoError(t, err)

	page, err := e.content.ListComments(e.ctx, alice.ID, post.ID, storage.Page{Limit: 2})
	require.NoError(t, err)
	require.True(t, page.HasMore)
	require.Equal(t, comments[2], page.Comments[0].ID)

	replies, err := e.content.ListReplies(e.ctx, bob.ID, comments[0], storage.Page{Limit: 5})
	require.NoError(t, err)
	require.False(t, replies.HasMore)
	require.Len(t, replies.Replies, 1)
	require.Equal(t, reply.ID, replies.Replies[0].ID)

	_, err = e.content.ListComments(e.ctx, eve.ID, post.ID, storage.Page{Limit: 5})
	require.ErrorIs(t, err, services.ErrPostNotFound)
	_, err = e.content.ListReplies(e.ctx, eve.ID, comments[0], storage.Page{Limit: 5})
	require.ErrorIs(t, err, services.ErrPostNotFound)
	_, err = e.content.ListReplies(e.ctx, bob.ID, models.NewID(), storage.Page{Limit: 5})
	require.ErrorIs(t, err, services.ErrCommentNotFound)
}

func postIDs(posts []*models.Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
