package services_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-go/internal/models"
	"social-go/internal/services"
	"social-go/internal/storage"
)

func (e *env) post(t *testing.T, author *models.User) services.TargetRef {
	t.Helper()
	p, err := e.content.CreatePost(e.ctx, author.ID, services.CreatePostInput{Content: "hello"})
	require.NoError(t, err)
	return services.TargetRef{Kind: models.SourcePost, ID: p.ID}
}

func (e *env) state(t *testing.T, target services.TargetRef) models.ReactionState {
	t.Helper()
	repo, err := e.store.Reactable(target.Kind)
	require.NoError(t, err)
	r, err := repo.Get(e.ctx, target.ID)
	require.NoError(t, err)
	return r.Reactions().Clone()
}

func TestUpsertReactionAddsToAllThreeViews(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	target := e.post(t, alice)

	id, err := e.engagement.UpsertReaction(e.ctx, alice.ID, target, models.ReactionLike)
	require.NoError(t, err)

	st := e.state(t, target)
	require.Equal(t, 1, st.Counts[models.ReactionLike])
	require.Equal(t, []string{id}, st.ByType[models.ReactionLike])
	require.Equal(t, []string{id}, st.IDs)
	require.True(t, st.Consistent())
	require.Equal(t, []string{id}, e.reload(t, alice.ID).ReactionIDs)
}

func TestUpsertSameTypeIsNoop(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	target := e.post(t, alice)

	first, err := e.engagement.UpsertReaction(e.ctx, alice.ID, target, models.ReactionLike)
	require.NoError(t, err)
	second, err := e.engagement.UpsertReaction(e.ctx, alice.ID, target, "like")
	require.NoError(t, err)
	require.Equal(t, first, second)
	st := e.state(t, target)
	require.Equal(t, 1, st.Total())
}

func TestUpsertDifferentTypeReplaces(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	target := e.post(t, alice)

	oldID, err := e.engagement.UpsertReaction(e.ctx, alice.ID, target, models.ReactionLike)
	require.NoError(t, err)
	newID, err := e.engagement.UpsertReaction(e.ctx, alice.ID, target, models.ReactionFavorite)
	require.NoError(t, err)
	require.NotEqual(t, oldID, newID)

	st := e.state(t, target)
	require.Equal(t, 0, st.Counts[models.ReactionLike])
	require.Equal(t, 1, st.Counts[models.ReactionFavorite])
	require.Equal(t, []string{newID}, st.IDs)
	require.True(t, st.Consistent())
	require.Equal(t, []string{newID}, e.reload(t, alice.ID).ReactionIDs)

	_, err = e.store.Reactions.GetByID(e.ctx, oldID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpsertReactionRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	target := e.post(t, alice)

	_, err := e.engagement.UpsertReaction(e.ctx, alice.ID, target, "LOVE")
	require.ErrorIs(t, err, services.ErrInvalidReactionType)

	_, err = e.engagement.UpsertReaction(e.ctx, alice.ID, services.TargetRef{Kind: models.SourceComment, ID: models.NewID()}, models.ReactionLike)
	require.ErrorIs(t, err, services.ErrTargetNotFound)
}

func TestRemoveReaction(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	target := e.post(t, alice)

	require.ErrorIs(t, e.engagement.RemoveReaction(e.ctx, alice.ID, target), services.ErrReactionNotFound)

	_, err := e.engagement.UpsertReaction(e.ctx, alice.ID, target, models.ReactionSatisfied)
	require.NoError(t, err)
	require.NoError(t, e.engagement.RemoveReaction(e.ctx, alice.ID, target))

	st := e.state(t, target)
	require.Zero(t, st.Total())
	require.Empty(t, st.IDs)
	require.Empty(t, e.reload(t, alice.ID).ReactionIDs)
	require.ErrorIs(t, e.engagement.RemoveReaction(e.ctx, alice.ID, target), services.ErrReactionNotFound)
}

func TestConcurrentReactionsKeepCountsExact(t *testing.T) {
	e := newEnv(t)
	author := e.user(t, "author")
	target := e.post(t, author)

	const n = 25
	users := make([]*models.User, n)
	for i := range users {
		users[i] = e.user(t, fmt.Sprintf("user%d", i))
	}

	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(u *models.User, t1 models.ReactionType) {
			defer wg.Done()
			_, err := e.engagement.UpsertReaction(e.ctx, u.ID, target, t1)
			assert.NoError(t, err)
		}(u, models.ReactionTypes[i%len(models.ReactionTypes)])
	}
	wg.Wait()

	st := e.state(t, target)
	require.Equal(t, n, st.Total())
	require.True(t, st.Consistent())
}

func TestConcurrentUpsertsBySameUserLeaveOneReaction(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	target := e.post(t, alice)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(rt models.ReactionType) {
			defer wg.Done()
			_, _ = e.engagement.UpsertReaction(e.ctx, alice.ID, target, rt)
		}(models.ReactionTypes[i%len(models.ReactionTypes)])
	}
	wg.Wait()

	all, err := e.store.Reactions.ListAllBySource(e.ctx, target.Kind, target.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, e.engagement.RebuildReactionState(e.ctx, target))
	st := e.state(t, target)
	require.Equal(t, 1, st.Total())
	require.Equal(t, []string{all[0].ID}, st.IDs)
}

func TestListReactionsPaginates(t *testing.T) {
	e := newEnv(t)
	author := e.user(t, "author")
	target := e.post(t, author)
	for i := 0; i < 5; i++ {
		u := e.user(t, fmt.Sprintf("fan%d", i))
		rt := models.ReactionLike
		if i == 4 {
			rt = models.ReactionDissatisfied
		}
		_, err := e.engagement.UpsertReaction(e.ctx, u.ID, target, rt)
		require.NoError(t, err)
	}

	page, err := e.engagement.ListReactions(e.ctx, target, "", storage.Page{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Reactions, 3)
	require.True(t, page.HasMore)
	require.Equal(t, "fan4", page.Reactions[0].User.Username, "newest first")

	rest, err := e.engagement.ListReactions(e.ctx, target, "", storage.Page{BeforeID: page.Reactions[2].ID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, rest.Reactions, 2)
	require.False(t, rest.HasMore)

	likes, err := e.engagement.ListReactions(e.ctx, target, models.ReactionLike, storage.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, likes.Reactions, 4)
}

func TestRebuildReactionStateRepairsDrift(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	target := e.post(t, alice)
	a, err := e.engagement.UpsertReaction(e.ctx, alice.ID, target, models.ReactionLike)
	require.NoError(t, err)
	b, err := e.engagement.UpsertReaction(e.ctx, bob.ID, target, models.ReactionFavorite)
	require.NoError(t, err)

	repo, err := e.store.Reactable(target.Kind)
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceState(e.ctx, target.ID, models.NewReactionState()))
	drifted := e.state(t, target)
	require.Zero(t, drifted.Total())

	require.NoError(t, e.engagement.RebuildReactionState(e.ctx, target))
	st := e.state(t, target)
	require.Equal(t, 2, st.Total())
	require.ElementsMatch(t, []string{a, b}, st.IDs)
	require.True(t, st.Consistent())

	require.NoError(t, e.store.Users.SetList(e.ctx, bob.ID, models.UserReactions, nil))
	require.NoError(t, e.engagement.RebuildUserReactionIDs(e.ctx, bob.ID))
	require.Equal(t, []string{b}, e.reload(t, bob.ID).ReactionIDs)
}
