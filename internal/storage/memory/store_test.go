package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"social-go/internal/models"
	"social-go/internal/storage"
	"social-go/internal/storage/memory"
	"social-go/internal/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) *storage.Store {
		return memory.NewStore(nil)
	})
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore(nil)
	u := storagetest.NewUser("carol")
	require.NoError(t, s.Users.Create(ctx, u))

	got, err := s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.FriendIDs = append(got.FriendIDs, "tampered")

	again, err := s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, again.FriendIDs)
}

func TestMemoryJournal(t *testing.T) {
	ctx := context.Background()
	j := storage.NewMemoryRepairJournal()
	entry := &models.RepairEntry{Operation: "accept", View: models.ViewUserFriends, SubjectID: "u1", Step: "add friend id"}
	require.NoError(t, j.Record(ctx, entry))
	require.NotZero(t, entry.ID)

	open, err := j.ListOpen(ctx, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)

	require.NoError(t, j.Resolve(ctx, entry.ID, "rebuilt"))
	require.ErrorIs(t, j.Resolve(ctx, entry.ID, "again"), storage.ErrNotFound)

	open, err = j.ListOpen(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, open)
}
