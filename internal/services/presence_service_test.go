package services_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"social-go/internal/realtime"
	"social-go/internal/services"
)

func statuses(t *testing.T, e *env, room string) []services.OnlineStatus {
	t.Helper()
	var out []services.OnlineStatus
	for _, em := range e.emitted.To(room, realtime.EventUserOnlineStatus) {
		var p services.OnlineStatusPayload
		require.NoError(t, json.Unmarshal(em.Payload, &p))
		out = append(out, p.Status)
	}
	return out
}

func TestPresenceAnnouncesOnlyZeroCrossings(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	e.befriend(t, alice, bob)
	require.NoError(t, e.presence.Connect(e.ctx, bob.ID, "bob-1"))

	require.NoError(t, e.presence.Connect(e.ctx, alice.ID, "phone"))
	require.Nil(t, e.reload(t, alice.ID).LastSeenAt)
	require.Equal(t, []services.OnlineStatus{services.StatusOnline}, statuses(t, e, bob.ID))
	require.Equal(t, []string{"phone"}, e.rooms.joined[alice.ID])

	require.NoError(t, e.presence.Connect(e.ctx, alice.ID, "laptop"))
	require.NoError(t, e.presence.Disconnect(e.ctx, alice.ID, "phone"))
	require.Len(t, statuses(t, e, bob.ID), 1, "second device and partial disconnect stay silent")
	require.Nil(t, e.reload(t, alice.ID).LastSeenAt)

	require.NoError(t, e.presence.Disconnect(e.ctx, alice.ID, "laptop"))
	require.Equal(t, []services.OnlineStatus{services.StatusOnline, services.StatusOffline}, statuses(t, e, bob.ID))
	require.NotNil(t, e.reload(t, alice.ID).LastSeenAt)
}

func TestPresenceSkipsOfflineFriends(t *testing.T) {
	e := newEnv(t)
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	e.befriend(t, alice, bob)
	e.befriend(t, carol, alice)
	require.NoError(t, e.presence.Connect(e.ctx, carol.ID, "carol-1"))

	require.NoError(t, e.presence.Connect(e.ctx, alice.ID, "alice-1"))
	require.Empty(t, statuses(t, e, bob.ID))
	require.Len(t, statuses(t, e, carol.ID), 1)

	online, err := e.presence.OnlineFriendIDs(e.ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, []string{carol.ID}, online)
}

func TestDisconnectOfUncountedConnectionIsSilent(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	e.befriend(t, alice, bob)
	require.NoError(t, e.presence.Connect(e.ctx, bob.ID, "bob-1"))

	// A connection whose setup failed before it was counted.
	require.NoError(t, e.presence.Disconnect(e.ctx, alice.ID, "never-added"))
	require.Empty(t, statuses(t, e, bob.ID))
	require.Nil(t, e.reload(t, alice.ID).LastSeenAt)

	require.NoError(t, e.presence.Connect(e.ctx, alice.ID, "alice-1"))
	require.NoError(t, e.presence.Disconnect(e.ctx, alice.ID, "alice-1"))
	require.NoError(t, e.presence.Disconnect(e.ctx, alice.ID, "alice-1"))
	require.Equal(t, []services.OnlineStatus{services.StatusOnline, services.StatusOffline}, statuses(t, e, bob.ID))
}
