package services_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/events"
	"social-go/internal/logging"
	"social-go/internal/models"
	"social-go/internal/presence"
	"social-go/internal/realtime"
	"social-go/internal/services"
	"social-go/internal/storage"
	"social-go/internal/storage/memory"
	"social-go/internal/storage/storagetest"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

// rooms records JoinRoom calls in place of a websocket hub.
type rooms struct {
	mu     sync.Mutex
	joined map[string][]string
}

func (r *rooms) JoinRoom(connID, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.joined == nil {
		r.joined = map[string][]string{}
	}
	r.joined[room] = append(r.joined[room], connID)
	return nil
}

type env struct {
	ctx     context.Context
	store   *storage.Store
	journal *storage.MemoryRepairJournal
	bus     *events.SyncBus
	emitted *realtime.Recorder
	online  *presence.MemorySet
	rooms   *rooms

	auth          services.AuthService
	users         services.UserService
	friends       services.FriendService
	notifications services.NotificationService
	engagement    services.EngagementService
	content       services.ContentService
	presence      services.PresenceService
	conversations services.ConversationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	journal := storage.NewMemoryRepairJournal()
	e := &env{
		ctx:     context.Background(),
		store:   memory.NewStore(journal),
		journal: journal,
		bus:     events.NewSyncBus(),
		emitted: &realtime.Recorder{},
		online:  presence.NewMemorySet(),
		rooms:   &rooms{},
	}
	e.wire()
	return e
}

// wire (re)builds the services from the current store repositories, so a
// test can swap a repository for a failing one and rewire.
func (e *env) wire() {
	e.bus = events.NewSyncBus()
	authCfg := config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour, JWTIssuer: "social-go-test"}
	e.auth = services.NewAuthService(e.store.Users, auth.NewMemoryBlacklist(), authCfg)
	e.users = services.NewUserService(e.store.Users, e.store.Friends)
	e.friends = services.NewFriendService(e.store, e.bus)
	e.notifications = services.NewNotificationService(e.store, e.emitted)
	e.notifications.Register(e.bus)
	e.engagement = services.NewEngagementService(e.store, services.NewTargetResolver(e.store))
	e.content = services.NewContentService(e.store)
	e.presence = services.NewPresenceService(e.store, e.online, e.rooms, e.emitted)
	e.conversations = services.NewConversationService(e.store, e.bus, e.emitted)
	e.conversations.Register(e.bus)
}

func (e *env) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := storagetest.NewUser(username)
	require.NoError(t, e.store.Users.Create(e.ctx, u))
	return u
}

func (e *env) reload(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := e.store.Users.GetByID(e.ctx, id)
	require.NoError(t, err)
	return u
}

// befriend runs a full request and accept cycle from a to b.
func (e *env) befriend(t *testing.T, a, b *models.User) *models.Friend {
	t.Helper()
	req, err := e.friends.CreateFriendRequest(e.ctx, a.ID, b.ID)
	require.NoError(t, err)
	friend, err := e.friends.AcceptFriendRequest(e.ctx, b.ID, req.ID)
	require.NoError(t, err)
	return friend
}

func (e *env) openEntries(t *testing.T) []*models.RepairEntry {
	t.Helper()
	entries, err := e.journal.ListOpen(e.ctx, 0)
	require.NoError(t, err)
	return entries
}

// failingUsers fails AddToList and RemoveFromList for one field.
type failingUsers struct {
	storage.UserRepository
	field models.UserListField
	err   error
}

func (f failingUsers) AddToList(ctx context.Context, userID string, field models.UserListField, id string) error {
	if field == f.field {
		return f.err
	}
	return f.UserRepository.AddToList(ctx, userID, field, id)
}

func (f failingUsers) RemoveFromList(ctx context.Context, userID string, field models.UserListField, id string) error {
	if field == f.field {
		return f.err
	}
	return f.UserRepository.RemoveFromList(ctx, userID, field, id)
}
