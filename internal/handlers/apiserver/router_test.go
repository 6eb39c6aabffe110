package apiserver_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/events"
	"social-go/internal/handlers/apiserver"
	"social-go/internal/logging"
	"social-go/internal/presence"
	"social-go/internal/realtime"
	"social-go/internal/services"
	"social-go/internal/storage"
	"social-go/internal/storage/memory"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

type noRooms struct{}

func (noRooms) JoinRoom(string, string) error { return nil }

type api struct {
	t        *testing.T
	srv      *httptest.Server
	presence services.PresenceService
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.NewStore(storage.NewMemoryRepairJournal())
	bus := events.NewSyncBus()
	emitter := &realtime.Recorder{}
	cfg := config.Config{
		Auth:       config.AuthConfig{JWTSecretKey: "router-secret", JWTExpiry: time.Hour, JWTIssuer: "social-go-test"},
		Pagination: config.PaginationConfig{DefaultLimit: 20, MaxLimit: 50},
		Metrics:    config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}

	authSvc := services.NewAuthService(store.Users, auth.NewMemoryBlacklist(), cfg.Auth)
	notifications := services.NewNotificationService(store, emitter)
	notifications.Register(bus)
	conversations := services.NewConversationService(store, bus, emitter)
	conversations.Register(bus)
	presenceSvc := services.NewPresenceService(store, presence.NewMemorySet(), noRooms{}, emitter)

	router := apiserver.NewRouter(apiserver.Services{
		Auth:          authSvc,
		Users:         services.NewUserService(store.Users, store.Friends),
		Friends:       services.NewFriendService(store, bus),
		Online:        presenceSvc,
		Content:       services.NewContentService(store),
		Engagement:    services.NewEngagementService(store, services.NewTargetResolver(store)),
		Notifications: notifications,
		Conversations: conversations,
	}, cfg)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &api{t: t, srv: srv, presence: presenceSvc}
}

// do sends body as JSON and decodes the reply into out when out is non-nil.
func (a *api) do(method, path, token string, body, out any) *http.Response {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(a.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID string `json:"id"`
	} `json:"user"`
}

func (a *api) register(username string) session {
	a.t.Helper()
	var s session
	resp := a.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "long enough password",
	}, &s)
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	return s
}

func (a *api) befriend(from, to session) string {
	a.t.Helper()
	var req struct {
		ID string `json:"id"`
	}
	resp := a.do(http.MethodPost, "/api/v1/users/"+to.User.ID+"/friend-requests", from.Token, nil, &req)
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	var friend struct {
		ID string `json:"id"`
	}
	resp = a.do(http.MethodPost, "/api/v1/friend-requests/"+req.ID+"/accept", to.Token, nil, &friend)
	require.Equal(a.t, http.StatusOK, resp.StatusCode)
	return friend.ID
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/healthz", "", nil, nil).StatusCode)

	resp := a.do(http.MethodGet, "/metrics", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAuthLifecycle(t *testing.T) {
	a := newAPI(t)

	var errBody apiserver.ErrorResponse
	resp := a.do(http.MethodPost, "/auth/register", "", map[string]string{"username": "x"}, &errBody)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotEmpty(t, errBody.Fields)

	alice := a.register("alice")
	require.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/v1/users/me", "", nil, nil).StatusCode)

	var login session
	resp = a.do(http.MethodPost, "/auth/login", "", map[string]string{"identifier": "alice", "password": "long enough password"}, &login)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, alice.User.ID, login.User.ID)

	var me struct {
		Username string `json:"username"`
	}
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/users/me", login.Token, nil, &me).StatusCode)
	require.Equal(t, "alice", me.Username)

	require.Equal(t, http.StatusNoContent, a.do(http.MethodPost, "/api/v1/auth/logout", login.Token, nil, nil).StatusCode)
	require.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/v1/users/me", login.Token, nil, nil).StatusCode)
	// The registration token is still valid.
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/users/me", alice.Token, nil, nil).StatusCode)
}

func TestFriendRoutes(t *testing.T) {
	a := newAPI(t)
	alice, bob := a.register("alice"), a.register("bob")

	require.Equal(t, http.StatusBadRequest,
		a.do(http.MethodPost, "/api/v1/users/not-an-id/friend-requests", alice.Token, nil, nil).StatusCode)
	require.Equal(t, http.StatusBadRequest,
		a.do(http.MethodPost, "/api/v1/users/"+alice.User.ID+"/friend-requests", alice.Token, nil, nil).StatusCode)

	var req struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated,
		a.do(http.MethodPost, "/api/v1/users/"+bob.User.ID+"/friend-requests", alice.Token, nil, &req).StatusCode)
	require.Equal(t, http.StatusConflict,
		a.do(http.MethodPost, "/api/v1/users/"+bob.User.ID+"/friend-requests", alice.Token, nil, nil).StatusCode)

	var received []struct {
		ID     string `json:"id"`
		Sender struct {
			Username string `json:"username"`
		} `json:"sender"`
	}
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/friend-requests/received", bob.Token, nil, &received).StatusCode)
	require.Len(t, received, 1)
	require.Equal(t, "alice", received[0].Sender.Username)

	require.Equal(t, http.StatusForbidden,
		a.do(http.MethodPost, "/api/v1/friend-requests/"+req.ID+"/accept", alice.Token, nil, nil).StatusCode)
	require.Equal(t, http.StatusOK,
		a.do(http.MethodPost, "/api/v1/friend-requests/"+req.ID+"/accept", bob.Token, nil, nil).StatusCode)
	require.Equal(t, http.StatusNotFound,
		a.do(http.MethodDelete, "/api/v1/friend-requests/"+req.ID, alice.Token, nil, nil).StatusCode)

	var friends []services.FriendView
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/friends", alice.Token, nil, &friends).StatusCode)
	require.Len(t, friends, 1)
	require.Equal(t, bob.User.ID, friends[0].User.ID)

	require.NoError(t, a.presence.Connect(context.Background(), bob.User.ID, "bob-conn"))
	var online struct {
		UserIDs []string `json:"userIds"`
	}
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/friends/online", alice.Token, nil, &online).StatusCode)
	require.Equal(t, []string{bob.User.ID}, online.UserIDs)

	var notifications services.NotificationPage
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/notifications", alice.Token, nil, &notifications).StatusCode)
	require.Len(t, notifications.Notifications, 1)

	var count map[string]int64
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/notifications/new-count", alice.Token, nil, &count).StatusCode)
	require.EqualValues(t, 1, count["count"])
	require.Equal(t, http.StatusNoContent,
		a.do(http.MethodPost, "/api/v1/notifications/"+notifications.Notifications[0].ID+"/read", alice.Token, nil, nil).StatusCode)
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/notifications/new-count", alice.Token, nil, &count).StatusCode)
	require.Zero(t, count["count"])

	require.Equal(t, http.StatusNoContent,
		a.do(http.MethodDelete, "/api/v1/friends/"+friends[0].FriendID, bob.Token, nil, nil).StatusCode)
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/friends", alice.Token, nil, &friends).StatusCode)
	require.Empty(t, friends)
}

func TestPostsAndReactions(t *testing.T) {
	a := newAPI(t)
	alice, bob := a.register("alice"), a.register("bob")

	var post struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated,
		a.do(http.MethodPost, "/api/v1/posts", alice.Token, map[string]string{"content": "hello", "privacy": "FRIENDS"}, &post).StatusCode)
	require.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/v1/posts/"+post.ID, bob.Token, nil, nil).StatusCode)
	a.befriend(alice, bob)
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/posts/"+post.ID, bob.Token, nil, nil).StatusCode)

	var comment struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated,
		a.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", bob.Token, map[string]string{"content": "nice"}, &comment).StatusCode)
	require.Equal(t, http.StatusCreated,
		a.do(http.MethodPost, "/api/v1/comments/"+comment.ID+"/replies", alice.Token, map[string]string{"content": "thanks"}, nil).StatusCode)

	reactions := "/api/v1/posts/" + post.ID + "/reactions"
	require.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, reactions, bob.Token, map[string]string{"type": "ANGRY"}, nil).StatusCode)

	var first, second map[string]string
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, reactions, bob.Token, map[string]string{"type": "LIKE"}, &first).StatusCode)
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, reactions, bob.Token, map[string]string{"type": "LIKE"}, &second).StatusCode)
	require.Equal(t, first["reactionId"], second["reactionId"])
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, reactions, alice.Token, map[string]string{"type": "FAVORITE"}, nil).StatusCode)

	var page services.ReactionPage
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, reactions+"?type=LIKE", alice.Token, nil, &page).StatusCode)
	require.Len(t, page.Reactions, 1)
	require.Equal(t, bob.User.ID, page.Reactions[0].UserID)

	require.Equal(t, http.StatusOK, a.do(http.MethodGet, reactions+"?limit=1", alice.Token, nil, &page).StatusCode)
	require.Len(t, page.Reactions, 1)
	require.True(t, page.HasMore)

	require.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, reactions, bob.Token, nil, nil).StatusCode)
	require.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, reactions, bob.Token, nil, nil).StatusCode)
	require.Equal(t, http.StatusOK,
		a.do(http.MethodPut, "/api/v1/comments/"+comment.ID+"/reactions", alice.Token, map[string]string{"type": "satisfied"}, nil).StatusCode)
	require.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/v1/videos/"+post.ID+"/reactions", alice.Token, nil, nil).StatusCode)
}

func TestConversationRoutes(t *testing.T) {
	a := newAPI(t)
	alice, bob := a.register("alice"), a.register("bob")

	require.Equal(t, http.StatusForbidden,
		a.do(http.MethodGet, "/api/v1/conversations/with/"+bob.User.ID, alice.Token, nil, nil).StatusCode)
	a.befriend(alice, bob)

	var conv struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/conversations/with/"+bob.User.ID, alice.Token, nil, &conv).StatusCode)
	messages := "/api/v1/conversations/" + conv.ID + "/messages"
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, messages, bob.Token, map[string]string{"content": "hey"}, nil).StatusCode)

	var page services.MessagePage
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, messages, alice.Token, nil, &page).StatusCode)
	require.Len(t, page.Messages, 1)
	require.False(t, page.HasMore)

	require.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, messages+"?limit=abc", alice.Token, nil, nil).StatusCode)
}

func TestListingRoutes(t *testing.T) {
	a := newAPI(t)
	alice, bob, eve := a.register("alice"), a.register("bob"), a.register("eve")
	a.befriend(alice, bob)

	var post, hidden struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated,
		a.do(http.MethodPost, "/api/v1/posts", alice.Token, map[string]string{"content": "hello"}, &post).StatusCode)
	require.Equal(t, http.StatusCreated,
		a.do(http.MethodPost, "/api/v1/posts", alice.Token, map[string]string{"content": "friends", "privacy": "FRIENDS"}, &hidden).StatusCode)

	var comment struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated,
		a.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", bob.Token, map[string]string{"content": "nice"}, &comment).StatusCode)
	require.Equal(t, http.StatusCreated,
		a.do(http.MethodPost, "/api/v1/comments/"+comment.ID+"/replies", alice.Token, map[string]string{"content": "thanks"}, nil).StatusCode)

	var posts services.PostPage
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/users/"+alice.User.ID+"/posts", eve.Token, nil, &posts).StatusCode)
	require.Len(t, posts.Posts, 1)
	require.Equal(t, post.ID, posts.Posts[0].ID)
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/users/"+alice.User.ID+"/posts?limit=1", bob.Token, nil, &posts).StatusCode)
	require.Equal(t, hidden.ID, posts.Posts[0].ID)
	require.True(t, posts.HasMore)

	var feed services.PostPage
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/newsfeed/posts", bob.Token, nil, &feed).StatusCode)
	require.Len(t, feed.Posts, 2)
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/newsfeed/posts", eve.Token, nil, &feed).StatusCode)
	require.Empty(t, feed.Posts)

	var comments services.CommentPage
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/posts/"+post.ID+"/comments", eve.Token, nil, &comments).StatusCode)
	require.Len(t, comments.Comments, 1)
	require.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/v1/posts/"+hidden.ID+"/comments", eve.Token, nil, nil).StatusCode)

	var replies services.ReplyPage
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/comments/"+comment.ID+"/replies", bob.Token, nil, &replies).StatusCode)
	require.Len(t, replies.Replies, 1)

	var friends services.FriendPage
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/users/"+bob.User.ID+"/friends", eve.Token, nil, &friends).StatusCode)
	require.Len(t, friends.Friends, 1)
	require.Equal(t, alice.User.ID, friends.Friends[0].User.ID)
	require.False(t, friends.Friends[0].IsFriend)
	require.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/v1/users/"+bob.User.ID+"/friends?before=nope", eve.Token, nil, nil).StatusCode)
}
