package chatserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/logging"
	"social-go/internal/metrics"
	"social-go/internal/models"
	"social-go/internal/services"
	ws "social-go/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

type tokenAuth map[string]string

func (a tokenAuth) Authenticate(_ context.Context, token string) (*models.User, *auth.Claims, error) {
	id, ok := a[token]
	if !ok {
		return nil, nil, services.ErrInvalidToken
	}
	return &models.User{ID: id}, nil, nil
}

type presenceEvent struct {
	op, userID, connID string
}

type fakePresence struct {
	events     chan presenceEvent
	connectErr error
}

func (f *fakePresence) Connect(_ context.Context, userID, connID string) error {
	f.events <- presenceEvent{"connect", userID, connID}
	return f.connectErr
}

func (f *fakePresence) Disconnect(_ context.Context, userID, connID string) error {
	f.events <- presenceEvent{"disconnect", userID, connID}
	return nil
}

func (f *fakePresence) OnlineFriendIDs(context.Context, string) ([]string, error) { return nil, nil }

func (f *fakePresence) next(t *testing.T) presenceEvent {
	t.Helper()
	select {
	case ev := <-f.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no presence event")
		return presenceEvent{}
	}
}

func newServer(t *testing.T, p *fakePresence) *httptest.Server {
	t.Helper()
	hub := ws.NewHub(16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	wsCfg := config.WebSocketConfig{
		WriteWaitSeconds: 1, PongWaitSeconds: 5, PingPeriodSeconds: 4,
		MaxMessageSizeBytes: 1024, SendBufferSize: 8,
	}
	h := NewWebSocketHandler(hub, tokenAuth{"good": "u1"}, p, wsCfg)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
}

func TestServeWSRejectsBadTokens(t *testing.T) {
	srv := newServer(t, &fakePresence{events: make(chan presenceEvent, 4)})

	for _, q := range []string{"", "?token=bad"} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, q), nil)
		require.Error(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestServeWSTracksPresence(t *testing.T) {
	p := &fakePresence{events: make(chan presenceEvent, 4)}
	srv := newServer(t, p)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token=good"), nil)
	require.NoError(t, err)

	opened := p.next(t)
	require.Equal(t, "connect", opened.op)
	require.Equal(t, "u1", opened.userID)

	require.NoError(t, conn.Close())
	closed := p.next(t)
	require.Equal(t, presenceEvent{"disconnect", "u1", opened.connID}, closed)
}

func TestServeWSHeaderToken(t *testing.T) {
	p := &fakePresence{events: make(chan presenceEvent, 4)}
	srv := newServer(t, p)

	header := http.Header{"Authorization": []string{"Bearer good"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), header)
	require.NoError(t, err)
	require.Equal(t, "connect", p.next(t).op)
	require.NoError(t, conn.Close())
	require.Equal(t, "disconnect", p.next(t).op)
}

func TestServeWSClosesWhenPresenceFails(t *testing.T) {
	p := &fakePresence{events: make(chan presenceEvent, 4), connectErr: errors.New("store down")}
	srv := newServer(t, p)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token=good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Equal(t, "connect", p.next(t).op)
	require.Equal(t, "disconnect", p.next(t).op)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseInternalServerErr))
}

func TestServeWSCountsEachConnectionOnce(t *testing.T) {
	p := &fakePresence{events: make(chan presenceEvent, 4)}
	srv := newServer(t, p)
	base := testutil.ToFloat64(metrics.WebSocketConnections)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token=good"), nil)
	require.NoError(t, err)
	require.Equal(t, "connect", p.next(t).op)
	require.Equal(t, base+1, testutil.ToFloat64(metrics.WebSocketConnections))

	require.NoError(t, conn.Close())
	require.Equal(t, "disconnect", p.next(t).op)
	require.Equal(t, base, testutil.ToFloat64(metrics.WebSocketConnections))
}

func TestServeWSDisconnectsSlowClient(t *testing.T) {
	p := &fakePresence{events: make(chan presenceEvent, 4)}
	hub := ws.NewHub(16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	wsCfg := config.WebSocketConfig{
		WriteWaitSeconds: 1, PongWaitSeconds: 5, PingPeriodSeconds: 4,
		MaxMessageSizeBytes: 1024, SendBufferSize: 1,
	}
	srv := httptest.NewServer(http.HandlerFunc(NewWebSocketHandler(hub, tokenAuth{"good": "u1"}, p, wsCfg).ServeWS))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token=good"), nil)
	require.NoError(t, err)
	defer conn.Close()
	opened := p.next(t)

	// Never read: the socket backs up, then the send buffer, then the hub drops us.
	blob := strings.Repeat("x", 64<<10)
	require.Eventually(t, func() bool {
		_ = hub.EmitToRoom(ctx, "u1", "flood", blob)
		return hub.RoomSize("u1") == 0
	}, 5*time.Second, time.Millisecond)

	require.Equal(t, presenceEvent{"disconnect", "u1", opened.connID}, p.next(t))
}
