package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"social-go/internal/config"
	"social-go/internal/logging"
)

// Client is one live websocket connection. The server only pushes; inbound
// frames are read to service pings and detect closure.
type Client struct {
	ID     string
	UserID string

	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]struct{} // guarded by hub.mu

	onClose   func(*Client)
	closeOnce sync.Once
}

// NewClient creates an unconnected client with a fresh connection id.
func NewClient(hub *Hub, userID string, bufferSize int) *Client {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		hub:    hub,
		send:   make(chan []byte, bufferSize),
		rooms:  make(map[string]struct{}),
	}
}

// Send exposes the outbound channel for callers that drive the client without a socket.
func (c *Client) Send() <-chan []byte { return c.send }

// Hooks let the caller observe a connection's lifetime.
type Hooks struct {
	// OnOpen runs after the client is registered and before pumps start.
	// Returning an error closes the connection.
	OnOpen func(c *Client) error
	// OnClose runs once after the client is unregistered, whether the
	// socket closed or the hub dropped it.
	OnClose func(c *Client)
}

// finish runs the close hook at most once.
func (c *Client) finish() {
	c.closeOnce.Do(func() {
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}

func (c *Client) readPump(wsCfg config.WebSocketConfig) {
	defer func() {
		// The hub may already have dropped us; the hook still has to run.
		c.hub.Unregister(c)
		c.conn.Close()
		c.finish()
	}()
	pongWait := time.Duration(wsCfg.PongWaitSeconds) * time.Second
	c.conn.SetReadLimit(int64(wsCfg.MaxMessageSizeBytes))
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.WithComponent("websocket").Warn().Err(err).Str("conn_id", c.ID).Msg("unexpected websocket close")
			}
			return
		}
	}
}

func (c *Client) writePump(wsCfg config.WebSocketConfig) {
	writeWait := time.Duration(wsCfg.WriteWaitSeconds) * time.Second
	ticker := time.NewTicker(time.Duration(wsCfg.PingPeriodSeconds) * time.Second)
	newline := []byte("\n")
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// Coalesce whatever else is already queued, newline separated.
			n := len(c.send)
			for i := 0; i < n; i++ {
				_, _ = w.Write(newline)
				_, _ = w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades the request, registers the client for userID and starts its pumps.
func ServeWs(hub *Hub, userID string, w http.ResponseWriter, r *http.Request, wsCfg config.WebSocketConfig, hooks Hooks) {
	log := logging.Ctx(r.Context())
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(hub, userID, wsCfg.SendBufferSize)
	client.conn = conn
	client.onClose = hooks.OnClose
	hub.Register(client)

	if hooks.OnOpen != nil {
		if err := hooks.OnOpen(client); err != nil {
			log.Error().Err(err).Str("conn_id", client.ID).Msg("connection setup failed, closing")
			hub.Unregister(client)
			client.finish()
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "setup failed"))
			conn.Close()
			return
		}
	}

	go client.writePump(wsCfg)
	go client.readPump(wsCfg)
	log.Info().Str("conn_id", client.ID).Str("user_id", userID).Msg("client connected")
}
