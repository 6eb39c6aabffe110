package websocket

import (
	"context"
	"errors"
	"sync"

	"github.com/goccy/go-json"

	"social-go/internal/logging"
	"social-go/internal/metrics"
	"social-go/internal/realtime"
)

// ErrUnknownConnection is returned by JoinRoom for an unregistered connection id.
var ErrUnknownConnection = errors.New("websocket: unknown connection")

type outbound struct {
	room string
	data []byte
}

// Hub tracks live clients and the rooms they joined. A room is named by a
// user id; every connection of that user joins it.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client

	// Frames waiting for delivery by Run.
	outbound chan outbound
}

// NewHub creates a Hub whose delivery queue holds queueSize frames.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Hub{
		clients:  make(map[string]*Client),
		rooms:    make(map[string]map[string]*Client),
		outbound: make(chan outbound, queueSize),
	}
}

// Register adds a client. Connections are independent; one user may hold many.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	metrics.WebSocketConnections.Inc()
	logging.WithComponent("websocket").Debug().Str("conn_id", c.ID).Str("user_id", c.UserID).Msg("client registered")
}

// Unregister removes a client from every room and closes its send channel.
// It reports whether the client was still registered.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) bool {
	if _, ok := h.clients[c.ID]; !ok {
		return false
	}
	delete(h.clients, c.ID)
	for room := range c.rooms {
		members := h.rooms[room]
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
	metrics.WebSocketConnections.Dec()
	logging.WithComponent("websocket").Debug().Str("conn_id", c.ID).Str("user_id", c.UserID).Msg("client unregistered")
	return true
}

// JoinRoom subscribes the connection to room.
func (h *Hub) JoinRoom(connID, room string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return ErrUnknownConnection
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[connID] = c
	c.rooms[room] = struct{}{}
	return nil
}

// RoomSize is the number of connections currently in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// EmitToRoom queues event for every member of room. It never blocks: when
// the queue is full the frame is dropped.
func (h *Hub) EmitToRoom(ctx context.Context, room, event string, payload any) error {
	env, err := realtime.NewEnvelope("", event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case h.outbound <- outbound{room: room, data: data}:
		return nil
	default:
		logging.Ctx(ctx).Warn().Str("room", room).Str("event", event).Msg("hub outbound queue full, dropping frame")
		return errors.New("websocket: hub queue full")
	}
}

// Run delivers queued frames until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log := logging.WithComponent("websocket")
	log.Info().Msg("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("WebSocket hub stopped")
			return
		case frame := <-h.outbound:
			h.deliver(frame)
		}
	}
}

func (h *Hub) deliver(frame outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.rooms[frame.room] {
		select {
		case c.send <- frame.data:
		default:
			// Slow client: drop it. Closing send makes writePump close the
			// socket, and readPump then runs the close hook.
			logging.WithComponent("websocket").Warn().Str("conn_id", c.ID).Str("user_id", c.UserID).
				Msg("send buffer full, dropping client")
			h.removeLocked(c)
		}
	}
}
