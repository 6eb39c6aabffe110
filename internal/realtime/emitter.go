// Package realtime pushes named events to rooms of live connections,
// either directly into a local websocket hub or through Kafka to every
// chat server.
package realtime

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// Event names delivered to clients.
const (
	EventFriendRequestReceived = "friend-request-received"
	EventFriendRequestAccepted = "friend-request-accepted"
	EventMessageCreated        = "message-created"
	EventUserOnlineStatus      = "user-online-status"
)

// Emitter delivers event to every connection that joined room.
// Delivery is best-effort; an error means the event was not handed off.
type Emitter interface {
	EmitToRoom(ctx context.Context, room, event string, payload any) error
}

// Envelope is the wire form of one emission, both on the relay topic and
// (without Room) on the websocket.
type Envelope struct {
	Room    string          `json:"room,omitempty"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func NewEnvelope(room, event string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Envelope{Room: room, Event: event, Payload: raw}, nil
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Room == "" || env.Event == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing room or event")
	}
	return env, nil
}
