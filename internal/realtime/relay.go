package realtime

import (
	"context"

	"social-go/internal/kafka"
	"social-go/internal/logging"
)

// Relay feeds envelopes consumed from the relay topic into a local emitter,
// normally the chat server's websocket hub.
type Relay struct {
	local Emitter
}

func NewRelay(local Emitter) *Relay {
	return &Relay{local: local}
}

// Handle is a kafka.MessageHandler. Undecodable envelopes are logged and
// skipped so one bad record does not stall the partition.
func (r *Relay) Handle(ctx context.Context, msg *kafka.Message) error {
	env, err := DecodeEnvelope(msg.Value)
	if err != nil {
		logging.WithComponent("realtime").Warn().Err(err).Msg("skipping malformed relay envelope")
		return nil
	}
	return r.local.EmitToRoom(ctx, env.Room, env.Event, env.Payload)
}
