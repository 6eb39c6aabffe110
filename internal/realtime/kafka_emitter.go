package realtime

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"social-go/internal/kafka"
)

// KafkaEmitter publishes envelopes to the relay topic, keyed by room so one
// room's events keep their order.
type KafkaEmitter struct {
	producer kafka.MessageProducer
	topic    string
	timeout  time.Duration
}

func NewKafkaEmitter(producer kafka.MessageProducer, topic string, timeout time.Duration) *KafkaEmitter {
	return &KafkaEmitter{producer: producer, topic: topic, timeout: timeout}
}

func (e *KafkaEmitter) EmitToRoom(ctx context.Context, room, event string, payload any) error {
	env, err := NewEnvelope(room, event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.producer.SendMessage(ctx, e.topic, []byte(room), data)
}
