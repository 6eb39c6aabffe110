package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"social-go/internal/config"
	"social-go/internal/logging"
)

// MessageProducer publishes keyed payloads to a topic.
type MessageProducer interface {
	SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error
	Close()
}

type confluentKafkaProducer struct {
	producer *kafka.Producer
}

// NewConfluentKafkaProducer creates a producer for the configured brokers.
func NewConfluentKafkaProducer(cfg config.KafkaConfig) (MessageProducer, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"security.protocol": cfg.Protocol,
		"linger.ms":         5,
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}

	p, err := kafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return &confluentKafkaProducer{producer: p}, nil
}

// SendMessage produces one message and waits for its delivery report or ctx.
func (p *confluentKafkaProducer) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	deliveryChan := make(chan kafka.Event, 1)

	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          payload,
		Timestamp:      time.Now(),
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("kafka producer failed to enqueue message for topic %s: %w", topic, err)
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("kafka producer: unexpected delivery event %T", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("kafka producer: delivery failed for topic %s: %w", topic, m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		// The message may still be delivered; delivery is at-most-once from the caller's view.
		return fmt.Errorf("kafka producer: waiting for delivery to %s: %w", topic, ctx.Err())
	}
}

// Close flushes outstanding messages for up to 15 seconds.
func (p *confluentKafkaProducer) Close() {
	if p.producer == nil {
		return
	}
	log := logging.WithComponent("kafka")
	if remaining := p.producer.Flush(15 * 1000); remaining > 0 {
		log.Warn().Int("outstanding", remaining).Msg("messages still outstanding after flush")
	}
	p.producer.Close()
	log.Info().Msg("Kafka producer closed")
}
