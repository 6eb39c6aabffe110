package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"social-go/internal/config"
	"social-go/internal/logging"
)

// Message is the consumed record handed to a MessageHandler.
type Message = kafka.Message

// MessageHandler processes one consumed message. A nil return commits its offset.
type MessageHandler func(ctx context.Context, msg *Message) error

// MessageConsumer consumes topics until its context is cancelled.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
}

func NewConfluentKafkaConsumer(cfg config.KafkaConfig) (MessageConsumer, error) {
	return &confluentKafkaConsumer{cfg: cfg}, nil
}

// Consume blocks until ctx is cancelled or a fatal broker error occurs.
// Realtime envelopes are only useful live, so a new group starts at the latest offset.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID
	log := logging.WithComponent("kafka").With().Str("group", groupID).Logger()

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           groupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		c.consumer = nil
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}
	log.Info().Strs("topics", topics).Msg("Kafka consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("context cancelled, stopping consumer")
			return nil
		default:
		}

		ev := c.consumer.Poll(500)
		if ev == nil {
			continue
		}
		switch e := ev.(type) {
		case *kafka.Message:
			if err := handler(ctx, e); err != nil {
				log.Error().Err(err).Str("topic", *e.TopicPartition.Topic).
					Str("offset", e.TopicPartition.Offset.String()).Msg("error processing Kafka message")
				continue
			}
			if _, err := c.consumer.CommitMessage(e); err != nil {
				log.Warn().Err(err).Msg("failed to commit offset")
			}
		case kafka.Error:
			if e.IsFatal() {
				log.Error().Err(e).Msg("fatal Kafka error, stopping consumer")
				return e
			}
			log.Warn().Err(e).Bool("retriable", e.IsRetriable()).Msg("Kafka consumer error")
		case kafka.AssignedPartitions:
			log.Debug().Int("partitions", len(e.Partitions)).Msg("partitions assigned")
			_ = c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			log.Debug().Int("partitions", len(e.Partitions)).Msg("partitions revoked")
			_ = c.consumer.Unassign()
		}
	}
}

func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	log := logging.WithComponent("kafka")
	if err := c.consumer.Close(); err != nil {
		log.Error().Err(err).Str("group", c.groupID).Msg("error closing Kafka consumer")
	} else {
		log.Info().Str("group", c.groupID).Msg("Kafka consumer closed")
	}
	c.consumer = nil
}
