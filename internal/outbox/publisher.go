package outbox

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: "message-id", Value: []byte(msg.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher writes audit messages as JSON lines. It is used when no
// broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(w io.Writer) *LogPublisher {
	return &LogPublisher{logger: zerolog.New(w).With().Timestamp().Str("stream", "audit").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, msg domain.OutboxMessage) error {
	p.logger.Info().
		Str("id", msg.ID).
		Str("topic", msg.Topic).
		Str("key", msg.Key).
		RawJSON("payload", msg.Payload).
		Msg("audit")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
