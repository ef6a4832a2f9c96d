package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fieldbook/internal/shared/config"
	"fieldbook/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Event is the envelope every published message uses
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher pushes settlement events to Kafka. Publishing is
// fire-and-forget: a broker outage is logged, never surfaced to the
// caller, so a payment transition can't fail on messaging.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewPublisher connects a sync producer. When Kafka is disabled in the
// config it returns a publisher that drops events on the floor.
func NewPublisher(cfg config.KafkaConfig, log *logger.Logger) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{topic: cfg.Topic, log: log}, nil
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Publisher{producer: producer, topic: cfg.Topic, log: log}, nil
}

// Publish sends one event. Satisfies the payments module's
// EventPublisher contract.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload interface{}) {
	if p.producer == nil {
		return
	}

	event := Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		p.log.ErrorWithContext(ctx, "failed to marshal event", err, map[string]interface{}{
			"event_type": eventType,
		})
		return
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		// Keying by type keeps each event stream ordered per partition
		Key:   sarama.StringEncoder(eventType),
		Value: sarama.ByteEncoder(messageBytes),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.ID.String())},
			{Key: []byte("event_type"), Value: []byte(eventType)},
			{Key: []byte("producer"), Value: []byte("fieldbook")},
		},
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.log.ErrorWithContext(ctx, "failed to publish event", err, map[string]interface{}{
			"event_type": eventType,
		})
		return
	}

	p.log.InfoWithContext(ctx, "event published", map[string]interface{}{
		"event_type": eventType,
		"topic":      p.topic,
		"partition":  partition,
		"offset":     offset,
	})
}

func (p *Publisher) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
