package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher produces audit events to a single topic, keyed by event id
// so downstream consumers can deduplicate on redelivery. Production is
// asynchronous; a delivery failure is logged, never surfaced to the caller,
// because audit must not block or fail domain writes.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher: no brokers configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger, now: time.Now}, nil
}

type kafkaPayload struct {
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	Scope     string    `json:"scope,omitempty"`
}

func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	event = normalize(event, p.now)

	value, err := json.Marshal(kafkaPayload{
		Category:  string(event.Category),
		Timestamp: event.Timestamp,
		TenantID:  event.TenantID.String(),
		Action:    event.Action,
		Subject:   event.Subject,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
		Scope:     event.Scope,
	})
	if err != nil {
		return fmt.Errorf("kafka publisher: marshal: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(uuid.NewString()),
		Value: value,
	}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit delivery failed",
				"topic", r.Topic,
				"action", event.Action,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("kafka publisher: flush: %w", err)
	}
	p.client.Close()
	return nil
}
