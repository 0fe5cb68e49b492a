package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const headerEventType = "event-type"

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

func newProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// NewKafkaPublisher publishes events keyed by aggregate id so a consumer sees
// the changes of one order in commit order.
func NewKafkaPublisher(producer sarama.SyncProducer, topic string, log *zap.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      log.Named("events.kafka"),
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]*sarama.ProducerMessage, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", event.Type, err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic:     p.topic,
			Key:       sarama.StringEncoder(event.AggregateID),
			Value:     sarama.ByteEncoder(payload),
			Timestamp: event.OccurredAt,
			Headers: []sarama.RecordHeader{
				{Key: []byte(headerEventType), Value: []byte(event.Type)},
			},
		})
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("send %d events: %w", len(msgs), err)
	}

	p.log.Debug("events published", zap.String("topic", p.topic), zap.Int("count", len(msgs)))
	return nil
}
