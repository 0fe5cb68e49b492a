package events

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/smallbiznis/eshop/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewPublisher),
	fx.Provide(NewEmitter),
)

func NewPublisher(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("no kafka brokers configured, domain events are dropped")
		return NopPublisher(), nil
	}

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return producer.Close()
		},
	})

	return NewKafkaPublisher(producer, cfg.Kafka.Topic, log), nil
}
