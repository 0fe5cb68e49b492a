package events

import (
	"context"

	"github.com/smallbiznis/eshop/internal/observability/metrics"
	"go.uber.org/zap"
)

// Emitter hands committed events to the publisher. Broker failures are logged
// and counted; the database write they describe has already succeeded.
type Emitter struct {
	pub     Publisher
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewEmitter(pub Publisher, log *zap.Logger, m *metrics.Metrics) *Emitter {
	if pub == nil {
		pub = NopPublisher()
	}
	return &Emitter{
		pub:     pub,
		log:     log.Named("events"),
		metrics: m,
	}
}

func (e *Emitter) Emit(ctx context.Context, events ...Event) {
	if e == nil || len(events) == 0 {
		return
	}
	err := e.pub.Publish(ctx, events...)
	for _, event := range events {
		e.metrics.RecordEventPublished(ctx, string(event.Type), err)
	}
	if err != nil {
		e.log.Error("publish events failed",
			zap.String("type", string(events[0].Type)),
			zap.String("aggregate_id", events[0].AggregateID),
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}
