package events

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/eshop/internal/observability/context"
)

type Type string

const (
	OrderCreated    Type = "order.created"
	OrderUpdated    Type = "order.updated"
	OrderDeleted    Type = "order.deleted"
	SupplierDeleted Type = "supplier.deleted"
)

// Event is the envelope published for every committed purchasing change.
type Event struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	RequestID   string    `json:"request_id,omitempty"`
	Data        any       `json:"data,omitempty"`
}

func New(ctx context.Context, typ Type, aggregateID snowflake.ID, at time.Time, data any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        typ,
		AggregateID: aggregateID.String(),
		OccurredAt:  at.UTC(),
		RequestID:   obscontext.RequestIDFromContext(ctx),
		Data:        data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

type nopPublisher struct{}

// NopPublisher drops every event. Used when no broker is configured.
func NopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, ...Event) error {
	return nil
}
