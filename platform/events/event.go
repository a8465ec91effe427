// Package events is the in-process event bus plus an optional AMQP forwarder
// that mirrors every event to a topic exchange.
package events

import (
	"context"
	"time"
)

// Event is anything published on the bus. EventName doubles as the AMQP
// routing key, e.g. "orders.converted".
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by concrete events to supply OccurredAt.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Publisher is what services depend on. Publishing never fails the caller;
// handler errors are logged by the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type Bus interface {
	Publisher
	// PublishSync runs the handlers inline and returns the first error.
	PublishSync(ctx context.Context, event Event) error
	// Subscribe registers handler for eventName, or for every event when
	// eventName is Wildcard.
	Subscribe(eventName string, handler Handler)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
