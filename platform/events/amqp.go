package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telesales_backend/platform/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is the subset of *amqp.Channel the forwarder needs.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// envelope is the wire shape of a forwarded event.
type envelope struct {
	Name       string          `json:"name"`
	OccurredAt string          `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// AMQPForwarder republishes domain events to a RabbitMQ topic exchange using
// the event name as the routing key.
type AMQPForwarder struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	log      *logger.Logger
}

// DialAMQPForwarder connects to the broker and declares a durable topic exchange.
func DialAMQPForwarder(url, exchange string, log *logger.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	f := newAMQPForwarder(ch, exchange, log)
	f.conn = conn
	return f, nil
}

func newAMQPForwarder(ch amqpChannel, exchange string, log *logger.Logger) *AMQPForwarder {
	if log == nil {
		log = logger.Nop()
	}
	return &AMQPForwarder{ch: ch, exchange: exchange, log: log}
}

// Handle implements Handler.
func (f *AMQPForwarder) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventName(), err)
	}

	body, err := json.Marshal(envelope{
		Name:       event.EventName(),
		OccurredAt: event.OccurredAt().UTC().Format(time.RFC3339Nano),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	err = f.ch.PublishWithContext(ctx, f.exchange, event.EventName(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt(),
		Type:         event.EventName(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.EventName(), err)
	}

	f.log.Debug("event forwarded", "event", event.EventName(), "exchange", f.exchange)
	return nil
}

// Close releases the channel and the connection.
func (f *AMQPForwarder) Close() error {
	var err error
	if f.ch != nil {
		err = f.ch.Close()
	}
	if f.conn != nil {
		if cerr := f.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
