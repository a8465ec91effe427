package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPublish struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []recordedPublish
	closed    bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.published = append(f.published, recordedPublish{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPForwarder_PublishesPersistentEnvelopeByEventName(t *testing.T) {
	ch := &fakeChannel{}
	fwd := newAMQPForwarder(ch, "ex.telesales", nil)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	err := fwd.Handle(context.Background(), pingEvent{BaseEvent: BaseEvent{Timestamp: at}, N: 7})
	require.NoError(t, err)
	require.Len(t, ch.published, 1)

	pub := ch.published[0]
	assert.Equal(t, "ex.telesales", pub.exchange)
	assert.Equal(t, "test.ping", pub.key)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
	assert.Equal(t, "application/json", pub.msg.ContentType)

	var env struct {
		Name       string `json:"name"`
		OccurredAt string `json:"occurredAt"`
		Payload    struct {
			N int `json:"n"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(pub.msg.Body, &env))
	assert.Equal(t, "test.ping", env.Name)
	assert.Equal(t, "2025-03-01T10:00:00Z", env.OccurredAt)
	assert.Equal(t, 7, env.Payload.N)

	require.NoError(t, fwd.Close())
	assert.True(t, ch.closed)
}
