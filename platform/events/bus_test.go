package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type pingEvent struct {
	BaseEvent
	N int `json:"n"`
}

func (pingEvent) EventName() string { return "test.ping" }

func TestInMemoryBus_PublishSyncReachesNamedAndWildcardHandlers(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var named, wildcard int32

	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&named, 1)
		return nil
	}))
	bus.Subscribe(Wildcard, HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&wildcard, 1)
		return nil
	}))
	bus.Subscribe("test.other", HandlerFunc(func(context.Context, Event) error {
		t.Fatal("handler for another event must not run")
		return nil
	}))

	if err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if named != 1 || wildcard != 1 {
		t.Fatalf("expected one call each, got named=%d wildcard=%d", named, wildcard)
	}
}

func TestInMemoryBus_PublishSyncJoinsErrorsAndRecoversPanics(t *testing.T) {
	bus := NewInMemoryBus(nil)
	boom := errors.New("boom")

	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error { return boom }))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error { panic("bad handler") }))

	err := bus.PublishSync(context.Background(), pingEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to contain boom, got %v", err)
	}
}

func TestInMemoryBus_PublishIgnoresCallerCancellation(t *testing.T) {
	bus := NewInMemoryBus(nil)
	got := make(chan error, 1)

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, _ Event) error {
		got <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pingEvent{})
	bus.Wait()

	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("handler saw cancelled context: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
}
