package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAsyncDispatcher_DeliversToSubscribers(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 2, 10)
	received := make(chan Event, 2)
	d.Subscribe(EventTicketSubmitted, func(_ context.Context, e Event) error {
		received <- e
		return nil
	})
	d.Subscribe(EventTicketRemoved, func(_ context.Context, e Event) error {
		t.Errorf("unexpected delivery of %s", e.Type)
		return nil
	})
	d.Start()

	require.NoError(t, d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketSubmitted, TicketID: 5}))

	select {
	case e := <-received:
		assert.Equal(t, 5, e.TicketID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
	d.Stop()
}

func TestAsyncDispatcher_HandlerFailuresDoNotStopOthers(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 1, 10)
	var (
		mu    sync.Mutex
		calls []string
	)
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, name)
	}
	d.Subscribe(EventTicketSubmitted, func(context.Context, Event) error {
		record("failing")
		return errors.New("smtp unavailable")
	})
	d.Subscribe(EventTicketSubmitted, func(context.Context, Event) error {
		record("panicking")
		panic("boom")
	})
	d.Subscribe(EventTicketSubmitted, func(context.Context, Event) error {
		record("ok")
		return nil
	})
	d.Start()

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketSubmitted}))
	d.Stop()

	assert.Equal(t, []string{"failing", "panicking", "ok"}, calls)
}

func TestAsyncDispatcher_PublishDoesNotBlockWhenFull(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 1, 1)
	// workers not started, so the single slot stays occupied
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketSubmitted}))
	assert.ErrorIs(t, d.Publish(context.Background(), Event{Type: EventTicketSubmitted}), ErrQueueFull)

	d.Start()
	d.Stop()
}

func TestAsyncDispatcher_PublishAfterStop(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 1, 1)
	d.Start()
	d.Stop()
	d.Stop()

	assert.ErrorIs(t, d.Publish(context.Background(), Event{Type: EventTicketRemoved}), ErrDispatcherStopped)
}
