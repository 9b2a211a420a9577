package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/change-control/internal/events"
	"github.com/spec-kit/change-control/internal/service"
)

func TestStartNotificationWorker_HandlesEventsUntilStopped(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	dispatcher := events.NewAsyncDispatcher(logger, 1, 4)
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	w := StartNotificationWorker(dispatcher, notifications)
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		ID:        "evt-1",
		Type:      events.EventTicketRemoved,
		TicketID:  9,
		Timestamp: time.Now(),
	}))
	w.Stop()

	entries := logs.FilterMessage(string(events.EventTicketRemoved)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(9), entries[0].ContextMap()["ticket_id"])
	assert.ErrorIs(t, dispatcher.Publish(context.Background(), events.Event{}), events.ErrDispatcherStopped)
}
