package worker

import (
	"github.com/spec-kit/change-control/internal/events"
	"github.com/spec-kit/change-control/internal/service"
)

// NotificationWorker runs notification handlers on the async dispatcher.
type NotificationWorker struct {
	dispatcher *events.AsyncDispatcher
}

// StartNotificationWorker registers notification handlers and starts the dispatcher workers.
func StartNotificationWorker(dispatcher *events.AsyncDispatcher, notificationService *service.NotificationService) *NotificationWorker {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	dispatcher.Start()
	return &NotificationWorker{dispatcher: dispatcher}
}

// Stop waits for queued notifications to drain.
func (w *NotificationWorker) Stop() {
	if w == nil {
		return
	}
	w.dispatcher.Stop()
}
