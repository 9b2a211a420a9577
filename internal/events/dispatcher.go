package events

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by Publish when the dispatch queue has no room.
var ErrQueueFull = errors.New("event queue full")

// ErrDispatcherStopped is returned by Publish after Stop.
var ErrDispatcherStopped = errors.New("event dispatcher stopped")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// AsyncDispatcher queues events and runs handlers on background workers.
// Publish never waits for handlers; handler errors and panics are logged.
type AsyncDispatcher struct {
	mu             sync.RWMutex
	listeners      map[EventType][]EventHandler
	queue          chan Event
	workers        int
	handlerTimeout time.Duration
	logger         *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewAsyncDispatcher creates a dispatcher; call Start before publishing.
func NewAsyncDispatcher(logger *zap.Logger, workers, queueSize int) *AsyncDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &AsyncDispatcher{
		listeners:      make(map[EventType][]EventHandler),
		queue:          make(chan Event, queueSize),
		workers:        workers,
		handlerTimeout: 30 * time.Second,
		logger:         logger,
		stopped:        make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (d *AsyncDispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
}

// Stop drains the queue and waits for in-flight handlers.
func (d *AsyncDispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		close(d.stopped)
		close(d.queue)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

// Publish enqueues the event without waiting for its handlers.
func (d *AsyncDispatcher) Publish(_ context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	select {
	case <-d.stopped:
		return ErrDispatcherStopped
	default:
	}

	select {
	case d.queue <- event:
		return nil
	default:
		d.logger.Warn("dropping event, queue full",
			zap.String("event_type", string(event.Type)),
			zap.Int("ticket_id", event.TicketID))
		return ErrQueueFull
	}
}

// Subscribe registers a handler for the given event type.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		d.mu.RLock()
		handlers := append([]EventHandler{}, d.listeners[event.Type]...)
		d.mu.RUnlock()

		for _, handler := range handlers {
			if err := d.invoke(handler, event); err != nil {
				// continue processing other handlers despite errors
				d.logger.Error("event handler failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Int("ticket_id", event.TicketID),
					zap.Error(err))
			}
		}
	}
}

// invoke runs one handler with its own context, detached from the publisher's request.
func (d *AsyncDispatcher) invoke(handler EventHandler, event Event) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.handlerTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, event)
}
