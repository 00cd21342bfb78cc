/*
events.go - Lifecycle events for the notification collaborator

PURPOSE:
  The engine emits an event after every successful state transition:
  request created, request reviewed, balances reset. Delivery is someone
  else's problem - the dispatcher is fire-and-forget, never blocks a
  lifecycle call, and a delivery failure never surfaces to the caller.

DISPATCHERS:
  AsyncDispatcher: buffered channel + worker goroutine; failures are logged
  NopDispatcher:   discards everything, for tests
*/
package vacation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// EVENTS
// =============================================================================

type EventType string

const (
	EventRequestCreated  EventType = "request_created"
	EventRequestReviewed EventType = "request_reviewed"
	EventBalancesReset   EventType = "balances_reset"
)

// Event is a notification intent. Payload carries event-specific detail
// (decision, reviewer, new totals) for whoever delivers it.
type Event struct {
	ID        string
	Type      EventType
	UserID    UserID
	RequestID RequestID
	At        time.Time
	Payload   map[string]string
}

func newEvent(t EventType, userID UserID, requestID RequestID, payload map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		UserID:    userID,
		RequestID: requestID,
		At:        time.Now().UTC(),
		Payload:   payload,
	}
}

// Dispatcher receives lifecycle events. Implementations must not block.
type Dispatcher interface {
	Dispatch(event Event)
}

// Sink is the external delivery collaborator behind an AsyncDispatcher
// (mail gateway, webhook, message broker). It fails independently.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// =============================================================================
// NOP DISPATCHER
// =============================================================================

// NopDispatcher discards all events.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(Event) {}

// =============================================================================
// ASYNC DISPATCHER
// =============================================================================

// AsyncDispatcher hands events to a Sink from a worker goroutine. Dispatch
// never blocks: when the buffer is full the event is dropped and logged.
type AsyncDispatcher struct {
	sink   Sink
	logger *zap.Logger
	events chan Event

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

func NewAsyncDispatcher(sink Sink, buffer int, logger *zap.Logger) *AsyncDispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &AsyncDispatcher{
		sink:   sink,
		logger: logger,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Dispatch enqueues the event without blocking.
func (d *AsyncDispatcher) Dispatch(event Event) {
	select {
	case d.events <- event:
	default:
		d.logger.Warn("event buffer full, dropping notification",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
}

// Close stops the worker after draining buffered events.
func (d *AsyncDispatcher) Close() {
	d.once.Do(func() { close(d.done) })
	d.wg.Wait()
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case event := <-d.events:
			d.deliver(event)
		case <-d.done:
			// Drain what's left, then stop.
			for {
				select {
				case event := <-d.events:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (d *AsyncDispatcher) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.sink.Deliver(ctx, event); err != nil {
		// Logged, not retried. Notification failure never reaches callers.
		d.logger.Error("notification delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("user_id", string(event.UserID)),
			zap.Error(err))
	}
}

// =============================================================================
// LOG SINK
// =============================================================================

// LogSink is the default Sink: it records the intent in the structured log.
// Real delivery (email, chat) plugs in by replacing it.
type LogSink struct {
	Logger *zap.Logger
}

func (s *LogSink) Deliver(_ context.Context, event Event) error {
	s.Logger.Info("notification",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", string(event.UserID)),
		zap.String("request_id", string(event.RequestID)),
		zap.Any("payload", event.Payload))
	return nil
}
