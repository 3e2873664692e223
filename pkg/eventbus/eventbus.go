// Package eventbus implements a bounded, fan-out publish/subscribe bus for
// CheckpointEvents. Each subscriber gets its own bounded queue so a slow
// handler cannot stall delivery to the others; a full queue drops the
// event and increments an overflow counter rather than blocking Publish,
// the same non-blocking-producer shape the surrounding stack uses for its
// batched request queues.
package eventbus

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/meridian-health/resicore/internal/obslog"
	"github.com/meridian-health/resicore/internal/obsmetrics"
	"github.com/meridian-health/resicore/pkg/model"
)

// DefaultQueueSize is the per-subscriber channel depth used when a bus is
// constructed with NewEventBus(0).
const DefaultQueueSize = 64

type queuedEvent struct {
	ctx   context.Context
	event model.CheckpointEvent
}

type subscriber struct {
	id      string
	kind    model.EventKind
	handler model.EventHandler
	queue   chan queuedEvent
	done    chan struct{}
}

// EventBus is an in-process model.EventBus implementation.
type EventBus struct {
	mu        sync.RWMutex
	subs      map[string]*subscriber
	queueSize int
}

var _ model.EventBus = (*EventBus)(nil)

// NewEventBus returns a bus whose subscriber queues hold queueSize events
// each. A non-positive queueSize uses DefaultQueueSize.
func NewEventBus(queueSize int) *EventBus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &EventBus{subs: make(map[string]*subscriber), queueSize: queueSize}
}

// Subscribe registers handler for events of the given kind. handler runs on
// a dedicated goroutine per subscriber, so handlers do not need to be safe
// for concurrent invocation with themselves, only across subscribers.
func (b *EventBus) Subscribe(kind model.EventKind, handler model.EventHandler) model.Subscription {
	sub := &subscriber{
		id:      uuid.NewString(),
		kind:    kind,
		handler: handler,
		queue:   make(chan queuedEvent, b.queueSize),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	go sub.run()

	return model.Subscription{ID: sub.id, EventKind: kind}
}

// Unsubscribe stops delivery to sub and releases its queue. Events still
// queued may be dropped without being handled.
func (b *EventBus) Unsubscribe(sub model.Subscription) {
	b.mu.Lock()
	s, ok := b.subs[sub.ID]
	if ok {
		delete(b.subs, sub.ID)
	}
	b.mu.Unlock()
	if ok {
		close(s.done)
	}
}

// Publish delivers event to every subscriber registered for its Kind. The
// send is non-blocking per subscriber: if a subscriber's queue is full, the
// event is dropped for that subscriber and EventBusOverflow is incremented.
// Publish itself never blocks on a slow consumer.
func (b *EventBus) Publish(ctx context.Context, event model.CheckpointEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.kind != event.Kind {
			continue
		}
		select {
		case sub.queue <- queuedEvent{ctx: ctx, event: event}:
		default:
			obsmetrics.EventBusOverflow.WithLabelValues(string(event.Kind)).Inc()
		}
	}
	return nil
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case qe := <-s.queue:
			s.deliver(qe)
		}
	}
}

// deliver invokes the handler, containing any panic so one bad subscriber
// cannot kill its delivery goroutine or propagate to the publisher. A
// recovered panic counts as a failed delivery on the overflow counter.
func (s *subscriber) deliver(qe queuedEvent) {
	defer func() {
		if r := recover(); r != nil {
			obsmetrics.EventBusOverflow.WithLabelValues(string(qe.event.Kind)).Inc()
			obslog.FromContext(qe.ctx).Errorw("subscriber handler panicked",
				"subscriber", s.id,
				"event_kind", qe.event.Kind,
				"recovered", r,
			)
		}
	}()
	s.handler(qe.ctx, qe.event)
}
