package events

import (
	"context"
	"sync"
	"time"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/logging"
)

// Subscription is returned by every On* call
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// subscribers is an ordered set of handlers for one payload type
type subscribers[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	order    []uint64
	handlers map[uint64]func(T)
}

func (s *subscribers[T]) add(handler func(T)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handlers == nil {
		s.handlers = make(map[uint64]func(T))
	}
	s.nextID++
	id := s.nextID
	s.handlers[id] = handler
	s.order = append(s.order, id)

	return &subscription{cancel: func() { s.remove(id) }}
}

func (s *subscribers[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.handlers, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *subscribers[T]) snapshot() []func(T) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.handlers[id])
	}
	return result
}

func (s *subscribers[T]) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Bus is the lifecycle notification channel. Each event kind has its own
// subscribe point; OnEvent receives every kind. All handlers run on the
// bus dispatcher goroutine, never concurrently with each other.
type Bus struct {
	dispatcher *Dispatcher
	logger     logging.Logger
	now        func() time.Time

	starting subscribers[struct{}]
	started  subscribers[int]
	message  subscribers[string]
	failure  subscribers[string]
	stopping subscribers[struct{}]
	stopped  subscribers[struct{}]
	all      subscribers[Event]
}

// NewBus creates a bus with its own dispatcher
func NewBus(logger logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Bus{
		dispatcher: NewDispatcher(logger),
		logger:     logger,
		now:        time.Now,
	}
}

// ===== SUBSCRIBE POINTS =====

func (b *Bus) OnStarting(handler func()) Subscription {
	return b.starting.add(func(struct{}) { handler() })
}

func (b *Bus) OnStarted(handler func(port int)) Subscription {
	return b.started.add(handler)
}

func (b *Bus) OnMessage(handler func(line string)) Subscription {
	return b.message.add(handler)
}

func (b *Bus) OnError(handler func(reason string)) Subscription {
	return b.failure.add(handler)
}

func (b *Bus) OnStopping(handler func()) Subscription {
	return b.stopping.add(func(struct{}) { handler() })
}

func (b *Bus) OnStopped(handler func()) Subscription {
	return b.stopped.add(func(struct{}) { handler() })
}

// OnEvent subscribes to every kind
func (b *Bus) OnEvent(handler func(Event)) Subscription {
	return b.all.add(handler)
}

// Subscribers returns the number of handlers attached to kind, excluding
// OnEvent handlers
func (b *Bus) Subscribers(kind Kind) int {
	switch kind {
	case KindStarting:
		return b.starting.count()
	case KindStarted:
		return b.started.count()
	case KindMessage:
		return b.message.count()
	case KindError:
		return b.failure.count()
	case KindStopping:
		return b.stopping.count()
	case KindStopped:
		return b.stopped.count()
	default:
		return 0
	}
}

// ===== PUBLISHING =====

func (b *Bus) PublishStarting() {
	b.publish(Event{Kind: KindStarting}, func() { deliver(b.logger, &b.starting, struct{}{}) })
}

func (b *Bus) PublishStarted(port int) {
	b.publish(Event{Kind: KindStarted, Port: port}, func() { deliver(b.logger, &b.started, port) })
}

func (b *Bus) PublishMessage(line string) {
	b.publish(Event{Kind: KindMessage, Line: line}, func() { deliver(b.logger, &b.message, line) })
}

func (b *Bus) PublishError(reason errors.Reason) {
	msg := reason.Message()
	b.publish(Event{Kind: KindError, Reason: reason, Message: msg}, func() { deliver(b.logger, &b.failure, msg) })
}

func (b *Bus) PublishStopping() {
	b.publish(Event{Kind: KindStopping}, func() { deliver(b.logger, &b.stopping, struct{}{}) })
}

func (b *Bus) PublishStopped() {
	b.publish(Event{Kind: KindStopped}, func() { deliver(b.logger, &b.stopped, struct{}{}) })
}

// Close delivers everything already published and stops the dispatcher.
// Events published afterwards are dropped.
func (b *Bus) Close(ctx context.Context) error {
	return b.dispatcher.Close(ctx)
}

func (b *Bus) publish(event Event, typed func()) {
	event.Time = b.now()
	if event.Kind != KindMessage {
		b.logger.Debugf("Publishing event: %s", event)
	}
	b.dispatcher.Enqueue(func() {
		typed()
		deliver(b.logger, &b.all, event)
	})
}

// deliver calls each handler in turn; a panicking handler does not prevent
// the remaining handlers from running.
func deliver[T any](logger logging.Logger, subs *subscribers[T], value T) {
	for _, handler := range subs.snapshot() {
		callSafely(logger, handler, value)
	}
}

func callSafely[T any](logger logging.Logger, handler func(T), value T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Event handler panicked: %v", r)
		}
	}()
	handler(value)
}
