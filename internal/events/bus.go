// Package events fans notifications out to subscribers without ever
// blocking the publisher. Each subscriber has its own bounded queue; when
// it is full the oldest undelivered notification is discarded.
package events

import (
	"sync"
	"sync/atomic"

	"thermal_telemetry/internal/models"
)

// DefaultBuffer is used when Subscribe is given a non-positive size.
const DefaultBuffer = 64

// DropHook is called once per discarded notification.
type DropHook func(e models.Event)

// Bus is a publish/subscribe hub. The zero value is not usable; call NewBus.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
	onDrop DropHook
}

// Option configures a Bus.
type Option func(*Bus)

// WithDropHook installs a bus-wide drop callback, typically a metrics counter.
func WithDropHook(h DropHook) Option {
	return func(b *Bus) { b.onDrop = h }
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{subs: make(map[*Subscription]struct{})}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscription is one consumer's queue.
type Subscription struct {
	bus     *Bus
	ch      chan models.Event
	mu      sync.Mutex // serializes sends against close
	closed  bool
	dropped atomic.Uint64
}

// Subscribe registers a new consumer with a queue of the given size.
// Subscribing to a closed bus returns an already-closed subscription.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription{bus: b, ch: make(chan models.Event, buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.closed = true
		close(s.ch)
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Publish delivers e to every subscriber. It never blocks.
func (b *Bus) Publish(e models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for s := range b.subs {
		if s.offer(e) {
			if b.onDrop != nil {
				b.onDrop(e)
			}
		}
	}
}

// Unsubscribe removes s and closes its channel. Safe to call twice.
func (b *Bus) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
	s.shutdown()
}

// Close closes every subscription. Later publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*Subscription]struct{})
	b.mu.Unlock()

	for s := range subs {
		s.shutdown()
	}
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// C is the delivery channel. It is closed on unsubscribe or bus close.
func (s *Subscription) C() <-chan models.Event { return s.ch }

// Dropped counts notifications discarded for this subscriber.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close unsubscribes from the bus.
func (s *Subscription) Close() { s.bus.Unsubscribe(s) }

// offer enqueues e, evicting the oldest entry if the queue is full. It
// reports whether something was dropped.
func (s *Subscription) offer(e models.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- e:
		return false
	default:
	}
	dropped := false
	select {
	case <-s.ch:
		dropped = true
	default:
		// consumer drained it in between
	}
	select {
	case s.ch <- e:
	default:
		// queue refilled concurrently; e itself is the casualty
		dropped = true
	}
	if dropped {
		s.dropped.Add(1)
	}
	return dropped
}

func (s *Subscription) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
