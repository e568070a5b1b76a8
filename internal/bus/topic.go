// Package bus implements the publish/subscribe fabric that connects the
// playback controller to the rest of the application.
package bus

import (
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 64

// Subscription receives values published on a Topic.
type Subscription[T any] struct {
	// C delivers published values. It is never closed; select on Done.
	C <-chan T

	ch    chan T
	done  chan struct{}
	once  sync.Once
	topic *Topic[T]
}

// Done is closed when the subscription or its topic is closed.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Close detaches the subscription from its topic.
func (s *Subscription[T]) Close() {
	s.topic.remove(s)
	s.stop()
}

func (s *Subscription[T]) stop() {
	s.once.Do(func() { close(s.done) })
}

// send delivers v without blocking. Returns false if the buffer is full.
func (s *Subscription[T]) send(v T) bool {
	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}

// Topic is a fire-and-forget, multi-producer, multi-consumer channel.
// Publish never blocks: a subscriber whose buffer is full misses the value.
type Topic[T any] struct {
	mu      sync.RWMutex
	subs    []*Subscription[T]
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

// NewTopic creates a topic whose subscribers buffer up to buffer values.
func NewTopic[T any](buffer int) *Topic[T] {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	return &Topic[T]{buffer: buffer}
}

// Subscribe registers a new subscriber. Subscribing to a closed topic
// returns a subscription whose Done channel is already closed.
func (t *Topic[T]) Subscribe() *Subscription[T] {
	ch := make(chan T, t.buffer)
	sub := &Subscription[T]{
		C:     ch,
		ch:    ch,
		done:  make(chan struct{}),
		topic: t,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		sub.stop()
		return sub
	}
	t.subs = append(t.subs, sub)
	return sub
}

// Publish delivers v to every current subscriber.
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	for _, sub := range t.subs {
		if !sub.send(v) {
			t.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// buffer was full.
func (t *Topic[T]) Dropped() uint64 {
	return t.dropped.Load()
}

// Close signals every subscriber and rejects further publishes.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	subs := t.subs
	t.subs = nil
	t.closed = true
	t.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

func (t *Topic[T]) remove(s *Subscription[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, sub := range t.subs {
		if sub == s {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return
		}
	}
}
