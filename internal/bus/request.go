package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned when asking a closed request bus.
var ErrClosed = errors.New("bus closed")

// DefaultReplayWindow is how many requests are held while no responder is
// serving.
const DefaultReplayWindow = 8

// Envelope carries one request and its private reply channel.
type Envelope[Q, R any] struct {
	ID      string
	Request Q

	reply chan R
}

// Reply answers the request. Only the first reply is delivered.
func (e Envelope[Q, R]) Reply(r R) {
	select {
	case e.reply <- r:
	default:
	}
}

// RequestBus routes requests to a responder. Each Ask allocates a one-shot
// reply channel and blocks until the responder replies.
type RequestBus[Q, R any] struct {
	ch   chan Envelope[Q, R]
	done chan struct{}
	once sync.Once
}

// NewRequestBus creates a request bus. Up to window requests are buffered
// while the responder is not yet serving.
func NewRequestBus[Q, R any](window int) *RequestBus[Q, R] {
	if window <= 0 {
		window = DefaultReplayWindow
	}
	return &RequestBus[Q, R]{
		ch:   make(chan Envelope[Q, R], window),
		done: make(chan struct{}),
	}
}

// Ask publishes q and waits for the reply. There is no built-in timeout;
// cancel ctx to stop waiting.
func (b *RequestBus[Q, R]) Ask(ctx context.Context, q Q) (R, error) {
	var zero R
	env := Envelope[Q, R]{
		ID:      uuid.NewString(),
		Request: q,
		reply:   make(chan R, 1),
	}

	select {
	case <-b.done:
		return zero, ErrClosed
	default:
	}

	select {
	case b.ch <- env:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-b.done:
		return zero, ErrClosed
	}

	select {
	case r := <-env.reply:
		return r, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-b.done:
		return zero, ErrClosed
	}
}

// Serve returns the channel the responder reads requests from.
func (b *RequestBus[Q, R]) Serve() <-chan Envelope[Q, R] {
	return b.ch
}

// Close unblocks every pending Ask with ErrClosed.
func (b *RequestBus[Q, R]) Close() {
	b.once.Do(func() { close(b.done) })
}
