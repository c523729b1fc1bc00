// Package broadcast fans engine events out to any number of subscribers.
//
// A Channel never replays: a subscriber only sees values published after it
// attached. Publishing never blocks; a subscriber whose buffer is full misses
// that value. Closing the channel closes every subscriber channel, which
// consumers treat as the end of the session.
package broadcast

import (
	"sync"

	"setpace/internal/metrics"
)

// Channel is a closable fan-out of values of type T.
type Channel[T any] struct {
	mu        sync.Mutex
	name      string
	subs      map[*Subscription[T]]struct{}
	closed    bool
	published uint64
	last      T
	hasLast   bool
}

// New creates an open channel. name labels metrics.
func New[T any](name string) *Channel[T] {
	return &Channel[T]{
		name: name,
		subs: make(map[*Subscription[T]]struct{}),
	}
}

// Subscribe registers a new observer. A closed channel hands out a closed subscription.
func (c *Channel[T]) Subscribe(buffer int) *Subscription[T] {
	if buffer <= 0 {
		buffer = 1
	}
	sub := &Subscription[T]{parent: c, ch: make(chan T, buffer)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		sub.done = true
		close(sub.ch)
		return sub
	}
	c.subs[sub] = struct{}{}
	return sub
}

// Publish delivers v to every subscriber without blocking. It reports false
// once the channel is closed.
func (c *Channel[T]) Publish(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.published++
	c.last = v
	c.hasLast = true
	metrics.IncBroadcastPublished(c.name)
	for sub := range c.subs {
		select {
		case sub.ch <- v:
		default:
			metrics.IncBroadcastDrop(c.name)
		}
	}
	return true
}

// Close ends the channel and closes every subscriber. Safe to call repeatedly.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for sub := range c.subs {
		sub.done = true
		close(sub.ch)
	}
	c.subs = nil
}

// Closed reports whether Close has been called.
func (c *Channel[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Subscribers returns the number of attached subscribers.
func (c *Channel[T]) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Published returns how many values have been published.
func (c *Channel[T]) Published() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.published
}

// Last returns the most recently published value. It is never delivered to
// late subscribers.
func (c *Channel[T]) Last() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

// Subscription is one observer of a Channel.
type Subscription[T any] struct {
	parent *Channel[T]
	ch     chan T
	done   bool // guarded by parent.mu
}

// C returns the receive side. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close detaches the subscription. Safe after the channel itself closed.
func (s *Subscription[T]) Close() {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	delete(s.parent.subs, s)
	close(s.ch)
}
