// Package events implements the latest-value broadcast used to fan out
// connection and measurement events to every interested consumer.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/cornelk/hashmap"
)

// DefaultMailboxSize is the per-subscriber buffer. A subscriber that falls
// further behind than this loses the oldest values, never the newest.
const DefaultMailboxSize = 16

// Sink holds exactly one current value and broadcasts every new value to all
// active subscribers. New subscribers first receive the current value.
type Sink[T any] struct {
	mu          sync.Mutex // serializes Publish, Subscribe and Cancel
	current     T
	subscribers *hashmap.Map[uint64, *Subscription[T]]
	nextID      atomic.Uint64
	mailboxSize int
}

// NewSink creates a sink whose current value is initial.
func NewSink[T any](initial T) *Sink[T] {
	return NewSinkWithMailbox(initial, DefaultMailboxSize)
}

// NewSinkWithMailbox creates a sink with a custom per-subscriber buffer size.
func NewSinkWithMailbox[T any](initial T, mailboxSize int) *Sink[T] {
	if mailboxSize <= 0 {
		mailboxSize = DefaultMailboxSize
	}
	return &Sink[T]{
		current:     initial,
		subscribers: hashmap.New[uint64, *Subscription[T]](),
		mailboxSize: mailboxSize,
	}
}

// Publish replaces the current value and delivers it to every subscriber.
func (s *Sink[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = v
	s.subscribers.Range(func(_ uint64, sub *Subscription[T]) bool {
		sub.mailbox.ForceSend(v)
		return true
	})
}

// Current returns the most recently published value.
func (s *Sink[T]) Current() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribers returns the number of active subscriptions.
func (s *Sink[T]) Subscribers() int {
	return s.subscribers.Len()
}

// Subscribe registers a new subscriber. Its channel yields the current value
// immediately, then every value published afterwards, until Cancel.
func (s *Sink[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		id:      s.nextID.Add(1),
		sink:    s,
		mailbox: NewRingChannel[T](s.mailboxSize),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub.mailbox.ForceSend(s.current)
	s.subscribers.Set(sub.id, sub)
	return sub
}

// Subscription is one consumer's view of a Sink.
type Subscription[T any] struct {
	id       uint64
	sink     *Sink[T]
	mailbox  *RingChannel[T]
	canceled bool // guarded by sink.mu
}

// C returns the event channel; it is closed by Cancel.
func (sub *Subscription[T]) C() <-chan T {
	return sub.mailbox.C()
}

// Dropped returns how many values this subscriber missed by falling behind.
func (sub *Subscription[T]) Dropped() int64 {
	return sub.mailbox.Dropped()
}

// Cancel unregisters the subscription and closes its channel. Idempotent.
func (sub *Subscription[T]) Cancel() {
	s := sub.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.canceled {
		return
	}
	sub.canceled = true
	s.subscribers.Del(sub.id)
	sub.mailbox.Close()
}
