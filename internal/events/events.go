// Package events implements a single-producer/single-consumer event
// queue: plumbing for plugin events. The core evaluator never reads
// from a Queue and never blocks on one - this package exists purely so
// a plugin's event hooks have somewhere to publish notifications that a
// frontend collaborator can later drain.
package events

import "sync/atomic"

// Event is an opaque notification a plugin publishes. Kind names the
// event (plugin-specific; the core assigns no meaning to it) and
// Payload carries whatever data the publisher wants a consumer to see.
type Event struct {
	Kind    string
	Payload interface{}
}

// Queue is a lock-free single-producer/single-consumer ring buffer with
// a non-blocking wakeup channel. Sequence counters are atomic so the
// producer and consumer may live on different goroutines, but each side
// must be single-threaded.
type Queue struct {
	buf    []Event
	mask   uint64
	head   atomic.Uint64 // next write slot (producer-owned)
	tail   atomic.Uint64 // next read slot (consumer-owned)
	wakeup chan struct{}
}

// NewQueue builds a Queue with capacity rounded up to the next power of
// two (at least 2).
func NewQueue(capacity int) *Queue {
	n := 2
	for n < capacity {
		n <<= 1
	}
	return &Queue{
		buf:    make([]Event, n),
		mask:   uint64(n - 1),
		wakeup: make(chan struct{}, 1),
	}
}

// TryPush publishes ev without blocking. It returns false if the ring is
// full (the consumer hasn't kept up) - the producer is expected to drop
// or coalesce in that case, never to block the evaluator.
func (q *Queue) TryPush(ev Event) bool {
	head := q.head.Load()
	tail := q.tail.Load()
	if head-tail >= uint64(len(q.buf)) {
		return false
	}
	q.buf[head&q.mask] = ev
	q.head.Store(head + 1)
	select {
	case q.wakeup <- struct{}{}:
	default:
	}
	return true
}

// TryPop retrieves the oldest unread event without blocking. ok is false
// when the ring is empty.
func (q *Queue) TryPop() (ev Event, ok bool) {
	tail := q.tail.Load()
	head := q.head.Load()
	if tail == head {
		return Event{}, false
	}
	ev = q.buf[tail&q.mask]
	q.tail.Store(tail + 1)
	return ev, true
}

// Wakeup returns the channel a consumer can select on to be notified a
// push happened, without polling TryPop in a busy loop. It is buffered
// depth 1 and coalesces bursts - a consumer always drains with TryPop in
// a loop after waking, not just once per signal.
func (q *Queue) Wakeup() <-chan struct{} {
	return q.wakeup
}
