package ingestion

import (
	"context"
	"errors"
	"sync"
)

// DefaultQueueCapacity is the default bound on the number of events the
// Queue will hold before Enqueue blocks.
const DefaultQueueCapacity = 10000

// ErrQueueClosed is returned by Enqueue once the Queue has been closed.
var ErrQueueClosed = errors.New("ingestion: queue is closed")

// Queue is a bounded, multi-producer single-consumer FIFO of Events.
//
// It is a thin wrapper around a buffered channel: Enqueue blocks (applying
// backpressure to producers) once the buffer is full, and Dequeue blocks
// until an event is available or the queue is closed and drained.
type Queue struct {
	events   chan *Event
	closed   chan struct{}
	closeOne sync.Once
}

// NewQueue creates a Queue with the given capacity. A capacity of 0 or less
// falls back to DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}

	return &Queue{
		events: make(chan *Event, capacity),
		closed: make(chan struct{}),
	}
}

// Enqueue blocks until the event is accepted, the queue is closed, or ctx is
// cancelled. Per-producer ordering is preserved; there is no ordering
// guarantee across producers.
func (q *Queue) Enqueue(ctx context.Context, event *Event) error {
	select {
	case q.events <- event:
		return nil
	case <-q.closed:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until an event is available, ctx is cancelled, or the queue
// is closed and fully drained, in which case ok is false. Events buffered
// before Close was called are still delivered.
func (q *Queue) Dequeue(ctx context.Context) (event *Event, ok bool) {
	select {
	case e := <-q.events:
		return e, true
	default:
	}

	select {
	case e := <-q.events:
		return e, true
	case <-q.closed:
		select {
		case e := <-q.events:
			return e, true
		default:
			return nil, false
		}
	case <-ctx.Done():
		return nil, false
	}
}

// Close stops accepting new events. The underlying channel is never closed
// (producers may still be mid-send), so buffered events remain available to
// Dequeue until drained.
func (q *Queue) Close() {
	q.closeOne.Do(func() { close(q.closed) })
}

// Len reports the number of events currently buffered.
func (q *Queue) Len() int {
	return len(q.events)
}
