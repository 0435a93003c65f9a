package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cjy7811/rm-vision/errs"
)

// WaitResult is the outcome of a blocking pop.
type WaitResult uint8

const (
	Ready    WaitResult = iota // an item was popped
	TimedOut                   // the timeout elapsed with the queue empty
	Closed                     // the queue is cancelled and fully drained
)

func (r WaitResult) String() string {
	switch r {
	case Ready:
		return "Ready"
	case TimedOut:
		return "TimedOut"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Queue is a bounded FIFO ring of T.
type Queue[T any] struct {
	mu        sync.Mutex
	dataReady *sync.Cond
	spaceFree *sync.Cond

	slots []T
	head  int
	tail  int

	// count mirrors the number of queued items so Len, Empty and Full can be
	// read without the lock. It is only written while mu is held.
	count     atomic.Int64
	cancelled atomic.Bool
}

// New creates a queue holding at most capacity items.
//
// Returns:
//   - *Queue[T]: Empty queue
//   - error: ErrInvalidCapacity if capacity is not positive
func New[T any](capacity int) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidCapacity, capacity)
	}

	q := &Queue[T]{slots: make([]T, capacity)}
	q.dataReady = sync.NewCond(&q.mu)
	q.spaceFree = sync.NewCond(&q.mu)

	return q, nil
}

// Push appends item. It returns false without blocking when the queue is full
// or cancelled.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	ok := q.pushLocked(item)
	q.mu.Unlock()

	if ok {
		q.dataReady.Signal()
	}

	return ok
}

// Pop removes the oldest item. It returns false when the queue is empty.
// The slot is cleared so the caller becomes the item's only owner.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	item, ok := q.popLocked()
	q.mu.Unlock()

	if ok {
		q.spaceFree.Signal()
	}

	return item, ok
}

// PushWait appends item, waiting for space while the queue is full.
// It returns false if the queue is cancelled or ctx is done before the item
// could be queued.
func (q *Queue[T]) PushWait(ctx context.Context, item T) bool {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.spaceFree.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	for q.fullLocked() && !q.cancelled.Load() && ctx.Err() == nil {
		q.spaceFree.Wait()
	}
	ok := ctx.Err() == nil && q.pushLocked(item)
	q.mu.Unlock()

	if ok {
		q.dataReady.Signal()
	}

	return ok
}

// PopWait removes the oldest item, waiting up to timeout for one to arrive.
//
// Returns:
//   - T: The popped item, or the zero value
//   - WaitResult: Ready, TimedOut, or Closed once the queue is cancelled and empty
func (q *Queue[T]) PopWait(timeout time.Duration) (T, WaitResult) {
	q.mu.Lock()

	if q.emptyLocked() && !q.cancelled.Load() {
		expired := false
		timer := time.AfterFunc(timeout, func() {
			q.mu.Lock()
			expired = true
			q.dataReady.Broadcast()
			q.mu.Unlock()
		})

		for q.emptyLocked() && !q.cancelled.Load() && !expired {
			q.dataReady.Wait()
		}
		timer.Stop()
	}

	item, ok := q.popLocked()
	cancelled := q.cancelled.Load()
	q.mu.Unlock()

	switch {
	case ok:
		q.spaceFree.Signal()
		return item, Ready
	case cancelled:
		return item, Closed
	default:
		return item, TimedOut
	}
}

// Cancel marks the queue cancelled and wakes every waiter. Subsequent pushes
// fail; queued items remain poppable.
func (q *Queue[T]) Cancel() {
	q.mu.Lock()
	q.cancelled.Store(true)
	q.dataReady.Broadcast()
	q.spaceFree.Broadcast()
	q.mu.Unlock()
}

// Cancelled reports whether Cancel has been called.
func (q *Queue[T]) Cancelled() bool {
	return q.cancelled.Load()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return int(q.count.Load())
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return len(q.slots)
}

// Empty reports whether the queue holds no items.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Full reports whether the queue is at capacity.
func (q *Queue[T]) Full() bool {
	return q.Len() == len(q.slots)
}

func (q *Queue[T]) emptyLocked() bool {
	return q.count.Load() == 0
}

func (q *Queue[T]) fullLocked() bool {
	return int(q.count.Load()) == len(q.slots)
}

func (q *Queue[T]) pushLocked(item T) bool {
	if q.cancelled.Load() || q.fullLocked() {
		return false
	}

	q.slots[q.tail] = item
	q.tail = (q.tail + 1) % len(q.slots)
	q.count.Add(1)

	return true
}

func (q *Queue[T]) popLocked() (T, bool) {
	var zero T
	if q.emptyLocked() {
		return zero, false
	}

	item := q.slots[q.head]
	q.slots[q.head] = zero
	q.head = (q.head + 1) % len(q.slots)
	q.count.Add(-1)

	return item, true
}
