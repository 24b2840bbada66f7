package dropout

import "sync"

// queue is an unbounded multi-producer, single-consumer FIFO. Producers call
// Push from any goroutine; Pop is reserved for the single worker goroutine.
type queue[T any] struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	items    []T
	closed   bool
	failed   bool
}

func newQueue[T any]() *queue[T] {
	q := &queue[T]{}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

// Push appends an item for the consumer and never blocks. It reports whether
// the queue accepted the item; false means the queue is closed or its
// consumer is gone, and the caller keeps ownership of the item.
func (q *queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.failed {
		return false
	}
	q.items = append(q.items, item)
	q.nonEmpty.Signal()
	return true
}

// Pop removes the oldest item, blocking while the queue is open and empty.
// It returns false once the queue is closed and fully drained.
func (q *queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.nonEmpty.Wait()
	}

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	item := q.items[0]
	q.items[0] = zero // don't hold a reference the consumer now owns
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return item, true
}

// Close marks the queue as accepting no further items. The consumer keeps
// draining whatever is already queued.
func (q *queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.nonEmpty.Broadcast()
}

// Fail records that the consumer is gone. Further pushes are refused;
// anything already queued stays put for TakeRemaining.
func (q *queue[T]) Fail() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.failed = true
}

// TakeRemaining empties the queue and returns whatever the consumer never
// got to. Only meaningful once the consumer has stopped.
func (q *queue[T]) TakeRemaining() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Len reports the current backlog. Used for logging only.
func (q *queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
