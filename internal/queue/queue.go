// Package queue implements the async hand-off queue shared by every
// executor's producer loop and its caller's consumer loop: an unbounded
// FIFO that supports a clean close, an error close, and automatic teardown
// when the consumer abandons iteration early.
package queue

import (
	"errors"
	"sync"
)

// ErrClosed is the sentinel error returned to a Push call made after the
// queue has been closed (with or without an error).
var ErrClosed = errors.New("queue: closed")

// Done is yielded by All to signal a clean end of stream (Close was called
// and the buffer has drained). It is never returned from Push.
var Done = errors.New("queue: done")

// Queue is a single-producer/single-consumer unbounded FIFO. The zero value
// is not usable; construct with New.
type Queue[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []T
	closed   bool
	closeErr error // nil means clean close; non-nil means close_with_error
	onClose  func()
}

// OnClose registers fn to run exactly once, the first time this queue
// transitions to closed — whether by an explicit Close/CloseWithError call
// or by a consumer abandoning iteration in All. Executors use this as the
// trigger for teardown when a consumer walks away mid-stream. Must be
// called before the queue is closed; a registration made after close is a
// no-op.
func (q *Queue[T]) OnClose(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.onClose = fn
}

// New constructs an open, empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues item. It fails with ErrClosed if the queue has already been
// closed (by either Close or CloseWithError) — items pushed after close are
// rejected, not silently dropped. Every item is appended to buf, even when a
// consumer is blocked in All waiting for data; Push then wakes one waiting
// consumer, which takes items from buf in FIFO order. There is no direct
// hand-off that bypasses buf.
func (q *Queue[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.buf = append(q.buf, item)
	q.cond.Signal()
	return nil
}

// Close idempotently marks the queue closed with no error. Buffered items
// already pushed are still delivered to the consumer; after they drain, the
// consumer observes end-of-stream.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	fn := q.onClose
	q.cond.Broadcast()
	q.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// CloseWithError idempotently marks the queue closed with err. Per the
// chosen contract, buffered items pushed before this call are still
// delivered in order; only once the buffer is empty does the consumer
// observe err. A second call (whether Close or CloseWithError) after the
// first is a no-op — the first error wins.
func (q *Queue[T]) CloseWithError(err error) {
	if err == nil {
		q.Close()
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.closeErr = err
	fn := q.onClose
	q.cond.Broadcast()
	q.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Next blocks until an item is available, the queue drains into a clean
// close (ok=false, err=nil), or it drains into an error close (ok=false,
// err=the CloseWithError argument).
func (q *Queue[T]) Next() (item T, ok bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.buf) == 0 {
		if q.closed {
			return item, false, q.closeErr
		}
		q.cond.Wait()
	}
	item = q.buf[0]
	q.buf = q.buf[1:]
	return item, true, nil
}

// All returns a range-over-func iterator of (item, error) pairs, the
// idiomatic Go surface for unbounded producer/consumer streaming. Exactly
// one of two terminal shapes ends the sequence: (zero, Done) for a clean
// close, or (zero, err) for CloseWithError's err; All never yields that
// terminal pair's error to a consumer that has already stopped ranging.
//
// If the consumer breaks out of the range loop before a terminal pair is
// yielded, the queue is automatically closed (the "consumer abandons
// iteration" case in the concurrency model) so the producer side does not
// block forever trying to hand off further items.
func (q *Queue[T]) All() func(yield func(T, error) bool) {
	return func(yield func(T, error) bool) {
		for {
			item, ok, err := q.Next()
			if ok {
				if !yield(item, nil) {
					q.Close()
					return
				}
				continue
			}
			if err != nil {
				yield(item, err)
			} else {
				yield(item, Done)
			}
			return
		}
	}
}

// Len reports the number of buffered, not-yet-delivered items. Intended for
// diagnostics and tests, not for flow control.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
