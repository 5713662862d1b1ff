// Package dispatch provides the ordered executor that owns UI state.
//
// Background work never touches coordinator state directly. It posts a
// closure here, and whichever goroutine consumes the queue (the bubbletea
// Update loop, or the main goroutine in headless mode) runs it.
package dispatch

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO of closures. Post never blocks and closures
// run in the order they were posted.
type Queue struct {
	mu     sync.Mutex
	items  []func()
	signal chan struct{}
}

// New creates an empty queue
func New() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Post appends fn to the queue. Safe to call from any goroutine.
func (q *Queue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Next blocks until a closure is available and returns it without running it
func (q *Queue) Next(ctx context.Context) (func(), error) {
	for {
		if fn := q.pop(); fn != nil {
			return fn, nil
		}
		select {
		case <-q.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Run executes closures on the calling goroutine until ctx is done
func (q *Queue) Run(ctx context.Context) error {
	for {
		fn, err := q.Next(ctx)
		if err != nil {
			return err
		}
		fn()
	}
}

// Drain runs everything queued right now, including closures posted by
// the closures it runs, and returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for fn := q.pop(); fn != nil; fn = q.pop() {
		fn()
		n++
	}
	return n
}

// Len returns the number of pending closures
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) pop() func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	fn := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return fn
}
