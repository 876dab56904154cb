// Package delivery provides the execution contexts on which request
// completions run.
//
// A Context decouples where work happens from where the caller is notified.
// The default context, Main, is a single process-wide serial queue: every
// completion delivered on it runs one at a time, in dispatch order, which is
// the property callers rely on when they treat it as their "main" context.
package delivery

import (
	"sync"
)

// Context runs functions on behalf of a request pipeline.
type Context interface {
	// Dispatch schedules fn. It must not block waiting for fn to run.
	Dispatch(fn func())
}

// ContextFunc adapts a function to the Context interface.
type ContextFunc func(fn func())

// Dispatch implements Context.
func (f ContextFunc) Dispatch(fn func()) { f(fn) }

// Immediate runs functions synchronously on the dispatching goroutine.
var Immediate Context = ContextFunc(func(fn func()) { fn() })

// MainLabel is the label of the Main queue.
const MainLabel = "teapot.main"

var (
	mainOnce  sync.Once
	mainQueue *Queue
)

// Main returns the shared serial queue used when no other context is set.
func Main() *Queue {
	mainOnce.Do(func() {
		mainQueue = NewQueue(MainLabel)
	})
	return mainQueue
}

// Queue is a serial FIFO executor backed by a single goroutine.
type Queue struct {
	label string

	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	closed  bool
	done    chan struct{}
}

// NewQueue starts a queue. Call Close to stop its goroutine.
func NewQueue(label string) *Queue {
	q := &Queue{
		label: label,
		done:  make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Label returns the name given at construction.
func (q *Queue) Label() string {
	return q.label
}

// Dispatch appends fn to the queue. Functions dispatched after Close are dropped.
func (q *Queue) Dispatch(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = append(q.pending, fn)
	q.cond.Signal()
}

// Close stops accepting work, drains what is already queued and waits for
// the queue goroutine to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Signal()
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		fn()
	}
}
