package teapot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/abdul-hamid-achik/teapot/packages/http"
)

// ErrCancelled is returned by Await for a cancelled call.
var ErrCancelled = errors.New("teapot: request cancelled")

// State is where a call is in its lifecycle.
type State int32

const (
	StatePending State = iota
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Handle tracks one call. It moves from StatePending to exactly one of
// StateCompleted or StateCancelled.
type Handle struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	state  atomic.Int32

	done     chan struct{}
	doneOnce sync.Once

	// result is written before the transition to StateCompleted.
	result http.Result
}

func newHandle(parent context.Context, id string) *Handle {
	ctx, cancel := context.WithCancel(parent)
	return &Handle{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// ID identifies the call in wire logs.
func (h *Handle) ID() string {
	return h.id
}

// State reports the current state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Done is closed once the call is completed or cancelled. For a completed
// call it closes after the completion has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Cancel stops the call. If the completion has not started yet it never
// will. Cancel reports whether it moved the call to StateCancelled.
func (h *Handle) Cancel() bool {
	if !h.state.CompareAndSwap(int32(StatePending), int32(StateCancelled)) {
		return false
	}
	h.cancel()
	h.finish()
	return true
}

// Result returns the delivered result, nil unless the state is StateCompleted.
func (h *Handle) Result() http.Result {
	if h.State() != StateCompleted {
		return nil
	}
	return h.result
}

// Await blocks until the call settles or ctx is done.
func (h *Handle) Await(ctx context.Context) (http.Result, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if h.State() != StateCompleted {
		return nil, ErrCancelled
	}
	return h.result, nil
}

// complete runs fn if the call is still pending, then settles the handle.
func (h *Handle) complete(result http.Result, fn func()) {
	h.result = result
	if !h.state.CompareAndSwap(int32(StatePending), int32(StateCompleted)) {
		return
	}
	defer h.finish()
	defer h.cancel()
	if fn != nil {
		fn()
	}
}

// abandon settles a call whose outcome was a cancellation.
func (h *Handle) abandon() {
	if h.state.CompareAndSwap(int32(StatePending), int32(StateCancelled)) {
		h.cancel()
		h.finish()
	}
}

func (h *Handle) finish() {
	h.doneOnce.Do(func() { close(h.done) })
}
