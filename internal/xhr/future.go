package xhr

import (
	"context"
	"errors"
	"sync"
)

// ErrPending is returned by Future.Result before the future settles.
var ErrPending = errors.New("request still pending")

// Future is the eventual outcome of a request. It settles exactly once.
type Future struct {
	done   chan struct{}
	once   sync.Once
	result *Result
	err    *Error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// settle stores the outcome if the future is still pending and reports
// whether it did. before runs ahead of waking any waiter.
func (f *Future) settle(res *Result, err *Error, before func()) bool {
	settled := false
	f.once.Do(func() {
		f.result = res
		f.err = err
		settled = true
		if before != nil {
			before()
		}
		close(f.done)
	})
	return settled
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has settled.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome without blocking. Before settlement it returns
// ErrPending. A rejection is returned as *Error.
func (f *Future) Result() (*Result, error) {
	if !f.Settled() {
		return nil, ErrPending
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// Await blocks until the future settles or ctx ends. Ending ctx does not
// affect the request itself.
func (f *Future) Await(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Then runs exactly one of the callbacks on a new goroutine once the future
// settles. Either callback may be nil.
func (f *Future) Then(onResolve func(*Result), onReject func(*Error)) {
	go func() {
		<-f.done
		if f.err != nil {
			if onReject != nil {
				onReject(f.err)
			}
			return
		}
		if onResolve != nil {
			onResolve(f.result)
		}
	}()
}
