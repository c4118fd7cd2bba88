// Package eventloop runs application state changes on a single goroutine.
//
// Tasks posted to a Loop run one at a time, in order. Blocking work such as
// network calls runs off the loop through Go, and its result is applied by a
// continuation that is posted back, so loop tasks never wait on I/O and the
// state they own needs no locking.
package eventloop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	pending sync.WaitGroup
}

func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post enqueues fn to run on the loop. It never blocks and may be called from
// any goroutine, including from a running task.
func (l *Loop) Post(fn func()) {
	l.pending.Add(1)

	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Go runs work on its own goroutine. The continuation work returns, if any,
// is posted to the loop.
func (l *Loop) Go(work func() func()) {
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		if next := l.protect("async work", work); next != nil {
			l.Post(next)
		}
	}()
}

// Call posts fn and blocks until it has run. It must not be called from a
// loop task.
func (l *Loop) Call(fn func()) {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	<-done
}

// Wait blocks until every posted task and every Go work item, including the
// continuations they schedule, has finished.
func (l *Loop) Wait() {
	l.pending.Wait()
}

// Run executes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			l.runTask(fn)
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) runTask(fn func()) {
	defer l.pending.Done()
	l.protect("task", func() func() {
		fn()
		return nil
	})
}

func (l *Loop) protect(kind string, fn func() func()) (next func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered from panic in event loop", "kind", kind, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			next = nil
		}
	}()
	return fn()
}
