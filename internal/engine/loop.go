package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Task is a unit of work run on the loop goroutine.
type Task func(e *Editor) error

type loopCall struct {
	fn     Task
	result chan error
}

// Loop serializes work on an editor through a single goroutine. Every task
// runs inside Batch, so all updates it issues commit once when it returns.
//
// Usage:
//
//	loop := engine.NewLoop(ed, 0)
//	go loop.Run(ctx)
//	defer loop.Close()
//
//	err := loop.Post(ctx, func(e *engine.Editor) error {
//	    return e.Update(...)
//	})
type Loop struct {
	e      *Editor
	queue  chan *loopCall
	closed atomic.Bool
	done   chan struct{}

	closeOnce sync.Once
}

// NewLoop creates a loop for e. The queue size bounds how many tasks can
// wait; zero selects DefaultLoopQueue.
func NewLoop(e *Editor, queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultLoopQueue
	}
	return &Loop{
		e:     e,
		queue: make(chan *loopCall, queueSize),
		done:  make(chan struct{}),
	}
}

// Run processes tasks until ctx is cancelled or Close is called. Tasks still
// queued at that point fail with the cancellation error or ErrLoopClosed.
// Either way the loop is closed when Run returns.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			l.drain(ctx.Err())
			return
		case <-l.done:
			l.drain(ErrLoopClosed)
			return
		case call := <-l.queue:
			call.result <- l.run(call.fn)
			close(call.result)
		}
	}
}

// run executes one task with panic recovery.
func (l *Loop) run(fn Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("editor loop: panic: %v", r)
			}
			l.e.rollback()
			l.e.log.Error("task panicked: %v", err)
		}
	}()
	return l.e.Batch(func() error { return fn(l.e) })
}

func (l *Loop) drain(err error) {
	for {
		select {
		case call := <-l.queue:
			call.result <- err
			close(call.result)
		default:
			return
		}
	}
}

// Post queues fn and waits for it to finish.
func (l *Loop) Post(ctx context.Context, fn Task) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	call := &loopCall{fn: fn, result: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	case l.queue <- call:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err, ok := <-call.result:
		if !ok {
			return ErrLoopClosed
		}
		return err
	case <-l.done:
		// Run may still be finishing this call.
		select {
		case err := <-call.result:
			return err
		default:
			return ErrLoopClosed
		}
	}
}

// TryPost queues fn without waiting. It fails with ErrLoopFull when the
// queue has no room.
func (l *Loop) TryPost(fn Task) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	call := &loopCall{fn: fn, result: make(chan error, 1)}
	select {
	case <-l.done:
		return ErrLoopClosed
	case l.queue <- call:
		return nil
	default:
		return ErrLoopFull
	}
}

// Close stops the loop. Run returns after finishing the current task.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}
