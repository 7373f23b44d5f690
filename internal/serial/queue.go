// Package serial provides a single-worker task queue. Submitting all state
// mutation through one queue removes data races without fine-grained locking.
package serial

import "sync"

// Queue executes submitted functions one at a time, in submission order.
// The zero value is not usable; construct with NewQueue.
type Queue struct {
	tasks chan func()

	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// NewQueue starts the worker goroutine.
func NewQueue() *Queue {
	q := &Queue{
		tasks:   make(chan func(), 1024),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.stopped)
	for {
		select {
		case fn := <-q.tasks:
			fn()
		case <-q.done:
			// Drain whatever was already queued before Close.
			for {
				select {
				case fn := <-q.tasks:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Do enqueues fn for execution. It blocks only if the queue backlog is full.
// Submissions after Close are silently discarded.
func (q *Queue) Do(fn func()) {
	select {
	case <-q.done:
		return
	default:
	}
	select {
	case q.tasks <- fn:
	case <-q.done:
	}
}

// Wait enqueues fn and blocks until it has run.
func (q *Queue) Wait(fn func()) {
	ran := make(chan struct{})
	q.Do(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
	case <-q.stopped:
	}
}

// Close stops the worker after draining queued tasks. Safe to call twice.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
	<-q.stopped
}
