// Package event provides a bounded worker-pool dispatcher used to fan
// negotiation transitions out to observers without blocking the agents.
package event

import "sync"

// Dispatcher delivers events to a handler through a fixed worker pool.
// A full queue drops events rather than stalling the producer; transition
// observers are advisory, the store history is the source of truth.
type Dispatcher[T any] struct {
	handler func(T)
	queue   chan T
	workers int

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the given worker count and queue
// capacity. Non-positive values fall back to sane defaults.
func NewDispatcher[T any](handler func(T), workers, queueSize int) *Dispatcher[T] {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher[T]{
		handler: handler,
		queue:   make(chan T, queueSize),
		workers: workers,
	}
}

// Start launches the worker pool. Calling Start twice is a no-op.
func (d *Dispatcher[T]) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for ev := range d.queue {
				if d.handler != nil {
					d.handler(ev)
				}
			}
		}()
	}
}

// Dispatch queues an event. Returns false if the queue was full and the
// event was dropped.
func (d *Dispatcher[T]) Dispatch(ev T) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		return false
	}
}

// Stop drains the queue and waits for the workers to finish.
func (d *Dispatcher[T]) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	close(d.queue)
	d.wg.Wait()
}

// Pending returns the number of queued, undelivered events.
func (d *Dispatcher[T]) Pending() int {
	return len(d.queue)
}
