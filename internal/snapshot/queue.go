package snapshot

import (
	"sync"
	"time"
)

// saveQueue serializes the saves of one document. Scheduled runs are
// debounced, at most one run executes at a time, and a run requested while
// another is executing is queued behind it.
type saveQueue struct {
	run func()

	mu      sync.Mutex
	idle    *sync.Cond
	timer   *time.Timer
	gen     uint64
	running bool
	queued  bool
	closed  bool
}

func newSaveQueue(run func()) *saveQueue {
	q := &saveQueue{run: run}
	q.idle = sync.NewCond(&q.mu)
	return q
}

// schedule (re)arms the debounce timer.
func (q *saveQueue) schedule(delay time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.arm(delay)
}

// arm replaces the debounce timer. A timer that already fired keeps a stale
// generation, so its fire becomes a no-op. Caller holds mu.
func (q *saveQueue) arm(delay time.Duration) {
	if q.timer != nil {
		q.timer.Stop()
	}
	q.gen++
	gen := q.gen
	q.timer = time.AfterFunc(delay, func() { q.fire(gen) })
}

// pending reports whether a run is armed or queued.
func (q *saveQueue) pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.timer != nil || q.queued
}

func (q *saveQueue) fire(gen uint64) {
	q.mu.Lock()
	if gen != q.gen || q.timer == nil {
		q.mu.Unlock()
		return
	}
	q.timer = nil
	if q.closed {
		q.mu.Unlock()
		return
	}
	if q.running {
		q.queued = true
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	q.drain()
}

// drain runs until no further run is queued. Caller must have set running.
func (q *saveQueue) drain() {
	for {
		q.run()

		q.mu.Lock()
		if q.queued && !q.closed {
			q.queued = false
			q.mu.Unlock()
			continue
		}
		q.running = false
		q.idle.Broadcast()
		q.mu.Unlock()
		return
	}
}

// flush cancels the timer and runs immediately, or queues behind the
// in-flight run, and returns once the queue is idle.
func (q *saveQueue) flush() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if q.running {
		q.queued = true
		for q.running {
			q.idle.Wait()
		}
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	q.drain()
}

// stop closes the queue, cancels armed and queued runs, waits for the
// in-flight run and reports whether a run had been pending.
func (q *saveQueue) stop() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	wasPending := q.queued
	if q.timer != nil {
		if q.timer.Stop() {
			wasPending = true
		}
		q.timer = nil
	}
	q.queued = false
	q.closed = true
	for q.running {
		q.idle.Wait()
	}
	return wasPending
}
