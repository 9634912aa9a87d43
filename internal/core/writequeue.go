package core

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is the commit window collapsed into one backend write.
const DefaultDebounce = 300 * time.Millisecond

// DefaultMaxRetries bounds consecutive retries of a failing write.
const DefaultMaxRetries = 3

// writeQueue debounces write requests and serializes the resulting writes:
// each write waits for the previous one, so at most one is outstanding.
// Failures are logged and retried; they never reach the caller of Schedule.
type writeQueue struct {
	mu         sync.Mutex
	debounce   time.Duration
	maxRetries int
	write      func(ctx context.Context) error
	log        Logger

	timer    *time.Timer
	gen      uint64
	tail     chan struct{}
	wiping   bool
	failures int
}

func newWriteQueue(debounce time.Duration, maxRetries int, log Logger, write func(context.Context) error) *writeQueue {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &writeQueue{debounce: debounce, maxRetries: maxRetries, write: write, log: log}
}

// Schedule (re)starts the debounce timer. It is ignored in wipe mode.
func (q *writeQueue) Schedule() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.scheduleLocked(q.debounce)
}

func (q *writeQueue) scheduleLocked(delay time.Duration) {
	if q.wiping {
		return
	}
	q.cancelLocked()
	gen := q.gen
	q.timer = time.AfterFunc(delay, func() { q.fire(gen) })
}

// cancelLocked stops the pending timer. Bumping gen also disarms a timer
// that already fired but has not taken the lock yet.
func (q *writeQueue) cancelLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.gen++
}

// Pending reports whether a debounced write is waiting to fire.
func (q *writeQueue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.timer != nil
}

func (q *writeQueue) fire(gen uint64) {
	q.mu.Lock()
	if gen != q.gen || q.wiping {
		q.mu.Unlock()
		return
	}
	q.timer = nil
	prev, done := q.chainLocked()
	q.mu.Unlock()

	if prev != nil {
		<-prev
	}
	err := q.write(context.Background())
	close(done)

	q.mu.Lock()
	defer q.mu.Unlock()
	if err == nil {
		q.failures = 0
		return
	}
	q.failures++
	if q.failures > q.maxRetries {
		q.log.Error("store write failed, giving up", "attempts", q.failures, "error", err)
		q.failures = 0
		return
	}
	q.log.Warn("store write failed, retry scheduled", "attempt", q.failures, "error", err)
	q.scheduleLocked(q.debounce * time.Duration(q.failures+1))
}

// chainLocked appends a new link to the write chain and returns the link to
// wait for and the one to close when done.
func (q *writeQueue) chainLocked() (prev, done chan struct{}) {
	prev = q.tail
	done = make(chan struct{})
	q.tail = done
	return prev, done
}

// Flush cancels the pending timer and writes immediately, after any write
// already in flight. Unlike scheduled writes, its error is returned. In
// wipe mode it writes nothing.
func (q *writeQueue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if q.wiping {
		q.mu.Unlock()
		return nil
	}
	q.cancelLocked()
	prev, done := q.chainLocked()
	q.mu.Unlock()

	if err := wait(ctx, prev); err != nil {
		go func() {
			<-prev
			close(done)
		}()
		return err
	}
	defer close(done)
	return q.write(ctx)
}

// BeginWipe enters wipe mode: the pending timer is cancelled, new schedules
// are ignored and the call returns once any in-flight write has finished.
func (q *writeQueue) BeginWipe(ctx context.Context) error {
	q.mu.Lock()
	q.wiping = true
	q.cancelLocked()
	tail := q.tail
	q.mu.Unlock()
	return wait(ctx, tail)
}

// EndWipe leaves wipe mode.
func (q *writeQueue) EndWipe() {
	q.mu.Lock()
	q.wiping = false
	q.failures = 0
	q.mu.Unlock()
}

// Wiping reports whether wipe mode is active.
func (q *writeQueue) Wiping() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.wiping
}

// Stop cancels the pending timer without writing.
func (q *writeQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked()
}

func wait(ctx context.Context, ch chan struct{}) error {
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
