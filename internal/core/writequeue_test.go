package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWriteQueueDebounces(t *testing.T) {
	var writes atomic.Int32
	q := newWriteQueue(20*time.Millisecond, 0, noopLogger{}, func(context.Context) error {
		writes.Add(1)
		return nil
	})
	for i := 0; i < 5; i++ {
		q.Schedule()
	}
	if !q.Pending() {
		t.Fatalf("expected a pending write")
	}
	waitFor(t, func() bool { return writes.Load() == 1 })
	time.Sleep(50 * time.Millisecond)
	if got := writes.Load(); got != 1 {
		t.Fatalf("expected one collapsed write, got %d", got)
	}
	if q.Pending() {
		t.Fatalf("nothing should be pending after the write")
	}
}

func TestWriteQueueRetriesFailures(t *testing.T) {
	var attempts atomic.Int32
	q := newWriteQueue(5*time.Millisecond, 3, noopLogger{}, func(context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("backend down")
		}
		return nil
	})
	q.Schedule()
	waitFor(t, func() bool { return attempts.Load() == 3 })
	time.Sleep(60 * time.Millisecond)
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected retries to stop after success, got %d attempts", got)
	}
}

func TestWriteQueueGivesUp(t *testing.T) {
	var attempts atomic.Int32
	q := newWriteQueue(2*time.Millisecond, 1, noopLogger{}, func(context.Context) error {
		attempts.Add(1)
		return errors.New("always down")
	})
	q.Schedule()
	waitFor(t, func() bool { return attempts.Load() == 2 })
	time.Sleep(40 * time.Millisecond)
	if got := attempts.Load(); got != 2 {
		t.Fatalf("expected one try plus one retry, got %d", got)
	}
}

func TestWriteQueueSerializesWrites(t *testing.T) {
	var mu sync.Mutex
	active, maxActive := 0, 0
	release := make(chan struct{})
	q := newWriteQueue(time.Millisecond, 0, noopLogger{}, func(context.Context) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		<-release
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	})
	q.Schedule()
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return active == 1 })
	flushed := make(chan error, 1)
	go func() { flushed <- q.Flush(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	close(release)
	if err := <-flushed; err != nil {
		t.Fatalf("flush: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if maxActive != 1 {
		t.Fatalf("writes overlapped: %d concurrent", maxActive)
	}
}

func TestWriteQueueFlushReturnsError(t *testing.T) {
	q := newWriteQueue(time.Hour, 0, noopLogger{}, func(context.Context) error { return errors.New("boom") })
	q.Schedule()
	if err := q.Flush(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected flush error, got %v", err)
	}
	if q.Pending() {
		t.Fatalf("flush cancels the pending timer")
	}
}

func TestWriteQueueFlushHonoursContext(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	q := newWriteQueue(time.Millisecond, 0, noopLogger{}, func(context.Context) error {
		if calls.Add(1) == 1 {
			<-release
		}
		return nil
	})
	q.Schedule()
	waitFor(t, func() bool { return calls.Load() == 1 })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Flush(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	close(release)
	if err := q.Flush(context.Background()); err != nil {
		t.Fatalf("later flush: %v", err)
	}
}

func TestWriteQueueWipeMode(t *testing.T) {
	var writes atomic.Int32
	q := newWriteQueue(5*time.Millisecond, 0, noopLogger{}, func(context.Context) error {
		writes.Add(1)
		return nil
	})
	q.Schedule()
	if err := q.BeginWipe(context.Background()); err != nil {
		t.Fatalf("begin wipe: %v", err)
	}
	if !q.Wiping() || q.Pending() {
		t.Fatalf("wipe mode cancels the timer")
	}
	q.Schedule()
	if q.Pending() {
		t.Fatalf("schedules are ignored while wiping")
	}
	time.Sleep(30 * time.Millisecond)
	if writes.Load() != 0 {
		t.Fatalf("no write may fire during a wipe")
	}
	if err := q.Flush(context.Background()); err != nil {
		t.Fatalf("flush during wipe: %v", err)
	}
	if writes.Load() != 0 {
		t.Fatalf("flush must not write during a wipe")
	}
	q.EndWipe()
	q.Schedule()
	waitFor(t, func() bool { return writes.Load() == 1 })
	q.Stop()
}
