package event

import (
	"sync"
	"testing"
)

func TestDispatcherDeliversAll(t *testing.T) {
	var mu sync.Mutex
	received := make([]int, 0)

	d := NewDispatcher(func(v int) {
		mu.Lock()
		received = append(received, v)
		mu.Unlock()
	}, 2, 64)
	d.Start()

	for i := 0; i < 50; i++ {
		if !d.Dispatch(i) {
			t.Fatalf("dispatch %d dropped", i)
		}
	}
	d.Stop()

	if len(received) != 50 {
		t.Errorf("expected 50 delivered events, got %d", len(received))
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(func(v int) {}, 1, 1)
	// Not started: the queue fills and overflow is dropped.

	if !d.Dispatch(1) {
		t.Fatal("first dispatch should fit")
	}
	if d.Dispatch(2) {
		t.Error("second dispatch should be dropped")
	}
	if d.Pending() != 1 {
		t.Errorf("expected 1 pending event, got %d", d.Pending())
	}
}

func TestDispatcherStartTwice(t *testing.T) {
	d := NewDispatcher(func(v int) {}, 1, 4)
	d.Start()
	d.Start()
	d.Dispatch(1)
	d.Stop()
}

func TestDispatcherStopWithoutStart(t *testing.T) {
	d := NewDispatcher(func(v int) {}, 1, 4)
	d.Stop()
}

func TestDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(func(v int) {}, 0, 0)
	if d.workers != 2 {
		t.Errorf("expected 2 default workers, got %d", d.workers)
	}
	if cap(d.queue) != 64 {
		t.Errorf("expected default queue capacity 64, got %d", cap(d.queue))
	}
}
