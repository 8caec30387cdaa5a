package guiexec

import (
	"sync"
	"testing"
	"time"
)

func TestChanExecutorBlocksAfterCapacityWhenGuiPaused(t *testing.T) {
	e := NewChanExecutor(12)

	// Fill the channel to capacity without draining it (simulating a
	// paused GUI thread).
	for i := 0; i < 12; i++ {
		e.Execute(func() {})
	}

	blocked := make(chan struct{})
	go func() {
		e.Execute(func() {}) // the 13th send: must block
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatalf("Execute on a full channel returned without the GUI thread draining it")
	case <-time.After(100 * time.Millisecond):
		// expected: still blocked
	}

	e.DrainChannel(time.Second)

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatalf("Execute never unblocked after draining")
	}
}

func TestDrainHighPriorityRunsAllQueuedWork(t *testing.T) {
	e := NewChanExecutor(12)

	var mu sync.Mutex
	count := 0
	for i := 0; i < 5; i++ {
		e.ExecuteHighPriority(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	e.DrainHighPriority()

	mu.Lock()
	defer mu.Unlock()
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
}

func TestDrainHighPriorityDrainsWorkQueuedWhileRunning(t *testing.T) {
	e := NewChanExecutor(12)

	ran := make(chan struct{}, 2)
	e.ExecuteHighPriority(func() {
		ran <- struct{}{}
		e.ExecuteHighPriority(func() {
			ran <- struct{}{}
		})
	})

	e.DrainHighPriority()

	if len(ran) != 2 {
		t.Errorf("ran %d items, want 2 (including the nested enqueue)", len(ran))
	}
}

func TestDrainChannelRespectsDeadline(t *testing.T) {
	e := NewChanExecutor(100)
	for i := 0; i < 50; i++ {
		e.ch <- func() {
			time.Sleep(5 * time.Millisecond)
		}
	}

	start := time.Now()
	e.DrainChannel(20 * time.Millisecond)
	elapsed := time.Since(start)

	if elapsed > 100*time.Millisecond {
		t.Errorf("DrainChannel took %v, want roughly bounded by the 20ms deadline", elapsed)
	}
	if e.Len() == 0 {
		t.Errorf("expected DrainChannel to stop early, leaving work queued")
	}
}

func TestHighPriorityPreemptsChannelOrderingWithinOneIteration(t *testing.T) {
	e := NewChanExecutor(12)

	var order []string
	var mu sync.Mutex
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	e.Execute(func() { record("channel") })
	e.ExecuteHighPriority(func() { record("high-pri") })

	e.DrainHighPriority()
	e.DrainChannel(time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "high-pri" {
		t.Errorf("order = %v, want high-pri first", order)
	}
}
