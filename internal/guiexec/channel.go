package guiexec

import (
	"sync"
	"time"
)

// ChanExecutor is the concrete GuiExecutor: a bounded channel for
// cross-thread work plus an unbounded deque for GUI-thread-origin work,
// with a wakeup proxy the host's event loop selects on.
type ChanExecutor struct {
	ch chan Work

	mu      sync.Mutex
	highPri []Work

	wakeupCh chan struct{}
}

// NewChanExecutor constructs a ChanExecutor whose cross-thread channel has
// the given capacity (spec default: 12).
func NewChanExecutor(capacity int) *ChanExecutor {
	return &ChanExecutor{
		ch:       make(chan Work, capacity),
		wakeupCh: make(chan struct{}, 1),
	}
}

// Execute enqueues work on the bounded channel, blocking if it is full,
// then wakes the host's event loop. This is the path for any thread other
// than the GUI thread — e.g. a tab's reader thread.
func (e *ChanExecutor) Execute(work Work) {
	e.ch <- work
	e.wakeup()
}

// ExecuteHighPriority enqueues work at the tail of the high-priority
// deque. Never blocks. This is the path for the GUI thread submitting
// work to itself; it is drained before the channel on every service-loop
// iteration so it preempts channel work not already in flight.
func (e *ChanExecutor) ExecuteHighPriority(work Work) {
	e.mu.Lock()
	e.highPri = append(e.highPri, work)
	e.mu.Unlock()
}

// CloneExecutor returns a handle over the same queues, safe to hand to
// another goroutine.
func (e *ChanExecutor) CloneExecutor() Executor {
	return e
}

func (e *ChanExecutor) wakeup() {
	select {
	case e.wakeupCh <- struct{}{}:
	default:
	}
}

// WakeupChan is the channel the host's native event loop should select on
// to know when there is GUI-executor work to service.
func (e *ChanExecutor) WakeupChan() <-chan struct{} {
	return e.wakeupCh
}

// DrainHighPriority executes every work item currently queued in the
// high-priority deque, including any it enqueues while running.
func (e *ChanExecutor) DrainHighPriority() {
	for {
		e.mu.Lock()
		if len(e.highPri) == 0 {
			e.mu.Unlock()
			return
		}
		items := e.highPri
		e.highPri = nil
		e.mu.Unlock()

		for _, w := range items {
			w()
		}
	}
}

// DrainChannel executes queued cross-thread work until the channel is
// empty or maxDuration of wall-clock time has elapsed, whichever comes
// first. This is the bound that guarantees the GUI thread returns to the
// native event loop even under sustained pty output.
func (e *ChanExecutor) DrainChannel(maxDuration time.Duration) {
	deadline := time.Now().Add(maxDuration)
	for {
		select {
		case w := <-e.ch:
			w()
		default:
			return
		}
		if time.Now().After(deadline) {
			return
		}
	}
}

// Len reports the number of items currently queued on the bounded
// channel. Exposed for tests observing backpressure.
func (e *ChanExecutor) Len() int {
	return len(e.ch)
}
