// Package guiexec implements the GuiExecutor contract: a capability
// object, provided by the GUI host, that accepts unit-of-work closures and
// guarantees they run on the single GUI thread. It exposes two submission
// paths — a high-priority deque for work originating on the GUI thread
// itself, and a bounded channel for work submitted from any other
// thread — plus the tick thread and service-loop ordering the mux core
// relies on for liveness.
package guiexec

import "time"

// DefaultChannelCapacity is the bounded channel's capacity (spec §4.6):
// the backpressure mechanism that prevents a chatty pty from starving UI
// input.
const DefaultChannelCapacity = 12

// MaxPollLoopDuration bounds how long one service-loop iteration may spend
// draining the bounded channel before yielding back to the native event
// loop.
const MaxPollLoopDuration = 500 * time.Millisecond

// TickInterval is the cadence of the tick thread: child-exit checks and
// repaint.
const TickInterval = 50 * time.Millisecond

// Work is a unit of work executed on the GUI thread.
type Work func()

// Executor is the capability the mux core requires of its GUI host.
type Executor interface {
	// Execute submits work. Callers NOT on the GUI thread must use this;
	// it may block (the bounded-channel backpressure).
	Execute(work Work)
	// CloneExecutor returns a handle usable from any thread that shares
	// the same underlying queue.
	CloneExecutor() Executor
}

// HighPriorityExecutor is implemented by executors that additionally
// support the GUI thread's own high-priority, non-blocking submission
// path (spec §4.6: "from the GUI thread itself").
type HighPriorityExecutor interface {
	Executor
	ExecuteHighPriority(work Work)
}

// Sync executes work immediately on the calling goroutine. Used by tests
// and any harness that doesn't need real GUI-thread affinity.
type Sync struct{}

func (Sync) Execute(work Work)            { work() }
func (Sync) ExecuteHighPriority(work Work) { work() }
func (s Sync) CloneExecutor() Executor     { return s }
