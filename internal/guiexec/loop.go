package guiexec

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Loop owns a ChanExecutor plus the 50 ms tick thread (spec §5: "one tick
// thread — sleeps 50ms, sends a tick, and wakes the GUI event loop").
type Loop struct {
	Executor *ChanExecutor
	onTick   Work

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// NewLoop constructs a Loop with a fresh ChanExecutor of the default
// capacity. onTick runs on the GUI thread (via the high-priority path)
// once per tick.
func NewLoop(onTick Work) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	return &Loop{
		Executor: NewChanExecutor(DefaultChannelCapacity),
		onTick:   onTick,
		group:    group,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// StartTickThread launches the tick goroutine. It exits silently (without
// error) when the loop is stopped.
func (l *Loop) StartTickThread() {
	l.group.Go(func() error {
		ticker := time.NewTicker(TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if l.onTick != nil {
					l.Executor.ExecuteHighPriority(l.onTick)
				}
				l.Executor.wakeup()
			case <-l.ctx.Done():
				return nil
			}
		}
	})
}

// ServiceOnce runs one iteration of the GUI service loop: drain the
// high-priority deque, then drain the bounded channel for at most
// MaxPollLoopDuration. The caller is responsible for step (d) — blocking
// in the native event loop until WakeupChan fires — since that step is
// host-specific.
func (l *Loop) ServiceOnce() {
	l.Executor.DrainHighPriority()
	l.Executor.DrainChannel(MaxPollLoopDuration)
}

// Stop cancels the tick thread and waits for it to exit.
func (l *Loop) Stop() error {
	l.cancel()
	return l.group.Wait()
}
