// Package ptysystem abstracts pseudoterminal allocation behind a small
// interface so the mux core never depends directly on a concrete pty
// implementation.
package ptysystem

import (
	"io"

	"github.com/ehrlich-b/wezmux/internal/cmdbuilder"
)

// PtySize describes a terminal's character grid and, where known, its
// pixel dimensions (many terminals never report the latter; 0 is fine).
type PtySize struct {
	Rows        uint16
	Cols        uint16
	PixelWidth  uint16
	PixelHeight uint16
}

// ExitStatus reports how a child process terminated.
type ExitStatus struct {
	ExitCode int
	Signaled bool
}

// Success reports whether the child exited with code 0 and was not signaled.
func (s ExitStatus) Success() bool {
	return !s.Signaled && s.ExitCode == 0
}

// Child is a handle to a spawned process.
type Child interface {
	// TryWait returns (status, true) if the child has already exited,
	// or (ExitStatus{}, false) if it is still running. Never blocks.
	TryWait() (ExitStatus, bool)
	// Wait blocks until the child exits and returns its status.
	Wait() (ExitStatus, error)
	// Kill terminates the child immediately.
	Kill() error
}

// Master is the pty master side: the application's end of the pty pair.
type Master interface {
	io.ReadWriteCloser
	// Clone returns an independent reader sharing the same underlying
	// descriptor, so a reader thread can own it without blocking
	// writer-side calls from another goroutine.
	Clone() (io.ReadCloser, error)
	Resize(size PtySize) error
}

// Slave is the pty slave side: what the child process sees as its
// controlling terminal.
type Slave interface {
	// SpawnCommand starts cmd with this slave as its stdio and
	// controlling terminal.
	SpawnCommand(cmd *cmdbuilder.CommandBuilder) (Child, error)
	Close() error
}

// PtySystem is the single operation the core requires from a pty
// implementation: allocate a master/slave pair of the given size.
type PtySystem interface {
	OpenPTY(size PtySize) (Master, Slave, error)
}
