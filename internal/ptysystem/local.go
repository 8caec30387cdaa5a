package ptysystem

import (
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// LocalPtySystem allocates real OS pseudoterminals via github.com/creack/pty.
type LocalPtySystem struct{}

// NewLocal returns the local-host PtySystem implementation.
func NewLocal() *LocalPtySystem {
	return &LocalPtySystem{}
}

func toWinsize(size PtySize) *pty.Winsize {
	return &pty.Winsize{
		Rows: size.Rows,
		Cols: size.Cols,
		X:    size.PixelWidth,
		Y:    size.PixelHeight,
	}
}

// OpenPTY allocates a master/slave pty pair sized per size.
func (LocalPtySystem) OpenPTY(size PtySize) (Master, Slave, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, nil, err
	}
	if err := pty.Setsize(ptmx, toWinsize(size)); err != nil {
		ptmx.Close()
		tty.Close()
		return nil, nil, err
	}
	return &localMaster{f: ptmx}, &localSlave{f: tty}, nil
}

type localMaster struct {
	f *os.File
}

func (m *localMaster) Read(p []byte) (int, error)  { return m.f.Read(p) }
func (m *localMaster) Write(p []byte) (int, error) { return m.f.Write(p) }
func (m *localMaster) Close() error                { return m.f.Close() }

// Clone returns a reader over the same master descriptor whose Close is a
// no-op: ownership of the underlying fd stays with the Master the reader
// thread was handed, matching the spec's "exactly one reader is active per
// tab" invariant while letting that reader live on its own goroutine.
func (m *localMaster) Clone() (io.ReadCloser, error) {
	return &noCloseReader{r: m.f}, nil
}

func (m *localMaster) Resize(size PtySize) error {
	return pty.Setsize(m.f, toWinsize(size))
}

type noCloseReader struct {
	r io.Reader
}

func (n *noCloseReader) Read(p []byte) (int, error) { return n.r.Read(p) }
func (n *noCloseReader) Close() error                { return nil }

type localSlave struct {
	f *os.File
}

func (s *localSlave) Close() error { return s.f.Close() }

type localChild struct {
	cmd *exec.Cmd

	mu     sync.Mutex
	status ExitStatus
	err    error
	done   chan struct{}
}

// wait runs cmd.Wait exactly once in the background so TryWait can poll
// without blocking.
func (c *localChild) wait() {
	err := c.cmd.Wait()

	c.mu.Lock()
	c.err = err
	c.status = exitStatusFromError(c.cmd, err)
	c.mu.Unlock()

	close(c.done)
}

// TryWait returns the exit status without blocking if the child has
// already exited.
func (c *localChild) TryWait() (ExitStatus, bool) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.status, true
	default:
		return ExitStatus{}, false
	}
}

// Wait blocks until the child has exited.
func (c *localChild) Wait() (ExitStatus, error) {
	<-c.done
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.err
}

// Kill terminates the child immediately.
func (c *localChild) Kill() error {
	if c.cmd.Process == nil {
		return nil
	}
	return c.cmd.Process.Kill()
}
