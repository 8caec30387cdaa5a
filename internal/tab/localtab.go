package tab

import (
	"io"
	"sync"

	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/termstate"
)

// LocalTab composes a Terminal, a pty Child, and the pty Master into the
// Tab capability set for a command running on this host.
type LocalTab struct {
	mu sync.Mutex

	id       TabId
	domainID DomainId

	term   termstate.Terminal
	child  ptysystem.Child
	master ptysystem.Master

	dead bool
}

// NewLocalTab wires a Terminal, Child, and Master into a LocalTab and
// allocates it a fresh TabId.
func NewLocalTab(domainID DomainId, term termstate.Terminal, child ptysystem.Child, master ptysystem.Master) *LocalTab {
	return &LocalTab{
		id:       AllocTabId(),
		domainID: domainID,
		term:     term,
		child:    child,
		master:   master,
	}
}

func (t *LocalTab) TabId() TabId       { return t.id }
func (t *LocalTab) DomainId() DomainId { return t.domainID }

func (t *LocalTab) GetTitle() string {
	return t.term.Title()
}

// Reader returns a clone of the pty master's read side. Per the Tab
// contract this must be called exactly once, by the mux, immediately
// after the tab is registered.
func (t *LocalTab) Reader() (io.Reader, error) {
	return t.master.Clone()
}

func (t *LocalTab) Writer() io.Writer {
	return t.master
}

func (t *LocalTab) Renderer() termstate.Renderable {
	return t.term
}

func (t *LocalTab) SendPaste(text string) error {
	_, err := t.master.Write([]byte(text))
	return err
}

func (t *LocalTab) KeyDown(key KeyEvent) error {
	_, err := t.master.Write(encodeKeyEvent(key))
	return err
}

func (t *LocalTab) MouseEvent(ev MouseEvent, host TerminalHost) error {
	// A no-op for local tabs: no mouse report is written to the pty and
	// the host clipboard is not touched, whether or not the application
	// has requested mouse tracking.
	return nil
}

func (t *LocalTab) Resize(size ptysystem.PtySize) error {
	t.term.Resize(int(size.Rows), int(size.Cols))
	return t.master.Resize(size)
}

// AdvanceBytes feeds pty output into the terminal. Called from the work
// items the mux's reader thread for this tab posts to the GUI executor;
// never called concurrently with itself.
func (t *LocalTab) AdvanceBytes(buf []byte, host TerminalHost) {
	t.term.Write(buf)
}

func (t *LocalTab) IsDead() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dead {
		return true
	}
	if _, exited := t.child.TryWait(); exited {
		t.dead = true
	}
	return t.dead
}

func (t *LocalTab) Palette() termstate.Palette {
	return t.term.Palette()
}

// Close releases the tab's pty and terminal resources.
func (t *LocalTab) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dead = true
	t.child.Kill()
	t.term.Close()
	return t.master.Close()
}

// encodeKeyEvent renders a KeyEvent to the byte sequence a terminal
// application expects on stdin. Only the common control keys and KeyChar
// are mapped; any other code (KeyNone, KeyInsert, KeyFunction) encodes to
// no bytes at all.
func encodeKeyEvent(key KeyEvent) []byte {
	switch key.Code {
	case KeyEnter:
		return []byte{'\r'}
	case KeyTab:
		return []byte{'\t'}
	case KeyBackspace:
		return []byte{0x7f}
	case KeyEscape:
		return []byte{0x1b}
	case KeyUp:
		return []byte("\x1b[A")
	case KeyDown:
		return []byte("\x1b[B")
	case KeyRight:
		return []byte("\x1b[C")
	case KeyLeft:
		return []byte("\x1b[D")
	case KeyHome:
		return []byte("\x1b[H")
	case KeyEnd:
		return []byte("\x1b[F")
	case KeyPageUp:
		return []byte("\x1b[5~")
	case KeyPageDown:
		return []byte("\x1b[6~")
	case KeyDelete:
		return []byte("\x1b[3~")
	case KeyChar:
		if key.Mods.Has(ModCtrl) && key.Rune >= 'a' && key.Rune <= 'z' {
			return []byte{byte(key.Rune-'a') + 1}
		}
		return []byte(string(key.Rune))
	default:
		return nil
	}
}
