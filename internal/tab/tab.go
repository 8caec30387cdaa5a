// Package tab defines the capability set every tab — local or remote —
// must satisfy, plus the input event types the GUI host feeds into it.
package tab

import (
	"errors"
	"io"
	"sync/atomic"

	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/termstate"
)

// Sentinel errors shared across the mux, tab, and rpc packages.
var (
	ErrNoSuchWindow = errors.New("tab: no such window")
	ErrNoSuchTab    = errors.New("tab: no such tab")
	ErrInvalidArg   = errors.New("tab: invalid argument")
	ErrDisconnected = errors.New("tab: disconnected")
	ErrProtocol     = errors.New("tab: protocol error")
)

// TabId uniquely identifies a tab within a process. Allocation is a single
// monotonic atomic counter independent of WindowId and DomainId.
type TabId uint32

var nextTabId uint32

// AllocTabId returns a fresh, process-unique TabId.
func AllocTabId() TabId {
	return TabId(atomic.AddUint32(&nextTabId, 1))
}

// DomainId identifies the domain (local host or a remote mux) that owns a
// tab. Defined here, not in package domain, so that Tab implementations in
// this package need not import domain (which itself depends on tab).
type DomainId uint32

// KeyCode identifies a logical key independent of modifier state.
type KeyCode int

const (
	KeyNone KeyCode = iota
	KeyChar         // Rune holds the character
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyDelete
	KeyInsert
	KeyFunction // Rune holds the function-key number (F1=1, F2=2, ...)
)

// KeyModifiers is a bitset of modifier keys held during a key event.
type KeyModifiers uint8

const (
	ModNone KeyModifiers = 0
	ModShift KeyModifiers = 1 << (iota - 1)
	ModCtrl
	ModAlt
	ModSuper
)

// Has reports whether m includes all bits of other.
func (m KeyModifiers) Has(other KeyModifiers) bool {
	return m&other == other
}

// KeyEvent is a single key press or release, including any literal rune for
// KeyChar / KeyFunction codes.
type KeyEvent struct {
	Code KeyCode
	Rune rune
	Mods KeyModifiers
}

// MouseButton identifies which mouse button, if any, participated in an event.
type MouseButton int

const (
	MouseButtonNone MouseButton = iota
	MouseButtonLeft
	MouseButtonMiddle
	MouseButtonRight
	MouseWheelUp
	MouseWheelDown
)

// MouseEventKind distinguishes press/release/move/drag.
type MouseEventKind int

const (
	MouseKindPress MouseEventKind = iota
	MouseKindRelease
	MouseKindMove
	MouseKindDrag
)

// MouseEvent is a single mouse action within the tab's character grid.
type MouseEvent struct {
	X, Y   int
	Kind   MouseEventKind
	Button MouseButton
	Mods   KeyModifiers
}

// TerminalHost is the GUI-side capability set a Tab uses to affect the
// surrounding window: clipboard access, title propagation, and following
// hyperlinks. Implementations not wired to a real GUI (tests, headless
// servers) may satisfy this with no-ops.
type TerminalHost interface {
	Writer() io.Writer
	GetClipboard() (string, error)
	SetClipboard(text string) error
	SetTitle(title string)
	ClickLink(uri string) error
}

// NullHost is a TerminalHost whose clipboard/title/link hooks are no-ops,
// suitable for headless servers and tests that never touch the GUI.
type NullHost struct {
	W io.Writer
}

func (h NullHost) Writer() io.Writer               { return h.W }
func (h NullHost) GetClipboard() (string, error)    { return "", nil }
func (h NullHost) SetClipboard(text string) error   { return nil }
func (h NullHost) SetTitle(title string)            {}
func (h NullHost) ClickLink(uri string) error       { return nil }

// Tab is the capability set every tab, local or remote, must satisfy.
type Tab interface {
	TabId() TabId
	DomainId() DomainId
	GetTitle() string

	// Reader returns a blocking byte source. Called exactly once per tab,
	// by the mux, immediately after the tab is added; the returned handle
	// may be moved to another goroutine.
	Reader() (io.Reader, error)

	// Writer returns a scoped, exclusive byte sink. Safe to call from the
	// GUI thread only.
	Writer() io.Writer

	// Renderer returns a scoped, exclusive view of the current grid state.
	Renderer() termstate.Renderable

	SendPaste(text string) error
	KeyDown(key KeyEvent) error
	MouseEvent(ev MouseEvent, host TerminalHost) error
	Resize(size ptysystem.PtySize) error
	AdvanceBytes(buf []byte, host TerminalHost)
	IsDead() bool
	Palette() termstate.Palette
}
