package wire

import (
	"github.com/ehrlich-b/wezmux/internal/domain"
	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/tab"
	"github.com/ehrlich-b/wezmux/internal/window"
)

// ErrorResponse is returned for any request the server could not fulfill,
// preserving the original serial.
type ErrorResponse struct {
	Reason string
}

type Ping struct{}
type Pong struct{}

type ListTabs struct{}

// WindowAndTabEntry describes one tab within a ListTabsResponse.
type WindowAndTabEntry struct {
	WindowID window.WindowId
	TabID    tab.TabId
	Title    string
}

type ListTabsResponse struct {
	Tabs []WindowAndTabEntry
}

// GetCoarseTabRenderableData requests a coarse snapshot of a tab's
// renderable state. DirtyAll requests every line regardless of whether it
// actually changed (used after a client reconnects or calls
// make_all_lines_dirty).
type GetCoarseTabRenderableData struct {
	TabID    tab.TabId
	DirtyAll bool
}

// DirtyLine is one changed row plus the selection range a renderer should
// highlight within it.
type DirtyLine struct {
	LineIndex        int
	Line             string
	SelectionColFrom int
	SelectionColTo   int
}

type GetCoarseTabRenderableDataResponse struct {
	CursorX, CursorY int
	CursorVisible    bool
	PhysicalRows     int
	PhysicalCols     int
	CurrentHighlight string
	DirtyLines       []DirtyLine
	Title            string
}

// Spawn requests a new tab. A nil WindowID means "create a new window for
// this tab"; an empty Argv means "use the domain's default shell".
type Spawn struct {
	DomainID domain.DomainId
	WindowID *window.WindowId
	Argv     []string
	Env      [][2]string
	Size     ptysystem.PtySize
}

type SpawnResponse struct {
	TabID    tab.TabId
	WindowID window.WindowId
}

type WriteToTab struct {
	TabID tab.TabId
	Data  []byte
}

type UnitResponse struct{}

type SendPaste struct {
	TabID tab.TabId
	Data  string
}

type SendKeyDown struct {
	TabID tab.TabId
	Event tab.KeyEvent
}

type SendMouseEvent struct {
	TabID tab.TabId
	Event tab.MouseEvent
}

// SendMouseEventResponse optionally carries clipboard contents the
// terminal application asked to be set as a result of the mouse action
// (e.g. an OSC 52 copy triggered by a click).
type SendMouseEventResponse struct {
	Clipboard *string
}

type Resize struct {
	TabID tab.TabId
	Size  ptysystem.PtySize
}
