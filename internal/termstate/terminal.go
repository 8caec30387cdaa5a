// Package termstate wraps charmbracelet/x/vt as the "black box" Terminal
// the mux core consumes: it accepts bytes and exposes a Renderable view
// (cursor, dimensions, title, current hyperlink, and dirty lines) without
// the core needing to understand escape sequences or the cell grid model.
package termstate

import (
	"sync"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/vt"
)

// CursorPosition is the cursor's location in the character grid.
type CursorPosition struct {
	X, Y    int
	Visible bool
}

// DirtyLine is one row that changed since the last CleanDirtyLines call,
// together with the selection range a renderer should highlight within it.
type DirtyLine struct {
	Index                          int
	Text                           string
	SelectionColFrom, SelectionColTo int
}

// Palette is the 16-color ANSI palette plus the default foreground,
// background, and cursor colors. Hex strings ("#rrggbb"); empty means
// "use the renderer's default".
type Palette struct {
	Ansi       [16]string
	Foreground string
	Background string
	Cursor     string
}

// DefaultPalette returns the conventional xterm 16-color palette.
func DefaultPalette() Palette {
	return Palette{
		Ansi: [16]string{
			"#000000", "#cc0000", "#4e9a06", "#c4a000",
			"#3465a4", "#75507b", "#06989a", "#d3d7cf",
			"#555753", "#ef2929", "#8ae234", "#fce94f",
			"#729fcf", "#ad7fa8", "#34e2e2", "#eeeeec",
		},
		Foreground: "#eeeeec",
		Background: "#2e3436",
		Cursor:     "#eeeeec",
	}
}

// Renderable is the scoped, exclusive view of a terminal's current
// paintable state.
type Renderable interface {
	CursorPosition() CursorPosition
	DirtyLines() []DirtyLine
	HasDirtyLines() bool
	MakeAllLinesDirty()
	CleanDirtyLines()
	CurrentHighlight() string
	PhysicalDimensions() (rows, cols int)
}

// Terminal is the black-box contract the mux core requires: feed it
// bytes, resize it, read its title, and get a Renderable snapshot.
type Terminal interface {
	Renderable
	Write(p []byte) (int, error)
	Resize(rows, cols int)
	Title() string
	Palette() Palette
	Close() error
}

// VT is the concrete Terminal backed by charmbracelet/x/vt.
type VT struct {
	mu sync.Mutex

	emu  *vt.Emulator
	rows int
	cols int

	title     string
	altScreen bool

	prevLines  []string
	dirty      map[int]struct{}
	dirtyAll   bool
	palette    Palette

	// scrollback is a ring buffer of lines the emulator scrolled out of
	// the visible grid, oldest-overwritten-first, mirroring the capture
	// technique used for session-reconnect snapshots: not read by any
	// mux operation today, but cheap insurance for a future
	// ListTabs-with-history style PDU.
	scrollback []string
	sbHead     int
	sbLen      int
}

// New creates a Terminal of the given size. scrollbackLines bounds how
// many scrolled-off lines are retained in the ring buffer.
func New(rows, cols, scrollbackLines int) *VT {
	if scrollbackLines < 0 {
		scrollbackLines = 0
	}
	t := &VT{
		emu:        vt.NewEmulator(cols, rows),
		rows:       rows,
		cols:       cols,
		dirty:      make(map[int]struct{}),
		palette:    DefaultPalette(),
		scrollback: make([]string, scrollbackLines),
	}
	t.emu.SetCallbacks(vt.Callbacks{
		Title: func(title string) {
			// mu already held by caller (Write)
			t.title = title
		},
		AltScreen: func(on bool) {
			t.altScreen = on
			t.dirtyAll = true
		},
		ScrollbackClear: func() {
			t.dirtyAll = true
			t.sbHead = 0
			t.sbLen = 0
		},
		ScrollOut: func(lines []uv.Line) {
			// mu already held by caller (Write)
			if t.altScreen || len(t.scrollback) == 0 {
				return
			}
			for _, line := range lines {
				if t.sbLen == len(t.scrollback) {
					t.scrollback[t.sbHead] = ""
				}
				t.scrollback[t.sbHead] = line.Render()
				t.sbHead = (t.sbHead + 1) % len(t.scrollback)
				if t.sbLen < len(t.scrollback) {
					t.sbLen++
				}
			}
		},
	})
	t.prevLines = make([]string, rows)
	return t
}

// ScrollbackLen returns the number of scrollback lines currently retained.
func (t *VT) ScrollbackLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sbLen
}

// Write feeds pty output to the emulator and recomputes the dirty-line
// set by diffing the freshly rendered grid against the previous one.
func (t *VT) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.emu.Write(p)
	t.recomputeDirty()
	return n, err
}

// recomputeDirty must be called with mu held.
func (t *VT) recomputeDirty() {
	rendered := t.emu.Render()
	lines := splitLines(rendered, t.rows)

	for i := 0; i < t.rows && i < len(lines); i++ {
		prev := ""
		if i < len(t.prevLines) {
			prev = t.prevLines[i]
		}
		if lines[i] != prev {
			t.dirty[i] = struct{}{}
		}
	}
	t.prevLines = lines
}

func splitLines(rendered string, rows int) []string {
	lines := make([]string, 0, rows)
	start := 0
	for i := 0; i < len(rendered) && len(lines) < rows; i++ {
		if rendered[i] == '\n' {
			lines = append(lines, rendered[start:i])
			start = i + 1
		}
	}
	if len(lines) < rows {
		lines = append(lines, rendered[start:])
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return lines
}

// Resize changes the terminal's character-grid dimensions.
func (t *VT) Resize(rows, cols int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.emu.Resize(cols, rows)
	t.rows = rows
	t.cols = cols
	t.prevLines = make([]string, rows)
	t.dirtyAll = true
}

// Title returns the most recent window-title set via OSC 0/2.
func (t *VT) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// Palette returns the terminal's current color palette.
func (t *VT) Palette() Palette {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.palette
}

// Close releases the emulator's resources.
func (t *VT) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emu.Close()
}

// CursorPosition returns the cursor's current location.
func (t *VT) CursorPosition() CursorPosition {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos := t.emu.CursorPosition()
	return CursorPosition{X: pos.X, Y: pos.Y, Visible: true}
}

// DirtyLines returns the rows that changed since the last CleanDirtyLines,
// in ascending row order.
func (t *VT) DirtyLines() []DirtyLine {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dirtyAll {
		out := make([]DirtyLine, t.rows)
		for i := 0; i < t.rows; i++ {
			out[i] = DirtyLine{Index: i, Text: t.lineAt(i)}
		}
		return out
	}

	out := make([]DirtyLine, 0, len(t.dirty))
	for i := 0; i < t.rows; i++ {
		if _, ok := t.dirty[i]; ok {
			out = append(out, DirtyLine{Index: i, Text: t.lineAt(i)})
		}
	}
	return out
}

// lineAt must be called with mu held.
func (t *VT) lineAt(i int) string {
	if i < len(t.prevLines) {
		return t.prevLines[i]
	}
	return ""
}

// HasDirtyLines reports whether any row changed since the last
// CleanDirtyLines.
func (t *VT) HasDirtyLines() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirtyAll || len(t.dirty) > 0
}

// MakeAllLinesDirty forces every row to be reported dirty on the next
// DirtyLines call, e.g. after a client reconnects and needs a full repaint.
func (t *VT) MakeAllLinesDirty() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirtyAll = true
}

// CleanDirtyLines clears the dirty-row set after a renderer has painted it.
func (t *VT) CleanDirtyLines() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirtyAll = false
	t.dirty = make(map[int]struct{})
}

// CurrentHighlight returns the URI of the hyperlink under the cursor, or
// "" if none. Hyperlink-under-cursor tracking is not wired to the
// emulator in this revision (it would need a Hyperlink callback
// alongside Title/AltScreen/ScrollbackClear); callers always see "".
func (t *VT) CurrentHighlight() string {
	return ""
}

// PhysicalDimensions returns the terminal's current (rows, cols).
func (t *VT) PhysicalDimensions() (rows, cols int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rows, t.cols
}
