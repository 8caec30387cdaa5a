// Package window groups tabs into an ordered, single-active-tab list, the
// unit the GUI host renders as one OS-level window.
package window

import (
	"sync/atomic"

	"github.com/ehrlich-b/wezmux/internal/tab"
)

// WindowId uniquely identifies a window within a process, allocated from
// its own monotonic counter independent of TabId and DomainId.
type WindowId uint32

var nextWindowId uint32

// AllocWindowId returns a fresh, process-unique WindowId.
func AllocWindowId() WindowId {
	return WindowId(atomic.AddUint32(&nextWindowId, 1))
}

// Window is an ordered list of tabs with one active index.
type Window struct {
	id     WindowId
	tabs   []tab.Tab
	active int
}

// New allocates a fresh, empty Window.
func New() *Window {
	return &Window{id: AllocWindowId(), active: -1}
}

func (w *Window) Id() WindowId { return w.id }

// Push appends t to the window and makes it the active tab.
func (w *Window) Push(t tab.Tab) {
	w.tabs = append(w.tabs, t)
	w.active = len(w.tabs) - 1
}

// RemoveByID removes the tab with the given id, if present, clamping the
// active index to min(active, len-1). Reports whether a tab was removed.
func (w *Window) RemoveByID(id tab.TabId) bool {
	for i, t := range w.tabs {
		if t.TabId() == id {
			w.tabs = append(w.tabs[:i], w.tabs[i+1:]...)
			if w.active >= len(w.tabs) {
				w.active = len(w.tabs) - 1
			}
			return true
		}
	}
	return false
}

// GetActive returns the active tab, or nil if the window is empty.
func (w *Window) GetActive() tab.Tab {
	if w.active < 0 || w.active >= len(w.tabs) {
		return nil
	}
	return w.tabs[w.active]
}

// SetActive sets the active index. Ignored if out of range.
func (w *Window) SetActive(index int) {
	if index < 0 || index >= len(w.tabs) {
		return
	}
	w.active = index
}

// IsEmpty reports whether the window has no tabs.
func (w *Window) IsEmpty() bool {
	return len(w.tabs) == 0
}

// Tabs returns the window's tabs in order. The returned slice must not be
// mutated by the caller.
func (w *Window) Tabs() []tab.Tab {
	return w.tabs
}

// ActiveIndex returns the current active index, or -1 if empty.
func (w *Window) ActiveIndex() int {
	return w.active
}
