// Package mux holds the single process-wide Mux: the state graph of tabs,
// windows, and domains, plus the pty-reader-thread -> GUI-executor
// dispatch that feeds tab output into that state safely.
package mux

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/ehrlich-b/wezmux/internal/domain"
	"github.com/ehrlich-b/wezmux/internal/guiexec"
	"github.com/ehrlich-b/wezmux/internal/logger"
	"github.com/ehrlich-b/wezmux/internal/tab"
	"github.com/ehrlich-b/wezmux/internal/window"
)

// readBufSize is the chunk size the reader thread reads per iteration
// (spec §5: "reads up to 32 KiB per iteration").
const readBufSize = 32 * 1024

// Mux is the state graph of tabs, windows, and domains. All mutations are
// expected to run on the GUI thread (enforced by routing them through the
// GuiExecutor); lookups are safe from any thread.
type Mux struct {
	mu sync.Mutex

	tabs    map[tab.TabId]tab.Tab
	windows map[window.WindowId]*window.Window
	domains map[domain.DomainId]domain.Domain

	defaultDomain domain.Domain
	executor      guiexec.Executor
}

// New constructs a Mux with defaultDomain already registered. executor is
// used to dispatch pty bytes and tab-removal back onto the GUI thread.
func New(defaultDomain domain.Domain, executor guiexec.Executor) *Mux {
	m := &Mux{
		tabs:          make(map[tab.TabId]tab.Tab),
		windows:       make(map[window.WindowId]*window.Window),
		domains:       make(map[domain.DomainId]domain.Domain),
		defaultDomain: defaultDomain,
		executor:      executor,
	}
	m.domains[defaultDomain.DomainId()] = defaultDomain
	return m
}

var current atomic.Pointer[Mux]

// Set installs m as the process-wide Mux singleton. Go has no thread-local
// storage analogous to Rust's thread_local!, and the mux is addressed from
// multiple goroutines (reader threads, the RPC server), so the singleton
// is an atomic.Pointer rather than a thread-local cell; callers still set
// it exactly once at startup.
func Set(m *Mux) { current.Store(m) }

// Get returns the process-wide Mux, or nil if Set has not yet been called.
func Get() *Mux { return current.Load() }

func (m *Mux) DefaultDomain() domain.Domain { return m.defaultDomain }

// GetDomain looks up a registered domain by id.
func (m *Mux) GetDomain(id domain.DomainId) domain.Domain {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.domains[id]
}

// AddDomain registers an additional domain (e.g. a ClientDomain pointed at
// a remote server).
func (m *Mux) AddDomain(d domain.Domain) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domains[d.DomainId()] = d
}

// GetTab looks up a tab by id.
func (m *Mux) GetTab(id tab.TabId) tab.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tabs[id]
}

// AddTab inserts t into the tab table and spawns a reader thread bound to
// its pty. Fails if t.Reader() fails.
func (m *Mux) AddTab(t tab.Tab) error {
	reader, err := t.Reader()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.tabs[t.TabId()] = t
	m.mu.Unlock()

	go m.readFromTabPty(t.TabId(), reader)
	return nil
}

// readFromTabPty is the per-tab reader thread: it blocks on the pty
// master, and for every chunk read dispatches a work item to the GUI
// executor that calls tab.AdvanceBytes. On EOF or read error it posts a
// RemoveTab work item and exits.
func (m *Mux) readFromTabPty(id tab.TabId, reader io.Reader) {
	buf := make([]byte, readBufSize)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			m.executor.Execute(func() {
				t := m.GetTab(id)
				if t == nil {
					return
				}
				t.AdvanceBytes(data, tab.NullHost{W: t.Writer()})
			})
		}
		if err != nil {
			logger.WithTab(uint32(id)).Debug("pty reader stopped", "err", err)
			break
		}
	}
	m.executor.Execute(func() {
		m.RemoveTab(id)
	})
}

// RemoveTab removes tab_id from the tab table, removes it from every
// window, and deletes any window that becomes empty as a result. Must be
// called on the GUI thread.
func (m *Mux) RemoveTab(id tab.TabId) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tabs, id)

	var deadWindows []window.WindowId
	for wid, w := range m.windows {
		if w.RemoveByID(id) && w.IsEmpty() {
			deadWindows = append(deadWindows, wid)
		}
	}
	for _, wid := range deadWindows {
		delete(m.windows, wid)
	}
}

// NewEmptyWindow allocates a fresh window with no tabs and registers it.
func (m *Mux) NewEmptyWindow() window.WindowId {
	w := window.New()
	m.mu.Lock()
	m.windows[w.Id()] = w
	m.mu.Unlock()
	return w.Id()
}

// AddTabToWindow appends t to the given window.
func (m *Mux) AddTabToWindow(t tab.Tab, windowID window.WindowId) error {
	m.mu.Lock()
	w, ok := m.windows[windowID]
	m.mu.Unlock()
	if !ok {
		return tab.ErrNoSuchWindow
	}
	w.Push(t)
	return nil
}

// GetWindow returns the window with the given id, or nil.
func (m *Mux) GetWindow(windowID window.WindowId) *window.Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.windows[windowID]
}

// GetActiveTabForWindow returns the given window's active tab, or nil if
// the window doesn't exist or has no tabs.
func (m *Mux) GetActiveTabForWindow(windowID window.WindowId) tab.Tab {
	w := m.GetWindow(windowID)
	if w == nil {
		return nil
	}
	return w.GetActive()
}

// IsEmpty reports whether the mux has no tabs at all.
func (m *Mux) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tabs) == 0
}

// IterTabs returns every registered tab, in no particular order.
func (m *Mux) IterTabs() []tab.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]tab.Tab, 0, len(m.tabs))
	for _, t := range m.tabs {
		out = append(out, t)
	}
	return out
}

// IterWindows returns every registered window id, in no particular order.
func (m *Mux) IterWindows() []window.WindowId {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]window.WindowId, 0, len(m.windows))
	for id := range m.windows {
		out = append(out, id)
	}
	return out
}
