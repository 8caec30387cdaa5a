package rpcclient

import (
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ehrlich-b/wezmux/internal/domain"
	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/tab"
	"github.com/ehrlich-b/wezmux/internal/termstate"
	"github.com/ehrlich-b/wezmux/internal/wire"
)

// pollInterval bounds how often RenderableState issues a new poll request
// when nothing has asked for a full repaint (spec §4.10, property 8).
const pollInterval = 50 * time.Millisecond

// tabWriter is the io.Writer ClientTab.Writer() returns: it flushes
// synchronously, blocking on UnitResponse.
type tabWriter struct {
	client *Client
	tabID  tab.TabId
}

func (w *tabWriter) Write(p []byte) (int, error) {
	if err := w.client.WriteToTab(context.Background(), w.tabID, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ClientTab forwards every Tab input to a remote mux over the wire
// protocol and satisfies Renderable by polling.
type ClientTab struct {
	client       *Client
	localTabID   tab.TabId
	remoteTabID  tab.TabId
	domainID     domain.DomainId
	writer       *tabWriter
	renderable   *RenderableState
}

// NewClientTab wires up a ClientTab forwarding to remoteTabID on client.
func NewClientTab(client *Client, domainID domain.DomainId, remoteTabID tab.TabId) *ClientTab {
	return &ClientTab{
		client:      client,
		localTabID:  tab.AllocTabId(),
		remoteTabID: remoteTabID,
		domainID:    domainID,
		writer:      &tabWriter{client: client, tabID: remoteTabID},
		renderable:  newRenderableState(client, remoteTabID),
	}
}

func (t *ClientTab) TabId() tab.TabId       { return t.localTabID }
func (t *ClientTab) DomainId() domain.DomainId { return t.domainID }

func (t *ClientTab) GetTitle() string {
	return "[muxed] " + t.renderable.title()
}

// Reader is not meaningful for a ClientTab: the mux never spawns a
// reader thread for it (there is no local pty to block on — output
// arrives only via polling), but the Tab interface requires the method.
func (t *ClientTab) Reader() (io.Reader, error) {
	r, w := io.Pipe()
	w.Close()
	return r, nil
}

func (t *ClientTab) Writer() io.Writer { return t.writer }

func (t *ClientTab) Renderer() termstate.Renderable { return t.renderable }

func (t *ClientTab) SendPaste(text string) error {
	return t.client.SendPaste(context.Background(), t.remoteTabID, text)
}

func (t *ClientTab) KeyDown(key tab.KeyEvent) error {
	return t.client.SendKeyDown(context.Background(), t.remoteTabID, key)
}

// MouseEvent blocks on SendMouseEventResponse and installs any returned
// clipboard text into host.
func (t *ClientTab) MouseEvent(ev tab.MouseEvent, host tab.TerminalHost) error {
	clipboard, err := t.client.SendMouseEvent(context.Background(), t.remoteTabID, ev)
	if err != nil {
		return err
	}
	if clipboard != nil && host != nil {
		return host.SetClipboard(*clipboard)
	}
	return nil
}

func (t *ClientTab) Resize(size ptysystem.PtySize) error {
	return t.client.Resize(context.Background(), t.remoteTabID, size)
}

// AdvanceBytes is never called for a ClientTab: it has no local reader
// thread feeding it raw bytes, since its content arrives only through
// GetCoarseTabRenderableData polling.
func (t *ClientTab) AdvanceBytes(buf []byte, host tab.TerminalHost) {}

func (t *ClientTab) IsDead() bool { return t.renderable.isDead() }

func (t *ClientTab) Palette() termstate.Palette { return termstate.DefaultPalette() }

// RenderableState is the client-side shadow of a remote tab's renderable
// state, satisfied by polling GetCoarseTabRenderableData at most once per
// pollInterval unless dirtyAll forces an immediate full-repaint request.
type RenderableState struct {
	client *Client
	tabID  tab.TabId

	mu       sync.Mutex
	coarse   *wire.GetCoarseTabRenderableDataResponse
	lastPoll time.Time
	dirtyAll bool
	dead     bool
	inFlight bool

	limiter *rate.Limiter
}

func newRenderableState(client *Client, tabID tab.TabId) *RenderableState {
	return &RenderableState{
		client:   client,
		tabID:    tabID,
		dirtyAll: true,
		limiter:  rate.NewLimiter(rate.Every(pollInterval), 1),
	}
}

func (r *RenderableState) title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.coarse == nil {
		return ""
	}
	return r.coarse.Title
}

func (r *RenderableState) isDead() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dead
}

// poll kicks off a background GetCoarseTabRenderableData request if the
// poll-rate gate and dirtyAll state allow it and none is already in
// flight, then returns immediately — it never blocks the calling
// goroutine on the RPC round-trip (spec §4.10's poll_future design: the
// GUI thread must stay responsive, so the request resolves on its own
// goroutine and accessors just read whatever coarse state is cached,
// picking up the refreshed value on a later call once it lands). It
// never runs two requests concurrently against the same tab.
func (r *RenderableState) poll() {
	r.mu.Lock()
	if r.inFlight || r.dead {
		r.mu.Unlock()
		return
	}
	dirtyAll := r.dirtyAll
	allowed := r.limiter.Allow()
	if !dirtyAll && !allowed {
		r.mu.Unlock()
		return
	}
	r.inFlight = true
	r.mu.Unlock()

	go r.resolve(dirtyAll)
}

// resolve performs the actual RPC round-trip off the caller's goroutine
// and installs the result (or marks the tab dead) once it lands.
func (r *RenderableState) resolve(dirtyAll bool) {
	resp, err := r.client.GetCoarseTabRenderableData(context.Background(), r.tabID, dirtyAll)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = false
	if err != nil {
		r.dead = true
		return
	}
	r.coarse = resp
	r.dirtyAll = false
	r.lastPoll = time.Now()
}

// CursorPosition triggers a background poll (see poll) and returns the
// most recently cached cursor position; it never blocks on the RPC.
func (r *RenderableState) CursorPosition() termstate.CursorPosition {
	r.poll()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.coarse == nil {
		return termstate.CursorPosition{}
	}
	return termstate.CursorPosition{X: r.coarse.CursorX, Y: r.coarse.CursorY, Visible: r.coarse.CursorVisible}
}

func (r *RenderableState) DirtyLines() []termstate.DirtyLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.coarse == nil {
		return nil
	}
	out := make([]termstate.DirtyLine, len(r.coarse.DirtyLines))
	for i, dl := range r.coarse.DirtyLines {
		out[i] = termstate.DirtyLine{
			Index:            dl.LineIndex,
			Text:             dl.Line,
			SelectionColFrom: dl.SelectionColFrom,
			SelectionColTo:   dl.SelectionColTo,
		}
	}
	return out
}

// HasDirtyLines triggers a background poll, per spec §4.10: any I/O
// error while resolving it sets dead (monotonic). The cached result from
// the previous poll is returned immediately regardless of whether this
// call's poll is still in flight.
func (r *RenderableState) HasDirtyLines() bool {
	r.poll()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coarse != nil && len(r.coarse.DirtyLines) > 0
}

func (r *RenderableState) MakeAllLinesDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirtyAll = true
}

func (r *RenderableState) CleanDirtyLines() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.coarse != nil {
		r.coarse.DirtyLines = nil
	}
}

func (r *RenderableState) CurrentHighlight() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.coarse == nil {
		return ""
	}
	return r.coarse.CurrentHighlight
}

func (r *RenderableState) PhysicalDimensions() (rows, cols int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.coarse == nil {
		return 0, 0
	}
	return r.coarse.PhysicalRows, r.coarse.PhysicalCols
}
