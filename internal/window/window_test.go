package window

import (
	"io"
	"testing"

	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/tab"
	"github.com/ehrlich-b/wezmux/internal/termstate"
)

// fakeTab is a minimal tab.Tab for exercising Window without spawning real
// ptys.
type fakeTab struct {
	id tab.TabId
}

func newFakeTab() *fakeTab { return &fakeTab{id: tab.AllocTabId()} }

func (f *fakeTab) TabId() tab.TabId         { return f.id }
func (f *fakeTab) DomainId() tab.DomainId   { return 0 }
func (f *fakeTab) GetTitle() string         { return "" }
func (f *fakeTab) Reader() (io.Reader, error) { return nil, nil }
func (f *fakeTab) Writer() io.Writer        { return nil }
func (f *fakeTab) Renderer() termstate.Renderable {
	return termstate.New(24, 80, 0)
}
func (f *fakeTab) SendPaste(string) error                       { return nil }
func (f *fakeTab) KeyDown(tab.KeyEvent) error                    { return nil }
func (f *fakeTab) MouseEvent(tab.MouseEvent, tab.TerminalHost) error { return nil }
func (f *fakeTab) Resize(ptysystem.PtySize) error                { return nil }
func (f *fakeTab) AdvanceBytes([]byte, tab.TerminalHost)          {}
func (f *fakeTab) IsDead() bool                                  { return false }
func (f *fakeTab) Palette() termstate.Palette                    { return termstate.DefaultPalette() }

func TestNewWindowIsEmpty(t *testing.T) {
	w := New()
	if !w.IsEmpty() {
		t.Errorf("fresh window should be empty")
	}
	if w.GetActive() != nil {
		t.Errorf("GetActive() on empty window should be nil")
	}
}

func TestPushMakesTabActive(t *testing.T) {
	w := New()
	a := newFakeTab()
	w.Push(a)

	if w.GetActive() != tab.Tab(a) {
		t.Errorf("GetActive() did not return the just-pushed tab")
	}

	b := newFakeTab()
	w.Push(b)
	if w.GetActive() != tab.Tab(b) {
		t.Errorf("GetActive() did not return the latest pushed tab")
	}
}

func TestRemoveByIDClampsActiveIndex(t *testing.T) {
	w := New()
	a, b, c := newFakeTab(), newFakeTab(), newFakeTab()
	w.Push(a)
	w.Push(b)
	w.Push(c)
	w.SetActive(2) // c is active

	if !w.RemoveByID(c.TabId()) {
		t.Fatalf("RemoveByID(c) = false, want true")
	}
	if w.GetActive() != tab.Tab(b) {
		t.Errorf("active tab after removing last = %v, want b", w.GetActive())
	}
}

func TestRemoveByIDUnknownReturnsFalse(t *testing.T) {
	w := New()
	w.Push(newFakeTab())
	if w.RemoveByID(tab.TabId(999999)) {
		t.Errorf("RemoveByID(unknown) = true, want false")
	}
}

func TestAllocWindowIdIsMonotonic(t *testing.T) {
	a := AllocWindowId()
	b := AllocWindowId()
	if b <= a {
		t.Errorf("AllocWindowId not monotonic: a=%d b=%d", a, b)
	}
}
