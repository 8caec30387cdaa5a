// Package rpcserver dispatches decoded PDUs to a local Mux and replies
// with the matching response tag, per connection, over any byte-stream
// listener the embedder provides.
package rpcserver

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/ehrlich-b/wezmux/internal/cmdbuilder"
	"github.com/ehrlich-b/wezmux/internal/domain"
	"github.com/ehrlich-b/wezmux/internal/logger"
	"github.com/ehrlich-b/wezmux/internal/mux"
	"github.com/ehrlich-b/wezmux/internal/tab"
	"github.com/ehrlich-b/wezmux/internal/wire"
	"github.com/ehrlich-b/wezmux/internal/window"
)

// Server owns a Mux and dispatches each received PDU to the matching mux
// operation. Request/reply mapping is one-to-one; the server never
// initiates (no server push in this revision).
type Server struct {
	m *mux.Mux
}

// New returns a Server dispatching against m.
func New(m *mux.Mux) *Server {
	return &Server{m: m}
}

// Serve accepts connections from ln until it returns an error (typically
// because the caller closed ln).
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		connID := uuid.New().String()
		go s.serveConn(connID, conn)
	}
}

// serveConn decodes frames from conn, dispatches each to the matching mux
// operation, and writes back the reply frame. Writes are serialized by
// writeMu since a misbehaving client could otherwise interleave two
// concurrent handler goroutines' replies (the server processes one PDU at
// a time per connection here, but keeps the mutex for safety against
// future concurrent dispatch).
func (s *Server) serveConn(connID string, conn net.Conn) {
	defer conn.Close()
	log := logger.WithConn(connID)
	log.Info("rpc connection accepted", "remote", conn.RemoteAddr())

	var writeMu sync.Mutex
	br := wire.NewByteReader(conn)

	for {
		decoded, err := wire.Decode(br)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug("rpc connection decode error", "err", err)
			}
			return
		}

		reply := s.dispatch(decoded.Pdu)

		writeMu.Lock()
		err = wire.Encode(conn, reply, decoded.Serial)
		writeMu.Unlock()
		if err != nil {
			log.Debug("rpc connection write error", "err", err)
			return
		}
	}
}

// dispatch maps one decoded PDU to the corresponding mux operation and
// builds the reply PDU. Errors are encoded as ErrorResponse{reason}; the
// server never fails the transport on a bad request.
func (s *Server) dispatch(p wire.Pdu) wire.Pdu {
	switch p.Tag {
	case wire.TagPing:
		return wire.Pdu{Tag: wire.TagPong, Pong: &wire.Pong{}}

	case wire.TagListTabs:
		return s.listTabs()

	case wire.TagSpawn:
		return s.spawn(p.Spawn)

	case wire.TagGetCoarseTabRenderableData:
		return s.getCoarseTabRenderableData(p.GetCoarseTabRenderableData)

	case wire.TagWriteToTab:
		return s.writeToTab(p.WriteToTab)

	case wire.TagSendKeyDown:
		return s.sendKeyDown(p.SendKeyDown)

	case wire.TagSendMouseEvent:
		return s.sendMouseEvent(p.SendMouseEvent)

	case wire.TagSendPaste:
		return s.sendPaste(p.SendPaste)

	case wire.TagResize:
		return s.resize(p.Resize)

	default:
		return errorResponse("unsupported request tag")
	}
}

func errorResponse(reason string) wire.Pdu {
	return wire.Pdu{Tag: wire.TagErrorResponse, ErrorResponse: &wire.ErrorResponse{Reason: reason}}
}

func (s *Server) listTabs() wire.Pdu {
	var entries []wire.WindowAndTabEntry
	for _, wid := range s.m.IterWindows() {
		w := s.m.GetWindow(wid)
		if w == nil {
			continue
		}
		for _, t := range w.Tabs() {
			entries = append(entries, wire.WindowAndTabEntry{
				WindowID: wid,
				TabID:    t.TabId(),
				Title:    t.GetTitle(),
			})
		}
	}
	return wire.Pdu{Tag: wire.TagListTabsResponse, ListTabsResponse: &wire.ListTabsResponse{Tabs: entries}}
}

// spawn creates a local tab in the requested (or a fresh) window. Per the
// spec's original_source-derived expansion, WindowID == nil means "create
// a new window for this tab".
func (s *Server) spawn(req *wire.Spawn) wire.Pdu {
	if req == nil {
		return errorResponse("missing Spawn payload")
	}
	d := s.m.GetDomain(req.DomainID)
	if d == nil {
		return errorResponse("no such domain")
	}

	var cb *cmdbuilder.CommandBuilder
	if len(req.Argv) > 0 {
		cb = cmdbuilder.New(req.Argv[0]).Args(req.Argv[1:]...)
		for _, kv := range req.Env {
			cb = cb.Env(kv[0], kv[1])
		}
	}

	newTab, err := d.Spawn(req.Size, cb)
	if err != nil {
		return errorResponse(err.Error())
	}
	if err := s.m.AddTab(newTab); err != nil {
		return errorResponse(err.Error())
	}

	windowID := req.WindowID
	var wid window.WindowId
	if windowID == nil {
		wid = s.m.NewEmptyWindow()
	} else {
		wid = *windowID
	}
	if err := s.m.AddTabToWindow(newTab, wid); err != nil {
		return errorResponse(err.Error())
	}

	return wire.Pdu{Tag: wire.TagSpawnResponse, SpawnResponse: &wire.SpawnResponse{
		TabID:    newTab.TabId(),
		WindowID: wid,
	}}
}

func (s *Server) getCoarseTabRenderableData(req *wire.GetCoarseTabRenderableData) wire.Pdu {
	if req == nil {
		return errorResponse("missing GetCoarseTabRenderableData payload")
	}
	t := s.m.GetTab(req.TabID)
	if t == nil {
		return errorResponse(tab.ErrNoSuchTab.Error())
	}

	r := t.Renderer()
	if req.DirtyAll {
		r.MakeAllLinesDirty()
	}

	cursor := r.CursorPosition()
	rows, cols := r.PhysicalDimensions()

	var dirty []wire.DirtyLine
	for _, dl := range r.DirtyLines() {
		dirty = append(dirty, wire.DirtyLine{
			LineIndex:        dl.Index,
			Line:             dl.Text,
			SelectionColFrom: dl.SelectionColFrom,
			SelectionColTo:   dl.SelectionColTo,
		})
	}
	r.CleanDirtyLines()

	return wire.Pdu{Tag: wire.TagGetCoarseTabRenderableDataResponse, GetCoarseTabRenderableDataResponse: &wire.GetCoarseTabRenderableDataResponse{
		CursorX:          cursor.X,
		CursorY:          cursor.Y,
		CursorVisible:    cursor.Visible,
		PhysicalRows:     rows,
		PhysicalCols:     cols,
		CurrentHighlight: r.CurrentHighlight(),
		DirtyLines:       dirty,
		Title:            t.GetTitle(),
	}}
}

func (s *Server) writeToTab(req *wire.WriteToTab) wire.Pdu {
	if req == nil {
		return errorResponse("missing WriteToTab payload")
	}
	t := s.m.GetTab(req.TabID)
	if t == nil {
		return errorResponse(tab.ErrNoSuchTab.Error())
	}
	if _, err := t.Writer().Write(req.Data); err != nil {
		return errorResponse(err.Error())
	}
	return wire.Pdu{Tag: wire.TagUnitResponse, UnitResponse: &wire.UnitResponse{}}
}

func (s *Server) sendKeyDown(req *wire.SendKeyDown) wire.Pdu {
	if req == nil {
		return errorResponse("missing SendKeyDown payload")
	}
	t := s.m.GetTab(req.TabID)
	if t == nil {
		return errorResponse(tab.ErrNoSuchTab.Error())
	}
	if err := t.KeyDown(req.Event); err != nil {
		return errorResponse(err.Error())
	}
	return wire.Pdu{Tag: wire.TagUnitResponse, UnitResponse: &wire.UnitResponse{}}
}

func (s *Server) sendMouseEvent(req *wire.SendMouseEvent) wire.Pdu {
	if req == nil {
		return errorResponse("missing SendMouseEvent payload")
	}
	t := s.m.GetTab(req.TabID)
	if t == nil {
		return errorResponse(tab.ErrNoSuchTab.Error())
	}
	if err := t.MouseEvent(req.Event, tab.NullHost{W: t.Writer()}); err != nil {
		return errorResponse(err.Error())
	}
	return wire.Pdu{Tag: wire.TagSendMouseEventResponse, SendMouseEventResponse: &wire.SendMouseEventResponse{}}
}

func (s *Server) sendPaste(req *wire.SendPaste) wire.Pdu {
	if req == nil {
		return errorResponse("missing SendPaste payload")
	}
	t := s.m.GetTab(req.TabID)
	if t == nil {
		return errorResponse(tab.ErrNoSuchTab.Error())
	}
	if err := t.SendPaste(req.Data); err != nil {
		return errorResponse(err.Error())
	}
	return wire.Pdu{Tag: wire.TagUnitResponse, UnitResponse: &wire.UnitResponse{}}
}

func (s *Server) resize(req *wire.Resize) wire.Pdu {
	if req == nil {
		return errorResponse("missing Resize payload")
	}
	t := s.m.GetTab(req.TabID)
	if t == nil {
		return errorResponse(tab.ErrNoSuchTab.Error())
	}
	if err := t.Resize(req.Size); err != nil {
		return errorResponse(err.Error())
	}
	return wire.Pdu{Tag: wire.TagUnitResponse, UnitResponse: &wire.UnitResponse{}}
}

