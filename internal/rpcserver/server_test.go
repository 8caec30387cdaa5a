package rpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ehrlich-b/wezmux/internal/domain"
	"github.com/ehrlich-b/wezmux/internal/guiexec"
	"github.com/ehrlich-b/wezmux/internal/mux"
	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/rpcclient"
)

func newTestServerAndClient(t *testing.T) (*Server, *rpcclient.Client, domain.DomainId) {
	t.Helper()
	d := domain.NewLocalDomain(ptysystem.NewLocal(), "/bin/cat", 100)
	m := mux.New(d, guiexec.Sync{})
	s := New(m)

	serverConn, clientConn := net.Pipe()
	go s.serveConn("test", serverConn)
	c := rpcclient.NewOverConn(clientConn)

	t.Cleanup(func() { c.Close() })
	return s, c, d.DomainId()
}

func TestPingPong(t *testing.T) {
	_, c, _ := newTestServerAndClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

// TestSpawnThenListTabs covers scenario S2: Client sends Spawn with
// domain_id=default, window_id=nil, command=nil; server creates a local
// tab in a new window; a subsequent ListTabs reports it.
func TestSpawnThenListTabs(t *testing.T) {
	_, c, domID := newTestServerAndClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.Spawn(ctx, domID, nil, nil, nil, ptysystem.PtySize{Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if resp.TabID == 0 || resp.WindowID == 0 {
		t.Fatalf("SpawnResponse = %+v, want nonzero ids", resp)
	}

	tabs, err := c.ListTabs(ctx)
	if err != nil {
		t.Fatalf("ListTabs: %v", err)
	}
	found := false
	for _, entry := range tabs {
		if entry.TabID == resp.TabID && entry.WindowID == resp.WindowID {
			found = true
		}
	}
	if !found {
		t.Errorf("ListTabs() = %+v, want an entry for tab %d in window %d", tabs, resp.TabID, resp.WindowID)
	}
}

func TestGetCoarseTabRenderableDataAfterSpawn(t *testing.T) {
	_, c, domID := newTestServerAndClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.Spawn(ctx, domID, nil, nil, nil, ptysystem.PtySize{Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	data, err := c.GetCoarseTabRenderableData(ctx, resp.TabID, true)
	if err != nil {
		t.Fatalf("GetCoarseTabRenderableData: %v", err)
	}
	if data.PhysicalRows != 24 || data.PhysicalCols != 80 {
		t.Errorf("data = %+v, want 24x80", data)
	}
}

func TestUnknownTabReturnsError(t *testing.T) {
	_, c, _ := newTestServerAndClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.GetCoarseTabRenderableData(ctx, 999999, false)
	if err == nil {
		t.Fatalf("expected an error for an unknown tab id")
	}
}
