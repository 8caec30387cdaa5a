package rpcclient

import (
	"context"
	"fmt"

	"github.com/ehrlich-b/wezmux/internal/domain"
	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/tab"
	"github.com/ehrlich-b/wezmux/internal/wire"
	"github.com/ehrlich-b/wezmux/internal/window"
)

// errorFromReply turns an ErrorResponse reply into a Go error, or returns
// nil if reply is not an ErrorResponse.
func errorFromReply(reply wire.Pdu) error {
	if reply.Tag == wire.TagErrorResponse && reply.ErrorResponse != nil {
		return fmt.Errorf("rpcclient: %s", reply.ErrorResponse.Reason)
	}
	return nil
}

// Ping round-trips a Ping/Pong pair.
func (c *Client) Ping(ctx context.Context) error {
	reply, err := c.call(ctx, wire.Pdu{Tag: wire.TagPing, Ping: &wire.Ping{}})
	if err != nil {
		return err
	}
	if err := errorFromReply(reply); err != nil {
		return err
	}
	if reply.Tag != wire.TagPong {
		return tab.ErrProtocol
	}
	return nil
}

// ListTabs returns every window/tab/title triple the server currently
// knows about.
func (c *Client) ListTabs(ctx context.Context) ([]wire.WindowAndTabEntry, error) {
	reply, err := c.call(ctx, wire.Pdu{Tag: wire.TagListTabs, ListTabs: &wire.ListTabs{}})
	if err != nil {
		return nil, err
	}
	if err := errorFromReply(reply); err != nil {
		return nil, err
	}
	if reply.Tag != wire.TagListTabsResponse || reply.ListTabsResponse == nil {
		return nil, tab.ErrProtocol
	}
	return reply.ListTabsResponse.Tabs, nil
}

// GetCoarseTabRenderableData fetches a coarse renderable snapshot for id.
func (c *Client) GetCoarseTabRenderableData(ctx context.Context, id tab.TabId, dirtyAll bool) (*wire.GetCoarseTabRenderableDataResponse, error) {
	reply, err := c.call(ctx, wire.Pdu{
		Tag: wire.TagGetCoarseTabRenderableData,
		GetCoarseTabRenderableData: &wire.GetCoarseTabRenderableData{TabID: id, DirtyAll: dirtyAll},
	})
	if err != nil {
		return nil, err
	}
	if err := errorFromReply(reply); err != nil {
		return nil, err
	}
	if reply.Tag != wire.TagGetCoarseTabRenderableDataResponse || reply.GetCoarseTabRenderableDataResponse == nil {
		return nil, tab.ErrProtocol
	}
	return reply.GetCoarseTabRenderableDataResponse, nil
}

// Spawn requests a new tab on the given domain. A nil windowID asks the
// server to create a new window for it.
func (c *Client) Spawn(ctx context.Context, domainID domain.DomainId, windowID *window.WindowId, argv []string, env [][2]string, size ptysystem.PtySize) (*wire.SpawnResponse, error) {
	reply, err := c.call(ctx, wire.Pdu{
		Tag: wire.TagSpawn,
		Spawn: &wire.Spawn{
			DomainID: domainID,
			WindowID: windowID,
			Argv:     argv,
			Env:      env,
			Size:     size,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := errorFromReply(reply); err != nil {
		return nil, err
	}
	if reply.Tag != wire.TagSpawnResponse || reply.SpawnResponse == nil {
		return nil, tab.ErrProtocol
	}
	return reply.SpawnResponse, nil
}

// WriteToTab forwards raw bytes (e.g. pasted-but-not-through-SendPaste
// data) to a remote tab and blocks on UnitResponse.
func (c *Client) WriteToTab(ctx context.Context, id tab.TabId, data []byte) error {
	reply, err := c.call(ctx, wire.Pdu{Tag: wire.TagWriteToTab, WriteToTab: &wire.WriteToTab{TabID: id, Data: data}})
	if err != nil {
		return err
	}
	return unitOrError(reply)
}

// SendKeyDown forwards a key event and blocks on UnitResponse.
func (c *Client) SendKeyDown(ctx context.Context, id tab.TabId, ev tab.KeyEvent) error {
	reply, err := c.call(ctx, wire.Pdu{Tag: wire.TagSendKeyDown, SendKeyDown: &wire.SendKeyDown{TabID: id, Event: ev}})
	if err != nil {
		return err
	}
	return unitOrError(reply)
}

// SendMouseEvent forwards a mouse event and blocks on
// SendMouseEventResponse, returning any clipboard text the server wants
// set as a result.
func (c *Client) SendMouseEvent(ctx context.Context, id tab.TabId, ev tab.MouseEvent) (*string, error) {
	reply, err := c.call(ctx, wire.Pdu{Tag: wire.TagSendMouseEvent, SendMouseEvent: &wire.SendMouseEvent{TabID: id, Event: ev}})
	if err != nil {
		return nil, err
	}
	if err := errorFromReply(reply); err != nil {
		return nil, err
	}
	if reply.Tag != wire.TagSendMouseEventResponse || reply.SendMouseEventResponse == nil {
		return nil, tab.ErrProtocol
	}
	return reply.SendMouseEventResponse.Clipboard, nil
}

// SendPaste forwards pasted text and blocks on UnitResponse.
func (c *Client) SendPaste(ctx context.Context, id tab.TabId, text string) error {
	reply, err := c.call(ctx, wire.Pdu{Tag: wire.TagSendPaste, SendPaste: &wire.SendPaste{TabID: id, Data: text}})
	if err != nil {
		return err
	}
	return unitOrError(reply)
}

// Resize forwards a resize request and blocks on UnitResponse.
func (c *Client) Resize(ctx context.Context, id tab.TabId, size ptysystem.PtySize) error {
	reply, err := c.call(ctx, wire.Pdu{Tag: wire.TagResize, Resize: &wire.Resize{TabID: id, Size: size}})
	if err != nil {
		return err
	}
	return unitOrError(reply)
}

func unitOrError(reply wire.Pdu) error {
	if err := errorFromReply(reply); err != nil {
		return err
	}
	if reply.Tag != wire.TagUnitResponse {
		return tab.ErrProtocol
	}
	return nil
}
