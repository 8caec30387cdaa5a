package rpcclient

import (
	"context"

	"github.com/ehrlich-b/wezmux/internal/cmdbuilder"
	"github.com/ehrlich-b/wezmux/internal/domain"
	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/tab"
)

// ClientDomain implements domain.Domain by forwarding Spawn requests to a
// remote mux over a Client. It lives in this package rather than package
// domain because it must import wire's PDU types, which already import
// domain for DomainId/WindowId field types — putting ClientDomain in
// package domain itself would close that into an import cycle.
type ClientDomain struct {
	client   *Client
	domainID domain.DomainId
}

// NewClientDomain wraps client to act as the Domain identified by domainID
// on the remote mux (known by convention, e.g. the remote's DefaultDomain;
// ListTabs entries do not carry a domain id).
func NewClientDomain(client *Client, domainID domain.DomainId) *ClientDomain {
	return &ClientDomain{client: client, domainID: domainID}
}

func (d *ClientDomain) DomainId() domain.DomainId { return d.domainID }

// Spawn issues a Spawn PDU against the remote domain and wraps the
// resulting remote tab id in a ClientTab. The remote always creates a new
// window for the spawned tab; callers that want to place it into an
// existing window should call Client.Spawn with a non-nil windowID instead.
func (d *ClientDomain) Spawn(size ptysystem.PtySize, command *cmdbuilder.CommandBuilder) (tab.Tab, error) {
	argv, env := flattenCommand(command)
	resp, err := d.client.Spawn(context.Background(), d.domainID, nil, argv, env, size)
	if err != nil {
		return nil, err
	}
	return NewClientTab(d.client, d.domainID, resp.TabID), nil
}

func flattenCommand(command *cmdbuilder.CommandBuilder) ([]string, [][2]string) {
	if command == nil {
		return nil, nil
	}
	return command.Argv(), command.Envs()
}
