// Package domain models a Domain: an instance of a multiplexer that can
// spawn tabs. A LocalDomain spawns commands directly on this host; a
// ClientDomain forwards spawns to a remote mux over the wire protocol.
package domain

import (
	"sync/atomic"

	"github.com/ehrlich-b/wezmux/internal/cmdbuilder"
	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/tab"
)

// DomainId aliases tab.DomainId so Tab implementations don't need to
// import this package (which itself depends on tab).
type DomainId = tab.DomainId

var nextDomainId uint32

// AllocDomainId returns a fresh, process-unique DomainId.
func AllocDomainId() DomainId {
	return DomainId(atomic.AddUint32(&nextDomainId, 1))
}

// Domain spawns new tabs, either locally or by forwarding to a remote mux.
// A nil command means "use the domain's configured default shell".
type Domain interface {
	DomainId() DomainId
	Spawn(size ptysystem.PtySize, command *cmdbuilder.CommandBuilder) (tab.Tab, error)
}
