package domain

import (
	"github.com/ehrlich-b/wezmux/internal/cmdbuilder"
	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/tab"
	"github.com/ehrlich-b/wezmux/internal/termstate"
)

// LocalDomain spawns commands directly on this host via a PtySystem.
type LocalDomain struct {
	id              DomainId
	ptySystem       ptysystem.PtySystem
	defaultShell    string
	scrollbackLines int
}

// NewLocalDomain constructs a LocalDomain backed by sys. defaultShell is
// used when Spawn is called with a nil CommandBuilder.
func NewLocalDomain(sys ptysystem.PtySystem, defaultShell string, scrollbackLines int) *LocalDomain {
	return &LocalDomain{
		id:              AllocDomainId(),
		ptySystem:       sys,
		defaultShell:    defaultShell,
		scrollbackLines: scrollbackLines,
	}
}

func (d *LocalDomain) DomainId() DomainId { return d.id }

// Spawn opens a new pty, starts the command, and wraps the result in a
// LocalTab. A nil command spawns the domain's default shell.
func (d *LocalDomain) Spawn(size ptysystem.PtySize, command *cmdbuilder.CommandBuilder) (tab.Tab, error) {
	cmd := command
	if cmd == nil {
		cmd = cmdbuilder.New(d.defaultShell)
	}

	master, slave, err := d.ptySystem.OpenPTY(size)
	if err != nil {
		return nil, err
	}

	child, err := slave.SpawnCommand(cmd)
	if err != nil {
		master.Close()
		return nil, err
	}

	term := termstate.New(int(size.Rows), int(size.Cols), d.scrollbackLines)
	return tab.NewLocalTab(d.id, term, child, master), nil
}
