//go:build !windows

package ptysystem

import (
	"os/exec"
	"syscall"

	"github.com/ehrlich-b/wezmux/internal/cmdbuilder"
)

// SpawnCommand starts cb attached to this slave, detached into its own
// session with the slave as its controlling terminal so job-control
// signals (Ctrl-C, Ctrl-Z) route the way an interactive shell expects.
func (s *localSlave) SpawnCommand(cb *cmdbuilder.CommandBuilder) (Child, error) {
	cmd, err := cb.ToExecCmd()
	if err != nil {
		return nil, err
	}
	cmd.Stdin = s.f
	cmd.Stdout = s.f
	cmd.Stderr = s.f
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	// The parent no longer needs the slave end once the child has it.
	s.f.Close()

	c := &localChild{cmd: cmd, done: make(chan struct{})}
	go c.wait()
	return c, nil
}

func exitStatusFromError(cmd *exec.Cmd, err error) ExitStatus {
	if cmd.ProcessState == nil {
		return ExitStatus{ExitCode: -1}
	}
	status := ExitStatus{ExitCode: cmd.ProcessState.ExitCode()}
	if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok {
		status.Signaled = ws.Signaled()
	}
	return status
}
