//go:build windows

package ptysystem

import (
	"os/exec"

	"github.com/ehrlich-b/wezmux/internal/cmdbuilder"
)

// SpawnCommand starts cb attached to this slave. cb.ToExecCmd already set
// SysProcAttr.CmdLine to the CreateProcessW-compatible command line this
// package builds, so it is left untouched here rather than overwritten
// the way the Unix build sets Setsid/Setctty (fields syscall.SysProcAttr
// doesn't have on this platform).
func (s *localSlave) SpawnCommand(cb *cmdbuilder.CommandBuilder) (Child, error) {
	cmd, err := cb.ToExecCmd()
	if err != nil {
		return nil, err
	}
	cmd.Stdin = s.f
	cmd.Stdout = s.f
	cmd.Stderr = s.f

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	// The parent no longer needs the slave end once the child has it.
	s.f.Close()

	c := &localChild{cmd: cmd, done: make(chan struct{})}
	go c.wait()
	return c, nil
}

// exitStatusFromError has no signal concept on Windows: a process is
// either running, exited with a code, or terminated by TerminateProcess
// (which also surfaces as an exit code), so Signaled is always false.
func exitStatusFromError(cmd *exec.Cmd, err error) ExitStatus {
	if cmd.ProcessState == nil {
		return ExitStatus{ExitCode: -1}
	}
	return ExitStatus{ExitCode: cmd.ProcessState.ExitCode()}
}
