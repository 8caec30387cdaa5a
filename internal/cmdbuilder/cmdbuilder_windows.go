//go:build windows

package cmdbuilder

import (
	"os"
	"os/exec"
	"syscall"
)

// ToExecCmd renders the builder to an *os/exec.Cmd using a pre-built,
// CreateProcessW-compatible command line (SysProcAttr.CmdLine) rather
// than Go's default argv-join quoting, so the exact quoting rules this
// package implements are what actually reaches the child.
//
// Resolved open question: env overrides ARE honored on Windows by
// layering them over os.Environ() into the CreateProcessW environment
// block, instead of being logged and discarded.
func (c *CommandBuilder) ToExecCmd() (*exec.Cmd, error) {
	exe, cmdline, err := BuildWindowsCommandLine(c.argv)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(exe)
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: cmdline}

	env := os.Environ()
	for _, e := range c.envs {
		env = append(env, e.key+"="+e.val)
	}
	cmd.Env = env

	return cmd, nil
}
