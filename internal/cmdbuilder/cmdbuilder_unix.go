//go:build !windows

package cmdbuilder

import (
	"os"
	"os/exec"
)

// ToExecCmd renders the builder to an *os/exec.Cmd by applying env
// overrides on top of the current process environment.
func (c *CommandBuilder) ToExecCmd() (*exec.Cmd, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cmd := exec.Command(c.argv[0], c.argv[1:]...)
	env := os.Environ()
	for _, e := range c.envs {
		env = append(env, e.key+"="+e.val)
	}
	cmd.Env = env
	return cmd, nil
}
